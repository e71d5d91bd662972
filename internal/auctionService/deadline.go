package auctionsvc

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"auction-house/internal/auctionerrors"
)

const day = 24 * time.Hour

// DeadlinePolicy computes when a new auction ends
type DeadlinePolicy interface {
	EndsAt(createdAt time.Time, requested time.Duration) (time.Time, error)
}

// FixedDuration ends auctions exactly the requested duration after creation
type FixedDuration struct{}

func (FixedDuration) EndsAt(createdAt time.Time, requested time.Duration) (time.Time, error) {
	if requested <= 0 {
		return time.Time{}, fmt.Errorf("%w - duration must be positive, got %s", auctionerrors.ErrInvalidInput, requested)
	}
	return createdAt.Add(requested), nil
}

// RandomDeadline ignores the requested duration and picks an end time
// between 1 and 30 days ahead, at a random moment within that day.
// It exists for demo data where auctions should close on unpredictable dates.
type RandomDeadline struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomDeadline seeds the policy. Zero picks a time-based seed.
func NewRandomDeadline(seed int64) *RandomDeadline {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomDeadline{rnd: rand.New(rand.NewSource(seed))}
}

func (p *RandomDeadline) EndsAt(createdAt time.Time, _ time.Duration) (time.Time, error) {
	p.mu.Lock()
	daysAhead := 1 + p.rnd.Intn(30)
	extra := time.Duration(p.rnd.Int63n(int64(day/time.Second))) * time.Second
	p.mu.Unlock()

	return createdAt.Add(time.Duration(daysAhead)*day + extra), nil
}

// ParseDeadlinePolicy maps a config value to a policy. "fixed" is the default.
func ParseDeadlinePolicy(name string, seed int64) (DeadlinePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "fixed":
		return FixedDuration{}, nil
	case "random":
		return NewRandomDeadline(seed), nil
	default:
		return nil, fmt.Errorf("%w - unknown deadline policy %q", auctionerrors.ErrInvalidInput, name)
	}
}
