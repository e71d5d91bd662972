package scheduler

import (
	"fmt"
	"sync"
	"time"

	"auction-house/utils"

	"github.com/robfig/cron/v3"
)

// Sweeper materializes the closed flag of auctions whose deadline passed
type Sweeper interface {
	ExpireAuctions() int
}

// ExpiryScheduler runs the expiry sweep on a fixed interval. Auction status
// never depends on it; it only keeps stored flags in step with the clock.
type ExpiryScheduler struct {
	cron     *cron.Cron
	sweeper  Sweeper
	interval time.Duration

	mu      sync.Mutex
	running bool
}

func NewExpiryScheduler(sweeper Sweeper, interval time.Duration) *ExpiryScheduler {
	return &ExpiryScheduler{
		cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		sweeper:  sweeper,
		interval: interval,
	}
}

func (s *ExpiryScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	if s.interval < time.Second {
		return fmt.Errorf("scheduler: interval %s below one second", s.interval)
	}

	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce() }); err != nil {
		return fmt.Errorf("scheduler: schedule %q: %w", spec, err)
	}

	utils.Info("starting expiry scheduler", map[string]any{"interval": s.interval.String()})
	s.cron.Start()
	s.running = true
	return nil
}

// Stop halts the schedule and waits for a sweep in flight to finish
func (s *ExpiryScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}

	utils.Info("stopping expiry scheduler", nil)
	<-s.cron.Stop().Done()
	s.running = false
}

// RunOnce performs a single sweep and returns how many auctions it closed
func (s *ExpiryScheduler) RunOnce() int {
	n := s.sweeper.ExpireAuctions()
	if n > 0 {
		utils.Info("expiry sweep closed auctions", map[string]any{"closed": n})
	}
	return n
}
