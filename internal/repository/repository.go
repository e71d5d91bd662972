package repository

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"auction-house/internal/auction"
	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// NewAuction holds the fields of an auction before an id is assigned
type NewAuction struct {
	Title         string
	Description   string
	StartingPrice float64
	Owner         *models.User
	CreatedAt     time.Time
	EndsAt        time.Time
}

// AuctionDB defines the auction storage interface
type AuctionDB interface {
	CreateAuction(draft NewAuction) *auction.Auction
	GetAuction(auctionID int64) (*auction.Auction, error)
	ListAuctions() []*auction.Auction
	ExpireAuctions() int
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu       sync.RWMutex
	auctions map[int64]*auction.Auction // key: auctionID -> value: auction record
	nextID   int64
	clock    auction.Clock
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return NewMemoryRepoWithClock(time.Now)
}

// NewMemoryRepoWithClock creates a repository whose records read time from clock
func NewMemoryRepoWithClock(clock auction.Clock) *MemoryRepo {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryRepo{
		auctions: make(map[int64]*auction.Auction),
		clock:    clock,
	}
}

// CreateAuction assigns the next id and stores a new open auction
func (r *MemoryRepo) CreateAuction(draft NewAuction) *auction.Auction {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	a := auction.New(r.nextID, draft.Title, draft.Description, draft.StartingPrice, draft.Owner, draft.CreatedAt, draft.EndsAt, r.clock)
	r.auctions[a.ID()] = a
	return a
}

// GetAuction returns the auction with the given id
func (r *MemoryRepo) GetAuction(auctionID int64) (*auction.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return nil, fmt.Errorf("get auction %d: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return a, nil
}

// ListAuctions returns every auction ordered by id
func (r *MemoryRepo) ListAuctions() []*auction.Auction {
	r.mu.RLock()
	list := make([]*auction.Auction, 0, len(r.auctions))
	for _, a := range r.auctions {
		list = append(list, a)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].ID() < list[j].ID() })
	return list
}

// ExpireAuctions sets the closed flag on every auction past its deadline
// and returns how many were newly closed
func (r *MemoryRepo) ExpireAuctions() int {
	expired := 0
	for _, a := range r.ListAuctions() {
		if a.Expire() {
			expired++
		}
	}
	return expired
}
