package auction

import (
	"fmt"
	"sync"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/utils"
)

// Clock returns the current time. Records read it on every status check.
type Clock func() time.Time

// StatusAt derives the auction status from the closed flag and the deadline.
// An auction is over once it is explicitly closed or now is at/after endsAt.
func StatusAt(now time.Time, closed bool, endsAt time.Time) models.AuctionStatus {
	if closed || !now.Before(endsAt) {
		return models.StatusClosed
	}
	return models.StatusOpen
}

// Auction is the state machine for a single auction. Bid placement and
// closing are serialized per record; readers copy under the read lock.
type Auction struct {
	id            int64
	title         string
	description   string
	startingPrice float64
	owner         *models.User
	createdAt     time.Time
	endsAt        time.Time
	now           Clock

	mu     sync.RWMutex
	closed bool
	bids   []models.Bid
}

// New creates an open auction record. A nil clock defaults to time.Now.
func New(id int64, title, description string, startingPrice float64, owner *models.User, createdAt, endsAt time.Time, now Clock) *Auction {
	if now == nil {
		now = time.Now
	}
	return &Auction{
		id:            id,
		title:         title,
		description:   description,
		startingPrice: startingPrice,
		owner:         owner,
		createdAt:     createdAt,
		endsAt:        endsAt,
		now:           now,
	}
}

func (a *Auction) ID() int64              { return a.id }
func (a *Auction) Title() string          { return a.title }
func (a *Auction) Description() string    { return a.description }
func (a *Auction) StartingPrice() float64 { return a.startingPrice }
func (a *Auction) Owner() *models.User    { return a.owner }
func (a *Auction) CreatedAt() time.Time   { return a.createdAt }
func (a *Auction) EndsAt() time.Time      { return a.endsAt }

// CurrentPrice is the starting price until the first bid, then the last accepted amount
func (a *Auction) CurrentPrice() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.currentPriceLocked()
}

func (a *Auction) currentPriceLocked() float64 {
	if len(a.bids) == 0 {
		return a.startingPrice
	}
	return a.bids[len(a.bids)-1].Amount
}

func (a *Auction) Status() models.AuctionStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.statusLocked()
}

func (a *Auction) statusLocked() models.AuctionStatus {
	return StatusAt(a.now(), a.closed, a.endsAt)
}

// IsOver reports whether the auction no longer accepts bids
func (a *Auction) IsOver() bool {
	return a.Status() == models.StatusClosed
}

// PlaceBid appends a bid if the auction is open and amount strictly exceeds
// the current price (NaN never does). Rejections leave the record untouched.
func (a *Auction) PlaceBid(bidder *models.User, amount float64) (models.Bid, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.statusLocked() == models.StatusClosed {
		return models.Bid{}, fmt.Errorf("auction %d: %w", a.id, auctionerrors.ErrAuctionClosed)
	}
	current := a.currentPriceLocked()
	if !(amount > current) {
		return models.Bid{}, fmt.Errorf("auction %d: %w - current price is %.2f", a.id, auctionerrors.ErrBidTooLow, current)
	}

	bid := models.Bid{
		BidID:    utils.GenerateID(),
		Bidder:   bidder,
		Amount:   amount,
		PlacedAt: a.now().UTC(),
	}
	a.bids = append(a.bids, bid)
	return bid, nil
}

// Close sets the closed flag. It returns false if the auction was already
// closed, either explicitly or by reaching its deadline.
func (a *Auction) Close() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.statusLocked() == models.StatusClosed {
		return false
	}
	a.closed = true
	return true
}

// Expire materializes the closed flag once the deadline has passed.
// Status never depends on this having run.
func (a *Auction) Expire() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || a.now().Before(a.endsAt) {
		return false
	}
	a.closed = true
	return true
}

// HighestBidder returns the bidder of the last accepted bid, or nil
func (a *Auction) HighestBidder() *models.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.bids) == 0 {
		return nil
	}
	return a.bids[len(a.bids)-1].Bidder
}

func (a *Auction) BidCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.bids)
}

// Bids returns the accepted bids in acceptance order
func (a *Auction) Bids() []models.Bid {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]models.Bid(nil), a.bids...)
}

// Describe returns a consistent snapshot of the auction
func (a *Auction) Describe() models.AuctionView {
	a.mu.RLock()
	defer a.mu.RUnlock()

	view := models.AuctionView{
		AuctionID:     a.id,
		Title:         a.title,
		Description:   a.description,
		StartingPrice: a.startingPrice,
		CurrentPrice:  a.currentPriceLocked(),
		CreatedAt:     a.createdAt,
		EndsAt:        a.endsAt,
		Status:        a.statusLocked(),
		BidCount:      len(a.bids),
		Bids:          make([]models.BidView, 0, len(a.bids)),
	}
	if a.owner != nil {
		view.Owner = a.owner.View()
	}
	for _, b := range a.bids {
		view.Bids = append(view.Bids, b.View())
	}
	if n := len(a.bids); n > 0 && a.bids[n-1].Bidder != nil {
		top := a.bids[n-1].Bidder.View()
		view.HighestBidder = &top
	}
	return view
}
