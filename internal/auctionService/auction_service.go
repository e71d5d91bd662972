package auctionsvc

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"auction-house/internal/auction"
	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/internal/registry"
	"auction-house/internal/repository"
	"auction-house/utils"
)

// AuctionService is the entry point for every caller. It composes the user
// registry and the auction store. Authorization is left to the caller.
type AuctionService struct {
	users    registry.UserDB
	repo     repository.AuctionDB
	deadline DeadlinePolicy
	now      auction.Clock

	annMu         sync.Mutex
	announcements []string
}

// Option configures an AuctionService
type Option func(*AuctionService)

func WithDeadlinePolicy(p DeadlinePolicy) Option {
	return func(s *AuctionService) {
		if p != nil {
			s.deadline = p
		}
	}
}

// WithClock sets the clock used for creation times. Records read status from
// the store's clock, so pass the same clock to repository.NewMemoryRepoWithClock.
func WithClock(c auction.Clock) Option {
	return func(s *AuctionService) {
		if c != nil {
			s.now = c
		}
	}
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(users registry.UserDB, repo repository.AuctionDB, opts ...Option) *AuctionService {
	s := &AuctionService{
		users:    users,
		repo:     repo,
		deadline: FixedDuration{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterUser creates a new account
func (s *AuctionService) RegisterUser(username, password string) (*models.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("service: %w - empty username", auctionerrors.ErrInvalidInput)
	}

	u, err := s.users.Register(username, password)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}

	utils.Info("user registered", map[string]any{"user_id": u.ID, "username": u.Username})
	return u, nil
}

// Login checks credentials. The error never says which part was wrong.
func (s *AuctionService) Login(username, password string) (*models.User, error) {
	u, err := s.users.Login(username, password)
	if err != nil {
		return nil, auctionerrors.ErrInvalidCredentials
	}
	return u, nil
}

func (s *AuctionService) GetUserByName(username string) (*models.User, bool) {
	return s.users.Lookup(username)
}

func (s *AuctionService) SetDisplayName(user *models.User, name string) {
	s.users.SetDisplayName(user, name)
}

func (s *AuctionService) SetAdmin(user *models.User, admin bool) {
	s.users.SetAdmin(user, admin)
}

// CreateAuction validates the request, applies the deadline policy and stores the auction
func (s *AuctionService) CreateAuction(title, description string, startingPrice float64, duration time.Duration, owner *models.User) (*auction.Auction, error) {
	if err := validateAuction(title, startingPrice, owner); err != nil {
		return nil, err
	}

	createdAt := s.now().UTC()
	endsAt, err := s.deadline.EndsAt(createdAt, duration)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}

	a := s.repo.CreateAuction(repository.NewAuction{
		Title:         title,
		Description:   description,
		StartingPrice: startingPrice,
		Owner:         owner,
		CreatedAt:     createdAt,
		EndsAt:        endsAt,
	})

	utils.Info("auction created", map[string]any{
		"auction_id":     a.ID(),
		"owner":          owner.Username,
		"starting_price": startingPrice,
		"ends_at":        endsAt.Format(time.RFC3339),
	})
	return a, nil
}

// validateAuction checks input validity for a new auction
func validateAuction(title string, startingPrice float64, owner *models.User) error {
	if owner == nil {
		return fmt.Errorf("service: %w - missing owner", auctionerrors.ErrInvalidInput)
	}
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("service: %w - empty title", auctionerrors.ErrInvalidInput)
	}
	if math.IsNaN(startingPrice) || math.IsInf(startingPrice, 0) || startingPrice < 0 {
		return fmt.Errorf("service: %w - starting price must be a non-negative number", auctionerrors.ErrInvalidInput)
	}
	return nil
}

// PlaceBid records a bid on an auction. A nil error means the bid was accepted.
func (s *AuctionService) PlaceBid(auctionID int64, bidder *models.User, amount float64) (models.Bid, error) {
	if bidder == nil {
		return models.Bid{}, fmt.Errorf("service: %w - missing bidder", auctionerrors.ErrInvalidInput)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return models.Bid{}, fmt.Errorf("service: %w - bid amount must be a finite number", auctionerrors.ErrInvalidInput)
	}

	a, err := s.repo.GetAuction(auctionID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to place bid: %w", err)
	}

	bid, err := a.PlaceBid(bidder, amount)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: bid by %s: %w", bidder.Username, err)
	}
	return bid, nil
}

// ListActive sweeps expired auctions and returns the open ones ordered by id
func (s *AuctionService) ListActive() []models.AuctionView {
	s.ExpireAuctions()

	all := s.repo.ListAuctions()
	active := make([]models.AuctionView, 0, len(all))
	for _, a := range all {
		view := a.Describe()
		if view.Status == models.StatusOpen {
			active = append(active, view)
		}
	}
	return active
}

// GetAuction returns the auction with the given id
func (s *AuctionService) GetAuction(auctionID int64) (*auction.Auction, error) {
	a, err := s.repo.GetAuction(auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	return a, nil
}

// CloseAuction closes an auction. It returns false if the auction does not
// exist or was already closed.
func (s *AuctionService) CloseAuction(auctionID int64) bool {
	a, err := s.repo.GetAuction(auctionID)
	if err != nil {
		return false
	}
	if !a.Close() {
		return false
	}
	utils.Info("auction closed", map[string]any{"auction_id": auctionID, "bids": a.BidCount()})
	return true
}

// CloseAndAnnounce closes the auction and records a winner announcement
func (s *AuctionService) CloseAndAnnounce(auctionID int64) (string, bool) {
	if !s.CloseAuction(auctionID) {
		return "", false
	}

	a, err := s.repo.GetAuction(auctionID)
	if err != nil {
		return "", false
	}
	announcement := Announcement(a)

	s.annMu.Lock()
	s.announcements = append(s.announcements, announcement)
	s.annMu.Unlock()

	utils.Info("auction announced", map[string]any{"auction_id": auctionID, "announcement": announcement})
	return announcement, true
}

// Announcement describes the outcome of an auction
func Announcement(a *auction.Auction) string {
	view := a.Describe()
	if view.HighestBidder == nil {
		return fmt.Sprintf("Auction '%s' closed with no bids.", view.Title)
	}
	return fmt.Sprintf("Auction '%s' won by %s (%.2f) with %d bids",
		view.Title, view.HighestBidder.DisplayName, view.CurrentPrice, view.BidCount)
}

// Announcements returns every announcement in the order it was made
func (s *AuctionService) Announcements() []string {
	s.annMu.Lock()
	defer s.annMu.Unlock()
	return append([]string(nil), s.announcements...)
}

// ExpireAuctions materializes the closed flag of expired auctions
func (s *AuctionService) ExpireAuctions() int {
	n := s.repo.ExpireAuctions()
	if n > 0 {
		utils.Debug("expired auctions swept", map[string]any{"count": n})
	}
	return n
}

// IsBidRejected reports whether err is an ordinary bid rejection
func IsBidRejected(err error) bool {
	return errors.Is(err, auctionerrors.ErrBidRejected)
}
