package models

import (
	"strings"
	"sync"
	"time"
)

// AuctionStatus is the externally visible state of an auction
type AuctionStatus string

const (
	StatusOpen   AuctionStatus = "OPEN"
	StatusClosed AuctionStatus = "CLOSED"
)

// User represents a participant in the auction
type User struct {
	ID       int64
	Username string
	password string

	mu          sync.RWMutex
	admin       bool
	displayName string
}

// NewUser builds a user. Ids are assigned by the registry.
func NewUser(id int64, username, password string) *User {
	return &User{ID: id, Username: username, password: password}
}

// CheckPassword reports whether pw matches exactly
func (u *User) CheckPassword(pw string) bool {
	return u.password == pw
}

func (u *User) IsAdmin() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.admin
}

func (u *User) SetAdmin(admin bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.admin = admin
}

// DisplayName returns the display name, or the username when it is blank
func (u *User) DisplayName() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if strings.TrimSpace(u.displayName) == "" {
		return u.Username
	}
	return u.displayName
}

func (u *User) SetDisplayName(name string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.displayName = name
}

// Equal compares users by id
func (u *User) Equal(other *User) bool {
	if u == nil || other == nil {
		return u == other
	}
	return u.ID == other.ID
}

// View returns a JSON-safe copy of the user
func (u *User) View() UserView {
	return UserView{
		UserID:      u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName(),
		IsAdmin:     u.IsAdmin(),
	}
}

// UserView is the public representation of a user
type UserView struct {
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	IsAdmin     bool   `json:"is_admin"`
}

// Bid represents a user's accepted bid on an auction
type Bid struct {
	BidID    string
	Bidder   *User
	Amount   float64
	PlacedAt time.Time
}

func (b Bid) View() BidView {
	v := BidView{
		BidID:    b.BidID,
		Amount:   b.Amount,
		PlacedAt: b.PlacedAt,
	}
	if b.Bidder != nil {
		v.UserID = b.Bidder.ID
		v.Username = b.Bidder.Username
	}
	return v
}

// BidView is the public representation of a bid
type BidView struct {
	BidID    string    `json:"bid_id"`
	UserID   int64     `json:"user_id"`
	Username string    `json:"username"`
	Amount   float64   `json:"amount"`
	PlacedAt time.Time `json:"placed_at"`
}

// AuctionView is a point-in-time snapshot of an auction for detail views
type AuctionView struct {
	AuctionID     int64         `json:"auction_id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Owner         UserView      `json:"owner"`
	StartingPrice float64       `json:"starting_price"`
	CurrentPrice  float64       `json:"current_price"`
	CreatedAt     time.Time     `json:"created_at"`
	EndsAt        time.Time     `json:"ends_at"`
	Status        AuctionStatus `json:"status"`
	BidCount      int           `json:"bid_count"`
	HighestBidder *UserView     `json:"highest_bidder"`
	Bids          []BidView     `json:"bids"`
}
