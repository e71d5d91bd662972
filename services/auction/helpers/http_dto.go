package helpers

import (
	"time"

	"auction-house/internal/models"
)

// Request/Response DTOs
type CredentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type DisplayNameRequest struct {
	DisplayName string `json:"display_name"`
}

type AdminRequest struct {
	IsAdmin *bool `json:"is_admin" binding:"required"`
}

// MaxDurationSeconds is the longest duration that still fits in a time.Duration
const MaxDurationSeconds = 9223372036

type CreateAuctionRequest struct {
	Title           string  `json:"title" binding:"required"`
	Description     string  `json:"description"`
	StartingPrice   float64 `json:"starting_price" binding:"gte=0"`
	DurationSeconds int64   `json:"duration_seconds" binding:"gte=0,lte=9223372036"`
}

type PlaceBidRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type BidResponse struct {
	BidID     string  `json:"bid_id"`
	AuctionID int64   `json:"auction_id"`
	UserID    int64   `json:"user_id"`
	Amount    float64 `json:"amount"`
	CreatedAt string  `json:"created_at"`
}

// AuctionSummary is one row of the active auctions listing
type AuctionSummary struct {
	AuctionID    int64                `json:"auction_id"`
	Title        string               `json:"title"`
	Owner        string               `json:"owner"`
	CurrentPrice float64              `json:"current_price"`
	EndsAt       string               `json:"ends_at"`
	Status       models.AuctionStatus `json:"status"`
	BidCount     int                  `json:"bid_count"`
}

type AuctionPage struct {
	Items      []AuctionSummary `json:"items"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	Total      int              `json:"total"`
	TotalPages int              `json:"total_pages"`
}

type CloseResponse struct {
	AuctionID    int64  `json:"auction_id"`
	Announcement string `json:"announcement,omitempty"`
}

func NewAuctionSummary(v models.AuctionView) AuctionSummary {
	return AuctionSummary{
		AuctionID:    v.AuctionID,
		Title:        v.Title,
		Owner:        v.Owner.DisplayName,
		CurrentPrice: v.CurrentPrice,
		EndsAt:       v.EndsAt.UTC().Format(time.RFC3339),
		Status:       v.Status,
		BidCount:     v.BidCount,
	}
}
