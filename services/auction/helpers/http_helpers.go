package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100

	// userKey is the gin context key holding the authenticated *models.User
	userKey = "auction.user"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, auctionerrors.ErrInvalidInput):
		return http.StatusBadRequest, "invalid input"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, auctionerrors.ErrAuctionClosed):
		return http.StatusConflict, "auction is closed"
	case errors.Is(err, auctionerrors.ErrAlreadyClosed):
		return http.StatusConflict, "auction already closed"
	case errors.Is(err, auctionerrors.ErrDuplicateUsername):
		return http.StatusConflict, "username already taken"
	case errors.Is(err, auctionerrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}

// SetCurrentUser stores the authenticated user on the request context
func SetCurrentUser(c *gin.Context, u *models.User) {
	c.Set(userKey, u)
}

// CurrentUser returns the authenticated user, if any
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}

// CanClose reports whether user may close an auction owned by owner
func CanClose(user, owner *models.User) bool {
	if user == nil {
		return false
	}
	return user.IsAdmin() || user.Equal(owner)
}

// FilterByTitle keeps auctions whose title contains q, case-insensitively
func FilterByTitle(views []models.AuctionView, q string) []models.AuctionView {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return views
	}
	out := make([]models.AuctionView, 0, len(views))
	for _, v := range views {
		if strings.Contains(strings.ToLower(v.Title), q) {
			out = append(out, v)
		}
	}
	return out
}

// Paginate slices views into a 1-based page. Out-of-range pages clamp to the last page.
func Paginate(views []models.AuctionView, page, pageSize int) AuctionPage {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	total := len(views)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}

	items := make([]AuctionSummary, 0, end-start)
	for _, v := range views[start:end] {
		items = append(items, NewAuctionSummary(v))
	}
	return AuctionPage{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
