package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"auction-house/internal/auction"
	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/services/auction/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=auction_handler.go -destination=mock_handler.go -package=handler

type AuctionServiceInterface interface {
	RegisterUser(username, password string) (*models.User, error)
	Login(username, password string) (*models.User, error)
	GetUserByName(username string) (*models.User, bool)
	SetDisplayName(user *models.User, name string)
	SetAdmin(user *models.User, admin bool)
	CreateAuction(title, description string, startingPrice float64, duration time.Duration, owner *models.User) (*auction.Auction, error)
	PlaceBid(auctionID int64, bidder *models.User, amount float64) (models.Bid, error)
	ListActive() []models.AuctionView
	GetAuction(auctionID int64) (*auction.Auction, error)
	CloseAuction(auctionID int64) bool
	CloseAndAnnounce(auctionID int64) (string, bool)
	Announcements() []string
}

type AuctionHandler struct {
	service AuctionServiceInterface
}

func NewAuctionHandler(service AuctionServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// RequireUser authenticates the request with HTTP basic credentials
func (h *AuctionHandler) RequireUser(c *gin.Context) {
	username, password, ok := c.Request.BasicAuth()
	if !ok {
		c.Header("WWW-Authenticate", `Basic realm="auction-house"`)
		utils.JSONError(c, http.StatusUnauthorized, auctionerrors.ErrInvalidCredentials, "authentication required")
		c.Abort()
		return
	}

	user, err := h.service.Login(username, password)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, err, message)
		utils.Warn("RequireUser: authentication failed", map[string]any{"username": username})
		c.Abort()
		return
	}

	helpers.SetCurrentUser(c, user)
	c.Next()
}

// RegisterHandler handles POST /users
func (h *AuctionHandler) RegisterHandler(c *gin.Context) {
	var req helpers.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RegisterHandler", err)
		return
	}

	user, err := h.service.RegisterUser(req.Username, req.Password)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("RegisterHandler: registration failed", map[string]any{"username": req.Username, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, user.View(), "user registered successfully")
	helpers.LogSuccess("RegisterHandler", "user registered successfully", map[string]any{"user_id": user.ID})
}

// LoginHandler handles POST /sessions
func (h *AuctionHandler) LoginHandler(c *gin.Context) {
	var req helpers.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "LoginHandler", err)
		return
	}

	user, err := h.service.Login(req.Username, req.Password)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, err, message)
		utils.Warn("LoginHandler: login failed", map[string]any{"username": req.Username})
		return
	}

	utils.JSONResponse(c, http.StatusOK, user.View(), "login successful")
	helpers.LogSuccess("LoginHandler", "login successful", map[string]any{"user_id": user.ID})
}

// UpdateDisplayNameHandler handles PATCH /users/me
func (h *AuctionHandler) UpdateDisplayNameHandler(c *gin.Context) {
	user, ok := helpers.CurrentUser(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, auctionerrors.ErrInvalidCredentials, "authentication required")
		return
	}

	var req helpers.DisplayNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "UpdateDisplayNameHandler", err)
		return
	}

	h.service.SetDisplayName(user, req.DisplayName)
	utils.JSONResponse(c, http.StatusOK, user.View(), "display name updated")
}

// SetAdminHandler handles PUT /users/:username/admin
func (h *AuctionHandler) SetAdminHandler(c *gin.Context) {
	caller, ok := helpers.CurrentUser(c)
	if !ok || !caller.IsAdmin() {
		utils.JSONError(c, http.StatusForbidden, fmt.Errorf("admin privileges required"), "admin privileges required")
		return
	}

	var req helpers.AdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "SetAdminHandler", err)
		return
	}

	username := c.Param("username")
	target, found := h.service.GetUserByName(username)
	if !found {
		utils.JSONError(c, http.StatusNotFound, fmt.Errorf("user %q not found", username), "user not found")
		return
	}

	h.service.SetAdmin(target, *req.IsAdmin)
	utils.JSONResponse(c, http.StatusOK, target.View(), "admin flag updated")
	helpers.LogSuccess("SetAdminHandler", "admin flag updated", map[string]any{
		"username": username,
		"is_admin": *req.IsAdmin,
		"by":       caller.Username,
	})
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	owner, ok := helpers.CurrentUser(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, auctionerrors.ErrInvalidCredentials, "authentication required")
		return
	}

	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	duration := time.Duration(req.DurationSeconds) * time.Second
	a, err := h.service.CreateAuction(req.Title, req.Description, req.StartingPrice, duration, owner)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("CreateAuctionHandler: failed to create auction", map[string]any{"owner": owner.Username, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, a.Describe(), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{"auction_id": a.ID()})
}

// ListActiveHandler handles GET /auctions
func (h *AuctionHandler) ListActiveHandler(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(helpers.DefaultPageSize)))

	active := helpers.FilterByTitle(h.service.ListActive(), c.Query("q"))
	result := helpers.Paginate(active, page, pageSize)

	utils.JSONResponse(c, http.StatusOK, result, "auctions retrieved successfully")
	helpers.LogSuccess("ListActiveHandler", "auctions retrieved successfully", map[string]any{
		"total": result.Total,
		"page":  result.Page,
	})
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID, ok := parseAuctionID(c)
	if !ok {
		return
	}

	a, err := h.service.GetAuction(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, err, message)
		utils.Info("GetAuctionHandler: auction not found", map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, a.Describe(), "auction retrieved successfully")
}

// PlaceBidHandler handles POST /auctions/:auction_id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	bidder, ok := helpers.CurrentUser(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, auctionerrors.ErrInvalidCredentials, "authentication required")
		return
	}

	auctionID, ok := parseAuctionID(c)
	if !ok {
		return
	}

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	bid, err := h.service.PlaceBid(auctionID, bidder, req.Amount)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Info("PlaceBidHandler: bid rejected", map[string]any{
			"handler":    "PlaceBidHandler",
			"auction_id": auctionID,
			"user_id":    bidder.ID,
			"amount":     req.Amount,
			"error":      err.Error(),
		})
		return
	}

	resp := helpers.BidResponse{
		BidID:     bid.BidID,
		AuctionID: auctionID,
		UserID:    bidder.ID,
		Amount:    bid.Amount,
		CreatedAt: bid.PlacedAt.UTC().Format(time.RFC3339),
	}

	utils.JSONResponse(c, http.StatusCreated, resp, "bid accepted")
	helpers.LogSuccess("PlaceBidHandler", "bid accepted", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": auctionID,
		"user_id":    bidder.ID,
		"amount":     bid.Amount,
	})
}

// CloseAuctionHandler handles POST /auctions/:auction_id/close?announce=true
func (h *AuctionHandler) CloseAuctionHandler(c *gin.Context) {
	user, ok := helpers.CurrentUser(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, auctionerrors.ErrInvalidCredentials, "authentication required")
		return
	}

	auctionID, ok := parseAuctionID(c)
	if !ok {
		return
	}

	a, err := h.service.GetAuction(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, err, message)
		return
	}

	// Only the owner or an admin may close
	if !helpers.CanClose(user, a.Owner()) {
		utils.JSONError(c, http.StatusForbidden, fmt.Errorf("user %s cannot close auction %d", user.Username, auctionID), "only owner or admin can close")
		utils.Warn("CloseAuctionHandler: forbidden", map[string]any{"auction_id": auctionID, "user_id": user.ID})
		return
	}

	resp := helpers.CloseResponse{AuctionID: auctionID}
	announce, _ := strconv.ParseBool(c.DefaultQuery("announce", "false"))
	if announce {
		resp.Announcement, ok = h.service.CloseAndAnnounce(auctionID)
	} else {
		ok = h.service.CloseAuction(auctionID)
	}
	if !ok {
		utils.JSONError(c, http.StatusConflict, auctionerrors.ErrAlreadyClosed, "unable to close")
		return
	}

	utils.JSONResponse(c, http.StatusOK, resp, "auction closed")
	helpers.LogSuccess("CloseAuctionHandler", "auction closed", map[string]any{
		"auction_id": auctionID,
		"by":         user.Username,
		"announced":  announce,
	})
}

// AnnouncementsHandler handles GET /announcements
func (h *AuctionHandler) AnnouncementsHandler(c *gin.Context) {
	announcements := h.service.Announcements()
	if announcements == nil {
		announcements = []string{}
	}
	utils.JSONResponse(c, http.StatusOK, announcements, "announcements retrieved successfully")
}

func parseAuctionID(c *gin.Context) (int64, bool) {
	raw := c.Param("auction_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, fmt.Errorf("invalid auction id %q: %w", raw, auctionerrors.ErrInvalidInput), "invalid auction id")
		return 0, false
	}
	return id, true
}
