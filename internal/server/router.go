package server

import (
	"auction-house/services/auction/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(auctionService handler.AuctionServiceInterface) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestIDMiddleware)     // correlate logs with responses
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(auctionService)
	authed := auctionHandler.RequireUser

	router.POST("/sessions", auctionHandler.LoginHandler)
	router.GET("/announcements", auctionHandler.AnnouncementsHandler)

	users := router.Group("/users")
	{
		users.POST("", auctionHandler.RegisterHandler)
		users.PATCH("/me", authed, auctionHandler.UpdateDisplayNameHandler)
		users.PUT("/:username/admin", authed, auctionHandler.SetAdminHandler)
	}

	auctions := router.Group("/auctions")
	{
		auctions.GET("", auctionHandler.ListActiveHandler)
		auctions.POST("", authed, auctionHandler.CreateAuctionHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.POST("/:auction_id/bids", authed, auctionHandler.PlaceBidHandler)
		auctions.POST("/:auction_id/close", authed, auctionHandler.CloseAuctionHandler)
	}

	return router
}
