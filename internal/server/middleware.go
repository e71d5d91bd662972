package server

import (
	"time"

	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

const RequestIDHeader = utils.RequestIDKey

// RequestIDMiddleware tags every request with an id, reusing the caller's if present
func RequestIDMiddleware(c *gin.Context) {
	id := c.GetHeader(RequestIDHeader)
	if id == "" {
		id = utils.GenerateID()
	}
	c.Set(RequestIDHeader, id)
	c.Header(RequestIDHeader, id)
	c.Next()
}

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	fields := map[string]any{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"status":     c.Writer.Status(),
		"latency":    time.Since(start).String(),
		"request_id": c.GetString(RequestIDHeader),
	}
	switch {
	case c.Writer.Status() >= 500:
		utils.Error("HTTP Request", fields)
	case c.Writer.Status() >= 400:
		utils.Warn("HTTP Request", fields)
	default:
		utils.Info("HTTP Request", fields)
	}
}
