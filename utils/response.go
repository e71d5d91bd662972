package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequestIDKey is the gin context key and header carrying the request id
const RequestIDKey = "X-Request-ID"

// JSONResponse sends a structured JSON response
func JSONResponse(c *gin.Context, status int, data any, message string) {
	body := gin.H{
		"status":  status,
		"message": message,
		"data":    data,
	}
	withRequestID(c, body)
	c.JSON(status, body)
}

// JSONError sends a structured error response. Server errors carry only the
// message so internal details stay in the logs.
func JSONError(c *gin.Context, status int, err error, message string) {
	detail := message
	if err != nil && status < http.StatusInternalServerError {
		detail = err.Error()
	}
	body := gin.H{
		"status":  status,
		"message": message,
		"error":   detail,
	}
	withRequestID(c, body)
	c.JSON(status, body)
}

func withRequestID(c *gin.Context, body gin.H) {
	if id := c.GetString(RequestIDKey); id != "" {
		body["request_id"] = id
	}
}
