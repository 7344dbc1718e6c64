package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ariclear/backend/logging"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"
	UserIDHeader    = "X-User-ID"
	UserIDKey       = "user_id"
)

// RequestID tags each request with an id, reusing one sent by a proxy.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger writes one line per request.
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		line := "%s %s %d %s ip=%s id=%s"
		args := []any{c.Request.Method, c.Request.URL.Path, status, time.Since(start).Round(time.Millisecond), c.ClientIP(), c.GetString(RequestIDKey)}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error(line, args...)
		case status >= http.StatusBadRequest:
			logger.Warn(line, args...)
		default:
			logger.Info(line, args...)
		}
	}
}

// RequireUser rejects requests without the user id header set by the
// authenticating gateway in front of the API.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the id stored by RequireUser.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// CORS allows browser clients from any origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-User-ID, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
