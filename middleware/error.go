package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/ariclear/backend/logging"
	"github.com/ariclear/backend/report"
)

// ErrorHandler middleware recovers from any panics and answers with the
// generic internal error body.
func ErrorHandler(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered on %s %s (request %s): %v\n%s",
					c.Request.Method, c.Request.URL.Path, c.GetString(RequestIDKey), err, debug.Stack())

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": report.MsgInternal,
				})
			}
		}()

		c.Next()
	}
}
