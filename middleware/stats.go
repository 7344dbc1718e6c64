package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ariclear/backend/logging"
)

// Context keys the analyze handler sets so the statistics middleware can
// attribute the request.
const (
	AnalysisTargetKey = "analysis_target"
	AnalysisErrorKey  = "analysis_error_kind"
)

// saveEvery is how many analyses pass between statistics snapshots.
const saveEvery = 100

// StatsMiddleware tracks visitors for every request and the outcome of every
// analysis request.
func StatsMiddleware(stats *logging.Statistics, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		stats.TrackVisitor(c.ClientIP())

		c.Next()

		if c.Request.Method != http.MethodPost || c.FullPath() != "/api/analyze" {
			return
		}
		target := c.GetString(AnalysisTargetKey)
		if target == "" {
			// the body never bound, nothing was analyzed
			return
		}
		stats.TrackAnalysis(target, time.Since(start), c.GetString(AnalysisErrorKey))

		if stats.Total()%saveEvery == 0 {
			go func() {
				if err := stats.Save(); err != nil {
					logger.Warn("Failed to save statistics: %v", err)
				}
			}()
		}
	}
}
