package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ariclear/backend/middleware"
	"github.com/ariclear/backend/report"
)

func (s *Server) health(c *gin.Context) {
	s.logger.Debug("Health check request received from: %s", c.ClientIP())
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

type analyzeRequest struct {
	URL string `json:"url"`
}

func (s *Server) analyzeURL(c *gin.Context) {
	var request analyzeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		s.writeError(c, report.InvalidInput(err))
		return
	}
	c.Set(middleware.AnalysisTargetKey, request.URL)

	analysis, err := s.analyzer.Analyze(c.Request.Context(), request.URL)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// writeError answers with the caller-visible form of an analysis error.
func (s *Server) writeError(c *gin.Context, err error) {
	kind := report.KindOf(err)
	status := report.HTTPStatus(err)
	c.Set(middleware.AnalysisErrorKey, string(kind))

	body := gin.H{"error": report.PublicMessage(err)}
	switch kind {
	case report.KindRateLimited:
		body["rateLimited"] = true
	case report.KindUpstreamServiceError:
		if upstream := report.StatusOf(err); upstream != 0 {
			body["status"] = upstream
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("Analysis failed (%s): %v", kind, err)
	} else {
		s.logger.Warn("Analysis rejected (%s): %v", kind, err)
	}
	c.JSON(status, body)
}

func (s *Server) statistics(c *gin.Context) {
	view := s.stats.Snapshot(s.devMode)
	view["cache"] = s.analyzer.GetCacheStats()
	c.JSON(http.StatusOK, view)
}
