package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"

	"github.com/gin-gonic/gin"

	"github.com/ariclear/backend/export"
	"github.com/ariclear/backend/middleware"
	"github.com/ariclear/backend/scans"
)

func (s *Server) scanError(c *gin.Context, err error, action string) {
	if errors.Is(err, scans.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Scan not found"})
		return
	}
	s.logger.Error("Failed to %s for user %s: %v", action, middleware.UserID(c), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
}

func (s *Server) listScans(c *gin.Context) {
	opts := scans.ListOptions{Now: s.now()}
	switch f := scans.Filter(c.Query("filter")); f {
	case scans.FilterRecent, scans.FilterLowScore:
		opts.Filter = f
	}
	if scans.SortBy(c.Query("sortBy")) == scans.SortByScore {
		opts.SortBy = scans.SortByScore
	}

	records, err := s.store.List(c.Request.Context(), middleware.UserID(c), opts)
	if err != nil {
		s.scanError(c, err, "fetch scans")
		return
	}
	c.JSON(http.StatusOK, gin.H{"scans": records})
}

type createScanRequest struct {
	AnalyzeResult json.RawMessage `json:"analyzeResult"`
	URL           string          `json:"url"`
}

func (s *Server) createScan(c *gin.Context) {
	var request createScanRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}
	raw := bytes.TrimSpace(request.AnalyzeResult)
	if request.URL == "" || len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	var sections scans.Sections
	if err := json.Unmarshal(raw, &sections); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid analyze result"})
		return
	}
	rec, err := scans.BuildRecord(middleware.UserID(c), request.URL, sections)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URL"})
		return
	}
	if err := s.store.Create(c.Request.Context(), rec); err != nil {
		s.scanError(c, err, "save scan")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"scan": rec})
}

func (s *Server) scanStats(c *gin.Context) {
	st, err := s.store.Stats(c.Request.Context(), middleware.UserID(c), s.now())
	if err != nil {
		s.scanError(c, err, "fetch stats")
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": st})
}

func (s *Server) getScan(c *gin.Context) {
	rec, err := s.store.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		s.scanError(c, err, "fetch scan")
		return
	}
	c.JSON(http.StatusOK, gin.H{"scan": rec})
}

type checklistRequest struct {
	Checklist []scans.ChecklistItem `json:"checklist"`
}

func (s *Server) updateChecklist(c *gin.Context) {
	var request checklistRequest
	if err := c.ShouldBindJSON(&request); err != nil || request.Checklist == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing checklist data"})
		return
	}
	rec, err := s.store.UpdateChecklist(c.Request.Context(), middleware.UserID(c), c.Param("id"), request.Checklist)
	if err != nil {
		s.scanError(c, err, "update scan")
		return
	}
	c.JSON(http.StatusOK, gin.H{"scan": rec})
}

func (s *Server) deleteScan(c *gin.Context) {
	if err := s.store.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		s.scanError(c, err, "delete scan")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) exportScan(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported export format"})
		return
	}
	rec, err := s.store.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		s.scanError(c, err, "fetch scan")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.Filename(rec, format)+`"`)
	c.Data(http.StatusOK, format.ContentType(), export.Render(rec, format))
}

type preorderRequest struct {
	Email     string `json:"email"`
	URL       string `json:"url"`
	SourceURL string `json:"sourceURL"`
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (s *Server) preorder(c *gin.Context) {
	var request preorderRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email"})
		return
	}
	p, err := scans.NewPreorder(request.Email, request.URL, request.SourceURL)
	if err != nil || !validEmail(p.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email"})
		return
	}

	if err := s.store.AddPreorder(c.Request.Context(), p); err != nil {
		if errors.Is(err, scans.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "EMAIL_EXISTS"})
			return
		}
		s.logger.Error("Failed to save preorder: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "DATABASE_ERROR"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "row": p})
}
