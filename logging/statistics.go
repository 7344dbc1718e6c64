package logging

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Statistics represents the collected request statistics
type Statistics struct {
	UniqueVisitors   map[string]time.Time `json:"uniqueVisitors"`   // IP -> Last Visit Time
	AnalysisRequests int                  `json:"analysisRequests"` // Total number of analysis requests
	ErrorCount       int                  `json:"errorCount"`       // Number of failed analyses
	ErrorsByKind     map[string]int       `json:"errorsByKind"`
	PopularDomains   map[string]int       `json:"popularDomains"`   // URL -> Count
	AverageLoadTime  float64              `json:"averageLoadTime"`  // Average analysis time in milliseconds
	TotalLoadTime    float64              `json:"totalLoadTime"`
	RequestCount     int                  `json:"requestCount"`
	LastPersisted    time.Time            `json:"lastPersisted"`

	path  string
	mutex sync.RWMutex
}

// NewStatistics creates statistics persisted at path, loading any previous
// snapshot found there. An empty path keeps everything in memory.
func NewStatistics(path string) (*Statistics, error) {
	s := &Statistics{
		UniqueVisitors: make(map[string]time.Time),
		ErrorsByKind:   make(map[string]int),
		PopularDomains: make(map[string]int),
		LastPersisted:  time.Now(),
		path:           path,
	}
	if err := s.Load(); err != nil {
		return s, fmt.Errorf("could not load existing statistics: %w", err)
	}
	return s, nil
}

// TrackVisitor records a unique visitor
func (s *Statistics) TrackVisitor(ip string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.UniqueVisitors[ip] = time.Now()
}

// cleanURL reduces an analyzed URL to scheme, host and path. Local and API
// URLs are dropped.
func cleanURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return ""
	}

	if strings.Contains(u.Host, "localhost") ||
		strings.Contains(u.Host, "127.0.0.1") ||
		strings.Contains(strings.ToLower(u.Path), "/api/") {
		return ""
	}

	cleaned := strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
	if u.Path != "" && u.Path != "/" {
		cleaned += u.Path
	}
	return strings.TrimSuffix(cleaned, "/")
}

// TrackAnalysis records one analysis request. errorKind is empty on success.
func (s *Statistics) TrackAnalysis(target string, loadTime time.Duration, errorKind string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.AnalysisRequests++

	if cleaned := cleanURL(target); cleaned != "" {
		s.PopularDomains[cleaned]++
	}

	if errorKind != "" {
		s.ErrorCount++
		s.ErrorsByKind[errorKind]++
	}

	s.TotalLoadTime += float64(loadTime.Milliseconds())
	s.RequestCount++
	s.AverageLoadTime = s.TotalLoadTime / float64(s.RequestCount)
}

func (s *Statistics) uniqueVisitorsSince(cutoff time.Time) int {
	count := 0
	for _, lastVisit := range s.UniqueVisitors {
		if lastVisit.After(cutoff) {
			count++
		}
	}
	return count
}

// GetUniqueVisitorsCount returns the number of unique visitors in the last 24 hours
func (s *Statistics) GetUniqueVisitorsCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.uniqueVisitorsSince(time.Now().Add(-24 * time.Hour))
}

type urlCount struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
}

func (s *Statistics) popular(n int) []urlCount {
	out := make([]urlCount, 0, len(s.PopularDomains))
	for u, c := range s.PopularDomains {
		out = append(out, urlCount{URL: u, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].URL < out[j].URL
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func (s *Statistics) errorRate() float64 {
	if s.AnalysisRequests == 0 {
		return 0
	}
	return (float64(s.ErrorCount) / float64(s.AnalysisRequests)) * 100
}

// GetErrorRate returns the error rate as a percentage
func (s *Statistics) GetErrorRate() float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.errorRate()
}

// Total returns the number of analyses tracked so far.
func (s *Statistics) Total() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.AnalysisRequests
}

// Save persists the statistics to disk.
func (s *Statistics) Save() error {
	if s.path == "" {
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.LastPersisted = time.Now()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("could not encode statistics: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("could not create statistics directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("could not write statistics file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("could not replace statistics file: %w", err)
	}
	return nil
}

// Load reads the statistics from disk. A missing file is not an error.
func (s *Statistics) Load() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not open statistics file: %w", err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("could not decode statistics: %w", err)
	}
	if s.UniqueVisitors == nil {
		s.UniqueVisitors = make(map[string]time.Time)
	}
	if s.ErrorsByKind == nil {
		s.ErrorsByKind = make(map[string]int)
	}
	if s.PopularDomains == nil {
		s.PopularDomains = make(map[string]int)
	}
	return nil
}

// Snapshot returns a view of the statistics. Popular URLs and the error
// breakdown are only included in development mode.
func (s *Statistics) Snapshot(devMode bool) map[string]interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	view := map[string]interface{}{
		"uniqueVisitors24h": s.uniqueVisitorsSince(time.Now().Add(-24 * time.Hour)),
		"totalRequests":     s.AnalysisRequests,
		"errorRate":         s.errorRate(),
		"averageLoadTime":   s.AverageLoadTime,
	}
	if !devMode {
		return view
	}

	errorsByKind := make(map[string]int, len(s.ErrorsByKind))
	for k, v := range s.ErrorsByKind {
		errorsByKind[k] = v
	}
	view["popularUrls"] = s.popular(5)
	view["errorsByKind"] = errorsByKind
	return view
}
