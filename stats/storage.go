package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ariclear/backend/logging"
)

// MonthlyStats holds the analysis outcome counters for one month
type MonthlyStats struct {
	AnalysisCacheHits   int            `json:"analysis_hits"`
	AnalysisCacheMisses int            `json:"analysis_misses"`
	Succeeded           int            `json:"succeeded"`
	Failures            map[string]int `json:"failures,omitempty"` // error kind -> count
	LastUpdated         time.Time      `json:"last_updated"`
}

// Total is the number of analyses that ran to an outcome this month.
func (m MonthlyStats) Total() int {
	total := m.Succeeded
	for _, n := range m.Failures {
		total += n
	}
	return total
}

// Storage handles persistent storage of statistics
type Storage struct {
	mutex       sync.RWMutex
	stats       map[string]*MonthlyStats // key: "YYYY-MM"
	filePath    string
	lastWrite   time.Time
	writeBuffer chan struct{}
	done        chan struct{}
	stopped     chan struct{}
	closeOnce   sync.Once
	now         func() time.Time
	logger      logging.Logger
}

// NewStorage creates a new statistics storage instance
func NewStorage(dataDir string, logger logging.Logger) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if logger == nil {
		logger = logging.Nop()
	}

	s := &Storage{
		stats:       make(map[string]*MonthlyStats),
		filePath:    filepath.Join(dataDir, "stats.json"),
		writeBuffer: make(chan struct{}, 1),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		now:         time.Now,
		logger:      logger,
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	go s.backgroundWriter()

	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	return json.Unmarshal(data, &s.stats)
}

func (s *Storage) save() error {
	s.mutex.RLock()
	data, err := json.Marshal(s.stats)
	s.mutex.RUnlock()

	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	// Write to temporary file first
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

func (s *Storage) backgroundWriter() {
	defer close(s.stopped)

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeBuffer:
		case <-ticker.C:
		case <-s.done:
			return
		}
		if err := s.save(); err != nil {
			s.logger.Warn("stats: %v", err)
		}
	}
}

func (s *Storage) currentMonth() string {
	return s.now().Format("2006-01")
}

func (s *Storage) requestWrite() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
		// write already pending
	}
}

// update applies fn to the current month's counters.
func (s *Storage) update(fn func(*MonthlyStats)) {
	month := s.currentMonth()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	stats, exists := s.stats[month]
	if !exists {
		stats = &MonthlyStats{}
		s.stats[month] = stats
	}
	fn(stats)
	stats.LastUpdated = s.now()

	// Request a write if enough time has passed
	if s.now().Sub(s.lastWrite) > time.Minute {
		s.requestWrite()
		s.lastWrite = s.now()
	}
}

func (s *Storage) RecordCacheHit() {
	s.update(func(m *MonthlyStats) { m.AnalysisCacheHits++ })
}

func (s *Storage) RecordCacheMiss() {
	s.update(func(m *MonthlyStats) { m.AnalysisCacheMisses++ })
}

func (s *Storage) RecordSuccess() {
	s.update(func(m *MonthlyStats) { m.Succeeded++ })
}

// RecordFailure counts one failed analysis under its error kind.
func (s *Storage) RecordFailure(kind string) {
	s.update(func(m *MonthlyStats) {
		if m.Failures == nil {
			m.Failures = make(map[string]int)
		}
		m.Failures[kind]++
	})
}

func copyStats(m *MonthlyStats) MonthlyStats {
	out := *m
	if m.Failures != nil {
		out.Failures = make(map[string]int, len(m.Failures))
		for k, v := range m.Failures {
			out.Failures[k] = v
		}
	}
	return out
}

// GetCurrentStats returns statistics for the current month
func (s *Storage) GetCurrentStats() MonthlyStats {
	month := s.currentMonth()

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, exists := s.stats[month]; exists {
		return copyStats(stats)
	}
	return MonthlyStats{}
}

// Cleanup removes statistics older than the specified number of months. The
// current month always counts as one of them.
func (s *Storage) Cleanup(retainMonths int) {
	if retainMonths < 1 {
		retainMonths = 1
	}
	now := s.now()
	keep := make(map[string]bool, retainMonths)
	for i := 0; i < retainMonths; i++ {
		keep[now.AddDate(0, -i, 0).Format("2006-01")] = true
	}

	s.mutex.Lock()
	for key := range s.stats {
		if !keep[key] {
			delete(s.stats, key)
		}
	}
	s.mutex.Unlock()

	s.requestWrite()
	s.logger.Debug("stats: retained %d month(s) of statistics", retainMonths)
}

// GetMonthlyStats returns statistics for a specific month
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, exists := s.stats[yearMonth]; exists {
		return copyStats(stats), true
	}
	return MonthlyStats{}, false
}

// GetAllMonths returns a sorted list of all months that have statistics
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.stats))
	for month := range s.stats {
		months = append(months, month)
	}

	// newest first
	sort.Sort(sort.Reverse(sort.StringSlice(months)))

	return months
}

// Shutdown stops the background writer and flushes the counters to disk.
func (s *Storage) Shutdown() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	<-s.stopped
	return s.save()
}
