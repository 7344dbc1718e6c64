package logging

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://Example.com/", "https://example.com"},
		{"https://example.com/pricing/?ref=x", "https://example.com/pricing"},
		{"http://localhost:8082/api/analyze", ""},
		{"https://example.com/api/v1", ""},
		{"not a url", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanURL(tt.in), tt.in)
	}
}

func TestStatisticsTracking(t *testing.T) {
	s, err := NewStatistics("")
	require.NoError(t, err)

	s.TrackVisitor("10.0.0.1")
	s.TrackVisitor("10.0.0.1")
	s.TrackVisitor("10.0.0.2")
	s.TrackAnalysis("https://example.com", 100*time.Millisecond, "")
	s.TrackAnalysis("https://example.com/", 300*time.Millisecond, "fetch_failure")

	assert.Equal(t, 2, s.GetUniqueVisitorsCount())
	assert.Equal(t, 2, s.Total())
	assert.InDelta(t, 50.0, s.GetErrorRate(), 0.001)

	view := s.Snapshot(false)
	assert.InDelta(t, 200.0, view["averageLoadTime"], 0.001)
	assert.NotContains(t, view, "popularUrls")

	dev := s.Snapshot(true)
	require.Contains(t, dev, "popularUrls")
	popular := dev["popularUrls"].([]urlCount)
	require.Len(t, popular, 1)
	assert.Equal(t, urlCount{URL: "https://example.com", Count: 2}, popular[0])
	assert.Equal(t, map[string]int{"fetch_failure": 1}, dev["errorsByKind"])
}

func TestStatisticsPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statistics.json")

	s, err := NewStatistics(path)
	require.NoError(t, err)
	s.TrackAnalysis("https://example.com", time.Second, "rate_limited")
	require.NoError(t, s.Save())

	reloaded, err := NewStatistics(path)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Total())
	assert.Equal(t, 1, reloaded.ErrorsByKind["rate_limited"])
	assert.InDelta(t, 1000.0, reloaded.AverageLoadTime, 0.001)
}

func TestGologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New("warn", &buf)

	logger.Info("hidden %d", 1)
	logger.Warn("shown %s", "warn")
	logger.Error("shown %s", "error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown warn")
	assert.Contains(t, out, "shown error")
}

func TestNormalizeLevel(t *testing.T) {
	assert.Equal(t, "debug", normalizeLevel("DEBUG"))
	assert.Equal(t, "warn", normalizeLevel("warning"))
	assert.Equal(t, "disable", normalizeLevel("off"))
	assert.Equal(t, "info", normalizeLevel("verbose"))
}
