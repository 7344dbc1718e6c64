package scans

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariclear/backend/report"
)

func fullReport() *report.AnalysisReport {
	return &report.AnalysisReport{
		Human: report.Human{
			ClarityScore:         71,
			WhatItSeemsLike:      "A time tracker",
			OneSentenceValueProp: "Track hours, bill clients",
			BestGuessAudience:    "Freelancers",
			Confusions:           []string{"Pricing", "Integrations"},
			TopIssues: []report.Issue{
				{Issue: "Vague hero", WhyItHurts: "Bounce", Fix: "Name the outcome"},
				{Issue: "No proof", WhyItHurts: "Trust", Fix: "Add logos"},
			},
		},
		AI: report.AI{
			AISEOScore:                60,
			AISummary:                 "Time tracking SaaS",
			IndexerRead:               "Software",
			MissingKeywords:           []string{"timesheets"},
			StructuredDataSuggestions: []string{"SoftwareApplication"},
		},
		Copy: report.Copy{SuggestedHeadline: "Bill every hour", SuggestedSubheadline: "Sub", SuggestedCTA: "Try it"},
		Plan: report.Plan{NextSteps: []report.Step{
			{Title: "Rewrite hero", Impact: report.LevelHigh, Effort: report.LevelLow, Details: "Lead with outcome"},
		}},
		Prompts: report.Prompts{AISEOPrompt: "Best time tracker for freelancers?"},
	}
}

func TestBuildRecord(t *testing.T) {
	rec, err := BuildRecord("user-1", " https://www.example.com/pricing ", SectionsOf(fullReport()))
	require.NoError(t, err)

	assert.Equal(t, "user-1", rec.UserID)
	assert.Equal(t, "www.example.com", rec.Domain)
	assert.Equal(t, "https://www.example.com/pricing", rec.URL)
	assert.Equal(t, 66, rec.OverallScore) // 65.5 rounds up
	assert.Equal(t, 71, rec.HumanScore)
	assert.Equal(t, 60, rec.AIScore)
	assert.Equal(t, "A time tracker", rec.HumanClarityDescription)
	assert.Equal(t, "Time tracking SaaS", rec.AIComprehension)
	assert.Equal(t, "Best time tracker for freelancers?", rec.AIPrompt)
	assert.Equal(t, []string{"SoftwareApplication"}, rec.Suggestions)

	assert.Equal(t, []IssueItem{
		{ID: "issue-0", Issue: "Vague hero", WhyItHurts: "Bounce", Fix: "Name the outcome"},
		{ID: "issue-1", Issue: "No proof", WhyItHurts: "Trust", Fix: "Add logos"},
	}, rec.Issues)
	assert.Equal(t, []ChecklistItem{
		{ID: "issue-0", Label: "Vague hero"},
		{ID: "issue-1", Label: "No proof"},
	}, rec.Checklist)
}

func TestBuildRecordDefaultsMissingSections(t *testing.T) {
	var s Sections
	require.NoError(t, json.Unmarshal([]byte(`{"human": {"clarityScore": 90}}`), &s))

	rec, err := BuildRecord("user-1", "https://example.com", s)
	require.NoError(t, err)
	assert.Equal(t, 90, rec.HumanScore)
	assert.Equal(t, 0, rec.AIScore)
	assert.Equal(t, 45, rec.OverallScore)
	assert.Empty(t, rec.SuggestedHeadline)
	assert.Empty(t, rec.AIPrompt)
	for _, list := range []any{rec.HumanConfusions, rec.AIMissingKeywords, rec.ActionPlan, rec.Issues, rec.Checklist, rec.Suggestions} {
		assert.NotNil(t, list)
		assert.Empty(t, list)
	}

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"issues":[]`)
}

func TestBuildRecordRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "not a url", "https://", "://x"} {
		_, err := BuildRecord("user-1", raw, Sections{})
		assert.ErrorIs(t, err, ErrInvalidURL, raw)
	}
}

func TestSectionsRejectWrongTypes(t *testing.T) {
	var s Sections
	err := json.Unmarshal([]byte(`{"human": {"clarityScore": "high"}}`), &s)
	assert.Error(t, err)
}

func TestComputeStats(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	records := []*ScanRecord{
		{Domain: "a.com", OverallScore: 95, Issues: make([]IssueItem, 3), CreatedAt: now.Add(-time.Hour)},
		{Domain: "a.com", OverallScore: 70, Issues: make([]IssueItem, 2), CreatedAt: now.Add(-6 * 24 * time.Hour)},
		{Domain: "b.com", OverallScore: 69, CreatedAt: now.Add(-8 * 24 * time.Hour)},
		{Domain: "c.com", OverallScore: 10, Issues: make([]IssueItem, 1), CreatedAt: now.Add(-30 * 24 * time.Hour)},
	}

	st := computeStats(records, now)
	assert.Equal(t, &Stats{
		TotalScans:    4,
		AverageScore:  61, // 244/4
		UniqueDomains: 3,
		TotalIssues:   6,
		RecentScans:   2,
		ScoreDistribution: ScoreDistribution{
			Excellent:        1,
			Good:             1,
			NeedsImprovement: 2,
		},
	}, st)

	assert.Equal(t, &Stats{}, computeStats(nil, now))
}

func TestComputeStatsRoundsAverage(t *testing.T) {
	records := []*ScanRecord{{OverallScore: 70}, {OverallScore: 71}}
	assert.Equal(t, 71, computeStats(records, time.Now()).AverageScore)
}

func TestNewPreorder(t *testing.T) {
	p, err := NewPreorder("  Founder@Example.COM ", "  https://example.com ", "https://ariclear.com/pricing")
	require.NoError(t, err)
	assert.Equal(t, "founder@example.com", p.Email)
	require.NotNil(t, p.URL)
	assert.Equal(t, "https://example.com", *p.URL)
	assert.Equal(t, "https://ariclear.com/pricing", p.SourceURL)

	p, err = NewPreorder("a@b.co", "   ", "")
	require.NoError(t, err)
	assert.Nil(t, p.URL)

	_, err = NewPreorder("   ", "", "")
	assert.Error(t, err)
}
