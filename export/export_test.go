package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariclear/backend/report"
	"github.com/ariclear/backend/scans"
)

func sampleRecord(t *testing.T) *scans.ScanRecord {
	t.Helper()
	rec, err := scans.BuildRecord("user-1", "https://www.example.com/", scans.Sections{
		Human: &report.Human{
			ClarityScore:    92,
			WhatItSeemsLike: "A time tracker",
			Confusions:      []string{"Pricing is hidden"},
			TopIssues: []report.Issue{
				{Issue: "Vague hero", WhyItHurts: "Visitors bounce", Fix: "Name the outcome"},
				{Issue: "<script>alert(1)</script>", WhyItHurts: "x", Fix: "y"},
			},
		},
		AI:   &report.AI{AISEOScore: 88, MissingKeywords: []string{"timesheets", "invoicing"}},
		Copy: &report.Copy{SuggestedHeadline: "Bill | every hour"},
		Plan: &report.Plan{NextSteps: []report.Step{
			{Title: "Rewrite hero", Impact: report.LevelHigh, Effort: report.LevelLow, Details: "Lead with\nthe outcome"},
		}},
		Prompts: &report.Prompts{AISEOPrompt: "best time tracker"},
	})
	require.NoError(t, err)
	rec.Checklist[0].Checked = true
	rec.CreatedAt = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	return rec
}

func TestMarkdown(t *testing.T) {
	md := string(Markdown(sampleRecord(t)))

	assert.True(t, strings.HasPrefix(md, "# AriClear report: www.example.com\n"))
	assert.Contains(t, md, "- Overall score: **90** (excellent)")
	assert.Contains(t, md, "### 1. Vague hero")
	assert.Contains(t, md, "- [x] Vague hero")
	assert.Contains(t, md, "- [ ] <script>")
	assert.Contains(t, md, "**Missing keywords:** timesheets, invoicing")
	assert.Contains(t, md, `| Bill \| every hour | - | - |`)
	assert.Contains(t, md, "| Rewrite hero | high | low | Lead with the outcome |")
	assert.Contains(t, md, "```text\nbest time tracker\n```")
}

func TestMarkdownSkipsEmptySections(t *testing.T) {
	rec, err := scans.BuildRecord("user-1", "https://example.com", scans.Sections{})
	require.NoError(t, err)

	md := string(Markdown(rec))
	assert.Contains(t, md, "**Summary:** -")
	assert.NotContains(t, md, "## Top issues")
	assert.NotContains(t, md, "## Action plan")
	assert.NotContains(t, md, "## Prompt to test AI search")
}

func TestHTML(t *testing.T) {
	out := string(HTML(sampleRecord(t)))

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>AriClear report: www.example.com</title>")
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "Vague hero")
	assert.NotContains(t, out, "<script")
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatMarkdown, false},
		{"md", FormatMarkdown, false},
		{"Markdown", FormatMarkdown, false},
		{" HTML ", FormatHTML, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestFilenameAndContentType(t *testing.T) {
	rec := sampleRecord(t)
	assert.Equal(t, "ariclear-www-example-com-2025-06-10.md", Filename(rec, FormatMarkdown))
	assert.Equal(t, "ariclear-www-example-com-2025-06-10.html", Filename(rec, FormatHTML))
	assert.Equal(t, "text/html; charset=utf-8", FormatHTML.ContentType())
	assert.Equal(t, "text/markdown; charset=utf-8", FormatMarkdown.ContentType())
	assert.Equal(t, string(Markdown(rec)), string(Render(rec, FormatMarkdown)))
}
