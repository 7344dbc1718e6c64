// Package scans persists accepted analysis reports per user, along with the
// per-issue checklist users tick off, and the pre-order mailing list.
package scans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/ariclear/backend/report"
)

var (
	ErrNotFound   = errors.New("scan not found")
	ErrDuplicate  = errors.New("duplicate entry")
	ErrInvalidURL = errors.New("invalid url")
)

// LowScoreThreshold separates low scores from the rest in listings.
const LowScoreThreshold = 70

// RecentWindow is how far back a scan still counts as recent.
const RecentWindow = 7 * 24 * time.Hour

// ScanRecord is a saved, flattened analysis.
type ScanRecord struct {
	ID                      string          `json:"id"`
	UserID                  string          `json:"user_id"`
	Domain                  string          `json:"domain"`
	URL                     string          `json:"url"`
	OverallScore            int             `json:"overall_score"`
	HumanScore              int             `json:"human_score"`
	AIScore                 int             `json:"ai_score"`
	HumanClarityDescription string          `json:"human_clarity_description"`
	HumanValueProp          string          `json:"human_value_prop"`
	HumanAudience           string          `json:"human_audience"`
	HumanConfusions         []string        `json:"human_confusions"`
	AIComprehension         string          `json:"ai_comprehension"`
	AIIndexerRead           string          `json:"ai_indexer_read"`
	AIMissingKeywords       []string        `json:"ai_missing_keywords"`
	SuggestedHeadline       string          `json:"suggested_headline"`
	SuggestedSubheadline    string          `json:"suggested_subheadline"`
	SuggestedCTA            string          `json:"suggested_cta"`
	ActionPlan              []report.Step   `json:"action_plan"`
	AIPrompt                string          `json:"ai_prompt"`
	Issues                  []IssueItem     `json:"issues"`
	Checklist               []ChecklistItem `json:"checklist"`
	Suggestions             []string        `json:"suggestions"`
	CreatedAt               time.Time       `json:"created_at"`
}

type IssueItem struct {
	ID         string `json:"id"`
	Issue      string `json:"issue"`
	WhyItHurts string `json:"whyItHurts"`
	Fix        string `json:"fix"`
}

type ChecklistItem struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
}

// Sections is an analysis result as submitted for saving. Unlike the
// analyzer output, any section may be missing; BuildRecord defaults absent
// sections explicitly.
type Sections struct {
	Human   *report.Human   `json:"human"`
	AI      *report.AI      `json:"ai"`
	Copy    *report.Copy    `json:"copy"`
	Plan    *report.Plan    `json:"plan"`
	Prompts *report.Prompts `json:"prompts"`
}

// SectionsOf views a validated report as Sections.
func SectionsOf(r *report.AnalysisReport) Sections {
	return Sections{Human: &r.Human, AI: &r.AI, Copy: &r.Copy, Plan: &r.Plan, Prompts: &r.Prompts}
}

func issueID(i int) string {
	return fmt.Sprintf("issue-%d", i)
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// BuildRecord flattens s into a record for userID. This is the only place
// defaults apply: a missing section contributes a score of 0, empty text and
// empty lists.
func BuildRecord(userID, rawURL string, s Sections) (*ScanRecord, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return nil, ErrInvalidURL
	}

	var (
		human   report.Human
		ai      report.AI
		cp      report.Copy
		plan    report.Plan
		prompts report.Prompts
	)
	if s.Human != nil {
		human = *s.Human
	}
	if s.AI != nil {
		ai = *s.AI
	}
	if s.Copy != nil {
		cp = *s.Copy
	}
	if s.Plan != nil {
		plan = *s.Plan
	}
	if s.Prompts != nil {
		prompts = *s.Prompts
	}

	rec := &ScanRecord{
		UserID:                  userID,
		Domain:                  u.Hostname(),
		URL:                     strings.TrimSpace(rawURL),
		OverallScore:            report.AggregateScore(human.ClarityScore, ai.AISEOScore),
		HumanScore:              human.ClarityScore,
		AIScore:                 ai.AISEOScore,
		HumanClarityDescription: human.WhatItSeemsLike,
		HumanValueProp:          human.OneSentenceValueProp,
		HumanAudience:           human.BestGuessAudience,
		HumanConfusions:         orEmpty(human.Confusions),
		AIComprehension:         ai.AISummary,
		AIIndexerRead:           ai.IndexerRead,
		AIMissingKeywords:       orEmpty(ai.MissingKeywords),
		SuggestedHeadline:       cp.SuggestedHeadline,
		SuggestedSubheadline:    cp.SuggestedSubheadline,
		SuggestedCTA:            cp.SuggestedCTA,
		ActionPlan:              orEmpty(plan.NextSteps),
		AIPrompt:                prompts.AISEOPrompt,
		Issues:                  make([]IssueItem, 0, len(human.TopIssues)),
		Checklist:               make([]ChecklistItem, 0, len(human.TopIssues)),
		Suggestions:             orEmpty(ai.StructuredDataSuggestions),
	}
	for i, issue := range human.TopIssues {
		rec.Issues = append(rec.Issues, IssueItem{
			ID:         issueID(i),
			Issue:      issue.Issue,
			WhyItHurts: issue.WhyItHurts,
			Fix:        issue.Fix,
		})
		rec.Checklist = append(rec.Checklist, ChecklistItem{ID: issueID(i), Label: issue.Issue})
	}
	return rec, nil
}

// Filter narrows a listing.
type Filter string

const (
	FilterAll      Filter = ""
	FilterRecent   Filter = "recent"
	FilterLowScore Filter = "low-score"
)

// SortBy orders a listing, newest first unless sorting by score.
type SortBy string

const (
	SortByDate  SortBy = "date"
	SortByScore SortBy = "score"
)

type ListOptions struct {
	Filter Filter
	SortBy SortBy
	// Now anchors the recent window; zero means time.Now().
	Now time.Time
}

func (o ListOptions) now() time.Time {
	if o.Now.IsZero() {
		return time.Now().UTC()
	}
	return o.Now.UTC()
}

// ScoreDistribution counts scans per score band.
type ScoreDistribution struct {
	Excellent        int `json:"excellent"`
	Good             int `json:"good"`
	NeedsImprovement int `json:"needsImprovement"`
}

// Stats summarises a user's scan history.
type Stats struct {
	TotalScans        int               `json:"totalScans"`
	AverageScore      int               `json:"averageScore"`
	UniqueDomains     int               `json:"uniqueDomains"`
	TotalIssues       int               `json:"totalIssues"`
	RecentScans       int               `json:"recentScans"`
	ScoreDistribution ScoreDistribution `json:"scoreDistribution"`
}

func computeStats(records []*ScanRecord, now time.Time) *Stats {
	st := &Stats{TotalScans: len(records)}
	if len(records) == 0 {
		return st
	}

	domains := make(map[string]struct{}, len(records))
	cutoff := now.Add(-RecentWindow)
	total := 0
	for _, rec := range records {
		total += rec.OverallScore
		domains[rec.Domain] = struct{}{}
		st.TotalIssues += len(rec.Issues)
		if rec.CreatedAt.After(cutoff) {
			st.RecentScans++
		}
		switch report.BandOf(rec.OverallScore) {
		case report.BandExcellent:
			st.ScoreDistribution.Excellent++
		case report.BandGood:
			st.ScoreDistribution.Good++
		default:
			st.ScoreDistribution.NeedsImprovement++
		}
	}
	st.AverageScore = int(math.Floor(float64(total)/float64(len(records)) + 0.5))
	st.UniqueDomains = len(domains)
	return st
}

// Preorder is one sign-up on the pre-order mailing list.
type Preorder struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	URL       *string   `json:"url"`
	SourceURL string    `json:"sourceURL"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPreorder cleans a submitted sign-up: the email is trimmed and
// lower-cased, a blank url becomes nil.
func NewPreorder(email, rawURL, sourceURL string) (*Preorder, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("email is required")
	}
	p := &Preorder{Email: email, SourceURL: sourceURL}
	if u := strings.TrimSpace(rawURL); u != "" {
		p.URL = &u
	}
	return p, nil
}

// Store persists scans and pre-orders. Every scan operation is scoped to
// the owning user; a scan belonging to someone else is ErrNotFound.
type Store interface {
	InitSchema(ctx context.Context) error
	Create(ctx context.Context, rec *ScanRecord) error
	Get(ctx context.Context, userID, id string) (*ScanRecord, error)
	List(ctx context.Context, userID string, opts ListOptions) ([]*ScanRecord, error)
	UpdateChecklist(ctx context.Context, userID, id string, checklist []ChecklistItem) (*ScanRecord, error)
	Delete(ctx context.Context, userID, id string) error
	Stats(ctx context.Context, userID string, now time.Time) (*Stats, error)
	AddPreorder(ctx context.Context, p *Preorder) error
	Close() error
}

// scanColumns is the column order shared by every query.
const scanColumns = `id, user_id, domain, url, overall_score, human_score, ai_score,
	human_clarity_description, human_value_prop, human_audience, human_confusions,
	ai_comprehension, ai_indexer_read, ai_missing_keywords,
	suggested_headline, suggested_subheadline, suggested_cta,
	action_plan, ai_prompt, issues, checklist, suggestions, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRow holds the raw JSON columns of one row until decode.
type scanRow struct {
	rec ScanRecord

	confusions, keywords, plan, issues, checklist, suggest []byte
}

func (r *scanRow) dest(createdAt any) []any {
	return []any{
		&r.rec.ID, &r.rec.UserID, &r.rec.Domain, &r.rec.URL,
		&r.rec.OverallScore, &r.rec.HumanScore, &r.rec.AIScore,
		&r.rec.HumanClarityDescription, &r.rec.HumanValueProp, &r.rec.HumanAudience, &r.confusions,
		&r.rec.AIComprehension, &r.rec.AIIndexerRead, &r.keywords,
		&r.rec.SuggestedHeadline, &r.rec.SuggestedSubheadline, &r.rec.SuggestedCTA,
		&r.plan, &r.rec.AIPrompt, &r.issues, &r.checklist, &r.suggest,
		createdAt,
	}
}

func (r *scanRow) decode() (*ScanRecord, error) {
	fields := []struct {
		name string
		data []byte
		into any
	}{
		{"human_confusions", r.confusions, &r.rec.HumanConfusions},
		{"ai_missing_keywords", r.keywords, &r.rec.AIMissingKeywords},
		{"action_plan", r.plan, &r.rec.ActionPlan},
		{"issues", r.issues, &r.rec.Issues},
		{"checklist", r.checklist, &r.rec.Checklist},
		{"suggestions", r.suggest, &r.rec.Suggestions},
	}
	for _, f := range fields {
		if len(f.data) == 0 {
			continue
		}
		if err := json.Unmarshal(f.data, f.into); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", f.name, err)
		}
	}
	rec := r.rec
	rec.HumanConfusions = orEmpty(rec.HumanConfusions)
	rec.AIMissingKeywords = orEmpty(rec.AIMissingKeywords)
	rec.ActionPlan = orEmpty(rec.ActionPlan)
	rec.Issues = orEmpty(rec.Issues)
	rec.Checklist = orEmpty(rec.Checklist)
	rec.Suggestions = orEmpty(rec.Suggestions)
	return &rec, nil
}

// jsonColumns encodes the list columns of rec in scanColumns order.
func jsonColumns(rec *ScanRecord) (confusions, keywords, plan, issues, checklist, suggest []byte, err error) {
	enc := func(v any) []byte {
		if err != nil {
			return nil
		}
		var b []byte
		b, err = json.Marshal(v)
		return b
	}
	confusions = enc(orEmpty(rec.HumanConfusions))
	keywords = enc(orEmpty(rec.AIMissingKeywords))
	plan = enc(orEmpty(rec.ActionPlan))
	issues = enc(orEmpty(rec.Issues))
	checklist = enc(orEmpty(rec.Checklist))
	suggest = enc(orEmpty(rec.Suggestions))
	if err != nil {
		err = fmt.Errorf("failed to encode scan: %w", err)
	}
	return
}

func marshalChecklist(checklist []ChecklistItem) ([]byte, error) {
	data, err := json.Marshal(orEmpty(checklist))
	if err != nil {
		return nil, fmt.Errorf("failed to encode checklist: %w", err)
	}
	return data, nil
}
