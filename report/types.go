package report

import "strings"

// AnalysisReport is the validated comprehension report for one URL at one
// point in time. Values of this type only come out of Validate or Parse.
type AnalysisReport struct {
	Human   Human   `json:"human"`
	AI      AI      `json:"ai"`
	Copy    Copy    `json:"copy"`
	Plan    Plan    `json:"plan"`
	Prompts Prompts `json:"prompts"`
}

// Human is how a first-time visitor reads the page.
type Human struct {
	ClarityScore         int      `json:"clarityScore"`
	WhatItSeemsLike      string   `json:"whatItSeemsLike"`
	OneSentenceValueProp string   `json:"oneSentenceValueProp"`
	BestGuessAudience    string   `json:"bestGuessAudience"`
	Confusions           []string `json:"confusions"`
	TopIssues            []Issue  `json:"topIssues"`
}

type Issue struct {
	Issue      string `json:"issue"`
	WhyItHurts string `json:"whyItHurts"`
	Fix        string `json:"fix"`
}

// AI is how a language model or indexer classifies the page.
type AI struct {
	AISEOScore                int      `json:"aiSeoScore"`
	AISummary                 string   `json:"aiSummary"`
	IndexerRead               string   `json:"indexerRead"`
	MissingKeywords           []string `json:"missingKeywords"`
	StructuredDataSuggestions []string `json:"structuredDataSuggestions"`
}

type Copy struct {
	SuggestedHeadline    string `json:"suggestedHeadline"`
	SuggestedSubheadline string `json:"suggestedSubheadline"`
	SuggestedCTA         string `json:"suggestedCTA"`
}

type Plan struct {
	NextSteps []Step `json:"nextSteps"`
}

type Step struct {
	Title   string `json:"title"`
	Impact  Level  `json:"impact"`
	Effort  Level  `json:"effort"`
	Details string `json:"details"`
}

type Prompts struct {
	AISEOPrompt string `json:"aiSeoPrompt"`
}

// Level grades the impact or effort of a plan step.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// ParseLevel folds the known grades to lower case. Anything else is kept as
// written.
func ParseLevel(s string) Level {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if l.Valid() {
		return l
	}
	return Level(s)
}

func (l Level) Valid() bool {
	switch l {
	case LevelHigh, LevelMedium, LevelLow:
		return true
	}
	return false
}

const (
	MinScore = 0
	MaxScore = 100
)

// InRange reports whether both headline scores sit inside [MinScore, MaxScore].
func (r *AnalysisReport) InRange() bool {
	return scoreInRange(r.Human.ClarityScore) && scoreInRange(r.AI.AISEOScore)
}

func scoreInRange(s int) bool {
	return s >= MinScore && s <= MaxScore
}
