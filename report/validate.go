package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// ShapeError names the first place a value departs from the report contract.
type ShapeError struct {
	Path   string
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func shapeErr(path, format string, args ...any) *ShapeError {
	return &ShapeError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// Parse turns raw generator text into a report. Blank text, undecodable text
// and decodable-but-wrong values fail with distinct kinds.
func Parse(text string) (*AnalysisReport, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, EmptyGeneration()
	}

	v, err := decode(text)
	if err != nil {
		return nil, MalformedGeneration(err)
	}

	return Validate(v)
}

func decode(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}

// Validate checks a decoded JSON value against the report contract and
// builds the typed report from it. A missing or wrong-typed contract field
// is an UnexpectedShape error and is never filled in. Inside issue and step
// elements absent keys read as empty text.
func Validate(v any) (*AnalysisReport, error) {
	r, err := validate(v)
	if err != nil {
		return nil, UnexpectedShape(err)
	}
	return r, nil
}

func validate(v any) (*AnalysisReport, error) {
	root, err := asObject(v, "$")
	if err != nil {
		return nil, err
	}

	var r AnalysisReport

	human, err := objectField(root, "human", "human")
	if err != nil {
		return nil, err
	}
	if r.Human.ClarityScore, err = scoreField(human, "clarityScore", "human"); err != nil {
		return nil, err
	}
	if r.Human.WhatItSeemsLike, err = stringField(human, "whatItSeemsLike", "human"); err != nil {
		return nil, err
	}
	if r.Human.Confusions, err = stringListField(human, "confusions", "human"); err != nil {
		return nil, err
	}
	if r.Human.TopIssues, err = issuesField(human, "topIssues", "human"); err != nil {
		return nil, err
	}
	if r.Human.OneSentenceValueProp, err = stringField(human, "oneSentenceValueProp", "human"); err != nil {
		return nil, err
	}
	if r.Human.BestGuessAudience, err = stringField(human, "bestGuessAudience", "human"); err != nil {
		return nil, err
	}

	ai, err := objectField(root, "ai", "ai")
	if err != nil {
		return nil, err
	}
	if r.AI.AISEOScore, err = scoreField(ai, "aiSeoScore", "ai"); err != nil {
		return nil, err
	}
	if r.AI.AISummary, err = stringField(ai, "aiSummary", "ai"); err != nil {
		return nil, err
	}
	if r.AI.MissingKeywords, err = stringListField(ai, "missingKeywords", "ai"); err != nil {
		return nil, err
	}
	if r.AI.IndexerRead, err = stringField(ai, "indexerRead", "ai"); err != nil {
		return nil, err
	}
	if r.AI.StructuredDataSuggestions, err = stringListField(ai, "structuredDataSuggestions", "ai"); err != nil {
		return nil, err
	}

	cp, err := objectField(root, "copy", "copy")
	if err != nil {
		return nil, err
	}
	if r.Copy.SuggestedHeadline, err = stringField(cp, "suggestedHeadline", "copy"); err != nil {
		return nil, err
	}
	if r.Copy.SuggestedSubheadline, err = stringField(cp, "suggestedSubheadline", "copy"); err != nil {
		return nil, err
	}
	if r.Copy.SuggestedCTA, err = stringField(cp, "suggestedCTA", "copy"); err != nil {
		return nil, err
	}

	plan, err := objectField(root, "plan", "plan")
	if err != nil {
		return nil, err
	}
	if r.Plan.NextSteps, err = stepsField(plan, "nextSteps", "plan"); err != nil {
		return nil, err
	}

	prompts, err := objectField(root, "prompts", "prompts")
	if err != nil {
		return nil, err
	}
	if r.Prompts.AISEOPrompt, err = stringField(prompts, "aiSeoPrompt", "prompts"); err != nil {
		return nil, err
	}

	return &r, nil
}

func join(parent, key string) string {
	if parent == "" || parent == "$" {
		return key
	}
	return parent + "." + key
}

func lookup(obj map[string]any, key, parent string) (any, error) {
	v, ok := obj[key]
	if !ok {
		return nil, shapeErr(join(parent, key), "missing")
	}
	return v, nil
}

func asObject(v any, path string) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok || m == nil {
		return nil, shapeErr(path, "expected object, got %s", typeName(v))
	}
	return m, nil
}

func objectField(obj map[string]any, key, path string) (map[string]any, error) {
	v, ok := obj[key]
	if !ok {
		return nil, shapeErr(path, "missing")
	}
	return asObject(v, path)
}

func stringField(obj map[string]any, key, parent string) (string, error) {
	v, err := lookup(obj, key, parent)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", shapeErr(join(parent, key), "expected string, got %s", typeName(v))
	}
	return s, nil
}

// scoreField accepts any finite number and rounds it half up to a whole
// score. Range is left to the caller.
func scoreField(obj map[string]any, key, parent string) (int, error) {
	path := join(parent, key)
	v, err := lookup(obj, key, parent)
	if err != nil {
		return 0, err
	}

	var f float64
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			f = float64(i)
			break
		}
		if f, err = n.Float64(); err != nil {
			return 0, shapeErr(path, "unreadable number %q", n.String())
		}
	case float64:
		f = n
	case int:
		return n, nil
	default:
		return 0, shapeErr(path, "expected number, got %s", typeName(v))
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, shapeErr(path, "expected finite number, got %v", f)
	}
	f = math.Floor(f + 0.5)
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, shapeErr(path, "number out of representable range")
	}
	return int(f), nil
}

func arrayField(obj map[string]any, key, parent string) ([]any, error) {
	v, err := lookup(obj, key, parent)
	if err != nil {
		return nil, err
	}
	a, ok := v.([]any)
	if !ok || a == nil {
		return nil, shapeErr(join(parent, key), "expected array, got %s", typeName(v))
	}
	return a, nil
}

// asText renders a list element or inner field as a string. Strings pass
// through, other values keep their JSON text and null has none.
func asText(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return string(b), true
}

func innerText(m map[string]any, key string) string {
	s, _ := asText(m[key])
	return s
}

func stringListField(obj map[string]any, key, parent string) ([]string, error) {
	items, err := arrayField(obj, key, parent)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := asText(item); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// issuesField keeps every object or string element. Inner keys that are
// absent read as empty text.
func issuesField(obj map[string]any, key, parent string) ([]Issue, error) {
	items, err := arrayField(obj, key, parent)
	if err != nil {
		return nil, err
	}
	out := make([]Issue, 0, len(items))
	for _, item := range items {
		switch x := item.(type) {
		case map[string]any:
			out = append(out, Issue{
				Issue:      innerText(x, "issue"),
				WhyItHurts: innerText(x, "whyItHurts"),
				Fix:        innerText(x, "fix"),
			})
		case string:
			out = append(out, Issue{Issue: x})
		}
	}
	return out, nil
}

func stepsField(obj map[string]any, key, parent string) ([]Step, error) {
	items, err := arrayField(obj, key, parent)
	if err != nil {
		return nil, err
	}
	out := make([]Step, 0, len(items))
	for _, item := range items {
		switch x := item.(type) {
		case map[string]any:
			out = append(out, Step{
				Title:   innerText(x, "title"),
				Impact:  ParseLevel(innerText(x, "impact")),
				Effort:  ParseLevel(innerText(x, "effort")),
				Details: innerText(x, "details"),
			})
		case string:
			out = append(out, Step{Title: x})
		}
	}
	return out, nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, int:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
