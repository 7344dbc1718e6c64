package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariclear/backend/analyzer"
	"github.com/ariclear/backend/config"
	"github.com/ariclear/backend/generator"
	"github.com/ariclear/backend/logging"
	"github.com/ariclear/backend/report"
	"github.com/ariclear/backend/scans"
)

func TestRenderReport(t *testing.T) {
	r := &report.AnalysisReport{
		Human: report.Human{
			ClarityScore:    91,
			WhatItSeemsLike: "An analytics dashboard",
			Confusions:      []string{"Pricing"},
			TopIssues:       []report.Issue{{Issue: "Generic headline", WhyItHurts: "Low recall", Fix: "Name the outcome"}},
		},
		AI:   report.AI{AISEOScore: 40, MissingKeywords: []string{"kpi", "metrics"}},
		Copy: report.Copy{SuggestedCTA: "Start free"},
		Plan: report.Plan{NextSteps: []report.Step{
			{Title: "Rewrite hero", Impact: report.LevelHigh, Effort: report.LevelLow},
		}},
		Prompts: report.Prompts{AISEOPrompt: "best analytics tool?"},
	}

	out := renderReport("https://acme.com", r)
	for _, want := range []string{
		"AriClear report for https://acme.com",
		"overall", "66", "91", "40",
		"? Pricing",
		"1. Generic headline",
		"kpi, metrics",
		"Start free",
		"- Rewrite hero [impact high, effort low]",
		"best analytics tool?",
	} {
		assert.Contains(t, out, want)
	}
}

func TestNewGenerator(t *testing.T) {
	cfg := config.Default()
	cfg.OpenAIAPIKey = "sk-test"

	gen, err := newGenerator(cfg)
	require.NoError(t, err)
	assert.IsType(t, &generator.OpenAI{}, gen)

	cfg.LLMProvider = config.ProviderLangChain
	gen, err = newGenerator(cfg)
	require.NoError(t, err)
	assert.IsType(t, &generator.LangChain{}, gen)
}

func TestNewFetcher(t *testing.T) {
	cfg := config.Default()
	assert.IsType(t, &analyzer.HTTPFetcher{}, newFetcher(cfg))

	cfg.FetchMode = config.FetchBrowser
	assert.IsType(t, &analyzer.BrowserFetcher{}, newFetcher(cfg))
}

func TestNewCache(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()

	mem := newCache(ctx, cfg, logging.Nop())
	assert.Equal(t, "memory", mem.Name())

	mr := miniredis.RunT(t)
	cfg.RedisAddr = mr.Addr()
	rc := newCache(ctx, cfg, logging.Nop())
	assert.Equal(t, "redis", rc.Name())

	mr.Close()
	fallback := newCache(ctx, cfg, logging.Nop())
	assert.Equal(t, "memory", fallback.Name())
}

func TestOpenStoreSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = filepath.Join(t.TempDir(), "nested", "data")

	store, err := openStore(context.Background(), cfg)
	require.NoError(t, err)
	defer store.Close()

	sqlite, ok := store.(*scans.SQLiteStore)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(cfg.DataDir, "ariclear.db"), sqlite.Path())
	assert.FileExists(t, sqlite.Path())
}
