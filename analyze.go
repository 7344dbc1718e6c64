package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"

	"github.com/ariclear/backend/report"
)

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "analyze one URL and print the report",
		ArgsUsage: "[url]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "page to analyze"},
			&cli.BoolFlag{Name: "json", Usage: "print the raw report as JSON"},
		},
		Action: analyzeAction,
	}
}

func analyzeAction(c *cli.Context) error {
	target := c.String("url")
	if target == "" {
		target = c.Args().First()
	}
	if target == "" {
		return cli.Exit("a url is required (--url)", 2)
	}

	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	a, err := newAnalyzer(c.Context, cfg, logger)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer a.Shutdown()

	r, err := a.Analyze(c.Context, target)
	if err != nil {
		logger.Debug("Analysis failed: %v", err)
		return cli.Exit(report.PublicMessage(err), 1)
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	_, err = io.WriteString(c.App.Writer, renderReport(target, r))
	return err
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true).MarginTop(1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func bandColor(b report.Band) lipgloss.Color {
	switch b {
	case report.BandExcellent:
		return lipgloss.Color("42")
	case report.BandGood:
		return lipgloss.Color("214")
	default:
		return lipgloss.Color("196")
	}
}

func score(label string, v int) string {
	style := lipgloss.NewStyle().Bold(true).Foreground(bandColor(report.BandOf(v)))
	return labelStyle.Render(label+" ") + style.Render(fmt.Sprintf("%d", v))
}

// renderReport formats r for a terminal.
func renderReport(target string, r *report.AnalysisReport) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line("%s", titleStyle.Render("AriClear report for "+target))
	line("%s", boxStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top,
		score("overall", r.Overall()), "   ",
		score("human", r.Human.ClarityScore), "   ",
		score("ai", r.AI.AISEOScore),
	)))

	line("%s", headingStyle.Render("How people read it"))
	line("%s %s", labelStyle.Render("Seems like:"), r.Human.WhatItSeemsLike)
	line("%s %s", labelStyle.Render("Value prop:"), r.Human.OneSentenceValueProp)
	line("%s %s", labelStyle.Render("Audience:"), r.Human.BestGuessAudience)
	for _, c := range r.Human.Confusions {
		line("  ? %s", c)
	}

	if len(r.Human.TopIssues) > 0 {
		line("%s", headingStyle.Render("Top issues"))
		for i, issue := range r.Human.TopIssues {
			line("%d. %s", i+1, issue.Issue)
			line("   %s %s", labelStyle.Render("why:"), issue.WhyItHurts)
			line("   %s %s", labelStyle.Render("fix:"), issue.Fix)
		}
	}

	line("%s", headingStyle.Render("How AI reads it"))
	line("%s %s", labelStyle.Render("Summary:"), r.AI.AISummary)
	line("%s %s", labelStyle.Render("Indexer:"), r.AI.IndexerRead)
	if len(r.AI.MissingKeywords) > 0 {
		line("%s %s", labelStyle.Render("Missing keywords:"), strings.Join(r.AI.MissingKeywords, ", "))
	}

	line("%s", headingStyle.Render("Suggested copy"))
	line("%s %s", labelStyle.Render("Headline:"), r.Copy.SuggestedHeadline)
	line("%s %s", labelStyle.Render("Subheadline:"), r.Copy.SuggestedSubheadline)
	line("%s %s", labelStyle.Render("CTA:"), r.Copy.SuggestedCTA)

	if len(r.Plan.NextSteps) > 0 {
		line("%s", headingStyle.Render("Next steps"))
		for _, step := range r.Plan.NextSteps {
			line("- %s [impact %s, effort %s]", step.Title, step.Impact, step.Effort)
			if step.Details != "" {
				line("  %s", step.Details)
			}
		}
	}

	if r.Prompts.AISEOPrompt != "" {
		line("%s", headingStyle.Render("Try asking an AI"))
		line("%s", r.Prompts.AISEOPrompt)
	}
	return b.String()
}
