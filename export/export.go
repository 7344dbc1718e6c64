// Package export renders saved scans as Markdown or HTML reports.
package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/ariclear/backend/report"
	"github.com/ariclear/backend/scans"
)

// Format selects the export rendering.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ParseFormat maps a query value to a Format; empty means Markdown.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatMarkdown, "markdown":
		return FormatMarkdown, nil
	case FormatHTML:
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType is the response content type for f.
func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "text/markdown; charset=utf-8"
}

// Extension is the file extension for f, without the dot.
func (f Format) Extension() string {
	if f == FormatHTML {
		return "html"
	}
	return "md"
}

// Render renders rec in format f.
func Render(rec *scans.ScanRecord, f Format) []byte {
	if f == FormatHTML {
		return HTML(rec)
	}
	return Markdown(rec)
}

// Filename suggests a download name for rec.
func Filename(rec *scans.ScanRecord, f Format) string {
	domain := strings.NewReplacer(".", "-", ":", "-").Replace(rec.Domain)
	return fmt.Sprintf("ariclear-%s-%s.%s", domain, rec.CreatedAt.UTC().Format("2006-01-02"), f.Extension())
}

// cell flattens s so it fits in one Markdown table cell.
func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// Markdown renders rec as a Markdown report.
func Markdown(rec *scans.ScanRecord) []byte {
	var b bytes.Buffer
	w := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
	}

	w("# AriClear report: %s\n\n", rec.Domain)
	w("- URL: %s\n", rec.URL)
	w("- Scanned: %s\n", rec.CreatedAt.UTC().Format("2006-01-02 15:04 MST"))
	w("- Overall score: **%d** (%s)\n", rec.OverallScore, report.BandOf(rec.OverallScore))
	w("- Human clarity: %d\n", rec.HumanScore)
	w("- AI SEO: %d\n\n", rec.AIScore)

	w("## How humans read it\n\n")
	w("**What it seems like:** %s\n\n", orDash(rec.HumanClarityDescription))
	w("**Value proposition:** %s\n\n", orDash(rec.HumanValueProp))
	w("**Audience:** %s\n\n", orDash(rec.HumanAudience))
	if len(rec.HumanConfusions) > 0 {
		w("**Confusions:**\n\n")
		for _, c := range rec.HumanConfusions {
			w("- %s\n", c)
		}
		w("\n")
	}

	if len(rec.Issues) > 0 {
		w("## Top issues\n\n")
		for i, issue := range rec.Issues {
			w("### %d. %s\n\n", i+1, issue.Issue)
			w("**Why it hurts:** %s\n\n", orDash(issue.WhyItHurts))
			w("**Fix:** %s\n\n", orDash(issue.Fix))
		}
	}

	if len(rec.Checklist) > 0 {
		w("## Checklist\n\n")
		for _, item := range rec.Checklist {
			mark := " "
			if item.Checked {
				mark = "x"
			}
			w("- [%s] %s\n", mark, item.Label)
		}
		w("\n")
	}

	w("## How AI reads it\n\n")
	w("**Summary:** %s\n\n", orDash(rec.AIComprehension))
	w("**Indexer read:** %s\n\n", orDash(rec.AIIndexerRead))
	if len(rec.AIMissingKeywords) > 0 {
		w("**Missing keywords:** %s\n\n", strings.Join(rec.AIMissingKeywords, ", "))
	}
	if len(rec.Suggestions) > 0 {
		w("**Structured data suggestions:**\n\n")
		for _, s := range rec.Suggestions {
			w("- %s\n", s)
		}
		w("\n")
	}

	w("## Suggested copy\n\n")
	w("| Headline | Subheadline | CTA |\n")
	w("|---|---|---|\n")
	w("| %s | %s | %s |\n\n", cell(orDash(rec.SuggestedHeadline)), cell(orDash(rec.SuggestedSubheadline)), cell(orDash(rec.SuggestedCTA)))

	if len(rec.ActionPlan) > 0 {
		w("## Action plan\n\n")
		w("| Step | Impact | Effort | Details |\n")
		w("|---|---|---|---|\n")
		for _, step := range rec.ActionPlan {
			w("| %s | %s | %s | %s |\n", cell(step.Title), step.Impact, step.Effort, cell(step.Details))
		}
		w("\n")
	}

	if rec.AIPrompt != "" {
		w("## Prompt to test AI search\n\n")
		w("```text\n%s\n```\n", rec.AIPrompt)
	}
	return b.Bytes()
}

// HTML renders the Markdown report as a standalone, sanitized HTML page.
func HTML(rec *scans.ScanRecord) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse(Markdown(rec))

	htmlFlags := mdhtml.CommonFlags | mdhtml.HrefTargetBlank
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: htmlFlags})
	body := bluemonday.UGCPolicy().SanitizeBytes(markdown.Render(doc, renderer))

	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>AriClear report: %s</title>\n", html.EscapeString(rec.Domain))
	b.WriteString("</head>\n<body>\n")
	b.Write(body)
	b.WriteString("</body>\n</html>\n")
	return b.Bytes()
}
