package analyzer

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	// MaxSnippetLen caps the body snippet, in characters.
	MaxSnippetLen = 5000
	maxH2s        = 6
)

// noiseSelector lists elements whose text never belongs in the snippet.
const noiseSelector = "script, style, noscript, svg, img"

// Extract summarizes html with the default snippet length.
func Extract(html string) PageContent {
	return ExtractWithLimit(html, MaxSnippetLen)
}

// ExtractWithLimit summarizes html, cutting the body snippet at limit
// characters. It never fails: unparseable or empty input yields empty fields.
func ExtractWithLimit(html string, limit int) (content PageContent) {
	if limit <= 0 {
		limit = MaxSnippetLen
	}
	content.H2s = []string{}

	defer func() {
		if r := recover(); r != nil {
			content = PageContent{H2s: []string{}}
		}
	}()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return content
	}

	content.Title = strings.TrimSpace(doc.Find("title").First().Text())
	content.MetaDescription = strings.TrimSpace(doc.Find(`meta[name="description"]`).First().AttrOr("content", ""))
	content.H1 = strings.TrimSpace(doc.Find("h1").First().Text())

	doc.Find("h2").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if text := strings.TrimSpace(s.Text()); text != "" {
			content.H2s = append(content.H2s, text)
		}
		return len(content.H2s) < maxH2s
	})

	body := doc.Find("body")
	body.Find(noiseSelector).Remove()
	content.BodySnippet = truncate(collapseWhitespace(body.Text()), limit)

	return content
}

// ExtractContext runs ExtractWithLimit but gives up once ctx is done.
// Pathological markup can take the parser far longer than a request allows.
func ExtractContext(ctx context.Context, html string, limit int) (PageContent, error) {
	done := make(chan PageContent, 1)
	go func() {
		done <- ExtractWithLimit(html, limit)
	}()

	select {
	case content := <-done:
		return content, nil
	case <-ctx.Done():
		return PageContent{H2s: []string{}}, ctx.Err()
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, limit int) string {
	cut, n := 0, 0
	for cut < len(s) && n < limit {
		_, size := utf8.DecodeRuneInString(s[cut:])
		cut += size
		n++
	}
	return s[:cut]
}
