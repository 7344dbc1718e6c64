package analyzer

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>  Acme Analytics | Dashboards for teams </title>
  <meta name="description" content=" Real-time dashboards for product teams. ">
  <style>body { color: red; }</style>
</head>
<body>
  <nav>Home   About
  Pricing</nav>
  <h1> Know your numbers </h1>
  <script>window.tracking = "secret";</script>
  <noscript>Please enable JavaScript</noscript>
  <h2> One </h2><h2>   </h2><h2>Two</h2><h2>Three</h2><h2>Four</h2><h2>Five</h2><h2>Six</h2><h2>Seven</h2>
  <p>Ship	faster
     with live metrics.</p>
  <svg><text>logo</text></svg>
  <img src="hero.png" alt="hero">
</body>
</html>`

func TestExtract(t *testing.T) {
	content := Extract(samplePage)

	assert.Equal(t, "Acme Analytics | Dashboards for teams", content.Title)
	assert.Equal(t, "Real-time dashboards for product teams.", content.MetaDescription)
	assert.Equal(t, "Know your numbers", content.H1)
	assert.Equal(t, []string{"One", "Two", "Three", "Four", "Five", "Six"}, content.H2s)

	assert.True(t, strings.HasPrefix(content.BodySnippet, "Home About Pricing Know your numbers One Two"))
	assert.True(t, strings.HasSuffix(content.BodySnippet, "Ship faster with live metrics."))
	for _, noise := range []string{"tracking", "secret", "enable JavaScript", "logo", "color: red"} {
		assert.NotContains(t, content.BodySnippet, noise)
	}
	assert.NotContains(t, content.BodySnippet, "  ")
}

func TestExtractEmptyInput(t *testing.T) {
	for _, html := range []string{"", "   ", "<<<>>>", "<html><body></body></html>", "no markup at all"} {
		content := Extract(html)
		assert.Empty(t, content.Title, html)
		assert.Empty(t, content.MetaDescription, html)
		assert.Empty(t, content.H1, html)
		require.NotNil(t, content.H2s, html)
		assert.Empty(t, content.H2s, html)
	}

	assert.Equal(t, "no markup at all", Extract("no markup at all").BodySnippet)

	out, err := json.Marshal(Extract(""))
	require.NoError(t, err)
	assert.Contains(t, string(out), `"h2s":[]`)
}

func TestExtractWithoutHeadings(t *testing.T) {
	content := Extract(`<html><head><title>Only a title</title></head><body><p>Body</p></body></html>`)
	assert.Equal(t, "Only a title", content.Title)
	assert.Empty(t, content.H1)
	assert.Equal(t, "Body", content.BodySnippet)
}

func TestExtractTruncatesBody(t *testing.T) {
	t.Run("ascii", func(t *testing.T) {
		content := Extract("<body>" + strings.Repeat("a", MaxSnippetLen+1000) + "</body>")
		assert.Len(t, content.BodySnippet, MaxSnippetLen)
	})

	t.Run("counts characters not bytes", func(t *testing.T) {
		content := Extract("<body>" + strings.Repeat("漢", MaxSnippetLen+4000) + "</body>")
		assert.True(t, utf8.ValidString(content.BodySnippet))
		assert.Equal(t, MaxSnippetLen, utf8.RuneCountInString(content.BodySnippet))
	})

	t.Run("invalid utf-8 still terminates", func(t *testing.T) {
		assert.Len(t, truncate(strings.Repeat("\xff", 20), 10), 10)
	})

	t.Run("custom limit", func(t *testing.T) {
		content := ExtractWithLimit("<body>hello wide world</body>", 10)
		assert.Equal(t, "hello wide", content.BodySnippet)
	})

	t.Run("short bodies are untouched", func(t *testing.T) {
		content := ExtractWithLimit("<body>short</body>", 10)
		assert.Equal(t, "short", content.BodySnippet)
	})
}

func TestExtractIsDeterministic(t *testing.T) {
	assert.Equal(t, Extract(samplePage), Extract(samplePage))
}

func TestValidateURL(t *testing.T) {
	valid := []string{
		"https://example.com",
		"http://example.com/path?q=1",
		"  https://example.com/  ",
		"HTTPS://EXAMPLE.COM",
	}
	for _, raw := range valid {
		u, err := ValidateURL(raw)
		require.NoError(t, err, raw)
		assert.NotEmpty(t, u.Host)
	}

	invalid := []string{"", "   ", "ftp://example.com", "example.com", "https://", "mailto:a@b.c", "://bad", "javascript:alert(1)"}
	for _, raw := range invalid {
		_, err := ValidateURL(raw)
		require.Error(t, err, raw)
	}
}

func TestExtractContext(t *testing.T) {
	content, err := ExtractContext(context.Background(), samplePage, MaxSnippetLen)
	require.NoError(t, err)
	assert.Equal(t, Extract(samplePage), content)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	deep := strings.Repeat("<div>", 5000) + "text" + strings.Repeat("</div>", 5000)
	content, err = ExtractContext(ctx, "<body>"+deep+"</body>", MaxSnippetLen)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{}, content.H2s)
}
