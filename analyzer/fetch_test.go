package analyzer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariclear/backend/report"
)

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
			assert.Equal(t, "text/html", r.Header.Get("Accept"))
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html><title>ok</title></html>"))
		case "/moved":
			http.Redirect(w, r, "/page", http.StatusFound)
		case "/gone":
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	fetcher := NewHTTPFetcher(5 * time.Second)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		html, err := fetcher.Fetch(ctx, srv.URL+"/page")
		require.NoError(t, err)
		assert.Equal(t, "<html><title>ok</title></html>", html)
	})

	t.Run("follows redirects", func(t *testing.T) {
		html, err := fetcher.Fetch(ctx, srv.URL+"/moved")
		require.NoError(t, err)
		assert.Contains(t, html, "<title>ok</title>")
	})

	t.Run("non-2xx carries the status", func(t *testing.T) {
		_, err := fetcher.Fetch(ctx, srv.URL+"/gone")
		require.Error(t, err)
		assert.Equal(t, report.KindFetchFailure, report.KindOf(err))
		assert.Equal(t, http.StatusNotFound, report.StatusOf(err))
		assert.Contains(t, report.PublicMessage(err), "404")
	})

	t.Run("server errors are fetch failures", func(t *testing.T) {
		_, err := fetcher.Fetch(ctx, srv.URL+"/boom")
		assert.Equal(t, report.KindFetchFailure, report.KindOf(err))
		assert.Equal(t, http.StatusBadRequest, report.HTTPStatus(err))
	})
}

func TestHTTPFetcherUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewHTTPFetcher(time.Second).Fetch(context.Background(), addr)
	require.Error(t, err)
	assert.Equal(t, report.KindFetchFailure, report.KindOf(err))
	assert.Zero(t, report.StatusOf(err))
	assert.Equal(t, report.MsgFetchFailure, report.PublicMessage(err))
}

func TestHTTPFetcherHonoursContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPFetcher(5*time.Second).Fetch(ctx, srv.URL)
	assert.Equal(t, report.KindFetchFailure, report.KindOf(err))
}
