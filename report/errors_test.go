package report

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"invalid input", InvalidInput(nil), http.StatusBadRequest, MsgInvalidInput},
		{"fetch with status", FetchFailed(404, nil), http.StatusBadRequest, "Failed to fetch URL (status 404)."},
		{"fetch without status", FetchFailed(0, errors.New("dial tcp: refused")), http.StatusBadRequest, MsgFetchFailure},
		{"empty", EmptyGeneration(), http.StatusInternalServerError, MsgEmptyGeneration},
		{"malformed", MalformedGeneration(errors.New("bad")), http.StatusInternalServerError, MsgMalformed},
		{"shape", UnexpectedShape(&ShapeError{Path: "copy", Reason: "missing"}), http.StatusInternalServerError, MsgUnexpectedShape},
		{"rate limited", RateLimited(nil), http.StatusTooManyRequests, MsgRateLimited},
		{"upstream with status", UpstreamFailure(503, nil), http.StatusServiceUnavailable, "AI service error (status 503)."},
		{"upstream without status", UpstreamFailure(0, errors.New("eof")), http.StatusBadGateway, MsgUpstream},
		{"internal", Internal(errors.New("boom")), http.StatusInternalServerError, MsgInternal},
		{"untyped", errors.New("boom"), http.StatusInternalServerError, MsgInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
			assert.Equal(t, tt.message, PublicMessage(tt.err))
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := FetchFailed(0, cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, KindFetchFailure, KindOf(err))
}
