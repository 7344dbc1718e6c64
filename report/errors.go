package report

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why an analysis did not produce a report.
type Kind string

const (
	KindInvalidInput         Kind = "invalid_input"
	KindFetchFailure         Kind = "fetch_failure"
	KindEmptyGeneration      Kind = "empty_generation"
	KindMalformedGeneration  Kind = "malformed_generation"
	KindUnexpectedShape      Kind = "unexpected_shape"
	KindRateLimited          Kind = "rate_limited"
	KindUpstreamServiceError Kind = "upstream_service_error"
	KindInternalError        Kind = "internal_error"
)

// Caller-visible messages. Nothing else from an Error reaches a client.
const (
	MsgInvalidInput    = "Please provide a valid http(s) URL."
	MsgFetchFailure    = "Failed to fetch URL."
	MsgEmptyGeneration = "Empty AI response."
	MsgMalformed       = "AI returned invalid JSON."
	MsgUnexpectedShape = "AI returned unexpected response shape."
	MsgRateLimited     = "Rate limit reached. Please wait a moment and try again."
	MsgUpstream        = "AI service error."
	MsgInternal        = "Server error while analyzing the URL."
)

// Error is the typed failure of one analysis.
type Error struct {
	Kind Kind
	// Status is the upstream HTTP status when the collaborator reported one.
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, status int, err error) *Error {
	return &Error{Kind: kind, Status: status, Err: err}
}

func InvalidInput(err error) *Error { return newError(KindInvalidInput, 0, err) }

// FetchFailed reports an unreachable page or a non-2xx answer. status is 0
// when no response was received.
func FetchFailed(status int, err error) *Error { return newError(KindFetchFailure, status, err) }

func EmptyGeneration() *Error { return newError(KindEmptyGeneration, 0, nil) }

func MalformedGeneration(err error) *Error { return newError(KindMalformedGeneration, 0, err) }

func UnexpectedShape(err error) *Error { return newError(KindUnexpectedShape, 0, err) }

func RateLimited(err error) *Error { return newError(KindRateLimited, http.StatusTooManyRequests, err) }

func UpstreamFailure(status int, err error) *Error {
	return newError(KindUpstreamServiceError, status, err)
}

func Internal(err error) *Error { return newError(KindInternalError, 0, err) }

// KindOf returns the kind of err, treating anything untyped as internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternalError
}

// StatusOf returns the upstream status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// HTTPStatus maps err to the status code returned to the caller.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidInput, KindFetchFailure:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUpstreamServiceError:
		if s := StatusOf(err); s >= 400 && s <= 599 {
			return s
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message a caller may see for err.
func PublicMessage(err error) string {
	switch KindOf(err) {
	case KindInvalidInput:
		return MsgInvalidInput
	case KindFetchFailure:
		if s := StatusOf(err); s != 0 {
			return fmt.Sprintf("Failed to fetch URL (status %d).", s)
		}
		return MsgFetchFailure
	case KindEmptyGeneration:
		return MsgEmptyGeneration
	case KindMalformedGeneration:
		return MsgMalformed
	case KindUnexpectedShape:
		return MsgUnexpectedShape
	case KindRateLimited:
		return MsgRateLimited
	case KindUpstreamServiceError:
		if s := StatusOf(err); s != 0 {
			return fmt.Sprintf("AI service error (status %d).", s)
		}
		return MsgUpstream
	default:
		return MsgInternal
	}
}
