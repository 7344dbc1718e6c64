// Package generator talks to the text-generation service that writes the
// analysis report.
package generator

import "context"

// Request is one instruction/payload pair sent to the generation service.
type Request struct {
	System      string
	User        string
	Temperature float32
	// JSON asks the service to emit a single JSON object.
	JSON bool
}

// Generator returns the raw text produced for req. Failures reported by the
// service are returned as *report.Error values (RateLimited or
// UpstreamServiceError). An empty string is a valid return.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Func adapts a plain function to Generator.
type Func func(ctx context.Context, req Request) (string, error)

func (f Func) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
