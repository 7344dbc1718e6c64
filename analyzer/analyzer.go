package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ariclear/backend/generator"
	"github.com/ariclear/backend/logging"
	"github.com/ariclear/backend/report"
	"github.com/ariclear/backend/stats"
)

// Options wires the collaborators of an Analyzer.
type Options struct {
	Fetcher   Fetcher
	Generator generator.Generator
	// Cache is optional; nil disables result caching.
	Cache Cache
	// Stats is optional.
	Stats  *stats.Storage
	Logger logging.Logger

	MaxSnippetLen int
	// Temperature is optional; nil selects DefaultTemperature. Zero is a
	// valid setting.
	Temperature *float32
	// Timeout bounds fetch, extraction and generation together. Zero means no bound
	// beyond the caller's context.
	Timeout time.Duration
}

// Analyzer turns a URL into a validated comprehension report
type Analyzer struct {
	fetcher       Fetcher
	generator     generator.Generator
	cache         Cache
	stats         *stats.Storage
	logger        logging.Logger
	maxSnippetLen int
	temperature   float32
	timeout       time.Duration
}

// New creates a new Analyzer instance
func New(opts Options) (*Analyzer, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("analyzer: fetcher is required")
	}
	if opts.Generator == nil {
		return nil, errors.New("analyzer: generator is required")
	}
	a := &Analyzer{
		fetcher:       opts.Fetcher,
		generator:     opts.Generator,
		cache:         opts.Cache,
		stats:         opts.Stats,
		logger:        opts.Logger,
		maxSnippetLen: opts.MaxSnippetLen,
		temperature:   DefaultTemperature,
		timeout:       opts.Timeout,
	}
	if a.logger == nil {
		a.logger = logging.Nop()
	}
	if a.maxSnippetLen <= 0 {
		a.maxSnippetLen = MaxSnippetLen
	}
	if opts.Temperature != nil {
		a.temperature = *opts.Temperature
	}
	return a, nil
}

// Analyze runs validate -> fetch -> extract -> generate -> validate for one
// URL. Every failure is a *report.Error; nothing is retried and no partial
// report is ever returned.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (*report.AnalysisReport, error) {
	r, err := a.analyze(ctx, rawURL)
	if a.stats != nil {
		if err != nil {
			a.stats.RecordFailure(string(report.KindOf(err)))
		} else {
			a.stats.RecordSuccess()
		}
	}
	return r, err
}

func (a *Analyzer) analyze(ctx context.Context, rawURL string) (*report.AnalysisReport, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}
	target := u.String()
	cacheKey := generateCacheKey(target)

	if cached, ok := a.lookup(ctx, cacheKey); ok {
		return cached, nil
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	started := time.Now()
	html, err := a.fetcher.Fetch(ctx, target)
	if err != nil {
		return nil, typed(err, func(err error) error { return report.FetchFailed(0, err) })
	}
	a.logger.Debug("analyzer: fetched %s (%d bytes) in %s", target, len(html), time.Since(started))

	content, err := ExtractContext(ctx, html, a.maxSnippetLen)
	if err != nil {
		return nil, report.FetchFailed(0, fmt.Errorf("extract %s: %w", target, err))
	}

	req, err := BuildRequest(target, content, a.temperature)
	if err != nil {
		return nil, report.Internal(fmt.Errorf("build prompt: %w", err))
	}

	text, err := a.generator.Generate(ctx, req)
	if err != nil {
		return nil, typed(err, func(err error) error { return report.UpstreamFailure(0, err) })
	}

	r, err := report.Parse(text)
	if err != nil {
		switch report.KindOf(err) {
		case report.KindMalformedGeneration, report.KindUnexpectedShape:
			a.logger.Error("analyzer: rejected generation for %s: %v; raw output: %q", target, err, text)
		default:
			a.logger.Warn("analyzer: rejected generation for %s: %v", target, err)
		}
		return nil, err
	}
	if !r.InRange() {
		a.logger.Warn("analyzer: scores out of range for %s: clarity=%d aiSeo=%d",
			target, r.Human.ClarityScore, r.AI.AISEOScore)
	}

	a.store(ctx, cacheKey, r)
	a.logger.Info("analyzer: analyzed %s in %s (overall %d)", target, time.Since(started), r.Overall())
	return r, nil
}

func (a *Analyzer) lookup(ctx context.Context, key string) (*report.AnalysisReport, bool) {
	if a.cache == nil {
		return nil, false
	}
	r, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		a.logger.Warn("analyzer: %s cache read failed: %v", a.cache.Name(), err)
	}
	if a.stats != nil {
		if ok {
			a.stats.RecordCacheHit()
		} else {
			a.stats.RecordCacheMiss()
		}
	}
	return r, ok
}

func (a *Analyzer) store(ctx context.Context, key string, r *report.AnalysisReport) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Set(ctx, key, r); err != nil {
		a.logger.Warn("analyzer: %s cache write failed: %v", a.cache.Name(), err)
	}
}

// typed leaves *report.Error values alone and classifies anything else with
// wrap.
func typed(err error, wrap func(error) error) error {
	var e *report.Error
	if errors.As(err, &e) {
		return err
	}
	return wrap(err)
}

// GetCacheStats returns statistics about the cache
func (a *Analyzer) GetCacheStats() CacheStats {
	out := CacheStats{Backend: "none", Failures: map[string]int{}}
	if a.cache != nil {
		out.Backend = a.cache.Name()
	}
	if a.stats == nil {
		return out
	}
	current := a.stats.GetCurrentStats()
	out.AnalysisCacheHits = current.AnalysisCacheHits
	out.AnalysisCacheMisses = current.AnalysisCacheMisses
	out.Succeeded = current.Succeeded
	if current.Failures != nil {
		out.Failures = current.Failures
	}
	return out
}

// Shutdown flushes statistics and releases the cache.
func (a *Analyzer) Shutdown() error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.stats != nil {
		if err := a.stats.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown stats storage: %w", err))
		}
	}
	if closer, ok := a.cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cache: %w", err))
		}
	}
	return errors.Join(errs...)
}
