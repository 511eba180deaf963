package prescription

import (
	"context"
	"fmt"
	"time"

	"github.com/giygas/prescriptions-api/interfaces"
	"github.com/giygas/prescriptions-api/logging"
	"github.com/giygas/prescriptions-api/metrics"
)

const defaultTimeout = 30 * time.Second

// Options tune the generation call
type Options struct {
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Result is the outcome of one Prescribe call. Document is always usable;
// Err explains why it is the default document when it is.
type Result struct {
	Document Document
	Outcome  Outcome
	Err      error
}

// Service turns a clinical note into a normalized prescription document.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	generator interfaces.Generator
	opts      Options
}

// NewService creates a service around a text generator
func NewService(generator interfaces.Generator, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Service{
		generator: generator,
		opts:      opts,
	}
}

// Prescribe asks the generator for a prescription and normalizes the reply.
// Upstream failures and timeouts degrade to the default document.
func (s *Service) Prescribe(ctx context.Context, note string) Result {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	provider := s.generator.Name()
	start := time.Now()
	raw, err := s.generator.Generate(ctx, buildRequest(note, s.opts))
	elapsed := time.Since(start)

	if err != nil {
		metrics.UpstreamGenerationDuration.WithLabelValues(provider, "error").Observe(elapsed.Seconds())
		metrics.NormalizationOutcomes.WithLabelValues(string(OutcomeUpstreamError)).Inc()
		logging.Error("Text generation failed, returning default document",
			"provider", provider,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return Result{
			Document: DefaultDocument(),
			Outcome:  OutcomeUpstreamError,
			Err:      fmt.Errorf("%w: %w", ErrUpstream, err),
		}
	}
	metrics.UpstreamGenerationDuration.WithLabelValues(provider, "ok").Observe(elapsed.Seconds())

	doc, err := Normalize(raw)
	outcome := OutcomeOf(err)
	metrics.NormalizationOutcomes.WithLabelValues(string(outcome)).Inc()

	if err != nil {
		logging.Warn("Model reply could not be normalized, returning default document",
			"provider", provider,
			"outcome", string(outcome),
			"error", err,
			"raw", raw,
		)
	} else {
		logging.Debug("Model reply normalized",
			"provider", provider,
			"prescriptions", len(doc.Prescriptions),
			"raw", raw,
		)
	}

	return Result{Document: doc, Outcome: outcome, Err: err}
}
