package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/pollyhq/blogsmith/internal/observability"
	"github.com/pollyhq/blogsmith/services/providers"
)

// ErrNoProviderConfigured is returned when no configured provider declares
// the requested capability. No network call is made in that case.
var ErrNoProviderConfigured = errors.New("no provider configured for capability")

// DefaultAttemptTimeout bounds a single provider attempt when the router is
// not configured with an explicit timeout.
const DefaultAttemptTimeout = 60 * time.Second

// Attempt records one provider attempt within a single Route call.
type Attempt struct {
	// Provider that was tried
	Provider string `json:"provider"`

	// Err is the failure; nil only for the final successful attempt
	Err error `json:"-"`

	// Latency of the attempt
	Latency time.Duration `json:"latency"`
}

// AttemptLog is the ordered record of every provider tried for one request.
type AttemptLog []Attempt

// String renders the log as "provider(error); provider(error)" for diagnostics.
func (l AttemptLog) String() string {
	parts := make([]string, 0, len(l))
	for _, a := range l {
		if a.Err != nil {
			parts = append(parts, fmt.Sprintf("%s(%v)", a.Provider, a.Err))
		} else {
			parts = append(parts, a.Provider+"(ok)")
		}
	}
	return strings.Join(parts, "; ")
}

// ExhaustedError is returned when every capability-matching provider failed.
// It carries the full attempt log so callers can tell a single dead provider
// from a total outage.
type ExhaustedError struct {
	Capability providers.Capability
	Attempts   AttemptLog
	errs       *multierror.Error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d providers exhausted for capability %q: %s",
		len(e.Attempts), e.Capability, e.Attempts)
}

// Unwrap exposes the aggregated per-provider failures.
func (e *ExhaustedError) Unwrap() error {
	return e.errs
}

// Result is a successful routing outcome: the winning provider's result plus
// the failures that preceded it, kept for diagnostics only.
type Result struct {
	*providers.GenerationResult

	// Attempts lists the providers that failed before the success, in the
	// order they were tried. Empty when the first provider succeeded.
	Attempts AttemptLog
}

// Options configures the router.
type Options struct {
	// AttemptTimeout bounds each provider attempt. Zero means
	// DefaultAttemptTimeout.
	AttemptTimeout time.Duration

	// Logger for per-attempt diagnostics. Nil disables logging.
	Logger *zap.Logger

	// Metrics receives attempt and request counters. Nil disables metrics.
	Metrics *observability.Metrics
}

// Router selects a working provider for a generation request. It tries the
// capability-matching providers in ascending priority order and returns the
// first success, or an ExhaustedError once every candidate failed.
//
// The provider set is fixed at construction; concurrent Route calls share
// nothing mutable, so the router needs no locking. Each provider gets exactly
// one attempt per Route call: retry-with-backoff against a flaky provider is
// the caller's decision, not hidden in here.
type Router struct {
	registry       *providers.Registry
	attemptTimeout time.Duration
	logger         *zap.Logger
	metrics        *observability.Metrics
}

// New creates a router over a sealed registry.
func New(registry *providers.Registry, opts Options) *Router {
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = DefaultAttemptTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Router{
		registry:       registry,
		attemptTimeout: opts.AttemptTimeout,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
	}
}

// Route dispatches the request to the first provider that succeeds.
//
// Failure taxonomy:
//   - ErrNoProviderConfigured: no provider declares the capability; the
//     request fails fast with zero network I/O.
//   - per-provider failures (auth, timeout, rate limit, malformed response)
//     are recorded in the attempt log and drive fallback to the next provider.
//   - *ExhaustedError: every candidate failed; carries the full attempt log.
//
// Cancelling ctx stops the in-flight attempt and prevents any further ones;
// partial results are discarded.
func (r *Router) Route(ctx context.Context, req *providers.GenerationRequest) (*Result, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	candidates := r.registry.ForCapability(req.Capability)
	if len(candidates) == 0 {
		r.metrics.RecordRoute(string(req.Capability), "no_provider", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %s", ErrNoProviderConfigured, req.Capability)
	}

	var attempts AttemptLog
	var errs *multierror.Error

	for _, provider := range candidates {
		if err := ctx.Err(); err != nil {
			r.metrics.RecordRoute(string(req.Capability), "cancelled", time.Since(start).Seconds())
			return nil, err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, r.attemptTimeout)
		attemptStart := time.Now()
		result, err := provider.Generate(attemptCtx, req)
		cancel()
		latency := time.Since(attemptStart)

		if err == nil {
			r.metrics.RecordAttempt(provider.Name(), "success")
			r.metrics.RecordRoute(string(req.Capability), "success", time.Since(start).Seconds())
			r.logger.Info("provider succeeded",
				zap.String("provider", provider.Name()),
				zap.String("capability", string(req.Capability)),
				zap.Duration("latency", latency),
				zap.Int("failed_attempts", len(attempts)))
			return &Result{GenerationResult: result, Attempts: attempts}, nil
		}

		// Caller gave up while the attempt was in flight: discard the partial
		// outcome and stop without touching the log.
		if ctxErr := ctx.Err(); ctxErr != nil {
			r.metrics.RecordRoute(string(req.Capability), "cancelled", time.Since(start).Seconds())
			return nil, ctxErr
		}

		attempts = append(attempts, Attempt{Provider: provider.Name(), Err: err, Latency: latency})
		errs = multierror.Append(errs, err)
		r.metrics.RecordAttempt(provider.Name(), outcome(err))
		r.logger.Warn("provider failed, falling back",
			zap.String("provider", provider.Name()),
			zap.String("capability", string(req.Capability)),
			zap.Duration("latency", latency),
			zap.Error(err))
	}

	r.metrics.RecordRoute(string(req.Capability), "exhausted", time.Since(start).Seconds())
	return nil, &ExhaustedError{
		Capability: req.Capability,
		Attempts:   attempts,
		errs:       errs,
	}
}

// outcome maps a provider failure to a metric label.
func outcome(err error) string {
	var provErr *providers.ProviderError
	if errors.As(err, &provErr) && provErr.Code != "" {
		return provErr.Code
	}
	return "error"
}
