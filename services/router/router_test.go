package router

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollyhq/blogsmith/services/providers"
)

// stubProvider is a scriptable Provider for router tests. It counts calls so
// tests can assert that skipped providers were never invoked.
type stubProvider struct {
	name     string
	caps     providers.CapabilitySet
	calls    atomic.Int32
	generate func(ctx context.Context, req *providers.GenerationRequest) (*providers.GenerationResult, error)
}

func newStub(name string, cap providers.Capability) *stubProvider {
	return &stubProvider{
		name: name,
		caps: providers.NewCapabilitySet(cap),
		generate: func(_ context.Context, req *providers.GenerationRequest) (*providers.GenerationResult, error) {
			return &providers.GenerationResult{Provider: name, Text: "ok"}, nil
		},
	}
}

func (s *stubProvider) failWith(err error) *stubProvider {
	s.generate = func(context.Context, *providers.GenerationRequest) (*providers.GenerationResult, error) {
		return nil, err
	}
	return s
}

func (s *stubProvider) Name() string                          { return s.name }
func (s *stubProvider) Capabilities() providers.CapabilitySet { return s.caps }

func (s *stubProvider) Generate(ctx context.Context, req *providers.GenerationRequest) (*providers.GenerationResult, error) {
	s.calls.Add(1)
	return s.generate(ctx, req)
}

func buildRegistry(t *testing.T, stubs ...*stubProvider) *providers.Registry {
	t.Helper()
	registry := providers.NewRegistry()
	for i, s := range stubs {
		require.NoError(t, registry.Register(s, i+1))
	}
	return registry
}

func textRequest() *providers.GenerationRequest {
	return &providers.GenerationRequest{Capability: providers.CapabilityText, Prompt: "x"}
}

func TestRouteNoProviderConfigured(t *testing.T) {
	textOnly := newStub("a", providers.CapabilityText)
	r := New(buildRegistry(t, textOnly), Options{})

	_, err := r.Route(context.Background(), &providers.GenerationRequest{
		Capability: providers.CapabilityImage,
		Prompt:     "x",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoProviderConfigured)
	assert.Equal(t, int32(0), textOnly.calls.Load(), "no provider call may happen")
}

func TestRouteFirstProviderWins(t *testing.T) {
	first := newStub("first", providers.CapabilityText)
	second := newStub("second", providers.CapabilityText)
	r := New(buildRegistry(t, first, second), Options{})

	result, err := r.Route(context.Background(), textRequest())

	require.NoError(t, err)
	assert.Equal(t, "first", result.Provider)
	assert.Empty(t, result.Attempts)
	assert.Equal(t, int32(1), first.calls.Load())
	assert.Equal(t, int32(0), second.calls.Load(), "lower-priority provider must not be invoked")
}

func TestRouteFallsBackInPriorityOrder(t *testing.T) {
	a := newStub("a", providers.CapabilityText).
		failWith(providers.NewProviderError("a", providers.CodeAuth, "bad key", 401, false, nil))
	b := newStub("b", providers.CapabilityText).
		failWith(providers.NewProviderError("b", providers.CodeRateLimit, "slow down", 429, true, nil))
	c := newStub("c", providers.CapabilityText)
	r := New(buildRegistry(t, a, b, c), Options{})

	result, err := r.Route(context.Background(), textRequest())

	require.NoError(t, err)
	assert.Equal(t, "c", result.Provider)
	require.Len(t, result.Attempts, 2)
	assert.Equal(t, "a", result.Attempts[0].Provider)
	assert.Equal(t, "b", result.Attempts[1].Provider)
}

func TestRouteTimeoutThenFallback(t *testing.T) {
	// Spec scenario: A times out, B answers "ok".
	a := newStub("A", providers.CapabilityText)
	a.generate = func(ctx context.Context, _ *providers.GenerationRequest) (*providers.GenerationResult, error) {
		<-ctx.Done()
		return nil, providers.NewProviderError("A", providers.CodeTimeout, "request timed out", 0, true, ctx.Err())
	}
	b := newStub("B", providers.CapabilityText)
	b.generate = func(context.Context, *providers.GenerationRequest) (*providers.GenerationResult, error) {
		return &providers.GenerationResult{Provider: "B", Text: "ok"}, nil
	}
	r := New(buildRegistry(t, a, b), Options{AttemptTimeout: 20 * time.Millisecond})

	result, err := r.Route(context.Background(), textRequest())

	require.NoError(t, err)
	assert.Equal(t, "B", result.Provider)
	assert.Equal(t, "ok", result.Text)
	require.Len(t, result.Attempts, 1)
	assert.Equal(t, "A", result.Attempts[0].Provider)

	var provErr *providers.ProviderError
	require.ErrorAs(t, result.Attempts[0].Err, &provErr)
	assert.Equal(t, providers.CodeTimeout, provErr.Code)
}

func TestRouteAllProvidersExhausted(t *testing.T) {
	a := newStub("a", providers.CapabilityText).failWith(errors.New("down"))
	b := newStub("b", providers.CapabilityText).failWith(errors.New("also down"))
	r := New(buildRegistry(t, a, b), Options{})

	_, err := r.Route(context.Background(), textRequest())

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, providers.CapabilityText, exhausted.Capability)
	require.Len(t, exhausted.Attempts, 2, "log length must equal the candidate count")
	assert.Equal(t, "a", exhausted.Attempts[0].Provider)
	assert.Equal(t, "b", exhausted.Attempts[1].Provider)
	assert.Contains(t, exhausted.Error(), "all 2 providers exhausted")
	// Each provider gets exactly one attempt per request.
	assert.Equal(t, int32(1), a.calls.Load())
	assert.Equal(t, int32(1), b.calls.Load())
}

func TestRouteIdempotentAttribution(t *testing.T) {
	a := newStub("a", providers.CapabilityText).failWith(errors.New("down"))
	b := newStub("b", providers.CapabilityText)
	r := New(buildRegistry(t, a, b), Options{})

	first, err := r.Route(context.Background(), textRequest())
	require.NoError(t, err)
	second, err := r.Route(context.Background(), textRequest())
	require.NoError(t, err)

	assert.Equal(t, first.Provider, second.Provider)
	assert.Equal(t, "b", second.Provider)
}

func TestRouteEqualPriorityKeepsRegistrationOrder(t *testing.T) {
	registry := providers.NewRegistry()
	first := newStub("first", providers.CapabilityText)
	second := newStub("second", providers.CapabilityText)
	require.NoError(t, registry.Register(first, 1))
	require.NoError(t, registry.Register(second, 1))
	r := New(registry, Options{})

	result, err := r.Route(context.Background(), textRequest())

	require.NoError(t, err)
	assert.Equal(t, "first", result.Provider)
	assert.Equal(t, int32(0), second.calls.Load())
}

func TestRouteCancellationStopsFallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	a := newStub("a", providers.CapabilityText)
	a.generate = func(attemptCtx context.Context, _ *providers.GenerationRequest) (*providers.GenerationResult, error) {
		cancel() // caller abandons the request while a is in flight
		<-attemptCtx.Done()
		return nil, attemptCtx.Err()
	}
	b := newStub("b", providers.CapabilityText)
	r := New(buildRegistry(t, a, b), Options{})

	_, err := r.Route(ctx, textRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), b.calls.Load(), "no further providers after cancellation")
}

func TestRouteCancelledBeforeFirstAttempt(t *testing.T) {
	a := newStub("a", providers.CapabilityText)
	r := New(buildRegistry(t, a), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Route(ctx, textRequest())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), a.calls.Load())
}

func TestRouteValidatesRequest(t *testing.T) {
	a := newStub("a", providers.CapabilityText)
	r := New(buildRegistry(t, a), Options{})

	_, err := r.Route(context.Background(), &providers.GenerationRequest{
		Capability: providers.CapabilityText,
	})

	require.Error(t, err)
	assert.Equal(t, int32(0), a.calls.Load())
}

func TestRouteConcurrentRequestsAreIndependent(t *testing.T) {
	a := newStub("a", providers.CapabilityText)
	r := New(buildRegistry(t, a), Options{})

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := r.Route(context.Background(), textRequest())
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}
	assert.Equal(t, int32(8), a.calls.Load())
}

func TestAttemptLogString(t *testing.T) {
	log := AttemptLog{
		{Provider: "a", Err: errors.New("timeout")},
		{Provider: "b"},
	}
	assert.Equal(t, "a(timeout); b(ok)", log.String())
}
