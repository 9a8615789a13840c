package relay

import (
	"context"
	"time"

	"github.com/zoobzio/pipz"
)

// Option configures the attempt pipeline of a Subscription. Pipeline
// options wrap each invocation (and each stream item) with middleware for
// timeout, circuit breaking, and other reliability patterns.
//
// Instance configuration (clock, metrics, error history, stream failure
// policy) is handled via chainable methods before calling Start().
//
// Retry is deliberately absent here: re-invocation belongs to the
// Subscription's supervisor, which owns the attempt counter and the backoff
// timer. A retry stage inside the pipeline would re-run within a single
// attempt and skew the count.
type Option[T any] func(pipz.Chainable[*Attempt[T]]) pipz.Chainable[*Attempt[T]]

// buildPipeline wraps a terminal with pipeline options.
func buildPipeline[T any](terminal pipz.Chainable[*Attempt[T]], opts []Option[T]) pipz.Chainable[*Attempt[T]] {
	pipeline := terminal
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}
	return pipeline
}

// -----------------------------------------------------------------------------
// Pipeline Options - Wrapping (With*)
// -----------------------------------------------------------------------------

// WithTimeout wraps the pipeline with a per-attempt deadline.
// If an invocation takes longer than the specified duration, the attempt
// fails with a timeout error and the supervisor decides whether to retry.
func WithTimeout[T any](d time.Duration) Option[T] {
	return func(p pipz.Chainable[*Attempt[T]]) pipz.Chainable[*Attempt[T]] {
		return pipz.NewTimeout("timeout", p, d)
	}
}

// WithCircuitBreaker wraps the pipeline with circuit breaker protection.
// After 'failures' consecutive failed attempts, the circuit opens and
// rejects further invocations until 'recovery' time has passed. Rejected
// invocations fail like any other attempt and flow through the supervisor.
func WithCircuitBreaker[T any](failures int, recovery time.Duration) Option[T] {
	return func(p pipz.Chainable[*Attempt[T]]) pipz.Chainable[*Attempt[T]] {
		return pipz.NewCircuitBreaker("circuit-breaker", p, failures, recovery)
	}
}

// WithFallback wraps the pipeline with fallback processors.
// If the primary attempt fails, each fallback is tried in order until one
// succeeds. Only if all fail does the attempt count as a failure.
func WithFallback[T any](fallbacks ...pipz.Chainable[*Attempt[T]]) Option[T] {
	return func(p pipz.Chainable[*Attempt[T]]) pipz.Chainable[*Attempt[T]] {
		all := append([]pipz.Chainable[*Attempt[T]]{p}, fallbacks...)
		return pipz.NewFallback("fallback", all...)
	}
}

// WithErrorHandler adds error observation to the pipeline.
// Errors are passed to the handler for logging, metrics, or alerting,
// but the error still propagates to the supervisor. Use this for
// observability, not recovery.
func WithErrorHandler[T any](handler pipz.Chainable[*pipz.Error[*Attempt[T]]]) Option[T] {
	return func(p pipz.Chainable[*Attempt[T]]) pipz.Chainable[*Attempt[T]] {
		return pipz.NewHandle("error-handler", p, handler)
	}
}

// WithMiddleware wraps the pipeline with a sequence of processors.
// Processors execute in order, with the operation invocation last.
//
// Use the Use* functions to create processors for common patterns,
// or provide custom pipz.Chainable implementations directly.
func WithMiddleware[T any](processors ...pipz.Chainable[*Attempt[T]]) Option[T] {
	return func(p pipz.Chainable[*Attempt[T]]) pipz.Chainable[*Attempt[T]] {
		all := make([]pipz.Chainable[*Attempt[T]], 0, len(processors)+1)
		all = append(all, processors...)
		all = append(all, p)
		return pipz.NewSequence("middleware", all...)
	}
}

// -----------------------------------------------------------------------------
// Middleware Processors - Adapters (Use*)
// -----------------------------------------------------------------------------

// UseTransform creates a processor that transforms the attempt.
// Cannot fail. Use for pure transformations that always succeed.
func UseTransform[T any](name string, fn func(context.Context, *Attempt[T]) *Attempt[T]) pipz.Chainable[*Attempt[T]] {
	return pipz.Transform(pipz.Name(name), fn)
}

// UseApply creates a processor that can transform the attempt and fail.
// Use for enrichment or post-processing of results that may error.
func UseApply[T any](name string, fn func(context.Context, *Attempt[T]) (*Attempt[T], error)) pipz.Chainable[*Attempt[T]] {
	return pipz.Apply(pipz.Name(name), fn)
}

// UseEffect creates a processor that performs a side effect.
// The attempt passes through unchanged. Use for logging, metrics, or
// notifications that should not affect the result.
func UseEffect[T any](name string, fn func(context.Context, *Attempt[T]) error) pipz.Chainable[*Attempt[T]] {
	return pipz.Effect(pipz.Name(name), fn)
}

// UseFilter wraps a processor with a condition.
// If the condition returns false, the attempt passes through unchanged.
func UseFilter[T any](name string, condition func(context.Context, *Attempt[T]) bool, processor pipz.Chainable[*Attempt[T]]) pipz.Chainable[*Attempt[T]] {
	return pipz.NewFilter(pipz.Name(name), condition, processor)
}

// UseRateLimit creates a rate limiting processor.
// Uses a token bucket algorithm with the specified rate (attempts per
// second) and burst size. When tokens are exhausted, attempts wait for
// availability.
func UseRateLimit[T any](rate float64, burst int) pipz.Chainable[*Attempt[T]] {
	return pipz.NewRateLimiter[*Attempt[T]]("rate-limiter", rate, burst)
}
