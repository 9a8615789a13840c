package relay

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on key subscription events.
type MetricsProvider interface {
	// OnStateChange is called when the published status transitions.
	OnStateChange(from, to Status)

	// OnAttemptSuccess is called when an invocation produces a value.
	// Duration is the time from invocation start to completion.
	OnAttemptSuccess(duration time.Duration)

	// OnAttemptFailure is called when an invocation fails.
	OnAttemptFailure(attempt int, duration time.Duration)

	// OnRetryScheduled is called when the supervisor arms a backoff timer.
	OnRetryScheduled(attempt int, delay time.Duration)

	// OnRetryExhausted is called when automatic retries stop at the
	// configured attempt limit.
	OnRetryExhausted(attempts int)

	// OnItemReceived is called for each value a continuous source yields.
	OnItemReceived()
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnStateChange(_, _ Status)               {}
func (NoOpMetricsProvider) OnAttemptSuccess(_ time.Duration)        {}
func (NoOpMetricsProvider) OnAttemptFailure(_ int, _ time.Duration) {}
func (NoOpMetricsProvider) OnRetryScheduled(_ int, _ time.Duration) {}
func (NoOpMetricsProvider) OnRetryExhausted(_ int)                  {}
func (NoOpMetricsProvider) OnItemReceived()                         {}
