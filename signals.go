package relay

import "github.com/zoobzio/capitan"

// Subscription lifecycle signals.
var (
	// SubscriptionStarted is emitted when a Subscription begins its first cycle.
	SubscriptionStarted = capitan.NewSignal(
		"relay.subscription.started",
		"Subscription started",
	)

	// SubscriptionCanceled is emitted when a Subscription is canceled.
	SubscriptionCanceled = capitan.NewSignal(
		"relay.subscription.canceled",
		"Subscription canceled",
	)

	// StateChanged is emitted when the published state transitions.
	StateChanged = capitan.NewSignal(
		"relay.state.changed",
		"State transition",
	)
)

// Attempt and retry signals.
var (
	// AttemptStarted is emitted when an operation invocation begins.
	AttemptStarted = capitan.NewSignal(
		"relay.attempt.started",
		"Operation invocation started",
	)

	// AttemptSucceeded is emitted when an invocation produces a value.
	AttemptSucceeded = capitan.NewSignal(
		"relay.attempt.succeeded",
		"Operation invocation succeeded",
	)

	// AttemptFailed is emitted when an invocation fails.
	AttemptFailed = capitan.NewSignal(
		"relay.attempt.failed",
		"Operation invocation failed",
	)

	// RetryScheduled is emitted when the supervisor arms a backoff timer.
	RetryScheduled = capitan.NewSignal(
		"relay.retry.scheduled",
		"Automatic retry scheduled",
	)

	// RetryExhausted is emitted when automatic retries stop at MaxAttempts.
	RetryExhausted = capitan.NewSignal(
		"relay.retry.exhausted",
		"Automatic retries exhausted",
	)

	// StreamItemReceived is emitted for each value a continuous source yields.
	StreamItemReceived = capitan.NewSignal(
		"relay.stream.item.received",
		"Stream item received",
	)
)
