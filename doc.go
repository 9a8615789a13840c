/*
Package relay provides a framework-agnostic state wrapper for
asynchronous operations.

The core type is Subscription, which invokes a one-shot or continuous
asynchronous source and normalizes it into a loading/success/error state
machine, with automatic bounded-backoff retry and change-driven observer
dispatch.

# Subscription

A Subscription owns one live operation invocation, one pending retry
timer, the current state, and the attached observers:

	Factory → invoke → loading → success | error → [backoff → reinvoke] → …

Every distinct state is delivered to observers; structurally equal states
are suppressed so the rendering layer never re-renders for nothing.

# Retry

Failed invocations are retried automatically under a RetryPolicy:
delays grow exponentially from BaseDelay, capped at MaxDelay, until
MaxAttempts invocations have been made. The terminal error state still
accepts a manual Retry(), which resets the cycle.

# Sources

One-shot operations implement Operation (or use OperationFunc);
continuous sources implement Stream. The core package provides
ChannelSource for testing and custom sources, and FileSource for
fsnotify-backed file watching with codec decoding.

# Basic Usage

	sub := relay.New[Profile](
	    func() relay.Operation[Profile] {
	        return relay.OperationFunc[Profile](fetchProfile)
	    },
	    relay.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2, MaxDelay: 10 * time.Second},
	    relay.WithTimeout[Profile](5*time.Second),
	)

	handle := sub.Subscribe(func(st relay.State[Profile]) {
	    render(st)
	})
	defer sub.Unsubscribe(handle)

	if err := sub.Start(ctx); err != nil {
	    log.Fatal(err)
	}

# Observability

Lifecycle events are emitted as capitan signals (SubscriptionStarted,
StateChanged, AttemptFailed, RetryScheduled, ...) and mirrored to an
optional MetricsProvider. Hook the signals for logging or tracing without
touching the subscription itself.
*/
package relay
