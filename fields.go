package relay

import "github.com/zoobzio/capitan"

// Field keys for Subscription events.
var (
	// KeyOldState is the previous status before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the new status after a transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeyError is the error message when an invocation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyAttempt is the invocation number within the current retry cycle.
	KeyAttempt = capitan.NewIntKey("attempt")

	// KeyMaxAttempts is the configured attempt limit.
	KeyMaxAttempts = capitan.NewIntKey("max_attempts")

	// KeyDelay is the backoff delay before the next automatic retry.
	KeyDelay = capitan.NewDurationKey("delay")
)
