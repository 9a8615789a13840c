package relay

// Failure records a single operation failure: the underlying cause, a
// human-readable message, and the attempt number at which it occurred.
// It carries enough context for a rendering layer to offer a retry
// affordance without a separate error channel.
type Failure struct {
	// Cause is the error returned by the operation.
	Cause error

	// Message is the human-readable form of the cause.
	Message string

	// Attempt is the invocation number (1-based) that produced the failure.
	Attempt int
}

// newFailure wraps an operation error with the attempt it occurred on.
func newFailure(err error, attempt int) *Failure {
	msg := "operation failed"
	if err != nil {
		msg = err.Error()
	}
	return &Failure{Cause: err, Message: msg, Attempt: attempt}
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return f.Message
}

// Unwrap returns the underlying cause for errors.Is/errors.As chains.
func (f *Failure) Unwrap() error {
	return f.Cause
}
