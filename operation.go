package relay

import "context"

// Operation is a one-shot asynchronous computation yielding exactly one
// value or one error. A fresh Operation is produced by the Factory for
// every attempt.
type Operation[T any] interface {
	// Run executes the operation. It should honor context cancellation;
	// results arriving after the Subscription is canceled are discarded.
	Run(ctx context.Context) (T, error)
}

// OperationFunc adapts a plain function to the Operation interface.
type OperationFunc[T any] func(ctx context.Context) (T, error)

// Run implements Operation.
func (f OperationFunc[T]) Run(ctx context.Context) (T, error) {
	return f(ctx)
}

// Factory produces a fresh Operation instance. It is invoked once per
// attempt, so operations never need to be re-entrant across retries.
type Factory[T any] func() Operation[T]

// Result is a single emission from a continuous Stream: either a value or
// a terminal error for that sequence instance.
type Result[T any] struct {
	Value T
	Err   error
}

// Stream is a continuous asynchronous source yielding zero or more values
// and at most one terminal error. Closing the channel without an error
// result ends the sequence cleanly.
type Stream[T any] interface {
	// Listen begins observing the source and returns a channel of results.
	// The channel is closed when the sequence ends or the context is
	// canceled. An error result is terminal for this sequence instance;
	// no further results follow it.
	Listen(ctx context.Context) (<-chan Result[T], error)
}

// StreamFactory produces a fresh Stream instance, invoked once per attempt.
type StreamFactory[T any] func() Stream[T]
