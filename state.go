package relay

import "reflect"

// Status represents the current status of a Subscription's operation.
type Status int32

const (
	// StatusIdle indicates the Subscription has been constructed but not
	// yet started. No operation has been invoked.
	StatusIdle Status = iota

	// StatusLoading indicates an operation invocation is in flight.
	StatusLoading

	// StatusSuccess indicates the last invocation (or stream item)
	// produced a value.
	StatusSuccess

	// StatusError indicates the last invocation failed. The failure record
	// carries the attempt number at which it occurred.
	StatusError

	// StatusCanceled indicates the Subscription has been canceled.
	// Terminal. Observers are never notified of this status; it is only
	// visible through CurrentState().
	StatusCanceled
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// State is an immutable snapshot of a Subscription's status and payload.
// Exactly one of the value and failure payloads is populated, matching the
// status: a value iff StatusSuccess, a failure iff StatusError. The invariant
// is enforced by construction; States are only produced by the transition
// function and the Subscription lifecycle.
type State[T any] struct {
	status  Status
	data    *T
	failure *Failure
	attempt int
}

// Status returns the status tag of the state.
func (s State[T]) Status() Status {
	return s.status
}

// Attempt returns the number of operation invocations made so far in the
// current retry cycle. Zero before the first invocation.
func (s State[T]) Attempt() int {
	return s.attempt
}

// Value returns the success payload and true, or the zero value and false
// if the status is not StatusSuccess.
func (s State[T]) Value() (T, bool) {
	if s.data == nil {
		var zero T
		return zero, false
	}
	return *s.data, true
}

// Err returns the failure record, or nil if the status is not StatusError.
func (s State[T]) Err() *Failure {
	return s.failure
}

// Equal reports whether two states are structurally equal. Success payloads
// are compared with reflect.DeepEqual; failures by message and attempt.
// The Dispatcher uses this to suppress redundant notifications.
func (s State[T]) Equal(o State[T]) bool {
	if s.status != o.status || s.attempt != o.attempt {
		return false
	}
	if (s.data == nil) != (o.data == nil) {
		return false
	}
	if s.data != nil && !reflect.DeepEqual(*s.data, *o.data) {
		return false
	}
	if (s.failure == nil) != (o.failure == nil) {
		return false
	}
	if s.failure != nil && (s.failure.Message != o.failure.Message || s.failure.Attempt != o.failure.Attempt) {
		return false
	}
	return true
}

// event is a state machine input. Events are produced by the source
// adapters and the retry supervisor, never by observers.
type event[T any] interface {
	isEvent()
}

// started marks the beginning of an operation invocation.
type started[T any] struct{}

// succeeded carries a value produced by the operation.
type succeeded[T any] struct {
	value T
}

// failed carries the error from a failed invocation.
type failed[T any] struct {
	err error
}

func (started[T]) isEvent()   {}
func (succeeded[T]) isEvent() {}
func (failed[T]) isEvent()    {}

// idleState is the initial state of every Subscription.
func idleState[T any]() State[T] {
	return State[T]{status: StatusIdle}
}

// canceledState preserves the attempt counter for post-cancel inspection.
func canceledState[T any](attempt int) State[T] {
	return State[T]{status: StatusCanceled, attempt: attempt}
}

// next is the pure transition function of the state machine. It has no side
// effects and no dependency on the adapter or supervisor, so the state table
// is testable in isolation.
//
//	started      -> loading, attempt+1, payloads cleared
//	succeeded(v) -> success carrying v
//	failed(e)    -> error carrying a Failure stamped with the attempt
func next[T any](current State[T], ev event[T]) State[T] {
	switch e := ev.(type) {
	case started[T]:
		return State[T]{status: StatusLoading, attempt: current.attempt + 1}
	case succeeded[T]:
		v := e.value
		return State[T]{status: StatusSuccess, data: &v, attempt: current.attempt}
	case failed[T]:
		return State[T]{
			status:  StatusError,
			failure: newFailure(e.err, current.attempt),
			attempt: current.attempt,
		}
	default:
		return current
	}
}
