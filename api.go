package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

// operationID names the terminal pipeline stage that runs the operation.
const operationID = pipz.Name("operation")

// Subscription binds one asynchronous source, its retry supervisor, and its
// observers. Construct with New (one-shot) or NewStream (continuous),
// configure with chainable methods, then call Start. Cancel releases the
// backoff timer and silences all further notification.
type Subscription[T any] struct {
	factory       Factory[T]
	streamFactory StreamFactory[T]
	policy        RetryPolicy
	pipeline      pipz.Chainable[*Attempt[T]]
	clock         clockz.Clock
	metrics       MetricsProvider
	history       *failureRing
	onStop        func(State[T])
	retryStreams  bool
	dispatch      *dispatcher[T]

	mu          sync.Mutex
	started     bool
	canceled    bool
	state       State[T]
	lastFailure *Failure
	gen         int
	inFlight    bool
	timer       *retryTimer
	ctx         context.Context
	cancelCtx   context.CancelFunc
}

// retryTimer pairs a clock timer with a stop channel so the goroutine
// waiting on it can be released when the timer is canceled.
type retryTimer struct {
	t    clockz.Timer
	stop chan struct{}
}

// New creates a Subscription for a one-shot operation.
//
// The factory is invoked once per attempt to produce a fresh Operation.
// Pipeline options (With*) wrap each invocation; instance configuration
// uses chainable methods before calling Start().
//
// Example:
//
//	sub := relay.New[Report](
//	    func() relay.Operation[Report] { return client.FetchReport() },
//	    relay.DefaultPolicy,
//	    relay.WithTimeout[Report](5*time.Second),
//	).ErrorHistorySize(10)
func New[T any](factory Factory[T], policy RetryPolicy, opts ...Option[T]) *Subscription[T] {
	s := newSubscription(policy, opts)
	s.factory = factory
	return s
}

// NewStream creates a Subscription for a continuous source.
//
// The factory is invoked once per attempt to produce a fresh Stream. Each
// item the stream yields is published as a success state; a stream failure
// is terminal for that sequence instance and, by default, retried under the
// same policy (see RetryStreamFailures).
func NewStream[T any](factory StreamFactory[T], policy RetryPolicy, opts ...Option[T]) *Subscription[T] {
	s := newSubscription(policy, opts)
	s.streamFactory = factory
	return s
}

func newSubscription[T any](policy RetryPolicy, opts []Option[T]) *Subscription[T] {
	terminal := pipz.Apply(operationID, func(ctx context.Context, a *Attempt[T]) (*Attempt[T], error) {
		if a.run == nil {
			// Stream item: value already populated.
			return a, nil
		}
		v, err := a.run(ctx)
		if err != nil {
			return nil, err
		}
		a.Value = v
		return a, nil
	})

	return &Subscription[T]{
		policy:       policy,
		pipeline:     buildPipeline(terminal, opts),
		clock:        clockz.RealClock,
		retryStreams: true,
		dispatch:     newDispatcher[T](),
		state:        idleState[T](),
	}
}

// -----------------------------------------------------------------------------
// Chainable Instance Configuration
// -----------------------------------------------------------------------------

// Clock sets a custom clock for backoff timers and attempt timing.
// Use this with clockz.FakeClock for deterministic retry testing.
// Must be called before Start().
func (s *Subscription[T]) Clock(clock clockz.Clock) *Subscription[T] {
	s.clock = clock
	return s
}

// Metrics sets a metrics provider for observability integration.
// The provider receives callbacks on state changes, attempt outcomes,
// retry scheduling, and exhaustion. Must be called before Start().
func (s *Subscription[T]) Metrics(provider MetricsProvider) *Subscription[T] {
	s.metrics = provider
	return s
}

// ErrorHistorySize sets the number of recent failures to retain.
// When set, ErrorHistory() returns up to this many recent failures.
// Use 0 (default) to only retain the most recent via LastError().
// Must be called before Start().
func (s *Subscription[T]) ErrorHistorySize(n int) *Subscription[T] {
	s.history = newFailureRing(n)
	return s
}

// OnStop sets a callback invoked when the subscription is canceled,
// receiving the final state. Useful for graceful shutdown cleanup.
// Must be called before Start().
func (s *Subscription[T]) OnStop(fn func(State[T])) *Subscription[T] {
	s.onStop = fn
	return s
}

// RetryStreamFailures controls whether a continuous source's failure is
// retried under the policy (default) or terminal until a manual Retry().
// Must be called before Start().
func (s *Subscription[T]) RetryStreamFailures(enabled bool) *Subscription[T] {
	s.retryStreams = enabled
	return s
}

// -----------------------------------------------------------------------------
// Accessors
// -----------------------------------------------------------------------------

// CurrentState returns a snapshot of the current state.
func (s *Subscription[T]) CurrentState() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the most recent failure, or nil if none occurred.
func (s *Subscription[T]) LastError() *Failure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFailure
}

// ErrorHistory returns the recent failures, oldest first.
// Returns nil unless enabled via ErrorHistorySize.
func (s *Subscription[T]) ErrorHistory() []*Failure {
	return s.history.all()
}

// Subscribe attaches an observer and returns its handle.
// Observers receive every structurally distinct state after attachment.
func (s *Subscription[T]) Subscribe(o Observer[T]) Handle {
	return s.dispatch.subscribe(o)
}

// Unsubscribe detaches an observer. Other observers are unaffected.
func (s *Subscription[T]) Unsubscribe(h Handle) {
	s.dispatch.unsubscribe(h)
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Start begins the first invocation cycle. The loading state is published
// before Start returns; completion arrives asynchronously.
//
// Start can only be called once. It fails on an invalid retry policy, a
// repeated call, or a canceled subscription.
func (s *Subscription[T]) Start(ctx context.Context) error {
	if err := s.policy.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.canceled {
		s.mu.Unlock()
		return fmt.Errorf("subscription canceled")
	}
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("subscription already started")
	}
	s.started = true
	s.ctx, s.cancelCtx = context.WithCancel(ctx)

	capitan.Emit(ctx, SubscriptionStarted,
		KeyMaxAttempts.Field(s.policy.MaxAttempts),
	)

	s.beginAttemptLocked()
	s.mu.Unlock()

	s.dispatch.drain()
	return nil
}

// Retry restarts the cycle manually: the attempt counter resets to 1 and a
// fresh invocation begins, regardless of how many attempts the previous
// cycle used. A pending backoff timer is canceled first.
//
// Retry while an invocation is in flight is a no-op, so at most one
// invocation is ever live. Retry before Start or after Cancel is a no-op.
func (s *Subscription[T]) Retry() {
	s.mu.Lock()
	if s.canceled || !s.started || s.inFlight {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		s.stopTimerLocked()
	}
	s.gen++

	// Fresh cycle: reset the attempt counter before re-entering loading.
	reset := s.state
	reset.attempt = 0
	s.state = reset

	s.beginAttemptLocked()
	s.mu.Unlock()

	s.dispatch.drain()
}

// Cancel terminates the subscription: the pending backoff timer is stopped
// synchronously, any in-flight invocation's eventual result is discarded,
// and observers receive no further notification. Terminal and idempotent.
func (s *Subscription[T]) Cancel() {
	s.mu.Lock()
	if s.canceled {
		s.mu.Unlock()
		return
	}
	s.canceled = true
	s.gen++
	s.inFlight = false
	if s.timer != nil {
		s.stopTimerLocked()
	}
	final := canceledState[T](s.state.attempt)
	s.state = final
	ctx := s.ctx
	cancel := s.cancelCtx
	s.mu.Unlock()

	s.dispatch.close()

	if ctx == nil {
		ctx = context.Background()
	}
	capitan.Emit(ctx, SubscriptionCanceled,
		KeyAttempt.Field(final.Attempt()),
	)
	if s.onStop != nil {
		s.onStop(final)
	}

	// Release anything the in-flight operation or stream is holding.
	if cancel != nil {
		cancel()
	}
}

// -----------------------------------------------------------------------------
// Internals
// -----------------------------------------------------------------------------

// liveLocked reports whether a completion from the given invocation
// generation may still mutate state.
func (s *Subscription[T]) liveLocked(gen int) bool {
	return !s.canceled && gen == s.gen && s.ctx.Err() == nil
}

// publishLocked applies a new state and queues it for observer delivery.
// Callers drain the dispatcher after releasing the lock.
func (s *Subscription[T]) publishLocked(st State[T]) {
	old := s.state.status
	s.state = st
	if old != st.status {
		capitan.Emit(s.ctx, StateChanged,
			KeyOldState.Field(old.String()),
			KeyNewState.Field(st.status.String()),
		)
		if s.metrics != nil {
			s.metrics.OnStateChange(old, st.status)
		}
	}
	s.dispatch.enqueue(st)
}

// beginAttemptLocked publishes loading(attempt+1) and launches the
// invocation goroutine for the current generation.
func (s *Subscription[T]) beginAttemptLocked() {
	s.publishLocked(next(s.state, started[T]{}))
	attempt := s.state.attempt
	gen := s.gen
	s.inFlight = true

	capitan.Emit(s.ctx, AttemptStarted,
		KeyAttempt.Field(attempt),
	)

	if s.streamFactory != nil {
		go s.runStream(s.ctx, gen, attempt)
	} else {
		go s.runOperation(s.ctx, gen, attempt)
	}
}

// runOperation executes one one-shot invocation and marshals its result
// back under the subscription lock.
func (s *Subscription[T]) runOperation(ctx context.Context, gen, attempt int) {
	op := s.factory()
	req := &Attempt[T]{Number: attempt, run: op.Run}

	start := s.clock.Now()
	processed, err := s.pipeline.Process(ctx, req)
	elapsed := s.clock.Since(start)

	s.mu.Lock()
	if !s.liveLocked(gen) {
		s.mu.Unlock()
		return
	}
	s.inFlight = false
	if err != nil {
		s.failLocked(err, elapsed, true)
	} else {
		s.succeedLocked(processed.Value, elapsed)
	}
	s.mu.Unlock()

	s.dispatch.drain()
}

// runStream consumes one stream subscription, publishing each item and
// handling the terminal failure, if any.
func (s *Subscription[T]) runStream(ctx context.Context, gen, attempt int) {
	src := s.streamFactory()
	ch, err := src.Listen(ctx)
	if err != nil {
		s.settleStreamFailure(gen, err)
		return
	}

	for res := range ch {
		if res.Err != nil {
			s.settleStreamFailure(gen, res.Err)
			return
		}

		req := &Attempt[T]{Number: attempt, Value: res.Value}
		processed, perr := s.pipeline.Process(ctx, req)
		if perr != nil {
			s.settleStreamFailure(gen, perr)
			return
		}

		s.mu.Lock()
		if !s.liveLocked(gen) {
			s.mu.Unlock()
			return
		}
		capitan.Emit(ctx, StreamItemReceived,
			KeyAttempt.Field(attempt),
		)
		if s.metrics != nil {
			s.metrics.OnItemReceived()
		}
		s.publishLocked(next(s.state, succeeded[T]{value: processed.Value}))
		s.mu.Unlock()

		s.dispatch.drain()
	}

	// Clean close: the sequence ended without failure. The last published
	// state stands; a manual Retry() may resubscribe.
	s.mu.Lock()
	if s.liveLocked(gen) {
		s.inFlight = false
	}
	s.mu.Unlock()
}

// settleStreamFailure marshals a stream failure under the lock, honoring
// the stream retry policy.
func (s *Subscription[T]) settleStreamFailure(gen int, err error) {
	s.mu.Lock()
	if !s.liveLocked(gen) {
		s.mu.Unlock()
		return
	}
	s.inFlight = false
	s.failLocked(err, 0, s.retryStreams)
	s.mu.Unlock()

	s.dispatch.drain()
}

// succeedLocked publishes the success state for a completed invocation.
func (s *Subscription[T]) succeedLocked(v T, elapsed time.Duration) {
	s.publishLocked(next(s.state, succeeded[T]{value: v}))
	s.lastFailure = nil
	s.history.clear()

	capitan.Emit(s.ctx, AttemptSucceeded,
		KeyAttempt.Field(s.state.attempt),
	)
	if s.metrics != nil {
		s.metrics.OnAttemptSuccess(elapsed)
	}
}

// failLocked publishes the error state and lets the supervisor decide
// whether to schedule a re-invocation.
func (s *Subscription[T]) failLocked(err error, elapsed time.Duration, allowRetry bool) {
	s.publishLocked(next(s.state, failed[T]{err: err}))
	fail := s.state.failure
	s.lastFailure = fail
	s.history.push(fail)

	capitan.Emit(s.ctx, AttemptFailed,
		KeyAttempt.Field(fail.Attempt),
		KeyError.Field(fail.Message),
	)
	if s.metrics != nil {
		s.metrics.OnAttemptFailure(fail.Attempt, elapsed)
	}

	attempt := s.state.attempt
	switch {
	case allowRetry && attempt < s.policy.MaxAttempts:
		s.scheduleRetryLocked(attempt)
	case attempt >= s.policy.MaxAttempts:
		capitan.Emit(s.ctx, RetryExhausted,
			KeyAttempt.Field(attempt),
			KeyMaxAttempts.Field(s.policy.MaxAttempts),
		)
		if s.metrics != nil {
			s.metrics.OnRetryExhausted(attempt)
		}
	}
}

// scheduleRetryLocked arms the backoff timer for the next attempt.
// At most one timer is outstanding; an existing one is canceled first.
func (s *Subscription[T]) scheduleRetryLocked(attempt int) {
	if s.timer != nil {
		s.stopTimerLocked()
	}

	delay := s.policy.Delay(attempt)
	t := s.clock.NewTimer(delay)
	stop := make(chan struct{})
	s.timer = &retryTimer{t: t, stop: stop}
	gen := s.gen

	go func() {
		select {
		case <-t.C():
			s.onBackoffElapsed(gen)
		case <-stop:
		}
	}()

	capitan.Emit(s.ctx, RetryScheduled,
		KeyAttempt.Field(attempt),
		KeyDelay.Field(delay),
	)
	if s.metrics != nil {
		s.metrics.OnRetryScheduled(attempt, delay)
	}
}

// onBackoffElapsed begins the next attempt after the backoff delay.
func (s *Subscription[T]) onBackoffElapsed(gen int) {
	s.mu.Lock()
	if !s.liveLocked(gen) || s.timer == nil {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.beginAttemptLocked()
	s.mu.Unlock()

	s.dispatch.drain()
}

// stopTimerLocked cancels the pending backoff timer and releases its
// waiting goroutine.
func (s *Subscription[T]) stopTimerLocked() {
	s.timer.t.Stop()
	close(s.timer.stop)
	s.timer = nil
}
