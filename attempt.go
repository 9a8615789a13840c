package relay

import "context"

// Attempt carries a single invocation through the processing pipeline.
// Middleware stages may observe or transform it before the terminal stage
// runs the operation (one-shot) or passes a stream item through.
type Attempt[T any] struct {
	// Number is the 1-based attempt number within the current retry cycle.
	Number int

	// Value is the result of the attempt. For stream items it is populated
	// before the pipeline runs; for one-shot operations the terminal stage
	// fills it in.
	Value T

	// run invokes the wrapped one-shot operation. Nil for stream items,
	// which arrive with Value already set.
	run func(ctx context.Context) (T, error)
}
