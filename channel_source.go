package relay

import "context"

// ChannelSource wraps an existing result channel as a Stream.
// Useful for testing and custom sources that already produce results.
type ChannelSource[T any] struct {
	ch   <-chan Result[T]
	sync bool
}

// NewChannelSource creates a ChannelSource that forwards results from the
// given channel through an internal goroutine.
func NewChannelSource[T any](ch <-chan Result[T]) *ChannelSource[T] {
	return &ChannelSource[T]{ch: ch, sync: false}
}

// NewSyncChannelSource creates a ChannelSource that returns the source
// channel directly without an intermediate goroutine.
// Use for deterministic testing.
func NewSyncChannelSource[T any](ch <-chan Result[T]) *ChannelSource[T] {
	return &ChannelSource[T]{ch: ch, sync: true}
}

// Listen returns a channel that emits results from the wrapped channel.
func (c *ChannelSource[T]) Listen(ctx context.Context) (<-chan Result[T], error) {
	if c.sync {
		return c.ch, nil
	}

	out := make(chan Result[T])
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-c.ch:
				if !ok {
					return
				}
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
