package relay

import (
	"context"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
)

// FileSource watches a file and emits its decoded contents as a continuous
// Stream: one result on Listen, then one per write. A read or decode
// failure is terminal for the sequence instance; the supervisor decides
// whether to resubscribe.
type FileSource[T any] struct {
	path  string
	codec Codec
}

// NewFileSource creates a FileSource for the given path decoding with the
// given codec. Use JSONCodec or YAMLCodec, or provide your own.
func NewFileSource[T any](path string, codec Codec) *FileSource[T] {
	return &FileSource[T]{path: path, codec: codec}
}

// Listen begins watching the file and returns a channel that emits the
// decoded contents whenever the file is written. The current contents are
// emitted immediately to support initial loading.
func (f *FileSource[T]) Listen(ctx context.Context) (<-chan Result[T], error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := watcher.Add(f.path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch file %s: %w", f.path, err)
	}

	out := make(chan Result[T])

	go func() {
		defer close(out)
		defer watcher.Close()

		// Emit initial contents
		if !f.emit(ctx, out) {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				// Only emit on write or create events
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				if !f.emit(ctx, out) {
					return
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Continue watching despite fsnotify errors
			}
		}
	}()

	return out, nil
}

// emit reads and decodes the file, sending the result. Returns false when
// the sequence is over: context canceled or a terminal read/decode failure.
func (f *FileSource[T]) emit(ctx context.Context, out chan<- Result[T]) bool {
	data, err := os.ReadFile(f.path)
	if err != nil {
		f.send(ctx, out, Result[T]{Err: fmt.Errorf("read %s: %w", f.path, err)})
		return false
	}

	var v T
	if err := f.codec.Unmarshal(data, &v); err != nil {
		f.send(ctx, out, Result[T]{Err: fmt.Errorf("decode %s: %w", f.path, err)})
		return false
	}

	return f.send(ctx, out, Result[T]{Value: v})
}

func (f *FileSource[T]) send(ctx context.Context, out chan<- Result[T], res Result[T]) bool {
	select {
	case out <- res:
		return true
	case <-ctx.Done():
		return false
	}
}
