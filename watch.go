package supervisor

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"vawter.tech/stopper"
)

// ComposeFileEvent reports a change to the compose descriptor, or a
// watcher error.
type ComposeFileEvent struct {
	// Path is the descriptor path that changed
	Path string
	// Err carries a watcher error, nil for change events
	Err error
}

// WatchCleanupFunc stops a watch and releases its resources. It is
// safe to call more than once.
type WatchCleanupFunc func() error

// WatchComposeFile watches the compose descriptor for modification and
// emits debounced change events, so the automation layer can notice
// descriptor edits that arrive outside its normal triggers. Editors
// and atomic writers replace the file rather than writing in place, so
// the watch covers the descriptor's directory and filters by name.
//
// All sends on the returned channel happen inside the single
// stopper-managed goroutine, and the channel is only closed after that
// goroutine has finished, so cleanup cannot race a pending send.
func (s *ContainerSupervisor) WatchComposeFile(ctx context.Context) (<-chan ComposeFileEvent, WatchCleanupFunc, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, &OpError{Op: OpWatch, Unit: s.ComposeFile, Err: err}
	}

	if err := watcher.Add(s.ComposeDir); err != nil {
		_ = watcher.Close()
		return nil, nil, &OpError{Op: OpWatch, Unit: s.ComposeFile, Err: err}
	}

	ch := make(chan ComposeFileEvent, 10)

	sctx := stopper.WithContext(ctx)
	sctx.Defer(func() {
		_ = watcher.Close()
		close(ch)
	})

	cleanup := func() error {
		sctx.Stop(100 * time.Millisecond)
		return sctx.Wait()
	}

	base := filepath.Base(s.ComposeFile)

	sctx.Go(func(sctx *stopper.Context) error {
		// The debounce timer starts drained; it is armed by a matching
		// event and only its expiry performs a send.
		debounce := time.NewTimer(s.WatchDebounce)
		if !debounce.Stop() {
			<-debounce.C
		}
		defer debounce.Stop()

		for {
			select {
			case <-sctx.Stopping():
				return nil

			case <-debounce.C:
				select {
				case ch <- ComposeFileEvent{Path: s.ComposeFile}:
				case <-sctx.Stopping():
					return nil
				}

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Base(event.Name) != base {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}

				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(s.WatchDebounce)

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				if err != nil {
					select {
					case ch <- ComposeFileEvent{Path: s.ComposeFile, Err: err}:
					case <-sctx.Stopping():
						return nil
					}
				}
			}
		}
	})

	return ch, cleanup, nil
}
