package docker

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"vawter.tech/stopper"
)

// watchSocket signals wake whenever socket is created. The returned function
// stops the watcher and waits for its goroutine.
func watchSocket(ctx context.Context, socket string, wake chan<- struct{}) (func() error, error) {
	socket = filepath.Clean(socket)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(socket)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	sctx := stopper.WithContext(ctx)
	sctx.Defer(func() {
		_ = watcher.Close()
	})

	sctx.Go(func(sctx *stopper.Context) error {
		for {
			select {
			case <-sctx.Stopping():
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(event.Name) != socket || event.Op&fsnotify.Create == 0 {
					continue
				}
				select {
				case wake <- struct{}{}:
				default:
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
			}
		}
	})

	stop := func() error {
		sctx.Stop(100 * time.Millisecond)
		return sctx.Wait()
	}

	return stop, nil
}
