package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/presencewatch/internal/logfields"
)

// IdentityWatcher calls onChange, debounced, when the identity list file changes.
type IdentityWatcher struct {
	path     string
	debounce time.Duration
	onChange func()
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewIdentityWatcher creates a watcher for path. The parent directory is watched so
// editors that replace the file by rename are noticed.
func NewIdentityWatcher(path string, debounce time.Duration, onChange func(), logger *slog.Logger) (*IdentityWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve identity file path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityWatcher{path: abs, debounce: debounce, onChange: onChange, watcher: w, logger: logger}, nil
}

// Start begins watching until ctx is done or Stop is called.
func (iw *IdentityWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(iw.path)
	if err := iw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	iw.logger.Info("Watching identity list", logfields.Path(iw.path))
	iw.wg.Add(1)
	go func() {
		defer iw.wg.Done()
		iw.loop(ctx)
	}()
	return nil
}

// Stop closes the watcher and waits for the loop to exit.
func (iw *IdentityWatcher) Stop() error {
	err := iw.watcher.Close()
	iw.wg.Wait()
	return err
}

func (iw *IdentityWatcher) loop(ctx context.Context) {
	name := filepath.Base(iw.path)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-iw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				if event.Has(fsnotify.Remove) {
					iw.logger.Warn("Identity list removed", logfields.Path(event.Name))
				}
				continue
			}
			iw.logger.Debug("Identity list changed", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(iw.debounce, iw.onChange)
		case err, ok := <-iw.watcher.Errors:
			if !ok {
				return
			}
			iw.logger.Error("Identity watcher error", logfields.Error(err))
		}
	}
}
