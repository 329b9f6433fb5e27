package catalog

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rxnguard/pkg/errors"
)

// DefaultDebounce collapses the burst of events editors emit on save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads a Catalog when its file changes.  The parent directory is
// watched so that editors which save by rename are seen too.
type Watcher struct {
	catalog  *Catalog
	path     string
	debounce time.Duration
	logger   logging.Logger
	onReload func(error)

	fsw  *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithReloadHook is called after every reload attempt with its result.
func WithReloadHook(fn func(error)) WatcherOption {
	return func(w *Watcher) { w.onReload = fn }
}

func NewWatcher(c *Catalog, path string, log logging.Logger, opts ...WatcherOption) (*Watcher, error) {
	if c == nil || path == "" {
		return nil, errors.New(errors.ErrCodeValidation, "catalog watcher needs a catalog and a path")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "resolve catalog path")
	}
	w := &Watcher{
		catalog:  c,
		path:     abs,
		debounce: DefaultDebounce,
		logger:   log.Named("catalog-watcher"),
		done:     make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	return w, nil
}

// Start begins watching.  It returns once the watch is registered; events
// are handled until ctx is cancelled or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "create file watcher")
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		_ = fsw.Close()
		return errors.Wrap(err, errors.ErrCodeInternal, "watch catalog directory")
	}
	w.fsw = fsw
	w.wg.Add(1)
	go w.loop(ctx)
	w.logger.Info("Watching catalog", logging.String("path", w.path))
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Catalog watcher error", logging.Err(err))
		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	err := w.catalog.Reload(w.path)
	if err != nil {
		w.logger.Error("Catalog reload failed, keeping previous entries",
			logging.String("path", w.path), logging.Err(err))
	}
	if w.onReload != nil {
		w.onReload(err)
	}
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		if w.fsw != nil {
			err = w.fsw.Close()
		}
		w.wg.Wait()
	})
	return err
}

//Personal.AI order the ending
