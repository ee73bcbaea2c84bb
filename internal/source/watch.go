package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/park285/chess-movetable/internal/obslog"
	"go.uber.org/zap"
)

// settle is how long a file must stay quiet before it is re-imported.
const settle = 100 * time.Millisecond

// Watch re-imports path each time it is written, until ctx is done. The
// parent directory is watched so editors that replace the file are seen.
func (a *Adapter) Watch(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	obslog.L().Info("watch_start", zap.String("path", abs))

	timer := time.NewTimer(settle)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			timer.Reset(settle)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			obslog.L().Warn("watch_error", zap.Error(err))
		case <-timer.C:
			a.reimport(ctx, abs)
		}
	}
}

func (a *Adapter) reimport(ctx context.Context, path string) {
	f, err := os.Open(path)
	if err != nil {
		obslog.L().Warn("watch_open_failed", zap.String("path", path), zap.Error(err))
		return
	}
	defer f.Close()
	err = a.Import(ctx, []File{{Name: filepath.Base(path), Data: f}})
	var ierr *ImportError
	switch {
	case errors.As(err, &ierr):
		// Nobody is waiting on a watched file, so tell every session.
		if nerr := a.sink.Notify(ctx, a.Message(ierr)); nerr != nil {
			obslog.L().Debug("import_notify_failed", zap.Error(nerr))
		}
	case err != nil:
		obslog.L().Warn("watch_import_failed", zap.String("path", path), zap.Error(err))
	}
}
