package render

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/mpapenbr/shotrecord/log"
)

// watch renders once and again after each change of the series or layout
// file until ctx is done or the process is interrupted.
// The parent directories are watched since editors often replace files
// instead of writing them.
//
//nolint:funlen,cyclop // by design
func (j *job) watch(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	files := map[string]bool{}
	for _, f := range []string{j.input, j.layoutPath} {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		files[abs] = true
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			return err
		}
	}

	if err := j.run(); err != nil {
		j.log.Error("render failed", log.ErrorField(err))
	}
	for {
		select {
		case <-ctx.Done():
			j.log.Info("context done, stopping watch")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				j.log.Info("watcher events channel closed, stopping watch")
				return nil
			}
			if !files[filepath.Clean(event.Name)] {
				continue
			}
			j.log.Debug("change detected",
				log.String("file", event.Name), log.Any("event", event))
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if err := j.run(); err != nil {
					j.log.Error("render failed", log.ErrorField(err))
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				j.log.Info("watcher errors channel closed, stopping watch")
				return nil
			}
			j.log.Error("watcher error", log.ErrorField(err))
		}
	}
}
