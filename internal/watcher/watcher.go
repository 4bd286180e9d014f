// Package watcher re-runs the pipeline whenever new access logs land in
// the log directory.
package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"go-log-analyzer/internal/model"
	"go-log-analyzer/internal/pipeline"
)

// DefaultDebounce is how long the watcher waits after the last relevant
// event before starting a run, so a file still being written settles first.
const DefaultDebounce = 2 * time.Second

// Watcher triggers pipeline runs from filesystem events on the log dir.
type Watcher struct {
	Spec     model.RunSpec
	Debounce time.Duration

	// RunFunc is the pipeline entry, replaceable in tests.
	RunFunc func(ctx context.Context, runID string, spec model.RunSpec) error
}

// New creates a watcher over the spec's log directory.
func New(spec model.RunSpec) *Watcher {
	return &Watcher{
		Spec:     spec,
		Debounce: DefaultDebounce,
		RunFunc:  pipeline.Run,
	}
}

// Watch blocks, running the pipeline on each batch of new log files, until
// ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create fs watcher")
	}
	defer fsWatcher.Close()

	if err := fsWatcher.Add(w.Spec.LogDir); err != nil {
		return errors.Wrap(err, "watch log dir")
	}
	logrus.WithField("log_dir", w.Spec.LogDir).Info("watching for new log files")

	trigger := make(chan struct{}, 1)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case event, ok := <-fsWatcher.Events:
				if !ok {
					return nil
				}
				if !relevant(event) {
					continue
				}
				logrus.WithFields(logrus.Fields{
					"file": event.Name,
					"op":   event.Op.String(),
				}).Debug("log dir event")
				select {
				case trigger <- struct{}{}:
				default:
				}
			case err, ok := <-fsWatcher.Errors:
				if !ok {
					return nil
				}
				logrus.WithError(err).Warn("fs watcher error")
			}
		}
	})

	g.Go(func() error {
		return w.runLoop(ctx, trigger)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runLoop debounces triggers and executes pipeline runs.
func (w *Watcher) runLoop(ctx context.Context, trigger <-chan struct{}) error {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-trigger:
			timer.Reset(w.Debounce)
		case <-timer.C:
			runID := uuid.New().String()
			if err := w.RunFunc(ctx, runID, w.Spec); err != nil {
				logrus.WithError(err).WithField("run_id", runID).Error("watch-triggered run failed")
			}
		}
	}
}

// relevant reports whether an event should schedule a run.
func relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	return pipeline.IsLogFileName(filepath.Base(event.Name))
}
