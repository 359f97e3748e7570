package event

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"

	"icc.tech/scheduled/internal/hashutil"
)

// FsChangeEvent fires whenever a watched filesystem path reports a
// write, create, remove or rename. Ported from
// original_source/src/event/fschange_event.rs, which already watches
// the filesystem directly (inotify on Linux); rebuilt here atop fsnotify,
// the library the rest of the pack reaches for for this concern.
type FsChangeEvent struct {
	Base
	path    string
	watcher *fsnotify.Watcher
}

// NewFsChangeEvent constructs a filesystem-change event watching path.
func NewFsChangeEvent(base Base, path string) *FsChangeEvent {
	return &FsChangeEvent{Base: base, path: path}
}

// Type implements Event.
func (e *FsChangeEvent) Type() string { return "fschange" }

// ContentHash implements Event.
func (e *FsChangeEvent) ContentHash() uint64 {
	return e.MixCommon(hashutil.NewBuilder()).String("fschange").String(e.path).Sum()
}

// Triggerable implements Event.
func (e *FsChangeEvent) Triggerable() bool { return false }

// RequiresListener implements Event.
func (e *FsChangeEvent) RequiresListener() bool { return true }

// Setup implements Event.
func (e *FsChangeEvent) Setup(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(e.path); err != nil {
		w.Close()
		return err
	}
	e.watcher = w
	return nil
}

// Loop implements Event.
func (e *FsChangeEvent) Loop(ctx context.Context, fire func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-e.watcher.Events:
			if !ok {
				return
			}
			if evt.Has(fsnotify.Write) || evt.Has(fsnotify.Create) || evt.Has(fsnotify.Remove) || evt.Has(fsnotify.Rename) {
				fire()
			}
		case err, ok := <-e.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("fschange watcher error", slog.String("event", e.Name()), slog.String("path", e.path), slog.String("error", err.Error()))
		}
	}
}

// Teardown implements Event.
func (e *FsChangeEvent) Teardown(ctx context.Context) {
	if e.watcher != nil {
		e.watcher.Close()
	}
}
