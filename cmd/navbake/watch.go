package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// sceneWatcher reports edits to the files a bake reads: the scene and the
// altitude table it names, which may live in another directory. It watches
// parent directories so editors that replace a file by rename are still seen.
type sceneWatcher struct {
	fs       *fsnotify.Watcher
	files    map[string]bool
	dirs     map[string]bool
	debounce time.Duration
	log      *zap.Logger
}

func watchScene(debounce time.Duration, log *zap.Logger, paths ...string) (*sceneWatcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &sceneWatcher{
		fs:       fs,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		debounce: debounce,
		log:      log,
	}
	if err := w.track(paths...); err != nil {
		_ = fs.Close()
		return nil, err
	}
	return w, nil
}

// track adds paths to the watched set. Files already tracked are skipped.
func (w *sceneWatcher) track(paths ...string) error {
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		if w.files[abs] {
			continue
		}
		dir := filepath.Dir(abs)
		if !w.dirs[dir] {
			if err := w.fs.Add(dir); err != nil {
				return err
			}
			w.dirs[dir] = true
		}
		w.files[abs] = true
		w.log.Debug("watching file", zap.String("path", abs))
	}
	return nil
}

func (w *sceneWatcher) Close() error {
	return w.fs.Close()
}

// run calls onChange once per burst of edits, after the files have been
// quiet for the debounce period. It returns when ctx is done or the watcher
// closes. onChange runs on the watcher goroutine, so it may call track.
func (w *sceneWatcher) run(ctx context.Context, onChange func()) {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !w.files[filepath.Clean(event.Name)] {
				continue
			}
			w.log.Debug("scene input changed", zap.String("path", event.Name), zap.Stringer("op", event.Op))
			timer.Reset(w.debounce)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("scene watcher error", zap.Error(err))
		case <-timer.C:
			onChange()
		}
	}
}
