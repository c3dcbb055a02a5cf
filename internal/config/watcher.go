package config

import (
	"fmt"
	"path/filepath"
	"time"

	"eduseek/internal/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const fileName = "config.yaml"

// Watcher reloads config.yaml from a directory when it changes. Editors
// write in bursts, so a reload happens once the file has been quiet for
// the debounce delay.
type Watcher struct {
	dir    string
	delay  time.Duration
	fw     *fsnotify.Watcher
	doneCh chan struct{}
	exitCh chan struct{}

	started bool
}

func NewWatcher(dir string, delay time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// The directory is watched rather than the file so that editors which
	// replace the file by rename are still seen.
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		dir:    dir,
		delay:  delay,
		fw:     fw,
		doneCh: make(chan struct{}),
		exitCh: make(chan struct{}),
	}, nil
}

// Start runs the watch loop. Call it at most once. onChange is called from the loop goroutine
// with the reloaded config, or the error that kept it from loading. It
// must not call Stop.
func (w *Watcher) Start(onChange func(*Config, error)) {
	w.started = true
	go w.run(onChange)

	logger.Log.Info("config watcher started",
		zap.String("dir", w.dir))
}

func (w *Watcher) run(onChange func(*Config, error)) {
	defer close(w.exitCh)

	timer := time.NewTimer(w.delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.doneCh:
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != fileName || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(w.delay)

		case <-timer.C:
			onChange(LoadFrom(w.dir))

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			logger.Log.Warn("config watcher error",
				zap.Error(err))
		}
	}
}

// Stop ends the watch loop and waits for it to exit; no onChange call
// starts after Stop returns.
func (w *Watcher) Stop() {
	select {
	case <-w.doneCh:
		return
	default:
	}

	close(w.doneCh)
	_ = w.fw.Close()
	if w.started {
		<-w.exitCh
	}
}
