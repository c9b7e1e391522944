package workspace

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Signal file names recognized inside .elisa/signals.
const (
	SignalStop  = "stop"
	SignalPause = "pause"
)

// SignalWatcher observes the workspace signals directory for stop and
// pause files. A file watcher delivers signals immediately; the Should*
// accessors also stat the files directly, so a dropped fs event only
// delays a signal until the next poll rather than losing it.
type SignalWatcher struct {
	dir string

	mu          sync.RWMutex
	stopSignal  bool
	pauseSignal bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchSignals starts watching the workspace's signals directory. The
// watcher degrades to stat-on-read when fsnotify is unavailable.
func WatchSignals(w *Workspace) (*SignalWatcher, error) {
	sw := &SignalWatcher{
		dir:  w.SignalsDir(),
		done: make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return sw, nil
	}
	if err := watcher.Add(sw.dir); err != nil {
		watcher.Close()
		return sw, nil
	}
	sw.watcher = watcher
	go sw.watch()
	return sw, nil
}

func (sw *SignalWatcher) watch() {
	for {
		select {
		case <-sw.done:
			return
		case ev, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			created := ev.Op&(fsnotify.Create|fsnotify.Write) != 0
			removed := ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0
			if !created && !removed {
				continue
			}
			sw.mu.Lock()
			switch filepath.Base(ev.Name) {
			case SignalStop:
				// Stop latches; deleting the file does not un-stop a build.
				if created {
					sw.stopSignal = true
				}
			case SignalPause:
				sw.pauseSignal = created
			}
			sw.mu.Unlock()
		case <-sw.watcher.Errors:
			// Keep watching; the stat fallback covers missed events.
		}
	}
}

// ShouldStop returns true once a stop signal has been received.
func (sw *SignalWatcher) ShouldStop() bool {
	sw.checkFile(SignalStop)
	sw.mu.RLock()
	defer sw.mu.RUnlock()
	return sw.stopSignal
}

// ShouldPause reports whether the pause file currently exists. Unlike
// stop, pause is level-triggered: removing the file resumes the build.
func (sw *SignalWatcher) ShouldPause() bool {
	_, err := os.Stat(filepath.Join(sw.dir, SignalPause))
	present := err == nil

	sw.mu.Lock()
	sw.pauseSignal = present
	sw.mu.Unlock()
	return present
}

func (sw *SignalWatcher) checkFile(name string) {
	if _, err := os.Stat(filepath.Join(sw.dir, name)); err != nil {
		return
	}
	sw.mu.Lock()
	if name == SignalStop {
		sw.stopSignal = true
	}
	sw.mu.Unlock()
}

// SendStop creates the stop signal file.
func (sw *SignalWatcher) SendStop() error {
	return sw.writeSignal(SignalStop)
}

// SendPause creates the pause signal file.
func (sw *SignalWatcher) SendPause() error {
	return sw.writeSignal(SignalPause)
}

func (sw *SignalWatcher) writeSignal(name string) error {
	path := filepath.Join(sw.dir, name)
	return os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0644)
}

// Clear removes the signal files and resets state, for session restart.
func (sw *SignalWatcher) Clear() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.stopSignal = false
	sw.pauseSignal = false
	os.Remove(filepath.Join(sw.dir, SignalStop))
	os.Remove(filepath.Join(sw.dir, SignalPause))
}

// Close stops the watcher goroutine.
func (sw *SignalWatcher) Close() {
	close(sw.done)
	if sw.watcher != nil {
		sw.watcher.Close()
	}
}
