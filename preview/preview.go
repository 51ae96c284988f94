// Package preview re-renders markdown while it is being edited. Rapid edits
// are coalesced by a Debouncer so only the last one in a burst is rendered.
package preview

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDelay matches the editor's keystroke debounce.
const DefaultDelay = 500 * time.Millisecond

// Debouncer runs the most recently triggered function once no new trigger
// has arrived for the delay.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	gen   uint64
}

// NewDebouncer returns a Debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn, cancelling any pending call.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := gen == d.gen
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Stop cancels a pending call. It reports whether one was pending.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer == nil {
		return false
	}
	stopped := d.timer.Stop()
	d.timer = nil
	return stopped
}

// WatchFile calls fn with the file's contents once at start and again after
// each burst of writes settles for delay. It returns when ctx is done.
// Editors that save by renaming a new file into place are handled by
// watching the parent directory.
func WatchFile(ctx context.Context, path string, delay time.Duration, fn func([]byte)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	read := func() {
		data, err := os.ReadFile(abs)
		if err != nil {
			return
		}
		fn(data)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("preview: watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("preview: watch %s: %w", path, err)
	}

	read()
	d := NewDebouncer(delay)
	defer d.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				d.Trigger(read)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				d.Trigger(read)
				continue
			}
			return fmt.Errorf("preview: watch %s: %w", path, err)
		}
	}
}
