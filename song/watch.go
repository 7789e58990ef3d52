package song

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"go-jamtyper/debug"
)

// Watcher follows a song file and publishes its content whenever it
// changes. The parent directory is watched so editors that save by
// replacing the file are still seen.
type Watcher struct {
	path     string
	debounce time.Duration
	updates  chan []byte
}

// NewWatcher creates a watcher for path. Bursts of events closer than
// debounce are read once.
func NewWatcher(path string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		updates:  make(chan []byte, 1),
	}
}

// Updates returns the channel of new file contents. It is closed when Run returns.
func (w *Watcher) Updates() <-chan []byte {
	return w.updates
}

// Run watches until ctx is done (blocking - run in goroutine).
// The content at start is the baseline and is not published.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.updates)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	defer fsw.Close()
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}

	last, _ := os.ReadFile(w.path)

	settle := time.NewTimer(w.debounce)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Chmod) {
				settle.Reset(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			debug.LogEvery(20, "watch", "%s: %v", w.path, err)

		case <-settle.C:
			data, err := os.ReadFile(w.path)
			if err != nil {
				// a replaced file is briefly missing, its Create comes next
				debug.Log("watch", "read %s: %v", w.path, err)
				continue
			}
			if bytes.Equal(data, last) {
				continue
			}
			last = data
			debug.Log("watch", "%s changed (%d bytes)", w.path, len(data))
			select {
			case w.updates <- data:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
