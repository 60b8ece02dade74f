// Package watcher polls script files and reports content changes.
package watcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const defaultInterval = 500 * time.Millisecond

type Event struct {
	Path    string
	Missing bool
	Src     string
}

type fingerprint struct {
	mod     time.Time
	size    int64
	sum     [sha256.Size]byte
	missing bool
}

type Watcher struct {
	mu       sync.Mutex
	files    map[string]fingerprint
	interval time.Duration
}

func New(interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Watcher{files: make(map[string]fingerprint), interval: interval}
}

// Track records the current state of path and returns its contents.
func (w *Watcher) Track(path string) (string, error) {
	clean := filepath.Clean(path)
	info, err := os.Stat(clean)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(clean)
	if err != nil {
		return "", err
	}
	w.mu.Lock()
	w.files[clean] = fingerprint{mod: info.ModTime(), size: info.Size(), sum: sha256.Sum256(data)}
	w.mu.Unlock()
	return string(data), nil
}

func (w *Watcher) Forget(path string) {
	w.mu.Lock()
	delete(w.files, filepath.Clean(path))
	w.mu.Unlock()
}

// Scan checks every tracked file once. A file reports Missing once per
// disappearance; unchanged metadata skips the read.
func (w *Watcher) Scan() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths := make([]string, 0, len(w.files))
	for p := range w.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var events []Event
	for _, p := range paths {
		prev := w.files[p]
		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && !prev.missing {
				prev.missing = true
				w.files[p] = prev
				events = append(events, Event{Path: p, Missing: true})
			}
			continue
		}
		if !prev.missing && info.ModTime().Equal(prev.mod) && info.Size() == prev.size {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		next := fingerprint{mod: info.ModTime(), size: info.Size(), sum: sha256.Sum256(data)}
		w.files[p] = next
		if prev.missing || next.sum != prev.sum {
			events = append(events, Event{Path: p, Src: string(data)})
		}
	}
	return events
}

// Run scans on every tick until ctx ends, then closes the channel.
// Events are dropped when the consumer falls behind.
func (w *Watcher) Run(ctx context.Context) <-chan Event {
	out := make(chan Event, 8)
	go func() {
		defer close(out)
		t := time.NewTicker(w.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				for _, ev := range w.Scan() {
					select {
					case out <- ev:
					default:
					}
				}
			}
		}
	}()
	return out
}
