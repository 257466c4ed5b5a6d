// Package watch provides a native file-system watcher for clients that do
// not register didChangeWatchedFiles. It reports changed files by URI so
// the source manager can staleness-mark them.
package watch

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Sumatoshi-tech/typlsp/internal/workspace"
)

// debounceDelay coalesces the bursts of events editors and build tools
// produce for a single logical write.
const debounceDelay = 100 * time.Millisecond

// Watcher watches a directory tree and reports write, remove, and rename
// events on matching files, debounced per file.
type Watcher struct {
	fsw      *fsnotify.Watcher
	ext      string
	onChange func(uri string)
	logger   *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// New starts watching root recursively. ext filters files by extension
// (e.g. ".typ"); empty matches everything. onChange receives the file URI
// after debouncing.
func New(root, ext string, onChange func(uri string), logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		ext:      strings.ToLower(ext),
		onChange: onChange,
		logger:   logger,
		timers:   make(map[string]*time.Timer),
	}

	err = addWatchTree(fsw, root)
	if err != nil {
		_ = fsw.Close()

		return nil, err
	}

	go w.run()

	return w, nil
}

// Close stops the watcher and drops pending debounce timers.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true

	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	return w.fsw.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}

			w.handle(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}

			w.logger.Warn("file watcher error", "error", err.Error())
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	// New directories join the watch tree; everything else about
	// creation is reported when the content is written.
	if event.Op&fsnotify.Create != 0 {
		if isDir(event.Name) {
			_ = addWatchTree(w.fsw, event.Name)

			return
		}
	}

	if event.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename|fsnotify.Create) == 0 {
		return
	}

	if w.ext != "" && strings.ToLower(filepath.Ext(event.Name)) != w.ext {
		return
	}

	w.debounce(event.Name)
}

// debounce schedules (or reschedules) the change report for one path.
func (w *Watcher) debounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}

	w.timers[path] = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		w.onChange(workspace.PathToURI(path))
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

func addWatchTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // skip unreadable entries
		}

		if entry.IsDir() {
			addErr := fsw.Add(path)
			if addErr != nil {
				return nil //nolint:nilerr // skip unwatchable dirs
			}
		}

		return nil
	})
}
