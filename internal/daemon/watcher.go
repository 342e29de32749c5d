package daemon

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// watcher turns fsnotify events under the log root into a coalesced "work
// to do" signal. The tailer re-scans cheaply, so the signal carries no
// payload; bursts of writes collapse into one pending notification.
type watcher struct {
	fs      *fsnotify.Watcher
	log     zerolog.Logger
	changed chan struct{}
}

func newWatcher(root string, log zerolog.Logger) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &watcher{
		fs:      fsw,
		log:     log,
		changed: make(chan struct{}, 1),
	}

	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}

	go w.run()
	return w, nil
}

// addTree registers the root and every existing subdirectory.
func (w *watcher) addTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return w.fs.Add(path)
		}
		return nil
	})
}

func (w *watcher) run() {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("file watch error")
		}
	}
}

func (w *watcher) handle(event fsnotify.Event) {
	// New project directories must be watched as they appear.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fs.Add(event.Name); err != nil {
				w.log.Warn().Str("dir", event.Name).Err(err).Msg("failed to watch new directory")
			}
			w.signal()
			return
		}
	}

	if strings.HasSuffix(strings.ToLower(event.Name), ".jsonl") {
		w.signal()
	}
}

func (w *watcher) signal() {
	select {
	case w.changed <- struct{}{}:
	default:
	}
}

// Changed delivers at most one pending notification.
func (w *watcher) Changed() <-chan struct{} {
	return w.changed
}

func (w *watcher) Close() error {
	return w.fs.Close()
}
