// Package watch announces changes to files in a directory tree.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/muesli/gitcha"
	"golang.org/x/time/rate"
)

// Op is the kind of change reported.
type Op int

const (
	Changed Op = iota
	Created
	Removed
)

func (o Op) String() string {
	switch o {
	case Changed:
		return "changed"
	case Created:
		return "created"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is a change to one watched file.
type Event struct {
	Path string
	Op   Op
}

// Message is the sentence announced for the event, e.g. "main.go changed".
func (e Event) Message() string {
	return fmt.Sprintf("%s %s", filepath.Base(e.Path), e.Op)
}

// Config controls what is watched and how often changes are announced.
type Config struct {
	Dirs     []string
	Patterns []string // file name globs, e.g. "*.go"
	Ignore   []string // passed to gitcha as exclusions
	All      bool     // ignore .gitignore rules
	Rate     float64  // announcements per second
	Burst    int
}

// DefaultConfig watches the working directory for every file, at most one
// announcement every two seconds.
func DefaultConfig() Config {
	return Config{
		Dirs:     []string{"."},
		Patterns: []string{"*"},
		Rate:     0.5,
		Burst:    1,
	}
}

// Watcher turns fsnotify events into rate limited Events.
type Watcher struct {
	cfg     Config
	fs      *fsnotify.Watcher
	limiter *rate.Limiter
	logger  *log.Logger
	dirs    []string

	suppressed int
}

// New discovers the directories to watch and registers them with fsnotify.
func New(cfg Config, logger *log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = log.Default()
	}
	if len(cfg.Dirs) == 0 {
		cfg.Dirs = []string{"."}
	}
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = []string{"*"}
	}
	if cfg.Rate <= 0 {
		return nil, fmt.Errorf("watch rate must be positive, got %v", cfg.Rate)
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}

	dirs, err := discover(cfg)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating fsnotify watcher: %w", err)
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("error watching %s: %w", dir, err)
		}
		logger.Debug("fsnotify watching dir", "dir", dir)
	}

	return &Watcher{
		cfg:     cfg,
		fs:      fw,
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		logger:  logger,
		dirs:    dirs,
	}, nil
}

// discover returns each root plus every directory holding a matching
// file, as found by gitcha.
func discover(cfg Config) ([]string, error) {
	seen := make(map[string]bool)
	for _, root := range cfg.Dirs {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", root)
		}
		seen[abs] = true

		var ch chan gitcha.SearchResult
		if cfg.All {
			ch, err = gitcha.FindAllFilesExcept(abs, cfg.Patterns, cfg.Ignore)
		} else {
			ch, err = gitcha.FindFilesExcept(abs, cfg.Patterns, cfg.Ignore)
		}
		if err != nil {
			return nil, fmt.Errorf("error finding files in %s: %w", root, err)
		}
		for res := range ch {
			seen[filepath.Dir(res.Path)] = true
		}
	}

	dirs := make([]string, 0, len(seen))
	for d := range seen {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Dirs returns the directories being watched.
func (w *Watcher) Dirs() []string {
	return w.dirs
}

// Run delivers events to emit until ctx is done. Events beyond the
// configured rate are dropped.
func (w *Watcher) Run(ctx context.Context, emit func(Event)) error {
	defer w.fs.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.maybeWatchDir(ev)

			e, ok := w.translate(ev)
			if !ok {
				continue
			}
			if !w.limiter.Allow() {
				w.suppressed++
				w.logger.Debug("Change not announced", "file", e.Path, "suppressed", w.suppressed)
				continue
			}
			emit(e)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("fsnotify event queue overflowed")
				continue
			}
			w.logger.Debug("fsnotify error", "error", err)
		}
	}
}

// translate maps an fsnotify event onto an Event, ignoring paths that do
// not match the patterns and ops nobody wants to hear about.
func (w *Watcher) translate(ev fsnotify.Event) (Event, bool) {
	if !w.matches(ev.Name) {
		return Event{}, false
	}

	switch {
	case ev.Has(fsnotify.Create):
		return Event{Path: ev.Name, Op: Created}, true
	case ev.Has(fsnotify.Write):
		return Event{Path: ev.Name, Op: Changed}, true
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return Event{Path: ev.Name, Op: Removed}, true
	}
	return Event{}, false
}

func (w *Watcher) matches(path string) bool {
	base := filepath.Base(path)
	for _, p := range w.cfg.Patterns {
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}

// maybeWatchDir follows newly created directories.
func (w *Watcher) maybeWatchDir(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) {
		return
	}
	info, err := os.Stat(ev.Name)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.fs.Add(ev.Name); err != nil {
		w.logger.Debug("error adding dir to fsnotify watcher", "dir", ev.Name, "error", err)
		return
	}
	w.dirs = append(w.dirs, ev.Name)
}
