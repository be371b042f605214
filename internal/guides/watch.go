package guides

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ChangeFunc is called with the slug of a guide whose published documents
// changed on disk.
type ChangeFunc func(ctx context.Context, slug string)

// Watcher reports edits to published guide documents made outside the
// server, e.g. a developer editing tutorial.json by hand. Bursts of events
// for one guide are collapsed into a single callback.
type Watcher struct {
	store    *Store
	onChange ChangeFunc
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]time.Time
}

// NewWatcher returns a Watcher that calls onChange at most once per
// debounce window for each guide.
func NewWatcher(store *Store, debounce time.Duration, onChange ChangeFunc) *Watcher {
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	return &Watcher{
		store:    store,
		onChange: onChange,
		debounce: debounce,
		pending:  make(map[string]time.Time),
	}
}

// Run watches the guides root and every guide directory until ctx is done.
// Guide directories created while running are picked up automatically.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	lg := zerolog.Ctx(ctx)
	if err := fw.Add(w.store.Root()); err != nil {
		return err
	}
	slugs, err := w.store.List()
	if err != nil {
		return err
	}
	for _, slug := range slugs {
		dir, _ := w.store.Dir(slug)
		if err := fw.Add(dir); err != nil {
			lg.Warn().Err(err).Str("slug", slug).Msg("watch guide dir")
		}
	}
	lg.Info().Str("dir", w.store.Root()).Int("guides", len(slugs)).Msg("watching guides")

	tick := time.NewTicker(w.debounce / 2)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(fw, ev, lg)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			lg.Error().Err(err).Msg("guide watcher")
		case now := <-tick.C:
			for _, slug := range w.settled(now) {
				w.onChange(ctx, slug)
			}
		}
	}
}

func (w *Watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event, lg *zerolog.Logger) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return
	}
	rel, err := filepath.Rel(w.store.Root(), ev.Name)
	if err != nil {
		return
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	switch len(parts) {
	case 1:
		// New guide directory.
		if ev.Has(fsnotify.Create) && w.store.Exists(parts[0]) {
			if err := fw.Add(ev.Name); err != nil {
				lg.Warn().Err(err).Str("slug", parts[0]).Msg("watch guide dir")
			}
		}
	case 2:
		if parts[1] != TutorialFile && parts[1] != FlowFile {
			return
		}
		w.mu.Lock()
		w.pending[parts[0]] = time.Now()
		w.mu.Unlock()
	}
}

// settled returns the guides whose last event is older than the debounce
// window and forgets them.
func (w *Watcher) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for slug, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			out = append(out, slug)
			delete(w.pending, slug)
		}
	}
	return out
}
