package config

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/matchthumb/pkg/errors"
	"github.com/matzehuels/matchthumb/pkg/fonts"
)

// DefaultPath is where the template document is looked up when no path is given.
const DefaultPath = "static/config.json"

// Snapshot is one coherent (template, font) pair.
//
// Snapshots are values: the template's slices are private copies, and the
// font is immutable, so a composition holding a snapshot is unaffected by
// any reload that happens after it was taken.
type Snapshot struct {
	Template   Template
	Font       *fonts.Font
	Generation uint64    // increments on every successful load
	LoadedAt   time.Time // when the pair became active
}

// Store holds the active template and font and swaps them atomically on reload.
//
// Many goroutines may call Current and Sprites concurrently; Reload calls are
// serialized and only publish a new pair after every read and parse succeeded.
type Store struct {
	path   string
	logger *log.Logger

	mu      sync.RWMutex
	snap    Snapshot
	sprites []string

	reloadMu sync.Mutex

	hooksMu sync.Mutex
	hooks   []func(Snapshot)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for reload acknowledgments.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Load reads the template document at path and the font it references.
// A failure here is fatal for callers: there is no previous pair to fall back to.
func Load(path string, opts ...Option) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	s := &Store{path: path}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}

	snap, sprites, err := load(path, 1)
	if err != nil {
		return nil, err
	}
	s.snap = snap
	s.sprites = sprites

	s.logger.Debug("configuration loaded",
		"path", path,
		"size", formatSize(snap.Template),
		"sprites", len(sprites))
	return s, nil
}

// Path returns the template document path.
func (s *Store) Path() string {
	return s.path
}

// Current returns a snapshot of the active pair.
func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snap
	snap.Template = s.snap.Template.Clone()
	return snap
}

// Sprites returns the selectable sprite identifiers of the active template.
func (s *Store) Sprites() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.sprites...)
}

// Reload re-reads the template document, its font and the sprite listing.
// The active pair is replaced only when all of them succeed; otherwise the
// previous pair stays active and the error is returned.
func (s *Store) Reload() error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	s.mu.RLock()
	next := s.snap.Generation + 1
	s.mu.RUnlock()

	snap, sprites, err := load(s.path, next)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.snap = snap
	s.sprites = sprites
	s.mu.Unlock()

	s.logger.Info("Configuration reloaded.", "generation", snap.Generation, "sprites", len(sprites))

	s.hooksMu.Lock()
	hooks := slices.Clone(s.hooks)
	s.hooksMu.Unlock()
	for _, fn := range hooks {
		fn(s.Current())
	}
	return nil
}

// OnReload registers fn to run after every successful reload.
// Hooks run on the reloading goroutine, after the new pair is visible.
func (s *Store) OnReload(fn func(Snapshot)) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// load builds a complete snapshot without touching any shared state.
func load(path string, gen uint64) (Snapshot, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, nil, errors.Wrap(errors.ErrCodeConfigLoad, err, "read config %s", path)
	}

	format, err := FormatFor(path)
	if err != nil {
		return Snapshot{}, nil, errors.Wrap(errors.ErrCodeConfigLoad, err, "config %s", path)
	}

	tmpl, err := ParseTemplate(data, format)
	if err != nil {
		return Snapshot{}, nil, errors.Wrap(errors.ErrCodeConfigLoad, err, "parse config %s", path)
	}

	font, err := loadFont(tmpl)
	if err != nil {
		return Snapshot{}, nil, err
	}

	sprites, err := ListSprites(tmpl)
	if err != nil {
		return Snapshot{}, nil, errors.Wrap(errors.ErrCodeConfigLoad, err, "list sprites")
	}

	return Snapshot{
		Template:   tmpl,
		Font:       font,
		Generation: gen,
		LoadedAt:   time.Now(),
	}, sprites, nil
}

// loadFont reads and parses the template's font, or returns the built-in
// font when the template does not name one.
func loadFont(t Template) (*fonts.Font, error) {
	path := t.FontPath()
	if path == "" {
		f, err := fonts.Fallback()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigLoad, err, "load built-in font")
		}
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigLoad, err, "read font %s", path)
	}
	f, err := fonts.Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigLoad, err, "font %s", path)
	}
	return f, nil
}

// ListSprites returns the names of the regular files directly inside the
// template's sprite directory, sorted.
func ListSprites(t Template) ([]string, error) {
	dir := t.Resolve(t.SpriteDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func formatSize(t Template) string {
	return fmt.Sprintf("%dx%d", t.Width, t.Height)
}
