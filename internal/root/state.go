// Package root holds the process-wide handle to the open workspace.
//
// The state is either uninitialized or an immutable (paths, store) pair.
// Initialize does its I/O without holding the lock and takes the write half
// only to swap the pair in, so readers never wait on a rival caller's disk
// work and never observe a pair from two different workspaces.
package root

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/danieljhkim/bootspace/internal/config"
	"github.com/danieljhkim/bootspace/internal/logging"
	"github.com/danieljhkim/bootspace/internal/metastore"
)

var (
	// ErrRootNotInitialized indicates no workspace has been opened yet.
	ErrRootNotInitialized = errors.New("workspace root not initialized")

	// ErrInitialization wraps any failure while opening a workspace.
	ErrInitialization = errors.New("workspace initialization failed")
)

// MetadataStore is the part of the metadata database the state machine uses.
type MetadataStore interface {
	UpdateRootPath(ctx context.Context, root string) error
	UpdateLocale(ctx context.Context, locale string) error
	GetSettings(ctx context.Context) (*metastore.Settings, error)
	Close() error
}

// Opener opens or creates the metadata store of a workspace.
type Opener func(paths config.AppPaths) (MetadataStore, error)

// LogBinder binds the diagnostic log to a file at most once per process.
type LogBinder interface {
	Bind(path string) (bool, error)
	Path() string
	Logger() *zap.Logger
}

// opened is the initialized variant. It is never mutated after creation.
type opened struct {
	paths config.AppPaths
	store MetadataStore
}

// State is the root state machine. The zero value is not usable; use New.
type State struct {
	mu      sync.RWMutex
	current *opened // nil while uninitialized

	open Opener
	sink LogBinder
}

// New creates an uninitialized State.
func New(open Opener, sink LogBinder) *State {
	return &State{open: open, sink: sink}
}

// NewDefault creates a State backed by SQLite and the process log sink.
func NewDefault() *State {
	return New(func(paths config.AppPaths) (MetadataStore, error) {
		return metastore.Open(paths)
	}, logging.Default)
}

// Initialize opens the workspace at root and makes it current. When locale
// is non-nil it is persisted. On failure the previously current workspace,
// if any, stays current.
func (s *State) Initialize(ctx context.Context, root string, locale *string) (*metastore.Settings, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve root %s: %w", ErrInitialization, root, err)
	}
	paths := config.NewAppPaths(abs)

	if err := paths.EnsureLayout(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	bound, err := s.sink.Bind(paths.OpsLogPath())
	if err != nil {
		return nil, fmt.Errorf("%w: bind log: %w", ErrInitialization, err)
	}
	log := s.sink.Logger().With(zap.String("root", paths.Root))
	if !bound {
		log.Debug("log sink already bound, not redirected",
			zap.String("wanted", paths.OpsLogPath()),
			zap.String("bound", s.sink.Path()))
	}

	store, err := s.open(paths)
	if err != nil {
		return nil, fmt.Errorf("%w: open metadata store: %w", ErrInitialization, err)
	}

	settings, err := prepare(ctx, store, paths.Root, locale)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	next := &opened{paths: paths, store: store}
	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	log.Info("workspace initialized", zap.String("locale", settings.Locale))
	return settings, nil
}

func prepare(ctx context.Context, store MetadataStore, root string, locale *string) (*metastore.Settings, error) {
	if err := store.UpdateRootPath(ctx, root); err != nil {
		return nil, err
	}
	if locale != nil {
		if err := store.UpdateLocale(ctx, *locale); err != nil {
			return nil, err
		}
	}
	return store.GetSettings(ctx)
}

func (s *State) snapshot() *opened {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Initialized reports whether a workspace is open.
func (s *State) Initialized() bool {
	return s.snapshot() != nil
}

// Settings reads the current workspace's settings. It returns nil, nil when
// no workspace is open.
func (s *State) Settings(ctx context.Context) (*metastore.Settings, error) {
	cur := s.snapshot()
	if cur == nil {
		return nil, nil
	}
	return cur.store.GetSettings(ctx)
}

// Paths returns the current workspace layout.
func (s *State) Paths() (config.AppPaths, error) {
	cur := s.snapshot()
	if cur == nil {
		return config.AppPaths{}, ErrRootNotInitialized
	}
	return cur.paths, nil
}

// Store returns the current workspace's metadata store.
func (s *State) Store() (MetadataStore, error) {
	cur := s.snapshot()
	if cur == nil {
		return nil, ErrRootNotInitialized
	}
	return cur.store, nil
}

// Current returns the layout and store of the same workspace.
func (s *State) Current() (config.AppPaths, MetadataStore, error) {
	cur := s.snapshot()
	if cur == nil {
		return config.AppPaths{}, nil, ErrRootNotInitialized
	}
	return cur.paths, cur.store, nil
}
