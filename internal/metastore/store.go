// Package metastore is the per-workspace metadata database at
// <root>/meta/state.db. Only the settings accessor lives here; the node
// tables are owned elsewhere.
package metastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danieljhkim/bootspace/internal/config"
)

// DefaultLocale is the locale of a freshly created store.
const DefaultLocale = "en-US"

// schemaVersion is stored in PRAGMA user_version.
const schemaVersion = 1

// Settings are the workspace-wide values kept in the store.
type Settings struct {
	RootPath  string    `json:"root_path"`
	Locale    string    `json:"locale"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store implements the metadata store on SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the store for a workspace.
func Open(paths config.AppPaths) (*Store, error) {
	return OpenFile(paths.StateDBPath())
}

// OpenFile opens or creates a store at an explicit file path.
func OpenFile(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create meta directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps the pragmas below in effect for every statement.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, path: path}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initialize() error {
	pragmas := []string{
		"PRAGMA busy_timeout=5000;",
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		root_path TEXT NOT NULL DEFAULT '',
		locale TEXT NOT NULL DEFAULT '` + DefaultLocale + `',
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	if _, err := s.db.Exec(
		"INSERT OR IGNORE INTO settings (id, updated_at) VALUES (1, ?)",
		time.Now().UnixNano(),
	); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version=%d;", schemaVersion))
	return err
}

// UpdateRootPath records the workspace root the store was opened from.
func (s *Store) UpdateRootPath(ctx context.Context, root string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE settings SET root_path = ?, updated_at = ? WHERE id = 1",
		root, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("update root path: %w", err)
	}
	return nil
}

// UpdateLocale records the workspace locale.
func (s *Store) UpdateLocale(ctx context.Context, locale string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE settings SET locale = ?, updated_at = ? WHERE id = 1",
		locale, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("update locale: %w", err)
	}
	return nil
}

// GetSettings reads the settings row.
func (s *Store) GetSettings(ctx context.Context) (*Settings, error) {
	var (
		settings Settings
		updated  int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT root_path, locale, updated_at FROM settings WHERE id = 1",
	).Scan(&settings.RootPath, &settings.Locale, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settings row missing from %s", s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	settings.UpdatedAt = time.Unix(0, updated).UTC()
	return &settings, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
