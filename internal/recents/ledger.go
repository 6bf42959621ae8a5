// Package recents keeps the list of recently opened workspaces.
//
// The ledger is a convenience index, not a source of truth: it is a single
// JSON file rewritten in full on every change, an unreadable file is treated
// as empty, and concurrent writers race with the last rewrite winning.
// Records are keyed by normalized path and capped at MaxRecent; pinned
// records are never evicted, so a ledger with more than MaxRecent pinned
// records stays over the cap.
package recents

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/danieljhkim/bootspace/internal/clock"
	"github.com/danieljhkim/bootspace/internal/config"
	"github.com/danieljhkim/bootspace/internal/fsops"
)

// MaxRecent is the number of records kept after pruning.
const MaxRecent = 10

// Ledger persists RecentWorkspace records to a JSON file.
type Ledger struct {
	fs    fsops.FS
	path  string
	clock clock.Clock
}

// New creates a Ledger backed by the file at path.
func New(fs fsops.FS, path string, clk clock.Clock) *Ledger {
	return &Ledger{fs: fs, path: path, clock: clk}
}

// Path returns the backing file.
func (l *Ledger) Path() string {
	return l.path
}

// NormalizePath returns the key two workspace paths are compared by:
// trimmed, without the \\?\ prefix, \-separated and lowercased.
func NormalizePath(path string) string {
	s := strings.TrimSpace(path)
	s = strings.ReplaceAll(s, "/", `\`)
	for strings.HasPrefix(s, `\\?\`) {
		s = s[len(`\\?\`):]
	}
	return strings.ToLower(s)
}

// List returns every record with liveness re-inferred, pinned first and then
// most recent first. The file is rewritten only if an inferred status changed;
// if that write fails the records are still returned alongside the error.
func (l *Ledger) List() ([]RecentWorkspace, error) {
	items, err := l.load()
	if err != nil {
		return nil, err
	}

	changed := false
	for i := range items {
		status := l.inferStatus(&items[i])
		if status != items[i].LastStatus {
			items[i].LastStatus = status
			changed = true
		}
	}

	sortItems(items)
	if changed {
		if err := l.save(items); err != nil {
			return items, err
		}
	}
	return items, nil
}

// Touch records that path was opened with status. locale and nodeCount
// replace stored values only when non-nil.
func (l *Ledger) Touch(path string, status Status, locale *string, nodeCount *uint32) error {
	key := NormalizePath(path)
	items, err := l.load()
	if err != nil {
		return err
	}
	now := l.clock.Now()

	idx := slices.IndexFunc(items, func(item RecentWorkspace) bool {
		return NormalizePath(item.Path) == key
	})
	if idx >= 0 {
		existing := &items[idx]
		existing.Path = path
		existing.LastOpenedAt = now
		existing.LastStatus = status
		if locale != nil {
			existing.Locale = locale
		}
		if nodeCount != nil {
			existing.NodeCount = nodeCount
		}
	} else {
		items = append(items, RecentWorkspace{
			Path:         path,
			LastOpenedAt: now,
			LastStatus:   status,
			NodeCount:    nodeCount,
			Locale:       locale,
		})
	}

	items = prune(items)
	sortItems(items)
	return l.save(items)
}

// SetPinned pins or unpins every record matching path. It reports whether a
// record matched; an unknown path is not an error.
func (l *Ledger) SetPinned(path string, pinned bool) (bool, error) {
	key := NormalizePath(path)
	items, err := l.load()
	if err != nil {
		return false, err
	}

	matched := false
	for i := range items {
		if NormalizePath(items[i].Path) == key {
			items[i].Pinned = pinned
			matched = true
		}
	}
	if !matched {
		return false, nil
	}

	items = prune(items)
	sortItems(items)
	return true, l.save(items)
}

// Remove deletes every record matching path. An unknown path is a no-op.
func (l *Ledger) Remove(path string) error {
	key := NormalizePath(path)
	items, err := l.load()
	if err != nil {
		return err
	}

	items = slices.DeleteFunc(items, func(item RecentWorkspace) bool {
		return NormalizePath(item.Path) == key
	})
	sortItems(items)
	return l.save(items)
}

// Clear deletes the backing file.
func (l *Ledger) Clear() error {
	if err := l.fs.Remove(l.path); err != nil {
		return fmt.Errorf("failed to delete recents: %w", err)
	}
	return nil
}

// load reads the ledger. A missing or unparseable file yields no records.
// Zero timestamps are repaired to now.
func (l *Ledger) load() ([]RecentWorkspace, error) {
	data, err := l.fs.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read recents: %w", err)
	}

	var items []RecentWorkspace
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, nil
	}

	now := l.clock.Now()
	for i := range items {
		if isZeroTimestamp(items[i].LastOpenedAt) {
			items[i].LastOpenedAt = now
		}
	}
	return items, nil
}

func (l *Ledger) save(items []RecentWorkspace) error {
	if items == nil {
		items = []RecentWorkspace{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal recents: %w", err)
	}
	if err := l.fs.AtomicWrite(l.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write recents: %w", err)
	}
	return nil
}

// inferStatus detects a workspace that disappeared since it was recorded.
// It never upgrades a stored failure to ok.
func (l *Ledger) inferStatus(item *RecentWorkspace) Status {
	if !l.exists(item.Path) {
		return StatusMissingRoot
	}
	if !l.exists(config.StateDBPath(item.Path)) {
		return StatusMissingStateDB
	}
	return item.LastStatus
}

func (l *Ledger) exists(path string) bool {
	ok, err := l.fs.Exists(path)
	return err == nil && ok
}

func isZeroTimestamp(t time.Time) bool {
	return t.IsZero() || t.Equal(time.Unix(0, 0))
}

// prune evicts the least recently opened unpinned records until at most
// MaxRecent remain or only pinned records are left.
func prune(items []RecentWorkspace) []RecentWorkspace {
	if len(items) <= MaxRecent {
		return items
	}
	sortItems(items)
	for len(items) > MaxRecent {
		victim := -1
		for i := len(items) - 1; i >= 0; i-- {
			if !items[i].Pinned {
				victim = i
				break
			}
		}
		if victim < 0 {
			break
		}
		items = slices.Delete(items, victim, victim+1)
	}
	return items
}

// sortItems orders pinned records first, then by LastOpenedAt descending.
func sortItems(items []RecentWorkspace) {
	slices.SortStableFunc(items, func(a, b RecentWorkspace) int {
		if a.Pinned != b.Pinned {
			if a.Pinned {
				return -1
			}
			return 1
		}
		return b.LastOpenedAt.Compare(a.LastOpenedAt)
	})
}
