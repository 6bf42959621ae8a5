package recents

import (
	"fmt"
	"time"
)

// Status is the outcome last recorded for a workspace.
type Status string

const (
	// StatusOK means the workspace opened successfully.
	StatusOK Status = "ok"

	// StatusMissingRoot means the workspace root directory no longer exists.
	StatusMissingRoot Status = "missing_root"

	// StatusMissingStateDB means the root exists but meta/state.db does not.
	StatusMissingStateDB Status = "missing_state_db"

	// StatusInitFailed means the last attempt to open the workspace failed.
	StatusInitFailed Status = "init_failed"
)

// UnmarshalText rejects unknown statuses, which makes the ledger file
// unparseable as a whole.
func (s *Status) UnmarshalText(text []byte) error {
	switch v := Status(text); v {
	case StatusOK, StatusMissingRoot, StatusMissingStateDB, StatusInitFailed:
		*s = v
		return nil
	default:
		return fmt.Errorf("unknown recent workspace status %q", text)
	}
}

// RecentWorkspace is one ledger record.
type RecentWorkspace struct {
	// Path is the workspace root as last supplied by the caller.
	Path string `json:"path"`

	// LastOpenedAt is when the workspace was last touched.
	LastOpenedAt time.Time `json:"last_opened_at"`

	// Pinned records survive pruning and sort first.
	Pinned bool `json:"pinned"`

	// LastStatus is the last recorded or inferred outcome.
	LastStatus Status `json:"last_status"`

	// NodeCount is the number of boot images, when known.
	NodeCount *uint32 `json:"node_count"`

	// Locale is the workspace locale, when known.
	Locale *string `json:"locale"`
}
