// Package config manages bootspace configuration and filesystem paths.
//
// Two kinds of locations exist. A workspace root (chosen by the user) holds
// the boot image tree and its metadata; AppPaths derives everything under it.
// The application data directory holds per-user state that is independent of
// any workspace, such as the recents ledger and the optional config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// MetaDirName is the directory under a workspace root holding the metadata store.
	MetaDirName = "meta"

	// StateDBName is the metadata store file name inside MetaDirName.
	StateDBName = "state.db"

	// LogsDirName is the directory under a workspace root holding diagnostic logs.
	LogsDirName = "logs"

	// OpsLogName is the operations log file name inside LogsDirName.
	OpsLogName = "ops.log"

	// NodesDirName is the directory under a workspace root holding boot images.
	NodesDirName = "nodes"
)

// AppPaths contains all the filesystem paths derived from a workspace root.
type AppPaths struct {
	// Root is the workspace root directory.
	Root string

	// Meta is the directory containing the metadata store.
	Meta string

	// StateDB is the metadata store file (<root>/meta/state.db).
	StateDB string

	// Logs is the directory containing the operations log.
	Logs string

	// OpsLog is the operations log file.
	OpsLog string

	// Nodes is the directory containing base and differencing disks.
	Nodes string
}

// NewAppPaths derives the workspace layout from root. It does not touch the
// filesystem.
func NewAppPaths(root string) AppPaths {
	root = filepath.Clean(root)
	meta := filepath.Join(root, MetaDirName)
	logs := filepath.Join(root, LogsDirName)
	return AppPaths{
		Root:    root,
		Meta:    meta,
		StateDB: filepath.Join(meta, StateDBName),
		Logs:    logs,
		OpsLog:  filepath.Join(logs, OpsLogName),
		Nodes:   filepath.Join(root, NodesDirName),
	}
}

// StateDBPath returns the metadata store location for a workspace root.
// A workspace has a live metadata store iff this file exists.
func StateDBPath(root string) string {
	return filepath.Join(root, MetaDirName, StateDBName)
}

// OpsLogPath returns the operations log file.
func (p AppPaths) OpsLogPath() string {
	return p.OpsLog
}

// StateDBPath returns the metadata store file.
func (p AppPaths) StateDBPath() string {
	return p.StateDB
}

// EnsureLayout creates the workspace directory structure if it doesn't exist.
func (p AppPaths) EnsureLayout() error {
	dirs := []string{
		p.Root,
		p.Meta,
		p.Logs,
		p.Nodes,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
