package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// DataDirEnv overrides the application data directory.
const DataDirEnv = "BOOTSPACE_DATA_DIR"

const appDirName = "bootspace"

// DataDir returns the per-user application data directory.
// Resolution order:
//   - BOOTSPACE_DATA_DIR
//   - %LOCALAPPDATA%\bootspace on Windows
//   - os.UserConfigDir()/bootspace elsewhere
func DataDir() (string, error) {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return dir, nil
	}

	if runtime.GOOS == "windows" {
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, appDirName), nil
		}
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

// RecentsPath returns the recents ledger file inside dataDir.
func RecentsPath(dataDir string) string {
	return filepath.Join(dataDir, "recents.json")
}

// ConfigPath returns the optional config file inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config.yaml")
}
