// Package workspace provides the operations the CLI exposes.
//
// Service is the orchestration layer between commands and the lower-level
// packages. It opens workspaces through the root state machine, records the
// outcome in the recents ledger, and drives boot store changes through the
// bcd client.
//
// Key operations:
//   - Open / Settings: workspace lifecycle
//   - RegisterBootEntry / DeleteBootEntry / RepairBootEntry: boot entry lifecycle
//   - BootNext / DescribeBootEntry / FindBootEntry / BootEntries: boot entry queries and edits
package workspace

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danieljhkim/bootspace/internal/bcd"
	"github.com/danieljhkim/bootspace/internal/config"
	"github.com/danieljhkim/bootspace/internal/execx"
	"github.com/danieljhkim/bootspace/internal/logging"
	"github.com/danieljhkim/bootspace/internal/metastore"
	"github.com/danieljhkim/bootspace/internal/recents"
	"github.com/danieljhkim/bootspace/internal/root"
)

// ErrNoBootEntry indicates no boot entry references the virtual disk.
var ErrNoBootEntry = errors.New("no boot entry for virtual disk")

// Service orchestrates workspace and boot store operations.
type Service struct {
	state  *root.State
	ledger *recents.Ledger
	client *bcd.Client
	runner execx.Runner

	// entryLocks serializes mutations of the same boot entry.
	entryLocks keyedMutex
}

// New creates a new Service with the given dependencies.
func New(state *root.State, ledger *recents.Ledger, client *bcd.Client, runner execx.Runner) *Service {
	return &Service{
		state:  state,
		ledger: ledger,
		client: client,
		runner: runner,
	}
}

// Ledger returns the recents ledger.
func (s *Service) Ledger() *recents.Ledger {
	return s.ledger
}

func opLogger(op string, fields ...zap.Field) *zap.Logger {
	return logging.L().With(append([]zap.Field{
		zap.String("op", op),
		zap.String("op_id", uuid.NewString()),
	}, fields...)...)
}

// Open makes rootPath the current workspace and records the outcome in the
// ledger under its absolute path. Ledger failures are logged and never fail
// the open.
func (s *Service) Open(ctx context.Context, rootPath string, locale *string) (*metastore.Settings, error) {
	settings, err := s.state.Initialize(ctx, rootPath, locale)
	log := opLogger("open", zap.String("root", rootPath))
	if err != nil {
		log.Error("open failed", zap.Error(err))
		recorded := rootPath
		if abs, aerr := filepath.Abs(rootPath); aerr == nil {
			recorded = abs
		}
		if terr := s.ledger.Touch(recorded, recents.StatusInitFailed, nil, nil); terr != nil {
			log.Warn("failed to record recent workspace", zap.Error(terr))
		}
		return nil, err
	}

	// Counted from the returned settings; the current state may already
	// belong to a rival Open.
	nodeCount := countImages(config.NewAppPaths(settings.RootPath).Nodes)

	resolved := settings.Locale
	if terr := s.ledger.Touch(settings.RootPath, recents.StatusOK, &resolved, &nodeCount); terr != nil {
		log.Warn("failed to record recent workspace", zap.Error(terr))
	}
	log.Info("workspace opened", zap.String("locale", settings.Locale))
	return settings, nil
}

// Settings returns the open workspace's settings, or nil when none is open.
func (s *Service) Settings(ctx context.Context) (*metastore.Settings, error) {
	settings, err := s.state.Settings(ctx)
	if errors.Is(err, root.ErrRootNotInitialized) {
		return nil, nil
	}
	return settings, err
}

// FindBootEntry returns the identifier of the entry booting vhdPath.
func (s *Service) FindBootEntry(ctx context.Context, vhdPath string) (string, bool, error) {
	return s.client.FindByVhd(ctx, vhdPath)
}

// FindBootEntryByLetter returns the identifier of the entry whose device is
// the partition with the given drive letter.
func (s *Service) FindBootEntryByLetter(ctx context.Context, letter rune) (string, bool, error) {
	return s.client.FindByPartitionLetter(ctx, letter)
}

// BootEntries lists every entry in the boot store.
func (s *Service) BootEntries(ctx context.Context) ([]bcd.Entry, error) {
	return s.client.Entries(ctx)
}

// RegisterBootEntry installs boot files from systemDir (the mounted Windows
// volume of vhdPath) and returns the entry bcdboot created. The entry is
// located by virtual-disk path first, then by the drive letter of systemDir.
// found is false when bcdboot succeeded but no entry could be identified.
func (s *Service) RegisterBootEntry(ctx context.Context, systemDir, vhdPath, description string) (guid string, found bool, err error) {
	log := opLogger("register", zap.String("vhd", vhdPath), zap.String("system_dir", systemDir))

	if _, err := s.client.InstallBootFiles(ctx, systemDir); err != nil {
		log.Error("bcdboot failed", zap.Error(err))
		return "", false, err
	}

	out, err := s.client.EnumerateAll(ctx)
	if err != nil {
		return "", false, err
	}
	guid, found = bcd.MatchByVhd(out.Stdout, vhdPath)
	if !found {
		if letter, ok := driveLetter(systemDir); ok {
			guid, found = bcd.MatchByPartitionLetter(out.Stdout, letter)
		}
	}
	if !found {
		log.Warn("boot files installed but no entry matched")
		return "", false, nil
	}

	if description != "" {
		unlock := s.entryLocks.lock(guid)
		defer unlock()
		if _, err := s.client.SetDescription(ctx, guid, description); err != nil {
			return guid, true, err
		}
	}

	log.Info("boot entry registered", zap.String("guid", guid))
	return guid, true, nil
}

// DeleteBootEntry removes the entry booting vhdPath. It reports whether an
// entry existed; a missing entry is not an error.
func (s *Service) DeleteBootEntry(ctx context.Context, vhdPath string) (bool, error) {
	guid, found, err := s.client.FindByVhd(ctx, vhdPath)
	if err != nil || !found {
		return false, err
	}

	unlock := s.entryLocks.lock(guid)
	defer unlock()
	if _, err := s.client.DeleteEntry(ctx, guid); err != nil {
		return false, err
	}

	opLogger("delete", zap.String("vhd", vhdPath)).Info("boot entry deleted", zap.String("guid", guid))
	return true, nil
}

// RepairBootEntry deletes any entry for vhdPath and registers a fresh one.
func (s *Service) RepairBootEntry(ctx context.Context, systemDir, vhdPath, description string) (string, bool, error) {
	if _, err := s.DeleteBootEntry(ctx, vhdPath); err != nil {
		return "", false, err
	}
	return s.RegisterBootEntry(ctx, systemDir, vhdPath, description)
}

// DescribeBootEntry renames the entry booting vhdPath.
func (s *Service) DescribeBootEntry(ctx context.Context, vhdPath, description string) (string, error) {
	guid, found, err := s.client.FindByVhd(ctx, vhdPath)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrNoBootEntry
	}

	unlock := s.entryLocks.lock(guid)
	defer unlock()
	if _, err := s.client.SetDescription(ctx, guid, description); err != nil {
		return guid, err
	}
	return guid, nil
}

// BootNext makes the entry booting vhdPath the target of the next boot and,
// when reboot is set, restarts the machine.
func (s *Service) BootNext(ctx context.Context, vhdPath string, reboot bool) (string, error) {
	log := opLogger("boot-next", zap.String("vhd", vhdPath))

	guid, found, err := s.client.FindByVhd(ctx, vhdPath)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrNoBootEntry
	}

	unlock := s.entryLocks.lock(guid)
	defer unlock()
	if _, err := s.client.SetNextBoot(ctx, guid); err != nil {
		return guid, err
	}
	log.Info("next boot set", zap.String("guid", guid), zap.Bool("reboot", reboot))

	if reboot {
		if _, err := s.runner.Run(ctx, execx.Command{
			Name:     "shutdown",
			Args:     []string{"/r", "/t", "0"},
			Elevated: true,
		}); err != nil {
			return guid, err
		}
	}
	return guid, nil
}

// IsAdmin reports whether the process can run elevated commands.
func IsAdmin() (bool, error) {
	return execx.IsElevated()
}

// driveLetter returns the drive letter of a path like "V:" or `V:\`.
func driveLetter(path string) (rune, bool) {
	if len(path) < 2 || path[1] != ':' {
		return 0, false
	}
	c := rune(path[0])
	if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		return c, true
	}
	return 0, false
}

// countImages counts .vhd and .vhdx files under dir. Unreadable
// subdirectories are skipped.
func countImages(dir string) uint32 {
	var n uint32
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".vhd", ".vhdx":
			n++
		}
		return nil
	})
	return n
}

// keyedMutex hands out one mutex per boot entry identifier.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	key = strings.ToLower(key)
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
