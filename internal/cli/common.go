package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/danieljhkim/bootspace/internal/bcd"
	"github.com/danieljhkim/bootspace/internal/clock"
	"github.com/danieljhkim/bootspace/internal/config"
	"github.com/danieljhkim/bootspace/internal/execx"
	"github.com/danieljhkim/bootspace/internal/fsops"
	"github.com/danieljhkim/bootspace/internal/logging"
	"github.com/danieljhkim/bootspace/internal/recents"
	"github.com/danieljhkim/bootspace/internal/root"
	"github.com/danieljhkim/bootspace/internal/workspace"
)

// ErrNoWorkspace is returned when a command needs a workspace and none was
// given or recently opened.
var ErrNoWorkspace = errors.New("no workspace given; pass --root or open one first")

// newRunner creates the runner for external tools. Tests replace it.
var newRunner = func() execx.Runner {
	return execx.NewExecRunner()
}

// app bundles what a command needs.
type app struct {
	cfg *config.Config
	svc *workspace.Service
}

// newApp creates the service with real implementations of all dependencies.
func newApp() (*app, error) {
	dataDir, err := config.DataDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir: %w", err)
	}

	cfg, err := config.Load(config.ConfigPath(dataDir))
	if err != nil {
		return nil, err
	}
	if err := logging.Default.SetLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	runner := newRunner()
	ledger := recents.New(fsops.NewRealFS(), config.RecentsPath(dataDir), clock.System{})
	client := bcd.NewClient(runner, bcd.Tools{
		Bcdedit: cfg.BcdeditPath,
		Bcdboot: cfg.BcdbootPath,
	})

	return &app{
		cfg: cfg,
		svc: workspace.New(root.NewDefault(), ledger, client, runner),
	}, nil
}

// resolveRoot returns explicit if set, otherwise the most recently opened
// workspace whose last open succeeded.
func (a *app) resolveRoot(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	items, err := listRecents(a)
	if err != nil {
		return "", err
	}
	for _, item := range items {
		if item.LastStatus == recents.StatusOK {
			return item.Path, nil
		}
	}
	return "", ErrNoWorkspace
}

// listRecents lists the ledger. A failure to write back refreshed statuses
// is logged; only an unreadable ledger is an error.
func listRecents(a *app) ([]recents.RecentWorkspace, error) {
	items, err := a.svc.Ledger().List()
	if err != nil {
		if items == nil {
			return nil, err
		}
		logging.L().Warn("failed to save recent workspace statuses", zap.Error(err))
	}
	return items, nil
}

// openRoot opens the workspace named by explicit or the ledger.
func (a *app) openRoot(ctx context.Context, explicit string, locale *string) error {
	path, err := a.resolveRoot(explicit)
	if err != nil {
		return err
	}
	_, err = a.svc.Open(ctx, path, locale)
	return err
}

// FormatError formats an error for display.
func FormatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
