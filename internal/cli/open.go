package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/bootspace/internal/logging"
	"github.com/danieljhkim/bootspace/internal/metastore"
)

var openLocale string

// openCmd opens a workspace root and records it as recent.
var openCmd = &cobra.Command{
	Use:   "open <root>",
	Short: "Open a workspace root",
	Long: `Open a workspace root, creating its layout and metadata store if needed.

The root gets meta/, logs/ and nodes/ directories. The operations log is
bound to the first workspace opened by a process. Every open, successful or
not, is recorded in the recent workspaces list.

When --locale is omitted the default_locale from config.yaml is applied, or
the stored locale is kept if that is empty too.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		locale := openLocale
		if locale == "" {
			locale = a.cfg.DefaultLocale
		}
		var localeArg *string
		if locale != "" {
			localeArg = &locale
		}

		settings, err := a.svc.Open(context.Background(), args[0], localeArg)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(settings)
		}

		PrintSection("Open Workspace")
		PrintSuccess(fmt.Sprintf("Opened %s", settings.RootPath))
		printSettings(settings)
		if logging.Default.Bound() {
			PrintLabelValue("Log", logging.Default.Path())
		}
		return nil
	},
}

// settingsRoot is the --root flag of the settings command.
var settingsRoot string

// settingsCmd shows the metadata of a workspace.
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show workspace settings",
	Long: `Show the settings stored in a workspace's metadata store.

Without --root the most recently opened workspace is used.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		ctx := context.Background()
		if err := a.openRoot(ctx, settingsRoot, nil); err != nil {
			return err
		}

		settings, err := a.svc.Settings(ctx)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(settings)
		}

		PrintSection("Workspace Settings")
		printSettings(settings)
		return nil
	},
}

func printSettings(s *metastore.Settings) {
	if s == nil {
		PrintEmptyState("No workspace open")
		return
	}
	PrintLabelValue("Root", s.RootPath)
	PrintLabelValue("Locale", s.Locale)
	PrintLabelValue("Updated", s.UpdatedAt.Local().Format(time.RFC3339))
}

func init() {
	openCmd.Flags().StringVar(&openLocale, "locale", "", "Locale to store for the workspace (e.g. en-US)")
	settingsCmd.Flags().StringVar(&settingsRoot, "root", "", "Workspace root (defaults to the most recent workspace)")
}
