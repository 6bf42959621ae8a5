package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/bootspace/internal/recents"
)

// recentsCmd is the parent command for the recent workspaces list.
var recentsCmd = &cobra.Command{
	Use:   "recents",
	Short: "Manage recently opened workspaces",
	Long: fmt.Sprintf(`Manage the list of recently opened workspaces.

Pinned workspaces are listed first and are never pruned. At most %d
unpinned workspaces are kept.`, recents.MaxRecent),
}

var recentsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recent workspaces",
	Long: `List recent workspaces, pinned first, then most recently opened.

The status of each entry is refreshed from disk: a root that no longer
exists is missing_root, and a root without meta/state.db is missing_state_db.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		items, err := listRecents(a)
		if err != nil {
			return err
		}

		if jsonOutput {
			if items == nil {
				items = []recents.RecentWorkspace{}
			}
			return outputJSON(items)
		}

		if len(items) == 0 {
			PrintSection("Recent Workspaces")
			PrintEmptyState("No recent workspaces")
			return nil
		}

		PrintSection("Recent Workspaces")
		rows := make([][]string, 0, len(items))
		for _, item := range items {
			pin := ""
			if item.Pinned {
				pin = "*"
			}
			nodes := "-"
			if item.NodeCount != nil {
				nodes = strconv.FormatUint(uint64(*item.NodeCount), 10)
			}
			locale := "-"
			if item.Locale != nil {
				locale = *item.Locale
			}
			rows = append(rows, []string{
				pin,
				item.Path,
				string(item.LastStatus),
				nodes,
				locale,
				item.LastOpenedAt.Local().Format(time.DateTime),
			})
		}
		PrintTable([]string{"", "Path", "Status", "Nodes", "Locale", "Last Opened"}, rows)
		return nil
	},
}

var recentsRmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Forget a recent workspace",
	Long:  `Remove a workspace from the recent list. Files on disk are not touched.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.svc.Ledger().Remove(args[0]); err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(map[string]string{"removed": args[0]})
		}
		PrintSuccess(fmt.Sprintf("Removed %s from recent workspaces", args[0]))
		return nil
	},
}

var recentsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget all recent workspaces",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.svc.Ledger().Clear(); err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(map[string]bool{"cleared": true})
		}
		PrintSuccess("Cleared recent workspaces")
		return nil
	},
}

func newPinCmd(use, short, done string, pinned bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <path>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			found, err := a.svc.Ledger().SetPinned(args[0], pinned)
			if err != nil {
				return err
			}
			if jsonOutput {
				return outputJSON(map[string]interface{}{"path": args[0], "pinned": pinned, "found": found})
			}
			if !found {
				PrintWarning(fmt.Sprintf("%s is not a recent workspace", args[0]))
				return nil
			}
			PrintSuccess(fmt.Sprintf("%s %s", done, args[0]))
			return nil
		},
	}
}

func init() {
	recentsCmd.AddCommand(recentsLsCmd)
	recentsCmd.AddCommand(recentsRmCmd)
	recentsCmd.AddCommand(recentsClearCmd)
	recentsCmd.AddCommand(newPinCmd("pin", "Pin a recent workspace", "Pinned", true))
	recentsCmd.AddCommand(newPinCmd("unpin", "Unpin a recent workspace", "Unpinned", false))
}
