package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/bootspace/internal/bcd"
)

var (
	bcdRoot        string
	bcdVhd         string
	bcdLetter      string
	bcdSystemDir   string
	bcdDescription string
	bcdReboot      bool
)

// bcdCmd is the parent command for boot store operations.
var bcdCmd = &cobra.Command{
	Use:   "bcd",
	Short: "Manage boot entries for virtual disks",
	Long: `Manage Windows boot entries for workspace virtual disks.

Every subcommand drives bcdedit or bcdboot and needs an elevated prompt.
Entries are located by the virtual disk path on their device or osdevice
line. With --root the workspace is opened first so the operation is written
to its operations log.`,
}

// bcdApp creates the app and, when --root is given, opens that workspace.
func bcdApp(ctx context.Context) (*app, error) {
	a, err := newApp()
	if err != nil {
		return nil, err
	}
	if bcdRoot != "" {
		if err := a.openRoot(ctx, bcdRoot, nil); err != nil {
			return nil, err
		}
	}
	return a, nil
}

type bcdResult struct {
	Vhd        string `json:"vhd,omitempty"`
	Identifier string `json:"identifier,omitempty"`
	Found      bool   `json:"found"`
}

var bcdLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List boot entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := bcdApp(ctx)
		if err != nil {
			return err
		}

		entries, err := a.svc.BootEntries(ctx)
		if err != nil {
			return err
		}

		if jsonOutput {
			if entries == nil {
				entries = []bcd.Entry{}
			}
			return outputJSON(entries)
		}

		PrintSection("Boot Entries")
		if len(entries) == 0 {
			PrintEmptyState("No boot entries found")
			return nil
		}
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			vhd, ok := e.Vhd()
			if !ok {
				vhd = "-"
			}
			rows = append(rows, []string{e.Identifier, e.Description, vhd})
		}
		PrintTable([]string{"Identifier", "Description", "Virtual Disk"}, rows)
		return nil
	},
}

var bcdFindCmd = &cobra.Command{
	Use:   "find",
	Short: "Find the boot entry for a virtual disk or drive letter",
	Long: `Find the boot entry whose device boots the given virtual disk (--vhd)
or the given partition drive letter (--letter).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (bcdVhd == "") == (bcdLetter == "") {
			return errors.New("exactly one of --vhd or --letter is required")
		}

		ctx := context.Background()
		a, err := bcdApp(ctx)
		if err != nil {
			return err
		}

		var (
			guid  string
			found bool
		)
		if bcdVhd != "" {
			guid, found, err = a.svc.FindBootEntry(ctx, bcdVhd)
		} else {
			letter, perr := parseDriveLetter(bcdLetter)
			if perr != nil {
				return perr
			}
			guid, found, err = a.svc.FindBootEntryByLetter(ctx, letter)
		}
		if err != nil {
			return err
		}

		return printBcdResult(bcdResult{Vhd: bcdVhd, Identifier: guid, Found: found}, "Found boot entry")
	},
}

var bcdRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a boot entry for a virtual disk",
	Long: `Install boot files from the Windows volume mounted at --system-dir and
locate the entry bcdboot created for the virtual disk --vhd. When
--description is given the entry is renamed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRegister(false)
	},
}

var bcdRepairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Recreate the boot entry for a virtual disk",
	Long:  `Delete any boot entry for --vhd and register it again from --system-dir.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRegister(true)
	},
}

func runRegister(repair bool) error {
	if bcdSystemDir == "" || bcdVhd == "" {
		return errors.New("--system-dir and --vhd are required")
	}

	ctx := context.Background()
	a, err := bcdApp(ctx)
	if err != nil {
		return err
	}

	register := a.svc.RegisterBootEntry
	if repair {
		register = a.svc.RepairBootEntry
	}
	guid, found, err := register(ctx, bcdSystemDir, bcdVhd, bcdDescription)
	if err != nil {
		return err
	}

	if !found && !jsonOutput {
		PrintWarning("Boot files were installed but no entry for the virtual disk was found")
		return nil
	}
	return printBcdResult(bcdResult{Vhd: bcdVhd, Identifier: guid, Found: found}, "Registered boot entry")
}

var bcdDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the boot entry for a virtual disk",
	Long:  `Delete the boot entry for --vhd. Deleting a missing entry succeeds.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if bcdVhd == "" {
			return errors.New("--vhd is required")
		}

		ctx := context.Background()
		a, err := bcdApp(ctx)
		if err != nil {
			return err
		}

		deleted, err := a.svc.DeleteBootEntry(ctx, bcdVhd)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(map[string]interface{}{"vhd": bcdVhd, "deleted": deleted})
		}
		if !deleted {
			PrintInfo(fmt.Sprintf("No boot entry for %s", bcdVhd))
			return nil
		}
		PrintSuccess(fmt.Sprintf("Deleted boot entry for %s", bcdVhd))
		return nil
	},
}

var bcdDescribeCmd = &cobra.Command{
	Use:   "describe <description>",
	Short: "Rename the boot entry for a virtual disk",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if bcdVhd == "" {
			return errors.New("--vhd is required")
		}

		ctx := context.Background()
		a, err := bcdApp(ctx)
		if err != nil {
			return err
		}

		guid, err := a.svc.DescribeBootEntry(ctx, bcdVhd, args[0])
		if err != nil {
			return err
		}
		return printBcdResult(bcdResult{Vhd: bcdVhd, Identifier: guid, Found: true}, "Renamed boot entry")
	},
}

var bcdBootNextCmd = &cobra.Command{
	Use:   "boot-next",
	Short: "Boot a virtual disk on the next restart only",
	Long: `Set the boot entry for --vhd as a one-time boot override. With --reboot
the machine restarts immediately.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if bcdVhd == "" {
			return errors.New("--vhd is required")
		}

		ctx := context.Background()
		a, err := bcdApp(ctx)
		if err != nil {
			return err
		}

		guid, err := a.svc.BootNext(ctx, bcdVhd, bcdReboot)
		if err != nil {
			return err
		}
		return printBcdResult(bcdResult{Vhd: bcdVhd, Identifier: guid, Found: true}, "Next boot set")
	},
}

// parseDriveLetter accepts "C" or "C:" with an ASCII letter.
func parseDriveLetter(s string) (rune, error) {
	if len(s) == 2 && s[1] == ':' {
		s = s[:1]
	}
	if len(s) != 1 {
		return 0, fmt.Errorf("invalid drive letter %q", s)
	}
	c := s[0]
	if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
		return 0, fmt.Errorf("invalid drive letter %q", s)
	}
	return rune(c), nil
}

func printBcdResult(r bcdResult, success string) error {
	if jsonOutput {
		return outputJSON(r)
	}
	if !r.Found {
		PrintInfo("No matching boot entry")
		return nil
	}
	PrintSuccess(success)
	if r.Vhd != "" {
		PrintLabelValue("Virtual disk", r.Vhd)
	}
	PrintLabelValue("Identifier", r.Identifier)
	return nil
}

func init() {
	bcdCmd.PersistentFlags().StringVar(&bcdRoot, "root", "", "Workspace root whose operations log records the change")

	bcdFindCmd.Flags().StringVar(&bcdVhd, "vhd", "", "Virtual disk path")
	bcdFindCmd.Flags().StringVar(&bcdLetter, "letter", "", "Partition drive letter (e.g. C)")

	for _, c := range []*cobra.Command{bcdRegisterCmd, bcdRepairCmd} {
		c.Flags().StringVar(&bcdSystemDir, "system-dir", "", "Mounted Windows volume of the virtual disk (e.g. V:\\)")
		c.Flags().StringVar(&bcdVhd, "vhd", "", "Virtual disk path")
		c.Flags().StringVar(&bcdDescription, "description", "", "Display name for the entry")
	}

	for _, c := range []*cobra.Command{bcdDeleteCmd, bcdDescribeCmd, bcdBootNextCmd} {
		c.Flags().StringVar(&bcdVhd, "vhd", "", "Virtual disk path")
	}
	bcdBootNextCmd.Flags().BoolVar(&bcdReboot, "reboot", false, "Restart immediately")

	bcdCmd.AddCommand(bcdLsCmd)
	bcdCmd.AddCommand(bcdFindCmd)
	bcdCmd.AddCommand(bcdRegisterCmd)
	bcdCmd.AddCommand(bcdRepairCmd)
	bcdCmd.AddCommand(bcdDeleteCmd)
	bcdCmd.AddCommand(bcdDescribeCmd)
	bcdCmd.AddCommand(bcdBootNextCmd)
}
