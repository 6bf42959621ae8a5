package cli

import (
	"github.com/spf13/cobra"

	"github.com/danieljhkim/bootspace/internal/workspace"
)

// adminCmd reports whether boot store commands can run.
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Check for administrator privileges",
	Long: `Report whether bootspace is running elevated. Every bcd subcommand
needs an elevated prompt on Windows.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		elevated, err := workspace.IsAdmin()
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(map[string]bool{"elevated": elevated})
		}

		value := "no"
		if elevated {
			value = "yes"
		}
		PrintLabelValueWithColor("Elevated", value, statusColor(elevated))
		if !elevated {
			PrintWarning("Run from an administrator prompt to manage boot entries")
		}
		return nil
	},
}
