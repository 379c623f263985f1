package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/cloak/internal/ui"
	"github.com/PolarWolf314/cloak/internal/workflows"
)

var (
	keygenForce     bool
	keygenConfigure bool
)

func init() {
	keygenCmd.Flags().BoolVar(&keygenForce, "force", false, "replace an existing identity")
	keygenCmd.Flags().BoolVar(&keygenConfigure, "configure", false, "record the box backend and this recipient in .cloak.toml")
}

// resetKeygenCommandState resets the keygen command's global state for testing.
func resetKeygenCommandState() {
	keygenForce = false
	keygenConfigure = false
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Creates an identity for the built-in box backend",
	Long: `Creates a key pair for the box backend and prints its recipient string.

The identity is written to $XDG_CONFIG_HOME/cloak/identity unless
CLOAK_IDENTITY or cloak.identity says otherwise.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		spinner, cleanup := startSpinner("Generating identity...", verbose)
		defer cleanup()

		result, err := workflows.Keygen(context.Background(), env, workflows.KeygenOptions{
			Force:     keygenForce,
			Configure: keygenConfigure,
		})
		if err != nil {
			spinner.FinalMSG = formatKeygenError(err)
			return reported(err)
		}

		msg := ui.Success.Sprint("✓") + " Identity written to " + ui.Path.Sprint(result.IdentityFile) + "\n" +
			"Recipient: " + result.Recipient + "\n"
		if result.ProjectFile != "" {
			msg += ui.Info.Sprint("→") + " " + ui.Path.Sprint(relPath(result.ProjectFile)) + " now selects the box backend"
		} else {
			msg += ui.Info.Sprint("→") + " Set " + ui.Code.Sprint("CLOAK_BACKEND=box") + " and " +
				ui.Code.Sprint("CLOAK_RECIPIENT") + " to use it"
		}
		spinner.FinalMSG = msg
		return nil
	},
}

func formatKeygenError(err error) string {
	if errors.Is(err, os.ErrExist) {
		return ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " Use " + ui.Code.Sprint("--force") + " to replace it"
	}
	return ui.Error.Sprint("✗") + " Failed to generate identity: " + err.Error()
}
