package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/cloak/internal/ui"
	"github.com/PolarWolf314/cloak/internal/workflows"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Shows which plaintext files changed since they were encrypted",
	Long: `Shows the state of every encrypted file and its plaintext:

  current         the encrypted file is up to date
  stale           the plaintext changed; run cloak encrypt
  encrypted_only  no plaintext yet; run cloak decrypt`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := workflows.Status(context.Background(), env)
		if err != nil {
			printFinal(ui.Error.Sprint("✗") + " Failed to read status: " + err.Error())
			return reported(err)
		}

		if len(result.Files) == 0 {
			printFinal(ui.Info.Sprint("ℹ") + " No encrypted files found in " + ui.Path.Sprint(result.ProjectPath))
			return nil
		}

		for _, f := range result.Files {
			fmt.Printf("  %-16s %s\n", formatFileStatus(f.Status), f.Path)
		}
		s := result.Summary
		fmt.Printf("\n%d current, %d stale, %d encrypted only\n", s.Current, s.Stale, s.EncryptedOnly)
		return nil
	},
}

func formatFileStatus(status workflows.FileStatus) string {
	switch status {
	case workflows.StatusCurrent:
		return ui.Success.Sprint(string(status))
	case workflows.StatusStale:
		return ui.Warning.Sprint(string(status))
	default:
		return ui.Info.Sprint(string(status))
	}
}
