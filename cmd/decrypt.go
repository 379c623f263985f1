package cmd

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	kerrors "github.com/PolarWolf314/cloak/internal/errors"
	"github.com/PolarWolf314/cloak/internal/ui"
	"github.com/PolarWolf314/cloak/internal/workflows"
)

var (
	decryptForce  bool
	decryptDryRun bool
)

func init() {
	addTransformFlags(decryptCmd.Flags(), &decryptForce, &decryptDryRun,
		"overwrite plaintext files even if they may hold local changes",
		"preview which files would be decrypted")
}

// resetDecryptCommandState resets the decrypt command's global state for testing.
func resetDecryptCommandState() {
	decryptForce = false
	decryptDryRun = false
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt [paths...]",
	Short: "Decrypts .<name>.encrypted files back into plaintext",
	Long: `Decrypts .<name>.encrypted files back into their plaintext siblings.

A plaintext that is not older than its encrypted file may hold local edits
and is left untouched unless --force is given. Decrypted files are made
readable only by you and dated just before their encrypted file, so a later
encrypt does not re-encrypt them.

A running decryption agent is required.

Examples:
  cloak decrypt                          # Decrypt every encrypted file
  cloak decrypt config/.db.env.encrypted # Decrypt one file
  cloak decrypt -f config                # Overwrite everything under config/`,
	Annotations: map[string]string{requiresAnnotation: requiresCipher},
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting decrypt command")
		spinner, cleanup := startSpinner("Decrypting files...", verbose)
		defer cleanup()

		opts := workflows.DecryptOptions{
			FilePatterns: args,
			Force:        decryptForce,
			DryRun:       decryptDryRun,
			Progress: func(p string) {
				setSpinnerSuffix(spinner, "Decrypting "+relPath(p)+"...")
			},
		}

		result, err := workflows.Decrypt(context.Background(), env, opts)
		var b strings.Builder
		if result != nil {
			writeResults(&b, result.Results, "decrypted", result.DryRun)
		}
		if err != nil {
			b.WriteString(formatDecryptError(err))
			spinner.FinalMSG = b.String()
			return reported(err)
		}

		if result.DryRun {
			b.WriteString(ui.Info.Sprint("→") + " Dry run: no files were modified")
		} else if len(result.Results) == 0 {
			b.WriteString(ui.Info.Sprint("ℹ") + " No encrypted files found in " + ui.Path.Sprint(result.ProjectPath))
		}
		spinner.FinalMSG = b.String()
		return nil
	},
}

// formatDecryptError formats a decrypt error for display to the user.
func formatDecryptError(err error) string {
	var capErr *kerrors.CapabilityError
	switch {
	case errors.Is(err, kerrors.ErrAgentUnavailable):
		return ui.Error.Sprint("✗") + " No decryption agent is running\n" +
			ui.Info.Sprint("→") + " Start your agent (for gpg: " + ui.Code.Sprint("gpg-connect-agent /bye") + ") and try again"

	case errors.Is(err, kerrors.ErrInvalidName):
		return ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " Encrypted files are named " + ui.Path.Sprint(".<name>.encrypted")

	case errors.Is(err, kerrors.ErrNoFilesFound):
		return ui.Error.Sprint("✗") + " No encrypted files matched the given paths"

	case errors.Is(err, kerrors.ErrNotFound):
		return ui.Error.Sprint("✗") + " " + err.Error()

	case errors.As(err, &capErr):
		return ui.Error.Sprint("✗") + " Failed to decrypt " + ui.Path.Sprint(relPath(capErr.Path)) + ": " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " Remaining files were not processed"

	default:
		return ui.Error.Sprint("✗") + " Failed to decrypt files: " + err.Error()
	}
}
