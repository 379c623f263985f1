package cmd

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	kerrors "github.com/PolarWolf314/cloak/internal/errors"
	"github.com/PolarWolf314/cloak/internal/secrets"
	"github.com/PolarWolf314/cloak/internal/ui"
	"github.com/PolarWolf314/cloak/internal/workflows"
)

var (
	encryptForce  bool
	encryptDryRun bool
)

func init() {
	addTransformFlags(encryptCmd.Flags(), &encryptForce, &encryptDryRun,
		"encrypt even when the encrypted file is up to date",
		"preview which files would be encrypted")
}

// resetEncryptCommandState resets the encrypt command's global state for testing.
func resetEncryptCommandState() {
	encryptForce = false
	encryptDryRun = false
}

var encryptCmd = &cobra.Command{
	Use:   "encrypt [paths...]",
	Short: "Encrypts plaintext files into their .<name>.encrypted siblings",
	Long: `Encrypts plaintext files into hidden siblings named .<name>.encrypted.

A file is only encrypted when its plaintext is newer than the existing
encrypted file. Without arguments, every file that already has an encrypted
sibling in the repository is considered. Arguments may be files, directories,
or glob patterns.

Examples:
  cloak encrypt                      # Re-encrypt everything that changed
  cloak encrypt config/db.env        # Encrypt one file
  cloak encrypt "services/**/*.env"  # Glob pattern
  cloak encrypt -f config/db.env     # Encrypt even if up to date`,
	Annotations: map[string]string{requiresAnnotation: requiresCipher},
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting encrypt command")
		spinner, cleanup := startSpinner("Encrypting files...", verbose)
		defer cleanup()

		opts := workflows.EncryptOptions{
			FilePatterns: args,
			Force:        encryptForce,
			DryRun:       encryptDryRun,
			Progress: func(p string) {
				setSpinnerSuffix(spinner, "Encrypting "+relPath(p)+"...")
			},
		}

		result, err := workflows.Encrypt(context.Background(), env, opts)
		var b strings.Builder
		if result != nil {
			writeResults(&b, result.Results, "encrypted", result.DryRun)
			for _, m := range result.MissingPlaintexts {
				Logger.Infof("No plaintext for %s", relPath(m))
			}
		}
		if err != nil {
			b.WriteString(formatEncryptError(err))
			spinner.FinalMSG = b.String()
			return reported(err)
		}

		if result.DryRun {
			b.WriteString(ui.Info.Sprint("→") + " Dry run: no files were modified")
		} else if len(result.Results) == 0 {
			b.WriteString(ui.Info.Sprint("ℹ") + " Nothing to encrypt in " + ui.Path.Sprint(result.ProjectPath))
		} else if countTransformed(result.Results) > 0 {
			b.WriteString(ui.Info.Sprint("→") + " You can now commit the encrypted files")
		}
		spinner.FinalMSG = b.String()
		return nil
	},
}

// writeResults renders one status line per processed file followed by any
// warnings the engine raised for it.
func writeResults(b *strings.Builder, results []*secrets.Result, verb string, dryRun bool) {
	for _, r := range results {
		switch {
		case dryRun && r.Decision == secrets.Transform:
			b.WriteString(ui.Info.Sprint("→") + " would be " + verb + ": " + ui.Path.Sprint(relPath(r.Source)) + "\n")
		case r.Decision == secrets.Transform:
			b.WriteString(ui.Success.Sprint("✓") + " " + verb + " " + ui.Path.Sprint(relPath(r.Source)) +
				" → " + ui.Path.Sprint(relPath(r.Target)) + "\n")
		case r.Decision == secrets.Skip:
			b.WriteString(ui.Muted.Sprint("-") + " " + ui.Path.Sprint(relPath(r.Source)) + " is up to date\n")
		case r.Decision == secrets.SkipRisky:
			b.WriteString(ui.Warning.Sprint("!") + " skipped " + ui.Path.Sprint(relPath(r.Source)) + "\n")
		}
		for _, w := range r.Warnings {
			b.WriteString(ui.Warning.Sprint("⚠") + " " + w + "\n")
		}
	}
}

func countTransformed(results []*secrets.Result) int {
	n := 0
	for _, r := range results {
		if r.Transformed() {
			n++
		}
	}
	return n
}

// formatEncryptError formats an encrypt error for display to the user.
func formatEncryptError(err error) string {
	var capErr *kerrors.CapabilityError
	switch {
	case errors.Is(err, kerrors.ErrNoFilesFound):
		return ui.Error.Sprint("✗") + " No plaintext files matched the given paths"

	case errors.Is(err, kerrors.ErrNotFound):
		return ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " Check the path, or run " + ui.Code.Sprint("cloak decrypt") + " to restore it"

	case errors.As(err, &capErr):
		return ui.Error.Sprint("✗") + " Failed to encrypt " + ui.Path.Sprint(relPath(capErr.Path)) + ": " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " Remaining files were not processed"

	default:
		return ui.Error.Sprint("✗") + " Failed to encrypt files: " + err.Error()
	}
}
