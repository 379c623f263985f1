package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	kerrors "github.com/PolarWolf314/cloak/internal/errors"
	"github.com/PolarWolf314/cloak/internal/history"
	"github.com/PolarWolf314/cloak/internal/ui"
	"github.com/PolarWolf314/cloak/internal/workflows"
)

var logJobs int

func init() {
	logCmd.Flags().IntVarP(&logJobs, "jobs", "j", 1, "number of commits to reconstruct in parallel")
}

// resetLogCommandState resets the log command's global state for testing.
func resetLogCommandState() {
	logJobs = 1
}

var logCmd = &cobra.Command{
	Use:   "log [paths...]",
	Short: "Shows the plaintext changes made by each commit to encrypted files",
	Long: `Shows the history of encrypted files as plaintext diffs.

For every commit that touched an encrypted file, both versions are decrypted
to temporary files, compared, and removed again before the next commit is
processed. Commits are shown newest first.

A running decryption agent is required.

Examples:
  cloak log                            # History of every encrypted file
  cloak log config/.db.env.encrypted   # History of one file
  cloak log --jobs 4                   # Decrypt up to 4 commits at once`,
	Annotations: map[string]string{requiresAnnotation: requiresHistory},
	RunE:        runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting log command")

	if logJobs < 1 {
		err := fmt.Errorf("--jobs must be at least 1, got %d", logJobs)
		printFinal(ui.Error.Sprint("✗") + " " + err.Error())
		return reported(err)
	}

	var lastPath string
	multi := len(args) != 1

	opts := workflows.LogOptions{
		FilePatterns: args,
		Jobs:         logJobs,
		Report: func(path string, report *history.DiffReport, err error) {
			if multi && path != lastPath {
				fmt.Println(ui.Path.Sprint("==> " + relPath(path) + " <=="))
				lastPath = path
			}
			if err != nil {
				Logger.Errorf("%s: %v", relPath(path), err)
				return
			}
			fmt.Print(formatDiffReport(report))
		},
	}

	result, err := workflows.Log(context.Background(), env, opts)
	if err != nil {
		if result != nil && result.Failures > 0 {
			printFinal(ui.Error.Sprintf("✗ %d of %d commits could not be shown", result.Failures, result.Commits))
		} else {
			printFinal(formatLogError(err))
		}
		return reported(err)
	}

	if len(result.Files) == 0 {
		printFinal(ui.Info.Sprint("ℹ") + " No encrypted files found in " + ui.Path.Sprint(env.Settings.RepoRoot))
	}
	Logger.Infof("Showed %d commits across %d files", result.Commits, len(result.Files))
	return nil
}

// formatDiffReport renders one commit as a single block so that reports
// never interleave.
func formatDiffReport(report *history.DiffReport) string {
	var b strings.Builder
	b.WriteString(ui.Commit.Sprint(report.Commit) + "\n")
	if report.Message != "" {
		b.WriteString(ui.EnsureNewline(report.Message))
	}
	b.WriteString("\n")
	for _, line := range strings.SplitAfter(report.Diff, "\n") {
		if line == "" {
			continue
		}
		b.WriteString(ui.DiffLine(strings.TrimSuffix(line, "\n")) + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

// formatLogError formats a log error for display to the user.
func formatLogError(err error) string {
	switch {
	case errors.Is(err, kerrors.ErrAgentUnavailable):
		return ui.Error.Sprint("✗") + " No decryption agent is running\n" +
			ui.Info.Sprint("→") + " Start your agent and try again"

	case errors.Is(err, kerrors.ErrInvalidName):
		return ui.Error.Sprint("✗") + " " + err.Error()

	case errors.Is(err, kerrors.ErrNoFilesFound):
		return ui.Error.Sprint("✗") + " No encrypted files matched the given paths"

	default:
		return ui.Error.Sprint("✗") + " Failed to read history: " + err.Error()
	}
}
