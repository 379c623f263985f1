package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/pflag"

	"github.com/PolarWolf314/cloak/internal/ui"
	"github.com/PolarWolf314/cloak/internal/utils"
)

// stdoutIsTerminal is overridden in tests.
var stdoutIsTerminal = utils.IsStdoutTerminal

// startSpinner creates and starts a spinner with the given message when
// stdout is a terminal and neither verbose nor debug output is enabled.
// Returns the spinner and a function that should be deferred to clean up.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The
// cleanup function calls ui.EnsureNewline() on the final message before
// printing it.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	animate := !verbose && !debug && stdoutIsTerminal()
	if animate {
		s.Start()
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("%s", message)
	}

	cleanup := func() {
		if animate {
			log.SetOutput(os.Stderr)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			s.FinalMSG = ""
		}

		if animate {
			s.Stop()
		}

		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// setSpinnerSuffix updates the status line of a running spinner.
func setSpinnerSuffix(s *spinner.Spinner, message string) {
	s.Lock()
	s.Suffix = " " + message
	s.Unlock()
	Logger.Infof("%s", message)
}

// printFinal prints a message outside of any spinner.
func printFinal(msg string) {
	fmt.Print(ui.EnsureNewline(msg))
}

// relPath shortens path for display relative to the repository root.
func relPath(path string) string {
	if env.Settings.RepoRoot == "" {
		return path
	}
	rel, err := filepath.Rel(env.Settings.RepoRoot, path)
	if err != nil {
		return path
	}
	return rel
}

// addTransformFlags registers the flags shared by encrypt and decrypt.
func addTransformFlags(fs *pflag.FlagSet, force, dryRun *bool, forceUsage, dryRunUsage string) {
	fs.BoolVarP(force, "force", "f", false, forceUsage)
	fs.BoolVar(dryRun, "dry-run", false, dryRunUsage)
}
