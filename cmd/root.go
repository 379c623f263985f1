package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/cloak/internal/cipher"
	"github.com/PolarWolf314/cloak/internal/configs"
	kerrors "github.com/PolarWolf314/cloak/internal/errors"
	"github.com/PolarWolf314/cloak/internal/gitx"
	logger "github.com/PolarWolf314/cloak/internal/logging"
	"github.com/PolarWolf314/cloak/internal/ui"
	"github.com/PolarWolf314/cloak/internal/workflows"
)

// requiresAnnotation lists the capabilities a command needs; they are
// checked before the command runs.
const requiresAnnotation = "cloak/requires"

const (
	requiresCipher  = "cipher"
	requiresHistory = "history"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	// env is resolved once in PersistentPreRunE and read-only afterwards.
	env workflows.Env

	// Overridden in tests.
	getenv    = os.Getenv
	newRepo   = func() gitx.Repo { return gitx.NewRealGitRepo() }
	newCipher = func(s configs.Settings) (cipher.Cipher, error) {
		return cipher.New(cipher.Options{Backend: s.Backend, AgentHelper: s.AgentHelper, IdentityFile: s.IdentityFile})
	}

	RootCmd = &cobra.Command{
		Use:   "cloak",
		Short: "Keep plaintext secrets and their encrypted siblings in sync",
		Long: `cloak keeps secret files out of version control by committing an encrypted
sibling next to each one. A plaintext "dir/name" is stored as "dir/.name.encrypted".

Encryption only runs when the plaintext changed since the last encryption, and
decryption never overwrites a plaintext that may hold local edits. The log
command rebuilds the plaintext diff of every commit to an encrypted file.`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: setupEnv,
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	RootCmd.AddCommand(encryptCmd)
	RootCmd.AddCommand(decryptCmd)
	RootCmd.AddCommand(logCmd)
	RootCmd.AddCommand(lsCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(keygenCmd)
	RootCmd.AddCommand(doctorCmd)
}

// setupEnv resolves configuration and capabilities for the command about to
// run. Missing tools are reported here, before any file is touched.
func setupEnv(cmd *cobra.Command, args []string) error {
	Logger = logger.New(verbose, debug)
	Logger.Debugf("Initializing %s with verbose=%t, debug=%t", cmd.Name(), verbose, debug)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	repo := newRepo()
	settings, err := configs.Load(ctx, wd, repo, getenv)
	if err != nil {
		printFinal(formatSetupError(err))
		return reported(err)
	}
	Logger.Debugw("settings", map[string]any{
		"root":     settings.RepoRoot,
		"backend":  settings.Backend,
		"backdate": settings.Backdate.String(),
		"identity": settings.IdentityFile,
	})

	c, err := newCipher(settings)
	if err != nil {
		printFinal(formatSetupError(err))
		return reported(err)
	}

	switch cmd.Annotations[requiresAnnotation] {
	case requiresHistory:
		if checker, ok := repo.(interface{ CheckDependencies() error }); ok {
			if err := checker.CheckDependencies(); err != nil {
				printFinal(formatSetupError(err))
				return reported(err)
			}
		}
		fallthrough
	case requiresCipher:
		if err := c.CheckDependencies(); err != nil {
			printFinal(formatSetupError(err))
			return reported(err)
		}
		settings.AgentAvailable = c.AgentAvailable(ctx)
		Logger.Debugf("Agent available: %t", settings.AgentAvailable)
	}

	env = workflows.Env{Settings: settings, Cipher: c, Repo: repo, Logger: Logger}
	return nil
}

func formatSetupError(err error) string {
	switch {
	case errors.Is(err, kerrors.ErrDependencyMissing):
		return ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " Install it or pick another backend with " + ui.Code.Sprint("CLOAK_BACKEND")
	default:
		return ui.Error.Sprint("✗") + " Failed to load configuration: " + err.Error()
	}
}

// reportedError marks an error whose message was already shown.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// Execute runs the root command and returns the process exit status.
func Execute() int {
	err := RootCmd.Execute()
	if err == nil {
		return 0
	}
	var r *reportedError
	if !errors.As(err, &r) {
		fmt.Fprintln(os.Stderr, ui.Error.Sprint("✗")+" "+err.Error())
	}
	return kerrors.ExitCode(err)
}

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	env = workflows.Env{}
	resetEncryptCommandState()
	resetDecryptCommandState()
	resetLogCommandState()
	resetKeygenCommandState()
	resetDoctorCommandState()
}
