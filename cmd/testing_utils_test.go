package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/PolarWolf314/cloak/internal/cipher"
	"github.com/PolarWolf314/cloak/internal/configs"
	"github.com/PolarWolf314/cloak/internal/gitx"
)

// testEnv is a work tree with capability doubles wired into the CLI.
type testEnv struct {
	root   string
	cipher *cipher.Fake
	repo   *gitx.FakeRepo
	vars   map[string]string
}

// setupTestEnvironment changes into a fresh work tree and replaces the git
// and cipher capabilities with fakes. Everything is restored on cleanup.
func setupTestEnvironment(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	te := &testEnv{
		root:   root,
		cipher: cipher.NewFake(),
		repo:   gitx.NewFakeRepo(root),
		vars: map[string]string{
			"CLOAK_IDENTITY": filepath.Join(root, ".config", "identity"),
		},
	}

	originalWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))

	origGetenv, origRepo, origCipher, origTerminal := getenv, newRepo, newCipher, stdoutIsTerminal
	t.Cleanup(func() {
		if err := os.Chdir(originalWd); err != nil {
			t.Fatalf("Failed to change to original directory: %v", err)
		}
		getenv, newRepo, newCipher, stdoutIsTerminal = origGetenv, origRepo, origCipher, origTerminal
		ResetGlobalState()
	})

	getenv = func(key string) string { return te.vars[key] }
	newRepo = func() gitx.Repo { return te.repo }
	newCipher = func(configs.Settings) (cipher.Cipher, error) { return te.cipher, nil }
	stdoutIsTerminal = func() bool { return false }

	return te
}

// useRealCipher restores backend selection from configuration.
func (te *testEnv) useRealCipher() {
	newCipher = func(s configs.Settings) (cipher.Cipher, error) {
		return cipher.New(cipher.Options{Backend: s.Backend, AgentHelper: s.AgentHelper, IdentityFile: s.IdentityFile})
	}
}

func (te *testEnv) path(rel string) string {
	return filepath.Join(te.root, filepath.FromSlash(rel))
}

func (te *testEnv) write(t *testing.T, rel, content string, mtime time.Time) string {
	t.Helper()
	p := te.path(rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	require.NoError(t, os.Chtimes(p, mtime, mtime))
	return p
}

// runCLI executes the root command with args and returns its combined
// output and exit status.
func runCLI(t *testing.T, args ...string) (string, int) {
	t.Helper()
	ResetGlobalState()
	RootCmd.SetArgs(args)

	var code int
	output, err := captureOutput(func() error {
		code = Execute()
		return nil
	})
	require.NoError(t, err)
	return output, code
}

// captureOutput captures both stdout and stderr during function execution.
func captureOutput(fn func() error) (string, error) {
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	stdoutReader, stdoutWriter, err := os.Pipe()
	if err != nil {
		return "", err
	}
	stderrReader, stderrWriter, err := os.Pipe()
	if err != nil {
		return "", err
	}

	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	stdoutChan := make(chan string, 1)
	stderrChan := make(chan string, 1)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, stdoutReader)
		stdoutChan <- buf.String()
	}()
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, stderrReader)
		stderrChan <- buf.String()
	}()

	fnErr := fn()

	stdoutWriter.Close()
	stderrWriter.Close()

	os.Stdout = originalStdout
	os.Stderr = originalStderr

	return <-stdoutChan + <-stderrChan, fnErr
}
