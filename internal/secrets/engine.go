package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/PolarWolf314/cloak/internal/cipher"
	"github.com/PolarWolf314/cloak/internal/configs"
	kerrors "github.com/PolarWolf314/cloak/internal/errors"
	"github.com/PolarWolf314/cloak/internal/gitx"
	logger "github.com/PolarWolf314/cloak/internal/logging"
)

// DefaultBackdate is how far a decrypted plaintext's modification time is
// set before its ciphertext's.
const DefaultBackdate = configs.DefaultBackdate

// plaintextPerm is applied to plaintext files after every transform.
const plaintextPerm os.FileMode = 0600

// Engine transforms one file pair at a time.
type Engine struct {
	Cipher cipher.Cipher

	// Repo answers the ignore advisory. Nil disables the check.
	Repo gitx.Repo

	Recipient      string
	AgentAvailable bool
	Backdate       time.Duration

	// Root is the directory warning paths are shown relative to.
	Root string

	Logger logger.Logger
}

// NewEngine wires an Engine from resolved settings.
func NewEngine(settings configs.Settings, c cipher.Cipher, repo gitx.Repo, log logger.Logger) *Engine {
	return &Engine{
		Cipher:         c,
		Repo:           repo,
		Recipient:      settings.Recipient,
		AgentAvailable: settings.AgentAvailable,
		Backdate:       settings.Backdate,
		Root:           settings.RepoRoot,
		Logger:         log,
	}
}

// Result is the outcome of one Encrypt or Decrypt call.
type Result struct {
	Source   string
	Target   string
	Decision Decision

	// Warnings are advisories the caller should show the user.
	Warnings []string
}

// Transformed reports whether the cipher was invoked successfully. Engine
// calls that fail return no Result.
func (r *Result) Transformed() bool {
	return r != nil && r.Decision == Transform
}

func (e *Engine) display(path string) string {
	if e.Root == "" {
		return path
	}
	rel, err := filepath.Rel(e.Root, path)
	if err != nil {
		return path
	}
	return rel
}

func (e *Engine) backdate() time.Duration {
	if e.Backdate <= 0 {
		return DefaultBackdate
	}
	return e.Backdate
}

// Encrypt writes the ciphertext sibling of plaintextPath unless it is
// already up to date or force is set.
//
// Returns ErrNotFound if the plaintext does not exist and a
// *errors.CapabilityError if the cipher fails. The Result is nil whenever
// the error is not.
func (e *Engine) Encrypt(ctx context.Context, plaintextPath string, force bool) (*Result, error) {
	if err := requireFile(plaintextPath); err != nil {
		return nil, err
	}

	ciphertextPath := ToCiphertext(plaintextPath)
	result := &Result{Source: plaintextPath, Target: ciphertextPath}

	decision, err := encryptOracle.Decide(plaintextPath, ciphertextPath, force)
	if err != nil {
		return nil, err
	}
	result.Decision = decision
	e.Logger.Debugw("staleness", map[string]any{"op": "encrypt", "path": plaintextPath, "decision": decision.String(), "force": force})

	if decision != Transform {
		return result, nil
	}

	if err := e.Cipher.Encrypt(ctx, plaintextPath, ciphertextPath, e.Recipient); err != nil {
		return nil, err
	}

	if err := os.Chmod(plaintextPath, plaintextPerm); err != nil {
		return nil, fmt.Errorf("restricting permissions of %s: %w", plaintextPath, err)
	}

	e.adviseIgnored(ctx, plaintextPath, result)
	return result, nil
}

// Decrypt writes the plaintext sibling of ciphertextPath. An existing
// plaintext that is not older than the ciphertext is left untouched with a
// warning unless force is set.
//
// Returns ErrAgentUnavailable, ErrInvalidName or ErrNotFound before touching
// any file, and a *errors.CapabilityError if the cipher fails.
func (e *Engine) Decrypt(ctx context.Context, ciphertextPath string, force bool) (*Result, error) {
	if !e.AgentAvailable {
		return nil, fmt.Errorf("decrypting %s: %w", ciphertextPath, kerrors.ErrAgentUnavailable)
	}

	plaintextPath, err := ToPlaintext(ciphertextPath)
	if err != nil {
		return nil, err
	}

	if err := requireFile(ciphertextPath); err != nil {
		return nil, err
	}

	result := &Result{Source: ciphertextPath, Target: plaintextPath}

	decision, err := decryptOracle.Decide(ciphertextPath, plaintextPath, force)
	if err != nil {
		return nil, err
	}
	result.Decision = decision
	e.Logger.Debugw("staleness", map[string]any{"op": "decrypt", "path": ciphertextPath, "decision": decision.String(), "force": force})

	if decision == SkipRisky {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"%s is not older than %s and may contain local changes; not overwriting it (use --force to discard them)",
			e.display(plaintextPath), e.display(ciphertextPath)))
		return result, nil
	}

	if err := e.Cipher.Decrypt(ctx, ciphertextPath, plaintextPath); err != nil {
		return nil, err
	}

	if err := os.Chmod(plaintextPath, plaintextPerm); err != nil {
		return nil, fmt.Errorf("restricting permissions of %s: %w", plaintextPath, err)
	}

	info, err := os.Stat(ciphertextPath)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", ciphertextPath, err)
	}
	mtime := info.ModTime().Add(-e.backdate())
	if err := os.Chtimes(plaintextPath, mtime, mtime); err != nil {
		return nil, fmt.Errorf("backdating %s: %w", plaintextPath, err)
	}

	e.adviseIgnored(ctx, plaintextPath, result)
	return result, nil
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", path, kerrors.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory: %w", path, kerrors.ErrNotFound)
	}
	return nil
}

// adviseIgnored warns when git would pick up the plaintext. Failure to check
// is only logged.
func (e *Engine) adviseIgnored(ctx context.Context, plaintextPath string, result *Result) {
	if e.Repo == nil {
		return
	}
	ignored, err := e.Repo.IsIgnored(ctx, plaintextPath)
	if err != nil {
		e.Logger.Debugf("Could not check ignore status of %s: %v", plaintextPath, err)
		return
	}
	if !ignored {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"%s is not ignored by git; add it to .gitignore so the plaintext is never committed", e.display(plaintextPath)))
	}
}
