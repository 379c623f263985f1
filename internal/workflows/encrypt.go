package workflows

import (
	"context"
	"fmt"
	"os"

	kerrors "github.com/PolarWolf314/cloak/internal/errors"
	"github.com/PolarWolf314/cloak/internal/secrets"
)

// EncryptOptions configures the encrypt workflow.
type EncryptOptions struct {
	// FilePatterns specifies plaintext files, directories or globs. If empty,
	// every pair under the repository root is considered.
	FilePatterns []string

	// Force re-encrypts files whose ciphertext is already up to date.
	Force bool

	// DryRun reports what would happen without invoking the cipher.
	DryRun bool

	// Progress, if set, is called before each file is processed.
	Progress func(path string)
}

// EncryptResult contains the outcome of an encrypt operation.
type EncryptResult struct {
	// Results holds one entry per processed file, in processing order.
	Results []*secrets.Result

	// MissingPlaintexts lists ciphertexts skipped because their plaintext
	// does not exist. Only populated when no patterns were given.
	MissingPlaintexts []string

	// ProjectPath is the repository root the files were resolved against.
	ProjectPath string

	// DryRun indicates whether this was a dry-run (no files modified).
	DryRun bool
}

// Encrypt encrypts plaintext files one at a time.
//
// The first failure stops the batch. Files already processed keep their new
// ciphertext and permissions, and their results are returned with the error.
//
// Returns ErrNoFilesFound if the given patterns match nothing.
// Returns ErrNotFound if an explicitly named plaintext does not exist.
// Returns a *errors.CapabilityError if the cipher fails.
func Encrypt(ctx context.Context, env Env, opts EncryptOptions) (*EncryptResult, error) {
	projectPath := env.Settings.RepoRoot
	result := &EncryptResult{ProjectPath: projectPath, DryRun: opts.DryRun}

	plaintexts, missing, err := resolvePlaintexts(opts.FilePatterns, projectPath)
	if err != nil {
		return nil, err
	}
	result.MissingPlaintexts = missing
	for _, m := range missing {
		env.Logger.Infof("Skipping %s: no plaintext to encrypt", m)
	}

	engine := env.engine()
	for _, p := range plaintexts {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if opts.Progress != nil {
			opts.Progress(p)
		}

		if opts.DryRun {
			decision, err := secrets.PreviewEncrypt(p, opts.Force)
			if err != nil {
				return result, err
			}
			result.Results = append(result.Results, &secrets.Result{Source: p, Target: secrets.ToCiphertext(p), Decision: decision})
			continue
		}

		r, err := engine.Encrypt(ctx, p, opts.Force)
		if r != nil {
			result.Results = append(result.Results, r)
		}
		if err != nil {
			return result, err
		}
	}

	return result, nil
}

// resolvePlaintexts expands patterns, or, without patterns, maps every
// ciphertext in the repository to its plaintext. Ciphertexts without a
// plaintext are returned separately.
func resolvePlaintexts(patterns []string, projectPath string) ([]string, []string, error) {
	if len(patterns) > 0 {
		resolved, err := secrets.ResolvePaths(patterns, projectPath, true)
		if err != nil {
			return nil, nil, fmt.Errorf("resolving file patterns: %w", err)
		}
		if len(resolved) == 0 {
			return nil, nil, kerrors.ErrNoFilesFound
		}
		return resolved, nil, nil
	}

	ciphertexts, err := secrets.CollectCiphertextFiles(projectPath)
	if err != nil {
		return nil, nil, fmt.Errorf("finding encrypted files: %w", err)
	}

	var plaintexts, missing []string
	for _, c := range ciphertexts {
		p, err := secrets.ToPlaintext(c)
		if err != nil {
			continue
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			missing = append(missing, c)
			continue
		}
		plaintexts = append(plaintexts, p)
	}
	return plaintexts, missing, nil
}
