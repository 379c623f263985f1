package workflows

import (
	"context"
	"fmt"

	kerrors "github.com/PolarWolf314/cloak/internal/errors"
	"github.com/PolarWolf314/cloak/internal/secrets"
)

// DecryptOptions configures the decrypt workflow.
type DecryptOptions struct {
	// FilePatterns specifies encrypted files, directories or globs. If empty,
	// every encrypted file under the repository root is decrypted.
	FilePatterns []string

	// Force overwrites plaintexts that are not older than their ciphertext.
	Force bool

	// DryRun reports what would happen without invoking the cipher.
	DryRun bool

	// Progress, if set, is called before each file is processed.
	Progress func(path string)
}

// DecryptResult contains the outcome of a decrypt operation.
type DecryptResult struct {
	// Results holds one entry per processed file, in processing order.
	Results []*secrets.Result

	// ProjectPath is the repository root the files were resolved against.
	ProjectPath string

	// DryRun indicates whether this was a dry-run (no files modified).
	DryRun bool
}

// Decrypt decrypts encrypted files one at a time, backdating each plaintext
// so that a later encrypt sees it as unchanged.
//
// The first failure stops the batch; results of completed files are
// returned with the error.
//
// Returns ErrAgentUnavailable before any file is touched if no decryption
// session is running.
// Returns ErrNoFilesFound if the given patterns match nothing.
// Returns ErrInvalidName or ErrNotFound for a bad explicit path.
// Returns a *errors.CapabilityError if the cipher fails.
func Decrypt(ctx context.Context, env Env, opts DecryptOptions) (*DecryptResult, error) {
	projectPath := env.Settings.RepoRoot
	result := &DecryptResult{ProjectPath: projectPath, DryRun: opts.DryRun}

	ciphertexts, err := resolveCiphertexts(opts.FilePatterns, projectPath)
	if err != nil {
		return nil, err
	}

	if len(ciphertexts) > 0 && !opts.DryRun && !env.Settings.AgentAvailable {
		return nil, kerrors.ErrAgentUnavailable
	}

	engine := env.engine()
	for _, c := range ciphertexts {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if opts.Progress != nil {
			opts.Progress(c)
		}

		if opts.DryRun {
			decision, err := secrets.PreviewDecrypt(c, opts.Force)
			if err != nil {
				return result, err
			}
			target, _ := secrets.ToPlaintext(c)
			result.Results = append(result.Results, &secrets.Result{Source: c, Target: target, Decision: decision})
			continue
		}

		r, err := engine.Decrypt(ctx, c, opts.Force)
		if r != nil {
			result.Results = append(result.Results, r)
		}
		if err != nil {
			return result, err
		}
	}

	return result, nil
}

// resolveCiphertexts expands patterns or lists every encrypted file.
func resolveCiphertexts(patterns []string, projectPath string) ([]string, error) {
	if len(patterns) > 0 {
		resolved, err := secrets.ResolvePaths(patterns, projectPath, false)
		if err != nil {
			return nil, fmt.Errorf("resolving file patterns: %w", err)
		}
		if len(resolved) == 0 {
			return nil, kerrors.ErrNoFilesFound
		}
		return resolved, nil
	}

	found, err := secrets.CollectCiphertextFiles(projectPath)
	if err != nil {
		return nil, fmt.Errorf("finding encrypted files: %w", err)
	}
	return found, nil
}
