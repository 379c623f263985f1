package workflows

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/PolarWolf314/cloak/internal/cipher"
	"github.com/PolarWolf314/cloak/internal/configs"
)

// KeygenOptions configures the keygen workflow.
type KeygenOptions struct {
	// Force replaces an existing identity file.
	Force bool

	// Configure records the box backend and the new recipient in the
	// repository's .cloak.toml.
	Configure bool
}

// KeygenResult contains the outcome of a keygen operation.
type KeygenResult struct {
	IdentityFile string
	Recipient    string

	// ProjectFile is the .cloak.toml that was written, if any.
	ProjectFile string
}

// Keygen creates a box identity at the configured identity path.
//
// Returns an error wrapping os.ErrExist if the identity already exists and
// Force is not set.
func Keygen(ctx context.Context, env Env, opts KeygenOptions) (*KeygenResult, error) {
	path := env.Settings.IdentityFile
	id, err := cipher.GenerateIdentity(path, opts.Force)
	if err != nil {
		return nil, err
	}

	result := &KeygenResult{IdentityFile: path, Recipient: id.Recipient()}
	if !opts.Configure {
		return result, nil
	}

	pf, err := configs.LoadProjectFile(env.Settings.RepoRoot)
	if err != nil {
		return result, fmt.Errorf("reading %s: %w", configs.ProjectFileName, err)
	}
	pf.Backend = cipher.BackendBox
	pf.Recipient = result.Recipient

	result.ProjectFile = filepath.Join(env.Settings.RepoRoot, configs.ProjectFileName)
	if err := configs.SaveTOML(result.ProjectFile, pf); err != nil {
		return result, fmt.Errorf("writing %s: %w", result.ProjectFile, err)
	}
	env.Logger.Infof("Recorded box backend in %s", result.ProjectFile)
	return result, nil
}
