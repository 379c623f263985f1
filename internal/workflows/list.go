package workflows

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/PolarWolf314/cloak/internal/secrets"
)

// ListResult contains the outcome of a list operation.
type ListResult struct {
	// ProjectPath is the repository root that was searched.
	ProjectPath string

	// Files are the encrypted files found, relative to ProjectPath and sorted.
	Files []string
}

// List finds every encrypted file under the repository root.
func List(ctx context.Context, env Env) (*ListResult, error) {
	root := env.Settings.RepoRoot
	found, err := secrets.CollectCiphertextFiles(root)
	if err != nil {
		return nil, fmt.Errorf("finding encrypted files: %w", err)
	}

	return &ListResult{ProjectPath: root, Files: relativeTo(root, found)}, nil
}

// relativeTo rewrites paths relative to root where possible.
func relativeTo(root string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			rel = p
		}
		out = append(out, rel)
	}
	return out
}
