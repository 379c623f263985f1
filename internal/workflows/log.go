package workflows

import (
	"context"

	"github.com/PolarWolf314/cloak/internal/diff"
	"github.com/PolarWolf314/cloak/internal/history"
)

// LogOptions configures the log workflow.
type LogOptions struct {
	// FilePatterns specifies encrypted files, directories or globs. If empty,
	// the history of every encrypted file is shown.
	FilePatterns []string

	// Jobs is the number of commits reconstructed concurrently per file.
	Jobs int

	// Differ renders each diff. Defaults to diff.Unified.
	Differ diff.Differ

	// TempDir holds staged plaintext while a commit is processed. Empty
	// means the system temporary directory.
	TempDir string

	// Report is called for every commit, newest first within each file. A
	// non-nil err means that commit could not be reconstructed; report then
	// carries only the commit id.
	Report func(path string, report *history.DiffReport, err error)
}

// LogResult contains the outcome of a log operation.
type LogResult struct {
	// Files lists the encrypted files whose history was read.
	Files []string

	// Commits counts the commits reported across all files.
	Commits int

	// Failures counts the commits that could not be reconstructed.
	Failures int
}

// Log reconstructs the plaintext change introduced by every commit to each
// encrypted file.
//
// A commit that fails is reported and skipped; the returned error is then
// the first such failure. Errors that prevent reading a file's history at
// all (no agent, bad name, no repository) stop the workflow immediately.
//
// Returns ErrAgentUnavailable if no decryption session is running.
// Returns ErrNoFilesFound if the given patterns match nothing.
func Log(ctx context.Context, env Env, opts LogOptions) (*LogResult, error) {
	ciphertexts, err := resolveCiphertexts(opts.FilePatterns, env.Settings.RepoRoot)
	if err != nil {
		return nil, err
	}

	differ := opts.Differ
	if differ == nil {
		differ = diff.Unified{}
	}

	rebuild := &history.Reconstructor{
		Cipher:         env.Cipher,
		Repo:           env.Repo,
		Differ:         differ,
		AgentAvailable: env.Settings.AgentAvailable,
		Jobs:           opts.Jobs,
		TempDir:        opts.TempDir,
		Logger:         env.Logger,
	}

	result := &LogResult{}
	var firstFailure error

	for _, c := range ciphertexts {
		result.Files = append(result.Files, c)
		for report, err := range rebuild.Reconstruct(ctx, c) {
			if report == nil {
				return result, err
			}
			result.Commits++
			if err != nil {
				result.Failures++
				if firstFailure == nil {
					firstFailure = err
				}
			}
			if opts.Report != nil {
				opts.Report(c, report, err)
			}
		}
	}

	return result, firstFailure
}
