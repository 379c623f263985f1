package history

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/PolarWolf314/cloak/internal/cipher"
	"github.com/PolarWolf314/cloak/internal/diff"
	kerrors "github.com/PolarWolf314/cloak/internal/errors"
	"github.com/PolarWolf314/cloak/internal/gitx"
	logger "github.com/PolarWolf314/cloak/internal/logging"
	"github.com/PolarWolf314/cloak/internal/secrets"
)

// DiffReport is the reconstructed change of one commit.
type DiffReport struct {
	Commit  string
	Message string
	Diff    string
}

// Reconstructor walks the history of a ciphertext file and yields the
// plaintext diff introduced by each commit.
type Reconstructor struct {
	Cipher cipher.Cipher
	Repo   gitx.Repo
	Differ diff.Differ

	AgentAvailable bool

	// Jobs bounds how many commits are processed concurrently. Values
	// below 2 process commits one at a time.
	Jobs int

	// TempDir holds the staged files. Empty means os.TempDir.
	TempDir string

	Logger logger.Logger
}

// Reconstruct yields one report per commit that modified ciphertextPath,
// newest first. A failing commit yields a non-nil error alongside a report
// carrying only its commit id; iteration continues with the next commit.
//
// Precondition failures (agent unavailable, bad name, history lookup) are
// yielded once with a nil report and end the sequence.
func (r *Reconstructor) Reconstruct(ctx context.Context, ciphertextPath string) iter.Seq2[*DiffReport, error] {
	return func(yield func(*DiffReport, error) bool) {
		if !r.AgentAvailable {
			yield(nil, fmt.Errorf("reading history of %s: %w", ciphertextPath, kerrors.ErrAgentUnavailable))
			return
		}

		plaintextPath, err := secrets.ToPlaintext(ciphertextPath)
		if err != nil {
			yield(nil, err)
			return
		}

		commits, err := r.Repo.RevisionList(ctx, ciphertextPath)
		if err != nil {
			yield(nil, fmt.Errorf("listing commits of %s: %w", ciphertextPath, err))
			return
		}
		r.Logger.Debugw("history", map[string]any{"path": ciphertextPath, "commits": len(commits), "jobs": r.Jobs})

		label := filepath.Base(plaintextPath)
		if r.Jobs < 2 || len(commits) < 2 {
			for _, c := range commits {
				if !yield(r.reconstructCommit(ctx, ciphertextPath, label, c)) {
					return
				}
			}
			return
		}
		r.reconstructParallel(ctx, ciphertextPath, label, commits, yield)
	}
}

type outcome struct {
	report *DiffReport
	err    error
}

// reconstructParallel fans commits out to a bounded pool and yields results
// in commit order. Stopping early cancels outstanding work and waits for it
// so that every temporary file is gone when this returns.
func (r *Reconstructor) reconstructParallel(ctx context.Context, path, label string, commits []string, yield func(*DiffReport, error) bool) {
	ctx, cancel := context.WithCancel(ctx)

	results := make([]chan outcome, len(commits))
	for i := range results {
		results[i] = make(chan outcome, 1)
	}

	var g errgroup.Group
	g.SetLimit(r.Jobs)

	scheduled := make(chan struct{})
	go func() {
		defer close(scheduled)
		for i, c := range commits {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					results[i] <- outcome{&DiffReport{Commit: c}, err}
					return nil
				}
				report, err := r.reconstructCommit(ctx, path, label, c)
				results[i] <- outcome{report, err}
				return nil
			})
		}
	}()

	defer func() {
		cancel()
		<-scheduled
		_ = g.Wait()
	}()

	for i := range commits {
		o := <-results[i]
		if !yield(o.report, o.err) {
			return
		}
	}
}

// reconstructCommit decrypts the post- and pre-images of one commit, diffs
// them and removes everything it staged before returning.
func (r *Reconstructor) reconstructCommit(ctx context.Context, path, label, commit string) (report *DiffReport, err error) {
	report = &DiffReport{Commit: commit}
	scope := &tempScope{dir: r.TempDir}
	defer func() {
		if rerr := scope.release(); rerr != nil {
			err = errors.Join(err, fmt.Errorf("removing temporary files for %s: %w", shortID(commit), rerr))
		}
	}()

	stem := label + "." + shortID(commit)

	postPlain, err := r.stage(ctx, scope, path, commit, stem+".post")
	if err != nil {
		return report, fmt.Errorf("commit %s: %w", shortID(commit), err)
	}
	prePlain, err := r.stage(ctx, scope, path, gitx.ParentRev(commit), stem+".pre")
	if err != nil {
		return report, fmt.Errorf("commit %s: %w", shortID(commit), err)
	}

	msg, err := r.Repo.LogMessage(ctx, path, commit)
	if err != nil {
		return report, fmt.Errorf("commit %s: reading message: %w", shortID(commit), err)
	}

	text, err := r.Differ.Diff(ctx, prePlain, postPlain, "a/"+label, "b/"+label)
	if err != nil {
		return report, fmt.Errorf("commit %s: %w", shortID(commit), err)
	}

	report.Message = msg
	report.Diff = text
	return report, nil
}

// stage writes the plaintext of path at rev to a temporary file and returns
// its name. Content absent at rev stages an empty file without consulting
// the cipher.
func (r *Reconstructor) stage(ctx context.Context, scope *tempScope, path, rev, stem string) (string, error) {
	blob, err := r.Repo.BlobAt(ctx, path, rev)
	if err != nil {
		return "", fmt.Errorf("reading %s at %s: %w", path, rev, err)
	}
	if len(blob) == 0 {
		return scope.write(stem+".*", nil)
	}

	encrypted, err := scope.write(stem+"."+secrets.Extension+".*", blob)
	if err != nil {
		return "", err
	}
	plain, err := scope.reserve(stem + ".*")
	if err != nil {
		return "", err
	}
	if err := r.Cipher.Decrypt(ctx, encrypted, plain); err != nil {
		return "", err
	}
	return plain, nil
}

func shortID(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
