package gitx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	kerrors "github.com/PolarWolf314/cloak/internal/errors"
)

// Repo is the version-control capability consumed by the transform engine
// and the history reconstructor. Paths are filesystem paths; implementations
// resolve them against the repository containing them.
type Repo interface {
	// Root returns the top-level directory of the work tree containing dir.
	Root(ctx context.Context, dir string) (string, error)

	// RevisionList returns the commits that modified path, newest first.
	RevisionList(ctx context.Context, path string) ([]string, error)

	// BlobAt returns the content of path at rev. A path or revision that
	// does not exist yields an empty slice and a nil error; any other
	// failure is an error.
	BlobAt(ctx context.Context, path, rev string) ([]byte, error)

	// LogMessage returns the author, date and message of commit.
	LogMessage(ctx context.Context, path, commit string) (string, error)

	// IsIgnored reports whether path is excluded by the ignore rules.
	IsIgnored(ctx context.Context, path string) (bool, error)

	// ConfigGet reads a repository-scoped configuration key. A missing key
	// yields "" and a nil error.
	ConfigGet(ctx context.Context, dir, key string) (string, error)
}

// ParentRev names the first parent of commit.
func ParentRev(commit string) string {
	return commit + "~1"
}

// RealGitRepo implements Repo by running the git binary.
type RealGitRepo struct {
	// Binary defaults to "git".
	Binary string
}

// NewRealGitRepo creates a new RealGitRepo.
func NewRealGitRepo() *RealGitRepo {
	return &RealGitRepo{Binary: "git"}
}

func (g *RealGitRepo) binary() string {
	if g.Binary == "" {
		return "git"
	}
	return g.Binary
}

// CheckDependencies verifies the git binary can be found.
func (g *RealGitRepo) CheckDependencies() error {
	if _, err := exec.LookPath(g.binary()); err != nil {
		return fmt.Errorf("%s: %w", g.binary(), kerrors.ErrDependencyMissing)
	}
	return nil
}

// runGit executes git in dir and returns stdout.
func (g *RealGitRepo) runGit(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, g.binary(), args...)
	cmd.Dir = dir
	// absentBlob matches git's untranslated messages.
	cmd.Env = append(os.Environ(), "LC_ALL=C")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &gitError{args: args, stderr: strings.TrimSpace(stderr.String()), err: err}
	}
	return stdout.Bytes(), nil
}

type gitError struct {
	args   []string
	stderr string
	err    error
}

func (e *gitError) Error() string {
	if e.stderr == "" {
		return fmt.Sprintf("git %s: %v", strings.Join(e.args, " "), e.err)
	}
	return fmt.Sprintf("git %s: %v: %s", strings.Join(e.args, " "), e.err, e.stderr)
}

func (e *gitError) Unwrap() error { return e.err }

func exitStatus(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func splitPath(path string) (dir, base string) {
	return filepath.Dir(path), filepath.Base(path)
}

func (g *RealGitRepo) Root(ctx context.Context, dir string) (string, error) {
	out, err := g.runGit(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not in a git repository: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (g *RealGitRepo) RevisionList(ctx context.Context, path string) ([]string, error) {
	dir, base := splitPath(path)
	out, err := g.runGit(ctx, dir, "log", "--format=%H", "--", base)
	if err != nil {
		return nil, fmt.Errorf("listing revisions of %s: %w", path, err)
	}
	var commits []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			commits = append(commits, line)
		}
	}
	return commits, nil
}

func (g *RealGitRepo) BlobAt(ctx context.Context, path, rev string) ([]byte, error) {
	dir, base := splitPath(path)
	out, err := g.runGit(ctx, dir, "show", rev+":./"+base)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if absentBlob(err) {
			return []byte{}, nil
		}
		return nil, fmt.Errorf("reading %s at %s: %w", path, rev, err)
	}
	return out, nil
}

// absentMessages are the git diagnostics for a path or revision that does
// not exist, as opposed to a repository that cannot be read.
var absentMessages = []string{
	"does not exist in",
	"exists on disk, but not in",
	"invalid object name",
	"unknown revision",
}

func absentBlob(err error) bool {
	var gerr *gitError
	if !errors.As(err, &gerr) {
		return false
	}
	for _, m := range absentMessages {
		if strings.Contains(gerr.stderr, m) {
			return true
		}
	}
	return false
}

func (g *RealGitRepo) LogMessage(ctx context.Context, path, commit string) (string, error) {
	dir, _ := splitPath(path)
	out, err := g.runGit(ctx, dir, "log", "-1", "--format=Author: %an <%ae>%nDate:   %ad%n%n%w(0,4,4)%B", commit)
	if err != nil {
		return "", fmt.Errorf("reading log message of %s: %w", commit, err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}

func (g *RealGitRepo) IsIgnored(ctx context.Context, path string) (bool, error) {
	dir, base := splitPath(path)
	_, err := g.runGit(ctx, dir, "check-ignore", "-q", "--", base)
	if err == nil {
		return true, nil
	}
	if exitStatus(err) == 1 {
		return false, nil
	}
	return false, fmt.Errorf("checking ignore status of %s: %w", path, err)
}

func (g *RealGitRepo) ConfigGet(ctx context.Context, dir, key string) (string, error) {
	out, err := g.runGit(ctx, dir, "config", "--get", key)
	if err != nil {
		if exitStatus(err) == 1 {
			return "", nil
		}
		return "", fmt.Errorf("reading git config %s: %w", key, err)
	}
	return strings.TrimSpace(string(out)), nil
}
