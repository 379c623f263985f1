package workflows

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PolarWolf314/cloak/internal/cipher"
	"github.com/PolarWolf314/cloak/internal/configs"
	kerrors "github.com/PolarWolf314/cloak/internal/errors"
	"github.com/PolarWolf314/cloak/internal/gitx"
	"github.com/PolarWolf314/cloak/internal/history"
	"github.com/PolarWolf314/cloak/internal/secrets"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type workflowFixture struct {
	root   string
	cipher *cipher.Fake
	repo   *gitx.FakeRepo
	env    Env
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()
	root := t.TempDir()
	f := &workflowFixture{
		root:   root,
		cipher: cipher.NewFake(),
		repo:   gitx.NewFakeRepo(root),
	}
	f.env = Env{
		Settings: configs.Settings{
			RepoRoot:       root,
			Backend:        "fake",
			Recipient:      "team@example.com",
			Backdate:       time.Second,
			IdentityFile:   filepath.Join(root, "config", "identity"),
			AgentAvailable: true,
		},
		Cipher: f.cipher,
		Repo:   f.repo,
	}
	return f
}

func (f *workflowFixture) path(rel string) string {
	return filepath.Join(f.root, filepath.FromSlash(rel))
}

// write creates rel with content and the given modification time.
func (f *workflowFixture) write(t *testing.T, rel, content string, mtime time.Time) string {
	t.Helper()
	p := f.path(rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	require.NoError(t, os.Chtimes(p, mtime, mtime))
	return p
}

// seal creates the ciphertext sibling of plaintext rel.
func (f *workflowFixture) seal(t *testing.T, rel, plaintext string, mtime time.Time) string {
	t.Helper()
	dir, base := filepath.Split(filepath.FromSlash(rel))
	return f.write(t, filepath.Join(dir, "."+base+"."+secrets.Extension), string(cipher.FakeSeal([]byte(plaintext))), mtime)
}

func modTime(t *testing.T, path string) time.Time {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.ModTime()
}

func TestEncrypt_ExplicitBatchAbortsOnFailure(t *testing.T) {
	f := newWorkflowFixture(t)
	a := f.write(t, "a.env", "A=1\n", epoch)
	b := f.write(t, "b.env", "B=1\n", epoch)
	c := f.write(t, "c.env", "C=1\n", epoch)
	f.cipher.FailEncrypt[b] = 7

	result, err := Encrypt(context.Background(), f.env, EncryptOptions{FilePatterns: []string{"a.env", "b.env", "c.env"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, kerrors.ErrCapabilityFailure)
	assert.Equal(t, 7, kerrors.ExitCode(err))

	require.NotNil(t, result)
	require.Len(t, result.Results, 1, "the failed file is not reported as a result")
	assert.True(t, result.Results[0].Transformed())
	assert.Equal(t, a, result.Results[0].Source)

	info, err := os.Stat(a)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "earlier file keeps its restricted mode")
	assert.FileExists(t, secrets.ToCiphertext(a))

	assert.NoFileExists(t, secrets.ToCiphertext(b))
	assert.NoFileExists(t, secrets.ToCiphertext(c))
	assert.Equal(t, 2, f.cipher.EncryptCalls)
}

func TestEncrypt_ResolvedSetSkipsMissingPlaintexts(t *testing.T) {
	f := newWorkflowFixture(t)
	f.write(t, "app/.env", "A=2\n", epoch.Add(time.Hour))
	f.seal(t, "app/.env", "A=1\n", epoch)
	orphan := f.seal(t, "lib/secret.txt", "S=1\n", epoch)

	result, err := Encrypt(context.Background(), f.env, EncryptOptions{})
	require.NoError(t, err)

	require.Len(t, result.Results, 1)
	assert.Equal(t, f.path("app/.env"), result.Results[0].Source)
	assert.True(t, result.Results[0].Transformed())
	assert.Equal(t, []string{orphan}, result.MissingPlaintexts)
	assert.Equal(t, []string{"team@example.com"}, f.cipher.Recipients)
}

func TestEncrypt_SecondRunIsNoop(t *testing.T) {
	f := newWorkflowFixture(t)
	f.write(t, "a.env", "A=1\n", epoch)
	opts := EncryptOptions{FilePatterns: []string{"a.env"}}

	_, err := Encrypt(context.Background(), f.env, opts)
	require.NoError(t, err)
	result, err := Encrypt(context.Background(), f.env, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, f.cipher.EncryptCalls)
	require.Len(t, result.Results, 1)
	assert.Equal(t, secrets.Skip, result.Results[0].Decision)
}

func TestEncrypt_NoMatches(t *testing.T) {
	f := newWorkflowFixture(t)

	_, err := Encrypt(context.Background(), f.env, EncryptOptions{FilePatterns: []string{"*.env"}})
	assert.ErrorIs(t, err, kerrors.ErrNoFilesFound)
}

func TestEncrypt_MissingExplicitFile(t *testing.T) {
	f := newWorkflowFixture(t)

	_, err := Encrypt(context.Background(), f.env, EncryptOptions{FilePatterns: []string{"nope.env"}})
	assert.ErrorIs(t, err, kerrors.ErrNotFound)
	assert.Equal(t, kerrors.GenericExitCode, kerrors.ExitCode(err))
}

func TestEncrypt_DryRun(t *testing.T) {
	f := newWorkflowFixture(t)
	a := f.write(t, "a.env", "A=1\n", epoch)

	var progressed []string
	result, err := Encrypt(context.Background(), f.env, EncryptOptions{
		FilePatterns: []string{"a.env"},
		DryRun:       true,
		Progress:     func(p string) { progressed = append(progressed, p) },
	})
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	require.Len(t, result.Results, 1)
	assert.Equal(t, secrets.Transform, result.Results[0].Decision)
	assert.Equal(t, []string{a}, progressed)
	assert.Zero(t, f.cipher.EncryptCalls)
	assert.NoFileExists(t, secrets.ToCiphertext(a))
}

func TestDecrypt_AllThenEncryptIsNoop(t *testing.T) {
	f := newWorkflowFixture(t)
	enc := f.seal(t, "config/db.env", "PASSWORD=x\n", epoch)

	result, err := Decrypt(context.Background(), f.env, DecryptOptions{})
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.True(t, result.Results[0].Transformed())

	plain := f.path("config/db.env")
	content, err := os.ReadFile(plain)
	require.NoError(t, err)
	assert.Equal(t, "PASSWORD=x\n", string(content))
	assert.True(t, modTime(t, plain).Equal(modTime(t, enc).Add(-time.Second)))

	encrypted, err := Encrypt(context.Background(), f.env, EncryptOptions{})
	require.NoError(t, err)
	require.Len(t, encrypted.Results, 1)
	assert.Equal(t, secrets.Skip, encrypted.Results[0].Decision)
	assert.Zero(t, f.cipher.EncryptCalls)
}

func TestDecrypt_LocalEditsAreKept(t *testing.T) {
	f := newWorkflowFixture(t)
	f.seal(t, "a.env", "A=1\n", epoch)
	plain := f.write(t, "a.env", "A=local\n", epoch.Add(time.Minute))

	result, err := Decrypt(context.Background(), f.env, DecryptOptions{})
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, secrets.SkipRisky, result.Results[0].Decision)
	require.NotEmpty(t, result.Results[0].Warnings)

	content, err := os.ReadFile(plain)
	require.NoError(t, err)
	assert.Equal(t, "A=local\n", string(content))
	assert.Zero(t, f.cipher.DecryptCalls)

	forced, err := Decrypt(context.Background(), f.env, DecryptOptions{Force: true})
	require.NoError(t, err)
	assert.True(t, forced.Results[0].Transformed())
	content, err = os.ReadFile(plain)
	require.NoError(t, err)
	assert.Equal(t, "A=1\n", string(content))
}

func TestDecrypt_AgentUnavailable(t *testing.T) {
	f := newWorkflowFixture(t)
	f.seal(t, "a.env", "A=1\n", epoch)
	f.env.Settings.AgentAvailable = false

	_, err := Decrypt(context.Background(), f.env, DecryptOptions{})
	assert.ErrorIs(t, err, kerrors.ErrAgentUnavailable)
	assert.NoFileExists(t, f.path("a.env"))
	assert.Zero(t, f.cipher.DecryptCalls)
}

func TestDecrypt_InvalidExplicitName(t *testing.T) {
	f := newWorkflowFixture(t)
	f.write(t, "a.env.encrypted", "x", epoch)

	_, err := Decrypt(context.Background(), f.env, DecryptOptions{FilePatterns: []string{"a.env.encrypted"}})
	assert.ErrorIs(t, err, kerrors.ErrInvalidName)
}

func TestDecrypt_BatchAbortPropagatesStatus(t *testing.T) {
	f := newWorkflowFixture(t)
	a := f.seal(t, "a.env", "A=1\n", epoch)
	f.seal(t, "b.env", "B=1\n", epoch)
	f.cipher.FailDecrypt[a] = 2

	result, err := Decrypt(context.Background(), f.env, DecryptOptions{FilePatterns: []string{".a.env.encrypted", ".b.env.encrypted"}})
	require.Error(t, err)
	assert.Equal(t, 2, kerrors.ExitCode(err))
	assert.Empty(t, result.Results)
	assert.NoFileExists(t, f.path("a.env"))
	assert.NoFileExists(t, f.path("b.env"))
	assert.Equal(t, 1, f.cipher.DecryptCalls)
}

func TestLog_ReportsEveryCommit(t *testing.T) {
	f := newWorkflowFixture(t)
	enc := f.seal(t, "a.env", "A=2\n", epoch)
	f.repo.Commit(enc, "aaaaaaa1", "add", cipher.FakeSeal([]byte("A=1\n")))
	f.repo.Commit(enc, "bbbbbbb2", "change", cipher.FakeSeal([]byte("A=2\n")))

	var commits []string
	result, err := Log(context.Background(), f.env, LogOptions{
		TempDir: t.TempDir(),
		Report: func(path string, report *history.DiffReport, err error) {
			assert.Equal(t, enc, path)
			assert.NoError(t, err)
			commits = append(commits, report.Commit)
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"bbbbbbb2", "aaaaaaa1"}, commits)
	assert.Equal(t, 2, result.Commits)
	assert.Zero(t, result.Failures)
}

func TestLog_ContinuesPastFailedCommit(t *testing.T) {
	f := newWorkflowFixture(t)
	enc := f.seal(t, "a.env", "A=2\n", epoch)
	f.repo.Commit(enc, "aaaaaaa1", "add", cipher.FakeSeal([]byte("A=1\n")))
	f.repo.Commit(enc, "bbbbbbb2", "broken", []byte("garbage"))

	var reported int
	result, err := Log(context.Background(), f.env, LogOptions{
		FilePatterns: []string{".a.env.encrypted"},
		Jobs:         2,
		TempDir:      t.TempDir(),
		Report:       func(string, *history.DiffReport, error) { reported++ },
	})
	require.Error(t, err)
	assert.Equal(t, cipher.BoxFailureStatus, kerrors.ExitCode(err))
	assert.Equal(t, 2, reported)
	assert.Equal(t, 2, result.Commits)
	assert.Equal(t, 1, result.Failures)
}

func TestLog_AgentUnavailable(t *testing.T) {
	f := newWorkflowFixture(t)
	enc := f.seal(t, "a.env", "A=1\n", epoch)
	f.repo.Commit(enc, "aaaaaaa1", "add", cipher.FakeSeal([]byte("A=1\n")))
	f.env.Settings.AgentAvailable = false

	_, err := Log(context.Background(), f.env, LogOptions{})
	assert.ErrorIs(t, err, kerrors.ErrAgentUnavailable)
}

func TestList(t *testing.T) {
	f := newWorkflowFixture(t)
	f.seal(t, "z.env", "", epoch)
	f.seal(t, "a/b.env", "", epoch)
	f.seal(t, ".hidden/c.env", "", epoch)
	f.write(t, "plain.env", "", epoch)

	result, err := List(context.Background(), f.env)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(".hidden", ".c.env.encrypted"),
		".z.env.encrypted",
		filepath.Join("a", ".b.env.encrypted"),
	}, result.Files)
}

func TestStatus(t *testing.T) {
	f := newWorkflowFixture(t)
	f.seal(t, "current.env", "", epoch)
	f.write(t, "current.env", "", epoch.Add(-time.Second))
	f.seal(t, "stale.env", "", epoch)
	f.write(t, "stale.env", "", epoch.Add(time.Hour))
	f.seal(t, "only.env", "", epoch)

	result, err := Status(context.Background(), f.env)
	require.NoError(t, err)

	require.Len(t, result.Files, 3)
	byPath := make(map[string]FileStatusInfo)
	for _, file := range result.Files {
		byPath[file.Path] = file
	}
	assert.Equal(t, StatusCurrent, byPath["current.env"].Status)
	assert.Equal(t, StatusStale, byPath["stale.env"].Status)
	assert.Equal(t, StatusEncryptedOnly, byPath["only.env"].Status)
	assert.Empty(t, byPath["only.env"].PlaintextMtime)
	assert.Equal(t, StatusSummary{Current: 1, Stale: 1, EncryptedOnly: 1}, result.Summary)
}

func TestKeygen_Configure(t *testing.T) {
	f := newWorkflowFixture(t)

	result, err := Keygen(context.Background(), f.env, KeygenOptions{Configure: true})
	require.NoError(t, err)
	assert.FileExists(t, result.IdentityFile)
	assert.NotEmpty(t, result.Recipient)

	pf, err := configs.LoadProjectFile(f.root)
	require.NoError(t, err)
	assert.Equal(t, cipher.BackendBox, pf.Backend)
	assert.Equal(t, result.Recipient, pf.Recipient)

	_, err = Keygen(context.Background(), f.env, KeygenOptions{})
	assert.ErrorIs(t, err, os.ErrExist)
}

func TestDoctor(t *testing.T) {
	f := newWorkflowFixture(t)
	f.write(t, "a.env", "", epoch.Add(time.Hour))
	f.seal(t, "a.env", "", epoch)
	hidden := f.write(t, "b.env", "", epoch)
	f.seal(t, "b.env", "", epoch.Add(time.Second))
	f.repo.SetIgnored(hidden, true)
	f.cipher.Available = false

	result, err := Doctor(context.Background(), f.env)
	require.NoError(t, err)

	byName := make(map[string]CheckResult)
	for _, c := range result.Checks {
		byName[c.Name] = c
	}

	assert.Equal(t, CheckPass, byName["Cipher backend"].Status)
	assert.Equal(t, CheckWarning, byName["Decryption agent"].Status)
	assert.Equal(t, CheckPass, byName["Identity permissions"].Status)

	ignore := byName["Ignore rules"]
	assert.Equal(t, CheckError, ignore.Status)
	assert.Contains(t, ignore.Message, "a.env")
	assert.NotContains(t, ignore.Message, "b.env")

	assert.Equal(t, CheckWarning, byName["Encrypted files"].Status)
	assert.Equal(t, DoctorSummary{Passed: 3, Warnings: 2, Errors: 1}, result.Summary)
	assert.Contains(t, result.Suggestions, "Add the plaintext files to .gitignore")
}
