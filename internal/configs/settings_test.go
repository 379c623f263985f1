package configs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/PolarWolf314/cloak/internal/gitx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_Defaults(t *testing.T) {
	root := t.TempDir()
	repo := gitx.NewFakeRepo(root)

	s, err := Load(context.Background(), root, repo, envMap(map[string]string{"XDG_CONFIG_HOME": "/cfg"}))
	require.NoError(t, err)

	assert.Equal(t, root, s.RepoRoot)
	assert.Equal(t, DefaultBackend, s.Backend)
	assert.Equal(t, DefaultRecipient, s.Recipient)
	assert.Equal(t, DefaultAgentHelper, s.AgentHelper)
	assert.Equal(t, filepath.Join("/cfg", "cloak", "identity"), s.IdentityFile)
	assert.Equal(t, time.Second, s.Backdate)
	assert.False(t, s.AgentAvailable)
}

func TestLoad_Precedence(t *testing.T) {
	root := t.TempDir()
	repo := gitx.NewFakeRepo(root)

	require.NoError(t, SaveTOML(filepath.Join(root, ProjectFileName), ProjectFile{
		Recipient:   "toml@example.com",
		AgentHelper: "toml-helper",
		Backdate:    "3s",
		Backend:     "box",
	}))
	repo.SetConfig("cloak.recipient", "git@example.com")
	repo.SetConfig("cloak.agentHelper", "git-helper")

	env := envMap(map[string]string{"CLOAK_RECIPIENT": "env@example.com"})

	s, err := Load(context.Background(), root, repo, env)
	require.NoError(t, err)

	assert.Equal(t, "env@example.com", s.Recipient, "environment wins")
	assert.Equal(t, "git-helper", s.AgentHelper, "git config beats toml")
	assert.Equal(t, 3*time.Second, s.Backdate, "toml beats default")
	assert.Equal(t, "box", s.Backend)
}

func TestLoad_InvalidBackdate(t *testing.T) {
	root := t.TempDir()
	repo := gitx.NewFakeRepo(root)

	for _, v := range []string{"soon", "0s", "-1s"} {
		_, err := Load(context.Background(), root, repo, envMap(map[string]string{"CLOAK_BACKDATE": v}))
		assert.Error(t, err, v)
	}
}

func TestLoad_MalformedProjectFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ProjectFileName), []byte("recipient = [unterminated"), 0600))

	_, err := Load(context.Background(), root, gitx.NewFakeRepo(root), envMap(nil))
	assert.Error(t, err)
}

func TestLoadProjectFile_Missing(t *testing.T) {
	pf, err := LoadProjectFile(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &ProjectFile{}, pf)
}

func TestLoad_OutsideRepository(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "svc", "api")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, SaveTOML(filepath.Join(root, ProjectFileName), ProjectFile{Backend: "box"}))

	repo := gitx.NewFakeRepo(root)
	repo.SetError(errors.New("not a git repository"))

	s, err := Load(context.Background(), nested, repo, envMap(nil))
	require.NoError(t, err, "git config is skipped outside a repository")
	assert.Equal(t, root, s.RepoRoot)
	assert.Equal(t, "box", s.Backend)
}
