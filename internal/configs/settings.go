package configs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/PolarWolf314/cloak/internal/gitx"
	"github.com/PolarWolf314/cloak/internal/utils"
)

// DefaultBackdate is the default gap between a ciphertext's modification time
// and that of the plaintext decrypted from it.
const DefaultBackdate = time.Second

const (
	DefaultBackend     = "gpg"
	DefaultRecipient   = ""
	DefaultAgentHelper = "gpg-connect-agent --no-autostart"
)

// Settings is the resolved, read-only configuration for one run.
type Settings struct {
	RepoRoot     string
	Backend      string
	Recipient    string
	AgentHelper  string
	IdentityFile string
	Backdate     time.Duration

	// AgentAvailable is filled in by the caller after probing the cipher.
	AgentAvailable bool
}

type setting struct {
	env      string
	gitKey   string
	fromTOML func(*ProjectFile) string
	def      func(getenv func(string) string) string
}

var (
	backendSetting = setting{
		env: "CLOAK_BACKEND", gitKey: "cloak.backend",
		fromTOML: func(p *ProjectFile) string { return p.Backend },
		def:      func(func(string) string) string { return DefaultBackend },
	}
	recipientSetting = setting{
		env: "CLOAK_RECIPIENT", gitKey: "cloak.recipient",
		fromTOML: func(p *ProjectFile) string { return p.Recipient },
		def:      func(func(string) string) string { return DefaultRecipient },
	}
	agentHelperSetting = setting{
		env: "CLOAK_AGENT_HELPER", gitKey: "cloak.agentHelper",
		fromTOML: func(p *ProjectFile) string { return p.AgentHelper },
		def:      func(func(string) string) string { return DefaultAgentHelper },
	}
	identitySetting = setting{
		env: "CLOAK_IDENTITY", gitKey: "cloak.identity",
		fromTOML: func(p *ProjectFile) string { return p.Identity },
		def:      DefaultIdentityFile,
	}
	backdateSetting = setting{
		env: "CLOAK_BACKDATE", gitKey: "cloak.backdate",
		fromTOML: func(p *ProjectFile) string { return p.Backdate },
		def:      func(func(string) string) string { return DefaultBackdate.String() },
	}
)

// DefaultIdentityFile returns $XDG_CONFIG_HOME/cloak/identity, falling back
// to ~/.config/cloak/identity.
func DefaultIdentityFile(getenv func(string) string) string {
	configDir := getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "cloak", "identity")
}

// Load resolves Settings for the work tree containing dir. getenv defaults
// to os.Getenv when nil. Outside a git work tree the nearest ancestor holding
// a .cloak.toml, or else dir itself, is used as the root and git config is
// not consulted.
func Load(ctx context.Context, dir string, repo gitx.Repo, getenv func(string) string) (Settings, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	inRepo := true
	root, err := repo.Root(ctx, dir)
	if err != nil {
		inRepo = false
		root = dir
		found, ferr := utils.FindUp(dir, ProjectFileName)
		if ferr != nil {
			return Settings{}, ferr
		}
		if found != "" {
			root = found
		}
	}

	pf, err := LoadProjectFile(root)
	if err != nil {
		return Settings{}, fmt.Errorf("loading %s: %w", filepath.Join(root, ProjectFileName), err)
	}

	r := resolver{ctx: ctx, root: root, getenv: getenv, pf: pf}
	if inRepo {
		r.repo = repo
	}

	s := Settings{RepoRoot: root}
	if s.Backend, err = r.resolve(backendSetting); err != nil {
		return Settings{}, err
	}
	if s.Recipient, err = r.resolve(recipientSetting); err != nil {
		return Settings{}, err
	}
	if s.AgentHelper, err = r.resolve(agentHelperSetting); err != nil {
		return Settings{}, err
	}
	if s.IdentityFile, err = r.resolve(identitySetting); err != nil {
		return Settings{}, err
	}

	backdate, err := r.resolve(backdateSetting)
	if err != nil {
		return Settings{}, err
	}
	if s.Backdate, err = time.ParseDuration(backdate); err != nil {
		return Settings{}, fmt.Errorf("invalid backdate %q: %w", backdate, err)
	}
	if s.Backdate <= 0 {
		return Settings{}, fmt.Errorf("invalid backdate %q: must be positive", backdate)
	}

	return s, nil
}

type resolver struct {
	ctx    context.Context
	root   string
	repo   gitx.Repo
	getenv func(string) string
	pf     *ProjectFile
}

func (r resolver) resolve(s setting) (string, error) {
	if v := r.getenv(s.env); v != "" {
		return v, nil
	}
	if r.repo != nil {
		v, err := r.repo.ConfigGet(r.ctx, r.root, s.gitKey)
		if err != nil {
			return "", err
		}
		if v != "" {
			return v, nil
		}
	}
	if v := s.fromTOML(r.pf); v != "" {
		return v, nil
	}
	return s.def(r.getenv), nil
}
