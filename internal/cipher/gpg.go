package cipher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	kerrors "github.com/PolarWolf314/cloak/internal/errors"
)

// GPG runs the gpg binary. Decryption relies on gpg-agent holding the
// passphrase, so it is always run in batch mode.
type GPG struct {
	Binary string

	// AgentHelper is the command used to query the agent, e.g.
	// "gpg-connect-agent --no-autostart". It may carry arguments and is
	// sent agentRequest as extra arguments.
	AgentHelper string
}

func (g *GPG) Name() string { return BackendGPG }

func (g *GPG) binary() string {
	if g.Binary == "" {
		return "gpg"
	}
	return g.Binary
}

func (g *GPG) Encrypt(ctx context.Context, in, out, recipient string) error {
	args := []string{"--batch", "--yes", "--quiet", "--armor", "--encrypt"}
	if recipient == "" {
		args = append(args, "--default-recipient-self")
	} else {
		args = append(args, "--recipient", recipient)
	}
	args = append(args, "--output", out, in)
	return g.run(ctx, "encrypt", in, args...)
}

func (g *GPG) Decrypt(ctx context.Context, in, out string) error {
	return g.run(ctx, "decrypt", in, "--batch", "--yes", "--quiet", "--decrypt", "--output", out, in)
}

func (g *GPG) run(ctx context.Context, op, in string, args ...string) error {
	cmd := exec.CommandContext(ctx, g.binary(), args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	capErr := &kerrors.CapabilityError{Op: op, Path: in, Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		capErr.ExitStatus = exitErr.ExitCode()
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			capErr.Err = errors.New(msg)
		} else {
			capErr.Err = nil
		}
	}
	return capErr
}

// agentRequest is a request only a running agent answers with OK.
// gpg-connect-agent exits 0 even when no agent is reachable, so the reply
// decides.
var agentRequest = []string{"GETINFO version", "/bye"}

// AgentAvailable sends agentRequest through the helper and requires an OK
// reply without any ERR line.
func (g *GPG) AgentAvailable(ctx context.Context) bool {
	fields := strings.Fields(g.AgentHelper)
	if len(fields) == 0 {
		return false
	}
	args := append(fields[1:len(fields):len(fields)], agentRequest...)
	out, err := exec.CommandContext(ctx, fields[0], args...).Output()
	if err != nil {
		return false
	}
	return agentReplied(out)
}

func agentReplied(out []byte) bool {
	ok := false
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "OK" || strings.HasPrefix(line, "OK "):
			ok = true
		case line == "ERR" || strings.HasPrefix(line, "ERR "):
			return false
		}
	}
	return ok
}

func (g *GPG) CheckDependencies() error {
	if _, err := exec.LookPath(g.binary()); err != nil {
		return fmt.Errorf("%s: %w", g.binary(), kerrors.ErrDependencyMissing)
	}
	return nil
}
