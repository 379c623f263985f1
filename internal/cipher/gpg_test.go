package cipher

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubHelper writes an executable shell script standing in for
// gpg-connect-agent.
func stubHelper(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(t.TempDir(), "agent-helper")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0700))
	return path
}

func TestGPG_AgentAvailable(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{
			name: "agent answers",
			body: `[ "$1" = "--no-autostart" ] && [ "$2" = "GETINFO version" ] && [ "$3" = "/bye" ] || exit 2
printf 'D 2.4.5\nOK\n'`,
			want: true,
		},
		{
			name: "no agent running but exit status zero",
			body: `echo "gpg-connect-agent: no gpg-agent running in this session" >&2
printf 'ERR 67125247 Not supported <GPG Agent>\n'`,
			want: false,
		},
		{
			name: "no reply at all",
			body: `echo "gpg-connect-agent: no gpg-agent running in this session" >&2`,
			want: false,
		},
		{
			name: "helper fails",
			body: `printf 'OK\n'; exit 1`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			helper := stubHelper(t, tt.body)
			g := &GPG{AgentHelper: helper + " --no-autostart"}
			assert.Equal(t, tt.want, g.AgentAvailable(context.Background()))
		})
	}
}

func TestGPG_AgentAvailableWithoutHelper(t *testing.T) {
	assert.False(t, (&GPG{}).AgentAvailable(context.Background()))
	assert.False(t, (&GPG{AgentHelper: "/nonexistent/agent-helper"}).AgentAvailable(context.Background()))
}

func TestAgentReplied(t *testing.T) {
	assert.True(t, agentReplied([]byte("D 2.4.5\r\nOK\r\n")))
	assert.True(t, agentReplied([]byte("OK closing connection\n")))
	assert.False(t, agentReplied([]byte("")))
	assert.False(t, agentReplied([]byte("OK\nERR 1 failure\n")))
}
