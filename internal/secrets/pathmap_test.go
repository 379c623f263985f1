package secrets

import (
	"testing"

	kerrors "github.com/PolarWolf314/cloak/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCiphertext(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"secret.txt", ".secret.txt.encrypted"},
		{"config/db.yml", "config/.db.yml.encrypted"},
		{"./notes", "./.notes.encrypted"},
		{"/abs/dir/.hidden", "/abs/dir/..hidden.encrypted"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToCiphertext(tt.in), tt.in)
	}
}

func TestPathMapping_RoundTrip(t *testing.T) {
	for _, p := range []string{
		"secret.txt",
		"./secret.txt",
		"a/b/c.env",
		"/abs/.hidden",
		"dir/name.encrypted",
		"x",
	} {
		got, err := ToPlaintext(ToCiphertext(p))
		require.NoError(t, err, p)
		assert.Equal(t, p, got)
	}
}

func TestToPlaintext_InvalidName(t *testing.T) {
	for _, p := range []string{
		"secret.txt",
		"secret.txt.encrypted",
		".secret.txt",
		"dir/.secret.encrypt",
		".encrypted",
		"..encrypted",
		"dir/",
	} {
		_, err := ToPlaintext(p)
		assert.ErrorIs(t, err, kerrors.ErrInvalidName, p)
		assert.False(t, IsCiphertext(p), p)
	}
}

func TestToPlaintext_Valid(t *testing.T) {
	got, err := ToPlaintext("dir/.notes.encrypted")
	require.NoError(t, err)
	assert.Equal(t, "dir/notes", got)
	assert.True(t, IsCiphertext("dir/.notes.encrypted"))
}
