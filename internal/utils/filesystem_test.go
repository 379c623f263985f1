package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", ".marker"), nil, 0600))

	t.Run("FoundInAncestor", func(t *testing.T) {
		got, err := FindUp(nested, ".marker")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "a"), got)
	})

	t.Run("FoundInStart", func(t *testing.T) {
		got, err := FindUp(filepath.Join(root, "a"), ".marker")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "a"), got)
	})

	t.Run("NotFound", func(t *testing.T) {
		got, err := FindUp(nested, ".no-such-marker-for-cloak-tests")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
