package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/errors"
)

func TestNewInputStore(t *testing.T) {
	dir := t.TempDir()

	store, err := NewInputStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "localfs", store.Provider())
}

func TestNewInputStoreRejects(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.wav")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	for _, root := range []string{"", filepath.Join(dir, "missing"), file} {
		_, err := NewInputStore(root)
		require.Error(t, err, root)
		assert.True(t, errors.IsValidation(err), root)
	}
}
