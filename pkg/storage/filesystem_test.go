package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	name, err := store.SaveStream("avatar-user-1.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "avatar-user-1.png", name)

	content, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(content))

	require.NoError(t, store.Delete(name))
	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStorageSanitizesPathTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	name, err := store.SaveStream("../../etc/passwd", strings.NewReader("nope"))
	require.NoError(t, err)
	assert.Equal(t, "passwd", name)

	_, err = os.Stat(filepath.Join(dir, "passwd"))
	assert.NoError(t, err)
}

func TestLocalStorageDeleteMissingIsNoop(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, store.Delete("never-existed.png"))
}
