package fs

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp")
	fs := New()
	dir, err := fs.UserCacheDir()
	assert.NoError(t, err)
	assert.NotEmpty(t, dir)
}

func TestInstallDir(t *testing.T) {
	fs := New()
	dir, err := fs.InstallDir()
	assert.NoError(t, err)
	assert.NotEmpty(t, dir)
}

func TestMkdirAll(t *testing.T) {
	dir := t.TempDir()
	fs := New()
	err := fs.MkdirAll(path.Join(dir, "foo/bar"))
	assert.NoError(t, err)
}

func TestFileExists(t *testing.T) {
	t.Run("exists", func(t *testing.T) {
		dir := t.TempDir()
		filePath := path.Join(dir, "sample")
		require.NoError(t, os.WriteFile(filePath, []byte("foo"), 0644))
		fs := New()
		result, err := fs.FileExists(filePath)
		assert.NoError(t, err)
		assert.True(t, result)
	})

	t.Run("does not exist", func(t *testing.T) {
		dir := t.TempDir()
		fs := New()
		result, err := fs.FileExists(path.Join(dir, "missing"))
		assert.NoError(t, err)
		assert.False(t, result)
	})

	t.Run("directory is not a file", func(t *testing.T) {
		dir := t.TempDir()
		fs := New()
		result, err := fs.FileExists(dir)
		assert.NoError(t, err)
		assert.False(t, result)
	})
}

func TestReadWriteRemove(t *testing.T) {
	dir := t.TempDir()
	filePath := path.Join(dir, "sample")
	fs := New()

	require.NoError(t, fs.WriteFile(filePath, "contents"))
	data, err := fs.ReadFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, "contents", string(data))

	require.NoError(t, fs.Remove(filePath))
	_, err = fs.ReadFile(filePath)
	assert.Error(t, err)
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()
	fs := New()
	f, err := fs.Create(path.Join(dir, "created"))
	require.NoError(t, err)
	assert.NoError(t, f.Close())
}

func TestTempFile(t *testing.T) {
	dir := t.TempDir()
	fs := New()
	f, err := fs.TempFile(dir, "pythia-*")
	require.NoError(t, err)
	assert.Contains(t, f.Name(), "pythia-")
	assert.NoError(t, f.Close())
}
