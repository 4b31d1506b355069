package infra

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSystemManager(t *testing.T) {
	dir := t.TempDir()
	fm := NewFileSystemManager()

	file := filepath.Join(dir, "Cookies")
	require.NoError(t, os.WriteFile(file, []byte("12345"), 0644))
	tree := filepath.Join(dir, "Cache")
	require.NoError(t, os.MkdirAll(filepath.Join(tree, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tree, "a"), []byte("abc"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tree, "sub", "b"), []byte("defg"), 0644))

	exists, isDir, err := fm.Stat(file)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.False(t, isDir)

	exists, isDir, err = fm.Stat(tree)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.True(t, isDir)

	exists, _, err = fm.Stat(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Equal(t, int64(5), fm.Size(file))
	assert.Equal(t, int64(7), fm.Size(tree))

	require.NoError(t, fm.Delete(tree))
	assert.NoDirExists(t, tree)
	require.NoError(t, fm.Delete(filepath.Join(dir, "missing")))
}

func TestFileSystemManager_SymlinkNotFollowed(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	target := filepath.Join(dir, "outside")
	require.NoError(t, os.MkdirAll(target, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "keep"), []byte("x"), 0644))
	link := filepath.Join(dir, "GPUCache")
	require.NoError(t, os.Symlink(target, link))

	fm := NewFileSystemManager()
	exists, isDir, err := fm.Stat(link)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.False(t, isDir)

	require.NoError(t, fm.Delete(link))
	assert.FileExists(t, filepath.Join(target, "keep"))
}
