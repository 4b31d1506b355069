package usecase

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/wsreset/internal/domain"
	"github.com/eliteGoblin/wsreset/internal/policy"
)

func windsurfTargets() []string {
	return policy.NewWindsurfPolicy().CleanupTargets()
}

func TestCleaner_Targets(t *testing.T) {
	c := NewCleaner(newMockFS(), []string{"Cache", filepath.Join("User", "workspaceStorage")}, zap.NewNop())

	assert.Equal(t, []string{
		filepath.Join("/root", "Cache"),
		filepath.Join("/root", "User", "workspaceStorage"),
	}, c.Targets("/root"))
}

func TestCleaner_CountsPresentTargets(t *testing.T) {
	root := "/cfg/Windsurf"
	fs := newMockFS()
	// 5 of 13 present
	fs.addFile(filepath.Join(root, "Cookies"))
	fs.addFile(filepath.Join(root, "Network Persistent State"))
	fs.addDir(filepath.Join(root, "Cache"))
	fs.addDir(filepath.Join(root, "IndexedDB"))
	fs.addDir(filepath.Join(root, "logs"))

	c := NewCleaner(fs, windsurfTargets(), zap.NewNop())
	result, warnings := c.Clean(root)

	assert.Empty(t, warnings)
	assert.Equal(t, 2, result.FilesDeleted)
	assert.Equal(t, 3, result.DirsDeleted)
	assert.Equal(t, 5, result.Total())
	assert.Len(t, result.Deleted, 5)
	assert.Empty(t, result.Failed)
}

func TestCleaner_SecondRunDeletesNothing(t *testing.T) {
	root := "/cfg/Windsurf"
	fs := newMockFS()
	fs.addDir(filepath.Join(root, "GPUCache"))
	fs.addFile(filepath.Join(root, "Cookies-journal"))

	c := NewCleaner(fs, windsurfTargets(), zap.NewNop())
	first, _ := c.Clean(root)
	second, warnings := c.Clean(root)

	assert.Equal(t, 2, first.Total())
	assert.Equal(t, 0, second.Total())
	assert.Empty(t, warnings)
}

func TestCleaner_FailuresBecomeWarnings(t *testing.T) {
	root := "/cfg/Windsurf"
	cache := filepath.Join(root, "Cache")
	logs := filepath.Join(root, "logs")
	fs := newMockFS()
	fs.addDir(cache)
	fs.addDir(logs)
	fs.addDir(filepath.Join(root, "GPUCache"))
	fs.deleteErr[cache] = errDisk
	fs.statErr[logs] = errDisk

	c := NewCleaner(fs, windsurfTargets(), zap.NewNop())
	result, warnings := c.Clean(root)

	require.Len(t, warnings, 2)
	for _, w := range warnings {
		assert.Equal(t, domain.WarnCleanup, w.Kind)
		assert.ErrorIs(t, w.Err, errDisk)
	}
	assert.Equal(t, []string{cache, logs}, result.Failed)
	assert.Equal(t, 1, result.DirsDeleted)
}
