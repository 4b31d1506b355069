package usecase

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/eliteGoblin/wsreset/internal/domain"
)

// Cleaner deletes the policy's cache and session targets under a
// configuration root.
type Cleaner struct {
	fsManager domain.FileSystemManager
	targets   []string
	logger    *zap.Logger
}

// NewCleaner creates a cleaner for targets relative to the root.
func NewCleaner(fs domain.FileSystemManager, targets []string, logger *zap.Logger) *Cleaner {
	return &Cleaner{
		fsManager: fs,
		targets:   targets,
		logger:    logger,
	}
}

// Targets returns the absolute target paths under root, in deletion order.
func (c *Cleaner) Targets(root string) []string {
	paths := make([]string, len(c.targets))
	for i, rel := range c.targets {
		paths[i] = filepath.Join(root, rel)
	}
	return paths
}

// Clean removes every present target. A failure on one target is recorded
// as a warning and does not stop the remaining ones.
func (c *Cleaner) Clean(root string) (domain.CleanupResult, []domain.Warning) {
	result := domain.CleanupResult{
		Deleted: make([]string, 0),
		Failed:  make([]string, 0),
	}
	var warnings []domain.Warning

	for _, path := range c.Targets(root) {
		exists, isDir, err := c.fsManager.Stat(path)
		if err != nil {
			c.logger.Warn("cannot inspect target", zap.String("path", path), zap.Error(err))
			result.Failed = append(result.Failed, path)
			warnings = append(warnings, domain.Warning{
				Kind:    domain.WarnCleanup,
				Path:    path,
				Message: "could not inspect " + filepath.Base(path),
				Err:     err,
			})
			continue
		}
		if !exists {
			// Path doesn't exist, skip silently
			continue
		}

		if err := c.fsManager.Delete(path); err != nil {
			c.logger.Warn("failed to delete target", zap.String("path", path), zap.Error(err))
			result.Failed = append(result.Failed, path)
			warnings = append(warnings, domain.Warning{
				Kind:    domain.WarnCleanup,
				Path:    path,
				Message: "could not remove " + filepath.Base(path),
				Err:     err,
			})
			continue
		}

		if isDir {
			result.DirsDeleted++
		} else {
			result.FilesDeleted++
		}
		result.Deleted = append(result.Deleted, path)
		c.logger.Info("deleted target", zap.String("path", path), zap.Bool("dir", isDir))
	}

	return result, warnings
}
