package infra

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/eliteGoblin/wsreset/internal/domain"
)

// FileSystemManagerImpl implements domain.FileSystemManager.
type FileSystemManagerImpl struct{}

// NewFileSystemManager creates a new filesystem manager.
func NewFileSystemManager() domain.FileSystemManager {
	return &FileSystemManagerImpl{}
}

// Stat reports existence and type without following symlinks, so a link
// to a directory is removed as a file and its target is left alone.
func (fm *FileSystemManagerImpl) Stat(path string) (bool, bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, false, nil
		}
		return false, false, err
	}
	return true, info.IsDir(), nil
}

// Delete removes a file or directory recursively.
func (fm *FileSystemManagerImpl) Delete(path string) error {
	return os.RemoveAll(path)
}

// Size returns the total size of regular files under path.
// Unreadable entries are skipped.
func (fm *FileSystemManagerImpl) Size(path string) int64 {
	var total int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}

// Ensure FileSystemManagerImpl implements domain.FileSystemManager.
var _ domain.FileSystemManager = (*FileSystemManagerImpl)(nil)
