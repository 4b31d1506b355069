package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/eliteGoblin/wsreset/internal/domain"
)

// FileRunLock implements domain.RunLocker with an advisory lock on a
// dotfile next to the configuration root, so locking never creates or
// touches anything inside the root itself.
type FileRunLock struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// NewFileRunLock creates a lock for the given configuration root.
func NewFileRunLock(root string) *FileRunLock {
	name := "." + filepath.Base(root) + ".wsreset.lock"
	return &FileRunLock{path: filepath.Join(filepath.Dir(root), name)}
}

// Path returns the lock file path.
func (l *FileRunLock) Path() string {
	return l.path
}

// Acquire takes the lock without blocking. It fails with
// domain.ErrResetInProgress if another process holds it.
func (l *FileRunLock) Acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return nil
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return fmt.Errorf("%w: %s: %v", domain.ErrResetInProgress, l.path, err)
	}

	l.file = f
	return nil
}

// Release drops the lock and removes the lock file.
func (l *FileRunLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	_ = unlockFile(l.file)
	err := l.file.Close()
	l.file = nil
	_ = os.Remove(l.path)
	return err
}

// Ensure FileRunLock implements domain.RunLocker.
var _ domain.RunLocker = (*FileRunLock)(nil)
