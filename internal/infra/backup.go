package infra

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/wsreset/internal/domain"
)

const (
	backupSuffix     = ".backup_"
	backupTimeLayout = "20060102_150405"

	// Same-second backups get _1, _2, ... appended.
	maxBackupCollisions = 100
)

// BackupManagerImpl copies the storage file to a timestamped sibling before mutation.
type BackupManagerImpl struct {
	now    func() time.Time
	logger *zap.Logger
}

// NewBackupManager creates a new backup manager.
func NewBackupManager(logger *zap.Logger) *BackupManagerImpl {
	return NewBackupManagerWithClock(time.Now, logger)
}

// NewBackupManagerWithClock creates a backup manager with a custom clock (for testing).
func NewBackupManagerWithClock(now func() time.Time, logger *zap.Logger) *BackupManagerImpl {
	return &BackupManagerImpl{now: now, logger: logger}
}

// BackupName returns <path>.backup_<YYYYMMDD_HHMMSS> for the current time.
func (bm *BackupManagerImpl) BackupName(path string) string {
	return path + backupSuffix + bm.now().Format(backupTimeLayout)
}

// Backup copies path byte-for-byte to its timestamped sibling. An existing
// backup is never replaced.
func (bm *BackupManagerImpl) Backup(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", domain.ErrBackupFailed, err)
	}

	base := bm.BackupName(path)
	for n := 0; n < maxBackupCollisions; n++ {
		dst := base
		if n > 0 {
			dst = fmt.Sprintf("%s_%d", base, n)
		}
		err := copyFile(path, dst, info.Mode().Perm())
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", domain.ErrBackupFailed, dst, err)
		}
		bm.logger.Info("backup created", zap.String("source", path), zap.String("backup", dst))
		return dst, nil
	}
	return "", fmt.Errorf("%w: too many backups named %s", domain.ErrBackupFailed, base)
}

// List returns existing backups of path, newest first.
func (bm *BackupManagerImpl) List(path string) ([]string, error) {
	dir := filepath.Dir(path)
	prefix := filepath.Base(path) + backupSuffix

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	type stamped struct {
		path string
		at   time.Time
		seq  int
	}
	var found []stamped
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		at, seq, ok := parseBackupStamp(strings.TrimPrefix(e.Name(), prefix))
		if !ok {
			continue
		}
		found = append(found, stamped{path: filepath.Join(dir, e.Name()), at: at, seq: seq})
	}
	sort.Slice(found, func(i, j int) bool {
		if !found[i].at.Equal(found[j].at) {
			return found[i].at.After(found[j].at)
		}
		return found[i].seq > found[j].seq
	})

	backups := make([]string, len(found))
	for i, f := range found {
		backups[i] = f.path
	}
	return backups, nil
}

// parseBackupStamp parses "YYYYMMDD_HHMMSS" with an optional "_N" suffix.
func parseBackupStamp(stamp string) (time.Time, int, bool) {
	if len(stamp) < len(backupTimeLayout) {
		return time.Time{}, 0, false
	}
	at, err := time.Parse(backupTimeLayout, stamp[:len(backupTimeLayout)])
	if err != nil {
		return time.Time{}, 0, false
	}
	rest := stamp[len(backupTimeLayout):]
	if rest == "" {
		return at, 0, true
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(rest, "_"))
	if err != nil || !strings.HasPrefix(rest, "_") || seq < 1 {
		return time.Time{}, 0, false
	}
	return at, seq, true
}

// copyFile copies src into a synced temp file and links it to dst.
// It fails with fs.ErrExist when dst is already present.
func copyFile(src, dst string, perm fs.FileMode) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	return createExclusive(dst, perm, func(w io.Writer) error {
		_, err := io.Copy(w, sourceFile)
		return err
	})
}

// Ensure BackupManagerImpl implements domain.BackupManager.
var _ domain.BackupManager = (*BackupManagerImpl)(nil)
