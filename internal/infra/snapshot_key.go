package infra

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/eliteGoblin/wsreset/internal/domain"
)

const (
	snapshotKeyFile = ".snapshot.key"
	snapshotKeyLen  = 32
)

// SnapshotKeyFile keeps the SQLCipher key of the snapshot database as a
// base64 file (0600) beside it.
type SnapshotKeyFile struct {
	path string
}

// NewSnapshotKeyFile returns the key file of the snapshot directory dir.
func NewSnapshotKeyFile(dir string) *SnapshotKeyFile {
	return &SnapshotKeyFile{path: filepath.Join(dir, snapshotKeyFile)}
}

// Key returns the stored key, creating the directory and a fresh key on
// first use. A damaged key file is an error and is never regenerated.
func (k *SnapshotKeyFile) Key() ([]byte, error) {
	key, err := k.read()
	if !errors.Is(err, fs.ErrNotExist) {
		return key, err
	}

	if err := os.MkdirAll(filepath.Dir(k.path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	key = make([]byte, snapshotKeyLen)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate snapshot key: %w", err)
	}
	err = createExclusive(k.path, 0600, func(w io.Writer) error {
		_, err := io.WriteString(w, base64.StdEncoding.EncodeToString(key))
		return err
	})
	if errors.Is(err, fs.ErrExist) {
		// Another run created it first.
		return k.read()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write snapshot key: %w", err)
	}
	return key, nil
}

func (k *SnapshotKeyFile) read() ([]byte, error) {
	encoded, err := os.ReadFile(k.path)
	if err != nil {
		return nil, err
	}
	key, err := base64.StdEncoding.DecodeString(string(encoded))
	if err != nil {
		return nil, fmt.Errorf("snapshot key %s is damaged: %w", k.path, err)
	}
	if len(key) != snapshotKeyLen {
		return nil, fmt.Errorf("snapshot key %s is damaged: %d bytes, want %d", k.path, len(key), snapshotKeyLen)
	}
	return key, nil
}

// OpenSnapshotStore opens the encrypted snapshot database in dir with the
// key kept beside it.
func OpenSnapshotStore(dir string) (*EncryptedSnapshotStore, error) {
	key, err := NewSnapshotKeyFile(dir).Key()
	if err != nil {
		return nil, err
	}
	return NewEncryptedSnapshotStore(dir, key)
}

var _ domain.KeyProvider = (*SnapshotKeyFile)(nil)
