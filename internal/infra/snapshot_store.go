package infra

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlcipher "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/eliteGoblin/wsreset/internal/domain"
)

// Ensure sqlcipher driver is registered.
var _ = sqlcipher.ErrBusy

const snapshotDBName = "snapshots.db"

// EncryptedSnapshotStore implements domain.SnapshotStore on a SQLCipher
// database. Snapshots contain device identifiers, so they are kept encrypted.
type EncryptedSnapshotStore struct {
	db     *sql.DB
	dbPath string
}

// NewEncryptedSnapshotStore opens (or creates) the snapshot database in dataDir.
func NewEncryptedSnapshotStore(dataDir string, key []byte) (*EncryptedSnapshotStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, snapshotDBName)
	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dbPath, hex.EncodeToString(key))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open encrypted database: %w", err)
	}

	// A wrong key only surfaces on first access.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to encrypted database: %w", err)
	}

	s := &EncryptedSnapshotStore{db: db, dbPath: dbPath}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *EncryptedSnapshotStore) createTables() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		label TEXT NOT NULL,
		taken_at INTEGER NOT NULL,
		root TEXT NOT NULL,
		storage_exists INTEGER NOT NULL,
		device_ids TEXT NOT NULL,
		targets_present TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_label ON snapshots (label, taken_at);
	`)
	return err
}

// Save stores s and returns its row id.
func (s *EncryptedSnapshotStore) Save(snap domain.Snapshot) (int64, error) {
	ids, err := json.Marshal(snap.DeviceIDs)
	if err != nil {
		return 0, err
	}
	targets, err := json.Marshal(snap.TargetsPresent)
	if err != nil {
		return 0, err
	}

	res, err := s.db.Exec(`
		INSERT INTO snapshots (label, taken_at, root, storage_exists, device_ids, targets_present)
		VALUES (?, ?, ?, ?, ?, ?)`,
		snap.Label, snap.TakenAt.UnixNano(), snap.Root, boolToInt(snap.StorageExists), string(ids), string(targets),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save snapshot: %w", err)
	}
	return res.LastInsertId()
}

// Latest returns the newest snapshot with label taken of root, or nil if there is none.
func (s *EncryptedSnapshotStore) Latest(label, root string) (*domain.Snapshot, error) {
	row := s.db.QueryRow(`
		SELECT id, label, taken_at, root, storage_exists, device_ids, targets_present
		FROM snapshots WHERE label = ? AND root = ? ORDER BY taken_at DESC, id DESC LIMIT 1`, label, root)

	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// List returns all snapshots, oldest first.
func (s *EncryptedSnapshotStore) List() ([]domain.Snapshot, error) {
	rows, err := s.db.Query(`
		SELECT id, label, taken_at, root, storage_exists, device_ids, targets_present
		FROM snapshots ORDER BY taken_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, rows.Err()
}

// Path returns the database file path.
func (s *EncryptedSnapshotStore) Path() string {
	return s.dbPath
}

// Close releases the database connection.
func (s *EncryptedSnapshotStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(r rowScanner) (*domain.Snapshot, error) {
	var (
		snap          domain.Snapshot
		takenAt       int64
		storageExists int
		ids, targets  string
	)
	if err := r.Scan(&snap.ID, &snap.Label, &takenAt, &snap.Root, &storageExists, &ids, &targets); err != nil {
		return nil, err
	}
	snap.TakenAt = time.Unix(0, takenAt)
	snap.StorageExists = storageExists != 0
	if err := json.Unmarshal([]byte(ids), &snap.DeviceIDs); err != nil {
		return nil, fmt.Errorf("corrupt snapshot %d: %w", snap.ID, err)
	}
	if err := json.Unmarshal([]byte(targets), &snap.TargetsPresent); err != nil {
		return nil, fmt.Errorf("corrupt snapshot %d: %w", snap.ID, err)
	}
	return &snap, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure EncryptedSnapshotStore implements domain.SnapshotStore.
var _ domain.SnapshotStore = (*EncryptedSnapshotStore)(nil)
