package usecase

import (
	"errors"
	"strings"

	"github.com/eliteGoblin/wsreset/internal/domain"
)

// mockFileSystemManager implements domain.FileSystemManager for testing
type mockFileSystemManager struct {
	files        map[string]bool // path -> isDir
	sizes        map[string]int64
	statErr      map[string]error
	deleteErr    map[string]error
	deletedPaths []string
}

func newMockFS(paths ...string) *mockFileSystemManager {
	m := &mockFileSystemManager{
		files:     make(map[string]bool),
		sizes:     make(map[string]int64),
		statErr:   make(map[string]error),
		deleteErr: make(map[string]error),
	}
	for _, p := range paths {
		m.addFile(p)
	}
	return m
}

func (m *mockFileSystemManager) addFile(path string) { m.files[path] = false }
func (m *mockFileSystemManager) addDir(path string)  { m.files[path] = true }

func (m *mockFileSystemManager) Stat(path string) (bool, bool, error) {
	if err := m.statErr[path]; err != nil {
		return false, false, err
	}
	isDir, ok := m.files[path]
	return ok, isDir, nil
}

func (m *mockFileSystemManager) Delete(path string) error {
	if err := m.deleteErr[path]; err != nil {
		return err
	}
	for p := range m.files {
		if p == path || strings.HasPrefix(p, path+"/") {
			delete(m.files, p)
		}
	}
	m.deletedPaths = append(m.deletedPaths, path)
	return nil
}

func (m *mockFileSystemManager) Size(path string) int64 {
	return m.sizes[path]
}

// mockConfigStore implements domain.ConfigStore for testing
type mockConfigStore struct {
	docs    map[string]map[string]any
	loadErr error
	saveErr error
	saved   map[string]map[string]any
	loads   int
}

func newMockStore() *mockConfigStore {
	return &mockConfigStore{
		docs:  make(map[string]map[string]any),
		saved: make(map[string]map[string]any),
	}
}

func (m *mockConfigStore) Load(path string) (map[string]any, error) {
	m.loads++
	if m.loadErr != nil {
		return map[string]any{}, m.loadErr
	}
	doc := make(map[string]any)
	for k, v := range m.docs[path] {
		doc[k] = v
	}
	return doc, nil
}

func (m *mockConfigStore) Save(path string, doc map[string]any) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved[path] = doc
	m.docs[path] = doc
	return nil
}

// mockGenerator implements domain.IdentifierGenerator for testing
type mockGenerator struct {
	ids domain.DeviceIdentifierSet
	err error
}

func (m *mockGenerator) Generate() (domain.DeviceIdentifierSet, error) {
	return m.ids, m.err
}

var testIdentifiers = domain.DeviceIdentifierSet{
	MachineID:    strings.Repeat("1", 64),
	MacMachineID: strings.Repeat("2", 64),
	DevDeviceID:  "3b241101-e2bb-4255-8caf-4136c566a962",
}

// mockBackupManager implements domain.BackupManager for testing
type mockBackupManager struct {
	err      error
	backedUp []string
	existing []string
}

func (m *mockBackupManager) Backup(path string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.backedUp = append(m.backedUp, path)
	return m.BackupName(path), nil
}

func (m *mockBackupManager) BackupName(path string) string {
	return path + ".backup_20240102_030405"
}

func (m *mockBackupManager) List(string) ([]string, error) {
	return m.existing, nil
}

// mockProcessGuard implements domain.ProcessGuard for testing
type mockProcessGuard struct {
	running    []domain.ProcessInstance
	failPIDs   map[int]bool
	terminated []int
}

func (m *mockProcessGuard) ListRunningInstances() []domain.ProcessInstance {
	return m.running
}

func (m *mockProcessGuard) Terminate(p domain.ProcessInstance) bool {
	m.terminated = append(m.terminated, p.PID)
	return !m.failPIDs[p.PID]
}

// mockConfirmer answers from a fixed table and records what was asked.
type mockConfirmer struct {
	answers map[domain.Question]bool
	asked   []domain.Question
}

func (m *mockConfirmer) Confirm(q domain.Question, _ string) bool {
	m.asked = append(m.asked, q)
	return m.answers[q]
}

// mockReporter records every event.
type mockReporter struct {
	steps     []domain.ResetState
	warnings  []domain.Warning
	completed []*domain.ResetResult
}

func (m *mockReporter) OnStep(state domain.ResetState, _ string) { m.steps = append(m.steps, state) }
func (m *mockReporter) OnWarning(w domain.Warning)              { m.warnings = append(m.warnings, w) }
func (m *mockReporter) OnComplete(r *domain.ResetResult)        { m.completed = append(m.completed, r) }

// mockLock implements domain.RunLocker for testing
type mockLock struct {
	acquireErr error
	acquired   int
	released   int
}

func (m *mockLock) Acquire() error {
	if m.acquireErr != nil {
		return m.acquireErr
	}
	m.acquired++
	return nil
}

func (m *mockLock) Release() error {
	m.released++
	return nil
}

// mockSnapshotStore implements domain.SnapshotStore for testing
type mockSnapshotStore struct {
	snapshots []domain.Snapshot
	saveErr   error
}

func (m *mockSnapshotStore) Save(s domain.Snapshot) (int64, error) {
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	s.ID = int64(len(m.snapshots) + 1)
	m.snapshots = append(m.snapshots, s)
	return s.ID, nil
}

func (m *mockSnapshotStore) Latest(label, root string) (*domain.Snapshot, error) {
	for i := len(m.snapshots) - 1; i >= 0; i-- {
		if m.snapshots[i].Label == label && m.snapshots[i].Root == root {
			s := m.snapshots[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (m *mockSnapshotStore) List() ([]domain.Snapshot, error) { return m.snapshots, nil }
func (m *mockSnapshotStore) Close() error                      { return nil }

var errDisk = errors.New("disk error")
