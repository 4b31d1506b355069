package domain

// Policy describes the application whose local state is reset.
type Policy struct {
	ID              string
	Name            string
	DirName         string   // Directory name under the per-user config base
	ProcessNames    []string // Exact, case-sensitive executable names
	CleanupTargets  []string // Paths relative to the configuration root, in deletion order
	RemovalPrefixes []string // Storage keys starting with one of these are dropped
}

// PolicyStore resolves a policy id to its reset rules.
type PolicyStore interface {
	GetByID(id string) (*Policy, error)

	// List returns the known ids, sorted.
	List() []string
}

// ProcessGuard detects and stops running instances of the target application.
// Implementation: uses gopsutil for cross-platform support.
type ProcessGuard interface {
	// ListRunningInstances returns processes whose name exactly matches a known
	// executable name. Enumeration failures yield an empty list.
	ListRunningInstances() []ProcessInstance

	// Terminate asks the process to exit, waits, then kills it.
	// Returns false if the process may still be alive.
	Terminate(p ProcessInstance) bool
}

// FileSystemManager handles filesystem operations.
type FileSystemManager interface {
	// Stat reports whether path exists and whether it is a directory.
	// Symlinks are not followed.
	Stat(path string) (exists bool, isDir bool, err error)

	// Delete removes a file or directory recursively.
	Delete(path string) error

	// Size returns the total size in bytes of a file or directory tree.
	Size(path string) int64
}

// BackupManager creates timestamped copies of the storage file.
type BackupManager interface {
	// Backup copies path to a sibling named <path>.backup_<YYYYMMDD_HHMMSS>.
	// Returns "" and no error if path does not exist.
	Backup(path string) (string, error)

	// BackupName returns the name Backup would use right now.
	BackupName(path string) string

	// List returns existing backups of path, newest first.
	List(path string) ([]string, error)
}

// IdentifierGenerator produces fresh device identifiers.
type IdentifierGenerator interface {
	Generate() (DeviceIdentifierSet, error)
}

// ConfigStore reads and writes the JSON storage document.
type ConfigStore interface {
	// Load returns the document at path. A missing file yields an empty
	// document. A corrupt file yields an empty document and an error
	// wrapping ErrConfigParseInvalid.
	Load(path string) (map[string]any, error)

	// Save replaces the document at path in full.
	Save(path string, doc map[string]any) error
}

// Question identifies an operator decision requested by the core.
type Question string

const (
	QuestionTerminate          Question = "terminate"
	QuestionContinueUnverified Question = "continue_unverified"
	QuestionBackup             Question = "backup"
)

// Confirmer answers yes/no questions on behalf of the operator.
type Confirmer interface {
	Confirm(q Question, prompt string) bool
}

// Reporter receives structured progress events from a reset.
type Reporter interface {
	OnStep(state ResetState, message string)
	OnWarning(w Warning)
	OnComplete(result *ResetResult)
}

// RunLocker prevents concurrent resets against one configuration root.
type RunLocker interface {
	Acquire() error
	Release() error
}

// KeyProvider supplies the snapshot database key, creating it on first use.
type KeyProvider interface {
	Key() ([]byte, error)
}

// SnapshotStore persists before/after snapshots.
type SnapshotStore interface {
	Save(s Snapshot) (int64, error)

	// Latest returns the most recent snapshot with label taken of root, or nil if none.
	Latest(label, root string) (*Snapshot, error)

	List() ([]Snapshot, error)

	Close() error
}
