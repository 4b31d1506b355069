// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import (
	"path/filepath"
	"time"
)

// Identifier keys written into the storage file on every reset.
const (
	KeyMachineID    = "telemetry.machineId"
	KeyMacMachineID = "telemetry.macMachineId"
	KeyDevDeviceID  = "telemetry.devDeviceId"
)

// StorageFilePath returns the storage.json path under a configuration root.
func StorageFilePath(root string) string {
	return filepath.Join(root, "User", "globalStorage", "storage.json")
}

// IdentifierKeys lists the identifier keys in display order.
var IdentifierKeys = []string{KeyMachineID, KeyMacMachineID, KeyDevDeviceID}

// DeviceIdentifierSet holds one freshly generated set of device identifiers.
type DeviceIdentifierSet struct {
	MachineID    string // 64 lowercase hex chars
	MacMachineID string // 64 lowercase hex chars
	DevDeviceID  string // canonical v4 UUID
}

// AsMap returns the identifiers keyed by their storage file key.
func (s DeviceIdentifierSet) AsMap() map[string]string {
	return map[string]string{
		KeyMachineID:    s.MachineID,
		KeyMacMachineID: s.MacMachineID,
		KeyDevDeviceID:  s.DevDeviceID,
	}
}

// ProcessInstance is a running process of the target application.
type ProcessInstance struct {
	PID  int
	Name string
}

// CleanupResult captures what happened during one cleanup pass.
type CleanupResult struct {
	FilesDeleted int
	DirsDeleted  int
	Deleted      []string
	Failed       []string // Targets that were present but could not be removed
}

// Total returns the number of removed targets.
func (r CleanupResult) Total() int {
	return r.FilesDeleted + r.DirsDeleted
}

// WarningKind classifies a recoverable problem met during a reset.
type WarningKind string

const (
	WarnCleanup             WarningKind = "cleanup"
	WarnConfigParseInvalid  WarningKind = "config_parse_invalid"
	WarnTerminationFailed   WarningKind = "process_termination_failed"
	WarnProcessCheckMissing WarningKind = "process_check_unavailable"
	WarnBackupSkipped       WarningKind = "backup_skipped"
	WarnProcessesRunning    WarningKind = "processes_running"
)

// Warning is a recoverable problem. It is counted and reported, never returned as an error.
type Warning struct {
	Kind    WarningKind
	Path    string
	Message string
	Err     error
}

func (w Warning) String() string {
	s := string(w.Kind) + ": " + w.Message
	if w.Path != "" {
		s += " (" + w.Path + ")"
	}
	if w.Err != nil {
		s += ": " + w.Err.Error()
	}
	return s
}

// ResetState is a step of the reset state machine.
type ResetState string

const (
	StateIdle               ResetState = "idle"
	StateCheckingProcess    ResetState = "checking_process"
	StateTerminatingProcess ResetState = "terminating_process"
	StateBackingUp          ResetState = "backing_up"
	StateCleaning           ResetState = "cleaning"
	StateRewriting          ResetState = "rewriting"
	StateReporting          ResetState = "reporting"
	StateDone               ResetState = "done"
	StateAborted            ResetState = "aborted"
)

// ResetStatistics is the final summary of one reset run.
type ResetStatistics struct {
	FilesDeleted    int           `json:"files_deleted"`
	DirsDeleted     int           `json:"dirs_deleted"`
	TotalDeleted    int           `json:"total_deleted"`
	Errors          int           `json:"errors"`
	Warnings        int           `json:"warnings"`
	BackupCreated   bool          `json:"backup_created"`
	ProcessesClosed int           `json:"processes_closed"`
	StartTime       time.Time     `json:"start_time"`
	Duration        time.Duration `json:"duration"`
}

// ResetResult is everything a presentation layer needs to render a report.
type ResetResult struct {
	State       ResetState
	Stats       ResetStatistics
	Identifiers *DeviceIdentifierSet // nil unless the rewrite succeeded
	BackupPath  string
	RemovedKeys []string
	Warnings    []Warning
	Trace       []ResetState // every state entered, in order
	Err         error        // abort reason; nil when State is StateDone
}

// Succeeded reports whether the reset reached StateDone.
func (r *ResetResult) Succeeded() bool {
	return r.State == StateDone
}

// Snapshot records identifiers and cleanup target presence at a point in time.
type Snapshot struct {
	ID             int64             `json:"id,omitempty"`
	Label          string            `json:"label"`
	TakenAt        time.Time         `json:"taken_at"`
	Root           string            `json:"root"`
	StorageExists  bool              `json:"storage_exists"`
	DeviceIDs      map[string]string `json:"device_ids"`
	TargetsPresent map[string]bool   `json:"targets_present"`
}

// Finding is a storage file entry that looks like a credential.
type Finding struct {
	Key    string
	Masked string
	Length int
	Reason string
}
