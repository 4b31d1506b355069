// Package usecase contains application business logic.
package usecase

import (
	"time"

	"github.com/eliteGoblin/wsreset/internal/domain"
)

// StatisticsCollector accumulates counters for one reset run.
// A new collector is created for every run.
type StatisticsCollector struct {
	filesDeleted    int
	dirsDeleted     int
	errors          int
	warnings        int
	backupCreated   bool
	processesClosed int
	startTime       time.Time
	now             func() time.Time
}

// NewStatisticsCollector starts a collector at now().
func NewStatisticsCollector(now func() time.Time) *StatisticsCollector {
	if now == nil {
		now = time.Now
	}
	return &StatisticsCollector{startTime: now(), now: now}
}

func (s *StatisticsCollector) AddError()         { s.errors++ }
func (s *StatisticsCollector) AddWarning()       { s.warnings++ }
func (s *StatisticsCollector) AddProcessClosed() { s.processesClosed++ }

// SetBackupCreated records whether a backup artifact was written.
func (s *StatisticsCollector) SetBackupCreated(created bool) {
	s.backupCreated = created
}

// AddCleanup folds a cleanup pass into the counters.
func (s *StatisticsCollector) AddCleanup(r domain.CleanupResult) {
	s.filesDeleted += r.FilesDeleted
	s.dirsDeleted += r.DirsDeleted
}

// Summary returns the counters and the elapsed time so far.
func (s *StatisticsCollector) Summary() domain.ResetStatistics {
	return domain.ResetStatistics{
		FilesDeleted:    s.filesDeleted,
		DirsDeleted:     s.dirsDeleted,
		TotalDeleted:    s.filesDeleted + s.dirsDeleted,
		Errors:          s.errors,
		Warnings:        s.warnings,
		BackupCreated:   s.backupCreated,
		ProcessesClosed: s.processesClosed,
		StartTime:       s.startTime,
		Duration:        s.now().Sub(s.startTime),
	}
}
