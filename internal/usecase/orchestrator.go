package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/wsreset/internal/domain"
)

// OrchestratorConfig wires the collaborators of a reset.
type OrchestratorConfig struct {
	Policy domain.Policy
	Root   string

	// Guard is nil when process enumeration is unavailable on this host.
	Guard     domain.ProcessGuard
	FS        domain.FileSystemManager
	Backup    domain.BackupManager
	Store     domain.ConfigStore
	Generator domain.IdentifierGenerator
	Confirmer domain.Confirmer
	Reporter  domain.Reporter

	// Lock and BaseCheck are optional.
	Lock      domain.RunLocker
	BaseCheck func(root string) error

	Logger *zap.Logger
	Now    func() time.Time
}

// Orchestrator sequences one reset: check process, terminate, back up,
// clean, rewrite, report.
type Orchestrator struct {
	cfg      OrchestratorConfig
	cleaner  *Cleaner
	rewriter *Rewriter
}

// NewOrchestrator creates an orchestrator. Nil Confirmer declines every
// question; nil Reporter discards events.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Confirmer == nil {
		cfg.Confirmer = declineAll{}
	}
	if cfg.Reporter == nil {
		cfg.Reporter = discardReporter{}
	}
	return &Orchestrator{
		cfg:      cfg,
		cleaner:  NewCleaner(cfg.FS, cfg.Policy.CleanupTargets, cfg.Logger),
		rewriter: NewRewriter(cfg.Store, cfg.Generator, cfg.Policy.RemovalPrefixes, cfg.Logger),
	}
}

// run holds the mutable state of a single invocation.
type run struct {
	o      *Orchestrator
	stats  *StatisticsCollector
	result *domain.ResetResult
}

// Run performs one reset. Every call starts from Idle with fresh statistics.
// The returned result is never nil; result.Err carries the abort reason.
func (o *Orchestrator) Run(ctx context.Context) *domain.ResetResult {
	r := &run{
		o:      o,
		stats:  NewStatisticsCollector(o.cfg.Now),
		result: &domain.ResetResult{State: domain.StateIdle, Trace: []domain.ResetState{domain.StateIdle}},
	}
	o.cfg.Logger.Info("reset started",
		zap.String("policy", o.cfg.Policy.ID),
		zap.String("root", o.cfg.Root))

	if err := r.execute(ctx); err != nil {
		return r.abort(err)
	}
	return r.result
}

func (r *run) execute(ctx context.Context) error {
	cfg := r.o.cfg
	storageFile := domain.StorageFilePath(cfg.Root)

	r.enter(domain.StateCheckingProcess, fmt.Sprintf("Checking whether %s is running", cfg.Policy.Name))
	if cfg.BaseCheck != nil {
		if err := cfg.BaseCheck(cfg.Root); err != nil {
			return err
		}
	}
	if cfg.Lock != nil {
		if err := cfg.Lock.Acquire(); err != nil {
			return err
		}
		defer func() {
			if err := cfg.Lock.Release(); err != nil {
				cfg.Logger.Warn("failed to release run lock", zap.Error(err))
			}
		}()
	}
	if err := r.checkStorageReadable(storageFile); err != nil {
		return err
	}
	if err := r.checkProcesses(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.backup(storageFile); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.enter(domain.StateCleaning, "Cleaning authentication and session files")
	cleanup, warnings := r.o.cleaner.Clean(cfg.Root)
	r.stats.AddCleanup(cleanup)
	for _, w := range warnings {
		r.warn(w)
	}
	r.step(fmt.Sprintf("Removed %d cache/session entries", cleanup.Total()))

	// Last chance to stop before the storage file is replaced.
	if err := ctx.Err(); err != nil {
		return err
	}

	r.enter(domain.StateRewriting, "Generating new identifiers and saving configuration")
	rewrite, err := r.o.rewriter.Rewrite(storageFile)
	if err != nil {
		return err
	}
	for _, w := range rewrite.Warnings {
		r.warn(w)
	}
	ids := rewrite.Identifiers
	r.result.Identifiers = &ids
	r.result.RemovedKeys = rewrite.RemovedKeys

	r.enter(domain.StateReporting, "Finalizing reset")
	r.result.Stats = r.stats.Summary()
	r.enter(domain.StateDone, "")
	cfg.Reporter.OnComplete(r.result)

	cfg.Logger.Info("reset completed",
		zap.Int("files_deleted", r.result.Stats.FilesDeleted),
		zap.Int("dirs_deleted", r.result.Stats.DirsDeleted),
		zap.Int("warnings", r.result.Stats.Warnings),
		zap.Bool("backup_created", r.result.Stats.BackupCreated),
		zap.Duration("duration", r.result.Stats.Duration))
	return nil
}

// checkStorageReadable fails the run before anything is touched when the
// storage file cannot be read back faithfully. Parse errors stay recoverable.
func (r *run) checkStorageReadable(storageFile string) error {
	_, err := r.o.cfg.Store.Load(storageFile)
	if err != nil && !errors.Is(err, domain.ErrConfigParseInvalid) {
		return fmt.Errorf("failed to read storage file: %w", err)
	}
	return nil
}

// checkProcesses resolves the CheckingProcess state: terminate with consent,
// abort without it.
func (r *run) checkProcesses() error {
	cfg := r.o.cfg

	if cfg.Guard == nil {
		r.warn(domain.Warning{
			Kind:    domain.WarnProcessCheckMissing,
			Message: fmt.Sprintf("cannot verify whether %s is running", cfg.Policy.Name),
		})
		prompt := fmt.Sprintf("Cannot verify whether %s is running. Continue anyway? (Not recommended)", cfg.Policy.Name)
		if !cfg.Confirmer.Confirm(domain.QuestionContinueUnverified, prompt) {
			return fmt.Errorf("%w: continue without process check", domain.ErrDeclined)
		}
		return nil
	}

	running := cfg.Guard.ListRunningInstances()
	if len(running) == 0 {
		return nil
	}

	r.warn(domain.Warning{
		Kind:    domain.WarnProcessesRunning,
		Message: fmt.Sprintf("%s is currently running (%d process(es) detected)", cfg.Policy.Name, len(running)),
	})
	prompt := fmt.Sprintf("%s is running (%d process(es)). Close it automatically?", cfg.Policy.Name, len(running))
	if !cfg.Confirmer.Confirm(domain.QuestionTerminate, prompt) {
		return fmt.Errorf("%w: %d process(es); close %s and run again",
			domain.ErrProcessesRunning, len(running), cfg.Policy.Name)
	}

	r.enter(domain.StateTerminatingProcess, fmt.Sprintf("Closing %d %s process(es)", len(running), cfg.Policy.Name))
	for _, p := range running {
		if cfg.Guard.Terminate(p) {
			r.stats.AddProcessClosed()
			cfg.Logger.Info("process closed", zap.Int("pid", p.PID), zap.String("name", p.Name))
			continue
		}
		r.warn(domain.Warning{
			Kind:    domain.WarnTerminationFailed,
			Message: fmt.Sprintf("could not close %s (PID %d); the reset may not take effect", p.Name, p.PID),
		})
	}
	return nil
}

// backup resolves the backup decision. Declining is allowed; a failed
// backup the operator asked for is fatal.
func (r *run) backup(storageFile string) error {
	cfg := r.o.cfg

	exists, _, err := cfg.FS.Stat(storageFile)
	if err != nil {
		cfg.Logger.Warn("cannot inspect storage file", zap.String("path", storageFile), zap.Error(err))
	}
	if !exists {
		return nil
	}

	if !cfg.Confirmer.Confirm(domain.QuestionBackup, "Create a backup of the configuration before continuing?") {
		r.warn(domain.Warning{
			Kind:    domain.WarnBackupSkipped,
			Path:    storageFile,
			Message: "continuing without creating a backup",
		})
		return nil
	}

	r.enter(domain.StateBackingUp, "Creating backup")
	path, err := cfg.Backup.Backup(storageFile)
	if err != nil {
		return err
	}
	r.result.BackupPath = path
	r.stats.SetBackupCreated(path != "")
	if path != "" {
		r.step("Backup created: " + path)
	}
	return nil
}

func (r *run) enter(state domain.ResetState, message string) {
	r.result.State = state
	r.result.Trace = append(r.result.Trace, state)
	r.o.cfg.Logger.Debug("reset state", zap.String("state", string(state)))
	if message != "" {
		r.o.cfg.Reporter.OnStep(state, message)
	}
}

func (r *run) step(message string) {
	r.o.cfg.Reporter.OnStep(r.result.State, message)
}

func (r *run) warn(w domain.Warning) {
	r.stats.AddWarning()
	r.result.Warnings = append(r.result.Warnings, w)
	r.o.cfg.Reporter.OnWarning(w)
}

func (r *run) abort(err error) *domain.ResetResult {
	r.stats.AddError()
	r.result.Err = err
	r.result.Stats = r.stats.Summary()
	r.enter(domain.StateAborted, "")
	r.o.cfg.Logger.Error("reset aborted", zap.Error(err))
	r.o.cfg.Reporter.OnComplete(r.result)
	return r.result
}

type declineAll struct{}

func (declineAll) Confirm(domain.Question, string) bool { return false }

type discardReporter struct{}

func (discardReporter) OnStep(domain.ResetState, string) {}
func (discardReporter) OnWarning(domain.Warning)         {}
func (discardReporter) OnComplete(*domain.ResetResult)   {}
