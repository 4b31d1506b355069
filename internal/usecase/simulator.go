package usecase

import (
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/eliteGoblin/wsreset/internal/domain"
)

// TargetPlan describes what a reset would do with one cleanup target.
type TargetPlan struct {
	Path    string
	Present bool
	IsDir   bool
	Size    int64
}

// Plan is the read-only preview of a reset.
type Plan struct {
	Root          string
	StorageFile   string
	StorageExists bool
	StorageValid  bool
	Targets       []TargetPlan
	RemovedKeys   []string
	KeptKeys      []string
	BackupName    string // empty when no backup would be taken
	Running       []domain.ProcessInstance
	GuardMissing  bool
}

// PresentTargets returns the targets a reset would delete.
func (p *Plan) PresentTargets() []TargetPlan {
	var present []TargetPlan
	for _, t := range p.Targets {
		if t.Present {
			present = append(present, t)
		}
	}
	return present
}

// TotalSize sums the sizes of present targets.
func (p *Plan) TotalSize() int64 {
	var total int64
	for _, t := range p.Targets {
		if t.Present {
			total += t.Size
		}
	}
	return total
}

// Simulator previews a reset without touching anything.
type Simulator struct {
	policy  domain.Policy
	fs      domain.FileSystemManager
	store   domain.ConfigStore
	backup  domain.BackupManager
	guard   domain.ProcessGuard
	cleaner *Cleaner
	logger  *zap.Logger
}

// NewSimulator creates a simulator. guard may be nil.
func NewSimulator(policy domain.Policy, fs domain.FileSystemManager, store domain.ConfigStore,
	backup domain.BackupManager, guard domain.ProcessGuard, logger *zap.Logger) *Simulator {
	return &Simulator{
		policy:  policy,
		fs:      fs,
		store:   store,
		backup:  backup,
		guard:   guard,
		cleaner: NewCleaner(fs, policy.CleanupTargets, logger),
		logger:  logger,
	}
}

// Plan inspects root and reports what a reset would change.
func (s *Simulator) Plan(root string) (*Plan, error) {
	plan := &Plan{
		Root:         root,
		StorageFile:  domain.StorageFilePath(root),
		StorageValid: true,
	}

	for _, path := range s.cleaner.Targets(root) {
		exists, isDir, err := s.fs.Stat(path)
		if err != nil {
			s.logger.Warn("cannot inspect target", zap.String("path", path), zap.Error(err))
		}
		tp := TargetPlan{Path: path, Present: exists, IsDir: isDir}
		if exists {
			tp.Size = s.fs.Size(path)
		}
		plan.Targets = append(plan.Targets, tp)
	}

	exists, _, err := s.fs.Stat(plan.StorageFile)
	if err != nil {
		return nil, err
	}
	plan.StorageExists = exists
	if exists {
		doc, err := s.store.Load(plan.StorageFile)
		if err != nil {
			if !errors.Is(err, domain.ErrConfigParseInvalid) {
				return nil, err
			}
			plan.StorageValid = false
		}
		plan.RemovedKeys = StripKeys(doc, s.policy.RemovalPrefixes)
		for k := range doc {
			plan.KeptKeys = append(plan.KeptKeys, k)
		}
		sort.Strings(plan.KeptKeys)
		plan.BackupName = s.backup.BackupName(plan.StorageFile)
	}

	if s.guard == nil {
		plan.GuardMissing = true
	} else {
		plan.Running = s.guard.ListRunningInstances()
	}

	s.logger.Info("simulation finished",
		zap.Int("present_targets", len(plan.PresentTargets())),
		zap.Int("removed_keys", len(plan.RemovedKeys)),
		zap.Int("running", len(plan.Running)))
	return plan, nil
}
