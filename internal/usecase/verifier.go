package usecase

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eliteGoblin/wsreset/internal/domain"
)

var hex64 = regexp.MustCompile(`^[0-9a-f]{64}$`)

// KeyChange compares one identifier across two snapshots.
type KeyChange struct {
	Key     string
	Before  string
	After   string
	Changed bool
}

// TargetChange compares one cleanup target across two snapshots.
type TargetChange struct {
	Path          string
	Before        bool
	After         bool
	StillPresent  bool
	WasRemoved    bool
	NotApplicable bool // absent in both
}

// Comparison is the difference between a before and an after snapshot.
type Comparison struct {
	Keys    []KeyChange
	Targets []TargetChange
}

// AllKeysChanged reports whether every identifier differs.
func (c *Comparison) AllKeysChanged() bool {
	for _, k := range c.Keys {
		if !k.Changed {
			return false
		}
	}
	return len(c.Keys) > 0
}

// Remaining returns targets still present after the reset.
func (c *Comparison) Remaining() []string {
	var paths []string
	for _, t := range c.Targets {
		if t.StillPresent {
			paths = append(paths, t.Path)
		}
	}
	return paths
}

// IdentifierCheck is the validation outcome for one identifier key.
type IdentifierCheck struct {
	Key    string
	Value  string
	Valid  bool
	Reason string
}

// VerifyReport is the outcome of a post-reset verification.
type VerifyReport struct {
	After       domain.Snapshot
	Before      *domain.Snapshot // nil when no snapshot was stored
	Comparison  *Comparison
	Identifiers []IdentifierCheck
	Backups     []string
}

// Passed reports whether identifiers are valid, no target remains and,
// when a before snapshot exists, every identifier changed.
func (r *VerifyReport) Passed() bool {
	for _, c := range r.Identifiers {
		if !c.Valid {
			return false
		}
	}
	for _, t := range r.After.TargetsPresent {
		if t {
			return false
		}
	}
	if r.Comparison != nil && !r.Comparison.AllKeysChanged() {
		return false
	}
	return true
}

// Verifier captures snapshots and checks the effect of a reset.
type Verifier struct {
	policy    domain.Policy
	fs        domain.FileSystemManager
	store     domain.ConfigStore
	backup    domain.BackupManager
	snapshots domain.SnapshotStore
	cleaner   *Cleaner
	now       func() time.Time
	logger    *zap.Logger
}

// NewVerifier creates a verifier. snapshots may be nil, in which case
// nothing is persisted and Verify runs without a comparison.
func NewVerifier(policy domain.Policy, fs domain.FileSystemManager, store domain.ConfigStore,
	backup domain.BackupManager, snapshots domain.SnapshotStore, logger *zap.Logger) *Verifier {
	return &Verifier{
		policy:    policy,
		fs:        fs,
		store:     store,
		backup:    backup,
		snapshots: snapshots,
		cleaner:   NewCleaner(fs, policy.CleanupTargets, logger),
		now:       time.Now,
		logger:    logger,
	}
}

// Capture reads the current identifiers and target presence under root.
func (v *Verifier) Capture(root, label string) (domain.Snapshot, error) {
	snap := domain.Snapshot{
		Label:          label,
		TakenAt:        v.now().UTC(),
		Root:           root,
		DeviceIDs:      make(map[string]string),
		TargetsPresent: make(map[string]bool),
	}

	for i, path := range v.cleaner.Targets(root) {
		exists, _, err := v.fs.Stat(path)
		if err != nil {
			return snap, fmt.Errorf("failed to inspect %s: %w", path, err)
		}
		snap.TargetsPresent[v.policy.CleanupTargets[i]] = exists
	}

	storageFile := domain.StorageFilePath(root)
	exists, _, err := v.fs.Stat(storageFile)
	if err != nil {
		return snap, fmt.Errorf("failed to inspect %s: %w", storageFile, err)
	}
	snap.StorageExists = exists
	if !exists {
		return snap, nil
	}

	doc, err := v.store.Load(storageFile)
	if err != nil && !errors.Is(err, domain.ErrConfigParseInvalid) {
		return snap, err
	}
	for _, k := range domain.IdentifierKeys {
		if s, ok := doc[k].(string); ok {
			snap.DeviceIDs[k] = s
		}
	}
	return snap, nil
}

// Snapshot captures and persists a labelled snapshot.
func (v *Verifier) Snapshot(root, label string) (domain.Snapshot, error) {
	snap, err := v.Capture(root, label)
	if err != nil {
		return snap, err
	}
	if v.snapshots == nil {
		return snap, nil
	}
	id, err := v.snapshots.Save(snap)
	if err != nil {
		return snap, fmt.Errorf("failed to store snapshot: %w", err)
	}
	snap.ID = id
	v.logger.Info("snapshot stored", zap.Int64("id", id), zap.String("label", label))
	return snap, nil
}

// Compare diffs two snapshots. Keys and targets are reported in policy order.
func Compare(before, after domain.Snapshot, targets []string) *Comparison {
	c := &Comparison{}
	for _, k := range domain.IdentifierKeys {
		b, a := before.DeviceIDs[k], after.DeviceIDs[k]
		c.Keys = append(c.Keys, KeyChange{Key: k, Before: b, After: a, Changed: a != "" && a != b})
	}
	for _, t := range targets {
		b, a := before.TargetsPresent[t], after.TargetsPresent[t]
		c.Targets = append(c.Targets, TargetChange{
			Path:          t,
			Before:        b,
			After:         a,
			StillPresent:  a,
			WasRemoved:    b && !a,
			NotApplicable: !b && !a,
		})
	}
	return c
}

// ValidateIdentifiers checks the format of the three identifier values.
func ValidateIdentifiers(ids map[string]string) []IdentifierCheck {
	checks := make([]IdentifierCheck, 0, len(domain.IdentifierKeys))
	for _, k := range domain.IdentifierKeys {
		v, ok := ids[k]
		c := IdentifierCheck{Key: k, Value: v}
		switch {
		case !ok:
			c.Reason = "missing"
		case k == domain.KeyDevDeviceID:
			c.Valid, c.Reason = validUUIDv4(v)
		case hex64.MatchString(v):
			c.Valid = true
		default:
			c.Reason = "expected 64 lowercase hex characters"
		}
		checks = append(checks, c)
	}
	return checks
}

func validUUIDv4(s string) (bool, string) {
	u, err := uuid.Parse(s)
	if err != nil || u.String() != s {
		return false, "not a canonical UUID"
	}
	if u.Version() != 4 {
		return false, fmt.Sprintf("UUID version %d, expected 4", u.Version())
	}
	if u.Variant() != uuid.RFC4122 {
		return false, "UUID variant is not RFC 4122"
	}
	return true, ""
}

// Verify captures the current state, compares it with the latest "before"
// snapshot when one is stored and lists existing backups.
func (v *Verifier) Verify(root string) (*VerifyReport, error) {
	after, err := v.Capture(root, "after")
	if err != nil {
		return nil, err
	}
	report := &VerifyReport{
		After:       after,
		Identifiers: ValidateIdentifiers(after.DeviceIDs),
	}

	if v.snapshots != nil {
		before, err := v.snapshots.Latest("before", root)
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot: %w", err)
		}
		if before != nil {
			report.Before = before
			report.Comparison = Compare(*before, after, v.policy.CleanupTargets)
		}
	}

	backups, err := v.backup.List(domain.StorageFilePath(root))
	if err != nil {
		v.logger.Warn("cannot list backups", zap.Error(err))
	}
	report.Backups = backups

	v.logger.Info("verification finished",
		zap.Bool("passed", report.Passed()),
		zap.Bool("compared", report.Comparison != nil),
		zap.Int("backups", len(backups)))
	return report, nil
}
