package usecase

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/eliteGoblin/wsreset/internal/domain"
)

// RewriteResult describes one storage file rewrite.
type RewriteResult struct {
	Identifiers domain.DeviceIdentifierSet
	RemovedKeys []string
	Warnings    []domain.Warning
}

// Rewriter scrubs account-linked keys from the storage document and writes
// fresh device identifiers.
type Rewriter struct {
	store     domain.ConfigStore
	generator domain.IdentifierGenerator
	prefixes  []string
	logger    *zap.Logger
}

// NewRewriter creates a rewriter dropping keys that start with prefixes.
func NewRewriter(store domain.ConfigStore, gen domain.IdentifierGenerator, prefixes []string, logger *zap.Logger) *Rewriter {
	return &Rewriter{
		store:     store,
		generator: gen,
		prefixes:  prefixes,
		logger:    logger,
	}
}

// Rewrite loads storageFile (or starts empty), strips matching keys, merges
// new identifiers and persists the whole document.
func (r *Rewriter) Rewrite(storageFile string) (*RewriteResult, error) {
	if err := os.MkdirAll(filepath.Dir(storageFile), 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create %s: %v", domain.ErrConfigWriteFailed, filepath.Dir(storageFile), err)
	}

	result := &RewriteResult{}

	doc, err := r.store.Load(storageFile)
	if err != nil {
		if !errors.Is(err, domain.ErrConfigParseInvalid) {
			return nil, fmt.Errorf("failed to load storage file: %w", err)
		}
		r.logger.Warn("invalid storage file, starting from empty document",
			zap.String("path", storageFile),
			zap.Error(err))
		result.Warnings = append(result.Warnings, domain.Warning{
			Kind:    domain.WarnConfigParseInvalid,
			Path:    storageFile,
			Message: "invalid JSON in storage file, creating a new configuration",
			Err:     err,
		})
		doc = map[string]any{}
	}

	result.RemovedKeys = StripKeys(doc, r.prefixes)

	ids, err := r.generator.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate identifiers: %w", err)
	}
	for k, v := range ids.AsMap() {
		doc[k] = v
	}
	result.Identifiers = ids

	if err := r.store.Save(storageFile, doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrConfigWriteFailed, storageFile, err)
	}

	r.logger.Info("storage file rewritten",
		zap.String("path", storageFile),
		zap.Int("removed_keys", len(result.RemovedKeys)),
		zap.Int("total_keys", len(doc)))
	return result, nil
}

// HasRemovalPrefix reports whether key starts with any of prefixes.
// The match is case-sensitive and on the key name only.
func HasRemovalPrefix(key string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// StripKeys deletes matching keys from doc and returns them sorted.
func StripKeys(doc map[string]any, prefixes []string) []string {
	removed := make([]string, 0)
	for k := range doc {
		if HasRemovalPrefix(k, prefixes) {
			removed = append(removed, k)
		}
	}
	for _, k := range removed {
		delete(doc, k)
	}
	sort.Strings(removed)
	return removed
}
