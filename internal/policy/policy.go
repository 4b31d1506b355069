// Package policy implements the Strategy pattern for app-specific reset rules.
// Each app has its own policy defining which processes to stop, which
// cache/session paths to delete and which storage keys to drop.
package policy

import (
	"github.com/eliteGoblin/wsreset/internal/domain"
)

// DefaultPolicyID is the policy used when none is configured.
const DefaultPolicyID = "windsurf"

// AppPolicy defines the strategy interface for resetting an application.
type AppPolicy interface {
	// ID returns unique identifier (e.g., "windsurf").
	ID() string

	// Name returns human-readable name for display.
	Name() string

	// DirName returns the configuration directory name under the
	// per-user config base.
	DirName() string

	// ProcessNames returns executable names to stop.
	// Names are matched exactly and case-sensitively.
	ProcessNames() []string

	// CleanupTargets returns paths relative to the configuration root,
	// in the order they are deleted.
	CleanupTargets() []string

	// RemovalPrefixes returns storage key prefixes scrubbed on reset.
	RemovalPrefixes() []string
}

// ToPolicy converts an AppPolicy to a domain.Policy entity.
func ToPolicy(ap AppPolicy) domain.Policy {
	return domain.Policy{
		ID:              ap.ID(),
		Name:            ap.Name(),
		DirName:         ap.DirName(),
		ProcessNames:    ap.ProcessNames(),
		CleanupTargets:  ap.CleanupTargets(),
		RemovalPrefixes: ap.RemovalPrefixes(),
	}
}
