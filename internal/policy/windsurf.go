package policy

import (
	"path/filepath"
)

// WindsurfPolicy implements AppPolicy for the Windsurf editor.
type WindsurfPolicy struct{}

// NewWindsurfPolicy creates the Windsurf reset policy.
func NewWindsurfPolicy() *WindsurfPolicy {
	return &WindsurfPolicy{}
}

func (p *WindsurfPolicy) ID() string {
	return "windsurf"
}

func (p *WindsurfPolicy) Name() string {
	return "Windsurf"
}

func (p *WindsurfPolicy) DirName() string {
	return "Windsurf"
}

// ProcessNames covers the Windows and Unix executable names.
func (p *WindsurfPolicy) ProcessNames() []string {
	return []string{
		"Windsurf.exe",
		"windsurf",
		"Windsurf",
		"windsurf.exe",
	}
}

// CleanupTargets returns cookies, caches, session storage and logs that
// tie the installation to an account.
func (p *WindsurfPolicy) CleanupTargets() []string {
	return []string{
		// Cookies and network state
		"Cookies",
		"Cookies-journal",
		"Network Persistent State",

		// Caches
		"Cache",
		"CachedData",
		"Code Cache",
		"GPUCache",

		// Sessions and web storage
		"Session Storage",
		"Local Storage",
		"IndexedDB",

		// Extension and workspace state
		filepath.Join("User", "globalStorage", "codeium.windsurf"),
		filepath.Join("User", "workspaceStorage"),

		// Logs may contain tokens
		"logs",
	}
}

func (p *WindsurfPolicy) RemovalPrefixes() []string {
	return []string{"telemetry", "codeium", "windsurf", "auth", "session"}
}

// Ensure WindsurfPolicy implements AppPolicy.
var _ AppPolicy = (*WindsurfPolicy)(nil)
