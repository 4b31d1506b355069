package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/eliteGoblin/wsreset/internal/domain"
)

// Env supplies the environment values the path resolver depends on.
type Env struct {
	HomeDir string
	AppData string // %APPDATA%, Windows only
}

// HostEnv reads Env from the current process.
func HostEnv() Env {
	home, _ := os.UserHomeDir()
	return Env{
		HomeDir: home,
		AppData: os.Getenv("APPDATA"),
	}
}

// PathResolver maps an operating system to the application's configuration root.
type PathResolver struct {
	goos    string
	env     Env
	dirName string
}

// NewPathResolver creates a resolver for the running host.
func NewPathResolver(dirName string) *PathResolver {
	return NewPathResolverFor(runtime.GOOS, HostEnv(), dirName)
}

// NewPathResolverFor creates a resolver for an explicit OS and environment (for testing).
func NewPathResolverFor(goos string, env Env, dirName string) *PathResolver {
	return &PathResolver{goos: goos, env: env, dirName: dirName}
}

// BaseDir returns the per-user config base for the OS, without the app directory.
func (r *PathResolver) BaseDir() (string, error) {
	switch r.goos {
	case "windows":
		if r.env.AppData == "" {
			return "", fmt.Errorf("%w: APPDATA is not set", domain.ErrBaseDirectoryUnavailable)
		}
		return r.env.AppData, nil
	case "darwin":
		return filepath.Join(r.env.HomeDir, "Library", "Application Support"), nil
	case "linux":
		return filepath.Join(r.env.HomeDir, ".config"), nil
	default:
		return "", fmt.Errorf("%w: %s (supported: %s)",
			domain.ErrUnsupportedPlatform, r.goos, strings.Join(SupportedPlatforms(), ", "))
	}
}

// Root returns the configuration root. No existence check is performed.
func (r *PathResolver) Root() (string, error) {
	base, err := r.BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, r.dirName), nil
}

// SupportedPlatforms lists the GOOS values the resolver understands.
func SupportedPlatforms() []string {
	return []string{"windows", "darwin", "linux"}
}

// CheckBaseDirectory verifies that the parent of root exists, is a
// directory and is writable by the current user.
func CheckBaseDirectory(root string) error {
	base := filepath.Dir(root)
	info, err := os.Stat(base)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrBaseDirectoryUnavailable, base, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrBaseDirectoryUnavailable, base)
	}

	// Check writability by creating a file.
	tmp, err := os.CreateTemp(base, ".wsreset-writecheck-*")
	if err != nil {
		return fmt.Errorf("%w: no write permission for %s: %v", domain.ErrBaseDirectoryUnavailable, base, err)
	}
	tmp.Close()
	_ = os.Remove(tmp.Name())
	return nil
}
