// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"os"
	"path/filepath"
)

// FakeWindsurfStructure creates a directory tree mimicking a Windsurf
// configuration root.
type FakeWindsurfStructure struct {
	Root string
}

// NewFakeWindsurfStructure creates a generator for root.
func NewFakeWindsurfStructure(root string) *FakeWindsurfStructure {
	return &FakeWindsurfStructure{Root: root}
}

// presentDirs and presentFiles are the cleanup targets Create populates.
var (
	presentDirs  = []string{"Cache", "GPUCache", "logs"}
	presentFiles = []string{"Cookies", "Network Persistent State"}
)

// Create writes 5 of the cleanup targets plus unrelated files that must survive.
func (f *FakeWindsurfStructure) Create() error {
	for _, d := range presentDirs {
		dir := filepath.Join(f.Root, d)
		if err := os.MkdirAll(filepath.Join(dir, "nested"), 0755); err != nil {
			return err
		}
		// Create a marker file to verify deletion
		if err := os.WriteFile(filepath.Join(dir, "nested", ".marker"), []byte("test"), 0644); err != nil {
			return err
		}
	}
	for _, name := range presentFiles {
		if err := os.WriteFile(filepath.Join(f.Root, name), []byte("data"), 0644); err != nil {
			return err
		}
	}

	keep := filepath.Join(f.Root, "User", "settings.json")
	if err := os.MkdirAll(filepath.Dir(keep), 0755); err != nil {
		return err
	}
	return os.WriteFile(keep, []byte(`{"editor.fontSize": 14}`), 0644)
}

// WriteStorage writes raw content to storage.json.
func (f *FakeWindsurfStructure) WriteStorage(content string) error {
	path := f.StoragePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// StoragePath returns the storage.json path.
func (f *FakeWindsurfStructure) StoragePath() string {
	return filepath.Join(f.Root, "User", "globalStorage", "storage.json")
}

// PresentTargets returns the absolute paths Create populated.
func (f *FakeWindsurfStructure) PresentTargets() []string {
	var paths []string
	for _, p := range append(append([]string{}, presentDirs...), presentFiles...) {
		paths = append(paths, filepath.Join(f.Root, p))
	}
	return paths
}

// KeptFile returns a file outside every cleanup target.
func (f *FakeWindsurfStructure) KeptFile() string {
	return filepath.Join(f.Root, "User", "settings.json")
}

// Cleanup removes the fake tree.
func (f *FakeWindsurfStructure) Cleanup() error {
	return os.RemoveAll(f.Root)
}
