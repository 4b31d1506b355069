package infra

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/eliteGoblin/wsreset/internal/domain"
)

const storageFileMode = 0o644

// JSONConfigStore implements domain.ConfigStore for the flat storage.json document.
type JSONConfigStore struct{}

// NewJSONConfigStore creates a new storage file store.
func NewJSONConfigStore() *JSONConfigStore {
	return &JSONConfigStore{}
}

// Load reads the document at path.
func (s *JSONConfigStore) Load(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// Invalid UTF-8 would decode as U+FFFD and be written back altered.
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s", domain.ErrConfigEncoding, path)
	}

	// UseNumber keeps large integers intact across the rewrite.
	var doc map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return map[string]any{}, fmt.Errorf("%w: %v", domain.ErrConfigParseInvalid, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return map[string]any{}, fmt.Errorf("%w: trailing data after top-level object", domain.ErrConfigParseInvalid)
	}
	if doc == nil {
		// A literal "null" decodes without error.
		return map[string]any{}, fmt.Errorf("%w: top-level value is null", domain.ErrConfigParseInvalid)
	}
	return doc, nil
}

// Save writes doc with 2-space indentation, replacing path atomically.
func (s *JSONConfigStore) Save(path string, doc map[string]any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	mode := fs.FileMode(storageFileMode)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return atomicWriteFile(path, buf.Bytes(), mode)
}

// atomicWriteFile writes data to a temp file in the target directory,
// syncs it and renames it over path.
func atomicWriteFile(path string, data []byte, perm fs.FileMode) error {
	tmpPath, err := writeTemp(filepath.Dir(path), perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// createExclusive publishes a fully written temp file at path with a hard
// link, failing with fs.ErrExist instead of replacing an existing file.
func createExclusive(path string, perm fs.FileMode, fill func(io.Writer) error) error {
	tmpPath, err := writeTemp(filepath.Dir(path), perm, fill)
	if err != nil {
		return err
	}
	defer os.Remove(tmpPath)
	return os.Link(tmpPath, path)
}

// writeTemp fills a new temp file in dir, syncs it, applies perm and
// returns its path. The temp file is removed on failure.
func writeTemp(dir string, perm fs.FileMode, fill func(io.Writer) error) (string, error) {
	tmpFile, err := os.CreateTemp(dir, ".wsreset-tmp-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if err = fill(tmpFile); err != nil {
		tmpFile.Close()
		return "", err
	}
	if err = tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return "", err
	}
	if err = tmpFile.Close(); err != nil {
		return "", err
	}
	if err = os.Chmod(tmpPath, perm); err != nil {
		return "", err
	}

	success = true
	return tmpPath, nil
}

// Ensure JSONConfigStore implements domain.ConfigStore.
var _ domain.ConfigStore = (*JSONConfigStore)(nil)
