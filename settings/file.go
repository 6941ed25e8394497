package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-yaml"
)

// DefaultFileName is the settings file name used by [DefaultFilePath].
const DefaultFileName = "channels.yaml"

// FileStore is a [Store] backed by a YAML file holding a flat mapping of
// string keys to string values:
//
//	enabled: net,ui
//	override: ""
//
// A missing file reads as empty. Every Set rewrites the file atomically.
// Safe for concurrent use within a process.
//
// Create instances with [NewFileStore].
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a [FileStore] at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultFilePath returns the settings file path under the user's
// configuration directory.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStore, err)
	}

	return filepath.Join(dir, "logchan", DefaultFileName), nil
}

// Path returns the file backing the store.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the value stored under key.
func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", err
	}

	return values[key], nil
}

// Set stores value under key.
func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}

	if cur, ok := values[key]; ok && cur == value {
		return nil
	}

	values[key] = value

	return s.write(values)
}

func (s *FileStore) read() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	var doc any

	err = yaml.Unmarshal(b, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidSettings, s.path, err)
	}

	if doc == nil {
		return map[string]string{}, nil
	}

	err = Validate(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}

	values := map[string]string{}

	err = yaml.Unmarshal(b, &values)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidSettings, s.path, err)
	}

	return values, nil
}

func (s *FileStore) write(values map[string]string) error {
	b, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrStore, err)
	}

	err = os.MkdirAll(filepath.Dir(s.path), 0o700)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}

	tmp := s.path + ".tmp"

	err = os.WriteFile(tmp, b, 0o600)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}

	err = os.Rename(tmp, s.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}

	return nil
}
