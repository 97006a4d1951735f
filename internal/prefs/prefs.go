// Package prefs keeps small UI flags between runs in a JSONC file.
//
// Values are stored as the strings "true" and "false"; anything else,
// including a missing key, reads as false.
package prefs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"planar/internal/debug"
	appErrors "planar/internal/errors"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

// FileName is the state file inside the config directory.
const FileName = "state.json"

var logf = debug.Scope("prefs").Logf

// Store is a file-backed flag store. It is safe for concurrent use.
type Store struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

// DefaultPath returns ~/.planar/state.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".planar", FileName), nil
}

// Open reads path. A missing file yields an empty store; a corrupt one is
// logged and ignored so a bad edit never blocks startup.
func Open(path string) (*Store, error) {
	s := &Store{path: path, values: map[string]string{}}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, appErrors.New(appErrors.CodeConfigurationError, fmt.Sprintf("read %s", path), err)
	}
	values, err := parse(data)
	if err != nil {
		logf("ignoring %s: %v", path, err)
		return s, nil
	}
	s.values = values
	return s, nil
}

func parse(data []byte) (map[string]string, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONC: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(standardized, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case string:
			values[k] = v
		case bool:
			values[k] = fmt.Sprint(v)
		}
	}
	return values, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string { return s.path }

// Bool reports whether key holds "true".
func (s *Store) Bool(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key] == "true"
}

// SetBool records key and rewrites the file atomically.
func (s *Store) SetBool(key string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = fmt.Sprint(value)
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return appErrors.New(appErrors.CodeConfigurationError, "create state directory", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return appErrors.New(appErrors.CodeConfigurationError, fmt.Sprintf("write %s", s.path), err)
	}
	return nil
}
