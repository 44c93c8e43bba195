// Package store persists named profile blobs.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound reports a profile that does not exist.
var ErrNotFound = errors.New("profile not found")

// StoreError wraps a failed store operation on a named profile.
type StoreError struct {
	Op   string
	Name string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("failed to %s profiles: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("failed to %s profile %q: %v", e.Op, e.Name, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store is opaque persistence of named blobs. Implementations sanitise
// names themselves.
type Store interface {
	Save(name string, blob []byte) error
	Load(name string) ([]byte, error)
	List() ([]string, error)
	Delete(name string) error
	Exists(name string) (bool, error)
}

// FileStore keeps one <name>.json file per profile in a directory.
type FileStore struct {
	dir string
}

// DefaultDir returns ~/.config/monswitch/profiles (or the platform
// equivalent).
func DefaultDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, "monswitch", "profiles"), nil
}

// NewFileStore returns a store rooted at dir, or at DefaultDir when dir is
// empty. The directory is created on first save.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory profiles are kept in.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, SanitizeName(name)+".json")
}

func (s *FileStore) Save(name string, blob []byte) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return &StoreError{Op: "save", Name: name, Err: err}
	}
	if err := os.WriteFile(s.path(name), blob, 0644); err != nil {
		return &StoreError{Op: "save", Name: name, Err: err}
	}
	return nil
}

func (s *FileStore) Load(name string) ([]byte, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, &StoreError{Op: "load", Name: name, Err: notFound(err)}
	}
	return data, nil
}

func (s *FileStore) Delete(name string) error {
	if err := os.Remove(s.path(name)); err != nil {
		return &StoreError{Op: "delete", Name: name, Err: notFound(err)}
	}
	return nil
}

func (s *FileStore) Exists(name string) (bool, error) {
	_, err := os.Stat(s.path(name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, &StoreError{Op: "stat", Name: name, Err: err}
}

// List returns profile names in lexical order.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &StoreError{Op: "list", Err: err}
	}

	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		out = append(out, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(out)
	return out, nil
}

func notFound(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// SanitizeName makes name safe to use as a file name on any host: path and
// shell-hostile characters are dropped, reserved device names are prefixed
// with an underscore and an empty result becomes "profile".
func SanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`\/:*?"<>|`, r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if reservedNames[strings.ToUpper(name)] {
		name = "_" + name
	}
	if name == "" {
		name = "profile"
	}
	return name
}
