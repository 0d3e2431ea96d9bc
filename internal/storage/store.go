// Package storage provides access to the hierarchical machine store that holds
// SDK, dependency and workload registrations.
//
// Store is the capability the cleanup operations are written against. Three
// implementations exist: the native Windows registry, an in-memory tree used
// by tests, and a YAML snapshot file for offline runs on any platform.
package storage

import (
	"errors"
	"strings"
)

// Separator joins key path segments.
const Separator = `\`

var (
	// ErrNotExist is returned when a key or value does not exist.
	ErrNotExist = errors.New("not found")

	// ErrUnexpectedType is returned when a value exists but has the wrong type.
	ErrUnexpectedType = errors.New("unexpected value type")

	// ErrNotEmpty is returned by DeleteKey when the key still has subkeys.
	ErrNotEmpty = errors.New("key has subkeys")
)

// Store is a hierarchical key-value store rooted at the local machine.
// Paths are backslash-separated and case-insensitive.
type Store interface {
	// OpenKey opens an existing key. Returns ErrNotExist if it is missing.
	OpenKey(path string) (Key, error)
	// DeleteKey deletes a key that has no subkeys.
	DeleteKey(path string) error
	// DeleteTree deletes a key and all of its descendants.
	DeleteTree(path string) error
}

// Key is an open handle to a store key. Callers must Close it.
type Key interface {
	SubKeyNames() ([]string, error)
	ValueNames() ([]string, error)
	// StringValue reads a string value. The empty name is the default value.
	StringValue(name string) (string, error)
	HasValue(name string) (bool, error)
	Info() (KeyInfo, error)
	Close() error
}

// KeyInfo summarizes a key's contents.
type KeyInfo struct {
	SubKeyCount int
	ValueCount  int
}

// Empty reports whether the key has no subkeys and no values.
func (i KeyInfo) Empty() bool {
	return i.SubKeyCount == 0 && i.ValueCount == 0
}

// Join joins path segments with the store separator, skipping empty ones.
func Join(parts ...string) string {
	var kept []string
	for _, p := range parts {
		p = strings.Trim(p, Separator)
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, Separator)
}

// Parent returns the path of the parent key, or "" for a top-level key.
func Parent(path string) string {
	path = strings.Trim(path, Separator)
	i := strings.LastIndex(path, Separator)
	if i < 0 {
		return ""
	}
	return path[:i]
}

// Base returns the last segment of path.
func Base(path string) string {
	path = strings.Trim(path, Separator)
	return path[strings.LastIndex(path, Separator)+1:]
}

// Split returns the segments of path.
func Split(path string) []string {
	path = strings.Trim(path, Separator)
	if path == "" {
		return nil
	}
	return strings.Split(path, Separator)
}

// KeyExists reports whether path can be opened. Errors other than
// ErrNotExist are returned.
func KeyExists(s Store, path string) (bool, error) {
	k, err := s.OpenKey(path)
	if err != nil {
		if errors.Is(err, ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	k.Close()
	return true, nil
}
