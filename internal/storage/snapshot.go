package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// registrySection is the top-level key holding store contents in a snapshot
// file. Other sections (such as the product catalog) are preserved on save.
const registrySection = "registry"

// snapshotKey is one key in a snapshot file.
type snapshotKey struct {
	Path   string         `yaml:"path"`
	Values map[string]any `yaml:"values,omitempty"`
}

// Snapshot is a Store backed by a YAML file. Every mutation is written back
// to the file before returning, so an interrupted run leaves a consistent
// snapshot behind.
type Snapshot struct {
	*Memory
	path string
}

// OpenSnapshot loads the snapshot file at path.
// Returns error if the file does not exist.
func OpenSnapshot(path string) (*Snapshot, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("store snapshot %s not found", path)
		}
		return nil, fmt.Errorf("failed to access store snapshot: %w", err)
	}

	var keys []snapshotKey
	if _, err := LoadSection(path, registrySection, &keys); err != nil {
		return nil, err
	}

	mem := NewMemory()
	for _, k := range keys {
		if err := mem.CreateKey(k.Path); err != nil {
			return nil, fmt.Errorf("invalid key %q in %s: %w", k.Path, path, err)
		}
		for name, raw := range k.Values {
			data, err := decodeValue(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid value %q of %s in %s: %w", name, k.Path, path, err)
			}
			if err := mem.SetValue(k.Path, name, data); err != nil {
				return nil, err
			}
		}
	}

	return &Snapshot{Memory: mem, path: path}, nil
}

// Path returns the snapshot file path.
func (s *Snapshot) Path() string {
	return s.path
}

// DeleteKey implements Store and persists the change.
func (s *Snapshot) DeleteKey(path string) error {
	if err := s.Memory.DeleteKey(path); err != nil {
		return err
	}
	return s.Save()
}

// DeleteTree implements Store and persists the change.
func (s *Snapshot) DeleteTree(path string) error {
	if err := s.Memory.DeleteTree(path); err != nil {
		return err
	}
	return s.Save()
}

// Save writes the current store contents to the snapshot file.
// Keys are written in sorted order.
func (s *Snapshot) Save() error {
	s.Memory.mu.Lock()
	var keys []snapshotKey
	s.Memory.walk(func(path string, n *node) {
		k := snapshotKey{Path: path}
		if len(n.values) > 0 {
			k.Values = make(map[string]any, len(n.values))
			for _, v := range n.values {
				k.Values[v.name] = v.data
			}
		}
		keys = append(keys, k)
	})
	s.Memory.mu.Unlock()

	return SaveSection(s.path, registrySection, keys)
}

// decodeValue maps YAML scalars onto store value types: strings stay strings,
// integers become uint32 and sequences become multi-strings.
func decodeValue(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case int:
		if v < 0 || v > int(^uint32(0)) {
			return nil, fmt.Errorf("%w: %d out of range", ErrUnexpectedType, v)
		}
		return uint32(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: multi-string entry %v", ErrUnexpectedType, item)
			}
			out = append(out, s)
		}
		return out, nil
	case nil:
		return "", nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnexpectedType, raw)
	}
}

// LoadSection decodes the named top-level section of a YAML document into
// out. It reports whether the section was present.
func LoadSection(path, section string, out any) (bool, error) {
	doc, err := readDocument(path)
	if err != nil {
		return false, err
	}
	node, ok := doc[section]
	if !ok {
		return false, nil
	}
	if err := node.Decode(out); err != nil {
		return false, fmt.Errorf("failed to parse %s section of %s: %w", section, path, err)
	}
	return true, nil
}

// SaveSection replaces the named top-level section of a YAML document,
// leaving the other sections untouched. Sections are written in sorted order.
func SaveSection(path, section string, in any) error {
	doc, err := readDocument(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if doc == nil {
		doc = make(map[string]yaml.Node)
	}

	var node yaml.Node
	if err := node.Encode(in); err != nil {
		return fmt.Errorf("failed to encode %s section: %w", section, err)
	}
	doc[section] = node

	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range names {
		value := doc[name]
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: name},
			&value,
		)
	}

	data, err := yaml.Marshal(root)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return writeFileAtomic(path, data, 0644)
}

func readDocument(path string) (map[string]yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc := make(map[string]yaml.Node)
	if len(strings.TrimSpace(string(data))) == 0 {
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
