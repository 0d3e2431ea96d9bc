package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-memory Store. Names are matched case-insensitively and
// keep the spelling they were created with.
type Memory struct {
	mu   sync.Mutex
	root *node
}

type node struct {
	name     string
	children map[string]*node
	values   map[string]namedValue
}

type namedValue struct {
	name string
	data any
}

func newNode(name string) *node {
	return &node{
		name:     name,
		children: make(map[string]*node),
		values:   make(map[string]namedValue),
	}
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{root: newNode("")}
}

// CreateKey creates the key at path along with any missing ancestors.
func (m *Memory) CreateKey(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(Split(path)) == 0 {
		return fmt.Errorf("cannot create the root key")
	}
	m.ensure(path)
	return nil
}

// SetValue stores a value on the key at path, creating the key if needed.
// Supported data types are string, []string and uint32.
func (m *Memory) SetValue(path, name string, data any) error {
	switch data.(type) {
	case string, []string, uint32:
	default:
		return fmt.Errorf("%w: %T", ErrUnexpectedType, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.ensure(path)
	n.values[strings.ToLower(name)] = namedValue{name: name, data: data}
	return nil
}

// OpenKey implements Store.
func (m *Memory) OpenKey(path string) (Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookup(path) == nil {
		return nil, fmt.Errorf("open %s: %w", path, ErrNotExist)
	}
	return &memoryKey{m: m, path: path}, nil
}

// DeleteKey implements Store.
func (m *Memory) DeleteKey(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	parent, n := m.lookupWithParent(path)
	if n == nil {
		return fmt.Errorf("delete %s: %w", path, ErrNotExist)
	}
	if len(n.children) > 0 {
		return fmt.Errorf("delete %s: %w", path, ErrNotEmpty)
	}
	delete(parent.children, strings.ToLower(n.name))
	return nil
}

// DeleteTree implements Store.
func (m *Memory) DeleteTree(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	parent, n := m.lookupWithParent(path)
	if n == nil {
		return fmt.Errorf("delete tree %s: %w", path, ErrNotExist)
	}
	delete(parent.children, strings.ToLower(n.name))
	return nil
}

// Paths returns every key path in the store in sorted order.
func (m *Memory) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var paths []string
	m.walk(func(path string, _ *node) {
		paths = append(paths, path)
	})
	return paths
}

// walk visits every key below the root depth-first with children sorted by
// name. Callers must hold m.mu.
func (m *Memory) walk(fn func(path string, n *node)) {
	var visit func(prefix string, n *node)
	visit = func(prefix string, n *node) {
		for _, c := range sortedChildren(n) {
			p := Join(prefix, c.name)
			fn(p, c)
			visit(p, c)
		}
	}
	visit("", m.root)
}

func (m *Memory) ensure(path string) *node {
	n := m.root
	for _, seg := range Split(path) {
		c, ok := n.children[strings.ToLower(seg)]
		if !ok {
			c = newNode(seg)
			n.children[strings.ToLower(seg)] = c
		}
		n = c
	}
	return n
}

func (m *Memory) lookup(path string) *node {
	_, n := m.lookupWithParent(path)
	return n
}

// lookupWithParent never returns the root as n, so the root cannot be deleted.
func (m *Memory) lookupWithParent(path string) (*node, *node) {
	segs := Split(path)
	if len(segs) == 0 {
		return nil, nil
	}
	parent := m.root
	for i, seg := range segs {
		c, ok := parent.children[strings.ToLower(seg)]
		if !ok {
			return nil, nil
		}
		if i == len(segs)-1 {
			return parent, c
		}
		parent = c
	}
	return nil, nil
}

func sortedChildren(n *node) []*node {
	out := make([]*node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].name) < strings.ToLower(out[j].name)
	})
	return out
}

// memoryKey re-resolves its path on every call so that a key deleted through
// another handle reports ErrNotExist.
type memoryKey struct {
	m      *Memory
	path   string
	closed bool
}

func (k *memoryKey) node() (*node, error) {
	if k.closed {
		return nil, fmt.Errorf("key %s is closed", k.path)
	}
	n := k.m.lookup(k.path)
	if n == nil {
		return nil, fmt.Errorf("%s: %w", k.path, ErrNotExist)
	}
	return n, nil
}

func (k *memoryKey) SubKeyNames() ([]string, error) {
	k.m.mu.Lock()
	defer k.m.mu.Unlock()
	n, err := k.node()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, c := range sortedChildren(n) {
		names = append(names, c.name)
	}
	return names, nil
}

func (k *memoryKey) ValueNames() ([]string, error) {
	k.m.mu.Lock()
	defer k.m.mu.Unlock()
	n, err := k.node()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(n.values))
	for _, v := range n.values {
		names = append(names, v.name)
	}
	sort.Strings(names)
	return names, nil
}

func (k *memoryKey) StringValue(name string) (string, error) {
	k.m.mu.Lock()
	defer k.m.mu.Unlock()
	n, err := k.node()
	if err != nil {
		return "", err
	}
	v, ok := n.values[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("value %q of %s: %w", name, k.path, ErrNotExist)
	}
	s, ok := v.data.(string)
	if !ok {
		return "", fmt.Errorf("value %q of %s: %w", name, k.path, ErrUnexpectedType)
	}
	return s, nil
}

func (k *memoryKey) HasValue(name string) (bool, error) {
	k.m.mu.Lock()
	defer k.m.mu.Unlock()
	n, err := k.node()
	if err != nil {
		return false, err
	}
	_, ok := n.values[strings.ToLower(name)]
	return ok, nil
}

func (k *memoryKey) Info() (KeyInfo, error) {
	k.m.mu.Lock()
	defer k.m.mu.Unlock()
	n, err := k.node()
	if err != nil {
		return KeyInfo{}, err
	}
	return KeyInfo{SubKeyCount: len(n.children), ValueCount: len(n.values)}, nil
}

func (k *memoryKey) Close() error {
	k.closed = true
	return nil
}
