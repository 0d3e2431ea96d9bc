//go:build windows

package storage

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

var (
	modadvapi32 = windows.NewLazySystemDLL("advapi32.dll")

	procRegDeleteKeyExW = modadvapi32.NewProc("RegDeleteKeyExW")
)

// Registry is a Store backed by HKEY_LOCAL_MACHINE.
type Registry struct {
	root registry.Key
	view uint32
}

// Native returns the local-machine registry seen through view.
func Native(view View) (Store, error) {
	r := &Registry{root: registry.LOCAL_MACHINE}
	switch view {
	case View32:
		r.view = registry.WOW64_32KEY
	case View64:
		r.view = registry.WOW64_64KEY
	}
	return r, nil
}

// OpenKey implements Store.
func (r *Registry) OpenKey(path string) (Key, error) {
	k, err := registry.OpenKey(r.root, path, registry.READ|r.view)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, mapRegistryError(err))
	}
	return &registryKey{k: k, path: path}, nil
}

// DeleteKey implements Store.
func (r *Registry) DeleteKey(path string) error {
	parent, err := registry.OpenKey(r.root, Parent(path), registry.ENUMERATE_SUB_KEYS|registry.SET_VALUE|r.view)
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, mapRegistryError(err))
	}
	defer parent.Close()

	if err := deleteKey(parent, Base(path), r.view); err != nil {
		return fmt.Errorf("delete %s: %w", path, mapRegistryError(err))
	}
	return nil
}

// DeleteTree implements Store. Subkeys are removed depth-first because
// RegDeleteKey only deletes leaf keys.
func (r *Registry) DeleteTree(path string) error {
	k, err := registry.OpenKey(r.root, path, registry.ENUMERATE_SUB_KEYS|r.view)
	if err != nil {
		return fmt.Errorf("delete tree %s: %w", path, mapRegistryError(err))
	}
	names, err := k.ReadSubKeyNames(-1)
	k.Close()
	if err != nil {
		return fmt.Errorf("delete tree %s: %w", path, mapRegistryError(err))
	}

	for _, name := range names {
		if err := r.DeleteTree(Join(path, name)); err != nil && !errors.Is(err, ErrNotExist) {
			return err
		}
	}
	return r.DeleteKey(path)
}

// deleteKey removes the leaf key name under parent. RegDeleteKeyW always
// works on the default view, so an explicit view goes through
// RegDeleteKeyExW.
func deleteKey(parent registry.Key, name string, view uint32) error {
	if view == 0 {
		return registry.DeleteKey(parent, name)
	}
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return err
	}
	r, _, _ := procRegDeleteKeyExW.Call(uintptr(parent), uintptr(unsafe.Pointer(p)), uintptr(view), 0)
	if r != 0 {
		return syscall.Errno(r)
	}
	return nil
}

type registryKey struct {
	k    registry.Key
	path string
}

func (k *registryKey) SubKeyNames() ([]string, error) {
	names, err := k.k.ReadSubKeyNames(-1)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", k.path, mapRegistryError(err))
	}
	return names, nil
}

func (k *registryKey) ValueNames() ([]string, error) {
	names, err := k.k.ReadValueNames(-1)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", k.path, mapRegistryError(err))
	}
	return names, nil
}

func (k *registryKey) StringValue(name string) (string, error) {
	v, _, err := k.k.GetStringValue(name)
	if err != nil {
		return "", fmt.Errorf("value %q of %s: %w", name, k.path, mapRegistryError(err))
	}
	return v, nil
}

func (k *registryKey) HasValue(name string) (bool, error) {
	_, _, err := k.k.GetValue(name, nil)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("value %q of %s: %w", name, k.path, mapRegistryError(err))
	}
	return true, nil
}

func (k *registryKey) Info() (KeyInfo, error) {
	info, err := k.k.Stat()
	if err != nil {
		return KeyInfo{}, fmt.Errorf("%s: %w", k.path, mapRegistryError(err))
	}
	return KeyInfo{SubKeyCount: int(info.SubKeyCount), ValueCount: int(info.ValueCount)}, nil
}

func (k *registryKey) Close() error {
	return k.k.Close()
}

// mapRegistryError translates registry errors onto the package sentinels,
// keeping the original error in the chain.
func mapRegistryError(err error) error {
	switch {
	case errors.Is(err, registry.ErrNotExist):
		return fmt.Errorf("%w (%v)", ErrNotExist, err)
	case errors.Is(err, registry.ErrUnexpectedType):
		return fmt.Errorf("%w (%v)", ErrUnexpectedType, err)
	default:
		return err
	}
}
