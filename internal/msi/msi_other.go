//go:build !windows

package msi

import (
	"fmt"
	"runtime"
)

// NewNative reports that Windows Installer is not available. Use a Catalog
// instead.
func NewNative() (Engine, error) {
	return nil, fmt.Errorf("windows installer is not available on %s; use a store snapshot", runtime.GOOS)
}
