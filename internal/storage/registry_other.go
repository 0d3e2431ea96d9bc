//go:build !windows

package storage

import (
	"fmt"
	"runtime"
)

// Native reports that no native registry exists on this platform. Use a
// snapshot file instead.
func Native(view View) (Store, error) {
	return nil, fmt.Errorf("native %s registry is not available on %s; use a store snapshot", view, runtime.GOOS)
}
