//go:build !windows

package storage

import (
	"fmt"
	"os"
)

// CommonAppDataDir returns $PROGRAMDATA when set, otherwise /var/lib.
func CommonAppDataDir() (string, error) {
	if dir := os.Getenv("PROGRAMDATA"); dir != "" {
		return dir, nil
	}
	if _, err := os.Stat("/var/lib"); err != nil {
		return "", fmt.Errorf("failed to resolve common app data: %w", err)
	}
	return "/var/lib", nil
}
