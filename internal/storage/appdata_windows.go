//go:build windows

package storage

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// CommonAppDataDir returns the ProgramData known folder.
func CommonAppDataDir() (string, error) {
	dir, err := windows.KnownFolderPath(windows.FOLDERID_ProgramData, windows.KF_FLAG_DEFAULT)
	if err != nil {
		return "", fmt.Errorf("failed to resolve ProgramData: %w", err)
	}
	return dir, nil
}
