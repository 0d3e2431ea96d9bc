package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jacksmith/finalizer/internal/model"
)

// InstallStatePath returns the install state file for band and platform.
func (f *Finalizer) InstallStatePath(band model.FeatureBand, platform string) string {
	return filepath.Join(f.productRoot(), "workloads", platform, band.String(), "installstate", "default.json")
}

func (f *Finalizer) productRoot() string {
	return filepath.Join(f.CommonAppData, f.ProductDir)
}

// DeleteInstallStateFile deletes the install state file for band and
// platform and then removes parent directories left empty. It reports
// whether the file existed.
func (f *Finalizer) DeleteInstallStateFile(band model.FeatureBand, platform string) (bool, error) {
	log := f.logger()
	path := f.InstallStatePath(band, platform)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			log.Info("Install state file does not exist", "path", path)
			return false, nil
		}
		return false, fmt.Errorf("failed to access install state file: %w", err)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to delete install state file %s: %w", path, err)
	}
	log.Info("Deleted install state file", "path", path)

	f.pruneEmptyDirs(filepath.Dir(path), f.productRoot())
	return true, nil
}

// pruneEmptyDirs removes dir and its parents while they exist and are
// empty. Directories above root are never touched.
func (f *Finalizer) pruneEmptyDirs(dir, root string) {
	log := f.logger()

	for withinDir(dir, root) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				log.Warn("Failed to read directory while pruning", "path", dir, "error", err)
			}
			return
		}
		if len(entries) > 0 {
			log.Info("Directory is not empty, stopping", "path", dir)
			return
		}
		if err := os.Remove(dir); err != nil {
			log.Warn("Failed to remove empty directory", "path", dir, "error", err)
			return
		}
		log.Info("Removed empty directory", "path", dir)
		dir = filepath.Dir(dir)
	}
}

// withinDir reports whether dir is root or below it.
func withinDir(dir, root string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
