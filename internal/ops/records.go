package ops

import (
	"fmt"
	"strings"

	"github.com/jacksmith/finalizer/internal/model"
	"github.com/jacksmith/finalizer/internal/storage"
)

// WorkloadRecordPath returns the store path of the workload records for
// platform and band.
func WorkloadRecordPath(band model.FeatureBand, platform string) string {
	return storage.Join(WorkloadRecordsKey, platform, band.String())
}

// DeleteWorkloadRecords deletes the workload record subtree for band and
// platform, then prunes ancestors that are left empty. It reports whether a
// record was deleted. Failures while pruning ancestors are logged and end
// the walk.
func (f *Finalizer) DeleteWorkloadRecords(band model.FeatureBand, platform string) (bool, error) {
	log := f.logger()
	path := WorkloadRecordPath(band, platform)

	deleted := false
	err := f.Store.DeleteTree(path)
	switch {
	case err == nil:
		deleted = true
		log.Info("Deleted workload records", "path", path)
	case isNotExist(err):
		log.Info("Workload records not found", "path", path)
	default:
		return false, fmt.Errorf("failed to delete workload records %s: %w", path, err)
	}

	f.pruneEmptyKeys(storage.Parent(path), workloadRecordsBoundary)
	return deleted, nil
}

// pruneEmptyKeys deletes path and its ancestors while they are empty,
// stopping at the first missing or non-empty key. boundary and its
// ancestors are never deleted.
func (f *Finalizer) pruneEmptyKeys(path, boundary string) {
	log := f.logger()

	for path != "" && isBelow(path, boundary) {
		k, err := f.Store.OpenKey(path)
		if err != nil {
			if !isNotExist(err) {
				log.Warn("Failed to open key while pruning", "path", path, "error", err)
			}
			return
		}
		info, err := k.Info()
		k.Close()
		if err != nil {
			if !isNotExist(err) {
				log.Warn("Failed to query key while pruning", "path", path, "error", err)
			}
			return
		}
		if !info.Empty() {
			log.Info("Key is not empty, stopping", "path", path, "subkeys", info.SubKeyCount, "values", info.ValueCount)
			return
		}

		if err := f.Store.DeleteKey(path); err != nil {
			log.Warn("Failed to delete empty key", "path", path, "error", err)
			return
		}
		log.Info("Deleted empty key", "path", path)
		path = storage.Parent(path)
	}
}

// isBelow reports whether path is a strict descendant of boundary.
// Comparison is case-insensitive.
func isBelow(path, boundary string) bool {
	p := strings.ToLower(strings.Trim(path, storage.Separator))
	b := strings.ToLower(strings.Trim(boundary, storage.Separator))
	return strings.HasPrefix(p, b+storage.Separator)
}
