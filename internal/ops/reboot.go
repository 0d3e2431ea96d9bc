package ops

import "github.com/jacksmith/finalizer/internal/storage"

// IsRebootPending reports whether the OS has a restart pending, either from
// component servicing or from deferred file rename operations.
func (f *Finalizer) IsRebootPending() bool {
	log := f.logger()

	servicing, err := storage.KeyExists(f.Store, RebootPendingKey)
	if err != nil {
		log.Warn("Failed to check component servicing reboot marker", "error", err)
	}
	if servicing {
		log.Info("Reboot pending: component servicing marker exists")
	}

	renames := f.pendingFileRenames()
	if renames {
		log.Info("Reboot pending: file rename operations are queued")
	}

	return servicing || renames
}

func (f *Finalizer) pendingFileRenames() bool {
	k, err := f.Store.OpenKey(SessionManagerKey)
	if err != nil {
		if !isNotExist(err) {
			f.logger().Warn("Failed to open session manager key", "error", err)
		}
		return false
	}
	defer k.Close()

	ok, err := k.HasValue(PendingFileRenameValue)
	if err != nil {
		f.logger().Warn("Failed to read pending file rename operations", "error", err)
		return false
	}
	return ok
}
