package ops

import (
	"errors"
	"log/slog"

	"github.com/jacksmith/finalizer/internal/logging"
	"github.com/jacksmith/finalizer/internal/model"
	"github.com/jacksmith/finalizer/internal/msi"
	"github.com/jacksmith/finalizer/internal/storage"
)

// Store paths, relative to the local machine root.
const (
	// InstalledVersionsKey holds one subkey per platform; each has an "sdk"
	// subkey whose value names are installed SDK versions.
	InstalledVersionsKey = `SOFTWARE\dotnet\Setup\InstalledVersions`

	// DependenciesKey holds one subkey per dependency provider.
	DependenciesKey = `SOFTWARE\Classes\Installer\Dependencies`

	// DependentsSubkey lists the registrations keeping a provider installed.
	DependentsSubkey = "Dependents"

	// WorkloadRecordsKey holds workload records by platform and feature band.
	WorkloadRecordsKey = `SOFTWARE\Microsoft\dotnet\InstalledWorkloads\Standalone`

	// workloadRecordsBoundary is never deleted by ancestor pruning.
	workloadRecordsBoundary = `SOFTWARE\Microsoft\dotnet`

	// RebootPendingKey exists while component servicing needs a restart.
	RebootPendingKey = `SOFTWARE\Microsoft\Windows\CurrentVersion\Component Based Servicing\RebootPending`

	// SessionManagerKey holds PendingFileRenameOperations.
	SessionManagerKey = `SYSTEM\CurrentControlSet\Control\Session Manager`

	// PendingFileRenameValue lists file moves deferred to the next restart.
	PendingFileRenameValue = "PendingFileRenameOperations"
)

// Finalizer removes machine-wide registrations left behind after an SDK is
// uninstalled. It holds no state between calls; every operation re-reads the
// store and filesystem.
type Finalizer struct {
	// Store is the machine store.
	Store storage.Store
	// SDKStore is the view holding installed SDK records. Defaults to Store.
	SDKStore storage.Store
	// Engine removes products.
	Engine msi.Engine
	// Logger receives one line per significant step.
	Logger *slog.Logger

	// CommonAppData is the machine-wide application data directory.
	CommonAppData string
	// ProductDir is the product folder under CommonAppData.
	ProductDir string
	// Namespace prefixes the dependent name.
	Namespace string
}

func (f *Finalizer) sdkStore() storage.Store {
	if f.SDKStore != nil {
		return f.SDKStore
	}
	return f.Store
}

func (f *Finalizer) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return logging.Discard()
}

// DependentName returns the registration name the SDK for band and platform
// holds on its providers.
func (f *Finalizer) DependentName(band model.FeatureBand, platform string) string {
	return model.DependentName(f.Namespace, band, platform)
}

// isNotExist reports whether err means the key or value is already gone.
func isNotExist(err error) bool {
	return errors.Is(err, storage.ErrNotExist)
}
