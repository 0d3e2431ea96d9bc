package ops

import (
	"github.com/jacksmith/finalizer/internal/model"
	"github.com/jacksmith/finalizer/internal/storage"
)

// DetectSDK reports whether another SDK in band is still installed for
// platform. Entries that cannot be parsed are logged and skipped.
func (f *Finalizer) DetectSDK(band model.FeatureBand, platform string) bool {
	log := f.logger()
	path := storage.Join(InstalledVersionsKey, platform, "sdk")

	k, err := f.sdkStore().OpenKey(path)
	if err != nil {
		if isNotExist(err) {
			log.Info("SDK installation key does not exist", "path", path)
		} else {
			log.Warn("Failed to open SDK installation key", "path", path, "error", err)
		}
		return false
	}
	defer k.Close()

	versions, err := k.ValueNames()
	if err != nil {
		log.Warn("Failed to enumerate installed SDKs", "path", path, "error", err)
		return false
	}

	for _, version := range versions {
		log.Info("Checking installed SDK", "version", version)
		installed, err := model.ParseFeatureBand(version)
		if err != nil {
			log.Warn("Failed to parse SDK version, skipping", "version", version, "error", err)
			continue
		}
		if installed.Equal(band) {
			log.Info("Found SDK in the same feature band", "version", version, "band", band.String())
			return true
		}
	}

	log.Info("No installed SDK matches feature band", "band", band.String(), "platform", platform)
	return false
}
