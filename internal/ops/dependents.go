package ops

import (
	"fmt"
	"regexp"

	"github.com/jacksmith/finalizer/internal/model"
	"github.com/jacksmith/finalizer/internal/msi"
	"github.com/jacksmith/finalizer/internal/storage"
)

// productCodeRegex matches a braced GUID such as
// {2D2A0F71-4D65-4A3A-9C49-1F8B4E0C8B7E}.
var productCodeRegex = regexp.MustCompile(`^\{[0-9A-Fa-f]{8}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{12}\}$`)

// DependentResult describes what RemoveDependent did.
type DependentResult struct {
	// Provider is the provider key the dependent was removed from, or "" if
	// no provider held it.
	Provider string
	// Remaining is the number of dependents left on Provider.
	Remaining int
	// ProductCode is the product removed once Provider had no dependents.
	ProductCode string
	// ProductRemoved reports that removal of ProductCode was requested.
	ProductRemoved bool
	// Result is the engine result of the removal request.
	Result msi.Result
	// RebootRequired reports that the removal asked for a restart.
	RebootRequired bool
}

// Found reports whether a provider held the dependent.
func (r DependentResult) Found() bool {
	return r.Provider != ""
}

// RemoveDependent removes the dependent registration name from the first
// provider that holds it. If that leaves the provider without dependents,
// the provider's product is removed and the provider key deleted.
//
// Providers are scanned in full because the store has no index by dependent.
// A dependent is assumed to be registered on at most one provider, so the
// scan stops at the first match.
//
// An error means a destructive step on the matched provider failed; the
// result still carries the reboot flag accumulated before the failure.
func (f *Finalizer) RemoveDependent(name string) (DependentResult, error) {
	log := f.logger()
	var res DependentResult

	root, err := f.Store.OpenKey(DependenciesKey)
	if err != nil {
		if isNotExist(err) {
			log.Info("Dependency key does not exist", "path", DependenciesKey)
			return res, nil
		}
		log.Warn("Failed to open dependency key", "path", DependenciesKey, "error", err)
		return res, nil
	}
	providers, err := root.SubKeyNames()
	root.Close()
	if err != nil {
		log.Warn("Failed to enumerate dependency providers", "error", err)
		return res, nil
	}

	for _, providerName := range providers {
		provider, ok := f.loadProvider(providerName)
		if !ok {
			continue
		}
		dependent := provider.MatchDependent(name)
		if dependent == "" {
			continue
		}

		log.Info("Found dependent", "dependent", dependent, "provider", providerName)
		res.Provider = providerName

		done, err := f.pruneProvider(provider, dependent, &res)
		if err != nil {
			return res, err
		}
		if done {
			return res, nil
		}
	}

	if !res.Found() {
		log.Info("Dependent not found under any provider", "dependent", name)
	}
	return res, nil
}

// loadProvider reads a provider's dependents. Providers without a
// Dependents subkey are skipped.
func (f *Finalizer) loadProvider(providerName string) (*model.ProviderKey, bool) {
	path := storage.Join(DependenciesKey, providerName, DependentsSubkey)
	k, err := f.Store.OpenKey(path)
	if err != nil {
		if !isNotExist(err) {
			f.logger().Warn("Failed to open dependents", "provider", providerName, "error", err)
		}
		return nil, false
	}
	defer k.Close()

	names, err := k.SubKeyNames()
	if err != nil {
		f.logger().Warn("Failed to enumerate dependents", "provider", providerName, "error", err)
		return nil, false
	}
	return &model.ProviderKey{Name: providerName, Dependents: names}, true
}

// pruneProvider removes dependent from provider and, when it was the last
// one, removes the product. It reports whether the scan is finished; false
// means the provider's product could not be identified and the scan moves
// on to the next provider.
func (f *Finalizer) pruneProvider(provider *model.ProviderKey, dependent string, res *DependentResult) (bool, error) {
	log := f.logger()
	providerPath := storage.Join(DependenciesKey, provider.Name)
	dependentsPath := storage.Join(providerPath, DependentsSubkey)

	if err := f.Store.DeleteKey(storage.Join(dependentsPath, dependent)); err != nil {
		if !isNotExist(err) {
			return true, fmt.Errorf("failed to remove dependent %s from %s: %w", dependent, provider.Name, err)
		}
		log.Info("Dependent already removed", "dependent", dependent)
	} else {
		log.Info("Removed dependent", "dependent", dependent, "provider", provider.Name)
	}

	remaining, err := f.countDependents(dependentsPath)
	if err != nil {
		return true, fmt.Errorf("failed to count dependents of %s: %w", provider.Name, err)
	}
	res.Remaining = remaining
	if remaining > 0 {
		log.Info("Provider still has dependents, keeping product", "provider", provider.Name, "dependents", remaining)
		return true, nil
	}

	code, err := f.productCode(providerPath)
	if err != nil {
		log.Warn("Failed to read product code, skipping provider", "provider", provider.Name, "error", err)
		return false, nil
	}
	provider.ProductCode = code

	productName, err := f.Engine.ProductInfo(provider.ProductCode, msi.PropertyProductName)
	if err != nil {
		log.Warn("Product is not registered, keeping provider", "product", provider.ProductCode, "error", err)
		return false, nil
	}

	log.Info("Removing product", "product", provider.ProductCode, "name", productName)
	prev := f.Engine.SetInternalUI(msi.UILevelNone)
	result := f.Engine.ConfigureProduct(provider.ProductCode, msi.InstallLevelDefault, msi.InstallStateAbsent, msi.RemoveCommandLine)
	f.Engine.SetInternalUI(prev)

	res.ProductCode = provider.ProductCode
	res.ProductRemoved = true
	res.Result = result
	if result.Removed() {
		res.RebootRequired = true
		log.Info("Product removal finished", "product", code, "result", result.String())
	} else {
		log.Error("Product removal failed", "product", code, "result", result.String(), "code", uint32(result))
	}

	// Delete the provider whatever the removal result was.
	if err := f.Store.DeleteTree(providerPath); err != nil && !isNotExist(err) {
		return true, fmt.Errorf("failed to delete provider %s: %w", provider.Name, err)
	}
	log.Info("Deleted provider key", "provider", provider.Name)
	return true, nil
}

// countDependents returns the number of dependents left under path. A
// missing key counts as none.
func (f *Finalizer) countDependents(path string) (int, error) {
	k, err := f.Store.OpenKey(path)
	if err != nil {
		if isNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer k.Close()

	info, err := k.Info()
	if err != nil {
		if isNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	return info.SubKeyCount, nil
}

// productCode reads the provider's default value and checks it is a GUID.
func (f *Finalizer) productCode(providerPath string) (string, error) {
	k, err := f.Store.OpenKey(providerPath)
	if err != nil {
		return "", err
	}
	defer k.Close()

	code, err := k.StringValue("")
	if err != nil {
		return "", err
	}
	if !productCodeRegex.MatchString(code) {
		return "", fmt.Errorf("malformed product code %q", code)
	}
	return code, nil
}
