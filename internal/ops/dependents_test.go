package ops

import (
	"errors"
	"strings"
	"testing"

	"github.com/jacksmith/finalizer/internal/msi"
	"github.com/jacksmith/finalizer/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const providerName = "Microsoft.NET.Workload.Mono.Toolchain,8.0.200,x64"

func providerPath(name string) string {
	return storage.Join(DependenciesKey, name)
}

func TestRemoveDependentNotFound(t *testing.T) {
	t.Run("dependency key missing", func(t *testing.T) {
		env := setupTestFinalizer(t)
		res, err := env.f.RemoveDependent(testDependent)
		require.NoError(t, err)
		assert.False(t, res.Found())
		assert.False(t, res.RebootRequired)
	})

	t.Run("no provider holds the dependent", func(t *testing.T) {
		env := setupTestFinalizer(t)
		env.addProvider(t, providerName, testProductCode, "Microsoft.NET.Sdk,8.0.100,x64")

		res, err := env.f.RemoveDependent(testDependent)
		require.NoError(t, err)
		assert.False(t, res.Found())
		assert.False(t, res.RebootRequired)
		assert.Equal(t, 0, env.store.mutations)
		assert.Contains(t, env.log.String(), "Dependent not found under any provider")
	})

	t.Run("providers without dependents are skipped", func(t *testing.T) {
		env := setupTestFinalizer(t)
		env.addProvider(t, "Bare", testProductCode)

		res, err := env.f.RemoveDependent(testDependent)
		require.NoError(t, err)
		assert.False(t, res.Found())
		assert.True(t, env.hasKey(t, providerPath("Bare")))
	})
}

func TestRemoveDependentOthersRemain(t *testing.T) {
	env := setupTestFinalizer(t)
	env.addProvider(t, providerName, testProductCode, testDependent, "Microsoft.NET.Sdk,8.0.200,arm64")
	env.engine.products[testProductCode] = "Mono Toolchain"

	res, err := env.f.RemoveDependent(testDependent)
	require.NoError(t, err)

	assert.Equal(t, providerName, res.Provider)
	assert.Equal(t, 1, res.Remaining)
	assert.False(t, res.ProductRemoved)
	assert.False(t, res.RebootRequired)
	assert.Empty(t, env.engine.configured)
	assert.True(t, env.hasKey(t, providerPath(providerName)))
	assert.False(t, env.hasKey(t, storage.Join(providerPath(providerName), DependentsSubkey, testDependent)))
}

func TestRemoveDependentLastOne(t *testing.T) {
	tests := []struct {
		name       string
		result     msi.Result
		wantReboot bool
	}{
		{name: "success", result: msi.Success, wantReboot: true},
		{name: "reboot required", result: msi.SuccessRebootRequired, wantReboot: true},
		{name: "reboot initiated", result: msi.SuccessRebootInitiated, wantReboot: true},
		{name: "failure still deletes provider", result: msi.ErrorInstallFailure, wantReboot: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestFinalizer(t)
			env.addProvider(t, providerName, testProductCode, testDependent)
			env.engine.products[testProductCode] = "Mono Toolchain"
			env.engine.result = tt.result

			res, err := env.f.RemoveDependent(testDependent)
			require.NoError(t, err)

			assert.True(t, res.ProductRemoved)
			assert.Equal(t, testProductCode, res.ProductCode)
			assert.Equal(t, tt.result, res.Result)
			assert.Equal(t, tt.wantReboot, res.RebootRequired)
			assert.Equal(t, []string{testProductCode}, env.engine.configured)
			assert.Equal(t, []string{msi.RemoveCommandLine}, env.engine.commandLines)
			assert.Equal(t, []msi.UILevel{msi.UILevelNone, msi.UILevelDefault}, env.engine.uiCalls)
			assert.False(t, env.hasKey(t, providerPath(providerName)))
		})
	}
}

func TestRemoveDependentCaseInsensitive(t *testing.T) {
	env := setupTestFinalizer(t)
	env.addProvider(t, providerName, testProductCode, strings.ToUpper(testDependent))
	env.engine.products[testProductCode] = "Mono Toolchain"
	env.engine.result = msi.SuccessRebootRequired

	res, err := env.f.RemoveDependent(testDependent)
	require.NoError(t, err)
	assert.True(t, res.Found())
	assert.True(t, res.RebootRequired)
	assert.False(t, env.hasKey(t, providerPath(providerName)))
}

func TestRemoveDependentStopsAtFirstProvider(t *testing.T) {
	env := setupTestFinalizer(t)
	// Providers are enumerated in name order.
	env.addProvider(t, "A.Provider", testProductCode, testDependent)
	env.addProvider(t, "B.Provider", otherProductCode, testDependent)
	env.engine.products[testProductCode] = "A"
	env.engine.products[otherProductCode] = "B"

	res, err := env.f.RemoveDependent(testDependent)
	require.NoError(t, err)

	assert.Equal(t, "A.Provider", res.Provider)
	assert.Equal(t, []string{testProductCode}, env.engine.configured)
	assert.False(t, env.hasKey(t, providerPath("A.Provider")))
	assert.True(t, env.hasKey(t, storage.Join(providerPath("B.Provider"), DependentsSubkey, testDependent)))
}

func TestRemoveDependentUnidentifiedProduct(t *testing.T) {
	t.Run("missing product code moves on", func(t *testing.T) {
		env := setupTestFinalizer(t)
		env.addProvider(t, "A.Provider", "", testDependent)
		env.addProvider(t, "B.Provider", otherProductCode, testDependent)
		env.engine.products[otherProductCode] = "B"

		res, err := env.f.RemoveDependent(testDependent)
		require.NoError(t, err)

		// A lost its dependent but stays; the scan continued to B.
		assert.True(t, env.hasKey(t, providerPath("A.Provider")))
		assert.False(t, env.hasKey(t, storage.Join(providerPath("A.Provider"), DependentsSubkey, testDependent)))
		assert.Equal(t, "B.Provider", res.Provider)
		assert.Equal(t, []string{otherProductCode}, env.engine.configured)
		assert.Contains(t, env.log.String(), "Failed to read product code")
	})

	t.Run("malformed product code", func(t *testing.T) {
		env := setupTestFinalizer(t)
		env.addProvider(t, providerName, "not-a-guid", testDependent)

		res, err := env.f.RemoveDependent(testDependent)
		require.NoError(t, err)
		assert.False(t, res.ProductRemoved)
		assert.Empty(t, env.engine.configured)
		assert.True(t, env.hasKey(t, providerPath(providerName)))
	})

	t.Run("unregistered product keeps provider", func(t *testing.T) {
		env := setupTestFinalizer(t)
		env.addProvider(t, providerName, testProductCode, testDependent)

		res, err := env.f.RemoveDependent(testDependent)
		require.NoError(t, err)
		assert.False(t, res.ProductRemoved)
		assert.False(t, res.RebootRequired)
		assert.Empty(t, env.engine.configured)
		assert.Empty(t, env.engine.uiCalls)
		assert.True(t, env.hasKey(t, providerPath(providerName)))
		assert.Contains(t, env.log.String(), "Product is not registered, keeping provider")
	})
}

func TestRemoveDependentFailures(t *testing.T) {
	t.Run("dependent delete failure aborts", func(t *testing.T) {
		env := setupTestFinalizer(t)
		env.addProvider(t, providerName, testProductCode, testDependent)
		env.engine.products[testProductCode] = "Mono Toolchain"
		denied := errors.New("access denied")
		env.store.failDeleteKey[strings.ToLower(storage.Join(providerPath(providerName), DependentsSubkey, testDependent))] = denied

		res, err := env.f.RemoveDependent(testDependent)
		require.Error(t, err)
		assert.ErrorIs(t, err, denied)
		assert.False(t, res.RebootRequired)
		assert.Empty(t, env.engine.configured)
		assert.True(t, env.hasKey(t, providerPath(providerName)))
	})

	t.Run("provider delete failure keeps reboot flag", func(t *testing.T) {
		env := setupTestFinalizer(t)
		env.addProvider(t, providerName, testProductCode, testDependent)
		env.engine.products[testProductCode] = "Mono Toolchain"
		env.engine.result = msi.SuccessRebootRequired
		denied := errors.New("access denied")
		env.store.failDeleteTree[strings.ToLower(providerPath(providerName))] = denied

		res, err := env.f.RemoveDependent(testDependent)
		require.Error(t, err)
		assert.ErrorIs(t, err, denied)
		assert.True(t, res.RebootRequired)
		assert.True(t, res.ProductRemoved)
		assert.Equal(t, []string{testProductCode}, env.engine.configured)
		assert.True(t, env.hasKey(t, providerPath(providerName)))
	})

	t.Run("dependent already gone counts as removed", func(t *testing.T) {
		env := setupTestFinalizer(t)
		env.addProvider(t, providerName, testProductCode, testDependent)
		env.engine.products[testProductCode] = "Mono Toolchain"
		env.store.failDeleteKey[strings.ToLower(storage.Join(providerPath(providerName), DependentsSubkey, testDependent))] = storage.ErrNotExist

		_, err := env.f.RemoveDependent(testDependent)
		require.NoError(t, err)
		assert.Contains(t, env.log.String(), "Dependent already removed")
	})
}
