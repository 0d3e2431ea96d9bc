package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("no config path returns defaults", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)

		assert.Equal(t, DefaultProductNamespace, cfg.ProductNamespace)
		assert.Equal(t, DefaultProductDir, cfg.ProductDir)
		assert.Empty(t, cfg.CommonAppData)
		assert.Empty(t, cfg.StoreFile)
		assert.False(t, cfg.Summary)
	})

	t.Run("full config loads all values", func(t *testing.T) {
		dir := t.TempDir()
		configContent := `product_namespace: Contoso.Sdk
product_dir: contoso
common_app_data: /srv/appdata
store_file: store.yaml
summary: true
`
		configPath := filepath.Join(dir, "finalizer.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

		cfg, err := LoadConfig(configPath)
		require.NoError(t, err)

		assert.Equal(t, "Contoso.Sdk", cfg.ProductNamespace)
		assert.Equal(t, "contoso", cfg.ProductDir)
		assert.Equal(t, "/srv/appdata", cfg.CommonAppData)
		assert.Equal(t, "store.yaml", cfg.StoreFile)
		assert.True(t, cfg.Summary)
	})

	t.Run("partial config merges with defaults", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "finalizer.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("summary: true\nproduct_dir: \"\"\n"), 0644))

		cfg, err := LoadConfig(configPath)
		require.NoError(t, err)

		assert.True(t, cfg.Summary)
		assert.Equal(t, DefaultProductNamespace, cfg.ProductNamespace)
		assert.Equal(t, DefaultProductDir, cfg.ProductDir)
	})

	t.Run("invalid yaml returns error", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "finalizer.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("summary: [oops"), 0644))

		_, err := LoadConfig(configPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse")
	})

	t.Run("missing file returns error", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read")
	})
}

func TestResolveCommonAppData(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CommonAppData = "/custom"

	dir, err := cfg.ResolveCommonAppData()
	require.NoError(t, err)
	assert.Equal(t, "/custom", dir)
}
