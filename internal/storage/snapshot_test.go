package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSnapshot = `products:
  "{11111111-2222-3333-4444-555555555555}":
    name: Workload Pack
registry:
  - path: SOFTWARE\Classes\Installer\Dependencies\Pack,8.0.200,x64
    values:
      "": "{11111111-2222-3333-4444-555555555555}"
  - path: SOFTWARE\Classes\Installer\Dependencies\Pack,8.0.200,x64\Dependents\Microsoft.NET.Sdk,8.0.200,x64
  - path: SYSTEM\CurrentControlSet\Control\Session Manager
    values:
      PendingFileRenameOperations:
        - a
        - b
      Flags: 7
`

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestOpenSnapshot(t *testing.T) {
	t.Run("missing file returns error", func(t *testing.T) {
		_, err := OpenSnapshot(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("loads keys and values", func(t *testing.T) {
		s, err := OpenSnapshot(writeSnapshot(t, sampleSnapshot))
		require.NoError(t, err)

		k, err := s.OpenKey(`SOFTWARE\Classes\Installer\Dependencies\Pack,8.0.200,x64`)
		require.NoError(t, err)
		code, err := k.StringValue("")
		require.NoError(t, err)
		assert.Equal(t, "{11111111-2222-3333-4444-555555555555}", code)
		k.Close()

		sm, err := s.OpenKey(`SYSTEM\CurrentControlSet\Control\Session Manager`)
		require.NoError(t, err)
		defer sm.Close()
		ok, err := sm.HasValue("PendingFileRenameOperations")
		require.NoError(t, err)
		assert.True(t, ok)
		info, err := sm.Info()
		require.NoError(t, err)
		assert.Equal(t, 2, info.ValueCount)
	})

	t.Run("invalid yaml returns error", func(t *testing.T) {
		_, err := OpenSnapshot(writeSnapshot(t, "registry: [unterminated"))
		require.Error(t, err)
	})
}

func TestSnapshotPersistsDeletes(t *testing.T) {
	path := writeSnapshot(t, sampleSnapshot)
	s, err := OpenSnapshot(path)
	require.NoError(t, err)

	require.NoError(t, s.DeleteTree(`SOFTWARE\Classes\Installer\Dependencies\Pack,8.0.200,x64`))

	reloaded, err := OpenSnapshot(path)
	require.NoError(t, err)
	ok, err := KeyExists(reloaded, `SOFTWARE\Classes\Installer\Dependencies\Pack,8.0.200,x64`)
	require.NoError(t, err)
	assert.False(t, ok)

	// Unrelated sections survive the rewrite.
	var products map[string]map[string]string
	found, err := LoadSection(path, "products", &products)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Workload Pack", products["{11111111-2222-3333-4444-555555555555}"]["name"])

	// Values keep their types.
	sm, err := reloaded.OpenKey(`SYSTEM\CurrentControlSet\Control\Session Manager`)
	require.NoError(t, err)
	defer sm.Close()
	_, err = sm.StringValue("Flags")
	assert.ErrorIs(t, err, ErrUnexpectedType)
}

func TestSaveSectionCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.yaml")
	require.NoError(t, SaveSection(path, "products", map[string]string{"a": "b"}))

	var out map[string]string
	found, err := LoadSection(path, "products", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "b", out["a"])

	found, err = LoadSection(path, "registry", &out)
	require.NoError(t, err)
	assert.False(t, found)
}
