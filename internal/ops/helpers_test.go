package ops

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jacksmith/finalizer/internal/logging"
	"github.com/jacksmith/finalizer/internal/model"
	"github.com/jacksmith/finalizer/internal/msi"
	"github.com/jacksmith/finalizer/internal/storage"
	"github.com/stretchr/testify/require"
)

const (
	testProductCode  = "{2D2A0F71-4D65-4A3A-9C49-1F8B4E0C8B7E}"
	otherProductCode = "{0F4B5C8D-1A2B-4C3D-8E9F-112233445566}"
	testDependent    = "Microsoft.NET.Sdk,8.0.200,x64"
)

// fakeEngine records calls and returns configured results.
type fakeEngine struct {
	products     map[string]string
	result       msi.Result
	uiLevel      msi.UILevel
	uiCalls      []msi.UILevel
	configured   []string
	commandLines []string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{products: make(map[string]string), uiLevel: msi.UILevelDefault}
}

func (e *fakeEngine) ProductInfo(productCode, property string) (string, error) {
	name, ok := e.products[strings.ToUpper(productCode)]
	if !ok {
		return "", msi.ErrorUnknownProduct
	}
	return name, nil
}

func (e *fakeEngine) SetInternalUI(level msi.UILevel) msi.UILevel {
	e.uiCalls = append(e.uiCalls, level)
	prev := e.uiLevel
	e.uiLevel = level
	return prev
}

func (e *fakeEngine) ConfigureProduct(productCode string, installLevel int, state msi.InstallState, commandLine string) msi.Result {
	e.configured = append(e.configured, productCode)
	e.commandLines = append(e.commandLines, commandLine)
	return e.result
}

// faultyStore fails deletes on chosen paths and counts mutations.
type faultyStore struct {
	storage.Store
	failDeleteKey  map[string]error
	failDeleteTree map[string]error
	mutations      int
}

func newFaultyStore(s storage.Store) *faultyStore {
	return &faultyStore{
		Store:          s,
		failDeleteKey:  make(map[string]error),
		failDeleteTree: make(map[string]error),
	}
}

func (s *faultyStore) DeleteKey(path string) error {
	s.mutations++
	if err, ok := s.failDeleteKey[strings.ToLower(path)]; ok {
		return err
	}
	return s.Store.DeleteKey(path)
}

func (s *faultyStore) DeleteTree(path string) error {
	s.mutations++
	if err, ok := s.failDeleteTree[strings.ToLower(path)]; ok {
		return err
	}
	return s.Store.DeleteTree(path)
}

type testEnv struct {
	f       *Finalizer
	mem     *storage.Memory
	store   *faultyStore
	engine  *fakeEngine
	log     *bytes.Buffer
	appData string
}

// setupTestFinalizer creates a Finalizer over an empty in-memory store and a
// temporary app data directory.
func setupTestFinalizer(t *testing.T) *testEnv {
	t.Helper()

	mem := storage.NewMemory()
	store := newFaultyStore(mem)
	engine := newFakeEngine()
	var buf bytes.Buffer
	appData := t.TempDir()

	return &testEnv{
		f: &Finalizer{
			Store:         store,
			Engine:        engine,
			Logger:        logging.New(&buf),
			CommonAppData: appData,
			ProductDir:    "dotnet",
			Namespace:     model.DefaultNamespace,
		},
		mem:     mem,
		store:   store,
		engine:  engine,
		log:     &buf,
		appData: appData,
	}
}

func mustBand(t *testing.T, version string) model.FeatureBand {
	t.Helper()
	band, err := model.ParseFeatureBand(version)
	require.NoError(t, err)
	return band
}

func (e *testEnv) installSDK(t *testing.T, platform string, versions ...string) {
	t.Helper()
	for _, v := range versions {
		require.NoError(t, e.mem.SetValue(storage.Join(InstalledVersionsKey, platform, "sdk"), v, uint32(1)))
	}
}

func (e *testEnv) addProvider(t *testing.T, name, productCode string, dependents ...string) {
	t.Helper()
	path := storage.Join(DependenciesKey, name)
	if productCode != "" {
		require.NoError(t, e.mem.SetValue(path, "", productCode))
	} else {
		require.NoError(t, e.mem.CreateKey(path))
	}
	for _, d := range dependents {
		require.NoError(t, e.mem.CreateKey(storage.Join(path, DependentsSubkey, d)))
	}
}

func (e *testEnv) hasKey(t *testing.T, path string) bool {
	t.Helper()
	ok, err := storage.KeyExists(e.mem, path)
	require.NoError(t, err)
	return ok
}

func (e *testEnv) writeStateFile(t *testing.T, band model.FeatureBand, platform string) string {
	t.Helper()
	path := e.f.InstallStatePath(band, platform)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(`{"useWorkloadSets":false}`), 0644))
	return path
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func lower(s string) string {
	return strings.ToLower(s)
}
