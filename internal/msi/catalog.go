package msi

import (
	"strings"
	"sync"

	"github.com/jacksmith/finalizer/internal/storage"
)

// catalogSection is the top-level key holding products in a snapshot file.
const catalogSection = "products"

// Product is an installed product recorded in a Catalog.
type Product struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version,omitempty"`
	// RemoveResult is returned when the product is removed. Defaults to
	// Success.
	RemoveResult Result `yaml:"remove_result,omitempty"`
}

// Catalog is an Engine backed by the products section of a store snapshot
// file. Removing a product deletes it from the catalog and saves the file.
type Catalog struct {
	mu       sync.Mutex
	path     string
	products map[string]Product
	uiLevel  UILevel
}

// OpenCatalog loads the products section of the snapshot at path. A file
// without a products section yields an empty catalog.
func OpenCatalog(path string) (*Catalog, error) {
	products := make(map[string]Product)
	if _, err := storage.LoadSection(path, catalogSection, &products); err != nil {
		return nil, err
	}
	return &Catalog{path: path, products: products, uiLevel: UILevelDefault}, nil
}

// ProductInfo implements Engine. Only the product name and version properties
// are recorded.
func (c *Catalog) ProductInfo(productCode, property string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, p, ok := c.find(productCode)
	if !ok {
		return "", ErrorUnknownProduct
	}
	switch property {
	case PropertyProductName:
		return p.Name, nil
	case "VersionString":
		return p.Version, nil
	default:
		return "", ErrorUnknownProperty
	}
}

// SetInternalUI implements Engine.
func (c *Catalog) SetInternalUI(level UILevel) UILevel {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.uiLevel
	if level != UILevelNoChange {
		c.uiLevel = level
	}
	return prev
}

// UILevel returns the current UI level.
func (c *Catalog) UILevel() UILevel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uiLevel
}

// ConfigureProduct implements Engine. Only removal is supported.
func (c *Catalog) ConfigureProduct(productCode string, installLevel int, state InstallState, commandLine string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	code, p, ok := c.find(productCode)
	if !ok {
		return ErrorUnknownProduct
	}
	if state != InstallStateAbsent {
		return ErrorBadConfiguration
	}
	if !p.RemoveResult.Removed() {
		return p.RemoveResult
	}

	delete(c.products, code)
	if err := storage.SaveSection(c.path, catalogSection, c.products); err != nil {
		return ErrorInstallFailure
	}
	return p.RemoveResult
}

// Installed reports whether productCode is in the catalog.
func (c *Catalog) Installed(productCode string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _, ok := c.find(productCode)
	return ok
}

// find matches product codes case-insensitively, as GUID strings are.
func (c *Catalog) find(productCode string) (string, Product, bool) {
	for code, p := range c.products {
		if strings.EqualFold(code, productCode) {
			return code, p, true
		}
	}
	return "", Product{}, false
}

