// Package model defines the core value types for the finalizer.
package model

import "strings"

// DefaultNamespace is the product namespace used to build dependent names.
const DefaultNamespace = "Microsoft.NET.Sdk"

// DependentName builds the dependency registration an SDK install leaves on
// its shared providers, e.g. "Microsoft.NET.Sdk,8.0.200,x64".
func DependentName(namespace string, band FeatureBand, platform string) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return namespace + "," + band.String() + "," + platform
}

// ProviderKey is a product registration in the dependency store.
// ProductCode comes from the key's default value; Dependents are the names of
// the registrations keeping the product installed.
type ProviderKey struct {
	Name        string
	ProductCode string
	Dependents  []string
}

// MatchDependent returns the stored spelling of name, or "" if name is not
// registered on p. Dependent names are case-insensitive.
func (p *ProviderKey) MatchDependent(name string) string {
	for _, d := range p.Dependents {
		if strings.EqualFold(d, name) {
			return d
		}
	}
	return ""
}
