package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidVersionFormat is returned when a version string cannot be
// reduced to a feature band.
var ErrInvalidVersionFormat = errors.New("invalid version format")

// bandWidth is the number of patch releases grouped into one feature band.
const bandWidth = 100

// FeatureBand groups SDK releases that share workload compatibility.
// PatchBand is always a multiple of 100.
type FeatureBand struct {
	Major     uint
	Minor     uint
	PatchBand uint
}

// ParseFeatureBand parses a dotted SDK version and returns its feature band.
// Accepts versions like 8.0.105, 8.0.187 and 8.0.100-preview.1.23115.2; the
// first two all map to 8.0.100.
// Returns ErrInvalidVersionFormat if there are fewer than three components,
// a component is not numeric, or the patch is below 100.
func ParseFeatureBand(version string) (FeatureBand, error) {
	parts := strings.Split(strings.TrimSpace(version), ".")
	if len(parts) < 3 {
		return FeatureBand{}, fmt.Errorf("%w: %q has fewer than three components", ErrInvalidVersionFormat, version)
	}

	major, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return FeatureBand{}, fmt.Errorf("%w: %q has invalid major version", ErrInvalidVersionFormat, version)
	}
	minor, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return FeatureBand{}, fmt.Errorf("%w: %q has invalid minor version", ErrInvalidVersionFormat, version)
	}

	// Only the leading digits count, so prerelease suffixes are ignored.
	digits := leadingDigits(parts[2])
	if digits == "" {
		return FeatureBand{}, fmt.Errorf("%w: %q has invalid patch version", ErrInvalidVersionFormat, version)
	}
	patch, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return FeatureBand{}, fmt.Errorf("%w: %q has invalid patch version", ErrInvalidVersionFormat, version)
	}
	if patch < bandWidth {
		return FeatureBand{}, fmt.Errorf("%w: %q has patch version below %d", ErrInvalidVersionFormat, version, bandWidth)
	}

	return FeatureBand{
		Major:     uint(major),
		Minor:     uint(minor),
		PatchBand: uint(patch - patch%bandWidth),
	}, nil
}

// Equal reports whether b and other name the same feature band.
func (b FeatureBand) Equal(other FeatureBand) bool {
	return b.Major == other.Major && b.Minor == other.Minor && b.PatchBand == other.PatchBand
}

// String renders the canonical major.minor.patchBand form.
func (b FeatureBand) String() string {
	return fmt.Sprintf("%d.%d.%d", b.Major, b.Minor, b.PatchBand)
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}
