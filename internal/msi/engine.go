// Package msi wraps the product installation engine used to remove products
// whose last dependent is gone.
package msi

import (
	"fmt"
	"strconv"
)

// Result is a Windows Installer result code.
type Result uint32

// Result codes returned by the engine.
const (
	Success                Result = 0
	ErrorFileNotFound      Result = 2
	ErrorInvalidData       Result = 13
	ErrorMoreData          Result = 234
	ErrorInstallUserExit   Result = 1602
	ErrorInstallFailure    Result = 1603
	ErrorUnknownProduct    Result = 1605
	ErrorUnknownProperty   Result = 1608
	ErrorBadConfiguration  Result = 1610
	ErrorInvalidCmdLine    Result = 1639
	SuccessRebootInitiated Result = 1641
	SuccessRebootRequired  Result = 3010
)

var resultNames = map[Result]string{
	Success:                "ERROR_SUCCESS",
	ErrorFileNotFound:      "ERROR_FILE_NOT_FOUND",
	ErrorInvalidData:       "ERROR_INVALID_DATA",
	ErrorMoreData:          "ERROR_MORE_DATA",
	ErrorInstallUserExit:   "ERROR_INSTALL_USEREXIT",
	ErrorInstallFailure:    "ERROR_INSTALL_FAILURE",
	ErrorUnknownProduct:    "ERROR_UNKNOWN_PRODUCT",
	ErrorUnknownProperty:   "ERROR_UNKNOWN_PROPERTY",
	ErrorBadConfiguration:  "ERROR_BAD_CONFIGURATION",
	ErrorInvalidCmdLine:    "ERROR_INVALID_COMMAND_LINE",
	SuccessRebootInitiated: "ERROR_SUCCESS_REBOOT_INITIATED",
	SuccessRebootRequired:  "ERROR_SUCCESS_REBOOT_REQUIRED",
}

// String returns the symbolic name of r, or its number if unknown.
func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return strconv.FormatUint(uint64(r), 10)
}

// Error lets a failing Result travel as an error.
func (r Result) Error() string {
	return fmt.Sprintf("installer returned %s (%d)", r.String(), uint32(r))
}

// Code returns the numeric result.
func (r Result) Code() int {
	return int(r)
}

// Removed reports whether a removal request completed, including the cases
// where the engine asks for a restart.
func (r Result) Removed() bool {
	return r == Success || r == SuccessRebootInitiated || r == SuccessRebootRequired
}

// UILevel controls how much installer UI the engine shows.
type UILevel uint32

const (
	UILevelNoChange UILevel = 0
	UILevelDefault  UILevel = 1
	UILevelNone     UILevel = 2
	UILevelBasic    UILevel = 3
	UILevelReduced  UILevel = 4
	UILevelFull     UILevel = 5
)

// InstallState is the target state passed to ConfigureProduct.
type InstallState int32

const (
	InstallStateAbsent  InstallState = 2
	InstallStateLocal   InstallState = 3
	InstallStateDefault InstallState = 5
)

// InstallLevelDefault keeps the product's authored install level.
const InstallLevelDefault = 0

// PropertyProductName is the product info property holding the product name.
const PropertyProductName = "ProductName"

// RemoveCommandLine suppresses restarts and skips dependency checks during
// removal; callers only remove products whose dependents are already gone.
const RemoveCommandLine = "MSIFASTINSTALL=7 IGNOREDEPENDENCIES=ALL REBOOT=ReallySuppress"

// Engine is the product installation engine.
type Engine interface {
	// ProductInfo reads a property of an installed product. A product that is
	// not registered returns ErrorUnknownProduct.
	ProductInfo(productCode, property string) (string, error)
	// SetInternalUI sets the engine UI level and returns the previous level.
	SetInternalUI(level UILevel) UILevel
	// ConfigureProduct moves a product to the requested install state.
	ConfigureProduct(productCode string, installLevel int, state InstallState, commandLine string) Result
}
