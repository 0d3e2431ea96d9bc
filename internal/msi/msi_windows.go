//go:build windows

package msi

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modmsi = windows.NewLazySystemDLL("msi.dll")

	procMsiGetProductInfoW     = modmsi.NewProc("MsiGetProductInfoW")
	procMsiSetInternalUI       = modmsi.NewProc("MsiSetInternalUI")
	procMsiConfigureProductExW = modmsi.NewProc("MsiConfigureProductExW")
)

// Native calls into msi.dll.
type Native struct{}

// NewNative returns the Windows Installer engine. Fails if msi.dll cannot be
// loaded.
func NewNative() (Engine, error) {
	if err := modmsi.Load(); err != nil {
		return nil, fmt.Errorf("failed to load msi.dll: %w", err)
	}
	return &Native{}, nil
}

// ProductInfo implements Engine.
func (Native) ProductInfo(productCode, property string) (string, error) {
	product, err := windows.UTF16PtrFromString(productCode)
	if err != nil {
		return "", ErrorInvalidData
	}
	prop, err := windows.UTF16PtrFromString(property)
	if err != nil {
		return "", ErrorInvalidData
	}

	size := uint32(128)
	for {
		buf := make([]uint16, size)
		n := size
		r, _, _ := procMsiGetProductInfoW.Call(
			uintptr(unsafe.Pointer(product)),
			uintptr(unsafe.Pointer(prop)),
			uintptr(unsafe.Pointer(&buf[0])),
			uintptr(unsafe.Pointer(&n)),
		)
		switch Result(r) {
		case Success:
			return windows.UTF16ToString(buf[:n]), nil
		case ErrorMoreData:
			// n excludes the terminating null.
			size = n + 1
		default:
			return "", Result(r)
		}
	}
}

// SetInternalUI implements Engine.
func (Native) SetInternalUI(level UILevel) UILevel {
	r, _, _ := procMsiSetInternalUI.Call(uintptr(level), 0)
	return UILevel(r)
}

// ConfigureProduct implements Engine.
func (Native) ConfigureProduct(productCode string, installLevel int, state InstallState, commandLine string) Result {
	product, err := windows.UTF16PtrFromString(productCode)
	if err != nil {
		return ErrorInvalidData
	}
	cmdLine, err := windows.UTF16PtrFromString(commandLine)
	if err != nil {
		return ErrorInvalidData
	}
	r, _, _ := procMsiConfigureProductExW.Call(
		uintptr(unsafe.Pointer(product)),
		uintptr(installLevel),
		uintptr(state),
		uintptr(unsafe.Pointer(cmdLine)),
	)
	return Result(r)
}
