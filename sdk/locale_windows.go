//go:build windows

package sdk

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modkernel32             = windows.NewLazySystemDLL("kernel32.dll")
	procGetThreadUILanguage = modkernel32.NewProc("GetThreadUILanguage")
	procLCIDToLocaleName    = modkernel32.NewProc("LCIDToLocaleName")
)

const localeNameMaxLength = 85

func threadUILanguage() uint16 {
	r, _, _ := procGetThreadUILanguage.Call()
	return uint16(r)
}

func localeName(langID uint16) string {
	if langID == 0 {
		return ""
	}
	var buf [localeNameMaxLength]uint16
	n, _, _ := procLCIDToLocaleName.Call(uintptr(langID), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)), 0)
	if n == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:])
}
