//go:build windows

package ipc

import (
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/evplug/everything-go/abi"
)

var (
	user32                = windows.NewLazySystemDLL("user32.dll")
	procEnumThreadWindows = user32.NewProc("EnumThreadWindows")
	procGetClassNameW     = user32.NewProc("GetClassNameW")
	procSendMessageW      = user32.NewProc("SendMessageW")
)

type win32Enumerator struct {
	tid uint32
}

// enumState is passed through lParam; the callback is created once since
// windows.NewCallback slots are never released.
type enumState struct {
	fn func(hwnd uintptr, className string) bool
}

var enumProc = windows.NewCallback(func(hwnd, lParam uintptr) uintptr {
	st := (*enumState)(abi.Pointer(lParam))
	var buf [256]uint16
	n, _, _ := procGetClassNameW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return 1
	}
	if !st.fn(hwnd, windows.UTF16ToString(buf[:n])) {
		return 0
	}
	return 1
})

func (e win32Enumerator) EnumThreadWindows(fn func(hwnd uintptr, className string) bool) {
	st := &enumState{fn: fn}
	procEnumThreadWindows.Call(uintptr(e.tid), enumProc, uintptr(unsafe.Pointer(st)))
}

func threadEnumerator() Enumerator {
	return win32Enumerator{tid: windows.GetCurrentThreadId()}
}

func platformSender() Sender {
	return SenderFunc(func(hwnd uintptr, msg uint32, wParam, lParam uintptr) uintptr {
		r, _, _ := procSendMessageW.Call(hwnd, uintptr(msg), wParam, lParam)
		return r
	})
}
