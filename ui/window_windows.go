//go:build windows

package ui

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/evplug/everything-go/abi"
)

var (
	user32                = windows.NewLazySystemDLL("user32.dll")
	procSetWindowPos      = user32.NewProc("SetWindowPos")
	procSendMessageW      = user32.NewProc("SendMessageW")
	procGetWindowLongPtrW = user32.NewProc("GetWindowLongPtrW")
	procSetWindowLongPtrW = user32.NewProc("SetWindowLongPtrW")
	procCreateWindowExW   = user32.NewProc("CreateWindowExW")
	procPeekMessageW      = user32.NewProc("PeekMessageW")
	procTranslateMessage  = user32.NewProc("TranslateMessage")
	procDispatchMessageW  = user32.NewProc("DispatchMessageW")
)

const (
	pmRemove  = 0x0001
	wsChild   = 0x40000000
	wsVisible = 0x10000000
)

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      struct{ x, y int32 }
	private uint32
}

func platformSetWindowPos(hwnd uintptr, x, y, cx, cy int32, flags uint32) {
	procSetWindowPos.Call(hwnd, 0, uintptr(x), uintptr(y), uintptr(cx), uintptr(cy), uintptr(flags))
}

func platformSendMessage(hwnd uintptr, msg uint32, wParam, lParam uintptr) uintptr {
	r, _, _ := procSendMessageW.Call(hwnd, uintptr(msg), wParam, lParam)
	return r
}

func platformWindowStyle(hwnd uintptr) uintptr {
	gwlStyle := int32(abi.GwlStyle)
	r, _, _ := procGetWindowLongPtrW.Call(hwnd, uintptr(gwlStyle))
	return r
}

func platformSetWindowStyle(hwnd, style uintptr) {
	gwlStyle := int32(abi.GwlStyle)
	procSetWindowLongPtrW.Call(hwnd, uintptr(gwlStyle), style)
}

func platformCreateChild(parent uintptr, title string) (uintptr, error) {
	class, err := windows.UTF16PtrFromString("STATIC")
	if err != nil {
		return 0, err
	}
	text, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return 0, err
	}
	hwnd, _, callErr := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(class)),
		uintptr(unsafe.Pointer(text)),
		wsChild|wsVisible,
		0, 0, 0, 0,
		parent,
		0, 0, 0,
	)
	if hwnd == 0 {
		return 0, fmt.Errorf("failed to create page window: %w", callErr)
	}
	return hwnd, nil
}

func platformPumpMessages() {
	var m msg
	for {
		r, _, _ := procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, pmRemove)
		if r == 0 {
			return
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}
