//go:build !windows

package ui

func platformSetWindowPos(hwnd uintptr, x, y, cx, cy int32, flags uint32) {}

func platformSendMessage(hwnd uintptr, msg uint32, wParam, lParam uintptr) uintptr {
	return 0
}

func platformWindowStyle(hwnd uintptr) uintptr {
	return 0
}

func platformSetWindowStyle(hwnd, style uintptr) {}

func platformCreateChild(parent uintptr, title string) (uintptr, error) {
	return 0, ErrUnsupported
}

func platformPumpMessages() {}
