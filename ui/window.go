// Package ui embeds native windows into Everything options pages.
package ui

import (
	"errors"

	"github.com/evplug/everything-go/abi"
)

// ErrUnsupported is returned where native windows are not available.
var ErrUnsupported = errors.New("native windows are not supported on this platform")

// Window procedures, replaced in tests.
var (
	setWindowPos = platformSetWindowPos
	sendMessage  = platformSendMessage
	windowStyle  = platformWindowStyle
	setStyle     = platformSetWindowStyle
	createChild  = platformCreateChild
	pumpMessages = platformPumpMessages
)

// ChildWindow is a native window embedded as a child of an options page. It
// provides the Resize and Close halves of sdk.Page and pumps the worker
// thread's window messages.
type ChildWindow struct {
	HWND uintptr
}

// NewChildWindow creates a visible static child window of parent, already
// adjusted for the page. It must be called on the page's worker thread.
func NewChildWindow(parent uintptr, title string) (*ChildWindow, error) {
	hwnd, err := createChild(parent, title)
	if err != nil {
		return nil, err
	}
	Adjust(hwnd)
	return &ChildWindow{HWND: hwnd}, nil
}

// Resize sets the window size. The origin is reset to (0, 0) as well,
// since a page window is occasionally misplaced when Everything positions
// it while the worker thread creates it.
func (w *ChildWindow) Resize(width, height int32) {
	setWindowPos(w.HWND, 0, 0, width, height, abi.SwpNoZOrder)
}

// Close sends WM_CLOSE to the window; its default procedure destroys it.
func (w *ChildWindow) Close() {
	sendMessage(w.HWND, abi.WmClose, 0, 0)
}

// Pump dispatches pending messages of the calling thread's windows.
func (w *ChildWindow) Pump() {
	pumpMessages()
}

// Adjust makes hwnd suitable for embedding: the overlapped frame styles are
// removed and it is moved to (0, 0).
func Adjust(hwnd uintptr) {
	setStyle(hwnd, windowStyle(hwnd)&^abi.WsOverlappedWindow)
	setWindowPos(hwnd, 0, 0, 0, 0, abi.SwpNoZOrder|swpNoSize)
}

const swpNoSize = 0x0001
