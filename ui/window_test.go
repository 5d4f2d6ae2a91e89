package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evplug/everything-go/abi"
)

type call struct {
	name  string
	hwnd  uintptr
	x, y  int32
	w, h  int32
	flags uint32
	msg   uint32
	style uintptr
}

func fakeWindows(t *testing.T) *[]call {
	t.Helper()
	var calls []call

	origPos, origSend, origStyle, origSetStyle := setWindowPos, sendMessage, windowStyle, setStyle
	origCreate := createChild
	t.Cleanup(func() {
		setWindowPos, sendMessage, windowStyle, setStyle = origPos, origSend, origStyle, origSetStyle
		createChild = origCreate
	})

	setWindowPos = func(hwnd uintptr, x, y, cx, cy int32, flags uint32) {
		calls = append(calls, call{name: "SetWindowPos", hwnd: hwnd, x: x, y: y, w: cx, h: cy, flags: flags})
	}
	sendMessage = func(hwnd uintptr, msg uint32, wParam, lParam uintptr) uintptr {
		calls = append(calls, call{name: "SendMessage", hwnd: hwnd, msg: msg})
		return 0
	}
	windowStyle = func(hwnd uintptr) uintptr {
		return abi.WsOverlappedWindow | 0x40000000
	}
	setStyle = func(hwnd, style uintptr) {
		calls = append(calls, call{name: "SetStyle", hwnd: hwnd, style: style})
	}
	createChild = func(parent uintptr, title string) (uintptr, error) {
		return parent + 1, nil
	}
	return &calls
}

func TestChildWindowResizeKeepsOrigin(t *testing.T) {
	calls := fakeWindows(t)

	w := &ChildWindow{HWND: 0x42}
	w.Resize(640, 480)

	require.Len(t, *calls, 1)
	c := (*calls)[0]
	assert.Equal(t, "SetWindowPos", c.name)
	assert.Equal(t, uintptr(0x42), c.hwnd)
	assert.Equal(t, int32(0), c.x)
	assert.Equal(t, int32(0), c.y)
	assert.Equal(t, int32(640), c.w)
	assert.Equal(t, int32(480), c.h)
	assert.Equal(t, uint32(abi.SwpNoZOrder), c.flags)
}

func TestChildWindowClose(t *testing.T) {
	calls := fakeWindows(t)

	w := &ChildWindow{HWND: 0x42}
	w.Close()

	require.Len(t, *calls, 1, "WM_CLOSE destroys the window")
	assert.Equal(t, "SendMessage", (*calls)[0].name)
	assert.Equal(t, uintptr(0x42), (*calls)[0].hwnd)
	assert.Equal(t, uint32(abi.WmClose), (*calls)[0].msg)
}

func TestNewChildWindowAdjusts(t *testing.T) {
	calls := fakeWindows(t)

	w, err := NewChildWindow(0x100, "Options")
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x101), w.HWND)

	require.Len(t, *calls, 2)
	assert.Equal(t, "SetStyle", (*calls)[0].name)
	assert.Equal(t, uintptr(0x40000000), (*calls)[0].style)
	assert.Equal(t, "SetWindowPos", (*calls)[1].name)
	assert.Equal(t, int32(0), (*calls)[1].x)
	assert.Equal(t, int32(0), (*calls)[1].y)
	assert.NotZero(t, (*calls)[1].flags&swpNoSize)
}
