// Package ipc locates the Everything IPC window owned by the calling thread and
// queries it for the running instance's name and version.
package ipc

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/evplug/everything-go/abi"
)

// ClassPrefix is the class name prefix of Everything's taskbar notification
// window, which doubles as its IPC endpoint.
const ClassPrefix = "EVERYTHING_TASKBAR_NOTIFICATION"

const instancePrefix = ClassPrefix + "_("

// IPC commands sent as wParam of WM_USER to the IPC window.
const (
	getMajorVersion = 0
	getMinorVersion = 1
	getRevision     = 2
	getBuildNumber  = 3
)

// Enumerator walks the top-level windows owned by one thread. fn returns false
// to stop the enumeration.
type Enumerator interface {
	EnumThreadWindows(fn func(hwnd uintptr, className string) bool)
}

// EnumeratorFunc adapts a function to Enumerator.
type EnumeratorFunc func(fn func(hwnd uintptr, className string) bool)

func (f EnumeratorFunc) EnumThreadWindows(fn func(hwnd uintptr, className string) bool) {
	f(fn)
}

// Sender delivers a window message synchronously and returns its result.
type Sender interface {
	SendMessage(hwnd uintptr, msg uint32, wParam, lParam uintptr) uintptr
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(hwnd uintptr, msg uint32, wParam, lParam uintptr) uintptr

func (f SenderFunc) SendMessage(hwnd uintptr, msg uint32, wParam, lParam uintptr) uintptr {
	return f(hwnd, msg, wParam, lParam)
}

// Window is a discovered IPC window.
type Window struct {
	HWND      uintptr
	ClassName string
}

// Locate returns the first window enumerated by e whose class name starts
// with ClassPrefix.
func Locate(e Enumerator) (*Window, bool) {
	var found *Window
	e.EnumThreadWindows(func(hwnd uintptr, className string) bool {
		if strings.HasPrefix(className, ClassPrefix) {
			found = &Window{HWND: hwnd, ClassName: className}
			return false
		}
		return true
	})
	return found, found != nil
}

// FromCurrentThread locates the IPC window among the windows of the calling
// OS thread. Only the host's main thread owns one.
func FromCurrentThread() (*Window, bool) {
	w, ok := Locate(threadEnumerator())
	log.Debug().Bool("found", ok).Msg("IPC window from current thread")
	return w, ok
}

// InstanceNameFromCurrentThread is FromCurrentThread followed by InstanceName.
func InstanceNameFromCurrentThread() (string, bool) {
	w, ok := FromCurrentThread()
	if !ok {
		return "", false
	}
	return w.InstanceName()
}

// InstanceName returns the named-instance suffix of the class name, e.g.
// "1.5a" for "EVERYTHING_TASKBAR_NOTIFICATION_(1.5a)".
func (w *Window) InstanceName() (string, bool) {
	rest, ok := strings.CutPrefix(w.ClassName, instancePrefix)
	if !ok {
		return "", false
	}
	return strings.CutSuffix(rest, ")")
}

// Version queries the four version components. Each query is a blocking
// SendMessage without timeout.
func (w *Window) Version(s Sender) Version {
	query := func(cmd uintptr) uint32 {
		return uint32(s.SendMessage(w.HWND, abi.WmUser, cmd, 0))
	}
	return Version{
		Major:    query(getMajorVersion),
		Minor:    query(getMinorVersion),
		Revision: query(getRevision),
		Build:    query(getBuildNumber),
	}
}

// GetVersion queries the version with the platform SendMessage.
func (w *Window) GetVersion() Version {
	return w.Version(platformSender())
}

// Version is the host version reported over IPC.
type Version struct {
	Major    uint32
	Minor    uint32
	Revision uint32
	Build    uint32
}

func NewVersion(major, minor, revision, build uint32) Version {
	return Version{Major: major, Minor: minor, Revision: revision, Build: build}
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Revision, v.Build)
}

// Compare returns -1, 0 or +1 ordering v against o component by component.
func (v Version) Compare(o Version) int {
	a := [4]uint32{v.Major, v.Minor, v.Revision, v.Build}
	b := [4]uint32{o.Major, o.Minor, o.Revision, o.Build}
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// AtLeast reports whether v >= o.
func (v Version) AtLeast(o Version) bool {
	return v.Compare(o) >= 0
}
