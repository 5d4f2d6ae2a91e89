// Package abi mirrors the Everything 1.5 plugin SDK ABI: message codes sent to
// everything_plugin_proc and the C structs the host passes as message data.
package abi

import "unsafe"

// Message identifies a plugin message (EVERYTHING_PLUGIN_PM_*).
type Message = uint32

const (
	PmInit                 Message = 0
	PmKill                 Message = 1
	PmGetPluginVersion     Message = 2
	PmGetName              Message = 3
	PmGetDescription       Message = 4
	PmGetAuthor            Message = 5
	PmGetVersion           Message = 6
	PmGetLink              Message = 7
	PmStart                Message = 8
	PmStop                 Message = 9
	PmUninstall            Message = 10
	PmAddOptionsPages      Message = 11
	PmLoadOptionsPage      Message = 12
	PmSaveOptionsPage      Message = 13
	PmGetOptionsPageMinMax Message = 14
	PmSizeOptionsPage      Message = 15
	PmOptionsPageProc      Message = 16
	PmKillOptionsPage      Message = 17
	PmSaveSettings         Message = 18
)

// PluginVersion is EVERYTHING_PLUGIN_VERSION, returned for PmGetPluginVersion.
const PluginVersion = 1

// Return values of everything_plugin_proc for boolean messages.
const (
	False uintptr = 0
	True  uintptr = 1
)

// MessageName returns the SDK name of msg, for logging.
func MessageName(msg Message) string {
	switch msg {
	case PmInit:
		return "INIT"
	case PmKill:
		return "KILL"
	case PmGetPluginVersion:
		return "GET_PLUGIN_VERSION"
	case PmGetName:
		return "GET_NAME"
	case PmGetDescription:
		return "GET_DESCRIPTION"
	case PmGetAuthor:
		return "GET_AUTHOR"
	case PmGetVersion:
		return "GET_VERSION"
	case PmGetLink:
		return "GET_LINK"
	case PmStart:
		return "START"
	case PmStop:
		return "STOP"
	case PmUninstall:
		return "UNINSTALL"
	case PmAddOptionsPages:
		return "ADD_OPTIONS_PAGES"
	case PmLoadOptionsPage:
		return "LOAD_OPTIONS_PAGE"
	case PmSaveOptionsPage:
		return "SAVE_OPTIONS_PAGE"
	case PmGetOptionsPageMinMax:
		return "GET_OPTIONS_PAGE_MINMAX"
	case PmSizeOptionsPage:
		return "SIZE_OPTIONS_PAGE"
	case PmOptionsPageProc:
		return "OPTIONS_PAGE_PROC"
	case PmKillOptionsPage:
		return "KILL_OPTIONS_PAGE"
	case PmSaveSettings:
		return "SAVE_SETTINGS"
	default:
		return "UNKNOWN"
	}
}

// LoadOptionsPage is everything_plugin_load_options_page_s.
// Layout: user_data (8) + page_hwnd (8) + tooltip_hwnd (8) = 24 bytes on 64-bit
type LoadOptionsPage struct {
	UserData    uintptr
	PageHWND    uintptr
	TooltipHWND uintptr
}

// SaveOptionsPage is everything_plugin_save_options_page_s.
// Layout: user_data (8) + page_hwnd (8) + enable_apply (4) + padding (4) = 24 bytes
type SaveOptionsPage struct {
	UserData    uintptr
	PageHWND    uintptr
	EnableApply int32
	_           [4]byte
}

// OptionsPageMinMax is everything_plugin_get_options_page_minmax_s.
type OptionsPageMinMax struct {
	UserData uintptr
	PageHWND uintptr
	Wide     int32
	High     int32
}

// SizeOptionsPage is everything_plugin_size_options_page_s.
type SizeOptionsPage struct {
	UserData uintptr
	PageHWND uintptr
	Wide     int32
	High     int32
}

// OptionsPageProc is everything_plugin_options_page_proc_s.
// Layout: user_data (8) + options_hwnd (8) + page_hwnd (8) + msg (4) + padding (4) +
// wParam (8) + lParam (8) + result (8) + handled (4) + padding (4) = 64 bytes
type OptionsPageProc struct {
	UserData    uintptr
	OptionsHWND uintptr
	PageHWND    uintptr
	Msg         uint32
	_           [4]byte
	WParam      uintptr
	LParam      uintptr
	Result      uintptr
	Handled     int32
	_           [4]byte
}

// Utf8Buf is everything_plugin_utf8_buf_t. It must not be moved between
// utf8_buf_init and utf8_buf_kill because the host may point Buf at StackBuf.
type Utf8Buf struct {
	Buf      *byte
	Len      uintptr
	Size     uintptr
	StackBuf [256]byte
}

// String copies the buffer contents into a Go string.
func (b *Utf8Buf) String() string {
	if b.Buf == nil || b.Len == 0 {
		return ""
	}
	return string(unsafe.Slice(b.Buf, b.Len))
}

// Win32 constants used by the options-page protocol and the IPC window.
const (
	WmCreate       = 0x0001
	WmMove         = 0x0003
	WmSize         = 0x0005
	WmClose        = 0x0010
	WmCtlColorDlg  = 0x0136
	WmParentNotify = 0x0210
	WmUser         = 0x0400

	SwpNoZOrder = 0x0004

	WsOverlappedWindow = 0x00CF0000
	GwlStyle           = -16
)

// ApplyButtonID is the dialog item id of the Apply button in the options window.
const ApplyButtonID = 1001

// LoWord and HiWord split a WM_SIZE lParam into width and height.
func LoWord(v uintptr) int32 { return int32(v & 0xFFFF) }

func HiWord(v uintptr) int32 { return int32((v >> 16) & 0xFFFF) }

// Pointer turns an address passed through the plugin ABI back into a
// pointer. The memory is usually the host's but may be Go memory the plugin
// handed out earlier.
//
//go:nocheckptr
func Pointer(p uintptr) unsafe.Pointer {
	return unsafe.Pointer(p)
}

// CString reads a NUL-terminated UTF-8 string the host owns.
//
//go:nocheckptr
func CString(p uintptr) string {
	if p == 0 {
		return ""
	}
	ptr := (*byte)(Pointer(p))
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(ptr), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(ptr, n))
}

// BytePtr returns a NUL-terminated copy of s. The caller keeps the slice
// alive for the duration of the foreign call.
func BytePtr(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}
