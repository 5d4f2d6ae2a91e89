package sdk

import (
	"sync"
	"unsafe"

	"github.com/evplug/everything-go/abi"
)

// fakeHost implements the host functions the handler uses.
type fakeHost struct {
	mu       sync.Mutex
	settings map[string]string
	ints     map[string]int32
	appData  string
	missing  map[string]bool

	saved    map[string]string
	streams  []uintptr
	pages    []addedPage
	dlgItems []dlgItem
	lookups  map[string]int
	keep     [][]byte
}

type addedPage struct {
	addCustomPage uintptr
	userData      uintptr
	name          string
}

type dlgItem struct {
	hwnd   uintptr
	id     int32
	enable bool
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		settings: map[string]string{},
		ints:     map[string]int32{},
		missing:  map[string]bool{},
		saved:    map[string]string{},
		lookups:  map[string]int{},
		appData:  `C:\Users\test\AppData\Roaming\Everything\`,
	}
}

func (f *fakeHost) cstr(s string) uintptr {
	b := abi.BytePtr(s)
	f.keep = append(f.keep, b)
	return uintptr(unsafe.Pointer(&b[0]))
}

func (f *fakeHost) Resolve(name string) (Proc, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups[name]++
	if f.missing[name] {
		return nil, false
	}

	switch name {
	case "config_get_int_value":
		return func(args ...uintptr) uintptr {
			f.mu.Lock()
			defer f.mu.Unlock()
			return uintptr(uint32(f.ints[abi.CString(args[0])]))
		}, true
	case "config_set_int_value":
		return func(args ...uintptr) uintptr {
			f.mu.Lock()
			defer f.mu.Unlock()
			key, value := abi.CString(args[0]), int32(args[1])
			if f.ints[key] == value {
				return 0
			}
			f.ints[key] = value
			return 1
		}, true
	case "plugin_get_setting_string":
		return func(args ...uintptr) uintptr {
			f.mu.Lock()
			defer f.mu.Unlock()
			v, ok := f.settings[abi.CString(args[1])]
			if !ok {
				return args[2]
			}
			return f.cstr(v)
		}, true
	case "plugin_set_setting_string":
		return func(args ...uintptr) uintptr {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.streams = append(f.streams, args[0])
			f.saved[abi.CString(args[1])] = abi.CString(args[2])
			return 0
		}, true
	case "ui_options_add_plugin_page":
		return func(args ...uintptr) uintptr {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.pages = append(f.pages, addedPage{args[0], args[1], abi.CString(args[2])})
			return 0
		}, true
	case "os_enable_or_disable_dlg_item":
		return func(args ...uintptr) uintptr {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.dlgItems = append(f.dlgItems, dlgItem{args[0], int32(args[1]), args[2] != 0})
			return 0
		}, true
	case "utf8_buf_init":
		return func(args ...uintptr) uintptr {
			buf := (*abi.Utf8Buf)(abi.Pointer(args[0]))
			buf.Buf = &buf.StackBuf[0]
			buf.Len = 0
			buf.Size = uintptr(len(buf.StackBuf))
			return 0
		}, true
	case "utf8_buf_kill":
		return func(args ...uintptr) uintptr {
			buf := (*abi.Utf8Buf)(abi.Pointer(args[0]))
			buf.Buf = nil
			buf.Len = 0
			return 0
		}, true
	case "os_get_app_data_path_cat_filename", "os_get_local_app_data_path_cat_filename":
		return func(args ...uintptr) uintptr {
			buf := (*abi.Utf8Buf)(abi.Pointer(args[1]))
			path := f.appData + abi.CString(args[0])
			buf.Len = uintptr(copy(buf.StackBuf[:], path))
			return 0
		}, true
	}
	return nil, false
}

func (f *fakeHost) savedSetting(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.saved[key]
	return v, ok
}

func (f *fakeHost) enableCalls() []dlgItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dlgItem(nil), f.dlgItems...)
}

var (
	pinnedMu sync.Mutex
	pinned   []any
)

// dataOf returns the address of v as message data, keeping v on the heap.
func dataOf[T any](v *T) uintptr {
	pinnedMu.Lock()
	pinned = append(pinned, v)
	pinnedMu.Unlock()
	return uintptr(unsafe.Pointer(v))
}
