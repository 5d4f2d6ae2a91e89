package sdk

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"github.com/rs/zerolog/log"

	"github.com/evplug/everything-go/abi"
)

var (
	// ErrSymbolNotFound is returned when the host does not export a symbol.
	ErrSymbolNotFound = errors.New("host symbol not found")
	// ErrNoHost is returned when a host capability is needed in standalone mode.
	ErrNoHost = errors.New("plugin host not initialized")
)

// Proc is a host function resolved by name. Arguments and the result are
// passed as machine words following the host's calling convention.
type Proc func(args ...uintptr) uintptr

// Resolver looks up host functions by name.
type Resolver interface {
	Resolve(name string) (Proc, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(name string) (Proc, bool)

func (f ResolverFunc) Resolve(name string) (Proc, bool) {
	return f(name)
}

// Host is the plugin host: every capability is looked up by name through the
// get_proc_address function passed with the INIT message.
//
// Implemented:
//   - config_get/set_int_value
//   - os_enable_or_disable_dlg_item
//   - os_get_(local_)app_data_path_cat_filename
//   - plugin_get/set_setting_string
//   - ui_options_add_plugin_page
//   - utf8_buf_init/kill
type Host struct {
	resolver Resolver
	procs    sync.Map // string -> Proc
}

// NewHost creates a host from a resolver.
func NewHost(r Resolver) *Host {
	return &Host{resolver: r}
}

// Proc resolves a host function that may be missing from older hosts.
// Successful lookups are cached.
func (h *Host) Proc(name string) (Proc, bool) {
	if p, ok := h.procs.Load(name); ok {
		return p.(Proc), true
	}
	log.Trace().Str("name", name).Msg("Plugin host get proc address")
	p, ok := h.resolver.Resolve(name)
	if !ok || p == nil {
		return nil, false
	}
	h.procs.Store(name, p)
	return p, true
}

// MustProc resolves a host function every supported host exports. A missing
// symbol means the host is incompatible, so it panics.
func (h *Host) MustProc(name string) Proc {
	p, ok := h.Proc(name)
	if !ok {
		panic(fmt.Errorf("plugin host: %w: %s", ErrSymbolNotFound, name))
	}
	return p
}

// Call invokes an optional host function.
func (h *Host) Call(name string, args ...uintptr) (uintptr, error) {
	p, ok := h.Proc(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrSymbolNotFound, name)
	}
	return p(args...), nil
}

func ptr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(&b[0]))
}

func boolArg(v bool) uintptr {
	if v {
		return 1
	}
	return 0
}

// ConfigGetIntValue gets an Everything setting by name, e.g. "app_data".
func (h *Host) ConfigGetIntValue(name string) int32 {
	n := abi.BytePtr(name)
	r := h.MustProc("config_get_int_value")(ptr(n))
	runtime.KeepAlive(n)
	return int32(r)
}

// ConfigSetIntValue sets an Everything setting by name. It returns 1 if the
// setting changed and 0 if it stayed the same.
func (h *Host) ConfigSetIntValue(name string, value int32) int32 {
	n := abi.BytePtr(name)
	r := h.MustProc("config_set_int_value")(ptr(n), uintptr(value))
	runtime.KeepAlive(n)
	return int32(r)
}

// ConfigGetLanguage returns the language identifier Everything is set to,
// or false for "user default".
func (h *Host) ConfigGetLanguage() (uint16, bool) {
	id := h.ConfigGetIntValue("language")
	if id == 0 {
		return 0, false
	}
	return uint16(id), true
}

// Utf8BufInit initializes buf with an empty string. buf must be released
// with Utf8BufKill and must not be copied in between.
func (h *Host) Utf8BufInit(buf *abi.Utf8Buf) {
	h.MustProc("utf8_buf_init")(uintptr(unsafe.Pointer(buf)))
}

// Utf8BufKill returns any memory allocated for buf to the host.
func (h *Host) Utf8BufKill(buf *abi.Utf8Buf) {
	h.MustProc("utf8_buf_kill")(uintptr(unsafe.Pointer(buf)))
}

func (h *Host) appDataPathCatFilename(proc, filename string) string {
	f := abi.BytePtr(filename)
	buf := new(abi.Utf8Buf)
	h.Utf8BufInit(buf)
	defer h.Utf8BufKill(buf)

	h.MustProc(proc)(ptr(f), uintptr(unsafe.Pointer(buf)))
	runtime.KeepAlive(f)
	return buf.String()
}

// OsGetAppDataPathCatFilename builds a settings or data path: either
// %APPDATA%\Everything\filename or filename next to Everything.exe,
// depending on the app_data setting.
func (h *Host) OsGetAppDataPathCatFilename(filename string) string {
	return h.appDataPathCatFilename("os_get_app_data_path_cat_filename", filename)
}

// OsGetAppDataPath returns the Everything data directory.
func (h *Host) OsGetAppDataPath() string {
	return h.OsGetAppDataPathCatFilename("")
}

// OsGetLocalAppDataPathCatFilename is like OsGetAppDataPathCatFilename but
// under %LOCALAPPDATA%.
func (h *Host) OsGetLocalAppDataPathCatFilename(filename string) string {
	return h.appDataPathCatFilename("os_get_local_app_data_path_cat_filename", filename)
}

// OsGetLocalAppDataPath returns the Everything local data directory.
func (h *Host) OsGetLocalAppDataPath() string {
	return h.OsGetLocalAppDataPathCatFilename("")
}

// PluginSettingJSONPath is the path of a plugins.json next to the other
// Everything settings. Not used by Everything itself.
func (h *Host) PluginSettingJSONPath() string {
	return h.OsGetAppDataPathCatFilename("plugins.json")
}

// PluginGetSettingString gets a string setting from the sorted list passed
// with START. current is returned if the setting is not found.
func (h *Host) PluginGetSettingString(sortedList uintptr, name string, current uintptr) uintptr {
	n := abi.BytePtr(name)
	r := h.MustProc("plugin_get_setting_string")(sortedList, ptr(n), current)
	runtime.KeepAlive(n)
	return r
}

// PluginSettingString is PluginGetSettingString copying the value out.
func (h *Host) PluginSettingString(sortedList uintptr, name string) (string, bool) {
	p := h.PluginGetSettingString(sortedList, name, 0)
	if p == 0 {
		return "", false
	}
	return abi.CString(p), true
}

// PluginSetSettingString writes a string setting to the output stream passed
// with SAVE_SETTINGS. Everything stores it as "name=value" in the plugin's
// section of Plugins.ini, so value must be single-line.
func (h *Host) PluginSetSettingString(outputStream uintptr, name, value string) {
	if strings.ContainsAny(value, "\r\n") {
		panic("plugin host: setting string value must be single-line")
	}
	n := abi.BytePtr(name)
	v := abi.BytePtr(value)
	h.MustProc("plugin_set_setting_string")(outputStream, ptr(n), ptr(v))
	runtime.KeepAlive(n)
	runtime.KeepAlive(v)
}

// OsEnableOrDisableDlgItem enables or disables a dialog control.
func (h *Host) OsEnableOrDisableDlgItem(parentHWND uintptr, id int32, enable bool) {
	h.MustProc("os_enable_or_disable_dlg_item")(parentHWND, uintptr(id), boolArg(enable))
}

// UIOptionsEnableOrDisableApplyButton toggles the Apply button of the
// options window.
func (h *Host) UIOptionsEnableOrDisableApplyButton(optionsHWND uintptr, enable bool) {
	h.OsEnableOrDisableDlgItem(optionsHWND, abi.ApplyButtonID, enable)
}

// UIOptionsAddPluginPage registers an options page. userData comes back as
// the user_data of every later message about the page. If name conflicts
// with another plugin's page, Everything appends " (plugin.dll)".
func (h *Host) UIOptionsAddPluginPage(addCustomPage, userData uintptr, name string) {
	n := abi.BytePtr(name)
	h.MustProc("ui_options_add_plugin_page")(addCustomPage, userData, ptr(n))
	runtime.KeepAlive(n)
}
