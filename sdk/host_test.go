package sdk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostProcIsCached(t *testing.T) {
	fake := newFakeHost()
	host := NewHost(fake)

	host.ConfigGetIntValue("app_data")
	host.ConfigGetIntValue("app_data")

	assert.Equal(t, 1, fake.lookups["config_get_int_value"])
}

func TestHostMissingSymbol(t *testing.T) {
	fake := newFakeHost()
	fake.missing["plugin_set_setting_string"] = true
	host := NewHost(fake)

	_, ok := host.Proc("plugin_set_setting_string")
	assert.False(t, ok)

	_, err := host.Call("ui_options_from_page_hwnd", 0)
	assert.ErrorIs(t, err, ErrSymbolNotFound)

	assert.Panics(t, func() {
		host.PluginSetSettingString(0, "_", "{}")
	})
}

func TestHostConfigIntValue(t *testing.T) {
	fake := newFakeHost()
	host := NewHost(fake)

	assert.Equal(t, int32(1), host.ConfigSetIntValue("app_data", 1))
	assert.Equal(t, int32(0), host.ConfigSetIntValue("app_data", 1))
	assert.Equal(t, int32(1), host.ConfigGetIntValue("app_data"))

	_, ok := host.ConfigGetLanguage()
	assert.False(t, ok)

	fake.ints["language"] = 0x0804
	id, ok := host.ConfigGetLanguage()
	assert.True(t, ok)
	assert.Equal(t, uint16(0x0804), id)
}

func TestHostSettingString(t *testing.T) {
	fake := newFakeHost()
	fake.settings["_"] = `{"name":"x"}`
	host := NewHost(fake)

	s, ok := host.PluginSettingString(0x1000, "_")
	require.True(t, ok)
	assert.Equal(t, `{"name":"x"}`, s)

	_, ok = host.PluginSettingString(0x1000, "missing")
	assert.False(t, ok)

	host.PluginSetSettingString(0x2000, "_", `{"name":"y"}`)
	v, ok := fake.savedSetting("_")
	require.True(t, ok)
	assert.Equal(t, `{"name":"y"}`, v)
	assert.Equal(t, []uintptr{0x2000}, fake.streams)
}

func TestHostSettingStringMustBeSingleLine(t *testing.T) {
	host := NewHost(newFakeHost())

	assert.Panics(t, func() {
		host.PluginSetSettingString(0, "_", "a\nb")
	})
	assert.Panics(t, func() {
		host.PluginSetSettingString(0, "_", "a\r")
	})
}

func TestHostAppDataPath(t *testing.T) {
	fake := newFakeHost()
	host := NewHost(fake)

	assert.Equal(t, `C:\Users\test\AppData\Roaming\Everything\plugins.json`, host.PluginSettingJSONPath())
	assert.Equal(t, `C:\Users\test\AppData\Roaming\Everything\`, host.OsGetAppDataPath())
	assert.Equal(t, `C:\Users\test\AppData\Roaming\Everything\db`, host.OsGetLocalAppDataPathCatFilename("db"))
}

func TestHostApplyButton(t *testing.T) {
	fake := newFakeHost()
	host := NewHost(fake)

	host.UIOptionsEnableOrDisableApplyButton(0x300, true)
	host.OsEnableOrDisableDlgItem(0x300, 7, false)

	assert.Equal(t, []dlgItem{
		{hwnd: 0x300, id: 1001, enable: true},
		{hwnd: 0x300, id: 7, enable: false},
	}, fake.enableCalls())
}
