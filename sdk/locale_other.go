//go:build !windows

package sdk

func threadUILanguage() uint16 {
	return 0
}

// Language identifiers are a Windows concept. Only the identifiers used by
// Everything's own translations are mapped.
func localeName(langID uint16) string {
	return langNames[langID]
}

var langNames = map[uint16]string{
	0x0404: "zh-TW",
	0x0407: "de-DE",
	0x0409: "en-US",
	0x040c: "fr-FR",
	0x0410: "it-IT",
	0x0411: "ja-JP",
	0x0412: "ko-KR",
	0x0419: "ru-RU",
	0x0804: "zh-CN",
	0x0c0a: "es-ES",
}
