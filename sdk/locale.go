package sdk

import (
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// LanguageTag returns the language Everything is set to. With the "user
// default" setting, or without a host, it falls back to the thread UI
// language.
func (h *Handler[C]) LanguageTag() language.Tag {
	var id uint16
	if host := h.GetHost(); host != nil {
		id, _ = host.ConfigGetLanguage()
	}
	if id == 0 {
		id = threadUILanguage()
	}
	return parseLanguage(localeName(id))
}

// parseLanguage parses a Windows locale name such as "zh-CN". Unknown names
// yield language.Und.
func parseLanguage(name string) language.Tag {
	if name == "" {
		return language.Und
	}
	tag, err := language.Parse(strings.ReplaceAll(name, "_", "-"))
	if err != nil {
		log.Debug().Err(err).Str("locale", name).Msg("Unknown locale name")
		return language.Und
	}
	return tag
}
