package sdk

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"

	"github.com/evplug/everything-go/abi"
)

// settingKey is the setting the config is stored under.
//
// plugin_?et_setting_string stores settings in ini format, in a section
// named after the plugin DLL, with Everything's own backup. The whole config
// is one JSON value under this key. The file lives in the Everything data
// directory: %APPDATA%\Everything (app_data=1) or next to Everything.exe
// (app_data=0).
const settingKey = "_"

// ErrInvalidConfig is returned when a stored config cannot be used.
var ErrInvalidConfig = errors.New("invalid plugin config")

// Codec converts a config to and from its single-line JSON form.
type Codec[C any] struct {
	schema gojsonschema.JSONLoader
}

// NewCodec creates a codec. If schema is not empty, stored configs are
// validated against it before decoding.
func NewCodec[C any](schema string) *Codec[C] {
	c := &Codec[C]{}
	if schema != "" {
		c.schema = gojsonschema.NewStringLoader(schema)
	}
	return c
}

// Marshal encodes cfg as compact JSON. JSON escapes control characters
// inside strings, so the result never contains a line break.
func (c *Codec[C]) Marshal(cfg *C) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	s := string(data)
	if strings.ContainsAny(s, "\r\n") {
		return "", fmt.Errorf("%w: serialized config is not single-line", ErrInvalidConfig)
	}
	return s, nil
}

// Unmarshal validates and decodes a stored config.
func (c *Codec[C]) Unmarshal(s string) (*C, error) {
	data := []byte(s)
	if c.schema != nil {
		if err := c.validate(data); err != nil {
			return nil, err
		}
	}

	var cfg C
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &cfg, nil
}

func (c *Codec[C]) validate(data []byte) error {
	result, err := gojsonschema.Validate(c.schema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if !result.Valid() {
		var msg bytes.Buffer
		for i, e := range result.Errors() {
			if i > 0 {
				msg.WriteString("; ")
			}
			msg.WriteString(e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidConfig, msg.String())
	}
	return nil
}

// Clone deep-copies cfg through its serialized form.
func (c *Codec[C]) Clone(cfg *C) (*C, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to clone config: %w", err)
	}
	var out C
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to clone config: %w", err)
	}
	return &out, nil
}

// loadSettings returns the config to start the app with, or nil for the
// app's default.
//
// With a host, data is the settings sorted list. Without one, data is
// either zero or a handle from NewConfigHandle.
func (h *Handler[C]) loadSettings(data uintptr) *C {
	if host := h.GetHost(); host != nil {
		s, ok := host.PluginSettingString(data, settingKey)
		if !ok {
			return nil
		}
		log.Debug().Str("config", s).Msg("Plugin config")
		cfg, err := h.codec.Unmarshal(s)
		if err != nil {
			log.Error().Err(err).Msg("Plugin config parse error")
			return nil
		}
		return cfg
	}

	if data != 0 {
		cfg := takeConfigHandle[C](data)
		log.Debug().Interface("config", cfg).Msg("Plugin config")
		return cfg
	}

	if h.configFile != nil {
		cfg, err := h.configFile.Load()
		if err != nil {
			log.Error().Err(err).Str("path", h.configFile.Path()).Msg("Plugin config file error")
			return nil
		}
		return cfg
	}
	return nil
}

// saveSettings writes the running app's config. data is the output stream
// passed with SAVE_SETTINGS.
func (h *Handler[C]) saveSettings(data uintptr) uintptr {
	var (
		s   string
		cfg C
		err error
	)
	h.withAppLocked(func(app App[C]) {
		cfg = *app.Config()
		s, err = h.codec.Marshal(&cfg)
	})
	if err != nil {
		log.Error().Err(err).Msg("Plugin save settings")
		return abi.False
	}
	log.Debug().Str("config", s).Msg("Plugin save settings")

	if host := h.GetHost(); host != nil {
		host.PluginSetSettingString(data, settingKey, s)
		return abi.True
	}
	if h.configFile != nil {
		if err := h.configFile.Save(&cfg); err != nil {
			log.Error().Err(err).Str("path", h.configFile.Path()).Msg("Plugin save settings")
			return abi.False
		}
		return abi.True
	}
	log.Warn().Msg("Plugin save settings without host or config file")
	return abi.False
}
