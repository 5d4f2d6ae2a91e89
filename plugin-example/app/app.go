// Package app is an example Everything plugin with one options page. It is
// built as a DLL by plugin-example and run detached by plugin-standalone.
package app

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/evplug/everything-go/sdk"
)

// Mode is a setting with a fixed set of values.
type Mode string

const (
	ModeA Mode = "a"
	ModeB Mode = "b"
)

// Config is the plugin's settings value.
type Config struct {
	Enabled bool   `json:"enabled"`
	Switch  bool   `json:"switch"`
	Mode    Mode   `json:"mode"`
	Message string `json:"message"`
}

// DefaultConfig is used when Everything has no stored settings.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Mode:    ModeA,
		Message: "Hello, world!",
	}
}

// Schema validates stored settings.
const Schema = `{
	"type": "object",
	"properties": {
		"enabled": {"type": "boolean"},
		"switch": {"type": "boolean"},
		"mode": {"enum": ["a", "b"]},
		"message": {"type": "string"}
	},
	"required": ["enabled", "mode"]
}`

// Descriptor identifies the plugin.
var Descriptor = sdk.Descriptor{
	Name:        "Test Plugin",
	Description: "A test plugin for Everything",
	Author:      "evplug",
	Version:     "0.1.0",
	Link:        "https://github.com/evplug/everything-go",
}

// App is the running plugin.
type App struct {
	cfg Config
	log zerolog.Logger
}

// New creates the app from stored settings, or the defaults if cfg is nil.
func New(cfg *Config) sdk.App[Config] {
	a := &App{
		cfg: DefaultConfig(),
		log: log.With().Str("component", "app").Logger(),
	}
	if cfg != nil {
		a.cfg = *cfg
	}
	return a
}

func (a *App) Start() {
	if !a.cfg.Enabled {
		a.log.Debug().Msg("Disabled")
		return
	}
	a.log.Info().
		Str("mode", string(a.cfg.Mode)).
		Bool("switch", a.cfg.Switch).
		Msg(a.cfg.Message)
}

func (a *App) Config() *Config {
	return &a.cfg
}

func (a *App) IntoConfig() Config {
	return a.cfg
}

// NewHandler creates the plugin handler.
func NewHandler(opts ...sdk.Option[Config]) *sdk.Handler[Config] {
	var h *sdk.Handler[Config]
	page := sdk.NewOptionsPage[Config](Descriptor.Name, func(args sdk.LoadArgs) (sdk.Page[Config], error) {
		return newOptionsPage(h, args)
	})
	base := []sdk.Option[Config]{
		sdk.WithOptionsPages(page),
		sdk.WithConfigSchema[Config](Schema),
	}
	h = sdk.NewHandler[Config](Descriptor, New, append(base, opts...)...)
	return h
}
