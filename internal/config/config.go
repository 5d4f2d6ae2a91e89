// Package config loads the runtime options of the plugin binding itself (as
// opposed to a plugin's own settings, which live in the host's settings store).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/evplug/everything-go/internal/logger"
)

// EnvPrefix prefixes every environment override, e.g. EVERYTHING_PLUGIN_LOG_LEVEL.
const EnvPrefix = "EVERYTHING_PLUGIN"

// Config holds the binding's runtime options
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Options OptionsConfig `mapstructure:"options"`
}

// LogConfig controls logging
type LogConfig struct {
	Level  string `mapstructure:"level"`
	File   string `mapstructure:"file"`
	Pretty bool   `mapstructure:"pretty"`
}

// OptionsConfig controls the options-page subsystem
type OptionsConfig struct {
	// SaveTimeout bounds the save handshake with a page worker. Zero waits
	// for as long as the page takes, like the host does.
	SaveTimeout time.Duration `mapstructure:"save_timeout"`
	// WaitPageExit makes KILL_OPTIONS_PAGE observe the page worker's exit
	// from a monitor goroutine.
	WaitPageExit bool `mapstructure:"wait_page_exit"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: defaultLogLevel,
		},
		Options: OptionsConfig{
			WaitPageExit: true,
		},
	}
}

// Load reads options from the environment and, if path is not empty and
// exists, from the file at path. Environment wins over the file.
func Load(path string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("log.pretty", def.Log.Pretty)
	v.SetDefault("options.save_timeout", def.Options.SaveTimeout)
	v.SetDefault("options.wait_page_exit", def.Options.WaitPageExit)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Logger converts the log options to a logger configuration.
func (c *Config) Logger() logger.Config {
	return logger.Config{
		Level:   c.Log.Level,
		File:    c.Log.File,
		Console: true,
		Pretty:  c.Log.Pretty,
	}
}
