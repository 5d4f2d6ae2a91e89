package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/evplug/everything-go/internal/config"
	"github.com/evplug/everything-go/plugin-example/app"
	"github.com/evplug/everything-go/sdk"
)

var (
	cfgFile  string
	logLevel string
	watch    bool
	save     bool
)

var rootCmd = &cobra.Command{
	Use:   "plugin-standalone",
	Short: "Run the example Everything plugin without Everything",
	Long: `Run the example plugin's app outside of Everything. The settings are
read from and saved to a JSON file instead of Everything's Plugins.ini.
With --watch, edits to the file restart the app with the new settings.`,
	Version:      app.Descriptor.Version,
	SilenceUsage: true,
	RunE:         runApp,
}

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.DefaultConfig()
		s, err := sdk.NewCodec[app.Config]("").Marshal(&cfg)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), s)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigPath(), "settings file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&watch, "watch", false, "restart the app when the settings file changes")
	rootCmd.Flags().BoolVar(&save, "save", true, "save the settings on exit")

	rootCmd.AddCommand(defaultsCmd)
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "plugin-example.json"
	}
	return filepath.Join(dir, "everything-go", "plugin-example.json")
}

func runApp(cmd *cobra.Command, args []string) error {
	if logLevel != "" {
		os.Setenv(config.EnvPrefix+"_LOG_LEVEL", logLevel)
	}

	h := app.NewHandler(sdk.WithConfigFile[app.Config](cfgFile))
	h.InitStart()
	log.Info().Str("config", cfgFile).Msg("App started")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	updates := make(chan app.Config)
	if watch {
		go watchConfig(ctx, updates)
	}

	for {
		select {
		case cfg := <-updates:
			log.Info().Msg("Settings changed, restarting app")
			h.Restart(cfg)
		case <-ctx.Done():
			return shutdown(h)
		}
	}
}

// watchConfig forwards settings file changes, so that the handler is only
// driven from runApp's goroutine.
func watchConfig(ctx context.Context, updates chan<- app.Config) {
	file := sdk.NewConfigFile(cfgFile, sdk.NewCodec[app.Config](app.Schema))
	err := file.Watch(ctx, func(cfg *app.Config) {
		select {
		case updates <- *cfg:
		case <-ctx.Done():
		}
	})
	if err != nil && ctx.Err() == nil {
		log.Error().Err(err).Str("config", cfgFile).Msg("Settings watch stopped")
	}
}

func shutdown(h *sdk.Handler[app.Config]) error {
	if save && !h.SaveSettings() {
		h.StopKill()
		return fmt.Errorf("failed to save settings to %s", cfgFile)
	}
	cfg := h.StopKill()
	log.Info().Interface("config", cfg).Msg("App stopped")
	return nil
}
