// Command plugin-standalone runs the example plugin detached from
// Everything, with its settings in a JSON file.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("plugin-standalone failed")
		os.Exit(1)
	}
}
