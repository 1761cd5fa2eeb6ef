package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/remixlab/remix-api/pkg/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "remix-api",
	Short: "Remix API server",
	Long: `Remix API - an AI DJ backend for analyzing tracks and rendering remixes

Upload a track, let the analyzer extract its tempo, key, and energy,
then render style-driven remixes and watch both versions through the
live dual-source visualizer.

Features:
  • WAV upload with background decode and analysis
  • Beat grid, key, and loudness feature extraction
  • Style-driven remix rendering (club, chill, breaks, acid)
  • Live frequency and waveform frames over server-sent events
  • Remix download and sharing`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates a new root command (exported for testing)
func NewRootCmd() *cobra.Command {
	return rootCmd
}

// loadConfig loads the configuration when a command needs it
func loadConfig() error {
	if err := config.Init(); err != nil {
		return fmt.Errorf("error initializing config: %w", err)
	}
	return nil
}
