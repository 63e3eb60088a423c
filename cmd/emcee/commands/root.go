package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vargava/xr-emcee-demo/cmd/emcee/internal/config"
)

var (
	// Global flags
	verbose bool

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "emcee",
	Short: "Conversational host robot for events",
	Long: `emcee - a personality-driven host robot that greets visitors,
chats with them one at a time, and moves a Reachy Mini to match its mood.

Commands:
  serve      Run the HTTP/WebSocket gateway for tablet and web frontends
  chat       Talk to the bot from this terminal
  monitor    Live dashboard for a running gateway
  gesture    Inspect and play the gesture catalog
  options    Show available personalities, tones, scenes and gestures
  say        Synthesize a spoken line to an audio file
  transcribe Transcribe an audio file to text

Configuration is stored in the OS config directory:
  macOS:   ~/Library/Application Support/emcee/
  Linux:   ~/.config/emcee/
  Windows: %AppData%/emcee/

Use 'emcee config' to manage contexts and credentials.

Examples:
  # Create a context and store credentials
  emcee config add-context booth
  emcee config set booth openai_api_key sk-xxx
  emcee config use-context booth

  # Run the gateway with a pirate personality
  emcee serve --personality pirate --tone energetic

  # Chat locally without a server
  emcee chat --personality garfield`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// configLoadErr stores the error from config.Load() for deferred reporting.
var configLoadErr error

func initConfig() {
	cfg, err := config.Load()
	if err != nil {
		// Store error for deferred reporting. Commands that need config
		// will get a clear error via GetConfig(); this avoids failing
		// config-free commands like 'emcee version'.
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

// GetConfig returns the global configuration.
// Returns an error if the config could not be loaded (e.g., HOME not set).
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		// Try loading again (e.g., dir was created since init).
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
