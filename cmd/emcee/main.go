// Package main is the entry point for the emcee CLI.
//
// Usage:
//
//	emcee [flags] <command> [subcommand] [args]
//
// Commands:
//
//	config     - Configuration management (contexts, credentials)
//	serve      - Run the HTTP/WebSocket gateway
//	chat       - Talk to the bot from the terminal
//	monitor    - Live dashboard for a running gateway
//	gesture    - Inspect and play the gesture catalog (list, play, test, status)
//	options    - Show available personalities, tones, scenes and gestures
//	say        - Synthesize a spoken line to an audio file
//	transcribe - Transcribe an audio file to text
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/vargava/xr-emcee-demo/cmd/emcee/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
