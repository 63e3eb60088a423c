// Package cli provides common utilities for the emcee command-line tools.
//
// This package includes:
//   - Output formatting (YAML, JSON, raw) with optional jq filtering
//   - Request file loading (YAML/JSON)
//   - Terminal styling and frame rendering for the monitor dashboard
//   - Log capture for routing slog output into a TUI pane
//
// Example usage:
//
//	// Render a result to stdout, filtered down to one field
//	cli.Output(result, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	    Filter: ".personality",
//	})
//
//	// Load a gesture definition from a file
//	var g gesture.Gesture
//	err := cli.LoadRequest("wave.yaml", &g)
package cli
