// Package buffer provides a thread-safe ring buffer for streaming data.
//
// RingBuffer is a fixed-size buffer that overwrites the oldest data when
// full, for maintaining sliding windows of recent data such as log panes
// and event histories.
//
// The buffer implements io.Reader and io.Writer for element type byte and
// supports concurrent access from multiple goroutines. Graceful shutdown
// goes through CloseWrite() (reads continue until drained, then EOF) or
// CloseWithError() (immediate closure).
//
// Example usage:
//
//	// Keep the last 50 log lines
//	buf := buffer.RingN[string](50)
//
//	buf.Add("starting up")
//
//	// Snapshot for display
//	lines := buf.Bytes()
//
//	// Graceful shutdown
//	buf.CloseWrite()
package buffer
