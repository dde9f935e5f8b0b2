// Package timeouts defines shared timeout constants used across the quest
// binaries.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers and exporters wait for in-flight work
// during graceful shutdown.
const Shutdown = 5 * time.Second

// ToolCall caps a single MCP tool invocation, including the wait for the
// command mailbox.
const ToolCall = 10 * time.Second

// StoreOp caps one storage round trip from the delivery loop.
const StoreOp = 2 * time.Second
