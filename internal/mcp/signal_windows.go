//go:build windows

package mcp

import "os"

// shutdownSignals stop the server. Windows has no SIGTERM.
var shutdownSignals = []os.Signal{os.Interrupt}
