//go:build !windows

package mcp

import (
	"os"
	"syscall"
)

// shutdownSignals stop the server.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
