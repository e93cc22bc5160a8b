// Package mcp provides an MCP (Model Context Protocol) server that lets an
// agent generate, validate and list scenarios under one root directory.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/scengen/internal/logging"
	"github.com/nvandessel/scengen/internal/pathutil"
	"github.com/nvandessel/scengen/internal/ratelimit"
)

// Server wraps the MCP SDK server with the scengen tools.
type Server struct {
	server       *sdk.Server
	root         string
	logLevel     string
	logger       *slog.Logger
	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "scengen")
	Version string // Server version
	Root    string // Every path a tool touches must lie under Root

	LogLevel string
	Logger   *slog.Logger
}

// NewServer creates a server exposing scengen_generate, scengen_validate
// and scengen_history.
func NewServer(cfg *Config) (*Server, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("server root is required")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving server root: %w", err)
	}
	if err := pathutil.EnsureDir(pathutil.StateDir(root)); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		root:         root,
		logLevel:     cfg.LogLevel,
		logger:       logger,
		toolLimiters: ratelimit.NewToolLimiters(),
		auditLogger:  NewAuditLogger(root),
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until the client disconnects, ctx is cancelled,
// or the process receives an interrupt.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, shutdownSignals...)
	defer stop()

	err := s.server.Run(ctx, &sdk.StdioTransport{})
	s.auditLogger.Close()
	return err
}

// Close releases the audit log.
func (s *Server) Close() error {
	return s.auditLogger.Close()
}
