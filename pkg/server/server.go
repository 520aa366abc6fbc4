// Package server provides the GreenLens HTTP API and the MCP server.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/NERVsystems/greenlens/pkg/tools"
	"github.com/NERVsystems/greenlens/pkg/version"
)

// ServerName is the name of the MCP server
const ServerName = "greenlens-mcp-server"

// Server encapsulates the MCP server with the footprint tools.
type Server struct {
	srv     *mcpserver.MCPServer
	logger  *slog.Logger
	in      io.Reader
	out     io.Writer
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
	mu      sync.Mutex
	once    sync.Once // Ensure we only close stopCh once
	cancel  context.CancelFunc
}

// NewServer creates a new MCP server with all tools from registry registered.
func NewServer(registry *tools.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("initializing GreenLens MCP server",
		"name", ServerName,
		"version", version.BuildVersion)

	srv := mcpserver.NewMCPServer(
		ServerName,
		version.BuildVersion,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	registry.RegisterTools(srv)

	return &Server{
		srv:    srv,
		logger: logger,
		in:     os.Stdin,
		out:    os.Stdout,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Run starts the MCP server using stdin/stdout for communication.
// This method blocks until the server is stopped or an error occurs.
func (s *Server) Run() error {
	return s.RunWithContext(context.Background())
}

// RunWithContext serves MCP over stdio until ctx is canceled, Shutdown is
// called or stdin is closed.
func (s *Server) RunWithContext(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	go func() {
		defer close(s.doneCh)
		stdio := mcpserver.NewStdioServer(s.srv)
		err := stdio.Listen(ctx, s.in, s.out)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp stdio server error", "error", err)
		}

		// stdin closed; unblock the wait below
		s.Shutdown()
	}()

	select {
	case <-ctx.Done():
		s.Shutdown()
	case <-s.stopCh:
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	<-s.doneCh
	return nil
}

// Shutdown initiates a graceful shutdown of the server.
// It does not block and returns immediately.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.once.Do(func() {
		close(s.stopCh)
	})

	if s.cancel != nil {
		s.cancel()
	}
}

// WaitForShutdown blocks until the server has fully shut down.
func (s *Server) WaitForShutdown() {
	<-s.doneCh
}

// GetMCPServer returns the underlying MCP server instance for HTTP transport
func (s *Server) GetMCPServer() *mcpserver.MCPServer {
	return s.srv
}
