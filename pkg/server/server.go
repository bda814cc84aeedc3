// Package server provides the MCP server and HTTP transports for the CO2 estimator.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/NERVsystems/co2mcp/pkg/tools"
	"github.com/NERVsystems/co2mcp/pkg/version"
)

// ServerName is the name of the MCP server
const ServerName = "co2-estimator-mcp"

// Server encapsulates the MCP server with the estimator tools.
type Server struct {
	srv      *mcpserver.MCPServer
	registry *tools.Registry
	logger   *slog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  bool
	mu       sync.Mutex
	stopOnce sync.Once
	serve    func(ctx context.Context, in io.Reader, out io.Writer) error
}

// NewServer creates a new MCP server with every tool and prompt of registry registered.
func NewServer(registry *tools.Registry, logger *slog.Logger) (*Server, error) {
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("initializing CO2 estimator MCP server",
		"name", ServerName,
		"version", version.BuildVersion)

	srv := mcpserver.NewMCPServer(
		ServerName,
		version.BuildVersion,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithPromptCapabilities(false),
		mcpserver.WithRecovery(),
	)
	registry.RegisterAll(srv)

	return &Server{
		srv:      srv,
		registry: registry,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		serve:    mcpserver.NewStdioServer(srv).Listen,
	}, nil
}

// Run serves MCP over stdin/stdout. It blocks until Shutdown is called or
// the client closes stdin. A server runs at most once.
func (s *Server) Run() error {
	return s.RunWithContext(context.Background())
}

// RunWithContext serves MCP over stdin/stdout until ctx is canceled,
// Shutdown is called or the client closes stdin.
func (s *Server) RunWithContext(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		defer close(s.doneCh)
		errCh <- s.serve(ctx, os.Stdin, os.Stdout)
	}()

	var err error
	select {
	case err = <-errCh:
	case <-s.stopCh:
		cancel()
		err = <-errCh
	}

	s.Shutdown()

	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
		s.logger.Error("stdio server error", "error", err)
		return err
	}
	return nil
}

// Shutdown signals the run loop to stop. It does not block.
func (s *Server) Shutdown() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

// WaitForShutdown blocks until the stdio loop has returned.
func (s *Server) WaitForShutdown() {
	<-s.doneCh
}

// GetMCPServer returns the underlying MCP server instance for HTTP transport
func (s *Server) GetMCPServer() *mcpserver.MCPServer {
	return s.srv
}

// Registry returns the tool registry the server was built with.
func (s *Server) Registry() *tools.Registry {
	return s.registry
}
