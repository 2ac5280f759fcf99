// Package server exposes the trip planning tools over MCP stdio and HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/NERVsystems/tripmcp/pkg/monitoring"
	"github.com/NERVsystems/tripmcp/pkg/tools"
	"github.com/NERVsystems/tripmcp/pkg/version"
)

// ServerName is the name reported to MCP clients
const ServerName = "tripmcp"

// Server wraps the MCP server with the trip planning tools and prompts registered
type Server struct {
	srv      *mcpserver.MCPServer
	registry *tools.Registry
	logger   *slog.Logger
	sessions atomic.Int64

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
	watch    sync.Once
}

// NewServer builds the MCP server. A nil registry gets the built-in catalog and the global search store.
func NewServer(logger *slog.Logger, registry *tools.Registry) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = tools.NewRegistry(logger)
	}

	logger.Info("initializing trip planner MCP server",
		"name", ServerName,
		"version", version.BuildVersion,
		"tools", len(registry.GetToolNames()))

	s := &Server{
		registry: registry,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	hooks := &mcpserver.Hooks{}
	hooks.AddOnRegisterSession(func(ctx context.Context, session mcpserver.ClientSession) {
		n := s.sessions.Add(1)
		monitoring.UpdateActiveConnections("http", "sse", int(n))
		logger.Debug("mcp session opened", "session_id", session.SessionID(), "active", n)
	})
	hooks.AddOnUnregisterSession(func(ctx context.Context, session mcpserver.ClientSession) {
		n := s.sessions.Add(-1)
		monitoring.UpdateActiveConnections("http", "sse", int(n))
		logger.Debug("mcp session closed", "session_id", session.SessionID(), "active", n)
	})

	s.srv = mcpserver.NewMCPServer(
		ServerName,
		version.BuildVersion,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithPromptCapabilities(false),
		mcpserver.WithRecovery(),
		mcpserver.WithHooks(hooks),
	)
	registry.RegisterAll(s.srv)

	return s
}

// ActiveSessions is the number of connected SSE sessions
func (s *Server) ActiveSessions() int {
	return int(s.sessions.Load())
}

// Run serves MCP over stdin/stdout until the input closes or Shutdown is called
func (s *Server) Run() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	go func() {
		defer close(s.doneCh)
		if err := mcpserver.ServeStdio(s.srv); err != nil && !errors.Is(err, io.EOF) {
			s.logger.Error("stdio server error", "error", err)
		}
		s.Shutdown()
	}()

	<-s.stopCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	<-s.doneCh
	return nil
}

// RunWithContext is Run with ctx cancellation triggering Shutdown
func (s *Server) RunWithContext(ctx context.Context) error {
	s.watch.Do(func() {
		go func() {
			select {
			case <-ctx.Done():
				s.Shutdown()
			case <-s.stopCh:
			}
		}()
	})
	return s.Run()
}

// Shutdown signals Run to return. It does not block.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// WaitForShutdown blocks until the stdio loop has exited
func (s *Server) WaitForShutdown() {
	<-s.doneCh
}

// MCPServer returns the underlying server for the HTTP transport
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.srv
}

// Registry returns the tool registry backing the server
func (s *Server) Registry() *tools.Registry {
	return s.registry
}
