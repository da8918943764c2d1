package mcp

import (
	"fmt"

	"mdserve/internal/category"
	"mdserve/internal/config"
	"mdserve/internal/logging"

	"github.com/mark3labs/mcp-go/server"
)

const serverVersion = "1.0.0"

// Server is the MCP server instance wrapping the category service.
type Server struct {
	cfg       *config.Config
	logger    *logging.AppLogger
	service   *category.Service
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server over an already wired category service.
func NewServer(cfg *config.Config, svc *category.Service, logger *logging.AppLogger) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger,
		service: svc,
	}
}

// Start registers the tools and serves MCP over stdio until the client
// disconnects.
func (s *Server) Start() error {
	s.logger.Info("Initializing MCP server")

	s.mcpServer = server.NewMCPServer(config.APP_NAME, serverVersion,
		server.WithToolCapabilities(false),
	)
	s.registerTools()

	s.logger.Info("MCP server created, starting stdio communication",
		"categories", len(s.cfg.Categories),
	)

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the MCP server
func (s *Server) Stop() error {
	s.logger.Info("Stopping MCP server")
	// The mcp-go server handles cleanup when the stdio stream closes.
	return nil
}
