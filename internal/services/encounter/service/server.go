package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/initiative-engine/internal/services/encounter/app"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "initiative-engine"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

type registrationModule struct {
	name     string
	register func(server *mcp.Server, registry *app.Registry)
}

func registrationModules() []registrationModule {
	return []registrationModule{
		{name: "session-tools", register: registerSessionTools},
		{name: "collection-tools", register: registerCollectionTools},
		{name: "turn-tools", register: registerTurnTools},
		{name: "combat-tools", register: registerCombatTools},
		{name: "command-tools", register: registerCommandTools},
		{name: "character-tools", register: registerCharacterTools},
		{name: "dice-tools", register: registerDiceTools},
		{name: "session-resources", register: registerResources},
	}
}

// Server hosts the MCP server over one session registry.
type Server struct {
	mcpServer *mcp.Server
	registry  *app.Registry
}

// New builds an MCP server with every tool and resource module
// registered against the given registry.
func New(registry *app.Registry) (*Server, error) {
	if registry == nil {
		return nil, fmt.Errorf("session registry is required")
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	for _, module := range registrationModules() {
		module.register(mcpServer, registry)
	}
	return &Server{mcpServer: mcpServer, registry: registry}, nil
}

// MCP exposes the underlying protocol server for transports that mount
// it themselves, such as the streamable HTTP handler.
func (s *Server) MCP() *mcp.Server { return s.mcpServer }

// Serve runs the server on stdio until the context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// serveWithTransport runs the MCP server on the given transport. A
// context cancellation is a clean shutdown, not an error.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
