package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/initiative-engine/internal/services/encounter/app"
)

func registerSessionTools(server *mcp.Server, registry *app.Registry) {
	mcp.AddTool(server, SessionStartTool(), SessionStartHandler(registry))
	mcp.AddTool(server, SessionEndTool(), SessionEndHandler(registry))
	mcp.AddTool(server, SessionStatusTool(), SessionStatusHandler(registry))
	mcp.AddTool(server, SessionListTool(), SessionListHandler(registry))
}

// lookupSession resolves a session id supplied by a tool call.
func lookupSession(registry *app.Registry, id string) (*app.Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	return registry.Get(id)
}

// SessionStartInput represents the MCP tool input for starting a session.
type SessionStartInput struct {
	ID   string `json:"session_id,omitempty" jsonschema:"optional session identifier, assigned when empty"`
	Name string `json:"name,omitempty" jsonschema:"optional display name for the table"`
	Seed int64  `json:"seed,omitempty" jsonschema:"optional seed for the session's dice source"`
}

// SessionStartResult represents the MCP tool output for starting a session.
type SessionStartResult struct {
	ID        string `json:"session_id" jsonschema:"session identifier"`
	Name      string `json:"name,omitempty" jsonschema:"session display name"`
	CreatedAt string `json:"created_at" jsonschema:"RFC3339 timestamp when the session was created"`
	Roster    int    `json:"roster_size" jsonschema:"characters preloaded from the store"`
}

// SessionStartTool defines the MCP tool schema for starting a session.
func SessionStartTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "session_start",
		Description: "Starts a new game session with its own turn stack, combat state and response coordinator.",
	}
}

// SessionStartHandler executes a session start request.
func SessionStartHandler(registry *app.Registry) mcp.ToolHandlerFor[SessionStartInput, SessionStartResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SessionStartInput) (*mcp.CallToolResult, SessionStartResult, error) {
		session, err := registry.Create(ctx, app.CreateOptions{ID: input.ID, Name: input.Name, Seed: input.Seed})
		if err != nil {
			return nil, SessionStartResult{}, err
		}
		status, err := session.Status(ctx)
		if err != nil {
			return nil, SessionStartResult{}, err
		}
		return nil, SessionStartResult{
			ID:        session.ID(),
			Name:      session.Name(),
			CreatedAt: session.CreatedAt().Format(time.RFC3339),
			Roster:    status.RosterSize,
		}, nil
	}
}

// SessionEndInput represents the MCP tool input for ending a session.
type SessionEndInput struct {
	ID string `json:"session_id" jsonschema:"session identifier"`
}

// SessionEndResult represents the MCP tool output for ending a session.
type SessionEndResult struct {
	ID     string `json:"session_id" jsonschema:"session identifier"`
	Closed bool   `json:"closed" jsonschema:"whether the session was stopped"`
}

// SessionEndTool defines the MCP tool schema for ending a session.
func SessionEndTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "session_end",
		Description: "Stops a session's worker and removes it from the registry. In-memory turn and combat state is discarded.",
	}
}

// SessionEndHandler executes a session end request.
func SessionEndHandler(registry *app.Registry) mcp.ToolHandlerFor[SessionEndInput, SessionEndResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SessionEndInput) (*mcp.CallToolResult, SessionEndResult, error) {
		if strings.TrimSpace(input.ID) == "" {
			return nil, SessionEndResult{}, fmt.Errorf("session_id is required")
		}
		if err := registry.Close(input.ID); err != nil {
			return nil, SessionEndResult{}, err
		}
		return nil, SessionEndResult{ID: input.ID, Closed: true}, nil
	}
}

// SessionStatusInput represents the MCP tool input for a session status check.
type SessionStatusInput struct {
	ID string `json:"session_id" jsonschema:"session identifier"`
}

// SessionStatusTool defines the MCP tool schema for session status.
func SessionStatusTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "session_status",
		Description: "Reports a session's combat phase, turn counters and the current response-collection window.",
	}
}

// SessionStatusHandler reports one session's current state.
func SessionStatusHandler(registry *app.Registry) mcp.ToolHandlerFor[SessionStatusInput, app.SessionStatus] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SessionStatusInput) (*mcp.CallToolResult, app.SessionStatus, error) {
		session, err := lookupSession(registry, input.ID)
		if err != nil {
			return nil, app.SessionStatus{}, err
		}
		status, err := session.Status(ctx)
		if err != nil {
			return nil, app.SessionStatus{}, err
		}
		return nil, status, nil
	}
}

// SessionListInput represents the MCP tool input for listing sessions.
type SessionListInput struct{}

// SessionListEntry is one live session in a listing.
type SessionListEntry struct {
	ID        string `json:"session_id" jsonschema:"session identifier"`
	Name      string `json:"name,omitempty" jsonschema:"session display name"`
	CreatedAt string `json:"created_at" jsonschema:"RFC3339 timestamp when the session was created"`
}

// SessionListResult represents the MCP tool output for listing sessions.
type SessionListResult struct {
	Sessions []SessionListEntry `json:"sessions" jsonschema:"live sessions in creation order"`
}

// SessionListTool defines the MCP tool schema for listing sessions.
func SessionListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "session_list",
		Description: "Lists live sessions in creation order.",
	}
}

// SessionListHandler lists the registry's live sessions.
func SessionListHandler(registry *app.Registry) mcp.ToolHandlerFor[SessionListInput, SessionListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ SessionListInput) (*mcp.CallToolResult, SessionListResult, error) {
		var result SessionListResult
		for _, session := range registry.List() {
			result.Sessions = append(result.Sessions, SessionListEntry{
				ID:        session.ID(),
				Name:      session.Name(),
				CreatedAt: session.CreatedAt().Format(time.RFC3339),
			})
		}
		return nil, result, nil
	}
}
