package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/initiative-engine/internal/services/encounter/app"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/command"
)

func registerCommandTools(server *mcp.Server, registry *app.Registry) {
	mcp.AddTool(server, CommandExecuteTool(), CommandExecuteHandler(registry))
}

// CommandExecuteInput represents the MCP tool input for a state-command
// batch.
type CommandExecuteInput struct {
	SessionID string          `json:"session_id" jsonschema:"session identifier"`
	Commands  json.RawMessage `json:"commands" jsonschema:"JSON array of tagged state commands (hp_change, condition, effect, spell_slot, hit_dice, item, death_save, rest)"`
}

// CommandExecuteTool defines the MCP tool schema for executing commands.
func CommandExecuteTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "command_execute",
		Description: "Applies a batch of tagged state commands through the orchestrator. Rest meta-commands expand into atomic commands; each command runs independently and failures never abort siblings.",
	}
}

// CommandExecuteHandler runs one state-command batch.
func CommandExecuteHandler(registry *app.Registry) mcp.ToolHandlerFor[CommandExecuteInput, command.BatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CommandExecuteInput) (*mcp.CallToolResult, command.BatchResult, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, command.BatchResult{}, err
		}
		if len(input.Commands) == 0 {
			return nil, command.BatchResult{}, fmt.Errorf("commands is required")
		}
		batch, err := session.ExecuteCommands(ctx, input.Commands)
		if err != nil {
			return nil, command.BatchResult{}, err
		}
		return nil, batch, nil
	}
}
