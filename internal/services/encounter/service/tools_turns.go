package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/initiative-engine/internal/services/encounter/app"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/turn"
)

func registerTurnTools(server *mcp.Server, registry *app.Registry) {
	mcp.AddTool(server, TurnStartTool(), TurnStartHandler(registry))
	mcp.AddTool(server, TurnQueueTool(), TurnQueueHandler(registry))
	mcp.AddTool(server, TurnEndTool(), TurnEndHandler(registry))
	mcp.AddTool(server, StepAdvanceTool(), StepAdvanceHandler(registry))
	mcp.AddTool(server, ObjectiveSetTool(), ObjectiveSetHandler(registry))
	mcp.AddTool(server, TurnStatsTool(), TurnStatsHandler(registry))
}

// TurnStartInput represents the MCP tool input for opening a turn.
type TurnStartInput struct {
	SessionID       string            `json:"session_id" jsonschema:"session identifier"`
	ActiveCharacter string            `json:"active_character,omitempty" jsonschema:"character whose action opens the turn"`
	Content         string            `json:"content,omitempty" jsonschema:"the declared action, recorded as the turn's opening message"`
	StepObjectives  []string          `json:"step_objectives,omitempty" jsonschema:"optional scripted objectives; combat turns default to the standard adjudication sequence"`
	Metadata        map[string]string `json:"metadata,omitempty" jsonschema:"optional turn metadata"`
}

// TurnStartTool defines the MCP tool schema for starting a turn.
func TurnStartTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "turn_start",
		Description: "Opens a turn for one character's action. With a turn already open the new one nests beneath it as a reaction sub-turn.",
	}
}

// TurnStartHandler opens a turn on a session.
func TurnStartHandler(registry *app.Registry) mcp.ToolHandlerFor[TurnStartInput, app.TurnReport] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TurnStartInput) (*mcp.CallToolResult, app.TurnReport, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, app.TurnReport{}, err
		}
		report, err := session.StartTurn(ctx, app.TurnOptions{
			ActiveCharacter: input.ActiveCharacter,
			Content:         input.Content,
			StepObjectives:  input.StepObjectives,
			Metadata:        input.Metadata,
		})
		if err != nil {
			return nil, app.TurnReport{}, err
		}
		return nil, report, nil
	}
}

// QueuedActionInput is one simultaneous action in a turn_queue call.
type QueuedActionInput struct {
	Character string `json:"character" jsonschema:"character declaring the action"`
	Content   string `json:"content,omitempty" jsonschema:"the declared action"`
}

// TurnQueueInput represents the MCP tool input for queueing sibling turns.
type TurnQueueInput struct {
	SessionID      string              `json:"session_id" jsonschema:"session identifier"`
	Actions        []QueuedActionInput `json:"actions" jsonschema:"simultaneous actions, typically reactions declared against the turn in play"`
	StepObjectives []string            `json:"step_objectives,omitempty" jsonschema:"optional scripted objectives shared by the queued turns"`
}

// TurnQueueTool defines the MCP tool schema for queueing sibling turns.
func TurnQueueTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "turn_queue",
		Description: "Queues sibling sub-turns for a batch of simultaneous reactions. The first becomes active; each turn_end surfaces the next.",
	}
}

// TurnQueueHandler queues sibling turns on a session.
func TurnQueueHandler(registry *app.Registry) mcp.ToolHandlerFor[TurnQueueInput, app.TurnReport] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TurnQueueInput) (*mcp.CallToolResult, app.TurnReport, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, app.TurnReport{}, err
		}
		if len(input.Actions) == 0 {
			return nil, app.TurnReport{}, fmt.Errorf("at least one action is required")
		}
		actions := make([]turn.QueuedAction, 0, len(input.Actions))
		for _, action := range input.Actions {
			actions = append(actions, turn.QueuedAction{Speaker: action.Character, Content: action.Content})
		}
		report, err := session.QueueTurns(ctx, actions, input.StepObjectives)
		if err != nil {
			return nil, app.TurnReport{}, err
		}
		return nil, report, nil
	}
}

// TurnEndInput represents the MCP tool input for ending the active turn.
type TurnEndInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier"`
}

// TurnEndTool defines the MCP tool schema for ending a turn.
func TurnEndTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "turn_end",
		Description: "Closes the active turn, condensing it into its parent, and reports the pending sibling or the return to the parent turn. Fails when no turn is active.",
	}
}

// TurnEndHandler ends the active turn on a session.
func TurnEndHandler(registry *app.Registry) mcp.ToolHandlerFor[TurnEndInput, app.TurnEndReport] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TurnEndInput) (*mcp.CallToolResult, app.TurnEndReport, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, app.TurnEndReport{}, err
		}
		report, err := session.EndTurn(ctx)
		if err != nil {
			return nil, app.TurnEndReport{}, err
		}
		return nil, report, nil
	}
}

// StepAdvanceInput represents the MCP tool input for advancing a turn's
// step objective.
type StepAdvanceInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier"`
}

// StepAdvanceTool defines the MCP tool schema for step advancement.
func StepAdvanceTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "step_advance",
		Description: "Moves the active turn to its next scripted objective. Fails when the turn carries no step list.",
	}
}

// StepAdvanceHandler advances the active turn's step objective.
func StepAdvanceHandler(registry *app.Registry) mcp.ToolHandlerFor[StepAdvanceInput, app.StepReport] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input StepAdvanceInput) (*mcp.CallToolResult, app.StepReport, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, app.StepReport{}, err
		}
		report, err := session.AdvanceStep(ctx)
		if err != nil {
			return nil, app.StepReport{}, err
		}
		return nil, report, nil
	}
}

// ObjectiveSetInput represents the MCP tool input for an ad hoc objective.
type ObjectiveSetInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier"`
	Objective string `json:"objective" jsonschema:"the objective to put in play for the active turn"`
}

// ObjectiveSetResult represents the MCP tool output for an ad hoc objective.
type ObjectiveSetResult struct {
	Objective string `json:"objective" jsonschema:"the objective now in play"`
}

// ObjectiveSetTool defines the MCP tool schema for setting an objective.
func ObjectiveSetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "objective_set",
		Description: "Overrides the active turn's step objective with an ad hoc one, for turns created without a script.",
	}
}

// ObjectiveSetHandler sets a manual objective on the active turn.
func ObjectiveSetHandler(registry *app.Registry) mcp.ToolHandlerFor[ObjectiveSetInput, ObjectiveSetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ObjectiveSetInput) (*mcp.CallToolResult, ObjectiveSetResult, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, ObjectiveSetResult{}, err
		}
		if strings.TrimSpace(input.Objective) == "" {
			return nil, ObjectiveSetResult{}, fmt.Errorf("objective is required")
		}
		if err := session.SetObjective(ctx, input.Objective); err != nil {
			return nil, ObjectiveSetResult{}, err
		}
		return nil, ObjectiveSetResult{Objective: input.Objective}, nil
	}
}

// TurnStatsInput represents the MCP tool input for turn statistics.
type TurnStatsInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier"`
}

// TurnStatsTool defines the MCP tool schema for turn statistics.
func TurnStatsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "turn_stats",
		Description: "Reports turn-tracking counters: active turns, current level and id, completed turns and total started.",
	}
}

// TurnStatsHandler reports a session's turn counters.
func TurnStatsHandler(registry *app.Registry) mcp.ToolHandlerFor[TurnStatsInput, turn.Stats] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TurnStatsInput) (*mcp.CallToolResult, turn.Stats, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, turn.Stats{}, err
		}
		stats, err := session.TurnStats(ctx)
		if err != nil {
			return nil, turn.Stats{}, err
		}
		return nil, stats, nil
	}
}
