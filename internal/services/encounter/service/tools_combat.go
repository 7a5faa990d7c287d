package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/initiative-engine/internal/services/encounter/app"
)

func registerCombatTools(server *mcp.Server, registry *app.Registry) {
	mcp.AddTool(server, CombatStartTool(), CombatStartHandler(registry))
	mcp.AddTool(server, InitiativeRollTool(), InitiativeRollHandler(registry))
	mcp.AddTool(server, InitiativeFinalizeTool(), InitiativeFinalizeHandler(registry))
	mcp.AddTool(server, CombatAdvanceTool(), CombatAdvanceHandler(registry))
	mcp.AddTool(server, CombatantRemoveTool(), CombatantRemoveHandler(registry))
	mcp.AddTool(server, CombatantAddTool(), CombatantAddHandler(registry))
	mcp.AddTool(server, CombatEndBeginTool(), CombatEndBeginHandler(registry))
	mcp.AddTool(server, CombatFinishTool(), CombatFinishHandler(registry))
	mcp.AddTool(server, InitiativeSummaryTool(), InitiativeSummaryHandler(registry))
}

// CombatStartInput represents the MCP tool input for opening an encounter.
type CombatStartInput struct {
	SessionID     string   `json:"session_id" jsonschema:"session identifier"`
	Participants  []string `json:"participants" jsonschema:"roster member ids entering combat"`
	EncounterName string   `json:"encounter_name,omitempty" jsonschema:"optional display name for the encounter"`
}

// CombatStartTool defines the MCP tool schema for starting combat.
func CombatStartTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "combat_start",
		Description: "Opens an encounter with the given roster members and enters combat mode. Initiative collection is declared separately with expectation_set.",
	}
}

// CombatStartHandler opens an encounter on a session.
func CombatStartHandler(registry *app.Registry) mcp.ToolHandlerFor[CombatStartInput, app.CombatStartReport] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CombatStartInput) (*mcp.CallToolResult, app.CombatStartReport, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, app.CombatStartReport{}, err
		}
		report, err := session.StartCombat(ctx, input.Participants, input.EncounterName)
		if err != nil {
			return nil, app.CombatStartReport{}, err
		}
		return nil, report, nil
	}
}

// InitiativeRollInput represents the MCP tool input for one initiative roll.
type InitiativeRollInput struct {
	SessionID   string `json:"session_id" jsonschema:"session identifier"`
	CharacterID string `json:"character_id" jsonschema:"combatant the roll belongs to"`
	Roll        int    `json:"roll" jsonschema:"initiative total with modifiers already applied"`
}

// InitiativeRollTool defines the MCP tool schema for recording a roll.
func InitiativeRollTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "initiative_roll",
		Description: "Records a combatant's initiative total during combat start. Re-rolling replaces the earlier entry; an open initiative window absorbs the roll as that character's response.",
	}
}

// InitiativeRollHandler records one initiative roll.
func InitiativeRollHandler(registry *app.Registry) mcp.ToolHandlerFor[InitiativeRollInput, app.InitiativeRollReport] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input InitiativeRollInput) (*mcp.CallToolResult, app.InitiativeRollReport, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, app.InitiativeRollReport{}, err
		}
		if strings.TrimSpace(input.CharacterID) == "" {
			return nil, app.InitiativeRollReport{}, fmt.Errorf("character_id is required")
		}
		report, err := session.RollInitiative(ctx, input.CharacterID, input.Roll)
		if err != nil {
			return nil, app.InitiativeRollReport{}, err
		}
		return nil, report, nil
	}
}

// InitiativeFinalizeInput represents the MCP tool input for finalizing
// the order.
type InitiativeFinalizeInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier"`
}

// InitiativeFinalizeTool defines the MCP tool schema for finalizing.
func InitiativeFinalizeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "initiative_finalize",
		Description: "Sorts the collected rolls (higher roll first, dex modifier breaks ties) and opens round one.",
	}
}

// InitiativeFinalizeHandler finalizes the initiative order.
func InitiativeFinalizeHandler(registry *app.Registry) mcp.ToolHandlerFor[InitiativeFinalizeInput, app.InitiativeOrderReport] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input InitiativeFinalizeInput) (*mcp.CallToolResult, app.InitiativeOrderReport, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, app.InitiativeOrderReport{}, err
		}
		report, err := session.FinalizeInitiative(ctx)
		if err != nil {
			return nil, app.InitiativeOrderReport{}, err
		}
		return nil, report, nil
	}
}

// CombatAdvanceInput represents the MCP tool input for the next combat turn.
type CombatAdvanceInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier"`
}

// CombatAdvanceTool defines the MCP tool schema for advancing combat.
func CombatAdvanceTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "combat_advance",
		Description: "Moves the initiative pointer to the next combatant, reporting when a new round begins and whether either side has been wiped out.",
	}
}

// CombatAdvanceHandler advances to the next combat turn.
func CombatAdvanceHandler(registry *app.Registry) mcp.ToolHandlerFor[CombatAdvanceInput, app.CombatAdvanceReport] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CombatAdvanceInput) (*mcp.CallToolResult, app.CombatAdvanceReport, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, app.CombatAdvanceReport{}, err
		}
		report, err := session.AdvanceCombat(ctx)
		if err != nil {
			return nil, app.CombatAdvanceReport{}, err
		}
		return nil, report, nil
	}
}

// CombatantRemoveInput represents the MCP tool input for a removal.
type CombatantRemoveInput struct {
	SessionID   string `json:"session_id" jsonschema:"session identifier"`
	CharacterID string `json:"character_id" jsonschema:"combatant to drop from the initiative order"`
}

// CombatantRemoveTool defines the MCP tool schema for removing a combatant.
func CombatantRemoveTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "combatant_remove",
		Description: "Drops a defeated or fled combatant from the initiative order. The character record stays on the roster.",
	}
}

// CombatantRemoveHandler removes one combatant from the order.
func CombatantRemoveHandler(registry *app.Registry) mcp.ToolHandlerFor[CombatantRemoveInput, app.CombatantRemovalReport] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CombatantRemoveInput) (*mcp.CallToolResult, app.CombatantRemovalReport, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, app.CombatantRemovalReport{}, err
		}
		if strings.TrimSpace(input.CharacterID) == "" {
			return nil, app.CombatantRemovalReport{}, fmt.Errorf("character_id is required")
		}
		report, err := session.RemoveCombatant(ctx, input.CharacterID)
		if err != nil {
			return nil, app.CombatantRemovalReport{}, err
		}
		return nil, report, nil
	}
}

// CombatantAddInput represents the MCP tool input for a mid-round arrival.
type CombatantAddInput struct {
	SessionID   string `json:"session_id" jsonschema:"session identifier"`
	CharacterID string `json:"character_id" jsonschema:"roster member joining the running combat"`
	Roll        int    `json:"roll" jsonschema:"the newcomer's initiative total"`
}

// CombatantAddTool defines the MCP tool schema for adding a combatant.
func CombatantAddTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "combatant_add",
		Description: "Inserts a roster member into a running combat mid-round, re-sorting the initiative order around the new roll.",
	}
}

// CombatantAddHandler adds one combatant to a running combat.
func CombatantAddHandler(registry *app.Registry) mcp.ToolHandlerFor[CombatantAddInput, app.CombatantAddReport] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CombatantAddInput) (*mcp.CallToolResult, app.CombatantAddReport, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, app.CombatantAddReport{}, err
		}
		if strings.TrimSpace(input.CharacterID) == "" {
			return nil, app.CombatantAddReport{}, fmt.Errorf("character_id is required")
		}
		report, err := session.AddCombatant(ctx, input.CharacterID, input.Roll)
		if err != nil {
			return nil, app.CombatantAddReport{}, err
		}
		return nil, report, nil
	}
}

// CombatEndBeginInput represents the MCP tool input for starting the
// wrap-up phase.
type CombatEndBeginInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier"`
}

// CombatEndBeginTool defines the MCP tool schema for beginning combat end.
func CombatEndBeginTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "combat_end_begin",
		Description: "Transitions a running combat into its wrap-up phase. Only legal from combat rounds.",
	}
}

// CombatEndBeginHandler begins the combat-end phase.
func CombatEndBeginHandler(registry *app.Registry) mcp.ToolHandlerFor[CombatEndBeginInput, app.PhaseReport] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CombatEndBeginInput) (*mcp.CallToolResult, app.PhaseReport, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, app.PhaseReport{}, err
		}
		report, err := session.BeginCombatEnd(ctx)
		if err != nil {
			return nil, app.PhaseReport{}, err
		}
		return nil, report, nil
	}
}

// CombatFinishInput represents the MCP tool input for finishing combat.
type CombatFinishInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier"`
}

// CombatFinishTool defines the MCP tool schema for finishing combat.
func CombatFinishTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "combat_finish",
		Description: "Clears all combat state and returns the table to exploration. Also serves as a hard exit to abandon an encounter from any phase.",
	}
}

// CombatFinishHandler finishes combat on a session.
func CombatFinishHandler(registry *app.Registry) mcp.ToolHandlerFor[CombatFinishInput, app.PhaseReport] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CombatFinishInput) (*mcp.CallToolResult, app.PhaseReport, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, app.PhaseReport{}, err
		}
		report, err := session.FinishCombat(ctx)
		if err != nil {
			return nil, app.PhaseReport{}, err
		}
		return nil, report, nil
	}
}

// InitiativeSummaryInput represents the MCP tool input for the order summary.
type InitiativeSummaryInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier"`
}

// InitiativeSummaryResult represents the MCP tool output for the summary.
type InitiativeSummaryResult struct {
	Summary string `json:"summary" jsonschema:"formatted initiative order with the current-turn marker"`
}

// InitiativeSummaryTool defines the MCP tool schema for the summary.
func InitiativeSummaryTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "initiative_summary",
		Description: "Renders the initiative order as display text with round number and current-turn marker.",
	}
}

// InitiativeSummaryHandler renders the order summary.
func InitiativeSummaryHandler(registry *app.Registry) mcp.ToolHandlerFor[InitiativeSummaryInput, InitiativeSummaryResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input InitiativeSummaryInput) (*mcp.CallToolResult, InitiativeSummaryResult, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, InitiativeSummaryResult{}, err
		}
		summary, err := session.InitiativeSummary(ctx)
		if err != nil {
			return nil, InitiativeSummaryResult{}, err
		}
		return nil, InitiativeSummaryResult{Summary: summary}, nil
	}
}
