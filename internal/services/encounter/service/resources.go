package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/initiative-engine/internal/services/encounter/app"
)

func registerResources(server *mcp.Server, registry *app.Registry) {
	server.AddResourceTemplate(SessionTurnsResource(), SessionTurnsResourceHandler(registry))
	server.AddResourceTemplate(SessionInitiativeResource(), SessionInitiativeResourceHandler(registry))
	server.AddResourceTemplate(CharacterSheetResource(), CharacterSheetResourceHandler(registry))
	server.AddResource(PhasesResource(), PhasesResourceHandler())
}

// SessionTurnsResource defines the readable turn-stack resource.
func SessionTurnsResource() *mcp.ResourceTemplate {
	return &mcp.ResourceTemplate{
		Name:        "session_turns",
		Title:       "Turn Stack",
		Description: "Readable turn stack and completed-turn history. URI format: session://{session_id}/turns",
		MIMEType:    "application/json",
		URITemplate: "session://{session_id}/turns",
	}
}

// SessionTurnsResourceHandler renders a session's turn snapshot.
func SessionTurnsResourceHandler(registry *app.Registry) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri, sessionID, err := parseSessionURI(req, "turns")
		if err != nil {
			return nil, err
		}
		session, err := registry.Get(sessionID)
		if err != nil {
			return nil, err
		}
		data, err := session.TurnSnapshotJSON(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResourceResult(uri, data), nil
	}
}

// SessionInitiativeResource defines the readable initiative resource.
func SessionInitiativeResource() *mcp.ResourceTemplate {
	return &mcp.ResourceTemplate{
		Name:        "session_initiative",
		Title:       "Initiative Order",
		Description: "Readable combat phase, round and initiative order. URI format: session://{session_id}/initiative",
		MIMEType:    "application/json",
		URITemplate: "session://{session_id}/initiative",
	}
}

// SessionInitiativeResourceHandler renders a session's combat state.
func SessionInitiativeResourceHandler(registry *app.Registry) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri, sessionID, err := parseSessionURI(req, "initiative")
		if err != nil {
			return nil, err
		}
		session, err := registry.Get(sessionID)
		if err != nil {
			return nil, err
		}
		data, err := session.InitiativeJSON(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResourceResult(uri, data), nil
	}
}

// CharacterSheetResource defines the readable character sheet resource.
func CharacterSheetResource() *mcp.ResourceTemplate {
	return &mcp.ResourceTemplate{
		Name:        "character_sheet",
		Title:       "Character Sheet",
		Description: "Readable character record. URI format: character://{character_id}/sheet; sessions are searched in creation order.",
		MIMEType:    "application/json",
		URITemplate: "character://{character_id}/sheet",
	}
}

// CharacterSheetResourceHandler renders a character sheet from the
// first session rostering the character.
func CharacterSheetResourceHandler(registry *app.Registry) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
			return nil, fmt.Errorf("character ID is required; use URI format character://{character_id}/sheet")
		}
		uri := req.Params.URI
		characterID, err := parseResourceURI(uri, "character", "sheet")
		if err != nil {
			return nil, err
		}

		for _, session := range registry.List() {
			sheet, err := session.CharacterSheet(ctx, characterID)
			if err != nil {
				continue
			}
			return jsonResourceResult(uri, sheet), nil
		}
		return nil, fmt.Errorf("no session rosters character %q", characterID)
	}
}

// phaseReference is the static combat phase documentation payload.
type phaseReference struct {
	Phase       string   `json:"phase"`
	Description string   `json:"description"`
	Transitions []string `json:"transitions"`
}

// PhasesResource defines the static combat-phase reference resource.
func PhasesResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "encounter_phases",
		Title:       "Combat Phases",
		Description: "Reference listing of the combat phase machine and its legal transitions",
		MIMEType:    "application/json",
		URI:         "encounter://phases",
	}
}

// PhasesResourceHandler serves the phase machine reference.
func PhasesResourceHandler() mcp.ResourceHandler {
	reference := []phaseReference{
		{
			Phase:       "NOT_IN_COMBAT",
			Description: "Exploration; all messages are accepted without turn-order checks.",
			Transitions: []string{"COMBAT_START via combat_start"},
		},
		{
			Phase:       "COMBAT_START",
			Description: "Participants are recorded and initiative rolls are collected.",
			Transitions: []string{"COMBAT_ROUNDS via initiative_finalize", "NOT_IN_COMBAT via combat_finish"},
		},
		{
			Phase:       "COMBAT_ROUNDS",
			Description: "Turns proceed in initiative order; combat_advance wraps into new rounds.",
			Transitions: []string{"COMBAT_END via combat_end_begin", "NOT_IN_COMBAT via combat_finish"},
		},
		{
			Phase:       "COMBAT_END",
			Description: "Encounter wrap-up: loot, XP and narrative resolution.",
			Transitions: []string{"NOT_IN_COMBAT via combat_finish"},
		},
	}
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		data, err := json.MarshalIndent(reference, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal phase reference: %w", err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{URI: "encounter://phases", MIMEType: "application/json", Text: string(data)},
			},
		}, nil
	}
}

func parseSessionURI(req *mcp.ReadResourceRequest, suffix string) (uri, sessionID string, err error) {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return "", "", fmt.Errorf("session ID is required; use URI format session://{session_id}/%s", suffix)
	}
	uri = req.Params.URI
	sessionID, err = parseResourceURI(uri, "session", suffix)
	return uri, sessionID, err
}

// parseResourceURI extracts the id from scheme://{id}/suffix.
func parseResourceURI(uri, scheme, suffix string) (string, error) {
	prefix := scheme + "://"
	if !strings.HasPrefix(uri, prefix) {
		return "", fmt.Errorf("uri %q must use the %s scheme", uri, scheme)
	}
	rest := strings.TrimPrefix(uri, prefix)
	id, tail, found := strings.Cut(rest, "/")
	if !found || tail != suffix || strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("uri %q must match %s://{id}/%s", uri, scheme, suffix)
	}
	return id, nil
}

func jsonResourceResult(uri string, data json.RawMessage) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: string(data)},
		},
	}
}
