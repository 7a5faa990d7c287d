package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/initiative-engine/internal/services/encounter/app"
)

func registerCollectionTools(server *mcp.Server, registry *app.Registry) {
	mcp.AddTool(server, ExpectationSetTool(), ExpectationSetHandler(registry))
	mcp.AddTool(server, CollectionStatusTool(), CollectionStatusHandler(registry))
	mcp.AddTool(server, CollectionResolveTool(), CollectionResolveHandler(registry))
	mcp.AddTool(server, MessageSubmitTool(), MessageSubmitHandler(registry))
}

// ExpectationSetInput represents the MCP tool input for installing a
// response expectation.
type ExpectationSetInput struct {
	SessionID  string   `json:"session_id" jsonschema:"session identifier"`
	Type       string   `json:"response_type" jsonschema:"expected response shape: action, initiative, saving_throw, reaction, free_form or none"`
	Characters []string `json:"characters,omitempty" jsonschema:"ordered character ids allowed to respond"`
	Prompt     string   `json:"prompt,omitempty" jsonschema:"optional prompt shown to the expected responders"`
}

// ExpectationSetTool defines the MCP tool schema for installing an expectation.
func ExpectationSetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "expectation_set",
		Description: "Declares who may respond next and in what shape, installing a fresh collection window. Timed windows (all/optional modes) auto-resolve on the session's collection timeout.",
	}
}

// ExpectationSetHandler installs a response expectation on a session.
func ExpectationSetHandler(registry *app.Registry) mcp.ToolHandlerFor[ExpectationSetInput, app.ExpectationReport] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ExpectationSetInput) (*mcp.CallToolResult, app.ExpectationReport, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, app.ExpectationReport{}, err
		}
		report, err := session.SetExpectation(ctx, app.ExpectationInput{
			Type:       input.Type,
			Characters: input.Characters,
			Prompt:     input.Prompt,
		})
		if err != nil {
			return nil, app.ExpectationReport{}, err
		}
		return nil, report, nil
	}
}

// CollectionStatusInput represents the MCP tool input for a collection
// status check.
type CollectionStatusInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier"`
}

// CollectionStatusTool defines the MCP tool schema for collection status.
func CollectionStatusTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "collection_status",
		Description: "Reports the current collection window: mode, collected responses and missing responders.",
	}
}

// CollectionStatusHandler reports the state of a session's collection window.
func CollectionStatusHandler(registry *app.Registry) mcp.ToolHandlerFor[CollectionStatusInput, app.CollectionStatus] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CollectionStatusInput) (*mcp.CallToolResult, app.CollectionStatus, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, app.CollectionStatus{}, err
		}
		status, err := session.Collection(ctx)
		if err != nil {
			return nil, app.CollectionStatus{}, err
		}
		return nil, status, nil
	}
}

// CollectionResolveInput represents the MCP tool input for closing a
// collection window early.
type CollectionResolveInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier"`
}

// CollectionResolveTool defines the MCP tool schema for resolving a window.
func CollectionResolveTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "collection_resolve",
		Description: "Closes the current collection window immediately, synthesizing defaults for missing responders the way the timeout would (initiative auto-rolls, empty saving throws, declined reactions).",
	}
}

// CollectionResolveHandler closes a session's collection window.
func CollectionResolveHandler(registry *app.Registry) mcp.ToolHandlerFor[CollectionResolveInput, app.ResolutionReport] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CollectionResolveInput) (*mcp.CallToolResult, app.ResolutionReport, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, app.ResolutionReport{}, err
		}
		report, err := session.ResolveCollection(ctx)
		if err != nil {
			return nil, app.ResolutionReport{}, err
		}
		return nil, report, nil
	}
}

// MessageSubmitInput represents the MCP tool input for one inbound
// player message.
type MessageSubmitInput struct {
	SessionID   string `json:"session_id" jsonschema:"session identifier"`
	CharacterID string `json:"character_id" jsonschema:"character the message speaks for"`
	Text        string `json:"text" jsonschema:"the message content"`
}

// MessageSubmitTool defines the MCP tool schema for submitting a message.
func MessageSubmitTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "message_submit",
		Description: "Validates an inbound player message against the current expectation. Accepted messages join the collection window and the live turn's log; rejections carry the expected-character set.",
	}
}

// MessageSubmitHandler routes one player message through the coordinator.
func MessageSubmitHandler(registry *app.Registry) mcp.ToolHandlerFor[MessageSubmitInput, app.SubmitResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MessageSubmitInput) (*mcp.CallToolResult, app.SubmitResult, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, app.SubmitResult{}, err
		}
		if strings.TrimSpace(input.CharacterID) == "" {
			return nil, app.SubmitResult{}, fmt.Errorf("character_id is required")
		}
		result, err := session.SubmitMessage(ctx, input.CharacterID, input.Text)
		if err != nil {
			return nil, app.SubmitResult{}, err
		}
		return nil, result, nil
	}
}
