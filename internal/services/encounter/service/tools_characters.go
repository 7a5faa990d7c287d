package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/initiative-engine/internal/services/encounter/app"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/character"
)

func registerCharacterTools(server *mcp.Server, registry *app.Registry) {
	mcp.AddTool(server, CharacterCreateTool(), CharacterCreateHandler(registry))
	mcp.AddTool(server, CharacterGetTool(), CharacterGetHandler(registry))
	mcp.AddTool(server, CharacterListTool(), CharacterListHandler(registry))
	mcp.AddTool(server, MonsterSpawnTool(), MonsterSpawnHandler(registry))
}

// AbilitiesInput holds the six ability scores for character creation.
type AbilitiesInput struct {
	Strength     int `json:"strength" jsonschema:"strength score"`
	Dexterity    int `json:"dexterity" jsonschema:"dexterity score"`
	Constitution int `json:"constitution" jsonschema:"constitution score"`
	Intelligence int `json:"intelligence" jsonschema:"intelligence score"`
	Wisdom       int `json:"wisdom" jsonschema:"wisdom score"`
	Charisma     int `json:"charisma" jsonschema:"charisma score"`
}

// CharacterCreateInput represents the MCP tool input for creating a
// player character.
type CharacterCreateInput struct {
	SessionID  string         `json:"session_id" jsonschema:"session identifier"`
	ID         string         `json:"character_id" jsonschema:"stable character identifier"`
	Name       string         `json:"name" jsonschema:"display name"`
	Class      string         `json:"class,omitempty" jsonschema:"character class"`
	Level      int            `json:"level,omitempty" jsonschema:"character level; also sizes the hit dice pool"`
	Abilities  AbilitiesInput `json:"abilities" jsonschema:"the six ability scores"`
	MaximumHP  int            `json:"maximum_hp" jsonschema:"hit point maximum; the character starts at full HP"`
	HitDie     string         `json:"hit_die,omitempty" jsonschema:"hit die notation (d6, d8, d10 or d12); defaults to d8"`
	SpellSlots map[string]int `json:"spell_slots,omitempty" jsonschema:"spell slot totals keyed by level (\"1\" through \"9\"); omit for non-casters"`
	Items      map[string]int `json:"items,omitempty" jsonschema:"starting inventory quantities by item name"`
}

// CharacterCreateResult represents the MCP tool output for character creation.
type CharacterCreateResult struct {
	ID        string `json:"character_id" jsonschema:"character identifier"`
	Name      string `json:"name" jsonschema:"display name"`
	MaximumHP int    `json:"maximum_hp" jsonschema:"hit point maximum"`
	HitDie    string `json:"hit_die" jsonschema:"hit die notation"`
}

// CharacterCreateTool defines the MCP tool schema for character creation.
func CharacterCreateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "character_create",
		Description: "Adds a player character to the session roster at full HP, persisting it when a character store is configured.",
	}
}

// CharacterCreateHandler builds a character record and adds it to the roster.
func CharacterCreateHandler(registry *app.Registry) mcp.ToolHandlerFor[CharacterCreateInput, CharacterCreateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CharacterCreateInput) (*mcp.CallToolResult, CharacterCreateResult, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, CharacterCreateResult{}, err
		}
		record, err := buildCharacter(input)
		if err != nil {
			return nil, CharacterCreateResult{}, err
		}
		if err := session.CreateCharacter(ctx, record); err != nil {
			return nil, CharacterCreateResult{}, err
		}
		return nil, CharacterCreateResult{
			ID:        record.ID,
			Name:      record.Name,
			MaximumHP: record.HP.Maximum,
			HitDie:    record.HitDice.Die.String(),
		}, nil
	}
}

func buildCharacter(input CharacterCreateInput) (*character.Character, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	if input.MaximumHP <= 0 {
		return nil, fmt.Errorf("maximum_hp must be positive")
	}

	die := character.D8
	if strings.TrimSpace(input.HitDie) != "" {
		parsed, err := character.ParseDieType(input.HitDie)
		if err != nil {
			return nil, err
		}
		die = parsed
	}
	level := input.Level
	if level <= 0 {
		level = 1
	}

	record := &character.Character{
		ID:    input.ID,
		Name:  input.Name,
		Class: input.Class,
		Level: level,
		Abilities: character.AbilityScores{
			Strength:     input.Abilities.Strength,
			Dexterity:    input.Abilities.Dexterity,
			Constitution: input.Abilities.Constitution,
			Intelligence: input.Abilities.Intelligence,
			Wisdom:       input.Abilities.Wisdom,
			Charisma:     input.Abilities.Charisma,
		},
		HP:      character.HitPoints{Maximum: input.MaximumHP, Current: input.MaximumHP},
		HitDice: character.HitDice{Total: level, Die: die},
	}

	if len(input.SpellSlots) > 0 {
		totals := make(map[int]int, len(input.SpellSlots))
		for key, total := range input.SpellSlots {
			level, err := strconv.Atoi(key)
			if err != nil || level < 1 || level > 9 {
				return nil, fmt.Errorf("spell slot level %q must be 1 through 9", key)
			}
			totals[level] = total
		}
		record.Spellcasting = character.NewSpellcasting(totals)
	}
	if len(input.Items) > 0 {
		record.Inventory = character.Inventory{Items: make(map[string]int, len(input.Items))}
		for name, quantity := range input.Items {
			record.Inventory.Items[name] = quantity
		}
	}
	return record, nil
}

// CharacterGetInput represents the MCP tool input for one character sheet.
type CharacterGetInput struct {
	SessionID   string `json:"session_id" jsonschema:"session identifier"`
	CharacterID string `json:"character_id" jsonschema:"character identifier"`
}

// CharacterGetResult represents the MCP tool output for one character sheet.
type CharacterGetResult struct {
	Sheet json.RawMessage `json:"sheet" jsonschema:"the full character record as JSON"`
}

// CharacterGetTool defines the MCP tool schema for reading a sheet.
func CharacterGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "character_get",
		Description: "Renders one roster member's full record: HP, abilities, hit dice, death saves, spell slots, inventory and active effects.",
	}
}

// CharacterGetHandler renders one character sheet.
func CharacterGetHandler(registry *app.Registry) mcp.ToolHandlerFor[CharacterGetInput, CharacterGetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CharacterGetInput) (*mcp.CallToolResult, CharacterGetResult, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, CharacterGetResult{}, err
		}
		sheet, err := session.CharacterSheet(ctx, input.CharacterID)
		if err != nil {
			return nil, CharacterGetResult{}, err
		}
		return nil, CharacterGetResult{Sheet: sheet}, nil
	}
}

// CharacterListInput represents the MCP tool input for listing the roster.
type CharacterListInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier"`
}

// CharacterListResult represents the MCP tool output for the roster listing.
type CharacterListResult struct {
	Characters []app.RosterEntry `json:"characters" jsonschema:"roster members in creation order"`
}

// CharacterListTool defines the MCP tool schema for listing the roster.
func CharacterListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "character_list",
		Description: "Lists the session's characters and monsters with HP and active conditions.",
	}
}

// CharacterListHandler lists a session's roster.
func CharacterListHandler(registry *app.Registry) mcp.ToolHandlerFor[CharacterListInput, CharacterListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CharacterListInput) (*mcp.CallToolResult, CharacterListResult, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, CharacterListResult{}, err
		}
		entries, err := session.Roster(ctx)
		if err != nil {
			return nil, CharacterListResult{}, err
		}
		return nil, CharacterListResult{Characters: entries}, nil
	}
}

// MonsterSpawnInput represents the MCP tool input for spawning a monster.
type MonsterSpawnInput struct {
	SessionID  string `json:"session_id" jsonschema:"session identifier"`
	Template   string `json:"template" jsonschema:"bestiary statblock name"`
	ID         string `json:"character_id,omitempty" jsonschema:"optional identifier; derived from the template name when empty"`
	Initiative *int   `json:"initiative,omitempty" jsonschema:"optional initiative roll to join a running combat with"`
}

// MonsterSpawnTool defines the MCP tool schema for spawning a monster.
func MonsterSpawnTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "monster_spawn",
		Description: "Instantiates a bestiary template into the roster at full HP. Supplying an initiative roll joins the monster into a running combat, mid-round if necessary.",
	}
}

// MonsterSpawnHandler spawns one monster from the bestiary.
func MonsterSpawnHandler(registry *app.Registry) mcp.ToolHandlerFor[MonsterSpawnInput, app.SpawnReport] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MonsterSpawnInput) (*mcp.CallToolResult, app.SpawnReport, error) {
		session, err := lookupSession(registry, input.SessionID)
		if err != nil {
			return nil, app.SpawnReport{}, err
		}
		if strings.TrimSpace(input.Template) == "" {
			return nil, app.SpawnReport{}, fmt.Errorf("template is required")
		}
		report, err := session.SpawnMonster(ctx, input.Template, input.ID, input.Initiative)
		if err != nil {
			return nil, app.SpawnReport{}, err
		}
		return nil, report, nil
	}
}
