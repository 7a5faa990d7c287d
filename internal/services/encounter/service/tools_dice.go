package service

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/initiative-engine/internal/core/check"
	"github.com/louisbranch/initiative-engine/internal/core/dice"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/app"
)

func registerDiceTools(server *mcp.Server, _ *app.Registry) {
	mcp.AddTool(server, DiceRollTool(), DiceRollHandler())
}

// DiceRollSpec represents an MCP die specification for a roll.
type DiceRollSpec struct {
	Sides int `json:"sides" jsonschema:"number of sides for the die"`
	Count int `json:"count" jsonschema:"number of dice to roll"`
}

// DiceRollInput represents the MCP tool input for rolling dice.
type DiceRollInput struct {
	Dice       []DiceRollSpec `json:"dice" jsonschema:"dice specifications to roll"`
	Seed       *int64         `json:"seed,omitempty" jsonschema:"optional seed for deterministic rolls"`
	Difficulty *int           `json:"difficulty,omitempty" jsonschema:"optional difficulty class to check the grand total against"`
}

// DiceRollCheck reports how the grand total fared against a difficulty class.
type DiceRollCheck struct {
	Difficulty int  `json:"difficulty" jsonschema:"difficulty class the total was checked against"`
	Success    bool `json:"success" jsonschema:"whether the total met or beat the difficulty"`
	Margin     int  `json:"margin" jsonschema:"total minus difficulty; negative on failure"`
}

// DiceRollRoll represents the results for a single dice spec.
type DiceRollRoll struct {
	Sides   int   `json:"sides" jsonschema:"number of sides for the die"`
	Results []int `json:"results" jsonschema:"individual roll results"`
	Total   int   `json:"total" jsonschema:"sum of the roll results"`
}

// DiceRollResult represents the MCP tool output for rolling dice.
type DiceRollResult struct {
	Rolls    []DiceRollRoll `json:"rolls" jsonschema:"results for each dice spec"`
	Total    int            `json:"total" jsonschema:"sum of all roll totals"`
	SeedUsed int64          `json:"seed_used" jsonschema:"seed value used for the roll"`
	Check    *DiceRollCheck `json:"check,omitempty" jsonschema:"difficulty check outcome, present when a difficulty was given"`
}

// DiceRollTool defines the MCP tool schema for rolling dice.
func DiceRollTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "dice_roll",
		Description: "Rolls arbitrary dice pools. Rolls are deterministic for a given seed.",
	}
}

// DiceRollHandler rolls dice pools outside of any session.
func DiceRollHandler() mcp.ToolHandlerFor[DiceRollInput, DiceRollResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DiceRollInput) (*mcp.CallToolResult, DiceRollResult, error) {
		specs := make([]dice.Spec, 0, len(input.Dice))
		for _, spec := range input.Dice {
			specs = append(specs, dice.Spec{Sides: spec.Sides, Count: spec.Count})
		}
		seed := time.Now().UnixNano()
		if input.Seed != nil {
			seed = *input.Seed
		}

		rolled, err := dice.RollDice(dice.Request{Dice: specs, Seed: seed})
		if err != nil {
			return nil, DiceRollResult{}, err
		}

		result := DiceRollResult{Total: rolled.Total, SeedUsed: seed}
		if input.Difficulty != nil {
			outcome := check.Check(rolled.Total, *input.Difficulty)
			result.Check = &DiceRollCheck{
				Difficulty: *input.Difficulty,
				Success:    outcome.Success,
				Margin:     outcome.Margin,
			}
		}
		for _, roll := range rolled.Rolls {
			result.Rolls = append(result.Rolls, DiceRollRoll{
				Sides:   roll.Sides,
				Results: roll.Results,
				Total:   roll.Total,
			})
		}
		return nil, result, nil
	}
}
