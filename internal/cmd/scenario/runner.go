package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/louisbranch/initiative-engine/internal/services/encounter/app"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/content"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/character"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/turn"
)

// runner walks a combat script's steps against one live session.
type runner struct {
	session *app.Session
	script  *content.CombatScript
	logger  *log.Logger
	out     io.Writer
}

func (r *runner) run(ctx context.Context) error {
	r.logger.Printf("running %q: %d steps", r.script.Name, len(r.script.Steps))
	for i, step := range r.script.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.dispatch(ctx, step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Kind, err)
		}
	}
	r.logger.Printf("finished %q", r.script.Name)
	return nil
}

func (r *runner) dispatch(ctx context.Context, step content.Step) error {
	switch step.Kind {
	case "character":
		return r.stepCharacter(ctx, step)
	case "spawn":
		return r.stepSpawn(ctx, step)
	case "start_combat":
		return r.stepStartCombat(ctx, step)
	case "initiative":
		return r.stepInitiative(ctx, step)
	case "action":
		return r.stepAction(ctx, step)
	case "submit":
		return r.stepSubmit(ctx, step)
	case "reaction":
		return r.stepReaction(ctx, step)
	case "end_turn":
		return r.stepEndTurn(ctx)
	case "commands":
		return r.stepCommands(ctx, step)
	case "advance":
		return r.stepAdvance(ctx)
	case "remove":
		return r.stepRemove(ctx, step)
	case "end_combat":
		_, err := r.session.BeginCombatEnd(ctx)
		return err
	case "finish":
		_, err := r.session.FinishCombat(ctx)
		return err
	case "status":
		return r.stepStatus(ctx)
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

// decodeArgs maps a step's Lua table onto a typed struct through JSON,
// so the script arg names match the MCP tool field names.
func decodeArgs(args map[string]any, target any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode step args: %w", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode step args: %w", err)
	}
	return nil
}

type characterArgs struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Class     string `json:"class"`
	Level     int    `json:"level"`
	Abilities struct {
		Strength     int `json:"strength"`
		Dexterity    int `json:"dexterity"`
		Constitution int `json:"constitution"`
		Intelligence int `json:"intelligence"`
		Wisdom       int `json:"wisdom"`
		Charisma     int `json:"charisma"`
	} `json:"abilities"`
	MaximumHP  int            `json:"max_hp"`
	HitDie     string         `json:"hit_die"`
	SpellSlots map[string]int `json:"spell_slots"`
	Items      map[string]int `json:"items"`
}

func (r *runner) stepCharacter(ctx context.Context, step content.Step) error {
	var args characterArgs
	if err := decodeArgs(step.Args, &args); err != nil {
		return err
	}
	record, err := buildCharacter(args)
	if err != nil {
		return err
	}
	if err := r.session.CreateCharacter(ctx, record); err != nil {
		return err
	}
	r.logger.Printf("character %s (%s) joined the roster", record.Name, record.ID)
	return nil
}

func buildCharacter(args characterArgs) (*character.Character, error) {
	if strings.TrimSpace(args.Name) == "" {
		return nil, fmt.Errorf("character name is required")
	}
	if args.MaximumHP <= 0 {
		return nil, fmt.Errorf("character max_hp must be positive")
	}

	die := character.D8
	if strings.TrimSpace(args.HitDie) != "" {
		parsed, err := character.ParseDieType(args.HitDie)
		if err != nil {
			return nil, err
		}
		die = parsed
	}
	level := args.Level
	if level <= 0 {
		level = 1
	}

	record := &character.Character{
		ID:    args.ID,
		Name:  args.Name,
		Class: args.Class,
		Level: level,
		Abilities: character.AbilityScores{
			Strength:     args.Abilities.Strength,
			Dexterity:    args.Abilities.Dexterity,
			Constitution: args.Abilities.Constitution,
			Intelligence: args.Abilities.Intelligence,
			Wisdom:       args.Abilities.Wisdom,
			Charisma:     args.Abilities.Charisma,
		},
		HP:      character.HitPoints{Maximum: args.MaximumHP, Current: args.MaximumHP},
		HitDice: character.HitDice{Total: level, Die: die},
	}

	if len(args.SpellSlots) > 0 {
		totals := make(map[int]int, len(args.SpellSlots))
		for key, total := range args.SpellSlots {
			slotLevel, err := strconv.Atoi(key)
			if err != nil || slotLevel < 1 || slotLevel > 9 {
				return nil, fmt.Errorf("spell slot level %q must be 1 through 9", key)
			}
			totals[slotLevel] = total
		}
		record.Spellcasting = character.NewSpellcasting(totals)
	}
	if len(args.Items) > 0 {
		record.Inventory = character.Inventory{Items: make(map[string]int, len(args.Items))}
		for name, quantity := range args.Items {
			record.Inventory.Items[name] = quantity
		}
	}
	return record, nil
}

func (r *runner) stepSpawn(ctx context.Context, step content.Step) error {
	var args struct {
		Template   string `json:"template"`
		ID         string `json:"id"`
		Initiative *int   `json:"initiative"`
	}
	if err := decodeArgs(step.Args, &args); err != nil {
		return err
	}
	report, err := r.session.SpawnMonster(ctx, args.Template, args.ID, args.Initiative)
	if err != nil {
		return err
	}
	r.logger.Printf("spawned %s (%s) with %d HP", report.Name, report.ID, report.HitPoints)
	return nil
}

// stepStartCombat opens an encounter. Without an explicit participant
// list the whole roster enters.
func (r *runner) stepStartCombat(ctx context.Context, step content.Step) error {
	var args struct {
		Participants []string `json:"participants"`
		Name         string   `json:"name"`
	}
	if err := decodeArgs(step.Args, &args); err != nil {
		return err
	}
	participants := args.Participants
	if len(participants) == 0 {
		roster, err := r.session.Roster(ctx)
		if err != nil {
			return err
		}
		for _, entry := range roster {
			participants = append(participants, entry.ID)
		}
	}
	report, err := r.session.StartCombat(ctx, participants, args.Name)
	if err != nil {
		return err
	}
	r.logger.Printf("combat started: %d participants", len(report.Participants))
	return nil
}

// stepInitiative records rolls and finalizes the order. A bare
// initiative() finalizes whatever has been rolled; {character, roll}
// records a single roll without finalizing; {rolls = {...}} records the
// whole table and then finalizes.
func (r *runner) stepInitiative(ctx context.Context, step content.Step) error {
	var args struct {
		Character string         `json:"character"`
		Roll      int            `json:"roll"`
		Rolls     map[string]int `json:"rolls"`
	}
	if err := decodeArgs(step.Args, &args); err != nil {
		return err
	}
	if args.Character != "" {
		_, err := r.session.RollInitiative(ctx, args.Character, args.Roll)
		return err
	}
	for id, roll := range args.Rolls {
		if _, err := r.session.RollInitiative(ctx, id, roll); err != nil {
			return err
		}
	}
	report, err := r.session.FinalizeInitiative(ctx)
	if err != nil {
		return err
	}
	r.logger.Printf("round %d: %s", report.Round, report.Summary)
	return nil
}

func (r *runner) stepAction(ctx context.Context, step content.Step) error {
	var args struct {
		Character  string   `json:"character"`
		Content    string   `json:"content"`
		Objectives []string `json:"objectives"`
	}
	if err := decodeArgs(step.Args, &args); err != nil {
		return err
	}
	report, err := r.session.StartTurn(ctx, app.TurnOptions{
		ActiveCharacter: args.Character,
		Content:         args.Content,
		StepObjectives:  args.Objectives,
	})
	if err != nil {
		return err
	}
	r.logger.Printf("turn %s opened for %s", report.TurnID, report.ActiveCharacter)
	return nil
}

func (r *runner) stepSubmit(ctx context.Context, step content.Step) error {
	var args struct {
		Character string `json:"character"`
		Text      string `json:"text"`
	}
	if err := decodeArgs(step.Args, &args); err != nil {
		return err
	}
	result, err := r.session.SubmitMessage(ctx, args.Character, args.Text)
	if err != nil {
		return err
	}
	if !result.Accepted {
		r.logger.Printf("submit rejected for %s: %s", args.Character, result.Message)
	}
	return nil
}

// stepReaction queues simultaneous reaction turns against the turn in
// play. Accepts a single {character, content} pair or an actions list.
func (r *runner) stepReaction(ctx context.Context, step content.Step) error {
	var args struct {
		Character string `json:"character"`
		Content   string `json:"content"`
		Actions   []struct {
			Character string `json:"character"`
			Content   string `json:"content"`
		} `json:"actions"`
	}
	if err := decodeArgs(step.Args, &args); err != nil {
		return err
	}
	var actions []turn.QueuedAction
	for _, action := range args.Actions {
		actions = append(actions, turn.QueuedAction{Speaker: action.Character, Content: action.Content})
	}
	if len(actions) == 0 {
		if args.Character == "" {
			return fmt.Errorf("reaction needs a character or an actions list")
		}
		actions = []turn.QueuedAction{{Speaker: args.Character, Content: args.Content}}
	}
	report, err := r.session.QueueTurns(ctx, actions, nil)
	if err != nil {
		return err
	}
	r.logger.Printf("queued %d reaction turn(s), %s active", len(report.Created), report.TurnID)
	return nil
}

func (r *runner) stepEndTurn(ctx context.Context) error {
	report, err := r.session.EndTurn(ctx)
	if err != nil {
		return err
	}
	if report.NextTurnID != "" {
		r.logger.Printf("turn ended, %s now in play", report.NextTurnID)
	}
	return nil
}

func (r *runner) stepCommands(ctx context.Context, step content.Step) error {
	var payload []byte
	if raw, ok := step.Args["json"].(string); ok {
		payload = []byte(raw)
	} else if commands, ok := step.Args["commands"]; ok {
		encoded, err := json.Marshal(commands)
		if err != nil {
			return fmt.Errorf("encode commands: %w", err)
		}
		payload = encoded
	} else {
		return fmt.Errorf("commands step needs a json string or a command table")
	}

	batch, err := r.session.ExecuteCommands(ctx, payload)
	if err != nil {
		return err
	}
	r.logger.Printf("commands: %d/%d succeeded", batch.Succeeded, batch.Total)
	for _, result := range batch.Results {
		if !result.Success {
			r.logger.Printf("  failed %s on %s: %s", result.Tag, result.CharacterID, result.Message)
		}
	}
	return nil
}

func (r *runner) stepAdvance(ctx context.Context) error {
	report, err := r.session.AdvanceCombat(ctx)
	if err != nil {
		return err
	}
	if report.NewRound {
		r.logger.Printf("round %d begins, %s acts", report.Round, report.Next)
	}
	return nil
}

func (r *runner) stepRemove(ctx context.Context, step content.Step) error {
	var args struct {
		Character string `json:"character"`
	}
	if err := decodeArgs(step.Args, &args); err != nil {
		return err
	}
	report, err := r.session.RemoveCombatant(ctx, args.Character)
	if err != nil {
		return err
	}
	if report.CombatOver {
		r.logger.Printf("%s removed; one side has been wiped out", args.Character)
	}
	return nil
}

func (r *runner) stepStatus(ctx context.Context) error {
	status, err := r.session.Status(ctx)
	if err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, string(encoded))
	return nil
}
