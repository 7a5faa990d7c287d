// Package command implements state changes as a closed set of flat
// commands executed against combatant records.
//
// Commands travel as small JSON objects discriminated by a "type" field
// so upstream tooling can emit them without knowing the engine's types.
// Atomic commands go to the Executor, which applies them through the
// character capability interfaces and reports per-command Results. The
// Rest meta-command never reaches the Executor directly: the
// Orchestrator expands it into atomic steps first.
package command

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/louisbranch/initiative-engine/internal/platform/errors"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/character"
)

// Tag discriminates command variants on the wire and in dispatch.
type Tag string

const (
	TagHPChange  Tag = "hp_change"
	TagCondition Tag = "condition"
	TagEffect    Tag = "effect"
	TagSpellSlot Tag = "spell_slot"
	TagHitDice   Tag = "hit_dice"
	TagItem      Tag = "item"
	TagDeathSave Tag = "death_save"
	TagRest      Tag = "rest"
)

// Action selects the add/remove/use/restore arm of a command variant.
type Action string

const (
	ActionAdd     Action = "add"
	ActionRemove  Action = "remove"
	ActionUse     Action = "use"
	ActionRestore Action = "restore"
)

// SaveResult is the outcome recorded by a death save command.
type SaveResult string

const (
	SaveSuccess SaveResult = "success"
	SaveFailure SaveResult = "failure"
	SaveReset   SaveResult = "reset"
)

// RestType selects the rest variant a Rest meta-command expands into.
type RestType string

const (
	RestShort RestType = "short"
	RestLong  RestType = "long"
)

// Command is the closed set of state-change commands. Only the variants
// in this package implement it; dispatch is by Tag, never by reflection.
type Command interface {
	Tag() Tag
	CharacterID() string

	isCommand()
}

// HPChange adjusts hit points. Negative Change deals damage, positive
// heals, and Temporary grants a temporary pool instead of healing.
type HPChange struct {
	Character  string               `json:"character_id"`
	Change     int                  `json:"change"`
	Temporary  bool                 `json:"is_temporary,omitempty"`
	DamageType character.DamageType `json:"damage_type,omitempty"`
}

func (HPChange) Tag() Tag              { return TagHPChange }
func (c HPChange) CharacterID() string { return c.Character }
func (HPChange) isCommand()            {}

// Condition adds or removes one of the standard status conditions.
// DurationType is required on add.
type Condition struct {
	Character    string                 `json:"character_id"`
	Action       Action                 `json:"action"`
	Condition    character.Condition    `json:"condition"`
	DurationType character.DurationType `json:"duration_type,omitempty"`
	Duration     int                    `json:"duration,omitempty"`
}

func (Condition) Tag() Tag              { return TagCondition }
func (c Condition) CharacterID() string { return c.Character }
func (Condition) isCommand()            {}

// Effect adds or removes a named buff, debuff or spell effect.
// Description is required on add; an add over an active effect with the
// same name replaces it.
type Effect struct {
	Character    string                 `json:"character_id"`
	Action       Action                 `json:"action"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description,omitempty"`
	Summary      string                 `json:"summary,omitempty"`
	EffectType   character.EffectKind   `json:"effect_type,omitempty"`
	DurationType character.DurationType `json:"duration_type,omitempty"`
	Duration     int                    `json:"duration,omitempty"`
}

func (Effect) Tag() Tag              { return TagEffect }
func (c Effect) CharacterID() string { return c.Character }
func (Effect) isCommand()            {}

// SpellSlot expends or restores spell slots at one level. Count applies
// to restore and defaults to one.
type SpellSlot struct {
	Character string `json:"character_id"`
	Action    Action `json:"action"`
	Level     int    `json:"level"`
	SpellName string `json:"spell_name,omitempty"`
	Count     int    `json:"count,omitempty"`
}

func (SpellSlot) Tag() Tag              { return TagSpellSlot }
func (c SpellSlot) CharacterID() string { return c.Character }
func (SpellSlot) isCommand()            {}

// HitDice spends or recovers hit dice. A restore with Count zero is the
// long-rest form: it recovers half the spent dice, minimum one.
type HitDice struct {
	Character string `json:"character_id"`
	Action    Action `json:"action"`
	Count     int    `json:"count,omitempty"`
}

func (HitDice) Tag() Tag              { return TagHitDice }
func (c HitDice) CharacterID() string { return c.Character }
func (HitDice) isCommand()            {}

// Item consumes, adds or discards inventory items. Quantity defaults to
// one.
type Item struct {
	Character string `json:"character_id"`
	Action    Action `json:"action"`
	Name      string `json:"item_name"`
	Quantity  int    `json:"quantity,omitempty"`
}

func (Item) Tag() Tag              { return TagItem }
func (c Item) CharacterID() string { return c.Character }
func (Item) isCommand()            {}

// DeathSave records a death saving throw outcome, or resets both
// counters on stabilization. Count defaults to one; critical rolls
// record two.
type DeathSave struct {
	Character string     `json:"character_id"`
	Result    SaveResult `json:"result"`
	Count     int        `json:"count,omitempty"`
}

func (DeathSave) Tag() Tag              { return TagDeathSave }
func (c DeathSave) CharacterID() string { return c.Character }
func (DeathSave) isCommand()            {}

// Rest is the short/long rest meta-command. It is orchestrator input
// only; the Executor rejects it.
type Rest struct {
	Character    string   `json:"character_id"`
	Type         RestType `json:"rest_type"`
	HitDiceSpent int      `json:"hit_dice_spent,omitempty"`
}

func (Rest) Tag() Tag              { return TagRest }
func (c Rest) CharacterID() string { return c.Character }
func (Rest) isCommand()            {}

// Decode reads one command from its wire form, selecting the concrete
// variant by the "type" field.
func Decode(data []byte) (Command, error) {
	var envelope struct {
		Type Tag `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeCommandInvalid, "decode command envelope", err)
	}
	switch envelope.Type {
	case TagHPChange:
		return decodePayload[HPChange](data)
	case TagCondition:
		return decodePayload[Condition](data)
	case TagEffect:
		return decodePayload[Effect](data)
	case TagSpellSlot:
		return decodePayload[SpellSlot](data)
	case TagHitDice:
		return decodePayload[HitDice](data)
	case TagItem:
		return decodePayload[Item](data)
	case TagDeathSave:
		return decodePayload[DeathSave](data)
	case TagRest:
		return decodePayload[Rest](data)
	case "":
		return nil, apperrors.New(apperrors.CodeCommandInvalid, "command type is required")
	default:
		return nil, apperrors.WithMetadata(apperrors.CodeCommandUnknown, "unknown command type",
			map[string]string{"type": string(envelope.Type)})
	}
}

// DecodeBatch reads a JSON array of commands, preserving order.
func DecodeBatch(data []byte) ([]Command, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeCommandInvalid, "decode command batch", err)
	}
	cmds := make([]Command, 0, len(raw))
	for i, message := range raw {
		cmd, err := Decode(message)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeCommandInvalid, fmt.Sprintf("command %d", i), err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func decodePayload[C Command](data []byte) (Command, error) {
	var cmd C
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeCommandInvalid, "decode "+string(cmd.Tag())+" command", err)
	}
	return cmd, nil
}
