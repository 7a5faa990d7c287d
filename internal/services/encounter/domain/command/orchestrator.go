package command

import (
	"fmt"

	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/character"
)

// shortRestDieAverage is the average of a d10. Short-rest healing always
// assumes a d10 hit die regardless of the die recorded on the character.
// TODO: derive from the character's recorded hit die instead.
const shortRestDieAverage = 6

// conScorer is satisfied by combatants that expose a constitution
// modifier for hit-die healing.
type conScorer interface {
	ConstitutionModifier() int
}

// Orchestrator expands meta-commands into atomic commands and runs the
// whole batch through an Executor. The only meta-command today is Rest.
type Orchestrator struct {
	executor *Executor
	lookup   CharacterLookup
}

// NewOrchestrator builds an orchestrator sharing the executor's
// character lookup.
func NewOrchestrator(executor *Executor) *Orchestrator {
	return &Orchestrator{executor: executor, lookup: executor.lookup}
}

// ExecuteBatch expands Rest commands, passes atomic commands through in
// order, and executes everything. Expansion failures (unknown character,
// unknown rest type) surface as failed results ahead of the executor's
// results; the batch totals count every result.
func (o *Orchestrator) ExecuteBatch(cmds []Command) BatchResult {
	expanded := make([]Command, 0, len(cmds))
	var expansionErrors []Result

	for _, cmd := range cmds {
		rest, isRest := cmd.(Rest)
		if !isRest {
			expanded = append(expanded, cmd)
			continue
		}
		target, found := o.lookup(rest.Character)
		if !found {
			expansionErrors = append(expansionErrors, fail(rest, fmt.Sprintf("Character '%s' not found", rest.Character)))
			continue
		}
		switch rest.Type {
		case RestShort:
			expanded = append(expanded, expandShortRest(rest, target)...)
		case RestLong:
			expanded = append(expanded, expandLongRest(rest, target)...)
		default:
			expansionErrors = append(expansionErrors, fail(rest, fmt.Sprintf("Unknown rest type '%s'", rest.Type)))
		}
	}

	executed := o.executor.ExecuteBatch(expanded)
	if len(expansionErrors) == 0 {
		return executed
	}
	return newBatchResult(append(expansionErrors, executed.Results...))
}

// expandShortRest converts spent hit dice into a use step plus the
// healing they grant. A rest that spends no dice expands to nothing.
func expandShortRest(cmd Rest, target character.Combatant) []Command {
	if cmd.HitDiceSpent <= 0 {
		return nil
	}
	healingPerDie := shortRestDieAverage
	if scorer, scored := target.(conScorer); scored {
		healingPerDie += scorer.ConstitutionModifier()
	}
	if healingPerDie < 1 {
		healingPerDie = 1
	}
	return []Command{
		HitDice{Character: cmd.Character, Action: ActionUse, Count: cmd.HitDiceSpent},
		HPChange{Character: cmd.Character, Change: cmd.HitDiceSpent * healingPerDie},
	}
}

// expandLongRest emits a full heal, the half-spent hit dice recovery,
// a restore for every expended spell level, and a remove for every
// non-permanent effect. Permanent effects are never touched.
func expandLongRest(cmd Rest, target character.Combatant) []Command {
	steps := []Command{
		HPChange{Character: cmd.Character, Change: target.HitPoints().Maximum},
	}
	if owner, hasDice := target.(character.HitDiceOwner); hasDice && owner.HitDicePool().Used > 0 {
		steps = append(steps, HitDice{Character: cmd.Character, Action: ActionRestore})
	}
	if caster, isCaster := target.(character.Spellcaster); isCaster {
		slots := caster.SpellSlots()
		for _, level := range slots.ExpendedLevels() {
			steps = append(steps, SpellSlot{
				Character: cmd.Character,
				Action:    ActionRestore,
				Level:     level,
				Count:     slots.Level(level).Used,
			})
		}
	}
	for _, effect := range target.Effects() {
		if effect.IsPermanent() {
			continue
		}
		steps = append(steps, Effect{Character: cmd.Character, Action: ActionRemove, Name: effect.Name})
	}
	return steps
}
