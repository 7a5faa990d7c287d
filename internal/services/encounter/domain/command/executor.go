package command

import (
	"fmt"
	"strings"

	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/character"
)

// CharacterLookup resolves a character id to its combatant record. It
// reports false when the id is unknown.
type CharacterLookup func(id string) (character.Combatant, bool)

type handler func(cmd Command, target character.Combatant) Result

// Executor applies atomic commands to combatant records supplied by a
// lookup. Records are mutated in place; persisting them afterward is the
// caller's responsibility. A failed command never mutates state.
type Executor struct {
	lookup   CharacterLookup
	handlers map[Tag]handler
}

// NewExecutor builds an executor over a character lookup.
func NewExecutor(lookup CharacterLookup) *Executor {
	e := &Executor{lookup: lookup}
	e.handlers = map[Tag]handler{
		TagHPChange:  e.hpChange,
		TagCondition: e.condition,
		TagEffect:    e.effect,
		TagSpellSlot: e.spellSlot,
		TagHitDice:   e.hitDice,
		TagItem:      e.item,
		TagDeathSave: e.deathSave,
		TagRest:      e.rest,
	}
	return e
}

// Execute applies one command and reports the outcome. Expected
// failures come back as unsuccessful Results, never as panics.
func (e *Executor) Execute(cmd Command) Result {
	target, found := e.lookup(cmd.CharacterID())
	if !found {
		return fail(cmd, fmt.Sprintf("Character '%s' not found", cmd.CharacterID()))
	}
	apply, known := e.handlers[cmd.Tag()]
	if !known {
		return fail(cmd, fmt.Sprintf("No handler found for command type '%s'", cmd.Tag()))
	}
	return apply(cmd, target)
}

// ExecuteBatch applies commands in order. Commands are independent: a
// failure does not stop the batch.
func (e *Executor) ExecuteBatch(cmds []Command) BatchResult {
	results := make([]Result, 0, len(cmds))
	for _, cmd := range cmds {
		results = append(results, e.Execute(cmd))
	}
	return newBatchResult(results)
}

func (e *Executor) hpChange(cmd Command, target character.Combatant) Result {
	c := cmd.(HPChange)
	hp := target.HitPoints()

	switch {
	case c.Temporary:
		if c.Change <= 0 {
			return fail(c, "Temporary HP must be positive")
		}
		previous := hp.Temporary
		pool := target.GrantTemporaryHP(c.Change)
		return ok(c, fmt.Sprintf("Granted %d temporary HP (total: %d)", c.Change, pool), map[string]any{
			"previous_temp_hp": previous,
			"granted":          c.Change,
			"new_temp_hp":      pool,
			"actual_change":    pool - previous,
		})

	case c.Change < 0:
		amount := -c.Change
		previousHP := hp.Current
		previousTemp := hp.Temporary
		breakdown := target.TakeDamage(amount)

		first := fmt.Sprintf("Took %d damage", amount)
		if c.DamageType != "" {
			first = fmt.Sprintf("Took %d (%s) damage", amount, c.DamageType)
		}
		parts := []string{first}
		if breakdown.TempAbsorbed > 0 {
			parts = append(parts, fmt.Sprintf("%d absorbed by temp HP", breakdown.TempAbsorbed))
		}
		if breakdown.HPDamage > 0 {
			parts = append(parts, fmt.Sprintf("%d to HP", breakdown.HPDamage))
		}
		if breakdown.CurrentHP == 0 && previousHP > 0 {
			parts = append(parts, "Character is now unconscious!")
		}

		details := map[string]any{
			"damage_amount":    amount,
			"temp_absorbed":    breakdown.TempAbsorbed,
			"actual_damage":    breakdown.HPDamage,
			"previous_hp":      previousHP,
			"previous_temp_hp": previousTemp,
			"current_hp":       breakdown.CurrentHP,
			"temp_hp":          hp.Temporary,
			"is_bloodied":      hp.IsBloodied(),
			"is_unconscious":   hp.IsUnconscious(),
		}
		if c.DamageType != "" {
			details["damage_type"] = string(c.DamageType)
		}
		return ok(c, strings.Join(parts, ", "), details)

	case c.Change > 0:
		previous := hp.Current
		healed := target.Heal(c.Change)
		return ok(c, fmt.Sprintf("Healed %d HP (now %d/%d)", healed, hp.Current, hp.Maximum), map[string]any{
			"heal_amount":    c.Change,
			"actual_healing": healed,
			"previous_hp":    previous,
			"current_hp":     hp.Current,
			"at_max_hp":      hp.Current == hp.Maximum,
		})

	default:
		return ok(c, "No HP change (change was 0)", map[string]any{"change": 0})
	}
}

func (e *Executor) condition(cmd Command, target character.Combatant) Result {
	c := cmd.(Condition)
	cond, valid := character.ParseCondition(string(c.Condition))
	if !valid {
		return fail(c, fmt.Sprintf("Unknown condition '%s'", c.Condition))
	}
	display := cond.DisplayName()

	switch c.Action {
	case ActionAdd:
		if c.DurationType == "" {
			return fail(c, "Condition add requires a duration type")
		}
		durationType, valid := character.ParseDurationType(string(c.DurationType))
		if !valid {
			return fail(c, fmt.Sprintf("Unknown duration type '%s'", c.DurationType))
		}
		if hasEffect(target, display) {
			return fail(c, fmt.Sprintf("%s already has condition '%s'", target.DisplayName(), display))
		}
		target.AddEffect(character.Effect{
			Name:              display,
			Kind:              character.EffectCondition,
			DurationType:      durationType,
			DurationRemaining: c.Duration,
		})
		return ok(c, fmt.Sprintf("Added condition '%s'", display), map[string]any{
			"condition":     string(cond),
			"duration_type": string(durationType),
			"duration":      c.Duration,
		})

	case ActionRemove:
		if !target.RemoveEffect(display) {
			return fail(c, fmt.Sprintf("%s does not have condition '%s'", target.DisplayName(), display))
		}
		return ok(c, fmt.Sprintf("Removed condition '%s'", display), map[string]any{
			"condition": string(cond),
		})

	default:
		return fail(c, fmt.Sprintf("Unknown condition action '%s'", c.Action))
	}
}

func (e *Executor) effect(cmd Command, target character.Combatant) Result {
	c := cmd.(Effect)
	if strings.TrimSpace(c.Name) == "" {
		return fail(c, "Effect name is required")
	}

	switch c.Action {
	case ActionAdd:
		if strings.TrimSpace(c.Description) == "" {
			return fail(c, "Effect add requires a description")
		}
		kind := c.EffectType
		if kind == "" {
			kind = character.EffectBuff
		}
		switch kind {
		case character.EffectBuff, character.EffectDebuff, character.EffectSpell, character.EffectCondition:
			// allowed
		default:
			return fail(c, fmt.Sprintf("Unknown effect type '%s'", c.EffectType))
		}
		durationType := character.DurationPermanent
		if c.DurationType != "" {
			parsed, valid := character.ParseDurationType(string(c.DurationType))
			if !valid {
				return fail(c, fmt.Sprintf("Unknown duration type '%s'", c.DurationType))
			}
			durationType = parsed
		}
		replaced := target.AddEffect(character.Effect{
			Name:              c.Name,
			Kind:              kind,
			DurationType:      durationType,
			DurationRemaining: c.Duration,
			Description:       c.Description,
			Summary:           c.Summary,
		})
		message := fmt.Sprintf("Added effect '%s'", c.Name)
		if replaced {
			message = fmt.Sprintf("Replaced effect '%s'", c.Name)
		}
		return ok(c, message, map[string]any{
			"effect_type":   string(kind),
			"duration_type": string(durationType),
			"duration":      c.Duration,
			"replaced":      replaced,
		})

	case ActionRemove:
		if !target.RemoveEffect(c.Name) {
			return fail(c, fmt.Sprintf("%s has no active effect '%s'", target.DisplayName(), c.Name))
		}
		return ok(c, fmt.Sprintf("Removed effect '%s'", c.Name), nil)

	default:
		return fail(c, fmt.Sprintf("Unknown effect action '%s'", c.Action))
	}
}

func (e *Executor) spellSlot(cmd Command, target character.Combatant) Result {
	c := cmd.(SpellSlot)
	caster, isCaster := target.(character.Spellcaster)
	if !isCaster || caster.SpellSlots() == nil {
		return fail(c, fmt.Sprintf("%s has no spell slots", target.DisplayName()))
	}
	if c.Level < 1 || c.Level > 9 {
		return fail(c, fmt.Sprintf("Spell level must be 1-9, got %d", c.Level))
	}
	slots := caster.SpellSlots()

	switch c.Action {
	case ActionUse:
		if !slots.UseSlot(c.Level) {
			return fail(c, fmt.Sprintf("No level %d spell slots remaining", c.Level))
		}
		remaining := slots.Level(c.Level).Remaining()
		message := fmt.Sprintf("Used a level %d spell slot (%d remaining)", c.Level, remaining)
		details := map[string]any{"level": c.Level, "remaining": remaining}
		if c.SpellName != "" {
			message = fmt.Sprintf("Cast %s using a level %d slot (%d remaining)", c.SpellName, c.Level, remaining)
			details["spell_name"] = c.SpellName
		}
		return ok(c, message, details)

	case ActionRestore:
		count := c.Count
		if count <= 0 {
			count = 1
		}
		restored := slots.RestoreSlots(c.Level, count)
		remaining := 0
		if slot := slots.Level(c.Level); slot != nil {
			remaining = slot.Remaining()
		}
		return ok(c, fmt.Sprintf("Restored %d level %d spell slot%s (%d available)",
			restored, c.Level, plural(restored), remaining), map[string]any{
			"level":     c.Level,
			"requested": count,
			"restored":  restored,
			"remaining": remaining,
		})

	default:
		return fail(c, fmt.Sprintf("Unknown spell slot action '%s'", c.Action))
	}
}

func (e *Executor) hitDice(cmd Command, target character.Combatant) Result {
	c := cmd.(HitDice)
	owner, hasDice := target.(character.HitDiceOwner)
	if !hasDice {
		return fail(c, fmt.Sprintf("%s has no hit dice", target.DisplayName()))
	}
	pool := owner.HitDicePool()

	switch c.Action {
	case ActionUse:
		count := c.Count
		if count <= 0 {
			count = 1
		}
		if remaining := pool.Remaining(); count > remaining {
			return fail(c, fmt.Sprintf("Only %d hit %s remaining (wanted %d)", remaining, diceWord(remaining), count))
		}
		spent := pool.Spend(count)
		return ok(c, fmt.Sprintf("Spent %d hit %s (%d remaining)", spent, diceWord(spent), pool.Remaining()), map[string]any{
			"spent":     spent,
			"remaining": pool.Remaining(),
		})

	case ActionRestore:
		var restored int
		if c.Count <= 0 {
			restored = pool.RestoreOnLongRest()
		} else {
			restored = pool.Restore(c.Count)
		}
		return ok(c, fmt.Sprintf("Recovered %d hit %s (%d/%d available)",
			restored, diceWord(restored), pool.Remaining(), pool.Total), map[string]any{
			"restored":  restored,
			"remaining": pool.Remaining(),
			"total":     pool.Total,
		})

	default:
		return fail(c, fmt.Sprintf("Unknown hit dice action '%s'", c.Action))
	}
}

func (e *Executor) item(cmd Command, target character.Combatant) Result {
	c := cmd.(Item)
	owner, hasItems := target.(character.ItemOwner)
	if !hasItems {
		return fail(c, fmt.Sprintf("%s carries no items", target.DisplayName()))
	}
	if strings.TrimSpace(c.Name) == "" {
		return fail(c, "Item name is required")
	}
	items := owner.Items()
	quantity := c.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	switch c.Action {
	case ActionUse, ActionRemove:
		if items.Quantity(c.Name) == 0 {
			return fail(c, fmt.Sprintf("%s has no '%s'", target.DisplayName(), c.Name))
		}
		removed := items.Consume(c.Name, quantity)
		verb := "Used"
		if c.Action == ActionRemove {
			verb = "Removed"
		}
		return ok(c, fmt.Sprintf("%s %d '%s' (%d remaining)", verb, removed, c.Name, items.Quantity(c.Name)), map[string]any{
			"item":      c.Name,
			"consumed":  removed,
			"remaining": items.Quantity(c.Name),
		})

	case ActionAdd:
		total := items.Add(c.Name, quantity)
		return ok(c, fmt.Sprintf("Added %d '%s' (now %d)", quantity, c.Name, total), map[string]any{
			"item":  c.Name,
			"added": quantity,
			"total": total,
		})

	default:
		return fail(c, fmt.Sprintf("Unknown item action '%s'", c.Action))
	}
}

func (e *Executor) deathSave(cmd Command, target character.Combatant) Result {
	c := cmd.(DeathSave)
	owner, tracksSaves := target.(character.DeathSaveOwner)
	if !tracksSaves {
		return fail(c, fmt.Sprintf("%s does not track death saves", target.DisplayName()))
	}
	saves := owner.DeathSaveCounters()
	count := c.Count
	if count <= 0 {
		count = 1
	}

	switch c.Result {
	case SaveSuccess:
		total := saves.AddSuccesses(count)
		message := fmt.Sprintf("Death save success (%d/3)", total)
		if saves.IsStable() {
			message += ", character is stable"
		}
		return ok(c, message, saveDetails(saves))

	case SaveFailure:
		total := saves.AddFailures(count)
		message := fmt.Sprintf("Death save failure (%d/3)", total)
		if saves.IsDead() {
			message += ", character has died"
		}
		return ok(c, message, saveDetails(saves))

	case SaveReset:
		saves.Reset()
		return ok(c, "Death saves reset", saveDetails(saves))

	default:
		return fail(c, fmt.Sprintf("Unknown death save result '%s'", c.Result))
	}
}

func (e *Executor) rest(cmd Command, _ character.Combatant) Result {
	return fail(cmd, "Rest commands must go through the orchestrator")
}

func saveDetails(saves *character.DeathSaves) map[string]any {
	return map[string]any{
		"successes": saves.Successes,
		"failures":  saves.Failures,
		"is_stable": saves.IsStable(),
		"is_dead":   saves.IsDead(),
	}
}

func hasEffect(target character.Combatant, name string) bool {
	for _, effect := range target.Effects() {
		if strings.EqualFold(effect.Name, name) {
			return true
		}
	}
	return false
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func diceWord(n int) string {
	if n == 1 {
		return "die"
	}
	return "dice"
}
