package character

import (
	"fmt"
	"strings"
)

// DurationType describes how an effect's lifetime is measured.
type DurationType string

const (
	DurationRounds         DurationType = "rounds"
	DurationMinutes        DurationType = "minutes"
	DurationHours          DurationType = "hours"
	DurationUntilLongRest  DurationType = "until_long_rest"
	DurationUntilShortRest DurationType = "until_short_rest"
	DurationPermanent      DurationType = "permanent"
	DurationConcentration  DurationType = "concentration"
)

// ParseDurationType reads a duration type case-insensitively.
func ParseDurationType(value string) (DurationType, bool) {
	switch DurationType(strings.ToLower(strings.TrimSpace(value))) {
	case DurationRounds:
		return DurationRounds, true
	case DurationMinutes:
		return DurationMinutes, true
	case DurationHours:
		return DurationHours, true
	case DurationUntilLongRest:
		return DurationUntilLongRest, true
	case DurationUntilShortRest:
		return DurationUntilShortRest, true
	case DurationPermanent:
		return DurationPermanent, true
	case DurationConcentration:
		return DurationConcentration, true
	default:
		return "", false
	}
}

// EffectKind classifies an effect for display and extraction.
type EffectKind string

const (
	EffectBuff      EffectKind = "buff"
	EffectDebuff    EffectKind = "debuff"
	EffectSpell     EffectKind = "spell"
	EffectCondition EffectKind = "condition"
)

// Effect is a named modifier active on a combatant: a buff, debuff, spell
// effect, or tracked condition.
type Effect struct {
	Name              string       `json:"name"`
	Kind              EffectKind   `json:"kind"`
	DurationType      DurationType `json:"duration_type"`
	DurationRemaining int          `json:"duration_remaining"`
	Source            string       `json:"source,omitempty"`
	Description       string       `json:"description,omitempty"`
	Summary           string       `json:"summary,omitempty"`
}

// IsPermanent reports whether rest and round ticking never remove the effect.
func (e Effect) IsPermanent() bool {
	return e.DurationType == DurationPermanent
}

// Tick decrements a round-based duration. It reports whether the effect
// expired on this tick.
func (e *Effect) Tick() bool {
	if e.DurationType != DurationRounds && e.DurationType != DurationConcentration {
		return false
	}
	if e.DurationRemaining <= 0 {
		return false
	}
	e.DurationRemaining--
	return e.DurationRemaining == 0
}

// Label renders a compact display such as "Blessed: +1d4 to attacks [3r]".
func (e Effect) Label() string {
	text := e.Summary
	if text == "" {
		text = e.Description
	}

	var suffix string
	switch e.DurationType {
	case DurationRounds:
		suffix = fmt.Sprintf("%dr", e.DurationRemaining)
	case DurationMinutes:
		suffix = fmt.Sprintf("%dm", e.DurationRemaining)
	case DurationHours:
		suffix = fmt.Sprintf("%dh", e.DurationRemaining)
	case DurationUntilLongRest:
		suffix = "until long rest"
	case DurationUntilShortRest:
		suffix = "until short rest"
	case DurationConcentration:
		suffix = "conc"
	case DurationPermanent:
		suffix = "permanent"
	}

	if text == "" {
		if suffix == "" {
			return e.Name
		}
		return fmt.Sprintf("%s [%s]", e.Name, suffix)
	}
	if suffix == "" {
		return fmt.Sprintf("%s: %s", e.Name, text)
	}
	return fmt.Sprintf("%s: %s [%s]", e.Name, text, suffix)
}

// upsertEffect replaces an active effect with the same name (matched
// case-insensitively) or appends a new one.
func upsertEffect(effects []Effect, effect Effect) ([]Effect, bool) {
	for i := range effects {
		if strings.EqualFold(effects[i].Name, effect.Name) {
			effects[i] = effect
			return effects, true
		}
	}
	return append(effects, effect), false
}

// deleteEffect removes an effect by name, case-insensitively.
func deleteEffect(effects []Effect, name string) ([]Effect, bool) {
	for i := range effects {
		if strings.EqualFold(effects[i].Name, name) {
			return append(effects[:i], effects[i+1:]...), true
		}
	}
	return effects, false
}

// conditionDisplay lists condition-kind effects plus derived HP states.
func conditionDisplay(effects []Effect, hp HitPoints) []string {
	var names []string
	for _, effect := range effects {
		if effect.Kind == EffectCondition {
			names = append(names, effect.Name)
		}
	}
	if hp.IsUnconscious() {
		names = append(names, ConditionUnconscious.DisplayName())
	} else if hp.IsBloodied() {
		names = append(names, "Bloodied")
	}
	return names
}
