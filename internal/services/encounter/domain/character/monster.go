package character

import (
	"fmt"
	"strings"
)

// LegendaryAction is one entry in a monster's legendary action menu.
type LegendaryAction struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Cost        int    `json:"cost"`
}

// Monster is a GM-controlled combatant built from a statblock. It shares
// the Combatant surface with Character but tracks no spell slots, hit
// dice or death saves: a monster at zero HP is simply down.
type Monster struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	ChallengeRating   string            `json:"challenge_rating,omitempty"`
	ArmorClass        int               `json:"armor_class,omitempty"`
	Abilities         AbilityScores     `json:"abilities"`
	HP                HitPoints         `json:"hp"`
	ActiveEffects     []Effect          `json:"active_effects,omitempty"`
	LegendaryActions  []LegendaryAction `json:"legendary_actions,omitempty"`
	LegendaryPerRound int               `json:"legendary_per_round,omitempty"`
	LegendaryUsed     int               `json:"legendary_used,omitempty"`
}

// CombatantID implements Combatant.
func (m *Monster) CombatantID() string { return m.ID }

// DisplayName implements Combatant.
func (m *Monster) DisplayName() string { return m.Name }

// PlayerControlled implements Combatant.
func (m *Monster) PlayerControlled() bool { return false }

// HitPoints implements Combatant.
func (m *Monster) HitPoints() *HitPoints { return &m.HP }

// DexterityModifier implements Combatant.
func (m *Monster) DexterityModifier() int {
	return AbilityModifier(m.Abilities.Dexterity)
}

// TakeDamage implements Combatant.
func (m *Monster) TakeDamage(amount int) DamageBreakdown {
	return m.HP.Damage(amount)
}

// Heal implements Combatant.
func (m *Monster) Heal(amount int) int {
	return m.HP.Heal(amount)
}

// GrantTemporaryHP implements Combatant.
func (m *Monster) GrantTemporaryHP(amount int) int {
	return m.HP.GrantTemporary(amount)
}

// AddEffect implements Combatant.
func (m *Monster) AddEffect(effect Effect) bool {
	effects, replaced := upsertEffect(m.ActiveEffects, effect)
	m.ActiveEffects = effects
	return replaced
}

// RemoveEffect implements Combatant.
func (m *Monster) RemoveEffect(name string) bool {
	effects, removed := deleteEffect(m.ActiveEffects, name)
	m.ActiveEffects = effects
	return removed
}

// Effects implements Combatant.
func (m *Monster) Effects() []Effect { return m.ActiveEffects }

// ActiveConditions implements Combatant.
func (m *Monster) ActiveConditions() []string {
	return conditionDisplay(m.ActiveEffects, m.HP)
}

// TickRoundEffects advances round-scoped durations by one round and
// removes effects that expire, returning the expired names.
func (m *Monster) TickRoundEffects() []string {
	expired, remaining := tickEffects(m.ActiveEffects)
	m.ActiveEffects = remaining
	return expired
}

// UseLegendaryAction spends cost points from the per-round legendary
// budget. It reports false when the budget cannot cover the cost.
func (m *Monster) UseLegendaryAction(cost int) bool {
	if cost <= 0 {
		cost = 1
	}
	if m.LegendaryUsed+cost > m.LegendaryPerRound {
		return false
	}
	m.LegendaryUsed += cost
	return true
}

// ResetLegendaryActions refreshes the legendary budget at the top of a round.
func (m *Monster) ResetLegendaryActions() {
	m.LegendaryUsed = 0
}

// Statblock renders a compact text summary for GM display.
func (m *Monster) Statblock() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", m.Name)
	if m.ChallengeRating != "" {
		fmt.Fprintf(&b, " (CR %s)", m.ChallengeRating)
	}
	fmt.Fprintf(&b, "\nHP: %d/%d", m.HP.Current, m.HP.Maximum)
	if m.HP.Temporary > 0 {
		fmt.Fprintf(&b, " (+%d temp)", m.HP.Temporary)
	}
	if m.ArmorClass > 0 {
		fmt.Fprintf(&b, "  AC: %d", m.ArmorClass)
	}
	if conditions := m.ActiveConditions(); len(conditions) > 0 {
		fmt.Fprintf(&b, "\nConditions: %s", strings.Join(conditions, ", "))
	}
	if len(m.LegendaryActions) > 0 {
		fmt.Fprintf(&b, "\nLegendary Actions (%d/round):", m.LegendaryPerRound)
		for _, action := range m.LegendaryActions {
			fmt.Fprintf(&b, "\n  %s (%d)", action.Name, action.Cost)
		}
	}
	return b.String()
}
