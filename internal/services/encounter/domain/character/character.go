package character

// Character is a player character record. The engine mutates it in place
// through the Combatant capability surface; persistence belongs to the
// caller that supplied the record.
type Character struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Class         string        `json:"class,omitempty"`
	Level         int           `json:"level,omitempty"`
	Abilities     AbilityScores `json:"abilities"`
	HP            HitPoints     `json:"hp"`
	HitDice       HitDice       `json:"hit_dice"`
	DeathSaves    DeathSaves    `json:"death_saves"`
	Spellcasting  *Spellcasting `json:"spellcasting,omitempty"`
	Inventory     Inventory     `json:"inventory"`
	ActiveEffects []Effect      `json:"active_effects,omitempty"`
}

// CombatantID implements Combatant.
func (c *Character) CombatantID() string { return c.ID }

// DisplayName implements Combatant.
func (c *Character) DisplayName() string { return c.Name }

// PlayerControlled implements Combatant.
func (c *Character) PlayerControlled() bool { return true }

// HitPoints implements Combatant.
func (c *Character) HitPoints() *HitPoints { return &c.HP }

// DexterityModifier implements Combatant.
func (c *Character) DexterityModifier() int {
	return AbilityModifier(c.Abilities.Dexterity)
}

// ConstitutionModifier derives the modifier used for hit-die healing.
func (c *Character) ConstitutionModifier() int {
	return AbilityModifier(c.Abilities.Constitution)
}

// TakeDamage implements Combatant.
func (c *Character) TakeDamage(amount int) DamageBreakdown {
	return c.HP.Damage(amount)
}

// Heal implements Combatant.
func (c *Character) Heal(amount int) int {
	return c.HP.Heal(amount)
}

// GrantTemporaryHP implements Combatant.
func (c *Character) GrantTemporaryHP(amount int) int {
	return c.HP.GrantTemporary(amount)
}

// AddEffect implements Combatant.
func (c *Character) AddEffect(effect Effect) bool {
	effects, replaced := upsertEffect(c.ActiveEffects, effect)
	c.ActiveEffects = effects
	return replaced
}

// RemoveEffect implements Combatant.
func (c *Character) RemoveEffect(name string) bool {
	effects, removed := deleteEffect(c.ActiveEffects, name)
	c.ActiveEffects = effects
	return removed
}

// Effects implements Combatant.
func (c *Character) Effects() []Effect { return c.ActiveEffects }

// ActiveConditions implements Combatant.
func (c *Character) ActiveConditions() []string {
	return conditionDisplay(c.ActiveEffects, c.HP)
}

// SpellSlots implements Spellcaster. It returns nil for non-casters.
func (c *Character) SpellSlots() *Spellcasting { return c.Spellcasting }

// HitDicePool implements HitDiceOwner.
func (c *Character) HitDicePool() *HitDice { return &c.HitDice }

// DeathSaveCounters implements DeathSaveOwner.
func (c *Character) DeathSaveCounters() *DeathSaves { return &c.DeathSaves }

// Items implements ItemOwner.
func (c *Character) Items() *Inventory { return &c.Inventory }

// TickRoundEffects advances round-scoped durations by one round and
// removes effects that expire, returning the expired names.
func (c *Character) TickRoundEffects() []string {
	expired, remaining := tickEffects(c.ActiveEffects)
	c.ActiveEffects = remaining
	return expired
}

func tickEffects(effects []Effect) (expired []string, remaining []Effect) {
	remaining = effects[:0]
	for i := range effects {
		if effects[i].Tick() {
			expired = append(expired, effects[i].Name)
			continue
		}
		remaining = append(remaining, effects[i])
	}
	return expired, remaining
}
