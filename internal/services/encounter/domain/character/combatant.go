package character

// DamageBreakdown reports how one damage application was absorbed.
type DamageBreakdown struct {
	TempAbsorbed int
	HPDamage     int
	CurrentHP    int
}

// Combatant is the capability surface shared by player characters and
// monsters. Command handlers and combat bookkeeping depend on this
// interface, never on the concrete variants.
type Combatant interface {
	CombatantID() string
	DisplayName() string
	PlayerControlled() bool

	HitPoints() *HitPoints
	DexterityModifier() int

	// TakeDamage drains temporary HP first, then current HP floored at zero.
	TakeDamage(amount int) DamageBreakdown
	// Heal raises current HP capped at maximum and returns the actual amount.
	Heal(amount int) int
	// GrantTemporaryHP keeps the larger of the existing and new pools and
	// returns the resulting pool. Temporary HP never stacks additively.
	GrantTemporaryHP(amount int) int

	// AddEffect installs an effect, replacing any active effect with the
	// same name. It reports whether a replacement occurred.
	AddEffect(effect Effect) (replaced bool)
	// RemoveEffect removes by name, case-insensitively.
	RemoveEffect(name string) bool
	Effects() []Effect

	// ActiveConditions lists condition-kind effects plus the derived
	// Bloodied/Unconscious states.
	ActiveConditions() []string
}

// RoundTicker is implemented by combatants whose effects expire by
// round. TickRoundEffects advances every round-scoped duration by one
// and returns the names of effects that expired.
type RoundTicker interface {
	TickRoundEffects() []string
}

// LegendaryActor is implemented by combatants with a legendary action
// budget that recharges each round.
type LegendaryActor interface {
	UseLegendaryAction(cost int) bool
	ResetLegendaryActions()
}

// Spellcaster is implemented by combatants with spell slots.
type Spellcaster interface {
	SpellSlots() *Spellcasting
}

// HitDiceOwner is implemented by combatants with a hit dice pool.
type HitDiceOwner interface {
	HitDicePool() *HitDice
}

// DeathSaveOwner is implemented by combatants that track death saves.
type DeathSaveOwner interface {
	DeathSaveCounters() *DeathSaves
}

// ItemOwner is implemented by combatants with an inventory.
type ItemOwner interface {
	Items() *Inventory
}
