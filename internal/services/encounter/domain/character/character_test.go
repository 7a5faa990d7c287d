package character

import "testing"

func testFighter() *Character {
	return &Character{
		ID:    "char-tharion",
		Name:  "Tharion",
		Class: "Fighter",
		Level: 5,
		Abilities: AbilityScores{
			Strength:     16,
			Dexterity:    14,
			Constitution: 15,
		},
		HP:      HitPoints{Maximum: 50, Current: 50},
		HitDice: HitDice{Total: 5, Die: D10},
	}
}

func testWizard() *Character {
	return &Character{
		ID:    "char-lyralei",
		Name:  "Lyralei",
		Class: "Wizard",
		Level: 5,
		Abilities: AbilityScores{
			Dexterity:    16,
			Constitution: 12,
		},
		HP:           HitPoints{Maximum: 30, Current: 30},
		HitDice:      HitDice{Total: 5, Die: D6},
		Spellcasting: NewSpellcasting(map[int]int{1: 4, 2: 3, 3: 2}),
	}
}

func TestCharacterImplementsCapabilities(t *testing.T) {
	var combatant Combatant = testFighter()

	if combatant.CombatantID() != "char-tharion" {
		t.Errorf("CombatantID() = %s, want char-tharion", combatant.CombatantID())
	}
	if !combatant.PlayerControlled() {
		t.Error("expected player-controlled")
	}
	if combatant.DexterityModifier() != 2 {
		t.Errorf("DexterityModifier() = %d, want 2", combatant.DexterityModifier())
	}

	if _, ok := combatant.(Spellcaster); !ok {
		t.Error("expected Character to expose SpellSlots")
	}
	if _, ok := combatant.(HitDiceOwner); !ok {
		t.Error("expected Character to expose HitDicePool")
	}
	if _, ok := combatant.(DeathSaveOwner); !ok {
		t.Error("expected Character to expose DeathSaveCounters")
	}
	if _, ok := combatant.(ItemOwner); !ok {
		t.Error("expected Character to expose Items")
	}
}

func TestMonsterLacksCharacterOnlyCapabilities(t *testing.T) {
	var combatant Combatant = &Monster{ID: "mon-goblin", Name: "Goblin", HP: HitPoints{Maximum: 7, Current: 7}}

	if combatant.PlayerControlled() {
		t.Error("expected GM-controlled")
	}
	if _, ok := combatant.(HitDiceOwner); ok {
		t.Error("monsters must not expose a hit dice pool")
	}
	if _, ok := combatant.(DeathSaveOwner); ok {
		t.Error("monsters must not expose death saves")
	}
	if sc, ok := combatant.(Spellcaster); ok && sc.SpellSlots() != nil {
		t.Error("monsters must not expose spell slots")
	}
}

func TestAddEffectReplacesSameName(t *testing.T) {
	fighter := testFighter()

	replaced := fighter.AddEffect(Effect{Name: "Blessed", Kind: EffectBuff, DurationType: DurationRounds, DurationRemaining: 10})
	if replaced {
		t.Fatal("first add must not report replacement")
	}

	replaced = fighter.AddEffect(Effect{Name: "blessed", Kind: EffectBuff, DurationType: DurationRounds, DurationRemaining: 3})
	if !replaced {
		t.Fatal("same-name add must replace")
	}
	if len(fighter.Effects()) != 1 {
		t.Fatalf("expected 1 effect, got %d", len(fighter.Effects()))
	}
	if fighter.Effects()[0].DurationRemaining != 3 {
		t.Errorf("DurationRemaining = %d, want 3", fighter.Effects()[0].DurationRemaining)
	}
}

func TestRemoveEffectCaseInsensitive(t *testing.T) {
	fighter := testFighter()
	fighter.AddEffect(Effect{Name: "Shield of Faith", Kind: EffectSpell, DurationType: DurationConcentration, DurationRemaining: 100})

	if !fighter.RemoveEffect("shield of faith") {
		t.Fatal("expected case-insensitive removal to succeed")
	}
	if fighter.RemoveEffect("Shield of Faith") {
		t.Fatal("second removal must fail")
	}
	if len(fighter.Effects()) != 0 {
		t.Fatalf("expected no effects, got %d", len(fighter.Effects()))
	}
}

func TestActiveConditionsIncludeDerivedStates(t *testing.T) {
	fighter := testFighter()
	fighter.AddEffect(Effect{Name: "Poisoned", Kind: EffectCondition, DurationType: DurationHours, DurationRemaining: 1})

	conditions := fighter.ActiveConditions()
	if len(conditions) != 1 || conditions[0] != "Poisoned" {
		t.Fatalf("ActiveConditions() = %v, want [Poisoned]", conditions)
	}

	fighter.TakeDamage(30)
	conditions = fighter.ActiveConditions()
	if len(conditions) != 2 || conditions[1] != "Bloodied" {
		t.Fatalf("ActiveConditions() = %v, want [Poisoned Bloodied]", conditions)
	}

	fighter.TakeDamage(100)
	conditions = fighter.ActiveConditions()
	if len(conditions) != 2 || conditions[1] != "Unconscious" {
		t.Fatalf("ActiveConditions() = %v, want [Poisoned Unconscious]", conditions)
	}
}

func TestTickRoundEffects(t *testing.T) {
	fighter := testFighter()
	fighter.AddEffect(Effect{Name: "Blessed", Kind: EffectBuff, DurationType: DurationRounds, DurationRemaining: 1})
	fighter.AddEffect(Effect{Name: "Mage Armor", Kind: EffectSpell, DurationType: DurationHours, DurationRemaining: 8})

	expired := fighter.TickRoundEffects()
	if len(expired) != 1 || expired[0] != "Blessed" {
		t.Fatalf("TickRoundEffects() = %v, want [Blessed]", expired)
	}
	if len(fighter.Effects()) != 1 || fighter.Effects()[0].Name != "Mage Armor" {
		t.Fatalf("remaining effects = %v, want [Mage Armor]", fighter.Effects())
	}
}

func TestEffectLabel(t *testing.T) {
	tests := []struct {
		name   string
		effect Effect
		want   string
	}{
		{
			name:   "summary with rounds",
			effect: Effect{Name: "Blessed", Summary: "+1d4 to attacks", DurationType: DurationRounds, DurationRemaining: 3},
			want:   "Blessed: +1d4 to attacks [3r]",
		},
		{
			name:   "description fallback",
			effect: Effect{Name: "Mage Armor", Description: "AC becomes 13+Dex", DurationType: DurationHours, DurationRemaining: 8},
			want:   "Mage Armor: AC becomes 13+Dex [8h]",
		},
		{
			name:   "concentration",
			effect: Effect{Name: "Haste", Summary: "extra action", DurationType: DurationConcentration, DurationRemaining: 10},
			want:   "Haste: extra action [conc]",
		},
		{
			name:   "bare permanent",
			effect: Effect{Name: "Darkvision", DurationType: DurationPermanent},
			want:   "Darkvision [permanent]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.effect.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMonsterLegendaryBudget(t *testing.T) {
	dragon := &Monster{
		ID:                "mon-dragon",
		Name:              "Adult Red Dragon",
		HP:                HitPoints{Maximum: 256, Current: 256},
		LegendaryPerRound: 3,
		LegendaryActions: []LegendaryAction{
			{Name: "Tail Attack", Cost: 1},
			{Name: "Wing Attack", Cost: 2},
		},
	}

	if !dragon.UseLegendaryAction(1) {
		t.Fatal("expected first legendary action to succeed")
	}
	if !dragon.UseLegendaryAction(2) {
		t.Fatal("expected second legendary action to succeed")
	}
	if dragon.UseLegendaryAction(1) {
		t.Fatal("expected exhausted budget to fail")
	}

	dragon.ResetLegendaryActions()
	if !dragon.UseLegendaryAction(2) {
		t.Fatal("expected budget to refresh on reset")
	}
}

func TestParseCondition(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		want   Condition
		wantOK bool
	}{
		{name: "exact", value: "prone", want: ConditionProne, wantOK: true},
		{name: "mixed case", value: "Stunned", want: ConditionStunned, wantOK: true},
		{name: "padded", value: " poisoned ", want: ConditionPoisoned, wantOK: true},
		{name: "unknown", value: "sleepy", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCondition(tt.value)
			if ok != tt.wantOK {
				t.Fatalf("ParseCondition(%q) ok = %v, want %v", tt.value, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseCondition(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseDamageType(t *testing.T) {
	if _, ok := ParseDamageType("fire"); !ok {
		t.Error("expected fire to parse")
	}
	if _, ok := ParseDamageType(""); !ok {
		t.Error("expected empty damage type to be valid (untyped)")
	}
	if _, ok := ParseDamageType("emotional"); ok {
		t.Error("expected unknown damage type to fail")
	}
}
