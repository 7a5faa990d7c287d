package character

import "testing"

func TestAbilityModifier(t *testing.T) {
	tests := []struct {
		name  string
		score int
		want  int
	}{
		{name: "very low", score: 1, want: -5},
		{name: "low odd", score: 7, want: -2},
		{name: "just below average", score: 9, want: -1},
		{name: "average", score: 10, want: 0},
		{name: "odd above average", score: 11, want: 0},
		{name: "heroic", score: 18, want: 4},
		{name: "cap", score: 20, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AbilityModifier(tt.score); got != tt.want {
				t.Errorf("AbilityModifier(%d) = %d, want %d", tt.score, got, tt.want)
			}
		})
	}
}

func TestHitPointsDamage(t *testing.T) {
	tests := []struct {
		name         string
		hp           HitPoints
		amount       int
		wantAbsorbed int
		wantApplied  int
		wantCurrent  int
		wantTemp     int
	}{
		{
			name:         "temp absorbs everything",
			hp:           HitPoints{Maximum: 30, Current: 30, Temporary: 10},
			amount:       6,
			wantAbsorbed: 6,
			wantApplied:  0,
			wantCurrent:  30,
			wantTemp:     4,
		},
		{
			name:         "overflow past temp",
			hp:           HitPoints{Maximum: 30, Current: 30, Temporary: 4},
			amount:       10,
			wantAbsorbed: 4,
			wantApplied:  6,
			wantCurrent:  24,
			wantTemp:     0,
		},
		{
			name:         "massive damage floors at zero",
			hp:           HitPoints{Maximum: 50, Current: 10},
			amount:       60,
			wantAbsorbed: 0,
			wantApplied:  10,
			wantCurrent:  0,
		},
		{
			name:        "zero damage is a no-op",
			hp:          HitPoints{Maximum: 30, Current: 12},
			amount:      0,
			wantCurrent: 12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hp := tt.hp
			breakdown := hp.Damage(tt.amount)
			if breakdown.TempAbsorbed != tt.wantAbsorbed {
				t.Errorf("TempAbsorbed = %d, want %d", breakdown.TempAbsorbed, tt.wantAbsorbed)
			}
			if breakdown.HPDamage != tt.wantApplied {
				t.Errorf("HPDamage = %d, want %d", breakdown.HPDamage, tt.wantApplied)
			}
			if hp.Current != tt.wantCurrent {
				t.Errorf("Current = %d, want %d", hp.Current, tt.wantCurrent)
			}
			if hp.Temporary != tt.wantTemp {
				t.Errorf("Temporary = %d, want %d", hp.Temporary, tt.wantTemp)
			}
			if breakdown.CurrentHP != hp.Current {
				t.Errorf("breakdown CurrentHP = %d, want %d", breakdown.CurrentHP, hp.Current)
			}
		})
	}
}

func TestHitPointsHealCapsAtMaximum(t *testing.T) {
	hp := HitPoints{Maximum: 30, Current: 25}

	if healed := hp.Heal(10); healed != 5 {
		t.Errorf("Heal() = %d, want 5", healed)
	}
	if hp.Current != 30 {
		t.Errorf("Current = %d, want 30", hp.Current)
	}
	if healed := hp.Heal(10); healed != 0 {
		t.Errorf("Heal() at full = %d, want 0", healed)
	}
}

func TestHitPointsGrantTemporaryKeepsLarger(t *testing.T) {
	hp := HitPoints{Maximum: 30, Current: 30, Temporary: 8}

	if total := hp.GrantTemporary(5); total != 8 {
		t.Errorf("GrantTemporary(5) = %d, want 8", total)
	}
	if total := hp.GrantTemporary(12); total != 12 {
		t.Errorf("GrantTemporary(12) = %d, want 12", total)
	}
}

func TestHitPointsDerivedStates(t *testing.T) {
	tests := []struct {
		name            string
		hp              HitPoints
		wantBloodied    bool
		wantUnconscious bool
	}{
		{name: "healthy", hp: HitPoints{Maximum: 20, Current: 15}},
		{name: "exactly half is not bloodied", hp: HitPoints{Maximum: 20, Current: 10}},
		{name: "bloodied", hp: HitPoints{Maximum: 20, Current: 9}, wantBloodied: true},
		{name: "unconscious", hp: HitPoints{Maximum: 20, Current: 0}, wantBloodied: true, wantUnconscious: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.hp.IsBloodied(); got != tt.wantBloodied {
				t.Errorf("IsBloodied() = %v, want %v", got, tt.wantBloodied)
			}
			if got := tt.hp.IsUnconscious(); got != tt.wantUnconscious {
				t.Errorf("IsUnconscious() = %v, want %v", got, tt.wantUnconscious)
			}
		})
	}
}

func TestHitDiceSpendAndRestore(t *testing.T) {
	hd := HitDice{Total: 5, Used: 0, Die: D10}

	if spent := hd.Spend(2); spent != 2 {
		t.Errorf("Spend(2) = %d, want 2", spent)
	}
	if spent := hd.Spend(10); spent != 3 {
		t.Errorf("Spend(10) = %d, want 3 (clamped)", spent)
	}
	if hd.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", hd.Remaining())
	}
	if restored := hd.Restore(2); restored != 2 {
		t.Errorf("Restore(2) = %d, want 2", restored)
	}
	if restored := hd.Restore(10); restored != 3 {
		t.Errorf("Restore(10) = %d, want 3 (clamped)", restored)
	}
}

func TestHitDiceRestoreOnLongRest(t *testing.T) {
	tests := []struct {
		name         string
		used         int
		wantRestored int
		wantUsed     int
	}{
		{name: "nothing spent", used: 0, wantRestored: 0, wantUsed: 0},
		{name: "single die floors to one", used: 1, wantRestored: 1, wantUsed: 0},
		{name: "half rounded down", used: 5, wantRestored: 2, wantUsed: 3},
		{name: "even split", used: 4, wantRestored: 2, wantUsed: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hd := HitDice{Total: 8, Used: tt.used, Die: D8}
			if restored := hd.RestoreOnLongRest(); restored != tt.wantRestored {
				t.Errorf("RestoreOnLongRest() = %d, want %d", restored, tt.wantRestored)
			}
			if hd.Used != tt.wantUsed {
				t.Errorf("Used = %d, want %d", hd.Used, tt.wantUsed)
			}
		})
	}
}

func TestParseDieType(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    DieType
		wantErr bool
	}{
		{name: "d6", value: "d6", want: D6},
		{name: "d8 upper", value: "D8", want: D8},
		{name: "d10 padded", value: " d10 ", want: D10},
		{name: "d12", value: "d12", want: D12},
		{name: "unknown", value: "d20", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDieType(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDieType(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseDieType(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestDieTypeAverage(t *testing.T) {
	tests := []struct {
		die  DieType
		want int
	}{
		{die: D6, want: 4},
		{die: D8, want: 5},
		{die: D10, want: 6},
		{die: D12, want: 7},
	}

	for _, tt := range tests {
		if got := tt.die.Average(); got != tt.want {
			t.Errorf("%v.Average() = %d, want %d", tt.die, got, tt.want)
		}
	}
}

func TestDeathSavesAccumulateAndCap(t *testing.T) {
	var ds DeathSaves

	for i := 0; i < 3; i++ {
		ds.AddSuccesses(1)
	}
	if ds.Successes != 3 {
		t.Errorf("Successes = %d, want 3", ds.Successes)
	}
	if !ds.IsStable() {
		t.Error("expected stable after three successes")
	}

	ds.AddSuccesses(2)
	if ds.Successes != 3 {
		t.Errorf("Successes after overflow = %d, want 3", ds.Successes)
	}

	ds.AddFailures(5)
	if ds.Failures != 3 {
		t.Errorf("Failures = %d, want 3 (capped)", ds.Failures)
	}
	if !ds.IsDead() {
		t.Error("expected dead after three failures")
	}

	ds.Reset()
	if ds.Successes != 0 || ds.Failures != 0 {
		t.Errorf("after Reset() = %d/%d, want 0/0", ds.Successes, ds.Failures)
	}
}

func TestSpellcastingSlots(t *testing.T) {
	sc := NewSpellcasting(map[int]int{1: 4, 2: 3, 3: 2})

	if !sc.HasSlot(1) {
		t.Fatal("expected a level 1 slot")
	}
	if sc.HasSlot(5) {
		t.Fatal("did not expect a level 5 slot")
	}

	for i := 0; i < 4; i++ {
		if !sc.UseSlot(1) {
			t.Fatalf("UseSlot(1) failed on use %d", i+1)
		}
	}
	if sc.UseSlot(1) {
		t.Fatal("expected no remaining level 1 slots")
	}

	if restored := sc.RestoreSlots(1, 10); restored != 4 {
		t.Errorf("RestoreSlots(1, 10) = %d, want 4 (clamped)", restored)
	}
	if restored := sc.RestoreSlots(1, 1); restored != 0 {
		t.Errorf("RestoreSlots(1, 1) with none expended = %d, want 0", restored)
	}
}

func TestSpellcastingExpendedLevels(t *testing.T) {
	sc := NewSpellcasting(map[int]int{1: 4, 2: 3, 3: 2})
	sc.UseSlot(3)
	sc.UseSlot(1)
	sc.UseSlot(1)

	levels := sc.ExpendedLevels()
	if len(levels) != 2 || levels[0] != 1 || levels[1] != 3 {
		t.Errorf("ExpendedLevels() = %v, want [1 3]", levels)
	}

	var none *Spellcasting
	if levels := none.ExpendedLevels(); levels != nil {
		t.Errorf("nil ExpendedLevels() = %v, want nil", levels)
	}
}

func TestInventory(t *testing.T) {
	var inv Inventory

	if total := inv.Add("Healing Potion", 2); total != 2 {
		t.Errorf("Add() = %d, want 2", total)
	}
	if qty := inv.Quantity("healing potion"); qty != 2 {
		t.Errorf("Quantity() case-insensitive = %d, want 2", qty)
	}
	if removed := inv.Consume("HEALING POTION", 1); removed != 1 {
		t.Errorf("Consume() = %d, want 1", removed)
	}
	if removed := inv.Consume("Healing Potion", 5); removed != 1 {
		t.Errorf("Consume() clamped = %d, want 1", removed)
	}
	if qty := inv.Quantity("Healing Potion"); qty != 0 {
		t.Errorf("Quantity() after exhaustion = %d, want 0", qty)
	}
	if removed := inv.Consume("Rope", 1); removed != 0 {
		t.Errorf("Consume() missing item = %d, want 0", removed)
	}
}
