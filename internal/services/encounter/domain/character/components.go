package character

import (
	"fmt"
	"sort"
	"strings"
)

// HitPoints tracks maximum, current and temporary HP for one combatant.
type HitPoints struct {
	Maximum   int `json:"maximum"`
	Current   int `json:"current"`
	Temporary int `json:"temporary"`
}

// IsBloodied reports whether current HP has dropped below half of maximum.
func (hp HitPoints) IsBloodied() bool {
	return hp.Current < hp.Maximum/2
}

// IsUnconscious reports whether current HP is zero.
func (hp HitPoints) IsUnconscious() bool {
	return hp.Current <= 0
}

// Damage drains temporary HP first; overflow reduces current HP, floored
// at zero.
func (hp *HitPoints) Damage(amount int) DamageBreakdown {
	if amount <= 0 {
		return DamageBreakdown{CurrentHP: hp.Current}
	}

	absorbed := amount
	if absorbed > hp.Temporary {
		absorbed = hp.Temporary
	}
	hp.Temporary -= absorbed

	applied := amount - absorbed
	if applied > hp.Current {
		applied = hp.Current
	}
	hp.Current -= applied

	return DamageBreakdown{
		TempAbsorbed: absorbed,
		HPDamage:     applied,
		CurrentHP:    hp.Current,
	}
}

// Heal raises current HP capped at maximum and returns the actual amount.
func (hp *HitPoints) Heal(amount int) int {
	if amount <= 0 {
		return 0
	}
	healed := amount
	if hp.Current+healed > hp.Maximum {
		healed = hp.Maximum - hp.Current
	}
	hp.Current += healed
	return healed
}

// GrantTemporary keeps the larger of the existing and new temporary pools.
func (hp *HitPoints) GrantTemporary(amount int) int {
	if amount > hp.Temporary {
		hp.Temporary = amount
	}
	return hp.Temporary
}

// AbilityScores holds the six core ability scores.
type AbilityScores struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// AbilityModifier converts a score to its modifier, flooring toward
// negative infinity so a score of 9 yields -1.
func AbilityModifier(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}

// DieType is a hit die size.
type DieType int

const (
	D6  DieType = 6
	D8  DieType = 8
	D10 DieType = 10
	D12 DieType = 12
)

// ParseDieType reads notation like "d8" into a DieType.
func ParseDieType(value string) (DieType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "d6":
		return D6, nil
	case "d8":
		return D8, nil
	case "d10":
		return D10, nil
	case "d12":
		return D12, nil
	default:
		return 0, fmt.Errorf("unknown hit die type %q", value)
	}
}

// String renders the die in standard notation.
func (d DieType) String() string {
	return fmt.Sprintf("d%d", int(d))
}

// Average is the rounded-up mean roll of the die.
func (d DieType) Average() int {
	return int(d)/2 + 1
}

// HitDice tracks a character's hit dice pool.
type HitDice struct {
	Total int     `json:"total"`
	Used  int     `json:"used"`
	Die   DieType `json:"die"`
}

// Remaining reports unspent hit dice.
func (hd HitDice) Remaining() int {
	return hd.Total - hd.Used
}

// Spend marks up to count dice as used and returns the actual amount spent.
func (hd *HitDice) Spend(count int) int {
	if count <= 0 {
		return 0
	}
	spent := count
	if remaining := hd.Remaining(); spent > remaining {
		spent = remaining
	}
	hd.Used += spent
	return spent
}

// Restore returns up to count dice to the pool, clamped to what is spent,
// and reports the actual amount restored.
func (hd *HitDice) Restore(count int) int {
	if count <= 0 {
		return 0
	}
	restored := count
	if restored > hd.Used {
		restored = hd.Used
	}
	hd.Used -= restored
	return restored
}

// RestoreOnLongRest returns max(1, used/2) dice to the pool, never more
// than are spent, and reports the actual amount restored. A pool with
// nothing spent restores nothing.
func (hd *HitDice) RestoreOnLongRest() int {
	if hd.Used <= 0 {
		return 0
	}
	restored := hd.Used / 2
	if restored < 1 {
		restored = 1
	}
	hd.Used -= restored
	return restored
}

// DeathSaves tracks death saving throw counters, each capped at three.
type DeathSaves struct {
	Successes int `json:"successes"`
	Failures  int `json:"failures"`
}

// AddSuccesses increments the success counter and returns the new value.
func (ds *DeathSaves) AddSuccesses(count int) int {
	ds.Successes = clampSaves(ds.Successes + count)
	return ds.Successes
}

// AddFailures increments the failure counter and returns the new value.
func (ds *DeathSaves) AddFailures(count int) int {
	ds.Failures = clampSaves(ds.Failures + count)
	return ds.Failures
}

// Reset zeroes both counters, as on stabilization or healing from zero HP.
func (ds *DeathSaves) Reset() {
	ds.Successes = 0
	ds.Failures = 0
}

// IsStable reports three accumulated successes.
func (ds DeathSaves) IsStable() bool {
	return ds.Successes >= 3
}

// IsDead reports three accumulated failures.
func (ds DeathSaves) IsDead() bool {
	return ds.Failures >= 3
}

func clampSaves(value int) int {
	if value < 0 {
		return 0
	}
	if value > 3 {
		return 3
	}
	return value
}

// SpellSlotLevel tracks slot usage for one spell level.
type SpellSlotLevel struct {
	Total int `json:"total"`
	Used  int `json:"used"`
}

// Remaining reports unexpended slots at this level.
func (s SpellSlotLevel) Remaining() int {
	return s.Total - s.Used
}

// Spellcasting tracks spell slots by level (1-9). A nil Spellcasting on a
// combatant means it cannot cast.
type Spellcasting struct {
	Slots map[int]*SpellSlotLevel `json:"slots"`
}

// NewSpellcasting builds a slot table from total counts keyed by level.
func NewSpellcasting(totals map[int]int) *Spellcasting {
	slots := make(map[int]*SpellSlotLevel, len(totals))
	for level, total := range totals {
		if level < 1 || level > 9 || total <= 0 {
			continue
		}
		slots[level] = &SpellSlotLevel{Total: total}
	}
	return &Spellcasting{Slots: slots}
}

// Level returns the slot record for a level, or nil when absent.
func (sc *Spellcasting) Level(level int) *SpellSlotLevel {
	if sc == nil {
		return nil
	}
	return sc.Slots[level]
}

// HasSlot reports whether an unexpended slot exists at the level.
func (sc *Spellcasting) HasSlot(level int) bool {
	slot := sc.Level(level)
	return slot != nil && slot.Remaining() > 0
}

// UseSlot expends one slot at the level.
func (sc *Spellcasting) UseSlot(level int) bool {
	slot := sc.Level(level)
	if slot == nil || slot.Remaining() <= 0 {
		return false
	}
	slot.Used++
	return true
}

// RestoreSlots returns up to count slots at the level, clamped to what is
// expended, and reports the actual amount restored.
func (sc *Spellcasting) RestoreSlots(level, count int) int {
	slot := sc.Level(level)
	if slot == nil || count <= 0 {
		return 0
	}
	restored := count
	if restored > slot.Used {
		restored = slot.Used
	}
	slot.Used -= restored
	return restored
}

// ExpendedLevels lists levels with expended slots in ascending order.
func (sc *Spellcasting) ExpendedLevels() []int {
	if sc == nil {
		return nil
	}
	levels := make([]int, 0, len(sc.Slots))
	for level, slot := range sc.Slots {
		if slot.Used > 0 {
			levels = append(levels, level)
		}
	}
	sort.Ints(levels)
	return levels
}

// Inventory tracks item quantities by name.
type Inventory struct {
	Items map[string]int `json:"items"`
}

// Quantity reports how many of the named item are held. Lookup is
// case-insensitive.
func (inv *Inventory) Quantity(name string) int {
	key, ok := inv.findKey(name)
	if !ok {
		return 0
	}
	return inv.Items[key]
}

// Add increases the named item's quantity, creating it when absent.
func (inv *Inventory) Add(name string, quantity int) int {
	if quantity <= 0 {
		return inv.Quantity(name)
	}
	if inv.Items == nil {
		inv.Items = make(map[string]int)
	}
	key, ok := inv.findKey(name)
	if !ok {
		key = name
	}
	inv.Items[key] += quantity
	return inv.Items[key]
}

// Consume decreases the named item's quantity, clamped at what is held,
// and reports the actual amount removed. Exhausted items are dropped.
func (inv *Inventory) Consume(name string, quantity int) int {
	if quantity <= 0 {
		return 0
	}
	key, ok := inv.findKey(name)
	if !ok {
		return 0
	}
	removed := quantity
	if removed > inv.Items[key] {
		removed = inv.Items[key]
	}
	inv.Items[key] -= removed
	if inv.Items[key] == 0 {
		delete(inv.Items, key)
	}
	return removed
}

func (inv *Inventory) findKey(name string) (string, bool) {
	if inv == nil || inv.Items == nil {
		return "", false
	}
	if _, ok := inv.Items[name]; ok {
		return name, true
	}
	for key := range inv.Items {
		if strings.EqualFold(key, name) {
			return key, true
		}
	}
	return "", false
}
