package combat

import (
	"fmt"
	"sort"
	"strings"
)

// InitiativeEntry is a single initiative roll result for a combatant.
//
// Roll carries the total with all modifiers already applied; DexModifier
// only breaks ties between equal rolls.
type InitiativeEntry struct {
	CharacterID   string `json:"character_id"`
	CharacterName string `json:"character_name"`
	Roll          int    `json:"roll"`
	IsPlayer      bool   `json:"is_player"`
	DexModifier   int    `json:"dex_modifier"`
}

// Less orders entries for initiative: higher roll first, ties broken by
// higher dexterity modifier.
func (e InitiativeEntry) Less(other InitiativeEntry) bool {
	if e.Roll != other.Roll {
		return e.Roll > other.Roll
	}
	return e.DexModifier > other.DexModifier
}

func sortEntries(entries []InitiativeEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Less(entries[j])
	})
}

// InitiativeSummary renders the order with a cursor on the current
// participant, suitable for direct display.
func (s *State) InitiativeSummary() string {
	if len(s.Order) == 0 {
		return "No initiative order established."
	}

	lines := make([]string, 0, len(s.Order)+1)
	lines = append(lines, fmt.Sprintf("=== Initiative Order (Round %d) ===", s.Round))
	for i, entry := range s.Order {
		marker := "  "
		if i == s.CurrentIndex {
			marker = "→ "
		}
		side := "PC"
		if !entry.IsPlayer {
			side = "NPC"
		}
		lines = append(lines, fmt.Sprintf("%s%d. %s [%s]: %d", marker, i+1, entry.CharacterName, side, entry.Roll))
	}
	return strings.Join(lines, "\n")
}

// RemainingPlayerIDs lists player character ids still in the order.
func (s *State) RemainingPlayerIDs() []string {
	var ids []string
	for _, entry := range s.Order {
		if entry.IsPlayer {
			ids = append(ids, entry.CharacterID)
		}
	}
	return ids
}

// RemainingMonsterIDs lists monster/NPC ids still in the order.
func (s *State) RemainingMonsterIDs() []string {
	var ids []string
	for _, entry := range s.Order {
		if !entry.IsPlayer {
			ids = append(ids, entry.CharacterID)
		}
	}
	return ids
}

// IsCombatOver reports whether either side has no remaining entries.
// Callers use this to decide when to request StartCombatEnd.
func (s *State) IsCombatOver() bool {
	return len(s.RemainingPlayerIDs()) == 0 || len(s.RemainingMonsterIDs()) == 0
}
