// Package combat tracks the phase machine and initiative order for a
// single encounter.
//
// A State moves through four phases. NotInCombat is the resting phase.
// StartCombat opens the CombatStart window during which initiative rolls
// are collected; FinalizeInitiative locks the order and enters
// CombatRounds, where AdvanceTurn walks the order and wraps into new
// rounds. StartCombatEnd opens a resolution window for closing narration,
// and FinishCombat resets everything back to NotInCombat.
package combat

import (
	apperrors "github.com/louisbranch/initiative-engine/internal/platform/errors"
)

// Phase is the combat lifecycle phase of an encounter.
type Phase int

const (
	PhaseNotInCombat Phase = iota
	PhaseCombatStart
	PhaseCombatRounds
	PhaseCombatEnd
)

// String returns the wire name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseNotInCombat:
		return "NOT_IN_COMBAT"
	case PhaseCombatStart:
		return "COMBAT_START"
	case PhaseCombatRounds:
		return "COMBAT_ROUNDS"
	case PhaseCombatEnd:
		return "COMBAT_END"
	default:
		return "UNKNOWN"
	}
}

// State holds the combat bookkeeping for one encounter.
//
// Participants is the roster announced at combat start; Order is built
// from initiative rolls and may name combatants outside the roster
// (reinforcements join mid-fight through AddCombatant).
//
// # Determinism
//
// State performs no dice rolling of its own. Entries arrive with rolls
// already made, so identical call sequences produce identical orders.
type State struct {
	Phase         Phase             `json:"phase"`
	Round         int               `json:"round"`
	Order         []InitiativeEntry `json:"order"`
	Participants  []string          `json:"participants"`
	CurrentIndex  int               `json:"current_index"`
	EncounterName string            `json:"encounter_name,omitempty"`
}

// NewState returns a State in the NotInCombat phase.
func NewState() *State {
	return &State{Phase: PhaseNotInCombat}
}

// StartCombat enters the CombatStart phase with the given roster. Any
// previous order is discarded. Combat already underway must be closed
// with FinishCombat before a new encounter can begin.
func (s *State) StartCombat(participants []string, encounterName string) error {
	if s.Phase != PhaseNotInCombat {
		return apperrors.WithMetadata(apperrors.CodeCombatPhaseInvalid,
			"combat already in progress",
			map[string]string{"phase": s.Phase.String()})
	}
	s.Phase = PhaseCombatStart
	s.Round = 0
	s.Order = nil
	s.Participants = append([]string(nil), participants...)
	s.CurrentIndex = 0
	s.EncounterName = encounterName
	return nil
}

// AddInitiativeRoll records one combatant's roll during the CombatStart
// window. A second roll for the same character id replaces the first.
func (s *State) AddInitiativeRoll(entry InitiativeEntry) error {
	if s.Phase != PhaseCombatStart {
		return apperrors.WithMetadata(apperrors.CodeCombatPhaseInvalid,
			"initiative rolls are only accepted during combat start",
			map[string]string{"phase": s.Phase.String()})
	}
	if entry.CharacterID == "" {
		return apperrors.New(apperrors.CodeCombatEntryInvalid, "initiative entry requires a character id")
	}
	for i, existing := range s.Order {
		if existing.CharacterID == entry.CharacterID {
			s.Order[i] = entry
			return nil
		}
	}
	s.Order = append(s.Order, entry)
	return nil
}

// FinalizeInitiative sorts the collected rolls, enters CombatRounds and
// points the cursor at the first entry of round 1.
func (s *State) FinalizeInitiative() error {
	if s.Phase != PhaseCombatStart {
		return apperrors.WithMetadata(apperrors.CodeCombatPhaseInvalid,
			"initiative can only be finalized during combat start",
			map[string]string{"phase": s.Phase.String()})
	}
	sortEntries(s.Order)
	s.Phase = PhaseCombatRounds
	s.Round = 1
	s.CurrentIndex = 0
	return nil
}

// CurrentParticipantID returns the id of the combatant whose turn it is,
// or "" outside CombatRounds or when the order is empty.
func (s *State) CurrentParticipantID() string {
	entry, ok := s.CurrentEntry()
	if !ok {
		return ""
	}
	return entry.CharacterID
}

// CurrentEntry returns the entry under the cursor and whether one exists.
func (s *State) CurrentEntry() (InitiativeEntry, bool) {
	if s.Phase != PhaseCombatRounds {
		return InitiativeEntry{}, false
	}
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Order) {
		return InitiativeEntry{}, false
	}
	return s.Order[s.CurrentIndex], true
}

// AdvanceTurn moves the cursor to the next entry, wrapping to the top of
// the order and incrementing the round counter when the bottom is
// passed. It returns the id now under the cursor and whether a new round
// began.
func (s *State) AdvanceTurn() (string, bool, error) {
	if s.Phase != PhaseCombatRounds {
		return "", false, apperrors.WithMetadata(apperrors.CodeCombatNotInRoundsPhase,
			"turns can only advance during combat rounds",
			map[string]string{"phase": s.Phase.String()})
	}
	if len(s.Order) == 0 {
		return "", false, apperrors.New(apperrors.CodeCombatOrderEmpty, "initiative order is empty")
	}
	s.CurrentIndex++
	newRound := false
	if s.CurrentIndex >= len(s.Order) {
		s.CurrentIndex = 0
		s.Round++
		newRound = true
	}
	return s.Order[s.CurrentIndex].CharacterID, newRound, nil
}

// RemoveParticipant drops a combatant from the order and the roster,
// keeping the cursor on the combatant whose turn it currently is. It
// reports whether the id was present in the order.
//
// Removing the entry under the cursor leaves the cursor in place, so the
// next entry down inherits the turn; if the last entry was under the
// cursor the cursor wraps to the top without advancing the round.
func (s *State) RemoveParticipant(characterID string) bool {
	removedIndex := -1
	for i, entry := range s.Order {
		if entry.CharacterID == characterID {
			removedIndex = i
			break
		}
	}
	if removedIndex < 0 {
		return false
	}
	s.Order = append(s.Order[:removedIndex], s.Order[removedIndex+1:]...)

	if removedIndex < s.CurrentIndex {
		s.CurrentIndex--
	} else if removedIndex == s.CurrentIndex && s.CurrentIndex >= len(s.Order) {
		s.CurrentIndex = 0
	}

	for i, id := range s.Participants {
		if id == characterID {
			s.Participants = append(s.Participants[:i], s.Participants[i+1:]...)
			break
		}
	}
	return true
}

// AddCombatant inserts a new combatant mid-fight. The entry is merged
// into the order by initiative and the id is added to the roster. The
// cursor keeps pointing at its current position in the slice, so the
// newcomer acts when the order next reaches their slot.
func (s *State) AddCombatant(entry InitiativeEntry) error {
	if s.Phase != PhaseCombatRounds {
		return apperrors.WithMetadata(apperrors.CodeCombatPhaseInvalid,
			"combatants can only join during combat rounds",
			map[string]string{"phase": s.Phase.String()})
	}
	if entry.CharacterID == "" {
		return apperrors.New(apperrors.CodeCombatEntryInvalid, "initiative entry requires a character id")
	}
	for _, existing := range s.Order {
		if existing.CharacterID == entry.CharacterID {
			return apperrors.WithMetadata(apperrors.CodeCombatDuplicateEntry,
				"combatant already in the initiative order",
				map[string]string{"character_id": entry.CharacterID})
		}
	}
	present := false
	for _, id := range s.Participants {
		if id == entry.CharacterID {
			present = true
			break
		}
	}
	if !present {
		s.Participants = append(s.Participants, entry.CharacterID)
	}
	s.Order = append(s.Order, entry)
	sortEntries(s.Order)
	return nil
}

// StartCombatEnd enters the CombatEnd resolution window. Only valid from
// CombatRounds.
func (s *State) StartCombatEnd() error {
	if s.Phase != PhaseCombatRounds {
		return apperrors.WithMetadata(apperrors.CodeCombatPhaseInvalid,
			"combat end can only begin during combat rounds",
			map[string]string{"phase": s.Phase.String()})
	}
	s.Phase = PhaseCombatEnd
	return nil
}

// FinishCombat resets the state to NotInCombat from any phase, clearing
// the order, roster and encounter name. It is the forced exit as well as
// the normal one.
func (s *State) FinishCombat() {
	s.Phase = PhaseNotInCombat
	s.Round = 0
	s.Order = nil
	s.Participants = nil
	s.CurrentIndex = 0
	s.EncounterName = ""
}
