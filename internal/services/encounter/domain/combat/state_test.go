package combat

import (
	"testing"

	apperrors "github.com/louisbranch/initiative-engine/internal/platform/errors"
)

func startedState(t *testing.T, entries ...InitiativeEntry) *State {
	t.Helper()
	s := NewState()
	var ids []string
	for _, entry := range entries {
		ids = append(ids, entry.CharacterID)
	}
	if err := s.StartCombat(ids, "Ambush at the Bridge"); err != nil {
		t.Fatalf("StartCombat() error = %v", err)
	}
	for _, entry := range entries {
		if err := s.AddInitiativeRoll(entry); err != nil {
			t.Fatalf("AddInitiativeRoll(%q) error = %v", entry.CharacterID, err)
		}
	}
	return s
}

func roundsState(t *testing.T, entries ...InitiativeEntry) *State {
	t.Helper()
	s := startedState(t, entries...)
	if err := s.FinalizeInitiative(); err != nil {
		t.Fatalf("FinalizeInitiative() error = %v", err)
	}
	return s
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseNotInCombat, "NOT_IN_COMBAT"},
		{PhaseCombatStart, "COMBAT_START"},
		{PhaseCombatRounds, "COMBAT_ROUNDS"},
		{PhaseCombatEnd, "COMBAT_END"},
		{Phase(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %q, want %q", int(tt.phase), got, tt.want)
		}
	}
}

func TestStartCombat(t *testing.T) {
	s := NewState()
	if err := s.StartCombat([]string{"char-tharion", "mon-goblin-1"}, "Ambush"); err != nil {
		t.Fatalf("StartCombat() error = %v", err)
	}
	if s.Phase != PhaseCombatStart {
		t.Errorf("Phase = %v, want %v", s.Phase, PhaseCombatStart)
	}
	if s.Round != 0 {
		t.Errorf("Round = %d, want 0", s.Round)
	}
	if len(s.Participants) != 2 {
		t.Errorf("len(Participants) = %d, want 2", len(s.Participants))
	}
	if s.EncounterName != "Ambush" {
		t.Errorf("EncounterName = %q, want %q", s.EncounterName, "Ambush")
	}
}

func TestStartCombatWhileInCombat(t *testing.T) {
	s := NewState()
	if err := s.StartCombat([]string{"char-tharion"}, ""); err != nil {
		t.Fatalf("StartCombat() error = %v", err)
	}
	err := s.StartCombat([]string{"char-lyralei"}, "")
	if !apperrors.IsCode(err, apperrors.CodeCombatPhaseInvalid) {
		t.Errorf("StartCombat() while started error = %v, want code %v", err, apperrors.CodeCombatPhaseInvalid)
	}
}

func TestAddInitiativeRollReplacesSameCharacter(t *testing.T) {
	s := startedState(t,
		InitiativeEntry{CharacterID: "char-tharion", CharacterName: "Tharion", Roll: 11, IsPlayer: true},
	)
	if err := s.AddInitiativeRoll(InitiativeEntry{CharacterID: "char-tharion", CharacterName: "Tharion", Roll: 18, IsPlayer: true}); err != nil {
		t.Fatalf("AddInitiativeRoll() error = %v", err)
	}
	if len(s.Order) != 1 {
		t.Fatalf("len(Order) = %d, want 1", len(s.Order))
	}
	if s.Order[0].Roll != 18 {
		t.Errorf("Order[0].Roll = %d, want 18", s.Order[0].Roll)
	}
}

func TestAddInitiativeRollErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) *State
		entry InitiativeEntry
		code  apperrors.Code
	}{
		{
			name:  "outside combat start",
			setup: func(t *testing.T) *State { return NewState() },
			entry: InitiativeEntry{CharacterID: "char-tharion", Roll: 15},
			code:  apperrors.CodeCombatPhaseInvalid,
		},
		{
			name: "missing character id",
			setup: func(t *testing.T) *State {
				return startedState(t)
			},
			entry: InitiativeEntry{Roll: 15},
			code:  apperrors.CodeCombatEntryInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.setup(t)
			err := s.AddInitiativeRoll(tt.entry)
			if !apperrors.IsCode(err, tt.code) {
				t.Errorf("AddInitiativeRoll() error = %v, want code %v", err, tt.code)
			}
		})
	}
}

func TestFinalizeInitiativeOrdersAndEntersRounds(t *testing.T) {
	s := startedState(t,
		InitiativeEntry{CharacterID: "char-tharion", CharacterName: "Tharion", Roll: 18, DexModifier: 2, IsPlayer: true},
		InitiativeEntry{CharacterID: "mon-goblin-1", CharacterName: "Goblin 1", Roll: 12, DexModifier: 0},
		InitiativeEntry{CharacterID: "char-lyralei", CharacterName: "Lyralei", Roll: 18, DexModifier: 3, IsPlayer: true},
	)
	if err := s.FinalizeInitiative(); err != nil {
		t.Fatalf("FinalizeInitiative() error = %v", err)
	}
	if s.Phase != PhaseCombatRounds {
		t.Errorf("Phase = %v, want %v", s.Phase, PhaseCombatRounds)
	}
	if s.Round != 1 {
		t.Errorf("Round = %d, want 1", s.Round)
	}
	want := []string{"char-lyralei", "char-tharion", "mon-goblin-1"}
	for i, id := range want {
		if s.Order[i].CharacterID != id {
			t.Errorf("Order[%d].CharacterID = %q, want %q", i, s.Order[i].CharacterID, id)
		}
	}
	if got := s.CurrentParticipantID(); got != "char-lyralei" {
		t.Errorf("CurrentParticipantID() = %q, want %q", got, "char-lyralei")
	}
}

func TestFinalizeInitiativeOutsideStart(t *testing.T) {
	s := NewState()
	err := s.FinalizeInitiative()
	if !apperrors.IsCode(err, apperrors.CodeCombatPhaseInvalid) {
		t.Errorf("FinalizeInitiative() error = %v, want code %v", err, apperrors.CodeCombatPhaseInvalid)
	}
}

func TestAdvanceTurnWrapsIntoNewRound(t *testing.T) {
	s := roundsState(t,
		InitiativeEntry{CharacterID: "char-lyralei", Roll: 20, IsPlayer: true},
		InitiativeEntry{CharacterID: "mon-goblin-1", Roll: 10},
	)

	next, newRound, err := s.AdvanceTurn()
	if err != nil {
		t.Fatalf("AdvanceTurn() error = %v", err)
	}
	if next != "mon-goblin-1" || newRound {
		t.Errorf("AdvanceTurn() = (%q, %t), want (%q, false)", next, newRound, "mon-goblin-1")
	}

	next, newRound, err = s.AdvanceTurn()
	if err != nil {
		t.Fatalf("AdvanceTurn() error = %v", err)
	}
	if next != "char-lyralei" || !newRound {
		t.Errorf("AdvanceTurn() = (%q, %t), want (%q, true)", next, newRound, "char-lyralei")
	}
	if s.Round != 2 {
		t.Errorf("Round = %d, want 2", s.Round)
	}
}

func TestAdvanceTurnErrors(t *testing.T) {
	t.Run("outside rounds", func(t *testing.T) {
		s := NewState()
		_, _, err := s.AdvanceTurn()
		if !apperrors.IsCode(err, apperrors.CodeCombatNotInRoundsPhase) {
			t.Errorf("AdvanceTurn() error = %v, want code %v", err, apperrors.CodeCombatNotInRoundsPhase)
		}
	})
	t.Run("empty order", func(t *testing.T) {
		s := roundsState(t)
		_, _, err := s.AdvanceTurn()
		if !apperrors.IsCode(err, apperrors.CodeCombatOrderEmpty) {
			t.Errorf("AdvanceTurn() error = %v, want code %v", err, apperrors.CodeCombatOrderEmpty)
		}
	})
}

func TestRemoveParticipantAdjustsCursor(t *testing.T) {
	entries := []InitiativeEntry{
		{CharacterID: "char-lyralei", Roll: 20, IsPlayer: true},
		{CharacterID: "char-tharion", Roll: 15, IsPlayer: true},
		{CharacterID: "mon-goblin-1", Roll: 10},
	}

	tests := []struct {
		name        string
		advance     int
		remove      string
		wantIndex   int
		wantCurrent string
	}{
		{
			name:        "before cursor shifts index down",
			advance:     1,
			remove:      "char-lyralei",
			wantIndex:   0,
			wantCurrent: "char-tharion",
		},
		{
			name:        "after cursor leaves index alone",
			advance:     0,
			remove:      "mon-goblin-1",
			wantIndex:   0,
			wantCurrent: "char-lyralei",
		},
		{
			name:        "at cursor passes turn to next entry",
			advance:     1,
			remove:      "char-tharion",
			wantIndex:   1,
			wantCurrent: "mon-goblin-1",
		},
		{
			name:        "at cursor on last entry wraps to top",
			advance:     2,
			remove:      "mon-goblin-1",
			wantIndex:   0,
			wantCurrent: "char-lyralei",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := roundsState(t, entries...)
			for i := 0; i < tt.advance; i++ {
				if _, _, err := s.AdvanceTurn(); err != nil {
					t.Fatalf("AdvanceTurn() error = %v", err)
				}
			}
			if !s.RemoveParticipant(tt.remove) {
				t.Fatalf("RemoveParticipant(%q) = false, want true", tt.remove)
			}
			if s.CurrentIndex != tt.wantIndex {
				t.Errorf("CurrentIndex = %d, want %d", s.CurrentIndex, tt.wantIndex)
			}
			if got := s.CurrentParticipantID(); got != tt.wantCurrent {
				t.Errorf("CurrentParticipantID() = %q, want %q", got, tt.wantCurrent)
			}
			for _, id := range s.Participants {
				if id == tt.remove {
					t.Errorf("Participants still contains %q after removal", tt.remove)
				}
			}
		})
	}
}

func TestRemoveParticipantAbsent(t *testing.T) {
	s := roundsState(t, InitiativeEntry{CharacterID: "char-lyralei", Roll: 20, IsPlayer: true})
	if s.RemoveParticipant("mon-ogre-1") {
		t.Error("RemoveParticipant() = true for absent combatant, want false")
	}
}

func TestAddCombatantMergesByInitiative(t *testing.T) {
	s := roundsState(t,
		InitiativeEntry{CharacterID: "char-lyralei", Roll: 20, IsPlayer: true},
		InitiativeEntry{CharacterID: "mon-goblin-1", Roll: 10},
	)
	if _, _, err := s.AdvanceTurn(); err != nil {
		t.Fatalf("AdvanceTurn() error = %v", err)
	}

	err := s.AddCombatant(InitiativeEntry{CharacterID: "mon-ogre-1", CharacterName: "Ogre", Roll: 15})
	if err != nil {
		t.Fatalf("AddCombatant() error = %v", err)
	}

	want := []string{"char-lyralei", "mon-ogre-1", "mon-goblin-1"}
	for i, id := range want {
		if s.Order[i].CharacterID != id {
			t.Errorf("Order[%d].CharacterID = %q, want %q", i, s.Order[i].CharacterID, id)
		}
	}
	// The cursor stays on its slice position, so the newcomer sliding in
	// above it takes over the current turn slot.
	if got := s.CurrentParticipantID(); got != "mon-ogre-1" {
		t.Errorf("CurrentParticipantID() = %q, want %q", got, "mon-ogre-1")
	}
	found := false
	for _, id := range s.Participants {
		if id == "mon-ogre-1" {
			found = true
		}
	}
	if !found {
		t.Error("Participants missing mon-ogre-1 after AddCombatant")
	}
}

func TestAddCombatantErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) *State
		entry InitiativeEntry
		code  apperrors.Code
	}{
		{
			name:  "outside rounds",
			setup: func(t *testing.T) *State { return NewState() },
			entry: InitiativeEntry{CharacterID: "mon-ogre-1", Roll: 15},
			code:  apperrors.CodeCombatPhaseInvalid,
		},
		{
			name: "duplicate id",
			setup: func(t *testing.T) *State {
				return roundsState(t, InitiativeEntry{CharacterID: "mon-goblin-1", Roll: 10})
			},
			entry: InitiativeEntry{CharacterID: "mon-goblin-1", Roll: 15},
			code:  apperrors.CodeCombatDuplicateEntry,
		},
		{
			name: "missing character id",
			setup: func(t *testing.T) *State {
				return roundsState(t, InitiativeEntry{CharacterID: "mon-goblin-1", Roll: 10})
			},
			entry: InitiativeEntry{Roll: 15},
			code:  apperrors.CodeCombatEntryInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.setup(t)
			err := s.AddCombatant(tt.entry)
			if !apperrors.IsCode(err, tt.code) {
				t.Errorf("AddCombatant() error = %v, want code %v", err, tt.code)
			}
		})
	}
}

func TestStartCombatEnd(t *testing.T) {
	s := roundsState(t, InitiativeEntry{CharacterID: "char-lyralei", Roll: 20, IsPlayer: true})
	if err := s.StartCombatEnd(); err != nil {
		t.Fatalf("StartCombatEnd() error = %v", err)
	}
	if s.Phase != PhaseCombatEnd {
		t.Errorf("Phase = %v, want %v", s.Phase, PhaseCombatEnd)
	}

	err := s.StartCombatEnd()
	if !apperrors.IsCode(err, apperrors.CodeCombatPhaseInvalid) {
		t.Errorf("StartCombatEnd() twice error = %v, want code %v", err, apperrors.CodeCombatPhaseInvalid)
	}
}

func TestFinishCombatResetsEverything(t *testing.T) {
	s := roundsState(t,
		InitiativeEntry{CharacterID: "char-lyralei", Roll: 20, IsPlayer: true},
		InitiativeEntry{CharacterID: "mon-goblin-1", Roll: 10},
	)
	if err := s.StartCombatEnd(); err != nil {
		t.Fatalf("StartCombatEnd() error = %v", err)
	}
	s.FinishCombat()

	if s.Phase != PhaseNotInCombat {
		t.Errorf("Phase = %v, want %v", s.Phase, PhaseNotInCombat)
	}
	if s.Round != 0 || s.CurrentIndex != 0 {
		t.Errorf("Round, CurrentIndex = %d, %d, want 0, 0", s.Round, s.CurrentIndex)
	}
	if len(s.Order) != 0 || len(s.Participants) != 0 {
		t.Errorf("Order, Participants not cleared: %d, %d entries", len(s.Order), len(s.Participants))
	}
	if s.EncounterName != "" {
		t.Errorf("EncounterName = %q, want empty", s.EncounterName)
	}

	// Forced exit works from any phase.
	fresh := startedState(t, InitiativeEntry{CharacterID: "char-lyralei", Roll: 20, IsPlayer: true})
	fresh.FinishCombat()
	if fresh.Phase != PhaseNotInCombat {
		t.Errorf("Phase after forced FinishCombat = %v, want %v", fresh.Phase, PhaseNotInCombat)
	}
}

func TestCurrentEntryOutsideRounds(t *testing.T) {
	s := startedState(t, InitiativeEntry{CharacterID: "char-lyralei", Roll: 20, IsPlayer: true})
	if _, ok := s.CurrentEntry(); ok {
		t.Error("CurrentEntry() ok = true during combat start, want false")
	}
	if got := s.CurrentParticipantID(); got != "" {
		t.Errorf("CurrentParticipantID() = %q, want empty", got)
	}
}
