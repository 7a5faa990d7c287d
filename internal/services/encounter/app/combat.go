package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/initiative-engine/internal/platform/errors"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/character"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/combat"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/coordination"
)

// CombatStartReport lists who entered combat and who still needs to
// roll initiative.
type CombatStartReport struct {
	Phase        string   `json:"phase"`
	Encounter    string   `json:"encounter_name,omitempty"`
	Participants []string `json:"participants"`
	Players      []string `json:"players,omitempty"`
	Monsters     []string `json:"monsters,omitempty"`
}

// StartCombat opens an encounter with the given roster members.
// Installing the initiative expectation stays with the caller, which
// knows which players are present at the table.
func (s *Session) StartCombat(ctx context.Context, participants []string, encounterName string) (CombatStartReport, error) {
	var report CombatStartReport
	err := s.do(ctx, "combat.start", func(ctx context.Context, st *state) error {
		if len(participants) == 0 {
			return apperrors.New(apperrors.CodeCombatNoParticipants, "combat requires at least one participant")
		}
		var unknown []string
		for _, id := range participants {
			if _, ok := st.roster[id]; !ok {
				unknown = append(unknown, id)
			}
		}
		if len(unknown) > 0 {
			return apperrors.WithMetadata(apperrors.CodeCombatUnknownCombatant,
				"combat participants must be roster members",
				map[string]string{"unknown": strings.Join(unknown, ", ")})
		}

		if err := st.combat.StartCombat(participants, encounterName); err != nil {
			return err
		}
		st.coordinator.EnterCombatMode()

		report = CombatStartReport{
			Phase:        st.combat.Phase.String(),
			Encounter:    encounterName,
			Participants: append([]string(nil), participants...),
		}
		for _, id := range participants {
			if st.roster[id].PlayerControlled() {
				report.Players = append(report.Players, id)
			} else {
				report.Monsters = append(report.Monsters, id)
			}
		}

		s.publish(EventPhaseChanged, map[string]any{
			"phase":     st.combat.Phase.String(),
			"encounter": encounterName,
		})
		return nil
	})
	return report, err
}

// InitiativeRollReport confirms one recorded initiative roll.
type InitiativeRollReport struct {
	CharacterID string   `json:"character_id"`
	Roll        int      `json:"roll"`
	Pending     []string `json:"pending,omitempty"`
}

// RollInitiative records a combatant's initiative total. An active
// initiative collection window absorbs the roll as that character's
// response.
func (s *Session) RollInitiative(ctx context.Context, characterID string, roll int) (InitiativeRollReport, error) {
	var report InitiativeRollReport
	err := s.do(ctx, "initiative.roll", func(ctx context.Context, st *state) error {
		entry, err := initiativeEntry(st, characterID, roll)
		if err != nil {
			return err
		}
		if err := st.combat.AddInitiativeRoll(entry); err != nil {
			return err
		}

		if expectation := st.coordinator.Expectation(); expectation != nil && expectation.Type == coordination.ResponseInitiative {
			st.coordinator.AddResponse(characterID, strconv.Itoa(roll))
			if !st.resolved && st.coordinator.IsCollectionComplete() {
				s.completeCollection(st, nil, "collected")
			}
		}

		report = InitiativeRollReport{
			CharacterID: characterID,
			Roll:        roll,
			Pending:     pendingInitiative(st),
		}
		return nil
	})
	return report, err
}

func initiativeEntry(st *state, characterID string, roll int) (combat.InitiativeEntry, error) {
	member, ok := st.roster[characterID]
	if !ok {
		return combat.InitiativeEntry{}, apperrors.Newf(apperrors.CodeCharacterNotFound, "no character with id %q", characterID)
	}
	return combat.InitiativeEntry{
		CharacterID:   characterID,
		CharacterName: member.DisplayName(),
		Roll:          roll,
		IsPlayer:      member.PlayerControlled(),
		DexModifier:   member.DexterityModifier(),
	}, nil
}

func pendingInitiative(st *state) []string {
	rolled := make(map[string]bool, len(st.combat.Order))
	for _, entry := range st.combat.Order {
		rolled[entry.CharacterID] = true
	}
	var pending []string
	for _, id := range st.combat.Participants {
		if !rolled[id] {
			pending = append(pending, id)
		}
	}
	return pending
}

// InitiativeOrderReport is the finalized order for round one.
type InitiativeOrderReport struct {
	Round   int                      `json:"round"`
	First   string                   `json:"first_combatant,omitempty"`
	Order   []combat.InitiativeEntry `json:"order"`
	Summary string                   `json:"summary"`
}

// FinalizeInitiative sorts the collected rolls and opens round one.
func (s *Session) FinalizeInitiative(ctx context.Context) (InitiativeOrderReport, error) {
	var report InitiativeOrderReport
	err := s.do(ctx, "initiative.finalize", func(ctx context.Context, st *state) error {
		if err := st.combat.FinalizeInitiative(); err != nil {
			return err
		}
		report = InitiativeOrderReport{
			Round:   st.combat.Round,
			First:   st.combat.CurrentParticipantID(),
			Order:   append([]combat.InitiativeEntry(nil), st.combat.Order...),
			Summary: st.combat.InitiativeSummary(),
		}
		s.publish(EventPhaseChanged, map[string]any{"phase": st.combat.Phase.String()})
		s.publish(EventRoundStarted, map[string]any{
			"round": st.combat.Round,
			"first": report.First,
		})
		return nil
	})
	return report, err
}

// CombatAdvanceReport describes the next combat turn.
type CombatAdvanceReport struct {
	Next           string              `json:"next_combatant"`
	NextName       string              `json:"next_combatant_name,omitempty"`
	Round          int                 `json:"round"`
	NewRound       bool                `json:"new_round"`
	ExpiredEffects map[string][]string `json:"expired_effects,omitempty"`
	CombatOver     bool                `json:"combat_over"`
}

// AdvanceCombat moves the initiative pointer. Wrapping into a new round
// ticks round-scoped effect durations and recharges legendary actions
// for everyone still in the order.
func (s *Session) AdvanceCombat(ctx context.Context) (CombatAdvanceReport, error) {
	var report CombatAdvanceReport
	err := s.do(ctx, "combat.advance", func(ctx context.Context, st *state) error {
		next, newRound, err := st.combat.AdvanceTurn()
		if err != nil {
			return err
		}

		report = CombatAdvanceReport{
			Next:     next,
			Round:    st.combat.Round,
			NewRound: newRound,
		}
		if member, ok := st.roster[next]; ok {
			report.NextName = member.DisplayName()
		}
		if newRound {
			report.ExpiredEffects = tickRound(st)
			s.publish(EventRoundStarted, map[string]any{
				"round": st.combat.Round,
				"first": next,
			})
		}
		report.CombatOver = st.combat.IsCombatOver()
		return nil
	})
	return report, err
}

func tickRound(st *state) map[string][]string {
	var expired map[string][]string
	for _, entry := range st.combat.Order {
		member, ok := st.roster[entry.CharacterID]
		if !ok {
			continue
		}
		if ticker, ok := member.(character.RoundTicker); ok {
			if names := ticker.TickRoundEffects(); len(names) > 0 {
				if expired == nil {
					expired = make(map[string][]string)
				}
				expired[entry.CharacterID] = names
			}
		}
		if legendary, ok := member.(character.LegendaryActor); ok {
			legendary.ResetLegendaryActions()
		}
	}
	return expired
}

// CombatantRemovalReport confirms a removal and reports whether a side
// has been wiped out.
type CombatantRemovalReport struct {
	CharacterID string `json:"character_id"`
	Remaining   int    `json:"remaining"`
	Current     string `json:"current_combatant,omitempty"`
	CombatOver  bool   `json:"combat_over"`
}

// RemoveCombatant drops a defeated or fled combatant from the
// initiative order. The roster keeps the character record.
func (s *Session) RemoveCombatant(ctx context.Context, characterID string) (CombatantRemovalReport, error) {
	var report CombatantRemovalReport
	err := s.do(ctx, "combatant.remove", func(ctx context.Context, st *state) error {
		if !st.combat.RemoveParticipant(characterID) {
			return apperrors.Newf(apperrors.CodeCombatParticipantAbsent, "%s is not in the initiative order", characterID)
		}
		report = CombatantRemovalReport{
			CharacterID: characterID,
			Remaining:   len(st.combat.Order),
			Current:     st.combat.CurrentParticipantID(),
			CombatOver:  st.combat.IsCombatOver(),
		}
		s.publish(EventStatusMessage, map[string]any{
			"status": fmt.Sprintf("%s removed from combat", characterID),
		})
		return nil
	})
	return report, err
}

// CombatantAddReport confirms a mid-round arrival.
type CombatantAddReport struct {
	CharacterID string `json:"character_id"`
	Roll        int    `json:"roll"`
	Position    int    `json:"position"`
	Summary     string `json:"summary"`
}

// AddCombatant inserts a roster member into a running combat, re-sorting
// the initiative order around the new roll.
func (s *Session) AddCombatant(ctx context.Context, characterID string, roll int) (CombatantAddReport, error) {
	var report CombatantAddReport
	err := s.do(ctx, "combatant.add", func(ctx context.Context, st *state) error {
		entry, err := initiativeEntry(st, characterID, roll)
		if err != nil {
			return err
		}
		if err := st.combat.AddCombatant(entry); err != nil {
			return err
		}

		report = CombatantAddReport{
			CharacterID: characterID,
			Roll:        roll,
			Summary:     st.combat.InitiativeSummary(),
		}
		for i, sorted := range st.combat.Order {
			if sorted.CharacterID == characterID {
				report.Position = i
				break
			}
		}
		s.publish(EventStatusMessage, map[string]any{
			"status": fmt.Sprintf("%s joined combat with initiative %d", characterID, roll),
		})
		return nil
	})
	return report, err
}

// PhaseReport names the combat phase after a transition.
type PhaseReport struct {
	Phase string `json:"phase"`
	Round int    `json:"round,omitempty"`
}

// BeginCombatEnd transitions a running combat into its wrap-up phase.
func (s *Session) BeginCombatEnd(ctx context.Context) (PhaseReport, error) {
	var report PhaseReport
	err := s.do(ctx, "combat.endbegin", func(ctx context.Context, st *state) error {
		if err := st.combat.StartCombatEnd(); err != nil {
			return err
		}
		report = PhaseReport{Phase: st.combat.Phase.String(), Round: st.combat.Round}
		s.publish(EventPhaseChanged, map[string]any{"phase": st.combat.Phase.String()})
		return nil
	})
	return report, err
}

// FinishCombat resets combat state and returns the table to
// exploration. Any open collection window dies with the encounter.
func (s *Session) FinishCombat(ctx context.Context) (PhaseReport, error) {
	var report PhaseReport
	err := s.do(ctx, "combat.finish", func(ctx context.Context, st *state) error {
		st.combat.FinishCombat()
		st.coordinator.ExitCombatMode()
		st.resolved = false
		st.collectGen++
		s.stopCollectionTimer()

		report = PhaseReport{Phase: st.combat.Phase.String()}
		s.publish(EventPhaseChanged, map[string]any{"phase": st.combat.Phase.String()})
		return nil
	})
	return report, err
}

// InitiativeSummary renders the order as display text.
func (s *Session) InitiativeSummary(ctx context.Context) (string, error) {
	var summary string
	err := s.do(ctx, "initiative.summary", func(ctx context.Context, st *state) error {
		summary = st.combat.InitiativeSummary()
		return nil
	})
	return summary, err
}

// InitiativeJSON renders the combat state for read-only introspection.
func (s *Session) InitiativeJSON(ctx context.Context) (json.RawMessage, error) {
	var data json.RawMessage
	err := s.do(ctx, "initiative.snapshot", func(ctx context.Context, st *state) error {
		snapshot := struct {
			Phase     string                   `json:"phase"`
			Round     int                      `json:"round"`
			Current   string                   `json:"current_combatant,omitempty"`
			Order     []combat.InitiativeEntry `json:"order"`
			Encounter string                   `json:"encounter_name,omitempty"`
		}{
			Phase:     st.combat.Phase.String(),
			Round:     st.combat.Round,
			Current:   st.combat.CurrentParticipantID(),
			Order:     append([]combat.InitiativeEntry(nil), st.combat.Order...),
			Encounter: st.combat.EncounterName,
		}
		encoded, err := json.Marshal(snapshot)
		if err != nil {
			return err
		}
		data = encoded
		return nil
	})
	return data, err
}
