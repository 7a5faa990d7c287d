package app

import (
	"context"
	"encoding/json"
	"log"

	apperrors "github.com/louisbranch/initiative-engine/internal/platform/errors"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/content"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/combat"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/turn"
)

// TurnOptions configure one new turn.
type TurnOptions struct {
	// ActiveCharacter is whose action opens the turn.
	ActiveCharacter string
	// Content is the opening message, normally the declared action.
	Content string
	// StepObjectives scripts the turn. Empty selects the standard
	// adjudication sequence during combat rounds and no script outside
	// of them.
	StepObjectives []string
	Metadata       map[string]string
}

// TurnReport describes the turn now in play.
type TurnReport struct {
	TurnID          string   `json:"turn_id"`
	Level           int      `json:"turn_level"`
	ActiveCharacter string   `json:"active_character,omitempty"`
	StepObjective   string   `json:"step_objective,omitempty"`
	Created         []string `json:"created,omitempty"`
}

// StartTurn opens a turn for one character's action. When a turn is
// already open the new one nests beneath it as a reaction sub-turn.
func (s *Session) StartTurn(ctx context.Context, opts TurnOptions) (TurnReport, error) {
	var report TurnReport
	err := s.do(ctx, "turn.start", func(ctx context.Context, st *state) error {
		actions := []turn.QueuedAction{{Speaker: opts.ActiveCharacter, Content: opts.Content}}
		result, err := st.turns.StartTurns(actions, turnObjectives(st, opts.StepObjectives), initiativeIDs(st), opts.Metadata)
		if err != nil {
			return err
		}
		report = turnReport(result)
		s.publishTurnStarted(result.Next)
		return nil
	})
	return report, err
}

// QueueTurns opens sibling turns for a batch of simultaneous actions,
// typically reactions declared against the turn in play. The first
// queued turn becomes active; the rest wait their siblings out.
func (s *Session) QueueTurns(ctx context.Context, actions []turn.QueuedAction, stepObjectives []string) (TurnReport, error) {
	var report TurnReport
	err := s.do(ctx, "turn.queue", func(ctx context.Context, st *state) error {
		result, err := st.turns.StartTurns(actions, stepObjectives, initiativeIDs(st), nil)
		if err != nil {
			return err
		}
		report = turnReport(result)
		s.publishTurnStarted(result.Next)
		return nil
	})
	return report, err
}

func turnObjectives(st *state, requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	if st.combat.Phase == combat.PhaseCombatRounds {
		return content.ObjectiveTexts(content.DefaultAdjudication())
	}
	return nil
}

func initiativeIDs(st *state) []string {
	if st.combat.Phase != combat.PhaseCombatRounds {
		return nil
	}
	ids := make([]string, 0, len(st.combat.Order))
	for _, entry := range st.combat.Order {
		ids = append(ids, entry.CharacterID)
	}
	return ids
}

func turnReport(result *turn.StartResult) TurnReport {
	return TurnReport{
		TurnID:          result.Next.ID,
		Level:           result.Next.Level,
		ActiveCharacter: result.Next.ActiveCharacter,
		StepObjective:   result.Next.CurrentStepObjective(),
		Created:         append([]string(nil), result.TurnIDs...),
	}
}

// publishTurnStarted announces a turn coming into play, either freshly
// created or surfacing from the sibling queue.
func (s *Session) publishTurnStarted(tc *turn.Context) {
	if tc == nil {
		return
	}
	s.publish(EventTurnStarted, map[string]any{
		"turn_id":   tc.ID,
		"level":     tc.Level,
		"character": tc.ActiveCharacter,
	})
}

// TurnEndReport describes a completed turn and what to process next.
type TurnEndReport struct {
	Result         turn.EndResult `json:"result"`
	NextTurnID     string         `json:"next_turn_id,omitempty"`
	ReturnToParent bool           `json:"return_to_parent"`
	ParentGuidance string         `json:"parent_guidance,omitempty"`
}

// EndTurn closes the active turn, journals it when it was a root turn,
// and reports the pending sibling or the return to the parent.
func (s *Session) EndTurn(ctx context.Context) (TurnEndReport, error) {
	var report TurnEndReport
	err := s.do(ctx, "turn.end", func(ctx context.Context, st *state) error {
		result, transition, err := st.turns.EndTurnAndNext(ctx)
		if err != nil {
			return err
		}
		if result.CondenseErr != nil {
			log.Printf("condense failed session=%s turn=%s err=%v", s.id, result.TurnID, result.CondenseErr)
		}
		if result.Level == 0 && s.turnLog != nil {
			completed := st.turns.CompletedTurns()
			entry := completed[len(completed)-1]
			if err := s.turnLog.AppendCompletedTurn(ctx, s.id, entry); err != nil {
				log.Printf("journal turn session=%s turn=%s err=%v", s.id, result.TurnID, err)
			}
		}

		report = TurnEndReport{
			Result:         *result,
			ReturnToParent: transition.ReturnToParent,
			ParentGuidance: transition.ParentGuidance,
		}
		s.publish(EventTurnEnded, map[string]any{
			"turn_id":  result.TurnID,
			"level":    result.Level,
			"messages": result.MessageCount,
		})
		if transition.Next != nil {
			report.NextTurnID = transition.Next.ID
			s.publishTurnStarted(transition.Next)
		}
		return nil
	})
	return report, err
}

// StepReport describes step progression within the active turn.
type StepReport struct {
	TurnID    string `json:"turn_id"`
	Objective string `json:"objective,omitempty"`
	Remaining bool   `json:"remaining"`
}

// AdvanceStep moves the active turn to its next scripted objective.
func (s *Session) AdvanceStep(ctx context.Context) (StepReport, error) {
	var report StepReport
	err := s.do(ctx, "turn.step", func(ctx context.Context, st *state) error {
		remaining, err := st.turns.AdvanceStep()
		if err != nil {
			return err
		}
		report = StepReport{
			TurnID:    st.turns.Current().ID,
			Objective: st.turns.CurrentStepObjective(),
			Remaining: remaining,
		}
		return nil
	})
	return report, err
}

// SetObjective overrides the active turn's step objective with an ad
// hoc one.
func (s *Session) SetObjective(ctx context.Context, objective string) error {
	return s.do(ctx, "turn.objective", func(ctx context.Context, st *state) error {
		if !st.turns.SetNextStepObjective(objective) {
			return apperrors.New(apperrors.CodeTurnStackEmpty, "no active turn to set an objective on")
		}
		return nil
	})
}

// TurnStats reports the session's turn-tracking counters.
func (s *Session) TurnStats(ctx context.Context) (turn.Stats, error) {
	var stats turn.Stats
	err := s.do(ctx, "turn.stats", func(ctx context.Context, st *state) error {
		stats = st.turns.Stats()
		return nil
	})
	return stats, err
}

// TurnSnapshotJSON renders the turn stack and completed history for
// read-only introspection. Marshaling happens on the worker so the
// contexts cannot change mid-render.
func (s *Session) TurnSnapshotJSON(ctx context.Context) (json.RawMessage, error) {
	var data json.RawMessage
	err := s.do(ctx, "turn.snapshot", func(ctx context.Context, st *state) error {
		encoded, err := json.Marshal(st.turns.Snapshot())
		if err != nil {
			return err
		}
		data = encoded
		return nil
	})
	return data, err
}
