package app

import (
	"context"
	"fmt"
	"time"

	"github.com/louisbranch/initiative-engine/internal/core/dice"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/combat"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/coordination"
)

// ExpectationInput declares who must answer next and in what shape.
type ExpectationInput struct {
	Type       string
	Characters []string
	Prompt     string
}

// ExpectationReport describes the installed expectation. Deadline is
// set when a collection timer was armed.
type ExpectationReport struct {
	Type       string     `json:"response_type"`
	Mode       string     `json:"mode"`
	Characters []string   `json:"characters,omitempty"`
	Filtered   []string   `json:"filtered,omitempty"`
	Prompt     string     `json:"prompt,omitempty"`
	Deadline   *time.Time `json:"deadline,omitempty"`
	Message    string     `json:"message"`
}

// SetExpectation installs a fresh collection window, discarding any
// prior one. All and Optional modes arm the session's collection timer.
func (s *Session) SetExpectation(ctx context.Context, input ExpectationInput) (ExpectationReport, error) {
	var report ExpectationReport
	err := s.do(ctx, "expectation.set", func(ctx context.Context, st *state) error {
		responseType, err := coordination.ParseResponseType(input.Type)
		if err != nil {
			return err
		}
		expectation, err := coordination.NewExpectation(responseType, input.Characters, input.Prompt)
		if err != nil {
			return err
		}

		known := make(map[string]bool, len(st.roster))
		for id := range st.roster {
			known[id] = true
		}
		if err := expectation.ApplyRegistry(known); err != nil {
			return err
		}

		st.coordinator.SetExpectation(expectation)
		st.resolved = false
		st.collectGen++
		s.stopCollectionTimer()

		mode := expectation.Type.CollectionMode()
		report = ExpectationReport{
			Type:       string(expectation.Type),
			Mode:       string(mode),
			Characters: append([]string(nil), expectation.Characters...),
			Filtered:   append([]string(nil), expectation.Filtered...),
			Prompt:     expectation.Prompt,
			Message:    st.coordinator.StatusMessage(),
		}
		switch mode {
		case coordination.ModeAll, coordination.ModeOptional:
			deadline := time.Now().UTC().Add(s.collectionTimeout)
			report.Deadline = &deadline
			s.armCollectionTimer(st.collectGen)
		}

		s.publish(EventExpectationSet, map[string]any{
			"response_type": string(expectation.Type),
			"mode":          string(mode),
			"characters":    append([]string(nil), expectation.Characters...),
		})
		return nil
	})
	return report, err
}

// CollectionStatus reports the current response-collection window.
type CollectionStatus struct {
	Type      string            `json:"response_type,omitempty"`
	Mode      string            `json:"mode"`
	Prompt    string            `json:"prompt,omitempty"`
	Complete  bool              `json:"complete"`
	Collected map[string]string `json:"collected,omitempty"`
	Missing   []string          `json:"missing,omitempty"`
	Message   string            `json:"message"`
}

func collectionStatus(st *state) CollectionStatus {
	status := CollectionStatus{
		Mode:     string(st.coordinator.CollectionMode()),
		Complete: st.resolved || st.coordinator.IsCollectionComplete(),
		Missing:  st.coordinator.MissingResponders(),
		Message:  st.coordinator.StatusMessage(),
	}
	if expectation := st.coordinator.Expectation(); expectation != nil {
		status.Type = string(expectation.Type)
		status.Prompt = expectation.Prompt
	}
	if responses := st.coordinator.CollectedResponses(); len(responses) > 0 {
		status.Collected = make(map[string]string, len(responses))
		for id, response := range responses {
			status.Collected[id] = response.Payload
		}
	}
	return status
}

// Collection reports the state of the current collection window.
func (s *Session) Collection(ctx context.Context) (CollectionStatus, error) {
	var status CollectionStatus
	err := s.do(ctx, "collection.status", func(ctx context.Context, st *state) error {
		status = collectionStatus(st)
		return nil
	})
	return status, err
}

// ResolutionReport describes a closed collection window.
type ResolutionReport struct {
	Type        string   `json:"response_type,omitempty"`
	Synthesized []string `json:"synthesized,omitempty"`
	Responses   int      `json:"responses"`
	Message     string   `json:"message"`
}

// ResolveCollection closes the current window immediately, synthesizing
// whatever the timeout handler would have.
func (s *Session) ResolveCollection(ctx context.Context) (ResolutionReport, error) {
	var report ResolutionReport
	err := s.do(ctx, "collection.resolve", func(ctx context.Context, st *state) error {
		var err error
		report, err = s.closeCollection(st, "resolved")
		return err
	})
	return report, err
}

// closeCollection fills the window's gaps and marks it complete.
// Initiative synthesizes seeded auto-rolls for everyone missing, saving
// throws record an empty no-response payload, and reactions simply
// decline. Runs on the worker.
func (s *Session) closeCollection(st *state, cause string) (ResolutionReport, error) {
	expectation := st.coordinator.Expectation()
	if expectation == nil {
		return ResolutionReport{Message: "No collection window is open"}, nil
	}
	if st.resolved {
		return ResolutionReport{
			Type:      string(expectation.Type),
			Responses: len(st.coordinator.CollectedResponses()),
			Message:   "Collection window already closed",
		}, nil
	}

	var synthesized []string
	if !st.coordinator.IsCollectionComplete() {
		missing := st.coordinator.MissingResponders()
		switch expectation.Type {
		case coordination.ResponseInitiative:
			for _, id := range missing {
				dexModifier := 0
				name := id
				isPlayer := false
				if member, ok := st.roster[id]; ok {
					dexModifier = member.DexterityModifier()
					name = member.DisplayName()
					isPlayer = member.PlayerControlled()
				}
				roll := dice.RollInitiative(st.rng, dexModifier)
				if st.combat.Phase == combat.PhaseCombatStart {
					entry := combat.InitiativeEntry{
						CharacterID:   id,
						CharacterName: name,
						Roll:          roll.Total,
						IsPlayer:      isPlayer,
						DexModifier:   dexModifier,
					}
					if err := st.combat.AddInitiativeRoll(entry); err != nil {
						return ResolutionReport{}, err
					}
				}
				st.coordinator.AddResponse(id, fmt.Sprintf("auto-rolled %d (d20 %d%+d)", roll.Total, roll.Die, roll.Modifier))
				synthesized = append(synthesized, id)
			}
		case coordination.ResponseSavingThrow:
			for _, id := range missing {
				st.coordinator.AddResponse(id, "")
				synthesized = append(synthesized, id)
			}
		}
		// Reaction and the remaining modes close with whatever arrived.
	}

	s.completeCollection(st, synthesized, cause)
	return ResolutionReport{
		Type:        string(expectation.Type),
		Synthesized: synthesized,
		Responses:   len(st.coordinator.CollectedResponses()),
		Message:     fmt.Sprintf("Collection closed with %d response(s)", len(st.coordinator.CollectedResponses())),
	}, nil
}

// completeCollection marks the window closed, disarms the timer and
// announces completion. Runs on the worker.
func (s *Session) completeCollection(st *state, synthesized []string, cause string) {
	st.resolved = true
	st.collectGen++
	s.stopCollectionTimer()

	payload := map[string]any{
		"cause":     cause,
		"responses": len(st.coordinator.CollectedResponses()),
	}
	if expectation := st.coordinator.Expectation(); expectation != nil {
		payload["response_type"] = string(expectation.Type)
	}
	if len(synthesized) > 0 {
		payload["synthesized"] = synthesized
	}
	s.publish(EventCollectionComplete, payload)
}

// SubmitResult reports how one inbound player message was handled.
type SubmitResult struct {
	Result             string   `json:"result"`
	Accepted           bool     `json:"accepted"`
	Message            string   `json:"message"`
	Expected           []string `json:"expected,omitempty"`
	Added              string   `json:"added,omitempty"`
	CollectionComplete bool     `json:"collection_complete"`
	Status             string   `json:"status_message"`
}

// SubmitMessage validates an inbound player message against the current
// expectation. Accepted messages are recorded in the collection window
// and appended to the live turn's log.
func (s *Session) SubmitMessage(ctx context.Context, characterID, text string) (SubmitResult, error) {
	var result SubmitResult
	err := s.do(ctx, "message.submit", func(ctx context.Context, st *state) error {
		v := st.coordinator.ValidateResponder(characterID)
		result = SubmitResult{
			Result:   string(v.Result),
			Accepted: v.Allowed(),
			Message:  v.Message,
			Expected: append([]string(nil), v.Expected...),
		}
		if !v.Allowed() {
			result.Status = st.coordinator.StatusMessage()
			return nil
		}

		if st.coordinator.Expectation() != nil {
			result.Added = string(st.coordinator.AddResponse(characterID, text))
		}
		if st.turns.InTurn() {
			if err := st.turns.AddMessage(text, characterID); err != nil {
				return err
			}
		}
		if !st.resolved && st.coordinator.Expectation() != nil && st.coordinator.IsCollectionComplete() {
			s.completeCollection(st, nil, "collected")
			result.CollectionComplete = true
		}

		result.Status = st.coordinator.StatusMessage()
		s.publish(EventStatusMessage, map[string]any{
			"character": characterID,
			"status":    result.Status,
		})
		return nil
	})
	return result, err
}
