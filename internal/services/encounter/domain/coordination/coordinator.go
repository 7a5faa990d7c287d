package coordination

import "strings"

// ValidationResult classifies an incoming message against the current
// expectation.
type ValidationResult string

const (
	Valid              ValidationResult = "valid"
	NotYourTurn        ValidationResult = "invalid_not_your_turn"
	NoResponseExpected ValidationResult = "invalid_no_response_expected"
	AlreadyResponded   ValidationResult = "invalid_already_responded"
)

// Validation carries the outcome of validating one message plus a line
// suitable for echoing back to the player.
type Validation struct {
	Result   ValidationResult `json:"result"`
	Message  string           `json:"message"`
	Expected []string         `json:"expected_characters,omitempty"`
}

// Allowed reports whether the message may proceed.
func (v Validation) Allowed() bool { return v.Result == Valid }

// Coordinator is the gatekeeper for player messages in one session.
// While combat mode is off every message passes; while it is on,
// messages are checked against the current expectation and collector.
//
// Coordinator is not safe for concurrent use; a session worker owns it.
type Coordinator struct {
	combatMode  bool
	expectation *Expectation
	collector   *Collector
	gmBusy      bool
}

// NewCoordinator returns a Coordinator in exploration mode.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// ValidateResponder decides whether a character may send a message right
// now. The checks run in a fixed order: exploration mode and a missing
// expectation both fail open, a narrating expectation rejects everyone,
// an unlisted character is told whose turn it is, and a listed character
// who already answered this cycle is rejected as a duplicate.
func (c *Coordinator) ValidateResponder(characterID string) Validation {
	if !c.combatMode {
		return Validation{Result: Valid, Message: "Exploration mode - all messages accepted"}
	}
	if c.expectation == nil {
		return Validation{Result: Valid, Message: "No expectation set - accepting message"}
	}
	if c.expectation.Type == ResponseNone {
		return Validation{Result: NoResponseExpected, Message: "DM is narrating - no response expected"}
	}
	if !c.expectation.expects(characterID) {
		expected := append([]string(nil), c.expectation.Characters...)
		if len(expected) == 0 {
			return Validation{Result: NoResponseExpected, Message: "No characters expected to respond"}
		}
		return Validation{
			Result:   NotYourTurn,
			Message:  "Not your turn! Waiting for: " + strings.Join(expected, ", "),
			Expected: expected,
		}
	}
	if c.collector != nil && c.collector.Has(characterID) {
		return Validation{Result: AlreadyResponded, Message: characterID + " has already responded"}
	}
	return Validation{Result: Valid, Message: characterID + " is a valid responder"}
}

// IsValidResponder is the boolean form of ValidateResponder.
func (c *Coordinator) IsValidResponder(characterID string) bool {
	return c.ValidateResponder(characterID).Allowed()
}

// SetExpectation installs a new expectation and starts a fresh
// collection cycle for it. Passing nil clears both.
func (c *Coordinator) SetExpectation(expectation *Expectation) {
	c.expectation = expectation
	if expectation != nil {
		c.collector = NewCollector(expectation)
	} else {
		c.collector = nil
	}
}

// Expectation returns the current expectation, or nil.
func (c *Coordinator) Expectation() *Expectation { return c.expectation }

// Collector returns the current collection cycle, or nil.
func (c *Coordinator) Collector() *Collector { return c.collector }

// AddResponse records a response in the current cycle. Without a cycle
// in progress every response is unexpected.
func (c *Coordinator) AddResponse(characterID, payload string) AddResult {
	if c.collector == nil {
		return AddUnexpected
	}
	return c.collector.Add(characterID, payload)
}

// IsCollectionComplete reports whether the current cycle has enough
// responses. With no cycle in progress there is nothing to wait for.
func (c *Coordinator) IsCollectionComplete() bool {
	if c.collector == nil {
		return true
	}
	return c.collector.IsComplete()
}

// CollectedResponses returns a copy of this cycle's responses.
func (c *Coordinator) CollectedResponses() map[string]Response {
	if c.collector == nil {
		return map[string]Response{}
	}
	return c.collector.Collected()
}

// MissingResponders lists who the current cycle is still waiting on.
func (c *Coordinator) MissingResponders() []string {
	if c.collector == nil {
		return nil
	}
	return c.collector.MissingResponders()
}

// CollectionMode returns the mode of the current expectation, or
// ModeNone without one.
func (c *Coordinator) CollectionMode() CollectionMode {
	if c.expectation == nil {
		return ModeNone
	}
	return c.expectation.Type.CollectionMode()
}

// StatusMessage renders a line describing the coordination state.
func (c *Coordinator) StatusMessage() string {
	if !c.combatMode {
		return "Exploration mode - all messages accepted"
	}
	if c.expectation == nil {
		return "No expectation set"
	}
	if c.collector != nil {
		return c.collector.StatusMessage()
	}
	return "Unknown state"
}

// EnterCombatMode switches on strict turn enforcement.
func (c *Coordinator) EnterCombatMode() { c.combatMode = true }

// ExitCombatMode returns to exploration mode and clears any pending
// expectation.
func (c *Coordinator) ExitCombatMode() {
	c.combatMode = false
	c.expectation = nil
	c.collector = nil
}

// CombatMode reports whether strict enforcement is on.
func (c *Coordinator) CombatMode() bool { return c.combatMode }

// SetGMProcessing flags that the game master is mid-generation, so the
// transport can hold or queue messages arriving in that window.
func (c *Coordinator) SetGMProcessing(busy bool) { c.gmBusy = busy }

// GMProcessing reports whether the game master is mid-generation.
func (c *Coordinator) GMProcessing() bool { return c.gmBusy }

// Reset returns the coordinator to its initial exploration state.
func (c *Coordinator) Reset() {
	c.combatMode = false
	c.expectation = nil
	c.collector = nil
	c.gmBusy = false
}
