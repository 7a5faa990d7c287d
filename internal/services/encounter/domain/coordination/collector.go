package coordination

import (
	"strings"
	"time"
)

// AddResult reports what happened to a submitted response.
type AddResult string

const (
	AddAccepted   AddResult = "accepted"
	AddDuplicate  AddResult = "duplicate"
	AddUnexpected AddResult = "unexpected"
)

// Response is one collected answer.
type Response struct {
	Payload    string    `json:"payload"`
	ReceivedAt time.Time `json:"received_at"`
}

// Collector gathers responses for a single expectation cycle. It is not
// safe for concurrent use; a session worker owns it.
type Collector struct {
	expectation *Expectation
	collected   map[string]Response
	startedAt   time.Time
}

// NewCollector starts a fresh collection cycle for the expectation.
func NewCollector(expectation *Expectation) *Collector {
	return &Collector{
		expectation: expectation,
		collected:   make(map[string]Response),
		startedAt:   time.Now().UTC(),
	}
}

// Expectation returns the expectation this collector serves.
func (c *Collector) Expectation() *Expectation { return c.expectation }

// StartedAt returns when the cycle began.
func (c *Collector) StartedAt() time.Time { return c.startedAt }

// Add records a response. Characters outside the expected list are
// rejected as unexpected; a second response from the same character is a
// duplicate and leaves the first in place.
func (c *Collector) Add(characterID, payload string) AddResult {
	if !c.expectation.expects(characterID) {
		return AddUnexpected
	}
	if _, ok := c.collected[characterID]; ok {
		return AddDuplicate
	}
	c.collected[characterID] = Response{Payload: payload, ReceivedAt: time.Now().UTC()}
	return AddAccepted
}

// Remove withdraws a previously collected response so the character can
// retry after a downstream failure. It reports whether one was present.
func (c *Collector) Remove(characterID string) bool {
	if _, ok := c.collected[characterID]; !ok {
		return false
	}
	delete(c.collected, characterID)
	return true
}

// Has reports whether the character already responded this cycle.
func (c *Collector) Has(characterID string) bool {
	_, ok := c.collected[characterID]
	return ok
}

// Collected returns a copy of the responses gathered so far.
func (c *Collector) Collected() map[string]Response {
	out := make(map[string]Response, len(c.collected))
	for id, r := range c.collected {
		out[id] = r
	}
	return out
}

// IsComplete reports whether enough responses arrived for the
// expectation's collection mode. Optional cycles never complete from
// collection alone; they close by timeout or by everyone passing.
func (c *Collector) IsComplete() bool {
	switch c.expectation.Type.CollectionMode() {
	case ModeSingle, ModeAny:
		return len(c.collected) >= 1
	case ModeAll:
		return len(c.collected) >= len(c.expectation.Characters)
	case ModeNone:
		return true
	default:
		return false
	}
}

// MissingResponders lists the expected characters who have not answered,
// in expectation order.
func (c *Collector) MissingResponders() []string {
	var missing []string
	for _, id := range c.expectation.Characters {
		if _, ok := c.collected[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// ActiveCharacter passes through the expectation's active character.
func (c *Collector) ActiveCharacter() string {
	return c.expectation.ActiveCharacter()
}

// IsValidResponder reports whether the character is on the expected
// list.
func (c *Collector) IsValidResponder(characterID string) bool {
	return c.expectation.expects(characterID)
}

// StatusMessage renders a short human-readable line describing what the
// cycle is waiting on.
func (c *Collector) StatusMessage() string {
	if c.IsComplete() {
		return "Complete"
	}

	mode := c.expectation.Type.CollectionMode()
	if mode == ModeNone {
		return "No response expected"
	}

	missing := c.MissingResponders()
	if len(missing) == 0 {
		return "Complete"
	}

	switch mode {
	case ModeSingle:
		return "Waiting for: " + missing[0]
	case ModeAny:
		return "Waiting for any of: " + strings.Join(c.expectation.Characters, ", ")
	default:
		return "Waiting for: " + strings.Join(missing, ", ")
	}
}

// Reset clears collected responses for a new cycle against the same
// expectation.
func (c *Collector) Reset() {
	c.collected = make(map[string]Response)
	c.startedAt = time.Now().UTC()
}
