package turn

import (
	"time"

	apperrors "github.com/louisbranch/initiative-engine/internal/platform/errors"
)

// Context is one turn or sub-turn on the stack.
//
// ID is hierarchical: root turns count up "1", "2", …; sub-turns append
// their position to the parent id, "2.1", "2.1.3". Level is the stack
// depth when the turn was created and never changes afterwards.
//
// StepObjectives is an optional scripted progression; StepObjective is
// the objective currently in play, list-derived while a list drives the
// turn and manually assigned otherwise.
//
// Messages mixes live conversation with condensed child-turn results.
// LiveMessages filters to the turn's own conversation, which keeps
// state extraction from double-counting work already resolved inside a
// child turn.
type Context struct {
	ID              string            `json:"id"`
	Level           int               `json:"level"`
	ActiveCharacter string            `json:"active_character,omitempty"`
	InitiativeOrder []string          `json:"initiative_order,omitempty"`
	StepObjectives  []string          `json:"step_objectives,omitempty"`
	StepIndex       int               `json:"step_index,omitempty"`
	StepObjective   string            `json:"step_objective,omitempty"`
	Messages        []Message         `json:"messages"`
	StartedAt       time.Time         `json:"started_at"`
	EndedAt         time.Time         `json:"ended_at,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// AdvanceStep moves to the next objective in the turn's step list and
// reports whether objectives remain afterwards. The final objective
// stays in play once the list is exhausted. Turns created without a
// step list cannot advance; that is a caller bug, not a recoverable
// condition.
func (c *Context) AdvanceStep() (bool, error) {
	if len(c.StepObjectives) == 0 {
		return false, apperrors.New(apperrors.CodeTurnNoStepList, "turn "+c.ID+" has no step objective list")
	}
	if c.StepIndex < len(c.StepObjectives)-1 {
		c.StepIndex++
		c.StepObjective = c.StepObjectives[c.StepIndex]
		return true, nil
	}
	c.StepIndex = len(c.StepObjectives)
	return false, nil
}

// CurrentStepObjective returns the objective currently in play.
func (c *Context) CurrentStepObjective() string {
	return c.StepObjective
}

// AddLiveMessage appends a conversation message spoken inside this turn.
func (c *Context) AddLiveMessage(content, speaker string) {
	c.Messages = append(c.Messages, newLiveMessage(content, c.ID, speaker))
}

// AddCompletedSubTurn embeds a condensed child-turn result.
func (c *Context) AddCompletedSubTurn(condensed, subTurnID string) {
	c.Messages = append(c.Messages, newCompletedSubTurnMessage(condensed, subTurnID))
}

// LiveMessages returns only this turn's own conversation, skipping
// condensed child results and anything that originated elsewhere.
func (c *Context) LiveMessages() []string {
	var out []string
	for _, m := range c.Messages {
		if m.Kind == KindLive && m.Origin == c.ID {
			out = append(out, m.Content)
		}
	}
	return out
}

// AllMessages returns every message in chronological order, live and
// condensed alike.
func (c *Context) AllMessages() []string {
	out := make([]string, 0, len(c.Messages))
	for _, m := range c.Messages {
		out = append(out, m.Content)
	}
	return out
}

// Completed reports whether the turn has ended.
func (c *Context) Completed() bool {
	return !c.EndedAt.IsZero()
}

// Duration returns how long the turn ran, or 0 while it is still open.
func (c *Context) Duration() time.Duration {
	if c.EndedAt.IsZero() {
		return 0
	}
	return c.EndedAt.Sub(c.StartedAt)
}
