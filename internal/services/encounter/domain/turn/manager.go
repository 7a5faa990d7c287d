// Package turn tracks hierarchical turns for a session as a stack of
// queues.
//
// Each stack level holds a queue of sibling turns. Level 0 is the main
// sequence of character turns; a batch of reactions pushes a new level
// whose siblings are processed front to back. Ending a turn pops it
// from its queue, condenses it into the parent turn's context, and
// drops the level once the queue is empty, returning control to the
// parent.
package turn

import (
	"context"
	"fmt"
	"strconv"
	"time"

	apperrors "github.com/louisbranch/initiative-engine/internal/platform/errors"
)

// QueuedAction is one player action to open a turn for.
type QueuedAction struct {
	Speaker string `json:"speaker"`
	Content string `json:"content"`
}

// StartResult reports the turns created by one StartTurns call.
type StartResult struct {
	TurnIDs []string `json:"turn_ids"`
	// Next is the first created turn, which is also the next one to
	// process.
	Next *Context `json:"-"`
}

// EndResult reports a completed turn.
type EndResult struct {
	TurnID           string        `json:"turn_id"`
	Level            int           `json:"turn_level"`
	Duration         time.Duration `json:"duration"`
	MessageCount     int           `json:"message_count"`
	Condensation     string        `json:"condensation,omitempty"`
	EmbeddedInParent bool          `json:"embedded_in_parent"`
	// CondenseErr records a condensation failure. Ending the turn
	// succeeds regardless; callers decide whether to log it.
	CondenseErr error `json:"-"`
}

// Transition tells the orchestrator what to process after a turn ends:
// either the next pending sibling, or a return to the parent turn.
type Transition struct {
	Next           *Context `json:"-"`
	ReturnToParent bool     `json:"return_to_parent"`
	ParentGuidance string   `json:"parent_guidance,omitempty"`
}

// Manager owns the turn stack for one session. It is not safe for
// concurrent use; a session worker owns it.
type Manager struct {
	stack     [][]*Context
	completed []*Context
	counter   int
	condenser Condenser
}

// NewManager returns an empty Manager. A nil condenser disables
// condensation; completed sub-turns are then popped without embedding a
// summary into the parent.
func NewManager(condenser Condenser) *Manager {
	return &Manager{condenser: condenser}
}

// StartTurns opens one turn, or a queue of sibling turns for a reaction
// batch, one stack level below the current turn. All turns created by a
// single call share a level and a copy of the step objective list; root
// turns take counter ids "1", "2", … and sub-turns take "parent.N" in
// creation order.
func (m *Manager) StartTurns(actions []QueuedAction, stepObjectives []string, initiativeOrder []string, metadata map[string]string) (*StartResult, error) {
	if len(actions) == 0 {
		return nil, apperrors.New(apperrors.CodeTurnQueueInvalid, "cannot start turns with an empty action list")
	}

	level := len(m.stack)
	parentID := ""
	if level > 0 {
		parentID = m.stack[level-1][0].ID
	}

	ids := make([]string, 0, len(actions))
	for i, action := range actions {
		var id string
		if level == 0 {
			m.counter++
			id = strconv.Itoa(m.counter)
		} else {
			id = fmt.Sprintf("%s.%d", parentID, i+1)
		}

		tc := &Context{
			ID:              id,
			Level:           level,
			ActiveCharacter: action.Speaker,
			InitiativeOrder: append([]string(nil), initiativeOrder...),
			StepObjectives:  append([]string(nil), stepObjectives...),
			StartedAt:       time.Now().UTC(),
			Metadata:        metadata,
		}
		if len(tc.StepObjectives) > 0 {
			tc.StepObjective = tc.StepObjectives[0]
		}
		tc.AddLiveMessage(action.Content, action.Speaker)

		if len(m.stack) == level {
			m.stack = append(m.stack, []*Context{tc})
		} else {
			m.stack[level] = append(m.stack[level], tc)
		}
		ids = append(ids, id)
	}

	return &StartResult{TurnIDs: ids, Next: m.stack[level][0]}, nil
}

// Current returns the active turn: the first entry of the deepest
// queue, or nil when no turn is open.
func (m *Manager) Current() *Context {
	if len(m.stack) == 0 || len(m.stack[len(m.stack)-1]) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1][0]
}

// EndTurn closes the active turn. The turn is stamped, condensed into
// the parent turn's context when a condenser is configured, popped from
// its queue, and recorded in the completed history if it was a root
// turn. An exhausted queue drops its whole level, returning control to
// the parent. Ending with no open turn is a caller bug and fails with a
// coded error.
func (m *Manager) EndTurn(ctx context.Context) (*EndResult, error) {
	if len(m.stack) == 0 || len(m.stack[len(m.stack)-1]) == 0 {
		return nil, apperrors.New(apperrors.CodeTurnStackEmpty, "no active turn to end")
	}

	queue := m.stack[len(m.stack)-1]
	done := queue[0]
	done.EndedAt = time.Now().UTC()

	result := &EndResult{
		TurnID:       done.ID,
		Level:        done.Level,
		Duration:     done.Duration(),
		MessageCount: len(done.Messages),
	}

	if m.condenser != nil {
		summary, err := m.condenser.CondenseTurn(ctx, done)
		if err != nil {
			result.CondenseErr = apperrors.Wrap(apperrors.CodeTurnCondenseFailed, "condense turn "+done.ID, err)
		} else {
			result.Condensation = summary
			if len(m.stack) > 1 && len(m.stack[len(m.stack)-2]) > 0 {
				parent := m.stack[len(m.stack)-2][0]
				parent.AddCompletedSubTurn(summary, done.ID)
				result.EmbeddedInParent = true
			}
		}
	}

	m.stack[len(m.stack)-1] = queue[1:]
	if len(m.stack[len(m.stack)-1]) == 0 {
		m.stack = m.stack[:len(m.stack)-1]
	}

	if done.Level == 0 {
		m.completed = append(m.completed, done)
	}
	return result, nil
}

// EndTurnAndNext closes the active turn and reports what to process
// next: the pending sibling at the same level, or a return to the
// parent turn once the sibling queue is exhausted.
func (m *Manager) EndTurnAndNext(ctx context.Context) (*EndResult, *Transition, error) {
	remaining := 0
	if len(m.stack) > 0 {
		remaining = len(m.stack[len(m.stack)-1]) - 1
	}

	result, err := m.EndTurn(ctx)
	if err != nil {
		return nil, nil, err
	}

	if remaining > 0 {
		return result, &Transition{Next: m.Current()}, nil
	}
	tr := &Transition{ReturnToParent: len(m.stack) > 0}
	if tr.ReturnToParent {
		tr.ParentGuidance = "Continue with parent turn resolution"
	}
	return result, tr, nil
}

// AddMessage appends a live message to the active turn.
func (m *Manager) AddMessage(content, speaker string) error {
	current := m.Current()
	if current == nil {
		return apperrors.New(apperrors.CodeTurnStackEmpty, "no active turn to add messages to")
	}
	current.AddLiveMessage(content, speaker)
	return nil
}

// Depth returns the current stack depth.
func (m *Manager) Depth() int { return len(m.stack) }

// InTurn reports whether any turn is open.
func (m *Manager) InTurn() bool { return len(m.stack) > 0 }

// SetNextStepObjective overrides the active turn's step objective,
// reporting false when no turn is open. A later AdvanceStep resumes the
// turn's scripted list where it left off.
func (m *Manager) SetNextStepObjective(objective string) bool {
	current := m.Current()
	if current == nil {
		return false
	}
	current.StepObjective = objective
	return true
}

// AdvanceStep moves the active turn to its next scripted objective and
// reports whether objectives remain afterwards. Calling it with no open
// turn, or on a turn without a step list, is a caller bug.
func (m *Manager) AdvanceStep() (bool, error) {
	current := m.Current()
	if current == nil {
		return false, apperrors.New(apperrors.CodeTurnStackEmpty, "no active turn to advance")
	}
	return current.AdvanceStep()
}

// CurrentStepObjective returns the active turn's step objective, or "".
func (m *Manager) CurrentStepObjective() string {
	current := m.Current()
	if current == nil {
		return ""
	}
	return current.CurrentStepObjective()
}

// CompletedTurns returns the history of finished root turns.
func (m *Manager) CompletedTurns() []*Context {
	return append([]*Context(nil), m.completed...)
}

// Stats summarizes the manager for introspection tools.
type Stats struct {
	ActiveTurns       int    `json:"active_turns"`
	CurrentTurnLevel  int    `json:"current_turn_level"`
	CompletedTurns    int    `json:"completed_turns"`
	TotalTurnsStarted int    `json:"total_turns_started"`
	CurrentTurnID     string `json:"current_turn_id,omitempty"`
	TurnStackDepth    int    `json:"turn_stack_depth"`
}

// Stats reports turn-tracking counters for the session.
func (m *Manager) Stats() Stats {
	active := 0
	for _, queue := range m.stack {
		active += len(queue)
	}
	stats := Stats{
		ActiveTurns:       active,
		CurrentTurnLevel:  len(m.stack),
		CompletedTurns:    len(m.completed),
		TotalTurnsStarted: m.counter,
		TurnStackDepth:    len(m.stack),
	}
	if current := m.Current(); current != nil {
		stats.CurrentTurnID = current.ID
	}
	return stats
}

// Snapshot is a read-only view of the stack for context building.
type Snapshot struct {
	Stack         [][]*Context `json:"stack"`
	Completed     []*Context   `json:"completed"`
	ActiveByLevel []*Context   `json:"active_by_level"`
	StepObjective string       `json:"step_objective,omitempty"`
	TurnCounter   int          `json:"turn_counter"`
}

// Snapshot copies the queue structure for safe iteration. The contexts
// themselves are shared; treat them as read-only.
func (m *Manager) Snapshot() Snapshot {
	snap := Snapshot{
		Stack:         make([][]*Context, 0, len(m.stack)),
		Completed:     append([]*Context(nil), m.completed...),
		StepObjective: m.CurrentStepObjective(),
		TurnCounter:   m.counter,
	}
	for _, queue := range m.stack {
		snap.Stack = append(snap.Stack, append([]*Context(nil), queue...))
		if len(queue) > 0 {
			snap.ActiveByLevel = append(snap.ActiveByLevel, queue[0])
		}
	}
	return snap
}

// Reset clears the stack, history and counters.
func (m *Manager) Reset() {
	m.stack = nil
	m.completed = nil
	m.counter = 0
}
