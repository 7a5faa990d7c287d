package turn

import (
	"context"
	"fmt"
	"strings"
)

// Condenser reduces a completed turn to a short summary that gets
// embedded into the parent turn's context. Implementations may call out
// to external services; errors are reported to the caller but never
// abort the turn ending.
type Condenser interface {
	CondenseTurn(ctx context.Context, turn *Context) (string, error)
}

// TranscriptCondenser condenses a turn into an action/resolution block
// built from the turn's own conversation: the first live message is the
// action, the last one the resolution.
type TranscriptCondenser struct{}

// CondenseTurn implements Condenser.
func (TranscriptCondenser) CondenseTurn(_ context.Context, turn *Context) (string, error) {
	live := turn.LiveMessages()
	if len(live) == 0 {
		return fmt.Sprintf("<reaction id=%q level=\"%d\"></reaction>", turn.ID, turn.Level), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<reaction id=%q level=\"%d\">\n", turn.ID, turn.Level)
	fmt.Fprintf(&b, "  <action>%s</action>\n", live[0])
	if len(live) > 1 {
		fmt.Fprintf(&b, "  <resolution>%s</resolution>\n", live[len(live)-1])
	}
	b.WriteString("</reaction>")
	return b.String(), nil
}
