package turn

import "time"

// MessageKind separates live conversation from condensed sub-turn
// results so a turn's own context can be read without re-processing
// descendants.
type MessageKind string

const (
	// KindLive is an active conversation message spoken inside the turn.
	KindLive MessageKind = "live_message"
	// KindCompletedSubTurn is the condensed result of a finished child
	// turn, embedded into its parent.
	KindCompletedSubTurn MessageKind = "completed_subturn"
)

// Message is one entry in a turn's context.
type Message struct {
	Content    string      `json:"content"`
	Kind       MessageKind `json:"kind"`
	Origin     string      `json:"origin"`
	Speaker    string      `json:"speaker,omitempty"`
	ReceivedAt time.Time   `json:"received_at"`
}

func newLiveMessage(content, origin, speaker string) Message {
	return Message{
		Content:    content,
		Kind:       KindLive,
		Origin:     origin,
		Speaker:    speaker,
		ReceivedAt: time.Now().UTC(),
	}
}

func newCompletedSubTurnMessage(condensed, subTurnID string) Message {
	return Message{
		Content:    condensed,
		Kind:       KindCompletedSubTurn,
		Origin:     subTurnID,
		ReceivedAt: time.Now().UTC(),
	}
}
