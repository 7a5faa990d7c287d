package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/character"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/turn"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// CharacterStore persists roster members. Records are the engine's own
// character structs; implementations return independent copies so a
// caller mutating a record never changes what is stored without an
// explicit Put.
type CharacterStore interface {
	Put(ctx context.Context, record character.Combatant) error
	Get(ctx context.Context, id string) (character.Combatant, error)
	List(ctx context.Context) ([]character.Combatant, error)
	Delete(ctx context.Context, id string) error
}

// TurnLogStore journals completed root turns per session as an audit
// artifact. Entries are append-only and listed in append order; a
// session with no journal lists empty.
type TurnLogStore interface {
	AppendCompletedTurn(ctx context.Context, sessionID string, entry *turn.Context) error
	ListCompletedTurns(ctx context.Context, sessionID string) ([]*turn.Context, error)
}
