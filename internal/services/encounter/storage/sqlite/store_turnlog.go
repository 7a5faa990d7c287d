package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/turn"
)

// AppendCompletedTurn journals a finished turn for one session. The
// journal is append-only; recording the same turn twice fails.
func (s *Store) AppendCompletedTurn(ctx context.Context, sessionID string, entry *turn.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if entry == nil {
		return fmt.Errorf("turn entry is required")
	}
	if strings.TrimSpace(entry.ID) == "" {
		return fmt.Errorf("turn id is required")
	}

	stepObjectives, err := encodeColumn("step objectives", entry.StepObjectives)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	initiativeOrder, err := encodeColumn("initiative order", entry.InitiativeOrder)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	messages, err := encodeColumn("messages", entry.Messages)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	metadata, err := encodeColumn("metadata", entry.Metadata)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	var endedAt any
	if !entry.EndedAt.IsZero() {
		endedAt = toMillis(entry.EndedAt)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO turn_log (
	session_id, turn_id, level, active_character, step_objectives,
	step_index, step_objective, initiative_order, messages, metadata,
	started_at, ended_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		sessionID,
		entry.ID,
		entry.Level,
		entry.ActiveCharacter,
		stepObjectives,
		entry.StepIndex,
		entry.StepObjective,
		initiativeOrder,
		messages,
		metadata,
		toMillis(entry.StartedAt),
		endedAt,
	)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// ListCompletedTurns returns one session's journal in append order.
func (s *Store) ListCompletedTurns(ctx context.Context, sessionID string) ([]*turn.Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT turn_id, level, active_character, step_objectives, step_index,
	step_objective, initiative_order, messages, metadata, started_at,
	ended_at
FROM turn_log
WHERE session_id = ?
ORDER BY seq
`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var entries []*turn.Context
	for rows.Next() {
		var (
			entry           turn.Context
			stepObjectives  string
			initiativeOrder string
			messages        string
			metadata        string
			startedAt       int64
			endedAt         sql.NullInt64
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.Level,
			&entry.ActiveCharacter,
			&stepObjectives,
			&entry.StepIndex,
			&entry.StepObjective,
			&initiativeOrder,
			&messages,
			&metadata,
			&startedAt,
			&endedAt,
		); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}
		if err := decodeColumn("step objectives", stepObjectives, &entry.StepObjectives); err != nil {
			return nil, err
		}
		if err := decodeColumn("initiative order", initiativeOrder, &entry.InitiativeOrder); err != nil {
			return nil, err
		}
		if err := decodeColumn("messages", messages, &entry.Messages); err != nil {
			return nil, err
		}
		if err := decodeColumn("metadata", metadata, &entry.Metadata); err != nil {
			return nil, err
		}
		entry.StartedAt = fromMillis(startedAt)
		if endedAt.Valid {
			entry.EndedAt = fromMillis(endedAt.Int64)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turn rows: %w", err)
	}
	return entries, nil
}
