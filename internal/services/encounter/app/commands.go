package app

import (
	"context"
	"log"

	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/command"
)

// ExecuteCommands decodes a JSON batch of tagged state commands and
// applies it through the orchestrator.
func (s *Session) ExecuteCommands(ctx context.Context, data []byte) (command.BatchResult, error) {
	var batch command.BatchResult
	err := s.do(ctx, "command.execute", func(ctx context.Context, st *state) error {
		commands, err := command.DecodeBatch(data)
		if err != nil {
			return err
		}
		batch = s.applyCommands(ctx, st, commands)
		return nil
	})
	return batch, err
}

// ExecuteCommandList applies already-decoded commands, the scenario
// runner's path into the executor.
func (s *Session) ExecuteCommandList(ctx context.Context, commands []command.Command) (command.BatchResult, error) {
	var batch command.BatchResult
	err := s.do(ctx, "command.execute", func(ctx context.Context, st *state) error {
		batch = s.applyCommands(ctx, st, commands)
		return nil
	})
	return batch, err
}

// applyCommands runs the batch and persists every character a
// successful command touched. The in-memory record stays authoritative
// when a persist fails; the failure is logged, not propagated.
func (s *Session) applyCommands(ctx context.Context, st *state, commands []command.Command) command.BatchResult {
	batch := st.orchestrator.ExecuteBatch(commands)

	if s.characters != nil {
		persisted := make(map[string]bool)
		for _, result := range batch.Results {
			if !result.Success || persisted[result.CharacterID] {
				continue
			}
			member, ok := st.roster[result.CharacterID]
			if !ok {
				continue
			}
			persisted[result.CharacterID] = true
			if err := s.characters.Put(ctx, member); err != nil {
				log.Printf("persist character session=%s character=%s err=%v", s.id, result.CharacterID, err)
			}
		}
	}

	s.publish(EventCommandApplied, map[string]any{
		"total":     batch.Total,
		"succeeded": batch.Succeeded,
		"failed":    batch.Failed,
	})
	return batch
}
