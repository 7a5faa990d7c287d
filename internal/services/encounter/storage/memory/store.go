// Package memory provides map-backed encounter stores for tests and the
// scenario runner.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/character"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/turn"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/storage"
)

// Store keeps character sheets and turn journals in process memory. It
// is safe for concurrent use. Records are deep-copied on the way in and
// out, matching the isolation a database-backed store gives for free.
type Store struct {
	mu         sync.RWMutex
	characters map[string]character.Combatant
	turnLogs   map[string][]*turn.Context
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		characters: make(map[string]character.Combatant),
		turnLogs:   make(map[string][]*turn.Context),
	}
}

// Put stores a copy of the record keyed by its combatant ID.
func (s *Store) Put(ctx context.Context, record character.Combatant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("character record is required")
	}
	id := strings.TrimSpace(record.CombatantID())
	if id == "" {
		return fmt.Errorf("character id is required")
	}

	dup, err := cloneCombatant(record)
	if err != nil {
		return fmt.Errorf("put character: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.characters[id] = dup
	return nil
}

// Get returns a copy of the record with the given ID.
func (s *Store) Get(ctx context.Context, id string) (character.Combatant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("character id is required")
	}

	s.mu.RLock()
	record, ok := s.characters[id]
	s.mu.RUnlock()
	if !ok {
		return nil, storage.ErrNotFound
	}

	dup, err := cloneCombatant(record)
	if err != nil {
		return nil, fmt.Errorf("get character: %w", err)
	}
	return dup, nil
}

// List returns copies of every stored record ordered by ID.
func (s *Store) List(ctx context.Context) ([]character.Combatant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	records := make([]character.Combatant, 0, len(s.characters))
	for _, record := range s.characters {
		records = append(records, record)
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].CombatantID() < records[j].CombatantID()
	})

	out := make([]character.Combatant, 0, len(records))
	for _, record := range records {
		dup, err := cloneCombatant(record)
		if err != nil {
			return nil, fmt.Errorf("list characters: %w", err)
		}
		out = append(out, dup)
	}
	return out, nil
}

// Delete removes the record with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("character id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.characters[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.characters, id)
	return nil
}

// AppendCompletedTurn records a copy of a finished turn in the session's
// journal.
func (s *Store) AppendCompletedTurn(ctx context.Context, sessionID string, entry *turn.Context) error {
	if err := ctx.Err(); err != nil {
		return err
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

	s.mu.Lock()
	defer s.mu.Unlock()
	s.turnLogs[sessionID] = append(s.turnLogs[sessionID], cloneTurn(entry))
	return nil
}

// ListCompletedTurns returns copies of the session's journal in append
// order.
func (s *Store) ListCompletedTurns(ctx context.Context, sessionID string) ([]*turn.Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.turnLogs[sessionID]
	out := make([]*turn.Context, 0, len(entries))
	for _, entry := range entries {
		out = append(out, cloneTurn(entry))
	}
	return out, nil
}

func cloneCombatant(record character.Combatant) (character.Combatant, error) {
	switch v := record.(type) {
	case *character.Character:
		dup := *v
		dup.Spellcasting = cloneSpellcasting(v.Spellcasting)
		dup.Inventory = cloneInventory(v.Inventory)
		dup.ActiveEffects = append([]character.Effect(nil), v.ActiveEffects...)
		return &dup, nil
	case *character.Monster:
		dup := *v
		dup.ActiveEffects = append([]character.Effect(nil), v.ActiveEffects...)
		dup.LegendaryActions = append([]character.LegendaryAction(nil), v.LegendaryActions...)
		return &dup, nil
	default:
		return nil, fmt.Errorf("unsupported combatant type %T", record)
	}
}

func cloneSpellcasting(sc *character.Spellcasting) *character.Spellcasting {
	if sc == nil {
		return nil
	}
	slots := make(map[int]*character.SpellSlotLevel, len(sc.Slots))
	for level, slot := range sc.Slots {
		if slot == nil {
			continue
		}
		dup := *slot
		slots[level] = &dup
	}
	return &character.Spellcasting{Slots: slots}
}

func cloneInventory(inv character.Inventory) character.Inventory {
	if inv.Items == nil {
		return character.Inventory{}
	}
	items := make(map[string]int, len(inv.Items))
	for name, quantity := range inv.Items {
		items[name] = quantity
	}
	return character.Inventory{Items: items}
}

func cloneTurn(entry *turn.Context) *turn.Context {
	dup := *entry
	dup.InitiativeOrder = append([]string(nil), entry.InitiativeOrder...)
	dup.StepObjectives = append([]string(nil), entry.StepObjectives...)
	dup.Messages = append([]turn.Message(nil), entry.Messages...)
	if entry.Metadata != nil {
		dup.Metadata = make(map[string]string, len(entry.Metadata))
		for key, value := range entry.Metadata {
			dup.Metadata[key] = value
		}
	}
	return &dup
}
