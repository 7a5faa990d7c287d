package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/initiative-engine/internal/platform/errors"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/character"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/combat"
)

// CreateCharacter adds a player character to the roster, persisting it
// first when a character store is configured.
func (s *Session) CreateCharacter(ctx context.Context, record *character.Character) error {
	return s.do(ctx, "character.create", func(ctx context.Context, st *state) error {
		if record == nil || strings.TrimSpace(record.ID) == "" {
			return apperrors.New(apperrors.CodeCharacterInvalid, "character id is required")
		}
		if _, exists := st.roster[record.ID]; exists {
			return apperrors.Newf(apperrors.CodeCharacterInvalid, "character %q is already in the roster", record.ID)
		}
		if s.characters != nil {
			if err := s.characters.Put(ctx, record); err != nil {
				return fmt.Errorf("persist character %s: %w", record.ID, err)
			}
		}
		addToRoster(st, record)
		return nil
	})
}

func addToRoster(st *state, member character.Combatant) {
	st.roster[member.CombatantID()] = member
	st.rosterOrder = append(st.rosterOrder, member.CombatantID())
}

// CharacterSheet renders one roster member as JSON. Marshaling happens
// on the worker so the record cannot change mid-render.
func (s *Session) CharacterSheet(ctx context.Context, characterID string) (json.RawMessage, error) {
	var data json.RawMessage
	err := s.do(ctx, "character.get", func(ctx context.Context, st *state) error {
		member, ok := st.roster[characterID]
		if !ok {
			return apperrors.Newf(apperrors.CodeCharacterNotFound, "no character with id %q", characterID)
		}
		encoded, err := json.Marshal(member)
		if err != nil {
			return err
		}
		data = encoded
		return nil
	})
	return data, err
}

// RosterEntry is a compact listing of one roster member.
type RosterEntry struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Player     bool     `json:"player"`
	CurrentHP  int      `json:"current_hp"`
	MaximumHP  int      `json:"maximum_hp"`
	Conditions []string `json:"conditions,omitempty"`
}

// Roster lists the session's characters and monsters in creation order.
func (s *Session) Roster(ctx context.Context) ([]RosterEntry, error) {
	var entries []RosterEntry
	err := s.do(ctx, "character.list", func(ctx context.Context, st *state) error {
		entries = make([]RosterEntry, 0, len(st.rosterOrder))
		for _, id := range st.rosterOrder {
			member := st.roster[id]
			hp := member.HitPoints()
			entries = append(entries, RosterEntry{
				ID:         member.CombatantID(),
				Name:       member.DisplayName(),
				Player:     member.PlayerControlled(),
				CurrentHP:  hp.Current,
				MaximumHP:  hp.Maximum,
				Conditions: member.ActiveConditions(),
			})
		}
		return nil
	})
	return entries, err
}

// SpawnReport describes a freshly spawned monster.
type SpawnReport struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	HitPoints    int    `json:"hit_points"`
	ArmorClass   int    `json:"armor_class,omitempty"`
	JoinedCombat bool   `json:"joined_combat"`
	Roll         int    `json:"roll,omitempty"`
}

// SpawnMonster instantiates a bestiary template into the roster. An
// empty id derives one from the template name. A non-nil initiative
// feeds the roll into the running combat: as a pending roll during
// combat start, or as a mid-round arrival during rounds.
func (s *Session) SpawnMonster(ctx context.Context, template, id string, initiative *int) (SpawnReport, error) {
	var report SpawnReport
	err := s.do(ctx, "monster.spawn", func(ctx context.Context, st *state) error {
		if s.bestiary == nil {
			return apperrors.New(apperrors.CodeBestiaryInvalid, "no bestiary is loaded")
		}
		if id == "" {
			id = nextMonsterID(st, template)
		}
		if _, exists := st.roster[id]; exists {
			return apperrors.Newf(apperrors.CodeCharacterInvalid, "character %q is already in the roster", id)
		}

		monster, err := s.bestiary.Spawn(template, id)
		if err != nil {
			return err
		}
		if s.characters != nil {
			if err := s.characters.Put(ctx, monster); err != nil {
				return fmt.Errorf("persist monster %s: %w", id, err)
			}
		}
		addToRoster(st, monster)

		report = SpawnReport{
			ID:         monster.ID,
			Name:       monster.Name,
			HitPoints:  monster.HP.Current,
			ArmorClass: monster.ArmorClass,
		}
		if initiative != nil {
			entry := combat.InitiativeEntry{
				CharacterID:   monster.ID,
				CharacterName: monster.Name,
				Roll:          *initiative,
				IsPlayer:      false,
				DexModifier:   monster.DexterityModifier(),
			}
			switch st.combat.Phase {
			case combat.PhaseCombatStart:
				if err := st.combat.AddInitiativeRoll(entry); err != nil {
					return err
				}
				report.JoinedCombat = true
				report.Roll = *initiative
			case combat.PhaseCombatRounds:
				if err := st.combat.AddCombatant(entry); err != nil {
					return err
				}
				report.JoinedCombat = true
				report.Roll = *initiative
			}
		}

		s.publish(EventStatusMessage, map[string]any{
			"status": fmt.Sprintf("%s spawned from template %s", monster.Name, template),
		})
		return nil
	})
	return report, err
}

func nextMonsterID(st *state, template string) string {
	base := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(template), " ", "-"))
	for n := 1; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if _, exists := st.roster[candidate]; !exists {
			return candidate
		}
	}
}
