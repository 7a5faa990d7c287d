package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/character"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/storage"
)

const (
	kindCharacter = "character"
	kindMonster   = "monster"
)

type characterRowData struct {
	id                string
	kind              string
	name              string
	class             string
	level             int64
	challengeRating   string
	armorClass        int64
	abilities         string
	hp                string
	hitDice           string
	deathSaves        string
	spellcasting      string
	inventory         string
	activeEffects     string
	legendaryActions  string
	legendaryPerRound int64
	legendaryUsed     int64
}

func rowFromRecord(record character.Combatant) (characterRowData, error) {
	switch v := record.(type) {
	case *character.Character:
		row := characterRowData{
			id:    v.ID,
			kind:  kindCharacter,
			name:  v.Name,
			class: v.Class,
			level: int64(v.Level),
		}
		var err error
		if row.abilities, err = encodeColumn("abilities", v.Abilities); err != nil {
			return characterRowData{}, err
		}
		if row.hp, err = encodeColumn("hp", v.HP); err != nil {
			return characterRowData{}, err
		}
		if row.hitDice, err = encodeColumn("hit dice", v.HitDice); err != nil {
			return characterRowData{}, err
		}
		if row.deathSaves, err = encodeColumn("death saves", v.DeathSaves); err != nil {
			return characterRowData{}, err
		}
		if v.Spellcasting != nil {
			if row.spellcasting, err = encodeColumn("spellcasting", v.Spellcasting); err != nil {
				return characterRowData{}, err
			}
		}
		if row.inventory, err = encodeColumn("inventory", v.Inventory); err != nil {
			return characterRowData{}, err
		}
		if row.activeEffects, err = encodeColumn("active effects", v.ActiveEffects); err != nil {
			return characterRowData{}, err
		}
		return row, nil
	case *character.Monster:
		row := characterRowData{
			id:                v.ID,
			kind:              kindMonster,
			name:              v.Name,
			challengeRating:   v.ChallengeRating,
			armorClass:        int64(v.ArmorClass),
			legendaryPerRound: int64(v.LegendaryPerRound),
			legendaryUsed:     int64(v.LegendaryUsed),
		}
		var err error
		if row.abilities, err = encodeColumn("abilities", v.Abilities); err != nil {
			return characterRowData{}, err
		}
		if row.hp, err = encodeColumn("hp", v.HP); err != nil {
			return characterRowData{}, err
		}
		if row.activeEffects, err = encodeColumn("active effects", v.ActiveEffects); err != nil {
			return characterRowData{}, err
		}
		if row.legendaryActions, err = encodeColumn("legendary actions", v.LegendaryActions); err != nil {
			return characterRowData{}, err
		}
		return row, nil
	default:
		return characterRowData{}, fmt.Errorf("unsupported combatant type %T", record)
	}
}

func rowToRecord(row characterRowData) (character.Combatant, error) {
	switch row.kind {
	case kindCharacter:
		rec := &character.Character{
			ID:    row.id,
			Name:  row.name,
			Class: row.class,
			Level: int(row.level),
		}
		if err := decodeColumn("abilities", row.abilities, &rec.Abilities); err != nil {
			return nil, err
		}
		if err := decodeColumn("hp", row.hp, &rec.HP); err != nil {
			return nil, err
		}
		if err := decodeColumn("hit dice", row.hitDice, &rec.HitDice); err != nil {
			return nil, err
		}
		if err := decodeColumn("death saves", row.deathSaves, &rec.DeathSaves); err != nil {
			return nil, err
		}
		if strings.TrimSpace(row.spellcasting) != "" {
			rec.Spellcasting = &character.Spellcasting{}
			if err := decodeColumn("spellcasting", row.spellcasting, rec.Spellcasting); err != nil {
				return nil, err
			}
		}
		if err := decodeColumn("inventory", row.inventory, &rec.Inventory); err != nil {
			return nil, err
		}
		if err := decodeColumn("active effects", row.activeEffects, &rec.ActiveEffects); err != nil {
			return nil, err
		}
		return rec, nil
	case kindMonster:
		rec := &character.Monster{
			ID:                row.id,
			Name:              row.name,
			ChallengeRating:   row.challengeRating,
			ArmorClass:        int(row.armorClass),
			LegendaryPerRound: int(row.legendaryPerRound),
			LegendaryUsed:     int(row.legendaryUsed),
		}
		if err := decodeColumn("abilities", row.abilities, &rec.Abilities); err != nil {
			return nil, err
		}
		if err := decodeColumn("hp", row.hp, &rec.HP); err != nil {
			return nil, err
		}
		if err := decodeColumn("active effects", row.activeEffects, &rec.ActiveEffects); err != nil {
			return nil, err
		}
		if err := decodeColumn("legendary actions", row.legendaryActions, &rec.LegendaryActions); err != nil {
			return nil, err
		}
		return rec, nil
	default:
		return nil, fmt.Errorf("unknown combatant kind %q", row.kind)
	}
}

func scanCharacterRow(row *sql.Row) (characterRowData, error) {
	var data characterRowData
	if err := row.Scan(
		&data.id,
		&data.kind,
		&data.name,
		&data.class,
		&data.level,
		&data.challengeRating,
		&data.armorClass,
		&data.abilities,
		&data.hp,
		&data.hitDice,
		&data.deathSaves,
		&data.spellcasting,
		&data.inventory,
		&data.activeEffects,
		&data.legendaryActions,
		&data.legendaryPerRound,
		&data.legendaryUsed,
	); err != nil {
		return characterRowData{}, err
	}
	return data, nil
}

func scanCharacterRows(rows *sql.Rows) (characterRowData, error) {
	var data characterRowData
	if err := rows.Scan(
		&data.id,
		&data.kind,
		&data.name,
		&data.class,
		&data.level,
		&data.challengeRating,
		&data.armorClass,
		&data.abilities,
		&data.hp,
		&data.hitDice,
		&data.deathSaves,
		&data.spellcasting,
		&data.inventory,
		&data.activeEffects,
		&data.legendaryActions,
		&data.legendaryPerRound,
		&data.legendaryUsed,
	); err != nil {
		return characterRowData{}, err
	}
	return data, nil
}

// Put persists a roster record, inserting or replacing by combatant ID.
func (s *Store) Put(ctx context.Context, record character.Combatant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if record == nil {
		return fmt.Errorf("character record is required")
	}
	if strings.TrimSpace(record.CombatantID()) == "" {
		return fmt.Errorf("character id is required")
	}
	if strings.TrimSpace(record.DisplayName()) == "" {
		return fmt.Errorf("character name is required")
	}

	row, err := rowFromRecord(record)
	if err != nil {
		return fmt.Errorf("put character: %w", err)
	}
	now := toMillis(time.Now())

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO characters (
	id, kind, name, class, level, challenge_rating, armor_class,
	abilities, hp, hit_dice, death_saves, spellcasting, inventory,
	active_effects, legendary_actions, legendary_per_round, legendary_used,
	created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	kind = excluded.kind,
	name = excluded.name,
	class = excluded.class,
	level = excluded.level,
	challenge_rating = excluded.challenge_rating,
	armor_class = excluded.armor_class,
	abilities = excluded.abilities,
	hp = excluded.hp,
	hit_dice = excluded.hit_dice,
	death_saves = excluded.death_saves,
	spellcasting = excluded.spellcasting,
	inventory = excluded.inventory,
	active_effects = excluded.active_effects,
	legendary_actions = excluded.legendary_actions,
	legendary_per_round = excluded.legendary_per_round,
	legendary_used = excluded.legendary_used,
	updated_at = excluded.updated_at
`,
		row.id,
		row.kind,
		row.name,
		row.class,
		row.level,
		row.challengeRating,
		row.armorClass,
		row.abilities,
		row.hp,
		row.hitDice,
		row.deathSaves,
		row.spellcasting,
		row.inventory,
		row.activeEffects,
		row.legendaryActions,
		row.legendaryPerRound,
		row.legendaryUsed,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("put character: %w", err)
	}
	return nil
}

// Get fetches a roster record by combatant ID.
func (s *Store) Get(ctx context.Context, id string) (character.Combatant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("character id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, kind, name, class, level, challenge_rating, armor_class,
	abilities, hp, hit_dice, death_saves, spellcasting, inventory,
	active_effects, legendary_actions, legendary_per_round, legendary_used
FROM characters
WHERE id = ?
`, id)

	data, err := scanCharacterRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get character: %w", err)
	}
	record, err := rowToRecord(data)
	if err != nil {
		return nil, fmt.Errorf("get character: %w", err)
	}
	return record, nil
}

// List returns every roster record ordered by combatant ID.
func (s *Store) List(ctx context.Context) ([]character.Combatant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, kind, name, class, level, challenge_rating, armor_class,
	abilities, hp, hit_dice, death_saves, spellcasting, inventory,
	active_effects, legendary_actions, legendary_per_round, legendary_used
FROM characters
ORDER BY id
`)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	var records []character.Combatant
	for rows.Next() {
		data, err := scanCharacterRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan character row: %w", err)
		}
		record, err := rowToRecord(data)
		if err != nil {
			return nil, fmt.Errorf("list characters: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate character rows: %w", err)
	}
	return records, nil
}

// Delete removes a roster record by combatant ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("character id is required")
	}

	res, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM characters
WHERE id = ?
`, id)
	if err != nil {
		return fmt.Errorf("delete character: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete character rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
