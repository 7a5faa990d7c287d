package content

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/louisbranch/initiative-engine/internal/platform/errors"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/character"
)

// AbilityBlock is the statblock shorthand for the six ability scores.
type AbilityBlock struct {
	Strength     int `yaml:"str"`
	Dexterity    int `yaml:"dex"`
	Constitution int `yaml:"con"`
	Intelligence int `yaml:"int"`
	Wisdom       int `yaml:"wis"`
	Charisma     int `yaml:"cha"`
}

// LegendaryEntry is one legendary action in a statblock.
type LegendaryEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Cost        int    `yaml:"cost"`
}

// Statblock is a monster template as written in a bestiary file.
type Statblock struct {
	Name              string           `yaml:"name"`
	ChallengeRating   string           `yaml:"challenge_rating"`
	ArmorClass        int              `yaml:"armor_class"`
	HitPoints         int              `yaml:"hit_points"`
	Abilities         AbilityBlock     `yaml:"abilities"`
	LegendaryActions  []LegendaryEntry `yaml:"legendary_actions"`
	LegendaryPerRound int              `yaml:"legendary_per_round"`
}

type bestiaryFile struct {
	Monsters []Statblock `yaml:"monsters"`
}

// Bestiary is a read-only set of monster templates keyed by name.
// Lookup is case-insensitive; Names preserves load order.
type Bestiary struct {
	entries map[string]Statblock
	names   []string
}

// ParseBestiary reads one YAML bestiary document.
func ParseBestiary(data []byte) (*Bestiary, error) {
	bestiary := &Bestiary{entries: map[string]Statblock{}}
	if err := bestiary.merge(data, ""); err != nil {
		return nil, err
	}
	return bestiary, nil
}

// LoadBestiary reads every .yaml/.yml file in dir into one bestiary.
// Files are visited in name order; other files are ignored. Template
// names must be unique across the whole directory.
func LoadBestiary(dir string) (*Bestiary, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeBestiaryInvalid, "read bestiary directory", err)
	}

	bestiary := &Bestiary{entries: map[string]Statblock{}}
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(file.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeBestiaryInvalid, "read "+file.Name(), err)
		}
		if err := bestiary.merge(data, file.Name()); err != nil {
			return nil, err
		}
	}
	return bestiary, nil
}

func (b *Bestiary) merge(data []byte, source string) error {
	var file bestiaryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		what := "parse bestiary"
		if source != "" {
			what = "parse " + source
		}
		return apperrors.Wrap(apperrors.CodeBestiaryInvalid, what, err)
	}

	for _, block := range file.Monsters {
		name := strings.TrimSpace(block.Name)
		if name == "" {
			return apperrors.New(apperrors.CodeBestiaryInvalid, "statblock is missing a name")
		}
		if block.HitPoints < 1 {
			return apperrors.Newf(apperrors.CodeBestiaryInvalid, "statblock %q has no hit points", name)
		}
		for _, action := range block.LegendaryActions {
			if strings.TrimSpace(action.Name) == "" {
				return apperrors.Newf(apperrors.CodeBestiaryInvalid, "statblock %q has an unnamed legendary action", name)
			}
		}
		key := strings.ToLower(name)
		if _, exists := b.entries[key]; exists {
			return apperrors.Newf(apperrors.CodeBestiaryInvalid, "duplicate statblock %q", name)
		}
		block.Name = name
		b.entries[key] = block
		b.names = append(b.names, name)
	}
	return nil
}

// Lookup finds a template by name, ignoring case.
func (b *Bestiary) Lookup(name string) (Statblock, bool) {
	block, ok := b.entries[strings.ToLower(strings.TrimSpace(name))]
	return block, ok
}

// Names lists the loaded template names in load order.
func (b *Bestiary) Names() []string {
	return append([]string(nil), b.names...)
}

// Len reports the number of loaded templates.
func (b *Bestiary) Len() int { return len(b.entries) }

// Spawn instantiates a combat-ready monster from a template. Each call
// returns an independent record at full hit points.
func (b *Bestiary) Spawn(template, id string) (*character.Monster, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.New(apperrors.CodeCharacterInvalid, "monster id is required")
	}
	block, ok := b.Lookup(template)
	if !ok {
		return nil, apperrors.Newf(apperrors.CodeCharacterNotFound, "no statblock named %q", template)
	}

	monster := &character.Monster{
		ID:              id,
		Name:            block.Name,
		ChallengeRating: block.ChallengeRating,
		ArmorClass:      block.ArmorClass,
		Abilities: character.AbilityScores{
			Strength:     block.Abilities.Strength,
			Dexterity:    block.Abilities.Dexterity,
			Constitution: block.Abilities.Constitution,
			Intelligence: block.Abilities.Intelligence,
			Wisdom:       block.Abilities.Wisdom,
			Charisma:     block.Abilities.Charisma,
		},
		HP: character.HitPoints{
			Maximum: block.HitPoints,
			Current: block.HitPoints,
		},
		LegendaryPerRound: block.LegendaryPerRound,
	}
	for _, action := range block.LegendaryActions {
		cost := action.Cost
		if cost < 1 {
			cost = 1
		}
		monster.LegendaryActions = append(monster.LegendaryActions, character.LegendaryAction{
			Name:        action.Name,
			Description: action.Description,
			Cost:        cost,
		})
	}
	return monster, nil
}
