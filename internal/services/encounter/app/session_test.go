package app

import (
	"context"
	"strings"
	"testing"
	"time"

	apperrors "github.com/louisbranch/initiative-engine/internal/platform/errors"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/content"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/character"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/storage/memory"
)

const testBestiaryYAML = `monsters:
  - name: Goblin
    challenge_rating: "1/4"
    armor_class: 15
    hit_points: 7
    abilities:
      str: 8
      dex: 14
      con: 10
  - name: Young Dragon
    challenge_rating: "7"
    armor_class: 18
    hit_points: 136
    abilities:
      str: 19
      dex: 10
      con: 17
    legendary_per_round: 3
    legendary_actions:
      - name: Tail Attack
        cost: 1
`

func testBestiary(t *testing.T) *content.Bestiary {
	t.Helper()
	bestiary, err := content.ParseBestiary([]byte(testBestiaryYAML))
	if err != nil {
		t.Fatalf("ParseBestiary() error = %v", err)
	}
	return bestiary
}

func testCharacter(id, name string, dex int) *character.Character {
	return &character.Character{
		ID:        id,
		Name:      name,
		Class:     "Fighter",
		Level:     3,
		Abilities: character.AbilityScores{Dexterity: dex},
		HP:        character.HitPoints{Maximum: 30, Current: 30},
	}
}

func newTestSession(t *testing.T, opts Options) *Session {
	t.Helper()
	if opts.Seed == 0 {
		opts.Seed = 11
	}
	session := NewSession("sess-test", opts)
	t.Cleanup(session.Close)
	return session
}

func createParty(t *testing.T, session *Session, members ...*character.Character) {
	t.Helper()
	for _, member := range members {
		if err := session.CreateCharacter(context.Background(), member); err != nil {
			t.Fatalf("CreateCharacter(%s) error = %v", member.ID, err)
		}
	}
}

// waitEvent drains the feed until an event of the wanted kind arrives.
func waitEvent(t *testing.T, events <-chan Event, kind EventKind) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				t.Fatalf("event feed closed while waiting for %s", kind)
			}
			if event.Kind == kind {
				return event
			}
		case <-deadline:
			t.Fatalf("no %s event within 2s", kind)
		}
	}
}

func TestSessionStatusFresh(t *testing.T) {
	session := newTestSession(t, Options{Name: "Sunken Crypt"})

	status, err := session.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.ID != "sess-test" {
		t.Errorf("Status().ID = %q, want %q", status.ID, "sess-test")
	}
	if status.Name != "Sunken Crypt" {
		t.Errorf("Status().Name = %q, want %q", status.Name, "Sunken Crypt")
	}
	if status.Phase != "NOT_IN_COMBAT" {
		t.Errorf("Status().Phase = %q, want NOT_IN_COMBAT", status.Phase)
	}
	if status.Round != 0 {
		t.Errorf("Status().Round = %d, want 0", status.Round)
	}
	if status.CombatMode {
		t.Error("Status().CombatMode = true, want false")
	}
	if status.RosterSize != 0 {
		t.Errorf("Status().RosterSize = %d, want 0", status.RosterSize)
	}
	if status.Turns.ActiveTurns != 0 {
		t.Errorf("Status().Turns.ActiveTurns = %d, want 0", status.Turns.ActiveTurns)
	}
	if status.Collection.Mode != "none" {
		t.Errorf("Status().Collection.Mode = %q, want none", status.Collection.Mode)
	}
	if status.Collection.Complete {
		t.Error("Status().Collection.Complete = true, want false")
	}
}

func TestSessionCloseRejectsOperations(t *testing.T) {
	session := NewSession("sess-closing", Options{Seed: 3})
	session.Close()
	session.Close()

	_, err := session.Status(context.Background())
	if !apperrors.IsCode(err, apperrors.CodeSessionClosed) {
		t.Fatalf("Status() after Close error = %v, want %s", err, apperrors.CodeSessionClosed)
	}

	events, cancel := session.Subscribe()
	defer cancel()
	if _, ok := <-events; ok {
		t.Error("Subscribe() after Close delivered an event, want closed channel")
	}
}

func TestCreateCharacterValidation(t *testing.T) {
	session := newTestSession(t, Options{})
	createParty(t, session, testCharacter("pc-aria", "Aria", 14))

	tests := []struct {
		name   string
		record *character.Character
	}{
		{name: "nil record", record: nil},
		{name: "blank id", record: testCharacter("  ", "Nameless", 10)},
		{name: "duplicate id", record: testCharacter("pc-aria", "Aria Again", 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := session.CreateCharacter(context.Background(), tt.record)
			if !apperrors.IsCode(err, apperrors.CodeCharacterInvalid) {
				t.Errorf("CreateCharacter() error = %v, want %s", err, apperrors.CodeCharacterInvalid)
			}
		})
	}
}

func TestCreateCharacterPersists(t *testing.T) {
	store := memory.NewStore()
	session := newTestSession(t, Options{Characters: store})
	createParty(t, session, testCharacter("pc-aria", "Aria", 14))

	record, err := store.Get(context.Background(), "pc-aria")
	if err != nil {
		t.Fatalf("store.Get() error = %v", err)
	}
	if record.DisplayName() != "Aria" {
		t.Errorf("stored DisplayName() = %q, want Aria", record.DisplayName())
	}
}

func TestRosterKeepsCreationOrder(t *testing.T) {
	session := newTestSession(t, Options{})
	createParty(t, session,
		testCharacter("pc-zef", "Zef", 12),
		testCharacter("pc-aria", "Aria", 14),
		testCharacter("pc-bram", "Bram", 8),
	)

	roster, err := session.Roster(context.Background())
	if err != nil {
		t.Fatalf("Roster() error = %v", err)
	}
	wantOrder := []string{"pc-zef", "pc-aria", "pc-bram"}
	if len(roster) != len(wantOrder) {
		t.Fatalf("Roster() returned %d entries, want %d", len(roster), len(wantOrder))
	}
	for i, want := range wantOrder {
		if roster[i].ID != want {
			t.Errorf("Roster()[%d].ID = %q, want %q", i, roster[i].ID, want)
		}
	}
	if !roster[1].Player {
		t.Error("Roster()[1].Player = false, want true")
	}
	if roster[1].CurrentHP != 30 || roster[1].MaximumHP != 30 {
		t.Errorf("Roster()[1] HP = %d/%d, want 30/30", roster[1].CurrentHP, roster[1].MaximumHP)
	}
}

func TestCharacterSheetRendersRecord(t *testing.T) {
	session := newTestSession(t, Options{})
	createParty(t, session, testCharacter("pc-aria", "Aria", 14))

	sheet, err := session.CharacterSheet(context.Background(), "pc-aria")
	if err != nil {
		t.Fatalf("CharacterSheet() error = %v", err)
	}
	if !strings.Contains(string(sheet), `"Aria"`) {
		t.Errorf("CharacterSheet() = %s, want it to mention Aria", sheet)
	}

	_, err = session.CharacterSheet(context.Background(), "pc-ghost")
	if !apperrors.IsCode(err, apperrors.CodeCharacterNotFound) {
		t.Errorf("CharacterSheet(unknown) error = %v, want %s", err, apperrors.CodeCharacterNotFound)
	}
}

func TestSpawnMonsterDerivesIDs(t *testing.T) {
	session := newTestSession(t, Options{Bestiary: testBestiary(t)})

	first, err := session.SpawnMonster(context.Background(), "Goblin", "", nil)
	if err != nil {
		t.Fatalf("SpawnMonster() error = %v", err)
	}
	if first.ID != "goblin-1" {
		t.Errorf("SpawnMonster().ID = %q, want goblin-1", first.ID)
	}
	if first.HitPoints != 7 {
		t.Errorf("SpawnMonster().HitPoints = %d, want 7", first.HitPoints)
	}

	second, err := session.SpawnMonster(context.Background(), "goblin", "", nil)
	if err != nil {
		t.Fatalf("SpawnMonster() second error = %v", err)
	}
	if second.ID != "goblin-2" {
		t.Errorf("SpawnMonster().ID = %q, want goblin-2", second.ID)
	}

	roster, err := session.Roster(context.Background())
	if err != nil {
		t.Fatalf("Roster() error = %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("Roster() returned %d entries, want 2", len(roster))
	}
	if roster[0].Player {
		t.Error("Roster()[0].Player = true for a monster, want false")
	}
}

func TestSpawnMonsterUnknownTemplate(t *testing.T) {
	session := newTestSession(t, Options{Bestiary: testBestiary(t)})

	_, err := session.SpawnMonster(context.Background(), "Tarrasque", "", nil)
	if !apperrors.IsCode(err, apperrors.CodeCharacterNotFound) {
		t.Errorf("SpawnMonster(unknown) error = %v, want %s", err, apperrors.CodeCharacterNotFound)
	}
}

func TestSpawnMonsterWithoutBestiary(t *testing.T) {
	session := newTestSession(t, Options{})

	_, err := session.SpawnMonster(context.Background(), "Goblin", "", nil)
	if !apperrors.IsCode(err, apperrors.CodeBestiaryInvalid) {
		t.Errorf("SpawnMonster() error = %v, want %s", err, apperrors.CodeBestiaryInvalid)
	}
}
