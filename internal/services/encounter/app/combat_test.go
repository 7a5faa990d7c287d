package app

import (
	"context"
	"fmt"
	"testing"

	apperrors "github.com/louisbranch/initiative-engine/internal/platform/errors"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/character"
)

// startSkirmish drives the session into combat rounds with the given
// roster members. Rolls descend in argument order, so ids[0] acts first.
func startSkirmish(t *testing.T, session *Session, ids ...string) {
	t.Helper()
	ctx := context.Background()
	if _, err := session.StartCombat(ctx, ids, "Skirmish"); err != nil {
		t.Fatalf("StartCombat() error = %v", err)
	}
	roll := 10 + len(ids)
	for _, id := range ids {
		if _, err := session.RollInitiative(ctx, id, roll); err != nil {
			t.Fatalf("RollInitiative(%s) error = %v", id, err)
		}
		roll--
	}
	if _, err := session.FinalizeInitiative(ctx); err != nil {
		t.Fatalf("FinalizeInitiative() error = %v", err)
	}
}

// mutateSession runs fn on the session worker, for test setups that
// need to touch roster records directly.
func mutateSession(t *testing.T, session *Session, fn func(st *state) error) {
	t.Helper()
	err := session.do(context.Background(), "test.mutate", func(_ context.Context, st *state) error {
		return fn(st)
	})
	if err != nil {
		t.Fatalf("session mutation failed: %v", err)
	}
}

func TestStartCombatValidation(t *testing.T) {
	session := newTestSession(t, Options{})
	createParty(t, session, testCharacter("pc-aria", "Aria", 14))

	if _, err := session.StartCombat(context.Background(), nil, ""); !apperrors.IsCode(err, apperrors.CodeCombatNoParticipants) {
		t.Errorf("StartCombat(no participants) error = %v, want %s", err, apperrors.CodeCombatNoParticipants)
	}
	if _, err := session.StartCombat(context.Background(), []string{"pc-aria", "pc-ghost"}, ""); !apperrors.IsCode(err, apperrors.CodeCombatUnknownCombatant) {
		t.Errorf("StartCombat(unknown member) error = %v, want %s", err, apperrors.CodeCombatUnknownCombatant)
	}
}

func TestStartCombatSplitsSides(t *testing.T) {
	session := newTestSession(t, Options{Bestiary: testBestiary(t)})
	createParty(t, session, testCharacter("pc-aria", "Aria", 14))
	if _, err := session.SpawnMonster(context.Background(), "Goblin", "", nil); err != nil {
		t.Fatalf("SpawnMonster() error = %v", err)
	}

	events, cancel := session.Subscribe()
	defer cancel()

	report, err := session.StartCombat(context.Background(), []string{"pc-aria", "goblin-1"}, "Bridge Ambush")
	if err != nil {
		t.Fatalf("StartCombat() error = %v", err)
	}
	if report.Phase != "COMBAT_START" {
		t.Errorf("report.Phase = %q, want COMBAT_START", report.Phase)
	}
	if report.Encounter != "Bridge Ambush" {
		t.Errorf("report.Encounter = %q, want Bridge Ambush", report.Encounter)
	}
	if len(report.Players) != 1 || report.Players[0] != "pc-aria" {
		t.Errorf("report.Players = %v, want [pc-aria]", report.Players)
	}
	if len(report.Monsters) != 1 || report.Monsters[0] != "goblin-1" {
		t.Errorf("report.Monsters = %v, want [goblin-1]", report.Monsters)
	}

	event := waitEvent(t, events, EventPhaseChanged)
	if event.Payload["phase"] != "COMBAT_START" {
		t.Errorf("event phase = %v, want COMBAT_START", event.Payload["phase"])
	}

	if _, err := session.StartCombat(context.Background(), []string{"pc-aria"}, ""); !apperrors.IsCode(err, apperrors.CodeCombatPhaseInvalid) {
		t.Errorf("StartCombat() during combat error = %v, want %s", err, apperrors.CodeCombatPhaseInvalid)
	}
}

func TestRollInitiativeTracksPending(t *testing.T) {
	session := newTestSession(t, Options{})
	createParty(t, session,
		testCharacter("pc-aria", "Aria", 14),
		testCharacter("pc-bram", "Bram", 8),
	)
	if _, err := session.StartCombat(context.Background(), []string{"pc-aria", "pc-bram"}, ""); err != nil {
		t.Fatalf("StartCombat() error = %v", err)
	}

	report, err := session.RollInitiative(context.Background(), "pc-aria", 17)
	if err != nil {
		t.Fatalf("RollInitiative() error = %v", err)
	}
	if len(report.Pending) != 1 || report.Pending[0] != "pc-bram" {
		t.Errorf("report.Pending = %v, want [pc-bram]", report.Pending)
	}

	report, err = session.RollInitiative(context.Background(), "pc-bram", 9)
	if err != nil {
		t.Fatalf("RollInitiative() error = %v", err)
	}
	if len(report.Pending) != 0 {
		t.Errorf("report.Pending = %v after all rolls, want empty", report.Pending)
	}

	if _, err := session.RollInitiative(context.Background(), "pc-ghost", 12); !apperrors.IsCode(err, apperrors.CodeCharacterNotFound) {
		t.Errorf("RollInitiative(unknown) error = %v, want %s", err, apperrors.CodeCharacterNotFound)
	}
}

func TestRollInitiativeCompletesCollection(t *testing.T) {
	session := newTestSession(t, Options{})
	createParty(t, session,
		testCharacter("pc-aria", "Aria", 14),
		testCharacter("pc-bram", "Bram", 8),
	)

	events, cancel := session.Subscribe()
	defer cancel()

	if _, err := session.StartCombat(context.Background(), []string{"pc-aria", "pc-bram"}, ""); err != nil {
		t.Fatalf("StartCombat() error = %v", err)
	}
	if _, err := session.SetExpectation(context.Background(), ExpectationInput{
		Type:       "initiative",
		Characters: []string{"pc-aria", "pc-bram"},
	}); err != nil {
		t.Fatalf("SetExpectation() error = %v", err)
	}

	if _, err := session.RollInitiative(context.Background(), "pc-aria", 17); err != nil {
		t.Fatalf("RollInitiative(aria) error = %v", err)
	}
	if _, err := session.RollInitiative(context.Background(), "pc-bram", 9); err != nil {
		t.Fatalf("RollInitiative(bram) error = %v", err)
	}

	event := waitEvent(t, events, EventCollectionComplete)
	if event.Payload["cause"] != "collected" {
		t.Errorf("completion cause = %v, want collected", event.Payload["cause"])
	}
}

func TestFinalizeInitiativeOpensRoundOne(t *testing.T) {
	session := newTestSession(t, Options{Bestiary: testBestiary(t)})
	createParty(t, session,
		testCharacter("pc-aria", "Aria", 14),
		testCharacter("pc-bram", "Bram", 8),
	)
	if _, err := session.SpawnMonster(context.Background(), "Goblin", "", nil); err != nil {
		t.Fatalf("SpawnMonster() error = %v", err)
	}

	ctx := context.Background()
	if _, err := session.FinalizeInitiative(ctx); !apperrors.IsCode(err, apperrors.CodeCombatPhaseInvalid) {
		t.Fatalf("FinalizeInitiative() outside combat error = %v, want %s", err, apperrors.CodeCombatPhaseInvalid)
	}

	if _, err := session.StartCombat(ctx, []string{"pc-aria", "pc-bram", "goblin-1"}, ""); err != nil {
		t.Fatalf("StartCombat() error = %v", err)
	}
	for id, roll := range map[string]int{"pc-aria": 15, "pc-bram": 12, "goblin-1": 18} {
		if _, err := session.RollInitiative(ctx, id, roll); err != nil {
			t.Fatalf("RollInitiative(%s) error = %v", id, err)
		}
	}

	events, cancel := session.Subscribe()
	defer cancel()

	report, err := session.FinalizeInitiative(ctx)
	if err != nil {
		t.Fatalf("FinalizeInitiative() error = %v", err)
	}
	if report.Round != 1 {
		t.Errorf("report.Round = %d, want 1", report.Round)
	}
	if report.First != "goblin-1" {
		t.Errorf("report.First = %q, want goblin-1", report.First)
	}
	wantOrder := []string{"goblin-1", "pc-aria", "pc-bram"}
	for i, want := range wantOrder {
		if report.Order[i].CharacterID != want {
			t.Errorf("Order[%d] = %q, want %q", i, report.Order[i].CharacterID, want)
		}
	}
	if report.Summary == "" {
		t.Error("report.Summary is empty")
	}

	round := waitEvent(t, events, EventRoundStarted)
	if round.Payload["round"] != 1 {
		t.Errorf("round event = %v, want round 1", round.Payload["round"])
	}
}

func TestAdvanceCombatWrapsAndTicksEffects(t *testing.T) {
	session := newTestSession(t, Options{Bestiary: testBestiary(t)})
	aria := testCharacter("pc-aria", "Aria", 14)
	aria.ActiveEffects = []character.Effect{{
		Name:              "Bless",
		Kind:              character.EffectBuff,
		DurationType:      character.DurationRounds,
		DurationRemaining: 1,
	}}
	createParty(t, session, aria)
	if _, err := session.SpawnMonster(context.Background(), "Goblin", "", nil); err != nil {
		t.Fatalf("SpawnMonster() error = %v", err)
	}
	startSkirmish(t, session, "pc-aria", "goblin-1")

	first, err := session.AdvanceCombat(context.Background())
	if err != nil {
		t.Fatalf("AdvanceCombat() error = %v", err)
	}
	if first.Next != "goblin-1" || first.NewRound {
		t.Errorf("AdvanceCombat() = next %q newRound %v, want goblin-1 false", first.Next, first.NewRound)
	}

	second, err := session.AdvanceCombat(context.Background())
	if err != nil {
		t.Fatalf("AdvanceCombat() error = %v", err)
	}
	if second.Next != "pc-aria" || !second.NewRound {
		t.Errorf("AdvanceCombat() = next %q newRound %v, want pc-aria true", second.Next, second.NewRound)
	}
	if second.Round != 2 {
		t.Errorf("second.Round = %d, want 2", second.Round)
	}
	expired := second.ExpiredEffects["pc-aria"]
	if len(expired) != 1 || expired[0] != "Bless" {
		t.Errorf("ExpiredEffects[pc-aria] = %v, want [Bless]", expired)
	}
	if second.CombatOver {
		t.Error("second.CombatOver = true with both sides standing")
	}
}

func TestAdvanceCombatRechargesLegendaryActions(t *testing.T) {
	session := newTestSession(t, Options{Bestiary: testBestiary(t)})
	createParty(t, session, testCharacter("pc-aria", "Aria", 14))
	if _, err := session.SpawnMonster(context.Background(), "Young Dragon", "", nil); err != nil {
		t.Fatalf("SpawnMonster() error = %v", err)
	}
	startSkirmish(t, session, "young-dragon-1", "pc-aria")

	var used int
	mutateSession(t, session, func(st *state) error {
		dragon, ok := st.roster["young-dragon-1"].(*character.Monster)
		if !ok {
			return fmt.Errorf("young-dragon-1 is not a monster record")
		}
		dragon.UseLegendaryAction(1)
		dragon.UseLegendaryAction(1)
		used = dragon.LegendaryUsed
		return nil
	})
	if used != 2 {
		t.Fatalf("LegendaryUsed after spending = %d, want 2", used)
	}

	for i := 0; i < 2; i++ {
		if _, err := session.AdvanceCombat(context.Background()); err != nil {
			t.Fatalf("AdvanceCombat() error = %v", err)
		}
	}

	mutateSession(t, session, func(st *state) error {
		dragon := st.roster["young-dragon-1"].(*character.Monster)
		used = dragon.LegendaryUsed
		return nil
	})
	if used != 0 {
		t.Errorf("LegendaryUsed after round wrap = %d, want 0", used)
	}
}

func TestRemoveCombatantAdjustsOrder(t *testing.T) {
	session := newTestSession(t, Options{Bestiary: testBestiary(t)})
	createParty(t, session,
		testCharacter("pc-aria", "Aria", 14),
		testCharacter("pc-bram", "Bram", 8),
	)
	if _, err := session.SpawnMonster(context.Background(), "Goblin", "", nil); err != nil {
		t.Fatalf("SpawnMonster() error = %v", err)
	}
	startSkirmish(t, session, "pc-aria", "pc-bram", "goblin-1")

	if _, err := session.RemoveCombatant(context.Background(), "pc-ghost"); !apperrors.IsCode(err, apperrors.CodeCombatParticipantAbsent) {
		t.Errorf("RemoveCombatant(unknown) error = %v, want %s", err, apperrors.CodeCombatParticipantAbsent)
	}

	report, err := session.RemoveCombatant(context.Background(), "pc-aria")
	if err != nil {
		t.Fatalf("RemoveCombatant() error = %v", err)
	}
	if report.Remaining != 2 {
		t.Errorf("report.Remaining = %d, want 2", report.Remaining)
	}
	if report.Current != "pc-bram" {
		t.Errorf("report.Current = %q, want pc-bram", report.Current)
	}
	if report.CombatOver {
		t.Error("report.CombatOver = true with a monster standing")
	}

	report, err = session.RemoveCombatant(context.Background(), "goblin-1")
	if err != nil {
		t.Fatalf("RemoveCombatant(goblin) error = %v", err)
	}
	if !report.CombatOver {
		t.Error("report.CombatOver = false with no monsters left, want true")
	}
}

func TestAddCombatantMidCombat(t *testing.T) {
	session := newTestSession(t, Options{Bestiary: testBestiary(t)})
	createParty(t, session,
		testCharacter("pc-aria", "Aria", 14),
		testCharacter("pc-bram", "Bram", 8),
	)
	if _, err := session.SpawnMonster(context.Background(), "Goblin", "", nil); err != nil {
		t.Fatalf("SpawnMonster() error = %v", err)
	}

	if _, err := session.StartCombat(context.Background(), []string{"pc-aria", "pc-bram"}, ""); err != nil {
		t.Fatalf("StartCombat() error = %v", err)
	}
	if _, err := session.AddCombatant(context.Background(), "goblin-1", 14); !apperrors.IsCode(err, apperrors.CodeCombatPhaseInvalid) {
		t.Fatalf("AddCombatant() before rounds error = %v, want %s", err, apperrors.CodeCombatPhaseInvalid)
	}

	for id, roll := range map[string]int{"pc-aria": 12, "pc-bram": 8} {
		if _, err := session.RollInitiative(context.Background(), id, roll); err != nil {
			t.Fatalf("RollInitiative(%s) error = %v", id, err)
		}
	}
	if _, err := session.FinalizeInitiative(context.Background()); err != nil {
		t.Fatalf("FinalizeInitiative() error = %v", err)
	}

	report, err := session.AddCombatant(context.Background(), "goblin-1", 20)
	if err != nil {
		t.Fatalf("AddCombatant() error = %v", err)
	}
	if report.Position != 0 {
		t.Errorf("report.Position = %d, want 0 for the highest roll", report.Position)
	}

	summary, err := session.InitiativeSummary(context.Background())
	if err != nil {
		t.Fatalf("InitiativeSummary() error = %v", err)
	}
	if summary == "" {
		t.Error("InitiativeSummary() is empty after adding a combatant")
	}
}

func TestSpawnMonsterJoinsRunningCombat(t *testing.T) {
	session := newTestSession(t, Options{Bestiary: testBestiary(t)})
	createParty(t, session,
		testCharacter("pc-aria", "Aria", 14),
		testCharacter("pc-bram", "Bram", 8),
	)
	startSkirmish(t, session, "pc-aria", "pc-bram")

	roll := 20
	report, err := session.SpawnMonster(context.Background(), "Goblin", "", &roll)
	if err != nil {
		t.Fatalf("SpawnMonster() error = %v", err)
	}
	if !report.JoinedCombat {
		t.Error("report.JoinedCombat = false during rounds, want true")
	}
	if report.Roll != 20 {
		t.Errorf("report.Roll = %d, want 20", report.Roll)
	}

	status, err := session.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.RosterSize != 3 {
		t.Errorf("Status().RosterSize = %d, want 3", status.RosterSize)
	}
}

func TestCombatEndClearsCoordination(t *testing.T) {
	session := newTestSession(t, Options{})
	createParty(t, session,
		testCharacter("pc-aria", "Aria", 14),
		testCharacter("pc-bram", "Bram", 8),
	)

	if _, err := session.BeginCombatEnd(context.Background()); !apperrors.IsCode(err, apperrors.CodeCombatPhaseInvalid) {
		t.Fatalf("BeginCombatEnd() outside rounds error = %v, want %s", err, apperrors.CodeCombatPhaseInvalid)
	}

	startSkirmish(t, session, "pc-aria", "pc-bram")
	if _, err := session.SetExpectation(context.Background(), ExpectationInput{
		Type:       "reaction",
		Characters: []string{"pc-bram"},
	}); err != nil {
		t.Fatalf("SetExpectation() error = %v", err)
	}

	endReport, err := session.BeginCombatEnd(context.Background())
	if err != nil {
		t.Fatalf("BeginCombatEnd() error = %v", err)
	}
	if endReport.Phase != "COMBAT_END" {
		t.Errorf("BeginCombatEnd().Phase = %q, want COMBAT_END", endReport.Phase)
	}

	finish, err := session.FinishCombat(context.Background())
	if err != nil {
		t.Fatalf("FinishCombat() error = %v", err)
	}
	if finish.Phase != "NOT_IN_COMBAT" {
		t.Errorf("FinishCombat().Phase = %q, want NOT_IN_COMBAT", finish.Phase)
	}

	status, err := session.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.CombatMode {
		t.Error("Status().CombatMode = true after combat finished")
	}
	if status.Collection.Mode != "none" {
		t.Errorf("Collection.Mode = %q after combat finished, want none", status.Collection.Mode)
	}

	result, err := session.SubmitMessage(context.Background(), "pc-aria", "Back to exploring")
	if err != nil {
		t.Fatalf("SubmitMessage() error = %v", err)
	}
	if !result.Accepted {
		t.Errorf("SubmitMessage() after combat rejected: %+v", result)
	}
}
