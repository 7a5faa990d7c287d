package scenario

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("scenario", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Script != "" {
		t.Fatalf("expected no default script, got %q", cfg.Script)
	}
	if !cfg.Events {
		t.Fatal("expected event printing to default to true")
	}
}

func TestParseConfigFlags(t *testing.T) {
	fs := flag.NewFlagSet("scenario", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, []string{"-script", "ambush.lua", "-seed", "7", "-events=false"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Script != "ambush.lua" {
		t.Fatalf("expected flag script, got %q", cfg.Script)
	}
	if cfg.Seed != 7 {
		t.Fatalf("expected seed 7, got %d", cfg.Seed)
	}
	if cfg.Events {
		t.Fatal("expected events disabled by flag")
	}
}

func TestRunRequiresScript(t *testing.T) {
	if err := Run(context.Background(), Config{}, nil, nil); err == nil {
		t.Fatal("expected error for missing script path")
	}
}

const ambushScript = `
local enc = Encounter.new("Bridge Ambush")

enc:character({
	id = "pc-aria", name = "Aria", class = "rogue", level = 3, max_hp = 24,
	abilities = {strength = 10, dexterity = 14, constitution = 12, intelligence = 10, wisdom = 10, charisma = 10},
})
enc:character({
	id = "pc-bram", name = "Bram", class = "fighter", level = 3, max_hp = 30, hit_die = "d10",
	abilities = {strength = 16, dexterity = 8, constitution = 14, intelligence = 10, wisdom = 10, charisma = 10},
})

enc:start_combat({name = "Bridge Ambush"})
enc:initiative({rolls = {["pc-aria"] = 17, ["pc-bram"] = 9}})

enc:action({character = "pc-aria", content = "I fire at the bandit"})
enc:commands('[{"type": "hp_change", "character_id": "pc-bram", "change": -5}]')
enc:end_turn()
enc:advance()

enc:end_combat()
enc:finish()
enc:status()

return enc
`

func TestRunExecutesScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ambush.lua")
	if err := os.WriteFile(path, []byte(ambushScript), 0o600); err != nil {
		t.Fatalf("write script: %v", err)
	}

	var out, errOut bytes.Buffer
	cfg := Config{Script: path, Seed: 7, Events: false}
	if err := Run(context.Background(), cfg, &out, &errOut); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !strings.Contains(errOut.String(), "combat started: 2 participants") {
		t.Errorf("log output missing combat start:\n%s", errOut.String())
	}
	if !strings.Contains(errOut.String(), "commands: 1/1 succeeded") {
		t.Errorf("log output missing command batch result:\n%s", errOut.String())
	}
	if !strings.Contains(out.String(), `"phase": "NOT_IN_COMBAT"`) {
		t.Errorf("status output missing final phase:\n%s", out.String())
	}
}

func TestRunReportsFailingStep(t *testing.T) {
	script := `
local enc = Encounter.new("Broken")
enc:action({character = "pc-ghost", content = "I act"})
enc:end_combat()
return enc
`
	path := filepath.Join(t.TempDir(), "broken.lua")
	if err := os.WriteFile(path, []byte(script), 0o600); err != nil {
		t.Fatalf("write script: %v", err)
	}

	err := Run(context.Background(), Config{Script: path, Events: false}, nil, nil)
	if err == nil {
		t.Fatal("expected error from end_combat outside rounds")
	}
	if !strings.Contains(err.Error(), "step 2 (end_combat)") {
		t.Errorf("error %v does not name the failing step", err)
	}
}
