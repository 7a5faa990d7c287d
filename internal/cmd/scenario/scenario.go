// Package scenario runs scripted encounters against an in-process
// session, for demos and manual testing without an MCP client.
package scenario

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/louisbranch/initiative-engine/internal/platform/config"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/app"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/content"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/storage/memory"
)

// Config holds scenario command configuration.
type Config struct {
	Script      string `env:"INITIATIVE_ENGINE_SCENARIO_FILE"`
	BestiaryDir string `env:"INITIATIVE_ENGINE_BESTIARY_DIR"`
	Seed        int64  `env:"INITIATIVE_ENGINE_SCENARIO_SEED"`
	Events      bool   `env:"INITIATIVE_ENGINE_SCENARIO_EVENTS" envDefault:"true"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Script, "script", cfg.Script, "path to the encounter lua script")
	fs.StringVar(&cfg.BestiaryDir, "bestiary", cfg.BestiaryDir, "directory of YAML monster statblocks")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "session dice seed; zero seeds from the clock")
	fs.BoolVar(&cfg.Events, "events", cfg.Events, "print session events as they happen")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes one scripted encounter end to end.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if cfg.Script == "" {
		return errors.New("script path is required")
	}

	script, err := content.LoadCombatScript(cfg.Script)
	if err != nil {
		return err
	}

	store := memory.NewStore()
	registryConfig := app.RegistryConfig{Characters: store, TurnLog: store}
	if cfg.BestiaryDir != "" {
		bestiary, err := content.LoadBestiary(cfg.BestiaryDir)
		if err != nil {
			return fmt.Errorf("load bestiary: %w", err)
		}
		registryConfig.Bestiary = bestiary
	}

	registry := app.NewRegistry(registryConfig)
	defer registry.CloseAll()

	session, err := registry.Create(ctx, app.CreateOptions{Name: script.Name, Seed: cfg.Seed})
	if err != nil {
		return err
	}

	if cfg.Events {
		events, cancel := session.Subscribe()
		defer cancel()
		go printEvents(out, events)
	}

	runner := &runner{
		session: session,
		script:  script,
		logger:  log.New(errOut, "", 0),
		out:     out,
	}
	return runner.run(ctx)
}

func printEvents(out io.Writer, events <-chan app.Event) {
	for event := range events {
		fmt.Fprintf(out, "[event] kind=%s payload=%v\n", event.Kind, event.Payload)
	}
}
