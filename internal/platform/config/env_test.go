package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Addr    string `env:"INITIATIVE_ENGINE_TEST_ADDR" envDefault:"localhost:9090"`
	Timeout int    `env:"INITIATIVE_ENGINE_TEST_TIMEOUT" envDefault:"90"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Addr != "localhost:9090" {
		t.Fatalf("expected default addr localhost:9090, got %s", cfg.Addr)
	}
	if cfg.Timeout != 90 {
		t.Fatalf("expected default timeout 90, got %d", cfg.Timeout)
	}
}

func TestParseEnvOverride(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("INITIATIVE_ENGINE_TEST_TIMEOUT", "15")

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Timeout != 15 {
		t.Fatalf("expected timeout 15, got %d", cfg.Timeout)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("INITIATIVE_ENGINE_TEST_TIMEOUT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
