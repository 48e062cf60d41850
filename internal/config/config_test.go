package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Risk.MaxPositions != 3 {
		t.Errorf("MaxPositions = %d, want 3", cfg.Risk.MaxPositions)
	}
	if cfg.Storage.OpportunityTTL.Duration != 15*time.Minute {
		t.Errorf("OpportunityTTL = %v, want 15m", cfg.Storage.OpportunityTTL.Duration)
	}
	if cfg.Position.StopLossPct != 0.25 {
		t.Errorf("StopLossPct = %v, want 0.25", cfg.Position.StopLossPct)
	}
	if !cfg.Storage.UseMemory {
		t.Error("default config should use in-memory storage")
	}
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
storage:
  use_memory: true
  opportunity_ttl: 900
  prediction_ttl: "10m"
risk:
  max_positions: 5
ledger:
  initial_balance: 25.0
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Bare int parses as seconds, string as a Go duration.
	if cfg.Storage.OpportunityTTL.Duration != 900*time.Second {
		t.Errorf("OpportunityTTL = %v, want 900s", cfg.Storage.OpportunityTTL.Duration)
	}
	if cfg.Storage.PredictionTTL.Duration != 10*time.Minute {
		t.Errorf("PredictionTTL = %v, want 10m", cfg.Storage.PredictionTTL.Duration)
	}
	if cfg.Risk.MaxPositions != 5 {
		t.Errorf("MaxPositions = %d, want 5", cfg.Risk.MaxPositions)
	}
	if cfg.Ledger.InitialBalance != 25.0 {
		t.Errorf("InitialBalance = %v, want 25.0", cfg.Ledger.InitialBalance)
	}
	// Untouched sections keep their defaults.
	if cfg.Position.MaxSettleAttempts != 5 {
		t.Errorf("MaxSettleAttempts = %d, want default 5", cfg.Position.MaxSettleAttempts)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://env-host/db")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Storage.PostgresDSN != "postgres://env-host/db" {
		t.Errorf("PostgresDSN = %q, want env value", cfg.Storage.PostgresDSN)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "durable storage without DSNs",
			yaml: "storage:\n  use_memory: false\n",
		},
		{
			name: "zero max positions",
			yaml: "risk:\n  max_positions: 0\n",
		},
		{
			name: "stop loss out of range",
			yaml: "position:\n  stop_loss_pct: 1.5\n",
		},
		{
			name: "negative balance",
			yaml: "ledger:\n  initial_balance: -1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.yaml)
			if _, err := Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, "storage:\n  opportunity_ttl: \"not-a-duration\"\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed duration")
	}
}
