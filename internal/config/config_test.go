package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ServerPort == "" {
		t.Fatalf("expected default server port")
	}
	if cfg.PostgresURL == "" {
		t.Fatalf("expected default postgres url")
	}
	if cfg.MaxSpeedMps != 14 {
		t.Fatalf("expected default max speed, got %v", cfg.MaxSpeedMps)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9000")
	t.Setenv("POSTGRES_URL", "postgres://example")
	t.Setenv("ENGINE_MAX_SPEED_MPS", "20")

	cfg := Load()
	if cfg.ServerPort != ":9000" {
		t.Fatalf("expected override port")
	}
	if cfg.PostgresURL != "postgres://example" {
		t.Fatalf("expected override postgres")
	}
	if cfg.MaxSpeedMps != 20 {
		t.Fatalf("expected override max speed, got %v", cfg.MaxSpeedMps)
	}
}

func TestEngineModes(t *testing.T) {
	cfg := Load()

	run := cfg.Engine("run")
	if run.ClosureRadiusM != 30 {
		t.Fatalf("unexpected run closure radius: %v", run.ClosureRadiusM)
	}

	walk := cfg.Engine("walk")
	if walk.ClosureRadiusM != 10 {
		t.Fatalf("unexpected walk closure radius: %v", walk.ClosureRadiusM)
	}
	if walk.MinMovementM != 0.5 {
		t.Fatalf("unexpected walk movement threshold: %v", walk.MinMovementM)
	}
}
