package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"MOVETABLE_VIEWS":         "aria-table, role-grid,,",
		"MOVETABLE_FETCH_TIMEOUT": "3s",
		"MOVETABLE_BASE_URL":      "http://localhost:9000/",
		"MOVETABLE_MAX_IMPORT_KB": "nope",
		"LOG_TO_CONSOLE":          "false",
	}
	cfg := Defaults()
	cfg.applyEnv(func(k string) string { return env[k] })

	if diff := cmp.Diff([]string{"aria-table", "role-grid"}, cfg.Views); diff != "" {
		t.Fatalf("views (-want +got):\n%s", diff)
	}
	if cfg.FetchTimeout != 3*time.Second {
		t.Fatalf("timeout = %v", cfg.FetchTimeout)
	}
	if cfg.MaxImportKB != 1024 {
		t.Fatalf("invalid number should keep default, got %d", cfg.MaxImportKB)
	}
	if cfg.Log.Console {
		t.Fatalf("console logging not disabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestApplyYAMLOverlay(t *testing.T) {
	cfg := Defaults()
	raw := []byte("views: [plain-grid]\nannounce_mode: oneshot\nfetch_timeout: 1500ms\nlog:\n  format: json\n")
	if err := cfg.ApplyYAML(raw); err != nil {
		t.Fatalf("ApplyYAML: %v", err)
	}
	if len(cfg.Views) != 1 || cfg.Views[0] != "plain-grid" || cfg.AnnounceMode != "oneshot" {
		t.Fatalf("overlay not applied: %+v", cfg)
	}
	if cfg.FetchTimeout != 1500*time.Millisecond {
		t.Fatalf("timeout = %v", cfg.FetchTimeout)
	}
	if cfg.Log.Format != "json" || cfg.Log.Level != "info" {
		t.Fatalf("log overlay: %+v", cfg.Log)
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Views = nil
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for empty views")
	}
	cfg = Defaults()
	cfg.RedisURL = "redis://localhost:6379/0"
	cfg.RedisChannel = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for missing channel")
	}
}

func TestResolvedBaseURL(t *testing.T) {
	cfg := Defaults()
	if got := cfg.ResolvedBaseURL(); got != "http://127.0.0.1:8080" {
		t.Fatalf("base = %q", got)
	}
	cfg.BaseURL = "https://example.org/games"
	if got := cfg.ResolvedBaseURL(); got != "https://example.org/games" {
		t.Fatalf("base = %q", got)
	}
}
