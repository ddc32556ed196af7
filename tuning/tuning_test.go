package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	if cfg.TickRateHz != 10 {
		t.Errorf("tick rate: got %v, want 10", cfg.TickRateHz)
	}
	if cfg.Tier.LargeGroupThreshold != 5 || cfg.Tier.ClusterDistance != 15 || cfg.Tier.GroupSeparation != 25 {
		t.Errorf("tier defaults wrong: %+v", cfg.Tier)
	}
	if cfg.LLM.TimeoutSeconds != 5 || cfg.LLM.QueueDepth != 32 {
		t.Errorf("llm defaults wrong: %+v", cfg.LLM)
	}
	if cfg.BiasSequence != [4]float64{0.3, 0.2, 0.1, 0.0} {
		t.Errorf("bias sequence wrong: %v", cfg.BiasSequence)
	}
}

func TestLoadMissingPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with empty path failed: %v", err)
	}
	if cfg != Default() {
		t.Errorf("empty path should return defaults")
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	data := []byte("tick_rate_hz: 20\nllm:\n  timeout_seconds: 2\n  queue_depth: 8\ntier:\n  large_group_threshold: 8\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TickRateHz != 20 {
		t.Errorf("tick rate override lost: %v", cfg.TickRateHz)
	}
	if cfg.LLM.TimeoutSeconds != 2 || cfg.LLM.QueueDepth != 8 {
		t.Errorf("llm overrides lost: %+v", cfg.LLM)
	}
	if cfg.Tier.LargeGroupThreshold != 8 {
		t.Errorf("tier override lost: %+v", cfg.Tier)
	}
	// Untouched keys keep their defaults.
	if cfg.Tier.ClusterDistance != 15 {
		t.Errorf("unset key should keep default, got %v", cfg.Tier.ClusterDistance)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("unset key should keep default, got %v", cfg.MaxRetries)
	}
}

func TestLoadRejectsBadTickRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("tick_rate_hz: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("zero tick rate must be rejected")
	}
}
