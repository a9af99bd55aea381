package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxFilterLength != 4096 {
		t.Errorf("MaxFilterLength = %d, want 4096", cfg.MaxFilterLength)
	}
	if cfg.MaxFilterDepth != 6 {
		t.Errorf("MaxFilterDepth = %d, want 6", cfg.MaxFilterDepth)
	}
	if cfg.MaxFilterConditions != 50 {
		t.Errorf("MaxFilterConditions = %d, want 50", cfg.MaxFilterConditions)
	}
	if cfg.MarginMultiplier != 2.5 {
		t.Errorf("MarginMultiplier = %v, want 2.5", cfg.MarginMultiplier)
	}
	if cfg.MemoryLowWaterMB != 25 || cfg.MemoryHighWaterMB != 100 {
		t.Errorf("watermarks = %d/%d MB, want 25/100", cfg.MemoryLowWaterMB, cfg.MemoryHighWaterMB)
	}
	if cfg.AllowHighMemory {
		t.Error("AllowHighMemory should default to false")
	}
	if cfg.SessionIdle() != 30*time.Minute {
		t.Errorf("SessionIdle = %v, want 30m", cfg.SessionIdle())
	}
	if cfg.BreakerFailureThreshold != 3 || cfg.BreakerCooldown() != 30*time.Second {
		t.Errorf("breaker = %d/%v, want 3/30s", cfg.BreakerFailureThreshold, cfg.BreakerCooldown())
	}
	if cfg.RemoteTimeout() != 10*time.Second {
		t.Errorf("RemoteTimeout = %v, want 10s", cfg.RemoteTimeout())
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxFilterLength != 4096 {
		t.Errorf("MaxFilterLength = %d, want default", cfg.MaxFilterLength)
	}
}

func TestLoad_OverlayWinsForScalars(t *testing.T) {
	tmpDir := t.TempDir()
	content := `{
		"api_base_url": "https://tasks.example.com",
		"max_filter_length": 2048,
		"allow_high_memory": true,
		"disabled_tools": ["filters_delete"]
	}`
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIBaseURL != "https://tasks.example.com" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.MaxFilterLength != 2048 {
		t.Errorf("MaxFilterLength = %d, want overlay 2048", cfg.MaxFilterLength)
	}
	// Untouched fields keep their defaults.
	if cfg.MaxFilterDepth != 6 {
		t.Errorf("MaxFilterDepth = %d, want default 6", cfg.MaxFilterDepth)
	}
	if !cfg.AllowHighMemory {
		t.Error("AllowHighMemory overlay not applied")
	}
	if len(cfg.DisabledTools) != 1 || cfg.DisabledTools[0] != "filters_delete" {
		t.Errorf("DisabledTools = %v", cfg.DisabledTools)
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte("{not json"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(tmpDir); err == nil {
		t.Error("Load of malformed config should fail")
	}
}

func TestMerge_StringSliceDeduplicated(t *testing.T) {
	base := &Config{DisabledTools: []string{"a", "b"}}
	overlay := &Config{DisabledTools: []string{" b ", "c", ""}}

	got := Merge(base, overlay)
	want := []string{"a", "b", "c"}
	if len(got.DisabledTools) != len(want) {
		t.Fatalf("DisabledTools = %v, want %v", got.DisabledTools, want)
	}
	for i := range want {
		if got.DisabledTools[i] != want[i] {
			t.Errorf("DisabledTools = %v, want %v", got.DisabledTools, want)
		}
	}
}
