package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleModelConfig = `
models:
  default:
    - id: revo-1.0
      name: Revo Stable
      status: stable
      tier: basic
      credits_per_generation: 3
      capabilities:
        max_quality: 6
        content_generation: true
        supported_platforms: [instagram, facebook]
      config:
        provider: gemini
        upstream_model: gemini-2.5-flash
        timeout: 45s
    - id: revo-off
      enable: false
      config:
        provider: gemini
        upstream_model: gemini-2.5-flash
    - id: revo-1.5
      status: enhanced
      tier: premium
      config:
        provider: gemini
        upstream_model: gemini-2.5-flash-image
        fallback_providers: [openai]
`

func writeModelConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadModelBootstrapConfig(t *testing.T) {
	cfg, err := LoadModelBootstrapConfig(writeModelConfig(t, sampleModelConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	entries := cfg.ModelsForSet("default")
	if len(entries) != 2 {
		t.Fatalf("expected 2 enabled entries, got %d", len(entries))
	}
	first := entries[0]
	if first.ID != "revo-1.0" || first.Timeout != 45*time.Second {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	if first.MaxQuality != 6 || !first.ContentGeneration {
		t.Fatalf("capabilities not parsed: %+v", first)
	}

	second := entries[1]
	if second.Name != "revo-1.5" {
		t.Fatalf("name should default to id, got %q", second.Name)
	}
	if second.Timeout != 60*time.Second {
		t.Fatalf("timeout should default to 60s, got %v", second.Timeout)
	}
	if len(second.FallbackProviders) != 1 || second.FallbackProviders[0] != "openai" {
		t.Fatalf("fallback providers not parsed: %+v", second.FallbackProviders)
	}
}

func TestLoadModelBootstrapConfigRejectsIncompleteEntry(t *testing.T) {
	broken := `
models:
  default:
    - id: revo-1.0
      config:
        upstream_model: gemini-2.5-flash
`
	if _, err := LoadModelBootstrapConfig(writeModelConfig(t, broken)); err == nil {
		t.Fatal("expected error for missing provider")
	}
}

func TestModelsForSetUnknownSet(t *testing.T) {
	cfg, err := LoadModelBootstrapConfig(writeModelConfig(t, sampleModelConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if entries := cfg.ModelsForSet("staging"); entries != nil {
		t.Fatalf("unknown set should return nil, got %+v", entries)
	}
}
