package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const minimalConfig = `
nlu:
  language:
    default: en
    supported: [en, ar, ar-EG]
session:
  backend: memory
knowledge:
  backend: memory
generative:
  provider: anthropic
  model: claude-3-haiku-20240307
`

func TestParseBytesDefaults(t *testing.T) {
	cfg, err := ParseBytes([]byte(minimalConfig))
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}

	if cfg.NLU.Intent.SimilarityThreshold != 0.5 {
		t.Errorf("SimilarityThreshold = %v, want 0.5", cfg.NLU.Intent.SimilarityThreshold)
	}
	if cfg.NLU.Intent.PatternConfidence != 0.95 {
		t.Errorf("PatternConfidence = %v, want 0.95", cfg.NLU.Intent.PatternConfidence)
	}
	if cfg.NLU.Intent.GreetingConfidence != 0.7 {
		t.Errorf("GreetingConfidence = %v, want 0.7", cfg.NLU.Intent.GreetingConfidence)
	}
	if cfg.NLU.Intent.Aggregation != "max" {
		t.Errorf("Aggregation = %q, want max", cfg.NLU.Intent.Aggregation)
	}
	if cfg.Session.TTLSeconds != 1800 {
		t.Errorf("Session TTLSeconds = %d, want 1800", cfg.Session.TTLSeconds)
	}
	if cfg.Generative.TimeoutSeconds != 12 {
		t.Errorf("Generative TimeoutSeconds = %d, want 12", cfg.Generative.TimeoutSeconds)
	}
	if cfg.Knowledge.TimeoutSeconds != 5 {
		t.Errorf("Knowledge TimeoutSeconds = %d, want 5", cfg.Knowledge.TimeoutSeconds)
	}
	if cfg.Cache.EvictionPolicy != "lru" {
		t.Errorf("EvictionPolicy = %q, want lru", cfg.Cache.EvictionPolicy)
	}
	if cfg.Dialog.InitialState != "greeting" {
		t.Errorf("InitialState = %q, want greeting", cfg.Dialog.InitialState)
	}
}

func TestParseBytesValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "valid config",
			yaml:    minimalConfig,
			wantErr: "",
		},
		{
			name: "bad session backend",
			// first "backend:" occurrence is the session section
			yaml:    strings.Replace(minimalConfig, "backend: memory", "backend: dynamo", 1),
			wantErr: "unsupported session backend",
		},
		{
			name:    "redis requires address",
			yaml:    strings.Replace(minimalConfig, "session:\n  backend: memory", "session:\n  backend: redis", 1),
			wantErr: "requires session.redis.address",
		},
		{
			name: "threshold out of range",
			yaml: `
nlu:
  language:
    default: en
    supported: [en, ar]
  intent:
    similarity_threshold: 1.5
session:
  backend: memory
knowledge:
  backend: memory
`,
			wantErr: "similarity_threshold",
		},
		{
			name: "bad aggregation",
			yaml: `
nlu:
  language:
    default: en
    supported: [en, ar]
  intent:
    aggregation: median
session:
  backend: memory
knowledge:
  backend: memory
`,
			wantErr: "aggregation",
		},
		{
			name:    "bad generative provider",
			yaml:    strings.Replace(minimalConfig, "provider: anthropic", "provider: bard", 1),
			wantErr: "unsupported generative provider",
		},
		{
			name:    "default language must be supported",
			yaml:    strings.Replace(minimalConfig, "default: en", "default: fr", 1),
			wantErr: "not in the supported list",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes([]byte(tt.yaml))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ParseBytes() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ParseBytes() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want contains %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseBytesServiceEndpoints(t *testing.T) {
	cfg, err := ParseBytes([]byte(minimalConfig + `
services:
  weather:
    base_url: http://localhost:9200/api/weather
`))
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	if cfg.Services["weather"].TimeoutSeconds != 5 {
		t.Errorf("service TimeoutSeconds = %d, want default 5", cfg.Services["weather"].TimeoutSeconds)
	}

	_, err = ParseBytes([]byte(minimalConfig + `
services:
  weather:
    timeout_seconds: 3
`))
	if err == nil || !strings.Contains(err.Error(), "base_url") {
		t.Errorf("error = %v, want missing base_url rejected", err)
	}
}

func TestParseFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(minimalConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Generative.Provider != "anthropic" {
		t.Errorf("Provider = %q, want anthropic", cfg.Generative.Provider)
	}

	if _, err := Parse(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Parse() on missing file should fail")
	}
}

func TestBaseLanguage(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ar-EG", "ar"},
		{"ar_EG", "ar"},
		{"en", "en"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := BaseLanguage(tt.in); got != tt.want {
			t.Errorf("BaseLanguage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
