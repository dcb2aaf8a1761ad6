package generative

import (
	"testing"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
)

func TestNewByProvider(t *testing.T) {
	tests := []struct {
		name         string
		provider     string
		wantNil      bool
		wantErr      bool
		wantProvider string
	}{
		{name: "empty provider disables the layer", provider: "", wantNil: true},
		{name: "anthropic", provider: "anthropic", wantProvider: "anthropic"},
		{name: "openai", provider: "openai", wantProvider: "openai"},
		{name: "unknown provider fails", provider: "bard", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(config.GenerativeConfig{
				Provider:  tt.provider,
				Model:     "test-model",
				MaxTokens: 128,
			})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error for provider %q", tt.provider)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			if tt.wantNil {
				if client != nil {
					t.Fatalf("expected nil client, got %T", client)
				}
				return
			}
			if client == nil {
				t.Fatal("expected a client")
			}
			if got := client.Provider(); got != tt.wantProvider {
				t.Errorf("Provider() = %q, want %q", got, tt.wantProvider)
			}
		})
	}
}
