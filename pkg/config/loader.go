package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/Omarrvv/final-bot-sub003/pkg/observability/logging"
)

// Parse reads and validates the YAML config file at configPath.
func Parse(configPath string) (*Config, error) {
	// Resolve symlinks to handle Kubernetes ConfigMap mounts
	resolved, _ := filepath.EvalSymlinks(configPath)
	if resolved == "" {
		resolved = configPath
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := ParseBytes(data)
	if err != nil {
		return nil, err
	}

	logging.Infof("Loaded config from %s (session backend=%s, knowledge backend=%s, generative provider=%s)",
		configPath, cfg.Session.Backend, cfg.Knowledge.Backend, cfg.Generative.Provider)
	return cfg, nil
}

// ParseBytes parses raw YAML config data without touching the filesystem.
func ParseBytes(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(cfg)

	if err := validateConfigStructure(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfigStructure(cfg *Config) error {
	if !cfg.NLU.Language.IsSupported(cfg.NLU.Language.Default) {
		return fmt.Errorf("default language '%s' is not in the supported list", cfg.NLU.Language.Default)
	}

	if err := validateThreshold("nlu.intent.similarity_threshold", cfg.NLU.Intent.SimilarityThreshold); err != nil {
		return err
	}
	if err := validateThreshold("nlu.intent.pattern_confidence", cfg.NLU.Intent.PatternConfidence); err != nil {
		return err
	}
	if err := validateThreshold("nlu.intent.greeting_confidence", cfg.NLU.Intent.GreetingConfidence); err != nil {
		return err
	}
	if err := validateThreshold("nlu.entity.resolution_confidence", cfg.NLU.Entity.ResolutionConfidence); err != nil {
		return err
	}
	if cfg.NLU.Intent.ContextBoost < 0 || cfg.NLU.Intent.ContextBoost > 0.5 {
		return fmt.Errorf("nlu.intent.context_boost must be in [0, 0.5], got %v", cfg.NLU.Intent.ContextBoost)
	}

	switch cfg.NLU.Intent.Aggregation {
	case "max", "mean":
	default:
		return fmt.Errorf("nlu.intent.aggregation must be 'max' or 'mean', got '%s'", cfg.NLU.Intent.Aggregation)
	}

	switch cfg.Session.Backend {
	case "memory":
	case "redis":
		if cfg.Session.Redis.Address == "" {
			return fmt.Errorf("session backend 'redis' requires session.redis.address")
		}
	default:
		return fmt.Errorf("unsupported session backend '%s' (expected 'memory' or 'redis')", cfg.Session.Backend)
	}

	switch cfg.Knowledge.Backend {
	case "memory":
	case "sqlite":
		if cfg.Knowledge.SQLitePath == "" {
			return fmt.Errorf("knowledge backend 'sqlite' requires knowledge.sqlite_path")
		}
	default:
		return fmt.Errorf("unsupported knowledge backend '%s' (expected 'memory' or 'sqlite')", cfg.Knowledge.Backend)
	}

	switch cfg.Generative.Provider {
	case "", "anthropic", "openai":
	default:
		return fmt.Errorf("unsupported generative provider '%s' (expected 'anthropic' or 'openai')", cfg.Generative.Provider)
	}

	switch cfg.Cache.EvictionPolicy {
	case "fifo", "lru", "lfu":
	default:
		return fmt.Errorf("unsupported cache eviction policy '%s' (expected 'fifo', 'lru' or 'lfu')", cfg.Cache.EvictionPolicy)
	}

	for i, rule := range cfg.Chatbot.FastPath {
		if rule.Topic == "" {
			return fmt.Errorf("chatbot.fast_path[%d]: topic cannot be empty", i)
		}
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("chatbot.fast_path[%d] ('%s'): at least one keyword is required", i, rule.Topic)
		}
	}

	for name, ep := range cfg.Services {
		if ep.BaseURL == "" {
			return fmt.Errorf("services.%s: base_url cannot be empty", name)
		}
	}

	for i, entry := range cfg.NLU.Entity.Gazetteer {
		if entry.Type == "" {
			return fmt.Errorf("nlu.entity.gazetteer[%d]: type cannot be empty", i)
		}
		if len(entry.Terms) == 0 {
			return fmt.Errorf("nlu.entity.gazetteer[%d] ('%s'): at least one term is required", i, entry.Type)
		}
	}

	return nil
}

func validateThreshold(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be in [0, 1], got %v", name, v)
	}
	return nil
}
