package config

import "time"

// Config is the root configuration tree for the chatbot engine. It is parsed
// once at startup and threaded into constructors; there is no global config
// state.
type Config struct {
	NLU        NLUConfig        `json:"nlu" yaml:"nlu"`
	Dialog     DialogConfig     `json:"dialog" yaml:"dialog"`
	Session    SessionConfig    `json:"session" yaml:"session"`
	Knowledge  KnowledgeConfig  `json:"knowledge" yaml:"knowledge"`
	Generative GenerativeConfig `json:"generative" yaml:"generative"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`
	Chatbot    ChatbotConfig    `json:"chatbot" yaml:"chatbot"`

	// Services maps the integration names dialog flows reference in their
	// service_calls to HTTP endpoints.
	Services map[string]ServiceEndpoint `json:"services,omitempty" yaml:"services,omitempty"`
}

// NLUConfig configures the language detector, intent classifier and entity
// extractors.
type NLUConfig struct {
	IntentsFile string          `json:"intents_file" yaml:"intents_file"`
	Language    LanguageConfig  `json:"language" yaml:"language"`
	Embedding   EmbeddingConfig `json:"embedding" yaml:"embedding"`
	Intent      IntentConfig    `json:"intent" yaml:"intent"`
	Entity      EntityConfig    `json:"entity" yaml:"entity"`
}

// LanguageConfig drives language detection.
type LanguageConfig struct {
	// Default is returned when no script signal is found. Also the base
	// language used for prompt/template fallback lookups.
	Default   string   `json:"default" yaml:"default"`
	Supported []string `json:"supported" yaml:"supported"`

	// ArabicScriptRatio is the fraction of letters that must be Arabic
	// code points before the text is classified as Arabic.
	ArabicScriptRatio float64 `json:"arabic_script_ratio,omitempty" yaml:"arabic_script_ratio,omitempty"`

	// DialectMarkers maps a dialect tag (e.g. ar-EG) to lexical markers.
	// MinDialectMarkers of them must appear before the dialect tag is used.
	DialectMarkers    map[string][]string `json:"dialect_markers,omitempty" yaml:"dialect_markers,omitempty"`
	MinDialectMarkers int                 `json:"min_dialect_markers,omitempty" yaml:"min_dialect_markers,omitempty"`
}

// EmbeddingConfig points at the OpenAI-compatible embedding endpoint used for
// similarity classification.
type EmbeddingConfig struct {
	Endpoint       string `json:"endpoint" yaml:"endpoint"`
	Model          string `json:"model" yaml:"model"`
	APIKeyEnv      string `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	PreloadWorkers int    `json:"preload_workers,omitempty" yaml:"preload_workers,omitempty"`
}

// IntentConfig holds the classification thresholds. These are empirically
// tuned constants, not architectural invariants.
type IntentConfig struct {
	// SimilarityThreshold is the floor below which a similarity match is
	// considered weak and context elevation may apply.
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty" yaml:"similarity_threshold,omitempty"`
	// PatternConfidence is assigned to regex pattern matches.
	PatternConfidence float64 `json:"pattern_confidence,omitempty" yaml:"pattern_confidence,omitempty"`
	// ContextBoost is added to a weak score when the previous turn's intent
	// supports a continuation.
	ContextBoost float64 `json:"context_boost,omitempty" yaml:"context_boost,omitempty"`
	// GreetingConfidence gates the dialog manager's greeting/farewell
	// short-circuit.
	GreetingConfidence float64 `json:"greeting_confidence,omitempty" yaml:"greeting_confidence,omitempty"`
	// Aggregation selects how example similarities collapse into one intent
	// score: "max" (best single example) or "mean".
	Aggregation string `json:"aggregation,omitempty" yaml:"aggregation,omitempty"`
}

// EntityConfig tunes gazetteer fuzzy matching and knowledge resolution.
type EntityConfig struct {
	// FuzzyMaxDistance is the largest edit distance accepted by gazetteer
	// fuzzy matching.
	FuzzyMaxDistance int `json:"fuzzy_max_distance,omitempty" yaml:"fuzzy_max_distance,omitempty"`
	// MinFuzzyLength disables fuzzy matching for words shorter than this.
	MinFuzzyLength int `json:"min_fuzzy_length,omitempty" yaml:"min_fuzzy_length,omitempty"`
	// ResolutionConfidence is the ceiling confidence assigned when a span
	// resolves to a knowledge-store record.
	ResolutionConfidence float64 `json:"resolution_confidence,omitempty" yaml:"resolution_confidence,omitempty"`
	// Gazetteer lists domain vocabulary not reliably covered by generic
	// NER (cuisine types, transport modes, attraction names).
	Gazetteer []GazetteerEntry `json:"gazetteer,omitempty" yaml:"gazetteer,omitempty"`
}

// GazetteerEntry is one vocabulary item: any of its surface terms, in any
// supported language, extracts an entity of the given type carrying the
// canonical value.
type GazetteerEntry struct {
	Type      string   `json:"type" yaml:"type"`
	Canonical string   `json:"canonical" yaml:"canonical"`
	Terms     []string `json:"terms" yaml:"terms"`
}

// DialogConfig locates the flow table.
type DialogConfig struct {
	FlowsFile string `json:"flows_file" yaml:"flows_file"`
	// DefaultState receives sessions whose dialog state is missing from the
	// flow table.
	DefaultState string `json:"default_state,omitempty" yaml:"default_state,omitempty"`
	InitialState string `json:"initial_state,omitempty" yaml:"initial_state,omitempty"`
}

// SessionConfig selects and tunes the session store backend.
type SessionConfig struct {
	Backend     string      `json:"backend" yaml:"backend"` // memory | redis
	TTLSeconds  int         `json:"ttl_seconds,omitempty" yaml:"ttl_seconds,omitempty"`
	MaxSessions int         `json:"max_sessions,omitempty" yaml:"max_sessions,omitempty"`
	MaxHistory  int         `json:"max_history,omitempty" yaml:"max_history,omitempty"`
	Redis       RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
}

// RedisConfig carries connection settings for redis-backed stores.
type RedisConfig struct {
	Address   string `json:"address" yaml:"address"`
	Password  string `json:"password,omitempty" yaml:"password,omitempty"`
	DB        int    `json:"db,omitempty" yaml:"db,omitempty"`
	KeyPrefix string `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
}

// KnowledgeConfig selects and tunes the knowledge store backend.
type KnowledgeConfig struct {
	Backend        string `json:"backend" yaml:"backend"` // memory | sqlite
	SQLitePath     string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`
	SeedFile       string `json:"seed_file,omitempty" yaml:"seed_file,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// GenerativeConfig configures the generative fallback backend.
type GenerativeConfig struct {
	Provider       string `json:"provider" yaml:"provider"` // anthropic | openai
	Model          string `json:"model" yaml:"model"`
	BaseURL        string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIKeyEnv      string `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`
	MaxTokens      int    `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	// WordLimit is injected into the brevity instruction of every fallback
	// prompt.
	WordLimit int `json:"word_limit,omitempty" yaml:"word_limit,omitempty"`
}

// ServiceEndpoint locates one external read-only integration (weather,
// exchange rates, booking availability).
type ServiceEndpoint struct {
	BaseURL        string `json:"base_url" yaml:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// CacheConfig tunes the service result cache. Generative responses are never
// cached regardless of these settings.
type CacheConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	TTLSeconds     int    `json:"ttl_seconds,omitempty" yaml:"ttl_seconds,omitempty"`
	MaxEntries     int    `json:"max_entries,omitempty" yaml:"max_entries,omitempty"`
	EvictionPolicy string `json:"eviction_policy,omitempty" yaml:"eviction_policy,omitempty"` // fifo | lru | lfu
}

// FastPathRule routes messages containing any of the keywords straight to the
// attraction handler before NLU runs. Rules are evaluated in declaration
// order.
type FastPathRule struct {
	Topic    string   `json:"topic" yaml:"topic"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// ChatbotConfig configures the orchestration controller.
type ChatbotConfig struct {
	// GenerativeFirst answers every message via the generative backend,
	// running NLU only to annotate the response.
	GenerativeFirst bool           `json:"generative_first,omitempty" yaml:"generative_first,omitempty"`
	FastPath        []FastPathRule `json:"fast_path,omitempty" yaml:"fast_path,omitempty"`
	// FallbackMessages is the static apology per language, used when the
	// generative backend is unavailable.
	FallbackMessages map[string]string `json:"fallback_messages,omitempty" yaml:"fallback_messages,omitempty"`
	// ErrorMessages is the localized apology returned when processing fails
	// unexpectedly.
	ErrorMessages map[string]string `json:"error_messages,omitempty" yaml:"error_messages,omitempty"`
}

// applyDefaults fills unset fields after YAML unmarshal.
func applyDefaults(cfg *Config) {
	if cfg.NLU.Language.Default == "" {
		cfg.NLU.Language.Default = "en"
	}
	if len(cfg.NLU.Language.Supported) == 0 {
		cfg.NLU.Language.Supported = []string{"en", "ar"}
	}
	if cfg.NLU.Language.ArabicScriptRatio == 0 {
		cfg.NLU.Language.ArabicScriptRatio = 0.3
	}
	if cfg.NLU.Language.MinDialectMarkers == 0 {
		cfg.NLU.Language.MinDialectMarkers = 1
	}
	if cfg.NLU.Embedding.TimeoutSeconds == 0 {
		cfg.NLU.Embedding.TimeoutSeconds = 10
	}
	if cfg.NLU.Embedding.PreloadWorkers == 0 {
		cfg.NLU.Embedding.PreloadWorkers = 4
	}
	if cfg.NLU.Intent.SimilarityThreshold == 0 {
		cfg.NLU.Intent.SimilarityThreshold = 0.5
	}
	if cfg.NLU.Intent.PatternConfidence == 0 {
		cfg.NLU.Intent.PatternConfidence = 0.95
	}
	if cfg.NLU.Intent.ContextBoost == 0 {
		cfg.NLU.Intent.ContextBoost = 0.15
	}
	if cfg.NLU.Intent.GreetingConfidence == 0 {
		cfg.NLU.Intent.GreetingConfidence = 0.7
	}
	if cfg.NLU.Intent.Aggregation == "" {
		cfg.NLU.Intent.Aggregation = "max"
	}
	if cfg.NLU.Entity.FuzzyMaxDistance == 0 {
		cfg.NLU.Entity.FuzzyMaxDistance = 2
	}
	if cfg.NLU.Entity.MinFuzzyLength == 0 {
		cfg.NLU.Entity.MinFuzzyLength = 4
	}
	if cfg.NLU.Entity.ResolutionConfidence == 0 {
		cfg.NLU.Entity.ResolutionConfidence = 0.95
	}
	if cfg.Dialog.DefaultState == "" {
		cfg.Dialog.DefaultState = "greeting"
	}
	if cfg.Dialog.InitialState == "" {
		cfg.Dialog.InitialState = "greeting"
	}
	if cfg.Session.Backend == "" {
		cfg.Session.Backend = "memory"
	}
	if cfg.Session.TTLSeconds == 0 {
		cfg.Session.TTLSeconds = 1800
	}
	if cfg.Session.MaxSessions == 0 {
		cfg.Session.MaxSessions = 10000
	}
	if cfg.Session.MaxHistory == 0 {
		cfg.Session.MaxHistory = 40
	}
	if cfg.Knowledge.Backend == "" {
		cfg.Knowledge.Backend = "memory"
	}
	if cfg.Knowledge.TimeoutSeconds == 0 {
		cfg.Knowledge.TimeoutSeconds = 5
	}
	if cfg.Generative.MaxTokens == 0 {
		cfg.Generative.MaxTokens = 512
	}
	if cfg.Generative.TimeoutSeconds == 0 {
		cfg.Generative.TimeoutSeconds = 12
	}
	if cfg.Generative.WordLimit == 0 {
		cfg.Generative.WordLimit = 80
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 300
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 1024
	}
	if cfg.Cache.EvictionPolicy == "" {
		cfg.Cache.EvictionPolicy = "lru"
	}
	for name, ep := range cfg.Services {
		if ep.TimeoutSeconds == 0 {
			ep.TimeoutSeconds = 5
			cfg.Services[name] = ep
		}
	}
}

// SessionTTL returns the session expiry as a duration.
func (c *SessionConfig) SessionTTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Timeout returns the generative call budget as a duration.
func (c *GenerativeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Timeout returns the knowledge query budget as a duration.
func (c *KnowledgeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Timeout returns the embedding call budget as a duration.
func (c *EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TTL returns the cache entry lifetime as a duration.
func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Timeout returns the per-call budget for the endpoint as a duration.
func (c *ServiceEndpoint) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// IsSupported reports whether lang (or its base language) is configured.
func (c *LanguageConfig) IsSupported(lang string) bool {
	for _, s := range c.Supported {
		if s == lang || s == BaseLanguage(lang) {
			return true
		}
	}
	return false
}

// BaseLanguage strips a regional subtag: "ar-EG" -> "ar".
func BaseLanguage(lang string) string {
	for i := 0; i < len(lang); i++ {
		if lang[i] == '-' || lang[i] == '_' {
			return lang[:i]
		}
	}
	return lang
}
