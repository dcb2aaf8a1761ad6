package nlu

import "sort"

// Well-known intent names produced by the classifier and consumed by the
// dialog manager and orchestrator.
const (
	IntentGreeting = "greeting"
	IntentFarewell = "farewell"
	IntentFallback = "fallback"
)

// Match types reported on a Prediction.
const (
	MatchPattern    = "pattern"
	MatchSimilarity = "similarity"
	MatchContext    = "context"
	MatchNone       = "none"
)

// Entity type vocabulary referenced by code. Flow configs may declare
// additional types; these are only the ones with dedicated handling.
const (
	EntityAttraction   = "attraction"
	EntityLocation     = "location"
	EntityCuisine      = "cuisine"
	EntityTransport    = "transport"
	EntityInfoCategory = "info_category"
)

// Entity is one extracted span, optionally resolved against the knowledge
// store.
type Entity struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	ResolvedID string  `json:"resolved_id,omitempty"`
}

// Context carries prior-turn signals into intent classification.
type Context struct {
	LastIntent string
}

// Result is the structured understanding of one utterance.
type Result struct {
	Text               string              `json:"text"`
	Language           string              `json:"language"`
	LanguageConfidence float64             `json:"language_confidence"`
	Intent             string              `json:"intent"`
	Confidence         float64             `json:"confidence"`
	MatchType          string              `json:"match_type"`
	Metadata           map[string]string   `json:"metadata,omitempty"`
	Entities           map[string][]Entity `json:"entities"`
}

// FallbackResult is the degraded result used when understanding fails. It is
// always safe to hand to the dialog manager.
func FallbackResult(text, language string) Result {
	return Result{
		Text:      text,
		Language:  language,
		Intent:    IntentFallback,
		MatchType: MatchNone,
		Entities:  map[string][]Entity{},
	}
}

// HasEntity reports whether at least one span of the given type was
// extracted.
func (r Result) HasEntity(entityType string) bool {
	return len(r.Entities[entityType]) > 0
}

// FirstEntity returns the highest-confidence span of the given type.
func (r Result) FirstEntity(entityType string) (Entity, bool) {
	spans := r.Entities[entityType]
	if len(spans) == 0 {
		return Entity{}, false
	}
	return spans[0], true
}

// sortEntities orders every span list by confidence, descending. Equal
// confidences keep their extraction order.
func sortEntities(entities map[string][]Entity) {
	for _, spans := range entities {
		sort.SliceStable(spans, func(i, j int) bool {
			return spans[i].Confidence > spans[j].Confidence
		})
	}
}
