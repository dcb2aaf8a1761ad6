package nlu

import (
	"context"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
	"github.com/Omarrvv/final-bot-sub003/pkg/observability/logging"
	"github.com/Omarrvv/final-bot-sub003/pkg/observability/metrics"
)

// Span is one raw token-classifier span with its coarse NER label.
type Span struct {
	Text       string  `json:"text"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// TokenClassifier is the statistical NER boundary. The pretrained model
// behind it is a black-box service; extractors work without one, relying on
// the gazetteer alone.
type TokenClassifier interface {
	Classify(ctx context.Context, text, language string) ([]Span, error)
}

// Resolver matches a raw span against the knowledge store. A hit returns
// the canonical record id.
type Resolver interface {
	ResolveEntity(ctx context.Context, entityType, value, language string) (string, bool, error)
}

// gazetteer matches carry this confidence when the term appears literally.
// Fuzzy matches scale between 0.5 and 1 with the edit-distance ratio.
const exactMatchConfidence = 0.85

// labelToType maps coarse NER labels onto the domain entity vocabulary.
var labelToType = map[string]string{
	"LOC":      EntityLocation,
	"GPE":      EntityLocation,
	"PLACE":    EntityLocation,
	"FAC":      EntityAttraction,
	"FACILITY": EntityAttraction,
	"LANDMARK": EntityAttraction,
	"ORG":      "organization",
	"PER":      "person",
	"PERSON":   "person",
}

// resolvableTypes are the entity types backed by knowledge-store records.
var resolvableTypes = map[string]bool{
	EntityAttraction: true,
	EntityLocation:   true,
}

type preppedTerm struct {
	raw   string
	lower string
	words int
	runes int
}

type preppedEntry struct {
	entityType string
	canonical  string
	terms      []preppedTerm
}

// Extractor extracts typed entities from text for one language: statistical
// NER spans first, gazetteer matching second, knowledge resolution last.
// Extraction never fails; errors degrade to fewer (or unresolved) entities.
type Extractor struct {
	language        string
	cfg             config.EntityConfig
	gazetteer       []preppedEntry
	tokenClassifier TokenClassifier
	resolver        Resolver
}

// ExtractorOption customizes an Extractor.
type ExtractorOption func(*Extractor)

// WithTokenClassifier wires the statistical NER service.
func WithTokenClassifier(tc TokenClassifier) ExtractorOption {
	return func(e *Extractor) { e.tokenClassifier = tc }
}

// WithResolver wires knowledge-store resolution.
func WithResolver(r Resolver) ExtractorOption {
	return func(e *Extractor) { e.resolver = r }
}

// NewExtractor builds the extractor registered for one language, preparing
// the gazetteer for repeated matching.
func NewExtractor(language string, cfg config.EntityConfig, opts ...ExtractorOption) *Extractor {
	e := &Extractor{language: language, cfg: cfg}
	for _, entry := range cfg.Gazetteer {
		prepped := preppedEntry{entityType: entry.Type, canonical: entry.Canonical}
		for _, term := range entry.Terms {
			lower := strings.ToLower(strings.TrimSpace(term))
			if lower == "" {
				continue
			}
			prepped.terms = append(prepped.terms, preppedTerm{
				raw:   strings.TrimSpace(term),
				lower: lower,
				words: len(strings.Fields(lower)),
				runes: utf8.RuneCountInString(lower),
			})
		}
		if len(prepped.terms) > 0 {
			e.gazetteer = append(e.gazetteer, prepped)
		}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns entities grouped by type, each list ordered by confidence
// descending. The optional intent is used for logging only.
func (e *Extractor) Extract(ctx context.Context, text, intent string) map[string][]Entity {
	startTime := time.Now()
	defer func() {
		metrics.RecordClassifierLatency("entity", time.Since(startTime).Seconds())
	}()

	entities := make(map[string][]Entity)

	e.runTokenClassifier(ctx, text, entities)
	e.runGazetteer(text, entities)
	e.resolveEntities(ctx, entities)

	sortEntities(entities)
	logging.Debugf("Extracted %d entity types for language=%s intent=%s", len(entities), e.language, intent)
	return entities
}

func (e *Extractor) runTokenClassifier(ctx context.Context, text string, entities map[string][]Entity) {
	if e.tokenClassifier == nil {
		return
	}
	spans, err := e.tokenClassifier.Classify(ctx, text, e.language)
	if err != nil {
		logging.Warnf("Token classifier failed for language %s: %v", e.language, err)
		return
	}
	for _, span := range spans {
		entityType, ok := labelToType[strings.ToUpper(span.Label)]
		if !ok {
			continue
		}
		addEntity(entities, entityType, Entity{Value: span.Text, Confidence: span.Confidence})
	}
}

// runGazetteer matches vocabulary terms: multi-word terms on word
// boundaries in the full text, single-word terms against the word list
// (exact, then fuzzy within the configured edit distance).
func (e *Extractor) runGazetteer(text string, entities map[string][]Entity) {
	lowerText := strings.ToLower(text)
	words := extractLowerWords(text)
	if len(words) == 0 {
		return
	}
	wordSet := make(map[string]bool, len(words))
	for _, w := range words {
		wordSet[w] = true
	}

	for _, entry := range e.gazetteer {
		bestConf := 0.0
		bestValue := ""
		for _, term := range entry.terms {
			if term.words > 1 {
				if ContainsPhrase(lowerText, term.lower) {
					bestConf, bestValue = exactMatchConfidence, term.raw
					break
				}
				continue
			}

			if wordSet[term.lower] {
				bestConf, bestValue = exactMatchConfidence, term.raw
				break
			}

			if term.runes < e.cfg.MinFuzzyLength {
				continue
			}
			for _, w := range words {
				if levenshteinDistance(w, term.lower) > e.cfg.FuzzyMaxDistance {
					continue
				}
				// Scales with closeness but never beats a literal match.
				conf := exactMatchConfidence * fuzzyRatio(w, term.lower)
				if conf > bestConf {
					bestConf, bestValue = conf, term.raw
				}
			}
		}

		if bestConf > 0 {
			value := entry.canonical
			if value == "" {
				value = bestValue
			}
			addEntity(entities, entry.entityType, Entity{Value: value, Confidence: bestConf})
		}
	}
}

// resolveEntities attaches canonical ids from the knowledge store. An
// unresolvable span keeps its raw value and confidence so slot filling can
// still prompt with it.
func (e *Extractor) resolveEntities(ctx context.Context, entities map[string][]Entity) {
	if e.resolver == nil {
		return
	}
	for entityType, spans := range entities {
		if !resolvableTypes[entityType] {
			continue
		}
		for i := range spans {
			id, ok, err := e.resolver.ResolveEntity(ctx, entityType, spans[i].Value, e.language)
			if err != nil {
				logging.Warnf("Entity resolution failed for %s %q: %v", entityType, spans[i].Value, err)
				continue
			}
			if !ok {
				continue
			}
			spans[i].ResolvedID = id
			if spans[i].Confidence < e.cfg.ResolutionConfidence {
				spans[i].Confidence = e.cfg.ResolutionConfidence
			}
		}
	}
}

// addEntity appends a span, keeping only the higher-confidence copy of
// duplicate values within a type.
func addEntity(entities map[string][]Entity, entityType string, entity Entity) {
	spans := entities[entityType]
	for i, existing := range spans {
		if strings.EqualFold(existing.Value, entity.Value) {
			if entity.Confidence > existing.Confidence {
				spans[i] = entity
			}
			return
		}
	}
	entities[entityType] = append(spans, entity)
}

// ContainsPhrase reports whether phrase occurs in text on word boundaries.
// Both arguments must already be lowercased.
func ContainsPhrase(text, phrase string) bool {
	offset := 0
	for {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(phrase)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		offset = start + 1
	}
}

func boundaryBefore(text string, idx int) bool {
	if idx == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:idx])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(text string, idx int) bool {
	if idx >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[idx:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
