package nlu

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
	"github.com/Omarrvv/final-bot-sub003/pkg/observability/logging"
	"github.com/Omarrvv/final-bot-sub003/pkg/observability/metrics"
)

// Engine runs the full understanding pipeline for one utterance: language
// detection, normalization, intent classification and entity extraction.
// It never fails a request; any sub-component error degrades to a fallback
// result instead of propagating.
type Engine struct {
	detector   *LanguageDetector
	classifier *Classifier
	extractors map[string]*Extractor // keyed by language, one per supported language
	cfg        config.NLUConfig
}

// NewEngine wires the pipeline. Missing components are a configuration
// error and fail construction.
func NewEngine(cfg config.NLUConfig, detector *LanguageDetector, classifier *Classifier, extractors map[string]*Extractor) (*Engine, error) {
	if detector == nil {
		return nil, fmt.Errorf("nlu engine requires a language detector")
	}
	if classifier == nil {
		return nil, fmt.Errorf("nlu engine requires an intent classifier")
	}
	return &Engine{
		detector:   detector,
		classifier: classifier,
		extractors: extractors,
		cfg:        cfg,
	}, nil
}

// Process analyzes one utterance. When language is empty the detector
// decides; a caller-provided language is taken at face value.
func (e *Engine) Process(ctx context.Context, text, language string, prior Context) (result Result) {
	startTime := time.Now()
	defer func() {
		metrics.RecordClassifierLatency("nlu", time.Since(startTime).Seconds())
	}()

	langConfidence := 1.0
	if language == "" {
		language, langConfidence = e.detector.Detect(text)
	}
	norm := NormalizeText(text, language)

	// A panicking classifier or extractor degrades the turn, it does not
	// take the request down with it.
	defer func() {
		if r := recover(); r != nil {
			logging.Errorf("NLU pipeline panic, degrading to fallback: %v", r)
			result = FallbackResult(norm, language)
			result.LanguageConfidence = langConfidence
		}
	}()

	result = Result{
		Text:               norm,
		Language:           language,
		LanguageConfidence: langConfidence,
		Entities:           map[string][]Entity{},
	}

	if !hasTextSignal(norm) {
		result.Intent = IntentFallback
		result.MatchType = MatchNone
		return result
	}

	pred, err := e.classifier.Classify(ctx, norm, language, prior)
	if err != nil {
		logging.Errorf("Intent classification failed, degrading to fallback: %v", err)
		degraded := FallbackResult(norm, language)
		degraded.LanguageConfidence = langConfidence
		return degraded
	}
	result.Intent = pred.Intent
	result.Confidence = pred.Confidence
	result.MatchType = pred.MatchType
	result.Metadata = pred.Metadata

	if extractor := e.extractorFor(language); extractor != nil {
		result.Entities = extractor.Extract(ctx, norm, pred.Intent)
	}

	return result
}

// extractorFor returns the extractor registered for the language, its base
// language, or the default language, in that order.
func (e *Engine) extractorFor(language string) *Extractor {
	if ex, ok := e.extractors[language]; ok {
		return ex
	}
	if ex, ok := e.extractors[config.BaseLanguage(language)]; ok {
		return ex
	}
	return e.extractors[e.cfg.Language.Default]
}

// NormalizeText trims and collapses whitespace, lowercasing only languages
// whose script has case. Arabic text keeps its caseless letters but loses
// tatweel and harakat, which vary freely without changing meaning.
func NormalizeText(text, language string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if collapsed == "" {
		return ""
	}
	if config.BaseLanguage(language) == "ar" {
		return stripArabicMarks(collapsed)
	}
	return strings.ToLower(collapsed)
}

const (
	tatweel      = 0x0640
	harakatFirst = 0x064B
	harakatLast  = 0x0652
)

func stripArabicMarks(s string) string {
	return strings.Map(func(r rune) rune {
		if r == tatweel || (r >= harakatFirst && r <= harakatLast) {
			return -1
		}
		return r
	}, s)
}

// hasTextSignal reports whether s contains at least one letter or digit.
func hasTextSignal(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
