package nlu

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
	"github.com/Omarrvv/final-bot-sub003/pkg/observability/logging"
	"github.com/Omarrvv/final-bot-sub003/pkg/observability/metrics"
)

// Prediction is the classifier output for one utterance.
type Prediction struct {
	Intent     string            `json:"intent"`
	Confidence float64           `json:"confidence"`
	MatchType  string            `json:"match_type"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type compiledPattern struct {
	intent string
	re     *regexp.Regexp
}

// example is one catalog utterance prepared for similarity matching.
type example struct {
	intent   string
	language string
	text     string // normalized
}

// Classifier assigns an intent to text using three strategies in priority
// order: compiled regex patterns, embedding similarity against the example
// catalog, and contextual elevation of the previous turn's intent when the
// similarity signal is weak.
//
// Example embeddings are computed once at construction and reused for all
// requests. Similarity ties between intents resolve to the intent declared
// first in the catalog.
type Classifier struct {
	intents         []config.IntentDef
	intentSet       map[string]bool
	patterns        map[string][]compiledPattern // language -> ordered patterns
	examples        []example                    // catalog order preserved
	embedder        Embedder
	cfg             config.IntentConfig
	defaultLanguage string
	preloadWorkers  int

	mu        sync.RWMutex
	vectors   map[string][]float32 // normalized example text -> embedding
	preloaded bool
}

// NewClassifier compiles the intent catalog and precomputes example
// embeddings with a worker pool. A preload failure is downgraded to a
// warning and vectors are computed lazily on first use, so a slow embedding
// service delays startup but never blocks it. Invalid regex patterns are a
// configuration error and fail construction.
func NewClassifier(ctx context.Context, intents []config.IntentDef, embedder Embedder, cfg config.NLUConfig) (*Classifier, error) {
	if embedder == nil {
		return nil, fmt.Errorf("intent classifier requires an embedder")
	}

	c := &Classifier{
		intents:         intents,
		intentSet:       make(map[string]bool, len(intents)),
		patterns:        make(map[string][]compiledPattern),
		embedder:        embedder,
		cfg:             cfg.Intent,
		defaultLanguage: cfg.Language.Default,
		preloadWorkers:  cfg.Embedding.PreloadWorkers,
		vectors:         make(map[string][]float32),
	}

	for _, def := range intents {
		c.intentSet[def.Name] = true
		for lang, patterns := range def.Patterns {
			for _, p := range patterns {
				re, err := regexp.Compile(p)
				if err != nil {
					return nil, fmt.Errorf("intent '%s': invalid pattern %q: %w", def.Name, p, err)
				}
				c.patterns[lang] = append(c.patterns[lang], compiledPattern{intent: def.Name, re: re})
			}
		}
		for lang, texts := range def.Examples {
			for _, text := range texts {
				norm := NormalizeText(text, lang)
				if norm == "" {
					continue
				}
				c.examples = append(c.examples, example{intent: def.Name, language: lang, text: norm})
			}
		}
	}

	if err := c.preloadExampleVectors(ctx); err != nil {
		logging.Warnf("Failed to preload example embeddings, falling back to lazy computation: %v", err)
	} else {
		c.preloaded = true
	}

	return c, nil
}

// preloadExampleVectors embeds all unique example texts concurrently.
func (c *Classifier) preloadExampleVectors(ctx context.Context) error {
	unique := make(map[string]bool, len(c.examples))
	for _, ex := range c.examples {
		unique[ex.text] = true
	}
	if len(unique) == 0 {
		logging.Infof("No intent examples to preload")
		return nil
	}

	texts := make([]string, 0, len(unique))
	for text := range unique {
		texts = append(texts, text)
	}

	workers := c.preloadWorkers
	if workers > len(texts) {
		workers = len(texts)
	}
	if workers < 1 {
		workers = 1
	}

	startTime := time.Now()

	type result struct {
		text string
		vec  []float32
		err  error
	}

	textChan := make(chan string, len(texts))
	resultChan := make(chan result, len(texts))
	for _, t := range texts {
		textChan <- t
	}
	close(textChan)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for text := range textChan {
				vec, err := c.embedder.Embed(ctx, text)
				resultChan <- result{text: text, vec: vec, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var firstErr error
	computed := make(map[string][]float32, len(texts))
	for res := range resultChan {
		if res.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to embed example %q: %w", res.text, res.err)
			}
			logging.Warnf("Failed to embed example %q: %v", res.text, res.err)
			continue
		}
		computed[res.text] = res.vec
	}

	c.mu.Lock()
	for text, vec := range computed {
		c.vectors[text] = vec
	}
	c.mu.Unlock()

	logging.Infof("Preloaded %d/%d example embeddings in %v (workers: %d)",
		len(computed), len(texts), time.Since(startTime), workers)
	return firstErr
}

// ensureVectors retries the preload when construction-time preloading
// failed. Concurrent callers may duplicate work; the merge is idempotent.
func (c *Classifier) ensureVectors(ctx context.Context) error {
	c.mu.RLock()
	ready := c.preloaded
	c.mu.RUnlock()
	if ready {
		return nil
	}

	logging.Warnf("Example embeddings not preloaded, computing at first use")
	if err := c.preloadExampleVectors(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.preloaded = true
	c.mu.Unlock()
	return nil
}

// Classify returns the best intent for text in the given language, using
// prior for context elevation. Empty or punctuation-only input yields the
// fallback intent with zero confidence rather than an error.
func (c *Classifier) Classify(ctx context.Context, text, language string, prior Context) (Prediction, error) {
	startTime := time.Now()
	defer func() {
		metrics.RecordClassifierLatency("intent", time.Since(startTime).Seconds())
	}()

	norm := NormalizeText(text, language)
	if !hasTextSignal(norm) {
		metrics.RecordIntentMatch(MatchNone)
		return Prediction{
			Intent:    IntentFallback,
			MatchType: MatchNone,
			Metadata:  map[string]string{"reason": "empty_input"},
		}, nil
	}

	if pred, ok := c.matchPattern(norm, language); ok {
		metrics.RecordIntentMatch(MatchPattern)
		return pred, nil
	}

	best, scores, err := c.similarityMatch(ctx, norm, language)
	if err != nil {
		return Prediction{}, err
	}
	if best.Intent == "" {
		metrics.RecordIntentMatch(MatchNone)
		return Prediction{
			Intent:    IntentFallback,
			MatchType: MatchNone,
			Metadata:  map[string]string{"reason": "no_examples"},
		}, nil
	}

	if best.Confidence < c.cfg.SimilarityThreshold {
		if pred, ok := c.elevateFromContext(best, scores, prior); ok {
			metrics.RecordIntentMatch(MatchContext)
			return pred, nil
		}
	}

	metrics.RecordIntentMatch(MatchSimilarity)
	return best, nil
}

// matchPattern runs the compiled patterns for the language and its base
// language. The first match wins.
func (c *Classifier) matchPattern(text, language string) (Prediction, bool) {
	langs := []string{language}
	if base := config.BaseLanguage(language); base != language {
		langs = append(langs, base)
	}
	for _, lang := range langs {
		for _, p := range c.patterns[lang] {
			if p.re.MatchString(text) {
				logging.Debugf("Pattern shortcut: intent=%s pattern=%q", p.intent, p.re.String())
				return Prediction{
					Intent:     p.intent,
					Confidence: c.cfg.PatternConfidence,
					MatchType:  MatchPattern,
					Metadata:   map[string]string{"pattern": p.re.String()},
				}, true
			}
		}
	}
	return Prediction{}, false
}

// similarityMatch embeds the query once, scores it against every example for
// the language, and aggregates per intent. It returns the winning prediction
// plus the full per-intent score map for context elevation.
func (c *Classifier) similarityMatch(ctx context.Context, text, language string) (Prediction, map[string]float64, error) {
	candidates := c.examplesFor(language)
	if len(candidates) == 0 {
		return Prediction{}, nil, nil
	}

	queryVec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return Prediction{}, nil, fmt.Errorf("failed to embed query: %w", err)
	}

	if err := c.ensureVectors(ctx); err != nil {
		return Prediction{}, nil, err
	}

	type aggregate struct {
		sum         float64
		count       int
		best        float64
		bestExample string
	}
	perIntent := make(map[string]*aggregate)

	c.mu.RLock()
	for _, ex := range candidates {
		vec, ok := c.vectors[ex.text]
		if !ok {
			continue
		}
		sim := float64(cosineSimilarity(queryVec, vec))
		agg := perIntent[ex.intent]
		if agg == nil {
			agg = &aggregate{best: -1}
			perIntent[ex.intent] = agg
		}
		agg.sum += sim
		agg.count++
		if sim > agg.best {
			agg.best = sim
			agg.bestExample = ex.text
		}
	}
	c.mu.RUnlock()

	scores := make(map[string]float64, len(perIntent))
	bestIntent, bestExample := "", ""
	bestScore := -1.0
	for _, def := range c.intents {
		agg, ok := perIntent[def.Name]
		if !ok {
			continue
		}
		score := agg.best
		if c.cfg.Aggregation == "mean" {
			score = agg.sum / float64(agg.count)
		}
		scores[def.Name] = score
		// Strictly greater keeps the first-declared intent on ties.
		if score > bestScore {
			bestIntent, bestScore, bestExample = def.Name, score, agg.bestExample
		}
	}

	if bestIntent == "" {
		return Prediction{}, scores, nil
	}

	logging.Debugf("Similarity match: intent=%s score=%.4f example=%q", bestIntent, bestScore, bestExample)
	return Prediction{
		Intent:     bestIntent,
		Confidence: bestScore,
		MatchType:  MatchSimilarity,
		Metadata:   map[string]string{"matched_example": bestExample},
	}, scores, nil
}

// examplesFor selects the catalog slice for a language: the language itself
// plus its base, or the default language's examples when the language has
// none.
func (c *Classifier) examplesFor(language string) []example {
	base := config.BaseLanguage(language)
	var out []example
	for _, ex := range c.examples {
		if ex.language == language || ex.language == base {
			out = append(out, ex)
		}
	}
	if len(out) == 0 {
		for _, ex := range c.examples {
			if ex.language == c.defaultLanguage {
				out = append(out, ex)
			}
		}
	}
	return out
}

// elevateFromContext raises the previous turn's intent when the similarity
// signal is weak and the prior intent is an information-providing one that
// supports a continuation. The caller gates on the similarity threshold, so
// a confident independent classification is never downgraded. The
// contributing intent is reported in metadata.
func (c *Classifier) elevateFromContext(best Prediction, scores map[string]float64, prior Context) (Prediction, bool) {
	prev := prior.LastIntent
	if prev == "" || !c.intentSet[prev] {
		return Prediction{}, false
	}
	switch prev {
	case IntentGreeting, IntentFarewell, IntentFallback:
		return Prediction{}, false
	}

	elevated := scores[prev] + c.cfg.ContextBoost
	if elevated <= best.Confidence {
		return Prediction{}, false
	}
	if elevated > 0.99 {
		elevated = 0.99
	}

	logging.Debugf("Context elevation: %s (%.4f) -> %s (%.4f)",
		best.Intent, best.Confidence, prev, elevated)
	return Prediction{
		Intent:     prev,
		Confidence: elevated,
		MatchType:  MatchContext,
		Metadata: map[string]string{
			"context_source_intent": prev,
			"raw_intent":            best.Intent,
			"raw_confidence":        fmt.Sprintf("%.4f", best.Confidence),
		},
	}, true
}
