package nlu

import (
	"sort"
	"strings"
	"unicode"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"

	"github.com/Omarrvv/final-bot-sub003/pkg/observability/logging"
)

// LanguageDetector classifies text into a supported language code by
// counting script-specific code points, then refines the base code into a
// regional variant when enough dialect lexical markers appear. Detection
// never fails: with no usable signal it returns the configured default with
// zero confidence.
type LanguageDetector struct {
	cfg config.LanguageConfig

	// dialect tags sorted for deterministic marker evaluation
	dialects []string
}

// NewLanguageDetector builds a detector from the language section of the
// config.
func NewLanguageDetector(cfg config.LanguageConfig) *LanguageDetector {
	dialects := make([]string, 0, len(cfg.DialectMarkers))
	for tag := range cfg.DialectMarkers {
		dialects = append(dialects, tag)
	}
	sort.Strings(dialects)
	return &LanguageDetector{cfg: cfg, dialects: dialects}
}

// Detect returns a language code and a confidence in [0, 1].
//
// Arabic wins as soon as the Arabic share of letters reaches the configured
// ratio, so code-mixed input with an embedded Latin word still classifies as
// Arabic. Text with no letters, or letters from an unsupported script,
// yields the default language with zero confidence.
func (d *LanguageDetector) Detect(text string) (string, float64) {
	var arabic, latin, letters int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		switch {
		case unicode.Is(unicode.Arabic, r):
			arabic++
		case unicode.Is(unicode.Latin, r):
			latin++
		}
	}

	if letters == 0 {
		return d.cfg.Default, 0
	}

	arabicRatio := float64(arabic) / float64(letters)
	if arabicRatio >= d.cfg.ArabicScriptRatio && d.cfg.IsSupported("ar") {
		confidence := 0.5 + 0.5*arabicRatio
		if dialect, hits := d.matchDialect(text, "ar"); dialect != "" {
			logging.Debugf("Dialect %s detected via %d lexical markers", dialect, hits)
			confidence += 0.05
			if confidence > 0.99 {
				confidence = 0.99
			}
			return dialect, confidence
		}
		return "ar", confidence
	}

	if latin > 0 && d.cfg.IsSupported("en") {
		latinRatio := float64(latin) / float64(letters)
		return "en", 0.5 + 0.5*latinRatio
	}

	return d.cfg.Default, 0
}

// matchDialect returns the best-supported dialect of base whose lexical
// markers reach the configured minimum count. Ties resolve to the
// lexicographically first tag.
func (d *LanguageDetector) matchDialect(text, base string) (string, int) {
	words := make(map[string]bool)
	for _, w := range extractLowerWords(text) {
		words[w] = true
	}

	bestTag := ""
	bestHits := 0
	for _, tag := range d.dialects {
		if config.BaseLanguage(tag) != base || !d.cfg.IsSupported(tag) {
			continue
		}
		hits := 0
		for _, marker := range d.cfg.DialectMarkers[tag] {
			if strings.ContainsRune(marker, ' ') {
				if strings.Contains(text, marker) {
					hits++
				}
			} else if words[strings.ToLower(marker)] {
				hits++
			}
		}
		if hits >= d.cfg.MinDialectMarkers && hits > bestHits {
			bestTag = tag
			bestHits = hits
		}
	}
	return bestTag, bestHits
}
