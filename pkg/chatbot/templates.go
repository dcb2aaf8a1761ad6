package chatbot

import (
	"strings"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
	"github.com/Omarrvv/final-bot-sub003/pkg/knowledge"
)

// Fixed texts for the stateless response types. Deployments override the
// fallback and error texts via config; the rest live here because they never
// vary per installation.
var (
	greetingMessages = map[string]string{
		"en": "Hello! I'm your Egypt travel assistant. Ask me about attractions, restaurants, hotels, events or trip planning.",
		"ar": "أهلا بك! أنا مساعد السفر الخاص بك في مصر. اسألني عن المعالم أو المطاعم أو الفنادق أو الفعاليات أو تخطيط رحلتك.",
	}
	farewellMessages = map[string]string{
		"en": "Goodbye! Enjoy your trip to Egypt.",
		"ar": "مع السلامة! أتمنى لك رحلة رائعة في مصر.",
	}
	defaultFallbackMessages = map[string]string{
		"en": "I'm sorry, I don't have an answer for that right now. Could you rephrase your question?",
		"ar": "عذرا، ليست لدي إجابة على ذلك الآن. هل يمكنك إعادة صياغة سؤالك؟",
	}
	defaultErrorMessages = map[string]string{
		"en": "Something went wrong on my side. Please try again in a moment.",
		"ar": "حدث خطأ من جانبي. من فضلك حاول مرة أخرى بعد قليل.",
	}

	listIntros = map[string]map[string]string{
		"attraction": {
			"en": "Here are some attractions you might like:",
			"ar": "إليك بعض المعالم التي قد تعجبك:",
		},
		"restaurant": {
			"en": "Here are some restaurants you might like:",
			"ar": "إليك بعض المطاعم التي قد تعجبك:",
		},
		"hotel": {
			"en": "Here are some hotels to consider:",
			"ar": "إليك بعض الفنادق المقترحة:",
		},
		"event": {
			"en": "Here are some events happening:",
			"ar": "إليك بعض الفعاليات الجارية:",
		},
		"itinerary": {
			"en": "Here is an itinerary suggestion:",
			"ar": "إليك اقتراح لبرنامج رحلتك:",
		},
	}
)

// localizedMessage picks the configured text for a language, then the
// built-in default, normalizing dialect tags to their base language.
func localizedMessage(configured, builtin map[string]string, language string) string {
	base := config.BaseLanguage(language)
	for _, texts := range []map[string]string{configured, builtin} {
		if texts == nil {
			continue
		}
		if text, ok := texts[language]; ok && text != "" {
			return text
		}
		if text, ok := texts[base]; ok && text != "" {
			return text
		}
	}
	return builtin["en"]
}

// renderRecords turns query results into the response text. A single record
// reads as name plus description; multiple records become an intro line with
// one entry per record.
func renderRecords(queryType string, records []knowledge.Record, language, defaultLang string) string {
	if len(records) == 0 {
		return ""
	}

	if len(records) == 1 {
		return renderSingle(records[0], language, defaultLang)
	}

	var b strings.Builder
	b.WriteString(localizedMessage(nil, listIntros[queryType], language))
	for _, rec := range records {
		b.WriteString("\n- ")
		b.WriteString(rec.Name(language, defaultLang))
		if desc := rec.Description(language, defaultLang); desc != "" {
			b.WriteString(": ")
			b.WriteString(firstSentence(desc))
		}
	}
	return b.String()
}

func renderSingle(rec knowledge.Record, language, defaultLang string) string {
	name := rec.Name(language, defaultLang)
	desc := rec.Description(language, defaultLang)
	switch {
	case desc == "":
		return name
	case rec.Type == knowledge.TypeFAQ || rec.Type == knowledge.TypePracticalInfo:
		// The name is the question or category; the answer stands alone.
		return desc
	default:
		return name + ": " + desc
	}
}

// firstSentence keeps list entries short without truncating mid-word.
func firstSentence(text string) string {
	for i, r := range text {
		if r == '.' || r == '؟' || r == '!' || r == '?' {
			return text[:i+1]
		}
	}
	return text
}
