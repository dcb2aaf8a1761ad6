package chatbot

import (
	"fmt"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
)

// languageNames spells out the answer language for the generative prompt.
var languageNames = map[string]string{
	"en":    "English",
	"ar":    "Arabic",
	"ar-EG": "Egyptian Arabic",
}

// buildFallbackPrompt frames the user's question for the generative backend:
// a tourism-assistant persona, an explicit word ceiling and a plain-paragraph
// formatting instruction, answered in the detected language.
func buildFallbackPrompt(question, language string, wordLimit int) string {
	name, ok := languageNames[language]
	if !ok {
		name = languageNames[config.BaseLanguage(language)]
	}
	if name == "" {
		name = "English"
	}
	return fmt.Sprintf(
		"You are a friendly and knowledgeable Egypt tourism assistant. "+
			"Answer the visitor's question below in %s. "+
			"Keep the answer under %d words, written as short plain paragraphs "+
			"with no markdown, headings or bullet lists.\n\nQuestion: %s",
		name, wordLimit, question)
}
