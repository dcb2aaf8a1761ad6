package chatbot

import (
	"github.com/Omarrvv/final-bot-sub003/pkg/dialog"
	"github.com/Omarrvv/final-bot-sub003/pkg/nlu"
)

// Response sources, identifying which layer of the fallback chain produced
// the answer.
const (
	// SourceDatabase marks answers built from knowledge-store query results.
	SourceDatabase = "database"
	// SourceKnowledgeBase marks fixed template answers and dialog prompts.
	SourceKnowledgeBase = "knowledge_base"
	// SourceLLM marks text produced by the generative backend.
	SourceLLM = "anthropic_llm"
	// SourceDefaultFallback marks the static apology used when the
	// generative backend is absent or failing.
	SourceDefaultFallback = "default_fallback"
	// SourceError marks the uniform error response emitted when processing
	// fails unexpectedly.
	SourceError = "error"
)

// Response is the outcome of one processed message, the full contract the
// transport layer serializes back to the caller.
type Response struct {
	Text         string                  `json:"text"`
	ResponseType string                  `json:"response_type"`
	Intent       string                  `json:"intent,omitempty"`
	Confidence   float64                 `json:"confidence,omitempty"`
	Entities     map[string][]nlu.Entity `json:"entities,omitempty"`
	Suggestions  []string                `json:"suggestions,omitempty"`
	Options      []dialog.Option         `json:"options,omitempty"`
	SessionID    string                  `json:"session_id"`
	Language     string                  `json:"language"`
	Source       string                  `json:"source"`
}
