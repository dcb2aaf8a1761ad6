package dialog

import "github.com/Omarrvv/final-bot-sub003/pkg/config"

// Action types emitted by the manager.
const (
	ActionRespond        = "respond"
	ActionPromptEntity   = "prompt_entity"
	ActionDisambiguate   = "disambiguate"
	ActionKnowledgeQuery = "knowledge_query"
)

// Response types the manager emits on its own, outside the flow table.
const (
	ResponseFallback       = "fallback"
	ResponsePrompt         = "prompt"
	ResponseDisambiguation = "disambiguation"
)

// Option is one disambiguation choice. Value is the machine-usable record id
// a client submits to pick it; Label is what the user sees.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// QueryParams describes the knowledge lookup behind a knowledge_query action.
type QueryParams struct {
	// QueryType selects the knowledge domain: attraction, restaurant, hotel,
	// event, faq, practical_info or itinerary.
	QueryType string `json:"query_type"`
	// Filters carries entity values keyed by entity type. Spans resolved
	// against the knowledge store also ride under "<type>_id".
	Filters map[string]string `json:"filters,omitempty"`
}

// Action is the manager's verdict for one turn; the orchestrator renders it.
type Action struct {
	Type         string `json:"type"`
	ResponseType string `json:"response_type"`

	// NextState is the dialog state the session moves to once the action is
	// rendered. Empty means the session keeps its current state.
	NextState string `json:"next_state,omitempty"`

	PromptEntity string   `json:"prompt_entity,omitempty"`
	PromptText   string   `json:"prompt_text,omitempty"`
	Options      []Option `json:"options,omitempty"`

	Query        *QueryParams         `json:"query,omitempty"`
	ServiceCalls []config.ServiceCall `json:"service_calls,omitempty"`
	Suggestions  []string             `json:"suggestions,omitempty"`
}
