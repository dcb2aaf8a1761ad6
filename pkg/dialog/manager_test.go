package dialog

import (
	"strings"
	"testing"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
	"github.com/Omarrvv/final-bot-sub003/pkg/nlu"
)

func testFlows() config.FlowTable {
	return config.FlowTable{
		"greeting": {
			ResponseType: "greeting",
			NextStates:   map[string]string{"attraction_info": "attraction_info", "*": "greeting"},
			Suggestions: map[string][]string{
				"en": {"Pyramids of Giza", "Egyptian Museum"},
				"ar": {"أهرامات الجيزة"},
			},
		},
		"attraction_info": {
			RequiresEntities: []string{"attraction", "location"},
			Prompts: map[string]map[string]string{
				"attraction": {
					"en": "Which attraction would you like to know about?",
					"ar": "أي معلم تريد أن تعرف عنه؟",
				},
			},
			ResponseType: "attraction_details",
			QueryType:    "attraction",
			NextStates:   map[string]string{"restaurant_query": "restaurant_query", "farewell": "end"},
		},
		"restaurant_query": {
			RequiresEntities: []string{"location"},
			Prompts: map[string]map[string]string{
				"location": {"en": "Which area will you be in?"},
			},
			ResponseType: "restaurant_list",
			QueryType:    "restaurant",
		},
	}
}

func testManagerConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Dialog.InitialState = "greeting"
	cfg.Dialog.DefaultState = "greeting"
	cfg.NLU.Language.Default = "en"
	cfg.NLU.Intent.GreetingConfidence = 0.7
	return cfg
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(testFlows(), testManagerConfig())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

func result(intent string, confidence float64, language string) nlu.Result {
	return nlu.Result{
		Intent:     intent,
		Confidence: confidence,
		Language:   language,
		Entities:   map[string][]nlu.Entity{},
	}
}

func TestGreetingShortCircuit(t *testing.T) {
	m := newTestManager(t)

	action := m.NextAction("attraction_info", result(nlu.IntentGreeting, 0.95, "en"), nil)

	if action.Type != ActionRespond || action.ResponseType != "greeting" {
		t.Errorf("got (%q, %q), want (respond, greeting)", action.Type, action.ResponseType)
	}
	if action.NextState != "greeting" {
		t.Errorf("NextState = %q, want greeting", action.NextState)
	}
	if len(action.Suggestions) == 0 {
		t.Error("greeting action lost the flow's suggestions")
	}
}

func TestFarewellShortCircuitEndsConversation(t *testing.T) {
	m := newTestManager(t)

	action := m.NextAction("attraction_info", result(nlu.IntentFarewell, 0.9, "en"), nil)

	if action.ResponseType != "farewell" {
		t.Errorf("ResponseType = %q, want farewell", action.ResponseType)
	}
	if action.NextState != config.EndState {
		t.Errorf("NextState = %q, want end", action.NextState)
	}
}

func TestLowConfidenceGreetingTakesStateMachine(t *testing.T) {
	m := newTestManager(t)

	// Below the bar the greeting is just another intent; the current state's
	// entity requirements apply.
	action := m.NextAction("attraction_info", result(nlu.IntentGreeting, 0.4, "en"), nil)

	if action.Type != ActionPromptEntity {
		t.Errorf("Type = %q, want prompt_entity", action.Type)
	}
}

func TestMissingFlowEmitsFallback(t *testing.T) {
	flows := config.FlowTable{
		"attraction_info": {ResponseType: "attraction_details"},
	}
	cfg := testManagerConfig() // default state "greeting" is not in the table
	m, err := NewManager(flows, cfg)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	action := m.NextAction("bogus_state", result("attraction_info", 0.6, "en"), nil)

	if action.Type != ActionRespond || action.ResponseType != ResponseFallback {
		t.Errorf("got (%q, %q), want (respond, fallback)", action.Type, action.ResponseType)
	}
}

func TestUnknownStateFallsBackToDefault(t *testing.T) {
	m := newTestManager(t)

	action := m.NextAction("no_such_state", result("attraction_info", 0.6, "en"), nil)

	// Default state is greeting, which requires nothing and transitions on
	// the attraction_info intent.
	if action.Type != ActionRespond {
		t.Fatalf("Type = %q, want respond", action.Type)
	}
	if action.NextState != "attraction_info" {
		t.Errorf("NextState = %q, want attraction_info", action.NextState)
	}
}

func TestEndStateStartsOver(t *testing.T) {
	m := newTestManager(t)

	action := m.NextAction(config.EndState, result("attraction_info", 0.6, "en"), nil)

	if action.NextState != "attraction_info" {
		t.Errorf("NextState = %q, want transition out of the initial state", action.NextState)
	}
}

func TestPromptsFirstMissingEntityDeterministically(t *testing.T) {
	m := newTestManager(t)

	for i := 0; i < 5; i++ {
		action := m.NextAction("attraction_info", result("attraction_info", 0.6, "en"), nil)
		if action.Type != ActionPromptEntity {
			t.Fatalf("Type = %q, want prompt_entity", action.Type)
		}
		if action.PromptEntity != "attraction" {
			t.Fatalf("run %d: PromptEntity = %q, want first-declared attraction", i, action.PromptEntity)
		}
		if action.PromptText != "Which attraction would you like to know about?" {
			t.Fatalf("PromptText = %q", action.PromptText)
		}
		if action.NextState != "attraction_info" {
			t.Fatalf("NextState = %q, prompting must not transition", action.NextState)
		}
	}
}

func TestPromptSkipsEntitiesSatisfiedBySlots(t *testing.T) {
	m := newTestManager(t)
	slots := map[string]string{"attraction": "Pyramids of Giza"}

	action := m.NextAction("attraction_info", result("attraction_info", 0.6, "en"), slots)

	if action.PromptEntity != "location" {
		t.Fatalf("PromptEntity = %q, want location", action.PromptEntity)
	}
	// location has no configured prompt; the generic one names the type.
	if !strings.Contains(action.PromptText, "location") {
		t.Errorf("generic prompt %q does not name the entity type", action.PromptText)
	}
}

func TestPromptLanguageFallback(t *testing.T) {
	m := newTestManager(t)

	tests := []struct {
		language string
		want     string
	}{
		{"ar", "أي معلم تريد أن تعرف عنه؟"},
		{"ar-EG", "أي معلم تريد أن تعرف عنه؟"}, // base-language fallback
		{"fr", "Which attraction would you like to know about?"}, // default-language fallback
	}
	for _, tt := range tests {
		action := m.NextAction("attraction_info", result("attraction_info", 0.6, tt.language), nil)
		if action.PromptText != tt.want {
			t.Errorf("language %s: PromptText = %q, want %q", tt.language, action.PromptText, tt.want)
		}
	}
}

func TestKnowledgeQueryAction(t *testing.T) {
	m := newTestManager(t)

	res := result("attraction_info", 0.8, "en")
	res.Entities = map[string][]nlu.Entity{
		"attraction": {{Value: "Pyramids of Giza", Confidence: 0.95, ResolvedID: "attr_giza"}},
		"location":   {{Value: "Giza", Confidence: 0.85}},
	}

	action := m.NextAction("attraction_info", res, nil)

	if action.Type != ActionKnowledgeQuery {
		t.Fatalf("Type = %q, want knowledge_query", action.Type)
	}
	if action.ResponseType != "attraction_details" {
		t.Errorf("ResponseType = %q", action.ResponseType)
	}
	if action.Query == nil || action.Query.QueryType != "attraction" {
		t.Fatalf("Query = %+v, want attraction query", action.Query)
	}
	want := map[string]string{
		"attraction":    "Pyramids of Giza",
		"attraction_id": "attr_giza",
		"location":      "Giza",
	}
	for k, v := range want {
		if action.Query.Filters[k] != v {
			t.Errorf("Filters[%s] = %q, want %q", k, action.Query.Filters[k], v)
		}
	}
	// No transition declared for attraction_info and no wildcard: self-loop.
	if action.NextState != "attraction_info" {
		t.Errorf("NextState = %q, want self-loop", action.NextState)
	}
}

func TestKnowledgeQueryMergesSlotMemory(t *testing.T) {
	m := newTestManager(t)

	res := result("attraction_info", 0.8, "en")
	res.Entities = map[string][]nlu.Entity{
		"attraction": {{Value: "Egyptian Museum", Confidence: 0.85}},
	}
	slots := map[string]string{"location": "Cairo"}

	action := m.NextAction("attraction_info", res, slots)

	if action.Type != ActionKnowledgeQuery {
		t.Fatalf("Type = %q, want knowledge_query", action.Type)
	}
	if action.Query.Filters["location"] != "Cairo" {
		t.Errorf("Filters[location] = %q, want slot value Cairo", action.Query.Filters["location"])
	}
}

func TestRespondWildcardTransition(t *testing.T) {
	m := newTestManager(t)

	action := m.NextAction("greeting", result("hotel_query", 0.6, "en"), nil)

	if action.Type != ActionRespond {
		t.Fatalf("Type = %q, want respond", action.Type)
	}
	if action.NextState != "greeting" {
		t.Errorf("NextState = %q, want wildcard target greeting", action.NextState)
	}
}

func TestDisambiguate(t *testing.T) {
	m := newTestManager(t)

	options := []Option{
		{Value: "attr_giza", Label: "Pyramids of Giza"},
		{Value: "attr_djoser", Label: "Pyramid of Djoser"},
	}
	action := m.Disambiguate("attraction", "en", options)

	if action.Type != ActionDisambiguate || action.ResponseType != ResponseDisambiguation {
		t.Errorf("got (%q, %q), want (disambiguate, disambiguation)", action.Type, action.ResponseType)
	}
	if action.PromptEntity != "attraction" {
		t.Errorf("PromptEntity = %q", action.PromptEntity)
	}
	want := "Which one do you mean?\n1. Pyramids of Giza\n2. Pyramid of Djoser"
	if action.PromptText != want {
		t.Errorf("PromptText = %q, want %q", action.PromptText, want)
	}
	if len(action.Options) != 2 || action.Options[0].Value != "attr_giza" {
		t.Errorf("Options = %+v, order not preserved", action.Options)
	}

	arabic := m.Disambiguate("attraction", "ar-EG", options)
	if !strings.HasPrefix(arabic.PromptText, "أي واحد تقصد؟") {
		t.Errorf("arabic PromptText = %q", arabic.PromptText)
	}
}

func TestNewManagerRequiresFlows(t *testing.T) {
	if _, err := NewManager(nil, testManagerConfig()); err == nil {
		t.Error("expected error for empty flow table")
	}
}
