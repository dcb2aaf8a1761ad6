package config

import (
	"strings"
	"testing"
)

const sampleFlows = `
flows:
  greeting:
    response_type: greeting
    next_states:
      attraction_info: attraction_info
      "*": greeting
    suggestions:
      en: ["Top attractions", "Where to eat"]
      ar: ["أشهر المعالم", "أماكن الأكل"]
  attraction_info:
    requires_entities: [attraction, location]
    prompts:
      attraction:
        en: "Which attraction would you like to hear about?"
        ar: "أي معلم تريد أن تعرف عنه؟"
      location:
        en: "Which city are you interested in?"
    response_type: attraction_details
    query_type: attraction
    next_states:
      farewell: end
      "*": attraction_info
`

func TestParseFlows(t *testing.T) {
	table, err := ParseFlows([]byte(sampleFlows))
	if err != nil {
		t.Fatalf("ParseFlows() error = %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("expected 2 states, got %d", len(table))
	}

	state := table["attraction_info"]
	if got := state.RequiresEntities[0]; got != "attraction" {
		t.Errorf("first required entity = %q, want attraction", got)
	}
	if state.QueryType != "attraction" {
		t.Errorf("QueryType = %q, want attraction", state.QueryType)
	}
}

func TestParseFlowsRejectsUnknownTarget(t *testing.T) {
	bad := strings.Replace(sampleFlows, "attraction_info: attraction_info", "attraction_info: museum_info", 1)
	if _, err := ParseFlows([]byte(bad)); err == nil {
		t.Fatal("expected error for transition to unknown state")
	}
}

func TestParseFlowsRejectsPromptForUnrequiredEntity(t *testing.T) {
	bad := strings.Replace(sampleFlows, "requires_entities: [attraction, location]", "requires_entities: [attraction]", 1)
	if _, err := ParseFlows([]byte(bad)); err == nil {
		t.Fatal("expected error for prompt on entity outside requires_entities")
	}
}

func TestFlowStateNext(t *testing.T) {
	table, err := ParseFlows([]byte(sampleFlows))
	if err != nil {
		t.Fatal(err)
	}

	greeting := table["greeting"]
	if got := greeting.Next("attraction_info", "greeting"); got != "attraction_info" {
		t.Errorf("Next(attraction_info) = %q, want attraction_info", got)
	}
	if got := greeting.Next("restaurant_query", "greeting"); got != "greeting" {
		t.Errorf("Next(restaurant_query) = %q, want wildcard target greeting", got)
	}

	// No wildcard and no match self-loops.
	noWildcard := FlowState{NextStates: map[string]string{"farewell": EndState}}
	if got := noWildcard.Next("greeting", "somewhere"); got != "somewhere" {
		t.Errorf("Next without wildcard = %q, want somewhere", got)
	}
}

func TestPromptForLanguageFallback(t *testing.T) {
	table, err := ParseFlows([]byte(sampleFlows))
	if err != nil {
		t.Fatal(err)
	}
	state := table["attraction_info"]

	if text, ok := state.PromptFor("attraction", "ar", "en"); !ok || !strings.Contains(text, "معلم") {
		t.Errorf("PromptFor(attraction, ar) = %q, %v", text, ok)
	}

	// ar-EG has no prompt entry; base language ar does.
	if text, ok := state.PromptFor("attraction", "ar-EG", "en"); !ok || !strings.Contains(text, "معلم") {
		t.Errorf("PromptFor(attraction, ar-EG) = %q, %v; want base-language fallback", text, ok)
	}

	// location has only the default-language prompt.
	if text, ok := state.PromptFor("location", "ar", "en"); !ok || !strings.Contains(text, "city") {
		t.Errorf("PromptFor(location, ar) = %q, %v; want default-language fallback", text, ok)
	}

	if _, ok := state.PromptFor("budget", "en", "en"); ok {
		t.Error("PromptFor(budget) should report no prompt")
	}
}

func TestSuggestionsForLanguageFallback(t *testing.T) {
	table, err := ParseFlows([]byte(sampleFlows))
	if err != nil {
		t.Fatal(err)
	}
	greeting := table["greeting"]

	ar := greeting.SuggestionsFor("ar-EG", "en")
	if len(ar) != 2 || ar[0] != "أشهر المعالم" {
		t.Errorf("SuggestionsFor(ar-EG) = %v, want Arabic suggestions", ar)
	}

	fr := greeting.SuggestionsFor("fr", "en")
	if len(fr) != 2 || fr[0] != "Top attractions" {
		t.Errorf("SuggestionsFor(fr) = %v, want default-language suggestions", fr)
	}
}

func TestParseIntents(t *testing.T) {
	const data = `
intents:
  - name: greeting
    examples:
      en: ["hello", "hi there"]
      ar: ["مرحبا"]
    patterns:
      en: ['(?i)^(hi|hello|hey)\b']
  - name: attraction_info
    examples:
      en: ["tell me about the pyramids"]
`
	intents, err := ParseIntents([]byte(data))
	if err != nil {
		t.Fatalf("ParseIntents() error = %v", err)
	}
	if len(intents) != 2 {
		t.Fatalf("expected 2 intents, got %d", len(intents))
	}
	if intents[0].Name != "greeting" || intents[1].Name != "attraction_info" {
		t.Errorf("declaration order not preserved: %v, %v", intents[0].Name, intents[1].Name)
	}
	if len(intents[0].Examples["ar"]) != 1 {
		t.Errorf("Arabic examples = %v, want 1", intents[0].Examples["ar"])
	}
}

func TestParseIntentsValidation(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "duplicate intent",
			data: "intents:\n  - name: greeting\n    examples:\n      en: [hi]\n  - name: greeting\n    examples:\n      en: [hello]\n",
		},
		{
			name: "empty name",
			data: "intents:\n  - name: \"\"\n    examples:\n      en: [hi]\n",
		},
		{
			name: "no examples or patterns",
			data: "intents:\n  - name: greeting\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseIntents([]byte(tt.data)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
