package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// EndState is the terminal dialog state. It needs no flow definition.
const EndState = "end"

// WildcardIntent is the default transition key inside next_states.
const WildcardIntent = "*"

// FlowState defines one state of the dialog table: the entities it needs
// before it can answer, the localized prompts used to collect them, the
// response type it emits, and its outgoing transitions.
type FlowState struct {
	// RequiresEntities lists required entity types. Order matters: the
	// first missing entity is the one prompted for.
	RequiresEntities []string `json:"requires_entities,omitempty" yaml:"requires_entities,omitempty"`

	// Prompts maps entity type -> language -> prompt text.
	Prompts map[string]map[string]string `json:"prompts,omitempty" yaml:"prompts,omitempty"`

	// ResponseType names the template the orchestrator fills when this
	// state responds.
	ResponseType string `json:"response_type" yaml:"response_type"`

	// QueryType, when set, routes a knowledge-store query of that domain
	// (attraction, restaurant, hotel, event, faq, practical_info,
	// itinerary) before responding.
	QueryType string `json:"query_type,omitempty" yaml:"query_type,omitempty"`

	// NextStates maps intent -> next state. WildcardIntent supplies the
	// default; absent both, the state transitions to itself.
	NextStates map[string]string `json:"next_states,omitempty" yaml:"next_states,omitempty"`

	// Suggestions maps language -> follow-up chips offered with the
	// response.
	Suggestions map[string][]string `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`

	// ServiceCalls declares side calls the orchestrator dispatches when
	// this state responds.
	ServiceCalls []ServiceCall `json:"service_calls,omitempty" yaml:"service_calls,omitempty"`
}

// ServiceCall names an idempotent integration call attached to a flow state.
type ServiceCall struct {
	Service string            `json:"service" yaml:"service"`
	Method  string            `json:"method" yaml:"method"`
	Params  map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// FlowTable is the dialog state machine definition, keyed by state name.
type FlowTable map[string]FlowState

type flowsFile struct {
	Flows map[string]FlowState `json:"flows" yaml:"flows"`
}

// LoadFlows loads the dialog flow table from a YAML file.
func LoadFlows(path string) (FlowTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flows file: %w", err)
	}
	return ParseFlows(data)
}

// ParseFlows parses raw flow table YAML.
func ParseFlows(data []byte) (FlowTable, error) {
	var file flowsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse flows file: %w", err)
	}
	if len(file.Flows) == 0 {
		return nil, fmt.Errorf("flows file defines no states")
	}

	table := FlowTable(file.Flows)
	for name, state := range table {
		for intent, target := range state.NextStates {
			if target == EndState {
				continue
			}
			if _, ok := table[target]; !ok {
				return nil, fmt.Errorf("state '%s': transition for '%s' targets unknown state '%s'", name, intent, target)
			}
		}
		required := make(map[string]bool, len(state.RequiresEntities))
		for _, e := range state.RequiresEntities {
			required[e] = true
		}
		for entity := range state.Prompts {
			if !required[entity] {
				return nil, fmt.Errorf("state '%s': prompt defined for entity '%s' not in requires_entities", name, entity)
			}
		}
	}
	return table, nil
}

// Next resolves the transition for intent from this state, falling back to
// the wildcard entry, then to current (self-loop).
func (s FlowState) Next(intent, current string) string {
	if target, ok := s.NextStates[intent]; ok {
		return target
	}
	if target, ok := s.NextStates[WildcardIntent]; ok {
		return target
	}
	return current
}

// PromptFor returns the localized prompt for entity, falling back from the
// requested language to its base language, then to defaultLang. The boolean
// reports whether any prompt was found.
func (s FlowState) PromptFor(entity, lang, defaultLang string) (string, bool) {
	prompts, ok := s.Prompts[entity]
	if !ok {
		return "", false
	}
	for _, candidate := range []string{lang, BaseLanguage(lang), defaultLang} {
		if text, ok := prompts[candidate]; ok && text != "" {
			return text, true
		}
	}
	return "", false
}

// SuggestionsFor returns the localized follow-up suggestions, with the same
// language fallback as PromptFor. Missing suggestions are not an error.
func (s FlowState) SuggestionsFor(lang, defaultLang string) []string {
	for _, candidate := range []string{lang, BaseLanguage(lang), defaultLang} {
		if items, ok := s.Suggestions[candidate]; ok && len(items) > 0 {
			return items
		}
	}
	return nil
}
