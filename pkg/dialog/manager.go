// Package dialog decides the next conversational action from an
// understanding result and the session's dialog state. The state machine is
// entirely table-driven: states and transitions come from the flow config,
// the manager only interprets them.
package dialog

import (
	"fmt"
	"strings"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
	"github.com/Omarrvv/final-bot-sub003/pkg/nlu"
	"github.com/Omarrvv/final-bot-sub003/pkg/observability/logging"
)

// genericPrompts is the last-resort slot prompt per base language, used when
// a flow requires an entity but configures no prompt for it.
var genericPrompts = map[string]string{
	"en": "Could you tell me the %s you have in mind?",
	"ar": "ممكن تحدد %s اللي تقصده؟",
}

// disambiguatePrompts headline the numbered option list.
var disambiguatePrompts = map[string]string{
	"en": "Which one do you mean?",
	"ar": "أي واحد تقصد؟",
}

// Manager is the dialog state machine.
type Manager struct {
	flows              config.FlowTable
	initialState       string
	defaultState       string
	defaultLanguage    string
	greetingConfidence float64
}

// NewManager builds the state machine over a loaded flow table.
func NewManager(flows config.FlowTable, cfg *config.Config) (*Manager, error) {
	if len(flows) == 0 {
		return nil, fmt.Errorf("dialog manager requires a flow table")
	}
	return &Manager{
		flows:              flows,
		initialState:       cfg.Dialog.InitialState,
		defaultState:       cfg.Dialog.DefaultState,
		defaultLanguage:    cfg.NLU.Language.Default,
		greetingConfidence: cfg.NLU.Intent.GreetingConfidence,
	}, nil
}

// NextAction decides the turn's action. state is the session's dialog state
// before the turn, slots its remembered entity values. High-confidence
// greetings and farewells short-circuit the table; otherwise the current
// flow's entity requirements and transitions decide.
func (m *Manager) NextAction(state string, result nlu.Result, slots map[string]string) Action {
	if result.Confidence > m.greetingConfidence {
		switch result.Intent {
		case nlu.IntentGreeting:
			return m.shortCircuit(nlu.IntentGreeting, m.initialState, result.Language)
		case nlu.IntentFarewell:
			return m.shortCircuit(nlu.IntentFarewell, config.EndState, result.Language)
		}
	}

	current := m.resolveState(state)
	flow, ok := m.flows[current]
	if !ok {
		logging.Warnf("Dialog state '%s' has no flow definition, emitting fallback action", current)
		return Action{Type: ActionRespond, ResponseType: ResponseFallback, NextState: m.defaultState}
	}

	if entity, missing := m.firstMissingEntity(flow, result, slots); missing {
		return Action{
			Type:         ActionPromptEntity,
			ResponseType: ResponsePrompt,
			NextState:    current,
			PromptEntity: entity,
			PromptText:   m.promptFor(flow, entity, result.Language),
		}
	}

	next := flow.Next(result.Intent, current)
	action := Action{
		Type:         ActionRespond,
		ResponseType: flow.ResponseType,
		NextState:    next,
		Suggestions:  flow.SuggestionsFor(result.Language, m.defaultLanguage),
		ServiceCalls: flow.ServiceCalls,
	}
	if flow.QueryType != "" {
		action.Type = ActionKnowledgeQuery
		action.Query = &QueryParams{
			QueryType: flow.QueryType,
			Filters:   m.filters(flow, result, slots),
		}
	}
	logging.Debugf("Dialog transition: %s -> %s (intent=%s action=%s)", current, next, result.Intent, action.Type)
	return action
}

// Disambiguate builds the action for choosing between knowledge candidates
// that tie for one span. Options keep their given order; the prompt numbers
// them starting at 1.
func (m *Manager) Disambiguate(entityType, language string, options []Option) Action {
	var b strings.Builder
	b.WriteString(localized(disambiguatePrompts, language))
	for i, opt := range options {
		fmt.Fprintf(&b, "\n%d. %s", i+1, opt.Label)
	}
	return Action{
		Type:         ActionDisambiguate,
		ResponseType: ResponseDisambiguation,
		PromptEntity: entityType,
		PromptText:   b.String(),
		Options:      options,
	}
}

// resolveState maps absent, terminal and unknown states onto configured
// anchors. A session that reached end starts a fresh conversation.
func (m *Manager) resolveState(state string) string {
	if state == "" || state == config.EndState {
		return m.initialState
	}
	if _, ok := m.flows[state]; !ok {
		return m.defaultState
	}
	return state
}

func (m *Manager) shortCircuit(intent, next, language string) Action {
	action := Action{Type: ActionRespond, ResponseType: intent, NextState: next}
	if flow, ok := m.flows[intent]; ok {
		action.Suggestions = flow.SuggestionsFor(language, m.defaultLanguage)
	}
	return action
}

// firstMissingEntity walks requires_entities in declaration order and
// returns the first type satisfied by neither the turn's entities nor the
// session slots.
func (m *Manager) firstMissingEntity(flow config.FlowState, result nlu.Result, slots map[string]string) (string, bool) {
	for _, entity := range flow.RequiresEntities {
		if result.HasEntity(entity) || slots[entity] != "" {
			continue
		}
		return entity, true
	}
	return "", false
}

func (m *Manager) promptFor(flow config.FlowState, entity, language string) string {
	if text, ok := flow.PromptFor(entity, language, m.defaultLanguage); ok {
		return text
	}
	return fmt.Sprintf(localized(genericPrompts, language), entity)
}

// filters gathers lookup values for a knowledge query: the best span of
// every extracted type, resolved record ids under "<type>_id", and slot
// memory for required entities the turn did not mention.
func (m *Manager) filters(flow config.FlowState, result nlu.Result, slots map[string]string) map[string]string {
	filters := make(map[string]string)
	for entityType := range result.Entities {
		span, ok := result.FirstEntity(entityType)
		if !ok {
			continue
		}
		filters[entityType] = span.Value
		if span.ResolvedID != "" {
			filters[entityType+"_id"] = span.ResolvedID
		}
	}
	for _, entityType := range flow.RequiresEntities {
		if filters[entityType] == "" && slots[entityType] != "" {
			filters[entityType] = slots[entityType]
		}
	}
	return filters
}

// localized picks the base-language entry from a built-in text map, falling
// back to English.
func localized(texts map[string]string, language string) string {
	if text, ok := texts[config.BaseLanguage(language)]; ok {
		return text
	}
	return texts["en"]
}
