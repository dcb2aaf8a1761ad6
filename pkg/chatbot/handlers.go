package chatbot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Omarrvv/final-bot-sub003/pkg/dialog"
	"github.com/Omarrvv/final-bot-sub003/pkg/knowledge"
	"github.com/Omarrvv/final-bot-sub003/pkg/nlu"
	"github.com/Omarrvv/final-bot-sub003/pkg/observability/logging"
	"github.com/Omarrvv/final-bot-sub003/pkg/session"
)

// generativeFirst answers straight from the generative backend while NLU
// runs alongside purely to annotate the response with intent and entities.
func (b *Chatbot) generativeFirst(ctx context.Context, text, language string, sess *session.Session) *Response {
	resultCh := make(chan nlu.Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.Errorf("NLU panic during generative-first annotation: %v", r)
				resultCh <- nlu.FallbackResult(text, language)
			}
		}()
		resultCh <- b.engine.Process(ctx, text, language, nlu.Context{LastIntent: sess.LastIntent})
	}()

	resp := b.generativeFallback(ctx, text, language)
	result := <-resultCh

	resp.Intent = result.Intent
	resp.Confidence = result.Confidence
	resp.Entities = result.Entities
	if result.Language != "" {
		resp.Language = result.Language
	}
	return resp
}

// fastPathLookup routes messages naming a known high-traffic topic straight
// to the attraction handler, trading classification precision for
// guaranteed coverage. An empty lookup result falls through to the full
// chain rather than answering with nothing.
func (b *Chatbot) fastPathLookup(ctx context.Context, text, language string, sess *session.Session) (*Response, bool) {
	lower := strings.ToLower(text)
	for _, rule := range b.fastPath {
		for _, kw := range rule.keywords {
			// Boundary-aware so "pyramidal" never triggers the pyramids rule.
			if !nlu.ContainsPhrase(lower, kw) {
				continue
			}

			qctx, cancel := context.WithTimeout(ctx, b.cfg.Knowledge.Timeout())
			records, err := b.knowledge.SearchAttractions(qctx, rule.topic, nil, language, 1)
			cancel()
			if err != nil {
				logging.Warnf("Fast-path attraction lookup for '%s' failed: %v", rule.topic, err)
				return nil, false
			}
			if len(records) == 0 {
				return nil, false
			}

			logging.Debugf("Fast-path hit: keyword '%s' -> topic '%s'", kw, rule.topic)
			return &Response{
				Text:         renderSingle(records[0], language, b.cfg.NLU.Language.Default),
				ResponseType: "attraction_details",
				Intent:       "attraction_info",
				Confidence:   1.0,
				Entities: map[string][]nlu.Entity{
					nlu.EntityAttraction: {{Value: kw, Confidence: 1.0, ResolvedID: records[0].ID}},
				},
				Language: language,
				Source:   SourceDatabase,
			}, true
		}
	}
	return nil, false
}

// renderAction turns the dialog manager's verdict into response text,
// dispatching knowledge queries and falling through to the generative layer
// when no structured answer exists.
func (b *Chatbot) renderAction(ctx context.Context, sess *session.Session, result nlu.Result, action dialog.Action) *Response {
	resp := &Response{
		ResponseType: action.ResponseType,
		Intent:       result.Intent,
		Confidence:   result.Confidence,
		Entities:     result.Entities,
		Suggestions:  action.Suggestions,
		Language:     result.Language,
		Source:       SourceKnowledgeBase,
	}

	switch action.Type {
	case dialog.ActionPromptEntity, dialog.ActionDisambiguate:
		resp.Text = action.PromptText
		resp.Options = action.Options
		return resp

	case dialog.ActionKnowledgeQuery:
		b.dispatchServiceCalls(ctx, action.ServiceCalls)
		records, err := b.dispatchQuery(ctx, action.Query, result.Text, result.Language)
		if err != nil {
			logging.Warnf("Knowledge query '%s' failed, continuing fallback chain: %v", action.Query.QueryType, err)
		}
		if disamb, ok := b.maybeDisambiguate(action.Query, records, result.Language); ok {
			return disamb
		}
		if text := renderRecords(action.Query.QueryType, records, result.Language, b.cfg.NLU.Language.Default); text != "" {
			resp.Text = text
			resp.Source = SourceDatabase
			return resp
		}
		return b.annotate(b.generativeFallback(ctx, result.Text, result.Language), result, action)

	default: // dialog.ActionRespond
		b.dispatchServiceCalls(ctx, action.ServiceCalls)
		switch action.ResponseType {
		case nlu.IntentGreeting:
			resp.Text = localizedMessage(nil, greetingMessages, result.Language)
			return resp
		case nlu.IntentFarewell:
			resp.Text = localizedMessage(nil, farewellMessages, result.Language)
			return resp
		default:
			// Fallback-typed and template-less responses have no structured
			// answer; the generative layer takes over.
			return b.annotate(b.generativeFallback(ctx, result.Text, result.Language), result, action)
		}
	}
}

// annotate carries the NLU understanding and flow suggestions onto a
// generative (or apology) response.
func (b *Chatbot) annotate(resp *Response, result nlu.Result, action dialog.Action) *Response {
	resp.Intent = result.Intent
	resp.Confidence = result.Confidence
	resp.Entities = result.Entities
	resp.Suggestions = action.Suggestions
	return resp
}

// dispatchQuery routes a structured query to the knowledge store method for
// its domain. An empty result set is not an error; it signals the chain to
// continue.
func (b *Chatbot) dispatchQuery(ctx context.Context, q *dialog.QueryParams, text, language string) ([]knowledge.Record, error) {
	if q == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Knowledge.Timeout())
	defer cancel()

	switch q.QueryType {
	case "attraction":
		return b.knowledge.SearchAttractions(ctx, queryTerm(q, "attraction", text), q.Filters, language, 3)
	case "restaurant":
		return b.knowledge.SearchRestaurants(ctx, queryTerm(q, "cuisine", text), q.Filters, language, 3)
	case "hotel":
		return b.knowledge.SearchHotels(ctx, queryTerm(q, "location", text), q.Filters, language, 3)
	case "event":
		return b.knowledge.SearchEvents(ctx, queryTerm(q, "location", text), q.Filters, language, 3)
	case "faq":
		return b.knowledge.SearchFAQs(ctx, text, q.Filters, language, 1)
	case "practical_info":
		rec, err := b.knowledge.GetPracticalInfo(ctx, q.Filters["info_category"], language)
		if errors.Is(err, knowledge.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []knowledge.Record{rec}, nil
	case "itinerary":
		days := 3
		if raw := q.Filters["days"]; raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				days = parsed
			}
		}
		return b.knowledge.ListItineraries(ctx, days, language)
	default:
		logging.Warnf("Unknown knowledge query type '%s'", q.QueryType)
		return nil, nil
	}
}

// queryTerm picks the search term: the entity value for the domain's primary
// filter, else the raw utterance.
func queryTerm(q *dialog.QueryParams, primary, text string) string {
	if v := q.Filters[primary]; v != "" {
		return v
	}
	return text
}

// maybeDisambiguate emits a numbered choice when an attraction query by name
// returns several candidates and none matches the asked name outright.
func (b *Chatbot) maybeDisambiguate(q *dialog.QueryParams, records []knowledge.Record, language string) (*Response, bool) {
	if q == nil || q.QueryType != "attraction" || len(records) < 2 {
		return nil, false
	}
	asked := strings.ToLower(q.Filters["attraction"])
	if asked == "" || q.Filters["attraction_id"] != "" {
		return nil, false
	}
	for _, rec := range records {
		for _, name := range rec.Names {
			if strings.ToLower(name) == asked {
				return nil, false
			}
		}
	}

	options := make([]dialog.Option, 0, len(records))
	for _, rec := range records {
		options = append(options, dialog.Option{
			Value: rec.ID,
			Label: rec.Name(language, b.cfg.NLU.Language.Default),
		})
	}
	action := b.dialogs.Disambiguate(nlu.EntityAttraction, language, options)
	return &Response{
		Text:         action.PromptText,
		ResponseType: action.ResponseType,
		Options:      action.Options,
		Language:     language,
		Source:       SourceKnowledgeBase,
	}, true
}

// generativeFallback is the last substantive layer: ask the generative
// backend with a brevity-constrained prompt, strip markdown from what comes
// back, and degrade to the static localized apology when the backend is
// absent or failing.
func (b *Chatbot) generativeFallback(ctx context.Context, text, language string) *Response {
	if language == "" {
		language = b.cfg.NLU.Language.Default
	}

	if b.generator != nil {
		prompt := buildFallbackPrompt(text, language, b.cfg.Generative.WordLimit)
		out, err := b.generator.Generate(ctx, prompt, b.cfg.Generative.MaxTokens)
		if err == nil && out != "" {
			return &Response{
				Text:         StripMarkdown(out),
				ResponseType: "generative",
				Language:     language,
				Source:       SourceLLM,
			}
		}
		logging.Warnf("Generative fallback failed, using static apology: %v", err)
	}

	return &Response{
		Text:         localizedMessage(b.cfg.Chatbot.FallbackMessages, defaultFallbackMessages, language),
		ResponseType: "fallback",
		Language:     language,
		Source:       SourceDefaultFallback,
	}
}
