// Package chatbot is the orchestration controller: the per-message priority
// chain that ties NLU, the dialog state machine, the knowledge store and the
// generative fallback into one ProcessMessage surface.
package chatbot

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
	"github.com/Omarrvv/final-bot-sub003/pkg/dialog"
	"github.com/Omarrvv/final-bot-sub003/pkg/generative"
	"github.com/Omarrvv/final-bot-sub003/pkg/knowledge"
	"github.com/Omarrvv/final-bot-sub003/pkg/nlu"
	"github.com/Omarrvv/final-bot-sub003/pkg/observability/logging"
	"github.com/Omarrvv/final-bot-sub003/pkg/observability/metrics"
	"github.com/Omarrvv/final-bot-sub003/pkg/session"
)

// Engine is the understanding dependency. *nlu.Engine satisfies it; tests
// substitute deterministic stubs.
type Engine interface {
	Process(ctx context.Context, text, language string, prior nlu.Context) nlu.Result
}

// fastPathRule is one keyword shortcut with its terms lowercased once.
type fastPathRule struct {
	topic    string
	keywords []string
}

// Chatbot runs the per-message algorithm. All fields are set at construction
// and never mutated, so one instance serves concurrent requests.
type Chatbot struct {
	cfg       *config.Config
	engine    Engine
	dialogs   *dialog.Manager
	sessions  session.Store
	knowledge knowledge.Store
	generator generative.Client
	hub       ServiceHub
	fastPath  []fastPathRule
}

// Option customizes a Chatbot.
type Option func(*Chatbot)

// WithServiceHub wires the integration hub dialog flows may call into.
func WithServiceHub(hub ServiceHub) Option {
	return func(b *Chatbot) { b.hub = hub }
}

// New wires the controller. A missing required collaborator is a
// configuration error and fails construction; the generative client alone
// may be nil, degrading the last chain layer to the static apology.
func New(cfg *config.Config, engine Engine, dialogs *dialog.Manager, sessions session.Store, store knowledge.Store, generator generative.Client, opts ...Option) (*Chatbot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("chatbot requires a config")
	}
	if engine == nil {
		return nil, fmt.Errorf("chatbot requires an NLU engine")
	}
	if dialogs == nil {
		return nil, fmt.Errorf("chatbot requires a dialog manager")
	}
	if sessions == nil {
		return nil, fmt.Errorf("chatbot requires a session store")
	}
	if store == nil {
		return nil, fmt.Errorf("chatbot requires a knowledge store")
	}

	b := &Chatbot{
		cfg:       cfg,
		engine:    engine,
		dialogs:   dialogs,
		sessions:  sessions,
		knowledge: store,
		generator: generator,
	}
	for _, rule := range cfg.Chatbot.FastPath {
		prepped := fastPathRule{topic: rule.Topic}
		for _, kw := range rule.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				prepped.keywords = append(prepped.keywords, kw)
			}
		}
		if len(prepped.keywords) > 0 {
			b.fastPath = append(b.fastPath, prepped)
		}
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// ProcessMessage runs one turn: resolve the session, walk the priority
// chain until a layer produces a final response, then persist the session
// and log the interaction. It never returns an error for bad input or
// failing collaborators; those degrade inside the chain. A panic anywhere is
// recovered into the localized error response.
//
// The fetch/process/save sequence assumes at most one in-flight turn per
// session id; a caller issuing overlapping requests for the same session
// risks last-writer-wins on session state.
func (b *Chatbot) ProcessMessage(ctx context.Context, text, sessionID, language string) (resp *Response) {
	start := time.Now()
	sess := b.resolveSession(ctx, sessionID)
	if language == "" {
		language = sess.Language
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Errorf("Panic while processing message for session %s: %v\n%s", sess.ID, r, debug.Stack())
			resp = b.errorResponse(sess, language)
			b.finishTurn(ctx, sess, text, resp, start)
		}
	}()

	resp = b.runChain(ctx, text, language, sess)
	b.finishTurn(ctx, sess, text, resp, start)
	return resp
}

// runChain walks the strict priority chain; the first layer to produce a
// final response wins.
func (b *Chatbot) runChain(ctx context.Context, text, language string, sess *session.Session) *Response {
	if b.cfg.Chatbot.GenerativeFirst {
		return b.generativeFirst(ctx, text, language, sess)
	}

	if resp, ok := b.fastPathLookup(ctx, text, language, sess); ok {
		return resp
	}

	result := b.engine.Process(ctx, text, language, nlu.Context{LastIntent: sess.LastIntent})
	action := b.dialogs.NextAction(sess.DialogState, result, sess.Slots)
	resp := b.renderAction(ctx, sess, result, action)

	if action.NextState != "" {
		sess.DialogState = action.NextState
	}
	for entityType := range result.Entities {
		if span, ok := result.FirstEntity(entityType); ok {
			sess.SetSlot(entityType, span.Value)
		}
	}
	return resp
}

// resolveSession fetches the caller's session or starts a fresh one. A
// caller-supplied id is kept on miss so clients hold a stable handle from
// their first message.
func (b *Chatbot) resolveSession(ctx context.Context, id string) *session.Session {
	if id != "" {
		sess, err := b.sessions.Get(ctx, id)
		if err == nil {
			return sess
		}
		if !errors.Is(err, session.ErrNotFound) && !errors.Is(err, session.ErrInvalidID) {
			logging.Warnf("Session fetch failed for %s, starting fresh: %v", id, err)
			metrics.RecordStoreError("session", "get")
		}
	}
	sess := session.New(b.cfg.Dialog.InitialState)
	if id != "" {
		sess.ID = id
	}
	return sess
}

// finishTurn persists the turn on the session and emits the analytics
// event. Persistence is best effort: a save failure is logged, never
// surfaced.
func (b *Chatbot) finishTurn(ctx context.Context, sess *session.Session, text string, resp *Response, start time.Time) {
	if resp.Language != "" {
		sess.Language = resp.Language
	}
	if resp.Intent != "" {
		sess.LastIntent = resp.Intent
	}
	resp.SessionID = sess.ID
	if resp.Language == "" {
		resp.Language = b.cfg.NLU.Language.Default
	}

	sess.AppendMessage(session.RoleUser, text, b.cfg.Session.MaxHistory)
	sess.AppendMessage(session.RoleAssistant, resp.Text, b.cfg.Session.MaxHistory)
	if err := b.sessions.Save(ctx, sess); err != nil {
		logging.Errorf("Failed to save session %s: %v", sess.ID, err)
		metrics.RecordStoreError("session", "save")
	}

	entityCounts := make(map[string]int, len(resp.Entities))
	for entityType, spans := range resp.Entities {
		entityCounts[entityType] = len(spans)
	}
	logging.LogEvent("interaction", map[string]interface{}{
		"session_id":    sess.ID,
		"intent":        resp.Intent,
		"confidence":    resp.Confidence,
		"entities":      entityCounts,
		"language":      resp.Language,
		"response_type": resp.ResponseType,
		"source":        resp.Source,
		"dialog_state":  sess.DialogState,
	})
	metrics.RecordTurn(resp.Source, config.BaseLanguage(resp.Language))
	metrics.RecordTurnDuration(resp.Source, time.Since(start).Seconds())
}

// errorResponse is the uniform user-visible failure: a localized apology
// with the error response type, never a raw error.
func (b *Chatbot) errorResponse(sess *session.Session, language string) *Response {
	return &Response{
		Text:         localizedMessage(b.cfg.Chatbot.ErrorMessages, defaultErrorMessages, language),
		ResponseType: "error",
		SessionID:    sess.ID,
		Language:     language,
		Source:       SourceError,
	}
}
