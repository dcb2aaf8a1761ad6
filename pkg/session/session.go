package session

import (
	"time"

	"github.com/google/uuid"
)

// Roles recorded in session history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one history entry.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the per-conversation state: detected language, dialog position,
// remembered entity values and the running transcript. It is JSON-serialized
// for the redis backend.
type Session struct {
	ID          string            `json:"id"`
	Language    string            `json:"language,omitempty"`
	DialogState string            `json:"dialog_state"`
	Slots       map[string]string `json:"slots"`
	History     []Message         `json:"history"`
	LastIntent  string            `json:"last_intent,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// New creates a fresh session in the given dialog state with a random id.
func New(initialState string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:          uuid.NewString(),
		DialogState: initialState,
		Slots:       make(map[string]string),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AppendMessage adds one history entry, dropping the oldest entries beyond
// maxHistory. maxHistory <= 0 keeps everything.
func (s *Session) AppendMessage(role, content string, maxHistory int) {
	now := time.Now().UTC()
	s.History = append(s.History, Message{Role: role, Content: content, Timestamp: now})
	if maxHistory > 0 && len(s.History) > maxHistory {
		s.History = s.History[len(s.History)-maxHistory:]
	}
	s.UpdatedAt = now
}

// SetSlot remembers an entity value for later turns. Empty values are
// ignored so a weak extraction never erases a remembered one.
func (s *Session) SetSlot(entityType, value string) {
	if value == "" {
		return
	}
	if s.Slots == nil {
		s.Slots = make(map[string]string)
	}
	s.Slots[entityType] = value
}

// clone returns a deep copy so store internals and callers never alias.
func (s *Session) clone() *Session {
	out := *s
	out.Slots = make(map[string]string, len(s.Slots))
	for k, v := range s.Slots {
		out.Slots[k] = v
	}
	out.History = append([]Message(nil), s.History...)
	return &out
}
