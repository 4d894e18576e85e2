// Package session holds per-conversation state. Sessions are created lazily
// on first reference, live only in process memory, and disappear on Clear or
// process exit.
package session

import (
	"sync"
	"time"

	"pdfchat/internal/ai"
	"pdfchat/internal/model"
)

// Session is one conversation thread: an append-only message list, a
// creation timestamp, a turn counter, and the model client bound at creation.
// Each session carries its own lock so operations on distinct sessions never
// contend.
type Session struct {
	ID        string
	CreatedAt time.Time
	Client    ai.ModelClient

	mu       sync.Mutex
	messages []model.Message
	turns    int
}

// History returns a copy of the ordered message list.
func (s *Session) History() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// AppendTurn records the user message and the assistant answer, in that
// order, and bumps the turn counter. The lock is held only for the append,
// never across a model call.
func (s *Session) AppendTurn(userContent, assistantContent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages,
		model.Message{Role: model.RoleUser, Content: userContent},
		model.Message{Role: model.RoleAssistant, Content: assistantContent},
	)
	s.turns++
}

func (s *Session) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns
}

// Store maps session ids to live sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	factory  ai.ClientFactory
	now      func() time.Time
}

func NewStore(factory ai.ClientFactory) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		factory:  factory,
		now:      time.Now,
	}
}

// GetOrCreate returns the session for id, creating it with a freshly bound
// model client on first reference. Existing sessions are returned unchanged.
func (st *Store) GetOrCreate(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		return s, nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s, nil
	}

	client, err := st.factory()
	if err != nil {
		return nil, err
	}
	s = &Session{
		ID:        id,
		CreatedAt: st.now(),
		Client:    client,
	}
	st.sessions[id] = s
	return s, nil
}

// Get returns the session for id, or nil when absent.
func (st *Store) Get(id string) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[id]
}

// History returns the ordered messages for id, empty for an unknown session.
func (st *Store) History(id string) []model.Message {
	s := st.Get(id)
	if s == nil {
		return []model.Message{}
	}
	return s.History()
}

// Clear removes the session entirely, dropping its bound model client.
func (st *Store) Clear(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
