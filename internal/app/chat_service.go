package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"pdfchat/internal/ai"
	"pdfchat/internal/index"
	"pdfchat/internal/model"
	"pdfchat/internal/prompt"
	"pdfchat/internal/session"
)

const emptyAnswerFallback = "The model returned an empty response."

// ChatService composes retrieval, prompt assembly, the model gateway, and
// the session update for both delivery modes.
type ChatService struct {
	sessions  *session.Store
	registry  *index.Registry
	retriever *index.Retriever
	assembler *prompt.Assembler
	factory   ai.ClientFactory
	chatTopK  int
	askTopK   int
	logger    *zap.Logger
}

func NewChatService(
	sessions *session.Store,
	registry *index.Registry,
	retriever *index.Retriever,
	assembler *prompt.Assembler,
	factory ai.ClientFactory,
	chatTopK, askTopK int,
	logger *zap.Logger,
) *ChatService {
	if chatTopK <= 0 {
		chatTopK = 3
	}
	if askTopK <= 0 {
		askTopK = 5
	}
	return &ChatService{
		sessions:  sessions,
		registry:  registry,
		retriever: retriever,
		assembler: assembler,
		factory:   factory,
		chatTopK:  chatTopK,
		askTopK:   askTopK,
		logger:    logger,
	}
}

type ChatInput struct {
	SessionID  string
	Message    string
	DocumentID string // empty = chat without document grounding
}

type ChatResult struct {
	Content   string   `json:"content"`
	Sources   []string `json:"sources,omitempty"`
	SessionID string   `json:"session_id"`
}

type AskResult struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"source_chunks"`
}

// HistoryEntry is one message as exposed to callers. The timestamp is the
// session creation time; messages carry no clock of their own.
type HistoryEntry struct {
	Role      model.Role `json:"role"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"timestamp"`
}

// Chat runs the batch pipeline: validate document, get or create the
// session, retrieve context, assemble the prompt, invoke the model, then
// append the turn. Any failure before the append leaves the session as it
// was.
func (s *ChatService) Chat(ctx context.Context, input ChatInput) (*ChatResult, error) {
	sess, promptText, sources, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}

	answer, err := sess.Client.Invoke(ctx, promptText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	answer = normalizeAnswer(answer)

	sess.AppendTurn(input.Message, answer)
	s.logger.Debug("chat turn recorded",
		zap.String("session_id", input.SessionID),
		zap.Int("sources", len(sources)),
	)

	return &ChatResult{
		Content:   answer,
		Sources:   sources,
		SessionID: input.SessionID,
	}, nil
}

// ChatStream runs the streaming pipeline. Every fragment is forwarded to
// onDelta as it arrives while being accumulated; the session is updated only
// after the fragment sequence completes. A mid-stream failure (including
// caller cancellation surfacing as an onDelta or context error) commits
// nothing.
func (s *ChatService) ChatStream(ctx context.Context, input ChatInput, onDelta func(chunk string) error) (*ChatResult, error) {
	sess, promptText, sources, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}

	full, err := sess.Client.Stream(ctx, promptText, onDelta)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	full = normalizeAnswer(full)

	sess.AppendTurn(input.Message, full)

	return &ChatResult{
		Content:   full,
		Sources:   sources,
		SessionID: input.SessionID,
	}, nil
}

// Ask answers a one-shot question against a single document with top-5
// retrieval. It binds a fresh model client and touches no session state.
func (s *ChatService) Ask(ctx context.Context, documentID, question string) (*AskResult, error) {
	question = strings.TrimSpace(question)
	if documentID == "" || question == "" {
		return nil, ErrInvalidInput
	}
	if !s.registry.Has(documentID) {
		return nil, ErrDocumentNotFound
	}

	chunks, err := s.retriever.TopK(ctx, documentID, question, s.askTopK)
	if err != nil {
		return nil, s.retrievalError(err)
	}
	contextText, sources := joinChunks(chunks)

	client, err := s.factory()
	if err != nil {
		return nil, err
	}
	answer, err := client.Invoke(ctx, s.assembler.Build(contextText, nil, question))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return &AskResult{
		Answer:  normalizeAnswer(answer),
		Sources: sources,
	}, nil
}

// History returns the full ordered history for a session, empty for an
// unknown id.
func (s *ChatService) History(sessionID string) []HistoryEntry {
	sess := s.sessions.Get(sessionID)
	if sess == nil {
		return []HistoryEntry{}
	}
	messages := sess.History()
	entries := make([]HistoryEntry, len(messages))
	for i, m := range messages {
		entries[i] = HistoryEntry{
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: sess.CreatedAt,
		}
	}
	return entries
}

// Clear removes the session entirely.
func (s *ChatService) Clear(sessionID string) {
	s.sessions.Clear(sessionID)
}

func (s *ChatService) ActiveSessions() int {
	return s.sessions.Len()
}

// prepare runs the pre-model steps shared by both delivery modes. The
// document check comes first so a request naming an unknown document never
// creates or mutates a session.
func (s *ChatService) prepare(ctx context.Context, input ChatInput) (*session.Session, string, []string, error) {
	if strings.TrimSpace(input.SessionID) == "" || strings.TrimSpace(input.Message) == "" {
		return nil, "", nil, ErrInvalidInput
	}
	if input.DocumentID != "" && !s.registry.Has(input.DocumentID) {
		return nil, "", nil, ErrDocumentNotFound
	}

	sess, err := s.sessions.GetOrCreate(input.SessionID)
	if err != nil {
		return nil, "", nil, err
	}

	var contextText string
	var sources []string
	if input.DocumentID != "" {
		chunks, err := s.retriever.TopK(ctx, input.DocumentID, input.Message, s.chatTopK)
		if err != nil {
			return nil, "", nil, s.retrievalError(err)
		}
		contextText, sources = joinChunks(chunks)
	}

	promptText := s.assembler.Build(contextText, sess.History(), input.Message)
	return sess, promptText, sources, nil
}

func (s *ChatService) retrievalError(err error) error {
	if errors.Is(err, index.ErrNotFound) {
		return ErrDocumentNotFound
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}

func joinChunks(chunks []model.Chunk) (string, []string) {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	return strings.Join(texts, "\n\n"), texts
}

func normalizeAnswer(answer string) string {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return emptyAnswerFallback
	}
	return answer
}
