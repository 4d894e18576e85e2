package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pdfchat/internal/ai"
	"pdfchat/internal/app"
	"pdfchat/internal/config"
	"pdfchat/internal/embedding"
	"pdfchat/internal/index"
	"pdfchat/internal/ingest"
	"pdfchat/internal/prompt"
	"pdfchat/internal/session"
)

type fakeClient struct{}

func (fakeClient) Invoke(context.Context, string) (string, error) {
	return "stub answer", nil
}

func (fakeClient) Stream(_ context.Context, _ string, onChunk func(string) error) (string, error) {
	for _, frag := range []string{"stub ", "answer"} {
		if err := onChunk(frag); err != nil {
			return "", err
		}
	}
	return "stub answer", nil
}

type testEnv struct {
	router   *gin.Engine
	registry *index.Registry
	ingestor *ingest.Ingestor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	embedder := embedding.NewLocalEmbedder(64)
	registry := index.NewRegistry()
	retriever := index.NewRetriever(registry, embedder)
	ingestor := ingest.NewIngestor(embedder, 40, 10)
	logger := zap.NewNop()

	documents := app.NewDocumentService(registry, ingestor, t.TempDir(), logger)
	factory := func() (ai.ModelClient, error) { return fakeClient{}, nil }
	sessions := session.NewStore(factory)
	assembler := prompt.NewAssembler(prompt.HistoryPolicy{MaxMessages: 10})
	chat := app.NewChatService(sessions, registry, retriever, assembler, factory, 3, 5, logger)

	cfg := &config.Config{}
	cfg.Agent.APIKey = "k"
	cfg.Agent.InvokeURL = "http://invoke"
	cfg.Agent.StreamURL = "http://stream"

	healthHandler := NewHealthHandler(cfg, documents, chat)
	documentHandler := NewDocumentHandler(documents)
	chatHandler := NewChatHandler(chat)

	router := gin.New()
	router.GET("/", healthHandler.Root)
	router.GET("/health", healthHandler.Check)
	router.POST("/upload", documentHandler.Upload)
	router.DELETE("/delete_file", documentHandler.Delete)
	router.POST("/chat", chatHandler.Send)
	router.POST("/chat/stream", chatHandler.Stream)
	router.GET("/chat/history", chatHandler.History)
	router.POST("/chat/clear", chatHandler.Clear)
	router.POST("/ask", chatHandler.Ask)

	return &testEnv{router: router, registry: registry, ingestor: ingestor}
}

func (e *testEnv) addDocument(t *testing.T, id, text string) {
	t.Helper()
	ix, err := e.ingestor.Ingest(context.Background(), id, text)
	require.NoError(t, err)
	e.registry.Put(id, ix)
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func multipartPDF(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadRejectsNonPDF(t *testing.T) {
	env := newTestEnv(t)
	body, contentType := multipartPDF(t, "notes.txt", []byte("plain text"))

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Only PDF files are allowed.")
}

func TestUploadRejectsOversizedPDF(t *testing.T) {
	env := newTestEnv(t)
	body, contentType := multipartPDF(t, "big.pdf", make([]byte, (10<<20)+1))

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "too large")
	require.Zero(t, env.registry.Len())
}

func TestUploadRejectsMalformedPDF(t *testing.T) {
	env := newTestEnv(t)
	body, contentType := multipartPDF(t, "broken.pdf", []byte("not a real pdf"))

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, env.registry.Len())
}

func TestDeleteUnknownDocumentSoftFailure(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodDelete, "/delete_file?filename=ghost.pdf", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var parsed struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	require.False(t, parsed.Success)
	require.Equal(t, "File not found", parsed.Message)
}

func TestChatUnknownDocument(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/chat", gin.H{
		"message":    "summarize",
		"session_id": "s1",
		"filename":   "never.pdf",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "PDF not found")
}

func TestChatAndHistoryRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	env.addDocument(t, "a.pdf", "alpha beta gamma delta epsilon zeta eta theta iota kappa")

	rec := env.do(t, http.MethodPost, "/chat", gin.H{
		"message":    "summarize",
		"session_id": "s1",
		"filename":   "a.pdf",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var chatResp struct {
		Content   string   `json:"content"`
		Sources   []string `json:"sources"`
		SessionID string   `json:"session_id"`
		Success   bool     `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chatResp))
	require.True(t, chatResp.Success)
	require.Equal(t, "stub answer", chatResp.Content)
	require.Equal(t, "s1", chatResp.SessionID)
	require.NotEmpty(t, chatResp.Sources)
	require.LessOrEqual(t, len(chatResp.Sources), 3)

	rec = env.do(t, http.MethodGet, "/chat/history?session_id=s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var histResp struct {
		Messages []struct {
			Role      string `json:"role"`
			Content   string `json:"content"`
			Timestamp string `json:"timestamp"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &histResp))
	require.Len(t, histResp.Messages, 2)
	require.Equal(t, "user", histResp.Messages[0].Role)
	require.Equal(t, "assistant", histResp.Messages[1].Role)
	require.NotEmpty(t, histResp.Messages[0].Timestamp)
}

func TestHistoryUnknownSessionEmpty(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/chat/history?session_id=ghost", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var parsed struct {
		Messages []interface{} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	require.NotNil(t, parsed.Messages)
	require.Empty(t, parsed.Messages)
}

func TestClearSession(t *testing.T) {
	env := newTestEnv(t)
	_ = env.do(t, http.MethodPost, "/chat", gin.H{"message": "hi", "session_id": "s1"})

	rec := env.do(t, http.MethodPost, "/chat/clear?session_id=s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "true")

	rec = env.do(t, http.MethodGet, "/chat/history?session_id=s1", nil)
	require.Contains(t, rec.Body.String(), `"messages":[]`)
}

func TestChatStreamEmitsDeltasAndTerminalEvent(t *testing.T) {
	env := newTestEnv(t)
	env.addDocument(t, "a.pdf", "alpha beta gamma delta epsilon zeta eta theta iota kappa")

	rec := env.do(t, http.MethodPost, "/chat/stream", gin.H{
		"message":    "summarize",
		"session_id": "s1",
		"filename":   "a.pdf",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/event-stream")

	body := rec.Body.String()
	require.Contains(t, body, `data: {"content":"stub "}`)
	require.Contains(t, body, `data: {"content":"answer"}`)
	require.Contains(t, body, `"success":true`)
	require.True(t, strings.HasSuffix(body, "data: [DONE]\n\n"))

	// Terminal event carries the full accumulated answer.
	require.Contains(t, body, `"content":"stub answer"`)
}

func TestChatStreamUnknownDocumentInBandError(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/chat/stream", gin.H{
		"message":    "summarize",
		"session_id": "s1",
		"filename":   "never.pdf",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `"success":false`)
	require.Contains(t, body, "Error: ")
	require.True(t, strings.HasSuffix(body, "data: [DONE]\n\n"))
}

func TestAsk(t *testing.T) {
	env := newTestEnv(t)
	env.addDocument(t, "a.pdf", strings.Repeat("alpha beta gamma delta epsilon zeta eta theta ", 8))

	rec := env.do(t, http.MethodPost, "/ask", gin.H{
		"question": "what is alpha?",
		"filename": "a.pdf",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var parsed struct {
		Answer       string   `json:"answer"`
		SourceChunks []string `json:"source_chunks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	require.Equal(t, "stub answer", parsed.Answer)
	require.Len(t, parsed.SourceChunks, 5)
}

func TestAskUnknownDocument(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/ask", gin.H{"question": "q", "filename": "nope.pdf"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	env.addDocument(t, "a.pdf", "alpha beta gamma delta epsilon")

	rec := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var parsed struct {
		Status       string `json:"status"`
		ActiveSess   int    `json:"active_sessions"`
		AIConfigured bool   `json:"ai_service_configured"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	require.Equal(t, "healthy", parsed.Status)
	require.True(t, parsed.AIConfigured)
}
