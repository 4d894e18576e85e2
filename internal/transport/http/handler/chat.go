package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pdfchat/internal/app"
	"pdfchat/internal/transport/http/response"
)

type ChatHandler struct {
	chat *app.ChatService
}

type ChatMessageRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id" binding:"required"`
	Filename  string `json:"filename"`
}

type QuestionRequest struct {
	Question string `json:"question" binding:"required"`
	Filename string `json:"filename" binding:"required"`
}

func NewChatHandler(chat *app.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Send handles the batch chat operation.
func (h *ChatHandler) Send(c *gin.Context) {
	var req ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	result, err := h.chat.Chat(c.Request.Context(), app.ChatInput{
		SessionID:  req.SessionID,
		Message:    req.Message,
		DocumentID: req.Filename,
	})
	if err != nil {
		writeChatError(c, err)
		return
	}

	response.OK(c, gin.H{
		"content":    result.Content,
		"sources":    result.Sources,
		"session_id": result.SessionID,
		"success":    true,
	})
}

// Stream handles the streaming chat operation over SSE. Fragments go out as
// they arrive; the terminal event carries the full answer and sources, and
// every outcome — success or failure — ends with the [DONE] marker rather
// than a broken connection.
func (h *ChatHandler) Stream(c *gin.Context) {
	var req ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, "stream not supported")
		return
	}

	writeEvent := func(payload interface{}) error {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if _, err := c.Writer.Write([]byte("data: " + string(raw) + "\n\n")); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}
	writeDone := func() {
		if _, err := c.Writer.Write([]byte("data: [DONE]\n\n")); err == nil {
			flusher.Flush()
		}
	}

	result, err := h.chat.ChatStream(c.Request.Context(), app.ChatInput{
		SessionID:  req.SessionID,
		Message:    req.Message,
		DocumentID: req.Filename,
	}, func(chunk string) error {
		return writeEvent(gin.H{"content": chunk})
	})
	if err != nil {
		_ = writeEvent(gin.H{
			"content":    "Error: " + err.Error(),
			"session_id": req.SessionID,
			"success":    false,
		})
		writeDone()
		return
	}

	_ = writeEvent(gin.H{
		"content":    result.Content,
		"sources":    result.Sources,
		"session_id": result.SessionID,
		"success":    true,
	})
	writeDone()
}

// Ask handles the one-shot question answering operation (top-5 retrieval,
// session-independent).
func (h *ChatHandler) Ask(c *gin.Context) {
	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	result, err := h.chat.Ask(c.Request.Context(), req.Filename, req.Question)
	if err != nil {
		writeChatError(c, err)
		return
	}

	response.OK(c, gin.H{
		"answer":        result.Answer,
		"source_chunks": result.Sources,
	})
}

// History returns the full ordered history for a session; unknown sessions
// yield an empty list.
func (h *ChatHandler) History(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		response.Error(c, http.StatusBadRequest, "missing session_id")
		return
	}
	response.OK(c, gin.H{"messages": h.chat.History(sessionID)})
}

// Clear removes a session entirely. Clearing an unknown session succeeds.
func (h *ChatHandler) Clear(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		response.Error(c, http.StatusBadRequest, "missing session_id")
		return
	}
	h.chat.Clear(sessionID)
	response.OK(c, gin.H{"success": true})
}

func writeChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrDocumentNotFound):
		response.Error(c, http.StatusBadRequest, "PDF not found. Upload before chatting.")
	case errors.Is(err, app.ErrUpstream):
		response.Error(c, http.StatusBadGateway, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "Chat error: "+err.Error())
	}
}
