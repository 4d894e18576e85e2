package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pdfchat/internal/app"
	"pdfchat/internal/config"
)

type HealthHandler struct {
	cfg       *config.Config
	documents *app.DocumentService
	chat      *app.ChatService
}

func NewHealthHandler(cfg *config.Config, documents *app.DocumentService, chat *app.ChatService) *HealthHandler {
	return &HealthHandler{cfg: cfg, documents: documents, chat: chat}
}

func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "PDF chatbot API running",
		"status":  "healthy",
	})
}

func (h *HealthHandler) Check(c *gin.Context) {
	configured := h.cfg.AgentConfigured()
	status := "healthy"
	if !configured {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":                status,
		"uploaded_files":        h.documents.Count(),
		"active_sessions":       h.chat.ActiveSessions(),
		"ai_service_configured": configured,
	})
}
