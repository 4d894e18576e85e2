package http

import (
	"github.com/gin-gonic/gin"

	"pdfchat/internal/bootstrap"
	"pdfchat/internal/transport/http/handler"
	"pdfchat/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.RequestID(), middleware.CORS(app.Config.CORS.AllowedOrigins))

	healthHandler := handler.NewHealthHandler(app.Config, app.Documents, app.Chat)
	documentHandler := handler.NewDocumentHandler(app.Documents)
	chatHandler := handler.NewChatHandler(app.Chat)

	router.GET("/", healthHandler.Root)
	router.GET("/health", healthHandler.Check)

	router.POST("/upload", documentHandler.Upload)
	router.DELETE("/delete_file", documentHandler.Delete)

	router.POST("/chat", chatHandler.Send)
	router.POST("/chat/stream", chatHandler.Stream)
	router.GET("/chat/history", chatHandler.History)
	router.POST("/chat/clear", chatHandler.Clear)

	router.POST("/ask", chatHandler.Ask)

	return router
}
