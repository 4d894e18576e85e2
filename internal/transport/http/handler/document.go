package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"pdfchat/internal/app"
	"pdfchat/internal/transport/http/response"
)

const maxPDFSize = 10 << 20 // 10 MiB

type DocumentHandler struct {
	documents *app.DocumentService
}

func NewDocumentHandler(documents *app.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Upload accepts a multipart form with a "file" field holding a PDF.
// Type and size are validated here, before the ingestion pipeline runs.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "missing file")
		return
	}
	if strings.ToLower(filepath.Ext(file.Filename)) != ".pdf" {
		response.Error(c, http.StatusBadRequest, "Only PDF files are allowed.")
		return
	}
	if file.Size > maxPDFSize {
		response.Error(c, http.StatusBadRequest, "PDF file too large (max 10MB).")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to read file")
		return
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxPDFSize+1))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to read file")
		return
	}
	if len(content) > maxPDFSize {
		response.Error(c, http.StatusBadRequest, "PDF file too large (max 10MB).")
		return
	}

	id, err := h.documents.Upload(c.Request.Context(), file.Filename, content)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrIngestion):
			response.Error(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrUpstream):
			response.Error(c, http.StatusBadGateway, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "Error processing PDF: "+err.Error())
		}
		return
	}

	response.OK(c, gin.H{
		"success":  true,
		"message":  fmt.Sprintf("PDF '%s' uploaded and processed.", id),
		"filename": id,
	})
}

// Delete removes a document, its index, and its backing file. An unknown
// filename is a soft failure, not an error status.
func (h *DocumentHandler) Delete(c *gin.Context) {
	filename := strings.TrimSpace(c.Query("filename"))
	if filename == "" {
		response.Error(c, http.StatusBadRequest, "missing filename")
		return
	}

	if !h.documents.Delete(filename) {
		response.OK(c, gin.H{"success": false, "message": "File not found"})
		return
	}
	response.OK(c, gin.H{"success": true})
}
