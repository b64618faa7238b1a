package tinify

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"solidum/pkg/apierror"
	"solidum/pkg/platform/httputil"
)

// Compressor is the shrink client consumed by the handler.
type Compressor interface {
	Compress(ctx context.Context, content []byte, mimeType string) (*Compression, error)
}

// Handler serves the compression proxy routes.
type Handler struct {
	logger *slog.Logger
	client Compressor // nil when TINIFY_API_KEY is not configured
}

// New creates the proxy Handler. A nil client makes the POST route answer
// with a configuration error.
func New(client Compressor, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, client: client}
}

// Register mounts the proxy routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/tinify/compress", h.handleInfo)
	r.Post("/api/tinify/compress", h.handleCompress)
}

// handleInfo answers probes that GET the POST-only endpoint.
func (h *Handler) handleInfo(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusMethodNotAllowed, map[string]any{
		"error":   "Method Not Allowed",
		"message": "Este endpoint aceita apenas requisições POST",
		"usage":   `Use POST /api/tinify/compress com FormData contendo o campo "image"`,
	})
}

func (h *Handler) handleCompress(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageSize+1<<20)
	if err := r.ParseMultipartForm(MaxImageSize); err != nil {
		httputil.WriteError(w, apierror.New(apierror.CodeBadRequest, "Nenhuma imagem enviada", ""))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		httputil.WriteError(w, apierror.New(apierror.CodeBadRequest, "Nenhuma imagem enviada", ""))
		return
	}
	defer file.Close()

	if h.client == nil {
		httputil.WriteError(w, apierror.New(apierror.CodeInternal, "TINIFY_API_KEY não configurada", ""))
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		httputil.WriteError(w, apierror.New(apierror.CodeBadRequest, "Arquivo deve ser uma imagem", ""))
		return
	}
	if header.Size > MaxImageSize {
		httputil.WriteError(w, apierror.New(apierror.CodeBadRequest, "Arquivo muito grande (máx. 5MB)", ""))
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, MaxImageSize+1))
	if err != nil || len(content) > MaxImageSize {
		httputil.WriteError(w, apierror.New(apierror.CodeBadRequest, "Arquivo muito grande (máx. 5MB)", ""))
		return
	}

	result, err := h.client.Compress(r.Context(), content, mimeType)
	if err != nil {
		h.logger.Error("compressing image", "error", err, "mime_type", mimeType, "size", len(content))
		httputil.WriteError(w, err)
		return
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s",
		result.MimeType, base64.StdEncoding.EncodeToString(result.Data))
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"originalSize":   result.OriginalSize,
		"compressedSize": result.CompressedSize,
		"base64":         dataURL,
		"mimeType":       result.MimeType,
	})
}
