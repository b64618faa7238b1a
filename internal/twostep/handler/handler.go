// Package handler exposes the split registration flow endpoints.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"solidum/internal/registration/models"
	"solidum/internal/token"
	"solidum/internal/twostep"
	"solidum/pkg/apierror"
	"solidum/pkg/platform/httputil"
	"solidum/pkg/platform/sentinel"
)

// Service is the split flow consumed by this handler.
type Service interface {
	Initial(ctx context.Context, form *models.Form) (*twostep.InitialResult, error)
	Verify(ctx context.Context, tok string) (token.Data, error)
	Documents(ctx context.Context, tok string, uploads []twostep.Upload) (*twostep.DocumentsResult, error)
}

// Handler serves the split flow routes.
type Handler struct {
	logger  *slog.Logger
	svc     Service
	limiter func(http.Handler) http.Handler
}

// New creates the split flow Handler. The limiter, when non-nil, throttles the
// first step only; the second step is already gated by the token.
func New(svc Service, logger *slog.Logger, limiter func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, svc: svc, limiter: limiter}
}

// Register mounts the split flow routes.
func (h *Handler) Register(r chi.Router) {
	if h.limiter != nil {
		r.With(h.limiter).Post("/api/register/initial", h.handleInitial)
	} else {
		r.Post("/api/register/initial", h.handleInitial)
	}
	r.Get("/api/register/verify/{token}", h.handleVerify)
	r.Post("/api/register/documents", h.handleDocuments)
}

func (h *Handler) handleInitial(w http.ResponseWriter, r *http.Request) {
	var form models.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		httputil.WriteError(w, apierror.New(apierror.CodeBadRequest,
			"Dados inválidos", "Formato de dados incorreto"))
		return
	}

	result, err := h.svc.Initial(r.Context(), &form)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": result.Message,
		"token":   result.Token,
	})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Verify(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrExpired):
			httputil.WriteJSON(w, http.StatusUnauthorized, map[string]any{
				"error": "Token expirado",
				"valid": false,
			})
		case errors.Is(err, sentinel.ErrNotFound):
			httputil.WriteJSON(w, http.StatusUnauthorized, map[string]any{
				"error": "Token inválido",
				"valid": false,
			})
		default:
			h.logger.Error("verifying upload token", "error", err)
			httputil.WriteJSON(w, http.StatusInternalServerError, map[string]any{
				"error": "Erro ao verificar token",
				"valid": false,
			})
		}
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"valid":       true,
		"accountType": data.AccountType,
		"expiresAt":   data.ExpiresAt.UnixMilli(),
	})
}

func (h *Handler) handleDocuments(w http.ResponseWriter, r *http.Request) {
	tok, uploads, err := parseDocumentsForm(w, r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.svc.Documents(r.Context(), tok, uploads)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"message":          result.Message,
		"attachmentsCount": result.Attachments,
	})
}
