// Package handler exposes the public registration intake endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"solidum/internal/registration/models"
	"solidum/internal/registration/service"
	"solidum/pkg/platform/httputil"
	"solidum/pkg/platform/middleware/metadata"
)

// Service is the intake pipeline consumed by this handler.
type Service interface {
	Submit(ctx context.Context, form *models.Form, uploads []service.Upload, client service.Client) (*service.Result, error)
	SendLegacy(ctx context.Context, form *models.Form, uploads []service.Upload, client service.Client) (*service.LegacyResult, error)
}

// Handler serves the public intake routes.
type Handler struct {
	logger  *slog.Logger
	svc     Service
	limiter func(http.Handler) http.Handler
}

// New creates the intake Handler. The limiter, when non-nil, is applied to
// every intake route.
func New(svc Service, logger *slog.Logger, limiter func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, svc: svc, limiter: limiter}
}

// Register mounts the intake routes.
func (h *Handler) Register(r chi.Router) {
	sub := r
	if h.limiter != nil {
		sub = r.With(h.limiter)
	}
	sub.Post("/api/registrations/create", h.handleCreate)
	sub.Post("/api/email/send", h.handleLegacySend)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	form, uploads, err := parseIntakeForm(w, r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	client := service.Client{
		IP:        metadata.GetClientIP(ctx),
		UserAgent: metadata.GetUserAgent(ctx),
	}
	result, err := h.svc.Submit(ctx, form, uploads, client)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if result.Duplicate {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"success":          true,
			"message":          result.Message,
			"duplicate":        true,
			"attachmentsCount": result.Attachments,
			"registration_id":  nullable(result.RegistrationID),
			"protocol_number":  nullable(result.ProtocolNumber),
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"message":          result.Message,
		"attachmentsCount": result.Attachments,
		"registration_id":  result.RegistrationID,
		"protocol_number":  result.ProtocolNumber,
		"emailSent":        result.EmailSent,
	})
}

func (h *Handler) handleLegacySend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	form, uploads, err := parseIntakeForm(w, r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	client := service.Client{
		IP:        metadata.GetClientIP(ctx),
		UserAgent: metadata.GetUserAgent(ctx),
	}
	result, err := h.svc.SendLegacy(ctx, form, uploads, client)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if result.Duplicate {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"success":          true,
			"message":          result.Message,
			"duplicate":        true,
			"attachmentsCount": result.Attachments,
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"message":          result.Message,
		"attachmentsCount": result.Attachments,
		"emailId":          result.EmailID,
		"submissionId":     form.SubmissionID,
	})
}

// nullable renders empty strings as JSON null, matching what clients of the
// duplicate response expect.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
