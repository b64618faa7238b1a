// Package handler exposes the back-office API behind bearer token auth.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"solidum/internal/admin"
	"solidum/internal/registration/models"
	"solidum/pkg/apierror"
	"solidum/pkg/platform/httputil"
)

type contextKey string

const adminEmailKey contextKey = "admin_email"

// Handler serves the /api/admin routes.
type Handler struct {
	logger *slog.Logger
	svc    *admin.Service
	tokens *admin.TokenService
}

// New creates the back-office Handler.
func New(svc *admin.Service, tokens *admin.TokenService, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, svc: svc, tokens: tokens}
}

// Register mounts the admin routes behind the auth middleware.
func (h *Handler) Register(r chi.Router) {
	sub := chi.NewRouter()
	sub.Use(h.requireAdmin)
	sub.Get("/me", h.handleMe)
	sub.Get("/registrations", h.handleList)
	sub.Get("/registrations/{id}", h.handleDetail)
	sub.Patch("/registrations/{id}/status", h.handleUpdateStatus)
	r.Mount("/api/admin", sub)
}

// requireAdmin authenticates the bearer token and authorizes the email it
// carries against the admin allowlist.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		tok, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tok == "" {
			httputil.WriteError(w, apierror.New(apierror.CodeUnauthorized,
				"Token de autenticacao ausente", ""))
			return
		}

		claims, err := h.tokens.ValidateToken(tok)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		if _, err := h.svc.Authorize(r.Context(), claims.Email); err != nil {
			httputil.WriteError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), adminEmailKey, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func adminEmail(ctx context.Context) string {
	email, _ := ctx.Value(adminEmailKey).(string)
	return email
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"email": adminEmail(r.Context()),
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := admin.Query{
		Page:     intParam(r, "page", 1),
		PageSize: intParam(r, "pageSize", 20),
		Type:     models.AccountType(r.URL.Query().Get("type")),
		Status:   models.Status(r.URL.Query().Get("status")),
		Text:     r.URL.Query().Get("query"),
		From:     dateParam(r, "from", false),
		To:       dateParam(r, "to", true),
	}

	page, err := h.svc.List(r.Context(), q)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status models.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, apierror.New(apierror.CodeBadRequest, "Status invalido", ""))
		return
	}

	reg, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), body.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"registration": map[string]any{
			"id":     reg.ID,
			"status": reg.Status,
		},
	})
}

func intParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// dateParam parses a date filter, accepting a bare date or a full RFC 3339
// timestamp. Bare "to" dates are pushed to the end of that day so the range
// is inclusive.
func dateParam(r *http.Request, name string, endOfDay bool) *time.Time {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Millisecond)
	}
	return &t
}
