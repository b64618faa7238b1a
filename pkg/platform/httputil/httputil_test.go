package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"solidum/pkg/apierror"
)

func TestWriteError(t *testing.T) {
	t.Run("api error maps code and keeps message", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, apierror.New(apierror.CodeBadRequest, "Dados invalidos", "CNPJ inválido").WithField("cnpj"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "Dados invalidos" {
			t.Fatalf("expected error title, got %q", body["error"])
		}
		if body["message"] != "CNPJ inválido" {
			t.Fatalf("expected message, got %q", body["message"])
		}
		if body["field"] != "cnpj" {
			t.Fatalf("expected field cnpj, got %q", body["field"])
		}
	})

	t.Run("wrapped api error still recognized", func(t *testing.T) {
		w := httptest.NewRecorder()
		wrapped := fmt.Errorf("handler: %w", apierror.New(apierror.CodeUnauthorized, "Token invalido", ""))
		WriteError(w, wrapped)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("unknown error becomes generic internal failure", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("pq: connection refused"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "Erro interno do servidor" {
			t.Fatalf("expected generic title, got %q", body["error"])
		}
	})
}
