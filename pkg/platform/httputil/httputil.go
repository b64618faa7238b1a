// Package httputil centralizes JSON response writing so every handler emits
// the same envelopes.
package httputil

import (
	"encoding/json"
	"net/http"

	"solidum/pkg/apierror"
)

// errorBody mirrors the wire format of API error responses.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into an HTTP error response. Unknown errors are
// rendered as a generic internal failure so internals never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	apiErr := apierror.From(err)
	if apiErr == nil {
		apiErr = apierror.New(apierror.CodeInternal, "Erro interno do servidor",
			"Ocorreu um erro ao processar sua solicitacao. Tente novamente mais tarde.")
	}
	WriteJSON(w, toHTTPStatus(apiErr.Code), errorBody{
		Error:   apiErr.Title,
		Message: apiErr.Message,
		Field:   apiErr.Field,
	})
}

func toHTTPStatus(code apierror.Code) int {
	switch code {
	case apierror.CodeBadRequest:
		return http.StatusBadRequest
	case apierror.CodeUnauthorized:
		return http.StatusUnauthorized
	case apierror.CodeForbidden:
		return http.StatusForbidden
	case apierror.CodeNotFound:
		return http.StatusNotFound
	case apierror.CodeTooMany:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
