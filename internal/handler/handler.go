// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hoplink/hoplink/internal/apperr"
)

// envelope is the uniform response shape for every JSON endpoint.
type envelope struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message"`
	Data      any        `json:"data,omitempty"`
	Error     *errorBody `json:"error,omitempty"`
	Timestamp string     `json:"timestamp"`
}

type errorBody struct {
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// writeSuccess writes a success envelope with the given status code.
func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeError maps an error to its HTTP status and writes the error envelope.
// Errors without a known kind collapse to INTERNAL_SERVER_ERROR; their
// internals never reach the client.
func writeError(w http.ResponseWriter, err error) {
	appErr := apperr.ErrInternal
	var known *apperr.Error
	if errors.As(err, &known) {
		appErr = known
	}

	writeJSON(w, appErr.HTTPStatus, envelope{
		Success: false,
		Message: appErr.Message,
		Error: &errorBody{
			Code:     appErr.Code,
			Message:  appErr.Message,
			Metadata: appErr.Metadata,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing left to do.
		_ = err
	}
}

// NotFound handles 404 responses for unmatched routes.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, apperr.ErrURLNotFound.WithMessage("resource not found"))
}

// MethodNotAllowed handles 405 responses.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, envelope{
		Success:   false,
		Message:   "method not allowed",
		Error:     &errorBody{Code: "INVALID_INPUT", Message: "method not allowed"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
