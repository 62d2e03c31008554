package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hoplink/hoplink/internal/apperr"
)

// writeError emits the standard error envelope from middleware, where the
// handler layer's responder is not in scope.
func writeError(w http.ResponseWriter, appErr *apperr.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus)

	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": appErr.Message,
		"error": map[string]any{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
