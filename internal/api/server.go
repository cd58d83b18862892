// Package api exposes the progression engine over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arjunpat/mathrise/internal/apperr"
	"github.com/arjunpat/mathrise/internal/attempt"
	"github.com/arjunpat/mathrise/internal/engine"
	"github.com/arjunpat/mathrise/internal/logger"
)

// Server holds the handlers' dependencies.
type Server struct {
	Engine *engine.Coordinator
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handleError maps application errors to HTTP responses. Rejected
// submissions are client errors; everything else falls back to the
// error taxonomy's status.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	var rej *attempt.RejectedError
	if errors.As(err, &rej) {
		log.Warn("submission rejected: %v", rej)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": map[string]any{
				"code":    "REJECTED",
				"reason":  rej.Reason,
				"message": rej.Error(),
			},
		})
		return
	}

	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Internal(err)
	}
	if ae.Status >= 500 {
		log.Error("server error: %v", ae)
	} else {
		log.Warn("client error: %v", ae)
	}
	writeJSON(w, ae.Status, map[string]any{
		"error": map[string]any{
			"code":    ae.Code,
			"message": ae.Message,
		},
	})
}
