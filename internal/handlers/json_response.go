package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"promoadmin/internal/promotions"
	"promoadmin/internal/services"
	"promoadmin/internal/validation"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"message": message})
}

func writeJSONErrorResponse(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{"error": code, "message": message})
}

func writeValidationError(w http.ResponseWriter, err *validation.Error) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":   "validation_error",
		"message": err.Error(),
		"fields":  err.Fields,
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized", "redirect": "/login"})
}

func writePromotionNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]any{"error": "promotion_not_found", "redirect": "/"})
}

// writeGatewayError maps an error from a promotion API call to a response.
// action is snake_case, e.g. "update_promotion".
func (b *BaseHandler) writeGatewayError(w http.ResponseWriter, action string, err error) {
	var verr *validation.Error
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		writeUnauthorized(w)
	case errors.As(err, &verr):
		writeValidationError(w, verr)
	case errors.Is(err, promotions.ErrNotFound), services.IsNotFound(err):
		writePromotionNotFound(w)
	default:
		log.Printf("Failed to %s: %v", strings.ReplaceAll(action, "_", " "), err)
		body := map[string]any{
			"error":   action + "_failed",
			"message": "Failed to " + strings.ReplaceAll(action, "_", " "),
		}
		if b.Cfg != nil && b.Cfg.VerboseErrors {
			body["detail"] = err.Error()
		}
		writeJSON(w, http.StatusBadGateway, body)
	}
}
