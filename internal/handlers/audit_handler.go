package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"promoadmin/internal/interfaces"
	"promoadmin/internal/models"
)

type AuditHandler struct {
	*BaseHandler
}

func NewAuditHandler(base *BaseHandler) *AuditHandler {
	return &AuditHandler{BaseHandler: base}
}

// ListAudit godoc
// @Tags Audit
// @Summary Recent console changes
// @Produce json
// @Param promotion_id query string false "Filter by promotion"
// @Param actor query string false "Filter by username"
// @Param action query string false "Comma separated actions, e.g. file.uploaded,file.deleted"
// @Param since query string false "RFC3339 lower bound"
// @Param limit query int false "Max entries (default 50, max 500)"
// @Success 200 {array} models.AuditEntry
// @Failure 503 {object} map[string]interface{}
// @Router /api/v1/audit [get]
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	if h.Audit == nil {
		writeJSONErrorResponse(w, http.StatusServiceUnavailable, "audit_disabled", "Audit log is not configured")
		return
	}

	q := r.URL.Query()
	filter := interfaces.AuditFilter{
		PromotionID: strings.TrimSpace(q.Get("promotion_id")),
		Actor:       strings.TrimSpace(q.Get("actor")),
	}
	for _, a := range strings.Split(q.Get("action"), ",") {
		if a = strings.TrimSpace(a); a != "" {
			filter.Actions = append(filter.Actions, models.AuditAction(a))
		}
	}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "since must be RFC3339")
			return
		}
		filter.Since = since
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "limit must be a positive number")
			return
		}
		filter.Limit = limit
	}

	entries, err := h.Audit.ListRecent(r.Context(), filter)
	if err != nil {
		log.Printf("Failed to list audit entries: %v", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "list_audit_failed", "Failed to list audit entries")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
