package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"promoadmin/internal/config"
	"promoadmin/internal/interfaces"
	"promoadmin/internal/middleware"
	"promoadmin/internal/models"
	"promoadmin/internal/services"
	"promoadmin/internal/session"
)

// BaseHandler carries what every console handler needs: the shared promotion
// API client, config, the optional audit log and a clock.
type BaseHandler struct {
	Client *services.PromoAPIClient
	Cfg    *config.Config
	// Audit is nil when no database is configured.
	Audit interfaces.AuditRepository
	Now   func() time.Time
}

func NewBaseHandler(client *services.PromoAPIClient, cfg *config.Config, audit interfaces.AuditRepository) *BaseHandler {
	return &BaseHandler{
		Client: client,
		Cfg:    cfg,
		Audit:  audit,
		Now:    time.Now,
	}
}

// gateway binds the shared client to the caller's cookie, so a 401 from the
// promotion API clears that browser's session only.
func (b *BaseHandler) gateway(w http.ResponseWriter, r *http.Request) *services.PromoAPIClient {
	return b.Client.WithStore(session.NewCookie(w, r, session.CookieOptions{Secure: b.Cfg != nil && b.Cfg.CookieSecure}))
}

// record writes an audit entry. Failures are logged and never fail the request.
func (b *BaseHandler) record(ctx context.Context, action models.AuditAction, promotionID, detail string) {
	if b.Audit == nil {
		return
	}
	entry := &models.AuditEntry{
		Actor:       middleware.Actor(ctx),
		Action:      action,
		PromotionID: promotionID,
		Detail:      detail,
	}
	if entry.Actor == "" {
		entry.Actor = "unknown"
	}
	if err := b.Audit.Record(context.WithoutCancel(ctx), entry); err != nil {
		log.Printf("audit %s for promotion %s: %v", action, promotionID, err)
	}
}
