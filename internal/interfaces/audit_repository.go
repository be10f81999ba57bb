package interfaces

import (
	"context"
	"time"

	"promoadmin/internal/models"
)

// AuditFilter narrows ListRecent. Zero values mean no constraint.
type AuditFilter struct {
	PromotionID string
	Actor       string
	Actions     []models.AuditAction
	Since       time.Time
	Limit       int
}

// AuditRepository stores the trail of mutations made through the console.
type AuditRepository interface {
	Record(ctx context.Context, entry *models.AuditEntry) error
	ListRecent(ctx context.Context, filter AuditFilter) ([]*models.AuditEntry, error)
}
