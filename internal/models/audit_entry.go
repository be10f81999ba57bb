// internal/models/audit_entry.go
package models

import "time"

type AuditAction string

const (
	AuditPromotionCreated AuditAction = "promotion.created"
	AuditPromotionUpdated AuditAction = "promotion.updated"
	AuditPromotionDeleted AuditAction = "promotion.deleted"
	AuditFileUploaded     AuditAction = "file.uploaded"
	AuditFileUpdated      AuditAction = "file.updated"
	AuditFileDeleted      AuditAction = "file.deleted"
)

type AuditEntry struct {
	ID          string      `json:"id"`
	Actor       string      `json:"actor"`
	Action      AuditAction `json:"action"`
	PromotionID string      `json:"promotion_id,omitempty"`
	Detail      string      `json:"detail,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}
