package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"promoadmin/internal/interfaces"
	"promoadmin/internal/models"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

type auditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) interfaces.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Record(ctx context.Context, entry *models.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	query := `
		INSERT INTO audit_log (id, actor, action, promotion_id, detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(
		ctx,
		query,
		entry.ID,
		entry.Actor,
		string(entry.Action),
		nullString(entry.PromotionID),
		nullString(entry.Detail),
	).Scan(&entry.CreatedAt)
	if err != nil {
		log.Printf("Error recording audit entry %s: %v", entry.Action, err)
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

func (r *auditRepository) ListRecent(ctx context.Context, filter interfaces.AuditFilter) ([]*models.AuditEntry, error) {
	query := `
		SELECT id, actor, action, promotion_id, detail, created_at
		FROM audit_log
	`
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.PromotionID != "" {
		add("promotion_id = $%d", filter.PromotionID)
	}
	if filter.Actor != "" {
		add("actor = $%d", filter.Actor)
	}
	if len(filter.Actions) > 0 {
		actions := make([]string, len(filter.Actions))
		for i, a := range filter.Actions {
			actions[i] = string(a)
		}
		add("action = ANY($%d)", pq.Array(actions))
	}
	if !filter.Since.IsZero() {
		add("created_at >= $%d", filter.Since)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries := []*models.AuditEntry{}
	for rows.Next() {
		var (
			e           models.AuditEntry
			action      string
			promotionID sql.NullString
			detail      sql.NullString
			createdAt   time.Time
		)
		if err := rows.Scan(&e.ID, &e.Actor, &action, &promotionID, &detail, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Action = models.AuditAction(action)
		e.PromotionID = promotionID.String
		e.Detail = detail.String
		e.CreatedAt = createdAt
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}
	return entries, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
