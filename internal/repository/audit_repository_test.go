package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"promoadmin/internal/interfaces"
	"promoadmin/internal/models"
)

func TestAuditRecordAssignsIDAndTimestamp(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`INSERT INTO audit_log \(id, actor, action, promotion_id, detail\)`).
		WithArgs(sqlmock.AnyArg(), "alice", "promotion.deleted", "p1", nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	entry := &models.AuditEntry{Actor: "alice", Action: models.AuditPromotionDeleted, PromotionID: "p1"}
	if err := NewAuditRepository(db).Record(context.Background(), entry); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if entry.ID == "" || !entry.CreatedAt.Equal(now) {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAuditRecordWrapsError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery("INSERT INTO audit_log").WillReturnError(boom)

	err = NewAuditRepository(db).Record(context.Background(), &models.AuditEntry{Actor: "alice", Action: models.AuditFileUploaded})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestAuditListRecentDefaultLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	ts := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, actor, action, promotion_id, detail, created_at\s+FROM audit_log\s+ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(defaultAuditLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "actor", "action", "promotion_id", "detail", "created_at"}).
			AddRow("a1", "alice", "file.uploaded", "p1", "banner.png", ts).
			AddRow("a2", "bob", "promotion.created", nil, nil, ts.Add(-time.Hour)))

	got, err := NewAuditRepository(db).ListRecent(context.Background(), interfaces.AuditFilter{})
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 2 || got[0].Action != models.AuditFileUploaded || got[0].Detail != "banner.png" {
		t.Fatalf("unexpected entries %+v", got)
	}
	if got[1].PromotionID != "" || got[1].Detail != "" {
		t.Fatalf("NULL columns should map to empty strings, got %+v", got[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAuditListRecentFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`WHERE promotion_id = \$1 AND action = ANY\(\$2\) ORDER BY created_at DESC LIMIT \$3`).
		WithArgs("p1", pq.Array([]string{"file.uploaded", "file.deleted"}), maxAuditLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "actor", "action", "promotion_id", "detail", "created_at"}))

	got, err := NewAuditRepository(db).ListRecent(context.Background(), interfaces.AuditFilter{
		PromotionID: "p1",
		Actions:     []models.AuditAction{models.AuditFileUploaded, models.AuditFileDeleted},
		Limit:       10000,
	})
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
