package db

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestExtractDBName(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@localhost:5432/promo_audit?sslmode=disable": "promo_audit",
		"host=localhost user=u dbname=audit sslmode=disable":         "audit",
	}
	for conn, want := range cases {
		got, err := extractDBName(conn)
		if err != nil || got != want {
			t.Fatalf("extractDBName(%q) = %q, %v; want %q", conn, got, err, want)
		}
	}
	if _, err := extractDBName("host=localhost user=u"); err == nil {
		t.Fatalf("expected error without dbname")
	}
	if _, err := extractDBName("postgres://localhost:5432"); err == nil {
		t.Fatalf("expected error for URL without path")
	}
}

func TestReplaceDBName(t *testing.T) {
	got, err := replaceDBName("postgres://u:p@localhost:5432/promo_audit?sslmode=disable", "postgres")
	if err != nil || got != "postgres://u:p@localhost:5432/postgres?sslmode=disable" {
		t.Fatalf("unexpected %q %v", got, err)
	}
	got, _ = replaceDBName("host=localhost dbname=audit", "postgres")
	if got != "host=localhost dbname=postgres" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestEnsureDatabaseCreatesMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT 1 FROM pg_database WHERE datname = \$1`).
		WithArgs("promo_audit").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`CREATE DATABASE "promo_audit"`).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := ensureDatabase(context.Background(), db, "promo_audit"); err != nil {
		t.Fatalf("ensureDatabase: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureDatabaseSkipsExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT 1 FROM pg_database`).
		WithArgs("promo_audit").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	if err := ensureDatabase(context.Background(), db, "promo_audit"); err != nil {
		t.Fatalf("ensureDatabase: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
