// store_test.go provides shared helpers for the store tests: an integration
// database that skips when PostgreSQL is not available, and sqlmock fixtures
// for SQL-shape unit tests that always run.
package store

import (
	"context"
	"database/sql"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"pagecraft/internal/database"
	"pagecraft/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "pagecraft")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "pagecraft")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// newMock returns a sqlmock-backed *sql.DB and fails the test on unmet
// expectations.
func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet SQL expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

// q turns a literal SQL fragment into a sqlmock pattern.
func q(fragment string) string {
	return regexp.QuoteMeta(fragment)
}

var templateColumnNames = []string{
	"id", "owner_id", "slug", "base_slug", "title", "description",
	"favicon_url", "color_mode", "category_id", "theme_id", "rev", "data",
	"header_block", "footer_block", "archived", "is_version", "is_site", "published",
	"created_at", "updated_at",
}

func templateRows(id uuid.UUID, rev int, data string) *sqlmock.Rows {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(templateColumnNames).AddRow(
		id.String(), uuid.New().String(), "bakery-1abcde", "bakery", "Bakery", nil,
		nil, "dark", nil, nil, rev, []byte(data),
		nil, nil, false, false, false, false,
		now, now,
	)
}

// createTemplate inserts a live template for integration tests and removes
// it when the test ends.
func createTemplate(t *testing.T, db *sql.DB) *models.Template {
	t.Helper()
	s := NewTemplateStore(db)
	base := "store-test-" + uuid.NewString()[:8]
	tmpl, err := s.Create(context.Background(), &models.Template{
		OwnerID:  uuid.New(),
		Slug:     base + "-1aaaaa",
		BaseSlug: base,
		Title:    "Store Test",
		Data:     []byte(`{"pages":[]}`),
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	t.Cleanup(func() { cleanTemplates(t, db, tmpl.ID) })
	return tmpl
}

// cleanTemplates removes test templates by id. Snapshots, sites, and events
// cascade.
func cleanTemplates(t *testing.T, db *sql.DB, ids ...uuid.UUID) {
	t.Helper()
	for _, id := range ids {
		db.Exec("DELETE FROM templates WHERE id = $1", id)
	}
}
