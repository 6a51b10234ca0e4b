// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"pagecraft/internal/models"
)

// templateColumns lists all columns for templates SELECTs.
const templateColumns = `id, owner_id, slug, base_slug, title, description,
	favicon_url, color_mode, category_id, theme_id, rev, data,
	header_block, footer_block, archived, is_version, is_site, published,
	created_at, updated_at`

// TemplateStore handles all template-related database operations.
type TemplateStore struct {
	db *sql.DB
}

// NewTemplateStore creates a new TemplateStore with the given database connection.
func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

// scanTemplate scans a single templates row into a Template.
func scanTemplate(scanner interface{ Scan(...any) error }) (*models.Template, error) {
	var t models.Template
	var data, header, footer []byte
	err := scanner.Scan(
		&t.ID, &t.OwnerID, &t.Slug, &t.BaseSlug, &t.Title, &t.Description,
		&t.FaviconURL, &t.ColorMode, &t.CategoryID, &t.ThemeID, &t.Rev, &data,
		&header, &footer, &t.Archived, &t.IsVersion, &t.IsSite, &t.Published,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Data = data
	if len(header) > 0 {
		t.HeaderBlock = header
	}
	if len(footer) > 0 {
		t.FooterBlock = footer
	}
	return &t, nil
}

// Create inserts a new live template at rev 0. A slug collision comes back
// as a *DuplicateError.
func (s *TemplateStore) Create(ctx context.Context, t *models.Template) (*models.Template, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO templates (
			owner_id, slug, base_slug, title, description, favicon_url,
			color_mode, category_id, theme_id, data, header_block, footer_block
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11::jsonb, $12::jsonb)
		RETURNING `+templateColumns,
		t.OwnerID, t.Slug, t.BaseSlug, t.Title, t.Description, t.FaviconURL,
		t.ColorMode, t.CategoryID, t.ThemeID, jsonbArg(t.Data),
		jsonbArg(t.HeaderBlock), jsonbArg(t.FooterBlock),
	)
	created, err := scanTemplate(row)
	if err != nil {
		return nil, fmt.Errorf("create template: %w", asDuplicate(err))
	}
	return created, nil
}

// FindByID retrieves a template by its UUID. Returns nil if not found.
func (s *TemplateStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+templateColumns+`
		FROM templates WHERE id = $1
	`, id)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find template by id: %w", err)
	}
	return t, nil
}

// ListByOwner returns the owner's live, unarchived templates, most recently
// updated first.
func (s *TemplateStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Template, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+templateColumns+`
		FROM templates
		WHERE owner_id = $1 AND archived = FALSE AND is_version = FALSE
		ORDER BY updated_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

// Archive soft-deletes a template. Rows are never physically removed.
func (s *TemplateStore) Archive(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE templates SET archived = TRUE, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("archive template: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("archive template: %w", ErrNotFound)
	}
	return nil
}

// CommitRevision writes w onto the template if and only if its stored rev
// still equals baseRev, incrementing rev by exactly one. The row lock taken
// by SELECT ... FOR UPDATE keeps any other commit from interleaving between
// the check and the write. Returns the new rev.
func (s *TemplateStore) CommitRevision(ctx context.Context, id uuid.UUID, baseRev int, w models.TemplateWrite) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRowContext(ctx, `
		SELECT rev FROM templates WHERE id = $1 AND is_version = FALSE FOR UPDATE
	`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("commit template: %w", ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("lock template: %w", err)
	}
	if current != baseRev {
		return 0, &StaleRevisionError{TemplateID: id, Expected: baseRev, Current: current}
	}

	var rev int
	err = tx.QueryRowContext(ctx, `
		UPDATE templates SET
			title = $2, description = $3, favicon_url = $4, color_mode = $5,
			category_id = $6, theme_id = $7, data = $8::jsonb,
			header_block = $9::jsonb, footer_block = $10::jsonb,
			rev = rev + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING rev
	`, id, w.Title, w.Description, w.FaviconURL, w.ColorMode,
		w.CategoryID, w.ThemeID, jsonbArg(w.Data),
		jsonbArg(w.HeaderBlock), jsonbArg(w.FooterBlock),
	).Scan(&rev)
	if err != nil {
		return 0, fmt.Errorf("write template revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return rev, nil
}
