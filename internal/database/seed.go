// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// DemoOwnerID owns the seeded demo template.
var DemoOwnerID = uuid.MustParse("00000000-0000-4000-8000-000000000001")

const demoSlug = "demo-bakery-0seed0"

const demoData = `{
	"meta": {"title": "Demo Bakery"},
	"headerBlock": {"type": "header", "props": {"logo": "/logo.svg"}},
	"pages": [
		{"id": "home", "show_header": true, "show_footer": true, "content_blocks": [
			{"type": "hero", "props": {"title": "Fresh bread every morning"}}
		]}
	]
}`

// Seed populates the database with a demo template for local development.
// It does nothing when the demo template already exists.
func Seed(ctx context.Context, db *sql.DB) error {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM templates WHERE slug = $1 AND is_version = FALSE)`, demoSlug,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("seed check templates: %w", err)
	}

	if exists {
		slog.Info("database already seeded, skipping")
		return nil
	}

	var id uuid.UUID
	err = db.QueryRowContext(ctx, `
		INSERT INTO templates (owner_id, slug, base_slug, title, data, header_block)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb)
		RETURNING id
	`, DemoOwnerID, demoSlug, "demo-bakery", "Demo Bakery", demoData,
		`{"type":"header","props":{"logo":"/logo.svg"}}`,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("seed insert template: %w", err)
	}

	slog.Info("database seeded with demo template", "template_id", id, "slug", demoSlug)
	return nil
}
