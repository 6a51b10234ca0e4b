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

// snapshotColumns lists all columns for template_snapshots SELECTs.
const snapshotColumns = `id, template_id, rev, full_data, hash, created_at`

// SnapshotStore provides access to template snapshots in PostgreSQL.
// Snapshots are append-only.
type SnapshotStore struct {
	db *sql.DB
}

// NewSnapshotStore creates a new SnapshotStore backed by the given database.
func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// scanSnapshot scans a single template_snapshots row into a Snapshot.
func scanSnapshot(scanner interface{ Scan(...any) error }) (*models.Snapshot, error) {
	var sn models.Snapshot
	var data []byte
	err := scanner.Scan(&sn.ID, &sn.TemplateID, &sn.Rev, &data, &sn.Hash, &sn.CreatedAt)
	if err != nil {
		return nil, err
	}
	sn.FullData = data
	return &sn, nil
}

// Create inserts a new snapshot and returns it with the generated ID.
func (s *SnapshotStore) Create(ctx context.Context, sn *models.Snapshot) (*models.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO template_snapshots (template_id, rev, full_data, hash)
		VALUES ($1, $2, $3::jsonb, $4)
		RETURNING `+snapshotColumns,
		sn.TemplateID, sn.Rev, jsonbArg(sn.FullData), sn.Hash,
	)
	created, err := scanSnapshot(row)
	if err != nil {
		return nil, fmt.Errorf("create snapshot: %w", err)
	}
	return created, nil
}

// FindByID returns a single snapshot by its ID. Returns nil if not found.
func (s *SnapshotStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM template_snapshots
		WHERE id = $1
	`, id)
	sn, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find snapshot by id: %w", err)
	}
	return sn, nil
}

// Latest returns the most recently created snapshot for a template, or nil
// when it has none.
func (s *SnapshotStore) Latest(ctx context.Context, templateID uuid.UUID) (*models.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM template_snapshots
		WHERE template_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, templateID)
	sn, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return sn, nil
}

// ListByTemplate returns all snapshots for a template, newest first.
func (s *SnapshotStore) ListByTemplate(ctx context.Context, templateID uuid.UUID) ([]models.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM template_snapshots
		WHERE template_id = $1
		ORDER BY created_at DESC, id DESC
	`, templateID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []models.Snapshot
	for rows.Next() {
		sn, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, *sn)
	}
	return snapshots, rows.Err()
}
