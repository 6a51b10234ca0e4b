// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// event.go persists the explicit template history log. Writes are
// best-effort from the caller's point of view, and a deployment without the
// template_events relation simply has no explicit history.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"pagecraft/internal/models"
)

// EventStore handles template_events using sqlx struct scanning.
type EventStore struct {
	db *sqlx.DB
}

// NewEventStore wraps db for sqlx. driverName is the name db was opened with.
func NewEventStore(db *sql.DB, driverName string) *EventStore {
	return &EventStore{db: sqlx.NewDb(db, driverName)}
}

// eventRow mirrors a template_events row.
type eventRow struct {
	ID            uuid.UUID `db:"id"`
	TemplateID    uuid.UUID `db:"template_id"`
	Type          string    `db:"type"`
	At            time.Time `db:"at"`
	RevBefore     *int      `db:"rev_before"`
	RevAfter      *int      `db:"rev_after"`
	ActorID       *string   `db:"actor_id"`
	FieldsTouched []byte    `db:"fields_touched"`
	Diff          []byte    `db:"diff"`
	Meta          []byte    `db:"meta"`
}

func (r eventRow) toModel() (models.Event, error) {
	e := models.Event{
		ID:         r.ID,
		TemplateID: r.TemplateID,
		Type:       models.EventType(r.Type),
		Source:     models.SourceExplicit,
		At:         r.At,
		RevBefore:  r.RevBefore,
		RevAfter:   r.RevAfter,
		ActorID:    r.ActorID,
	}
	if len(r.FieldsTouched) > 0 {
		if err := json.Unmarshal(r.FieldsTouched, &e.FieldsTouched); err != nil {
			return e, fmt.Errorf("decode fields_touched: %w", err)
		}
	}
	if len(r.Diff) > 0 {
		e.Diff = json.RawMessage(r.Diff)
	}
	if len(r.Meta) > 0 {
		if err := json.Unmarshal(r.Meta, &e.Meta); err != nil {
			return e, fmt.Errorf("decode meta: %w", err)
		}
	}
	return e, nil
}

// Insert appends an event to the log.
func (s *EventStore) Insert(ctx context.Context, e *models.Event) error {
	var fields any
	if len(e.FieldsTouched) > 0 {
		b, err := json.Marshal(e.FieldsTouched)
		if err != nil {
			return fmt.Errorf("encode fields_touched: %w", err)
		}
		fields = string(b)
	}
	meta := e.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}

	id := e.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO template_events (
			id, template_id, type, at, rev_before, rev_after,
			actor_id, fields_touched, diff, meta
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, id, e.TemplateID, string(e.Type), e.At, e.RevBefore, e.RevAfter,
		e.ActorID, fields, jsonbArg(e.Diff), string(metaJSON),
	)
	if err != nil {
		return fmt.Errorf("insert template event: %w", err)
	}
	e.ID = id
	return nil
}

// ListByTemplate returns at most limit explicit events, most recent first.
// A missing template_events relation reads as zero rows.
func (s *EventStore) ListByTemplate(ctx context.Context, templateID uuid.UUID, limit int) ([]models.Event, error) {
	var rows []eventRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, template_id, type, at, rev_before, rev_after,
			actor_id, fields_touched, diff, meta
		FROM template_events
		WHERE template_id = $1
		ORDER BY at DESC, id DESC
		LIMIT $2
	`, templateID, limit)
	if isUndefinedTable(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list template events: %w", err)
	}

	events := make([]models.Event, 0, len(rows))
	for _, r := range rows {
		e, err := r.toModel()
		if err != nil {
			return nil, fmt.Errorf("scan template event %s: %w", r.ID, err)
		}
		events = append(events, e)
	}
	return events, nil
}
