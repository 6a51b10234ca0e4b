// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package versioning

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"pagecraft/internal/docjson"
	"pagecraft/internal/metrics"
	"pagecraft/internal/models"
)

// EnsureSnapshot returns the snapshot capturing the template's current
// document. With an explicit id it only checks ownership. Otherwise the
// latest snapshot is reused when it has the same rev and content hash, and
// a new one is inserted when it does not.
//
// Two concurrent calls may both insert; that costs storage, not correctness.
func (s *Service) EnsureSnapshot(ctx context.Context, templateID uuid.UUID, snapshotID *uuid.UUID) (*models.Snapshot, error) {
	const op = "ensure snapshot"

	if snapshotID != nil {
		return s.ownedSnapshot(ctx, op, templateID, *snapshotID)
	}

	t, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		return nil, classify(op, err)
	}
	if t == nil {
		return nil, notFound(op, "template")
	}

	hash, err := docjson.Hash(t.Data)
	if err != nil {
		return nil, classify(op, err)
	}

	latest, err := s.snapshots.Latest(ctx, t.ID)
	if err != nil {
		return nil, classify(op, err)
	}
	if latest != nil && latest.Matches(t.Rev, hash) {
		metrics.SnapshotsDeduplicated.Inc()
		return latest, nil
	}

	sn, err := s.snapshots.Create(ctx, &models.Snapshot{
		TemplateID: t.ID,
		Rev:        t.Rev,
		FullData:   t.Data,
		Hash:       hash,
	})
	if err != nil {
		return nil, classify(op, err)
	}
	metrics.SnapshotsCreated.Inc()

	if s.archive != nil {
		if err := s.archive.PutSnapshot(ctx, sn); err != nil {
			metrics.BestEffortFailures.WithLabelValues("archive").Inc()
			slog.Warn("failed to archive snapshot",
				"template_id", sn.TemplateID,
				"snapshot_id", sn.ID,
				"error", err,
			)
		}
	}

	s.recordEvent(ctx, &models.Event{
		TemplateID: t.ID,
		Type:       models.EventSnapshot,
		At:         sn.CreatedAt,
		RevAfter:   intPtr(sn.Rev),
		Meta: map[string]any{
			"snapshot_id": sn.ID.String(),
			"hash":        sn.Hash,
		},
	})
	return sn, nil
}

// ListSnapshots returns a template's snapshots, newest first.
func (s *Service) ListSnapshots(ctx context.Context, templateID uuid.UUID) ([]models.Snapshot, error) {
	const op = "list snapshots"
	if _, err := s.Get(ctx, templateID); err != nil {
		return nil, err
	}
	list, err := s.snapshots.ListByTemplate(ctx, templateID)
	if err != nil {
		return nil, classify(op, err)
	}
	return list, nil
}

// ownedSnapshot loads a snapshot and checks it belongs to templateID.
func (s *Service) ownedSnapshot(ctx context.Context, op string, templateID, snapshotID uuid.UUID) (*models.Snapshot, error) {
	sn, err := s.snapshots.FindByID(ctx, snapshotID)
	if err != nil {
		return nil, classify(op, err)
	}
	if sn == nil || sn.TemplateID != templateID {
		return nil, notFound(op, "snapshot")
	}
	return sn, nil
}
