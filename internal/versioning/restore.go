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

// StoredVia records which path a restore took.
type StoredVia string

const (
	// StoredViaCommit: the snapshot was written as a regular commit.
	StoredViaCommit StoredVia = "commit"
	// StoredViaNone: the template has no snapshots; nothing was written.
	StoredViaNone StoredVia = "none"
	// StoredViaDegraded: the write failed and the restore became a no-op.
	StoredViaDegraded StoredVia = "degraded"
)

// RestoreInput selects the snapshot to restore. A nil SnapshotID means the
// most recent one.
type RestoreInput struct {
	TemplateID uuid.UUID
	SnapshotID *uuid.UUID
	Message    string
	Actor      string
}

// RestoreResult reports what a restore did.
type RestoreResult struct {
	TemplateID uuid.UUID  `json:"template_id"`
	SnapshotID *uuid.UUID `json:"snapshot_id"`
	StoredVia  StoredVia  `json:"stored_via"`
	Reason     string     `json:"reason,omitempty"`
	Rev        int        `json:"rev"`
}

// Restore copies a snapshot's document back onto the template. The write is
// a compare-and-swap commit against the template's current rev, so rev
// advances by one and a concurrent edit surfaces as a Conflict. Any other
// write failure degrades to a logged no-op reported as StoredViaDegraded.
func (s *Service) Restore(ctx context.Context, in RestoreInput) (*RestoreResult, error) {
	res, err := s.restore(ctx, in)
	if err == nil {
		metrics.Restores.WithLabelValues(string(res.StoredVia)).Inc()
	}
	return res, err
}

func (s *Service) restore(ctx context.Context, in RestoreInput) (*RestoreResult, error) {
	const op = "restore"

	t, err := s.templates.FindByID(ctx, in.TemplateID)
	if err != nil {
		return nil, classify(op, err)
	}
	if t == nil {
		return nil, notFound(op, "template")
	}

	var sn *models.Snapshot
	if in.SnapshotID != nil {
		if sn, err = s.ownedSnapshot(ctx, op, t.ID, *in.SnapshotID); err != nil {
			return nil, err
		}
	} else {
		if sn, err = s.snapshots.Latest(ctx, t.ID); err != nil {
			return nil, classify(op, err)
		}
		if sn == nil {
			return &RestoreResult{TemplateID: t.ID, StoredVia: StoredViaNone, Rev: t.Rev}, nil
		}
	}

	snapID := sn.ID
	result := &RestoreResult{TemplateID: t.ID, SnapshotID: &snapID, Rev: t.Rev}

	w, err := restoreWrite(t, sn)
	if err == nil {
		result.Rev, err = s.templates.CommitRevision(ctx, t.ID, t.Rev, w)
	}
	if err != nil {
		if e := classify(op, err); e.Kind == KindConflict || e.Kind == KindNotFound {
			return nil, e
		}
		slog.Warn("restore degraded to no-op",
			"template_id", t.ID,
			"snapshot_id", sn.ID,
			"error", err,
		)
		result.StoredVia = StoredViaDegraded
		result.Reason = err.Error()
		result.Rev = t.Rev
		return result, nil
	}
	result.StoredVia = StoredViaCommit

	meta := map[string]any{
		"snapshot_id": sn.ID.String(),
		"kind":        string(models.PatchRestore),
	}
	if in.Message != "" {
		meta["message"] = in.Message
	}
	s.recordEvent(ctx, &models.Event{
		TemplateID: t.ID,
		Type:       models.EventRestore,
		RevBefore:  intPtr(t.Rev),
		RevAfter:   intPtr(result.Rev),
		ActorID:    actorPtr(in.Actor),
		Meta:       meta,
	})
	return result, nil
}

// restoreWrite keeps the template's columns and replaces its document with
// the snapshot's.
func restoreWrite(t *models.Template, sn *models.Snapshot) (models.TemplateWrite, error) {
	view, err := editableView(t)
	if err != nil {
		return models.TemplateWrite{}, err
	}
	doc, err := docjson.Decode(sn.FullData)
	if err != nil {
		return models.TemplateWrite{}, err
	}
	view["data"] = doc
	return buildWrite(view)
}
