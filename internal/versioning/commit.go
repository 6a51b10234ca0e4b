// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package versioning

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"pagecraft/internal/metrics"
	"pagecraft/internal/models"
	"pagecraft/internal/patch"
	"pagecraft/internal/store"
)

// CommitInput is one edit against a known base revision.
type CommitInput struct {
	TemplateID uuid.UUID
	BaseRev    int
	Patch      models.Patch
	Actor      string
	Kind       models.PatchKind
	Autosave   bool
}

// CommitResult is the template's new revision.
type CommitResult struct {
	ID  uuid.UUID `json:"id"`
	Rev int       `json:"rev"`
}

// Commit applies a patch to the template's editable view and writes it if
// and only if BaseRev is still current. A stale base is a Conflict and is
// never retried here.
func (s *Service) Commit(ctx context.Context, in CommitInput) (*CommitResult, error) {
	res, err := s.commit(ctx, in)
	metrics.Commits.WithLabelValues(commitOutcome(err)).Inc()
	return res, err
}

func (s *Service) commit(ctx context.Context, in CommitInput) (*CommitResult, error) {
	const op = "commit"

	kind := in.Kind
	if kind == "" {
		kind = models.PatchGeneric
	}
	if !kind.Valid() {
		return nil, validation(op, "unknown patch kind "+string(kind), nil)
	}
	if in.BaseRev < 0 {
		return nil, validation(op, "base_rev must not be negative", nil)
	}
	if err := patch.Validate(in.Patch); err != nil {
		return nil, classify(op, err)
	}

	t, err := s.templates.FindByID(ctx, in.TemplateID)
	if err != nil {
		return nil, classify(op, err)
	}
	if t == nil {
		return nil, notFound(op, "template")
	}
	// The patch must apply to the revision it was written against.
	if t.Rev != in.BaseRev {
		return nil, classify(op, &store.StaleRevisionError{TemplateID: t.ID, Expected: in.BaseRev, Current: t.Rev})
	}

	view, err := editableView(t)
	if err != nil {
		return nil, classify(op, err)
	}
	patched, err := patch.Apply(view, in.Patch)
	if err != nil {
		return nil, classify(op, err)
	}
	if err := checkView(patched); err != nil {
		return nil, classify(op, err)
	}
	w, err := buildWrite(patched)
	if err != nil {
		return nil, classify(op, err)
	}

	rev, err := s.templates.CommitRevision(ctx, t.ID, in.BaseRev, w)
	if err != nil {
		return nil, classify(op, err)
	}

	typ := models.EventSave
	if in.Autosave {
		typ = models.EventAutosave
	}
	diff, err := patch.Diff(t.Data, w.Data)
	if err != nil {
		slog.Debug("commit diff unavailable", "template_id", t.ID, "error", err)
		diff = nil
	}
	s.recordEvent(ctx, &models.Event{
		TemplateID:    t.ID,
		Type:          typ,
		RevBefore:     intPtr(in.BaseRev),
		RevAfter:      intPtr(rev),
		ActorID:       actorPtr(in.Actor),
		FieldsTouched: patch.Touched(in.Patch),
		Diff:          diff,
		Meta:          map[string]any{"kind": string(kind)},
	})

	return &CommitResult{ID: t.ID, Rev: rev}, nil
}

// checkView rejects patch results that would not survive normalization
// intact: data must stay an object and data.pages, when present, an array.
func checkView(view map[string]any) error {
	data, ok := view["data"].(map[string]any)
	if !ok {
		return fmt.Errorf("%w: data must be an object", patch.ErrInvalid)
	}
	if pages, present := data["pages"]; present {
		if _, isArr := pages.([]any); !isArr {
			return fmt.Errorf("%w: data.pages must be an array", patch.ErrInvalid)
		}
	}
	return nil
}

func commitOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch KindOf(err) {
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "invalid"
	}
	return "error"
}
