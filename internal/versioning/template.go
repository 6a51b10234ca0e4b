// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package versioning

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"pagecraft/internal/docjson"
	"pagecraft/internal/models"
	"pagecraft/internal/normalize"
	"pagecraft/internal/slug"
	"pagecraft/internal/store"
)

// CreateInput is a new template: the creating owner plus a loosely shaped
// template object (top-level columns, pages, chrome, and/or data).
type CreateInput struct {
	OwnerID uuid.UUID
	Actor   string
	Raw     map[string]any
}

// Create normalizes raw and stores it as a new template at rev 0 under a
// fresh slug derived from its title.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Template, error) {
	const op = "create template"
	if in.OwnerID == uuid.Nil {
		return nil, validation(op, "owner_id is required", nil)
	}

	w, err := buildWrite(in.Raw)
	if err != nil {
		return nil, classify(op, err)
	}

	// A title copied from an existing slug must not stack suffixes.
	base := slug.Base(slug.Candidate(w.Title, slug.MaxLen))
	for attempt := 0; attempt < s.slugAttempts; attempt++ {
		t, err := s.templates.Create(ctx, &models.Template{
			OwnerID:     in.OwnerID,
			Slug:        slug.WithSuffix(base),
			BaseSlug:    base,
			Title:       w.Title,
			Description: w.Description,
			FaviconURL:  w.FaviconURL,
			ColorMode:   w.ColorMode,
			CategoryID:  w.CategoryID,
			ThemeID:     w.ThemeID,
			Data:        w.Data,
			HeaderBlock: w.HeaderBlock,
			FooterBlock: w.FooterBlock,
		})
		var dup *store.DuplicateError
		if errors.As(err, &dup) {
			continue
		}
		if err != nil {
			return nil, classify(op, err)
		}
		return t, nil
	}
	return nil, &Error{Kind: KindStorage, Op: op, Message: "could not allocate a unique template slug"}
}

// Get returns a template by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	const op = "get template"
	t, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return nil, classify(op, err)
	}
	if t == nil {
		return nil, notFound(op, "template")
	}
	return t, nil
}

// ListByOwner returns an owner's live templates.
func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Template, error) {
	list, err := s.templates.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, classify("list templates", err)
	}
	return list, nil
}

// Archive soft-deletes a template.
func (s *Service) Archive(ctx context.Context, id uuid.UUID) error {
	if err := s.templates.Archive(ctx, id); err != nil {
		return classify("archive template", err)
	}
	return nil
}

// RecordOpen logs that actor opened the template in the editor.
func (s *Service) RecordOpen(ctx context.Context, id uuid.UUID, actor string) error {
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	s.recordEvent(ctx, &models.Event{
		TemplateID: t.ID,
		Type:       models.EventOpen,
		RevBefore:  intPtr(t.Rev),
		ActorID:    actorPtr(actor),
	})
	return nil
}

// editableView is the JSON object a commit patch applies to.
func editableView(t *models.Template) (map[string]any, error) {
	doc := map[string]any{"pages": []any{}}
	if len(t.Data) > 0 {
		decoded, err := docjson.Decode(t.Data)
		if err != nil {
			return nil, err
		}
		doc = decoded
	}
	f := t.Fields()
	return map[string]any{
		"title":       f.Title,
		"description": strOrNil(f.Description),
		"favicon_url": strOrNil(f.FaviconURL),
		"color_mode":  strOrNil(f.ColorMode),
		"category_id": uuidOrNil(f.CategoryID),
		"theme_id":    uuidOrNil(f.ThemeID),
		"data":        doc,
	}, nil
}

// buildWrite normalizes a template object into everything a commit writes.
func buildWrite(raw map[string]any) (models.TemplateWrite, error) {
	var w models.TemplateWrite
	r, err := normalize.Normalize(raw, normalize.Options{})
	if err != nil {
		return w, err
	}
	fields, err := normalize.Fields(r.Columns)
	if err != nil {
		return w, err
	}
	fields.Title = strings.TrimSpace(fields.Title)
	w.TemplateFields = fields
	w.Data = r.Document
	if w.HeaderBlock, err = r.HeaderJSON(); err != nil {
		return w, err
	}
	if w.FooterBlock, err = r.FooterJSON(); err != nil {
		return w, err
	}
	return w, nil
}

func strOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func uuidOrNil(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
