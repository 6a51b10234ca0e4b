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

// Constraint names surfaced in *DuplicateError by SiteStore.Create.
const (
	SiteTemplateConstraint = "sites_template_id_key"
	SiteSlugConstraint     = "sites_slug_key"
)

// siteColumns lists all columns for sites SELECTs.
const siteColumns = `id, template_id, slug, domain, published_snapshot_id,
	published_rev, published_at, created_at, updated_at`

// SiteStore handles the published site records.
type SiteStore struct {
	db *sql.DB
}

// NewSiteStore creates a new SiteStore.
func NewSiteStore(db *sql.DB) *SiteStore {
	return &SiteStore{db: db}
}

func scanSite(scanner interface{ Scan(...any) error }) (*models.Site, error) {
	var site models.Site
	err := scanner.Scan(
		&site.ID, &site.TemplateID, &site.Slug, &site.Domain, &site.PublishedSnapshotID,
		&site.PublishedRev, &site.PublishedAt, &site.CreatedAt, &site.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &site, nil
}

func (s *SiteStore) findOne(ctx context.Context, op, where string, arg any) (*models.Site, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+siteColumns+` FROM sites WHERE `+where, arg)
	site, err := scanSite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return site, nil
}

// FindByTemplateID returns the site bound to a template, or nil.
func (s *SiteStore) FindByTemplateID(ctx context.Context, templateID uuid.UUID) (*models.Site, error) {
	return s.findOne(ctx, "find site by template", "template_id = $1", templateID)
}

// FindBySlug returns the site with the given slug, or nil.
func (s *SiteStore) FindBySlug(ctx context.Context, slug string) (*models.Site, error) {
	return s.findOne(ctx, "find site by slug", "slug = $1", slug)
}

// SlugExists reports whether a site already uses slug.
func (s *SiteStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM sites WHERE slug = $1)`, slug,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check site slug: %w", err)
	}
	return exists, nil
}

// Create inserts an unpublished site for a template. Unique violations come
// back as a *DuplicateError naming SiteTemplateConstraint or SiteSlugConstraint.
func (s *SiteStore) Create(ctx context.Context, templateID uuid.UUID, slug string) (*models.Site, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO sites (template_id, slug)
		VALUES ($1, $2)
		RETURNING `+siteColumns,
		templateID, slug,
	)
	site, err := scanSite(row)
	if err != nil {
		return nil, fmt.Errorf("create site: %w", asDuplicate(err))
	}
	return site, nil
}

// UpdatePublishPointer points the site at a snapshot. Last writer wins.
func (s *SiteStore) UpdatePublishPointer(ctx context.Context, siteID uuid.UUID, p models.PublishPointer) (*models.Site, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE sites SET
			published_snapshot_id = $2, published_rev = $3, published_at = $4,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+siteColumns,
		siteID, p.SnapshotID, p.Rev, p.At,
	)
	site, err := scanSite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update publish pointer: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update publish pointer: %w", err)
	}
	return site, nil
}

// UpdateDomain sets or clears the site's custom domain.
func (s *SiteStore) UpdateDomain(ctx context.Context, siteID uuid.UUID, domain *string) (*models.Site, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE sites SET domain = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+siteColumns,
		siteID, domain,
	)
	site, err := scanSite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update site domain: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update site domain: %w", asDuplicate(err))
	}
	return site, nil
}
