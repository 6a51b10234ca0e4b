// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package versioning

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"pagecraft/internal/docjson"
	"pagecraft/internal/metrics"
	"pagecraft/internal/models"
	"pagecraft/internal/slug"
	"pagecraft/internal/store"
)

// PublishResult describes where a template is now live.
type PublishResult struct {
	SiteID     uuid.UUID `json:"site_id"`
	Slug       string    `json:"slug"`
	Domain     *string   `json:"domain,omitempty"`
	SnapshotID uuid.UUID `json:"snapshot_id"`
	Rev        int       `json:"rev"`
	URL        string    `json:"url"`
	At         time.Time `json:"published_at"`
}

// Publish points the template's site at a snapshot, creating the site on
// first use. Publishing twice without edits reuses the same snapshot and
// only re-stamps the pointer.
func (s *Service) Publish(ctx context.Context, templateID uuid.UUID, snapshotID *uuid.UUID) (*PublishResult, error) {
	const op = "publish"

	t, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		return nil, classify(op, err)
	}
	if t == nil {
		return nil, notFound(op, "template")
	}

	site, err := s.ensureSite(ctx, t)
	if err != nil {
		return nil, err
	}

	sn, err := s.EnsureSnapshot(ctx, t.ID, snapshotID)
	if err != nil {
		return nil, err
	}

	at := s.now().UTC().Truncate(time.Microsecond)
	site, err = s.sites.UpdatePublishPointer(ctx, site.ID, models.PublishPointer{
		SnapshotID: sn.ID,
		Rev:        sn.Rev,
		At:         at,
	})
	if err != nil {
		return nil, classify(op, err)
	}
	metrics.Publishes.Inc()

	if s.cache != nil {
		s.cache.Set(ctx, site)
	}

	url := s.siteURL(site)
	s.recordEvent(ctx, &models.Event{
		TemplateID: t.ID,
		Type:       models.EventPublish,
		At:         at,
		RevAfter:   intPtr(sn.Rev),
		Meta: map[string]any{
			"snapshot_id": sn.ID.String(),
			"site_id":     site.ID.String(),
			"url":         url,
		},
	})

	return &PublishResult{
		SiteID:     site.ID,
		Slug:       site.Slug,
		Domain:     site.Domain,
		SnapshotID: sn.ID,
		Rev:        sn.Rev,
		URL:        url,
		At:         at,
	}, nil
}

// ensureSite returns the template's site, creating it under a unique slug
// when it does not exist yet. Slug collisions are retried with a random
// suffix up to slugAttempts times.
func (s *Service) ensureSite(ctx context.Context, t *models.Template) (*models.Site, error) {
	const op = "ensure site"

	site, err := s.sites.FindByTemplateID(ctx, t.ID)
	if err != nil {
		return nil, classify(op, err)
	}
	if site != nil {
		return site, nil
	}

	base := slug.Candidate(siteTitle(t), slug.MaxLen)
	candidate := base
	for attempt := 0; attempt < s.slugAttempts; attempt++ {
		if attempt > 0 {
			candidate = slug.WithSuffix(base)
		}

		exists, err := s.sites.SlugExists(ctx, candidate)
		if err != nil {
			return nil, classify(op, err)
		}
		if exists {
			continue
		}

		site, err := s.sites.Create(ctx, t.ID, candidate)
		if err == nil {
			return site, nil
		}
		var dup *store.DuplicateError
		if !errors.As(err, &dup) {
			return nil, classify(op, err)
		}
		if dup.Constraint == store.SiteTemplateConstraint {
			// Lost a race with a concurrent first publish.
			existing, err := s.sites.FindByTemplateID(ctx, t.ID)
			if err != nil {
				return nil, classify(op, err)
			}
			if existing != nil {
				return existing, nil
			}
		}
	}
	return nil, &Error{Kind: KindStorage, Op: op, Message: "could not allocate a unique site slug"}
}

// siteTitle picks the title a site slug is derived from: the title column,
// then data.meta.title.
func siteTitle(t *models.Template) string {
	if title := strings.TrimSpace(t.Title); title != "" {
		return title
	}
	doc, err := docjson.Decode(t.Data)
	if err != nil {
		return ""
	}
	meta, _ := doc["meta"].(map[string]any)
	title, _ := meta["title"].(string)
	return strings.TrimSpace(title)
}

// siteURL prefers the custom domain over the platform subdomain.
func (s *Service) siteURL(site *models.Site) string {
	if site.Domain != nil && *site.Domain != "" {
		return s.scheme + "://" + *site.Domain
	}
	if s.baseDomain == "" {
		return s.scheme + "://" + site.Slug
	}
	return s.scheme + "://" + site.Slug + "." + s.baseDomain
}

// SiteView is a site plus its public URL.
type SiteView struct {
	models.Site
	URL string `json:"url"`
}

// ResolveSite returns the published site for a public slug, reading through
// the cache. Unpublished sites are not found.
func (s *Service) ResolveSite(ctx context.Context, siteSlug string) (*SiteView, error) {
	const op = "resolve site"

	if s.cache != nil {
		if site, ok := s.cache.Get(ctx, siteSlug); ok {
			return &SiteView{Site: *site, URL: s.siteURL(site)}, nil
		}
	}

	site, err := s.sites.FindBySlug(ctx, siteSlug)
	if err != nil {
		return nil, classify(op, err)
	}
	if site == nil || !site.IsPublished() {
		return nil, notFound(op, "site")
	}
	if s.cache != nil {
		s.cache.Set(ctx, site)
	}
	return &SiteView{Site: *site, URL: s.siteURL(site)}, nil
}

// SetDomain sets the custom domain of an existing site, or clears it when
// domain is empty.
func (s *Service) SetDomain(ctx context.Context, templateID uuid.UUID, domain string) (*SiteView, error) {
	const op = "set site domain"

	site, err := s.sites.FindByTemplateID(ctx, templateID)
	if err != nil {
		return nil, classify(op, err)
	}
	if site == nil {
		return nil, notFound(op, "site")
	}

	var d *string
	if domain = strings.ToLower(strings.TrimSpace(domain)); domain != "" {
		d = &domain
	}
	site, err = s.sites.UpdateDomain(ctx, site.ID, d)
	if err != nil {
		return nil, classify(op, err)
	}
	if s.cache != nil {
		if site.IsPublished() {
			s.cache.Set(ctx, site)
		} else {
			s.cache.Invalidate(ctx, site.Slug)
		}
	}
	return &SiteView{Site: *site, URL: s.siteURL(site)}, nil
}
