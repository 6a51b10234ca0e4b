// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package versioning is the template document pipeline: commits under
// optimistic concurrency, content-addressed snapshots, publishing a snapshot
// to a site, restoring from history, and the merged history feed.
package versioning

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pagecraft/internal/metrics"
	"pagecraft/internal/models"
)

// TemplateRepository stores live templates. CommitRevision is the only
// write path for a template's document.
type TemplateRepository interface {
	Create(ctx context.Context, t *models.Template) (*models.Template, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Template, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Template, error)
	Archive(ctx context.Context, id uuid.UUID) error
	CommitRevision(ctx context.Context, id uuid.UUID, baseRev int, w models.TemplateWrite) (int, error)
}

// SnapshotRepository stores append-only snapshots.
type SnapshotRepository interface {
	Create(ctx context.Context, sn *models.Snapshot) (*models.Snapshot, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Snapshot, error)
	Latest(ctx context.Context, templateID uuid.UUID) (*models.Snapshot, error)
	ListByTemplate(ctx context.Context, templateID uuid.UUID) ([]models.Snapshot, error)
}

// SiteRepository stores the published site records.
type SiteRepository interface {
	FindByTemplateID(ctx context.Context, templateID uuid.UUID) (*models.Site, error)
	FindBySlug(ctx context.Context, slug string) (*models.Site, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, templateID uuid.UUID, slug string) (*models.Site, error)
	UpdatePublishPointer(ctx context.Context, siteID uuid.UUID, p models.PublishPointer) (*models.Site, error)
	UpdateDomain(ctx context.Context, siteID uuid.UUID, domain *string) (*models.Site, error)
}

// EventRepository stores the explicit history log.
type EventRepository interface {
	Insert(ctx context.Context, e *models.Event) error
	ListByTemplate(ctx context.Context, templateID uuid.UUID, limit int) ([]models.Event, error)
}

// SiteCache is a read-through cache of published sites keyed by slug.
type SiteCache interface {
	Get(ctx context.Context, slug string) (*models.Site, bool)
	Set(ctx context.Context, site *models.Site)
	Invalidate(ctx context.Context, slug string)
}

// SnapshotArchive copies snapshot documents to object storage.
type SnapshotArchive interface {
	PutSnapshot(ctx context.Context, sn *models.Snapshot) error
}

// Default limits.
const (
	DefaultSlugAttempts = 20
	DefaultHistoryLimit = 300
	DefaultScheme       = "https"
)

// Deps wires a Service. Cache and Archive are optional.
type Deps struct {
	Templates TemplateRepository
	Snapshots SnapshotRepository
	Sites     SiteRepository
	Events    EventRepository

	Cache   SiteCache
	Archive SnapshotArchive

	// BaseDomain is the platform domain published sites get a subdomain of.
	BaseDomain   string
	Scheme       string
	SlugAttempts int
	HistoryLimit int
	Now          func() time.Time
}

// Service runs the pipeline. It is stateless and safe for concurrent use.
type Service struct {
	templates TemplateRepository
	snapshots SnapshotRepository
	sites     SiteRepository
	events    EventRepository
	cache     SiteCache
	archive   SnapshotArchive

	baseDomain   string
	scheme       string
	slugAttempts int
	historyLimit int
	now          func() time.Time
}

// New creates a Service from d, filling in defaults.
func New(d Deps) *Service {
	s := &Service{
		templates:    d.Templates,
		snapshots:    d.Snapshots,
		sites:        d.Sites,
		events:       d.Events,
		cache:        d.Cache,
		archive:      d.Archive,
		baseDomain:   d.BaseDomain,
		scheme:       d.Scheme,
		slugAttempts: d.SlugAttempts,
		historyLimit: d.HistoryLimit,
		now:          d.Now,
	}
	if s.scheme == "" {
		s.scheme = DefaultScheme
	}
	if s.slugAttempts <= 0 {
		s.slugAttempts = DefaultSlugAttempts
	}
	if s.historyLimit <= 0 {
		s.historyLimit = DefaultHistoryLimit
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// recordEvent writes an explicit history event. Failures are logged and
// counted, never returned.
func (s *Service) recordEvent(ctx context.Context, e *models.Event) {
	if s.events == nil {
		return
	}
	if e.At.IsZero() {
		e.At = s.now()
	}
	e.Source = models.SourceExplicit
	if err := s.events.Insert(ctx, e); err != nil {
		metrics.EventWriteFailures.WithLabelValues(string(e.Type)).Inc()
		slog.Warn("failed to record template event",
			"template_id", e.TemplateID,
			"type", e.Type,
			"error", err,
		)
	}
}

func intPtr(v int) *int { return &v }

func actorPtr(actor string) *string {
	if actor == "" {
		return nil
	}
	return &actor
}
