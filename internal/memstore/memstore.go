// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package memstore is an in-memory backend with the same semantics as the
// PostgreSQL stores: compare-and-swap commits, unique live template slugs,
// unique site slugs, and an optional events relation. It backs the service
// tests and the "memory" database driver for local runs.
package memstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"pagecraft/internal/models"
	"pagecraft/internal/store"
)

// Constraint names match the PostgreSQL schema.
const (
	templateSlugConstraint = "templates_slug_live_key"
	siteDomainConstraint   = "sites_domain_key"
)

// ErrNoEventsRelation is returned by event inserts after DropEvents.
var ErrNoEventsRelation = errors.New(`relation "template_events" does not exist`)

// DB holds every table behind one mutex.
type DB struct {
	mu  sync.Mutex
	now func() time.Time

	templates map[uuid.UUID]*models.Template
	snapshots map[uuid.UUID][]*models.Snapshot
	sites     map[uuid.UUID]*models.Site
	events    map[uuid.UUID][]models.Event
	noEvents  bool
}

// New returns an empty database using the wall clock.
func New() *DB {
	return NewWithClock(time.Now)
}

// NewWithClock returns an empty database whose timestamps come from now.
func NewWithClock(now func() time.Time) *DB {
	return &DB{
		now:       now,
		templates: make(map[uuid.UUID]*models.Template),
		snapshots: make(map[uuid.UUID][]*models.Snapshot),
		sites:     make(map[uuid.UUID]*models.Site),
		events:    make(map[uuid.UUID][]models.Event),
	}
}

// DropEvents makes the events relation disappear, as on a deployment that
// never ran its migration.
func (db *DB) DropEvents() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.noEvents = true
	db.events = make(map[uuid.UUID][]models.Event)
}

// Templates returns the template repository.
func (db *DB) Templates() *Templates { return &Templates{db: db} }

// Snapshots returns the snapshot repository.
func (db *DB) Snapshots() *Snapshots { return &Snapshots{db: db} }

// Sites returns the site repository.
func (db *DB) Sites() *Sites { return &Sites{db: db} }

// Events returns the event repository.
func (db *DB) Events() *Events { return &Events{db: db} }

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}

func cloneTemplate(t *models.Template) *models.Template {
	cp := *t
	cp.Data = cloneRaw(t.Data)
	cp.HeaderBlock = cloneRaw(t.HeaderBlock)
	cp.FooterBlock = cloneRaw(t.FooterBlock)
	return &cp
}

// Templates implements the template repository.
type Templates struct{ db *DB }

func (r *Templates) Create(_ context.Context, t *models.Template) (*models.Template, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()

	if !t.IsVersion {
		for _, existing := range db.templates {
			if !existing.IsVersion && existing.Slug == t.Slug {
				return nil, fmt.Errorf("create template: %w", &store.DuplicateError{Constraint: templateSlugConstraint})
			}
		}
	}

	cp := cloneTemplate(t)
	cp.ID = uuid.New()
	cp.Rev = 0
	if len(cp.Data) == 0 {
		cp.Data = json.RawMessage(`{"pages":[]}`)
	}
	now := db.now()
	cp.CreatedAt, cp.UpdatedAt = now, now
	db.templates[cp.ID] = cp
	return cloneTemplate(cp), nil
}

func (r *Templates) FindByID(_ context.Context, id uuid.UUID) (*models.Template, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.templates[id]
	if !ok {
		return nil, nil
	}
	return cloneTemplate(t), nil
}

func (r *Templates) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]models.Template, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Template
	for _, t := range r.db.templates {
		if t.OwnerID == ownerID && !t.Archived && !t.IsVersion {
			out = append(out, *cloneTemplate(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *Templates) Archive(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.templates[id]
	if !ok {
		return fmt.Errorf("archive template: %w", store.ErrNotFound)
	}
	t.Archived = true
	t.UpdatedAt = r.db.now()
	return nil
}

// CommitRevision checks and writes under the database mutex, so no other
// commit can interleave.
func (r *Templates) CommitRevision(_ context.Context, id uuid.UUID, baseRev int, w models.TemplateWrite) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.templates[id]
	if !ok || t.IsVersion {
		return 0, fmt.Errorf("commit template: %w", store.ErrNotFound)
	}
	if t.Rev != baseRev {
		return 0, &store.StaleRevisionError{TemplateID: id, Expected: baseRev, Current: t.Rev}
	}

	t.Title = w.Title
	t.Description = w.Description
	t.FaviconURL = w.FaviconURL
	t.ColorMode = w.ColorMode
	t.CategoryID = w.CategoryID
	t.ThemeID = w.ThemeID
	t.Data = cloneRaw(w.Data)
	t.HeaderBlock = cloneRaw(w.HeaderBlock)
	t.FooterBlock = cloneRaw(w.FooterBlock)
	t.Rev++
	t.UpdatedAt = r.db.now()
	return t.Rev, nil
}

// Snapshots implements the append-only snapshot repository.
type Snapshots struct{ db *DB }

func cloneSnapshot(s *models.Snapshot) *models.Snapshot {
	cp := *s
	cp.FullData = cloneRaw(s.FullData)
	return &cp
}

func (r *Snapshots) Create(_ context.Context, sn *models.Snapshot) (*models.Snapshot, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.templates[sn.TemplateID]; !ok {
		return nil, fmt.Errorf("create snapshot: template %s does not exist", sn.TemplateID)
	}
	cp := cloneSnapshot(sn)
	cp.ID = uuid.New()
	cp.CreatedAt = r.db.now()
	r.db.snapshots[sn.TemplateID] = append(r.db.snapshots[sn.TemplateID], cp)
	return cloneSnapshot(cp), nil
}

func (r *Snapshots) FindByID(_ context.Context, id uuid.UUID) (*models.Snapshot, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, list := range r.db.snapshots {
		for _, sn := range list {
			if sn.ID == id {
				return cloneSnapshot(sn), nil
			}
		}
	}
	return nil, nil
}

// Latest returns the most recently inserted snapshot.
func (r *Snapshots) Latest(_ context.Context, templateID uuid.UUID) (*models.Snapshot, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	list := r.db.snapshots[templateID]
	if len(list) == 0 {
		return nil, nil
	}
	return cloneSnapshot(list[len(list)-1]), nil
}

func (r *Snapshots) ListByTemplate(_ context.Context, templateID uuid.UUID) ([]models.Snapshot, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	list := r.db.snapshots[templateID]
	out := make([]models.Snapshot, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, *cloneSnapshot(list[i]))
	}
	return out, nil
}

// Sites implements the site repository.
type Sites struct{ db *DB }

func cloneSite(s *models.Site) *models.Site {
	cp := *s
	return &cp
}

func (r *Sites) find(match func(*models.Site) bool) *models.Site {
	for _, s := range r.db.sites {
		if match(s) {
			return cloneSite(s)
		}
	}
	return nil
}

func (r *Sites) FindByTemplateID(_ context.Context, templateID uuid.UUID) (*models.Site, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.find(func(s *models.Site) bool { return s.TemplateID == templateID }), nil
}

func (r *Sites) FindBySlug(_ context.Context, slug string) (*models.Site, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.find(func(s *models.Site) bool { return s.Slug == slug }), nil
}

func (r *Sites) SlugExists(_ context.Context, slug string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.find(func(s *models.Site) bool { return s.Slug == slug }) != nil, nil
}

func (r *Sites) Create(_ context.Context, templateID uuid.UUID, slug string) (*models.Site, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, s := range r.db.sites {
		if s.TemplateID == templateID {
			return nil, fmt.Errorf("create site: %w", &store.DuplicateError{Constraint: store.SiteTemplateConstraint})
		}
		if s.Slug == slug {
			return nil, fmt.Errorf("create site: %w", &store.DuplicateError{Constraint: store.SiteSlugConstraint})
		}
	}
	now := r.db.now()
	site := &models.Site{
		ID:         uuid.New(),
		TemplateID: templateID,
		Slug:       slug,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.db.sites[site.ID] = site
	return cloneSite(site), nil
}

func (r *Sites) UpdatePublishPointer(_ context.Context, siteID uuid.UUID, p models.PublishPointer) (*models.Site, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	site, ok := r.db.sites[siteID]
	if !ok {
		return nil, fmt.Errorf("update publish pointer: %w", store.ErrNotFound)
	}
	snapID, rev, at := p.SnapshotID, p.Rev, p.At
	site.PublishedSnapshotID = &snapID
	site.PublishedRev = &rev
	site.PublishedAt = &at
	site.UpdatedAt = r.db.now()
	return cloneSite(site), nil
}

func (r *Sites) UpdateDomain(_ context.Context, siteID uuid.UUID, domain *string) (*models.Site, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	site, ok := r.db.sites[siteID]
	if !ok {
		return nil, fmt.Errorf("update site domain: %w", store.ErrNotFound)
	}
	if domain != nil {
		for _, other := range r.db.sites {
			if other.ID != siteID && other.Domain != nil && *other.Domain == *domain {
				return nil, fmt.Errorf("update site domain: %w", &store.DuplicateError{Constraint: siteDomainConstraint})
			}
		}
		d := *domain
		domain = &d
	}
	site.Domain = domain
	site.UpdatedAt = r.db.now()
	return cloneSite(site), nil
}

// Events implements the explicit event log.
type Events struct{ db *DB }

func (r *Events) Insert(_ context.Context, e *models.Event) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.noEvents {
		return fmt.Errorf("insert template event: %w", ErrNoEventsRelation)
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	cp := *e
	cp.Source = models.SourceExplicit
	cp.Diff = cloneRaw(e.Diff)
	r.db.events[e.TemplateID] = append(r.db.events[e.TemplateID], cp)
	return nil
}

// ListByTemplate returns at most limit events, most recent first. After
// DropEvents it reads as zero rows.
func (r *Events) ListByTemplate(_ context.Context, templateID uuid.UUID, limit int) ([]models.Event, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.noEvents {
		return nil, nil
	}
	list := r.db.events[templateID]
	out := make([]models.Event, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, list[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
