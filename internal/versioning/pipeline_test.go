package versioning

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecraft/internal/models"
)

func TestEnsureSnapshotIdempotentAndDistinct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tmpl := f.create(t, map[string]any{"title": "Snaps"})

	first, err := f.svc.EnsureSnapshot(ctx, tmpl.ID, nil)
	require.NoError(t, err)
	again, err := f.svc.EnsureSnapshot(ctx, tmpl.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "no intervening commit reuses the snapshot")

	_, err = f.svc.Commit(ctx, CommitInput{TemplateID: tmpl.ID, Patch: mergePatch(`{"data":{"meta":{"v":2}}}`)})
	require.NoError(t, err)

	third, err := f.svc.EnsureSnapshot(ctx, tmpl.ID, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
	assert.False(t, third.Matches(first.Rev, first.Hash))
	assert.Equal(t, 1, third.Rev)

	list, err := f.svc.ListSnapshots(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestEnsureSnapshotExplicitID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, map[string]any{"title": "A"})
	b := f.create(t, map[string]any{"title": "B"})

	snapA, err := f.svc.EnsureSnapshot(ctx, a.ID, nil)
	require.NoError(t, err)

	got, err := f.svc.EnsureSnapshot(ctx, a.ID, &snapA.ID)
	require.NoError(t, err)
	assert.Equal(t, snapA.ID, got.ID)

	_, err = f.svc.EnsureSnapshot(ctx, b.ID, &snapA.ID)
	assert.True(t, IsNotFound(err), "a snapshot of another template is not found")

	missing := uuid.New()
	_, err = f.svc.EnsureSnapshot(ctx, a.ID, &missing)
	assert.True(t, IsNotFound(err))

	_, err = f.svc.EnsureSnapshot(ctx, uuid.New(), nil)
	assert.True(t, IsNotFound(err))
}

// recordingArchive remembers archived snapshots and can be told to fail.
type recordingArchive struct {
	mu   sync.Mutex
	puts []uuid.UUID
	err  error
}

func (a *recordingArchive) PutSnapshot(_ context.Context, sn *models.Snapshot) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.puts = append(a.puts, sn.ID)
	return a.err
}

func TestSnapshotArchiveIsBestEffort(t *testing.T) {
	archive := &recordingArchive{err: errors.New("bucket unavailable")}
	f := newFixture(t, func(d *Deps) { d.Archive = archive })
	tmpl := f.create(t, map[string]any{"title": "Archived"})

	sn, err := f.svc.EnsureSnapshot(context.Background(), tmpl.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{sn.ID}, archive.puts)

	// Deduplicated calls do not archive again.
	_, err = f.svc.EnsureSnapshot(context.Background(), tmpl.ID, nil)
	require.NoError(t, err)
	assert.Len(t, archive.puts, 1)
}

// mapCache is an in-memory SiteCache.
type mapCache struct {
	mu    sync.Mutex
	sites map[string]models.Site
	gets  int
}

func newMapCache() *mapCache { return &mapCache{sites: make(map[string]models.Site)} }

func (c *mapCache) Get(_ context.Context, slug string) (*models.Site, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	s, ok := c.sites[slug]
	if !ok {
		return nil, false
	}
	return &s, true
}

func (c *mapCache) Set(_ context.Context, site *models.Site) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sites[site.Slug] = *site
}

func (c *mapCache) Invalidate(_ context.Context, slug string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sites, slug)
}

func TestPublishWritesThroughCacheAndResolves(t *testing.T) {
	cache := newMapCache()
	f := newFixture(t, func(d *Deps) { d.Cache = cache })
	ctx := context.Background()
	tmpl := f.create(t, map[string]any{"title": "Cached Site"})

	pub, err := f.svc.Publish(ctx, tmpl.ID, nil)
	require.NoError(t, err)
	cached, ok := cache.sites[pub.Slug]
	require.True(t, ok)
	assert.Equal(t, pub.SnapshotID, *cached.PublishedSnapshotID)

	view, err := f.svc.ResolveSite(ctx, pub.Slug)
	require.NoError(t, err)
	assert.Equal(t, pub.URL, view.URL)

	_, err = f.svc.ResolveSite(ctx, "nope")
	assert.True(t, IsNotFound(err))
}

func TestResolveSiteHidesUnpublished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tmpl := f.create(t, map[string]any{"title": "Inert"})

	_, err := f.db.Sites().Create(ctx, tmpl.ID, "inert")
	require.NoError(t, err)

	_, err = f.svc.ResolveSite(ctx, "inert")
	assert.True(t, IsNotFound(err))
}

func TestPublishSlugFallbacks(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want string
	}{
		{name: "title column", raw: map[string]any{"title": "Café Luna"}, want: "cafe-luna"},
		{name: "meta title", raw: map[string]any{"data": map[string]any{"meta": map[string]any{"title": "From Meta"}}}, want: "from-meta"},
		{name: "default", raw: map[string]any{}, want: "site"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tmpl := f.create(t, tt.raw)
			pub, err := f.svc.Publish(context.Background(), tmpl.ID, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pub.Slug)
		})
	}
}

func TestPublishSlugCollisionGetsSuffix(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, map[string]any{"title": "Twins"})
	b := f.create(t, map[string]any{"title": "Twins"})

	pubA, err := f.svc.Publish(ctx, a.ID, nil)
	require.NoError(t, err)
	pubB, err := f.svc.Publish(ctx, b.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, "twins", pubA.Slug)
	assert.Regexp(t, `^twins-[0-9][a-z0-9]{5}$`, pubB.Slug)
}

// takenSlugs reports every slug as taken.
type takenSlugs struct{ SiteRepository }

func (takenSlugs) SlugExists(context.Context, string) (bool, error) { return true, nil }

func TestPublishSlugExhaustion(t *testing.T) {
	f := newFixture(t, func(d *Deps) {
		d.Sites = takenSlugs{d.Sites}
		d.SlugAttempts = 3
	})
	tmpl := f.create(t, map[string]any{"title": "Crowded"})

	_, err := f.svc.Publish(context.Background(), tmpl.ID, nil)
	require.Error(t, err)
	assert.Equal(t, KindStorage, KindOf(err))
}

func TestPublishNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Publish(context.Background(), uuid.New(), nil)
	assert.True(t, IsNotFound(err))
}

func TestSetDomain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tmpl := f.create(t, map[string]any{"title": "Domains"})

	_, err := f.svc.SetDomain(ctx, tmpl.ID, "shop.example.com")
	assert.True(t, IsNotFound(err), "a site exists only after the first publish")

	_, err = f.svc.Publish(ctx, tmpl.ID, nil)
	require.NoError(t, err)

	view, err := f.svc.SetDomain(ctx, tmpl.ID, "  Shop.Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com", view.URL)

	pub, err := f.svc.Publish(ctx, tmpl.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com", pub.URL)

	other := f.create(t, map[string]any{"title": "Other"})
	_, err = f.svc.Publish(ctx, other.ID, nil)
	require.NoError(t, err)
	_, err = f.svc.SetDomain(ctx, other.ID, "shop.example.com")
	assert.True(t, IsConflict(err))

	view, err = f.svc.SetDomain(ctx, tmpl.ID, "")
	require.NoError(t, err)
	assert.Nil(t, view.Domain)
	assert.Equal(t, "https://domains.pagecraft.test", view.URL)
}

func TestRestoreNoSnapshotsIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tmpl := f.create(t, map[string]any{"title": "Empty"})

	res, err := f.svc.Restore(ctx, RestoreInput{TemplateID: tmpl.ID})
	require.NoError(t, err)
	assert.Nil(t, res.SnapshotID)
	assert.Equal(t, StoredViaNone, res.StoredVia)

	current, err := f.svc.Get(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, current.Rev)
	assert.Equal(t, string(tmpl.Data), string(current.Data))
}

func TestRestoreGoesThroughCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tmpl := f.create(t, map[string]any{"title": "Restore Me", "pages": []any{
		map[string]any{"id": "original", "content_blocks": []any{}},
	}})

	snap, err := f.svc.EnsureSnapshot(ctx, tmpl.ID, nil)
	require.NoError(t, err)

	_, err = f.svc.Commit(ctx, CommitInput{
		TemplateID: tmpl.ID,
		Patch:      mergePatch(`{"title":"Renamed","data":{"pages":[{"id":"edited","content_blocks":[]}]}}`),
	})
	require.NoError(t, err)

	res, err := f.svc.Restore(ctx, RestoreInput{TemplateID: tmpl.ID, Message: "undo", Actor: "user-2"})
	require.NoError(t, err)
	assert.Equal(t, StoredViaCommit, res.StoredVia)
	require.NotNil(t, res.SnapshotID)
	assert.Equal(t, snap.ID, *res.SnapshotID)
	assert.Equal(t, 2, res.Rev)

	current, err := f.svc.Get(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, current.Rev)
	assert.JSONEq(t, string(snap.FullData), string(current.Data))
	assert.Equal(t, "Renamed", current.Title, "restore replaces the document, not the columns")

	events, err := f.db.Events().ListByTemplate(ctx, tmpl.ID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, models.EventRestore, events[0].Type)
	assert.Equal(t, snap.ID.String(), events[0].Meta["snapshot_id"])
	assert.Equal(t, "undo", events[0].Meta["message"])
}

func TestRestoreExplicitSnapshotOfOtherTemplate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, map[string]any{"title": "A"})
	b := f.create(t, map[string]any{"title": "B"})
	snapA, err := f.svc.EnsureSnapshot(ctx, a.ID, nil)
	require.NoError(t, err)

	_, err = f.svc.Restore(ctx, RestoreInput{TemplateID: b.ID, SnapshotID: &snapA.ID})
	assert.True(t, IsNotFound(err))

	_, err = f.svc.Restore(ctx, RestoreInput{TemplateID: uuid.New()})
	assert.True(t, IsNotFound(err))
}

// brokenCommits fails every commit with a non-conflict storage error.
type brokenCommits struct{ TemplateRepository }

func (brokenCommits) CommitRevision(context.Context, uuid.UUID, int, models.TemplateWrite) (int, error) {
	return 0, errors.New("permission denied for table templates")
}

func TestRestoreDegradesOnWriteFailure(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.Templates = brokenCommits{d.Templates} })
	ctx := context.Background()
	tmpl := f.create(t, map[string]any{"title": "Guarded"})
	snap, err := f.svc.EnsureSnapshot(ctx, tmpl.ID, nil)
	require.NoError(t, err)

	res, err := f.svc.Restore(ctx, RestoreInput{TemplateID: tmpl.ID})
	require.NoError(t, err)
	assert.Equal(t, StoredViaDegraded, res.StoredVia)
	assert.Contains(t, res.Reason, "permission denied")
	assert.Equal(t, snap.ID, *res.SnapshotID)
	assert.Equal(t, 0, res.Rev)
}

func TestRestoreSurfacesConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tmpl := f.create(t, map[string]any{"title": "Racy"})
	_, err := f.svc.EnsureSnapshot(ctx, tmpl.ID, nil)
	require.NoError(t, err)

	// A commit sneaks in between the restore's read and its write.
	f.svc.templates = interleavingCommits{f.svc.templates}
	_, err = f.svc.Restore(ctx, RestoreInput{TemplateID: tmpl.ID})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

// interleavingCommits lets another writer commit right before each write.
type interleavingCommits struct{ TemplateRepository }

func (r interleavingCommits) CommitRevision(ctx context.Context, id uuid.UUID, baseRev int, w models.TemplateWrite) (int, error) {
	if _, err := r.TemplateRepository.CommitRevision(ctx, id, baseRev, w); err != nil {
		return 0, err
	}
	return r.TemplateRepository.CommitRevision(ctx, id, baseRev, w)
}
