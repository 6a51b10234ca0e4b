// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package versioning

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pagecraft/internal/models"
)

// History returns the template's feed, most recent first. Explicit events,
// snapshots, and the site are loaded concurrently and merged by MergeHistory.
func (s *Service) History(ctx context.Context, templateID uuid.UUID) ([]models.Event, error) {
	const op = "history"
	if _, err := s.Get(ctx, templateID); err != nil {
		return nil, err
	}

	var (
		explicit  []models.Event
		snapshots []models.Snapshot
		site      *models.Site
	)
	g, gctx := errgroup.WithContext(ctx)
	if s.events != nil {
		g.Go(func() error {
			var err error
			explicit, err = s.events.ListByTemplate(gctx, templateID, s.historyLimit)
			return err
		})
	}
	g.Go(func() error {
		var err error
		snapshots, err = s.snapshots.ListByTemplate(gctx, templateID)
		return err
	})
	g.Go(func() error {
		var err error
		site, err = s.sites.FindByTemplateID(gctx, templateID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, classify(op, err)
	}

	return MergeHistory(explicit, snapshots, site), nil
}

// MergeHistory builds the feed from its three sources:
//   - explicit events, always kept;
//   - one synthesized snapshot event per snapshot, only when there are no
//     explicit events;
//   - one synthesized publish event when the site has been published,
//     unless an explicit publish of the same snapshot at the same instant
//     is already present.
//
// The result is sorted by time, most recent first; ties keep source order.
func MergeHistory(explicit []models.Event, snapshots []models.Snapshot, site *models.Site) []models.Event {
	out := make([]models.Event, 0, len(explicit)+len(snapshots)+1)
	for _, e := range explicit {
		e.Source = models.SourceExplicit
		out = append(out, e)
	}

	if len(explicit) == 0 {
		for _, sn := range snapshots {
			out = append(out, snapshotEvent(sn))
		}
	}

	if site != nil && site.IsPublished() && !hasExplicitPublish(explicit, site) {
		out = append(out, publishEvent(site))
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	return out
}

func snapshotEvent(sn models.Snapshot) models.Event {
	return models.Event{
		ID:         sn.ID,
		TemplateID: sn.TemplateID,
		Type:       models.EventSnapshot,
		Source:     models.SourceSynthesizedSnapshot,
		At:         sn.CreatedAt,
		RevAfter:   intPtr(sn.Rev),
		Meta: map[string]any{
			"snapshot_id": sn.ID.String(),
			"hash":        sn.Hash,
			"snapshot":    json.RawMessage(sn.FullData),
		},
	}
}

func publishEvent(site *models.Site) models.Event {
	e := models.Event{
		ID:         site.ID,
		TemplateID: site.TemplateID,
		Type:       models.EventPublish,
		Source:     models.SourceSynthesizedPublish,
		At:         *site.PublishedAt,
		Meta: map[string]any{
			"snapshot_id": site.PublishedSnapshotID.String(),
			"site_id":     site.ID.String(),
			"slug":        site.Slug,
		},
	}
	if site.PublishedRev != nil {
		e.RevAfter = intPtr(*site.PublishedRev)
	}
	return e
}

func hasExplicitPublish(explicit []models.Event, site *models.Site) bool {
	want := site.PublishedSnapshotID.String()
	for _, e := range explicit {
		if e.Type != models.EventPublish || !e.At.Equal(*site.PublishedAt) {
			continue
		}
		if id, _ := e.Meta["snapshot_id"].(string); id == want {
			return true
		}
	}
	return false
}
