// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"pagecraft/internal/models"
)

const (
	// siteKeyPrefix is the Valkey key prefix for cached sites.
	siteKeyPrefix = "site:"

	// DefaultSiteTTL is how long a resolved site stays cached.
	DefaultSiteTTL = 5 * time.Minute
)

// SiteCache caches published site records in Valkey, keyed by slug.
// Every failure is logged and treated as a miss.
type SiteCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSiteCache creates a site cache backed by the given Valkey client.
func NewSiteCache(client *redis.Client, ttl time.Duration) *SiteCache {
	if ttl <= 0 {
		ttl = DefaultSiteTTL
	}
	return &SiteCache{client: client, ttl: ttl}
}

// SiteKey returns the cache key for a site slug.
func SiteKey(slug string) string {
	return siteKeyPrefix + slug
}

// Get returns the cached site for slug.
func (c *SiteCache) Get(ctx context.Context, slug string) (*models.Site, bool) {
	val, err := c.client.Get(ctx, SiteKey(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("site cache get error", "slug", slug, "error", err)
		return nil, false
	}

	var site models.Site
	if err := json.Unmarshal(val, &site); err != nil {
		slog.Warn("site cache entry unreadable", "slug", slug, "error", err)
		c.Invalidate(ctx, slug)
		return nil, false
	}
	slog.Debug("site cache hit", "slug", slug)
	return &site, true
}

// Set stores a site under its slug with the configured TTL.
func (c *SiteCache) Set(ctx context.Context, site *models.Site) {
	val, err := json.Marshal(site)
	if err != nil {
		slog.Warn("site cache encode error", "slug", site.Slug, "error", err)
		return
	}
	if err := c.client.Set(ctx, SiteKey(site.Slug), val, c.ttl).Err(); err != nil {
		slog.Warn("site cache set error", "slug", site.Slug, "error", err)
	}
}

// Invalidate removes a single site from the cache.
func (c *SiteCache) Invalidate(ctx context.Context, slug string) {
	if err := c.client.Del(ctx, SiteKey(slug)).Err(); err != nil {
		slog.Warn("site cache invalidate error", "slug", slug, "error", err)
		return
	}
	slog.Debug("site cache invalidated", "slug", slug)
}
