// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Site is the published projection of exactly one template. It is created
// lazily on the first publish request and its pointer is reassigned on every
// subsequent publish. A site with a nil PublishedSnapshotID is valid and inert.
type Site struct {
	ID                  uuid.UUID  `json:"id"`
	TemplateID          uuid.UUID  `json:"template_id"`
	Slug                string     `json:"slug"`
	Domain              *string    `json:"domain,omitempty"`
	PublishedSnapshotID *uuid.UUID `json:"published_snapshot_id,omitempty"`
	PublishedRev        *int       `json:"published_rev,omitempty"`
	PublishedAt         *time.Time `json:"published_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// IsPublished returns true once the site has pointed at a snapshot.
func (s *Site) IsPublished() bool {
	return s.PublishedSnapshotID != nil && s.PublishedAt != nil
}

// PublishPointer is the last-writer-wins publish state written onto a site.
type PublishPointer struct {
	SnapshotID uuid.UUID
	Rev        int
	At         time.Time
}
