// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Snapshot is an immutable, content-addressed capture of a template's
// document at a given revision. Hash is the hex SHA-256 of the canonical
// serialization of FullData.
type Snapshot struct {
	ID         uuid.UUID       `json:"id"`
	TemplateID uuid.UUID       `json:"template_id"`
	Rev        int             `json:"rev"`
	FullData   json.RawMessage `json:"full_data"`
	Hash       string          `json:"hash"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Matches reports whether the snapshot already captures the given revision
// and content hash.
func (s *Snapshot) Matches(rev int, hash string) bool {
	return s.Rev == rev && s.Hash == hash
}
