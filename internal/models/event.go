// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType is what happened to a template.
type EventType string

const (
	EventOpen     EventType = "open"
	EventAutosave EventType = "autosave"
	EventSave     EventType = "save"
	EventSnapshot EventType = "snapshot"
	EventPublish  EventType = "publish"
	EventRestore  EventType = "restore"
)

// EventSource tells explicit log rows apart from entries synthesized at read
// time out of snapshot rows and site publish bookkeeping.
type EventSource string

const (
	SourceExplicit            EventSource = "explicit"
	SourceSynthesizedSnapshot EventSource = "synthesized-snapshot"
	SourceSynthesizedPublish  EventSource = "synthesized-publish"
)

// Event is one entry of a template's history feed. Events are an
// observability aid, not an authoritative record.
type Event struct {
	ID            uuid.UUID       `json:"id"`
	TemplateID    uuid.UUID       `json:"template_id"`
	Type          EventType       `json:"type"`
	Source        EventSource     `json:"source"`
	At            time.Time       `json:"at"`
	RevBefore     *int            `json:"rev_before,omitempty"`
	RevAfter      *int            `json:"rev_after,omitempty"`
	ActorID       *string         `json:"actor_id,omitempty"`
	FieldsTouched []string        `json:"fields_touched,omitempty"`
	Diff          json.RawMessage `json:"diff,omitempty"`
	Meta          map[string]any  `json:"meta,omitempty"`
}
