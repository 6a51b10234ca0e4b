// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BlockType identifies the kind of a content block inside a page.
type BlockType string

const (
	BlockTypeHeader BlockType = "header"
	BlockTypeFooter BlockType = "footer"
)

// IsChrome reports whether blocks of this type render only through the
// template's shared header/footer and never inside a page body.
func (b BlockType) IsChrome() bool {
	return b == BlockTypeHeader || b == BlockTypeFooter
}

// Template is the live, mutable site document a user edits. Data holds the
// canonical JSON document: { pages, headerBlock?, footerBlock?, meta?, color_mode? }.
// Rev starts at 0 and is incremented by exactly one on every successful commit.
type Template struct {
	ID          uuid.UUID       `json:"id"`
	OwnerID     uuid.UUID       `json:"owner_id"`
	Slug        string          `json:"slug"`
	BaseSlug    string          `json:"base_slug"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	FaviconURL  *string         `json:"favicon_url,omitempty"`
	ColorMode   *string         `json:"color_mode,omitempty"`
	CategoryID  *uuid.UUID      `json:"category_id,omitempty"`
	ThemeID     *uuid.UUID      `json:"theme_id,omitempty"`
	Rev         int             `json:"rev"`
	Data        json.RawMessage `json:"data"`
	HeaderBlock json.RawMessage `json:"header_block,omitempty"`
	FooterBlock json.RawMessage `json:"footer_block,omitempty"`
	Archived    bool            `json:"archived"`
	IsVersion   bool            `json:"is_version"`
	IsSite      bool            `json:"is_site"`
	Published   bool            `json:"published"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TemplateFields is the editable column set a commit may change.
type TemplateFields struct {
	Title       string
	Description *string
	FaviconURL  *string
	ColorMode   *string
	CategoryID  *uuid.UUID
	ThemeID     *uuid.UUID
}

// TemplateWrite is everything a successful commit persists in one statement.
type TemplateWrite struct {
	TemplateFields
	Data        json.RawMessage
	HeaderBlock json.RawMessage
	FooterBlock json.RawMessage
}

// Fields returns the template's current editable columns.
func (t *Template) Fields() TemplateFields {
	return TemplateFields{
		Title:       t.Title,
		Description: t.Description,
		FaviconURL:  t.FaviconURL,
		ColorMode:   t.ColorMode,
		CategoryID:  t.CategoryID,
		ThemeID:     t.ThemeID,
	}
}
