// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package normalize turns a loosely shaped template object into the payload
// that gets persisted: an allow-listed set of scalar columns plus a canonical
// JSON document whose header/footer chrome lives in exactly one place.
package normalize

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"pagecraft/internal/docjson"
	"pagecraft/internal/models"
)

// Options controls how the output document is shaped.
type Options struct {
	// StripChrome omits headerBlock/footerBlock from the output document.
	StripChrome bool
}

// Block is a single JSON object block, e.g. {"type":"header","props":{...}}.
type Block = map[string]any

// Result is the persistable form of a template.
type Result struct {
	Columns  map[string]any
	Data     map[string]any
	Document []byte
	Header   Block
	Footer   Block
}

type columnKind int

const (
	scalarColumn columnKind = iota
	refColumn
)

// columns is the allow-list of top-level fields copied into Result.Columns.
var columns = map[string]columnKind{
	"title":         scalarColumn,
	"description":   scalarColumn,
	"slug":          scalarColumn,
	"favicon_url":   scalarColumn,
	"thumbnail_url": scalarColumn,
	"color_mode":    scalarColumn,
	"owner_id":      refColumn,
	"category_id":   refColumn,
	"theme_id":      refColumn,
}

// Normalize builds the persistable form of raw. It is pure and idempotent:
// feeding Columns plus {"data": Data} back in yields the same Document.
func Normalize(raw map[string]any, opts Options) (*Result, error) {
	cols := make(map[string]any)
	for name, kind := range columns {
		v, ok := raw[name]
		if !ok || !isScalar(v) {
			continue
		}
		if kind == refColumn {
			if s, isStr := v.(string); isStr && s == "" {
				v = nil
			}
		}
		cols[name] = v
	}

	nested, _ := raw["data"].(map[string]any)
	if top, ok := cols["color_mode"]; !ok || top == nil {
		if cm, isStr := nested["color_mode"].(string); isStr {
			cols["color_mode"] = cm
		}
	}

	pages := resolvePages(raw, nested)
	src := source{top: raw, data: nested, pages: pages}
	header := resolveChrome(src, headerChrome)
	footer := resolveChrome(src, footerChrome)

	data := make(map[string]any, len(nested)+3)
	for k, v := range nested {
		data[k] = v
	}
	data["pages"] = stripChromeBlocks(pages)
	delete(data, headerChrome.key)
	delete(data, footerChrome.key)
	if !opts.StripChrome {
		if header != nil {
			data[headerChrome.key] = header
		}
		if footer != nil {
			data[footerChrome.key] = footer
		}
	}

	doc, err := docjson.Canonical(data)
	if err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}

	return &Result{
		Columns:  cols,
		Data:     data,
		Document: doc,
		Header:   header,
		Footer:   footer,
	}, nil
}

// HeaderJSON returns the canonical header block, or nil when there is none.
func (r *Result) HeaderJSON() (json.RawMessage, error) {
	return blockJSON(r.Header)
}

// FooterJSON returns the canonical footer block, or nil when there is none.
func (r *Result) FooterJSON() (json.RawMessage, error) {
	return blockJSON(r.Footer)
}

func blockJSON(b Block) (json.RawMessage, error) {
	if b == nil {
		return nil, nil
	}
	out, err := docjson.Canonical(b)
	if err != nil {
		return nil, fmt.Errorf("encode chrome block: %w", err)
	}
	return out, nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, json.Number, float64, int, int64:
		return true
	}
	return false
}

// resolvePages prefers a non-empty top-level pages array over data.pages.
func resolvePages(top, nested map[string]any) []any {
	if p, ok := top["pages"].([]any); ok && len(p) > 0 {
		return p
	}
	if p, ok := nested["pages"].([]any); ok {
		return p
	}
	return []any{}
}

// stripChromeBlocks returns copies of the pages whose content_blocks no
// longer contain header or footer blocks.
func stripChromeBlocks(pages []any) []any {
	out := make([]any, 0, len(pages))
	for _, p := range pages {
		page, ok := p.(map[string]any)
		if !ok {
			out = append(out, p)
			continue
		}
		cp := make(map[string]any, len(page))
		for k, v := range page {
			cp[k] = v
		}
		if blocks, ok := page["content_blocks"].([]any); ok {
			kept := make([]any, 0, len(blocks))
			for _, b := range blocks {
				if models.BlockType(blockType(b)).IsChrome() {
					continue
				}
				kept = append(kept, b)
			}
			cp["content_blocks"] = kept
		}
		out = append(out, cp)
	}
	return out
}

func blockType(b any) string {
	m, ok := b.(map[string]any)
	if !ok {
		return ""
	}
	t, _ := m["type"].(string)
	return t
}

// Length limits on editable columns. Text limits count runes, URL limits
// count bytes.
const (
	MaxTitleLen       = 300
	MaxDescriptionLen = 1_000
	MaxURLLen         = 2_000
)

// FieldError reports an allow-listed column whose value has the wrong shape.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Fields converts normalized columns into the typed editable column set.
// Absent columns come back as their zero value. A column over its length
// limit is a *FieldError.
func Fields(cols map[string]any) (models.TemplateFields, error) {
	var f models.TemplateFields

	title, err := optString(cols, "title")
	if err != nil {
		return f, err
	}
	if title != nil {
		f.Title = *title
	}
	if err := checkLen("title", title, utf8.RuneCountInString, MaxTitleLen); err != nil {
		return f, err
	}
	if f.Description, err = optString(cols, "description"); err != nil {
		return f, err
	}
	if err := checkLen("description", f.Description, utf8.RuneCountInString, MaxDescriptionLen); err != nil {
		return f, err
	}
	if f.FaviconURL, err = optString(cols, "favicon_url"); err != nil {
		return f, err
	}
	if err := checkLen("favicon_url", f.FaviconURL, byteLen, MaxURLLen); err != nil {
		return f, err
	}
	if f.ColorMode, err = optString(cols, "color_mode"); err != nil {
		return f, err
	}
	if f.CategoryID, err = optUUID(cols, "category_id"); err != nil {
		return f, err
	}
	if f.ThemeID, err = optUUID(cols, "theme_id"); err != nil {
		return f, err
	}
	return f, nil
}

func checkLen(name string, s *string, count func(string) int, limit int) error {
	if s != nil && count(*s) > limit {
		return &FieldError{Field: name, Err: fmt.Errorf("longer than %d characters", limit)}
	}
	return nil
}

func byteLen(s string) int { return len(s) }

func optString(cols map[string]any, name string) (*string, error) {
	v, ok := cols[name]
	if !ok || v == nil {
		return nil, nil
	}
	switch s := v.(type) {
	case string:
		return &s, nil
	case json.Number:
		str := s.String()
		return &str, nil
	}
	return nil, &FieldError{Field: name, Err: fmt.Errorf("expected string, got %T", v)}
}

func optUUID(cols map[string]any, name string) (*uuid.UUID, error) {
	s, err := optString(cols, name)
	if err != nil || s == nil {
		return nil, err
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, &FieldError{Field: name, Err: err}
	}
	return &id, nil
}
