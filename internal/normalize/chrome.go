// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package normalize

import "pagecraft/internal/models"

// chrome names one of the two shared blocks and where it lives.
type chrome struct {
	key string
	typ models.BlockType
}

var (
	headerChrome = chrome{key: "headerBlock", typ: models.BlockTypeHeader}
	footerChrome = chrome{key: "footerBlock", typ: models.BlockTypeFooter}
)

// source is what a resolver may look at.
type source struct {
	top   map[string]any
	data  map[string]any
	pages []any
}

// resolver returns the chrome block it finds, or nil.
type resolver func(src source, c chrome) Block

// resolvers run in precedence order; the first non-nil block wins.
var resolvers = []resolver{
	fromTopLevel,
	fromNestedData,
	fromFirstPage,
}

func resolveChrome(src source, c chrome) Block {
	for _, r := range resolvers {
		if b := r(src, c); b != nil {
			return b
		}
	}
	return nil
}

func fromTopLevel(src source, c chrome) Block {
	b, _ := src.top[c.key].(map[string]any)
	return b
}

func fromNestedData(src source, c chrome) Block {
	b, _ := src.data[c.key].(map[string]any)
	return b
}

// fromFirstPage hoists the first block of the matching type out of the first
// page's content blocks.
func fromFirstPage(src source, c chrome) Block {
	if len(src.pages) == 0 {
		return nil
	}
	page, ok := src.pages[0].(map[string]any)
	if !ok {
		return nil
	}
	blocks, _ := page["content_blocks"].([]any)
	for _, b := range blocks {
		if blockType(b) == string(c.typ) {
			return b.(map[string]any)
		}
	}
	return nil
}
