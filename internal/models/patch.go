// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "encoding/json"

// PatchKind tags a commit for observability. It never changes commit semantics.
type PatchKind string

const (
	PatchGeneric  PatchKind = "generic"
	PatchContent  PatchKind = "content"
	PatchFavicon  PatchKind = "favicon"
	PatchDomain   PatchKind = "domain"
	PatchSettings PatchKind = "settings"
	PatchRestore  PatchKind = "restore"
)

// Valid reports whether k is one of the known patch kinds.
func (k PatchKind) Valid() bool {
	switch k {
	case PatchGeneric, PatchContent, PatchFavicon, PatchDomain, PatchSettings, PatchRestore:
		return true
	}
	return false
}

// Patch is a change to a template's editable view. Exactly one of Merge
// (RFC 7386 merge patch) or Ops (RFC 6902 operation list) is set.
type Patch struct {
	Merge json.RawMessage `json:"merge,omitempty"`
	Ops   json.RawMessage `json:"ops,omitempty"`
}
