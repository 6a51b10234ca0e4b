// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package patch applies commit patches to a template's editable view. A patch
// is either an RFC 7386 merge patch or an RFC 6902 operation list.
package patch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"pagecraft/internal/docjson"
	"pagecraft/internal/models"
)

// ErrInvalid is wrapped by every error caused by the patch itself rather
// than by the document it is applied to.
var ErrInvalid = errors.New("invalid patch")

// Validate checks that exactly one of Merge or Ops is set and that it has
// the right JSON shape.
func Validate(p models.Patch) error {
	hasMerge, hasOps := isSet(p.Merge), isSet(p.Ops)
	switch {
	case hasMerge && hasOps:
		return fmt.Errorf("%w: merge and ops are mutually exclusive", ErrInvalid)
	case !hasMerge && !hasOps:
		return fmt.Errorf("%w: one of merge or ops is required", ErrInvalid)
	case hasMerge:
		if first := firstByte(p.Merge); first != '{' {
			return fmt.Errorf("%w: merge patch must be a JSON object", ErrInvalid)
		}
	case hasOps:
		if _, err := jsonpatch.DecodePatch(p.Ops); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	return nil
}

// Apply returns a copy of view with p applied.
func Apply(view map[string]any, p models.Patch) (map[string]any, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}

	doc, err := json.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("encode view: %w", err)
	}

	var out []byte
	if isSet(p.Merge) {
		out, err = jsonpatch.MergePatch(doc, p.Merge)
	} else {
		var ops jsonpatch.Patch
		ops, err = jsonpatch.DecodePatch(p.Ops)
		if err == nil {
			out, err = ops.Apply(doc)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	patched, err := docjson.Decode(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return patched, nil
}

// Touched lists the fields a patch changes, sorted. Keys under data are
// reported one level deep, e.g. "data.pages".
func Touched(p models.Patch) []string {
	seen := make(map[string]struct{})

	if isSet(p.Merge) {
		var merge map[string]json.RawMessage
		if err := json.Unmarshal(p.Merge, &merge); err == nil {
			for k, v := range merge {
				if k != "data" {
					seen[k] = struct{}{}
					continue
				}
				var nested map[string]json.RawMessage
				if err := json.Unmarshal(v, &nested); err != nil || len(nested) == 0 {
					seen[k] = struct{}{}
					continue
				}
				for nk := range nested {
					seen["data."+nk] = struct{}{}
				}
			}
		}
	}

	if isSet(p.Ops) {
		var ops []struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal(p.Ops, &ops); err == nil {
			for _, op := range ops {
				if f := fieldFromPointer(op.Path); f != "" {
					seen[f] = struct{}{}
				}
			}
		}
	}

	fields := make([]string, 0, len(seen))
	for f := range seen {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Diff returns the merge patch that turns before into after.
func Diff(before, after []byte) (json.RawMessage, error) {
	d, err := jsonpatch.CreateMergePatch(before, after)
	if err != nil {
		return nil, fmt.Errorf("diff documents: %w", err)
	}
	return d, nil
}

func fieldFromPointer(ptr string) string {
	parts := strings.Split(strings.TrimPrefix(ptr, "/"), "/")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(strings.ReplaceAll(p, "~1", "/"), "~0", "~")
	}
	if parts[0] == "" {
		return ""
	}
	if parts[0] == "data" && len(parts) > 1 && parts[1] != "" {
		return "data." + parts[1]
	}
	return parts[0]
}

func isSet(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func firstByte(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}
