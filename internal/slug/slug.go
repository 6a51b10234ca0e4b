// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation for template and site
// identifiers, plus the random suffixes used to resolve slug collisions.
package slug

import (
	"crypto/rand"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxLen bounds a generated slug candidate, excluding any suffix.
	MaxLen = 48

	// Default is used when a title yields no usable characters.
	Default = "site"

	// SuffixLen is the length of a collision suffix, excluding the hyphen.
	SuffixLen = 6
)

const (
	suffixDigits   = "0123456789"
	suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

var (
	// nonAlphanumeric matches runs of anything that isn't a lowercase letter or digit.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	// trailingSuffix matches a suffix produced by Suffix.
	trailingSuffix = regexp.MustCompile(`-[0-9][a-z0-9]{5}$`)
)

// Generate creates a URL-friendly slug from the given string. Accents are
// folded and every run of non-alphanumeric characters becomes one hyphen.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		s,
	)
	if err != nil {
		folded = s
	}
	result := strings.ToLower(strings.TrimSpace(folded))
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Candidate returns the slug for a title truncated to maxLen, or Default
// when nothing usable remains.
func Candidate(title string, maxLen int) string {
	s := Generate(title)
	if maxLen > 0 && len(s) > maxLen {
		s = strings.TrimRight(s[:maxLen], "-")
	}
	if s == "" {
		return Default
	}
	return s
}

// Suffix returns a short random suffix. The first character is always a
// digit so Base can tell suffixes apart from ordinary words.
func Suffix() string {
	b := make([]byte, SuffixLen)
	if _, err := rand.Read(b); err != nil {
		panic("slug: crypto/rand unavailable: " + err.Error())
	}
	out := make([]byte, SuffixLen)
	out[0] = suffixDigits[int(b[0])%len(suffixDigits)]
	for i := 1; i < SuffixLen; i++ {
		out[i] = suffixAlphabet[int(b[i])%len(suffixAlphabet)]
	}
	return string(out)
}

// WithSuffix appends a fresh random suffix to base.
func WithSuffix(base string) string {
	return base + "-" + Suffix()
}

// Base strips a trailing random suffix from a slug, if present.
func Base(s string) string {
	return trailingSuffix.ReplaceAllString(s, "")
}
