package slug

import (
	"strings"
	"testing"
)

// TestGenerate exercises the slug generator with typical titles, special
// characters, accents, whitespace, and boundary inputs.
func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// --- Normal titles ---
		{name: "simple two words", input: "Hello World", want: "hello-world"},
		{name: "title with year", input: "Hello World 2026", want: "hello-world-2026"},
		{name: "single word", input: "GoLang", want: "golang"},

		// --- Special characters collapse to one hyphen ---
		{name: "punctuation marks", input: "Hello, World! How's it going?", want: "hello-world-how-s-it-going"},
		{name: "ampersand and at sign", input: "Rock & Roll @ the Arena", want: "rock-roll-the-arena"},
		{name: "slashes and pipes", input: "Frontend/Backend | Full Stack", want: "frontend-backend-full-stack"},
		{name: "dotted version", input: "Version 2.0.1", want: "version-2-0-1"},
		{name: "parentheses", input: "Deploy Go (2026 Edition)", want: "deploy-go-2026-edition"},

		// --- Accents are folded ---
		{name: "french accents", input: "Café Crème", want: "cafe-creme"},
		{name: "german umlauts", input: "Über die Brücke", want: "uber-die-brucke"},

		// --- Whitespace and hyphens ---
		{name: "leading and trailing spaces", input: "  hello world  ", want: "hello-world"},
		{name: "tabs and newlines", input: "hello\tworld\nagain", want: "hello-world-again"},
		{name: "repeated hyphens", input: "hello---world", want: "hello-world"},
		{name: "hyphen soup", input: "  --hello -- world--  ", want: "hello-world"},

		// --- Degenerate input ---
		{name: "empty", input: "", want: ""},
		{name: "only symbols", input: "!@#$%^&*()", want: ""},
		{name: "digits", input: "12 34 56", want: "12-34-56"},
		{name: "iso date", input: "2026-02-25", want: "2026-02-25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestGenerateIdempotent ensures a slug passes through Generate unchanged.
func TestGenerateIdempotent(t *testing.T) {
	for _, s := range []string{"hello-world", "cafe-creme", "a", "2026-02-25"} {
		if got := Generate(s); got != s {
			t.Errorf("Generate(%q) = %q, want idempotent result", s, got)
		}
	}
}

func TestCandidate(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		maxLen int
		want   string
	}{
		{name: "plain", title: "Joe's Bakery", maxLen: MaxLen, want: "joe-s-bakery"},
		{name: "empty falls back", title: "", maxLen: MaxLen, want: Default},
		{name: "symbols fall back", title: "???", maxLen: MaxLen, want: Default},
		{name: "truncated", title: "abcdefghij", maxLen: 4, want: "abcd"},
		{name: "truncation trims hyphen", title: "abc def", maxLen: 4, want: "abc"},
		{name: "no limit", title: "abc def", maxLen: 0, want: "abc-def"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Candidate(tt.title, tt.maxLen); got != tt.want {
				t.Errorf("Candidate(%q, %d) = %q, want %q", tt.title, tt.maxLen, got, tt.want)
			}
		})
	}

	long := strings.Repeat("word ", 40)
	if got := Candidate(long, MaxLen); len(got) > MaxLen {
		t.Errorf("Candidate length %d exceeds %d", len(got), MaxLen)
	}
}

func TestSuffix(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		s := Suffix()
		if len(s) != SuffixLen {
			t.Fatalf("Suffix() = %q, want length %d", s, SuffixLen)
		}
		if s[0] < '0' || s[0] > '9' {
			t.Fatalf("Suffix() = %q, first character must be a digit", s)
		}
		if Generate(s) != s {
			t.Fatalf("Suffix() = %q is not slug-safe", s)
		}
		seen[s] = true
	}
	if len(seen) < 190 {
		t.Errorf("suffixes collide too often: %d unique out of 200", len(seen))
	}
}

func TestBase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "bakery-3k9x2a", want: "bakery"},
		{input: "joe-s-bakery-0aaaaa", want: "joe-s-bakery"},
		{input: "bakery", want: "bakery"},
		{input: "summer-awards", want: "summer-awards"},
		{input: "bakery-3k9x2", want: "bakery-3k9x2"},
		{input: "3k9x2a", want: "3k9x2a"},
	}

	for _, tt := range tests {
		if got := Base(tt.input); got != tt.want {
			t.Errorf("Base(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	s := WithSuffix("bakery")
	if got := Base(s); got != "bakery" {
		t.Errorf("Base(WithSuffix(bakery)) = %q, want bakery", got)
	}
}
