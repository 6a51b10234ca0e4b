package docjson

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `{
	"pages": [
		{"id": "p1", "show_header": true, "content_blocks": [
			{"type": "hero", "props": {"title": "Café & <Bar>", "size": 12}}
		]}
	],
	"meta": {"title": "Bakery"},
	"headerBlock": {"type": "header", "props": {"logo": null}}
}`

func TestCanonicalGolden(t *testing.T) {
	out, err := CanonicalizeBytes([]byte(sampleDocument))
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "canonical_document", out)
}

func TestCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty object", `{}`, `{}`},
		{"empty array", `[]`, `[]`},
		{"null", `null`, `null`},
		{"bools", `[true,false]`, `[true,false]`},
		{"number literal kept", `{"a": 1.50}`, `{"a":1.50}`},
		{"negative exponent", `[-2e-3]`, `[-2e-3]`},
		{"sorted keys", `{"zebra":1,"alpha":2,"beta":3}`, `{"alpha":2,"beta":3,"zebra":1}`},
		{"nested sorted keys", `{"z":{"b":1,"a":2},"a":3}`, `{"a":3,"z":{"a":2,"b":1}}`},
		{"no html escaping", `{"s":"<a>&</a>"}`, `{"s":"<a>&</a>"}`},
		{"whitespace dropped", "{ \"a\" :\n [ 1 , 2 ] }", `{"a":[1,2]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := CanonicalizeBytes([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
		})
	}
}

func TestCanonicalNFC(t *testing.T) {
	composed, err := CanonicalizeBytes([]byte(`{"t":"Café"}`))
	require.NoError(t, err)
	decomposed, err := CanonicalizeBytes([]byte(`{"t":"Café"}`))
	require.NoError(t, err)
	assert.Equal(t, string(composed), string(decomposed))
}

func TestCanonicalGoValues(t *testing.T) {
	out, err := Canonical(map[string]any{
		"i":   7,
		"i64": int64(-9),
		"f":   2.5,
		"raw": json.RawMessage(`{"y":1,"x":2}`),
		"arr": []any{"x", nil},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"arr":["x",null],"f":2.5,"i":7,"i64":-9,"raw":{"x":2,"y":1}}`, string(out))
}

func TestCanonicalRejectsUnsupported(t *testing.T) {
	_, err := Canonical(map[string]any{"ch": make(chan int)})
	assert.Error(t, err)

	_, err = Canonical(json.Number("not-a-number"))
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	doc, err := Decode([]byte(`{"rev": 10, "pages": []}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("10"), doc["rev"])

	_, err = Decode([]byte(`[1,2]`))
	assert.Error(t, err, "arrays are not documents")

	_, err = Decode([]byte(`{"a":1} {"b":2}`))
	assert.Error(t, err, "trailing values are rejected")

	_, err = Decode([]byte(`{"a":`))
	assert.Error(t, err)
}

func TestHash(t *testing.T) {
	h, err := Hash([]byte(`{"pages":[]}`))
	require.NoError(t, err)
	assert.Equal(t, "c17412ca99e15f83b085916c9b4034a957c41f56ba565a072b1aac6d65edd1bd", h)

	h, err = Hash([]byte(sampleDocument))
	require.NoError(t, err)
	assert.Equal(t, "29e2f2a59040027ff6e2aec9e6e3ecf39533ef6244d3a6748b2ceb5225ede1b4", h)
}

func TestHashStableAcrossKeyOrder(t *testing.T) {
	a, err := Hash([]byte(`{"pages":[{"id":"p1","content_blocks":[]}],"meta":{"title":"x"}}`))
	require.NoError(t, err)
	b, err := Hash([]byte(`{"meta":{"title":"x"},"pages":[{"content_blocks":[],"id":"p1"}]}`))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Hash([]byte(`{"meta":{"title":"y"},"pages":[{"content_blocks":[],"id":"p1"}]}`))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
