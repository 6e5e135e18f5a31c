package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", String("hello"), `"hello"`},
		{"plain string", "hello", `"hello"`},
		{"int", Int(42), "42"},
		{"negative int", Int(-100), "-100"},
		{"plain int", 7, "7"},
		{"bool", Bool(true), "true"},
		{"empty array", Array{}, "[]"},
		{"empty object", Object{}, "{}"},
		{"array", Array{Int(1), String("a"), Bool(false)}, `[1,"a",false]`},
		{"map", map[string]any{"b": 1, "a": []any{"x"}}, `{"a":["x"],"b":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := Obj(P("zebra", Int(1)), P("alpha", Int(2)), P("beta", Obj(P("y", Int(0)), P("x", Int(0)))))
	got, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":{"x":0,"y":0},"zebra":1}`, string(got))
}

func TestMarshalCanonicalUTF16Order(t *testing.T) {
	// U+1F600 encodes as a surrogate pair starting 0xD83D, which sorts
	// before U+FF61 in UTF-16 even though its UTF-8 form sorts after.
	obj := Object{"\uFF61": Int(1), "\U0001F600": Int(2)}
	assert.Equal(t, []string{"\U0001F600", "\uFF61"}, obj.SortedKeys())
}

func TestMarshalCanonicalStrings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no html escaping", "<a&b>", `"<a&b>"`},
		{"nfc", "e\u0301", "\"\u00e9\""},
		{"line separator raw", "a\u2028b", "\"a\u2028b\""},
		{"escaped backslash kept", `\u2028`, `"\\u2028"`},
		{"control escaped", "a\nb", `"a\nb"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(String(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestMarshalCanonicalRejects(t *testing.T) {
	for _, v := range []any{nil, 1.5, float32(2), struct{}{}, map[string]any{"f": 0.1}} {
		_, err := MarshalCanonical(v)
		assert.Error(t, err, "%#v", v)
	}
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, String("0.1"), FormatFloat(0.1))
	assert.Equal(t, String("0.25"), FormatFloat(0.25))
	assert.Equal(t, String("1"), FormatFloat(1))
}

func TestDigest_DomainSeparated(t *testing.T) {
	v := Obj(P("seed", Int(1)))
	a, err := Digest(DomainRun, v)
	require.NoError(t, err)
	b, err := Digest(DomainConfig, v)
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, MustDigest(DomainRun, Obj(P("seed", Int(1)))))
}

func TestDigest_Error(t *testing.T) {
	_, err := Digest(DomainRun, 0.5)
	assert.Error(t, err)
	assert.Panics(t, func() { MustDigest(DomainRun, nil) })
}
