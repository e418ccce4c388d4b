package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverride(t *testing.T) {
	tests := []struct {
		name  string
		tok   string
		pname string
		value any
	}{
		{"int", "seed=42", "seed", int64(42)},
		{"negative int", "offset=-3", "offset", int64(-3)},
		{"float", "rate=2.5", "rate", 2.5},
		{"exponent float", "tol=1e-6", "tol", 1e-6},
		{"string", "mode=fast", "mode", "fast"},
		{"empty value", "note=", "note", ""},
		{"value with equals", "expr=a=b", "expr", "a=b"},
		{"list of ints", "dims=[1,2,3]", "dims", []any{int64(1), int64(2), int64(3)}},
		{"tuple", "pair=(4,5)", "pair", []any{int64(4), int64(5)}},
		{"empty list", "dims=[]", "dims", []any{}},
		{"mixed list", "xs=[1,2.5,hello]", "xs", []any{int64(1), 2.5, "hello"}},
		{"quoted strings", `names=['a','b']`, "names", []any{"a", "b"}},
		{"nested list", "grid=[[1,2],[3,4]]", "grid", []any{[]any{int64(1), int64(2)}, []any{int64(3), int64(4)}}},
		{"spaces in list", "dims=[1, 2, 3]", "dims", []any{int64(1), int64(2), int64(3)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, value, err := ParseOverride(tt.tok)
			require.NoError(t, err)
			assert.Equal(t, tt.pname, name)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestParseOverridePartialBracketIsString(t *testing.T) {
	// Does not match the anchored list pattern, so it stays a string.
	name, value, err := ParseOverride("v=[1,2")
	require.NoError(t, err)
	assert.Equal(t, "v", name)
	assert.Equal(t, "[1,2", value)
}

func TestParseOverrideErrors(t *testing.T) {
	tests := []struct {
		name string
		tok  string
	}{
		{"no equals", "seed"},
		{"empty name", "=42"},
		{"unbalanced inner", "v=[[1,2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseOverride(tt.tok)
			assert.Error(t, err)
		})
	}
}
