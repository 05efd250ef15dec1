package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileWildcards(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		want    bool
	}{
		{"percent matches any run", "cust%", "customers", true},
		{"percent matches empty run", "cust%", "cust", true},
		{"percent anchored at start", "cust%", "account_customers", false},
		{"underscore matches one char", "orders_2024", "ordersX2024", true},
		{"underscore needs exactly one", "orders_2024", "orders2024", false},
		{"escaped percent is literal", `disk\%used`, "disk%used", true},
		{"escaped percent rejects other chars", `disk\%used`, "diskXused", false},
		{"escaped underscore is literal", `a\_b`, "a_b", true},
		{"escaped underscore rejects other chars", `a\_b`, "aXb", false},
		{"whole string must match", "abc", "abcd", false},
		{"regex metachars are literal", "a.b", "a.b", true},
		{"regex metachars do not wildcard", "a.b", "aXb", false},
		{"bare percent matches everything", "%", "anything at all", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Compile(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Matches(tt.input))
		})
	}
}

func TestEmptyPatternMatchesAll(t *testing.T) {
	m, err := Compile("")
	require.NoError(t, err)
	assert.True(t, m.Matches("anything"))
	assert.True(t, m.Matches(""))
	assert.True(t, m.MatchesAll())
}

func TestLiteralMode(t *testing.T) {
	m := Literal("100%_done")
	assert.True(t, m.Matches("100%_done"), "wildcards have no meaning in literal mode")
	assert.False(t, m.Matches("100x_done"))
	assert.False(t, m.MatchesAll())

	assert.True(t, Literal("").Matches("anything"), "empty literal matches everything")
}

func TestMatchesAll(t *testing.T) {
	m, err := Compile("%")
	require.NoError(t, err)
	assert.True(t, m.MatchesAll())

	m, err = Compile("a%")
	require.NoError(t, err)
	assert.False(t, m.MatchesAll())
}
