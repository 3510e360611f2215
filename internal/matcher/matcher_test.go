package matcher_test

import (
	"testing"

	"github.com/UnknownOlympus/pscgeo/internal/matcher"
	"github.com/UnknownOlympus/pscgeo/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "identical", a: "acme", b: "acme", want: 100},
		{name: "both empty", a: "", b: "", want: 100},
		{name: "one empty", a: "acme", b: "", want: 0},
		{name: "one substitution", a: "acme", b: "acne", want: 75},
		{name: "disjoint", a: "abc", b: "xyz", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, matcher.Ratio(tt.a, tt.b), 1e-9)
			assert.InDelta(t, tt.want, matcher.Ratio(tt.b, tt.a), 1e-9)
		})
	}
}

func TestMatcher_IsMember(t *testing.T) {
	m := matcher.New(normalize.New())

	t.Run("ratio equal to threshold is a member", func(t *testing.T) {
		// 19 common characters out of 40.
		refs := []string{"abcdefghijklmnopqrsx"}
		assert.InDelta(t, 95.0, matcher.Ratio("abcdefghijklmnopqrst", refs[0]), 1e-9)
		assert.True(t, m.IsMember("abcdefghijklmnopqrst", refs, 95))
		assert.False(t, m.IsMember("abcdefghijklmnopqrst", refs, 95.1))
	})

	t.Run("candidate is normalized", func(t *testing.T) {
		assert.True(t, m.IsMember("ACME, Inc.", []string{"acme"}, 100))
	})

	t.Run("empty candidate", func(t *testing.T) {
		assert.False(t, m.IsMember("", []string{""}, 0))
	})

	t.Run("candidate empty after normalization", func(t *testing.T) {
		assert.False(t, m.IsMember("Inc.", []string{""}, 0))
	})

	t.Run("no references", func(t *testing.T) {
		assert.False(t, m.IsMember("acme", nil, 0))
	})

	t.Run("any reference qualifies", func(t *testing.T) {
		assert.True(t, m.IsMember("globex", []string{"initech", "hooli", "globex"}, 95))
	})
}

func TestRoster(t *testing.T) {
	roster := matcher.NewRoster(
		matcher.RosterSource{Name: "nasdaq", Names: []string{"apple", "alphabet"}},
		matcher.RosterSource{Name: "nyse", Names: []string{"ibm"}},
	)

	assert.Equal(t, []string{"apple", "alphabet", "ibm"}, roster.Names())
	assert.Equal(t, 3, roster.Len())

	names, ok := roster.Source("nyse")
	require.True(t, ok)
	assert.Equal(t, []string{"ibm"}, names)

	_, ok = roster.Source("lse")
	assert.False(t, ok)
}

func TestJurisdictionClassifier_IsUK(t *testing.T) {
	m := matcher.New(normalize.New())
	c := matcher.NewJurisdictionClassifier(m, matcher.DefaultJurisdictionThreshold)

	tests := []struct {
		value string
		want  bool
	}{
		{value: "England and Wales", want: true},
		{value: "ENGLAND", want: true},
		{value: "Registered in England", want: true},
		{value: "United Kingdom (England And Wales)", want: true},
		{value: "Companies House", want: true},
		{value: "Delaware", want: false},
		{value: "Cayman Islands", want: false},
		{value: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsUK(tt.value))
		})
	}

	t.Run("any of several fields", func(t *testing.T) {
		assert.True(t, c.AnyUK("", "Delaware", "Scotland"))
		assert.False(t, c.AnyUK("", "Delaware"))
	})

	t.Run("custom terms", func(t *testing.T) {
		custom := matcher.NewJurisdictionClassifier(m, matcher.DefaultJurisdictionThreshold, "Jersey")
		assert.True(t, custom.IsUK("jersey"))
		assert.False(t, custom.IsUK("England"))
	})
}

func TestListingClassifier_IsListed(t *testing.T) {
	m := matcher.New(normalize.New())
	roster := matcher.NewRoster(matcher.RosterSource{Name: "nasdaq", Names: []string{"apple", "acme"}})
	c := matcher.NewListingClassifier(m, roster, matcher.DefaultListingThreshold)

	assert.True(t, c.IsListed("Apple Inc."))
	assert.True(t, c.IsListed("ACME Corp"))
	assert.False(t, c.IsListed("Apples Ltd"))
	assert.False(t, c.IsListed(""))
}
