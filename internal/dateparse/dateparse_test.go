package dateparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(t *testing.T) *Parser {
	t.Helper()
	p := New(nil)
	p.Today = func() time.Time { return time.Date(2025, 3, 10, 15, 4, 5, 0, time.Local) }
	return p
}

func TestParse_resolved(t *testing.T) {
	p := fixed(t)
	cases := []struct {
		in   string
		want string
	}{
		{"today", "2025-03-10"},
		{"NOW", "2025-03-10"},
		{"tomorrow", "2025-03-11"},
		{"Tmrw", "2025-03-11"},
		{"day after tomorrow", "2025-03-12"},
		{"next week", "2025-03-17"},
		{"in a week", "2025-03-17"},
		{"next month", "2025-04-09"},
		{"in 5 days", "2025-03-15"},
		{"1 day", "2025-03-11"},
		{"in 3 days or 9 days", "2025-03-13"},
		{"2025-12-31", "2025-12-31"},
		{"  2024-02-29 ", "2024-02-29"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			r := p.Parse(tc.in)
			require.False(t, r.NeedsClarification(), r.Clarification)
			require.NotNil(t, r.Date)
			assert.Equal(t, tc.want, r.Format())
		})
	}
}

func TestParse_empty(t *testing.T) {
	r := fixed(t).Parse("   ")
	assert.False(t, r.NeedsClarification())
	assert.Nil(t, r.Date)
	assert.Equal(t, "", r.Format())
}

func TestParse_malformedDate(t *testing.T) {
	r := fixed(t).Parse("2025-02-30")
	require.True(t, r.NeedsClarification())
	assert.Nil(t, r.Date)
	assert.Contains(t, r.Clarification, "YYYY-MM-DD")
	assert.Equal(t, "2025-02-30", r.Phrase)
}

func TestParse_ambiguous(t *testing.T) {
	p := fixed(t)
	for _, in := range []string{"tonight", "this weekend", "Later", "next Tuesday"} {
		r := p.Parse(in)
		require.True(t, r.NeedsClarification(), in)
		assert.Contains(t, r.Clarification, "I couldn't convert '"+in+"'")
		assert.Contains(t, r.Clarification, "YYYY-MM-DD")
	}
}

func TestParse_unrecognized(t *testing.T) {
	r := fixed(t).Parse("whenever")
	require.True(t, r.NeedsClarification())
	assert.Contains(t, r.Clarification, "I couldn't understand the date 'whenever'")
}

func TestParse_monthIsFixedWindow(t *testing.T) {
	p := New(nil)
	p.Today = func() time.Time { return time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC) }
	assert.Equal(t, "2025-03-02", p.Parse("in a month").Format())
}

func TestParse_relativeDaysAreBounded(t *testing.T) {
	p := fixed(t)
	r := p.Parse("in 36500 days")
	require.False(t, r.NeedsClarification(), r.Clarification)
	assert.Equal(t, "2125-02-14", r.Format())

	for _, in := range []string{"in 36501 days", "99999999999 days", "999999999999999999999 days"} {
		r := p.Parse(in)
		require.True(t, r.NeedsClarification(), in)
		assert.Nil(t, r.Date, in)
		assert.Contains(t, r.Clarification, "I couldn't convert '"+in+"'")
	}
}
