package heuristics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	tb := Default()
	assert.Equal(t, 30, tb.Date.MonthDays)
	assert.Equal(t, 1, tb.Date.Keywords["tomorrow"])
	assert.Equal(t, 2, tb.Date.Keywords["day after tmr"])
	assert.InDelta(t, 0.3, tb.Resolver.MinScore, 1e-9)
	assert.InDelta(t, 0.3, tb.Resolver.ConfidenceGap, 1e-9)
	assert.Equal(t, 5, tb.Resolver.AcronymMaxLen)
	assert.Contains(t, tb.Classifier.ConfirmationPhrases, "anything else")
	assert.Contains(t, tb.Merge.StockOpeners, "I'll")
	assert.True(t, tb.IsStopWord("the"))
	assert.False(t, tb.IsStopWord("groceries"))
}

func TestDefault_returnsIndependentCopies(t *testing.T) {
	a := Default()
	a.Search.StopWords[0] = "changed"
	b := Default()
	assert.Equal(t, "a", b.Search.StopWords[0])
}

func TestLoad_overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.yaml")
	require.NoError(t, os.WriteFile(path, []byte("resolver:\n  min_score: 0.5\nsearch:\n  stop_words: [The, OF]\n"), 0o644))

	tb, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, tb.Resolver.MinScore, 1e-9)
	assert.InDelta(t, 0.3, tb.Resolver.ConfidenceGap, 1e-9, "unset keys keep defaults")
	assert.Equal(t, []string{"the", "of"}, tb.Search.StopWords)
	assert.Equal(t, 30, tb.Date.MonthDays)
}

func TestLoad_emptyPath(t *testing.T) {
	tb, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30, tb.Date.MonthDays)
}

func TestLoad_invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.yaml")
	require.NoError(t, os.WriteFile(path, []byte("date:\n  month_days: 0\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("what priority would you like?", []string{"priority"}))
	assert.False(t, ContainsAny("done", []string{"", "later"}))
}
