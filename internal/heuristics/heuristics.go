// Package heuristics holds the keyword tables and tunable constants used by the
// date parser, resolver, classifier, and list search. Defaults are embedded; a
// YAML file can override any table.
package heuristics

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Tables is the full set of heuristic data.
type Tables struct {
	Date       DateTables       `yaml:"date"`
	Resolver   ResolverTables   `yaml:"resolver"`
	Classifier ClassifierTables `yaml:"classifier"`
	Search     SearchTables     `yaml:"search"`
	Merge      MergeTables      `yaml:"merge"`
}

// DateTables drives the due-date parser. Keywords map an exact phrase to a day offset.
type DateTables struct {
	MonthDays      int            `yaml:"month_days"`
	Keywords       map[string]int `yaml:"keywords"`
	MonthKeywords  []string       `yaml:"month_keywords"`
	AmbiguousTerms []string       `yaml:"ambiguous_terms"`
}

// ResolverTables are the fuzzy title matching thresholds.
type ResolverTables struct {
	MinScore      float64 `yaml:"min_score"`
	ConfidenceGap float64 `yaml:"confidence_gap"`
	AcronymMaxLen int     `yaml:"acronym_max_len"`
}

// ClassifierTables decide whether a model reply is asking the user for more information.
type ClassifierTables struct {
	ConfirmationPhrases  []string `yaml:"confirmation_phrases"`
	TaskNouns            []string `yaml:"task_nouns"`
	ClarificationPhrases []string `yaml:"clarification_phrases"`
}

// SearchTables drive task_list keyword search.
type SearchTables struct {
	StopWords []string `yaml:"stop_words"`
}

// MergeTables drive how the model reply and the action confirmation are combined.
type MergeTables struct {
	StockOpeners []string `yaml:"stock_openers"`
}

// Default returns the embedded tables. It panics only if the embedded file is malformed.
func Default() *Tables {
	t, err := parse(defaultsYAML, nil)
	if err != nil {
		panic(fmt.Sprintf("heuristics: embedded defaults: %v", err))
	}
	return t
}

// Load returns the defaults overlaid with the YAML file at path. An empty path returns the defaults.
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read heuristics %s: %w", path, err)
	}
	t, err := parse(b, Default())
	if err != nil {
		return nil, fmt.Errorf("parse heuristics %s: %w", path, err)
	}
	return t, nil
}

func parse(b []byte, base *Tables) (*Tables, error) {
	t := base
	if t == nil {
		t = &Tables{}
	}
	if err := yaml.Unmarshal(b, t); err != nil {
		return nil, err
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	t.lower()
	return t, nil
}

func (t *Tables) validate() error {
	if t.Date.MonthDays <= 0 {
		return fmt.Errorf("date.month_days must be positive")
	}
	if t.Resolver.MinScore < 0 || t.Resolver.MinScore > 1 {
		return fmt.Errorf("resolver.min_score must be in [0,1]")
	}
	if t.Resolver.ConfidenceGap < 0 || t.Resolver.ConfidenceGap > 1 {
		return fmt.Errorf("resolver.confidence_gap must be in [0,1]")
	}
	return nil
}

// lower folds every matching table to lowercase; stock openers are matched as written.
func (t *Tables) lower() {
	kw := make(map[string]int, len(t.Date.Keywords))
	for k, v := range t.Date.Keywords {
		kw[strings.ToLower(strings.TrimSpace(k))] = v
	}
	t.Date.Keywords = kw
	lowerAll(t.Date.MonthKeywords)
	lowerAll(t.Date.AmbiguousTerms)
	lowerAll(t.Classifier.ConfirmationPhrases)
	lowerAll(t.Classifier.TaskNouns)
	lowerAll(t.Classifier.ClarificationPhrases)
	lowerAll(t.Search.StopWords)
}

func lowerAll(ss []string) {
	for i, s := range ss {
		ss[i] = strings.ToLower(strings.TrimSpace(s))
	}
}

// ContainsAny reports whether text contains any of the phrases.
func ContainsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if p != "" && strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// IsStopWord reports whether w (already lowercased) is in the stop-word table.
func (t *Tables) IsStopWord(w string) bool {
	for _, s := range t.Search.StopWords {
		if s == w {
			return true
		}
	}
	return false
}
