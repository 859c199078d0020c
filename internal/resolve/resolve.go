// Package resolve maps an imprecise task title reference onto the user's tasks.
package resolve

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ankittk/tasktalk/internal/heuristics"
	"github.com/ankittk/tasktalk/internal/store"
)

// Kind is the outcome of a resolution.
type Kind int

const (
	NotFound Kind = iota
	Found
	Ambiguous
)

func (k Kind) String() string {
	switch k {
	case Found:
		return "found"
	case Ambiguous:
		return "ambiguous"
	default:
		return "not_found"
	}
}

// Candidate is a scored match. Exact and case-insensitive matches score 1.
type Candidate struct {
	Task  store.Task
	Score float64
}

// Resolution is Found(Task), Ambiguous(Candidates in rank order), or NotFound.
type Resolution struct {
	Kind       Kind
	Task       store.Task
	Candidates []Candidate
}

// Resolver scores title fragments against a task set.
type Resolver struct {
	t heuristics.ResolverTables
}

// New returns a resolver using the given tables (nil uses the defaults).
func New(t *heuristics.Tables) *Resolver {
	if t == nil {
		t = heuristics.Default()
	}
	return &Resolver{t: t.Resolver}
}

// Resolve matches fragment against tasks, which must already be scoped to one user.
func (r *Resolver) Resolve(fragment string, tasks []store.Task) Resolution {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" || len(tasks) == 0 {
		return Resolution{Kind: NotFound}
	}

	if res, ok := equalMatches(tasks, func(title string) bool { return title == fragment }); ok {
		return res
	}
	if res, ok := equalMatches(tasks, func(title string) bool { return strings.EqualFold(title, fragment) }); ok {
		return res
	}

	var kept []Candidate
	for _, t := range tasks {
		if s := r.Score(fragment, t.Title); s > r.t.MinScore {
			kept = append(kept, Candidate{Task: t, Score: s})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })

	switch {
	case len(kept) == 0:
		return Resolution{Kind: NotFound}
	case len(kept) == 1:
		return Resolution{Kind: Found, Task: kept[0].Task, Candidates: kept}
	case kept[0].Score > kept[1].Score+r.t.ConfidenceGap:
		return Resolution{Kind: Found, Task: kept[0].Task, Candidates: kept[:1]}
	default:
		return Resolution{Kind: Ambiguous, Candidates: kept}
	}
}

func equalMatches(tasks []store.Task, eq func(string) bool) (Resolution, bool) {
	var out []Candidate
	for _, t := range tasks {
		if eq(t.Title) {
			out = append(out, Candidate{Task: t, Score: 1})
		}
	}
	switch len(out) {
	case 0:
		return Resolution{}, false
	case 1:
		return Resolution{Kind: Found, Task: out[0].Task, Candidates: out}, true
	default:
		return Resolution{Kind: Ambiguous, Candidates: out}, true
	}
}

// Score is the weighted partial-match score in [0,1]:
// 0.5 word overlap + 0.3 substring ratio + 0.1 character overlap + 0.1 acronym.
func (r *Resolver) Score(query, title string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	t := strings.ToLower(strings.TrimSpace(title))
	if q == "" {
		return 0
	}
	titleWords := strings.Fields(t)
	return 0.5*wordOverlap(q, titleWords) +
		0.3*substring(q, t) +
		0.1*charOverlap(q, t) +
		0.1*r.acronym(q, titleWords)
}

func wordOverlap(q string, titleWords []string) float64 {
	qw := strings.Fields(q)
	if len(qw) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(titleWords))
	for _, w := range titleWords {
		set[w] = struct{}{}
	}
	n := 0
	for _, w := range qw {
		if _, ok := set[w]; ok {
			n++
		}
	}
	return float64(n) / float64(len(qw))
}

func substring(q, t string) float64 {
	ql, tl := utf8.RuneCountInString(q), utf8.RuneCountInString(t)
	switch {
	case tl > 0 && strings.Contains(t, q):
		return float64(ql) / float64(tl)
	case tl > 0 && strings.Contains(q, t):
		return float64(tl) / float64(ql)
	}
	return 0
}

// charOverlap counts distinct query runes present in the title over the query length.
func charOverlap(q, t string) float64 {
	total := utf8.RuneCountInString(q)
	if total == 0 {
		return 0
	}
	seen := make(map[rune]struct{})
	for _, c := range q {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
	}
	n := 0
	for c := range seen {
		if strings.ContainsRune(t, c) {
			n++
		}
	}
	return float64(n) / float64(total)
}

func (r *Resolver) acronym(q string, titleWords []string) float64 {
	if utf8.RuneCountInString(q) > r.t.AcronymMaxLen || len(titleWords) == 0 {
		return 0
	}
	var b strings.Builder
	for _, w := range titleWords {
		c, _ := utf8.DecodeRuneInString(w)
		b.WriteRune(c)
	}
	if q == b.String() {
		return 1
	}
	return 0
}
