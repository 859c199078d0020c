// Package dateparse turns free-form due-date phrases into calendar dates.
package dateparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ankittk/tasktalk/internal/heuristics"
)

// Layout is the only strict date format accepted.
const Layout = "2006-01-02"

// MaxRelativeDays bounds "N days" phrases to about a century.
const MaxRelativeDays = 36500

const guidance = "Please provide a date in YYYY-MM-DD format, or use terms like 'today', 'tomorrow', or 'next week'."

var (
	dateShaped = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)
	nDays      = regexp.MustCompile(`(\d+)\s*days?`)
)

// Result is either a resolved (possibly absent) date or a clarification request.
// Exactly one of Date/Clarification is meaningful: Clarification != "" means the phrase
// could not be converted.
type Result struct {
	Date          *time.Time
	Phrase        string
	Clarification string
}

// NeedsClarification reports whether the phrase could not be converted.
func (r Result) NeedsClarification() bool { return r.Clarification != "" }

// Format returns the resolved date as YYYY-MM-DD, or "" when absent.
func (r Result) Format() string {
	if r.Date == nil {
		return ""
	}
	return r.Date.Format(Layout)
}

// Parser converts phrases relative to Today. The zero value is not usable; use New.
type Parser struct {
	tables *heuristics.DateTables
	// Today returns the reference date. Defaults to the local calendar day.
	Today func() time.Time
}

// New returns a parser driven by the given tables (nil uses the defaults).
func New(t *heuristics.Tables) *Parser {
	if t == nil {
		t = heuristics.Default()
	}
	return &Parser{tables: &t.Date, Today: time.Now}
}

// Parse evaluates the phrase against the rules in order; first match wins. It never fails:
// unconvertible phrases yield a Result carrying a human-readable clarification.
func (p *Parser) Parse(phrase string) Result {
	raw := strings.TrimSpace(phrase)
	if raw == "" {
		return Result{}
	}
	if dateShaped.MatchString(raw) {
		d, err := time.Parse(Layout, raw)
		if err != nil {
			return Result{Phrase: raw, Clarification: fmt.Sprintf("'%s' is not a valid date format. Please use YYYY-MM-DD format.", raw)}
		}
		return resolved(raw, d)
	}

	lower := strings.ToLower(raw)
	today := day(p.Today())
	if off, ok := p.tables.Keywords[lower]; ok {
		return resolved(raw, today.AddDate(0, 0, off))
	}
	for _, k := range p.tables.MonthKeywords {
		if lower == k {
			return resolved(raw, today.AddDate(0, 0, p.tables.MonthDays))
		}
	}
	if m := nDays.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n <= MaxRelativeDays {
			return resolved(raw, today.AddDate(0, 0, n))
		}
		return Result{Phrase: raw, Clarification: fmt.Sprintf("I couldn't convert '%s' to a specific date. %s", raw, guidance)}
	}
	if heuristics.ContainsAny(lower, p.tables.AmbiguousTerms) {
		return Result{Phrase: raw, Clarification: fmt.Sprintf("I couldn't convert '%s' to a specific date. %s", raw, guidance)}
	}
	return Result{Phrase: raw, Clarification: fmt.Sprintf("I couldn't understand the date '%s'. %s", raw, guidance)}
}

func resolved(phrase string, d time.Time) Result {
	return Result{Phrase: phrase, Date: &d}
}

// day truncates t to midnight UTC of its calendar day so offsets are whole days.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
