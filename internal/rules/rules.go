// Package rules compiles the taxonomy's severity criteria into executable
// predicates over intervention records. Criteria are fixed-vocabulary
// condition fragments ("existe", "<=6", "noseespecifica", "<=35%",
// "antesdelas18:00"); the compiler turns them into an enum-tagged clause
// list evaluated directly against record fields, with no dynamic expression
// strings involved.
package rules

import (
	"sort"
	"strconv"
	"strings"

	"github.com/covidnpi/stringency-etl/internal/domain"
	"github.com/covidnpi/stringency-etl/internal/taxonomy"
)

// Kind tags the primitive condition a clause tests, beyond code membership.
type Kind int

const (
	// Exists matches any record carrying one of the clause codes.
	Exists Kind = iota
	// PeopleLE matches when the people threshold is specified and <= N.
	PeopleLE
	// PeopleLT matches when the people threshold is specified and < N.
	PeopleLT
	// PeopleUnspecified matches when no people threshold is specified.
	PeopleUnspecified
	// PercentLE matches when the affected percentage is <= N.
	PercentLE
	// HourLE matches when the hour threshold is specified and <= N.
	HourLE
)

// Fixed threshold vocabularies the criteria draw from.
var (
	peopleThresholds  = []float64{6, 10, 100}
	percentThresholds = []float64{35}
	hourThresholds    = []float64{18}
)

// Clause is one compiled condition: membership in a code set AND the tagged
// threshold test.
type Clause struct {
	Kind      Kind
	Codes     map[string]struct{}
	Threshold float64
}

// Matches evaluates the clause against one record.
func (c Clause) Matches(rec domain.Intervention) bool {
	if _, ok := c.Codes[rec.Code]; !ok {
		return false
	}
	switch c.Kind {
	case Exists:
		return true
	case PeopleLE:
		return rec.People != nil && *rec.People <= c.Threshold
	case PeopleLT:
		return rec.People != nil && *rec.People < c.Threshold
	case PeopleUnspecified:
		return rec.People == nil
	case PercentLE:
		return rec.AffectedPct <= c.Threshold
	case HourLE:
		return rec.Hour != nil && *rec.Hour <= c.Threshold
	}
	return false
}

// Predicate is the OR-combination of a tier's clauses.
type Predicate struct {
	Clauses []Clause
}

// Matches reports whether any clause matches the record.
func (p Predicate) Matches(rec domain.Intervention) bool {
	for _, c := range p.Clauses {
		if c.Matches(rec) {
			return true
		}
	}
	return false
}

// covers reports whether code appears in any clause's code set.
func (p Predicate) covers(code string) bool {
	for _, c := range p.Clauses {
		if _, ok := c.Codes[code]; ok {
			return true
		}
	}
	return false
}

// Set holds the compiled predicates for the two tiers that override the
// default low severity.
type Set struct {
	High   Predicate
	Medium Predicate
}

// Compile builds the tier predicates from the taxonomy. It is a pure
// function of the taxonomy text: compiling the same table twice yields
// identical predicates.
func Compile(tax *taxonomy.Table) *Set {
	return &Set{
		High:   compileTier(tax, func(e taxonomy.Entry) string { return e.High }),
		Medium: compileTier(tax, func(e taxonomy.Entry) string { return e.Medium }),
	}
}

func compileTier(tax *taxonomy.Table, criterion func(taxonomy.Entry) string) Predicate {
	var p Predicate

	add := func(kind Kind, threshold float64, match func(string) bool) {
		codes := make(map[string]struct{})
		for _, e := range tax.Entries {
			if match(criterion(e)) {
				codes[e.Code] = struct{}{}
			}
		}
		if len(codes) > 0 {
			p.Clauses = append(p.Clauses, Clause{Kind: kind, Codes: codes, Threshold: threshold})
		}
	}

	add(Exists, 0, func(s string) bool { return strings.Contains(s, "existe") })
	for _, n := range peopleThresholds {
		n := n
		add(PeopleLE, n, func(s string) bool { return containsPeopleToken(s, n, false) })
		add(PeopleLT, n, func(s string) bool { return containsPeopleToken(s, n, true) })
	}
	add(PeopleUnspecified, 0, func(s string) bool { return strings.Contains(s, "noseespecifica") })
	for _, n := range percentThresholds {
		token := "<=" + formatThreshold(n) + "%"
		add(PercentLE, n, func(s string) bool { return strings.Contains(s, token) })
	}
	for _, h := range hourThresholds {
		hh := formatThreshold(h)
		add(HourLE, h, func(s string) bool {
			return strings.Contains(s, "antesdelas"+hh+":00") ||
				strings.Contains(s, "antesoigualquelas"+hh+":00")
		})
	}
	return p
}

// containsPeopleToken reports whether s contains the people-count token
// "<=N" (or strict "<N") where the digits are not part of a longer number
// and not a percentage. The explicit lookahead replaces the regex the rule
// text was historically matched with.
func containsPeopleToken(s string, n float64, strict bool) bool {
	op := "<="
	if strict {
		op = "<"
	}
	token := op + formatThreshold(n)
	for start := 0; ; {
		i := strings.Index(s[start:], token)
		if i < 0 {
			return false
		}
		i += start
		rest := s[i+len(token):]
		if rest == "" || (rest[0] != '%' && (rest[0] < '0' || rest[0] > '9')) {
			return true
		}
		start = i + 1
	}
}

func formatThreshold(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// CoverageGaps returns the codes whose low criterion is not plain "existe"
// yet are captured by neither tier predicate. Such codes silently default
// to low severity, so callers log the list as a correctness safety net.
func (s *Set) CoverageGaps(tax *taxonomy.Table) []string {
	seen := make(map[string]struct{})
	var gaps []string
	for _, e := range tax.Entries {
		if e.Low == "existe" {
			continue
		}
		if s.High.covers(e.Code) || s.Medium.covers(e.Code) {
			continue
		}
		if _, ok := seen[e.Code]; ok {
			continue
		}
		seen[e.Code] = struct{}{}
		gaps = append(gaps, e.Code)
	}
	sort.Strings(gaps)
	return gaps
}
