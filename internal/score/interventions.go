package score

import (
	"log/slog"
	"sort"

	"github.com/covidnpi/stringency-etl/internal/domain"
	"github.com/covidnpi/stringency-etl/internal/rules"
	"github.com/covidnpi/stringency-etl/internal/taxonomy"
)

// The three severity scores a code can take on an active day. Inactive days
// stay NaN in the matrix, never 0, so downstream formulas can distinguish
// "no restriction recorded" from a numeric score.
const (
	SeverityLow    = 0.2
	SeverityMedium = 0.5
	SeverityHigh   = 1.0
)

// nightCutoff is the closing-hour boundary below which the hour denotes the
// small hours of the next day: a record closing at "02:00" is a 26h curfew,
// stricter than one closing at 23h, and normalizing keeps hour comparisons
// monotonic.
const nightCutoff = 8

// Scorer maps intervention records onto per-code severity matrices using the
// compiled criterion predicates.
type Scorer struct {
	tax    *taxonomy.Table
	rules  *rules.Set
	logger *slog.Logger
}

// NewScorer builds a scorer over a loaded taxonomy and its compiled rules.
func NewScorer(tax *taxonomy.Table, set *rules.Set, logger *slog.Logger) *Scorer {
	return &Scorer{tax: tax, rules: set, logger: logger}
}

// Severity classifies one record against the tier predicates. High wins over
// medium; records matching neither score low.
func (s *Scorer) Severity(rec domain.Intervention) float64 {
	if s.rules.High.Matches(rec) {
		return SeverityHigh
	}
	if s.rules.Medium.Matches(rec) {
		return SeverityMedium
	}
	return SeverityLow
}

// ScoreProvince expands one province's records into its severity matrix.
// The second return is the number of records dropped for unknown codes.
//
// Each record is normalized (night closing hours shifted past midnight),
// classified into a severity, expanded over its inclusive date window
// truncated at today, and written into the (date, coverage) row for its
// code with max-wins overlap resolution. Education records fan out into
// per-level code columns. The matrix always carries the full taxonomy code
// schema, so provinces with no record for a code still produce that column.
func (s *Scorer) ScoreProvince(province string, recs []domain.Intervention) (*Matrix, int) {
	m := NewMatrix(s.tax.AllCodes())
	today := domain.Today()
	droppedRecords := 0
	dropped := make(map[string]struct{})

	for _, rec := range recs {
		if !s.tax.HasCode(rec.Code) {
			dropped[rec.Code] = struct{}{}
			droppedRecords++
			continue
		}
		rec = normalizeHour(rec)
		severity := s.Severity(rec)

		end := rec.End
		if end.IsZero() || end.After(today) {
			end = today
		}
		if rec.Start.After(end) {
			continue
		}

		codes := expandRecordCodes(rec)
		for d := rec.Start; !d.After(end); d = d.AddDate(0, 0, 1) {
			key := RowKey{Date: domain.DateKey(d), Pct: rec.AffectedPct}
			for _, code := range codes {
				m.SetMax(key, code, severity)
			}
		}
	}

	if len(dropped) > 0 {
		codes := make([]string, 0, len(dropped))
		for c := range dropped {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		s.logger.Warn("dropped records with unknown codes",
			slog.String("province", province),
			slog.Any("codes", codes))
	}
	return m, droppedRecords
}

// normalizeHour shifts closing hours in the small hours of the morning past
// midnight, so "closes at 02:00" compares as 26h.
func normalizeHour(rec domain.Intervention) domain.Intervention {
	if rec.Hour != nil && *rec.Hour <= nightCutoff {
		rec.Hour = domain.Float(*rec.Hour + 24)
	}
	return rec
}

// expandRecordCodes returns the matrix columns a record writes to. Education
// records target the column of their stated level; records without a stated
// level apply to every level at once.
func expandRecordCodes(rec domain.Intervention) []string {
	if !taxonomy.IsEducationCode(rec.Code) {
		return []string{rec.Code}
	}
	if rec.EducationLevel != "" {
		return []string{rec.Code + rec.EducationLevel}
	}
	codes := make([]string, 0, len(taxonomy.EducationLevels))
	for _, level := range taxonomy.EducationLevels {
		codes = append(codes, rec.Code+level)
	}
	return codes
}
