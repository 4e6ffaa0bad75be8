package score_test

import (
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covidnpi/stringency-etl/internal/domain"
	"github.com/covidnpi/stringency-etl/internal/rules"
	"github.com/covidnpi/stringency-etl/internal/score"
	"github.com/covidnpi/stringency-etl/internal/taxonomy"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func day(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// freezeToday pins the scorer's notion of "today" for the test.
func freezeToday(t *testing.T, date string) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(day(date).Add(6 * time.Hour)))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func newScorer(entries ...taxonomy.Entry) *score.Scorer {
	tax := &taxonomy.Table{Entries: entries}
	return score.NewScorer(tax, rules.Compile(tax), discardLogger())
}

func TestScoreProvince_ExistsCriterionScoresHigh(t *testing.T) {
	freezeToday(t, "2021-02-01")
	s := newScorer(taxonomy.Entry{Code: "X.1", High: "existe"})

	m, _ := s.ScoreProvince("madrid", []domain.Intervention{{
		Province:    "madrid",
		Code:        "X.1",
		Start:       day("2021-01-05"),
		End:         day("2021-01-05"),
		AffectedPct: domain.FullCoverage,
	}})

	keys := m.Keys()
	require.Len(t, keys, 1, "a single-day window expands to exactly one row")
	assert.Equal(t, score.RowKey{Date: "2021-01-05", Pct: 100}, keys[0])
	assert.Equal(t, 1.0, m.Value(keys[0], "X.1"))
}

func TestScoreProvince_SeverityTiers(t *testing.T) {
	freezeToday(t, "2021-02-01")
	s := newScorer(taxonomy.Entry{Code: "RS.1", High: "<=6personas", Medium: "<=10personas"})

	base := domain.Intervention{
		Province:    "madrid",
		Code:        "RS.1",
		Start:       day("2021-01-01"),
		End:         day("2021-01-01"),
		AffectedPct: domain.FullCoverage,
	}
	key := score.RowKey{Date: "2021-01-01", Pct: 100}

	tests := []struct {
		name   string
		people *float64
		want   float64
	}{
		{name: "high", people: domain.Float(6), want: 1.0},
		{name: "medium", people: domain.Float(10), want: 0.5},
		{name: "low", people: domain.Float(50), want: 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := base
			rec.People = tt.people
			m, _ := s.ScoreProvince("madrid", []domain.Intervention{rec})
			assert.Equal(t, tt.want, m.Value(key, "RS.1"))
		})
	}
}

func TestScoreProvince_HourNormalization(t *testing.T) {
	freezeToday(t, "2021-02-01")
	s := newScorer(taxonomy.Entry{Code: "RH.5", High: "cierreantesdelas18:00"})

	base := domain.Intervention{
		Province:    "madrid",
		Code:        "RH.5",
		Start:       day("2021-01-01"),
		End:         day("2021-01-01"),
		AffectedPct: domain.FullCoverage,
	}
	key := score.RowKey{Date: "2021-01-01", Pct: 100}

	// Closing at 06:00 means 30h, past the 18:00 cutoff; closing at 09:00
	// stays 9 and satisfies it.
	early := base
	early.Hour = domain.Float(6)
	m, _ := s.ScoreProvince("madrid", []domain.Intervention{early})
	assert.Equal(t, 0.2, m.Value(key, "RH.5"))

	morning := base
	morning.Hour = domain.Float(9)
	m, _ = s.ScoreProvince("madrid", []domain.Intervention{morning})
	assert.Equal(t, 1.0, m.Value(key, "RH.5"))
}

func TestScoreProvince_DateExpansionAndTruncation(t *testing.T) {
	freezeToday(t, "2021-01-10")
	s := newScorer(taxonomy.Entry{Code: "X.1", High: "existe"})

	m, _ := s.ScoreProvince("madrid", []domain.Intervention{{
		Province:    "madrid",
		Code:        "X.1",
		Start:       day("2021-01-08"),
		End:         day("2021-02-15"),
		AffectedPct: domain.FullCoverage,
	}})

	assert.Equal(t, []string{"2021-01-08", "2021-01-09", "2021-01-10"}, m.Dates(),
		"future-dated spans are clipped at today")
}

func TestScoreProvince_OpenEndedRecordRunsToToday(t *testing.T) {
	freezeToday(t, "2021-01-03")
	s := newScorer(taxonomy.Entry{Code: "X.1", High: "existe"})

	m, _ := s.ScoreProvince("madrid", []domain.Intervention{{
		Province:    "madrid",
		Code:        "X.1",
		Start:       day("2021-01-01"),
		AffectedPct: domain.FullCoverage,
	}})

	assert.Equal(t, []string{"2021-01-01", "2021-01-02", "2021-01-03"}, m.Dates())
}

func TestScoreProvince_FutureRecordProducesNothing(t *testing.T) {
	freezeToday(t, "2021-01-10")
	s := newScorer(taxonomy.Entry{Code: "X.1", High: "existe"})

	m, _ := s.ScoreProvince("madrid", []domain.Intervention{{
		Province:    "madrid",
		Code:        "X.1",
		Start:       day("2021-03-01"),
		End:         day("2021-03-10"),
		AffectedPct: domain.FullCoverage,
	}})

	assert.Empty(t, m.Keys())
}

func TestScoreProvince_OverlapResolvesToMax(t *testing.T) {
	freezeToday(t, "2021-02-01")
	s := newScorer(taxonomy.Entry{Code: "RS.1", High: "<=6personas"})

	strict := domain.Intervention{
		Province: "madrid", Code: "RS.1",
		Start: day("2021-01-01"), End: day("2021-01-01"),
		AffectedPct: domain.FullCoverage,
		People:      domain.Float(4),
	}
	loose := strict
	loose.People = domain.Float(50)

	m, _ := s.ScoreProvince("madrid", []domain.Intervention{loose, strict})
	assert.Equal(t, 1.0, m.Value(score.RowKey{Date: "2021-01-01", Pct: 100}, "RS.1"),
		"the most severe overlapping record wins regardless of order")
}

func TestScoreProvince_UnknownCodesDropped(t *testing.T) {
	freezeToday(t, "2021-02-01")
	s := newScorer(taxonomy.Entry{Code: "X.1", High: "existe"})

	m, dropped := s.ScoreProvince("madrid", []domain.Intervention{{
		Province:    "madrid",
		Code:        "ZZ.9",
		Start:       day("2021-01-01"),
		End:         day("2021-01-02"),
		AffectedPct: domain.FullCoverage,
	}})

	assert.Empty(t, m.Keys(), "records with unmapped codes never reach the matrix")
	assert.Equal(t, 1, dropped)
	assert.Equal(t, []string{"X.1"}, m.Codes, "the schema still carries every taxonomy code")
}

func TestScoreProvince_EducationLevelExpansion(t *testing.T) {
	freezeToday(t, "2021-02-01")
	s := newScorer(taxonomy.Entry{Code: "ED.1", High: "existe"})

	key := score.RowKey{Date: "2021-01-01", Pct: 100}
	base := domain.Intervention{
		Province: "madrid", Code: "ED.1",
		Start: day("2021-01-01"), End: day("2021-01-01"),
		AffectedPct: domain.FullCoverage,
	}

	t.Run("stated level targets one column", func(t *testing.T) {
		rec := base
		rec.EducationLevel = "P"
		m, _ := s.ScoreProvince("madrid", []domain.Intervention{rec})
		assert.Equal(t, 1.0, m.Value(key, "ED.1P"))
		assert.True(t, math.IsNaN(m.Value(key, "ED.1I")))
	})

	t.Run("unstated level fans out to every column", func(t *testing.T) {
		m, _ := s.ScoreProvince("madrid", []domain.Intervention{base})
		for _, level := range taxonomy.EducationLevels {
			assert.Equal(t, 1.0, m.Value(key, "ED.1"+level), "level %s", level)
		}
	})
}

func TestMatrix_ValueIsNaNForInactiveCells(t *testing.T) {
	m := score.NewMatrix([]string{"A.1"})
	assert.True(t, math.IsNaN(m.Value(score.RowKey{Date: "2021-01-01", Pct: 100}, "A.1")))
}
