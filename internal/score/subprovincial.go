package score

import (
	"log/slog"
	"math"

	"github.com/covidnpi/stringency-etl/internal/domain"
)

// Collapse folds a (date, coverage) matrix into one daily series per column
// by population-weighted average.
//
// Each column is collapsed independently. A NaN cell on the province-wide
// row (coverage 100) means no region-wide record of that kind and counts as
// score 0; a NaN cell on a sub-provincial row means that restriction never
// applied to that population slice, so the row is dropped for the column and
// keeps none of its weight. The remaining sub-provincial rows weigh in at
// their own percentage and the province-wide row takes the residual, 100
// minus their sum. A date whose surviving partial coverages exceed 100 gets
// its residual clamped to 0 and is reported per column. When no
// province-wide row exists on a date with sub-provincial activity, the
// residual share counts as unrestricted (score 0).
//
// The output is reindexed over the full observed date range with gaps
// filled 0, so every column shares one contiguous daily axis.
func Collapse(m *Matrix, province string, logger *slog.Logger) *domain.Table {
	out := domain.NewTable()
	first, last, ok := m.Bounds()
	if !ok {
		return out
	}

	for _, col := range m.Codes {
		series := make(domain.Series)
		var clamped []string
		for _, date := range m.Dates() {
			partial, weighted := 0.0, 0.0
			general := 0.0
			active := false
			for _, pct := range m.Pcts(date) {
				v := m.Value(RowKey{Date: date, Pct: pct}, col)
				if pct < domain.FullCoverage {
					if math.IsNaN(v) {
						continue
					}
					partial += pct
					weighted += pct * v
				} else {
					if math.IsNaN(v) {
						v = 0
					}
					general = v
				}
				active = true
			}
			if !active {
				continue
			}
			residual := domain.FullCoverage - partial
			if residual < 0 {
				residual = 0
				clamped = append(clamped, date)
			}
			series[date] = (weighted + residual*general) / (partial + residual)
		}
		if len(clamped) > 0 {
			logger.Warn("partial coverages exceed the full province, residual clamped to 0",
				slog.String("province", province),
				slog.String("code", col),
				slog.Any("dates", clamped))
		}
		out.Set(col, series.Reindex(first, last, 0))
	}
	return out
}
