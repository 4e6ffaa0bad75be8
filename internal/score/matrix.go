// Package score turns intervention records into daily stringency scores:
// per-code severity matrices, sub-provincial collapse, item composition by
// formula, field composition by weight, and island aggregation.
package score

import (
	"math"
	"sort"
)

// RowKey identifies one matrix row: a date and the population fraction the
// row's scores apply to. Sub-provincial restrictions produce rows with
// Pct < 100 alongside the province-wide Pct = 100 rows for the same date.
type RowKey struct {
	Date string // ISO 8601 day
	Pct  float64
}

// Matrix is the per-province severity table: one row per (date, coverage)
// pair, one column per taxonomy code. Cells default to NaN, meaning the code
// is not active for that row; the only written values are the three severity
// scores.
type Matrix struct {
	Codes []string
	Rows  map[RowKey]map[string]float64
}

// NewMatrix returns an empty matrix with the given uniform code schema.
func NewMatrix(codes []string) *Matrix {
	sorted := append([]string(nil), codes...)
	sort.Strings(sorted)
	return &Matrix{
		Codes: sorted,
		Rows:  make(map[RowKey]map[string]float64),
	}
}

// SetMax writes score into the cell (key, code) unless an equal or higher
// score is already present. Overlapping records for the same code and day
// therefore resolve to the most severe one.
func (m *Matrix) SetMax(key RowKey, code string, score float64) {
	row, ok := m.Rows[key]
	if !ok {
		row = make(map[string]float64)
		m.Rows[key] = row
	}
	if prev, ok := row[code]; ok && prev >= score {
		return
	}
	row[code] = score
}

// Value returns the cell score, or NaN when the code is not active for the
// row.
func (m *Matrix) Value(key RowKey, code string) float64 {
	if v, ok := m.Rows[key][code]; ok {
		return v
	}
	return math.NaN()
}

// Keys returns the row keys ordered by date, then coverage.
func (m *Matrix) Keys() []RowKey {
	keys := make([]RowKey, 0, len(m.Rows))
	for k := range m.Rows {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Date != keys[j].Date {
			return keys[i].Date < keys[j].Date
		}
		return keys[i].Pct < keys[j].Pct
	})
	return keys
}

// Bounds reports the first and last dates of the matrix. ok is false for an
// empty matrix.
func (m *Matrix) Bounds() (first, last string, ok bool) {
	for k := range m.Rows {
		if !ok || k.Date < first {
			first = k.Date
		}
		if !ok || k.Date > last {
			last = k.Date
		}
		ok = true
	}
	return first, last, ok
}

// Pcts returns the distinct coverage fractions present for a date, ascending.
func (m *Matrix) Pcts(date string) []float64 {
	var pcts []float64
	for k := range m.Rows {
		if k.Date == date {
			pcts = append(pcts, k.Pct)
		}
	}
	sort.Float64s(pcts)
	return pcts
}

// Dates returns the distinct dates present, in chronological order.
func (m *Matrix) Dates() []string {
	seen := make(map[string]struct{})
	for k := range m.Rows {
		seen[k.Date] = struct{}{}
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}
