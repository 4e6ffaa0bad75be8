package score

import (
	"fmt"

	"github.com/covidnpi/stringency-etl/internal/domain"
	"github.com/covidnpi/stringency-etl/internal/taxonomy"
)

// MissingItemError reports a taxonomy-declared item with no column in the
// composed item table, which means the formula table and the taxonomy
// disagree about the item set.
type MissingItemError struct {
	Field string
	Item  string
}

func (e *MissingItemError) Error() string {
	return fmt.Sprintf("field %q: taxonomy declares item %q but no item score was composed for it", e.Field, e.Item)
}

// ComposeFields aggregates the collapsed per-item daily table into one
// series per field of activity, as the weighted average of the field's
// items under the taxonomy-declared weights.
func ComposeFields(items *domain.Table, tax *taxonomy.Table) (*domain.Table, error) {
	byField := make(map[string][]taxonomy.ItemWeight)
	for _, iw := range tax.ItemWeights() {
		byField[iw.Field] = append(byField[iw.Field], iw)
	}

	out := domain.NewTable()
	dates := items.Dates()
	for _, field := range tax.Fields() {
		weights := byField[field]
		total := 0.0
		for _, iw := range weights {
			if _, ok := items.Column(iw.Item); !ok {
				return nil, &MissingItemError{Field: field, Item: iw.Item}
			}
			total += iw.Weight
		}
		if total == 0 {
			return nil, fmt.Errorf("field %q: item weights sum to 0", field)
		}

		series := make(domain.Series, len(dates))
		for _, date := range dates {
			sum := 0.0
			for _, iw := range weights {
				col, _ := items.Column(iw.Item)
				sum += iw.Weight * col[date]
			}
			series[date] = sum / total
		}
		out.Set(field, series)
	}
	return out, nil
}
