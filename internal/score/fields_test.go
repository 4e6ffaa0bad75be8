package score_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covidnpi/stringency-etl/internal/domain"
	"github.com/covidnpi/stringency-etl/internal/score"
	"github.com/covidnpi/stringency-etl/internal/taxonomy"
)

func cultureTaxonomy() *taxonomy.Table {
	return &taxonomy.Table{Entries: []taxonomy.Entry{
		{Code: "CD.1", Field: "cultura", Item: 1, ItemName: "CUL_mus", Weight: 0.4},
		{Code: "CD.2", Field: "cultura", Item: 1, ItemName: "CUL_mus", Weight: 0.4},
		{Code: "CD.3", Field: "cultura", Item: 2, ItemName: "CUL_cin", Weight: 0.6},
	}}
}

func TestComposeFields_WeightedAverage(t *testing.T) {
	items := domain.NewTable()
	items.Set("CUL_mus", domain.Series{"2021-01-01": 1.0, "2021-01-02": 0.5})
	items.Set("CUL_cin", domain.Series{"2021-01-01": 0.5, "2021-01-02": 0.0})

	fields, err := score.ComposeFields(items, cultureTaxonomy())
	require.NoError(t, err)

	col, ok := fields.Column("cultura")
	require.True(t, ok)
	assert.InDelta(t, (0.4*1.0+0.6*0.5)/1.0, col["2021-01-01"], 1e-9)
	assert.InDelta(t, (0.4*0.5+0.6*0.0)/1.0, col["2021-01-02"], 1e-9)
}

func TestComposeFields_ScoresStayWithinUnitInterval(t *testing.T) {
	items := domain.NewTable()
	items.Set("CUL_mus", domain.Series{"2021-01-01": 1.0})
	items.Set("CUL_cin", domain.Series{"2021-01-01": 1.0})

	fields, err := score.ComposeFields(items, cultureTaxonomy())
	require.NoError(t, err)

	col, _ := fields.Column("cultura")
	for date, v := range col {
		assert.GreaterOrEqual(t, v, 0.0, date)
		assert.LessOrEqual(t, v, 1.0, date)
	}
}

func TestComposeFields_MissingItem(t *testing.T) {
	items := domain.NewTable()
	items.Set("CUL_mus", domain.Series{"2021-01-01": 1.0})

	_, err := score.ComposeFields(items, cultureTaxonomy())
	require.Error(t, err)
	var missing *score.MissingItemError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "cultura", missing.Field)
	assert.Equal(t, "CUL_cin", missing.Item)
}
