package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covidnpi/stringency-etl/internal/domain"
	"github.com/covidnpi/stringency-etl/internal/store"
)

func writeCases(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cases.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCases(t *testing.T) {
	path := writeCases(t,
		"date,province,cases\n"+
			"2021-01-01,Madrid,120\n"+
			"2021-01-02,Madrid,95\n"+
			"2021-01-01,Sevilla,40\n")

	cases, err := store.LoadCases(path, discardLogger())
	require.NoError(t, err)

	require.Len(t, cases, 2)
	assert.Equal(t, domain.Series{"2021-01-01": 120, "2021-01-02": 95}, cases["madrid"])
	assert.Equal(t, domain.Series{"2021-01-01": 40}, cases["sevilla"])
}

func TestLoadCases_DuplicateRowsSum(t *testing.T) {
	path := writeCases(t,
		"date,province,cases\n"+
			"2021-01-01,Madrid,10\n"+
			"2021-01-01,Madrid,5\n")

	cases, err := store.LoadCases(path, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 15.0, cases["madrid"]["2021-01-01"])
}

func TestLoadCases_SkipsUnusableRows(t *testing.T) {
	path := writeCases(t,
		"date,province,cases\n"+
			"2021-01-01,Atlantis,10\n"+
			"someday,Madrid,10\n"+
			"2021-01-01,Madrid,-3\n"+
			"2021-01-01,Madrid,7\n")

	cases, err := store.LoadCases(path, discardLogger())
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, domain.Series{"2021-01-01": 7}, cases["madrid"])
}

func TestLoadCases_MissingColumn(t *testing.T) {
	path := writeCases(t, "date,province\n2021-01-01,Madrid\n")
	_, err := store.LoadCases(path, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cases")
}
