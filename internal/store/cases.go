package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/covidnpi/stringency-etl/internal/domain"
	"github.com/covidnpi/stringency-etl/internal/regions"
)

// Case CSV columns.
const (
	colCaseDate  = "date"
	colCaseCases = "cases"
)

// LoadCases reads a daily case-count CSV (date, province, cases) into one
// series per province. Rows for unknown provinces or with unusable values
// are skipped with a warning. Duplicate (province, date) rows sum.
func LoadCases(path string, logger *slog.Logger) (map[string]domain.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open case file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read case file %s: %w", path, err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{colCaseDate, colProvince, colCaseCases} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("case file %s: missing required column %q", path, required)
		}
	}

	cell := func(row []string, col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	byProvince := make(map[string]domain.Series)
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read case file %s: %w", path, err)
		}
		line++

		province := ProvinceKey(cell(row, colProvince))
		if !regions.IsKnown(province) {
			logger.Warn("skipping case row for unknown province",
				slog.String("province", province), slog.Int("line", line))
			continue
		}
		day, err := domain.ParseDate(cell(row, colCaseDate))
		if err != nil {
			logger.Warn("skipping case row with unusable date",
				slog.String("value", cell(row, colCaseDate)), slog.Int("line", line))
			continue
		}
		count, err := parseNumber(cell(row, colCaseCases))
		if err != nil || count < 0 {
			logger.Warn("skipping case row with unusable count",
				slog.String("value", cell(row, colCaseCases)), slog.Int("line", line))
			continue
		}

		if byProvince[province] == nil {
			byProvince[province] = make(domain.Series)
		}
		byProvince[province][domain.DateKey(day)] += count
	}
	return byProvince, nil
}
