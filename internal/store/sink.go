package store

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/covidnpi/stringency-etl/internal/domain"
	"github.com/covidnpi/stringency-etl/internal/score"
)

// precision is the number of decimals written for every score, for output
// stability across runs.
const precision = 3

// FileSink writes score tables as CSV files under a base directory, one
// subdirectory per stage (codes, items, fields).
type FileSink struct {
	dir string
}

// NewFileSink returns a sink rooted at dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// WriteTable writes one province's daily table to <dir>/<stage>/<province>.csv
// with a leading date column and one column per table column.
func (s *FileSink) WriteTable(stage, province string, table *domain.Table) error {
	w, f, err := s.create(stage, province)
	if err != nil {
		return err
	}
	defer f.Close()

	header := append([]string{"date"}, table.Columns...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s header for %s: %w", stage, province, err)
	}
	for _, date := range table.Dates() {
		row := make([]string, 0, len(header))
		row = append(row, date)
		for _, col := range table.Columns {
			row = append(row, formatScore(table.Data[col][date]))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write %s row for %s: %w", stage, province, err)
		}
	}
	w.Flush()
	return w.Error()
}

// WriteMatrix writes one province's (date, coverage) code matrix to
// <dir>/<stage>/<province>.csv. Inactive cells are left empty.
func (s *FileSink) WriteMatrix(stage, province string, m *score.Matrix) error {
	w, f, err := s.create(stage, province)
	if err != nil {
		return err
	}
	defer f.Close()

	header := append([]string{"date", "affected_percentage"}, m.Codes...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s header for %s: %w", stage, province, err)
	}
	for _, key := range m.Keys() {
		row := make([]string, 0, len(header))
		row = append(row, key.Date, strconv.FormatFloat(key.Pct, 'f', -1, 64))
		for _, code := range m.Codes {
			row = append(row, formatScore(m.Value(key, code)))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write %s row for %s: %w", stage, province, err)
		}
	}
	w.Flush()
	return w.Error()
}

func (s *FileSink) create(stage, province string) (*csv.Writer, *os.File, error) {
	dir := filepath.Join(s.dir, stage)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, province+".csv")
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file %s: %w", path, err)
	}
	return csv.NewWriter(f), f, nil
}

// formatScore renders a score with fixed precision; NaN cells are empty.
func formatScore(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}
