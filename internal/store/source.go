// Package store is the file boundary of the scoring core: reading
// intervention record CSVs and writing the scored daily tables back out.
package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/covidnpi/stringency-etl/internal/domain"
	"github.com/covidnpi/stringency-etl/internal/regions"
)

// Record CSV columns. Dates are ISO 8601; people, hour and education_level
// may be empty.
const (
	colRegion    = "region"
	colProvince  = "province"
	colCode      = "code"
	colStart     = "start_date"
	colEnd       = "end_date"
	colPct       = "affected_percentage"
	colPeople    = "people"
	colHour      = "hour"
	colEducation = "education_level"
)

// FileSource reads intervention records from a directory of CSV files and
// groups them by province.
type FileSource struct {
	dir    string
	logger *slog.Logger
}

// NewFileSource returns a source over every *.csv file in dir.
func NewFileSource(dir string, logger *slog.Logger) *FileSource {
	return &FileSource{dir: dir, logger: logger}
}

// Load reads all record files and returns the records grouped by province
// key. Records naming a province outside the known list are skipped with a
// warning; per-field anomalies are coerced and logged but do not drop the
// record unless its date window is unusable.
func (s *FileSource) Load() (map[string][]domain.Intervention, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list record files: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no record files found in %s", s.dir)
	}
	sort.Strings(matches)

	byProvince := make(map[string][]domain.Intervention)
	for _, path := range matches {
		if err := s.loadFile(path, byProvince); err != nil {
			return nil, err
		}
	}
	return byProvince, nil
}

func (s *FileSource) loadFile(path string, into map[string][]domain.Intervention) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open record file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read record file %s: %w", path, err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{colProvince, colCode, colStart} {
		if _, ok := idx[required]; !ok {
			return fmt.Errorf("record file %s: missing required column %q", path, required)
		}
	}

	file := filepath.Base(path)
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read record file %s: %w", path, err)
		}
		line++
		rec, ok := s.parseRow(file, line, row, idx)
		if !ok {
			continue
		}
		into[rec.Province] = append(into[rec.Province], rec)
	}
	return nil
}

// parseRow builds one record, coercing malformed optional values to their
// defaults with a warning. ok is false when the record cannot be scored at
// all (unknown province, unusable start date).
func (s *FileSource) parseRow(file string, line int, row []string, idx map[string]int) (domain.Intervention, bool) {
	cell := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	warn := func(msg string, args ...any) {
		args = append(args, slog.String("file", file), slog.Int("line", line))
		s.logger.Warn(msg, args...)
	}

	province := ProvinceKey(cell(colProvince))
	if !regions.IsKnown(province) {
		warn("skipping record for unknown province", slog.String("province", province))
		return domain.Intervention{}, false
	}

	rec := domain.Intervention{
		Region:   cell(colRegion),
		Province: province,
		Code:     cell(colCode),
	}

	start, err := domain.ParseDate(cell(colStart))
	if err != nil {
		warn("skipping record with unusable start date", slog.String("value", cell(colStart)))
		return domain.Intervention{}, false
	}
	rec.Start = start
	if raw := cell(colEnd); raw != "" {
		end, err := domain.ParseDate(raw)
		if err != nil {
			warn("treating unusable end date as open-ended", slog.String("value", raw))
		} else {
			rec.End = end
		}
	}

	rec.AffectedPct = domain.FullCoverage
	if raw := cell(colPct); raw != "" {
		pct, err := parseNumber(raw)
		if err != nil || pct <= 0 || pct > domain.FullCoverage {
			warn("coercing unusable affected percentage to full coverage", slog.String("value", raw))
		} else {
			rec.AffectedPct = pct
		}
	}

	if raw := cell(colPeople); raw != "" {
		if v, err := parseNumber(raw); err != nil {
			warn("coercing non-numeric people threshold to unspecified", slog.String("value", raw))
		} else {
			rec.People = domain.Float(v)
		}
	}
	if raw := cell(colHour); raw != "" {
		if v, err := parseNumber(raw); err != nil {
			warn("coercing non-numeric hour threshold to unspecified", slog.String("value", raw))
		} else {
			rec.Hour = domain.Float(v)
		}
	}
	rec.EducationLevel = strings.ToUpper(cell(colEducation))
	return rec, true
}

// parseNumber parses a float accepting decimal commas and stray unit
// suffixes like "30%" or "22:00".
func parseNumber(raw string) (float64, error) {
	cleaned := strings.ReplaceAll(raw, ",", ".")
	cleaned = strings.TrimSuffix(cleaned, "%")
	if i := strings.IndexByte(cleaned, ':'); i >= 0 {
		cleaned = cleaned[:i]
	}
	return strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
}

// ProvinceKey normalizes a province name into its canonical key form:
// lowercase, trimmed, spaces as underscores.
func ProvinceKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
