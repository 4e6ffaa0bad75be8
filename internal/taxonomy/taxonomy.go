// Package taxonomy loads the domain rule table that defines every known
// intervention code: the field of activity it belongs to, the item group it
// contributes to, the item weight, and the textual criteria that qualify it
// as high or medium severity. The table is loaded once per run and read-only
// afterward.
package taxonomy

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Source column names, as produced by the rule-table export.
const (
	colCode      = "codigo"
	colMeasure   = "medida"
	colWeight    = "ponderacion"
	colName      = "nombre"
	colCriterion = "criterio"
)

// Entry is one taxonomy row: a single intervention code with its item
// grouping and classified severity criteria.
type Entry struct {
	Code     string
	Field    string
	Item     int    // 1-based item group within the field
	ItemName string
	Weight   float64

	// High, Medium and Low are the normalized criterion fragments for each
	// severity tier, e.g. "existe" or "aforo<=35%". Empty when the tier is
	// not mentioned for this code.
	High   string
	Medium string
	Low    string
}

// Table is the parsed rule table. Entries keep sheet order: fields in
// alphabetical sheet order, rows top-to-bottom within a sheet.
type Table struct {
	Entries []Entry
}

// Row is one unparsed sheet row. Weight is nil when the source cell is
// empty, which marks the row as belonging to the previous item group.
type Row struct {
	Code      string
	Measure   string
	Name      string
	Criterion string
	Weight    *float64
}

// Sheet is one field-of-activity worth of rows.
type Sheet struct {
	Field string
	Rows  []Row
}

// Load reads every CSV sheet in dir (one file per field of activity, named
// after the field) and assembles the taxonomy table.
func Load(dir string) (*Table, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list taxonomy sheets: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no taxonomy sheets found in %s", dir)
	}
	sort.Strings(matches)

	sheets := make([]Sheet, 0, len(matches))
	for _, path := range matches {
		field := strings.TrimSuffix(filepath.Base(path), ".csv")
		sheet, err := readSheet(path, field)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, sheet)
	}
	return FromSheets(sheets)
}

// readSheet parses one CSV sheet into rows.
func readSheet(path, field string) (Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return Sheet{}, fmt.Errorf("open taxonomy sheet: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return Sheet{}, fmt.Errorf("read taxonomy sheet %s: %w", path, err)
	}
	if len(records) == 0 {
		return Sheet{Field: field}, nil
	}

	idx := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{colCode, colCriterion, colWeight} {
		if _, ok := idx[required]; !ok {
			return Sheet{}, &MissingColumnError{Sheet: field, Column: required}
		}
	}

	sheet := Sheet{Field: field}
	for _, rec := range records[1:] {
		row := Row{
			Code:      cellAt(rec, idx, colCode),
			Measure:   cellAt(rec, idx, colMeasure),
			Name:      cellAt(rec, idx, colName),
			Criterion: cellAt(rec, idx, colCriterion),
		}
		if raw := cellAt(rec, idx, colWeight); raw != "" {
			w, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
			if err != nil {
				return Sheet{}, fmt.Errorf("taxonomy sheet %q: bad weight %q for code %q: %w", field, raw, row.Code, err)
			}
			row.Weight = &w
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

func cellAt(rec []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// FromSheets assembles a Table from parsed sheets, applying the item
// grouping scan and criterion classification.
func FromSheets(sheets []Sheet) (*Table, error) {
	t := &Table{}
	for _, sheet := range sheets {
		groups := GroupItems(sheet.Rows)
		for _, g := range groups {
			name := g.Name
			if name == "" {
				name = itemFallbackName(sheet.Field, g.Index)
			}
			for _, row := range g.Rows {
				if row.Code == "" {
					continue
				}
				high, medium, low := ClassifyCriterion(row.Criterion)
				t.Entries = append(t.Entries, Entry{
					Code:     row.Code,
					Field:    sheet.Field,
					Item:     g.Index,
					ItemName: name,
					Weight:   g.Weight,
					High:     high,
					Medium:   medium,
					Low:      low,
				})
			}
		}
	}
	if len(t.Entries) == 0 {
		return nil, fmt.Errorf("taxonomy has no entries")
	}
	return t, nil
}

// ItemGroup is a run of consecutive sheet rows belonging to one item.
type ItemGroup struct {
	Index  int // 1-based position within the sheet
	Name   string
	Weight float64
	Rows   []Row
}

// GroupItems scans rows top-to-bottom and starts a new item group whenever a
// row carries a weight value; rows without one belong to the group opened by
// the nearest preceding weighted row. The item name forward-fills the same
// way. Rows before the first weighted row are dropped, since they belong to
// no declared item.
func GroupItems(rows []Row) []ItemGroup {
	var groups []ItemGroup
	var current *ItemGroup
	lastName := ""
	for _, row := range rows {
		if row.Name != "" {
			lastName = row.Name
		}
		if row.Weight != nil {
			groups = append(groups, ItemGroup{
				Index:  len(groups) + 1,
				Name:   lastName,
				Weight: *row.Weight,
			})
			current = &groups[len(groups)-1]
		}
		if current == nil {
			continue
		}
		current.Rows = append(current.Rows, row)
	}
	return groups
}

// itemFallbackName derives a stable item name for unnamed groups from the
// field prefix and the item index, e.g. "COM_3".
func itemFallbackName(field string, item int) string {
	prefix := field
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return strings.ToUpper(prefix) + "_" + strconv.Itoa(item)
}

// BaseCodes returns the unique intervention codes in table order, without
// education-level expansion.
func (t *Table) BaseCodes() []string {
	seen := make(map[string]struct{}, len(t.Entries))
	var codes []string
	for _, e := range t.Entries {
		if _, ok := seen[e.Code]; ok {
			continue
		}
		seen[e.Code] = struct{}{}
		codes = append(codes, e.Code)
	}
	return codes
}

// AllCodes returns every scoreable code, with education base codes expanded
// into their per-level variants, sorted. This is the uniform column schema
// every province's score matrix must carry.
func (t *Table) AllCodes() []string {
	codes := ExpandEducationCodes(t.BaseCodes())
	sort.Strings(codes)
	return codes
}

// HasCode reports whether code is a recognized base code. The recognized
// set is closed: records with unknown codes are dropped from scoring.
func (t *Table) HasCode(code string) bool {
	for _, e := range t.Entries {
		if e.Code == code {
			return true
		}
	}
	return false
}

// ItemWeight is the declared weight of one item within its field.
type ItemWeight struct {
	Field  string
	Item   string
	Weight float64
}

// ItemWeights returns the per-item weight table in first-seen order,
// deduplicated, for field composition.
func (t *Table) ItemWeights() []ItemWeight {
	seen := make(map[string]struct{})
	var weights []ItemWeight
	for _, e := range t.Entries {
		key := e.Field + "\x00" + e.ItemName
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		weights = append(weights, ItemWeight{Field: e.Field, Item: e.ItemName, Weight: e.Weight})
	}
	return weights
}

// Fields returns the field names in first-seen order.
func (t *Table) Fields() []string {
	seen := make(map[string]struct{})
	var fields []string
	for _, e := range t.Entries {
		if _, ok := seen[e.Field]; ok {
			continue
		}
		seen[e.Field] = struct{}{}
		fields = append(fields, e.Field)
	}
	return fields
}
