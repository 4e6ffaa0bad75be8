package domain

import "sort"

// Series is a daily time series keyed by ISO 8601 date.
type Series map[string]float64

// Scale returns a new series with every value multiplied by f.
func (s Series) Scale(f float64) Series {
	out := make(Series, len(s))
	for k, v := range s {
		out[k] = v * f
	}
	return out
}

// AddFill returns the outer join of two series, summing values and treating
// dates absent from either side as 0, so series with different observed
// spans do not truncate each other.
func (s Series) AddFill(o Series) Series {
	out := make(Series, len(s))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range o {
		out[k] += v
	}
	return out
}

// Dates returns the series' date keys in chronological order.
func (s Series) Dates() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Bounds reports the first and last observed dates. ok is false for an
// empty series.
func (s Series) Bounds() (first, last string, ok bool) {
	for k := range s {
		if !ok || k < first {
			first = k
		}
		if !ok || k > last {
			last = k
		}
		ok = true
	}
	return first, last, ok
}

// Reindex returns the series re-keyed over the full [first, last] date
// range, filling dates without a value with fill.
func (s Series) Reindex(first, last string, fill float64) Series {
	out := make(Series)
	for _, k := range DateRange(first, last) {
		if v, present := s[k]; present {
			out[k] = v
		} else {
			out[k] = fill
		}
	}
	return out
}

// Table is a set of named daily series sharing a date axis: one column per
// item or field of activity, one row per date.
type Table struct {
	Columns []string
	Data    map[string]Series
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{Data: make(map[string]Series)}
}

// Set adds or replaces a column.
func (t *Table) Set(name string, s Series) {
	if _, exists := t.Data[name]; !exists {
		t.Columns = append(t.Columns, name)
	}
	t.Data[name] = s
}

// Column returns the named series.
func (t *Table) Column(name string) (Series, bool) {
	s, ok := t.Data[name]
	return s, ok
}

// Dates returns the sorted union of all column date keys.
func (t *Table) Dates() []string {
	seen := make(map[string]struct{})
	for _, s := range t.Data {
		for k := range s {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Scale returns a new table with every column scaled by f.
func (t *Table) Scale(f float64) *Table {
	out := NewTable()
	for _, name := range t.Columns {
		out.Set(name, t.Data[name].Scale(f))
	}
	return out
}

// AddTables returns the column-wise outer-join sum of two tables, filling
// missing dates with 0. Columns present in only one table are carried over.
func AddTables(a, b *Table) *Table {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	out := NewTable()
	for _, name := range a.Columns {
		if other, ok := b.Data[name]; ok {
			out.Set(name, a.Data[name].AddFill(other))
		} else {
			out.Set(name, a.Data[name].AddFill(nil))
		}
	}
	for _, name := range b.Columns {
		if _, ok := a.Data[name]; !ok {
			out.Set(name, b.Data[name].AddFill(nil))
		}
	}
	return out
}
