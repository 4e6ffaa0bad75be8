package score

import "math"

// ComposeItems evaluates every item formula against each (date, coverage)
// row of the code matrix, producing an item matrix on the same row keys.
//
// NaN semantics follow the code matrix convention: a code that is NaN on a
// row is inactive there. Max, sum and mean skip inactive operands and come
// out NaN only when every operand is inactive, so one active code is enough
// to score an item. A blend whose sides are both inactive is inactive;
// a single inactive side contributes 0. A gate yields its expression only
// when every guard code is inactive or scored 0, and 0 otherwise.
func ComposeItems(m *Matrix, table *FormulaTable) *Matrix {
	items := make([]string, 0, len(table.Formulas))
	for _, f := range table.Formulas {
		items = append(items, f.Item)
	}
	out := NewMatrix(items)
	for _, key := range m.Keys() {
		for _, f := range table.Formulas {
			v := f.Expr.eval(m, key)
			if !math.IsNaN(v) {
				out.SetMax(key, f.Item, v)
			}
		}
		// keep rows that evaluated all-NaN, so the item matrix covers the
		// same (date, coverage) keys as the code matrix
		if _, ok := out.Rows[key]; !ok {
			out.Rows[key] = make(map[string]float64)
		}
	}
	return out
}

func (e *Expr) eval(m *Matrix, key RowKey) float64 {
	switch e.Op {
	case OpMax:
		best := math.NaN()
		for _, code := range e.Codes {
			best = nanMax(best, m.Value(key, code))
		}
		for _, sub := range e.Of {
			best = nanMax(best, sub.eval(m, key))
		}
		return best
	case OpSum:
		sum, any := 0.0, false
		for _, code := range e.Codes {
			if v := m.Value(key, code); !math.IsNaN(v) {
				sum += v
				any = true
			}
		}
		if !any {
			return math.NaN()
		}
		return sum
	case OpMean:
		sum, n := 0.0, 0
		for _, code := range e.Codes {
			if v := m.Value(key, code); !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		if n == 0 {
			return math.NaN()
		}
		return sum / float64(n)
	case OpBlend:
		a := e.A.eval(m, key)
		b := e.B.eval(m, key)
		if math.IsNaN(a) && math.IsNaN(b) {
			return math.NaN()
		}
		if math.IsNaN(a) {
			a = 0
		}
		if math.IsNaN(b) {
			b = 0
		}
		return e.Weight*a + (1-e.Weight)*b
	case OpGate:
		for _, code := range e.Codes {
			if v := m.Value(key, code); !math.IsNaN(v) && v != 0 {
				return 0
			}
		}
		return e.Expr.eval(m, key)
	}
	return math.NaN()
}

// nanMax is max treating NaN as absent; NaN only when both sides are NaN.
func nanMax(a, b float64) float64 {
	if math.IsNaN(a) {
		return b
	}
	if math.IsNaN(b) {
		return a
	}
	return math.Max(a, b)
}
