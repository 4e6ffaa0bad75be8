package score

import (
	"fmt"
	"sort"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Expression operators. An item formula is a small tree of these over raw
// code columns.
const (
	OpMax   = "max"   // most severe of the operands, NaN-skipping
	OpSum   = "sum"   // sum of the operands, NaN-skipping
	OpMean  = "mean"  // mean of the operands, NaN-skipping
	OpBlend = "blend" // weight*a + (1-weight)*b
	OpGate  = "gate"  // expr when every gate code is inactive, else 0
)

// Expr is one node of an item formula. Which fields apply depends on Op:
// max/sum/mean read Codes and, for max, nested Of operands; blend reads
// Weight, A and B; gate reads Codes (the inactivity guard) and Expr.
type Expr struct {
	Op     string   `koanf:"op"`
	Codes  []string `koanf:"codes"`
	Of     []*Expr  `koanf:"of"`
	Weight float64  `koanf:"weight"`
	A      *Expr    `koanf:"a"`
	B      *Expr    `koanf:"b"`
	Expr   *Expr    `koanf:"expr"`
}

// Formula binds one item name to its combination expression.
type Formula struct {
	Item string `koanf:"item"`
	Expr *Expr  `koanf:"expr"`
}

// FormulaTable is the versioned item-formula configuration. The formulas are
// domain constants that have drifted across releases of the upstream rule
// set, so they ship as data with an explicit version rather than as code.
type FormulaTable struct {
	Version  string    `koanf:"version"`
	Formulas []Formula `koanf:"items"`
}

// LoadFormulas reads and validates an item-formula table from a YAML file.
func LoadFormulas(path string) (*FormulaTable, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load item formulas %s: %w", path, err)
	}
	var table FormulaTable
	if err := k.Unmarshal("", &table); err != nil {
		return nil, fmt.Errorf("parse item formulas %s: %w", path, err)
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("item formulas %s: %w", path, err)
	}
	return &table, nil
}

// Validate checks the structural soundness of every formula.
func (t *FormulaTable) Validate() error {
	if len(t.Formulas) == 0 {
		return fmt.Errorf("no items defined")
	}
	seen := make(map[string]struct{}, len(t.Formulas))
	for _, f := range t.Formulas {
		if f.Item == "" {
			return fmt.Errorf("item with empty name")
		}
		if _, dup := seen[f.Item]; dup {
			return fmt.Errorf("item %q defined twice", f.Item)
		}
		seen[f.Item] = struct{}{}
		if f.Expr == nil {
			return fmt.Errorf("item %q has no expression", f.Item)
		}
		if err := f.Expr.validate(); err != nil {
			return fmt.Errorf("item %q: %w", f.Item, err)
		}
	}
	return nil
}

func (e *Expr) validate() error {
	switch e.Op {
	case OpMax:
		if len(e.Codes) == 0 && len(e.Of) == 0 {
			return fmt.Errorf("max with no operands")
		}
		for _, sub := range e.Of {
			if err := sub.validate(); err != nil {
				return err
			}
		}
	case OpSum, OpMean:
		if len(e.Codes) == 0 {
			return fmt.Errorf("%s with no codes", e.Op)
		}
	case OpBlend:
		if e.Weight < 0 || e.Weight > 1 {
			return fmt.Errorf("blend weight %v outside [0, 1]", e.Weight)
		}
		if e.A == nil || e.B == nil {
			return fmt.Errorf("blend missing an operand side")
		}
		if err := e.A.validate(); err != nil {
			return err
		}
		if err := e.B.validate(); err != nil {
			return err
		}
	case OpGate:
		if len(e.Codes) == 0 {
			return fmt.Errorf("gate with no guard codes")
		}
		if e.Expr == nil {
			return fmt.Errorf("gate with no gated expression")
		}
		if err := e.Expr.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown operator %q", e.Op)
	}
	return nil
}

// ReferencedCodes returns every raw code the table's formulas read, sorted.
func (t *FormulaTable) ReferencedCodes() []string {
	seen := make(map[string]struct{})
	for _, f := range t.Formulas {
		f.Expr.collectCodes(seen)
	}
	codes := make([]string, 0, len(seen))
	for c := range seen {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

func (e *Expr) collectCodes(into map[string]struct{}) {
	if e == nil {
		return
	}
	for _, c := range e.Codes {
		into[c] = struct{}{}
	}
	for _, sub := range e.Of {
		sub.collectCodes(into)
	}
	e.A.collectCodes(into)
	e.B.collectCodes(into)
	e.Expr.collectCodes(into)
}
