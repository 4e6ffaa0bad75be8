// Command validate performs static integrity checks over the scoring
// reference data: the taxonomy sheets, the compiled criterion coverage, the
// item formula table, and the island weight groups. It is meant to run in CI
// whenever the rule data changes, before any scoring run depends on it.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -taxonomy-dir data/taxonomy \
//	  -formulas configs/items.yaml
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/covidnpi/stringency-etl/internal/regions"
	"github.com/covidnpi/stringency-etl/internal/rules"
	"github.com/covidnpi/stringency-etl/internal/score"
	"github.com/covidnpi/stringency-etl/internal/taxonomy"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	taxonomyDir := flag.String("taxonomy-dir", "data/taxonomy", "directory containing taxonomy CSV sheets")
	formulasPath := flag.String("formulas", "configs/items.yaml", "path to the item formula table")
	flag.Parse()

	os.Exit(run(*taxonomyDir, *formulasPath))
}

func run(taxonomyDir, formulasPath string) int {
	fmt.Println("=== Scoring Reference Data Validation ===")
	fmt.Println()

	tax, err := taxonomy.Load(taxonomyDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load taxonomy: %v\n", err)
		return 1
	}

	formulas, err := score.LoadFormulas(formulasPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load item formulas: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateTaxonomy(tax),
		validateCriterionCoverage(tax),
		validateFormulas(tax, formulas),
		validateIslandGroups(),
	}

	allPassed := true
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS  %s\n", p.name)
			continue
		}
		allPassed = false
		fmt.Printf("FAIL  %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("      - %s\n", e)
		}
	}

	fmt.Println()
	if !allPassed {
		fmt.Println("validation failed")
		return 1
	}
	fmt.Printf("all phases passed (%d taxonomy entries, %d items, formula version %s)\n",
		len(tax.Entries), len(formulas.Formulas), formulas.Version)
	return 0
}

// validateTaxonomy checks structural invariants of the loaded rule table.
func validateTaxonomy(tax *taxonomy.Table) *phase {
	p := &phase{name: "taxonomy structure"}

	seen := make(map[string]string)
	for _, e := range tax.Entries {
		if e.Weight < 0 {
			p.errorf("code %s: negative item weight %v", e.Code, e.Weight)
		}
		if field, dup := seen[e.Code]; dup && field != e.Field {
			p.errorf("code %s appears in fields %q and %q", e.Code, field, e.Field)
		}
		seen[e.Code] = e.Field
	}

	for _, iw := range tax.ItemWeights() {
		if iw.Weight == 0 {
			p.errorf("item %s/%s has zero weight", iw.Field, iw.Item)
		}
	}
	return p
}

// validateCriterionCoverage reports codes whose high/medium criteria did not
// compile into any predicate clause.
func validateCriterionCoverage(tax *taxonomy.Table) *phase {
	p := &phase{name: "criterion coverage"}
	set := rules.Compile(tax)
	for _, code := range set.CoverageGaps(tax) {
		p.errorf("code %s has non-trivial criteria but no compiled clause; it will always score low", code)
	}
	return p
}

// validateFormulas cross-checks the formula table against the taxonomy: every
// referenced code must be known and every taxonomy item must have a formula.
func validateFormulas(tax *taxonomy.Table, formulas *score.FormulaTable) *phase {
	p := &phase{name: "item formulas"}

	known := make(map[string]struct{})
	for _, code := range tax.AllCodes() {
		known[code] = struct{}{}
	}
	for _, code := range formulas.ReferencedCodes() {
		if _, ok := known[code]; !ok {
			p.errorf("formula references code %s not present in the taxonomy", code)
		}
	}

	byItem := make(map[string]struct{}, len(formulas.Formulas))
	for _, f := range formulas.Formulas {
		byItem[f.Item] = struct{}{}
	}
	for _, iw := range tax.ItemWeights() {
		if _, ok := byItem[iw.Item]; !ok {
			p.errorf("taxonomy item %s/%s has no formula", iw.Field, iw.Item)
		}
	}
	return p
}

// validateIslandGroups checks the population fractions of every island group
// sum to 1 and that member names are known.
func validateIslandGroups() *phase {
	p := &phase{name: "island groups"}
	for _, g := range regions.IslandGroups {
		total := 0.0
		for name, w := range g.Members {
			total += w
			if !regions.IsKnown(name) {
				p.errorf("group %s: member %s is not a known dataset name", g.Parent, name)
			}
		}
		if math.Abs(total-1) > 1e-9 {
			p.errorf("group %s: member weights sum to %v, want 1", g.Parent, total)
		}
	}
	return p
}
