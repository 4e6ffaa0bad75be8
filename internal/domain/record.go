package domain

import "time"

// FullCoverage is the affected-percentage value of a province-wide
// intervention. Anything below it denotes a sub-provincial restriction
// covering only that fraction of the population.
const FullCoverage = 100.0

// Intervention is one policy record after ingestion: a single restriction
// (identified by a dotted taxonomy code such as "AF.1") applied by a region
// to a province over an inclusive date window.
type Intervention struct {
	Region   string
	Province string
	Code     string
	Start    time.Time
	End      time.Time

	// AffectedPct is the fraction of the province population subject to
	// the restriction, in (0, 100]. Defaults to FullCoverage when the
	// source record does not state one.
	AffectedPct float64

	// People and Hour are the numeric thresholds some restrictions carry
	// (maximum group size, closing hour). Nil when the record does not
	// specify them; several severity criteria test for exactly that.
	People *float64
	Hour   *float64

	// EducationLevel qualifies education codes (ED.*). Empty means the
	// record applies to every level.
	EducationLevel string
}

// Float returns a pointer to v, for building records with optional thresholds.
func Float(v float64) *float64 { return &v }
