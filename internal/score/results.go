package score

import "github.com/covidnpi/stringency-etl/internal/domain"

// ProvinceScores bundles every scored stage for one province: the raw
// (date, coverage) code matrix, the collapsed daily item table, and the
// composed daily field table.
type ProvinceScores struct {
	Province string
	Codes    *Matrix
	Items    *domain.Table
	Fields   *domain.Table
}
