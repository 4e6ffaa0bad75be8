package taxonomy

// The rule table models education restrictions once per base code, but
// scoring applies them per education level, so the base codes expand into
// one variant per level (infantil, primaria, secundaria, bachillerato,
// universidad).
var (
	EducationBaseCodes = []string{"ED.1", "ED.2", "ED.5"}
	EducationLevels    = []string{"I", "P", "S", "B", "U"}
)

// IsEducationCode reports whether code is one of the per-level base codes.
func IsEducationCode(code string) bool {
	for _, c := range EducationBaseCodes {
		if code == c {
			return true
		}
	}
	return false
}

// ExpandEducationCodes replaces each education base code in codes with its
// five per-level variants. Other codes pass through unchanged.
func ExpandEducationCodes(codes []string) []string {
	out := make([]string, 0, len(codes)+4*len(EducationBaseCodes))
	for _, code := range codes {
		if IsEducationCode(code) {
			for _, level := range EducationLevels {
				out = append(out, code+level)
			}
			continue
		}
		out = append(out, code)
	}
	return out
}
