package taxonomy

import (
	"regexp"
	"strings"
)

// The rule table states severity criteria in Spanish prose, e.g.
// "Si alto aforo <= 35%; si medio existe". Fragments are separated by the
// word "si" and identified by the tier keyword they contain.
var (
	trailingSepRe = regexp.MustCompile(`[;=]$`)
	perTableRe    = regexp.MustCompile(`pormesa$`)
)

// ClassifyCriterion splits a criterion string into its high, medium and low
// condition fragments. The text is lowercased and stripped of whitespace
// before splitting, so the compiler can match fixed tokens like "<=35%"
// or "noseespecifica" without worrying about spacing.
func ClassifyCriterion(text string) (high, medium, low string) {
	norm := strings.NewReplacer("\n", "", " ", "").Replace(strings.ToLower(text))
	for _, frag := range strings.Split(norm, "si") {
		switch {
		case strings.Contains(frag, "alto"):
			high = cleanFragment(strings.ReplaceAll(frag, "alto", ""))
		case strings.Contains(frag, "medio"):
			medium = cleanFragment(strings.ReplaceAll(frag, "medio", ""))
		case strings.Contains(frag, "bajo"):
			low = cleanFragment(strings.ReplaceAll(frag, "bajo", ""))
		}
	}
	return high, medium, low
}

// cleanFragment strips up to two trailing "si"-split separators and the
// dangling "por mesa" qualifier some criteria end with.
func cleanFragment(s string) string {
	s = trailingSepRe.ReplaceAllString(s, "")
	s = trailingSepRe.ReplaceAllString(s, "")
	return perTableRe.ReplaceAllString(s, "")
}
