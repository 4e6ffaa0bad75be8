// Package regions holds the fixed reference tables for Spanish provinces and
// islands: canonical dataset names, ISO 3166-2 province codes, populations,
// and the population weights used to fold island scores back into their
// parent province.
package regions

import "sort"

// ProvinceToISO maps the canonical dataset province name to its ISO
// province code.
var ProvinceToISO = map[string]string{
	"alava":                 "VI",
	"albacete":              "AB",
	"alicante":              "A",
	"almeria":               "AL",
	"asturias":              "O",
	"avila":                 "AV",
	"badajoz":               "BA",
	"barcelona":             "B",
	"burgos":                "BU",
	"caceres":               "CC",
	"cadiz":                 "CA",
	"cantabria":             "S",
	"castellon":             "CS",
	"ceuta":                 "CE",
	"ciudad_real":           "CR",
	"cordoba":               "CO",
	"coruna_la":             "C",
	"cuenca":                "CU",
	"girona":                "GI",
	"gran_canaria":          "GC",
	"granada":               "GR",
	"guadalajara":           "GU",
	"guipuzcoa":             "SS",
	"huelva":                "H",
	"huesca":                "HU",
	"islas_baleares":        "PM",
	"jaen":                  "J",
	"leon":                  "LE",
	"lleida":                "L",
	"lugo":                  "LU",
	"madrid":                "M",
	"malaga":                "MA",
	"melilla":               "ML",
	"murcia":                "MU",
	"navarra":               "NA",
	"orense":                "OR",
	"palencia":              "P",
	"pontevedra":            "PO",
	"rioja_la":              "LO",
	"salamanca":             "SA",
	"santa_cruz_de_tenerife": "TF",
	"segovia":               "SG",
	"sevilla":               "SE",
	"soria":                 "SO",
	"tarragona":             "T",
	"tenerife":              "TF",
	"teruel":                "TE",
	"toledo":                "TO",
	"valencia":              "V",
	"valladolid":            "VA",
	"vizcaya":               "BI",
	"zamora":                "ZA",
	"zaragoza":              "Z",
}

// Population holds the province population by ISO code (INE, 2020).
var Population = map[string]int{
	"A": 1879888, "AB": 388270, "AL": 727945, "AV": 157664, "B": 5743402,
	"BA": 672137, "BI": 1159443, "BU": 357650, "C": 1121815, "CA": 1244049,
	"CC": 391850, "CE": 84202, "CO": 781451, "CR": 495045, "CS": 585590,
	"CU": 196139, "GC": 1131065, "GI": 781788, "GR": 919168, "GU": 261995,
	"H": 524278, "HU": 222687, "J": 631381, "L": 438517, "LE": 456439,
	"LO": 319914, "LU": 327946, "M": 6779888, "MA": 1685920, "ML": 87076,
	"MU": 1511251, "NA": 661197, "O": 1018784, "OR": 306650, "P": 160321,
	"PM": 1171543, "PO": 945408, "S": 582905, "SA": 329245, "SE": 1950219,
	"SG": 153478, "SO": 88884, "SS": 727121, "T": 816772, "TE": 134176,
	"TF": 1044887, "TO": 703772, "V": 2591875, "VA": 520649, "VI": 333940,
	"Z": 972528, "ZA": 170588,
}

// IslandGroup describes how individual island score series recombine into
// their parent province, weighted by population fraction. Fractions within
// a group sum to 1.
type IslandGroup struct {
	Parent  string
	Members map[string]float64
}

// IslandGroups lists the Balearic and Canary groupings. Member names match
// the per-island dataset names produced by ingestion.
var IslandGroups = []IslandGroup{
	{
		Parent: "islas_baleares",
		Members: map[string]float64{
			"mallorca":   0.778,
			"menorca":    0.081,
			"ibiza":      0.130,
			"formentera": 0.011,
		},
	},
	{
		Parent: "santa_cruz_de_tenerife",
		Members: map[string]float64{
			"tenerife":      0.77,
			"lanzarote":     0.13,
			"fuerteventura": 0.10,
		},
	},
	{
		Parent: "gran_canaria",
		Members: map[string]float64{
			"gran_canaria": 0.88,
			"lapalma":      0.09,
			"lagomera":     0.02,
			"elhierro":     0.01,
		},
	},
}

// islandNames is the set of island dataset names across all groups.
var islandNames = func() map[string]struct{} {
	set := make(map[string]struct{})
	for _, g := range IslandGroups {
		for name := range g.Members {
			set[name] = struct{}{}
		}
	}
	return set
}()

// IsKnown reports whether name is a recognized province or island dataset name.
func IsKnown(name string) bool {
	if _, ok := ProvinceToISO[name]; ok {
		return true
	}
	_, ok := islandNames[name]
	return ok
}

// Names returns all known province dataset names, sorted.
func Names() []string {
	names := make([]string, 0, len(ProvinceToISO))
	for name := range ProvinceToISO {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
