package shopping

import "strings"

// unitSynonyms maps lowercased unit spellings to their canonical abbreviation.
var unitSynonyms = map[string]string{
	"tsp":         "tsp",
	"tsps":        "tsp",
	"tsp.":        "tsp",
	"teaspoon":    "tsp",
	"teaspoons":   "tsp",
	"tbsp":        "tbsp",
	"tbsps":       "tbsp",
	"tbsp.":       "tbsp",
	"tbs":         "tbsp",
	"tbl":         "tbsp",
	"tablespoon":  "tbsp",
	"tablespoons": "tbsp",
	"oz":          "oz",
	"oz.":         "oz",
	"ounce":       "oz",
	"ounces":      "oz",
	"fl oz":       "fl oz",
	"fluid ounce": "fl oz",
	"lb":          "lb",
	"lb.":         "lb",
	"lbs":         "lb",
	"lbs.":        "lb",
	"pound":       "lb",
	"pounds":      "lb",
	"g":           "g",
	"gr":          "g",
	"gram":        "g",
	"grams":       "g",
	"kg":          "kg",
	"kgs":         "kg",
	"kilogram":    "kg",
	"kilograms":   "kg",
	"c":           "cup",
	"cup":         "cup",
	"cups":        "cup",
	"ml":          "ml",
	"milliliter":  "ml",
	"milliliters": "ml",
	"millilitre":  "ml",
	"millilitres": "ml",
	"l":           "l",
	"liter":       "l",
	"liters":      "l",
	"litre":       "l",
	"litres":      "l",
	"gal":         "gal",
	"gallon":      "gal",
	"gallons":     "gal",
	"qt":          "qt",
	"quart":       "qt",
	"quarts":      "qt",
	"pt":          "pt",
	"pint":        "pt",
	"pints":       "pt",
	"clove":       "clove",
	"cloves":      "clove",
	"can":         "can",
	"cans":        "can",
	"pinch":       "pinch",
	"pinches":     "pinch",
	"ea":          "each",
	"each":        "each",
	"pc":          "each",
	"pcs":         "each",
	"piece":       "each",
	"pieces":      "each",
}

// DefaultUnit is used for ingredients that carry no unit.
const DefaultUnit = "each"

// NormalizeUnit canonicalizes a free-text unit. Unknown units pass through
// lowercased; an empty unit becomes DefaultUnit.
func NormalizeUnit(raw string) string {
	u := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	if u == "" {
		return DefaultUnit
	}
	if canonical, ok := unitSynonyms[u]; ok {
		return canonical
	}
	return u
}
