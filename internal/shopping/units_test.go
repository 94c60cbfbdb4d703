package shopping

import "testing"

func TestNormalizeUnit(t *testing.T) {
	tests := map[string]string{
		"":             "each",
		"   ":          "each",
		"Tablespoons":  "tbsp",
		" tsp ":        "tsp",
		"teaspoon":     "tsp",
		"OUNCES":       "oz",
		"lbs":          "lb",
		"Pound":        "lb",
		"grams":        "g",
		"cups":         "cup",
		"fluid  ounce": "fl oz",
		"Bunch":        "bunch",
		"handful":      "handful",
	}
	for in, want := range tests {
		if got := NormalizeUnit(in); got != want {
			t.Errorf("NormalizeUnit(%q) = %q, want %q", in, got, want)
		}
	}
}
