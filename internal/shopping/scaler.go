package shopping

import "math"

// NormalizeServings returns v rounded to the nearest integer, or fallback
// when v is not finite or below 1.
func NormalizeServings(v float64, fallback int) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 1 {
		return fallback
	}
	return int(math.Round(v))
}

// ScaleFactor is target/recipe servings after both are normalized.
func ScaleFactor(recipeServings, targetServings float64, fallback int) float64 {
	if fallback < 1 {
		fallback = 1
	}
	recipe := NormalizeServings(recipeServings, fallback)
	target := NormalizeServings(targetServings, fallback)
	return float64(target) / float64(recipe)
}

// ScaleQuantity multiplies a base quantity by factor. A nil base stays
// unknown; a non-finite base counts as 1.
func ScaleQuantity(base *float64, factor float64) *float64 {
	if base == nil {
		return nil
	}
	q := *base
	if math.IsNaN(q) || math.IsInf(q, 0) {
		q = 1
	}
	scaled := q * factor
	return &scaled
}

// AddQuantities sums two quantities. The result is unknown if either is.
func AddQuantities(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	sum := *a + *b
	return &sum
}
