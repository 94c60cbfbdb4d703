package planner

import (
	"fmt"
	"time"
)

// DateLayout is the format of plan date keys.
const DateLayout = "2006-01-02"

// Slot is a meal position within a day.
type Slot string

const (
	SlotBreakfast Slot = "breakfast"
	SlotLunch     Slot = "lunch"
	SlotDinner    Slot = "dinner"
)

// Slots lists every slot in the order meals happen during the day.
var Slots = []Slot{SlotBreakfast, SlotLunch, SlotDinner}

// Order returns the position of the slot within a day; unknown slots sort last.
func (s Slot) Order() int {
	for i, slot := range Slots {
		if slot == s {
			return i
		}
	}
	return len(Slots)
}

// Valid reports whether s is one of the known slots.
func (s Slot) Valid() bool {
	return s.Order() < len(Slots)
}

// Selection is what occupies a slot.
type Selection string

const (
	SelectionRecipe    Selection = "recipe"
	SelectionSkip      Selection = "skip"
	SelectionEatingOut Selection = "eating_out"
	SelectionLeftovers Selection = "leftovers"
)

// Valid reports whether s is a known selection.
func (s Selection) Valid() bool {
	switch s {
	case SelectionRecipe, SelectionSkip, SelectionEatingOut, SelectionLeftovers:
		return true
	}
	return false
}

// PlannedMeal is the entry for one (date, slot). RecipeID is only set for recipe selections.
type PlannedMeal struct {
	Date      string    `json:"date" yaml:"date"`
	Slot      Slot      `json:"slot" yaml:"slot"`
	Selection Selection `json:"selection" yaml:"selection"`
	RecipeID  string    `json:"recipe_id,omitempty" yaml:"recipe_id"`
}

// Plan is the resolved plan for a date range.
type Plan struct {
	From  string        `json:"from"`
	To    string        `json:"to"`
	Meals []PlannedMeal `json:"meals"`
	// ServingOverrides holds per-day target servings keyed by date.
	ServingOverrides map[string]float64 `json:"serving_overrides,omitempty"`
}

// RecipeIDs returns the distinct recipe ids referenced by recipe selections, in plan order.
func (p Plan) RecipeIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, m := range p.Meals {
		if m.Selection != SelectionRecipe || m.RecipeID == "" {
			continue
		}
		if _, ok := seen[m.RecipeID]; ok {
			continue
		}
		seen[m.RecipeID] = struct{}{}
		ids = append(ids, m.RecipeID)
	}
	return ids
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From time.Time
	To   time.Time
}

// MaxRangeDays bounds how many days a single request may cover.
const MaxRangeDays = 62

// ParseRange parses two date keys into a DateRange.
func ParseRange(from, to string) (DateRange, error) {
	f, err := time.Parse(DateLayout, from)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid from date %q: expected YYYY-MM-DD", from)
	}
	t, err := time.Parse(DateLayout, to)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid to date %q: expected YYYY-MM-DD", to)
	}
	if t.Before(f) {
		return DateRange{}, fmt.Errorf("to date %s is before from date %s", to, from)
	}
	if days := int(t.Sub(f).Hours()/24) + 1; days > MaxRangeDays {
		return DateRange{}, fmt.Errorf("date range of %d days exceeds the %d day limit", days, MaxRangeDays)
	}
	return DateRange{From: f, To: t}, nil
}

// Keys returns the date keys of every day in the range.
func (r DateRange) Keys() []string {
	var keys []string
	for d := r.From; !d.After(r.To); d = d.AddDate(0, 0, 1) {
		keys = append(keys, d.Format(DateLayout))
	}
	return keys
}

// GetNextMonday returns the date of the next Monday.
// If today is Monday, it returns the following Monday.
func GetNextMonday(now time.Time) time.Time {
	daysUntil := (8 - int(now.Weekday())) % 7
	if daysUntil == 0 {
		daysUntil = 7
	}
	y, m, d := now.AddDate(0, 0, daysUntil).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekOf returns the Monday-to-Sunday range following now.
func WeekOf(now time.Time) DateRange {
	start := GetNextMonday(now)
	return DateRange{From: start, To: start.AddDate(0, 0, 6)}
}
