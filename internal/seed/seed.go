// Package seed loads stores, the ingredient catalog, the pantry, recipes and
// a meal plan from a YAML file into the database.
package seed

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/stores"
)

// Store is the YAML shape of a store. The online-ordering fields must be
// set together or not at all.
type Store struct {
	ID                     string                 `yaml:"id"`
	Name                   string                 `yaml:"name"`
	SupportsOnlineOrdering bool                   `yaml:"supports_online_ordering"`
	OnlineOrderingProvider string                 `yaml:"online_ordering_provider"`
	OnlineOrderingConfig   *stores.ProviderConfig `yaml:"online_ordering_config"`
}

// File is the content of a seed file.
type File struct {
	Stores      []Store               `yaml:"stores"`
	Catalog     []stores.CatalogEntry `yaml:"catalog"`
	Pantry      []string              `yaml:"pantry"`
	Recipes     []recipe.Recipe       `yaml:"recipes"`
	Plan        []planner.PlannedMeal `yaml:"plan"`
	DayServings map[string]float64    `yaml:"day_servings"`
}

// Summary counts what Apply wrote.
type Summary struct {
	Stores      int
	Catalog     int
	Pantry      int
	Recipes     int
	Meals       int
	DayServings int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d stores, %d catalog entries, %d pantry items, %d recipes, %d planned meals, %d serving overrides",
		s.Stores, s.Catalog, s.Pantry, s.Recipes, s.Meals, s.DayServings)
}

// LoadFile loads and parses a seed file from the given path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses YAML seed data.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed YAML: %w", err)
	}
	return &f, nil
}

// Writers are the repositories a seed file is written to.
type Writers struct {
	Stores  *stores.Repository
	Recipes *recipe.Repository
	Plans   *planner.PlanRepository
}

// Apply validates every store first, then writes the file. Existing rows with
// the same keys are replaced.
func Apply(ctx context.Context, f *File, w Writers) (Summary, error) {
	var sum Summary

	built := make([]stores.Store, 0, len(f.Stores))
	for _, s := range f.Stores {
		ordering, err := stores.NewOrdering(s.SupportsOnlineOrdering, s.OnlineOrderingProvider, s.OnlineOrderingConfig)
		if err != nil {
			return sum, fmt.Errorf("store %q: %w", s.ID, err)
		}
		built = append(built, stores.Store{ID: s.ID, Name: s.Name, Ordering: ordering})
	}

	for i, s := range built {
		if err := w.Stores.Save(ctx, s, i); err != nil {
			return sum, err
		}
		sum.Stores++
	}
	for _, e := range f.Catalog {
		if err := w.Stores.SaveCatalogEntry(ctx, e); err != nil {
			return sum, err
		}
		sum.Catalog++
	}
	for _, name := range f.Pantry {
		if err := w.Plans.AddPantryItem(ctx, name); err != nil {
			return sum, err
		}
		sum.Pantry++
	}
	for _, r := range f.Recipes {
		if err := w.Recipes.Save(ctx, r); err != nil {
			return sum, err
		}
		sum.Recipes++
	}
	for _, m := range f.Plan {
		if err := w.Plans.SetMeal(ctx, m); err != nil {
			return sum, err
		}
		sum.Meals++
	}
	for date, servings := range f.DayServings {
		if err := w.Plans.SetDayServings(ctx, date, servings); err != nil {
			return sum, err
		}
		sum.DayServings++
	}
	return sum, nil
}
