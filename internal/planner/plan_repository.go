package planner

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"meal-planner/internal/stores"
)

// PlanRepository is a database-backed repository for planned meals,
// per-day serving overrides and the household pantry.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d}
}

// SetMeal stores the selection for a (date, slot), replacing any previous entry.
func (r *PlanRepository) SetMeal(ctx context.Context, meal PlannedMeal) error {
	if _, err := time.Parse(DateLayout, meal.Date); err != nil {
		return fmt.Errorf("invalid meal date %q: %w", meal.Date, err)
	}
	if !meal.Slot.Valid() {
		return fmt.Errorf("invalid slot %q", meal.Slot)
	}
	if !meal.Selection.Valid() {
		return fmt.Errorf("invalid selection %q", meal.Selection)
	}

	var recipeID sql.NullString
	if meal.Selection == SelectionRecipe {
		if strings.TrimSpace(meal.RecipeID) == "" {
			return fmt.Errorf("recipe selection on %s %s requires a recipe id", meal.Date, meal.Slot)
		}
		recipeID = sql.NullString{String: meal.RecipeID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO planned_meals (date_key, slot, selection, recipe_id) VALUES (?, ?, ?, ?)
		ON CONFLICT(date_key, slot) DO UPDATE SET selection = excluded.selection, recipe_id = excluded.recipe_id`,
		meal.Date, string(meal.Slot), string(meal.Selection), recipeID)
	if err != nil {
		return fmt.Errorf("failed to save planned meal %s %s: %w", meal.Date, meal.Slot, err)
	}
	return nil
}

// ClearMeal removes the entry for a (date, slot), leaving it unplanned.
func (r *PlanRepository) ClearMeal(ctx context.Context, date string, slot Slot) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM planned_meals WHERE date_key = ? AND slot = ?`, date, string(slot))
	if err != nil {
		return fmt.Errorf("failed to clear planned meal %s %s: %w", date, slot, err)
	}
	return nil
}

// SetDayServings stores the target servings for a single day.
func (r *PlanRepository) SetDayServings(ctx context.Context, date string, servings float64) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("invalid date %q: %w", date, err)
	}
	if math.IsNaN(servings) || math.IsInf(servings, 0) {
		return fmt.Errorf("invalid servings %v for %s", servings, date)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO day_servings (date_key, servings) VALUES (?, ?)
		ON CONFLICT(date_key) DO UPDATE SET servings = excluded.servings`, date, servings)
	if err != nil {
		return fmt.Errorf("failed to save servings for %s: %w", date, err)
	}
	return nil
}

// LoadRange resolves the plan for an inclusive date range.
func (r *PlanRepository) LoadRange(ctx context.Context, dr DateRange) (Plan, error) {
	from, to := dr.From.Format(DateLayout), dr.To.Format(DateLayout)
	plan := Plan{From: from, To: to, ServingOverrides: map[string]float64{}}

	rows, err := r.db.QueryContext(ctx, `
		SELECT date_key, slot, selection, recipe_id FROM planned_meals
		WHERE date_key BETWEEN ? AND ? ORDER BY date_key, slot`, from, to)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to load planned meals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m        PlannedMeal
			slot     string
			sel      string
			recipeID sql.NullString
		)
		if err := rows.Scan(&m.Date, &slot, &sel, &recipeID); err != nil {
			return Plan{}, fmt.Errorf("failed to scan planned meal: %w", err)
		}
		m.Slot, m.Selection, m.RecipeID = Slot(slot), Selection(sel), recipeID.String
		plan.Meals = append(plan.Meals, m)
	}
	if err := rows.Err(); err != nil {
		return Plan{}, fmt.Errorf("failed to iterate planned meals: %w", err)
	}

	srows, err := r.db.QueryContext(ctx, `
		SELECT date_key, servings FROM day_servings WHERE date_key BETWEEN ? AND ?`, from, to)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to load day servings: %w", err)
	}
	defer srows.Close()

	for srows.Next() {
		var date string
		var servings float64
		if err := srows.Scan(&date, &servings); err != nil {
			return Plan{}, fmt.Errorf("failed to scan day servings: %w", err)
		}
		plan.ServingOverrides[date] = servings
	}
	if err := srows.Err(); err != nil {
		return Plan{}, fmt.Errorf("failed to iterate day servings: %w", err)
	}

	return plan, nil
}

// AddPantryItem marks an ingredient as always on hand so it is left off grocery lists.
func (r *PlanRepository) AddPantryItem(ctx context.Context, name string) error {
	name = stores.NormalizeName(name)
	if name == "" {
		return fmt.Errorf("pantry item name is required")
	}
	if _, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO pantry_items (name) VALUES (?)`, name); err != nil {
		return fmt.Errorf("failed to add pantry item %q: %w", name, err)
	}
	return nil
}

// RemovePantryItem puts an ingredient back on grocery lists.
func (r *PlanRepository) RemovePantryItem(ctx context.Context, name string) error {
	name = stores.NormalizeName(name)
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pantry_items WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to remove pantry item %q: %w", name, err)
	}
	return nil
}

// ListPantry returns the normalized pantry item names.
func (r *PlanRepository) ListPantry(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM pantry_items ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pantry: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan pantry item: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
