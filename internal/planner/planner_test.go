package planner

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"meal-planner/internal/database"
)

func newTestPlanRepository(t *testing.T) *PlanRepository {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "plan.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPlanRepository(db.SQL)
}

func TestPlanRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestPlanRepository(t)

	meals := []PlannedMeal{
		{Date: "2025-03-03", Slot: SlotDinner, Selection: SelectionRecipe, RecipeID: "tacos"},
		{Date: "2025-03-03", Slot: SlotLunch, Selection: SelectionLeftovers},
		{Date: "2025-03-04", Slot: SlotDinner, Selection: SelectionEatingOut},
		{Date: "2025-03-10", Slot: SlotDinner, Selection: SelectionRecipe, RecipeID: "outside-range"},
	}
	for _, m := range meals {
		if err := repo.SetMeal(ctx, m); err != nil {
			t.Fatalf("Failed to set meal %+v: %v", m, err)
		}
	}
	if err := repo.SetDayServings(ctx, "2025-03-03", 6); err != nil {
		t.Fatalf("Failed to set servings: %v", err)
	}

	dr, err := ParseRange("2025-03-03", "2025-03-09")
	if err != nil {
		t.Fatalf("Failed to parse range: %v", err)
	}

	t.Run("LoadRange", func(t *testing.T) {
		plan, err := repo.LoadRange(ctx, dr)
		if err != nil {
			t.Fatalf("Failed to load plan: %v", err)
		}
		if len(plan.Meals) != 3 {
			t.Fatalf("Expected 3 meals in range, got %d", len(plan.Meals))
		}
		if plan.ServingOverrides["2025-03-03"] != 6 {
			t.Errorf("Expected override of 6 servings, got %v", plan.ServingOverrides["2025-03-03"])
		}
		if ids := plan.RecipeIDs(); len(ids) != 1 || ids[0] != "tacos" {
			t.Errorf("Expected recipe ids [tacos], got %v", ids)
		}
	})

	t.Run("SetMeal-Replaces", func(t *testing.T) {
		if err := repo.SetMeal(ctx, PlannedMeal{Date: "2025-03-03", Slot: SlotDinner, Selection: SelectionSkip}); err != nil {
			t.Fatalf("Failed to replace meal: %v", err)
		}
		plan, _ := repo.LoadRange(ctx, dr)
		for _, m := range plan.Meals {
			if m.Date == "2025-03-03" && m.Slot == SlotDinner {
				if m.Selection != SelectionSkip || m.RecipeID != "" {
					t.Errorf("Expected skip without recipe, got %+v", m)
				}
			}
		}
	})

	t.Run("ClearMeal", func(t *testing.T) {
		if err := repo.ClearMeal(ctx, "2025-03-04", SlotDinner); err != nil {
			t.Fatalf("Failed to clear meal: %v", err)
		}
		plan, _ := repo.LoadRange(ctx, dr)
		if len(plan.Meals) != 2 {
			t.Errorf("Expected 2 meals after clearing, got %d", len(plan.Meals))
		}
	})

	t.Run("SetMeal-Validation", func(t *testing.T) {
		invalid := []PlannedMeal{
			{Date: "03/03/2025", Slot: SlotDinner, Selection: SelectionSkip},
			{Date: "2025-03-03", Slot: "brunch", Selection: SelectionSkip},
			{Date: "2025-03-03", Slot: SlotDinner, Selection: "fasting"},
			{Date: "2025-03-03", Slot: SlotDinner, Selection: SelectionRecipe},
		}
		for _, m := range invalid {
			if err := repo.SetMeal(ctx, m); err == nil {
				t.Errorf("Expected an error for %+v, got nil", m)
			}
		}
	})

	t.Run("Pantry", func(t *testing.T) {
		for _, name := range []string{"Salt", "  olive   OIL", "salt"} {
			if err := repo.AddPantryItem(ctx, name); err != nil {
				t.Fatalf("Failed to add pantry item: %v", err)
			}
		}
		names, err := repo.ListPantry(ctx)
		if err != nil {
			t.Fatalf("Failed to list pantry: %v", err)
		}
		if len(names) != 2 || names[0] != "olive oil" || names[1] != "salt" {
			t.Errorf("Expected [olive oil salt], got %v", names)
		}
		if err := repo.RemovePantryItem(ctx, "SALT"); err != nil {
			t.Fatalf("Failed to remove pantry item: %v", err)
		}
		names, _ = repo.ListPantry(ctx)
		if len(names) != 1 {
			t.Errorf("Expected 1 pantry item after removal, got %v", names)
		}
	})
}

func TestParseRange(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		dr, err := ParseRange("2025-03-03", "2025-03-05")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		keys := dr.Keys()
		if len(keys) != 3 || keys[0] != "2025-03-03" || keys[2] != "2025-03-05" {
			t.Errorf("Unexpected keys %v", keys)
		}
	})

	t.Run("Reversed", func(t *testing.T) {
		if _, err := ParseRange("2025-03-05", "2025-03-03"); err == nil {
			t.Fatal("Expected an error for a reversed range, got nil")
		}
	})

	t.Run("TooLong", func(t *testing.T) {
		if _, err := ParseRange("2025-01-01", "2025-12-31"); err == nil {
			t.Fatal("Expected an error for an oversized range, got nil")
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		if _, err := ParseRange("next week", "2025-03-03"); err == nil {
			t.Fatal("Expected an error for a malformed date, got nil")
		}
	})
}

func TestGetNextMonday(t *testing.T) {
	cases := map[string]string{
		"2025-03-02": "2025-03-03", // Sunday
		"2025-03-03": "2025-03-10", // Monday
		"2025-03-05": "2025-03-10", // Wednesday
	}
	for in, want := range cases {
		now, _ := time.Parse(DateLayout, in)
		if got := GetNextMonday(now).Format(DateLayout); got != want {
			t.Errorf("GetNextMonday(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestSlotOrder(t *testing.T) {
	if !(SlotBreakfast.Order() < SlotLunch.Order() && SlotLunch.Order() < SlotDinner.Order()) {
		t.Error("Expected breakfast < lunch < dinner")
	}
	if Slot("brunch").Valid() {
		t.Error("Expected unknown slot to be invalid")
	}
}
