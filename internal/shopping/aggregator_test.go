package shopping

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
)

func tacoBowls() recipe.Recipe {
	return recipe.Recipe{
		ID:       "turkey-taco-bowls",
		Title:    "Turkey Taco Bowls",
		Servings: 4,
		Ingredients: []recipe.Ingredient{
			{Name: "Ground turkey", Qty: qty(1.25), Unit: "lb", Store: "Sprouts"},
			{Name: "Black beans", Qty: qty(1), Unit: "cans"},
			{Name: "Salt", Unit: "pinch"},
			{Name: "Cilantro", Unit: "bunch", Store: "Sprouts"},
		},
	}
}

func newTestAggregator(pantry ...string) *Aggregator {
	return NewAggregator(NewResolver(testStores(), testCatalog()), pantry, 4, nil)
}

func findItem(t *testing.T, list List, storeID, name string) Item {
	t.Helper()
	g, ok := list.Group(storeID)
	require.True(t, ok, "missing group %s", storeID)
	for _, it := range g.Items {
		if it.Name == name {
			return it
		}
	}
	t.Fatalf("item %q not found in store %s", name, storeID)
	return Item{}
}

func TestAggregate_TurkeyTacoBowls(t *testing.T) {
	plan := planner.Plan{
		From: "2025-03-03",
		To:   "2025-03-09",
		Meals: []planner.PlannedMeal{
			{Date: "2025-03-03", Slot: planner.SlotDinner, Selection: planner.SelectionRecipe, RecipeID: "turkey-taco-bowls"},
		},
		ServingOverrides: map[string]float64{"2025-03-03": 6},
	}
	list := newTestAggregator("salt").Aggregate(plan, recipe.Index([]recipe.Recipe{tacoBowls()}))

	turkey := findItem(t, list, "sprouts", "ground turkey")
	assert.Equal(t, "Sprouts", turkey.StoreName)
	assert.Equal(t, "lb", turkey.Unit)
	require.NotNil(t, turkey.Qty)
	assert.InDelta(t, 1.875, *turkey.Qty, 1e-6)

	beans := findItem(t, list, UnassignedStoreID, "black beans")
	assert.Equal(t, "can", beans.Unit)
	assert.InDelta(t, 1.5, *beans.Qty, 1e-6)

	cilantro := findItem(t, list, "sprouts", "cilantro")
	assert.Nil(t, cilantro.Qty)

	for _, g := range list.Groups {
		for _, it := range g.Items {
			assert.NotEqual(t, "salt", it.Name, "pantry items are excluded")
		}
	}
}

func TestAggregate_MergesAcrossPlan(t *testing.T) {
	recipes := recipe.Index([]recipe.Recipe{
		{ID: "omelette", Servings: 2, Ingredients: []recipe.Ingredient{
			{Name: "eggs", Qty: qty(3)},
			{Name: "Ground Turkey", Qty: qty(0.5), Unit: ""},
		}},
		{ID: "frittata", Servings: 4, Ingredients: []recipe.Ingredient{
			{Name: "EGGS", Qty: qty(6), Unit: "each"},
			{Name: "ground  turkey"},
		}},
	})
	plan := planner.Plan{Meals: []planner.PlannedMeal{
		{Date: "2025-03-04", Slot: planner.SlotBreakfast, Selection: planner.SelectionRecipe, RecipeID: "frittata"},
		{Date: "2025-03-03", Slot: planner.SlotBreakfast, Selection: planner.SelectionRecipe, RecipeID: "omelette"},
		{Date: "2025-03-03", Slot: planner.SlotLunch, Selection: planner.SelectionLeftovers, RecipeID: "omelette"},
		{Date: "2025-03-03", Slot: planner.SlotDinner, Selection: planner.SelectionRecipe, RecipeID: "deleted"},
		{Date: "2025-03-05", Slot: planner.SlotDinner, Selection: planner.SelectionEatingOut},
	}}

	list := newTestAggregator().Aggregate(plan, recipes)

	// omelette 3 eggs * 4/2 = 6, frittata 6 eggs * 4/4 = 6
	eggs := findItem(t, list, "costco", "eggs")
	require.NotNil(t, eggs.Qty)
	assert.InDelta(t, 12.0, *eggs.Qty, 1e-6)
	assert.Equal(t, "each", eggs.Unit)

	// blank unit takes the catalog default; an unknown contributor blanks the total
	turkey := findItem(t, list, "costco", "ground turkey")
	assert.Equal(t, "lb", turkey.Unit)
	assert.Nil(t, turkey.Qty)

	assert.Equal(t, 2, list.Total())
}

func TestAggregate_StoreGroups(t *testing.T) {
	list := newTestAggregator().Aggregate(planner.Plan{}, nil)

	assert.Equal(t, []string{"sprouts", "costco", "tj", UnassignedStoreID}, list.StoreOrder())
	assert.Equal(t, map[string]int{"sprouts": 0, "costco": 0, "tj": 0, UnassignedStoreID: 0}, list.Counts())

	g, _ := list.Group("sprouts")
	assert.True(t, g.CartReady)
	assert.NotNil(t, g.Items)
}

func TestAggregate_SortedAndIdempotent(t *testing.T) {
	recipes := recipe.Index([]recipe.Recipe{{ID: "salad", Servings: 2, Ingredients: []recipe.Ingredient{
		{Name: "Zucchini", Qty: qty(1)},
		{Name: "apples", Qty: qty(2)},
		{Name: "Basil", Unit: "bunch"},
		{Name: "basil", Qty: qty(10), Unit: "g"},
		{Name: "Éclair", Qty: qty(1)},
	}}})
	plan := planner.Plan{Meals: []planner.PlannedMeal{
		{Date: "2025-03-03", Slot: planner.SlotLunch, Selection: planner.SelectionRecipe, RecipeID: "salad"},
		{Date: "2025-03-04", Slot: planner.SlotLunch, Selection: planner.SelectionRecipe, RecipeID: "salad"},
	}}
	agg := newTestAggregator()

	first := agg.Aggregate(plan, recipes)
	second := agg.Aggregate(plan, recipes)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))

	g, _ := first.Group(UnassignedStoreID)
	var names []string
	for _, it := range g.Items {
		names = append(names, it.Name+"/"+it.Unit)
	}
	assert.Equal(t, []string{"apples/each", "basil/bunch", "basil/g", "éclair/each", "zucchini/each"}, names)
}
