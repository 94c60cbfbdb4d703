package seed

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meal-planner/internal/database"
	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/stores"
)

func newWriters(t *testing.T) Writers {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return Writers{
		Stores:  stores.NewRepository(db.SQL),
		Recipes: recipe.NewRepository(db.SQL),
		Plans:   planner.NewPlanRepository(db.SQL),
	}
}

func TestLoadFile(t *testing.T) {
	f, err := LoadFile("testdata/household.yaml")
	require.NoError(t, err)

	require.Len(t, f.Stores, 3)
	assert.Equal(t, "sprouts-1234", f.Stores[0].OnlineOrderingConfig.StoreID)
	require.Len(t, f.Recipes, 2)
	tacos := f.Recipes[0]
	assert.Equal(t, 4.0, tacos.Servings)
	require.NotNil(t, tacos.Ingredients[0].Qty)
	assert.Equal(t, 1.25, *tacos.Ingredients[0].Qty)
	assert.Nil(t, tacos.Ingredients[3].Qty)
	assert.Equal(t, planner.SlotDinner, f.Plan[0].Slot)
	assert.Equal(t, 6.0, f.DayServings["2025-03-03"])
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	w := newWriters(t)

	f, err := LoadFile("testdata/household.yaml")
	require.NoError(t, err)

	sum, err := Apply(ctx, f, w)
	require.NoError(t, err)
	assert.Equal(t, Summary{Stores: 3, Catalog: 3, Pantry: 2, Recipes: 2, Meals: 5, DayServings: 1}, sum)
	assert.Contains(t, sum.String(), "3 stores")

	sprouts, err := w.Stores.Get(ctx, "sprouts")
	require.NoError(t, err)
	assert.Equal(t, stores.Enabled{Provider: stores.ProviderInstacart, ProviderStoreID: "sprouts-1234"}, sprouts.Ordering)

	pantry, err := w.Plans.ListPantry(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"olive oil", "salt"}, pantry)

	// applying twice replaces rather than duplicates
	_, err = Apply(ctx, f, w)
	require.NoError(t, err)
	all, err := w.Stores.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestApply_RejectsHalfConfiguredStore(t *testing.T) {
	w := newWriters(t)
	f, err := Parse([]byte(`
stores:
  - id: half
    name: Half
    supports_online_ordering: true
    online_ordering_provider: instacart
`))
	require.NoError(t, err)

	_, err = Apply(context.Background(), f, w)
	assert.ErrorIs(t, err, stores.ErrInvalidOrdering)

	all, err := w.Stores.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all, "nothing is written when a store is invalid")
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("stores: [unterminated"))
	assert.Error(t, err)
}
