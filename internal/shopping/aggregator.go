package shopping

import (
	"log/slog"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/stores"
)

// Aggregator turns a meal plan into a per-store grocery list.
type Aggregator struct {
	resolver          *Resolver
	pantry            map[string]struct{}
	householdServings int
	logger            *slog.Logger
}

// NewAggregator creates an Aggregator. Pantry names are normalized and left
// off every list. householdServings is the target when a day has no override.
func NewAggregator(resolver *Resolver, pantry []string, householdServings int, logger *slog.Logger) *Aggregator {
	if householdServings < 1 {
		householdServings = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	set := make(map[string]struct{}, len(pantry))
	for _, name := range pantry {
		set[stores.NormalizeName(name)] = struct{}{}
	}
	return &Aggregator{
		resolver:          resolver,
		pantry:            set,
		householdServings: householdServings,
		logger:            logger.With("component", "aggregator"),
	}
}

type itemKey struct {
	storeID string
	name    string
	unit    string
}

// Aggregate walks the plan in (date, slot) order, scales every ingredient of
// each planned recipe to the day's servings and merges duplicates per
// (store, name, unit). It never fails: bad data degrades to defaults.
func (a *Aggregator) Aggregate(plan planner.Plan, recipes map[string]recipe.Recipe) List {
	meals := make([]planner.PlannedMeal, len(plan.Meals))
	copy(meals, plan.Meals)
	sort.SliceStable(meals, func(i, j int) bool {
		if meals[i].Date != meals[j].Date {
			return meals[i].Date < meals[j].Date
		}
		return meals[i].Slot.Order() < meals[j].Slot.Order()
	})

	merged := make(map[itemKey]*Item)
	for _, meal := range meals {
		if meal.Selection != planner.SelectionRecipe {
			continue
		}
		rec, ok := recipes[meal.RecipeID]
		if !ok {
			a.logger.Debug("skipping planned meal with unknown recipe", "date", meal.Date, "slot", meal.Slot, "recipe_id", meal.RecipeID)
			continue
		}

		target := float64(a.householdServings)
		if override, ok := plan.ServingOverrides[meal.Date]; ok {
			target = override
		}
		factor := ScaleFactor(rec.Servings, target, a.householdServings)

		for _, ing := range rec.Ingredients {
			name := stores.NormalizeName(ing.Name)
			if name == "" {
				continue
			}
			if _, excluded := a.pantry[name]; excluded {
				continue
			}
			rawUnit := ing.Unit
			if rawUnit == "" {
				rawUnit = a.resolver.DefaultUnit(name)
			}
			unit := NormalizeUnit(rawUnit)
			store := a.resolver.Resolve(ing.Store, ing.StoreID, name)
			qty := ScaleQuantity(ing.Qty, factor)

			key := itemKey{storeID: store.ID, name: name, unit: unit}
			if existing, ok := merged[key]; ok {
				existing.Qty = AddQuantities(existing.Qty, qty)
				continue
			}
			merged[key] = &Item{Name: name, Unit: unit, Qty: qty, StoreID: store.ID, StoreName: store.Name}
		}
	}

	return a.group(plan, merged)
}

func (a *Aggregator) group(plan planner.Plan, merged map[itemKey]*Item) List {
	byStore := make(map[string][]Item)
	for _, s := range a.resolver.Stores() {
		byStore[s.ID] = []Item{}
	}
	byStore[UnassignedStoreID] = []Item{}
	for _, item := range merged {
		byStore[item.StoreID] = append(byStore[item.StoreID], *item)
	}

	col := collate.New(language.English, collate.IgnoreCase)
	sortItems := func(items []Item) {
		sort.SliceStable(items, func(i, j int) bool {
			if c := col.CompareString(items[i].Name, items[j].Name); c != 0 {
				return c < 0
			}
			return items[i].Unit < items[j].Unit
		})
	}

	list := List{From: plan.From, To: plan.To}
	for _, s := range a.resolver.Stores() {
		items := byStore[s.ID]
		sortItems(items)
		list.Groups = append(list.Groups, Group{
			Store:     StoreRef{ID: s.ID, Name: s.Name},
			CartReady: s.OnlineOrderingEnabled(),
			Items:     items,
		})
	}
	unassigned := byStore[UnassignedStoreID]
	sortItems(unassigned)
	list.Groups = append(list.Groups, Group{
		Store: StoreRef{ID: UnassignedStoreID, Name: UnassignedStoreName},
		Items: unassigned,
	})
	return list
}
