package app

import (
	"context"
	"fmt"
	"log/slog"

	"meal-planner/internal/checkout"
	"meal-planner/internal/config"
	"meal-planner/internal/database"
	"meal-planner/internal/metrics"
	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shopping"
	"meal-planner/internal/stores"
)

// App holds the application's dependencies.
type App struct {
	cfg       *config.Config
	recipes   *recipe.Repository
	stores    *stores.Repository
	plans     *planner.PlanRepository
	checkout  *checkout.Service
	formatter *shopping.Formatter
	logger    *slog.Logger
}

// NewApp creates and initializes a new App instance.
func NewApp(
	cfg *config.Config,
	recipeRepo *recipe.Repository,
	storeRepo *stores.Repository,
	planRepo *planner.PlanRepository,
	checkoutSvc *checkout.Service,
	formatter *shopping.Formatter,
	logger *slog.Logger,
) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		cfg:       cfg,
		recipes:   recipeRepo,
		stores:    storeRepo,
		plans:     planRepo,
		checkout:  checkoutSvc,
		formatter: formatter,
		logger:    logger.With("component", "app"),
	}
}

// NewFromConfig wires the repositories, the checkout provider and cache from cfg.
// m may be nil.
func NewFromConfig(cfg *config.Config, db *database.DB, m *metrics.Checkout, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	formatter, err := shopping.NewFormatter(cfg.ChecklistStoreID)
	if err != nil {
		return nil, err
	}

	storeRepo := stores.NewRepository(db.SQL)
	provider := checkout.NewHTTPProvider(cfg.ProviderURL, cfg.ProviderAPIKey, cfg.ProviderTimeout)
	if !provider.Configured() {
		logger.Warn("checkout provider is not configured; online checkout will be unavailable")
	}
	svc := checkout.NewService(storeRepo, provider, checkout.NewSessionCache(cfg.CacheTTL, nil), m, logger)

	return NewApp(
		cfg,
		recipe.NewRepository(db.SQL),
		storeRepo,
		planner.NewPlanRepository(db.SQL),
		svc,
		formatter,
		logger,
	), nil
}

// Recipes exposes the recipe repository.
func (a *App) Recipes() *recipe.Repository { return a.recipes }

// StoreRepository exposes the store repository.
func (a *App) StoreRepository() *stores.Repository { return a.stores }

// Plans exposes the plan repository.
func (a *App) Plans() *planner.PlanRepository { return a.plans }

// GroceryList loads everything the plan references and aggregates it.
func (a *App) GroceryList(ctx context.Context, dr planner.DateRange) (shopping.List, error) {
	plan, err := a.plans.LoadRange(ctx, dr)
	if err != nil {
		return shopping.List{}, err
	}
	recipes, err := a.recipes.GetByIDs(ctx, plan.RecipeIDs())
	if err != nil {
		return shopping.List{}, fmt.Errorf("failed to load planned recipes: %w", err)
	}
	known, err := a.stores.List(ctx)
	if err != nil {
		return shopping.List{}, err
	}
	catalog, err := a.stores.ListCatalog(ctx)
	if err != nil {
		return shopping.List{}, err
	}
	pantry, err := a.plans.ListPantry(ctx)
	if err != nil {
		return shopping.List{}, err
	}

	agg := shopping.NewAggregator(shopping.NewResolver(known, catalog), pantry, a.cfg.HouseholdServings, a.logger)
	list := agg.Aggregate(plan, recipe.Index(recipes))
	a.logger.Debug("grocery list built", "from", plan.From, "to", plan.To, "meals", len(plan.Meals), "items", list.Total())
	return list, nil
}

// ExportText renders the list as copy-paste text in store order.
func (a *App) ExportText(ctx context.Context, dr planner.DateRange) (string, error) {
	list, err := a.GroceryList(ctx, dr)
	if err != nil {
		return "", err
	}
	return a.formatter.Text(list, nil), nil
}

// PrintHTML renders the list as a printable document.
func (a *App) PrintHTML(ctx context.Context, dr planner.DateRange) (string, error) {
	list, err := a.GroceryList(ctx, dr)
	if err != nil {
		return "", err
	}
	return a.formatter.PrintHTML(list, nil)
}

// StoreCounts returns the number of items per store, including empty stores.
func (a *App) StoreCounts(ctx context.Context, dr planner.DateRange) (map[string]int, error) {
	list, err := a.GroceryList(ctx, dr)
	if err != nil {
		return nil, err
	}
	return list.Counts(), nil
}

// CreateSession builds a checkout session from explicit items.
func (a *App) CreateSession(ctx context.Context, storeID string, items []checkout.Item) (checkout.Session, error) {
	return a.checkout.CreateSession(ctx, storeID, items)
}

// CheckoutStore builds a checkout session from one store's share of the plan.
func (a *App) CheckoutStore(ctx context.Context, storeID string, dr planner.DateRange) (checkout.Session, error) {
	list, err := a.GroceryList(ctx, dr)
	if err != nil {
		return checkout.Session{}, err
	}
	group, _ := list.Group(storeID)
	return a.checkout.CreateSession(ctx, storeID, CartItems(group))
}

// CartItems converts a store's grocery items into checkout items.
func CartItems(g shopping.Group) []checkout.Item {
	items := make([]checkout.Item, 0, len(g.Items))
	for _, it := range g.Items {
		items = append(items, checkout.Item{Name: it.Name, Qty: it.Qty, Unit: it.Unit})
	}
	return items
}

// Stores lists the known stores.
func (a *App) Stores(ctx context.Context) ([]stores.Store, error) {
	return a.stores.List(ctx)
}
