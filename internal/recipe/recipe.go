package recipe

// Ingredient is a single recipe line as stored by the recipe collaborator.
// Qty is nil when the amount is unknown ("salt to taste").
type Ingredient struct {
	Name    string   `json:"name" yaml:"name"`
	Qty     *float64 `json:"qty" yaml:"qty"`
	Unit    string   `json:"unit" yaml:"unit"`
	Store   string   `json:"store,omitempty" yaml:"store"`
	StoreID string   `json:"store_id,omitempty" yaml:"store_id"`
}

// Recipe is the read-only view of a recipe used by the grocery pipeline.
type Recipe struct {
	ID          string       `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Servings    float64      `json:"servings" yaml:"servings"`
	Ingredients []Ingredient `json:"ingredients" yaml:"ingredients"`
	UpdatedAt   string       `json:"updated_at,omitempty" yaml:"updated_at"`
}

// Index builds an id lookup over recipes. Later duplicates win.
func Index(recipes []Recipe) map[string]Recipe {
	out := make(map[string]Recipe, len(recipes))
	for _, r := range recipes {
		out[r.ID] = r
	}
	return out
}
