package shopping

// UnassignedStoreID and UnassignedStoreName identify the bucket for
// ingredients that resolve to no known store.
const (
	UnassignedStoreID   = "unassigned"
	UnassignedStoreName = "Unassigned"
)

// StoreRef identifies the store an item is bought at.
type StoreRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Item is one merged grocery line. Qty is nil when any contributing
// ingredient had an unknown quantity.
type Item struct {
	Name      string   `json:"name"`
	Unit      string   `json:"unit"`
	Qty       *float64 `json:"qty"`
	StoreID   string   `json:"storeId"`
	StoreName string   `json:"storeName"`
}

// Group holds the items of a single store.
type Group struct {
	Store StoreRef `json:"store"`
	// CartReady is set for stores with online ordering enabled.
	CartReady bool   `json:"cartReady"`
	Items     []Item `json:"items"`
}

// List is the aggregated grocery list for a plan, one group per store.
// Groups for known stores are present even when empty.
type List struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Groups []Group `json:"groups"`
}

// Counts returns the number of items per store id, including zero counts.
func (l List) Counts() map[string]int {
	out := make(map[string]int, len(l.Groups))
	for _, g := range l.Groups {
		out[g.Store.ID] = len(g.Items)
	}
	return out
}

// Group returns the group for a store id.
func (l List) Group(storeID string) (Group, bool) {
	for _, g := range l.Groups {
		if g.Store.ID == storeID {
			return g, true
		}
	}
	return Group{}, false
}

// Total is the number of items across all stores.
func (l List) Total() int {
	n := 0
	for _, g := range l.Groups {
		n += len(g.Items)
	}
	return n
}

// StoreOrder returns the store ids in list order.
func (l List) StoreOrder() []string {
	ids := make([]string, 0, len(l.Groups))
	for _, g := range l.Groups {
		ids = append(ids, g.Store.ID)
	}
	return ids
}
