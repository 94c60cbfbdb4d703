package shopping

import (
	"strings"

	"meal-planner/internal/stores"
)

// Resolver decides where each ingredient is bought.
type Resolver struct {
	known   []stores.Store
	byID    map[string]stores.Store
	byName  map[string]stores.Store
	catalog map[string]stores.CatalogEntry
}

// NewResolver indexes the known stores and the catalog.
func NewResolver(known []stores.Store, catalog []stores.CatalogEntry) *Resolver {
	r := &Resolver{
		known:   known,
		byID:    make(map[string]stores.Store, len(known)),
		byName:  make(map[string]stores.Store, len(known)),
		catalog: make(map[string]stores.CatalogEntry, len(catalog)),
	}
	for _, s := range known {
		r.byID[s.ID] = s
		key := strings.ToLower(strings.TrimSpace(s.Name))
		if _, dup := r.byName[key]; !dup {
			r.byName[key] = s
		}
	}
	for _, e := range catalog {
		r.catalog[stores.NormalizeName(e.Name)] = e
	}
	return r
}

// Resolve applies the precedence: assigned store id, then explicit store
// text matched against store names, then the catalog default, then Unassigned.
// Unknown ids and names fall through rather than failing.
func (r *Resolver) Resolve(storeText, storeID, normalizedName string) StoreRef {
	if s, ok := r.byID[strings.TrimSpace(storeID)]; ok {
		return StoreRef{ID: s.ID, Name: s.Name}
	}
	if text := strings.ToLower(strings.TrimSpace(storeText)); text != "" {
		if s, ok := r.byName[text]; ok {
			return StoreRef{ID: s.ID, Name: s.Name}
		}
	}
	if e, ok := r.catalog[normalizedName]; ok {
		if s, ok := r.byID[e.StoreID]; ok {
			return StoreRef{ID: s.ID, Name: s.Name}
		}
	}
	return StoreRef{ID: UnassignedStoreID, Name: UnassignedStoreName}
}

// DefaultUnit returns the catalog default unit for a normalized name, if any.
func (r *Resolver) DefaultUnit(normalizedName string) string {
	return r.catalog[normalizedName].DefaultUnit
}

// Store returns a known store by id.
func (r *Resolver) Store(id string) (stores.Store, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// Stores returns the known stores in display order.
func (r *Resolver) Stores() []stores.Store {
	return r.known
}
