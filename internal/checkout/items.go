package checkout

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Item is one line of a cart request. Qty is nil when unknown.
type Item struct {
	Name string   `json:"name" binding:"max=200"`
	Qty  *float64 `json:"qty" binding:"omitempty,gte=0,lte=1000000"`
	Unit string   `json:"unit" binding:"max=40"`
}

// UnmatchedItem is an item the provider could not map to a product.
type UnmatchedItem struct {
	Name   string   `json:"name"`
	Qty    *float64 `json:"qty"`
	Unit   string   `json:"unit"`
	Reason string   `json:"reason"`
}

// Session is a checkout session built by the provider.
type Session struct {
	Provider       string          `json:"provider"`
	SessionID      string          `json:"sessionId"`
	CheckoutURL    string          `json:"checkoutUrl"`
	UnmatchedItems []UnmatchedItem `json:"unmatchedItems"`
}

// Clone returns a deep copy of s.
func (s Session) Clone() Session {
	out := s
	out.UnmatchedItems = make([]UnmatchedItem, len(s.UnmatchedItems))
	for i, u := range s.UnmatchedItems {
		out.UnmatchedItems[i] = u
		if u.Qty != nil {
			q := *u.Qty
			out.UnmatchedItems[i].Qty = &q
		}
	}
	return out
}

type dedupeKey struct {
	name string
	unit string
}

// NormalizeItems trims names, drops empty ones and merges duplicates by
// (name, unit) case-insensitively. A merged quantity is unknown if any
// contributor is. The result is sorted by name then unit.
func NormalizeItems(items []Item) []Item {
	index := make(map[dedupeKey]int)
	var out []Item
	for _, it := range items {
		name := strings.Join(strings.Fields(it.Name), " ")
		if name == "" {
			continue
		}
		unit := strings.Join(strings.Fields(it.Unit), " ")
		key := dedupeKey{name: strings.ToLower(name), unit: strings.ToLower(unit)}

		if i, ok := index[key]; ok {
			if out[i].Qty == nil || it.Qty == nil {
				out[i].Qty = nil
			} else {
				sum := *out[i].Qty + *it.Qty
				out[i].Qty = &sum
			}
			continue
		}

		var qty *float64
		if it.Qty != nil {
			q := *it.Qty
			qty = &q
		}
		index[key] = len(out)
		out = append(out, Item{Name: name, Qty: qty, Unit: unit})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return strings.ToLower(out[i].Unit) < strings.ToLower(out[j].Unit)
	})
	return out
}

type cacheKeyPayload struct {
	StoreID         string `json:"storeId"`
	ProviderStoreID string `json:"providerStoreId"`
	Items           []Item `json:"items"`
}

// finiteQuantities reports whether every known quantity is a finite number.
func finiteQuantities(items []Item) bool {
	for _, it := range items {
		if it.Qty != nil && (math.IsNaN(*it.Qty) || math.IsInf(*it.Qty, 0)) {
			return false
		}
	}
	return true
}

// CacheKey derives a stable key from the store identity and normalized items.
func CacheKey(storeID, providerStoreID string, normalized []Item) (string, error) {
	items := make([]Item, len(normalized))
	for i, it := range normalized {
		items[i] = Item{Name: strings.ToLower(it.Name), Qty: it.Qty, Unit: strings.ToLower(it.Unit)}
	}
	raw, err := json.Marshal(cacheKeyPayload{StoreID: storeID, ProviderStoreID: providerStoreID, Items: items})
	if err != nil {
		return "", fmt.Errorf("failed to encode cache key: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
