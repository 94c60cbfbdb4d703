// Package stores models purchasing locations, their online-ordering
// configuration, and the ingredient catalog that maps names to default stores.
package stores

import (
	"errors"
	"fmt"
	"strings"
)

// Provider identifies an online-ordering integration.
type Provider string

// ProviderInstacart is currently the only supported provider.
const ProviderInstacart Provider = "instacart"

// Valid reports whether p is a supported provider.
func (p Provider) Valid() bool {
	return p == ProviderInstacart
}

// Ordering describes whether and how a store accepts online orders.
// It is one of Disabled, Enabled or Misconfigured.
type Ordering interface {
	isOrdering()
}

// Disabled means the store is shopped in person only.
type Disabled struct{}

// Enabled carries the provider and the provider's identifier for the store.
type Enabled struct {
	Provider        Provider
	ProviderStoreID string
}

// Misconfigured is produced when persisted data violates the all-or-nothing
// pairing of the online-ordering fields. It is never produced by NewOrdering.
type Misconfigured struct {
	Reason string
}

func (Disabled) isOrdering()      {}
func (Enabled) isOrdering()       {}
func (Misconfigured) isOrdering() {}

// ProviderConfig is the provider-specific configuration stored alongside a store.
type ProviderConfig struct {
	StoreID string `json:"storeId" yaml:"store_id"`
}

// ErrInvalidOrdering is returned when online-ordering fields are not all set or all absent.
var ErrInvalidOrdering = errors.New("online ordering fields must be set together")

// NewOrdering validates the flat online-ordering fields and folds them into an Ordering.
func NewOrdering(supports bool, provider string, cfg *ProviderConfig) (Ordering, error) {
	provider = strings.TrimSpace(provider)
	hasConfig := cfg != nil && strings.TrimSpace(cfg.StoreID) != ""

	if !supports {
		if provider != "" || hasConfig {
			return nil, fmt.Errorf("%w: provider or config set while online ordering is off", ErrInvalidOrdering)
		}
		return Disabled{}, nil
	}

	if provider == "" || !hasConfig {
		return nil, fmt.Errorf("%w: online ordering requires a provider and a provider store id", ErrInvalidOrdering)
	}
	if !Provider(provider).Valid() {
		return nil, fmt.Errorf("%w: unsupported provider %q", ErrInvalidOrdering, provider)
	}
	return Enabled{Provider: Provider(provider), ProviderStoreID: strings.TrimSpace(cfg.StoreID)}, nil
}

// orderingFromRow is the lenient counterpart of NewOrdering used when reading
// rows written before the invariant was enforced.
func orderingFromRow(supports bool, provider string, cfg *ProviderConfig) Ordering {
	ordering, err := NewOrdering(supports, provider, cfg)
	if err == nil {
		return ordering
	}
	if !supports {
		return Disabled{}
	}
	return Misconfigured{Reason: err.Error()}
}

// Store is a purchasing location.
type Store struct {
	ID       string
	Name     string
	Ordering Ordering
}

// OnlineOrderingEnabled reports whether the store can build checkout sessions.
func (s Store) OnlineOrderingEnabled() bool {
	_, ok := s.Ordering.(Enabled)
	return ok
}

// flatten returns the persisted representation of the ordering.
func (s Store) flatten() (supports bool, provider string, cfg *ProviderConfig) {
	switch o := s.Ordering.(type) {
	case Enabled:
		return true, string(o.Provider), &ProviderConfig{StoreID: o.ProviderStoreID}
	default:
		return false, "", nil
	}
}

// CatalogEntry maps a normalized ingredient name to its default store and unit.
type CatalogEntry struct {
	Name        string `yaml:"name"`
	StoreID     string `yaml:"store_id"`
	DefaultUnit string `yaml:"default_unit"`
}

// NormalizeName is the canonical form used for ingredient names everywhere:
// trimmed, lowercased, inner whitespace collapsed.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
