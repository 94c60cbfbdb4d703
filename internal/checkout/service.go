package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"meal-planner/internal/metrics"
	"meal-planner/internal/stores"
)

// StoreLookup loads a store by id, returning nil, nil when it does not exist.
type StoreLookup interface {
	Get(ctx context.Context, id string) (*stores.Store, error)
}

// Service builds checkout sessions for one store at a time.
type Service struct {
	stores   StoreLookup
	provider Provider
	cache    *SessionCache
	metrics  *metrics.Checkout
	logger   *slog.Logger

	flights singleflight.Group
}

// NewService wires a Service. cache and m may be nil.
func NewService(lookup StoreLookup, provider Provider, cache *SessionCache, m *metrics.Checkout, logger *slog.Logger) *Service {
	if cache == nil {
		cache = NewSessionCache(0, nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		stores:   lookup,
		provider: provider,
		cache:    cache,
		metrics:  m,
		logger:   logger.With("component", "checkout"),
	}
}

// CreateSession resolves the store's provider, normalizes the items and
// returns a cached or freshly built session. Failures are *Error values,
// except for storage errors which are returned wrapped.
func (s *Service) CreateSession(ctx context.Context, storeID string, items []Item) (session Session, err error) {
	defer func() {
		code := "OK"
		if err != nil {
			code = "INTERNAL_ERROR"
			if ce, ok := AsError(err); ok {
				code = ce.Code()
			}
		}
		s.metrics.Outcome(code)
	}()

	store, err := s.stores.Get(ctx, storeID)
	if err != nil {
		return Session{}, fmt.Errorf("failed to load store %s: %w", storeID, err)
	}
	if store == nil {
		return Session{}, ErrStoreNotFound()
	}

	target, err := resolveTarget(*store)
	if err != nil {
		return Session{}, err
	}

	normalized := NormalizeItems(items)
	if len(normalized) == 0 {
		return Session{}, newError(KindEmptyItems, "No items to add to the cart.", nil)
	}

	if !finiteQuantities(normalized) {
		return Session{}, ErrValidation("Item quantities are too large.")
	}

	key, err := CacheKey(store.ID, target.ProviderStoreID, normalized)
	if err != nil {
		return Session{}, err
	}
	if cached, ok := s.cache.Get(key); ok {
		s.metrics.CacheLookup(true)
		s.logger.Debug("checkout session served from cache", "store_id", store.ID, "session_id", cached.SessionID)
		return cached, nil
	}
	s.metrics.CacheLookup(false)

	v, err, shared := s.flights.Do(key, func() (any, error) {
		return s.build(ctx, store.ID, target, normalized, key)
	})
	if err != nil {
		return Session{}, err
	}
	if shared {
		s.logger.Debug("checkout session shared with concurrent request", "store_id", store.ID)
	}
	return v.(Session).Clone(), nil
}

func (s *Service) build(ctx context.Context, storeID string, target stores.Enabled, items []Item, key string) (Session, error) {
	start := time.Now()
	parsed, err := s.provider.CreateCart(ctx, CartRequest{StoreID: target.ProviderStoreID, Items: items})
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if ce, ok := AsError(err); ok {
			outcome = ce.Code()
		}
	}
	s.metrics.ProviderCall(time.Since(start), outcome)

	if err != nil {
		s.logger.Warn("checkout provider call failed", "store_id", storeID, "items", len(items), "error", err)
		return Session{}, err
	}

	session := Session{
		Provider:       string(target.Provider),
		SessionID:      parsed.SessionID,
		CheckoutURL:    parsed.CheckoutURL,
		UnmatchedItems: parsed.UnmatchedItems,
	}
	if session.UnmatchedItems == nil {
		session.UnmatchedItems = []UnmatchedItem{}
	}
	s.cache.Set(key, session)

	s.logger.Info("checkout session created",
		"store_id", storeID,
		"session_id", session.SessionID,
		"items", len(items),
		"unmatched", len(session.UnmatchedItems),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return session, nil
}

func resolveTarget(store stores.Store) (stores.Enabled, error) {
	switch o := store.Ordering.(type) {
	case stores.Enabled:
		if o.ProviderStoreID == "" {
			return stores.Enabled{}, newError(KindMissingProviderConfig, "Store is missing its online ordering configuration.", nil)
		}
		return o, nil
	case stores.Misconfigured:
		return stores.Enabled{}, newError(KindMissingProviderConfig, "Store is missing its online ordering configuration.", errors.New(o.Reason))
	default:
		return stores.Enabled{}, newError(KindUnsupportedStore, "Online ordering is not enabled for this store.", nil)
	}
}
