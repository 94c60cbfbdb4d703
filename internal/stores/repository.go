package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Repository persists stores and the ingredient catalog.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save inserts or updates a store. position controls listing order.
// Stores whose ordering is Misconfigured are rejected.
func (r *Repository) Save(ctx context.Context, s Store, position int) error {
	if strings.TrimSpace(s.ID) == "" || strings.TrimSpace(s.Name) == "" {
		return errors.New("store id and name are required")
	}
	if s.Ordering == nil {
		s.Ordering = Disabled{}
	}
	if m, ok := s.Ordering.(Misconfigured); ok {
		return fmt.Errorf("%w: %s", ErrInvalidOrdering, m.Reason)
	}

	supports, provider, cfg := s.flatten()
	var providerCol, configCol sql.NullString
	if supports {
		raw, err := json.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal provider config: %w", err)
		}
		providerCol = sql.NullString{String: provider, Valid: true}
		configCol = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stores (id, name, position, supports_online_ordering, online_ordering_provider, online_ordering_config)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			position = excluded.position,
			supports_online_ordering = excluded.supports_online_ordering,
			online_ordering_provider = excluded.online_ordering_provider,
			online_ordering_config = excluded.online_ordering_config`,
		s.ID, s.Name, position, supports, providerCol, configCol)
	if err != nil {
		return fmt.Errorf("failed to save store %s: %w", s.ID, err)
	}
	return nil
}

// Get retrieves a store by ID. It returns nil, nil when the store does not exist.
func (r *Repository) Get(ctx context.Context, id string) (*Store, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, supports_online_ordering, online_ordering_provider, online_ordering_config
		FROM stores WHERE id = ?`, id)

	s, err := scanStore(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get store by ID: %w", err)
	}
	return &s, nil
}

// List returns every store in display order.
func (r *Repository) List(ctx context.Context) ([]Store, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, supports_online_ordering, online_ordering_provider, online_ordering_config
		FROM stores ORDER BY position, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	defer rows.Close()

	var out []Store
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan store row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stores: %w", err)
	}
	return out, nil
}

// SaveCatalogEntry inserts or replaces the catalog entry for a normalized ingredient name.
func (r *Repository) SaveCatalogEntry(ctx context.Context, e CatalogEntry) error {
	name := NormalizeName(e.Name)
	if name == "" || strings.TrimSpace(e.StoreID) == "" {
		return errors.New("catalog entry name and store id are required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO catalog_entries (name, store_id, default_unit) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET store_id = excluded.store_id, default_unit = excluded.default_unit`,
		name, e.StoreID, strings.TrimSpace(e.DefaultUnit))
	if err != nil {
		return fmt.Errorf("failed to save catalog entry %q: %w", name, err)
	}
	return nil
}

// ListCatalog returns every catalog entry ordered by name.
func (r *Repository) ListCatalog(ctx context.Context) ([]CatalogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, store_id, default_unit FROM catalog_entries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}
	defer rows.Close()

	var out []CatalogEntry
	for rows.Next() {
		var e CatalogEntry
		if err := rows.Scan(&e.Name, &e.StoreID, &e.DefaultUnit); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate catalog: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStore(row rowScanner) (Store, error) {
	var (
		s        Store
		supports bool
		provider sql.NullString
		rawCfg   sql.NullString
	)
	if err := row.Scan(&s.ID, &s.Name, &supports, &provider, &rawCfg); err != nil {
		return Store{}, err
	}

	var cfg *ProviderConfig
	if rawCfg.Valid && rawCfg.String != "" {
		cfg = &ProviderConfig{}
		if err := json.Unmarshal([]byte(rawCfg.String), cfg); err != nil {
			slog.Warn("ignoring unreadable provider config", "store_id", s.ID, "error", err)
			cfg = nil
		}
	}
	s.Ordering = orderingFromRow(supports, provider.String, cfg)
	return s, nil
}
