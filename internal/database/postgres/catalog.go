package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/kozaktomas/servicehub/internal/database"
)

// CatalogRepository provides PostgreSQL-backed provider and service storage
type CatalogRepository struct {
	pool *Pool
}

// NewCatalogRepository creates a new PostgreSQL catalog repository
func NewCatalogRepository(pool *Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// whereBuilder accumulates AND-ed conditions with positional arguments.
type whereBuilder struct {
	conds []string
	args  []any
}

// add appends a condition; "?" in cond is replaced by the next placeholder.
func (b *whereBuilder) add(cond string, arg any) {
	b.args = append(b.args, arg)
	b.conds = append(b.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(b.args))))
}

func (b *whereBuilder) String() string {
	if len(b.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(b.conds, " AND ")
}

// ListServices returns services passing the filter, in insertion order
func (r *CatalogRepository) ListServices(ctx context.Context, filter database.ServiceFilter) ([]database.Service, error) {
	var where whereBuilder
	if filter.Query != "" {
		where.add("(STRPOS(LOWER(title), ?) > 0 OR STRPOS(LOWER(description), ?) > 0)", strings.ToLower(filter.Query))
	}
	if filter.Category != "" {
		where.add("category = ?", filter.Category)
	}
	if filter.ProviderID != "" {
		where.add("provider_id = ?", filter.ProviderID)
	}

	query := `
		SELECT id, provider_id, title, description, category, price, currency
		FROM services ` + where.String() + `
		ORDER BY seq
	`

	rows, err := r.pool.Query(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("query services: %w", err)
	}
	defer rows.Close()

	services := []database.Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}
	return services, nil
}

// GetService retrieves a service by ID, returns nil if not found
func (r *CatalogRepository) GetService(ctx context.Context, id string) (*database.Service, error) {
	query := `
		SELECT id, provider_id, title, description, category, price, currency
		FROM services
		WHERE id = $1
	`

	s, err := scanService(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanService(scanner interface{ Scan(...any) error }) (database.Service, error) {
	var s database.Service
	var price sql.NullFloat64
	if err := scanner.Scan(&s.ID, &s.ProviderID, &s.Title, &s.Description, &s.Category, &price, &s.Currency); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s, err
		}
		return s, fmt.Errorf("scan service: %w", err)
	}
	if price.Valid {
		p := price.Float64
		s.Price = &p
	}
	return s, nil
}

// ListProviders returns providers passing the filter, in insertion order
func (r *CatalogRepository) ListProviders(ctx context.Context, filter database.ProviderFilter) ([]database.Provider, error) {
	var where whereBuilder
	if filter.Category != "" {
		where.add("? = ANY(categories)", filter.Category)
	}
	if filter.Verified != nil {
		where.add("verified = ?", *filter.Verified)
	}

	query := `
		SELECT id, name, categories, rating, verified, created_at
		FROM providers ` + where.String() + `
		ORDER BY seq
	`

	rows, err := r.pool.Query(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("query providers: %w", err)
	}
	defer rows.Close()

	providers := []database.Provider{}
	for rows.Next() {
		var p database.Provider
		var categories pq.StringArray
		if err := rows.Scan(&p.ID, &p.Name, &categories, &p.Rating, &p.Verified, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan provider: %w", err)
		}
		p.Categories = []string(categories)
		providers = append(providers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate providers: %w", err)
	}
	return providers, nil
}

// SaveProvider inserts or replaces a provider
func (r *CatalogRepository) SaveProvider(ctx context.Context, p *database.Provider) error {
	query := `
		INSERT INTO providers (id, name, categories, rating, verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			categories = EXCLUDED.categories,
			rating = EXCLUDED.rating,
			verified = EXCLUDED.verified
	`

	_, err := r.pool.Exec(ctx, query, p.ID, p.Name, pq.Array(p.Categories), p.Rating, p.Verified, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("save provider: %w", err)
	}
	return nil
}

// SaveService inserts or replaces a service
func (r *CatalogRepository) SaveService(ctx context.Context, s *database.Service) error {
	query := `
		INSERT INTO services (id, provider_id, title, description, category, price, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			provider_id = EXCLUDED.provider_id,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency
	`

	var price sql.NullFloat64
	if s.Price != nil {
		price = sql.NullFloat64{Float64: *s.Price, Valid: true}
	}
	_, err := r.pool.Exec(ctx, query, s.ID, s.ProviderID, s.Title, s.Description, s.Category, price, s.Currency)
	if err != nil {
		return fmt.Errorf("save service: %w", err)
	}
	return nil
}
