package catalog

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nexusware/customer-order/pagination"
	"github.com/nexusware/customer-order/tablestore"
)

// Repository persists products partitioned by normalized category. Rows are
// reachable by id only through a cross-partition scan, so a HintCache can be
// attached to remember id → partition placements.
type Repository struct {
	table tablestore.Client[Entity]
	cache HintCache
	log   zerolog.Logger
}

// RepositoryOption tunes a catalog repository.
type RepositoryOption func(*Repository)

// WithHintCache attaches a partition-hint cache used by GetByID.
func WithHintCache(cache HintCache) RepositoryOption {
	return func(r *Repository) { r.cache = cache }
}

// NewRepository wires the product repository.
func NewRepository(table tablestore.Client[Entity], log zerolog.Logger, opts ...RepositoryOption) *Repository {
	r := &Repository{
		table: table,
		log:   log.With().Str("repository", "catalog").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add inserts a new product into its category partition.
func (r *Repository) Add(ctx context.Context, p *Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	if p.CreatedUtc.IsZero() {
		p.CreatedUtc = now
	}

	e := Entity{
		EntityMeta: tablestore.EntityMeta{
			PartitionKey: NormalizeCategory(p.Category),
			RowKey:       rowKey(p.ID),
		},
		Sku:         p.Sku,
		Name:        p.Name,
		Description: p.Description,
		BasePrice:   p.BasePrice,
		Category:    p.Category,
		IsActive:    p.IsActive,
		CreatedUtc:  p.CreatedUtc,
		ModifiedUtc: now,
	}

	if err := r.table.Add(ctx, &e); err != nil {
		return err
	}
	p.ModifiedUtc = now
	r.cachePartition(ctx, e.RowKey, e.PartitionKey)

	r.log.Info().
		Str("product_id", p.ID.String()).
		Str("sku", p.Sku).
		Str("category", p.Category).
		Msg("product added to catalog")
	return nil
}

// GetByID finds a product by id. The id does not encode the category, so
// without a cache hint this is a cross-partition scan on the row key.
func (r *Repository) GetByID(ctx context.Context, id string) (*Product, error) {
	e, err := r.getEntity(ctx, id)
	if err != nil || e == nil {
		return nil, err
	}
	p, err := e.toDomain()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetBySKU finds a product by its SKU via a cross-partition scan.
func (r *Repository) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	if sku == "" {
		return nil, nil
	}

	r.log.Debug().Str("sku", sku).Msg("searching product by sku")

	matches, err := r.table.Query(tablestore.Filter{Equals: map[string]any{"Sku": sku}}).Drain(ctx)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	p, err := matches[0].toDomain()
	if err != nil {
		return nil, err
	}
	r.cachePartition(ctx, matches[0].RowKey, matches[0].PartitionKey)
	return &p, nil
}

// Query lists products sorted by category, name and id. A category filter
// restricts the listing to that partition; isActive filters server-side.
func (r *Repository) Query(ctx context.Context, pageSize int, category string, isActive *bool, token string) (pagination.PagedResult[Product], error) {
	offset := pagination.ParseOffsetToken(token)
	pageSize = pagination.Clamp(pageSize)

	f := tablestore.Filter{}
	if category != "" {
		f.PartitionKey = NormalizeCategory(category)
	}
	if isActive != nil {
		f.Equals = map[string]any{"IsActive": *isActive}
	}

	r.log.Debug().
		Str("category", category).
		Int("offset", offset).
		Int("page_size", pageSize).
		Msg("querying products")

	entities, err := r.table.Query(f).Drain(ctx)
	if err != nil {
		return pagination.PagedResult[Product]{}, err
	}

	sort.Slice(entities, func(i, j int) bool {
		a, b := entities[i], entities[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.RowKey < b.RowKey
	})

	page := pagination.SlicePage(entities, offset, pageSize)
	out := pagination.PagedResult[Product]{
		Items:             make([]Product, 0, len(page.Items)),
		ContinuationToken: page.ContinuationToken,
	}
	for i := range page.Items {
		p, err := page.Items[i].toDomain()
		if err != nil {
			return pagination.PagedResult[Product]{}, err
		}
		out.Items = append(out.Items, p)
	}

	r.log.Info().
		Int("count", len(out.Items)).
		Bool("has_more", out.ContinuationToken != nil).
		Msg("products listed")
	return out, nil
}

// UpdateParams carries the mutable product fields for Update.
type UpdateParams struct {
	Name        string
	Description string
	BasePrice   float64
	Category    string
	IsActive    bool
}

// Update replaces the mutable fields of a product. A category change moves
// the row: the old partition's copy is deleted and the row is reinserted
// under the new category. It reports (false, nil) when the product does not
// exist.
func (r *Repository) Update(ctx context.Context, id string, p UpdateParams) (bool, error) {
	e, err := r.getEntity(ctx, id)
	if err != nil {
		return false, err
	}
	if e == nil {
		return false, nil
	}

	newPartition := NormalizeCategory(p.Category)
	if e.PartitionKey != newPartition {
		if err := r.table.Delete(ctx, e); err != nil && !tablestore.IsNotFound(err) {
			return false, err
		}
		e.PartitionKey = newPartition
		e.ETag = ""
	}

	e.Name = p.Name
	e.Description = p.Description
	e.BasePrice = p.BasePrice
	e.Category = p.Category
	e.IsActive = p.IsActive
	e.ModifiedUtc = time.Now().UTC()

	if err := r.table.Upsert(ctx, e); err != nil {
		return false, err
	}
	r.cachePartition(ctx, e.RowKey, e.PartitionKey)

	r.log.Info().
		Str("product_id", id).
		Str("category", p.Category).
		Msg("product updated")
	return true, nil
}

// Delete removes a product, reporting (false, nil) when it does not exist.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	e, err := r.getEntity(ctx, id)
	if err != nil {
		return false, err
	}
	if e == nil {
		return false, nil
	}

	if err := r.table.Delete(ctx, e); err != nil {
		if tablestore.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if r.cache != nil {
		r.cache.Invalidate(ctx, e.RowKey)
	}

	r.log.Info().
		Str("product_id", id).
		Str("category", e.Category).
		Msg("product deleted")
	return true, nil
}

// getEntity resolves a product row by id: first through the partition hint,
// then by scanning every partition for the row key.
func (r *Repository) getEntity(ctx context.Context, id string) (*Entity, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	rk := rowKey(parsed)

	if r.cache != nil {
		if pk, ok := r.cache.GetPartition(ctx, rk); ok {
			e, err := r.table.GetByID(ctx, pk, rk)
			if err != nil {
				return nil, err
			}
			if e != nil {
				return e, nil
			}
			// Stale hint; fall through to the scan.
			r.cache.Invalidate(ctx, rk)
		}
	}

	r.log.Debug().Str("product_id", id).Msg("searching product across all categories")

	matches, err := r.table.Query(tablestore.Filter{RowKey: rk}).Drain(ctx)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	e := matches[0]
	r.cachePartition(ctx, e.RowKey, e.PartitionKey)
	return &e, nil
}

func (r *Repository) cachePartition(ctx context.Context, rowKey, partitionKey string) {
	if r.cache != nil {
		r.cache.SetPartition(ctx, rowKey, partitionKey)
	}
}
