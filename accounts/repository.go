package accounts

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nexusware/customer-order/pagination"
	"github.com/nexusware/customer-order/partition"
	"github.com/nexusware/customer-order/tablestore"
)

// Repository persists accounts in a hash-partitioned table. The partition of
// a row is derived from the account id, so point operations touch exactly one
// partition and only listings fan out.
type Repository struct {
	table    tablestore.Client[Entity]
	strategy partition.Strategy
	log      zerolog.Logger
	parallel int
}

// NewRepository wires the account repository. scanParallel bounds how many
// partitions a listing drains concurrently.
func NewRepository(table tablestore.Client[Entity], strategy partition.Strategy, log zerolog.Logger, scanParallel int) *Repository {
	return &Repository{
		table:    table,
		strategy: strategy,
		log:      log.With().Str("repository", "accounts").Logger(),
		parallel: scanParallel,
	}
}

// Add inserts a new account. A zero id is assigned; a duplicate id fails
// with tablestore.ErrConflict.
func (r *Repository) Add(ctx context.Context, a *Account) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()

	e := Entity{
		EntityMeta: tablestore.EntityMeta{
			PartitionKey: r.strategy.PartitionKey(a.ID.String()),
			RowKey:       rowKey(a.ID),
		},
		FirstName:                a.FirstName,
		LastName:                 a.LastName,
		Email:                    strings.TrimSpace(a.Email),
		PhoneNumber:              strings.TrimSpace(a.Phone),
		IsActive:                 a.IsActive,
		CreatedUtc:               now,
		ModifiedUtc:              now,
		PartitionStrategyVersion: 1,
	}
	e.setAddress(a.Address)

	if err := r.table.Add(ctx, &e); err != nil {
		return err
	}
	a.CreatedUtc = now
	a.ModifiedUtc = now

	r.log.Info().
		Str("account_id", a.ID.String()).
		Str("partition", e.PartitionKey).
		Msg("account added")
	return nil
}

// GetByID looks up one account. The partition is computed from the id, so
// this is a single-partition point read. Unknown and malformed ids both
// report absence.
func (r *Repository) GetByID(ctx context.Context, id string) (*Account, error) {
	e, err := r.getEntity(ctx, id)
	if err != nil || e == nil {
		return nil, err
	}
	a, err := e.toDomain()
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Query lists accounts across every partition, sorted by last name, first
// name and id. The continuation token is an offset into that total order.
func (r *Repository) Query(ctx context.Context, pageSize int, token string) (pagination.PagedResult[Account], error) {
	offset := pagination.ParseOffsetToken(token)
	pageSize = pagination.Clamp(pageSize)
	partitions := r.strategy.AllPartitionKeys()

	r.log.Debug().
		Int("partitions", len(partitions)).
		Int("offset", offset).
		Int("page_size", pageSize).
		Msg("querying accounts")

	entities, err := tablestore.ScatterGather(ctx, r.table, partitions, r.parallel, tablestore.Filter{})
	if err != nil {
		return pagination.PagedResult[Account]{}, err
	}

	sort.Slice(entities, func(i, j int) bool {
		a, b := entities[i], entities[j]
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.RowKey < b.RowKey
	})

	page := pagination.SlicePage(entities, offset, pageSize)
	out := pagination.PagedResult[Account]{
		Items:             make([]Account, 0, len(page.Items)),
		ContinuationToken: page.ContinuationToken,
	}
	for i := range page.Items {
		a, err := page.Items[i].toDomain()
		if err != nil {
			return pagination.PagedResult[Account]{}, err
		}
		out.Items = append(out.Items, a)
	}

	r.log.Info().
		Int("count", len(out.Items)).
		Bool("has_more", out.ContinuationToken != nil).
		Msg("accounts listed")
	return out, nil
}

// UpdateParams carries the mutable account fields for Update.
type UpdateParams struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	IsActive  *bool
	Address   Address
}

// Update replaces the mutable fields of an account. It reports (false, nil)
// when the account does not exist.
func (r *Repository) Update(ctx context.Context, id string, p UpdateParams) (bool, error) {
	e, err := r.getEntity(ctx, id)
	if err != nil {
		return false, err
	}
	if e == nil {
		return false, nil
	}

	e.FirstName = p.FirstName
	e.LastName = p.LastName
	// Contact fields are optional: whitespace-only input collapses to absent.
	e.Email = strings.TrimSpace(p.Email)
	e.PhoneNumber = strings.TrimSpace(p.Phone)
	e.IsActive = p.IsActive
	e.setAddress(p.Address)
	e.ModifiedUtc = time.Now().UTC()

	if err := r.table.Upsert(ctx, e); err != nil {
		return false, err
	}

	r.log.Info().
		Str("account_id", id).
		Str("partition", e.PartitionKey).
		Msg("account updated")
	return true, nil
}

// Delete removes an account, reporting (false, nil) when it does not exist.
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

	r.log.Info().
		Str("account_id", id).
		Str("partition", e.PartitionKey).
		Msg("account deleted")
	return true, nil
}

func (r *Repository) getEntity(ctx context.Context, id string) (*Entity, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	pk := r.strategy.PartitionKey(parsed.String())

	r.log.Debug().
		Str("account_id", id).
		Str("partition", pk).
		Msg("account point lookup")
	return r.table.GetByID(ctx, pk, rowKey(parsed))
}
