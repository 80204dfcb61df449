package orders

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nexusware/customer-order/pagination"
	"github.com/nexusware/customer-order/tablestore"
)

// Repository persists orders partitioned by (account, month). Account-wide
// history spans months and is offset-paged over a gathered result; the
// per-month listing stays inside one partition and pages on the store's own
// continuation tokens.
type Repository struct {
	table tablestore.Client[Entity]
	log   zerolog.Logger
}

// NewRepository wires the order repository.
func NewRepository(table tablestore.Client[Entity], log zerolog.Logger) *Repository {
	return &Repository{
		table: table,
		log:   log.With().Str("repository", "orders").Logger(),
	}
}

// Add inserts a new order into its account-month partition.
func (r *Repository) Add(ctx context.Context, o *Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}

	e, err := toEntity(o)
	if err != nil {
		return err
	}
	if err := r.table.Add(ctx, e); err != nil {
		return err
	}

	r.log.Info().
		Str("order_id", o.ID.String()).
		Str("account_id", o.AccountID.String()).
		Str("partition", e.PartitionKey).
		Msg("order added")
	return nil
}

// GetByID finds one order. The id does not encode the account or month, so
// this scans partitions for the row key.
func (r *Repository) GetByID(ctx context.Context, id string) (*Order, error) {
	e, err := r.getEntity(ctx, id)
	if err != nil || e == nil {
		return nil, err
	}
	o, err := e.toDomain()
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// QueryByAccount lists an account's orders across all months, newest first.
// The continuation token is an offset into that total order.
func (r *Repository) QueryByAccount(ctx context.Context, accountID string, pageSize int, token string) (pagination.PagedResult[Order], error) {
	parsed, err := uuid.Parse(accountID)
	if err != nil {
		return pagination.PagedResult[Order]{Items: []Order{}}, nil
	}
	offset := pagination.ParseOffsetToken(token)
	pageSize = pagination.Clamp(pageSize)

	r.log.Debug().
		Str("account_id", accountID).
		Int("offset", offset).
		Int("page_size", pageSize).
		Msg("querying orders by account")

	entities, err := r.table.Query(tablestore.Filter{
		Equals: map[string]any{"AccountId": rowKey(parsed)},
	}).Drain(ctx)
	if err != nil {
		return pagination.PagedResult[Order]{}, err
	}

	sort.Slice(entities, func(i, j int) bool {
		a, b := entities[i], entities[j]
		if !a.OrderedUtc.Equal(b.OrderedUtc) {
			return a.OrderedUtc.After(b.OrderedUtc)
		}
		return a.RowKey < b.RowKey
	})

	page := pagination.SlicePage(entities, offset, pageSize)
	out := pagination.PagedResult[Order]{
		Items:             make([]Order, 0, len(page.Items)),
		ContinuationToken: page.ContinuationToken,
	}
	for i := range page.Items {
		o, err := page.Items[i].toDomain()
		if err != nil {
			return pagination.PagedResult[Order]{}, err
		}
		out.Items = append(out.Items, o)
	}

	r.log.Info().
		Int("count", len(out.Items)).
		Str("account_id", accountID).
		Bool("has_more", out.ContinuationToken != nil).
		Msg("orders listed")
	return out, nil
}

// ListByAccountMonth lists one account-month partition in row-key order,
// paging on the store's native continuation tokens instead of gathering the
// partition up front.
func (r *Repository) ListByAccountMonth(ctx context.Context, accountID string, year int, month time.Month, pageSize int, token string) (pagination.PagedResult[Order], error) {
	parsed, err := uuid.Parse(accountID)
	if err != nil {
		return pagination.PagedResult[Order]{Items: []Order{}}, nil
	}
	pk := MonthPartitionKey(parsed, time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))

	page, err := r.table.Query(
		tablestore.Filter{PartitionKey: pk},
		tablestore.WithPageSize(pagination.Clamp(pageSize)),
		tablestore.WithStartToken(token),
	).NextPage(ctx)
	if err != nil {
		return pagination.PagedResult[Order]{}, err
	}

	out := make([]Order, 0, len(page.Items))
	for i := range page.Items {
		o, err := page.Items[i].toDomain()
		if err != nil {
			return pagination.PagedResult[Order]{}, err
		}
		out = append(out, o)
	}

	r.log.Debug().
		Str("partition", pk).
		Int("count", len(out)).
		Msg("orders listed for month")
	return pagination.Native(out, page.NextToken), nil
}

// UpdateStatus moves an order through its lifecycle, stamping shipment and
// delivery times. It reports (false, nil) when the order does not exist and
// ErrInvalidTransition when the lifecycle forbids the change.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status, trackingNumber string) (bool, error) {
	e, err := r.getEntity(ctx, id)
	if err != nil {
		return false, err
	}
	if e == nil {
		return false, nil
	}

	current := Status(e.Status)
	if !current.CanTransitionTo(status) {
		return false, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current, status)
	}

	e.Status = string(status)
	now := time.Now().UTC()
	if status == StatusShipped && e.ShippedUtc == nil {
		e.ShippedUtc = &now
		if trackingNumber != "" {
			e.TrackingNumber = trackingNumber
		}
	}
	if status == StatusDelivered && e.DeliveredUtc == nil {
		e.DeliveredUtc = &now
	}

	if err := r.table.Upsert(ctx, e); err != nil {
		return false, err
	}

	r.log.Info().
		Str("order_id", id).
		Str("status", string(status)).
		Msg("order status updated")
	return true, nil
}

// Delete removes an order, reporting (false, nil) when it does not exist.
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

	r.log.Info().Str("order_id", id).Msg("order deleted")
	return true, nil
}

func (r *Repository) getEntity(ctx context.Context, id string) (*Entity, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	matches, err := r.table.Query(tablestore.Filter{RowKey: rowKey(parsed)}).Drain(ctx)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}
