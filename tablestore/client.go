package tablestore

import (
	"context"
)

// Filter restricts a Query. The zero value matches every row in the table.
//
// PartitionKey and RowKey are equality matches on the key attributes; Equals
// adds server-side equality conditions on arbitrary attributes. When
// PartitionKey is set the store can serve the query from a single partition,
// otherwise the whole table is scanned.
type Filter struct {
	PartitionKey string
	RowKey       string
	Equals       map[string]any
}

// Page is one chunk of query results. NextToken is opaque; feed it back via
// WithStartToken to resume, empty means the scan is exhausted.
type Page[T any] struct {
	Items     []T
	NextToken string
}

type queryOptions struct {
	pageSize   int32
	startToken string
}

// QueryOption tunes a Query call.
type QueryOption func(*queryOptions)

// WithPageSize hints how many rows the store should return per page.
func WithPageSize(n int) QueryOption {
	return func(o *queryOptions) {
		if n > 0 {
			o.pageSize = int32(n)
		}
	}
}

// WithStartToken resumes a query from a continuation token returned by an
// earlier page. The token must be passed back unchanged.
func WithStartToken(token string) QueryOption {
	return func(o *queryOptions) { o.startToken = token }
}

// Client is a typed view over one table. T is the entity shape; it must
// marshal to a row carrying the PartitionKey and RowKey attributes, which
// entity types get by embedding EntityMeta.
type Client[T any] interface {
	// Query returns a lazy pager over all rows matching f.
	Query(f Filter, opts ...QueryOption) *Pager[T]

	// GetByID performs a point lookup. Absence is not an error: the entity
	// pointer is nil when the row does not exist.
	GetByID(ctx context.Context, partitionKey, rowKey string) (*T, error)

	// Add inserts a new row. It fails with ErrConflict when the key pair is
	// already present. On success the item's ETag and Timestamp are updated
	// in place.
	Add(ctx context.Context, item *T) error

	// Upsert inserts or fully replaces a row, ignoring any stored ETag.
	Upsert(ctx context.Context, item *T) error

	// Delete removes the row identified by the item's keys, checking the
	// item's ETag when present and forcing the delete otherwise. It fails
	// with ErrNotFound when the row is absent.
	Delete(ctx context.Context, item *T) error

	// DeleteByKey removes a row by explicit keys and concurrency tag. Pass
	// ETagAll to skip the tag check.
	DeleteByKey(ctx context.Context, partitionKey, rowKey, etag string) error

	// Exists reports whether the row is present.
	Exists(ctx context.Context, partitionKey, rowKey string) (bool, error)
}

// Pager lazily walks the pages of a query. It is restartable only through the
// continuation tokens it emits.
type Pager[T any] struct {
	fetch func(ctx context.Context, token string, limit int32) ([]T, string, error)
	limit int32
	token string
	done  bool
}

func newPager[T any](opts queryOptions, fetch func(ctx context.Context, token string, limit int32) ([]T, string, error)) *Pager[T] {
	return &Pager[T]{fetch: fetch, limit: opts.pageSize, token: opts.startToken}
}

// NextPage fetches the next page. Pages may be empty while the scan is still
// in progress; use Done to detect exhaustion.
func (p *Pager[T]) NextPage(ctx context.Context) (Page[T], error) {
	if p.done {
		return Page[T]{}, nil
	}
	items, next, err := p.fetch(ctx, p.token, p.limit)
	if err != nil {
		return Page[T]{}, err
	}
	p.token = next
	if next == "" {
		p.done = true
	}
	return Page[T]{Items: items, NextToken: next}, nil
}

// Done reports whether the query is exhausted.
func (p *Pager[T]) Done() bool { return p.done }

// Drain walks all remaining pages and returns the concatenated items.
func (p *Pager[T]) Drain(ctx context.Context) ([]T, error) {
	var all []T
	for !p.done {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
	}
	return all, nil
}
