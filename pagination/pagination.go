// Package pagination carries paged results across API boundaries.
//
// Two token kinds flow through the service. Offset tokens, defined here,
// encode a position in a fully-gathered, totally-ordered result set and back
// the cross-partition listings. Native store tokens are opaque to this
// package and pass through PagedResult untouched.
package pagination

import "strconv"

// Page size bounds applied by Clamp.
const (
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

// PagedResult is one page of a listing. ContinuationToken is nil on the last
// page; otherwise the caller passes it back verbatim to fetch the next page.
type PagedResult[T any] struct {
	Items             []T     `json:"items"`
	ContinuationToken *string `json:"continuationToken,omitempty"`
}

// Clamp normalizes a requested page size into [1, MaxPageSize], mapping an
// unset size to the default.
func Clamp(pageSize int) int {
	switch {
	case pageSize <= 0:
		return DefaultPageSize
	case pageSize > MaxPageSize:
		return MaxPageSize
	default:
		return pageSize
	}
}

// OffsetToken encodes a result-set offset as a token.
func OffsetToken(offset int) string {
	return strconv.Itoa(offset)
}

// ParseOffsetToken decodes a token produced by OffsetToken. Empty or
// unparseable tokens mean the start of the listing; a garbled token restarts
// the walk rather than failing it.
func ParseOffsetToken(token string) int {
	if token == "" {
		return 0
	}
	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

// SlicePage pages a fully-gathered, already-sorted result set. It skips
// offset rows, returns up to pageSize, and issues a continuation token only
// when rows remain beyond the page.
func SlicePage[T any](sorted []T, offset, pageSize int) PagedResult[T] {
	pageSize = Clamp(pageSize)

	if offset >= len(sorted) {
		return PagedResult[T]{Items: []T{}}
	}

	end := offset + pageSize
	if end >= len(sorted) {
		return PagedResult[T]{Items: sorted[offset:]}
	}

	token := OffsetToken(end)
	return PagedResult[T]{Items: sorted[offset:end], ContinuationToken: &token}
}

// Native wraps a store-issued token into the result envelope. The token is
// passed through verbatim; an empty token means the listing is exhausted.
func Native[T any](items []T, storeToken string) PagedResult[T] {
	if items == nil {
		items = []T{}
	}
	if storeToken == "" {
		return PagedResult[T]{Items: items}
	}
	return PagedResult[T]{Items: items, ContinuationToken: &storeToken}
}
