package tablestore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MemoryClient is an in-memory Client[T] with the same key, concurrency-tag
// and continuation-token semantics as the DynamoDB client. It backs tests and
// local runs without a table service.
type MemoryClient[T any] struct {
	mu     sync.RWMutex
	rows   map[Key]map[string]types.AttributeValue
	forced error
}

// NewMemoryClient returns an empty in-memory table.
func NewMemoryClient[T any]() *MemoryClient[T] {
	return &MemoryClient[T]{rows: make(map[Key]map[string]types.AttributeValue)}
}

var _ Client[struct{}] = (*MemoryClient[struct{}])(nil)

// ForceError makes every subsequent operation fail with err until called
// again with nil. Used to exercise failure paths in tests.
func (m *MemoryClient[T]) ForceError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forced = err
}

// Len reports the number of stored rows.
func (m *MemoryClient[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

func (m *MemoryClient[T]) GetByID(ctx context.Context, partitionKey, rowKey string) (*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.forced != nil {
		return nil, m.forced
	}
	av, ok := m.rows[Key{PartitionKey: partitionKey, RowKey: rowKey}]
	if !ok {
		return nil, nil
	}
	item := new(T)
	if err := unmarshalItem(av, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (m *MemoryClient[T]) Add(ctx context.Context, item *T) error {
	av, err := marshalItem(item)
	if err != nil {
		return err
	}
	key, err := itemKey(av)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forced != nil {
		return m.forced
	}
	if _, exists := m.rows[key]; exists {
		return &ConflictError{PartitionKey: key.PartitionKey, RowKey: key.RowKey}
	}
	stampMeta(av, time.Now())
	m.rows[key] = av
	return unmarshalItem(av, item)
}

func (m *MemoryClient[T]) Upsert(ctx context.Context, item *T) error {
	av, err := marshalItem(item)
	if err != nil {
		return err
	}
	key, err := itemKey(av)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forced != nil {
		return m.forced
	}
	stampMeta(av, time.Now())
	m.rows[key] = av
	return unmarshalItem(av, item)
}

func (m *MemoryClient[T]) Delete(ctx context.Context, item *T) error {
	av, err := marshalItem(item)
	if err != nil {
		return err
	}
	key, err := itemKey(av)
	if err != nil {
		return err
	}
	etag := itemETag(av)
	if etag == "" {
		etag = ETagAll
	}
	return m.DeleteByKey(ctx, key.PartitionKey, key.RowKey, etag)
}

func (m *MemoryClient[T]) DeleteByKey(ctx context.Context, partitionKey, rowKey, etag string) error {
	key := Key{PartitionKey: partitionKey, RowKey: rowKey}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forced != nil {
		return m.forced
	}
	stored, ok := m.rows[key]
	if !ok {
		return &NotFoundError{PartitionKey: partitionKey, RowKey: rowKey}
	}
	if etag != ETagAll && etag != "" && itemETag(stored) != etag {
		return &PreconditionError{PartitionKey: partitionKey, RowKey: rowKey, ETag: etag}
	}
	delete(m.rows, key)
	return nil
}

func (m *MemoryClient[T]) Exists(ctx context.Context, partitionKey, rowKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.forced != nil {
		return false, m.forced
	}
	_, ok := m.rows[Key{PartitionKey: partitionKey, RowKey: rowKey}]
	return ok, nil
}

func (m *MemoryClient[T]) Query(f Filter, opts ...QueryOption) *Pager[T] {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}

	return newPager[T](o, func(ctx context.Context, token string, limit int32) ([]T, string, error) {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		m.mu.RLock()
		defer m.mu.RUnlock()
		if m.forced != nil {
			return nil, "", m.forced
		}

		after, err := decodeMemoryToken(token)
		if err != nil {
			return nil, "", err
		}

		keys := m.sortedKeys(f.PartitionKey)
		start := 0
		if after != nil {
			start = sort.Search(len(keys), func(i int) bool { return keyLess(*after, keys[i]) })
		}

		var out []T
		for i := start; i < len(keys); i++ {
			if limit > 0 && int32(len(out)) == limit {
				// Page full with rows still ahead: hand back a resume token,
				// mirroring the real store.
				next, err := encodeToken(keyAttributes(keys[i-1].PartitionKey, keys[i-1].RowKey))
				if err != nil {
					return nil, "", err
				}
				return out, next, nil
			}
			av := m.rows[keys[i]]
			if !matchesFilter(av, f) {
				continue
			}
			item := new(T)
			if err := unmarshalItem(av, item); err != nil {
				return nil, "", err
			}
			out = append(out, *item)
		}
		return out, "", nil
	})
}

func (m *MemoryClient[T]) sortedKeys(partitionKey string) []Key {
	keys := make([]Key, 0, len(m.rows))
	for k := range m.rows {
		if partitionKey != "" && k.PartitionKey != partitionKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keyLess(keys[i], keys[j]) })
	return keys
}

func keyLess(a, b Key) bool {
	if a.PartitionKey != b.PartitionKey {
		return a.PartitionKey < b.PartitionKey
	}
	return a.RowKey < b.RowKey
}

func decodeMemoryToken(token string) (*Key, error) {
	if token == "" {
		return nil, nil
	}
	av, err := decodeToken(token)
	if err != nil {
		return nil, err
	}
	key, err := itemKey(av)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func matchesFilter(av map[string]types.AttributeValue, f Filter) bool {
	if f.RowKey != "" {
		rk, ok := av[AttrRowKey].(*types.AttributeValueMemberS)
		if !ok || rk.Value != f.RowKey {
			return false
		}
	}
	for name, want := range f.Equals {
		wantAV, err := attributevalue.Marshal(want)
		if err != nil {
			return false
		}
		if !attrEqual(av[name], wantAV) {
			return false
		}
	}
	return true
}

func attrEqual(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberBOOL:
		bv, ok := b.(*types.AttributeValueMemberBOOL)
		return ok && av.Value == bv.Value
	case nil:
		return b == nil
	default:
		return false
	}
}
