// Package partition decides which partition of a table a row lands in.
//
// The assignment must be stable across processes, versions and restarts:
// every reader and writer must derive the same partition key for the same
// entity id, forever. That rules out runtime-seeded hashes; the bucketing
// here is a fixed two-seed variant of djb2 with no per-process state.
package partition

import "fmt"

// Defaults for the hash strategy.
const (
	DefaultCount  = 100
	DefaultPrefix = "ACC"

	// MaxCount bounds the partition count; fan-out reads visit every
	// partition, so an unbounded count would make them unworkable.
	MaxCount = 1000
)

// HashVersion names the bucketing scheme. It is persisted alongside rows so a
// future rebucketing can tell old layouts from new ones.
const HashVersion = "hash-v1"

// Strategy maps entity ids onto a fixed, enumerable set of partition keys.
type Strategy interface {
	// PartitionKey returns the partition the given id belongs to. The same
	// id always yields the same key.
	PartitionKey(id string) string

	// AllPartitionKeys enumerates every key the strategy can produce, for
	// fan-out reads. The slice is owned by the caller.
	AllPartitionKeys() []string

	// Version identifies the bucketing scheme.
	Version() string
}

// HashStrategy buckets ids into count partitions named "{prefix}-NNN".
type HashStrategy struct {
	prefix string
	count  int
}

// NewHashStrategy builds a strategy with count partitions under the given
// prefix. Zero values take the defaults; count outside [1, MaxCount] is
// rejected.
func NewHashStrategy(prefix string, count int) (*HashStrategy, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if count == 0 {
		count = DefaultCount
	}
	if count < 1 || count > MaxCount {
		return nil, fmt.Errorf("partition: count %d out of range [1, %d]", count, MaxCount)
	}
	return &HashStrategy{prefix: prefix, count: count}, nil
}

// PartitionKey returns "{prefix}-NNN" for the bucket id hashes into. Buckets
// are zero-padded to three digits so partition keys sort numerically.
func (s *HashStrategy) PartitionKey(id string) string {
	bucket := int(stableHash(id)) % s.count
	if bucket < 0 {
		bucket = -bucket
	}
	return fmt.Sprintf("%s-%03d", s.prefix, bucket)
}

// AllPartitionKeys returns every partition key in bucket order.
func (s *HashStrategy) AllPartitionKeys() []string {
	keys := make([]string, s.count)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s-%03d", s.prefix, i)
	}
	return keys
}

// Version returns the bucketing scheme identifier.
func (s *HashStrategy) Version() string { return HashVersion }

// Count reports the number of partitions.
func (s *HashStrategy) Count() int { return s.count }

// stableHash folds the id's bytes into two djb2 accumulators, even offsets
// into one and odd into the other, then combines them. All arithmetic is
// 32-bit with wraparound, which keeps the result identical on every platform.
func stableHash(id string) int32 {
	var h1, h2 int32 = 5381, 5381
	for i := 0; i < len(id); i += 2 {
		h1 = ((h1 << 5) + h1) ^ int32(id[i])
		if i+1 < len(id) {
			h2 = ((h2 << 5) + h2) ^ int32(id[i+1])
		}
	}
	return h1 + h2*1566083941
}
