package tablestore

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// Attribute names of the fixed table layout. Every stored row carries these
// four attributes; everything else is up to the entity type.
const (
	AttrPartitionKey = "PartitionKey"
	AttrRowKey       = "RowKey"
	AttrETag         = "ETag"
	AttrTimestamp    = "Timestamp"
)

// ETagAll is the wildcard concurrency tag: it matches any stored row version,
// disabling the optimistic-concurrency check on delete.
const ETagAll = "*"

// EntityMeta carries the key and concurrency attributes shared by every
// persisted row. Entity types embed it.
type EntityMeta struct {
	PartitionKey string    `dynamodbav:"PartitionKey" json:"-"`
	RowKey       string    `dynamodbav:"RowKey" json:"-"`
	ETag         string    `dynamodbav:"ETag,omitempty" json:"-"`
	Timestamp    time.Time `dynamodbav:"Timestamp,omitempty,unixtime" json:"-"`
}

// Key identifies a single row.
type Key struct {
	PartitionKey string
	RowKey       string
}

func marshalItem(item any) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("tablestore: marshal item: %w", err)
	}
	return av, nil
}

func unmarshalItem[T any](av map[string]types.AttributeValue, out *T) error {
	if err := attributevalue.UnmarshalMap(av, out); err != nil {
		return fmt.Errorf("tablestore: unmarshal item: %w", err)
	}
	return nil
}

// itemKey extracts the (PartitionKey, RowKey) pair from a marshaled row.
func itemKey(av map[string]types.AttributeValue) (Key, error) {
	pk, ok := av[AttrPartitionKey].(*types.AttributeValueMemberS)
	if !ok || pk.Value == "" {
		return Key{}, fmt.Errorf("tablestore: item is missing %s", AttrPartitionKey)
	}
	rk, ok := av[AttrRowKey].(*types.AttributeValueMemberS)
	if !ok || rk.Value == "" {
		return Key{}, fmt.Errorf("tablestore: item is missing %s", AttrRowKey)
	}
	return Key{PartitionKey: pk.Value, RowKey: rk.Value}, nil
}

// itemETag reads the concurrency tag from a marshaled row, "" when unset.
func itemETag(av map[string]types.AttributeValue) string {
	if s, ok := av[AttrETag].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

// stampMeta assigns a fresh concurrency tag and write timestamp to a marshaled
// row. The store owns both fields; caller-provided values are replaced.
func stampMeta(av map[string]types.AttributeValue, now time.Time) string {
	etag := uuid.NewString()
	av[AttrETag] = &types.AttributeValueMemberS{Value: etag}
	av[AttrTimestamp] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now.UTC().Unix())}
	return etag
}
