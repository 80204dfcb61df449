package tablestore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"github.com/nexusware/customer-order/metrics"
)

// DynamoAPI is the slice of the DynamoDB client the table client needs.
// Declared as an interface so tests can substitute a fake transport.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// DynamoClient implements Client[T] against DynamoDB.
type DynamoClient[T any] struct {
	api DynamoAPI
	cfg StorageConfig
	log zerolog.Logger
	rec *metrics.Recorder

	ensureMu sync.Mutex
	created  bool
}

// ClientOption tunes a DynamoClient.
type ClientOption func(*clientOptions)

type clientOptions struct {
	rec *metrics.Recorder
}

// WithRecorder attaches a metrics recorder; table operations are counted and
// timed against it.
func WithRecorder(rec *metrics.Recorder) ClientOption {
	return func(o *clientOptions) { o.rec = rec }
}

// NewDynamoClient builds a typed client for one table.
func NewDynamoClient[T any](api DynamoAPI, cfg StorageConfig, log zerolog.Logger, opts ...ClientOption) (*DynamoClient[T], error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.rec == nil {
		o.rec = metrics.Noop()
	}

	return &DynamoClient[T]{
		api: api,
		cfg: cfg,
		log: log.With().Str("table", cfg.TableName).Logger(),
		rec: o.rec,
	}, nil
}

// ensureTable creates the backing table on first use. Creation is idempotent:
// losing the create race to another process is not an error. The created flag
// latches only on success, so a transient creation failure is attempted again
// by the next operation instead of poisoning the client.
func (c *DynamoClient[T]) ensureTable(ctx context.Context) error {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	if c.created {
		return nil
	}

	_, err := c.api.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(c.cfg.TableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(AttrPartitionKey), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(AttrRowKey), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(AttrPartitionKey), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(AttrRowKey), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if !errors.As(err, &inUse) {
			return fmt.Errorf("tablestore: create table %s: %w", c.cfg.TableName, err)
		}
		// Another writer created it first; that race is benign.
		c.created = true
		return nil
	}

	c.log.Info().Msg("table created, waiting for it to become active")
	waiter := dynamodb.NewTableExistsWaiter(c.api)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(c.cfg.TableName),
	}, c.cfg.OpTimeout); err != nil {
		return fmt.Errorf("tablestore: wait for table %s: %w", c.cfg.TableName, err)
	}
	c.created = true
	return nil
}

func (c *DynamoClient[T]) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if err := c.ensureTable(ctx); err != nil {
		return err
	}
	start := time.Now()
	err := withRetry(ctx, c.cfg, fn)
	c.rec.Timing("tablestore.op.duration", time.Since(start), "op:"+op, "table:"+c.cfg.TableName)
	if err != nil {
		c.rec.Count("tablestore.op.error", "op:"+op, "table:"+c.cfg.TableName)
	}
	return err
}

// GetByID performs a point lookup; (nil, nil) when the row does not exist.
func (c *DynamoClient[T]) GetByID(ctx context.Context, partitionKey, rowKey string) (*T, error) {
	var found *T
	err := c.do(ctx, "get", func(ctx context.Context) error {
		out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
			TableName:      aws.String(c.cfg.TableName),
			Key:            keyAttributes(partitionKey, rowKey),
			ConsistentRead: aws.Bool(true),
		})
		if err != nil {
			return fmt.Errorf("tablestore: get (%s, %s): %w", partitionKey, rowKey, err)
		}
		if out.Item == nil {
			found = nil
			return nil
		}
		item := new(T)
		if err := unmarshalItem(out.Item, item); err != nil {
			return err
		}
		found = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Add inserts a new row, failing with ErrConflict on a duplicate key.
func (c *DynamoClient[T]) Add(ctx context.Context, item *T) error {
	av, err := marshalItem(item)
	if err != nil {
		return err
	}
	key, err := itemKey(av)
	if err != nil {
		return err
	}
	stampMeta(av, time.Now())

	err = c.do(ctx, "add", func(ctx context.Context) error {
		_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(c.cfg.TableName),
			Item:                av,
			ConditionExpression: aws.String("attribute_not_exists(" + AttrPartitionKey + ")"),
		})
		if err != nil {
			var conditional *types.ConditionalCheckFailedException
			if errors.As(err, &conditional) {
				return &ConflictError{PartitionKey: key.PartitionKey, RowKey: key.RowKey}
			}
			return fmt.Errorf("tablestore: add (%s, %s): %w", key.PartitionKey, key.RowKey, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return unmarshalItem(av, item)
}

// Upsert inserts or fully replaces a row regardless of its stored version.
func (c *DynamoClient[T]) Upsert(ctx context.Context, item *T) error {
	av, err := marshalItem(item)
	if err != nil {
		return err
	}
	key, err := itemKey(av)
	if err != nil {
		return err
	}
	stampMeta(av, time.Now())

	err = c.do(ctx, "upsert", func(ctx context.Context) error {
		_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(c.cfg.TableName),
			Item:      av,
		})
		if err != nil {
			return fmt.Errorf("tablestore: upsert (%s, %s): %w", key.PartitionKey, key.RowKey, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return unmarshalItem(av, item)
}

// Delete removes the row identified by the item's keys. The item's ETag is
// enforced when set; an unset tag forces the delete.
func (c *DynamoClient[T]) Delete(ctx context.Context, item *T) error {
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
	return c.DeleteByKey(ctx, key.PartitionKey, key.RowKey, etag)
}

// DeleteByKey removes a row by explicit key and concurrency tag.
func (c *DynamoClient[T]) DeleteByKey(ctx context.Context, partitionKey, rowKey, etag string) error {
	cond := expression.AttributeExists(expression.Name(AttrPartitionKey))
	if etag != ETagAll && etag != "" {
		cond = cond.And(expression.Equal(expression.Name(AttrETag), expression.Value(etag)))
	}
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("tablestore: build delete condition: %w", err)
	}

	return c.do(ctx, "delete", func(ctx context.Context) error {
		_, err := c.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName:                 aws.String(c.cfg.TableName),
			Key:                       keyAttributes(partitionKey, rowKey),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		if err != nil {
			var conditional *types.ConditionalCheckFailedException
			if !errors.As(err, &conditional) {
				return fmt.Errorf("tablestore: delete (%s, %s): %w", partitionKey, rowKey, err)
			}
			if etag == ETagAll || etag == "" {
				return &NotFoundError{PartitionKey: partitionKey, RowKey: rowKey}
			}
			// Disambiguate a missing row from a stale tag.
			exists, exErr := c.Exists(ctx, partitionKey, rowKey)
			if exErr != nil {
				return exErr
			}
			if !exists {
				return &NotFoundError{PartitionKey: partitionKey, RowKey: rowKey}
			}
			return &PreconditionError{PartitionKey: partitionKey, RowKey: rowKey, ETag: etag}
		}
		return nil
	})
}

// Exists reports whether the row is present.
func (c *DynamoClient[T]) Exists(ctx context.Context, partitionKey, rowKey string) (bool, error) {
	item, err := c.GetByID(ctx, partitionKey, rowKey)
	if err != nil {
		return false, err
	}
	return item != nil, nil
}

// Query returns a lazy pager over all rows matching f. When f names a
// partition key the store serves the query from that partition; otherwise the
// whole table is scanned with the filter applied server-side.
func (c *DynamoClient[T]) Query(f Filter, opts ...QueryOption) *Pager[T] {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}

	return newPager[T](o, func(ctx context.Context, token string, limit int32) ([]T, string, error) {
		startKey, err := decodeToken(token)
		if err != nil {
			return nil, "", err
		}

		var items []map[string]types.AttributeValue
		var lastKey map[string]types.AttributeValue

		err = c.do(ctx, "query", func(ctx context.Context) error {
			var fetchErr error
			if f.PartitionKey != "" {
				items, lastKey, fetchErr = c.queryPage(ctx, f, limit, startKey)
			} else {
				items, lastKey, fetchErr = c.scanPage(ctx, f, limit, startKey)
			}
			return fetchErr
		})
		if err != nil {
			return nil, "", err
		}

		var out []T
		if err := attributevalue.UnmarshalListOfMaps(items, &out); err != nil {
			return nil, "", fmt.Errorf("tablestore: unmarshal query page: %w", err)
		}
		next, err := encodeToken(lastKey)
		if err != nil {
			return nil, "", err
		}
		return out, next, nil
	})
}

func (c *DynamoClient[T]) queryPage(ctx context.Context, f Filter, limit int32, startKey map[string]types.AttributeValue) ([]map[string]types.AttributeValue, map[string]types.AttributeValue, error) {
	keyCond := expression.Key(AttrPartitionKey).Equal(expression.Value(f.PartitionKey))
	if f.RowKey != "" {
		keyCond = keyCond.And(expression.Key(AttrRowKey).Equal(expression.Value(f.RowKey)))
	}

	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if filterCond, ok := equalsCondition(f.Equals); ok {
		builder = builder.WithFilter(filterCond)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("tablestore: build query expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(c.cfg.TableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ExclusiveStartKey:         startKey,
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	out, err := c.api.Query(ctx, input)
	if err != nil {
		return nil, nil, fmt.Errorf("tablestore: query partition %s: %w", f.PartitionKey, err)
	}
	return out.Items, out.LastEvaluatedKey, nil
}

func (c *DynamoClient[T]) scanPage(ctx context.Context, f Filter, limit int32, startKey map[string]types.AttributeValue) ([]map[string]types.AttributeValue, map[string]types.AttributeValue, error) {
	conds := map[string]any{}
	for k, v := range f.Equals {
		conds[k] = v
	}
	if f.RowKey != "" {
		conds[AttrRowKey] = f.RowKey
	}

	input := &dynamodb.ScanInput{
		TableName:         aws.String(c.cfg.TableName),
		ExclusiveStartKey: startKey,
	}
	if filterCond, ok := equalsCondition(conds); ok {
		expr, err := expression.NewBuilder().WithFilter(filterCond).Build()
		if err != nil {
			return nil, nil, fmt.Errorf("tablestore: build scan expression: %w", err)
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	out, err := c.api.Scan(ctx, input)
	if err != nil {
		return nil, nil, fmt.Errorf("tablestore: scan: %w", err)
	}
	return out.Items, out.LastEvaluatedKey, nil
}

func equalsCondition(equals map[string]any) (expression.ConditionBuilder, bool) {
	var cond expression.ConditionBuilder
	first := true
	for name, value := range equals {
		c := expression.Equal(expression.Name(name), expression.Value(value))
		if first {
			cond = c
			first = false
		} else {
			cond = cond.And(c)
		}
	}
	return cond, !first
}

func keyAttributes(partitionKey, rowKey string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrPartitionKey: &types.AttributeValueMemberS{Value: partitionKey},
		AttrRowKey:       &types.AttributeValueMemberS{Value: rowKey},
	}
}

// Continuation tokens are the base64-encoded JSON of the last evaluated key.
// The key schema is fixed, so two string attributes always round-trip.

func encodeToken(lastKey map[string]types.AttributeValue) (string, error) {
	if lastKey == nil {
		return "", nil
	}
	key, err := itemKey(lastKey)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("tablestore: encode token: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func decodeToken(token string) (map[string]types.AttributeValue, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("tablestore: malformed continuation token: %w", err)
	}
	var key Key
	if err := json.Unmarshal(raw, &key); err != nil {
		return nil, fmt.Errorf("tablestore: malformed continuation token: %w", err)
	}
	return keyAttributes(key.PartitionKey, key.RowKey), nil
}
