package tablestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRow struct {
	EntityMeta
	Name string `dynamodbav:"Name"`
	Rank int    `dynamodbav:"Rank"`
}

// fakeDynamo is a function-field fake of the transport. Unset fields default
// to benign responses; CreateTable reports the table as already present so
// the waiter never runs.
type fakeDynamo struct {
	getFn    func(ctx context.Context, in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	putFn    func(ctx context.Context, in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	deleteFn func(ctx context.Context, in *dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error)
	queryFn  func(ctx context.Context, in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
	scanFn   func(ctx context.Context, in *dynamodb.ScanInput) (*dynamodb.ScanOutput, error)
	createFn func(ctx context.Context, in *dynamodb.CreateTableInput) (*dynamodb.CreateTableOutput, error)

	getCalls    int
	putCalls    int
	queryCalls  int
	scanCalls   int
	createCalls int
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.getCalls++
	if f.getFn != nil {
		return f.getFn(ctx, in)
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putCalls++
	if f.putFn != nil {
		return f.putFn(ctx, in)
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, in)
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queryCalls++
	if f.queryFn != nil {
		return f.queryFn(ctx, in)
	}
	return &dynamodb.QueryOutput{}, nil
}

func (f *fakeDynamo) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scanCalls++
	if f.scanFn != nil {
		return f.scanFn(ctx, in)
	}
	return &dynamodb.ScanOutput{}, nil
}

func (f *fakeDynamo) CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.createCalls++
	if f.createFn != nil {
		return f.createFn(ctx, in)
	}
	return nil, &types.ResourceInUseException{}
}

func (f *fakeDynamo) DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{TableStatus: types.TableStatusActive},
	}, nil
}

func testCfg() StorageConfig {
	return StorageConfig{
		TableName:  "test-table",
		RetryDelay: time.Millisecond,
		MaxRetries: 3,
		OpTimeout:  5 * time.Second,
	}
}

func newTestClient(t *testing.T, api DynamoAPI) *DynamoClient[testRow] {
	t.Helper()
	c, err := NewDynamoClient[testRow](api, testCfg(), zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestNewDynamoClient_RequiresTableName(t *testing.T) {
	t.Parallel()

	_, err := NewDynamoClient[testRow](&fakeDynamo{}, StorageConfig{}, zerolog.Nop())
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestGetByID_AbsentIsNil(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, &fakeDynamo{})
	row, err := c.GetByID(context.Background(), "ACC-001", "abc")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestGetByID_Found(t *testing.T) {
	t.Parallel()

	api := &fakeDynamo{
		getFn: func(_ context.Context, in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			require.NotNil(t, in.ConsistentRead)
			assert.True(t, *in.ConsistentRead)
			return &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
				AttrPartitionKey: &types.AttributeValueMemberS{Value: "ACC-001"},
				AttrRowKey:       &types.AttributeValueMemberS{Value: "abc"},
				AttrETag:         &types.AttributeValueMemberS{Value: "v1"},
				"Name":           &types.AttributeValueMemberS{Value: "Ada"},
				"Rank":           &types.AttributeValueMemberN{Value: "7"},
			}}, nil
		},
	}
	c := newTestClient(t, api)

	row, err := c.GetByID(context.Background(), "ACC-001", "abc")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "Ada", row.Name)
	assert.Equal(t, 7, row.Rank)
	assert.Equal(t, "v1", row.ETag)
}

func TestAdd_StampsMetaAndGuardsDuplicates(t *testing.T) {
	t.Parallel()

	api := &fakeDynamo{
		putFn: func(_ context.Context, in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			require.NotNil(t, in.ConditionExpression)
			assert.Contains(t, *in.ConditionExpression, "attribute_not_exists")
			return &dynamodb.PutItemOutput{}, nil
		},
	}
	c := newTestClient(t, api)

	row := &testRow{EntityMeta: EntityMeta{PartitionKey: "ACC-001", RowKey: "abc"}, Name: "Ada"}
	require.NoError(t, c.Add(context.Background(), row))
	assert.NotEmpty(t, row.ETag)
	assert.False(t, row.Timestamp.IsZero())
}

func TestAdd_DuplicateKeyIsConflict(t *testing.T) {
	t.Parallel()

	api := &fakeDynamo{
		putFn: func(context.Context, *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			return nil, &types.ConditionalCheckFailedException{}
		},
	}
	c := newTestClient(t, api)

	err := c.Add(context.Background(), &testRow{EntityMeta: EntityMeta{PartitionKey: "ACC-001", RowKey: "abc"}})
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, api.putCalls, "conflicts must not be retried")
}

func TestDeleteByKey_WildcardOnAbsentRowIsNotFound(t *testing.T) {
	t.Parallel()

	api := &fakeDynamo{
		deleteFn: func(context.Context, *dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error) {
			return nil, &types.ConditionalCheckFailedException{}
		},
	}
	c := newTestClient(t, api)

	err := c.DeleteByKey(context.Background(), "ACC-001", "abc", ETagAll)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteByKey_StaleTagIsPreconditionFailure(t *testing.T) {
	t.Parallel()

	api := &fakeDynamo{
		deleteFn: func(context.Context, *dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error) {
			return nil, &types.ConditionalCheckFailedException{}
		},
		getFn: func(context.Context, *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
				AttrPartitionKey: &types.AttributeValueMemberS{Value: "ACC-001"},
				AttrRowKey:       &types.AttributeValueMemberS{Value: "abc"},
				AttrETag:         &types.AttributeValueMemberS{Value: "current"},
			}}, nil
		},
	}
	c := newTestClient(t, api)

	err := c.DeleteByKey(context.Background(), "ACC-001", "abc", "stale")
	require.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestDeleteByKey_TaggedDeleteOnAbsentRowIsNotFound(t *testing.T) {
	t.Parallel()

	api := &fakeDynamo{
		deleteFn: func(context.Context, *dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error) {
			return nil, &types.ConditionalCheckFailedException{}
		},
	}
	c := newTestClient(t, api)

	err := c.DeleteByKey(context.Background(), "ACC-001", "abc", "some-tag")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRetry_TransientFailuresAreRetried(t *testing.T) {
	t.Parallel()

	failures := 2
	api := &fakeDynamo{
		getFn: func(context.Context, *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			if failures > 0 {
				failures--
				return nil, &types.ProvisionedThroughputExceededException{}
			}
			return &dynamodb.GetItemOutput{}, nil
		},
	}
	c := newTestClient(t, api)

	_, err := c.GetByID(context.Background(), "ACC-001", "abc")
	require.NoError(t, err)
	assert.Equal(t, 3, api.getCalls)
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	api := &fakeDynamo{
		getFn: func(context.Context, *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return nil, &types.ProvisionedThroughputExceededException{}
		},
	}
	c := newTestClient(t, api)

	_, err := c.GetByID(context.Background(), "ACC-001", "abc")
	require.Error(t, err)
	assert.Equal(t, 4, api.getCalls, "first attempt plus MaxRetries")
}

func TestEnsureTable_RunsOnceAndSwallowsCreateRace(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, &fakeDynamo{})
	api := c.api.(*fakeDynamo)

	_, err := c.GetByID(context.Background(), "ACC-001", "a")
	require.NoError(t, err)
	_, err = c.GetByID(context.Background(), "ACC-001", "b")
	require.NoError(t, err)

	assert.Equal(t, 1, api.createCalls)
}

func TestEnsureTable_RecoversFromTransientCreateFailure(t *testing.T) {
	t.Parallel()

	api := &fakeDynamo{}
	api.createFn = func(context.Context, *dynamodb.CreateTableInput) (*dynamodb.CreateTableOutput, error) {
		if api.createCalls == 1 {
			return nil, &smithy.GenericAPIError{Code: "ServiceUnavailable", Message: "try again"}
		}
		return nil, &types.ResourceInUseException{}
	}
	c := newTestClient(t, api)

	_, err := c.GetByID(context.Background(), "ACC-001", "a")
	require.Error(t, err)
	assert.Zero(t, api.getCalls, "failed creation must block the operation")

	_, err = c.GetByID(context.Background(), "ACC-001", "a")
	require.NoError(t, err, "the next operation retries the creation")
	assert.Equal(t, 2, api.createCalls)

	_, err = c.GetByID(context.Background(), "ACC-001", "b")
	require.NoError(t, err)
	assert.Equal(t, 2, api.createCalls, "successful creation is not repeated")
}

func TestQuery_PartitionFilterUsesQueryNotScan(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, &fakeDynamo{})
	api := c.api.(*fakeDynamo)

	_, err := c.Query(Filter{PartitionKey: "ACC-001"}).Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, api.queryCalls)
	assert.Zero(t, api.scanCalls)

	_, err = c.Query(Filter{Equals: map[string]any{"Name": "Ada"}}).Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, api.scanCalls)
}

func TestQuery_TokenRoundTrip(t *testing.T) {
	t.Parallel()

	api := &fakeDynamo{
		queryFn: func(_ context.Context, in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			if in.ExclusiveStartKey == nil {
				return &dynamodb.QueryOutput{
					Items: []map[string]types.AttributeValue{{
						AttrPartitionKey: &types.AttributeValueMemberS{Value: "ACC-001"},
						AttrRowKey:       &types.AttributeValueMemberS{Value: "r1"},
					}},
					LastEvaluatedKey: keyAttributes("ACC-001", "r1"),
				}, nil
			}
			key, err := itemKey(in.ExclusiveStartKey)
			require.NoError(t, err)
			assert.Equal(t, Key{PartitionKey: "ACC-001", RowKey: "r1"}, key)
			return &dynamodb.QueryOutput{
				Items: []map[string]types.AttributeValue{{
					AttrPartitionKey: &types.AttributeValueMemberS{Value: "ACC-001"},
					AttrRowKey:       &types.AttributeValueMemberS{Value: "r2"},
				}},
			}, nil
		},
	}
	c := newTestClient(t, api)

	pager := c.Query(Filter{PartitionKey: "ACC-001"}, WithPageSize(1))

	first, err := pager.NextPage(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Items, 1)
	require.NotEmpty(t, first.NextToken)

	resumed := c.Query(Filter{PartitionKey: "ACC-001"}, WithPageSize(1), WithStartToken(first.NextToken))
	second, err := resumed.NextPage(context.Background())
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "r2", second.Items[0].RowKey)
	assert.Empty(t, second.NextToken)
}

func TestDecodeToken_Malformed(t *testing.T) {
	t.Parallel()

	_, err := decodeToken("not base64 ###")
	require.Error(t, err)

	var notFound *NotFoundError
	assert.False(t, errors.As(err, &notFound))
}
