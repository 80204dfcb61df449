package tablestore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRows(t *testing.T, m *MemoryClient[testRow], partition string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, m.Add(context.Background(), &testRow{
			EntityMeta: EntityMeta{PartitionKey: partition, RowKey: fmt.Sprintf("row-%03d", i)},
			Rank:       i,
		}))
	}
}

func TestMemoryAdd_DuplicateIsConflict(t *testing.T) {
	t.Parallel()

	m := NewMemoryClient[testRow]()
	row := &testRow{EntityMeta: EntityMeta{PartitionKey: "ACC-001", RowKey: "a"}}
	require.NoError(t, m.Add(context.Background(), row))
	assert.NotEmpty(t, row.ETag)

	err := m.Add(context.Background(), &testRow{EntityMeta: EntityMeta{PartitionKey: "ACC-001", RowKey: "a"}})
	require.ErrorIs(t, err, ErrConflict)
	assert.True(t, IsConflict(err))
}

func TestMemoryUpsert_ReplacesAndRotatesTag(t *testing.T) {
	t.Parallel()

	m := NewMemoryClient[testRow]()
	row := &testRow{EntityMeta: EntityMeta{PartitionKey: "ACC-001", RowKey: "a"}, Name: "old"}
	require.NoError(t, m.Add(context.Background(), row))
	firstTag := row.ETag

	row.Name = "new"
	require.NoError(t, m.Upsert(context.Background(), row))
	assert.NotEqual(t, firstTag, row.ETag)

	got, err := m.GetByID(context.Background(), "ACC-001", "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "new", got.Name)
}

func TestMemoryGetByID_AbsentIsNil(t *testing.T) {
	t.Parallel()

	m := NewMemoryClient[testRow]()
	got, err := m.GetByID(context.Background(), "ACC-001", "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryDelete_ETagSemantics(t *testing.T) {
	t.Parallel()

	m := NewMemoryClient[testRow]()
	row := &testRow{EntityMeta: EntityMeta{PartitionKey: "ACC-001", RowKey: "a"}}
	require.NoError(t, m.Add(context.Background(), row))

	err := m.DeleteByKey(context.Background(), "ACC-001", "a", "stale")
	require.ErrorIs(t, err, ErrPreconditionFailed)

	err = m.DeleteByKey(context.Background(), "ACC-001", "missing", ETagAll)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.DeleteByKey(context.Background(), "ACC-001", "a", row.ETag))
	assert.Zero(t, m.Len())
}

func TestMemoryDelete_UnsetTagForcesDelete(t *testing.T) {
	t.Parallel()

	m := NewMemoryClient[testRow]()
	require.NoError(t, m.Add(context.Background(), &testRow{EntityMeta: EntityMeta{PartitionKey: "ACC-001", RowKey: "a"}}))

	err := m.Delete(context.Background(), &testRow{EntityMeta: EntityMeta{PartitionKey: "ACC-001", RowKey: "a"}})
	require.NoError(t, err)
	assert.Zero(t, m.Len())
}

func TestMemoryQuery_PagesAreRestartable(t *testing.T) {
	t.Parallel()

	m := NewMemoryClient[testRow]()
	seedRows(t, m, "ACC-001", 5)
	seedRows(t, m, "ACC-002", 3)

	var rows []testRow
	token := ""
	pages := 0
	for {
		page, err := m.Query(Filter{PartitionKey: "ACC-001"}, WithPageSize(2), WithStartToken(token)).NextPage(context.Background())
		require.NoError(t, err)
		rows = append(rows, page.Items...)
		pages++
		if page.NextToken == "" {
			break
		}
		token = page.NextToken
	}

	require.Len(t, rows, 5)
	assert.Equal(t, 3, pages)
	for i, r := range rows {
		assert.Equal(t, fmt.Sprintf("row-%03d", i), r.RowKey, "rows come back in key order")
	}
}

func TestMemoryQuery_EqualsFilter(t *testing.T) {
	t.Parallel()

	m := NewMemoryClient[testRow]()
	require.NoError(t, m.Add(context.Background(), &testRow{EntityMeta: EntityMeta{PartitionKey: "P", RowKey: "a"}, Name: "Ada", Rank: 1}))
	require.NoError(t, m.Add(context.Background(), &testRow{EntityMeta: EntityMeta{PartitionKey: "P", RowKey: "b"}, Name: "Bob", Rank: 2}))
	require.NoError(t, m.Add(context.Background(), &testRow{EntityMeta: EntityMeta{PartitionKey: "Q", RowKey: "c"}, Name: "Ada", Rank: 3}))

	rows, err := m.Query(Filter{Equals: map[string]any{"Name": "Ada"}}).Drain(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows, err = m.Query(Filter{PartitionKey: "P", Equals: map[string]any{"Name": "Ada"}}).Drain(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Rank)
}

func TestMemoryForceError(t *testing.T) {
	t.Parallel()

	m := NewMemoryClient[testRow]()
	boom := errors.New("boom")
	m.ForceError(boom)

	_, err := m.GetByID(context.Background(), "P", "a")
	require.ErrorIs(t, err, boom)

	m.ForceError(nil)
	_, err = m.GetByID(context.Background(), "P", "a")
	require.NoError(t, err)
}
