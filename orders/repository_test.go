package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusware/customer-order/tablestore"
)

func newTestRepo(t *testing.T) (*Repository, *tablestore.MemoryClient[Entity]) {
	t.Helper()
	table := tablestore.NewMemoryClient[Entity]()
	return NewRepository(table, zerolog.Nop()), table
}

func addOrder(t *testing.T, repo *Repository, accountID uuid.UUID, orderedUtc time.Time) *Order {
	t.Helper()
	o, err := NewOrder(uuid.New(), accountID, twoLines(), shippingAddress(), orderedUtc)
	require.NoError(t, err)
	require.NoError(t, repo.Add(context.Background(), o))
	return o
}

func TestMonthPartitionKey(t *testing.T) {
	t.Parallel()

	accountID := uuid.MustParse("4f9a2c31-7b1e-4d6a-9c0f-2f8f3f6f1a55")
	when := time.Date(2025, time.January, 17, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "4f9a2c317b1e4d6a9c0f2f8f3f6f1a55-202501", MonthPartitionKey(accountID, when))

	// Late-night local times on a month boundary bucket by UTC.
	est := time.FixedZone("EST", -5*3600)
	boundary := time.Date(2025, time.January, 31, 23, 0, 0, 0, est)
	assert.Equal(t, "4f9a2c317b1e4d6a9c0f2f8f3f6f1a55-202502", MonthPartitionKey(accountID, boundary))
}

func TestAddAndGetByID(t *testing.T) {
	t.Parallel()

	repo, table := newTestRepo(t)
	accountID := uuid.New()
	when := time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC)
	o := addOrder(t, repo, accountID, when)

	stored, err := table.GetByID(context.Background(), MonthPartitionKey(accountID, when), rowKey(o.ID))
	require.NoError(t, err)
	require.NotNil(t, stored, "row landed in the account-month partition")
	assert.JSONEq(t, mustLinesJSON(t, o.Lines), stored.LinesJSON)

	got, err := repo.GetByID(context.Background(), o.ID.String())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, o.AccountID, got.AccountID)
	assert.Equal(t, StatusSubmitted, got.Status)
	assert.Len(t, got.Lines, 2)
	assert.Equal(t, o.Total, got.Total)
	assert.Equal(t, shippingAddress(), got.ShippingAddress)
}

func mustLinesJSON(t *testing.T, lines []Line) string {
	t.Helper()
	e, err := toEntity(&Order{ID: uuid.New(), AccountID: uuid.New(), Lines: lines, OrderedUtc: time.Now()})
	require.NoError(t, err)
	return e.LinesJSON
}

func TestGetByID_AbsentAndMalformed(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t)

	got, err := repo.GetByID(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.GetByID(context.Background(), "not-an-id")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestQueryByAccount_NewestFirstAcrossMonths(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t)
	accountID := uuid.New()
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		addOrder(t, repo, accountID, base.AddDate(0, i, 0))
	}
	addOrder(t, repo, uuid.New(), base)

	page, err := repo.QueryByAccount(context.Background(), accountID.String(), 50, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 5, "other accounts' orders are filtered out")
	for i := 1; i < len(page.Items); i++ {
		assert.True(t, !page.Items[i-1].OrderedUtc.Before(page.Items[i].OrderedUtc), "newest first")
	}
}

func TestQueryByAccount_OffsetPaging(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t)
	accountID := uuid.New()
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		addOrder(t, repo, accountID, base.Add(time.Duration(i)*time.Hour))
	}

	var all []Order
	token := ""
	pages := 0
	for {
		page, err := repo.QueryByAccount(context.Background(), accountID.String(), 3, token)
		require.NoError(t, err)
		all = append(all, page.Items...)
		pages++
		if page.ContinuationToken == nil {
			break
		}
		token = *page.ContinuationToken
	}
	assert.Len(t, all, 7)
	assert.Equal(t, 3, pages)
}

func TestQueryByAccount_ReplayedTokenReturnsSamePage(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t)
	accountID := uuid.New()
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		addOrder(t, repo, accountID, base.Add(time.Duration(i)*time.Hour))
	}

	first, err := repo.QueryByAccount(context.Background(), accountID.String(), 3, "")
	require.NoError(t, err)
	require.NotNil(t, first.ContinuationToken)
	token := *first.ContinuationToken

	second, err := repo.QueryByAccount(context.Background(), accountID.String(), 3, token)
	require.NoError(t, err)
	replayed, err := repo.QueryByAccount(context.Background(), accountID.String(), 3, token)
	require.NoError(t, err)

	assert.Equal(t, second.Items, replayed.Items, "an unchanged dataset pages deterministically")
	assert.Equal(t, second.ContinuationToken, replayed.ContinuationToken)
}

func TestListByAccountMonth_ReplayedTokenReturnsSamePage(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t)
	accountID := uuid.New()
	january := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		addOrder(t, repo, accountID, january.Add(time.Duration(i)*time.Hour))
	}

	first, err := repo.ListByAccountMonth(context.Background(), accountID.String(), 2025, time.January, 2, "")
	require.NoError(t, err)
	require.NotNil(t, first.ContinuationToken)
	token := *first.ContinuationToken

	second, err := repo.ListByAccountMonth(context.Background(), accountID.String(), 2025, time.January, 2, token)
	require.NoError(t, err)
	replayed, err := repo.ListByAccountMonth(context.Background(), accountID.String(), 2025, time.January, 2, token)
	require.NoError(t, err)

	assert.Equal(t, second.Items, replayed.Items, "store tokens resume from a fixed position")
	assert.Equal(t, second.ContinuationToken, replayed.ContinuationToken)
}

func TestQueryByAccount_MalformedAccountID(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t)
	page, err := repo.QueryByAccount(context.Background(), "nope", 10, "")
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestListByAccountMonth_NativeTokens(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t)
	accountID := uuid.New()
	january := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		addOrder(t, repo, accountID, january.Add(time.Duration(i)*time.Hour))
	}
	// Noise in a different month and account.
	addOrder(t, repo, accountID, january.AddDate(0, 1, 0))
	addOrder(t, repo, uuid.New(), january)

	var all []Order
	token := ""
	pages := 0
	for {
		page, err := repo.ListByAccountMonth(context.Background(), accountID.String(), 2025, time.January, 2, token)
		require.NoError(t, err)
		all = append(all, page.Items...)
		pages++
		if page.ContinuationToken == nil {
			break
		}
		token = *page.ContinuationToken
	}

	assert.Len(t, all, 5, "only the requested account-month")
	assert.Equal(t, 3, pages)
	for _, o := range all {
		assert.Equal(t, accountID, o.AccountID)
		assert.Equal(t, time.January, o.OrderedUtc.Month())
	}
}

func TestUpdateStatus_PersistsAndStamps(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t)
	o := addOrder(t, repo, uuid.New(), time.Now().UTC())

	ok, err := repo.UpdateStatus(context.Background(), o.ID.String(), StatusProcessing, "")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.UpdateStatus(context.Background(), o.ID.String(), StatusShipped, "TRACK-123")
	require.NoError(t, err)
	require.True(t, ok)

	got, err := repo.GetByID(context.Background(), o.ID.String())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StatusShipped, got.Status, "status change is persisted")
	require.NotNil(t, got.ShippedUtc)
	assert.Equal(t, "TRACK-123", got.TrackingNumber)
	assert.Nil(t, got.DeliveredUtc)

	ok, err = repo.UpdateStatus(context.Background(), o.ID.String(), StatusDelivered, "")
	require.NoError(t, err)
	require.True(t, ok)

	got, err = repo.GetByID(context.Background(), o.ID.String())
	require.NoError(t, err)
	require.NotNil(t, got.DeliveredUtc)
	assert.Equal(t, "TRACK-123", got.TrackingNumber)
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t)
	o := addOrder(t, repo, uuid.New(), time.Now().UTC())

	_, err := repo.UpdateStatus(context.Background(), o.ID.String(), StatusDelivered, "")
	require.ErrorIs(t, err, ErrInvalidTransition)

	got, err := repo.GetByID(context.Background(), o.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, got.Status, "rejected transition leaves the row untouched")
}

func TestUpdateStatus_AbsentReportsFalse(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t)
	ok, err := repo.UpdateStatus(context.Background(), uuid.NewString(), StatusCancelled, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	repo, table := newTestRepo(t)
	o := addOrder(t, repo, uuid.New(), time.Now().UTC())

	ok, err := repo.Delete(context.Background(), o.ID.String())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, table.Len())

	ok, err = repo.Delete(context.Background(), o.ID.String())
	require.NoError(t, err)
	assert.False(t, ok)
}
