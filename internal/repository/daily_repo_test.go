package repository

import (
	"context"
	"testing"
	"time"

	"github.com/daily-ledger/internal/models"
	"github.com/daily-ledger/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(testutil.NewDB(t))
}

func createUser(t *testing.T, s *Store, userid string) *models.User {
	t.Helper()
	u := &models.User{UserID: userid, PasswordHash: "x", IsActive: true, CreatedAt: time.Now()}
	require.NoError(t, s.Users.Create(context.Background(), u))
	return u
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) time.Time {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestUpsertInsertsThenOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "alice")

	first := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	rec := &models.DailyRecord{
		UserID:        u.ID,
		Date:          models.NewDate(day("2024-01-01")),
		TotalDeposit:  dec("100.00"),
		TotalWithdraw: dec("20.00"),
		CreatedAt:     first,
	}
	require.NoError(t, s.Daily.Upsert(ctx, rec))
	require.NotZero(t, rec.ID)
	firstID := rec.ID
	assert.True(t, dec("100").Equal(rec.TotalDeposit))
	assert.False(t, rec.IsDeleted)

	second := first.Add(2 * time.Hour)
	again := &models.DailyRecord{
		UserID:        u.ID,
		Date:          models.NewDate(day("2024-01-01")),
		TotalDeposit:  dec("150.00"),
		TotalWithdraw: dec("0.00"),
		CreatedAt:     second,
	}
	require.NoError(t, s.Daily.Upsert(ctx, again))

	assert.Equal(t, firstID, again.ID)
	assert.True(t, dec("150").Equal(again.TotalDeposit))
	assert.True(t, again.TotalWithdraw.IsZero())
	assert.True(t, second.Equal(again.CreatedAt), "created_at should be the second write time, got %v", again.CreatedAt)

	count, err := s.Daily.CountByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestUpsertRevivesSoftDeleted(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "bob")

	rec := &models.DailyRecord{UserID: u.ID, Date: models.NewDate(day("2024-02-01")), TotalDeposit: dec("5"), TotalWithdraw: dec("1"), CreatedAt: time.Now()}
	require.NoError(t, s.Daily.Upsert(ctx, rec))

	deleted, err := s.Daily.SetDeleted(ctx, rec.ID, true)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)

	revived := &models.DailyRecord{UserID: u.ID, Date: models.NewDate(day("2024-02-01")), TotalDeposit: dec("7"), TotalWithdraw: dec("2"), CreatedAt: time.Now()}
	require.NoError(t, s.Daily.Upsert(ctx, revived))

	assert.Equal(t, rec.ID, revived.ID)
	assert.False(t, revived.IsDeleted)
	assert.True(t, dec("7").Equal(revived.TotalDeposit))
}

func TestListByUserIDOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "carol")
	other := createUser(t, s, "dave")

	for _, d := range []string{"2024-01-02", "2024-01-03", "2024-01-01"} {
		rec := &models.DailyRecord{UserID: u.ID, Date: models.NewDate(day(d)), TotalDeposit: dec("1"), TotalWithdraw: dec("0"), CreatedAt: time.Now()}
		require.NoError(t, s.Daily.Upsert(ctx, rec))
	}
	require.NoError(t, s.Daily.Upsert(ctx, &models.DailyRecord{UserID: other.ID, Date: models.NewDate(day("2024-01-05")), CreatedAt: time.Now()}))

	mid, err := s.Daily.GetByUserAndDate(ctx, u.ID, models.NewDate(day("2024-01-02")))
	require.NoError(t, err)
	_, err = s.Daily.SetDeleted(ctx, mid.ID, true)
	require.NoError(t, err)

	active, err := s.Daily.ListByUserID(ctx, u.ID, false)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "2024-01-03", active[0].DateString())
	assert.Equal(t, "2024-01-01", active[1].DateString())

	all, err := s.Daily.ListByUserID(ctx, u.ID, true)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2024-01-02", all[1].DateString())
	assert.True(t, all[1].IsDeleted)
}

func TestSetDeletedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "erin")

	rec := &models.DailyRecord{UserID: u.ID, Date: models.NewDate(day("2024-03-01")), TotalDeposit: dec("10.50"), TotalWithdraw: dec("3.25"), CreatedAt: time.Now()}
	require.NoError(t, s.Daily.Upsert(ctx, rec))

	for i := 0; i < 2; i++ {
		got, err := s.Daily.SetDeleted(ctx, rec.ID, true)
		require.NoError(t, err)
		assert.True(t, got.IsDeleted)
	}
	for i := 0; i < 2; i++ {
		got, err := s.Daily.SetDeleted(ctx, rec.ID, false)
		require.NoError(t, err)
		assert.False(t, got.IsDeleted)
		assert.True(t, dec("10.50").Equal(got.TotalDeposit))
		assert.True(t, dec("3.25").Equal(got.TotalWithdraw))
	}

	_, err := s.Daily.SetDeleted(ctx, 9999, true)
	assert.ErrorIs(t, err, ErrDailyRecordNotFound)
}

func TestUpdateAmountsWithLock(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "frank")

	rec := &models.DailyRecord{UserID: u.ID, Date: models.NewDate(day("2024-04-01")), TotalDeposit: dec("1"), TotalWithdraw: dec("2"), CreatedAt: time.Now()}
	require.NoError(t, s.Daily.Upsert(ctx, rec))
	_, err := s.Daily.SetDeleted(ctx, rec.ID, true)
	require.NoError(t, err)

	before, after, err := s.Daily.UpdateAmountsWithLock(ctx, rec.ID, dec("30"), dec("40"))
	require.NoError(t, err)
	assert.True(t, dec("1").Equal(before.TotalDeposit))
	assert.True(t, dec("2").Equal(before.TotalWithdraw))
	assert.True(t, dec("30").Equal(after.TotalDeposit))
	assert.True(t, dec("40").Equal(after.TotalWithdraw))
	assert.True(t, after.IsDeleted, "update must not touch is_deleted")

	_, _, err = s.Daily.UpdateAmountsWithLock(ctx, 9999, dec("1"), dec("1"))
	assert.ErrorIs(t, err, ErrDailyRecordNotFound)
}

func TestDeleteByUserID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "gina")
	for _, d := range []string{"2024-05-01", "2024-05-02"} {
		require.NoError(t, s.Daily.Upsert(ctx, &models.DailyRecord{UserID: u.ID, Date: models.NewDate(day(d)), CreatedAt: time.Now()}))
	}

	n, err := s.Daily.DeleteByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	count, err := s.Daily.CountByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
