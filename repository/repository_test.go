package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirphl/vitrine/models"
	testingutil "github.com/amirphl/vitrine/testing"
	"github.com/amirphl/vitrine/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d, h int) time.Time {
	return time.Date(2024, 5, d, h, 0, 0, 0, time.UTC)
}

func TestContactSubmissionRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := testingutil.CreateTestContext()
		fixtures := testingutil.NewTestFixtures(testDB)
		repo := NewContactSubmissionRepository(testDB.DB)

		older, err := fixtures.CreateTestContact("Ana Souza", "ana@example.com", day(1, 10))
		require.NoError(t, err)
		newer, err := fixtures.CreateTestContact("Bruno Lima", "bruno@example.com", day(2, 10))
		require.NoError(t, err)

		t.Run("NewestFirst", func(t *testing.T) {
			rows, err := repo.ByFilter(ctx, models.ContactSubmissionFilter{}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, newer.ID, rows[0].ID)
			assert.Equal(t, older.ID, rows[1].ID)
		})

		t.Run("SearchIsCaseInsensitive", func(t *testing.T) {
			count, err := repo.Count(ctx, models.ContactSubmissionFilter{Search: utils.ToPtr("SOUZA")})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})

		t.Run("CreatedWindow", func(t *testing.T) {
			rows, err := repo.ByFilter(ctx, models.ContactSubmissionFilter{
				CreatedAfter:  utils.ToPtr(day(2, 0)),
				CreatedBefore: utils.ToPtr(day(3, 0)),
			}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, newer.ID, rows[0].ID)
		})

		t.Run("MarkReadOnce", func(t *testing.T) {
			changed, err := repo.MarkRead(ctx, older.ID)
			require.NoError(t, err)
			assert.True(t, changed)

			changed, err = repo.MarkRead(ctx, older.ID)
			require.NoError(t, err)
			assert.False(t, changed)

			unread, err := repo.Count(ctx, models.ContactSubmissionFilter{IsRead: utils.ToPtr(false)})
			require.NoError(t, err)
			assert.Equal(t, int64(1), unread)
		})

		t.Run("ByUUID", func(t *testing.T) {
			found, err := repo.ByUUID(ctx, newer.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, newer.ID, found.ID)

			_, err = repo.ByUUID(ctx, "not-a-uuid")
			assert.Error(t, err)
		})
		return nil
	})
	require.NoError(t, err)
}

func TestPageViewRepositoryAggregates(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := testingutil.CreateTestContext()
		fixtures := testingutil.NewTestFixtures(testDB)
		repo := NewPageViewRepository(testDB.DB)

		seed := []struct {
			ip      string
			country string
			device  models.DeviceType
			at      time.Time
		}{
			{"10.0.0.1", "Brazil", models.DeviceTypeDesktop, day(1, 9)},
			{"10.0.0.1", "Brazil", models.DeviceTypeDesktop, day(2, 9)},
			{"10.0.0.2", "Portugal", models.DeviceTypeMobile, day(2, 10)},
			{"10.0.0.3", "", models.DeviceTypeMobile, day(2, 11)},
		}
		for _, s := range seed {
			_, err := fixtures.CreateTestPageView(s.ip, s.country, s.device, s.at)
			require.NoError(t, err)
		}

		dayTwo := models.PageViewFilter{After: utils.ToPtr(day(2, 0)), Before: utils.ToPtr(day(3, 0))}

		t.Run("DistinctIPs", func(t *testing.T) {
			n, err := repo.CountDistinctIPs(ctx, dayTwo)
			require.NoError(t, err)
			assert.Equal(t, int64(3), n)
		})

		t.Run("GroupCountSkipsEmpty", func(t *testing.T) {
			rows, err := repo.GroupCount(ctx, "country", dayTwo, true, 10)
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, "Brazil", rows[0].Label)

			devices, err := repo.GroupCount(ctx, "device_type", dayTwo, false, 0)
			require.NoError(t, err)
			require.NotEmpty(t, devices)
			assert.Equal(t, string(models.DeviceTypeMobile), devices[0].Label)
			assert.Equal(t, int64(2), devices[0].Count)
		})

		t.Run("GroupCountRejectsUnknownColumn", func(t *testing.T) {
			_, err := repo.GroupCount(ctx, "ip_address; DROP TABLE page_views", dayTwo, false, 0)
			assert.Error(t, err)
		})

		t.Run("FirstSeen", func(t *testing.T) {
			n, err := repo.CountFirstSeenIPs(ctx, models.TimeRange{From: day(2, 0), To: day(3, 0)})
			require.NoError(t, err)
			assert.Equal(t, int64(2), n)

			earlier, err := repo.HasEarlierVisit(ctx, "10.0.0.1", day(2, 9))
			require.NoError(t, err)
			assert.True(t, earlier)
		})
		return nil
	})
	require.NoError(t, err)
}

func TestDailySummaryGetOrCreate(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := testingutil.CreateTestContext()
		repo := NewDailySummaryRepository(testDB.DB)

		first, err := repo.GetOrCreateByDate(ctx, "2024-05-02")
		require.NoError(t, err)
		second, err := repo.GetOrCreateByDate(ctx, "2024-05-02")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		missing, err := repo.ByDate(ctx, "2024-05-03")
		require.NoError(t, err)
		assert.Nil(t, missing)
		return nil
	})
	require.NoError(t, err)
}

func TestWithTransaction(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := testingutil.CreateTestContext()
		summaries := NewDailySummaryRepository(testDB.DB)
		boom := errors.New("boom")

		err := WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
			if _, err := summaries.GetOrCreateByDate(txCtx, "2024-05-04"); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		rolledBack, err := summaries.ByDate(ctx, "2024-05-04")
		require.NoError(t, err)
		assert.Nil(t, rolledBack)

		err = WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
			summary, err := summaries.GetOrCreateByDate(txCtx, "2024-05-04")
			if err != nil {
				return err
			}
			summary.TotalViews = 9
			return summaries.Update(txCtx, summary)
		})
		require.NoError(t, err)

		committed, err := summaries.ByDate(ctx, "2024-05-04")
		require.NoError(t, err)
		require.NotNil(t, committed)
		assert.Equal(t, int64(9), committed.TotalViews)
		return nil
	})
	require.NoError(t, err)
}
