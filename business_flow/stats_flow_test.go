package businessflow

import (
	"testing"
	"time"

	"github.com/amirphl/vitrine/app/dto"
	"github.com/amirphl/vitrine/models"
	"github.com/amirphl/vitrine/repository"
	testingutil "github.com/amirphl/vitrine/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day, hour int) time.Time {
	return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)
}

func seedVisits(t *testing.T, fixtures *testingutil.TestFixtures) {
	t.Helper()
	visits := []struct {
		ip      string
		country string
		device  models.DeviceType
		when    time.Time
	}{
		{"1.1.1.1", "Brazil", models.DeviceTypeDesktop, at(8, 9)},
		{"1.1.1.1", "Brazil", models.DeviceTypeDesktop, at(10, 10)},
		{"1.1.1.2", "Brazil", models.DeviceTypeMobile, at(10, 11)},
		{"2.2.2.2", "United States", models.DeviceTypeDesktop, at(10, 12)},
		{"1.1.1.1", "Brazil", models.DeviceTypeDesktop, at(10, 13)},
		{"2.2.2.3", "United States", models.DeviceTypeTablet, at(10, 14)},
	}
	for _, v := range visits {
		_, err := fixtures.CreateTestPageView(v.ip, v.country, v.device, v.when)
		require.NoError(t, err)
	}
	_, err := fixtures.CreateTestContact("Maria", "maria@example.com", at(10, 9))
	require.NoError(t, err)
}

func TestStatsAggregator(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := testingutil.CreateTestContext()
		seedVisits(t, testingutil.NewTestFixtures(testDB))

		summaryRepo := repository.NewDailySummaryRepository(testDB.DB)
		agg := NewStatsAggregator(
			testDB.DB,
			repository.NewPageViewRepository(testDB.DB),
			repository.NewContactSubmissionRepository(testDB.DB),
			summaryRepo,
			nil,
			time.UTC,
		).(*StatsAggregatorImpl)
		agg.now = func() time.Time { return at(10, 15) }

		t.Run("TopCountriesRanked", func(t *testing.T) {
			rows, err := agg.TopCountries(ctx, DateRange(at(10, 0), at(10, 0), time.UTC), 10)
			require.NoError(t, err)
			assert.Equal(t, []models.LabelCount{
				{Label: "Brazil", Count: 3},
				{Label: "United States", Count: 2},
			}, rows)
		})

		t.Run("DailyBreakdownFillsGaps", func(t *testing.T) {
			days, err := agg.DailyBreakdown(ctx, at(7, 0), at(10, 0))
			require.NoError(t, err)
			assert.Equal(t, []dto.DailyStatDTO{
				{Date: "2024-03-07"},
				{Date: "2024-03-08", Views: 1, Visitors: 1},
				{Date: "2024-03-09"},
				{Date: "2024-03-10", Views: 5, Visitors: 4, Contacts: 1},
			}, days)

			_, err = agg.DailyBreakdown(ctx, at(10, 0), at(7, 0))
			assert.ErrorIs(t, err, ErrStartDateAfterEndDate)
		})

		t.Run("UniqueVisitorsCountFirstVisitOnly", func(t *testing.T) {
			n, err := agg.UniqueVisitorsFirstSeen(ctx, DateRange(at(10, 0), at(10, 0), time.UTC))
			require.NoError(t, err)
			assert.Equal(t, int64(3), n)
		})

		t.Run("RecomputeIsIdempotent", func(t *testing.T) {
			first, err := agg.RecomputeDailySummary(ctx, "2024-03-10")
			require.NoError(t, err)
			second, err := agg.RecomputeDailySummary(ctx, "2024-03-10")
			require.NoError(t, err)

			for _, s := range []*dto.DailySummaryDTO{first, second} {
				assert.Equal(t, "2024-03-10", s.Date)
				assert.Equal(t, int64(5), s.TotalViews)
				assert.Equal(t, int64(4), s.DistinctVisitors)
				assert.Equal(t, int64(3), s.UniqueVisitors)
				assert.Equal(t, int64(1), s.ContactSubmissions)
				assert.Equal(t, int64(3), s.DesktopViews)
				assert.Equal(t, int64(1), s.MobileViews)
				assert.Equal(t, int64(1), s.TabletViews)
				assert.Equal(t, []dto.CountryCountDTO{
					{Country: "Brazil", Count: 3},
					{Country: "United States", Count: 2},
				}, s.TopCountries)
			}

			list, err := agg.ListDailySummaries(ctx, &dto.ListDailySummariesRequest{From: "2024-03-01", To: "2024-03-31"})
			require.NoError(t, err)
			assert.Len(t, list.Items, 1)

			_, err = agg.RecomputeDailySummary(ctx, "10/03/2024")
			assert.ErrorIs(t, err, ErrInvalidSummaryDate)
		})

		t.Run("Dashboard", func(t *testing.T) {
			resp, err := agg.Dashboard(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(6), resp.Totals.TotalViews)
			assert.Equal(t, int64(4), resp.Totals.DistinctVisitors)
			assert.Equal(t, int64(1), resp.Totals.UnreadContacts)
			assert.Equal(t, int64(5), resp.Today.Views)
			require.Len(t, resp.Last7Days, 7)
			assert.Equal(t, "2024-03-04", resp.Last7Days[0].Date)
			assert.Equal(t, "2024-03-10", resp.Last7Days[6].Date)
			require.Len(t, resp.RecentContacts, 1)
		})

		t.Run("AnalyticsRange", func(t *testing.T) {
			resp, err := agg.Analytics(ctx, &dto.AnalyticsRequest{DateFrom: "2024-03-08", DateTo: "2024-03-09"})
			require.NoError(t, err)
			assert.Equal(t, int64(1), resp.TotalViews)
			assert.Equal(t, int64(1), resp.NewVisitors)
			assert.Len(t, resp.Daily, 2)

			fallback, err := agg.Analytics(ctx, &dto.AnalyticsRequest{DateFrom: "garbage"})
			require.NoError(t, err)
			assert.Equal(t, "2024-02-09", fallback.DateFrom)
			assert.Equal(t, "2024-03-10", fallback.DateTo)

			_, err = agg.Analytics(ctx, &dto.AnalyticsRequest{DateFrom: "2024-03-10", DateTo: "2024-03-01"})
			assert.ErrorIs(t, err, ErrStartDateAfterEndDate)
		})

		t.Run("PublicStatsExcludeToday", func(t *testing.T) {
			resp, err := agg.PublicStats(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(6), resp.Total.Views)
			assert.Equal(t, int64(5), resp.Today.Views)
			require.Len(t, resp.RecentStats, 7)
			assert.Equal(t, "2024-03-03", resp.RecentStats[0].Date)
			assert.Equal(t, "2024-03-09", resp.RecentStats[6].Date)
			var recentViews int64
			for _, d := range resp.RecentStats {
				recentViews += d.Views
			}
			assert.Equal(t, int64(1), recentViews)
		})

		return nil
	})
	require.NoError(t, err)
}
