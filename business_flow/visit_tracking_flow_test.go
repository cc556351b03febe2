package businessflow

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirphl/vitrine/app/services"
	"github.com/amirphl/vitrine/models"
	"github.com/amirphl/vitrine/repository"
	testingutil "github.com/amirphl/vitrine/testing"
	"github.com/amirphl/vitrine/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const iphoneUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5 Mobile/15E148 Safari/604.1"

func TestVisitTracker(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := testingutil.CreateTestContext()
		pageViewRepo := repository.NewPageViewRepository(testDB.DB)
		tracker := NewVisitTracker(pageViewRepo, nil)

		first, err := tracker.Track(ctx, TrackVisitRequest{
			IP:        "198.51.100.4",
			UserAgent: iphoneUA,
			Referer:   "https://google.com",
			PageURL:   "/portfolio/3",
			SessionID: strings.Repeat("s", 150),
		})
		require.NoError(t, err)
		assert.True(t, first.IsUniqueVisitor)
		assert.Equal(t, models.DeviceTypeMobile, first.PageView.DeviceType)
		assert.Equal(t, "/portfolio/3", first.PageView.PageURL)
		assert.Len(t, first.PageView.SessionID, 100)
		assert.Empty(t, first.PageView.Country)

		second, err := tracker.Track(ctx, TrackVisitRequest{IP: "198.51.100.4"})
		require.NoError(t, err)
		assert.False(t, second.IsUniqueVisitor)
		assert.Equal(t, "/", second.PageView.PageURL)
		assert.Equal(t, models.DeviceTypeUnknown, second.PageView.DeviceType)

		count, err := pageViewRepo.Count(ctx, models.PageViewFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		return nil
	})
	require.NoError(t, err)
}

func TestVisitTrackerGeoTimeoutStillRecords(t *testing.T) {
	var hits atomic.Int32
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write([]byte(`{"status":"success","country":"Brazil","city":"Recife","regionName":"Pernambuco"}`))
	}))
	defer slow.Close()

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := testingutil.CreateTestContext()
		pageViewRepo := repository.NewPageViewRepository(testDB.DB)
		resolver := services.NewGeoDeviceResolver(services.GeoResolverOptions{
			Enabled: true,
			BaseURL: slow.URL,
			Timeout: 100 * time.Millisecond,
		}, nil, nil)
		tracker := NewVisitTracker(pageViewRepo, resolver)

		started := time.Now()
		visit, err := tracker.Track(ctx, TrackVisitRequest{
			IP:        "203.0.113.9",
			UserAgent: iphoneUA,
			PageURL:   "/",
		})
		require.NoError(t, err)
		assert.Less(t, time.Since(started), 2*time.Second)
		assert.Equal(t, int32(1), hits.Load())

		stored, err := pageViewRepo.ByFilter(ctx, models.PageViewFilter{IPAddress: utils.ToPtr("203.0.113.9")}, "", 0, 0)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, visit.PageView.ID, stored[0].ID)
		assert.Empty(t, stored[0].Country)
		assert.Empty(t, stored[0].City)
		assert.Empty(t, stored[0].Region)
		assert.Equal(t, models.DeviceTypeMobile, stored[0].DeviceType)
		return nil
	})
	require.NoError(t, err)
}
