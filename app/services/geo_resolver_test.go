package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirphl/vitrine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chromeDesktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestParseUserAgent(t *testing.T) {
	device, browser, os := ParseUserAgent(chromeDesktopUA)
	assert.Equal(t, models.DeviceTypeDesktop, device)
	assert.Equal(t, "Chrome 120.0.0.0", browser)
	assert.Contains(t, os, "Windows")

	device, browser, os = ParseUserAgent("")
	assert.Equal(t, models.DeviceTypeUnknown, device)
	assert.Empty(t, browser)
	assert.Empty(t, os)
}

func TestGeoDeviceResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("ResolvesFromIPAPI", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			assert.Equal(t, "/json/8.8.8.8", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"success","country":"Brazil","city":"São Paulo","regionName":"São Paulo"}`))
		}))
		defer srv.Close()

		resolver := NewGeoDeviceResolver(GeoResolverOptions{Enabled: true, BaseURL: srv.URL, Timeout: time.Second}, nil, nil)
		out := resolver.Resolve(ctx, "8.8.8.8", chromeDesktopUA)
		assert.Equal(t, "Brazil", out.Country)
		assert.Equal(t, "São Paulo", out.City)
		assert.Equal(t, "São Paulo", out.Region)
		assert.Equal(t, models.DeviceTypeDesktop, out.DeviceType)
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("FailureLeavesLocationEmpty", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		resolver := NewGeoDeviceResolver(GeoResolverOptions{Enabled: true, BaseURL: srv.URL, Timeout: time.Second}, nil, nil)
		out := resolver.Resolve(ctx, "8.8.4.4", chromeDesktopUA)
		assert.Empty(t, out.Country)
		assert.Empty(t, out.City)
		assert.Equal(t, models.DeviceTypeDesktop, out.DeviceType)
		assert.Equal(t, "Chrome 120.0.0.0", out.Browser)
	})

	t.Run("FailStatusPayload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"fail","message":"reserved range"}`))
		}))
		defer srv.Close()

		resolver := NewGeoDeviceResolver(GeoResolverOptions{Enabled: true, BaseURL: srv.URL}, nil, nil)
		_, err := resolver.Lookup(ctx, "1.2.3.4")
		assert.ErrorIs(t, err, ErrGeoLookupFailed)
	})

	t.Run("BreakerOpensAfterFailures", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		resolver := NewGeoDeviceResolver(GeoResolverOptions{
			Enabled:          true,
			BaseURL:          srv.URL,
			BreakerFailures:  2,
			BreakerOpenDelay: time.Hour,
		}, nil, nil)
		for i := 0; i < 5; i++ {
			_, err := resolver.Lookup(ctx, "9.9.9.9")
			require.Error(t, err)
		}
		assert.Equal(t, int32(2), hits.Load())
	})

	t.Run("SkipsPrivateAndDisabled", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("unexpected lookup for %s", r.URL.Path)
		}))
		defer srv.Close()

		resolver := NewGeoDeviceResolver(GeoResolverOptions{Enabled: true, BaseURL: srv.URL}, nil, nil)
		for _, ip := range []string{"127.0.0.1", "10.0.0.8", "192.168.1.1", "not-an-ip", ""} {
			loc, err := resolver.Lookup(ctx, ip)
			require.NoError(t, err)
			assert.Equal(t, GeoLocation{}, loc)
		}

		disabled := NewGeoDeviceResolver(GeoResolverOptions{Enabled: false, BaseURL: srv.URL}, nil, nil)
		loc, err := disabled.Lookup(ctx, "8.8.8.8")
		require.NoError(t, err)
		assert.Equal(t, GeoLocation{}, loc)
	})
}
