package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/amirphl/vitrine/app/metrics"
	"github.com/amirphl/vitrine/models"
	"github.com/goccy/go-json"
	"github.com/mileusna/useragent"
	"github.com/oschwald/geoip2-golang"
	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

var (
	ErrGeoLookupFailed = errors.New("geolocation lookup failed")
	ErrGeoRateLimited  = errors.New("geolocation lookups rate limited")
)

// GeoLocation is the place resolved for an IP; empty fields mean unknown
type GeoLocation struct {
	Country string `json:"country"`
	City    string `json:"city"`
	Region  string `json:"region"`
}

// DeviceLocation is everything the resolver derives for one visit
type DeviceLocation struct {
	GeoLocation
	DeviceType      models.DeviceType
	Browser         string
	OperatingSystem string
}

// GeoDeviceResolver resolves location and device metadata for a visit.
// Resolve never fails; unresolvable locations come back empty.
type GeoDeviceResolver interface {
	Resolve(ctx context.Context, ip, userAgent string) DeviceLocation
	Lookup(ctx context.Context, ip string) (GeoLocation, error)
}

// GeoResolverOptions configures GeoDeviceResolverImpl
type GeoResolverOptions struct {
	Enabled          bool
	BaseURL          string
	Timeout          time.Duration
	CacheTTL         time.Duration
	CachePrefix      string
	RequestsPerMin   int
	BreakerFailures  int
	BreakerOpenDelay time.Duration
}

// GeoDeviceResolverImpl looks up the redis cache, then a local MaxMind database, then ip-api
type GeoDeviceResolverImpl struct {
	opts       GeoResolverOptions
	httpClient *http.Client
	cache      *redis.Client
	maxmind    *geoip2.Reader
	breaker    *gobreaker.CircuitBreaker[GeoLocation]
	limiter    *rate.Limiter
}

type ipAPIResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Country    string `json:"country"`
	City       string `json:"city"`
	RegionName string `json:"regionName"`
}

// NewGeoDeviceResolver creates a resolver. cache and maxmind may be nil.
func NewGeoDeviceResolver(opts GeoResolverOptions, cache *redis.Client, maxmind *geoip2.Reader) *GeoDeviceResolverImpl {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "http://ip-api.com"
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}
	if opts.BreakerFailures <= 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerOpenDelay <= 0 {
		opts.BreakerOpenDelay = time.Minute
	}

	var limiter *rate.Limiter
	if opts.RequestsPerMin > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMin)), opts.RequestsPerMin)
	}

	failures := uint32(opts.BreakerFailures)
	breaker := gobreaker.NewCircuitBreaker[GeoLocation](gobreaker.Settings{
		Name:        "ip-api",
		MaxRequests: 1,
		Timeout:     opts.BreakerOpenDelay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("geo resolver: breaker %s %s -> %s", name, from, to)
		},
	})

	return &GeoDeviceResolverImpl{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		cache:      cache,
		maxmind:    maxmind,
		breaker:    breaker,
		limiter:    limiter,
	}
}

func (g *GeoDeviceResolverImpl) Resolve(ctx context.Context, ip, userAgent string) DeviceLocation {
	deviceType, browser, os := ParseUserAgent(userAgent)
	out := DeviceLocation{
		DeviceType:      deviceType,
		Browser:         browser,
		OperatingSystem: os,
	}

	loc, err := g.Lookup(ctx, ip)
	if err != nil {
		log.Printf("geo resolver: %s: %v", ip, err)
		return out
	}
	out.GeoLocation = loc
	return out
}

// Lookup resolves ip to a location. Private, loopback and unparsable addresses resolve to an empty location.
func (g *GeoDeviceResolverImpl) Lookup(ctx context.Context, ip string) (GeoLocation, error) {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if !g.opts.Enabled || parsed == nil || parsed.IsPrivate() || parsed.IsLoopback() || parsed.IsUnspecified() {
		return GeoLocation{}, nil
	}
	ip = parsed.String()

	if loc, ok := g.fromCache(ctx, ip); ok {
		metrics.RecordGeoLookup("cache", "hit")
		return loc, nil
	}

	if g.maxmind != nil {
		if loc, ok := g.fromMaxMind(parsed); ok {
			metrics.RecordGeoLookup("maxmind", "hit")
			g.store(ctx, ip, loc)
			return loc, nil
		}
		metrics.RecordGeoLookup("maxmind", "miss")
	}

	loc, err := g.breaker.Execute(func() (GeoLocation, error) {
		return g.fromIPAPI(ctx, ip)
	})
	if err != nil {
		metrics.RecordGeoLookup("ip_api", "error")
		return GeoLocation{}, err
	}
	metrics.RecordGeoLookup("ip_api", "hit")
	g.store(ctx, ip, loc)
	return loc, nil
}

func (g *GeoDeviceResolverImpl) cacheKey(ip string) string {
	return g.opts.CachePrefix + "geo:" + ip
}

func (g *GeoDeviceResolverImpl) fromCache(ctx context.Context, ip string) (GeoLocation, bool) {
	if g.cache == nil {
		return GeoLocation{}, false
	}
	raw, err := g.cache.Get(ctx, g.cacheKey(ip)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("geo resolver: cache read failed: %v", err)
		}
		return GeoLocation{}, false
	}
	var loc GeoLocation
	if err := json.Unmarshal(raw, &loc); err != nil {
		return GeoLocation{}, false
	}
	return loc, true
}

func (g *GeoDeviceResolverImpl) store(ctx context.Context, ip string, loc GeoLocation) {
	if g.cache == nil {
		return
	}
	raw, err := json.Marshal(loc)
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, g.cacheKey(ip), raw, g.opts.CacheTTL).Err(); err != nil {
		log.Printf("geo resolver: cache write failed: %v", err)
	}
}

func (g *GeoDeviceResolverImpl) fromMaxMind(ip net.IP) (GeoLocation, bool) {
	record, err := g.maxmind.City(ip)
	if err != nil || record == nil {
		return GeoLocation{}, false
	}
	loc := GeoLocation{
		Country: record.Country.Names["en"],
		City:    record.City.Names["en"],
	}
	if len(record.Subdivisions) > 0 {
		loc.Region = record.Subdivisions[0].Names["en"]
	}
	if loc.Country == "" {
		return GeoLocation{}, false
	}
	return loc, true
}

func (g *GeoDeviceResolverImpl) fromIPAPI(ctx context.Context, ip string) (GeoLocation, error) {
	if g.limiter != nil && !g.limiter.Allow() {
		return GeoLocation{}, ErrGeoRateLimited
	}

	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	url := fmt.Sprintf("%s/json/%s", strings.TrimRight(g.opts.BaseURL, "/"), ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return GeoLocation{}, err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return GeoLocation{}, fmt.Errorf("%w: %v", ErrGeoLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GeoLocation{}, fmt.Errorf("%w: status %d", ErrGeoLookupFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return GeoLocation{}, fmt.Errorf("%w: %v", ErrGeoLookupFailed, err)
	}

	var payload ipAPIResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return GeoLocation{}, fmt.Errorf("%w: malformed payload: %v", ErrGeoLookupFailed, err)
	}
	if payload.Status != "success" {
		return GeoLocation{}, fmt.Errorf("%w: %s %s", ErrGeoLookupFailed, payload.Status, payload.Message)
	}

	return GeoLocation{
		Country: payload.Country,
		City:    payload.City,
		Region:  payload.RegionName,
	}, nil
}

// ParseUserAgent classifies the device and formats browser and OS labels as "<family> <version>"
func ParseUserAgent(raw string) (models.DeviceType, string, string) {
	if strings.TrimSpace(raw) == "" {
		return models.DeviceTypeUnknown, "", ""
	}
	ua := useragent.Parse(raw)

	deviceType := models.DeviceTypeUnknown
	switch {
	case ua.Mobile:
		deviceType = models.DeviceTypeMobile
	case ua.Tablet:
		deviceType = models.DeviceTypeTablet
	case ua.Desktop:
		deviceType = models.DeviceTypeDesktop
	}

	return deviceType, label(ua.Name, ua.Version), label(ua.OS, ua.OSVersion)
}

func label(family, version string) string {
	return strings.TrimSpace(family + " " + version)
}
