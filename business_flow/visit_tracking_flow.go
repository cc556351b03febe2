package businessflow

import (
	"context"
	"strings"

	"github.com/amirphl/vitrine/app/metrics"
	"github.com/amirphl/vitrine/app/services"
	"github.com/amirphl/vitrine/models"
	"github.com/amirphl/vitrine/repository"
	"github.com/amirphl/vitrine/utils"
)

const (
	maxBrowserLen   = 50
	maxOSLen        = 50
	maxSessionIDLen = 100
	maxPageURLLen   = 2048
)

// TrackVisitRequest describes one page view as seen by the HTTP layer
type TrackVisitRequest struct {
	IP        string
	UserAgent string
	Referer   string
	PageURL   string
	SessionID string
}

// TrackedVisit is a stored page view plus whether its IP was seen for the first time
type TrackedVisit struct {
	PageView        *models.PageView
	IsUniqueVisitor bool
}

// VisitTracker records page views with resolved geo and device metadata.
// Geolocation never makes Track fail.
type VisitTracker interface {
	Track(ctx context.Context, req TrackVisitRequest) (*TrackedVisit, error)
}

type VisitTrackerImpl struct {
	pageViewRepo repository.PageViewRepository
	resolver     services.GeoDeviceResolver
}

func NewVisitTracker(pageViewRepo repository.PageViewRepository, resolver services.GeoDeviceResolver) VisitTracker {
	return &VisitTrackerImpl{
		pageViewRepo: pageViewRepo,
		resolver:     resolver,
	}
}

func (t *VisitTrackerImpl) Track(ctx context.Context, req TrackVisitRequest) (*TrackedVisit, error) {
	ip := strings.TrimSpace(req.IP)
	pageURL := strings.TrimSpace(req.PageURL)
	if pageURL == "" {
		pageURL = "/"
	}

	var resolved services.DeviceLocation
	if t.resolver != nil {
		resolved = t.resolver.Resolve(ctx, ip, req.UserAgent)
	} else {
		resolved.DeviceType, resolved.Browser, resolved.OperatingSystem = services.ParseUserAgent(req.UserAgent)
	}

	view := &models.PageView{
		IPAddress:       ip,
		UserAgent:       req.UserAgent,
		Referer:         req.Referer,
		PageURL:         truncate(pageURL, maxPageURLLen),
		Country:         resolved.Country,
		City:            resolved.City,
		Region:          resolved.Region,
		DeviceType:      resolved.DeviceType,
		Browser:         truncate(resolved.Browser, maxBrowserLen),
		OperatingSystem: truncate(resolved.OperatingSystem, maxOSLen),
		SessionID:       truncate(req.SessionID, maxSessionIDLen),
		Timestamp:       utils.UTCNow(),
	}

	if err := t.pageViewRepo.Save(ctx, view); err != nil {
		return nil, NewBusinessError("PAGE_VIEW_SAVE_FAILED", "Failed to record page view", err)
	}
	metrics.RecordPageView(string(view.DeviceType))

	earlier, err := t.pageViewRepo.HasEarlierVisit(ctx, view.IPAddress, view.Timestamp)
	if err != nil {
		// the view is stored; only the uniqueness flag is unknown
		return &TrackedVisit{PageView: view}, nil
	}

	return &TrackedVisit{PageView: view, IsUniqueVisitor: !earlier}, nil
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
