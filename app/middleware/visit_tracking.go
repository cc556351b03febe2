package middleware

import (
	"context"
	"log"
	"strings"
	"time"

	businessflow "github.com/amirphl/vitrine/business_flow"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const (
	trackingTimeout  = 10 * time.Second
	sessionCookieAge = 30 * 24 * time.Hour
)

// ClientIP returns the first X-Forwarded-For entry, falling back to the connection address
func ClientIP(c fiber.Ctx) string {
	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return c.IP()
}

// SessionID reads the visitor session cookie and issues one when missing
func SessionID(c fiber.Ctx, cookieName string) string {
	if cookieName == "" {
		return ""
	}
	if v := c.Cookies(cookieName); v != "" {
		return v
	}
	id := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(sessionCookieAge.Seconds()),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return id
}

// TrackVisitRequestFrom collects what the visit tracker needs from the request
func TrackVisitRequestFrom(c fiber.Ctx, cookieName, pageURL string) businessflow.TrackVisitRequest {
	if pageURL == "" {
		pageURL = c.Path()
	}
	return businessflow.TrackVisitRequest{
		IP:        ClientIP(c),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Referer:   c.Get(fiber.HeaderReferer),
		PageURL:   pageURL,
		SessionID: SessionID(c, cookieName),
	}
}

// TrackVisits records a page view before the handler runs; failures are logged only
func TrackVisits(tracker businessflow.VisitTracker, cookieName string) fiber.Handler {
	return func(c fiber.Ctx) error {
		req := TrackVisitRequestFrom(c, cookieName, "")
		ctx, cancel := context.WithTimeout(context.Background(), trackingTimeout)
		if _, err := tracker.Track(ctx, req); err != nil {
			log.Printf("visit tracking: %s %s: %v", req.IP, req.PageURL, err)
		}
		cancel()
		return c.Next()
	}
}
