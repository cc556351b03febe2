package handlers

import (
	"log"
	"strconv"

	"github.com/amirphl/vitrine/app/dto"
	"github.com/amirphl/vitrine/app/middleware"
	businessflow "github.com/amirphl/vitrine/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// TrackingHandlerInterface defines the public site endpoints
type TrackingHandlerInterface interface {
	Track(c fiber.Ctx) error
	Landing(c fiber.Ctx) error
	Portfolio(c fiber.Ctx) error
	PublicStats(c fiber.Ctx) error
}

// TrackingHandler implements TrackingHandlerInterface
type TrackingHandler struct {
	tracker       businessflow.VisitTracker
	stats         businessflow.StatsAggregator
	sessionCookie string
	validator     *validator.Validate
}

func NewTrackingHandler(tracker businessflow.VisitTracker, stats businessflow.StatsAggregator, sessionCookie string) TrackingHandlerInterface {
	return &TrackingHandler{
		tracker:       tracker,
		stats:         stats,
		sessionCookie: sessionCookie,
		validator:     validator.New(),
	}
}

// Track records a page view for client-rendered pages
// @Summary Track page view
// @Description Records a page view with resolved geo and device metadata
// @Tags Tracking
// @Accept json
// @Produce json
// @Param request body dto.TrackVisitRequest false "Page URL"
// @Success 201 {object} dto.APIResponse{data=dto.TrackVisitResponse} "Visit recorded"
// @Failure 400 {object} dto.APIResponse "Invalid request"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/track [post]
func (h *TrackingHandler) Track(c fiber.Ctx) error {
	var req dto.TrackVisitRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
	}
	if err := h.validator.Struct(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationDetails(err))
	}

	pageURL := req.PageURL
	if pageURL == "" {
		pageURL = c.Get(fiber.HeaderReferer)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/track", defaultRequestTimeout)
	defer cancel()

	visit, err := h.tracker.Track(ctx, middleware.TrackVisitRequestFrom(c, h.sessionCookie, pageURL))
	if err != nil {
		log.Println("Track visit failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Failed to record visit", "TRACK_FAILED", nil)
	}

	pv := visit.PageView
	return SuccessResponse(c, fiber.StatusCreated, "Visit recorded", dto.TrackVisitResponse{
		ID:              pv.ID,
		Country:         pv.Country,
		City:            pv.City,
		Region:          pv.Region,
		DeviceType:      string(pv.DeviceType),
		Browser:         pv.Browser,
		OperatingSystem: pv.OperatingSystem,
		IsUniqueVisitor: visit.IsUniqueVisitor,
	})
}

// Landing serves the landing page counters; the visit is tracked by middleware
// @Summary Landing page
// @Tags Site
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.LandingResponse}
// @Failure 500 {object} dto.APIResponse
// @Router / [get]
func (h *TrackingHandler) Landing(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/", defaultRequestTimeout)
	defer cancel()

	totals, err := h.stats.Totals(ctx)
	if err != nil {
		log.Println("Landing totals failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load site data", "LANDING_FAILED", nil)
	}
	return SuccessResponse(c, fiber.StatusOK, "OK", dto.LandingResponse{
		TotalViews:    totals.TotalViews,
		TotalContacts: totals.TotalContacts,
	})
}

// Portfolio serves a portfolio detail page; the visit is tracked by middleware
// @Summary Portfolio detail
// @Tags Site
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} dto.APIResponse{data=dto.PortfolioResponse}
// @Failure 400 {object} dto.APIResponse
// @Router /portfolio/{id} [get]
func (h *TrackingHandler) Portfolio(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id < 0 {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid project id", "INVALID_PROJECT_ID", nil)
	}
	return SuccessResponse(c, fiber.StatusOK, "OK", dto.PortfolioResponse{ProjectID: id})
}

// PublicStats returns aggregate site statistics
// @Summary Public site statistics
// @Description Totals, today's numbers, top countries, device stats and the last 7 days
// @Tags Stats
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.PublicStatsResponse}
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/stats [get]
func (h *TrackingHandler) PublicStats(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/stats", defaultRequestTimeout)
	defer cancel()

	resp, err := h.stats.PublicStats(ctx)
	if err != nil {
		log.Println("Public stats failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load statistics", "STATS_FAILED", nil)
	}
	return SuccessResponse(c, fiber.StatusOK, "Statistics retrieved", resp)
}
