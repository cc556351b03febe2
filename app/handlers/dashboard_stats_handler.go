package handlers

import (
	"log"
	"time"

	"github.com/amirphl/vitrine/app/dto"
	businessflow "github.com/amirphl/vitrine/business_flow"
	"github.com/amirphl/vitrine/utils"
	"github.com/gofiber/fiber/v3"
)

// DashboardStatsHandlerInterface defines the staff reporting endpoints
type DashboardStatsHandlerInterface interface {
	Home(c fiber.Ctx) error
	Analytics(c fiber.Ctx) error
	RecomputeDailySummary(c fiber.Ctx) error
	ListDailySummaries(c fiber.Ctx) error
}

// DashboardStatsHandler implements DashboardStatsHandlerInterface
type DashboardStatsHandler struct {
	stats businessflow.StatsAggregator
	loc   *time.Location
}

func NewDashboardStatsHandler(stats businessflow.StatsAggregator, loc *time.Location) DashboardStatsHandlerInterface {
	return &DashboardStatsHandler{stats: stats, loc: loc}
}

// Home returns the dashboard overview
// @Summary Dashboard home
// @Tags Dashboard Stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.DashboardResponse}
// @Failure 401 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/dashboard/home [get]
func (h *DashboardStatsHandler) Home(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/dashboard/home", defaultRequestTimeout)
	defer cancel()

	resp, err := h.stats.Dashboard(ctx)
	if err != nil {
		log.Println("Dashboard home failed", err)
		return businessErrorResponse(c, err, "Failed to load dashboard", "DASHBOARD_FAILED")
	}
	return SuccessResponse(c, fiber.StatusOK, "Dashboard retrieved", resp)
}

// Analytics returns traffic analytics for a date range
// @Summary Dashboard analytics
// @Description Unparsable dates fall back to the last 30 days
// @Tags Dashboard Stats
// @Produce json
// @Security BearerAuth
// @Param date_from query string false "YYYY-MM-DD"
// @Param date_to query string false "YYYY-MM-DD"
// @Success 200 {object} dto.APIResponse{data=dto.AnalyticsResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/dashboard/analytics [get]
func (h *DashboardStatsHandler) Analytics(c fiber.Ctx) error {
	var req dto.AnalyticsRequest
	if err := c.Bind().Query(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	ctx, cancel := createRequestContext(c, "/api/v1/dashboard/analytics", defaultRequestTimeout)
	defer cancel()

	resp, err := h.stats.Analytics(ctx, &req)
	if err != nil {
		log.Println("Analytics failed", err)
		return businessErrorResponse(c, err, "Failed to load analytics", "ANALYTICS_FAILED")
	}
	return SuccessResponse(c, fiber.StatusOK, "Analytics retrieved", resp)
}

// RecomputeDailySummary rebuilds the stored summary of one date
// @Summary Recompute daily summary
// @Description Defaults to today in the site time zone
// @Tags Dashboard Stats
// @Produce json
// @Security BearerAuth
// @Param date query string false "YYYY-MM-DD"
// @Success 200 {object} dto.APIResponse{data=dto.DailySummaryDTO}
// @Failure 400 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/dashboard/stats/daily-summary/recompute [post]
func (h *DashboardStatsHandler) RecomputeDailySummary(c fiber.Ctx) error {
	date := c.Query("date")
	if date == "" {
		date = utils.FormatDate(utils.UTCNow(), h.loc)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/dashboard/stats/daily-summary/recompute", 2*defaultRequestTimeout)
	defer cancel()

	resp, err := h.stats.RecomputeDailySummary(ctx, date)
	if err != nil {
		log.Println("Recompute daily summary failed", err)
		return businessErrorResponse(c, err, "Failed to recompute daily summary", "SUMMARY_RECOMPUTE_FAILED")
	}
	return SuccessResponse(c, fiber.StatusOK, "Daily summary recomputed", resp)
}

// ListDailySummaries lists stored summaries, oldest first
// @Summary List daily summaries
// @Tags Dashboard Stats
// @Produce json
// @Security BearerAuth
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {object} dto.APIResponse{data=dto.ListDailySummariesResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/dashboard/stats/daily-summaries [get]
func (h *DashboardStatsHandler) ListDailySummaries(c fiber.Ctx) error {
	var req dto.ListDailySummariesRequest
	if err := c.Bind().Query(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	ctx, cancel := createRequestContext(c, "/api/v1/dashboard/stats/daily-summaries", defaultRequestTimeout)
	defer cancel()

	resp, err := h.stats.ListDailySummaries(ctx, &req)
	if err != nil {
		log.Println("List daily summaries failed", err)
		return businessErrorResponse(c, err, "Failed to list daily summaries", "SUMMARY_LIST_FAILED")
	}
	return SuccessResponse(c, fiber.StatusOK, "Daily summaries retrieved", resp)
}
