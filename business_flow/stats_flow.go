package businessflow

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/amirphl/vitrine/app/dto"
	"github.com/amirphl/vitrine/app/metrics"
	"github.com/amirphl/vitrine/app/services"
	"github.com/amirphl/vitrine/models"
	"github.com/amirphl/vitrine/repository"
	"github.com/amirphl/vitrine/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Cache keys for precomputed stats payloads
const (
	DashboardCacheKey   = "dashboard"
	PublicStatsCacheKey = "public"
)

const (
	defaultRangeDays    = 30
	summaryTopCountries = 3
	dashboardTopN       = 5
	analyticsTopN       = 10
	recentDays          = 7
	recentContacts      = 5
)

// StatsAggregator answers read-only reporting queries over page views and contacts.
// Dates are calendar days in the site time zone; ranges include both ends.
type StatsAggregator interface {
	Totals(ctx context.Context) (*dto.TotalsDTO, error)
	DailyBreakdown(ctx context.Context, start, end time.Time) ([]dto.DailyStatDTO, error)
	TopCountries(ctx context.Context, r models.TimeRange, limit int) ([]models.LabelCount, error)
	DeviceBreakdown(ctx context.Context, r models.TimeRange) ([]models.LabelCount, error)
	BrowserBreakdown(ctx context.Context, r models.TimeRange, limit int) ([]models.LabelCount, error)
	// UniqueVisitorsFirstSeen counts IPs whose first-ever page view falls inside r
	UniqueVisitorsFirstSeen(ctx context.Context, r models.TimeRange) (int64, error)
	// DistinctVisitors counts distinct IPs among page views inside r
	DistinctVisitors(ctx context.Context, r models.TimeRange) (int64, error)
	RecomputeDailySummary(ctx context.Context, date string) (*dto.DailySummaryDTO, error)
	ListDailySummaries(ctx context.Context, req *dto.ListDailySummariesRequest) (*dto.ListDailySummariesResponse, error)
	Dashboard(ctx context.Context) (*dto.DashboardResponse, error)
	Analytics(ctx context.Context, req *dto.AnalyticsRequest) (*dto.AnalyticsResponse, error)
	PublicStats(ctx context.Context) (*dto.PublicStatsResponse, error)
}

type StatsAggregatorImpl struct {
	db           *gorm.DB
	pageViewRepo repository.PageViewRepository
	contactRepo  repository.ContactSubmissionRepository
	summaryRepo  repository.DailySummaryRepository
	cache        services.StatsCache
	loc          *time.Location
	now          func() time.Time
}

func NewStatsAggregator(
	db *gorm.DB,
	pageViewRepo repository.PageViewRepository,
	contactRepo repository.ContactSubmissionRepository,
	summaryRepo repository.DailySummaryRepository,
	cache services.StatsCache,
	loc *time.Location,
) StatsAggregator {
	if cache == nil {
		cache = services.NoopStatsCache{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &StatsAggregatorImpl{
		db:           db,
		pageViewRepo: pageViewRepo,
		contactRepo:  contactRepo,
		summaryRepo:  summaryRepo,
		cache:        cache,
		loc:          loc,
		now:          utils.UTCNow,
	}
}

func rangeFilter(r models.TimeRange) models.PageViewFilter {
	var f models.PageViewFilter
	if !r.From.IsZero() {
		from := r.From
		f.After = &from
	}
	if !r.To.IsZero() {
		to := r.To
		f.Before = &to
	}
	return f
}

func contactRangeFilter(r models.TimeRange) models.ContactSubmissionFilter {
	var f models.ContactSubmissionFilter
	if !r.From.IsZero() {
		from := r.From
		f.CreatedAfter = &from
	}
	if !r.To.IsZero() {
		to := r.To
		f.CreatedBefore = &to
	}
	return f
}

// DateRange converts calendar days start..end (inclusive) in loc into a UTC TimeRange
func DateRange(start, end time.Time, loc *time.Location) models.TimeRange {
	from, to := utils.RangeBounds(start, end, loc)
	return models.TimeRange{From: from, To: to}
}

func (s *StatsAggregatorImpl) today() time.Time {
	return utils.StartOfDay(s.now(), s.loc)
}

func (s *StatsAggregatorImpl) Totals(ctx context.Context) (*dto.TotalsDTO, error) {
	views, err := s.pageViewRepo.Count(ctx, models.PageViewFilter{})
	if err != nil {
		return nil, NewBusinessError("STATS_FAILED", "Failed to count page views", err)
	}
	visitors, err := s.pageViewRepo.CountDistinctIPs(ctx, models.PageViewFilter{})
	if err != nil {
		return nil, NewBusinessError("STATS_FAILED", "Failed to count visitors", err)
	}
	contacts, err := s.contactRepo.Count(ctx, models.ContactSubmissionFilter{})
	if err != nil {
		return nil, NewBusinessError("STATS_FAILED", "Failed to count contacts", err)
	}
	unread, err := s.contactRepo.Count(ctx, models.ContactSubmissionFilter{IsRead: utils.ToPtr(false)})
	if err != nil {
		return nil, NewBusinessError("STATS_FAILED", "Failed to count unread contacts", err)
	}
	return &dto.TotalsDTO{
		TotalViews:       views,
		DistinctVisitors: visitors,
		TotalContacts:    contacts,
		UnreadContacts:   unread,
	}, nil
}

func (s *StatsAggregatorImpl) periodTotals(ctx context.Context, r models.TimeRange) (dto.PeriodTotalsDTO, error) {
	var out dto.PeriodTotalsDTO
	var err error
	if out.Views, err = s.pageViewRepo.Count(ctx, rangeFilter(r)); err != nil {
		return out, NewBusinessError("STATS_FAILED", "Failed to count page views", err)
	}
	if out.Visitors, err = s.DistinctVisitors(ctx, r); err != nil {
		return out, err
	}
	if out.Contacts, err = s.contactRepo.Count(ctx, contactRangeFilter(r)); err != nil {
		return out, NewBusinessError("STATS_FAILED", "Failed to count contacts", err)
	}
	return out, nil
}

func (s *StatsAggregatorImpl) DailyBreakdown(ctx context.Context, start, end time.Time) ([]dto.DailyStatDTO, error) {
	first := utils.StartOfDay(start, s.loc)
	last := utils.StartOfDay(end, s.loc)
	if first.After(last) {
		return nil, NewBusinessError(CodeInvalidDateRange, "Start date cannot be after end date", ErrStartDateAfterEndDate)
	}
	r := DateRange(first, last, s.loc)

	points, err := s.pageViewRepo.VisitPoints(ctx, r.From, r.To)
	if err != nil {
		return nil, NewBusinessError("STATS_FAILED", "Failed to load page views", err)
	}
	created, err := s.contactRepo.CreatedTimes(ctx, r.From, r.To)
	if err != nil {
		return nil, NewBusinessError("STATS_FAILED", "Failed to load contacts", err)
	}

	views := make(map[string]int64)
	visitors := make(map[string]map[string]struct{})
	for _, p := range points {
		day := utils.FormatDate(p.Timestamp, s.loc)
		views[day]++
		if visitors[day] == nil {
			visitors[day] = make(map[string]struct{})
		}
		visitors[day][p.IPAddress] = struct{}{}
	}
	contacts := make(map[string]int64)
	for _, t := range created {
		contacts[utils.FormatDate(t, s.loc)]++
	}

	var out []dto.DailyStatDTO
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		day := d.Format(utils.DateLayout)
		out = append(out, dto.DailyStatDTO{
			Date:     day,
			Views:    views[day],
			Visitors: int64(len(visitors[day])),
			Contacts: contacts[day],
		})
	}
	return out, nil
}

func (s *StatsAggregatorImpl) TopCountries(ctx context.Context, r models.TimeRange, limit int) ([]models.LabelCount, error) {
	rows, err := s.pageViewRepo.GroupCount(ctx, "country", rangeFilter(r), true, limit)
	if err != nil {
		return nil, NewBusinessError("STATS_FAILED", "Failed to rank countries", err)
	}
	return rows, nil
}

func (s *StatsAggregatorImpl) DeviceBreakdown(ctx context.Context, r models.TimeRange) ([]models.LabelCount, error) {
	rows, err := s.pageViewRepo.GroupCount(ctx, "device_type", rangeFilter(r), false, 0)
	if err != nil {
		return nil, NewBusinessError("STATS_FAILED", "Failed to count devices", err)
	}
	return rows, nil
}

func (s *StatsAggregatorImpl) BrowserBreakdown(ctx context.Context, r models.TimeRange, limit int) ([]models.LabelCount, error) {
	rows, err := s.pageViewRepo.GroupCount(ctx, "browser", rangeFilter(r), true, limit)
	if err != nil {
		return nil, NewBusinessError("STATS_FAILED", "Failed to rank browsers", err)
	}
	return rows, nil
}

func (s *StatsAggregatorImpl) UniqueVisitorsFirstSeen(ctx context.Context, r models.TimeRange) (int64, error) {
	n, err := s.pageViewRepo.CountFirstSeenIPs(ctx, r)
	if err != nil {
		return 0, NewBusinessError("STATS_FAILED", "Failed to count new visitors", err)
	}
	return n, nil
}

func (s *StatsAggregatorImpl) DistinctVisitors(ctx context.Context, r models.TimeRange) (int64, error) {
	n, err := s.pageViewRepo.CountDistinctIPs(ctx, rangeFilter(r))
	if err != nil {
		return 0, NewBusinessError("STATS_FAILED", "Failed to count visitors", err)
	}
	return n, nil
}

func (s *StatsAggregatorImpl) RecomputeDailySummary(ctx context.Context, date string) (*dto.DailySummaryDTO, error) {
	date = strings.TrimSpace(date)
	day, err := utils.ParseDate(date, s.loc)
	if err != nil {
		return nil, NewBusinessError(CodeInvalidSummaryDate, "Date must be formatted as YYYY-MM-DD", ErrInvalidSummaryDate)
	}
	r := DateRange(day, day, s.loc)

	summary, err := s.recompute(ctx, day.Format(utils.DateLayout), r)
	metrics.RecordSummaryRecompute(err == nil)
	if err != nil {
		return nil, err
	}
	out := ToDailySummaryDTO(*summary)
	return &out, nil
}

// recompute refills the summary row for date inside a single transaction
func (s *StatsAggregatorImpl) recompute(ctx context.Context, date string, r models.TimeRange) (*models.DailySummary, error) {
	var summary *models.DailySummary
	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		var err error
		summary, err = s.fillSummary(txCtx, date, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Printf("stats: daily summary %s recomputed (views=%d unique=%d contacts=%d)", date, summary.TotalViews, summary.UniqueVisitors, summary.ContactSubmissions)
	return summary, nil
}

func (s *StatsAggregatorImpl) fillSummary(ctx context.Context, date string, r models.TimeRange) (*models.DailySummary, error) {
	summary, err := s.summaryRepo.GetOrCreateByDate(ctx, date)
	if err != nil {
		return nil, NewBusinessError("SUMMARY_LOAD_FAILED", "Failed to load daily summary", err)
	}

	totals, err := s.periodTotals(ctx, r)
	if err != nil {
		return nil, err
	}
	unique, err := s.UniqueVisitorsFirstSeen(ctx, r)
	if err != nil {
		return nil, err
	}
	devices, err := s.DeviceBreakdown(ctx, r)
	if err != nil {
		return nil, err
	}
	countries, err := s.TopCountries(ctx, r, summaryTopCountries)
	if err != nil {
		return nil, err
	}

	summary.TotalViews = totals.Views
	summary.DistinctVisitors = totals.Visitors
	summary.UniqueVisitors = unique
	summary.ContactSubmissions = totals.Contacts
	summary.DesktopViews, summary.MobileViews, summary.TabletViews = 0, 0, 0
	for _, d := range devices {
		switch models.DeviceType(d.Label) {
		case models.DeviceTypeDesktop:
			summary.DesktopViews = d.Count
		case models.DeviceTypeMobile:
			summary.MobileViews = d.Count
		case models.DeviceTypeTablet:
			summary.TabletViews = d.Count
		}
	}
	top := make([]models.CountryCount, 0, len(countries))
	for _, c := range countries {
		top = append(top, models.CountryCount{Country: c.Label, Count: c.Count})
	}
	summary.TopCountries = datatypes.NewJSONType(top)
	summary.UpdatedAt = utils.UTCNow()

	if err := s.summaryRepo.Update(ctx, summary); err != nil {
		return nil, NewBusinessError("SUMMARY_SAVE_FAILED", "Failed to save daily summary", err)
	}
	return summary, nil
}

func (s *StatsAggregatorImpl) ListDailySummaries(ctx context.Context, req *dto.ListDailySummariesRequest) (*dto.ListDailySummariesResponse, error) {
	var filter models.DailySummaryFilter
	if req != nil {
		if from := strings.TrimSpace(req.From); from != "" {
			if _, err := utils.ParseDate(from, s.loc); err != nil {
				return nil, NewBusinessError(CodeInvalidSummaryDate, "Date must be formatted as YYYY-MM-DD", ErrInvalidSummaryDate)
			}
			filter.DateFrom = &from
		}
		if to := strings.TrimSpace(req.To); to != "" {
			if _, err := utils.ParseDate(to, s.loc); err != nil {
				return nil, NewBusinessError(CodeInvalidSummaryDate, "Date must be formatted as YYYY-MM-DD", ErrInvalidSummaryDate)
			}
			filter.DateTo = &to
		}
		if filter.DateFrom != nil && filter.DateTo != nil && *filter.DateFrom > *filter.DateTo {
			return nil, NewBusinessError(CodeInvalidDateRange, "Start date cannot be after end date", ErrStartDateAfterEndDate)
		}
	}

	rows, err := s.summaryRepo.ByFilter(ctx, filter, "date ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("SUMMARY_LIST_FAILED", "Failed to list daily summaries", err)
	}
	items := make([]dto.DailySummaryDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, ToDailySummaryDTO(*row))
	}
	return &dto.ListDailySummariesResponse{Items: items}, nil
}

func (s *StatsAggregatorImpl) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	var cached dto.DashboardResponse
	if s.cache.Get(ctx, DashboardCacheKey, &cached) {
		return &cached, nil
	}

	totals, err := s.Totals(ctx)
	if err != nil {
		return nil, err
	}

	today := s.today()
	todayTotals, err := s.periodTotals(ctx, DateRange(today, today, s.loc))
	if err != nil {
		return nil, err
	}

	last30 := DateRange(today.AddDate(0, 0, -defaultRangeDays), today, s.loc)
	countries, err := s.TopCountries(ctx, last30, dashboardTopN)
	if err != nil {
		return nil, err
	}
	devices, err := s.DeviceBreakdown(ctx, last30)
	if err != nil {
		return nil, err
	}

	series, err := s.DailyBreakdown(ctx, today.AddDate(0, 0, -(recentDays-1)), today)
	if err != nil {
		return nil, err
	}

	recent, err := s.contactRepo.ByFilter(ctx, models.ContactSubmissionFilter{}, contactsOrder, recentContacts, 0)
	if err != nil {
		return nil, NewBusinessError("STATS_FAILED", "Failed to load recent contacts", err)
	}

	resp := &dto.DashboardResponse{
		Totals:         *totals,
		Today:          todayTotals,
		TopCountries:   toCountryCounts(countries),
		Devices:        toDeviceCounts(devices),
		Last7Days:      series,
		RecentContacts: ToContactSubmissionDTOs(recent),
	}
	s.cache.Set(ctx, DashboardCacheKey, resp)
	return resp, nil
}

// resolveAnalyticsRange parses the requested dates; any unparsable date falls back to the last 30 days
func (s *StatsAggregatorImpl) resolveAnalyticsRange(req *dto.AnalyticsRequest) (time.Time, time.Time) {
	end := s.today()
	start := end.AddDate(0, 0, -defaultRangeDays)
	if req == nil {
		return start, end
	}

	from, to := start, end
	if v := strings.TrimSpace(req.DateFrom); v != "" {
		parsed, err := utils.ParseDate(v, s.loc)
		if err != nil {
			return start, end
		}
		from = parsed
	}
	if v := strings.TrimSpace(req.DateTo); v != "" {
		parsed, err := utils.ParseDate(v, s.loc)
		if err != nil {
			return start, end
		}
		to = parsed
	}
	return from, to
}

func (s *StatsAggregatorImpl) Analytics(ctx context.Context, req *dto.AnalyticsRequest) (*dto.AnalyticsResponse, error) {
	start, end := s.resolveAnalyticsRange(req)
	if start.After(end) {
		return nil, NewBusinessError(CodeInvalidDateRange, "Start date cannot be after end date", ErrStartDateAfterEndDate)
	}
	r := DateRange(start, end, s.loc)

	totals, err := s.periodTotals(ctx, r)
	if err != nil {
		return nil, err
	}
	newVisitors, err := s.UniqueVisitorsFirstSeen(ctx, r)
	if err != nil {
		return nil, err
	}
	countries, err := s.TopCountries(ctx, r, analyticsTopN)
	if err != nil {
		return nil, err
	}
	devices, err := s.DeviceBreakdown(ctx, r)
	if err != nil {
		return nil, err
	}
	browsers, err := s.BrowserBreakdown(ctx, r, analyticsTopN)
	if err != nil {
		return nil, err
	}
	daily, err := s.DailyBreakdown(ctx, start, end)
	if err != nil {
		return nil, err
	}

	return &dto.AnalyticsResponse{
		DateFrom:         start.Format(utils.DateLayout),
		DateTo:           end.Format(utils.DateLayout),
		TotalViews:       totals.Views,
		DistinctVisitors: totals.Visitors,
		NewVisitors:      newVisitors,
		TotalContacts:    totals.Contacts,
		TopCountries:     toCountryCounts(countries),
		Devices:          toDeviceCounts(devices),
		Browsers:         toBrowserCounts(browsers),
		Daily:            daily,
	}, nil
}

func (s *StatsAggregatorImpl) PublicStats(ctx context.Context) (*dto.PublicStatsResponse, error) {
	var cached dto.PublicStatsResponse
	if s.cache.Get(ctx, PublicStatsCacheKey, &cached) {
		return &cached, nil
	}

	total, err := s.periodTotals(ctx, models.TimeRange{})
	if err != nil {
		return nil, err
	}
	today := s.today()
	todayTotals, err := s.periodTotals(ctx, DateRange(today, today, s.loc))
	if err != nil {
		return nil, err
	}
	countries, err := s.TopCountries(ctx, models.TimeRange{}, dashboardTopN)
	if err != nil {
		return nil, err
	}
	devices, err := s.DeviceBreakdown(ctx, models.TimeRange{})
	if err != nil {
		return nil, err
	}
	weekAgo := today.AddDate(0, 0, -recentDays)
	recent, err := s.DailyBreakdown(ctx, weekAgo, weekAgo.AddDate(0, 0, recentDays-1))
	if err != nil {
		return nil, err
	}

	resp := &dto.PublicStatsResponse{
		Total:        total,
		Today:        todayTotals,
		TopCountries: toCountryCounts(countries),
		DeviceStats:  toDeviceCounts(devices),
		RecentStats:  recent,
	}
	s.cache.Set(ctx, PublicStatsCacheKey, resp)
	return resp, nil
}
