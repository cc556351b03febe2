package dto

// CountryCountDTO is one row of a top-countries list
type CountryCountDTO struct {
	Country string `json:"country"`
	Count   int64  `json:"count"`
}

// DeviceCountDTO is one row of a device breakdown
type DeviceCountDTO struct {
	DeviceType string `json:"device_type"`
	Count      int64  `json:"count"`
}

// BrowserCountDTO is one row of a browser breakdown
type BrowserCountDTO struct {
	Browser string `json:"browser"`
	Count   int64  `json:"count"`
}

// DailyStatDTO holds one calendar day of activity
type DailyStatDTO struct {
	Date     string `json:"date"`
	Views    int64  `json:"views"`
	Visitors int64  `json:"visitors"`
	Contacts int64  `json:"contacts"`
}

// PeriodTotalsDTO counts views, distinct visitors and contacts over a period
type PeriodTotalsDTO struct {
	Views    int64 `json:"views"`
	Visitors int64 `json:"visitors"`
	Contacts int64 `json:"contacts"`
}

// TotalsDTO holds all-time counters
type TotalsDTO struct {
	TotalViews       int64 `json:"total_views"`
	DistinctVisitors int64 `json:"distinct_visitors"`
	TotalContacts    int64 `json:"total_contacts"`
	UnreadContacts   int64 `json:"unread_contacts"`
}

// DashboardResponse feeds the dashboard home
type DashboardResponse struct {
	Totals         TotalsDTO              `json:"totals"`
	Today          PeriodTotalsDTO        `json:"today"`
	TopCountries   []CountryCountDTO      `json:"top_countries"`
	Devices        []DeviceCountDTO       `json:"devices"`
	Last7Days      []DailyStatDTO         `json:"last_7_days"`
	RecentContacts []ContactSubmissionDTO `json:"recent_contacts"`
}

// AnalyticsRequest selects the analytics date range, both ends inclusive
type AnalyticsRequest struct {
	DateFrom string `query:"date_from" json:"date_from"`
	DateTo   string `query:"date_to" json:"date_to"`
}

// AnalyticsResponse is the analytics view for a date range
type AnalyticsResponse struct {
	DateFrom         string            `json:"date_from"`
	DateTo           string            `json:"date_to"`
	TotalViews       int64             `json:"total_views"`
	DistinctVisitors int64             `json:"distinct_visitors"`
	NewVisitors      int64             `json:"new_visitors"`
	TotalContacts    int64             `json:"total_contacts"`
	TopCountries     []CountryCountDTO `json:"top_countries"`
	Devices          []DeviceCountDTO  `json:"devices"`
	Browsers         []BrowserCountDTO `json:"browsers"`
	Daily            []DailyStatDTO    `json:"daily"`
}

// PublicStatsResponse is the body of the public stats endpoint
type PublicStatsResponse struct {
	Total        PeriodTotalsDTO   `json:"total"`
	Today        PeriodTotalsDTO   `json:"today"`
	TopCountries []CountryCountDTO `json:"top_countries"`
	DeviceStats  []DeviceCountDTO  `json:"device_stats"`
	RecentStats  []DailyStatDTO    `json:"recent_activity"`
}

// DailySummaryDTO is a stored daily rollup
type DailySummaryDTO struct {
	Date               string            `json:"date"`
	TotalViews         int64             `json:"total_views"`
	UniqueVisitors     int64             `json:"unique_visitors"`
	DistinctVisitors   int64             `json:"distinct_visitors"`
	ContactSubmissions int64             `json:"contact_submissions"`
	TopCountries       []CountryCountDTO `json:"top_countries"`
	DesktopViews       int64             `json:"desktop_views"`
	MobileViews        int64             `json:"mobile_views"`
	TabletViews        int64             `json:"tablet_views"`
	UpdatedAt          string            `json:"updated_at"`
}

// ListDailySummariesRequest bounds the summaries listing, both ends inclusive
type ListDailySummariesRequest struct {
	From string `query:"from" json:"from"`
	To   string `query:"to" json:"to"`
}

// ListDailySummariesResponse lists stored summaries, oldest first
type ListDailySummariesResponse struct {
	Items []DailySummaryDTO `json:"items"`
}
