package dto

// TrackVisitRequest records a page view for client-rendered pages
type TrackVisitRequest struct {
	PageURL string `json:"page_url" validate:"omitempty,max=2048" example:"/portfolio/3"`
}

// TrackVisitResponse echoes what was resolved for the visit
type TrackVisitResponse struct {
	ID              uint   `json:"id"`
	Country         string `json:"country"`
	City            string `json:"city"`
	Region          string `json:"region"`
	DeviceType      string `json:"device_type"`
	Browser         string `json:"browser"`
	OperatingSystem string `json:"operating_system"`
	IsUniqueVisitor bool   `json:"is_unique_visitor"`
}

// LandingResponse is served on the landing page
type LandingResponse struct {
	TotalViews    int64 `json:"total_views"`
	TotalContacts int64 `json:"total_contacts"`
}

// PortfolioResponse is served on a portfolio detail page
type PortfolioResponse struct {
	ProjectID int `json:"project_id"`
}
