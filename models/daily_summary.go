package models

import (
	"time"

	"github.com/amirphl/vitrine/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CountryCount is one entry of a summary's top-countries list
type CountryCount struct {
	Country string `json:"country"`
	Count   int64  `json:"count"`
}

// DailySummary is a precomputed per-date rollup of page views and contacts.
// Every derived field is overwritten on recompute.
type DailySummary struct {
	ID                 uint                               `gorm:"primaryKey" json:"id"`
	Date               string                             `gorm:"size:10;not null;uniqueIndex:uk_daily_summaries_date" json:"date"`
	TotalViews         int64                              `gorm:"not null;default:0" json:"total_views"`
	UniqueVisitors     int64                              `gorm:"not null;default:0" json:"unique_visitors"`
	DistinctVisitors   int64                              `gorm:"not null;default:0" json:"distinct_visitors"`
	ContactSubmissions int64                              `gorm:"not null;default:0" json:"contact_submissions"`
	TopCountries       datatypes.JSONType[[]CountryCount] `json:"top_countries"`
	DesktopViews       int64                              `gorm:"not null;default:0" json:"desktop_views"`
	MobileViews        int64                              `gorm:"not null;default:0" json:"mobile_views"`
	TabletViews        int64                              `gorm:"not null;default:0" json:"tablet_views"`
	CreatedAt          time.Time                          `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time                          `gorm:"not null" json:"updated_at"`
}

func (DailySummary) TableName() string {
	return "daily_summaries"
}

// BeforeCreate stamps timestamps.
func (d *DailySummary) BeforeCreate(tx *gorm.DB) error {
	now := utils.UTCNow()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = now
	}
	return nil
}

// DailySummaryFilter represents filter criteria for daily summary queries
type DailySummaryFilter struct {
	Date     *string
	DateFrom *string // inclusive, YYYY-MM-DD
	DateTo   *string // inclusive, YYYY-MM-DD
}
