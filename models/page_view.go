package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/amirphl/vitrine/utils"
	"gorm.io/gorm"
)

// DeviceType classifies the client device of a page view
type DeviceType string

const (
	DeviceTypeDesktop DeviceType = "desktop"
	DeviceTypeMobile  DeviceType = "mobile"
	DeviceTypeTablet  DeviceType = "tablet"
	DeviceTypeUnknown DeviceType = "unknown"
)

// Valid checks if the device type is one of the known values.
func (d DeviceType) Valid() bool {
	switch d {
	case DeviceTypeDesktop, DeviceTypeMobile, DeviceTypeTablet, DeviceTypeUnknown:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for DeviceType.
func (d *DeviceType) Scan(value any) error {
	if value == nil {
		*d = DeviceTypeUnknown
		return nil
	}

	switch v := value.(type) {
	case string:
		*d = DeviceType(v)
	case []byte:
		*d = DeviceType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into DeviceType", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for DeviceType.
func (d DeviceType) Value() (driver.Value, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid DeviceType: %s", d)
	}
	return string(d), nil
}

// PageView is one recorded visit to a URL. Rows are append-only.
type PageView struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	IPAddress       string     `gorm:"size:45;not null;index:idx_page_views_ip_address" json:"ip_address"`
	UserAgent       string     `gorm:"type:text;not null;default:''" json:"user_agent"`
	Referer         string     `gorm:"type:text;not null;default:''" json:"referer"`
	PageURL         string     `gorm:"type:text;not null;default:'/'" json:"page_url"`
	Country         string     `gorm:"size:100;not null;default:'';index:idx_page_views_country" json:"country"`
	City            string     `gorm:"size:100;not null;default:''" json:"city"`
	Region          string     `gorm:"size:100;not null;default:''" json:"region"`
	DeviceType      DeviceType `gorm:"size:20;not null;default:'unknown'" json:"device_type"`
	Browser         string     `gorm:"size:50;not null;default:''" json:"browser"`
	OperatingSystem string     `gorm:"size:50;not null;default:''" json:"operating_system"`
	Timestamp       time.Time  `gorm:"not null;index:idx_page_views_timestamp" json:"timestamp"`
	SessionID       string     `gorm:"size:100;not null;default:''" json:"session_id"`
	TimeOnPage      uint       `gorm:"not null;default:0" json:"time_on_page"`
}

func (PageView) TableName() string {
	return "page_views"
}

// BeforeCreate normalizes the device type and stamps the event time.
func (p *PageView) BeforeCreate(tx *gorm.DB) error {
	if !p.DeviceType.Valid() {
		p.DeviceType = DeviceTypeUnknown
	}
	if p.PageURL == "" {
		p.PageURL = "/"
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = utils.UTCNow()
	}
	return nil
}

// PageViewFilter represents filter criteria for page view queries
type PageViewFilter struct {
	ID         *uint
	IPAddress  *string
	Country    *string
	DeviceType *DeviceType
	SessionID  *string
	After      *time.Time // inclusive
	Before     *time.Time // exclusive
}

// TimeRange is a half-open [From, To) interval; zero bounds are open
type TimeRange struct {
	From time.Time
	To   time.Time
}

// LabelCount is one row of a group-by-count aggregation
type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}
