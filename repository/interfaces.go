// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/amirphl/vitrine/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

// ErrAlreadyExists is returned when a uniqueness constraint rejects an insert
var ErrAlreadyExists = errors.New("record already exists")

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// ContactSubmissionRepository defines operations for contact submissions
type ContactSubmissionRepository interface {
	Repository[models.ContactSubmission, models.ContactSubmissionFilter]
	ByUUID(ctx context.Context, uuid string) (*models.ContactSubmission, error)
	// MarkRead flips is_read once; it reports whether this call changed the row
	MarkRead(ctx context.Context, id uint) (bool, error)
	UpdateNotes(ctx context.Context, id uint, notes string) error
	CreatedTimes(ctx context.Context, from, to time.Time) ([]time.Time, error)
}

// VisitPoint is the projection used for in-memory daily grouping
type VisitPoint struct {
	IPAddress string
	Timestamp time.Time
}

// PageViewRepository defines operations and aggregations over page views
type PageViewRepository interface {
	Repository[models.PageView, models.PageViewFilter]
	CountDistinctIPs(ctx context.Context, filter models.PageViewFilter) (int64, error)
	// GroupCount counts rows per value of column, excluding empty values when skipEmpty is set.
	// Rows are ordered by count desc, ties by first appearance.
	GroupCount(ctx context.Context, column string, filter models.PageViewFilter, skipEmpty bool, limit int) ([]models.LabelCount, error)
	// CountFirstSeenIPs counts IPs whose first-ever page view falls inside r
	CountFirstSeenIPs(ctx context.Context, r models.TimeRange) (int64, error)
	HasEarlierVisit(ctx context.Context, ip string, before time.Time) (bool, error)
	VisitPoints(ctx context.Context, from, to time.Time) ([]VisitPoint, error)
}

// FormSettingsRepository defines operations for the form settings singleton
type FormSettingsRepository interface {
	// GetOrCreate returns the singleton, inserting defaults atomically when missing
	GetOrCreate(ctx context.Context) (*models.FormSettings, error)
	// Create inserts the singleton and fails with ErrAlreadyExists when a row is present
	Create(ctx context.Context, settings *models.FormSettings) error
	Update(ctx context.Context, settings *models.FormSettings) error
	Count(ctx context.Context) (int64, error)
}

// DailySummaryRepository defines operations for daily summaries
type DailySummaryRepository interface {
	Repository[models.DailySummary, models.DailySummaryFilter]
	ByDate(ctx context.Context, date string) (*models.DailySummary, error)
	GetOrCreateByDate(ctx context.Context, date string) (*models.DailySummary, error)
	Update(ctx context.Context, summary *models.DailySummary) error
}

// StaffRepository defines operations for dashboard accounts
type StaffRepository interface {
	Repository[models.Staff, models.StaffFilter]
	ByUsername(ctx context.Context, username string) (*models.Staff, error)
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
}
