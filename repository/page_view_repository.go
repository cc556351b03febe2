package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/vitrine/models"
	"gorm.io/gorm"
)

// groupableColumns whitelists the columns GroupCount may aggregate over
var groupableColumns = map[string]bool{
	"country":          true,
	"city":             true,
	"region":           true,
	"browser":          true,
	"operating_system": true,
	"device_type":      true,
	"page_url":         true,
}

// PageViewRepositoryImpl implements PageViewRepository
type PageViewRepositoryImpl struct {
	*BaseRepository[models.PageView, models.PageViewFilter]
}

func NewPageViewRepository(db *gorm.DB) PageViewRepository {
	return &PageViewRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PageView, models.PageViewFilter](db),
	}
}

func (r *PageViewRepositoryImpl) applyFilter(query *gorm.DB, filter models.PageViewFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.IPAddress != nil {
		query = query.Where("ip_address = ?", *filter.IPAddress)
	}
	if filter.Country != nil {
		query = query.Where("country = ?", *filter.Country)
	}
	if filter.DeviceType != nil {
		query = query.Where("device_type = ?", *filter.DeviceType)
	}
	if filter.SessionID != nil {
		query = query.Where("session_id = ?", *filter.SessionID)
	}
	if filter.After != nil {
		query = query.Where("timestamp >= ?", *filter.After)
	}
	if filter.Before != nil {
		query = query.Where("timestamp < ?", *filter.Before)
	}
	return query
}

func (r *PageViewRepositoryImpl) ByFilter(ctx context.Context, filter models.PageViewFilter, orderBy string, limit, offset int) ([]*models.PageView, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.PageView{}), filter)

	if orderBy == "" {
		orderBy = "timestamp DESC, id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.PageView
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list page views: %w", err)
	}
	return rows, nil
}

func (r *PageViewRepositoryImpl) Count(ctx context.Context, filter models.PageViewFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.PageView{}), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count page views: %w", err)
	}
	return count, nil
}

func (r *PageViewRepositoryImpl) Exists(ctx context.Context, filter models.PageViewFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *PageViewRepositoryImpl) CountDistinctIPs(ctx context.Context, filter models.PageViewFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	err := r.applyFilter(db.Model(&models.PageView{}), filter).
		Select("COUNT(DISTINCT ip_address)").
		Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count distinct visitors: %w", err)
	}
	return count, nil
}

func (r *PageViewRepositoryImpl) GroupCount(ctx context.Context, column string, filter models.PageViewFilter, skipEmpty bool, limit int) ([]models.LabelCount, error) {
	if !groupableColumns[column] {
		return nil, fmt.Errorf("column %q cannot be grouped", column)
	}

	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.PageView{}), filter)
	if skipEmpty {
		query = query.Where(column + " <> ''")
	}
	query = query.
		Select(column + " AS label, COUNT(*) AS count").
		Group(column).
		Order("count DESC, MIN(id) ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.LabelCount
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to group page views by %s: %w", column, err)
	}
	return rows, nil
}

func (r *PageViewRepositoryImpl) CountFirstSeenIPs(ctx context.Context, tr models.TimeRange) (int64, error) {
	db := r.getDB(ctx)
	firstSeen := db.Model(&models.PageView{}).
		Select("ip_address, MIN(timestamp) AS first_seen").
		Group("ip_address")

	query := db.Table("(?) AS visitors", firstSeen)
	if !tr.From.IsZero() {
		query = query.Where("first_seen >= ?", tr.From)
	}
	if !tr.To.IsZero() {
		query = query.Where("first_seen < ?", tr.To)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count first-time visitors: %w", err)
	}
	return count, nil
}

func (r *PageViewRepositoryImpl) HasEarlierVisit(ctx context.Context, ip string, before time.Time) (bool, error) {
	return r.Exists(ctx, models.PageViewFilter{IPAddress: &ip, Before: &before})
}

// VisitPoints loads ip/timestamp pairs inside [from, to) ordered by time
func (r *PageViewRepositoryImpl) VisitPoints(ctx context.Context, from, to time.Time) ([]VisitPoint, error) {
	db := r.getDB(ctx)
	var points []VisitPoint
	err := db.Model(&models.PageView{}).
		Select("ip_address, timestamp").
		Where("timestamp >= ? AND timestamp < ?", from, to).
		Order("timestamp ASC").
		Scan(&points).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load page view points: %w", err)
	}
	return points, nil
}
