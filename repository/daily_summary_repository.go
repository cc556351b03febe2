package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/vitrine/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DailySummaryRepositoryImpl implements DailySummaryRepository
type DailySummaryRepositoryImpl struct {
	*BaseRepository[models.DailySummary, models.DailySummaryFilter]
}

func NewDailySummaryRepository(db *gorm.DB) DailySummaryRepository {
	return &DailySummaryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.DailySummary, models.DailySummaryFilter](db),
	}
}

func (r *DailySummaryRepositoryImpl) applyFilter(query *gorm.DB, filter models.DailySummaryFilter) *gorm.DB {
	if filter.Date != nil {
		query = query.Where("date = ?", *filter.Date)
	}
	if filter.DateFrom != nil {
		query = query.Where("date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("date <= ?", *filter.DateTo)
	}
	return query
}

func (r *DailySummaryRepositoryImpl) ByFilter(ctx context.Context, filter models.DailySummaryFilter, orderBy string, limit, offset int) ([]*models.DailySummary, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.DailySummary{}), filter)

	if orderBy == "" {
		orderBy = "date DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.DailySummary
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list daily summaries: %w", err)
	}
	return rows, nil
}

func (r *DailySummaryRepositoryImpl) Count(ctx context.Context, filter models.DailySummaryFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.DailySummary{}), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count daily summaries: %w", err)
	}
	return count, nil
}

func (r *DailySummaryRepositoryImpl) Exists(ctx context.Context, filter models.DailySummaryFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *DailySummaryRepositoryImpl) ByDate(ctx context.Context, date string) (*models.DailySummary, error) {
	rows, err := r.ByFilter(ctx, models.DailySummaryFilter{Date: &date}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// GetOrCreateByDate returns the summary for date, inserting an empty one when absent
func (r *DailySummaryRepositoryImpl) GetOrCreateByDate(ctx context.Context, date string) (*models.DailySummary, error) {
	db := r.getDB(ctx)
	fresh := &models.DailySummary{Date: date}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoNothing: true,
	}).Create(fresh).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create daily summary for %s: %w", date, err)
	}

	summary, err := r.ByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, fmt.Errorf("daily summary for %s missing after insert", date)
	}
	return summary, nil
}
