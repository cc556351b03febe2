package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amirphl/vitrine/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContactSubmissionRepositoryImpl implements ContactSubmissionRepository interface.
type ContactSubmissionRepositoryImpl struct {
	*BaseRepository[models.ContactSubmission, models.ContactSubmissionFilter]
}

// NewContactSubmissionRepository creates a new contact submission repository.
func NewContactSubmissionRepository(db *gorm.DB) ContactSubmissionRepository {
	return &ContactSubmissionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ContactSubmission, models.ContactSubmissionFilter](db),
	}
}

// ByUUID retrieves a submission by its public UUID.
func (r *ContactSubmissionRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.ContactSubmission, error) {
	parsed, err := uuid.Parse(uuidStr)
	if err != nil {
		return nil, err
	}
	rows, err := r.ByFilter(ctx, models.ContactSubmissionFilter{UUID: &parsed}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// applyFilter applies filter criteria to a GORM query.
func (r *ContactSubmissionRepositoryImpl) applyFilter(query *gorm.DB, filter models.ContactSubmissionFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.IsRead != nil {
		query = query.Where("is_read = ?", *filter.IsRead)
	}
	if filter.Search != nil {
		if term := strings.TrimSpace(*filter.Search); term != "" {
			like := "%" + strings.ToLower(term) + "%"
			query = query.Where(
				"LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(whatsapp) LIKE ? OR LOWER(project_description) LIKE ?",
				like, like, like, like,
			)
		}
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves submissions matching the filter, newest first by default.
func (r *ContactSubmissionRepositoryImpl) ByFilter(ctx context.Context, filter models.ContactSubmissionFilter, orderBy string, limit, offset int) ([]*models.ContactSubmission, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ContactSubmission{}), filter)

	if orderBy == "" {
		orderBy = "created_at DESC, id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.ContactSubmission
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list contact submissions: %w", err)
	}
	return rows, nil
}

// Count returns number of submissions matching filter.
func (r *ContactSubmissionRepositoryImpl) Count(ctx context.Context, filter models.ContactSubmissionFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ContactSubmission{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count contact submissions: %w", err)
	}
	return count, nil
}

// Exists checks if any submission matches the filter.
func (r *ContactSubmissionRepositoryImpl) Exists(ctx context.Context, filter models.ContactSubmissionFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *ContactSubmissionRepositoryImpl) MarkRead(ctx context.Context, id uint) (bool, error) {
	db := r.getDB(ctx)
	res := db.Model(&models.ContactSubmission{}).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]any{"is_read": true, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark contact submission %d as read: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *ContactSubmissionRepositoryImpl) UpdateNotes(ctx context.Context, id uint, notes string) error {
	db := r.getDB(ctx)
	res := db.Model(&models.ContactSubmission{}).
		Where("id = ?", id).
		Updates(map[string]any{"notes": notes, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("failed to update notes of contact submission %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreatedTimes returns creation timestamps inside [from, to)
func (r *ContactSubmissionRepositoryImpl) CreatedTimes(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	db := r.getDB(ctx)
	var times []time.Time
	err := db.Model(&models.ContactSubmission{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Pluck("created_at", &times).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load contact submission times: %w", err)
	}
	return times, nil
}
