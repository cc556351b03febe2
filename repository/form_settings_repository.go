package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/vitrine/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FormSettingsRepositoryImpl implements FormSettingsRepository.
// Concurrent first accesses race on the unique singleton key; the loser's insert is ignored.
type FormSettingsRepositoryImpl struct {
	db *gorm.DB
}

func NewFormSettingsRepository(db *gorm.DB) FormSettingsRepository {
	return &FormSettingsRepositoryImpl{db: db}
}

func (r *FormSettingsRepositoryImpl) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(TxContextKey).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

// insertIgnore inserts s unless the singleton row exists, reporting whether a row was written
func (r *FormSettingsRepositoryImpl) insertIgnore(ctx context.Context, s *models.FormSettings) (bool, error) {
	s.SingletonKey = models.FormSettingsSingletonKey
	res := r.getDB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "singleton_key"}},
			DoNothing: true,
		}).
		Create(s)
	if res.Error != nil {
		return false, fmt.Errorf("failed to insert form settings: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *FormSettingsRepositoryImpl) load(ctx context.Context) (*models.FormSettings, error) {
	var s models.FormSettings
	err := r.getDB(ctx).
		Where("singleton_key = ?", models.FormSettingsSingletonKey).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load form settings: %w", err)
	}
	return &s, nil
}

func (r *FormSettingsRepositoryImpl) GetOrCreate(ctx context.Context) (*models.FormSettings, error) {
	existing, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	defaults := models.DefaultFormSettings()
	if _, err := r.insertIgnore(ctx, &defaults); err != nil {
		return nil, err
	}

	s, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.New("form settings missing after insert")
	}
	return s, nil
}

func (r *FormSettingsRepositoryImpl) Create(ctx context.Context, settings *models.FormSettings) error {
	inserted, err := r.insertIgnore(ctx, settings)
	if err != nil {
		return err
	}
	if !inserted {
		return ErrAlreadyExists
	}
	return nil
}

func (r *FormSettingsRepositoryImpl) Update(ctx context.Context, settings *models.FormSettings) error {
	settings.SingletonKey = models.FormSettingsSingletonKey
	res := r.getDB(ctx).
		Model(&models.FormSettings{}).
		Where("singleton_key = ?", models.FormSettingsSingletonKey).
		Select(
			"email_notifications", "notification_email",
			"auto_reply_enabled", "auto_reply_subject", "auto_reply_message",
			"max_file_size_mb", "allowed_file_types", "updated_at",
		).
		Updates(settings)
	if res.Error != nil {
		return fmt.Errorf("failed to update form settings: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *FormSettingsRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.getDB(ctx).Model(&models.FormSettings{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count form settings: %w", err)
	}
	return count, nil
}
