package businessflow

import (
	"sync"
	"testing"

	"github.com/amirphl/vitrine/app/dto"
	"github.com/amirphl/vitrine/models"
	"github.com/amirphl/vitrine/repository"
	testingutil "github.com/amirphl/vitrine/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettingsRequest() *dto.UpdateFormSettingsRequest {
	return &dto.UpdateFormSettingsRequest{
		EmailNotifications: true,
		NotificationEmail:  "ops@example.com",
		AutoReplyEnabled:   true,
		AutoReplySubject:   "Obrigado!",
		AutoReplyMessage:   "Olá {name}",
		MaxFileSizeMB:      25,
		AllowedFileTypes:   " PDF, .png ,,zip ",
	}
}

func TestValidateFormSettings(t *testing.T) {
	allowed, err := ValidateFormSettings(validSettingsRequest())
	require.NoError(t, err)
	assert.Equal(t, "pdf,png,zip", allowed)

	req := validSettingsRequest()
	req.NotificationEmail = ""
	_, err = ValidateFormSettings(req)
	assert.ErrorIs(t, err, ErrInvalidFormSettings)

	req.EmailNotifications = false
	_, err = ValidateFormSettings(req)
	assert.NoError(t, err)

	for _, size := range []int{0, 101} {
		req := validSettingsRequest()
		req.MaxFileSizeMB = size
		_, err := ValidateFormSettings(req)
		assert.ErrorIs(t, err, ErrInvalidFormSettings, size)
	}

	req = validSettingsRequest()
	req.AllowedFileTypes = " , "
	_, err = ValidateFormSettings(req)
	assert.ErrorIs(t, err, ErrInvalidFormSettings)
}

func TestFormSettingsFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := testingutil.CreateTestContext()
		repo := repository.NewFormSettingsRepository(testDB.DB)
		flow := NewFormSettingsFlow(repo)

		t.Run("ConcurrentFirstAccessCreatesOneRow", func(t *testing.T) {
			var wg sync.WaitGroup
			errs := make(chan error, 8)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := repo.GetOrCreate(ctx)
					errs <- err
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			count, err := repo.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})

		t.Run("GetReturnsDefaults", func(t *testing.T) {
			settings, err := flow.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, models.DefaultMaxFileSizeMB, settings.MaxFileSizeMB)
			assert.Equal(t, models.DefaultAllowedFileTypes, settings.AllowedFileTypes)
		})

		t.Run("Update", func(t *testing.T) {
			updated, err := flow.Update(ctx, validSettingsRequest())
			require.NoError(t, err)
			assert.Equal(t, "pdf,png,zip", updated.AllowedFileTypes)

			reloaded, err := flow.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, 25, reloaded.MaxFileSizeMB)
			assert.Equal(t, "ops@example.com", reloaded.NotificationEmail)
		})

		t.Run("CreateRejectsSecondRow", func(t *testing.T) {
			_, err := flow.Create(ctx, validSettingsRequest())
			assert.True(t, IsFormSettingsAlreadyExists(err))

			count, err := repo.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestFormSettingsFlowStoresDisabledToggles(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := testingutil.CreateTestContext()
		repo := repository.NewFormSettingsRepository(testDB.DB)
		flow := NewFormSettingsFlow(repo)

		req := validSettingsRequest()
		req.EmailNotifications = false
		req.AutoReplyEnabled = false

		created, err := flow.Create(ctx, req)
		require.NoError(t, err)
		assert.False(t, created.EmailNotifications)
		assert.False(t, created.AutoReplyEnabled)

		stored, err := repo.GetOrCreate(ctx)
		require.NoError(t, err)
		assert.False(t, stored.EmailNotifications)
		assert.False(t, stored.AutoReplyEnabled)

		req.EmailNotifications = true
		req.AutoReplyEnabled = true
		_, err = flow.Update(ctx, req)
		require.NoError(t, err)

		req.AutoReplyEnabled = false
		_, err = flow.Update(ctx, req)
		require.NoError(t, err)

		stored, err = repo.GetOrCreate(ctx)
		require.NoError(t, err)
		assert.True(t, stored.EmailNotifications)
		assert.False(t, stored.AutoReplyEnabled)
		return nil
	})
	require.NoError(t, err)
}
