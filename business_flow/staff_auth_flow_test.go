package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/vitrine/app/dto"
	"github.com/amirphl/vitrine/app/services"
	"github.com/amirphl/vitrine/repository"
	testingutil "github.com/amirphl/vitrine/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedCaptcha accepts one challenge id regardless of angle
type fixedCaptcha struct {
	validID string
}

func (c fixedCaptcha) GenerateRotate(context.Context) (*services.RotateChallenge, error) {
	return &services.RotateChallenge{ID: c.validID, ExpiresAt: time.Now().Add(time.Minute)}, nil
}

func (c fixedCaptcha) VerifyRotate(_ context.Context, challengeID string, _ float64) bool {
	return challengeID == c.validID
}

func TestStaffAuthFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := testingutil.CreateTestContext()
		fixtures := testingutil.NewTestFixtures(testDB)
		active, err := fixtures.CreateTestStaff(true)
		require.NoError(t, err)
		inactive, err := fixtures.CreateTestStaff(false)
		require.NoError(t, err)

		tokens, err := services.NewTokenService(15*time.Minute, time.Hour, "vitrine", "dashboard", false, "", "", "test-secret-key-for-jwt-signing-32-chars", services.NewMemoryRevocationStore())
		require.NoError(t, err)
		staffRepo := repository.NewStaffRepository(testDB.DB)
		flow := NewStaffAuthFlow(staffRepo, tokens, fixedCaptcha{validID: "ok"}, 15*time.Minute)

		login := func(username, password, challenge string) (*dto.StaffLoginResponse, error) {
			return flow.Login(ctx, &dto.StaffLoginRequest{
				ChallengeID: challenge,
				Username:    username,
				Password:    password,
			}, NewClientMetadata("127.0.0.1", "test"))
		}

		t.Run("CaptchaInit", func(t *testing.T) {
			resp, err := flow.InitCaptcha(ctx)
			require.NoError(t, err)
			assert.Equal(t, "ok", resp.ChallengeID)
		})

		t.Run("BadCaptcha", func(t *testing.T) {
			_, err := login(active.Username, testingutil.TestStaffPassword, "wrong")
			assert.ErrorIs(t, err, ErrInvalidCaptcha)
		})

		t.Run("UnknownStaff", func(t *testing.T) {
			_, err := login("nobody", testingutil.TestStaffPassword, "ok")
			assert.ErrorIs(t, err, ErrStaffNotFound)
		})

		t.Run("Inactive", func(t *testing.T) {
			_, err := login(inactive.Username, testingutil.TestStaffPassword, "ok")
			assert.ErrorIs(t, err, ErrStaffInactive)
		})

		t.Run("WrongPassword", func(t *testing.T) {
			_, err := login(active.Username, "definitely-wrong", "ok")
			assert.True(t, IsIncorrectPassword(err))
		})

		t.Run("LoginRefreshLogout", func(t *testing.T) {
			resp, err := login(active.Username, testingutil.TestStaffPassword, "ok")
			require.NoError(t, err)
			assert.Equal(t, active.Username, resp.Staff.Username)
			assert.NotNil(t, resp.Staff.LastLoginAt)
			assert.Equal(t, "Bearer", resp.Session.TokenType)
			assert.Equal(t, 900, resp.Session.ExpiresIn)

			claims, err := tokens.ValidateStaffToken(ctx, resp.Session.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, active.ID, claims.StaffID)

			refreshed, err := flow.Refresh(ctx, &dto.StaffRefreshRequest{RefreshToken: resp.Session.RefreshToken})
			require.NoError(t, err)
			assert.NotEmpty(t, refreshed.AccessToken)

			_, err = flow.Refresh(ctx, &dto.StaffRefreshRequest{RefreshToken: "garbage"})
			require.Error(t, err)

			require.NoError(t, flow.Logout(ctx, refreshed.AccessToken))
			_, err = tokens.ValidateStaffToken(ctx, refreshed.AccessToken)
			assert.ErrorIs(t, err, services.ErrTokenRevoked)
		})

		return nil
	})
	require.NoError(t, err)
}
