package businessflow

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/amirphl/vitrine/app/dto"
	"github.com/amirphl/vitrine/app/metrics"
	"github.com/amirphl/vitrine/app/services"
	"github.com/amirphl/vitrine/repository"
	"github.com/amirphl/vitrine/utils"
	"golang.org/x/crypto/bcrypt"
)

// StaffAuthFlow represents the dashboard authentication flow used by handlers
type StaffAuthFlow interface {
	InitCaptcha(ctx context.Context) (*dto.StaffCaptchaInitResponse, error)
	Login(ctx context.Context, req *dto.StaffLoginRequest, metadata *ClientMetadata) (*dto.StaffLoginResponse, error)
	Refresh(ctx context.Context, req *dto.StaffRefreshRequest) (*dto.StaffSessionDTO, error)
	Logout(ctx context.Context, accessToken string) error
}

// StaffAuthFlowImpl provides captcha-init and staff credential verification
type StaffAuthFlowImpl struct {
	staffRepo    repository.StaffRepository
	tokenService services.TokenService
	captchaSvc   services.CaptchaService
	accessTTL    time.Duration
}

func NewStaffAuthFlow(staffRepo repository.StaffRepository, tokenService services.TokenService, captchaSvc services.CaptchaService, accessTTL time.Duration) StaffAuthFlow {
	if accessTTL <= 0 {
		accessTTL = utils.AccessTokenTTL
	}
	return &StaffAuthFlowImpl{
		staffRepo:    staffRepo,
		tokenService: tokenService,
		captchaSvc:   captchaSvc,
		accessTTL:    accessTTL,
	}
}

func (af *StaffAuthFlowImpl) InitCaptcha(ctx context.Context) (*dto.StaffCaptchaInitResponse, error) {
	if af.captchaSvc == nil {
		return nil, NewBusinessError("CAPTCHA_NOT_AVAILABLE", "Captcha service not available", ErrInvalidCaptcha)
	}
	ch, err := af.captchaSvc.GenerateRotate(ctx)
	if err != nil {
		return nil, NewBusinessError("CAPTCHA_INIT_FAILED", "Failed to initialize captcha", err)
	}
	return &dto.StaffCaptchaInitResponse{
		ChallengeID:       ch.ID,
		MasterImageBase64: ch.MasterImageBase64,
		ThumbImageBase64:  ch.ThumbImageBase64,
		ExpiresAt:         ch.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}

func (af *StaffAuthFlowImpl) Login(ctx context.Context, req *dto.StaffLoginRequest, metadata *ClientMetadata) (resp *dto.StaffLoginResponse, err error) {
	defer func() {
		metrics.RecordAuthAttempt(err == nil)
	}()

	if req == nil || len(req.Username) == 0 || len(req.Password) == 0 {
		return nil, NewBusinessError("STAFF_LOGIN_VALIDATION_FAILED", "Staff login validation failed", ErrIncorrectPassword)
	}
	if len(req.ChallengeID) == 0 {
		return nil, NewBusinessError(CodeCaptchaInvalid, "Captcha challenge missing", ErrInvalidCaptcha)
	}

	// Verify captcha first
	if af.captchaSvc == nil || !af.captchaSvc.VerifyRotate(ctx, req.ChallengeID, req.UserAngle) {
		return nil, NewBusinessError(CodeCaptchaInvalid, "Captcha validation failed", ErrInvalidCaptcha)
	}

	staff, err := af.staffRepo.ByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, NewBusinessError("STAFF_LOOKUP_FAILED", "Failed to lookup staff", err)
	}
	if staff == nil {
		return nil, NewBusinessError(CodeStaffNotFound, "Staff not found", ErrStaffNotFound)
	}
	if !utils.IsTrue(staff.IsActive) {
		return nil, NewBusinessError(CodeStaffInactive, "Staff account is inactive", ErrStaffInactive)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(req.Password)); err != nil {
		return nil, NewBusinessError(CodeStaffIncorrectPassword, "Incorrect password", ErrIncorrectPassword)
	}

	accessToken, refreshToken, err := af.tokenService.GenerateStaffTokens(staff.ID)
	if err != nil {
		return nil, NewBusinessError(CodeTokenGenerationFailed, "Failed to generate tokens", err)
	}

	now := utils.UTCNow()
	if err := af.staffRepo.UpdateLastLogin(ctx, staff.ID, now); err != nil {
		log.Printf("staff auth: failed to record last login for %d: %v", staff.ID, err)
	} else {
		staff.LastLoginAt = &now
	}
	if metadata != nil {
		log.Printf("staff auth: %s logged in from %s", staff.Username, metadata.IPAddress)
	}

	return &dto.StaffLoginResponse{
		Staff:   ToStaffDTO(*staff),
		Session: ToStaffSessionDTO(accessToken, refreshToken, af.accessTTL),
	}, nil
}

func (af *StaffAuthFlowImpl) Refresh(ctx context.Context, req *dto.StaffRefreshRequest) (*dto.StaffSessionDTO, error) {
	if req == nil || req.RefreshToken == "" {
		return nil, NewBusinessError(CodeInvalidRefreshToken, "Refresh token is required", services.ErrTokenInvalid)
	}
	accessToken, refreshToken, err := af.tokenService.RefreshStaffToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError(CodeInvalidRefreshToken, "Invalid refresh token", err)
	}
	out := ToStaffSessionDTO(accessToken, refreshToken, af.accessTTL)
	return &out, nil
}

func (af *StaffAuthFlowImpl) Logout(ctx context.Context, accessToken string) error {
	if err := af.tokenService.RevokeToken(ctx, accessToken); err != nil {
		if errors.Is(err, services.ErrTokenExpired) {
			return nil
		}
		return NewBusinessError("STAFF_LOGOUT_FAILED", "Failed to revoke token", err)
	}
	return nil
}
