package dto

// StaffCaptchaInitResponse carries a rotate captcha challenge
type StaffCaptchaInitResponse struct {
	ChallengeID       string `json:"challenge_id"`
	MasterImageBase64 string `json:"master_image_base64"`
	ThumbImageBase64  string `json:"thumb_image_base64"`
	ExpiresAt         string `json:"expires_at"`
}

// StaffLoginRequest authenticates a dashboard user
type StaffLoginRequest struct {
	ChallengeID string  `json:"challenge_id" validate:"required"`
	Username    string  `json:"username" validate:"required,min=3,max=255"`
	Password    string  `json:"password" validate:"required,min=8,max=100"`
	UserAngle   float64 `json:"user_angle"`
}

// StaffRefreshRequest exchanges a refresh token for a new pair
type StaffRefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// StaffDTO is the public view of a staff account
type StaffDTO struct {
	ID          uint    `json:"id"`
	UUID        string  `json:"uuid"`
	Username    string  `json:"username"`
	LastLoginAt *string `json:"last_login_at,omitempty"`
}

// StaffSessionDTO holds issued tokens
type StaffSessionDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type" example:"Bearer"`
	ExpiresIn    int    `json:"expires_in" example:"43200"`
}

// StaffLoginResponse is returned by a successful login
type StaffLoginResponse struct {
	Staff   StaffDTO        `json:"staff"`
	Session StaffSessionDTO `json:"session"`
}
