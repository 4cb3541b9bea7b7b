package authclient

import "encoding/json"

// Credentials is the first-factor login payload.
type Credentials struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required"`
	CaptchaToken string `json:"captchaToken,omitempty"`
}

// OTPRequest asks the backend to (re)send the one-time code.
type OTPRequest struct {
	Email     string `json:"email" validate:"required,email"`
	SessionID string `json:"sessionId,omitempty"`
}

// OTPVerification is the second-factor payload.
type OTPVerification struct {
	Email        string `json:"email" validate:"required,email"`
	OTP          string `json:"otp" validate:"required,len=6,numeric"`
	CaptchaToken string `json:"captchaToken" validate:"required"`
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// LoginResult reports the outcome of the first factor. A successful login
// always requires the OTP step before any tokens are issued.
type LoginResult struct {
	RequiresOTP bool
	Email       string
	Message     string
}

// verifyData is the payload inside a successful verify-otp envelope.
type verifyData struct {
	Token  string      `json:"token"`
	Email  string      `json:"email"`
	UserID json.Number `json:"userId"`
	Roles  []string    `json:"roles"`
}

// VerifyResult carries the issued credential and the server-supplied
// identity material.
type VerifyResult struct {
	Token   string
	Email   string
	UserID  string
	Roles   []string
	Message string
}

// refreshData is the body of a successful refresh response.
type refreshData struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// PasswordReset is the reset-confirmation payload.
type PasswordReset struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// PasswordChange is the authenticated password-change payload.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}
