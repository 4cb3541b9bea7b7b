// Package authclient wraps the backend's authentication endpoints: two-step
// login (password then OTP), token refresh, logout and the password
// lifecycle. Session state transitions live in the session package; this
// layer only talks to the wire.
package authclient

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/myfamilydoc/go-console-client/apierror"
	"github.com/myfamilydoc/go-console-client/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var (
	LoginRejectedErr = errors.New("login rejected")
	OTPRejectedErr   = errors.New("one-time code rejected")
	EmptyTokenErr    = errors.New("backend returned no token")
)

// ValidationErrCode marks payloads rejected before they left the client.
const ValidationErrCode = "VALIDATION_ERROR"

// Service calls the backend auth endpoints through the transport gateway.
type Service struct {
	client   *transport.Client
	validate *validator.Validate
	captcha  string
	log      zerolog.Logger
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithCaptchaToken sets the captcha token the backend requires on the OTP
// verification call.
func WithCaptchaToken(tok string) ServiceOption {
	return func(s *Service) {
		s.captcha = tok
	}
}

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

func NewService(client *transport.Client, options ...ServiceOption) (*Service, error) {
	if client == nil {
		return nil, errors.New("[NewService] transport client is required")
	}
	s := &Service{
		client:   client,
		validate: validator.New(),
		log:      zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Login performs the first factor. On success the backend has dispatched an
// OTP out-of-band and the caller must complete verification.
func (s *Service) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	if err := s.validateRequest(creds); err != nil {
		return nil, err
	}

	var env envelope
	if err := s.client.Call(ctx, http.MethodPost, "/auth/login", creds, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, s.rejected(LoginRejectedErr, env.Message)
	}
	return &LoginResult{
		RequiresOTP: true,
		Email:       creds.Email,
		Message:     env.Message,
	}, nil
}

// RequestOTP asks the backend to resend the one-time code.
func (s *Service) RequestOTP(ctx context.Context, req OTPRequest) error {
	if err := s.validateRequest(req); err != nil {
		return err
	}
	var env envelope
	if err := s.client.Call(ctx, http.MethodPost, "/auth/otp/request", req, &env); err != nil {
		return err
	}
	if !env.Success {
		return s.rejected(OTPRejectedErr, env.Message)
	}
	return nil
}

// VerifyOTP completes the second factor and returns the issued token plus
// the server-supplied identity material.
func (s *Service) VerifyOTP(ctx context.Context, verification OTPVerification) (*VerifyResult, error) {
	if verification.CaptchaToken == "" {
		verification.CaptchaToken = s.captcha
	}
	if err := s.validateRequest(verification); err != nil {
		return nil, err
	}

	var env envelope
	if err := s.client.Call(ctx, http.MethodPost, "/auth/verify-otp", verification, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, s.rejected(OTPRejectedErr, env.Message)
	}

	var data verifyData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, apierror.Unknown(errors.Wrap(err, "[Service.VerifyOTP] decode verify payload"))
	}
	if data.Token == "" {
		return nil, apierror.Unknown(EmptyTokenErr)
	}
	return &VerifyResult{
		Token:   data.Token,
		Email:   data.Email,
		UserID:  data.UserID.String(),
		Roles:   data.Roles,
		Message: env.Message,
	}, nil
}

// Logout tells the backend the session is over. Best-effort: the caller
// clears local state regardless of the outcome here.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.client.Call(ctx, http.MethodPost, "/auth/logout", struct{}{}, nil); err != nil {
		s.log.Warn().Err(err).Msg("server-side logout failed, clearing locally anyway")
		return err
	}
	return nil
}

// RequestPasswordReset starts the reset flow for an email address.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	req := struct {
		Email string `json:"email" validate:"required,email"`
	}{Email: email}
	if err := s.validateRequest(req); err != nil {
		return err
	}
	return s.client.Call(ctx, http.MethodPost, "/auth/password-reset/request", req, nil)
}

// ConfirmPasswordReset completes the reset flow with the emailed token.
func (s *Service) ConfirmPasswordReset(ctx context.Context, reset PasswordReset) error {
	if err := s.validateRequest(reset); err != nil {
		return err
	}
	return s.client.Call(ctx, http.MethodPost, "/auth/password-reset/confirm", reset, nil)
}

// ChangePassword changes the authenticated user's password.
func (s *Service) ChangePassword(ctx context.Context, change PasswordChange) error {
	if err := s.validateRequest(change); err != nil {
		return err
	}
	return s.client.Call(ctx, http.MethodPost, "/auth/password/change", change, nil)
}

// validateRequest rejects malformed payloads before they leave the client.
func (s *Service) validateRequest(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		return &apierror.Error{
			Message: first.Error(),
			Code:    ValidationErrCode,
			Field:   first.Field(),
		}
	}
	return apierror.Unknown(err)
}

// rejected normalizes a 200 envelope whose success flag is false.
func (s *Service) rejected(sentinel error, message string) *apierror.Error {
	return apierror.New(sentinel, message, "AUTH_REJECTED", http.StatusOK)
}
