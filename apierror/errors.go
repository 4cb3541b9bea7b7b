// Package apierror defines the classified error structure that crosses from
// the transport layer into UI-facing code. Raw transport errors never escape
// this boundary: callers always receive an *Error (or a sentinel wrapped into
// one) with a normalized message, code and status code.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Common error conditions for the session lifecycle
var (
	// Token errors
	ErrNoToken        = errors.New("no token available")
	ErrNoRefreshToken = errors.New("no refresh token available")
	ErrInvalidToken   = errors.New("invalid token")

	// Session errors
	ErrAuthExpired   = errors.New("authentication expired")
	ErrRefreshFailed = errors.New("session refresh failed")
	ErrSessionEnded  = errors.New("session ended")

	// Request errors
	ErrInvalidRequest = errors.New("invalid request")
)

// Well-known error codes surfaced to callers.
const (
	CodeNetwork      = "NETWORK_ERROR"
	CodeUnknown      = "UNKNOWN_ERROR"
	CodeNoToken      = "NO_TOKEN"
	CodeInvalidToken = "INVALID_TOKEN"
	CodeAuthExpired  = "AUTH_EXPIRED"
	CodeRefreshFail  = "REFRESH_FAILED"
)

// Error is the normalized failure shape handed to UI-facing code.
type Error struct {
	Message    string `json:"message"`
	Code       string `json:"code,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	Field      string `json:"field,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap exposes the underlying cause (if any) to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// New builds a classified Error around an underlying cause, which stays
// reachable through errors.Is / errors.As.
func New(cause error, message, code string, statusCode int) *Error {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &Error{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		cause:      cause,
	}
}

// Network builds an Error for a request that never reached the server.
func Network(cause error) *Error {
	return &Error{
		Message:    "Network error. Please check your connection.",
		Code:       CodeNetwork,
		StatusCode: 0,
		cause:      cause,
	}
}

// Unknown builds an Error for failures outside the HTTP taxonomy.
func Unknown(cause error) *Error {
	msg := "An unexpected error occurred"
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Message: msg, Code: CodeUnknown, cause: cause}
}

// AuthExpired marks a request whose replayed attempt was rejected again.
func AuthExpired() *Error {
	return &Error{
		Message:    ErrAuthExpired.Error(),
		Code:       CodeAuthExpired,
		StatusCode: http.StatusUnauthorized,
		cause:      ErrAuthExpired,
	}
}

// RefreshFailed marks a terminal refresh outcome that forces a full logout.
func RefreshFailed(cause error) *Error {
	if cause == nil {
		cause = ErrRefreshFailed
	}
	return &Error{
		Message:    ErrRefreshFailed.Error(),
		Code:       CodeRefreshFail,
		StatusCode: http.StatusUnauthorized,
		cause:      fmt.Errorf("%w: %v", ErrRefreshFailed, cause),
	}
}

// serverErrorBody is the error payload shape the backend returns.
type serverErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Field   string `json:"field"`
}

// FromResponse builds an Error from a non-2xx HTTP response, preferring the
// server-supplied message when one is present. The response body is consumed.
func FromResponse(resp *http.Response) *Error {
	apiErr := &Error{
		Message:    "An unexpected error occurred",
		Code:       fmt.Sprintf("HTTP_%d", resp.StatusCode),
		StatusCode: resp.StatusCode,
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var parsed serverErrorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return apiErr
	}
	if parsed.Message != "" {
		apiErr.Message = parsed.Message
	} else if parsed.Error != "" {
		apiErr.Message = parsed.Error
	}
	if parsed.Code != "" {
		apiErr.Code = parsed.Code
	}
	apiErr.Field = parsed.Field
	return apiErr
}

// From normalizes any error into an *Error. Existing *Error values pass
// through unchanged so classification survives wrapping layers.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Unknown(err)
}

// RetryableStatus reports whether an HTTP status code may be retried.
// Client errors are terminal except 429, which signals rate limiting.
func RetryableStatus(status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	if status >= 400 && status < 500 {
		return false
	}
	return status >= 500
}
