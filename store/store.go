// Package store provides the client's persisted local state: access and
// refresh tokens, GDPR consent, theme preference and the optional OTP session
// marker all live under fixed keys in a single Store.
package store

// Well-known keys persisted by the console client.
const (
	KeyAccessToken  = "auth_token"
	KeyRefreshToken = "refresh_token"
	KeyConsent      = "gdpr_consent"
	KeyAuditLog     = "audit_log"
	KeyTheme        = "theme"
	KeyOTPSession   = "otp_session"
)

// Store is a small key-value abstraction over the local state file.
// Get never fails: implementations log read problems and report the key
// as absent instead of propagating errors to callers.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}
