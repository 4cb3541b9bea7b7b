package session

import (
	"context"
	"sync"

	"github.com/myfamilydoc/go-console-client/authclient"
	"github.com/myfamilydoc/go-console-client/identity"
	"github.com/myfamilydoc/go-console-client/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

var (
	NotAwaitingOTPErr = errors.New("no login awaiting verification")
	NoSessionErr      = errors.New("no stored session")
)

// AuthAPI is the slice of the auth service the Manager drives.
type AuthAPI interface {
	Login(ctx context.Context, creds authclient.Credentials) (*authclient.LoginResult, error)
	VerifyOTP(ctx context.Context, verification authclient.OTPVerification) (*authclient.VerifyResult, error)
	Logout(ctx context.Context) error
}

// TokenStore is the credential persistence the Manager writes on transitions.
type TokenStore interface {
	AccessToken() (string, bool)
	SetPair(pair *oauth2.Token)
	Clear()
}

// Manager is the session state machine. It is the single writer of the
// Session value; the mutex makes that contract hold even if callers use it
// from multiple goroutines.
type Manager struct {
	mu      sync.Mutex
	session Session

	api    AuthAPI
	tokens TokenStore
	log    zerolog.Logger
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager creates a session manager starting in the anonymous phase.
func NewManager(api AuthAPI, tokens TokenStore, options ...ManagerOption) (*Manager, error) {
	if api == nil {
		return nil, errors.New("[NewManager] auth API is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewManager] token store is required")
	}
	m := &Manager{
		session: Session{Phase: PhaseAnonymous},
		api:     api,
		tokens:  tokens,
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Snapshot returns a copy of the current session for readers. The identity
// is copied so callers cannot mutate the Manager's state.
func (m *Manager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.session
	if m.session.Identity != nil {
		ident := *m.session.Identity
		snap.Identity = &ident
	}
	return snap
}

// Login performs the first factor. On success the session enters the
// OTP-pending phase; on rejection it stays anonymous and the error carries
// the server-supplied message.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	result, err := m.api.Login(ctx, authclient.Credentials{Email: email, Password: password})
	if err != nil {
		return errors.Wrap(err, "[Manager.Login] first factor rejected")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = Session{
		Phase:             PhaseAwaitingOTP,
		PendingLoginEmail: result.Email,
	}
	m.log.Debug().Str("email", result.Email).Msg("login accepted, awaiting OTP")
	return nil
}

// VerifyOTP completes the second factor. An incorrect or expired code keeps
// the session in the OTP-pending phase; retries are unbounded at this layer.
func (m *Manager) VerifyOTP(ctx context.Context, otp string) error {
	m.mu.Lock()
	if m.session.Phase != PhaseAwaitingOTP {
		m.mu.Unlock()
		return NotAwaitingOTPErr
	}
	email := m.session.PendingLoginEmail
	m.mu.Unlock()

	result, err := m.api.VerifyOTP(ctx, authclient.OTPVerification{Email: email, OTP: otp})
	if err != nil {
		return errors.Wrap(err, "[Manager.VerifyOTP] verification rejected")
	}

	// The backend issues a single JWT that serves as both access and
	// refresh credential.
	m.tokens.SetPair(&oauth2.Token{
		AccessToken:  result.Token,
		RefreshToken: result.Token,
	})

	identEmail := result.Email
	if identEmail == "" {
		identEmail = email
	}
	ident := &identity.Identity{
		ID:    result.UserID,
		Email: identEmail,
		Role:  identity.RoleFromClaims(result.Roles),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = Session{
		Phase:    PhaseAuthenticated,
		Identity: ident,
	}
	m.log.Info().Str("role", string(ident.Role)).Msg("session authenticated")
	return nil
}

// Abandon backs out of a pending OTP step. No tokens were issued yet, so
// there is nothing to revoke.
func (m *Manager) Abandon() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.Phase != PhaseAwaitingOTP {
		return
	}
	m.session = Session{Phase: PhaseAnonymous}
}

// Logout ends the session. The server call is best-effort: local state is
// cleared unconditionally so the client never believes it is still
// authenticated after a logout.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.api.Logout(ctx); err != nil {
		m.log.Warn().Err(err).Msg("server logout failed, clearing local session anyway")
	}
	m.tokens.Clear()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = Session{Phase: PhaseAnonymous}
}

// SessionEnded resets to anonymous after an unrecoverable refresh failure.
// Wired as the Refresher's session-ended hook; tokens are already cleared
// by the time it fires.
func (m *Manager) SessionEnded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.Phase == PhaseAnonymous {
		return
	}
	m.log.Info().Msg("session ended by refresh failure")
	m.session = Session{Phase: PhaseAnonymous}
}

// Restore rebuilds the authenticated session from a stored, unexpired token,
// deriving the identity from the token claims. Used at process start.
func (m *Manager) Restore() error {
	raw, ok := m.tokens.AccessToken()
	if !ok {
		return NoSessionErr
	}
	if token.IsExpired(raw) {
		return errors.Wrap(NoSessionErr, "[Manager.Restore] stored token expired")
	}
	claims, err := token.Decode(raw)
	if err != nil {
		return errors.Wrap(err, "[Manager.Restore] stored token undecodable")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = Session{
		Phase:    PhaseAuthenticated,
		Identity: claims.Identity(),
	}
	return nil
}

// CurrentUser returns the authenticated identity, if any.
func (m *Manager) CurrentUser() (*identity.Identity, bool) {
	snap := m.Snapshot()
	if !snap.Authenticated() {
		return nil, false
	}
	return snap.Identity, true
}
