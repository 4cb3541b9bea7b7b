// Package console assembles the MyFamilyDoc console client: the transport
// gateway with retry and refresh wired in, the session state machine, and
// the typed service wrappers for the backend's admin surface.
package console

import (
	"net/http"
	"time"

	"github.com/myfamilydoc/go-console-client/authclient"
	"github.com/myfamilydoc/go-console-client/gdpr"
	"github.com/myfamilydoc/go-console-client/internal/config"
	"github.com/myfamilydoc/go-console-client/session"
	"github.com/myfamilydoc/go-console-client/store"
	"github.com/myfamilydoc/go-console-client/token"
	"github.com/myfamilydoc/go-console-client/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Console bundles every service the client exposes.
type Console struct {
	Session       *session.Manager
	Auth          *authclient.Service
	Users         *UsersService
	Notifications *NotificationsService
	Messages      *MessagesService
	Telegram      *TelegramService
	GDPR          *gdpr.Service
	Health        *HealthService

	Tokens *token.Store
	State  store.Store
}

// Option defines a function type to modify console assembly.
type Option func(*settings)

type settings struct {
	state      store.Store
	httpClient *http.Client
	log        zerolog.Logger
}

// WithStateStore overrides the persisted state backend (file store from the
// configured path by default).
func WithStateStore(s store.Store) Option {
	return func(cfg *settings) {
		cfg.state = s
	}
}

// WithHTTPClient overrides the outbound HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(cfg *settings) {
		cfg.httpClient = hc
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(log zerolog.Logger) Option {
	return func(cfg *settings) {
		cfg.log = log
	}
}

// New wires the full client for the configured backend.
func New(cfg config.Config, options ...Option) (*Console, error) {
	s := &settings{log: zerolog.Nop()}
	for _, opt := range options {
		opt(s)
	}

	if s.state == nil {
		s.state = store.NewFileStore(cfg.GetStateFile(), s.log)
	}
	if s.httpClient == nil {
		timeout, err := time.ParseDuration(cfg.GetHTTPTimeout())
		if err != nil {
			return nil, errors.Wrap(err, "[console.New] invalid HTTP_TIMEOUT")
		}
		s.httpClient = &http.Client{Timeout: timeout}
	}

	tokens := token.NewStore(s.state, s.log)

	// The refresher and the session manager reference each other through
	// the session-ended hook, so the hook indirects through a late-bound
	// manager pointer.
	var manager *session.Manager
	refresher := transport.NewRefresher(
		tokens,
		authclient.NewRefreshFunc(cfg.GetBaseURL(), s.httpClient),
		s.log,
		transport.WithSessionEndedHook(func() {
			if manager != nil {
				manager.SessionEnded()
			}
		}),
	)

	client, err := transport.NewClient(
		cfg.GetBaseURL(),
		tokens,
		transport.WithHTTPClient(s.httpClient),
		transport.WithRefresher(refresher),
		transport.WithLogger(s.log),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[console.New] transport client")
	}

	auth, err := authclient.NewService(
		client,
		authclient.WithCaptchaToken(cfg.GetCaptchaToken()),
		authclient.WithLogger(s.log),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[console.New] auth service")
	}

	manager, err = session.NewManager(auth, tokens, session.WithLogger(s.log))
	if err != nil {
		return nil, errors.Wrap(err, "[console.New] session manager")
	}

	consent := gdpr.NewConsentStore(s.state, s.log)

	return &Console{
		Session:       manager,
		Auth:          auth,
		Users:         NewUsersService(client),
		Notifications: NewNotificationsService(client),
		Messages:      NewMessagesService(client),
		Telegram:      NewTelegramService(client),
		GDPR:          gdpr.NewService(client, consent, s.log),
		Health:        NewHealthService(client),
		Tokens:        tokens,
		State:         s.state,
	}, nil
}
