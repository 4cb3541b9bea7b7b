package transport

import (
	"context"
	"sync"
	"time"

	"github.com/myfamilydoc/go-console-client/apierror"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// refreshTimeout bounds the refresh call itself. The call is detached from
// the triggering request's cancellation so one canceled caller cannot fail
// every queued waiter.
const refreshTimeout = 30 * time.Second

// RefreshFunc exchanges a refresh token for a new credential pair. It must
// not route through the authenticated client, or an expired session would
// recurse into itself.
type RefreshFunc func(ctx context.Context, refreshToken string) (*oauth2.Token, error)

// TokenStore is the credential persistence the Refresher drives.
type TokenStore interface {
	RefreshToken() (string, bool)
	SetPair(pair *oauth2.Token)
	Clear()
}

// refreshState is the Refresher's two-state machine. Holding the state as an
// enum plus a typed waiter queue makes the single-refresh-in-flight
// invariant structural rather than conventional.
type refreshState int

const (
	stateIdle refreshState = iota
	stateRefreshing
)

// outcome is what every waiter of one refresh episode observes. All waiters
// queued during an episode receive that episode's outcome and nothing else.
type outcome struct {
	accessToken string
	err         error
}

// Refresher serializes token refreshes: the first caller that observes an
// expired session performs the refresh, concurrent callers are suspended as
// waiters and resumed with the in-flight result.
type Refresher struct {
	mu      sync.Mutex
	state   refreshState
	waiters []chan outcome

	tokens       TokenStore
	refresh      RefreshFunc
	onSessionEnd func()
	log          zerolog.Logger
}

// RefresherOption defines a function type to modify the Refresher instance.
type RefresherOption func(*Refresher)

// WithSessionEndedHook registers the callback fired when the session is
// unrecoverable (no refresh token, or the refresh itself was rejected).
func WithSessionEndedHook(hook func()) RefresherOption {
	return func(r *Refresher) {
		r.onSessionEnd = hook
	}
}

func NewRefresher(tokens TokenStore, refresh RefreshFunc, log zerolog.Logger, options ...RefresherOption) *Refresher {
	r := &Refresher{
		state:   stateIdle,
		tokens:  tokens,
		refresh: refresh,
		log:     log,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Token returns a fresh access token, refreshing at most once regardless of
// how many callers arrive concurrently. Callers whose episode fails receive
// a terminal refresh error and the session is ended.
func (r *Refresher) Token(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.state == stateRefreshing {
		ch := make(chan outcome, 1)
		r.waiters = append(r.waiters, ch)
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", apierror.From(ctx.Err())
		case result := <-ch:
			return result.accessToken, result.err
		}
	}
	r.state = stateRefreshing
	r.mu.Unlock()

	result := r.doRefresh(ctx)

	r.mu.Lock()
	waiters := r.waiters
	r.waiters = nil
	r.state = stateIdle
	r.mu.Unlock()

	// The queue was emptied atomically above: every waiter belongs to the
	// episode that just resolved, none can observe a later one.
	for _, ch := range waiters {
		ch <- result
	}
	return result.accessToken, result.err
}

func (r *Refresher) doRefresh(ctx context.Context) outcome {
	refreshToken, ok := r.tokens.RefreshToken()
	if !ok {
		r.log.Warn().Msg("session expired with no refresh token")
		r.endSession()
		return outcome{err: apierror.RefreshFailed(apierror.ErrNoRefreshToken)}
	}

	refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
	defer cancel()

	pair, err := r.refresh(refreshCtx, refreshToken)
	if err != nil {
		r.log.Warn().Err(err).Msg("token refresh rejected, ending session")
		r.endSession()
		return outcome{err: apierror.RefreshFailed(err)}
	}

	r.tokens.SetPair(pair)
	r.log.Debug().Msg("token refresh succeeded")
	return outcome{accessToken: pair.AccessToken}
}

func (r *Refresher) endSession() {
	r.tokens.Clear()
	if r.onSessionEnd != nil {
		r.onSessionEnd()
	}
}
