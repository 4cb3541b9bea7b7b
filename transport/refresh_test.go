package transport_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/myfamilydoc/go-console-client/apierror"
	"github.com/myfamilydoc/go-console-client/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeTokenStore implements both the Refresher's TokenStore and the Client's
// TokenSource.
type fakeTokenStore struct {
	mu      sync.Mutex
	access  string
	refresh string
	cleared int
}

func (f *fakeTokenStore) AccessToken() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.access, f.access != ""
}

func (f *fakeTokenStore) RefreshToken() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refresh, f.refresh != ""
}

func (f *fakeTokenStore) SetPair(pair *oauth2.Token) {
	if pair == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access = pair.AccessToken
	if pair.RefreshToken != "" {
		f.refresh = pair.RefreshToken
	}
}

func (f *fakeTokenStore) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access = ""
	f.refresh = ""
	f.cleared++
}

func (f *fakeTokenStore) clearCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleared
}

func TestRefresher_SuccessPersistsPair(t *testing.T) {
	tokens := &fakeTokenStore{access: "stale", refresh: "refresh-1"}
	refresh := func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		require.Equal(t, "refresh-1", refreshToken)
		return &oauth2.Token{AccessToken: "fresh", RefreshToken: "refresh-2"}, nil
	}
	r := transport.NewRefresher(tokens, refresh, zerolog.Nop())

	got, err := r.Token(context.Background())

	require.NoError(t, err)
	require.Equal(t, "fresh", got)

	access, ok := tokens.AccessToken()
	require.True(t, ok)
	require.Equal(t, "fresh", access)
	rotated, ok := tokens.RefreshToken()
	require.True(t, ok)
	require.Equal(t, "refresh-2", rotated)
}

func TestRefresher_SingleRefreshForConcurrentCallers(t *testing.T) {
	const concurrent = 8

	tokens := &fakeTokenStore{refresh: "refresh-1"}
	var refreshCalls int32
	started := make(chan struct{})
	release := make(chan struct{})
	refresh := func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		if atomic.AddInt32(&refreshCalls, 1) == 1 {
			close(started)
		}
		<-release
		return &oauth2.Token{AccessToken: "fresh"}, nil
	}
	r := transport.NewRefresher(tokens, refresh, zerolog.Nop())

	results := make(chan string, concurrent)
	fail := make(chan error, concurrent)
	call := func() {
		got, err := r.Token(context.Background())
		if err != nil {
			fail <- err
			return
		}
		results <- got
	}

	go call()
	<-started

	// Everyone arriving while the first refresh is in flight must queue
	// behind it instead of starting their own.
	for i := 1; i < concurrent; i++ {
		go call()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)

	for i := 0; i < concurrent; i++ {
		select {
		case got := <-results:
			require.Equal(t, "fresh", got)
		case err := <-fail:
			t.Fatalf("unexpected refresh error: %v", err)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for refresh callers")
		}
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
}

func TestRefresher_FailureFailsEveryCaller(t *testing.T) {
	const concurrent = 4

	tokens := &fakeTokenStore{refresh: "refresh-1"}
	var sessionEnded int32
	started := make(chan struct{})
	release := make(chan struct{})
	refresh := func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		close(started)
		<-release
		return nil, errors.New("refresh token revoked")
	}
	r := transport.NewRefresher(tokens, refresh, zerolog.Nop(),
		transport.WithSessionEndedHook(func() { atomic.AddInt32(&sessionEnded, 1) }))

	failures := make(chan error, concurrent)
	go func() {
		_, err := r.Token(context.Background())
		failures <- err
	}()
	<-started
	for i := 1; i < concurrent; i++ {
		go func() {
			_, err := r.Token(context.Background())
			failures <- err
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)

	for i := 0; i < concurrent; i++ {
		select {
		case err := <-failures:
			require.Error(t, err)
			require.ErrorIs(t, err, apierror.ErrRefreshFailed)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for refresh callers")
		}
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&sessionEnded))
	require.Equal(t, 1, tokens.clearCount())
}

func TestRefresher_NoRefreshTokenEndsSession(t *testing.T) {
	tokens := &fakeTokenStore{}
	var sessionEnded, refreshCalls int
	refresh := func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		refreshCalls++
		return &oauth2.Token{AccessToken: "fresh"}, nil
	}
	r := transport.NewRefresher(tokens, refresh, zerolog.Nop(),
		transport.WithSessionEndedHook(func() { sessionEnded++ }))

	_, err := r.Token(context.Background())

	require.Error(t, err)
	require.ErrorIs(t, err, apierror.ErrRefreshFailed)
	require.Zero(t, refreshCalls)
	require.Equal(t, 1, sessionEnded)
	require.Equal(t, 1, tokens.clearCount())
}

// A completed episode resets the refresher: a later expiry starts a new
// refresh instead of replaying the old outcome.
func TestRefresher_SequentialEpisodes(t *testing.T) {
	tokens := &fakeTokenStore{refresh: "refresh-1"}
	calls := 0
	refresh := func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		calls++
		return &oauth2.Token{AccessToken: "fresh"}, nil
	}
	r := transport.NewRefresher(tokens, refresh, zerolog.Nop())

	_, err := r.Token(context.Background())
	require.NoError(t, err)
	_, err = r.Token(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, calls)
}

func TestRefresher_WaiterHonorsContextCancellation(t *testing.T) {
	tokens := &fakeTokenStore{refresh: "refresh-1"}
	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	refresh := func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		close(started)
		<-release
		return &oauth2.Token{AccessToken: "fresh"}, nil
	}
	r := transport.NewRefresher(tokens, refresh, zerolog.Nop())

	go func() { _, _ = r.Token(context.Background()) }()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Token(ctx)

	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}
