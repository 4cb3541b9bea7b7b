package console_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/myfamilydoc/go-console-client/console"
	"github.com/myfamilydoc/go-console-client/session"
	"github.com/myfamilydoc/go-console-client/store"
	"github.com/stretchr/testify/require"
)

// testConfig satisfies config.Config without touching the process env.
type testConfig struct {
	baseURL string
}

func (c testConfig) GetBaseURL() string      { return c.baseURL }
func (c testConfig) GetAppName() string      { return "Test Console" }
func (c testConfig) GetHTTPTimeout() string  { return "5s" }
func (c testConfig) GetStateFile() string    { return "unused.json" }
func (c testConfig) GetCaptchaToken() string { return "captcha-fixed" }
func (c testConfig) GetEnv() string          { return "TEST" }

func TestNew_WiresFullStack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "OTP sent"})
		case "/auth/verify-otp":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data": map[string]any{
					"token":  "issued-token",
					"email":  "admin@example.com",
					"userId": 7,
					"roles":  []string{"ROLE_ADMIN"},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	app, err := console.New(testConfig{baseURL: server.URL},
		console.WithStateStore(store.NewInMemoryStore()))
	require.NoError(t, err)
	require.NotNil(t, app.Session)
	require.NotNil(t, app.Auth)
	require.NotNil(t, app.Users)
	require.NotNil(t, app.GDPR)
	require.NotNil(t, app.Health)

	ctx := context.Background()
	require.NoError(t, app.Session.Login(ctx, "admin@example.com", "password123"))
	require.NoError(t, app.Session.VerifyOTP(ctx, "123456"))

	snap := app.Session.Snapshot()
	require.Equal(t, session.PhaseAuthenticated, snap.Phase)

	access, ok := app.Tokens.AccessToken()
	require.True(t, ok)
	require.Equal(t, "issued-token", access)
}

func TestNew_RejectsBadTimeout(t *testing.T) {
	bad := badTimeoutConfig{testConfig{baseURL: "http://localhost"}}

	_, err := console.New(bad, console.WithStateStore(store.NewInMemoryStore()))
	require.Error(t, err)
}

type badTimeoutConfig struct{ testConfig }

func (badTimeoutConfig) GetHTTPTimeout() string { return "not-a-duration" }
