package authclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/myfamilydoc/go-console-client/authclient"
	"github.com/stretchr/testify/require"
)

func TestRefreshFunc_ExchangesToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/refresh", r.URL.Path)
		// The refresh endpoint is unauthenticated: an expired bearer must
		// not be attached.
		require.Empty(t, r.Header.Get("Authorization"))

		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "refresh-1", body.RefreshToken)

		_ = json.NewEncoder(w).Encode(map[string]string{
			"accessToken":  "fresh",
			"refreshToken": "refresh-2",
		})
	}))
	defer server.Close()

	refresh := authclient.NewRefreshFunc(server.URL, server.Client())

	pair, err := refresh(context.Background(), "refresh-1")

	require.NoError(t, err)
	require.Equal(t, "fresh", pair.AccessToken)
	require.Equal(t, "refresh-2", pair.RefreshToken)
}

func TestRefreshFunc_RejectedExchange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"refresh token revoked"}`))
	}))
	defer server.Close()

	refresh := authclient.NewRefreshFunc(server.URL, server.Client())

	_, err := refresh(context.Background(), "revoked")
	require.Error(t, err)
	require.Contains(t, err.Error(), "refresh token revoked")
}

func TestRefreshFunc_EmptyAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": ""})
	}))
	defer server.Close()

	refresh := authclient.NewRefreshFunc(server.URL, server.Client())

	_, err := refresh(context.Background(), "refresh-1")
	require.Error(t, err)
}
