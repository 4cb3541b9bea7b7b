package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/myfamilydoc/go-console-client/apierror"
	"github.com/myfamilydoc/go-console-client/transport"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// NewRefreshFunc builds the exchange the Refresher runs when a session
// expires. It posts directly with a bare HTTP client: the refresh call must
// never pass through the authenticated gateway, or an expired session would
// trigger a refresh of its own refresh.
func NewRefreshFunc(baseURL string, httpClient *http.Client) transport.RefreshFunc {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		payload, err := json.Marshal(struct {
			RefreshToken string `json:"refreshToken"`
		}{RefreshToken: refreshToken})
		if err != nil {
			return nil, errors.Wrap(err, "[RefreshFunc] marshal payload")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/auth/refresh", bytes.NewReader(payload))
		if err != nil {
			return nil, errors.Wrap(err, "[RefreshFunc] build request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := httpClient.Do(req)
		if err != nil {
			return nil, errors.Wrap(err, "[RefreshFunc] post /auth/refresh")
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, apierror.FromResponse(resp)
		}

		var data refreshData
		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			return nil, errors.Wrap(err, "[RefreshFunc] decode response")
		}
		if data.AccessToken == "" {
			return nil, errors.New("[RefreshFunc] backend returned no access token")
		}
		return &oauth2.Token{
			AccessToken:  data.AccessToken,
			RefreshToken: data.RefreshToken,
		}, nil
	}
}
