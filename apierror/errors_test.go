package apierror_test

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/myfamilydoc/go-console-client/apierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestRetryableStatus(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{status: http.StatusOK, retryable: false},
		{status: http.StatusBadRequest, retryable: false},
		{status: http.StatusUnauthorized, retryable: false},
		{status: http.StatusNotFound, retryable: false},
		{status: http.StatusTooManyRequests, retryable: true},
		{status: http.StatusInternalServerError, retryable: true},
		{status: http.StatusBadGateway, retryable: true},
		{status: http.StatusServiceUnavailable, retryable: true},
	}

	for _, tt := range tests {
		require.Equal(t, tt.retryable, apierror.RetryableStatus(tt.status), "status %d", tt.status)
	}
}

func TestFromResponse_ServerMessagePreferred(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusBadRequest,
		Body:       io.NopCloser(strings.NewReader(`{"message":"Invalid email","code":"BAD_INPUT","field":"email"}`)),
	}

	apiErr := apierror.FromResponse(resp)

	require.Equal(t, "Invalid email", apiErr.Message)
	require.Equal(t, "BAD_INPUT", apiErr.Code)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, "email", apiErr.Field)
}

func TestFromResponse_ErrorKeyFallback(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusConflict,
		Body:       io.NopCloser(strings.NewReader(`{"error":"already exists"}`)),
	}

	apiErr := apierror.FromResponse(resp)

	require.Equal(t, "already exists", apiErr.Message)
	require.Equal(t, "HTTP_409", apiErr.Code)
}

func TestFromResponse_UnparseableBody(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusInternalServerError,
		Body:       io.NopCloser(strings.NewReader("<html>gateway error</html>")),
	}

	apiErr := apierror.FromResponse(resp)

	require.Equal(t, "An unexpected error occurred", apiErr.Message)
	require.Equal(t, "HTTP_500", apiErr.Code)
	require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestFrom_PassesClassifiedErrorsThrough(t *testing.T) {
	original := apierror.AuthExpired()
	wrapped := errors.Wrap(original, "[caller] request failed")

	require.Same(t, original, apierror.From(wrapped))
	require.Nil(t, apierror.From(nil))
}

func TestRefreshFailed_KeepsSentinelReachable(t *testing.T) {
	err := apierror.RefreshFailed(errors.New("revoked"))

	require.ErrorIs(t, err, apierror.ErrRefreshFailed)
	require.Equal(t, apierror.CodeRefreshFail, err.Code)
	require.Equal(t, http.StatusUnauthorized, err.StatusCode)
}

func TestError_MessageFormat(t *testing.T) {
	withCode := &apierror.Error{Message: "boom", Code: "EXPLODED"}
	require.Equal(t, "EXPLODED: boom", withCode.Error())

	withoutCode := &apierror.Error{Message: "boom"}
	require.Equal(t, "boom", withoutCode.Error())
}
