package token

import (
	"strconv"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/myfamilydoc/go-console-client/apierror"
	"github.com/myfamilydoc/go-console-client/identity"
	"github.com/myfamilydoc/go-console-client/internal/utils"
	"github.com/pkg/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Expiry recomputes a token's expiry from its embedded exp claim. The expiry
// is never trusted from caller-supplied state, which keeps clock-skew bugs
// out of the staleness decision. The signature is not verified here: the
// backend is the authority on token validity, the client only needs the
// claims it issued.
func Expiry(raw string) (time.Time, error) {
	claims, err := parseClaims(raw)
	if err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, errors.Wrap(apierror.ErrInvalidToken, "[Expiry] missing exp claim")
	}
	return exp.Time, nil
}

// IsExpired reports whether a token's exp claim is in the past. Any decode
// failure counts as expired. Fail-closed: a malformed token must never be
// classified as still valid.
func IsExpired(raw string) bool {
	exp, err := Expiry(raw)
	if err != nil {
		return true
	}
	return !NowTimeFunc().Before(exp)
}

// Claims is the subset of the backend's JWT payload the client reads.
type Claims struct {
	UserID string
	Email  string
	Roles  []string
	Issued time.Time
}

// Identity builds the identity the claims describe, deriving the role from
// the roles list (least privilege when absent).
func (c Claims) Identity() *identity.Identity {
	return &identity.Identity{
		ID:    c.UserID,
		Email: c.Email,
		Role:  identity.RoleFromClaims(c.Roles),
	}
}

// Decode extracts the client-relevant claims from a raw JWT without
// verifying its signature.
func Decode(raw string) (*Claims, error) {
	mapClaims, err := parseClaims(raw)
	if err != nil {
		return nil, err
	}

	out := &Claims{}
	if sub, _ := mapClaims["sub"].(string); sub != "" {
		out.UserID = sub
	}
	// The backend issues a numeric userId claim alongside the standard sub.
	if userID, ok := mapClaims["userId"]; ok {
		switch v := userID.(type) {
		case string:
			out.UserID = v
		case float64:
			out.UserID = strconv.FormatInt(int64(v), 10)
		}
	}
	if email, _ := mapClaims["email"].(string); email != "" {
		out.Email = email
	} else if out.Email == "" {
		out.Email, _ = mapClaims["sub"].(string)
	}
	if claimRoles, ok := mapClaims["roles"].([]any); ok {
		out.Roles = utils.ToStringSlice(claimRoles)
	}
	if iat, ok := mapClaims["iat"].(float64); ok {
		out.Issued = time.Unix(int64(iat), 0)
	}
	return out, nil
}

func parseClaims(raw string) (jwtlib.MapClaims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.Wrap(apierror.ErrInvalidToken, "[parseClaims] empty token")
	}
	parsed, _, err := jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		return nil, errors.Wrap(apierror.ErrInvalidToken, err.Error())
	}
	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.Wrap(apierror.ErrInvalidToken, "[parseClaims] error extracting claims")
	}
	return claims, nil
}
