// Package token owns the client's bearer credential pair: persistence under
// the fixed storage keys and expiry decisions derived from the token itself.
package token

import (
	"github.com/myfamilydoc/go-console-client/store"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Store persists and retrieves the access/refresh token pair. It mirrors the
// contract of the underlying state store: reads never fail (absent instead),
// write problems are logged and swallowed so callers stay exception-free.
type Store struct {
	state store.Store
	log   zerolog.Logger
}

func NewStore(state store.Store, log zerolog.Logger) *Store {
	return &Store{state: state, log: log}
}

// AccessToken returns the stored access token, or absent.
func (s *Store) AccessToken() (string, bool) {
	v, ok := s.state.Get(store.KeyAccessToken)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// RefreshToken returns the stored refresh token, or absent.
func (s *Store) RefreshToken() (string, bool) {
	v, ok := s.state.Get(store.KeyRefreshToken)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// SetAccessToken overwrites the access token unconditionally.
func (s *Store) SetAccessToken(tok string) {
	if err := s.state.Set(store.KeyAccessToken, tok); err != nil {
		s.log.Error().Err(err).Msg("failed storing access token")
	}
}

// SetPair overwrites both tokens. A pair with an empty refresh token keeps
// the previously stored refresh token, matching the backend's rotation
// behavior where refresh responses may omit it.
func (s *Store) SetPair(pair *oauth2.Token) {
	if pair == nil {
		return
	}
	s.SetAccessToken(pair.AccessToken)
	if pair.RefreshToken == "" {
		return
	}
	if err := s.state.Set(store.KeyRefreshToken, pair.RefreshToken); err != nil {
		s.log.Error().Err(err).Msg("failed storing refresh token")
	}
}

// Clear removes both tokens. Idempotent.
func (s *Store) Clear() {
	if err := s.state.Delete(store.KeyAccessToken); err != nil {
		s.log.Error().Err(err).Msg("failed clearing access token")
	}
	if err := s.state.Delete(store.KeyRefreshToken); err != nil {
		s.log.Error().Err(err).Msg("failed clearing refresh token")
	}
}
