package console

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/myfamilydoc/go-console-client/identity"
	"github.com/myfamilydoc/go-console-client/transport"
)

// ManagedUser is the admin view of an account.
type ManagedUser struct {
	ID              string        `json:"id"`
	Username        string        `json:"username"`
	Email           string        `json:"email"`
	Role            identity.Role `json:"role"`
	Enabled         bool          `json:"enabled"`
	EmailVerified   bool          `json:"emailVerified"`
	OTPVerified     bool          `json:"otpVerified"`
	PushEnabled     bool          `json:"pushEnabled"`
	Anonymized      bool          `json:"anonymized"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
	LastLoginAt     *time.Time    `json:"lastLoginAt,omitempty"`
	LastLoginIP     string        `json:"lastLoginIp,omitempty"`
	EmailVerifiedAt *time.Time    `json:"emailVerifiedAt,omitempty"`
	DeletedAt       *time.Time    `json:"deletedAt,omitempty"`
}

// UserFilters narrows a user listing client-side.
type UserFilters struct {
	Search  string
	Role    identity.Role
	Enabled *bool
}

// UserStats aggregates a user listing.
type UserStats struct {
	Total        int `json:"total"`
	Active       int `json:"active"`
	Admins       int `json:"admins"`
	Devs         int `json:"devs"`
	Docs         int `json:"docs"`
	Patients     int `json:"patients"`
	NewThisMonth int `json:"newThisMonth"`
}

// UsersService is the admin user-management API.
type UsersService struct {
	client *transport.Client
}

func NewUsersService(client *transport.Client) *UsersService {
	return &UsersService{client: client}
}

// List returns the current page of users, filtered client-side.
func (s *UsersService) List(ctx context.Context, filters *UserFilters) ([]ManagedUser, error) {
	var users []ManagedUser
	if err := s.client.Call(ctx, http.MethodGet, "/api/v1/users", nil, &users); err != nil {
		return nil, err
	}
	return applyFilters(users, filters), nil
}

// ListAll returns every account, including disabled and anonymized ones.
func (s *UsersService) ListAll(ctx context.Context, filters *UserFilters) ([]ManagedUser, error) {
	var users []ManagedUser
	if err := s.client.Call(ctx, http.MethodGet, "/api/v1/users/all", nil, &users); err != nil {
		return nil, err
	}
	return applyFilters(users, filters), nil
}

// Stats aggregates the full listing into dashboard numbers.
func (s *UsersService) Stats(ctx context.Context) (*UserStats, error) {
	users, err := s.ListAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	return AggregateUserStats(users, time.Now()), nil
}

// AggregateUserStats computes listing statistics as of now.
func AggregateUserStats(users []ManagedUser, now time.Time) *UserStats {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	stats := &UserStats{Total: len(users)}
	for _, u := range users {
		if u.Enabled && u.DeletedAt == nil {
			stats.Active++
		}
		switch u.Role {
		case identity.RoleAdmin:
			stats.Admins++
		case identity.RoleDev:
			stats.Devs++
		case identity.RoleDoc:
			stats.Docs++
		case identity.RoleUser:
			stats.Patients++
		}
		if !u.CreatedAt.Before(monthStart) {
			stats.NewThisMonth++
		}
	}
	return stats
}

func applyFilters(users []ManagedUser, filters *UserFilters) []ManagedUser {
	if filters == nil {
		return users
	}
	filtered := make([]ManagedUser, 0, len(users))
	search := strings.ToLower(filters.Search)
	for _, u := range users {
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Username), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) &&
			!strings.Contains(strings.ToLower(u.ID), search) {
			continue
		}
		if filters.Role != "" && u.Role != filters.Role {
			continue
		}
		if filters.Enabled != nil && u.Enabled != *filters.Enabled {
			continue
		}
		filtered = append(filtered, u)
	}
	return filtered
}
