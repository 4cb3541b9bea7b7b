package console

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/myfamilydoc/go-console-client/transport"
)

// NotificationRequest targets a push notification at a user. Sending
// requires the ADMIN or DEV role.
type NotificationRequest struct {
	UserID int64          `json:"userId"`
	Title  string         `json:"title"`
	Body   string         `json:"body"`
	Data   map[string]any `json:"data,omitempty"`
}

// SendNotificationResult reports delivery fan-out.
type SendNotificationResult struct {
	Message      string `json:"message"`
	DevicesCount int    `json:"devicesCount"`
	UserID       int64  `json:"userId"`
}

// BadgeCount is the unread-notification counter shown in the console chrome.
type BadgeCount struct {
	UnreadCount int   `json:"unreadCount"`
	UserID      int64 `json:"userId,omitempty"`
}

// NotificationsService is the push notification API.
type NotificationsService struct {
	client *transport.Client
}

func NewNotificationsService(client *transport.Client) *NotificationsService {
	return &NotificationsService{client: client}
}

// Send pushes a notification to a specific user.
func (s *NotificationsService) Send(ctx context.Context, req NotificationRequest) (*SendNotificationResult, error) {
	var result SendNotificationResult
	if err := s.client.Call(ctx, http.MethodPost, "/api/v1/notifications/send", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SendToSelf sends a test notification to the calling user.
func (s *NotificationsService) SendToSelf(ctx context.Context, title, body string) (*SendNotificationResult, error) {
	query := url.Values{}
	query.Set("title", title)
	query.Set("body", body)

	var result SendNotificationResult
	path := "/api/v1/notifications/send-to-me?" + query.Encode()
	if err := s.client.Call(ctx, http.MethodPost, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Badge returns the calling user's unread counter.
func (s *NotificationsService) Badge(ctx context.Context) (*BadgeCount, error) {
	var badge BadgeCount
	if err := s.client.Call(ctx, http.MethodGet, "/api/v1/notifications/badge", nil, &badge); err != nil {
		return nil, err
	}
	return &badge, nil
}

// BadgeFor returns a specific user's unread counter (ADMIN, DEV, or self).
func (s *NotificationsService) BadgeFor(ctx context.Context, userID int64) (*BadgeCount, error) {
	var badge BadgeCount
	path := fmt.Sprintf("/api/v1/notifications/user/%d/badge", userID)
	if err := s.client.Call(ctx, http.MethodGet, path, nil, &badge); err != nil {
		return nil, err
	}
	return &badge, nil
}
