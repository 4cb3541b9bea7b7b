package console

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/myfamilydoc/go-console-client/transport"
)

// TelegramStatus is the delivery state of an outbound Telegram message.
type TelegramStatus string

const (
	TelegramSent    TelegramStatus = "SENT"
	TelegramFailed  TelegramStatus = "FAILED"
	TelegramPending TelegramStatus = "PENDING"
)

// TelegramMessage is one entry in the admin Telegram outbox.
type TelegramMessage struct {
	ID                string         `json:"id"`
	BotToken          string         `json:"botToken"`
	ChatID            string         `json:"chatId"`
	Message           string         `json:"message"`
	Status            TelegramStatus `json:"status"`
	TelegramMessageID *int64         `json:"telegramMessageId,omitempty"`
	SentAt            *time.Time     `json:"sentAt,omitempty"`
	ErrorMessage      string         `json:"errorMessage,omitempty"`
	CreatedBy         string         `json:"createdBy"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// TelegramSendRequest queues a message for delivery.
type TelegramSendRequest struct {
	BotToken string `json:"botToken"`
	ChatID   string `json:"chatId"`
	Message  string `json:"message"`
}

// TelegramStats summarizes the outbox.
type TelegramStats struct {
	Total   int `json:"total"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
}

// TelegramService is the admin Telegram sender API.
type TelegramService struct {
	client *transport.Client
}

func NewTelegramService(client *transport.Client) *TelegramService {
	return &TelegramService{client: client}
}

// Send queues a Telegram message.
func (s *TelegramService) Send(ctx context.Context, req TelegramSendRequest) (*TelegramMessage, error) {
	var message TelegramMessage
	if err := s.client.Call(ctx, http.MethodPost, "/admin/telegram/send", req, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// Messages lists the outbox.
func (s *TelegramService) Messages(ctx context.Context) ([]TelegramMessage, error) {
	var messages []TelegramMessage
	if err := s.client.Call(ctx, http.MethodGet, "/admin/telegram/messages", nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// Stats summarizes the outbox.
func (s *TelegramService) Stats(ctx context.Context) (*TelegramStats, error) {
	var stats TelegramStats
	if err := s.client.Call(ctx, http.MethodGet, "/admin/telegram/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Retry re-queues a failed message.
func (s *TelegramService) Retry(ctx context.Context, id string) error {
	path := fmt.Sprintf("/admin/telegram/messages/%s/retry", id)
	return s.client.Call(ctx, http.MethodPost, path, nil, nil)
}

// Delete removes a message from the outbox.
func (s *TelegramService) Delete(ctx context.Context, id string) error {
	path := fmt.Sprintf("/admin/telegram/messages/%s", id)
	return s.client.Call(ctx, http.MethodDelete, path, nil, nil)
}
