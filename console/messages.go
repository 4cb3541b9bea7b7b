package console

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/myfamilydoc/go-console-client/transport"
)

// Message is a doctor/patient message thread entry. JSON tags follow the
// backend's Italian field names.
type Message struct {
	ID          int64      `json:"id"`
	SenderID    int64      `json:"mittenteId"`
	RecipientID int64      `json:"destinatarioId"`
	SenderName  string     `json:"mittenteNome"`
	Subject     string     `json:"oggetto"`
	Content     string     `json:"contenuto"`
	Priority    bool       `json:"priorita"`
	Read        bool       `json:"letto"`
	SentAt      time.Time  `json:"dataInvio"`
	ReadAt      *time.Time `json:"dataLettura,omitempty"`
	ParentID    *int64     `json:"messaggioPadreId"`
	CreatedAt   time.Time  `json:"createdAt"`
	Replies     []Message  `json:"risposte,omitempty"`
}

// CreateMessage starts a new thread or adds to one.
type CreateMessage struct {
	SenderID    int64  `json:"mittenteId"`
	RecipientID int64  `json:"destinatarioId"`
	SenderName  string `json:"mittenteNome"`
	Subject     string `json:"oggetto"`
	Content     string `json:"contenuto"`
	Priority    bool   `json:"priorita"`
	ParentID    *int64 `json:"messaggioPadreId,omitempty"`
}

// ReplyMessage answers an existing thread.
type ReplyMessage struct {
	ParentID int64  `json:"messaggioPadreId"`
	SenderID int64  `json:"mittenteId"`
	Content  string `json:"contenuto"`
}

// MessagesService is the in-console messaging API.
type MessagesService struct {
	client *transport.Client
}

func NewMessagesService(client *transport.Client) *MessagesService {
	return &MessagesService{client: client}
}

// Inbox lists a recipient's messages.
func (s *MessagesService) Inbox(ctx context.Context, recipientID int64) ([]Message, error) {
	var messages []Message
	path := fmt.Sprintf("/api/v1/messaggi/destinatario/%d", recipientID)
	if err := s.client.Call(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// UnreadCount returns a recipient's unread total. The backend returns a bare
// number.
func (s *MessagesService) UnreadCount(ctx context.Context, recipientID int64) (int64, error) {
	var count int64
	path := fmt.Sprintf("/api/v1/messaggi/destinatario/%d/conteggio-non-letti", recipientID)
	if err := s.client.Call(ctx, http.MethodGet, path, nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// Send creates a new message.
func (s *MessagesService) Send(ctx context.Context, req CreateMessage) (*Message, error) {
	var message Message
	if err := s.client.Call(ctx, http.MethodPost, "/api/v1/messaggi", req, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// Reply answers an existing thread.
func (s *MessagesService) Reply(ctx context.Context, req ReplyMessage) (*Message, error) {
	var message Message
	if err := s.client.Call(ctx, http.MethodPost, "/api/v1/messaggi/rispondi", req, &message); err != nil {
		return nil, err
	}
	return &message, nil
}
