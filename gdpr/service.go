package gdpr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/myfamilydoc/go-console-client/transport"
	"github.com/rs/zerolog"
)

// DataExportRequest asks for a portable copy of the user's data.
type DataExportRequest struct {
	Email     string   `json:"email"`
	DataTypes []string `json:"dataTypes"`
	Format    string   `json:"format"` // json, csv or pdf
}

// DataExportTicket tracks a pending export.
type DataExportTicket struct {
	ExportID      string `json:"exportId"`
	EstimatedTime string `json:"estimatedTime"`
}

// DataExportStatus reports export progress.
type DataExportStatus struct {
	Status      string `json:"status"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// DeletionRequest starts the right-to-erasure flow.
type DeletionRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Reason string `json:"reason,omitempty"`
}

// DeletionTicket tracks a pending erasure request.
type DeletionTicket struct {
	RequestID            string `json:"requestId"`
	ConfirmationRequired bool   `json:"confirmationRequired"`
}

// AuditEntry records a data-protection action taken from this client.
type AuditEntry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	Resource  string         `json:"resource"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Service is the GDPR API plus the local audit trail of requests made
// through it.
type Service struct {
	client  *transport.Client
	consent *ConsentStore
	log     zerolog.Logger
	now     func() time.Time
}

func NewService(client *transport.Client, consent *ConsentStore, log zerolog.Logger) *Service {
	return &Service{client: client, consent: consent, log: log, now: time.Now}
}

// Consent exposes the local consent store.
func (s *Service) Consent() *ConsentStore {
	return s.consent
}

// RequestDataExport starts a data export (right to data portability).
func (s *Service) RequestDataExport(ctx context.Context, req DataExportRequest) (*DataExportTicket, error) {
	s.audit("DATA_EXPORT_REQUESTED", "user_data", map[string]any{
		"dataTypes": req.DataTypes,
		"format":    req.Format,
	})

	var ticket DataExportTicket
	if err := s.client.Call(ctx, http.MethodPost, "/gdpr/data-export", req, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ExportStatus polls a pending export.
func (s *Service) ExportStatus(ctx context.Context, exportID string) (*DataExportStatus, error) {
	var status DataExportStatus
	path := fmt.Sprintf("/gdpr/data-export/%s", exportID)
	if err := s.client.Call(ctx, http.MethodGet, path, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// RequestAccountDeletion starts the right-to-erasure flow.
func (s *Service) RequestAccountDeletion(ctx context.Context, req DeletionRequest) (*DeletionTicket, error) {
	s.audit("ACCOUNT_DELETION_REQUESTED", "user_account", map[string]any{
		"reason": req.Reason,
	})

	var ticket DeletionTicket
	if err := s.client.Call(ctx, http.MethodPost, "/gdpr/account-deletion", req, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ConfirmAccountDeletion completes erasure with the emailed code.
func (s *Service) ConfirmAccountDeletion(ctx context.Context, requestID, confirmationCode string) error {
	body := struct {
		RequestID        string `json:"requestId"`
		ConfirmationCode string `json:"confirmationCode"`
	}{RequestID: requestID, ConfirmationCode: confirmationCode}
	return s.client.Call(ctx, http.MethodPost, "/gdpr/account-deletion/confirm", body, nil)
}

// CancelDeletion withdraws a pending erasure request.
func (s *Service) CancelDeletion(ctx context.Context, requestID string) error {
	path := fmt.Sprintf("/gdpr/account-deletion/%s", requestID)
	return s.client.Call(ctx, http.MethodDelete, path, nil, nil)
}

// UpdateProcessingPreferences pushes consent preferences to the backend.
func (s *Service) UpdateProcessingPreferences(ctx context.Context, prefs ConsentPreferences) error {
	return s.client.Call(ctx, http.MethodPut, "/gdpr/processing-preferences", prefs, nil)
}

// PersonalData fetches everything the backend holds about the user (right
// of access).
func (s *Service) PersonalData(ctx context.Context) (json.RawMessage, error) {
	var data json.RawMessage
	if err := s.client.Call(ctx, http.MethodGet, "/gdpr/personal-data", nil, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// audit records a data-protection action in the local trail and the log.
func (s *Service) audit(action, resource string, metadata map[string]any) {
	entry := AuditEntry{
		ID:        uuid.New().String(),
		Timestamp: s.now(),
		Action:    action,
		Resource:  resource,
		Metadata:  metadata,
	}
	s.consent.AppendAudit(entry)
	s.log.Info().
		Str("audit_id", entry.ID).
		Str("action", entry.Action).
		Str("resource", entry.Resource).
		Msg("gdpr action")
}
