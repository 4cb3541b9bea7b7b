// Package gdpr covers the console's data-protection surface: locally
// persisted consent preferences and the backend's export/erasure endpoints.
package gdpr

import (
	"encoding/json"
	"time"

	"github.com/myfamilydoc/go-console-client/store"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ConsentPreferences is the user's processing consent record, persisted
// locally under the consent key.
type ConsentPreferences struct {
	Analytics  bool      `json:"analytics"`
	Marketing  bool      `json:"marketing"`
	Functional bool      `json:"functional"`
	Timestamp  time.Time `json:"timestamp"`
}

// Purpose names a consent category.
type Purpose string

const (
	PurposeAnalytics  Purpose = "analytics"
	PurposeMarketing  Purpose = "marketing"
	PurposeFunctional Purpose = "functional"
)

// ConsentStore reads and writes the local consent record.
type ConsentStore struct {
	state store.Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewConsentStore(state store.Store, log zerolog.Logger) *ConsentStore {
	return &ConsentStore{state: state, log: log, now: time.Now}
}

// Preferences returns the stored consent record, or absent when none was
// recorded or the record is unreadable.
func (c *ConsentStore) Preferences() (*ConsentPreferences, bool) {
	raw, ok := c.state.Get(store.KeyConsent)
	if !ok {
		return nil, false
	}
	var prefs ConsentPreferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		c.log.Warn().Err(err).Msg("unreadable consent record")
		return nil, false
	}
	return &prefs, true
}

// Save records consent preferences with the current timestamp.
func (c *ConsentStore) Save(prefs ConsentPreferences) error {
	prefs.Timestamp = c.now()
	data, err := json.Marshal(prefs)
	if err != nil {
		return errors.Wrap(err, "[ConsentStore.Save] marshal preferences")
	}
	return errors.Wrap(c.state.Set(store.KeyConsent, string(data)), "[ConsentStore.Save] persist preferences")
}

// maxAuditEntries bounds the locally kept audit trail.
const maxAuditEntries = 100

// AppendAudit adds an entry to the local audit trail, keeping the newest
// maxAuditEntries. Persistence problems are logged, never propagated: the
// trail must not block the action it records.
func (c *ConsentStore) AppendAudit(entry AuditEntry) {
	trail := append(c.AuditTrail(), entry)
	if len(trail) > maxAuditEntries {
		trail = trail[len(trail)-maxAuditEntries:]
	}
	data, err := json.Marshal(trail)
	if err != nil {
		c.log.Warn().Err(err).Msg("failed marshaling audit trail")
		return
	}
	if err := c.state.Set(store.KeyAuditLog, string(data)); err != nil {
		c.log.Warn().Err(err).Msg("failed persisting audit trail")
	}
}

// AuditTrail returns the locally recorded data-protection actions.
func (c *ConsentStore) AuditTrail() []AuditEntry {
	raw, ok := c.state.Get(store.KeyAuditLog)
	if !ok {
		return nil
	}
	var trail []AuditEntry
	if err := json.Unmarshal([]byte(raw), &trail); err != nil {
		c.log.Warn().Err(err).Msg("unreadable audit trail")
		return nil
	}
	return trail
}

// HasConsent reports whether the user consented to a purpose. No record
// means no consent.
func (c *ConsentStore) HasConsent(purpose Purpose) bool {
	prefs, ok := c.Preferences()
	if !ok {
		return false
	}
	switch purpose {
	case PurposeAnalytics:
		return prefs.Analytics
	case PurposeMarketing:
		return prefs.Marketing
	case PurposeFunctional:
		return prefs.Functional
	}
	return false
}
