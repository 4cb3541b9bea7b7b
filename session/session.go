// Package session owns the client's belief about the current authenticated
// identity. The Session value is mutated only by the Manager's transition
// methods; everything else reads snapshots.
package session

import "github.com/myfamilydoc/go-console-client/identity"

// Phase is the session lifecycle state.
type Phase string

const (
	PhaseAnonymous     Phase = "ANONYMOUS"
	PhaseAwaitingOTP   Phase = "AWAITING_OTP"
	PhaseAuthenticated Phase = "AUTHENTICATED"
)

// Session is a snapshot of the auth lifecycle.
//
// Invariants, enforced by the Manager's transitions:
//   - PhaseAuthenticated implies Identity is present and an access token is
//     stored.
//   - PhaseAwaitingOTP implies PendingLoginEmail is present and no access
//     token is stored.
type Session struct {
	Phase             Phase
	Identity          *identity.Identity
	PendingLoginEmail string
}

// Authenticated reports whether the session holds an identity.
func (s Session) Authenticated() bool {
	return s.Phase == PhaseAuthenticated && s.Identity != nil
}
