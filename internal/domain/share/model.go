package share

import (
	"time"

	"passvault/internal/crypto"
)

// Window is the fixed acceptance window. expires_at is always
// shared_at + Window and never moves once set.
const Window = 24 * time.Hour

type Status string

const (
	// StatusPendingSender: share initiated, sender has not attached the
	// cryptographic material yet.
	StatusPendingSender Status = "pending_sender_action"
	// StatusPendingReceiver: material attached, waiting on the receiver.
	StatusPendingReceiver Status = "pending_receiver_acceptance"

	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusRevoked  Status = "revoked"
	StatusExpired  Status = "expired"

	// StatusPending is the API filter alias covering both pending
	// sub-states; it is never persisted.
	StatusPending Status = "pending"
)

func (s Status) Pending() bool {
	return s == StatusPendingSender || s == StatusPendingReceiver
}

func (s Status) Terminal() bool {
	switch s {
	case StatusAccepted, StatusRejected, StatusRevoked, StatusExpired:
		return true
	}
	return false
}

// Share is one item handoff between two users. While pending, the site key
// sits sealed under a per-share transfer key; on accept it is re-wrapped
// under the receiver's master key. The payload stays sealed under the
// original site key the whole way; plaintext never appears.
type Share struct {
	ID               int
	ItemID           int
	SenderUsername   string
	ReceiverUsername string
	Status           Status
	// Domain of the shared credential, kept in the clear for listings.
	Domain string
	// Payload is the item's sealed credential, copied verbatim.
	Payload crypto.SealedBox
	// WrappedKey is the site key sealed under TransferKey.
	WrappedKey crypto.SealedBox
	// TransferKey escrows the site key for the acceptance window.
	TransferKey []byte
	SharedAt    time.Time
	ExpiresAt   time.Time
	AcceptedAt  *time.Time
}

// EffectiveStatus folds lazy expiration in: a pending share past its window
// reads as expired without any background sweep.
func (sh *Share) EffectiveStatus(now time.Time) Status {
	if sh.Status.Pending() && now.After(sh.ExpiresAt) {
		return StatusExpired
	}
	return sh.Status
}

// View is the listing shape: no cryptographic material, effective status
// already folded in.
type View struct {
	ID               int        `json:"share_id"`
	ItemID           int        `json:"item_id"`
	SenderUsername   string     `json:"sender_username"`
	ReceiverUsername string     `json:"receiver_username"`
	Domain           string     `json:"domain"`
	Status           Status     `json:"status"`
	SharedAt         time.Time  `json:"shared_at"`
	ExpiresAt        time.Time  `json:"expires_at"`
	AcceptedAt       *time.Time `json:"accepted_at,omitempty"`
}
