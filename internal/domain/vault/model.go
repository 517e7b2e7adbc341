package vault

import (
	"time"

	"passvault/internal/crypto"
)

// Item is one stored credential. The payload is sealed under a random
// per-item site key; the site key is sealed under the owner's master key.
// The two seals use independently generated nonces.
type Item struct {
	ID      int
	OwnerID int
	// Payload is the sealed JSON credential.
	Payload crypto.SealedBox
	// WrappedSiteKey is the site key sealed under the owner's master key.
	WrappedSiteKey crypto.SealedBox
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Credential is the plaintext shape sealed into an item's payload.
type Credential struct {
	Domain   string `json:"domain"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Entry is one row of a bulk read. A row that failed to decrypt carries
// DecryptError instead of a credential; one corrupted item never hides the
// rest of the vault.
type Entry struct {
	ID           int        `json:"id"`
	Credential   Credential `json:"credential"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DecryptError string     `json:"decrypt_error,omitempty"`
}
