package share

import (
	"context"
	"time"

	"passvault/internal/crypto"
)

// Repository persists shares. Every status mutation is conditioned on the
// prior status (compare-and-swap): racing transitions never both succeed.
type Repository interface {
	Create(ctx context.Context, sh *Share) (int, error)
	Get(ctx context.Context, shareID int) (*Share, error)

	// AttachData sets the sealed payload copy, the wrapped key and the
	// transfer key, moving from -> StatusPendingReceiver in one conditional
	// update. Returns ErrAlreadyProcessed when the row was not in `from`.
	AttachData(ctx context.Context, shareID int, from Status, payload, wrappedKey crypto.SealedBox, transferKey []byte) error

	// UpdateStatus moves the share to `to` only if its current status is one
	// of `from`. Returns ErrAlreadyProcessed when the row moved first.
	// Moving to rejected/revoked/expired also discards the escrowed key
	// material; moving back to a pending state clears accepted_at.
	UpdateStatus(ctx context.Context, shareID int, from []Status, to Status, acceptedAt *time.Time) error

	// ClearEscrow drops the transfer key and the wrapped site key from the
	// row. Called once the receiver's copy is safely imported.
	ClearEscrow(ctx context.Context, shareID int) error

	ListBySender(ctx context.Context, senderUsername string) ([]Share, error)
	ListByReceiver(ctx context.Context, receiverUsername string, statuses []Status) ([]Share, error)

	// HasActive reports whether a non-terminal share exists for the pair.
	HasActive(ctx context.Context, itemID int, receiverUsername string) (bool, error)
}
