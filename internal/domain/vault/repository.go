package vault

import (
	"context"

	"passvault/internal/crypto"
)

type Repository interface {
	Create(ctx context.Context, item *Item) (int, error)
	List(ctx context.Context, ownerID int) ([]Item, error)
	Get(ctx context.Context, itemID, ownerID int) (*Item, error)
	// UpdatePayload replaces only the sealed payload; the wrapped site key
	// is untouched on edit.
	UpdatePayload(ctx context.Context, itemID, ownerID int, payload crypto.SealedBox) error
	Delete(ctx context.Context, itemID, ownerID int) error
}
