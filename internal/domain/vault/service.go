package vault

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/exp/slog"

	"passvault/internal/crypto"
)

type Servicer interface {
	Create(ctx context.Context, ownerID int, masterKey []byte, cred Credential) (int, error)
	List(ctx context.Context, ownerID int, masterKey []byte) ([]Entry, error)
	Update(ctx context.Context, itemID, ownerID int, masterKey []byte, cred Credential) error
	Delete(ctx context.Context, itemID, ownerID int) error

	Get(ctx context.Context, itemID, ownerID int) (*Item, error)
	SiteKey(ctx context.Context, itemID, ownerID int, masterKey []byte) ([]byte, error)
	Open(item *Item, masterKey []byte) (Credential, error)
	ImportSealed(ctx context.Context, ownerID int, payload, wrappedSiteKey crypto.SealedBox) (int, error)
	VerifyMasterKey(ctx context.Context, ownerID int, masterKey []byte) error
}

type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With("component", "vault_service"),
	}
}

// Create seals the credential under a fresh site key and wraps that key under
// the caller's master key.
func (s *Service) Create(ctx context.Context, ownerID int, masterKey []byte, cred Credential) (int, error) {
	if cred.Domain == "" || cred.Username == "" || cred.Password == "" {
		return 0, fmt.Errorf("%w: domain, username and password are required", ErrInvalidInput)
	}

	siteKey, err := crypto.NewSiteKey()
	if err != nil {
		return 0, fmt.Errorf("create item: %w", err)
	}
	defer crypto.Zero(siteKey)

	payload, err := sealCredential(cred, siteKey)
	if err != nil {
		return 0, fmt.Errorf("seal payload: %w", err)
	}

	wrapped, err := crypto.Seal(masterKey, siteKey)
	if err != nil {
		return 0, fmt.Errorf("wrap site key: %w", err)
	}

	id, err := s.repo.Create(ctx, &Item{
		OwnerID:        ownerID,
		Payload:        payload,
		WrappedSiteKey: wrapped,
	})
	if err != nil {
		s.log.Error("failed to create item", "owner_id", ownerID, "error", err)
		return 0, fmt.Errorf("create item: %w", err)
	}

	s.log.Info("item created", "item_id", id, "owner_id", ownerID)
	return id, nil
}

// List decrypts every item the owner has. Per-item failures are isolated:
// the bad row comes back with DecryptError set and the rest still decrypt.
func (s *Service) List(ctx context.Context, ownerID int, masterKey []byte) ([]Entry, error) {
	items, err := s.repo.List(ctx, ownerID)
	if err != nil {
		s.log.Error("failed to list items", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("list items: %w", err)
	}

	entries := make([]Entry, 0, len(items))
	for i := range items {
		item := &items[i]
		entry := Entry{
			ID:        item.ID,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		}

		cred, err := s.Open(item, masterKey)
		if err != nil {
			s.log.Warn("item failed to decrypt", "item_id", item.ID, "owner_id", ownerID)
			entry.DecryptError = ErrDecryptionFailed.Error()
		} else {
			entry.Credential = cred
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// Update re-seals the new payload under the item's existing site key with a
// fresh nonce. The site key and its wrapping are not rotated.
func (s *Service) Update(ctx context.Context, itemID, ownerID int, masterKey []byte, cred Credential) error {
	if cred.Domain == "" || cred.Username == "" || cred.Password == "" {
		return fmt.Errorf("%w: domain, username and password are required", ErrInvalidInput)
	}

	siteKey, err := s.SiteKey(ctx, itemID, ownerID, masterKey)
	if err != nil {
		return err
	}
	defer crypto.Zero(siteKey)

	payload, err := sealCredential(cred, siteKey)
	if err != nil {
		return fmt.Errorf("seal payload: %w", err)
	}

	if err := s.repo.UpdatePayload(ctx, itemID, ownerID, payload); err != nil {
		s.log.Error("failed to update item", "item_id", itemID, "owner_id", ownerID, "error", err)
		return fmt.Errorf("update item: %w", err)
	}

	s.log.Info("item updated", "item_id", itemID, "owner_id", ownerID)
	return nil
}

// Delete removes the item after the ownership check. Hard delete, no
// decryption involved.
func (s *Service) Delete(ctx context.Context, itemID, ownerID int) error {
	if err := s.repo.Delete(ctx, itemID, ownerID); err != nil {
		return err
	}

	s.log.Info("item deleted", "item_id", itemID, "owner_id", ownerID)
	return nil
}

func (s *Service) Get(ctx context.Context, itemID, ownerID int) (*Item, error) {
	return s.repo.Get(ctx, itemID, ownerID)
}

// SiteKey unwraps the item's site key under the given master key.
func (s *Service) SiteKey(ctx context.Context, itemID, ownerID int, masterKey []byte) ([]byte, error) {
	item, err := s.repo.Get(ctx, itemID, ownerID)
	if err != nil {
		return nil, err
	}
	return unwrapSiteKey(item, masterKey)
}

// Open decrypts an item end to end: unwrap site key, then unseal payload.
func (s *Service) Open(item *Item, masterKey []byte) (Credential, error) {
	siteKey, err := unwrapSiteKey(item, masterKey)
	if err != nil {
		return Credential{}, err
	}
	defer crypto.Zero(siteKey)

	return openCredential(item.Payload, siteKey)
}

// ImportSealed stores already-sealed material as a new item, used when a
// share is accepted: the payload bytes move verbatim and only the key
// wrapping is new.
func (s *Service) ImportSealed(ctx context.Context, ownerID int, payload, wrappedSiteKey crypto.SealedBox) (int, error) {
	id, err := s.repo.Create(ctx, &Item{
		OwnerID:        ownerID,
		Payload:        payload,
		WrappedSiteKey: wrappedSiteKey,
	})
	if err != nil {
		return 0, fmt.Errorf("import sealed item: %w", err)
	}

	s.log.Info("sealed item imported", "item_id", id, "owner_id", ownerID)
	return id, nil
}

// VerifyMasterKey checks a candidate master key against the vault. Key
// derivation cannot detect a wrong password, so the first owned item's
// wrapping is the actual signal. An empty vault verifies trivially.
func (s *Service) VerifyMasterKey(ctx context.Context, ownerID int, masterKey []byte) error {
	items, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("verify master key: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	siteKey, err := unwrapSiteKey(&items[0], masterKey)
	if err != nil {
		return err
	}
	crypto.Zero(siteKey)
	return nil
}

func sealCredential(cred Credential, siteKey []byte) (crypto.SealedBox, error) {
	plaintext, err := json.Marshal(cred)
	if err != nil {
		return crypto.SealedBox{}, fmt.Errorf("marshal credential: %w", err)
	}
	return crypto.Seal(siteKey, plaintext)
}

func openCredential(payload crypto.SealedBox, siteKey []byte) (Credential, error) {
	plaintext, err := crypto.Open(siteKey, payload)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}

	var cred Credential
	if err := json.Unmarshal(plaintext, &cred); err != nil {
		return Credential{}, fmt.Errorf("%w: malformed payload", ErrDecryptionFailed)
	}
	return cred, nil
}

func unwrapSiteKey(item *Item, masterKey []byte) ([]byte, error) {
	siteKey, err := crypto.Open(masterKey, item.WrappedSiteKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	if len(siteKey) != crypto.KeySize {
		crypto.Zero(siteKey)
		return nil, fmt.Errorf("%w: bad site key length", ErrDecryptionFailed)
	}
	return siteKey, nil
}
