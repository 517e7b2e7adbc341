package share

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"passvault/internal/crypto"
	"passvault/internal/domain/user"
	"passvault/internal/domain/vault"
)

type Servicer interface {
	Initiate(ctx context.Context, itemID, senderID int, senderUsername string, masterKey []byte, receiverUsername string) (int, error)
	ProvideData(ctx context.Context, shareID, senderID int, senderUsername string, masterKey []byte) error
	Accept(ctx context.Context, shareID, receiverID int, receiverUsername string, masterKey []byte) (int, error)
	Reject(ctx context.Context, shareID int, receiverUsername string) error
	Revoke(ctx context.Context, shareID int, senderUsername string) error
	ListSent(ctx context.Context, senderUsername string) ([]View, error)
	ListReceived(ctx context.Context, receiverUsername string, filter Status) ([]View, error)
}

type Service struct {
	repo  Repository
	vault vault.Servicer
	users user.Servicer
	now   func() time.Time
	log   *slog.Logger
}

func NewService(repo Repository, vaultSvc vault.Servicer, users user.Servicer, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		vault: vaultSvc,
		users: users,
		now:   time.Now,
		log:   log.With("component", "share_service"),
	}
}

// SetClock overrides the service's notion of now. Tests only.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Initiate opens the handshake: ownership and receiver existence are checked,
// the acceptance window starts, but no key material moves yet.
func (s *Service) Initiate(ctx context.Context, itemID, senderID int, senderUsername string, masterKey []byte, receiverUsername string) (int, error) {
	if receiverUsername == "" {
		return 0, fmt.Errorf("%w: receiver username is required", ErrInvalidInput)
	}
	if receiverUsername == senderUsername {
		return 0, fmt.Errorf("%w: cannot share an item with yourself", ErrInvalidInput)
	}

	item, err := s.vault.Get(ctx, itemID, senderID)
	if err != nil {
		return 0, ErrNotFound
	}

	if _, err := s.users.SaltFor(ctx, receiverUsername); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return 0, fmt.Errorf("%w: receiver does not exist", ErrNotFound)
		}
		return 0, fmt.Errorf("look up receiver: %w", err)
	}

	active, err := s.repo.HasActive(ctx, itemID, receiverUsername)
	if err != nil {
		return 0, fmt.Errorf("check active shares: %w", err)
	}
	if active {
		return 0, ErrActiveExists
	}

	// The domain goes into the share row in the clear so listings can show
	// what is on offer without any key.
	cred, err := s.vault.Open(item, masterKey)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}

	sharedAt := s.now()
	id, err := s.repo.Create(ctx, &Share{
		ItemID:           itemID,
		SenderUsername:   senderUsername,
		ReceiverUsername: receiverUsername,
		Status:           StatusPendingSender,
		Domain:           cred.Domain,
		SharedAt:         sharedAt,
		ExpiresAt:        sharedAt.Add(Window),
	})
	if err != nil {
		s.log.Error("failed to create share", "item_id", itemID, "sender", senderUsername, "error", err)
		return 0, fmt.Errorf("create share: %w", err)
	}

	s.log.Info("share initiated", "share_id", id, "item_id", itemID,
		"sender", senderUsername, "receiver", receiverUsername)
	return id, nil
}

// ProvideData attaches the cryptographic material: the sealed payload is
// copied verbatim and the site key, unwrapped under the sender's master key,
// is escrowed under a fresh transfer key for the rest of the window. The
// receiver's own wrap happens later, at accept, when their key actually
// exists server-side.
func (s *Service) ProvideData(ctx context.Context, shareID, senderID int, senderUsername string, masterKey []byte) error {
	sh, err := s.repo.Get(ctx, shareID)
	if err != nil {
		return ErrNotFound
	}
	if sh.SenderUsername != senderUsername {
		return ErrNotFound
	}

	if err := s.gate(ctx, sh, StatusPendingSender); err != nil {
		return err
	}

	item, err := s.vault.Get(ctx, sh.ItemID, senderID)
	if err != nil {
		return fmt.Errorf("%w: shared item is gone", ErrNotFound)
	}

	siteKey, err := s.vault.SiteKey(ctx, sh.ItemID, senderID, masterKey)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	defer crypto.Zero(siteKey)

	transferKey, err := crypto.NewSiteKey()
	if err != nil {
		return fmt.Errorf("generate transfer key: %w", err)
	}

	wrapped, err := crypto.Seal(transferKey, siteKey)
	if err != nil {
		return fmt.Errorf("wrap site key: %w", err)
	}

	err = s.repo.AttachData(ctx, shareID, StatusPendingSender, item.Payload, wrapped, transferKey)
	if err != nil {
		return err
	}

	s.log.Info("share data provided", "share_id", shareID, "sender", senderUsername)
	return nil
}

// Accept finishes the handshake: unwrap the escrowed site key, re-wrap it
// under the receiver's master key, and import the still-sealed payload into
// the receiver's vault. Returns the new item's id.
func (s *Service) Accept(ctx context.Context, shareID, receiverID int, receiverUsername string, masterKey []byte) (int, error) {
	sh, err := s.repo.Get(ctx, shareID)
	if err != nil {
		return 0, ErrNotFound
	}
	if sh.ReceiverUsername != receiverUsername {
		return 0, ErrNotFound
	}

	if err := s.gate(ctx, sh, StatusPendingReceiver); err != nil {
		return 0, err
	}

	siteKey, err := crypto.Open(sh.TransferKey, sh.WrappedKey)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	defer crypto.Zero(siteKey)

	rewrapped, err := crypto.Seal(masterKey, siteKey)
	if err != nil {
		return 0, fmt.Errorf("rewrap site key: %w", err)
	}

	// Persist the transition first: whichever of accept/revoke lands its
	// conditional update wins, the other fails out below.
	acceptedAt := s.now()
	err = s.repo.UpdateStatus(ctx, shareID, []Status{StatusPendingReceiver}, StatusAccepted, &acceptedAt)
	if err != nil {
		return 0, err
	}

	itemID, err := s.vault.ImportSealed(ctx, receiverID, sh.Payload, rewrapped)
	if err != nil {
		s.log.Error("accepted share failed to import", "share_id", shareID, "error", err)
		// Put the share back so the receiver can retry. A revoke that landed
		// in between wins this CAS and keeps its terminal state.
		rbErr := s.repo.UpdateStatus(ctx, shareID, []Status{StatusAccepted}, StatusPendingReceiver, nil)
		if rbErr != nil && !errors.Is(rbErr, ErrAlreadyProcessed) {
			s.log.Error("failed to restore share after import failure",
				"share_id", shareID, "error", rbErr)
		}
		return 0, fmt.Errorf("import shared item: %w", err)
	}

	// The receiver's copy is durable; the row's escrowed key material has
	// served its purpose.
	if err := s.repo.ClearEscrow(ctx, shareID); err != nil {
		s.log.Warn("share escrow not cleared", "share_id", shareID, "error", err)
	}

	s.log.Info("share accepted", "share_id", shareID, "receiver", receiverUsername, "item_id", itemID)
	return itemID, nil
}

// Reject declines a pending share. No key material needed; terminal.
func (s *Service) Reject(ctx context.Context, shareID int, receiverUsername string) error {
	sh, err := s.repo.Get(ctx, shareID)
	if err != nil {
		return ErrNotFound
	}
	if sh.ReceiverUsername != receiverUsername {
		return ErrNotFound
	}

	if sh.Status.Terminal() {
		return ErrAlreadyProcessed
	}
	if err := s.expireIfPast(ctx, sh); err != nil {
		return err
	}

	err = s.repo.UpdateStatus(ctx, shareID,
		[]Status{StatusPendingSender, StatusPendingReceiver}, StatusRejected, nil)
	if err != nil {
		return err
	}

	s.log.Info("share rejected", "share_id", shareID, "receiver", receiverUsername)
	return nil
}

// Revoke withdraws a share. Works on pending and on already-accepted shares;
// an item a prior accept created stays in the receiver's vault.
func (s *Service) Revoke(ctx context.Context, shareID int, senderUsername string) error {
	sh, err := s.repo.Get(ctx, shareID)
	if err != nil {
		return ErrNotFound
	}
	if sh.SenderUsername != senderUsername {
		return ErrNotFound
	}

	switch sh.Status {
	case StatusRejected, StatusRevoked, StatusExpired:
		return ErrAlreadyProcessed
	}
	if sh.Status.Pending() {
		if err := s.expireIfPast(ctx, sh); err != nil {
			return err
		}
	}

	err = s.repo.UpdateStatus(ctx, shareID,
		[]Status{StatusPendingSender, StatusPendingReceiver, StatusAccepted}, StatusRevoked, nil)
	if err != nil {
		return err
	}

	s.log.Info("share revoked", "share_id", shareID, "sender", senderUsername)
	return nil
}

func (s *Service) ListSent(ctx context.Context, senderUsername string) ([]View, error) {
	shares, err := s.repo.ListBySender(ctx, senderUsername)
	if err != nil {
		return nil, fmt.Errorf("list sent shares: %w", err)
	}
	return s.views(shares), nil
}

// ListReceived returns the receiver's shares, optionally filtered by status.
// StatusPending matches both pending sub-states.
func (s *Service) ListReceived(ctx context.Context, receiverUsername string, filter Status) ([]View, error) {
	var statuses []Status
	switch filter {
	case "":
	case StatusPending:
		statuses = []Status{StatusPendingSender, StatusPendingReceiver}
	default:
		statuses = []Status{filter}
	}

	shares, err := s.repo.ListByReceiver(ctx, receiverUsername, statuses)
	if err != nil {
		return nil, fmt.Errorf("list received shares: %w", err)
	}
	return s.views(shares), nil
}

// gate enforces the common preconditions of a pending-state transition:
// lazy expiry first, then the exact required status.
func (s *Service) gate(ctx context.Context, sh *Share, want Status) error {
	if err := s.expireIfPast(ctx, sh); err != nil {
		return err
	}

	switch sh.Status {
	case want:
		return nil
	case StatusPendingSender:
		// Only reachable when want == StatusPendingReceiver.
		return ErrNotReady
	default:
		return ErrAlreadyProcessed
	}
}

// expireIfPast applies the passive expiration rule: a pending share past its
// window is reported (and best-effort persisted) as expired at read time.
func (s *Service) expireIfPast(ctx context.Context, sh *Share) error {
	if !sh.Status.Pending() || !s.now().After(sh.ExpiresAt) {
		return nil
	}

	err := s.repo.UpdateStatus(ctx, sh.ID,
		[]Status{StatusPendingSender, StatusPendingReceiver}, StatusExpired, nil)
	if err != nil && !errors.Is(err, ErrAlreadyProcessed) {
		s.log.Warn("failed to persist share expiry", "share_id", sh.ID, "error", err)
	}
	return ErrExpired
}

func (s *Service) views(shares []Share) []View {
	now := s.now()
	views := make([]View, len(shares))
	for i := range shares {
		sh := &shares[i]
		views[i] = View{
			ID:               sh.ID,
			ItemID:           sh.ItemID,
			SenderUsername:   sh.SenderUsername,
			ReceiverUsername: sh.ReceiverUsername,
			Domain:           sh.Domain,
			Status:           sh.EffectiveStatus(now),
			SharedAt:         sh.SharedAt,
			ExpiresAt:        sh.ExpiresAt,
			AcceptedAt:       sh.AcceptedAt,
		}
	}
	return views
}
