package share_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"passvault/internal/crypto"
	"passvault/internal/domain/share"
	"passvault/internal/domain/user"
	"passvault/internal/domain/vault"
)

// The protocol tests run the real cryptography end to end: a real vault
// service over an in-memory repository, so accept actually has to unwrap,
// re-wrap and import real bytes.

type fakeVaultRepo struct {
	nextID int
	items  map[int]vault.Item

	// createErr, when set, fails the next inserts.
	createErr error
}

func newFakeVaultRepo() *fakeVaultRepo {
	return &fakeVaultRepo{nextID: 1, items: make(map[int]vault.Item)}
}

func (f *fakeVaultRepo) Create(_ context.Context, item *vault.Item) (int, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	item.ID = f.nextID
	f.items[item.ID] = *item
	f.nextID++
	return item.ID, nil
}

func (f *fakeVaultRepo) List(_ context.Context, ownerID int) ([]vault.Item, error) {
	var out []vault.Item
	for _, item := range f.items {
		if item.OwnerID == ownerID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeVaultRepo) Get(_ context.Context, itemID, ownerID int) (*vault.Item, error) {
	item, ok := f.items[itemID]
	if !ok || item.OwnerID != ownerID {
		return nil, vault.ErrNotFound
	}
	return &item, nil
}

func (f *fakeVaultRepo) UpdatePayload(_ context.Context, itemID, ownerID int, payload crypto.SealedBox) error {
	item, ok := f.items[itemID]
	if !ok || item.OwnerID != ownerID {
		return vault.ErrNotFound
	}
	item.Payload = payload
	f.items[itemID] = item
	return nil
}

func (f *fakeVaultRepo) Delete(_ context.Context, itemID, ownerID int) error {
	item, ok := f.items[itemID]
	if !ok || item.OwnerID != ownerID {
		return vault.ErrNotFound
	}
	delete(f.items, itemID)
	return nil
}

// fakeShareRepo mirrors the conditional-update contract of the real store:
// a mutation whose prior-status condition no longer holds fails with
// ErrAlreadyProcessed instead of clobbering the row.
type fakeShareRepo struct {
	nextID int
	shares map[int]share.Share
}

func newFakeShareRepo() *fakeShareRepo {
	return &fakeShareRepo{nextID: 1, shares: make(map[int]share.Share)}
}

func (f *fakeShareRepo) Create(_ context.Context, sh *share.Share) (int, error) {
	sh.ID = f.nextID
	f.shares[sh.ID] = *sh
	f.nextID++
	return sh.ID, nil
}

func (f *fakeShareRepo) Get(_ context.Context, shareID int) (*share.Share, error) {
	sh, ok := f.shares[shareID]
	if !ok {
		return nil, share.ErrNotFound
	}
	return &sh, nil
}

func (f *fakeShareRepo) AttachData(_ context.Context, shareID int, from share.Status, payload, wrappedKey crypto.SealedBox, transferKey []byte) error {
	sh, ok := f.shares[shareID]
	if !ok {
		return share.ErrNotFound
	}
	if sh.Status != from {
		return share.ErrAlreadyProcessed
	}
	sh.Payload = payload
	sh.WrappedKey = wrappedKey
	sh.TransferKey = transferKey
	sh.Status = share.StatusPendingReceiver
	f.shares[shareID] = sh
	return nil
}

func (f *fakeShareRepo) UpdateStatus(_ context.Context, shareID int, from []share.Status, to share.Status, acceptedAt *time.Time) error {
	sh, ok := f.shares[shareID]
	if !ok {
		return share.ErrNotFound
	}
	matched := false
	for _, st := range from {
		if sh.Status == st {
			matched = true
			break
		}
	}
	if !matched {
		return share.ErrAlreadyProcessed
	}
	sh.Status = to
	switch {
	case !to.Terminal():
		sh.AcceptedAt = acceptedAt
	case to != share.StatusAccepted:
		sh.TransferKey = nil
		sh.WrappedKey = crypto.SealedBox{}
		if acceptedAt != nil {
			sh.AcceptedAt = acceptedAt
		}
	default:
		if acceptedAt != nil {
			sh.AcceptedAt = acceptedAt
		}
	}
	f.shares[shareID] = sh
	return nil
}

func (f *fakeShareRepo) ClearEscrow(_ context.Context, shareID int) error {
	sh, ok := f.shares[shareID]
	if !ok {
		return share.ErrNotFound
	}
	sh.TransferKey = nil
	sh.WrappedKey = crypto.SealedBox{}
	f.shares[shareID] = sh
	return nil
}

func (f *fakeShareRepo) ListBySender(_ context.Context, senderUsername string) ([]share.Share, error) {
	var out []share.Share
	for _, sh := range f.shares {
		if sh.SenderUsername == senderUsername {
			out = append(out, sh)
		}
	}
	return out, nil
}

func (f *fakeShareRepo) ListByReceiver(_ context.Context, receiverUsername string, statuses []share.Status) ([]share.Share, error) {
	var out []share.Share
	for _, sh := range f.shares {
		if sh.ReceiverUsername != receiverUsername {
			continue
		}
		if len(statuses) == 0 {
			out = append(out, sh)
			continue
		}
		for _, st := range statuses {
			if sh.Status == st {
				out = append(out, sh)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeShareRepo) HasActive(_ context.Context, itemID int, receiverUsername string) (bool, error) {
	for _, sh := range f.shares {
		if sh.ItemID == itemID && sh.ReceiverUsername == receiverUsername && !sh.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

// stubUsers knows a fixed set of usernames; sharing only needs SaltFor.
type stubUsers struct {
	salts map[string][]byte
}

func (s *stubUsers) Register(context.Context, string, string) (int, error) {
	panic("not used")
}

func (s *stubUsers) Authenticate(context.Context, string, string) (user.User, error) {
	panic("not used")
}

func (s *stubUsers) MasterSalt(context.Context, int) ([]byte, error) {
	panic("not used")
}

func (s *stubUsers) Username(context.Context, int) (string, error) {
	panic("not used")
}

func (s *stubUsers) SaltFor(_ context.Context, username string) ([]byte, error) {
	salt, ok := s.salts[username]
	if !ok {
		return nil, user.ErrNotFound
	}
	return salt, nil
}

type fixture struct {
	svc       *share.Service
	vaultSvc  *vault.Service
	vaultRepo *fakeVaultRepo
	shareRepo *fakeShareRepo
	now       time.Time

	senderID   int
	receiverID int
	senderKey  []byte
	recvKey    []byte
	itemID     int
	cred       vault.Credential
}

const (
	senderName   = "alice"
	receiverName = "bob"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(testWriter{t}, nil))

	vaultRepo := newFakeVaultRepo()
	vaultSvc := vault.NewService(vaultRepo, log)

	senderSalt, err := crypto.NewMasterSalt()
	require.NoError(t, err)
	recvSalt, err := crypto.NewMasterSalt()
	require.NoError(t, err)

	users := &stubUsers{salts: map[string][]byte{
		senderName:   senderSalt,
		receiverName: recvSalt,
	}}

	f := &fixture{
		vaultSvc:   vaultSvc,
		vaultRepo:  vaultRepo,
		shareRepo:  newFakeShareRepo(),
		now:        time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		senderID:   1,
		receiverID: 2,
		senderKey:  crypto.DeriveMasterKey("s3nder-Passw0rd!", senderSalt),
		recvKey:    crypto.DeriveMasterKey("r3ceiver-Passw0rd!", recvSalt),
		cred: vault.Credential{
			Domain:   "example.com",
			Username: "alice@example.com",
			Password: "hunter2!",
		},
	}

	f.itemID, err = vaultSvc.Create(context.Background(), f.senderID, f.senderKey, f.cred)
	require.NoError(t, err)

	svc := share.NewService(f.shareRepo, vaultSvc, users, log)
	svc.SetClock(func() time.Time { return f.now })
	f.svc = svc
	return f
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func (f *fixture) initiate(t *testing.T) int {
	t.Helper()
	id, err := f.svc.Initiate(context.Background(), f.itemID, f.senderID, senderName, f.senderKey, receiverName)
	require.NoError(t, err)
	return id
}

func (f *fixture) provide(t *testing.T, shareID int) {
	t.Helper()
	require.NoError(t, f.svc.ProvideData(context.Background(), shareID, f.senderID, senderName, f.senderKey))
}

func TestShareFullHandshake(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	shareID := f.initiate(t)
	f.provide(t, shareID)

	newItemID, err := f.svc.Accept(ctx, shareID, f.receiverID, receiverName, f.recvKey)
	require.NoError(t, err)

	// The receiver's copy decrypts under the receiver's own master key and
	// matches the sender's original credential.
	entries, err := f.vaultSvc.List(ctx, f.receiverID, f.recvKey)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, newItemID, entries[0].ID)
	assert.Empty(t, entries[0].DecryptError)
	assert.Equal(t, f.cred, entries[0].Credential)

	// The payload bytes were moved verbatim, never re-encrypted.
	original, err := f.vaultSvc.Get(ctx, f.itemID, f.senderID)
	require.NoError(t, err)
	imported, err := f.vaultSvc.Get(ctx, newItemID, f.receiverID)
	require.NoError(t, err)
	assert.Equal(t, original.Payload, imported.Payload)
	assert.NotEqual(t, original.WrappedSiteKey, imported.WrappedSiteKey)

	sh, err := f.shareRepo.Get(ctx, shareID)
	require.NoError(t, err)
	assert.Equal(t, share.StatusAccepted, sh.Status)
	require.NotNil(t, sh.AcceptedAt)
	assert.Equal(t, f.now, *sh.AcceptedAt)
}

func TestShareInitiateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("self share", func(t *testing.T) {
		_, err := f.svc.Initiate(ctx, f.itemID, f.senderID, senderName, f.senderKey, senderName)
		assert.ErrorIs(t, err, share.ErrInvalidInput)
	})

	t.Run("unknown receiver", func(t *testing.T) {
		_, err := f.svc.Initiate(ctx, f.itemID, f.senderID, senderName, f.senderKey, "nobody")
		assert.ErrorIs(t, err, share.ErrNotFound)
	})

	t.Run("item not owned", func(t *testing.T) {
		_, err := f.svc.Initiate(ctx, f.itemID, f.receiverID, receiverName, f.recvKey, senderName)
		assert.ErrorIs(t, err, share.ErrNotFound)
	})

	t.Run("wrong master key", func(t *testing.T) {
		bad := make([]byte, crypto.KeySize)
		_, err := f.svc.Initiate(ctx, f.itemID, f.senderID, senderName, bad, receiverName)
		assert.ErrorIs(t, err, share.ErrDecryptionFailed)
	})
}

func TestShareDuplicateActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.initiate(t)
	_, err := f.svc.Initiate(ctx, f.itemID, f.senderID, senderName, f.senderKey, receiverName)
	assert.ErrorIs(t, err, share.ErrActiveExists)
}

func TestShareReinitiateAfterTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	shareID := f.initiate(t)
	require.NoError(t, f.svc.Reject(ctx, shareID, receiverName))

	// A terminal share no longer blocks a fresh one for the same pair.
	_, err := f.svc.Initiate(ctx, f.itemID, f.senderID, senderName, f.senderKey, receiverName)
	assert.NoError(t, err)
}

func TestShareAcceptBeforeData(t *testing.T) {
	f := newFixture(t)

	shareID := f.initiate(t)
	_, err := f.svc.Accept(context.Background(), shareID, f.receiverID, receiverName, f.recvKey)
	assert.ErrorIs(t, err, share.ErrNotReady)
}

func TestShareDoubleAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	shareID := f.initiate(t)
	f.provide(t, shareID)

	_, err := f.svc.Accept(ctx, shareID, f.receiverID, receiverName, f.recvKey)
	require.NoError(t, err)

	_, err = f.svc.Accept(ctx, shareID, f.receiverID, receiverName, f.recvKey)
	assert.ErrorIs(t, err, share.ErrAlreadyProcessed)

	// Only one imported copy, no matter how many times accept is retried.
	entries, err := f.vaultSvc.List(ctx, f.receiverID, f.recvKey)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestShareExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	shareID := f.initiate(t)
	f.provide(t, shareID)

	f.now = f.now.Add(share.Window + time.Second)

	_, err := f.svc.Accept(ctx, shareID, f.receiverID, receiverName, f.recvKey)
	assert.ErrorIs(t, err, share.ErrExpired)

	// Lazy expiry persisted the terminal status on the way out.
	sh, err := f.shareRepo.Get(ctx, shareID)
	require.NoError(t, err)
	assert.Equal(t, share.StatusExpired, sh.Status)

	// Nothing landed in the receiver's vault.
	entries, err := f.vaultSvc.List(ctx, f.receiverID, f.recvKey)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestShareExpiryBoundary(t *testing.T) {
	f := newFixture(t)

	shareID := f.initiate(t)
	f.provide(t, shareID)

	// Exactly at expires_at the share is still acceptable; the window
	// closes strictly after it.
	f.now = f.now.Add(share.Window)
	_, err := f.svc.Accept(context.Background(), shareID, f.receiverID, receiverName, f.recvKey)
	assert.NoError(t, err)
}

func TestShareProvideData(t *testing.T) {
	ctx := context.Background()

	t.Run("twice", func(t *testing.T) {
		f := newFixture(t)
		shareID := f.initiate(t)
		f.provide(t, shareID)
		err := f.svc.ProvideData(ctx, shareID, f.senderID, senderName, f.senderKey)
		assert.ErrorIs(t, err, share.ErrAlreadyProcessed)
	})

	t.Run("wrong sender", func(t *testing.T) {
		f := newFixture(t)
		shareID := f.initiate(t)
		err := f.svc.ProvideData(ctx, shareID, f.receiverID, receiverName, f.recvKey)
		assert.ErrorIs(t, err, share.ErrNotFound)
	})

	t.Run("wrong master key", func(t *testing.T) {
		f := newFixture(t)
		shareID := f.initiate(t)
		bad := make([]byte, crypto.KeySize)
		err := f.svc.ProvideData(ctx, shareID, f.senderID, senderName, bad)
		assert.ErrorIs(t, err, share.ErrDecryptionFailed)
	})

	t.Run("expired", func(t *testing.T) {
		f := newFixture(t)
		shareID := f.initiate(t)
		f.now = f.now.Add(share.Window + time.Minute)
		err := f.svc.ProvideData(ctx, shareID, f.senderID, senderName, f.senderKey)
		assert.ErrorIs(t, err, share.ErrExpired)
	})
}

func TestShareReject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	shareID := f.initiate(t)
	require.NoError(t, f.svc.Reject(ctx, shareID, receiverName))

	sh, err := f.shareRepo.Get(ctx, shareID)
	require.NoError(t, err)
	assert.Equal(t, share.StatusRejected, sh.Status)

	assert.ErrorIs(t, f.svc.Reject(ctx, shareID, receiverName), share.ErrAlreadyProcessed)

	t.Run("only the receiver may reject", func(t *testing.T) {
		id := f.initiate(t)
		assert.ErrorIs(t, f.svc.Reject(ctx, id, senderName), share.ErrNotFound)
	})
}

func TestShareRevoke(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("pending", func(t *testing.T) {
		shareID := f.initiate(t)
		require.NoError(t, f.svc.Revoke(ctx, shareID, senderName))

		sh, err := f.shareRepo.Get(ctx, shareID)
		require.NoError(t, err)
		assert.Equal(t, share.StatusRevoked, sh.Status)
	})

	t.Run("accepted keeps the imported item", func(t *testing.T) {
		shareID := f.initiate(t)
		f.provide(t, shareID)
		newItemID, err := f.svc.Accept(ctx, shareID, f.receiverID, receiverName, f.recvKey)
		require.NoError(t, err)

		require.NoError(t, f.svc.Revoke(ctx, shareID, senderName))

		// Revocation of an accepted share never claws the copy back.
		_, err = f.vaultSvc.Get(ctx, newItemID, f.receiverID)
		assert.NoError(t, err)
	})

	t.Run("only the sender may revoke", func(t *testing.T) {
		shareID := f.initiate(t)
		assert.ErrorIs(t, f.svc.Revoke(ctx, shareID, receiverName), share.ErrNotFound)
		require.NoError(t, f.svc.Revoke(ctx, shareID, senderName))
	})
}

func TestShareAcceptRevokeRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("revoke wins", func(t *testing.T) {
		shareID := f.initiate(t)
		f.provide(t, shareID)

		require.NoError(t, f.svc.Revoke(ctx, shareID, senderName))
		_, err := f.svc.Accept(ctx, shareID, f.receiverID, receiverName, f.recvKey)
		assert.ErrorIs(t, err, share.ErrAlreadyProcessed)
	})

	t.Run("accept wins", func(t *testing.T) {
		shareID := f.initiate(t)
		f.provide(t, shareID)

		_, err := f.svc.Accept(ctx, shareID, f.receiverID, receiverName, f.recvKey)
		require.NoError(t, err)
		// Revoke after accept is still allowed, it just cannot undo the
		// import.
		assert.NoError(t, f.svc.Revoke(ctx, shareID, senderName))
	})
}

func TestShareListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	shareID := f.initiate(t)

	sent, err := f.svc.ListSent(ctx, senderName)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, shareID, sent[0].ID)
	assert.Equal(t, "example.com", sent[0].Domain)
	assert.Equal(t, share.StatusPendingSender, sent[0].Status)
	assert.Equal(t, f.now.Add(share.Window), sent[0].ExpiresAt)

	received, err := f.svc.ListReceived(ctx, receiverName, share.StatusPending)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, shareID, received[0].ID)

	// The accepted filter excludes the still-pending share.
	received, err = f.svc.ListReceived(ctx, receiverName, share.StatusAccepted)
	require.NoError(t, err)
	assert.Empty(t, received)

	// Past the window the listing reads expired without any write.
	f.now = f.now.Add(share.Window + time.Hour)
	sent, err = f.svc.ListSent(ctx, senderName)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, share.StatusExpired, sent[0].Status)
}

func TestShareTransferKeyEscrow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	shareID := f.initiate(t)
	f.provide(t, shareID)

	sh, err := f.shareRepo.Get(ctx, shareID)
	require.NoError(t, err)

	// The escrowed wrap opens under the transfer key and under nothing else;
	// in particular the sender's master key is useless against it.
	require.Len(t, sh.TransferKey, crypto.KeySize)
	siteKey, err := crypto.Open(sh.TransferKey, sh.WrappedKey)
	require.NoError(t, err)
	assert.Len(t, siteKey, crypto.KeySize)

	_, err = crypto.Open(f.senderKey, sh.WrappedKey)
	assert.ErrorIs(t, err, crypto.ErrAuthenticationFailed)
}

func TestShareAcceptImportFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	shareID := f.initiate(t)
	f.provide(t, shareID)

	// The receiver's insert fails after the status already moved; the share
	// must come back to an actionable state, not stay accepted with no item.
	f.vaultRepo.createErr = errors.New("connection reset")
	_, err := f.svc.Accept(ctx, shareID, f.receiverID, receiverName, f.recvKey)
	require.Error(t, err)

	sh, err := f.shareRepo.Get(ctx, shareID)
	require.NoError(t, err)
	assert.Equal(t, share.StatusPendingReceiver, sh.Status)
	assert.Nil(t, sh.AcceptedAt)
	assert.NotEmpty(t, sh.TransferKey)

	entries, err := f.vaultSvc.List(ctx, f.receiverID, f.recvKey)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// With storage back, a retry completes the handshake.
	f.vaultRepo.createErr = nil
	newItemID, err := f.svc.Accept(ctx, shareID, f.receiverID, receiverName, f.recvKey)
	require.NoError(t, err)

	entries, err = f.vaultSvc.List(ctx, f.receiverID, f.recvKey)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, newItemID, entries[0].ID)
	assert.Equal(t, f.cred, entries[0].Credential)
}

func TestShareEscrowDiscardedAfterSettlement(t *testing.T) {
	ctx := context.Background()

	settle := map[string]func(t *testing.T, f *fixture, shareID int){
		"accepted": func(t *testing.T, f *fixture, shareID int) {
			_, err := f.svc.Accept(ctx, shareID, f.receiverID, receiverName, f.recvKey)
			require.NoError(t, err)
		},
		"rejected": func(t *testing.T, f *fixture, shareID int) {
			require.NoError(t, f.svc.Reject(ctx, shareID, receiverName))
		},
		"revoked": func(t *testing.T, f *fixture, shareID int) {
			require.NoError(t, f.svc.Revoke(ctx, shareID, senderName))
		},
		"expired": func(t *testing.T, f *fixture, shareID int) {
			f.now = f.now.Add(share.Window + time.Second)
			_, err := f.svc.Accept(ctx, shareID, f.receiverID, receiverName, f.recvKey)
			assert.ErrorIs(t, err, share.ErrExpired)
		},
	}

	for name, act := range settle {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			shareID := f.initiate(t)
			f.provide(t, shareID)

			act(t, f, shareID)

			// Settled rows keep no decryption capability for the payload.
			sh, err := f.shareRepo.Get(ctx, shareID)
			require.NoError(t, err)
			assert.True(t, sh.Status.Terminal())
			assert.Empty(t, sh.TransferKey)
			assert.Empty(t, sh.WrappedKey.Ciphertext)
		})
	}
}
