package vault

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/exp/slog"

	"passvault/internal/app/server/api/http/middleware/auth"
	mkmw "passvault/internal/app/server/api/http/middleware/masterkey"
	"passvault/internal/crypto"
	"passvault/internal/domain/masterkey"
	"passvault/internal/domain/user"
	"passvault/internal/domain/vault"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, ownerID int, masterKey []byte, cred vault.Credential) (int, error) {
	args := m.Called(ctx, ownerID, masterKey, cred)
	return args.Int(0), args.Error(1)
}

func (m *MockService) List(ctx context.Context, ownerID int, masterKey []byte) ([]vault.Entry, error) {
	args := m.Called(ctx, ownerID, masterKey)
	return args.Get(0).([]vault.Entry), args.Error(1)
}

func (m *MockService) Update(ctx context.Context, itemID, ownerID int, masterKey []byte, cred vault.Credential) error {
	args := m.Called(ctx, itemID, ownerID, masterKey, cred)
	return args.Error(0)
}

func (m *MockService) Delete(ctx context.Context, itemID, ownerID int) error {
	args := m.Called(ctx, itemID, ownerID)
	return args.Error(0)
}

func (m *MockService) Get(ctx context.Context, itemID, ownerID int) (*vault.Item, error) {
	args := m.Called(ctx, itemID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vault.Item), args.Error(1)
}

func (m *MockService) SiteKey(ctx context.Context, itemID, ownerID int, masterKey []byte) ([]byte, error) {
	args := m.Called(ctx, itemID, ownerID, masterKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockService) Open(item *vault.Item, masterKey []byte) (vault.Credential, error) {
	args := m.Called(item, masterKey)
	return args.Get(0).(vault.Credential), args.Error(1)
}

func (m *MockService) ImportSealed(ctx context.Context, ownerID int, payload, wrappedSiteKey crypto.SealedBox) (int, error) {
	args := m.Called(ctx, ownerID, payload, wrappedSiteKey)
	return args.Int(0), args.Error(1)
}

func (m *MockService) VerifyMasterKey(ctx context.Context, ownerID int, masterKey []byte) error {
	args := m.Called(ctx, ownerID, masterKey)
	return args.Error(0)
}

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) Register(ctx context.Context, username, password string) (int, error) {
	args := m.Called(ctx, username, password)
	return args.Int(0), args.Error(1)
}

func (m *MockUsers) Authenticate(ctx context.Context, username, password string) (user.User, error) {
	args := m.Called(ctx, username, password)
	return args.Get(0).(user.User), args.Error(1)
}

func (m *MockUsers) MasterSalt(ctx context.Context, userID int) ([]byte, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockUsers) SaltFor(ctx context.Context, username string) ([]byte, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockUsers) Username(ctx context.Context, userID int) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func TestHandler_Unlock(t *testing.T) {
	const userID = 7
	salt := []byte("0123456789abcdef")
	log := slog.Default()
	authCtx := auth.WithUserID(context.Background(), userID)

	t.Run("Success_CachesKey", func(t *testing.T) {
		svc := new(MockService)
		users := new(MockUsers)
		keys := masterkey.NewService(masterkey.NewMemoryStore(), log)

		users.On("MasterSalt", mock.Anything, userID).Return(salt, nil)
		svc.On("VerifyMasterKey", mock.Anything, userID, mock.Anything).Return(nil)

		h := NewHandler(svc, users, keys, crypto.NewDeriver(1), log, nil, nil)

		input := &unlockInput{}
		input.Body.MasterPassword = "correct horse"

		resp, err := h.unlock(authCtx, input)

		assert.NoError(t, err)
		assert.Equal(t, "Ok", resp.Body.Status)
		assert.False(t, resp.Body.ExpiresAt.IsZero())

		cached, err := keys.Key(userID)
		assert.NoError(t, err)
		assert.Len(t, cached, 32)
	})

	t.Run("Error_WrongPassword", func(t *testing.T) {
		svc := new(MockService)
		users := new(MockUsers)
		keys := masterkey.NewService(masterkey.NewMemoryStore(), log)

		users.On("MasterSalt", mock.Anything, userID).Return(salt, nil)
		svc.On("VerifyMasterKey", mock.Anything, userID, mock.Anything).
			Return(crypto.ErrAuthenticationFailed)

		h := NewHandler(svc, users, keys, crypto.NewDeriver(1), log, nil, nil)

		input := &unlockInput{}
		input.Body.MasterPassword = "wrong"

		resp, err := h.unlock(authCtx, input)

		assert.Nil(t, resp)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid master password")

		_, err = keys.Key(userID)
		assert.ErrorIs(t, err, masterkey.ErrKeyRequired)
	})

	t.Run("Error_NoAuthContext", func(t *testing.T) {
		h := NewHandler(nil, nil, nil, nil, log, nil, nil)

		resp, err := h.unlock(context.Background(), &unlockInput{})

		assert.Nil(t, resp)
		assert.Error(t, err)
	})
}

func TestHandler_Items(t *testing.T) {
	const userID = 7
	key := make([]byte, 32)
	log := slog.Default()

	ctx := mkmw.WithKey(auth.WithUserID(context.Background(), userID), key)

	t.Run("Create", func(t *testing.T) {
		svc := new(MockService)
		cred := vault.Credential{Domain: "example.com", Username: "bob", Password: "pw"}
		svc.On("Create", mock.Anything, userID, key, cred).Return(42, nil)

		h := NewHandler(svc, nil, nil, nil, log, nil, nil)

		input := &createInput{}
		input.Body.Domain = cred.Domain
		input.Body.Username = cred.Username
		input.Body.Password = cred.Password

		resp, err := h.create(ctx, input)

		assert.NoError(t, err)
		assert.Equal(t, 42, resp.Body.ID)
		assert.Equal(t, "Ok", resp.Body.Status)
	})

	t.Run("List_CarriesDecryptError", func(t *testing.T) {
		svc := new(MockService)
		svc.On("List", mock.Anything, userID, key).Return([]vault.Entry{
			{ID: 1, Credential: vault.Credential{Domain: "a.com", Username: "u", Password: "p"}},
			{ID: 2, DecryptError: "authentication failed"},
		}, nil)

		h := NewHandler(svc, nil, nil, nil, log, nil, nil)

		resp, err := h.list(ctx, nil)

		assert.NoError(t, err)
		assert.Len(t, resp.Body.Items, 2)
		assert.Equal(t, "a.com", resp.Body.Items[0].Domain)
		assert.Empty(t, resp.Body.Items[1].Domain)
		assert.Equal(t, "authentication failed", resp.Body.Items[1].DecryptError)
	})

	t.Run("Delete_NotFound", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Delete", mock.Anything, 99, userID).Return(vault.ErrNotFound)

		h := NewHandler(svc, nil, nil, nil, log, nil, nil)

		resp, err := h.delete(ctx, &deleteInput{ID: 99})

		assert.Nil(t, resp)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "item not found")
	})

	t.Run("Error_NoMasterKey", func(t *testing.T) {
		h := NewHandler(nil, nil, nil, nil, log, nil, nil)

		resp, err := h.list(auth.WithUserID(context.Background(), userID), nil)

		assert.Nil(t, resp)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "master key required")
	})
}
