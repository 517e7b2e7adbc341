package vault

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"passvault/internal/app/server/api/http/middleware/auth"
	mkmw "passvault/internal/app/server/api/http/middleware/masterkey"
	"passvault/internal/crypto"
	"passvault/internal/domain/masterkey"
	"passvault/internal/domain/user"
	"passvault/internal/domain/vault"
)

type Handler struct {
	service vault.Servicer
	users   user.Servicer
	keys    masterkey.Servicer
	deriver *crypto.Deriver
	log     *slog.Logger

	// sessionMW is the plain auth chain; itemMW additionally requires an
	// unlocked vault.
	sessionMW huma.Middlewares
	itemMW    huma.Middlewares
}

func NewHandler(service vault.Servicer, users user.Servicer, keys masterkey.Servicer,
	deriver *crypto.Deriver, log *slog.Logger, sessionMW, itemMW huma.Middlewares) *Handler {
	return &Handler{
		service:   service,
		users:     users,
		keys:      keys,
		deriver:   deriver,
		log:       log,
		sessionMW: sessionMW,
		itemMW:    itemMW,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.unlockOp(), h.unlock)
	huma.Register(api, h.lockOp(), h.lock)

	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.createOp(), h.create)
	huma.Register(api, h.updateOp(), h.update)
	huma.Register(api, h.deleteOp(), h.delete)
}

// unlock derives the master key from the master password and caches it for
// the session window. With a non-empty vault a wrong password is caught
// here, not on first decrypt.
func (h *Handler) unlock(ctx context.Context, input *unlockInput) (*unlockOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	salt, err := h.users.MasterSalt(ctx, userID)
	if err != nil {
		h.log.Error("cannot load master salt", "user_id", userID, "error", err)
		return nil, huma.Error500InternalServerError("account is missing key material")
	}

	key, err := h.deriver.Derive(ctx, input.Body.MasterPassword, salt)
	if err != nil {
		return nil, err
	}

	if err := h.service.VerifyMasterKey(ctx, userID, key); err != nil {
		crypto.Zero(key)
		return nil, huma.Error401Unauthorized("invalid master password")
	}

	expiresAt := h.keys.Cache(userID, key)
	crypto.Zero(key)

	return &unlockOutput{
		Body: unlockResponse{Status: "Ok", ExpiresAt: expiresAt},
	}, nil
}

func (h *Handler) lock(ctx context.Context, _ *struct{}) (*statusOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	h.keys.Drop(userID)
	return &statusOutput{Body: statusResponse{Status: "Ok"}}, nil
}

func (h *Handler) list(ctx context.Context, _ *struct{}) (*listOutput, error) {
	userID, key, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := h.service.List(ctx, userID, key)
	if err != nil {
		return nil, err
	}

	return &listOutput{Body: listResponse{Items: toItemViews(entries)}}, nil
}

func (h *Handler) create(ctx context.Context, input *createInput) (*itemOutput, error) {
	userID, key, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	itemID, err := h.service.Create(ctx, userID, key, vault.Credential{
		Domain:   input.Body.Domain,
		Username: input.Body.Username,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, h.mapError(err)
	}

	return &itemOutput{Body: itemResponse{ID: itemID, Status: "Ok"}}, nil
}

func (h *Handler) update(ctx context.Context, input *updateInput) (*itemOutput, error) {
	userID, key, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	err = h.service.Update(ctx, input.ID, userID, key, vault.Credential{
		Domain:   input.Body.Domain,
		Username: input.Body.Username,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, h.mapError(err)
	}

	return &itemOutput{Body: itemResponse{ID: input.ID, Status: "Ok"}}, nil
}

func (h *Handler) delete(ctx context.Context, input *deleteInput) (*itemOutput, error) {
	userID, _, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.service.Delete(ctx, input.ID, userID); err != nil {
		return nil, h.mapError(err)
	}

	return &itemOutput{Body: itemResponse{ID: input.ID, Status: "Ok"}}, nil
}

func (h *Handler) mapError(err error) error {
	switch {
	case errors.Is(err, vault.ErrNotFound):
		return huma.Error404NotFound("item not found")
	case errors.Is(err, vault.ErrInvalidInput):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, vault.ErrDecryptionFailed):
		return huma.Error401Unauthorized("decryption failed")
	}
	return err
}

func principal(ctx context.Context) (int, []byte, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return 0, nil, huma.Error401Unauthorized("Unauthorized")
	}
	key, ok := mkmw.GetKey(ctx)
	if !ok {
		return 0, nil, huma.Error401Unauthorized("master key required")
	}
	return userID, key, nil
}
