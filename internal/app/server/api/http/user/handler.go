package user

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"passvault/internal/app/server/api/http/middleware/auth"
	"passvault/internal/crypto"
	"passvault/internal/domain/masterkey"
	"passvault/internal/domain/session"
	"passvault/internal/domain/user"
	"passvault/internal/domain/vault"
)

type Handler struct {
	service    user.Servicer
	session    session.Servicer
	vault      vault.Servicer
	keys       masterkey.Servicer
	deriver    *crypto.Deriver
	log        *slog.Logger
	middleware huma.Middlewares
	authMW     huma.Middlewares
}

func NewHandler(service user.Servicer, sess session.Servicer, vaultSvc vault.Servicer,
	keys masterkey.Servicer, deriver *crypto.Deriver, log *slog.Logger, middleware, authMW huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		session:    sess,
		vault:      vaultSvc,
		keys:       keys,
		deriver:    deriver,
		log:        log,
		middleware: middleware,
		authMW:     authMW,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.registerOp(), h.register)
	huma.Register(api, h.loginOp(), h.login)
	huma.Register(api, h.logoutOp(), h.logout)
}

func (h *Handler) register(ctx context.Context, input *registerInput) (*registerOutput, error) {
	userID, err := h.service.Register(ctx, input.Body.Username, input.Body.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrTaken):
			return nil, huma.Error409Conflict("username already taken")
		case errors.Is(err, user.ErrInvalidInput):
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		return nil, err
	}

	return &registerOutput{
		Body: RegisterResponse{ID: userID, Status: "Ok"},
	}, nil
}

func (h *Handler) login(ctx context.Context, input *loginInput) (*loginOutput, error) {
	u, err := h.service.Authenticate(ctx, input.Body.Username, input.Body.Password)
	if err != nil {
		// One answer for bad username and bad password alike.
		return nil, huma.Error401Unauthorized("invalid credentials")
	}

	token, err := h.session.Create(ctx, u.ID)
	if err != nil {
		h.log.Error("failed to create session", "user_id", u.ID, "error", err)
		return nil, huma.Error500InternalServerError("could not create session")
	}

	// A wrong master password here fails the whole login rather than
	// silently issuing a locked session.
	unlocked := false
	if input.Body.MasterPassword != "" {
		if err := h.unlockVault(ctx, u.ID, input.Body.MasterPassword); err != nil {
			return nil, err
		}
		unlocked = true
	}

	return &loginOutput{
		Body: LoginResponse{Token: token, Status: "Ok", Unlocked: unlocked},
	}, nil
}

func (h *Handler) unlockVault(ctx context.Context, userID int, masterPassword string) error {
	salt, err := h.service.MasterSalt(ctx, userID)
	if err != nil {
		h.log.Error("cannot load master salt", "user_id", userID, "error", err)
		return huma.Error500InternalServerError("account is missing key material")
	}

	key, err := h.deriver.Derive(ctx, masterPassword, salt)
	if err != nil {
		return err
	}
	defer crypto.Zero(key)

	if err := h.vault.VerifyMasterKey(ctx, userID, key); err != nil {
		return huma.Error401Unauthorized("invalid master password")
	}

	h.keys.Cache(userID, key)
	return nil
}

func (h *Handler) logout(ctx context.Context, input *logoutInput) (*logoutOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	// The cached master key must not outlive the session.
	h.keys.Drop(userID)

	token := input.Authorization
	if len(token) > 7 && token[:7] == "Bearer " {
		token = token[7:]
	}
	if err := h.session.Destroy(ctx, token); err != nil {
		h.log.Error("failed to destroy session", "error", err)
	}

	return &logoutOutput{
		Body: LogoutResponse{Status: "Ok"},
	}, nil
}
