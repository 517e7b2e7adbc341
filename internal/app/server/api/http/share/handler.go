package share

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"passvault/internal/app/server/api/http/middleware/auth"
	mkmw "passvault/internal/app/server/api/http/middleware/masterkey"
	"passvault/internal/domain/share"
)

type Handler struct {
	service share.Servicer
	log     *slog.Logger

	// sessionMW covers operations that move no key material; keyMW
	// additionally requires an unlocked vault.
	sessionMW huma.Middlewares
	keyMW     huma.Middlewares
}

func NewHandler(service share.Servicer, log *slog.Logger, sessionMW, keyMW huma.Middlewares) *Handler {
	return &Handler{
		service:   service,
		log:       log,
		sessionMW: sessionMW,
		keyMW:     keyMW,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.initiateOp(), h.initiate)
	huma.Register(api, h.provideDataOp(), h.provideData)
	huma.Register(api, h.acceptOp(), h.accept)
	huma.Register(api, h.rejectOp(), h.reject)
	huma.Register(api, h.revokeOp(), h.revoke)
	huma.Register(api, h.listSentOp(), h.listSent)
	huma.Register(api, h.listReceivedOp(), h.listReceived)
}

func (h *Handler) initiate(ctx context.Context, input *initiateInput) (*shareOutput, error) {
	userID, username, key, err := keyPrincipal(ctx)
	if err != nil {
		return nil, err
	}

	shareID, err := h.service.Initiate(ctx, input.ItemID, userID, username, key, input.Body.ReceiverUsername)
	if err != nil {
		return nil, h.mapError(err)
	}

	return &shareOutput{Body: shareResponse{ShareID: shareID, Status: "Ok"}}, nil
}

func (h *Handler) provideData(ctx context.Context, input *shareIDInput) (*shareOutput, error) {
	userID, username, key, err := keyPrincipal(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.service.ProvideData(ctx, input.ID, userID, username, key); err != nil {
		return nil, h.mapError(err)
	}

	return &shareOutput{Body: shareResponse{ShareID: input.ID, Status: "Ok"}}, nil
}

func (h *Handler) accept(ctx context.Context, input *shareIDInput) (*acceptOutput, error) {
	userID, username, key, err := keyPrincipal(ctx)
	if err != nil {
		return nil, err
	}

	itemID, err := h.service.Accept(ctx, input.ID, userID, username, key)
	if err != nil {
		return nil, h.mapError(err)
	}

	return &acceptOutput{
		Body: acceptResponse{ShareID: input.ID, ItemID: itemID, Status: "Ok"},
	}, nil
}

func (h *Handler) reject(ctx context.Context, input *shareIDInput) (*shareOutput, error) {
	username, err := sessionPrincipal(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.service.Reject(ctx, input.ID, username); err != nil {
		return nil, h.mapError(err)
	}

	return &shareOutput{Body: shareResponse{ShareID: input.ID, Status: "Ok"}}, nil
}

func (h *Handler) revoke(ctx context.Context, input *shareIDInput) (*shareOutput, error) {
	username, err := sessionPrincipal(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.service.Revoke(ctx, input.ID, username); err != nil {
		return nil, h.mapError(err)
	}

	return &shareOutput{Body: shareResponse{ShareID: input.ID, Status: "Ok"}}, nil
}

func (h *Handler) listSent(ctx context.Context, _ *struct{}) (*listOutput, error) {
	username, err := sessionPrincipal(ctx)
	if err != nil {
		return nil, err
	}

	views, err := h.service.ListSent(ctx, username)
	if err != nil {
		return nil, err
	}

	return &listOutput{Body: listResponse{Shares: views}}, nil
}

func (h *Handler) listReceived(ctx context.Context, input *listReceivedInput) (*listOutput, error) {
	username, err := sessionPrincipal(ctx)
	if err != nil {
		return nil, err
	}

	views, err := h.service.ListReceived(ctx, username, share.Status(input.Status))
	if err != nil {
		return nil, err
	}

	return &listOutput{Body: listResponse{Shares: views}}, nil
}

func (h *Handler) mapError(err error) error {
	switch {
	case errors.Is(err, share.ErrNotFound):
		return huma.Error404NotFound("share not found")
	case errors.Is(err, share.ErrInvalidInput):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, share.ErrExpired):
		return huma.Error410Gone("share expired")
	case errors.Is(err, share.ErrAlreadyProcessed):
		return huma.Error409Conflict("share already processed")
	case errors.Is(err, share.ErrNotReady):
		return huma.Error409Conflict("share data not yet provided")
	case errors.Is(err, share.ErrActiveExists):
		return huma.Error409Conflict("active share already exists for this item and receiver")
	case errors.Is(err, share.ErrDecryptionFailed):
		return huma.Error401Unauthorized("decryption failed")
	}
	return err
}

func sessionPrincipal(ctx context.Context) (string, error) {
	username, ok := auth.GetUsername(ctx)
	if !ok {
		return "", huma.Error401Unauthorized("Unauthorized")
	}
	return username, nil
}

func keyPrincipal(ctx context.Context) (int, string, []byte, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return 0, "", nil, huma.Error401Unauthorized("Unauthorized")
	}
	username, ok := auth.GetUsername(ctx)
	if !ok {
		return 0, "", nil, huma.Error401Unauthorized("Unauthorized")
	}
	key, ok := mkmw.GetKey(ctx)
	if !ok {
		return 0, "", nil, huma.Error401Unauthorized("master key required")
	}
	return userID, username, key, nil
}
