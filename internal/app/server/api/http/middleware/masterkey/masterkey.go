package masterkey

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"passvault/internal/app/server/api/http/middleware/auth"
	"passvault/internal/domain/masterkey"
)

// ErrorCode marks the 401 a client gets when the vault is locked, so it can
// be told apart from a failed login and trigger a re-unlock prompt instead.
const ErrorCode = "master_key_required"

type MasterKey struct {
	keys masterkey.Servicer
	log  *slog.Logger
}

func New(keys masterkey.Servicer, log *slog.Logger) *MasterKey {
	return &MasterKey{
		keys: keys,
		log:  log.With("component", "masterkey_middleware"),
	}
}

type contextKey string

const keyKey contextKey = "masterKey"

// Middleware fetches the caller's cached master key. Runs after auth.
func (m *MasterKey) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		userID, ok := auth.GetUserID(ctx.Context())
		if !ok {
			m.reject(ctx)
			return
		}

		key, err := m.keys.Key(userID)
		if err != nil {
			m.log.Debug("no cached master key", "user_id", userID)
			m.reject(ctx)
			return
		}

		next(huma.WithContext(ctx, WithKey(ctx.Context(), key)))
	}
}

func (m *MasterKey) reject(ctx huma.Context) {
	ctx.SetStatus(http.StatusUnauthorized)
	ctx.SetHeader("Content-Type", "application/json")

	err := json.NewEncoder(ctx.BodyWriter()).Encode(map[string]string{
		"error": "master key required",
		"code":  ErrorCode,
	})
	if err != nil {
		m.log.Error("failed to write locked-vault response", "error", err)
	}
}

func WithKey(ctx context.Context, key []byte) context.Context {
	return context.WithValue(ctx, keyKey, key)
}

func GetKey(ctx context.Context) ([]byte, bool) {
	key, ok := ctx.Value(keyKey).([]byte)
	return key, ok
}
