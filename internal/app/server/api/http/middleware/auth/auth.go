package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"passvault/internal/domain/session"
	"passvault/internal/domain/user"
)

type Auth struct {
	session session.Servicer
	users   user.Servicer
	log     *slog.Logger
}

func New(session session.Servicer, users user.Servicer, log *slog.Logger) *Auth {
	return &Auth{
		session: session,
		users:   users,
		log:     log.With("component", "auth_middleware"),
	}
}

type contextKey string

const (
	userIDKey   contextKey = "userID"
	usernameKey contextKey = "username"
)

// Middleware validates the bearer token and loads the caller's id and
// username into the request context.
func (a *Auth) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		token := ctx.Header("Authorization")

		if len(token) < 7 || token[:7] != "Bearer " {
			a.unauthorized(ctx, "missing bearer token")
			return
		}

		userID, err := a.session.Validate(ctx.Context(), token[7:])
		if err != nil {
			a.log.Debug("session validation failed", "error", err)
			a.unauthorized(ctx, "invalid or expired session")
			return
		}

		username, err := a.users.Username(ctx.Context(), userID)
		if err != nil {
			a.log.Error("session points at unknown user", "user_id", userID, "error", err)
			a.unauthorized(ctx, "invalid or expired session")
			return
		}

		newCtx := WithUsername(WithUserID(ctx.Context(), userID), username)
		next(huma.WithContext(ctx, newCtx))
	}
}

func (a *Auth) unauthorized(ctx huma.Context, msg string) {
	ctx.SetStatus(http.StatusUnauthorized)
	ctx.SetHeader("Content-Type", "application/json")

	err := json.NewEncoder(ctx.BodyWriter()).Encode(map[string]string{
		"error": msg,
	})
	if err != nil {
		a.log.Error("failed to write unauthorized response", "error", err)
	}
}

func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

func GetUserID(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDKey).(int)
	return userID, ok
}

func GetUsername(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok
}
