// Route map:
//
//	POST /user/register            # Register (public)
//	POST /user/login               # Login, returns bearer token (public)
//	POST /api/user/logout          # End session (auth)
//	POST /api/vault/unlock         # Derive and cache the master key (auth)
//	POST /api/vault/lock           # Drop the cached master key (auth)
//	GET  /api/items                # List decrypted items (auth + key)
//	POST /api/items                # Store a credential (auth + key)
//	PUT  /api/items/{id}           # Update a credential (auth + key)
//	DELETE /api/items/{id}         # Delete a credential (auth + key)
//	POST /api/items/{id}/share     # Offer an item to another user (auth + key)
//	POST /api/shares/{id}/data     # Attach encrypted material (auth + key)
//	POST /api/shares/{id}/accept   # Import into own vault (auth + key)
//	POST /api/shares/{id}/reject   # Decline (auth)
//	POST /api/shares/{id}/revoke   # Withdraw (auth)
//	GET  /api/shares/sent          # Shares sent (auth)
//	GET  /api/shares/received      # Shares received (auth)
//	GET  /api/v1/health            # Health check (public)
package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	healthAPI "passvault/internal/app/server/api/http/health"
	shareAPI "passvault/internal/app/server/api/http/share"
	userAPI "passvault/internal/app/server/api/http/user"
	vaultAPI "passvault/internal/app/server/api/http/vault"

	"passvault/internal/app/server/api/http/middleware"
	"passvault/internal/app/server/api/http/middleware/auth"
	"passvault/internal/app/server/api/http/middleware/logger"
	mkmw "passvault/internal/app/server/api/http/middleware/masterkey"

	"passvault/internal/app/server/config"
	"passvault/internal/crypto"
	"passvault/internal/domain/masterkey"
	"passvault/internal/domain/session"
	"passvault/internal/domain/share"
	"passvault/internal/domain/user"
	"passvault/internal/domain/vault"
	"passvault/internal/infrastructure/storage/postgres"
)

type Handlers struct {
	Health *healthAPI.Handler
	User   *userAPI.Handler
	Vault  *vaultAPI.Handler
	Share  *shareAPI.Handler
}

// New builds a *chi.Mux with every operation registered through huma.
func New(storage *postgres.Storage, cfg *config.Config, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	humaConfig := huma.DefaultConfig("Passvault API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, humaConfig)

	h := handlers(storage, cfg, log)
	h.Health.SetupRoutes(API)
	h.User.SetupRoutes(API)
	h.Vault.SetupRoutes(API)
	h.Share.SetupRoutes(API)

	return mux
}

func handlers(storage *postgres.Storage, cfg *config.Config, log *slog.Logger) *Handlers {
	pool := storage.Pool()

	sessionRepo := postgres.NewSessionRepository(pool, log)
	sessionService := session.NewService(sessionRepo, log)

	userRepo := postgres.NewUserRepository(pool, log)
	userService := user.NewService(userRepo, user.NewPasswordValidator(), log)

	keyService := masterkey.NewService(masterkey.NewMemoryStore(), log)
	deriver := crypto.NewDeriver(cfg.Crypto.KDFConcurrency)

	authMW := auth.New(sessionService, userService, log)
	keyMW := mkmw.New(keyService, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	publicMWs := middlewares.GetAllAndClear()

	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	sessionMWs := middlewares.GetAllAndClear()

	middlewares.Add(authMW.Middleware())
	middlewares.Add(keyMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	keyMWs := middlewares.GetAllAndClear()

	vaultRepo := postgres.NewVaultRepository(pool, log)
	vaultService := vault.NewService(vaultRepo, log)

	userHandler := userAPI.NewHandler(userService, sessionService, vaultService,
		keyService, deriver, log, publicMWs, sessionMWs)

	vaultHandler := vaultAPI.NewHandler(vaultService, userService, keyService,
		deriver, log, sessionMWs, keyMWs)

	shareRepo := postgres.NewShareRepository(pool, log)
	shareService := share.NewService(shareRepo, vaultService, userService, log)
	shareHandler := shareAPI.NewHandler(shareService, log, sessionMWs, keyMWs)

	return &Handlers{
		Health: healthHandler,
		User:   userHandler,
		Vault:  vaultHandler,
		Share:  shareHandler,
	}
}
