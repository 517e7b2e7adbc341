package client

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/exp/slog"

	"passvault/internal/app/client/config"
)

// App ties the HTTP client and the local cache together for the CLI.
type App struct {
	cfg   *config.Config
	log   *slog.Logger
	http  *httpClient
	cache *SQLiteCache
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	cache, err := NewSQLiteCache(cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}

	app := &App{
		cfg:   cfg,
		log:   log,
		http:  newHTTPClient(cfg, log),
		cache: cache,
	}

	// Resume a previous session if a token is stored.
	if token, err := app.LoadToken(); err == nil && token != "" {
		app.http.SetToken(token)
	}

	return app, nil
}

func (a *App) Close() error {
	return a.cache.Close()
}

func (a *App) CheckConnection(ctx context.Context) error {
	return a.http.HealthCheck(ctx)
}

func (a *App) Register(ctx context.Context, username, password string) error {
	return a.http.Register(ctx, username, password)
}

func (a *App) Login(ctx context.Context, username, password string) error {
	token, err := a.http.Login(ctx, username, password)
	if err != nil {
		return err
	}
	return a.SaveToken(token)
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.http.Logout(ctx); err != nil {
		a.log.Debug("server-side logout failed", "error", err)
	}
	a.http.SetToken("")
	return os.Remove(a.cfg.TokenPath)
}

func (a *App) SaveToken(token string) error {
	return os.WriteFile(a.cfg.TokenPath, []byte(token), 0o600)
}

func (a *App) LoadToken() (string, error) {
	data, err := os.ReadFile(a.cfg.TokenPath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (a *App) HasSession() bool {
	token, err := a.LoadToken()
	return err == nil && token != ""
}

func (a *App) Unlock(ctx context.Context, masterPassword string) (time.Time, error) {
	return a.http.Unlock(ctx, masterPassword)
}

func (a *App) Lock(ctx context.Context) error {
	return a.http.Lock(ctx)
}

// Items fetches the decrypted listing and refreshes the offline cache.
func (a *App) Items(ctx context.Context) ([]Item, error) {
	items, err := a.http.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.cache.ReplaceAll(items); err != nil {
		a.log.Warn("failed to refresh item cache", "error", err)
	}
	return items, nil
}

// CachedItems returns the last fetched listing without touching the
// network. Passwords are not cached and come back empty.
func (a *App) CachedItems() ([]Item, error) {
	return a.cache.List()
}

func (a *App) AddItem(ctx context.Context, cred Credential) (int, error) {
	return a.http.CreateItem(ctx, cred)
}

func (a *App) UpdateItem(ctx context.Context, itemID int, cred Credential) error {
	return a.http.UpdateItem(ctx, itemID, cred)
}

func (a *App) DeleteItem(ctx context.Context, itemID int) error {
	return a.http.DeleteItem(ctx, itemID)
}

// ShareItem runs the sender's half of the handshake: initiate, then attach
// the encrypted material right away.
func (a *App) ShareItem(ctx context.Context, itemID int, receiverUsername string) (int, error) {
	shareID, err := a.http.ShareItem(ctx, itemID, receiverUsername)
	if err != nil {
		return 0, err
	}

	if err := a.http.ProvideShareData(ctx, shareID); err != nil {
		return shareID, fmt.Errorf("share created but data not attached: %w", err)
	}
	return shareID, nil
}

func (a *App) ProvideShareData(ctx context.Context, shareID int) error {
	return a.http.ProvideShareData(ctx, shareID)
}

func (a *App) AcceptShare(ctx context.Context, shareID int) (int, error) {
	return a.http.AcceptShare(ctx, shareID)
}

func (a *App) RejectShare(ctx context.Context, shareID int) error {
	return a.http.RejectShare(ctx, shareID)
}

func (a *App) RevokeShare(ctx context.Context, shareID int) error {
	return a.http.RevokeShare(ctx, shareID)
}

func (a *App) SentShares(ctx context.Context) ([]ShareView, error) {
	return a.http.ListSentShares(ctx)
}

func (a *App) ReceivedShares(ctx context.Context, status string) ([]ShareView, error) {
	return a.http.ListReceivedShares(ctx, status)
}
