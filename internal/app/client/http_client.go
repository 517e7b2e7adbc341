package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/exp/slog"

	"passvault/internal/app/client/config"
)

// ErrVaultLocked: the server has no cached master key for this session; the
// user must unlock again.
var ErrVaultLocked = errors.New("vault is locked, unlock first")

type httpClient struct {
	client  *http.Client
	log     *slog.Logger
	baseURL string
	token   string
}

func newHTTPClient(cfg *config.Config, log *slog.Logger) *httpClient {
	scheme := "http://"
	if cfg.EnableTLS {
		scheme = "https://"
	}

	return &httpClient{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
		log:     log.With("component", "http_client"),
		baseURL: scheme + cfg.ServerAddress,
	}
}

func (h *httpClient) SetToken(token string) {
	h.token = token
}

func (h *httpClient) HealthCheck(ctx context.Context) error {
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/v1/health", nil)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	return h.parseResponse(resp, nil)
}

func (h *httpClient) Register(ctx context.Context, username, password string) error {
	resp, err := h.doRequest(ctx, http.MethodPost, "/user/register", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}
	return h.parseResponse(resp, nil)
}

func (h *httpClient) Login(ctx context.Context, username, password string) (string, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, "/user/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", err
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	if err := h.parseResponse(resp, &loginResp); err != nil {
		return "", err
	}

	h.token = loginResp.Token
	return loginResp.Token, nil
}

func (h *httpClient) Logout(ctx context.Context) error {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/user/logout", nil)
	if err != nil {
		return err
	}
	return h.parseResponse(resp, nil)
}

func (h *httpClient) Unlock(ctx context.Context, masterPassword string) (time.Time, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/vault/unlock", map[string]string{
		"master_password": masterPassword,
	})
	if err != nil {
		return time.Time{}, err
	}

	var unlockResp struct {
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := h.parseResponse(resp, &unlockResp); err != nil {
		return time.Time{}, err
	}
	return unlockResp.ExpiresAt, nil
}

func (h *httpClient) Lock(ctx context.Context) error {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/vault/lock", nil)
	if err != nil {
		return err
	}
	return h.parseResponse(resp, nil)
}

func (h *httpClient) ListItems(ctx context.Context) ([]Item, error) {
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/items", nil)
	if err != nil {
		return nil, err
	}

	var listResp struct {
		Items []Item `json:"items"`
	}
	if err := h.parseResponse(resp, &listResp); err != nil {
		return nil, err
	}
	return listResp.Items, nil
}

func (h *httpClient) CreateItem(ctx context.Context, cred Credential) (int, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/items", cred)
	if err != nil {
		return 0, err
	}
	return h.parseIDResponse(resp, "id")
}

func (h *httpClient) UpdateItem(ctx context.Context, itemID int, cred Credential) error {
	resp, err := h.doRequest(ctx, http.MethodPut, fmt.Sprintf("/api/items/%d", itemID), cred)
	if err != nil {
		return err
	}
	return h.parseResponse(resp, nil)
}

func (h *httpClient) DeleteItem(ctx context.Context, itemID int) error {
	resp, err := h.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/items/%d", itemID), nil)
	if err != nil {
		return err
	}
	return h.parseResponse(resp, nil)
}

func (h *httpClient) ShareItem(ctx context.Context, itemID int, receiverUsername string) (int, error) {
	resp, err := h.doRequest(ctx, http.MethodPost,
		fmt.Sprintf("/api/items/%d/share", itemID),
		map[string]string{"receiver_username": receiverUsername})
	if err != nil {
		return 0, err
	}
	return h.parseIDResponse(resp, "share_id")
}

func (h *httpClient) ProvideShareData(ctx context.Context, shareID int) error {
	resp, err := h.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/shares/%d/data", shareID), nil)
	if err != nil {
		return err
	}
	return h.parseResponse(resp, nil)
}

func (h *httpClient) AcceptShare(ctx context.Context, shareID int) (int, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/shares/%d/accept", shareID), nil)
	if err != nil {
		return 0, err
	}
	return h.parseIDResponse(resp, "item_id")
}

func (h *httpClient) RejectShare(ctx context.Context, shareID int) error {
	resp, err := h.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/shares/%d/reject", shareID), nil)
	if err != nil {
		return err
	}
	return h.parseResponse(resp, nil)
}

func (h *httpClient) RevokeShare(ctx context.Context, shareID int) error {
	resp, err := h.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/shares/%d/revoke", shareID), nil)
	if err != nil {
		return err
	}
	return h.parseResponse(resp, nil)
}

func (h *httpClient) ListSentShares(ctx context.Context) ([]ShareView, error) {
	return h.listShares(ctx, "/api/shares/sent")
}

func (h *httpClient) ListReceivedShares(ctx context.Context, status string) ([]ShareView, error) {
	path := "/api/shares/received"
	if status != "" {
		path += "?status=" + status
	}
	return h.listShares(ctx, path)
}

func (h *httpClient) listShares(ctx context.Context, path string) ([]ShareView, error) {
	resp, err := h.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var listResp struct {
		Shares []ShareView `json:"shares"`
	}
	if err := h.parseResponse(resp, &listResp); err != nil {
		return nil, err
	}
	return listResp.Shares, nil
}

func (h *httpClient) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	h.log.Debug("sending request", "method", method, "url", req.URL.String())

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func (h *httpClient) parseResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	h.log.Debug("received response", "status", resp.StatusCode)

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error  string `json:"error"`
			Code   string `json:"code"`
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil {
			if errResp.Code == "master_key_required" {
				return ErrVaultLocked
			}
			if errResp.Error != "" {
				return fmt.Errorf("server error: %s", errResp.Error)
			}
			if errResp.Detail != "" {
				return fmt.Errorf("server error: %s", errResp.Detail)
			}
		}
		return fmt.Errorf("server error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

func (h *httpClient) parseIDResponse(resp *http.Response, field string) (int, error) {
	var raw map[string]json.RawMessage
	if err := h.parseResponse(resp, &raw); err != nil {
		return 0, err
	}

	var id int
	if err := json.Unmarshal(raw[field], &id); err != nil {
		return 0, fmt.Errorf("parse %s: %w", field, err)
	}
	return id, nil
}
