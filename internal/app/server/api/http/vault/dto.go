package vault

import (
	"time"

	"passvault/internal/domain/vault"
)

type unlockInput struct {
	Body unlockRequest
}

type unlockRequest struct {
	MasterPassword string `json:"master_password" doc:"Vault master password" minLength:"1"`
}

type unlockOutput struct {
	Body unlockResponse
}

type unlockResponse struct {
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at" doc:"When the cached master key lapses"`
}

type statusOutput struct {
	Body statusResponse
}

type statusResponse struct {
	Status string `json:"status"`
}

type listOutput struct {
	Body listResponse
}

type listResponse struct {
	Items []itemView `json:"items"`
}

// itemView is one decrypted credential. DecryptError is set instead of the
// credential fields when this particular row failed to open.
type itemView struct {
	ID           int       `json:"id"`
	Domain       string    `json:"domain,omitempty"`
	Username     string    `json:"username,omitempty"`
	Password     string    `json:"password,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	DecryptError string    `json:"decrypt_error,omitempty"`
}

func toItemViews(entries []vault.Entry) []itemView {
	views := make([]itemView, len(entries))
	for i, e := range entries {
		views[i] = itemView{
			ID:           e.ID,
			Domain:       e.Credential.Domain,
			Username:     e.Credential.Username,
			Password:     e.Credential.Password,
			CreatedAt:    e.CreatedAt,
			UpdatedAt:    e.UpdatedAt,
			DecryptError: e.DecryptError,
		}
	}
	return views
}

type createInput struct {
	Body credentialRequest
}

type credentialRequest struct {
	Domain   string `json:"domain" doc:"Site or service the credential belongs to" minLength:"1"`
	Username string `json:"username" doc:"Login name at the site" minLength:"1"`
	Password string `json:"password" doc:"Password at the site" minLength:"1"`
}

type updateInput struct {
	ID   int `path:"id" example:"1" doc:"Item id"`
	Body credentialRequest
}

type deleteInput struct {
	ID int `path:"id" example:"1" doc:"Item id"`
}

type itemOutput struct {
	Body itemResponse
}

type itemResponse struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
}
