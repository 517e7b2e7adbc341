package client

import "time"

// Item is one decrypted credential as the server returns it.
type Item struct {
	ID           int       `json:"id"`
	Domain       string    `json:"domain"`
	Username     string    `json:"username"`
	Password     string    `json:"password"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	DecryptError string    `json:"decrypt_error,omitempty"`
}

type Credential struct {
	Domain   string `json:"domain"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type ShareView struct {
	ShareID          int        `json:"share_id"`
	ItemID           int        `json:"item_id"`
	SenderUsername   string     `json:"sender_username"`
	ReceiverUsername string     `json:"receiver_username"`
	Domain           string     `json:"domain"`
	Status           string     `json:"status"`
	SharedAt         time.Time  `json:"shared_at"`
	ExpiresAt        time.Time  `json:"expires_at"`
	AcceptedAt       *time.Time `json:"accepted_at,omitempty"`
}
