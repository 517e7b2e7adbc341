package user

import "time"

type User struct {
	ID           int
	Username     string
	PasswordHash string
	// MasterSalt feeds the master-key KDF. Generated once at registration;
	// it never changes without re-wrapping everything the user owns.
	MasterSalt []byte
	CreatedAt  time.Time
}

type Credentials struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8"`
}
