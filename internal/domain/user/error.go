package user

import "errors"

var (
	ErrNotFound     = errors.New("user not found")
	ErrInvalidAuth  = errors.New("invalid credentials")
	ErrInvalidInput = errors.New("invalid input")
	ErrTaken        = errors.New("username already taken")

	// ErrMissingMasterSalt is a fatal configuration error: a user row without
	// its salt can never unwrap anything. Logged, never retried.
	ErrMissingMasterSalt = errors.New("user record is missing master salt")
)
