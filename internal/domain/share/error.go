package share

import "errors"

var (
	ErrNotFound     = errors.New("share not found")
	ErrInvalidInput = errors.New("invalid share request")

	// ErrExpired: the acceptance window closed before the operation.
	ErrExpired = errors.New("share expired")

	// ErrAlreadyProcessed: the share reached a conflicting state first,
	// either a repeat of a done operation or the losing side of an
	// accept/revoke race.
	ErrAlreadyProcessed = errors.New("share already processed")

	// ErrNotReady: accept attempted before the sender attached data.
	ErrNotReady = errors.New("share data not yet provided")

	// ErrActiveExists: at most one non-terminal share per item/receiver pair.
	ErrActiveExists = errors.New("active share already exists for this item and receiver")

	ErrDecryptionFailed = errors.New("share decryption failed")
)
