package vault

import "errors"

var (
	ErrNotFound     = errors.New("item not found")
	ErrInvalidInput = errors.New("invalid item data")

	// ErrDecryptionFailed means wrong key or corrupted data. Never split
	// further; a tag-mismatch oracle is exactly what this hides.
	ErrDecryptionFailed = errors.New("decryption failed")
)
