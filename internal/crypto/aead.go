package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// NonceSize is the AES-GCM nonce length in bytes.
	NonceSize = 12
	// TagSize is the AES-GCM authentication tag length in bytes.
	TagSize = 16
)

// ErrAuthenticationFailed covers every decryption failure: wrong key, flipped
// bits, truncated fields, malformed input. Callers must not distinguish the
// cases further.
var ErrAuthenticationFailed = errors.New("crypto: authentication failed")

// SealedBox holds one AEAD output with its nonce and tag as separate fields,
// matching the stored record shape (each field persists as its own column).
type SealedBox struct {
	Ciphertext []byte
	Nonce      []byte
	Tag        []byte
}

// Seal encrypts plaintext under key with AES-256-GCM and a fresh random
// 96-bit nonce. Nonces are never reused for a key; per-key call volume is low
// enough that the random-nonce birthday bound is an accepted risk.
func Seal(key, plaintext []byte) (SealedBox, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return SealedBox{}, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return SealedBox{}, fmt.Errorf("generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)

	// gcm.Seal appends the tag to the ciphertext; split it back out so the
	// two persist as independent columns.
	split := len(sealed) - TagSize
	return SealedBox{
		Ciphertext: sealed[:split],
		Nonce:      nonce,
		Tag:        sealed[split:],
	}, nil
}

// Open verifies the tag and decrypts the box. The tag is checked before any
// plaintext is produced; any mismatch or malformed field yields
// ErrAuthenticationFailed and no partial plaintext.
func Open(key []byte, box SealedBox) ([]byte, error) {
	if len(box.Nonce) != NonceSize || len(box.Tag) != TagSize {
		return nil, ErrAuthenticationFailed
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(box.Ciphertext)+TagSize)
	sealed = append(sealed, box.Ciphertext...)
	sealed = append(sealed, box.Tag...)

	plaintext, err := gcm.Open(nil, box.Nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

// NewSiteKey returns a fresh random 256-bit item key.
func NewSiteKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate site key: %w", err)
	}
	return key, nil
}

// Zero wipes key material before the buffer is released.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("crypto: key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return gcm, nil
}
