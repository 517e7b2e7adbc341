package crypto

import (
	"context"
	"crypto/rand"
	"crypto/sha512"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/sync/semaphore"
)

const (
	// Iterations of the PBKDF2 PRF. Fixed: stored data was wrapped with this
	// exact cost and must remain readable.
	Iterations = 100000
	// SaltSize is the per-user master salt length in bytes.
	SaltSize = 16
)

// DeriveMasterKey turns a master password and the user's salt into a 256-bit
// key with PBKDF2-SHA512. Deterministic for identical inputs; the derived key
// must never be logged or persisted outside the session cache.
func DeriveMasterKey(masterPassword string, salt []byte) []byte {
	return pbkdf2.Key([]byte(masterPassword), salt, Iterations, KeySize, sha512.New)
}

// NewMasterSalt returns a fresh random 128-bit salt. Generated exactly once
// per user at registration; changing it orphans every wrapped key the user
// owns.
func NewMasterSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate master salt: %w", err)
	}
	return salt, nil
}

// Deriver serializes access to the CPU-heavy KDF so a login storm cannot
// starve the process. Derivations beyond the limit queue on the semaphore.
type Deriver struct {
	sem *semaphore.Weighted
}

// NewDeriver bounds concurrent derivations to limit; limit <= 0 falls back
// to a single in-flight derivation.
func NewDeriver(limit int64) *Deriver {
	if limit <= 0 {
		limit = 1
	}
	return &Deriver{sem: semaphore.NewWeighted(limit)}
}

// Derive runs DeriveMasterKey under the concurrency bound. It blocks while
// the semaphore is saturated and honors ctx cancellation while waiting.
func (d *Deriver) Derive(ctx context.Context, masterPassword string, salt []byte) ([]byte, error) {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire kdf slot: %w", err)
	}
	defer d.sem.Release(1)

	return DeriveMasterKey(masterPassword, salt), nil
}
