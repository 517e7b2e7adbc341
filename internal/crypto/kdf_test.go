package crypto

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveMasterKey_Deterministic(t *testing.T) {
	salt, err := NewMasterSalt()
	require.NoError(t, err)

	a := DeriveMasterKey("Correct-Horse1", salt)
	b := DeriveMasterKey("Correct-Horse1", salt)

	assert.Len(t, a, KeySize)
	assert.Equal(t, a, b)
}

func TestDeriveMasterKey_InputsMatter(t *testing.T) {
	salt, err := NewMasterSalt()
	require.NoError(t, err)
	otherSalt, err := NewMasterSalt()
	require.NoError(t, err)

	base := DeriveMasterKey("Correct-Horse1", salt)

	assert.NotEqual(t, base, DeriveMasterKey("Correct-Horse2", salt))
	assert.NotEqual(t, base, DeriveMasterKey("Correct-Horse1", otherSalt))
}

func TestNewMasterSalt(t *testing.T) {
	a, err := NewMasterSalt()
	require.NoError(t, err)
	b, err := NewMasterSalt()
	require.NoError(t, err)

	assert.Len(t, a, SaltSize)
	assert.NotEqual(t, a, b)
}

func TestDeriver_MatchesDirectDerivation(t *testing.T) {
	salt, err := NewMasterSalt()
	require.NoError(t, err)

	d := NewDeriver(2)
	key, err := d.Derive(context.Background(), "Correct-Horse1", salt)
	require.NoError(t, err)

	assert.Equal(t, DeriveMasterKey("Correct-Horse1", salt), key)
}

func TestDeriver_HonorsCancellation(t *testing.T) {
	salt, err := NewMasterSalt()
	require.NoError(t, err)

	d := NewDeriver(1)

	// Hold the only slot so the second derivation has to wait.
	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = d.sem.Acquire(context.Background(), 1)
		close(held)
		<-release
		d.sem.Release(1)
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = d.Derive(ctx, "pw", salt)
	assert.Error(t, err)

	close(release)
}
