package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/keylessvault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/keylessvault/internal/common"
	"github.com/dmitrijs2005/keylessvault/internal/cryptox"
)

var (
	ErrNoPendingLogin = errors.New("no pending login")
	ErrKeyPairExpired = errors.New("ephemeral key pair expired")
)

// KeyStore owns the ephemeral key pair of the login in progress.
type KeyStore struct {
	repo metadata.Repository
	ttl  time.Duration
}

func NewKeyStore(repo metadata.Repository, ttl time.Duration) *KeyStore {
	return &KeyStore{repo: repo, ttl: ttl}
}

// Generate creates a key pair expiring ttl after now. Nothing is stored.
func (k *KeyStore) Generate(now time.Time) (*cryptox.EphemeralKeyPair, error) {
	if k.ttl <= 0 {
		return nil, fmt.Errorf("ephemeral key ttl must be positive, got %s", k.ttl)
	}
	return cryptox.GenerateEphemeralKeyPair(now, k.ttl)
}

// Persist stores kp. A failure aborts the login attempt.
func (k *KeyStore) Persist(ctx context.Context, kp *cryptox.EphemeralKeyPair) error {
	b, err := json.Marshal(kp)
	if err != nil {
		return fmt.Errorf("encode ephemeral key pair: %w", err)
	}
	if err := k.repo.Set(ctx, common.EphemeralKeyPairKey, b); err != nil {
		return fmt.Errorf("persist ephemeral key pair: %w", err)
	}
	return nil
}

// Load returns the stored pair. An expired or unreadable pair is deleted.
func (k *KeyStore) Load(ctx context.Context, now time.Time) (*cryptox.EphemeralKeyPair, error) {
	b, err := k.repo.Get(ctx, common.EphemeralKeyPairKey)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNoPendingLogin
	}

	var kp cryptox.EphemeralKeyPair
	if err := json.Unmarshal(b, &kp); err != nil {
		return nil, k.purge(ctx, fmt.Errorf("%w: %v", ErrNoPendingLogin, err))
	}
	if kp.Expired(now) {
		return nil, k.purge(ctx, ErrKeyPairExpired)
	}
	return &kp, nil
}

// purge deletes the stored pair and returns cause, joined with the delete
// error if the pair could not be removed.
func (k *KeyStore) purge(ctx context.Context, cause error) error {
	if err := k.Clear(ctx); err != nil {
		return errors.Join(cause, fmt.Errorf("purge ephemeral key pair: %w", err))
	}
	return cause
}

func (k *KeyStore) Clear(ctx context.Context) error {
	return k.repo.Delete(ctx, common.EphemeralKeyPairKey)
}
