package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/keylessvault/internal/client/models"
	"github.com/dmitrijs2005/keylessvault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/keylessvault/internal/common"
	"github.com/dmitrijs2005/keylessvault/internal/cryptox"
)

// Store persists the session record next to its ephemeral key pair.
type Store struct {
	repo metadata.Store
	deps AccountDeps
}

func NewStore(repo metadata.Store, deps AccountDeps) *Store {
	return &Store{repo: repo, deps: deps}
}

// Restore rehydrates the saved account without touching the network.
// It returns common.ErrNoSession when nothing usable is stored; expired or
// corrupt sessions are purged first.
func (s *Store) Restore(ctx context.Context, now time.Time) (*KeylessAccount, error) {
	recBytes, err := s.repo.Get(ctx, common.SessionRecordKey)
	if err != nil {
		return nil, err
	}
	if recBytes == nil {
		return nil, common.ErrNoSession
	}
	kpBytes, err := s.repo.Get(ctx, common.EphemeralKeyPairKey)
	if err != nil {
		return nil, err
	}

	acc, err := s.decode(recBytes, kpBytes, now)
	if err != nil {
		if cerr := s.Clear(ctx); cerr != nil {
			return nil, errors.Join(err, cerr)
		}
		return nil, common.ErrNoSession
	}
	return acc, nil
}

var errExpiredSession = errors.New("session expired")

func (s *Store) decode(recBytes, kpBytes []byte, now time.Time) (*KeylessAccount, error) {
	if kpBytes == nil {
		return nil, errors.New("session has no key pair")
	}
	var rec models.SessionRecord
	if err := json.Unmarshal(recBytes, &rec); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}
	if !rec.Valid(now) {
		return nil, errExpiredSession
	}
	var kp cryptox.EphemeralKeyPair
	if err := json.Unmarshal(kpBytes, &kp); err != nil {
		return nil, err
	}
	if kp.Expired(now) {
		return nil, errExpiredSession
	}
	return restoreAccount(rec, &kp, s.deps)
}

// Save writes the account's session record and its key pair together;
// either both are stored or neither is.
func (s *Store) Save(ctx context.Context, acc *KeylessAccount) error {
	rec, err := json.Marshal(acc.Record())
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}
	kp, err := json.Marshal(acc.KeyPair())
	if err != nil {
		return fmt.Errorf("encode ephemeral key pair: %w", err)
	}
	return s.repo.SetKeys(ctx, map[string][]byte{
		common.EphemeralKeyPairKey: kp,
		common.SessionRecordKey:    rec,
	})
}

// Clear removes every session key in one step. Clearing an empty store is
// not an error.
func (s *Store) Clear(ctx context.Context) error {
	return s.repo.DeleteKeys(ctx, common.SessionKeys...)
}
