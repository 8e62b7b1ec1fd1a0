package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/keylessvault/internal/client/client"
	"github.com/dmitrijs2005/keylessvault/internal/client/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t *time.Time) Clock {
	return func() time.Time { return *t }
}

type fakeKeyless struct {
	mu         sync.Mutex
	pepper     []byte
	pepperErr  error
	proofErr   error
	pepperReqs []client.PepperRequest
	proofCalls int
}

func (f *fakeKeyless) FetchPepper(_ context.Context, req client.PepperRequest) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pepperReqs = append(f.pepperReqs, req)
	if f.pepperErr != nil {
		return nil, f.pepperErr
	}
	return append([]byte(nil), f.pepper...), nil
}

func (f *fakeKeyless) FetchProof(_ context.Context, _ client.ProofRequest) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.proofCalls++
	if f.proofErr != nil {
		return nil, f.proofErr
	}
	return json.RawMessage(`{"pi":"0x01"}`), nil
}

type fakeChain struct {
	mu        sync.Mutex
	seq       uint64
	submitted []*models.SignedTransaction
}

func (f *fakeChain) View(context.Context, models.EntryFunctionPayload) ([]json.RawMessage, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeChain) AccountSequenceNumber(context.Context, string) (uint64, error) {
	return f.seq, nil
}

func (f *fakeChain) SubmitTransaction(_ context.Context, tx *models.SignedTransaction) (*models.PendingTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, tx)
	return &models.PendingTransaction{Hash: "0xhash"}, nil
}

func (f *fakeChain) TransactionByHash(context.Context, string) (*models.Transaction, error) {
	return nil, client.ErrNotFound
}

func (f *fakeChain) Ping(context.Context) error { return nil }

type approverFunc func(ctx context.Context, address string, p models.EntryFunctionPayload) (bool, error)

func (f approverFunc) Approve(ctx context.Context, address string, p models.EntryFunctionPayload) (bool, error) {
	return f(ctx, address, p)
}

type tokenOpts struct {
	nonce string
	sub   string
	exp   time.Time
}

// mintToken signs a throwaway HS256 identity token; only its payload matters.
func mintToken(t *testing.T, o tokenOpts) string {
	t.Helper()
	if o.sub == "" {
		o.sub = "1234567890"
	}
	if o.exp.IsZero() {
		o.exp = t0.Add(30 * 24 * time.Hour)
	}
	claims := identityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://accounts.google.com",
			Subject:   o.sub,
			Audience:  jwt.ClaimStrings{"client-id"},
			ExpiresAt: jwt.NewNumericDate(o.exp),
		},
		Nonce: o.nonce,
		Email: "ann@example.com",
		Name:  "Ann",
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}
