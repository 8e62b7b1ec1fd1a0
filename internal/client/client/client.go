package client

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/keylessvault/internal/client/models"
	"github.com/dmitrijs2005/keylessvault/internal/cryptox"
)

// Chain is the part of a chain node the vault client consumes.
type Chain interface {
	// View calls a view function and returns the raw result tuple.
	View(ctx context.Context, payload models.EntryFunctionPayload) ([]json.RawMessage, error)
	AccountSequenceNumber(ctx context.Context, address string) (uint64, error)
	SubmitTransaction(ctx context.Context, tx *models.SignedTransaction) (*models.PendingTransaction, error)
	TransactionByHash(ctx context.Context, hash string) (*models.Transaction, error)
	Ping(ctx context.Context) error
}

// PepperRequest and ProofRequest describe the keyless account being built.
type PepperRequest struct {
	IDToken string
	KeyPair *cryptox.EphemeralKeyPair
	UIDKey  string
}

type ProofRequest struct {
	PepperRequest
	Pepper []byte
}

// KeylessClient reaches the pepper and prover services.
type KeylessClient interface {
	FetchPepper(ctx context.Context, req PepperRequest) ([]byte, error)
	FetchProof(ctx context.Context, req ProofRequest) (json.RawMessage, error)
}
