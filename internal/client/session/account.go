package session

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/keylessvault/internal/client/client"
	"github.com/dmitrijs2005/keylessvault/internal/client/models"
	"github.com/dmitrijs2005/keylessvault/internal/common"
	"github.com/dmitrijs2005/keylessvault/internal/cryptox"
	"github.com/dmitrijs2005/keylessvault/internal/logging"
)

// Transaction defaults used when signing.
const (
	DefaultMaxGasAmount = 200000
	DefaultGasUnitPrice = 100
	DefaultTxLifetime   = 60 * time.Second

	rawTransactionDomain = "APTOS::RawTransaction"
	keylessSignatureType = "keyless_signature"
)

// Approver asks the user whether a transaction may be signed.
type Approver interface {
	Approve(ctx context.Context, address string, payload models.EntryFunctionPayload) (bool, error)
}

// AccountDeps are the collaborators a KeylessAccount signs through.
type AccountDeps struct {
	Chain    client.Chain
	Keyless  client.KeylessClient
	Approver Approver
	Clock    Clock
	Log      logging.Logger
}

// KeylessAccount is an address plus the capability to sign for it with the
// ephemeral key bound to the identity token.
type KeylessAccount struct {
	record  models.SessionRecord
	keyPair *cryptox.EphemeralKeyPair
	pepper  []byte
	deps    AccountDeps

	mu    sync.Mutex
	proof json.RawMessage
}

func newKeylessAccount(rec models.SessionRecord, kp *cryptox.EphemeralKeyPair, pepper []byte, deps AccountDeps) *KeylessAccount {
	deps.Clock = orSystem(deps.Clock)
	if deps.Log == nil {
		deps.Log = logging.Discard()
	}
	return &KeylessAccount{record: rec, keyPair: kp, pepper: pepper, deps: deps}
}

// restoreAccount rebuilds an account from its persisted parts.
func restoreAccount(rec models.SessionRecord, kp *cryptox.EphemeralKeyPair, deps AccountDeps) (*KeylessAccount, error) {
	pepper, err := hex.DecodeString(rec.Pepper)
	if err != nil {
		return nil, fmt.Errorf("decode pepper: %w", err)
	}
	return newKeylessAccount(rec, kp, pepper, deps), nil
}

func (a *KeylessAccount) Address() string { return a.record.Address }

// Record is a copy of the session record backing the account.
func (a *KeylessAccount) Record() models.SessionRecord { return a.record }

func (a *KeylessAccount) ExpiresAt() time.Time { return a.keyPair.ExpiresAt }

func (a *KeylessAccount) KeyPair() *cryptox.EphemeralKeyPair { return a.keyPair }

// SignAndSubmitTransaction asks the approver, signs payload with the
// ephemeral key and submits it. A declined approval returns
// common.ErrUserRejected.
func (a *KeylessAccount) SignAndSubmitTransaction(ctx context.Context, payload models.EntryFunctionPayload) (*models.PendingTransaction, error) {
	if a.deps.Chain == nil {
		return nil, errors.New("account has no chain client")
	}
	now := a.deps.Clock()
	if a.keyPair.Expired(now) {
		return nil, common.NewAuthError("session expired", ErrKeyPairExpired)
	}

	if a.deps.Approver != nil {
		ok, err := a.deps.Approver.Approve(ctx, a.Address(), payload)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, common.ErrUserRejected
		}
	}

	proof, err := a.zkProof(ctx)
	if err != nil {
		return nil, err
	}

	seq, err := a.deps.Chain.AccountSequenceNumber(ctx, a.Address())
	if err != nil {
		return nil, fmt.Errorf("sequence number: %w", err)
	}

	tx := &models.SignedTransaction{
		Sender:                  a.Address(),
		SequenceNumber:          models.U64(seq),
		MaxGasAmount:            DefaultMaxGasAmount,
		GasUnitPrice:            DefaultGasUnitPrice,
		ExpirationTimestampSecs: models.U64(now.Add(DefaultTxLifetime).Unix()),
		Payload:                 payload,
	}
	msg, err := SigningMessage(tx)
	if err != nil {
		return nil, err
	}
	tx.Signature = models.KeylessSignature{
		Type:               keylessSignatureType,
		EphemeralPublicKey: a.keyPair.PublicKeyHex(),
		Signature:          "0x" + hex.EncodeToString(a.keyPair.Sign(msg)),
		ExpiryDateSecs:     models.U64(a.keyPair.ExpiresAt.Unix()),
		Proof:              proof,
		IDToken:            a.record.IDToken,
	}

	a.deps.Log.Debug(ctx, "submitting signed transaction", "sender", tx.Sender, "sequence", seq, "function", payload.Function)
	return a.deps.Chain.SubmitTransaction(ctx, tx)
}

// SigningMessage is the byte string the ephemeral key signs for tx: the
// domain-separated JSON of tx without its signature.
func SigningMessage(tx *models.SignedTransaction) ([]byte, error) {
	body, err := json.Marshal(struct {
		Sender                  string                      `json:"sender"`
		SequenceNumber          models.U64                  `json:"sequence_number"`
		MaxGasAmount            models.U64                  `json:"max_gas_amount"`
		GasUnitPrice            models.U64                  `json:"gas_unit_price"`
		ExpirationTimestampSecs models.U64                  `json:"expiration_timestamp_secs"`
		Payload                 models.EntryFunctionPayload `json:"payload"`
	}{tx.Sender, tx.SequenceNumber, tx.MaxGasAmount, tx.GasUnitPrice, tx.ExpirationTimestampSecs, tx.Payload})
	if err != nil {
		return nil, fmt.Errorf("encode raw transaction: %w", err)
	}
	return cryptox.SigningMessage(rawTransactionDomain, body), nil
}

// zkProof fetches the prover's proof once per account.
func (a *KeylessAccount) zkProof(ctx context.Context) (json.RawMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.proof != nil {
		return a.proof, nil
	}
	if a.deps.Keyless == nil {
		return nil, errors.New("account has no prover client")
	}
	proof, err := a.deps.Keyless.FetchProof(ctx, client.ProofRequest{
		PepperRequest: client.PepperRequest{IDToken: a.record.IDToken, KeyPair: a.keyPair, UIDKey: cryptox.UIDKey},
		Pepper:        a.pepper,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch proof: %w", err)
	}
	a.proof = proof
	return proof, nil
}

// wipe drops key material held by the account.
func (a *KeylessAccount) wipe() {
	a.keyPair.Wipe()
	common.WipeByteArray(a.pepper)
}
