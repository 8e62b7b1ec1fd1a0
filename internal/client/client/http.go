package client

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/keylessvault/internal/client/models"
	"github.com/dmitrijs2005/keylessvault/internal/logging"
	"github.com/dmitrijs2005/keylessvault/internal/netx"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

const defaultHTTPTimeout = 15 * time.Second

// Endpoints are the base URLs NodeClient talks to. Pepper and Prover may be
// empty when only chain access is needed.
type Endpoints struct {
	Node   string
	Pepper string
	Prover string
}

// NodeClient implements Chain and KeylessClient over HTTP/JSON.
type NodeClient struct {
	endpoints Endpoints
	http      *http.Client
	log       logging.Logger
	views     failsafe.Executor[[]json.RawMessage]
}

type Option func(*NodeClient)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(n *NodeClient) { n.http = c }
}

// WithViewRetries sets how often a failed view call is retried on
// ErrUnavailable, waiting delay between attempts.
func WithViewRetries(retries int, delay time.Duration) Option {
	return func(n *NodeClient) { n.views = newViewExecutor(retries, delay) }
}

func NewNodeClient(endpoints Endpoints, log logging.Logger, opts ...Option) *NodeClient {
	n := &NodeClient{
		endpoints: Endpoints{
			Node:   strings.TrimRight(endpoints.Node, "/"),
			Pepper: strings.TrimRight(endpoints.Pepper, "/"),
			Prover: strings.TrimRight(endpoints.Prover, "/"),
		},
		http:  &http.Client{Timeout: defaultHTTPTimeout},
		log:   log,
		views: newViewExecutor(2, 200*time.Millisecond),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func newViewExecutor(retries int, delay time.Duration) failsafe.Executor[[]json.RawMessage] {
	if retries < 0 {
		retries = 0
	}
	if delay <= 0 {
		delay = time.Millisecond
	}
	policy := retrypolicy.NewBuilder[[]json.RawMessage]().
		HandleIf(func(_ []json.RawMessage, err error) bool {
			return errors.Is(err, ErrUnavailable)
		}).
		WithDelay(delay).
		WithMaxRetries(retries).
		ReturnLastFailure().
		Build()
	return failsafe.With(policy)
}

func (n *NodeClient) View(ctx context.Context, payload models.EntryFunctionPayload) ([]json.RawMessage, error) {
	if payload.TypeArguments == nil {
		payload.TypeArguments = []string{}
	}
	if payload.Arguments == nil {
		payload.Arguments = []any{}
	}
	return n.views.WithContext(ctx).Get(func() ([]json.RawMessage, error) {
		var out []json.RawMessage
		if err := netx.DoJSON(ctx, n.http, http.MethodPost, n.endpoints.Node+"/view", payload, &out); err != nil {
			n.log.Debug(ctx, "view call failed", "function", payload.Function, "error", err)
			return nil, mapError(err)
		}
		return out, nil
	})
}

type accountResource struct {
	SequenceNumber models.U64 `json:"sequence_number"`
}

func (n *NodeClient) AccountSequenceNumber(ctx context.Context, address string) (uint64, error) {
	var acc accountResource
	err := netx.DoJSON(ctx, n.http, http.MethodGet, n.endpoints.Node+"/accounts/"+url.PathEscape(address), nil, &acc)
	if err != nil {
		err = mapError(err)
		// A keyless account exists on chain only after its first transaction.
		if errors.Is(err, ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return uint64(acc.SequenceNumber), nil
}

func (n *NodeClient) SubmitTransaction(ctx context.Context, tx *models.SignedTransaction) (*models.PendingTransaction, error) {
	var pending models.PendingTransaction
	if err := netx.DoJSON(ctx, n.http, http.MethodPost, n.endpoints.Node+"/transactions", tx, &pending); err != nil {
		return nil, mapError(err)
	}
	if pending.Hash == "" {
		return nil, errors.New("node accepted transaction without a hash")
	}
	n.log.Info(ctx, "transaction submitted", "hash", pending.Hash, "sender", tx.Sender, "function", tx.Payload.Function)
	return &pending, nil
}

func (n *NodeClient) TransactionByHash(ctx context.Context, hash string) (*models.Transaction, error) {
	var tx models.Transaction
	err := netx.DoJSON(ctx, n.http, http.MethodGet, n.endpoints.Node+"/transactions/by_hash/"+url.PathEscape(hash), nil, &tx)
	if err != nil {
		return nil, mapError(err)
	}
	return &tx, nil
}

func (n *NodeClient) Ping(ctx context.Context) error {
	if err := netx.DoJSON(ctx, n.http, http.MethodGet, n.endpoints.Node+"/-/healthy", nil, nil); err != nil {
		return mapError(err)
	}
	return nil
}

type keylessRequest struct {
	JWT         string `json:"jwt_b64"`
	EPK         string `json:"epk"`
	ExpDateSecs int64  `json:"exp_date_secs"`
	EPKBlinder  string `json:"epk_blinder"`
	UIDKey      string `json:"uid_key"`
	Pepper      string `json:"pepper,omitempty"`
}

func newKeylessRequest(req PepperRequest) (keylessRequest, error) {
	if req.KeyPair == nil {
		return keylessRequest{}, errors.New("missing ephemeral key pair")
	}
	uidKey := req.UIDKey
	if uidKey == "" {
		uidKey = "sub"
	}
	return keylessRequest{
		JWT:         req.IDToken,
		EPK:         req.KeyPair.PublicKeyHex(),
		ExpDateSecs: req.KeyPair.ExpiresAt.Unix(),
		EPKBlinder:  "0x" + hex.EncodeToString(req.KeyPair.Blinder),
		UIDKey:      uidKey,
	}, nil
}

type pepperResponse struct {
	Pepper string `json:"pepper"`
}

func (n *NodeClient) FetchPepper(ctx context.Context, req PepperRequest) ([]byte, error) {
	if n.endpoints.Pepper == "" {
		return nil, fmt.Errorf("pepper service: %w", ErrNoEndpoint)
	}
	body, err := newKeylessRequest(req)
	if err != nil {
		return nil, err
	}
	var resp pepperResponse
	if err := netx.DoJSON(ctx, n.http, http.MethodPost, n.endpoints.Pepper+"/fetch", body, &resp); err != nil {
		return nil, fmt.Errorf("pepper service: %w", mapError(err))
	}
	pepper, err := hex.DecodeString(strings.TrimPrefix(resp.Pepper, "0x"))
	if err != nil || len(pepper) == 0 {
		return nil, errors.New("pepper service returned malformed pepper")
	}
	return pepper, nil
}

type proofResponse struct {
	Proof json.RawMessage `json:"proof"`
}

func (n *NodeClient) FetchProof(ctx context.Context, req ProofRequest) (json.RawMessage, error) {
	if n.endpoints.Prover == "" {
		return nil, fmt.Errorf("prover service: %w", ErrNoEndpoint)
	}
	body, err := newKeylessRequest(req.PepperRequest)
	if err != nil {
		return nil, err
	}
	body.Pepper = "0x" + hex.EncodeToString(req.Pepper)

	var resp proofResponse
	if err := netx.DoJSON(ctx, n.http, http.MethodPost, n.endpoints.Prover+"/prove", body, &resp); err != nil {
		return nil, fmt.Errorf("prover service: %w", mapError(err))
	}
	if len(resp.Proof) == 0 || string(resp.Proof) == "null" {
		return nil, errors.New("prover service returned no proof")
	}
	return resp.Proof, nil
}
