package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/keylessvault/internal/client/cache"
	"github.com/dmitrijs2005/keylessvault/internal/client/client"
	"github.com/dmitrijs2005/keylessvault/internal/client/models"
	"github.com/dmitrijs2005/keylessvault/internal/common"
	"github.com/dmitrijs2005/keylessvault/internal/cryptox"
	"github.com/dmitrijs2005/keylessvault/internal/logging"
	"github.com/google/uuid"
)

// Signer submits transactions on behalf of one account.
type Signer interface {
	Address() string
	SignAndSubmitTransaction(ctx context.Context, payload models.EntryFunctionPayload) (*models.PendingTransaction, error)
}

// VaultService is the vault access layer.
//
// Contract:
//   - Deposit, Withdraw, Harvest: validate locally, submit through the
//     current signer, wait for confirmation (bounded), refresh the cache.
//     At most one of them runs per account at a time; a second call gets
//     *common.OperationInProgressError and submits nothing.
//   - Refresh, Snapshot: read the stake and strategies through the cache.
//   - FetchUserStake, FetchStrategies, TokenBalance: uncached reads.
//   - SetAccount: switch the signer; the cache is reset.
type VaultService interface {
	Deposit(ctx context.Context, p models.DepositParams) (*models.TxResult, error)
	Withdraw(ctx context.Context, p models.WithdrawParams) (*models.TxResult, error)
	Harvest(ctx context.Context) (*models.TxResult, error)
	Refresh(ctx context.Context) (*cache.Snapshot, error)
	Snapshot(ctx context.Context) (*cache.Snapshot, error)
	FetchUserStake(ctx context.Context, address string) (*models.UserStake, error)
	FetchStrategies(ctx context.Context) ([]models.YieldStrategy, error)
	TokenBalance(ctx context.Context, address, tokenType string) uint64
	SetAccount(s Signer)
}

// Transition observes the steps of a vault operation.
type Transition func(op models.Operation, address string, state models.OpState)

// VaultOptions configure a VaultService.
type VaultOptions struct {
	Contract       string
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	Clock          func() time.Time
	OnTransition   Transition
}

type vaultService struct {
	chain client.Chain
	cache *cache.StakeCache
	log   logging.Logger
	opts  VaultOptions

	mu       sync.Mutex
	signer   Signer
	inFlight map[string]models.Operation
}

// NewVaultService constructs a VaultService reading through chain and
// publishing into c.
func NewVaultService(chain client.Chain, c *cache.StakeCache, log logging.Logger, opts VaultOptions) VaultService {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = 30 * time.Second
	}
	if log == nil {
		log = logging.Discard()
	}
	return &vaultService{
		chain:    chain,
		cache:    c,
		log:      log.With("component", "vault"),
		opts:     opts,
		inFlight: make(map[string]models.Operation),
	}
}

func (v *vaultService) SetAccount(s Signer) {
	v.mu.Lock()
	v.signer = s
	v.mu.Unlock()

	addr := ""
	if s != nil {
		addr = s.Address()
	}
	v.cache.Reset(addr)
}

func (v *vaultService) currentSigner() (Signer, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.signer == nil {
		return nil, common.ErrNoSession
	}
	return v.signer, nil
}

// acquire marks op in flight for address, or reports what already is.
func (v *vaultService) acquire(address string, op models.Operation) (func(), error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if running, ok := v.inFlight[address]; ok {
		return nil, &common.OperationInProgressError{Address: address, Operation: string(running)}
	}
	v.inFlight[address] = op
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.inFlight, address)
	}, nil
}

func (v *vaultService) function(module, name string) string {
	return v.opts.Contract + "::" + module + "::" + name
}

func (v *vaultService) Deposit(ctx context.Context, p models.DepositParams) (*models.TxResult, error) {
	validate := func(context.Context, Signer) error { return ValidateDeposit(p) }

	entry := "deposit"
	if models.IsStablecoin(p.AssetType) {
		entry = "deposit_usdc"
	}
	payload := models.EntryFunctionPayload{
		Function:      v.function("simple_vault", entry),
		TypeArguments: []string{},
		Arguments:     []any{fmt.Sprint(p.Amount), fmt.Sprint(p.DurationSecs)},
	}
	return v.execute(ctx, models.OpDeposit, validate, payload)
}

// ValidateDeposit checks p without touching the network.
func ValidateDeposit(p models.DepositParams) error {
	if p.Amount <= 0 {
		return common.NewValidationError("", "Amount must be greater than 0")
	}
	if !models.ValidDuration(p.DurationSecs) {
		return common.NewValidationError("", "Invalid duration. Must be 1 month or 6 months.")
	}
	return nil
}

func (v *vaultService) Withdraw(ctx context.Context, p models.WithdrawParams) (*models.TxResult, error) {
	validate := func(ctx context.Context, s Signer) error {
		if p.Amount != nil {
			return common.NewValidationError("", "Partial withdrawals are not supported; omit the amount to withdraw everything.")
		}
		snap, err := v.cache.Get(ctx, s.Address(), v.loader)
		if err != nil {
			return fmt.Errorf("read stake: %w", err)
		}
		now := v.opts.Clock()
		if snap.Stake.LockedAt(now) {
			return &common.ValidationError{
				Reason: fmt.Sprintf("Your funds are locked until %s.", snap.Stake.UnlockTime().Format(time.RFC1123)),
				Err:    common.ErrFundsLocked,
			}
		}
		return nil
	}
	payload := models.EntryFunctionPayload{
		Function:      v.function("vault", "withdraw"),
		TypeArguments: []string{models.AptosCoinType},
		Arguments:     []any{},
	}
	return v.execute(ctx, models.OpWithdraw, validate, payload)
}

func (v *vaultService) Harvest(ctx context.Context) (*models.TxResult, error) {
	payload := models.EntryFunctionPayload{
		Function:      v.function("vault", "harvest"),
		TypeArguments: []string{models.AptosCoinType},
		Arguments:     []any{},
	}
	return v.execute(ctx, models.OpHarvest, nil, payload)
}

// execute runs validate -> submit -> confirm -> refresh for one operation.
func (v *vaultService) execute(
	ctx context.Context,
	op models.Operation,
	validate func(context.Context, Signer) error,
	payload models.EntryFunctionPayload,
) (*models.TxResult, error) {
	signer, err := v.currentSigner()
	if err != nil {
		return nil, err
	}
	address := signer.Address()

	release, err := v.acquire(address, op)
	if err != nil {
		v.log.Warn(ctx, "operation rejected", "op", op, "address", address, "error", err)
		return nil, err
	}
	defer release()

	log := v.log.With("op", op, "op_id", uuid.NewString(), "address", address)
	res := &models.TxResult{Operation: op}
	step := func(s models.OpState) {
		res.State = s
		if v.opts.OnTransition != nil {
			v.opts.OnTransition(op, address, s)
		}
	}

	step(models.StateValidating)
	if validate != nil {
		if err := validate(ctx, signer); err != nil {
			step(models.StateFailed)
			log.Info(ctx, "validation failed", "error", err)
			return res, err
		}
	}

	pending, err := signer.SignAndSubmitTransaction(ctx, payload)
	if err != nil {
		step(models.StateFailed)
		cat := common.ClassifyError(err)
		log.Warn(ctx, "submission failed", "category", cat, "error", err)
		return res, &common.SubmissionError{Category: cat, Err: err}
	}
	res.Hash = pending.Hash
	log = log.With("hash", pending.Hash)
	step(models.StateSubmitted)
	log.Info(ctx, "transaction submitted", "function", payload.Function)

	step(models.StateConfirming)
	tx, err := client.WaitForTransaction(ctx, v.chain, pending.Hash, v.opts.ConfirmTimeout, v.opts.PollInterval)
	var (
		timeout *common.ConfirmationTimeout
		chain   *common.ChainError
	)
	switch {
	case err == nil:
		res.VMStatus = tx.VMStatus
		step(models.StateSucceeded)
		log.Info(ctx, "transaction confirmed", "version", tx.Version)
	case errors.As(err, &timeout):
		// Outcome unknown: leave the cache alone and let the user re-check.
		log.Warn(ctx, "confirmation timed out")
		return res, err
	case errors.As(err, &chain):
		res.VMStatus = chain.VMStatus
		step(models.StateFailed)
		log.Warn(ctx, "transaction failed on chain", "category", chain.Category, "vm_status", chain.VMStatus)
		v.refreshAfter(ctx, log, address)
		return res, err
	default:
		log.Warn(ctx, "confirmation interrupted", "error", err)
		return res, &common.ConfirmationTimeout{Hash: pending.Hash}
	}

	v.refreshAfter(ctx, log, address)
	return res, nil
}

func (v *vaultService) refreshAfter(ctx context.Context, log logging.Logger, address string) {
	if v.cache.Address() != address {
		// the account was switched while this operation was confirming
		return
	}
	v.cache.Invalidate()
	if _, err := v.cache.Refresh(ctx, address, v.loader); err != nil {
		log.Warn(ctx, "stake refresh failed", "error", err)
	}
}

func (v *vaultService) loader(ctx context.Context, address string) (*cache.Snapshot, error) {
	stake, err := v.FetchUserStake(ctx, address)
	if err != nil {
		return nil, err
	}
	strategies, err := v.FetchStrategies(ctx)
	if err != nil {
		return nil, err
	}
	return &cache.Snapshot{Stake: stake, Strategies: strategies, FetchedAt: v.opts.Clock()}, nil
}

func (v *vaultService) Refresh(ctx context.Context) (*cache.Snapshot, error) {
	s, err := v.currentSigner()
	if err != nil {
		return nil, err
	}
	v.cache.Invalidate()
	return v.cache.Refresh(ctx, s.Address(), v.loader)
}

func (v *vaultService) Snapshot(ctx context.Context) (*cache.Snapshot, error) {
	s, err := v.currentSigner()
	if err != nil {
		return nil, err
	}
	return v.cache.Get(ctx, s.Address(), v.loader)
}

func (v *vaultService) FetchUserStake(ctx context.Context, address string) (*models.UserStake, error) {
	addr, err := cryptox.NormalizeAddress(address)
	if err != nil {
		return nil, common.NewValidationError("address", err.Error())
	}
	out, err := v.chain.View(ctx, models.EntryFunctionPayload{
		Function:  v.function("simple_vault", "get_stake"),
		Arguments: []any{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("get_stake: %w", err)
	}

	now := v.opts.Clock()
	if len(out) < 3 {
		return models.NewUserStake(0, 0, 0, now), nil
	}
	var principal, total, unlock models.U64
	for i, dst := range []*models.U64{&principal, &total, &unlock} {
		if err := json.Unmarshal(out[i], dst); err != nil {
			return nil, fmt.Errorf("get_stake result %d: %w", i, err)
		}
	}
	return models.NewUserStake(uint64(principal), uint64(total), int64(unlock), now), nil
}

// FetchStrategies returns the strategy catalog of the configured vault.
func (v *vaultService) FetchStrategies(_ context.Context) ([]models.YieldStrategy, error) {
	return models.DefaultStrategies(v.opts.Contract), nil
}

// TokenBalance returns address's balance of tokenType (AptosCoin when
// empty). Failures are logged and reported as 0.
func (v *vaultService) TokenBalance(ctx context.Context, address, tokenType string) uint64 {
	if tokenType == "" {
		tokenType = models.AptosCoinType
	}
	addr, err := cryptox.NormalizeAddress(address)
	if err != nil {
		v.log.Warn(ctx, "balance lookup skipped", "address", address, "error", err)
		return 0
	}

	fn := "0x1::primary_fungible_store::balance"
	if tokenType == models.AptosCoinType {
		fn = "0x1::coin::balance"
	}
	out, err := v.chain.View(ctx, models.EntryFunctionPayload{
		Function:      fn,
		TypeArguments: []string{tokenType},
		Arguments:     []any{addr},
	})
	if err != nil || len(out) == 0 {
		v.log.Warn(ctx, "balance lookup failed", "address", addr, "token", tokenType, "error", err)
		return 0
	}
	var bal models.U64
	if err := json.Unmarshal(out[0], &bal); err != nil {
		v.log.Warn(ctx, "balance lookup failed", "address", addr, "token", tokenType, "error", err)
		return 0
	}
	return uint64(bal)
}
