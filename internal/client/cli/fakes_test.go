package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"sync"

	"github.com/dmitrijs2005/keylessvault/internal/client/cache"
	"github.com/dmitrijs2005/keylessvault/internal/client/models"
	"github.com/dmitrijs2005/keylessvault/internal/client/services"
	"github.com/dmitrijs2005/keylessvault/internal/client/session"
	"github.com/dmitrijs2005/keylessvault/internal/common"
	"github.com/dmitrijs2005/keylessvault/internal/logging"
)

type fakeSession struct {
	state     session.State
	beginErr  error
	onBegin   func()
	logouts   int
	logoutErr error
}

func (f *fakeSession) Init(context.Context) (session.State, error) { return f.state, nil }

func (f *fakeSession) BeginLogin(context.Context) (*session.Navigation, error) {
	if f.state == session.StateAuthenticated {
		return nil, session.ErrAlreadyAuthenticated
	}
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	f.state = session.StatePendingLogin
	if f.onBegin != nil {
		f.onBegin()
	}
	return &session.Navigation{URL: "https://idp.example/auth"}, nil
}

func (f *fakeSession) Logout(context.Context) error {
	f.logouts++
	if f.logoutErr != nil {
		return f.logoutErr
	}
	f.state = session.StateNoSession
	return nil
}

func (f *fakeSession) State() session.State { return f.state }

func (f *fakeSession) Current(context.Context) (*session.KeylessAccount, error) {
	return nil, common.ErrNoSession
}

type fakeVault struct {
	mu sync.Mutex

	deposits  []models.DepositParams
	withdraws int
	harvests  int
	signers   []services.Signer

	txErr    error
	snap     *cache.Snapshot
	snapErr  error
	balances map[string]uint64
}

func newFakeVault() *fakeVault {
	return &fakeVault{
		snap: &cache.Snapshot{Stake: &models.UserStake{}},
	}
}

func (f *fakeVault) result(op models.Operation) (*models.TxResult, error) {
	if f.txErr != nil {
		return &models.TxResult{Operation: op, State: models.StateFailed}, f.txErr
	}
	return &models.TxResult{Operation: op, State: models.StateSucceeded, Hash: "0xabc"}, nil
}

func (f *fakeVault) Deposit(_ context.Context, p models.DepositParams) (*models.TxResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deposits = append(f.deposits, p)
	return f.result(models.OpDeposit)
}

func (f *fakeVault) Withdraw(context.Context, models.WithdrawParams) (*models.TxResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.withdraws++
	return f.result(models.OpWithdraw)
}

func (f *fakeVault) Harvest(context.Context) (*models.TxResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.harvests++
	return f.result(models.OpHarvest)
}

func (f *fakeVault) Refresh(ctx context.Context) (*cache.Snapshot, error) { return f.Snapshot(ctx) }

func (f *fakeVault) Snapshot(context.Context) (*cache.Snapshot, error) {
	if f.snapErr != nil {
		return nil, f.snapErr
	}
	return f.snap, nil
}

func (f *fakeVault) FetchUserStake(context.Context, string) (*models.UserStake, error) {
	return f.snap.Stake, nil
}

func (f *fakeVault) FetchStrategies(context.Context) ([]models.YieldStrategy, error) {
	return models.DefaultStrategies("0xcc"), nil
}

func (f *fakeVault) TokenBalance(_ context.Context, address, tokenType string) uint64 {
	return f.balances[address+"/"+tokenType]
}

func (f *fakeVault) SetAccount(s services.Signer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signers = append(f.signers, s)
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func newTestApp(sess sessionManager, vault services.VaultService, input string) (*App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &App{
		logger:    logging.Discard(),
		session:   sess,
		vault:     vault,
		reader:    bufio.NewReader(strings.NewReader(input)),
		out:       out,
		loginDone: make(chan error, 1),
	}, out
}
