package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/keylessvault/internal/client/client"
	"github.com/dmitrijs2005/keylessvault/internal/client/models"
)

const (
	contract = "0x00000000000000000000000000000000000000000000000000000000000000cc"
	alice    = "0x00000000000000000000000000000000000000000000000000000000000000a1"
	bob      = "0x00000000000000000000000000000000000000000000000000000000000000b0"
)

type stakeRow struct {
	principal, total uint64
	unlock           int64
}

// fakeVault plays both the chain node and the vault contract.
type fakeVault struct {
	mu       sync.Mutex
	now      func() time.Time
	stakes   map[string]*stakeRow
	balances map[string]uint64
	txs      map[string]*models.Transaction
	views    []string
	payloads []models.EntryFunctionPayload

	viewErr error
	revert  string
	// hold keeps every transaction pending until closed.
	hold chan struct{}
}

func newFakeVault(now func() time.Time) *fakeVault {
	return &fakeVault{
		now:      now,
		stakes:   map[string]*stakeRow{},
		balances: map[string]uint64{},
		txs:      map[string]*models.Transaction{},
	}
}

func (f *fakeVault) viewCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.views)
}

func (f *fakeVault) View(_ context.Context, p models.EntryFunctionPayload) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = append(f.views, p.Function)
	if f.viewErr != nil {
		return nil, f.viewErr
	}
	addr, _ := p.Arguments[0].(string)
	enc := func(vals ...uint64) []json.RawMessage {
		out := make([]json.RawMessage, len(vals))
		for i, v := range vals {
			out[i] = json.RawMessage(strconv.Quote(strconv.FormatUint(v, 10)))
		}
		return out
	}
	switch {
	case strings.HasSuffix(p.Function, "::simple_vault::get_stake"):
		row, ok := f.stakes[addr]
		if !ok {
			return enc(0, 0, 0), nil
		}
		return enc(row.principal, row.total, uint64(row.unlock)), nil
	case strings.HasSuffix(p.Function, "::balance"):
		return enc(f.balances[p.Function+"<"+p.TypeArguments[0]+">"+addr]), nil
	}
	return nil, fmt.Errorf("unknown view %s", p.Function)
}

func (f *fakeVault) AccountSequenceNumber(context.Context, string) (uint64, error) { return 0, nil }

func (f *fakeVault) SubmitTransaction(context.Context, *models.SignedTransaction) (*models.PendingTransaction, error) {
	return nil, errors.New("use fakeSigner")
}

func (f *fakeVault) TransactionByHash(_ context.Context, hash string) (*models.Transaction, error) {
	f.mu.Lock()
	hold := f.hold
	tx, ok := f.txs[hash]
	f.mu.Unlock()
	if !ok {
		return nil, client.ErrNotFound
	}
	if hold != nil {
		select {
		case <-hold:
		default:
			return &models.Transaction{Type: models.TxTypePending, Hash: hash}, nil
		}
	}
	cp := *tx
	return &cp, nil
}

func (f *fakeVault) Ping(context.Context) error { return nil }

// apply executes payload for sender the way the contract would.
func (f *fakeVault) apply(sender string, p models.EntryFunctionPayload) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	hash := fmt.Sprintf("0x%04x", len(f.payloads))

	if f.revert != "" {
		f.txs[hash] = &models.Transaction{Type: models.TxTypeUser, Hash: hash, Success: false, VMStatus: f.revert}
		return hash
	}

	row := f.stakes[sender]
	if row == nil {
		row = &stakeRow{}
		f.stakes[sender] = row
	}
	switch {
	case strings.HasSuffix(p.Function, "::deposit"), strings.HasSuffix(p.Function, "::deposit_usdc"):
		amount, _ := strconv.ParseInt(p.Arguments[0].(string), 10, 64)
		dur, _ := strconv.ParseInt(p.Arguments[1].(string), 10, 64)
		row.principal += uint64(amount)
		row.total += uint64(ContractTotalReturn(amount, dur))
		row.unlock = f.now().Unix() + dur
	case strings.HasSuffix(p.Function, "::withdraw"):
		*row = stakeRow{}
	}
	f.txs[hash] = &models.Transaction{Type: models.TxTypeUser, Hash: hash, Success: true, VMStatus: "Executed successfully", Version: "1"}
	return hash
}

type fakeSigner struct {
	addr      string
	vault     *fakeVault
	submitErr error

	mu        sync.Mutex
	submitted int
}

func (s *fakeSigner) Address() string { return s.addr }

func (s *fakeSigner) SignAndSubmitTransaction(_ context.Context, p models.EntryFunctionPayload) (*models.PendingTransaction, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	s.mu.Lock()
	s.submitted++
	s.mu.Unlock()
	return &models.PendingTransaction{Hash: s.vault.apply(s.addr, p)}, nil
}

func (s *fakeSigner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}
