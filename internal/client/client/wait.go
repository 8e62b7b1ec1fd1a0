package client

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/keylessvault/internal/client/models"
	"github.com/dmitrijs2005/keylessvault/internal/common"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/failsafe-go/failsafe-go/timeout"
)

// DefaultPollInterval is how often WaitForTransaction asks the node.
const DefaultPollInterval = time.Second

// WaitForTransaction polls c until hash is committed or bound elapses.
//
// A committed, successful transaction is returned as is. A committed but
// failed one yields *common.ChainError. When bound elapses first the result
// is *common.ConfirmationTimeout: the transaction may still land.
func WaitForTransaction(ctx context.Context, c Chain, hash string, bound, poll time.Duration) (*models.Transaction, error) {
	if poll <= 0 {
		poll = DefaultPollInterval
	}

	retry := retrypolicy.NewBuilder[*models.Transaction]().
		HandleIf(func(_ *models.Transaction, err error) bool {
			// Freshly submitted transactions may 404 until indexed.
			return errors.Is(err, errPending) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnavailable)
		}).
		WithDelay(poll).
		WithMaxRetries(-1).
		ReturnLastFailure().
		Build()
	limit := timeout.New[*models.Transaction](bound)

	tctx, cancel := context.WithTimeout(ctx, bound)
	defer cancel()

	tx, err := failsafe.With[*models.Transaction](limit, retry).WithContext(tctx).Get(func() (*models.Transaction, error) {
		tx, err := c.TransactionByHash(tctx, hash)
		if err != nil {
			return nil, err
		}
		if !tx.Committed() {
			return nil, errPending
		}
		return tx, nil
	})

	switch {
	case err == nil:
	case errors.Is(err, timeout.ErrExceeded),
		errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil,
		errors.Is(err, errPending) && ctx.Err() == nil:
		return nil, &common.ConfirmationTimeout{Hash: hash}
	default:
		return nil, err
	}

	if !tx.Success {
		return tx, &common.ChainError{
			Category: common.Classify(tx.VMStatus),
			Hash:     hash,
			VMStatus: tx.VMStatus,
		}
	}
	return tx, nil
}
