package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/keylessvault/internal/client/models"
	"github.com/dmitrijs2005/keylessvault/internal/client/services"
	"github.com/dmitrijs2005/keylessvault/internal/client/session"
	"github.com/dmitrijs2005/keylessvault/internal/common"
)

// getSimpleText is an indirection used to facilitate testing.
var getSimpleText = GetSimpleText

// fail prints the user-facing message for err and returns err.
func (a *App) fail(ctx context.Context, err error) error {
	a.logger.Debug(ctx, "command failed", "error", err)
	a.printf("%s\n", common.UserMessage(err))
	return err
}

func (a *App) greet(ctx context.Context, state session.State) {
	switch state {
	case session.StateAuthenticated:
		_ = a.Status(ctx)
	case session.StatePendingLogin:
		a.printf("A login is in progress. Finish it in the browser or run 'login' to start over.\n")
	default:
		a.printf("Not logged in. Type 'login' to sign in.\n")
	}
}

// Login starts a keyless login and waits for the browser to come back
// through the callback listener.
func (a *App) Login(ctx context.Context) error {
	select {
	case <-a.loginDone:
	default:
	}

	if _, err := a.session.BeginLogin(ctx); err != nil {
		if errors.Is(err, session.ErrAlreadyAuthenticated) {
			a.printf("Already logged in. Use 'logout' first.\n")
			return nil
		}
		a.logger.Warn(ctx, "login could not start", "error", err)
		a.printf("Cannot start login: %v\n", err)
		return err
	}
	a.printf("Waiting for sign-in to finish in the browser...\n")

	wctx, cancel := context.WithTimeout(ctx, loginWait)
	defer cancel()
	select {
	case err := <-a.loginDone:
		if err != nil {
			return a.fail(ctx, err)
		}
		a.printf("Signed in.\n")
		return a.Status(ctx)
	case <-wctx.Done():
		a.printf("Sign-in was not completed. Finish it in the browser or run 'login' again.\n")
		return wctx.Err()
	}
}

// Logout drops the session and the local key material.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return a.fail(ctx, err)
	}
	a.printf("Logged out.\n")
	return nil
}

// Status prints who is logged in and until when.
func (a *App) Status(ctx context.Context) error {
	switch a.session.State() {
	case session.StatePendingLogin:
		a.printf("Login pending.\n")
		return nil
	case session.StateNoSession:
		a.printf("Not logged in.\n")
		return nil
	}
	acc, err := a.session.Current(ctx)
	if err != nil {
		return a.fail(ctx, err)
	}
	rec := acc.Record()
	a.printf("Logged in as %s\n", rec.DisplayName())
	a.printf("Address:  %s\n", acc.Address())
	a.printf("Session expires %s\n", acc.ExpiresAt().Local().Format(time.RFC1123))
	return nil
}

// Stake prints the cached position of the current account.
func (a *App) Stake(ctx context.Context) error {
	snap, err := a.vault.Snapshot(ctx)
	if err != nil {
		return a.fail(ctx, err)
	}
	a.printStake(snap.Stake)
	return nil
}

// Refresh refetches the position, bypassing the cache.
func (a *App) Refresh(ctx context.Context) error {
	snap, err := a.vault.Refresh(ctx)
	if err != nil {
		return a.fail(ctx, err)
	}
	a.printStake(snap.Stake)
	return nil
}

func (a *App) printStake(s *models.UserStake) {
	if s.Empty() {
		a.printf("No active stake.\n")
		return
	}
	a.printf("Principal:     %d\n", s.Principal)
	a.printf("Total return:  %d\n", s.TotalReturn)
	a.printf("Unlocks:       %s\n", s.UnlockTime().Local().Format(time.RFC1123))
	if s.IsLocked {
		a.printf("Status:        locked\n")
	} else {
		a.printf("Status:        unlocked, %d days since unlock\n", s.DaysInvested)
	}
}

// Strategies prints the strategy catalog.
func (a *App) Strategies(ctx context.Context) error {
	list, err := a.vault.FetchStrategies(ctx)
	if err != nil {
		return a.fail(ctx, err)
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSYMBOL\tAPY\tTVL\t24H VOLUME\tSTABLE")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%.2f%%\t%s\t%s\t%t\n", s.Name, s.Symbol, s.APY, s.TVL, s.Volume24h, s.Stable)
	}
	return tw.Flush()
}

// Balance prints the current account's balance of a token type (APT when
// omitted).
func (a *App) Balance(ctx context.Context, args []string) error {
	acc, err := a.session.Current(ctx)
	if err != nil {
		return a.fail(ctx, err)
	}
	tokenType := ""
	if len(args) > 0 {
		tokenType = args[0]
	}
	bal := a.vault.TokenBalance(ctx, acc.Address(), tokenType)
	a.printf("%d %s\n", bal, models.AssetOf(tokenType))
	return nil
}

// Deposit takes "amount duration [asset]", prompting for what is missing.
func (a *App) Deposit(ctx context.Context, args []string) error {
	p, err := a.depositParams(args)
	if err != nil {
		return a.fail(ctx, err)
	}
	if err := services.ValidateDeposit(p); err != nil {
		return a.fail(ctx, err)
	}
	a.printQuote(p)

	res, err := a.vault.Deposit(ctx, p)
	if err != nil {
		return a.fail(ctx, err)
	}
	a.printf("Deposit confirmed: %s\n", res.Hash)
	return a.Stake(ctx)
}

// Withdraw takes out the whole position once it is unlocked.
func (a *App) Withdraw(ctx context.Context) error {
	res, err := a.vault.Withdraw(ctx, models.WithdrawParams{})
	if err != nil {
		return a.fail(ctx, err)
	}
	a.printf("Withdrawal confirmed: %s\n", res.Hash)
	return a.Stake(ctx)
}

// Harvest collects accrued yield.
func (a *App) Harvest(ctx context.Context) error {
	res, err := a.vault.Harvest(ctx)
	if err != nil {
		return a.fail(ctx, err)
	}
	a.printf("Harvest confirmed: %s\n", res.Hash)
	return a.Stake(ctx)
}

// Quote previews the yield of a deposit without submitting anything.
func (a *App) Quote(ctx context.Context, args []string) error {
	p, err := a.depositParams(args)
	if err != nil {
		return a.fail(ctx, err)
	}
	if err := services.ValidateDeposit(p); err != nil {
		return a.fail(ctx, err)
	}
	a.printQuote(p)
	return nil
}

func (a *App) printQuote(p models.DepositParams) {
	a.printf("Lock:            %s\n", services.FormatDuration(p.DurationSecs))
	a.printf("Contract rate:   %.2f%% per year\n", services.ContractAPY(p.DurationSecs))
	a.printf("Expected yield:  %d\n", services.ContractExpectedYield(p.Amount, p.DurationSecs))
	a.printf("Total at unlock: %d\n", services.ContractTotalReturn(p.Amount, p.DurationSecs))
	a.printf("Advertised APY:  %.2f%% (%s)\n", services.APYForDuration(p.DurationSecs, p.AssetType), models.AssetOf(p.AssetType))
}

func (a *App) depositParams(args []string) (models.DepositParams, error) {
	var p models.DepositParams

	amount, err := a.arg(args, 0, "Enter amount (base units)")
	if err != nil {
		return p, err
	}
	if p.Amount, err = parseAmount(amount); err != nil {
		return p, err
	}

	dur, err := a.arg(args, 1, "Enter lock duration (1m or 6m)")
	if err != nil {
		return p, err
	}
	if p.DurationSecs, err = parseLockDuration(dur); err != nil {
		return p, err
	}

	if len(args) > 2 {
		p.AssetType = args[2]
	}
	return p, nil
}

func (a *App) arg(args []string, i int, prompt string) (string, error) {
	if len(args) > i {
		return args[i], nil
	}
	return getSimpleText(a.reader, prompt, a.out)
}

func parseAmount(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.ReplaceAll(s, "_", ""), 10, 64)
	if err != nil {
		return 0, common.NewValidationError("", "Amount must be a whole number of base units")
	}
	return n, nil
}

// parseLockDuration accepts the two lock terms by name or a raw number of
// seconds. Other numbers pass through so validation can reject them.
func parseLockDuration(s string) (int64, error) {
	switch strings.ToLower(s) {
	case "1m", "1", "1month", "month", "30d":
		return models.DurationOneMonth, nil
	case "6m", "6", "6months", "180d":
		return models.DurationSixMonths, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, common.NewValidationError("", "Invalid duration. Must be 1 month or 6 months.")
	}
	return n, nil
}
