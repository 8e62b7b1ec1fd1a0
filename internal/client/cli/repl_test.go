package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	args  [][]string
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return nil
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login", nil)
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout", nil)
}
func (f *fakeExec) Status(context.Context) error     { return f.record("status", nil) }
func (f *fakeExec) Stake(context.Context) error      { return f.record("stake", nil) }
func (f *fakeExec) Refresh(context.Context) error    { return f.record("refresh", nil) }
func (f *fakeExec) Strategies(context.Context) error { return f.record("strategies", nil) }
func (f *fakeExec) Balance(_ context.Context, args []string) error {
	return f.record("balance", args)
}
func (f *fakeExec) Deposit(_ context.Context, args []string) error {
	return f.record("deposit", args)
}
func (f *fakeExec) Withdraw(context.Context) error { return f.record("withdraw", nil) }
func (f *fakeExec) Harvest(context.Context) error  { return f.record("harvest", nil) }
func (f *fakeExec) Quote(_ context.Context, args []string) error {
	return f.record("quote", args)
}

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		parts := make([]string, len(a))
		for i, v := range a {
			parts[i] = v.(string)
		}
		lines = append(lines, strings.Join(parts, " "))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	out := captureOutput(t)

	input := strings.Join([]string{
		"help",
		"login",
		"help",
		"",
		"deposit 100 1m",
		"balance 0x1::aptos_coin::AptosCoin",
		"stake",
		"refresh",
		"strategies",
		"quote 5 6m",
		"withdraw",
		"harvest",
		"status",
		"foobar",
		"logout",
		"exit",
		"stake",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "(s)" }, rdr(input))

	assert.Equal(t, []string{
		"login", "deposit", "balance", "stake", "refresh", "strategies", "quote",
		"withdraw", "harvest", "status", "logout",
	}, exec.calls)
	assert.Equal(t, []string{"100", "1m"}, exec.args[1])
	assert.Equal(t, []string{"0x1::aptos_coin::AptosCoin"}, exec.args[2])

	assert.Contains(t, *out, "Available commands: login, status, strategies, quote, exit")
	assert.Contains(t, *out, "Unknown command: foobar")
	assert.Contains(t, *out, "vault (s)> ")
	assert.Equal(t, "Bye!", (*out)[len(*out)-1])
}

func TestRunREPL_EOFWithoutPrompt(t *testing.T) {
	out := captureOutput(t)

	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, nil, rdr("help\nharvest"))

	assert.Equal(t, []string{"harvest"}, exec.calls)
	assert.Len(t, *out, 1)
	assert.Contains(t, (*out)[0], "deposit, withdraw, harvest")
}

func TestRunREPL_StopsOnCancelledContext(t *testing.T) {
	captureOutput(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := &fakeExec{}
	runREPL(ctx, exec, nil, rdr("login\n"))
	assert.Empty(t, exec.calls)
}
