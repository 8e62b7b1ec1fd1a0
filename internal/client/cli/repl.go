package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
	Stake(ctx context.Context) error
	Refresh(ctx context.Context) error
	Strategies(ctx context.Context) error
	Balance(ctx context.Context, args []string) error
	Deposit(ctx context.Context, args []string) error
	Withdraw(ctx context.Context) error
	Harvest(ctx context.Context) error
	Quote(ctx context.Context, args []string) error
}

// runREPL starts a simple read-eval-print loop for the vault CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF, on ctx cancellation, or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// When statusFn is non-nil, a prompt showing its result is printed before
// every line. Commands:
//
//	Not logged in:
//	  - help                          show available commands
//	  - login                         sign in with the identity provider
//	  - status                        show session state
//	  - strategies                    list yield strategies
//	  - quote <amount> <1m|6m>        preview the yield of a deposit
//	  - exit | quit                   leave the program
//
//	Logged in, additionally:
//	  - stake | refresh               show the position (refresh bypasses the cache)
//	  - balance [type]                token balance, APT by default
//	  - deposit [amount] [1m|6m] [asset]
//	  - withdraw                      withdraw everything once unlocked
//	  - harvest                       collect yield
//	  - logout                        end the session
//
// Errors returned by command handlers are ignored here; handlers print
// their own user-facing messages. The reader is shared with prompts issued
// by the handlers, so only this loop and the running handler ever read it.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		if statusFn != nil {
			printlnFn(fmt.Sprintf("vault %s> ", statusFn()))
		}
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: status, stake, refresh, strategies, balance [type], deposit, withdraw, harvest, quote, logout, exit")
			} else {
				printlnFn("Available commands: login, status, strategies, quote, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "status":
			_ = a.Status(ctx)

		case "stake":
			_ = a.Stake(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "strategies":
			_ = a.Strategies(ctx)

		case "balance":
			_ = a.Balance(ctx, args)

		case "deposit":
			_ = a.Deposit(ctx, args)

		case "withdraw":
			_ = a.Withdraw(ctx)

		case "harvest":
			_ = a.Harvest(ctx)

		case "quote":
			_ = a.Quote(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
