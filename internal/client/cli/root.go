package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/keylessvault/internal/client/session"
)

func (a *App) getStatus() string {
	s := ""
	if a.session != nil && a.session.State() == session.StatePendingLogin {
		s = "pending "
	}
	if a.isAuthenticated() {
		if acc, err := a.session.Current(context.Background()); err == nil {
			rec := acc.Record()
			s = rec.DisplayName() + " "
		}
	}
	if m := a.mode(); m != "" {
		s = s + string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) isAuthenticated() bool {
	return a.session != nil && a.isLoggedIn()
}

// Root runs the REPL on standard input. The prompt is only shown when
// standard input is a terminal.
func (a *App) Root(ctx context.Context) {
	a.printf("Keyless vault CLI (type 'help' for commands)\n")

	var statusFn func() string
	if isTerminal(int(os.Stdin.Fd())) {
		statusFn = a.getStatus
	}
	runREPL(ctx, a, statusFn, a.reader)
}
