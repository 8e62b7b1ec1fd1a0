package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/keylessvault/internal/client/cache"
	"github.com/dmitrijs2005/keylessvault/internal/client/callback"
	"github.com/dmitrijs2005/keylessvault/internal/client/client"
	"github.com/dmitrijs2005/keylessvault/internal/client/config"
	"github.com/dmitrijs2005/keylessvault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/keylessvault/internal/client/services"
	"github.com/dmitrijs2005/keylessvault/internal/client/session"
	"github.com/dmitrijs2005/keylessvault/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// loginWait bounds how long the login command blocks for the browser.
const loginWait = 5 * time.Minute

// sessionManager is the part of session.Manager the CLI drives.
type sessionManager interface {
	Init(ctx context.Context) (session.State, error)
	BeginLogin(ctx context.Context) (*session.Navigation, error)
	Logout(ctx context.Context) error
	State() session.State
	Current(ctx context.Context) (*session.KeylessAccount, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	session sessionManager
	vault   services.VaultService
	chain   pinger
	server  *callback.Server
	db      *sql.DB

	reader *bufio.Reader
	out    io.Writer

	mu        sync.Mutex
	Mode      Mode
	loginDone chan error
}

// NewApp wires the local store, chain client, session manager, vault
// service and callback listener.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	listen, err := listenAddress(c.Origin)
	if err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	node := client.NewNodeClient(client.Endpoints{
		Node:   c.NodeURL,
		Pepper: c.PepperURL,
		Prover: c.ProverURL,
	}, logger.With("module", "node_client"))

	app := &App{
		config:    c,
		logger:    logger,
		chain:     node,
		db:        db,
		reader:    bufio.NewReader(os.Stdin),
		out:       os.Stdout,
		loginDone: make(chan error, 1),
	}

	app.vault = services.NewVaultService(node, cache.New(), logger, services.VaultOptions{
		Contract:       c.ContractAddress,
		ConfirmTimeout: c.ConfirmTimeout,
	})

	mgr := session.NewManager(session.Options{
		Repo: metadata.NewSQLiteStore(db),
		Redirect: session.RedirectBuilder{
			AuthURL:     c.OAuthAuthURL,
			ClientID:    c.OAuthClientID,
			RedirectURI: c.CallbackURL(),
		},
		Deps: session.AccountDeps{
			Chain:    node,
			Keyless:  node,
			Approver: &promptApprover{reader: app.reader, out: app.out},
		},
		TTL: c.EphemeralTTL,
		Nav: &printNavigator{out: app.out},
		Log: logger,
	})
	mgr.OnAccountChange(app.accountChanged)
	app.session = mgr
	app.server = callback.NewServer(listen, mgr, logger, app.loginFinished)

	return app, nil
}

// listenAddress turns the configured origin into a host:port to listen on.
func listenAddress(origin string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid origin %q", origin)
	}
	if u.Port() != "" {
		return u.Host, nil
	}
	if u.Scheme == "https" {
		return u.Host + ":443", nil
	}
	return u.Host + ":80", nil
}

// accountChanged keeps the vault signer in step with the session.
func (a *App) accountChanged(acc *session.KeylessAccount) {
	if acc == nil {
		a.vault.SetAccount(nil)
		return
	}
	a.vault.SetAccount(acc)
}

func (a *App) loginFinished(_ session.Route, err error) {
	select {
	case a.loginDone <- err:
	default:
	}
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Mode != mode {
		a.Mode = mode
		a.logger.Info(context.Background(), "connectivity changed", "mode", mode)
	}
}

func (a *App) mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Mode
}

// Run starts the callback listener and the connectivity watcher, restores
// any saved session and blocks in the REPL until the user exits.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.db.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := a.server.Run(ctx); err != nil {
			a.logger.Error(ctx, "callback server stopped", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		a.StartOnlineStatusWatcher(ctx, 30*time.Second)
	}()

	state, err := a.session.Init(ctx)
	if err != nil {
		a.logger.Error(ctx, "session restore failed", "error", err)
	}
	a.greet(ctx, state)

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Root(ctx)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.printf("\nInterrupted.\n")
	}
	cancel()
	wg.Wait()
	return nil
}

func (a *App) isLoggedIn() bool {
	return a.session.State() == session.StateAuthenticated
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	check := func() {
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := a.chain.Ping(pctx); err != nil {
			a.setMode(ModeOffline)
			return
		}
		a.setMode(ModeOnline)
	}
	check()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			check()
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
