package session

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/keylessvault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/keylessvault/internal/common"
	"github.com/dmitrijs2005/keylessvault/internal/logging"
)

// State is the position of a Manager in the login state machine.
type State int

const (
	StateNoSession State = iota
	StatePendingLogin
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StatePendingLogin:
		return "pending-login"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "no-session"
	}
}

// Route is where the user is sent after the callback completes.
type Route string

const (
	RouteHome      Route = "/"
	RouteDashboard Route = "/dashboard"
)

var ErrAlreadyAuthenticated = errors.New("already logged in")

// Navigator carries out a navigation intent, e.g. by printing the URL or
// opening a browser.
type Navigator interface {
	Navigate(ctx context.Context, nav *Navigation) error
}

// Options configure a Manager.
type Options struct {
	Repo     metadata.Store
	Redirect RedirectBuilder
	Deriver  *Deriver
	Deps     AccountDeps
	TTL      time.Duration
	Nav      Navigator
	Clock    Clock
	Log      logging.Logger
}

// Manager is the session context. It is safe for concurrent use.
type Manager struct {
	keys     *KeyStore
	store    *Store
	redirect RedirectBuilder
	deriver  *Deriver
	nav      Navigator
	now      Clock
	log      logging.Logger

	mu        sync.RWMutex
	state     State
	current   *KeylessAccount
	listeners []func(*KeylessAccount)
}

func NewManager(opts Options) *Manager {
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}
	deps := opts.Deps
	if deps.Clock == nil {
		deps.Clock = opts.Clock
	}
	if deps.Log == nil {
		deps.Log = log
	}
	deriver := opts.Deriver
	if deriver == nil {
		deriver = NewDeriver(deps.Keyless, deps)
	}
	return &Manager{
		keys:     NewKeyStore(opts.Repo, opts.TTL),
		store:    NewStore(opts.Repo, deps),
		redirect: opts.Redirect,
		deriver:  deriver,
		nav:      opts.Nav,
		now:      orSystem(opts.Clock),
		log:      log.With("component", "session"),
	}
}

// Init restores a saved session, or notices a login still in progress.
func (m *Manager) Init(ctx context.Context) (State, error) {
	now := m.now()
	acc, err := m.store.Restore(ctx, now)
	switch {
	case err == nil:
		m.setAccount(StateAuthenticated, acc)
		m.log.Info(ctx, "session restored", "address", acc.Address(), "expires", acc.ExpiresAt())
		return StateAuthenticated, nil
	case !errors.Is(err, common.ErrNoSession):
		return StateNoSession, err
	}

	if _, err := m.keys.Load(ctx, now); err == nil {
		m.setState(StatePendingLogin)
		return StatePendingLogin, nil
	}
	m.setState(StateNoSession)
	return StateNoSession, nil
}

// BeginLogin starts phase one: a fresh key pair is persisted and the user is
// sent to the identity provider. An earlier pending login is replaced.
func (m *Manager) BeginLogin(ctx context.Context) (*Navigation, error) {
	if m.State() == StateAuthenticated {
		return nil, ErrAlreadyAuthenticated
	}

	kp, err := m.keys.Generate(m.now())
	if err != nil {
		return nil, err
	}
	nav, err := m.redirect.Build(kp)
	if err != nil {
		return nil, err
	}
	if err := m.keys.Persist(ctx, kp); err != nil {
		return nil, err
	}
	m.setState(StatePendingLogin)
	m.log.Info(ctx, "login started", "expires", kp.ExpiresAt)

	if m.nav != nil {
		if err := m.nav.Navigate(ctx, nav); err != nil {
			return nav, err
		}
	}
	return nav, nil
}

// HandleCallback runs phase two from the raw URL fragment returned by the
// identity provider. Every failure drops the pending login and routes home;
// the user has to start again.
func (m *Manager) HandleCallback(ctx context.Context, fragment string) (Route, error) {
	if m.State() == StateAuthenticated {
		return RouteHome, common.NewAuthError("no pending login", ErrAlreadyAuthenticated)
	}

	acc, err := m.completeLogin(ctx, fragment)
	if err != nil {
		if cerr := m.store.Clear(ctx); cerr != nil {
			m.log.Error(ctx, "failed to clear pending login", "error", cerr)
		}
		m.setState(StateNoSession)
		m.log.Warn(ctx, "login failed", "error", err)
		return RouteHome, err
	}

	m.setAccount(StateAuthenticated, acc)
	m.log.Info(ctx, "login completed", "address", acc.Address())
	return RouteDashboard, nil
}

func (m *Manager) completeLogin(ctx context.Context, fragment string) (*KeylessAccount, error) {
	params, err := url.ParseQuery(strings.TrimPrefix(fragment, "#"))
	if err != nil {
		return nil, common.NewAuthError("malformed callback", err)
	}
	if perr := params.Get("error"); perr != "" {
		var cause error
		if desc := params.Get("error_description"); desc != "" {
			cause = errors.New(desc)
		}
		return nil, common.NewAuthError("provider error: "+perr, cause)
	}
	idToken := params.Get("id_token")
	if idToken == "" {
		return nil, common.NewAuthError("missing token", common.ErrMissingToken)
	}

	now := m.now()
	kp, err := m.keys.Load(ctx, now)
	switch {
	case errors.Is(err, ErrKeyPairExpired):
		return nil, common.NewAuthError("ephemeral key expired", err)
	case errors.Is(err, ErrNoPendingLogin):
		return nil, common.NewAuthError("no pending login", err)
	case err != nil:
		return nil, common.NewAuthError("cannot read pending login", err)
	}

	if state := params.Get("state"); state != "" {
		nonce, err := DecodeState(state)
		if err != nil {
			return nil, common.NewAuthError("state mismatch", err)
		}
		if nonce != kp.Nonce {
			return nil, common.NewAuthError("state mismatch", common.ErrNonceMismatch)
		}
	}

	acc, err := m.deriver.Derive(ctx, idToken, kp, now)
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(ctx, acc); err != nil {
		return nil, common.NewAuthError("cannot save session", err)
	}
	return acc, nil
}

// Logout clears all session state. Calling it again is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	m.mu.RLock()
	acc := m.current
	m.mu.RUnlock()
	m.setAccount(StateNoSession, nil)
	if acc != nil {
		acc.wipe()
		m.log.Info(ctx, "logged out", "address", acc.Address())
	}
	return nil
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Current returns the authenticated account, or common.ErrNoSession. An
// account whose key pair has expired is logged out first.
func (m *Manager) Current(ctx context.Context) (*KeylessAccount, error) {
	m.mu.RLock()
	acc := m.current
	m.mu.RUnlock()
	if acc == nil {
		return nil, common.ErrNoSession
	}
	if acc.KeyPair().Expired(m.now()) {
		m.log.Info(ctx, "session expired", "address", acc.Address())
		if err := m.Logout(ctx); err != nil {
			return nil, err
		}
		return nil, common.ErrNoSession
	}
	return acc, nil
}

// OnAccountChange registers fn to run whenever the current account changes
// (nil on logout).
func (m *Manager) OnAccountChange(fn func(*KeylessAccount)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

func (m *Manager) setAccount(s State, acc *KeylessAccount) {
	m.mu.Lock()
	changed := m.current != acc
	m.state = s
	m.current = acc
	listeners := append([]func(*KeylessAccount){}, m.listeners...)
	m.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		fn(acc)
	}
}
