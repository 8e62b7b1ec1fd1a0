package session

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/keylessvault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/keylessvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNavigator struct {
	mu   sync.Mutex
	navs []*Navigation
	err  error
}

func (r *recordingNavigator) Navigate(_ context.Context, nav *Navigation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navs = append(r.navs, nav)
	return r.err
}

func (r *recordingNavigator) last(t *testing.T) url.Values {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.navs)
	u, err := url.Parse(r.navs[len(r.navs)-1].URL)
	require.NoError(t, err)
	return u.Query()
}

type harness struct {
	repo *metadata.MemoryStore
	nav  *recordingNavigator
	kl   *fakeKeyless
	now  time.Time
}

func newHarness() *harness {
	return &harness{
		repo: metadata.NewMemoryStore(),
		nav:  &recordingNavigator{},
		kl:   &fakeKeyless{pepper: []byte{4, 2}},
		now:  t0,
	}
}

func (h *harness) manager() *Manager {
	return NewManager(Options{
		Repo: h.repo,
		Redirect: RedirectBuilder{
			AuthURL:     "https://accounts.google.com/o/oauth2/v2/auth",
			ClientID:    "client-id",
			RedirectURI: "http://127.0.0.1:5173/auth/callback",
		},
		Deps:  AccountDeps{Keyless: h.kl, Chain: &fakeChain{}},
		TTL:   time.Hour,
		Nav:   h.nav,
		Clock: fixedClock(&h.now),
	})
}

func fragmentFor(t *testing.T, q url.Values, token string) string {
	t.Helper()
	v := url.Values{}
	v.Set("id_token", token)
	v.Set("state", q.Get("state"))
	return "#" + v.Encode()
}

func TestManager_FullLoginFlow(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	m := h.manager()

	state, err := m.Init(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateNoSession, state)

	var changes []*KeylessAccount
	m.OnAccountChange(func(a *KeylessAccount) { changes = append(changes, a) })

	_, err = m.BeginLogin(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatePendingLogin, m.State())

	q := h.nav.last(t)
	tok := mintToken(t, tokenOpts{nonce: q.Get("nonce")})

	route, err := m.HandleCallback(ctx, fragmentFor(t, q, tok))
	require.NoError(t, err)
	assert.Equal(t, RouteDashboard, route)
	assert.Equal(t, StateAuthenticated, m.State())

	acc, err := m.Current(ctx)
	require.NoError(t, err)
	// the callback restored the key pair created before the redirect
	assert.Equal(t, q.Get("nonce"), acc.KeyPair().Nonce)
	require.Len(t, changes, 1)
	assert.Same(t, acc, changes[0])

	// reload
	m2 := h.manager()
	state, err = m2.Init(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, state)
	acc2, err := m2.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, acc.Address(), acc2.Address())
	assert.Equal(t, "ann@example.com", acc2.Record().Email)
	assert.Equal(t, "Ann", acc2.Record().Name)
}

func TestManager_CallbackFailuresRouteHomeAndClearPending(t *testing.T) {
	tests := []struct {
		name     string
		fragment func(t *testing.T, q url.Values) string
		reason   string
	}{
		{"missing token", func(t *testing.T, q url.Values) string { return "#state=" + q.Get("state") }, "missing token"},
		{"token in wrong place", func(t *testing.T, q url.Values) string { return "" }, "missing token"},
		{"provider error", func(t *testing.T, q url.Values) string { return "#error=access_denied" }, "provider error: access_denied"},
		{"nonce mismatch", func(t *testing.T, q url.Values) string {
			return fragmentFor(t, q, mintToken(t, tokenOpts{nonce: "someone-else"}))
		}, "nonce mismatch"},
		{"state mismatch", func(t *testing.T, q url.Values) string {
			other, err := EncodeState("other-nonce")
			require.NoError(t, err)
			v := url.Values{}
			v.Set("id_token", mintToken(t, tokenOpts{nonce: q.Get("nonce")}))
			v.Set("state", other)
			return "#" + v.Encode()
		}, "state mismatch"},
		{"garbled state", func(t *testing.T, q url.Values) string {
			v := url.Values{}
			v.Set("id_token", mintToken(t, tokenOpts{nonce: q.Get("nonce")}))
			v.Set("state", "!!!")
			return "#" + v.Encode()
		}, "state mismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness()
			m := h.manager()
			_, err := m.BeginLogin(ctx)
			require.NoError(t, err)

			route, err := m.HandleCallback(ctx, tt.fragment(t, h.nav.last(t)))
			assert.Equal(t, RouteHome, route)
			var ae *common.AuthError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tt.reason, ae.Reason)
			assert.Equal(t, StateNoSession, m.State())
			assertEmpty(t, h.repo)

			_, err = m.Current(ctx)
			require.ErrorIs(t, err, common.ErrNoSession)
		})
	}
}

func TestManager_CallbackWithoutPendingLogin(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	m := h.manager()

	route, err := m.HandleCallback(ctx, "#id_token="+mintToken(t, tokenOpts{nonce: "x"}))
	assert.Equal(t, RouteHome, route)
	var ae *common.AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "no pending login", ae.Reason)
}

func TestManager_CallbackAfterKeyExpiry(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	m := h.manager()
	_, err := m.BeginLogin(ctx)
	require.NoError(t, err)
	q := h.nav.last(t)

	h.now = t0.Add(time.Hour)
	route, err := m.HandleCallback(ctx, fragmentFor(t, q, mintToken(t, tokenOpts{nonce: q.Get("nonce"), exp: t0.Add(3 * time.Hour)})))
	assert.Equal(t, RouteHome, route)
	require.ErrorIs(t, err, ErrKeyPairExpired)
}

func TestManager_BeginLoginPersistFailure(t *testing.T) {
	h := newHarness()
	h.repo.FailWrites = errors.New("quota exceeded")
	m := h.manager()

	_, err := m.BeginLogin(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateNoSession, m.State())
	assert.Empty(t, h.nav.navs)
}

func TestManager_BeginLoginWhileAuthenticated(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	m := h.manager()
	login(t, h, m)

	_, err := m.BeginLogin(ctx)
	require.ErrorIs(t, err, ErrAlreadyAuthenticated)
}

func TestManager_PendingLoginSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	_, err := h.manager().BeginLogin(ctx)
	require.NoError(t, err)
	q := h.nav.last(t)

	m := h.manager()
	state, err := m.Init(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatePendingLogin, state)

	route, err := m.HandleCallback(ctx, fragmentFor(t, q, mintToken(t, tokenOpts{nonce: q.Get("nonce")})))
	require.NoError(t, err)
	assert.Equal(t, RouteDashboard, route)
}

func login(t *testing.T, h *harness, m *Manager) *KeylessAccount {
	t.Helper()
	ctx := context.Background()
	_, err := m.BeginLogin(ctx)
	require.NoError(t, err)
	q := h.nav.last(t)
	_, err = m.HandleCallback(ctx, fragmentFor(t, q, mintToken(t, tokenOpts{nonce: q.Get("nonce")})))
	require.NoError(t, err)
	acc, err := m.Current(ctx)
	require.NoError(t, err)
	return acc
}

func TestManager_LogoutTwice(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	m := h.manager()
	login(t, h, m)

	var changes []*KeylessAccount
	m.OnAccountChange(func(a *KeylessAccount) { changes = append(changes, a) })

	require.NoError(t, m.Logout(ctx))
	assertEmpty(t, h.repo)
	require.NoError(t, m.Logout(ctx))
	assertEmpty(t, h.repo)

	assert.Equal(t, StateNoSession, m.State())
	require.Len(t, changes, 1)
	assert.Nil(t, changes[0])
}

func TestManager_ExpiredSessionOnInitAndCurrent(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	m := h.manager()
	login(t, h, m)

	h.now = t0.Add(time.Hour)
	_, err := m.Current(ctx)
	require.ErrorIs(t, err, common.ErrNoSession)
	assertEmpty(t, h.repo)

	login(t, h, m)
	h.now = h.now.Add(2 * time.Hour)
	state, err := h.manager().Init(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateNoSession, state)
	assertEmpty(t, h.repo)
}
