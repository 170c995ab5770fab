package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/neumonitor/triage-api/internal/core/domain"
)

// State is the manager's published view of the session. Checking is true only
// while the initial asynchronous verification is in flight; callers must show
// a blocking "verifying" state rather than render protected content.
type State struct {
	Authenticated bool
	Profile       *Profile
	Checking      bool
}

// Options wires a Manager to its host environment.
type Options struct {
	Store   Store
	Cookies CookieWriter
	Nav     Navigator
	Backend Backend
	Gate    *Gate
	Logger  zerolog.Logger
}

// Manager is the single owner of the token/profile pair. Every other
// component reads auth state through it — never from the store directly —
// and is notified of transitions through subscription events.
type Manager struct {
	mu      sync.Mutex
	store   Store
	cookies CookieWriter
	nav     Navigator
	backend Backend
	gate    *Gate
	log     zerolog.Logger

	state       State
	redirecting bool // latch collapsing concurrent 401 cleanups
	epoch       int  // bumped on logout so stale verifications are discarded
	subs        []func(Event)
}

func NewManager(opts Options) *Manager {
	return &Manager{
		store:   opts.Store,
		cookies: opts.Cookies,
		nav:     opts.Nav,
		backend: opts.Backend,
		gate:    opts.Gate,
		log:     opts.Logger,
	}
}

// State returns a snapshot of the current auth state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers a callback invoked synchronously on every login and
// logout transition, whichever component triggered it.
func (m *Manager) Subscribe(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// Initialize restores the session from persisted storage. A missing pair
// leaves the manager unauthenticated; a structurally invalid token or a
// half-present pair is wiped. A structurally valid pair is confirmed with the
// backend: definitive rejection wipes it, while a connectivity failure
// preserves the cached session (availability over strictness). The terminal
// state always has Checking=false.
func (m *Manager) Initialize(ctx context.Context) {
	m.mu.Lock()
	m.state.Checking = true
	epoch := m.epoch
	token, hasToken := m.store.Get(TokenKey)
	rawProfile, hasProfile := m.store.Get(ProfileKey)
	m.mu.Unlock()

	if !hasToken && !hasProfile {
		m.settle(epoch, false, nil)
		return
	}

	profile, ok := parseProfile(rawProfile)
	if !hasToken || !hasProfile || !ok || !domain.ValidTokenFormat(token) {
		// Never operate on a half-valid credential: purge and start clean.
		m.wipeStorage()
		m.settle(epoch, false, nil)
		return
	}

	err := m.backend.VerifySession(ctx, token)
	switch {
	case err == nil:
		m.settle(epoch, true, &profile)
	case errors.Is(err, ErrUnauthorized):
		m.wipeStorage()
		m.settle(epoch, false, nil)
	default:
		m.log.Warn().Err(err).Msg("session verification unreachable, trusting local cache")
		m.settle(epoch, true, &profile)
	}
}

// settle applies the outcome of Initialize unless the session was logged out
// while verification was in flight, in which case the result is discarded.
func (m *Manager) settle(epoch int, authenticated bool, profile *Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return
	}
	m.state = State{Authenticated: authenticated, Profile: profile}
}

// Login authenticates against the backend. On success the token/profile pair
// is persisted atomically with respect to the manager's lock, the cookie
// mirror is set, the 401 latch is reset, and a login event is broadcast. On
// failure nothing is mutated and the server's message is surfaced.
func (m *Manager) Login(ctx context.Context, email, password string) Result {
	token, profile, err := m.backend.Login(ctx, email, password)
	if err != nil {
		return Result{Message: userMessage(err)}
	}
	if !domain.ValidTokenFormat(token) {
		return Result{Message: "Respuesta inválida del servidor"}
	}

	raw, err := json.Marshal(profile)
	if err != nil {
		return Result{Message: userMessage(err)}
	}

	m.mu.Lock()
	m.store.Set(TokenKey, token)
	m.store.Set(ProfileKey, string(raw))
	m.cookies.SetAuthCookie(token)
	m.state = State{Authenticated: true, Profile: &profile}
	m.redirecting = false
	m.mu.Unlock()

	m.broadcast(Event{Type: EventLogin})
	return Result{Success: true}
}

// Logout clears the persisted pair and the gate cookie, broadcasts a logout
// event, notifies the backend best-effort, and hard-navigates to the login
// page. A backend failure never blocks the local logout.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	token, _ := m.store.Get(TokenKey)
	m.clearLocked()
	m.mu.Unlock()

	m.broadcast(Event{Type: EventLogout})

	if token != "" {
		if err := m.backend.Logout(ctx, token); err != nil {
			m.log.Warn().Err(err).Msg("backend logout failed")
		}
	}

	m.nav.Replace(m.gate.LoginPath())
}

// HandleUnauthorized is invoked for every 401 received on a protected call.
// Concurrent invocations collapse into a single cleanup, broadcast, and
// navigation; the latch resets on the next successful login.
func (m *Manager) HandleUnauthorized() {
	m.mu.Lock()
	if m.redirecting {
		m.mu.Unlock()
		return
	}
	m.redirecting = true
	m.clearLocked()
	m.mu.Unlock()

	m.broadcast(Event{Type: EventLogout})
	m.nav.Replace(m.gate.LoginPath())
}

// ExternalChange feeds a storage-change notification from another tab into
// the state machine. The manager re-derives its state from storage; a pair
// that is no longer consistent is wiped.
func (m *Manager) ExternalChange(key string) {
	if key != TokenKey && key != ProfileKey {
		return
	}

	m.mu.Lock()
	token, hasToken := m.store.Get(TokenKey)
	rawProfile, hasProfile := m.store.Get(ProfileKey)
	wasAuthenticated := m.state.Authenticated

	profile, ok := parseProfile(rawProfile)
	valid := hasToken && hasProfile && ok && domain.ValidTokenFormat(token)
	if valid {
		m.state = State{Authenticated: true, Profile: &profile}
	} else {
		if hasToken || hasProfile {
			m.clearLocked()
		}
		m.state = State{}
	}
	m.mu.Unlock()

	if valid && !wasAuthenticated {
		m.broadcast(Event{Type: EventLogin})
	}
	if !valid && wasAuthenticated {
		m.broadcast(Event{Type: EventLogout})
	}
}

// Decide applies the route-gating policy to path using the current state.
func (m *Manager) Decide(path string) Decision {
	return m.gate.Decide(path, m.State().Authenticated)
}

// clearLocked wipes storage, cookie, and state. Callers hold m.mu.
func (m *Manager) clearLocked() {
	m.store.Delete(TokenKey)
	m.store.Delete(ProfileKey)
	m.cookies.ClearAuthCookie()
	m.state = State{}
	m.epoch++
}

// wipeStorage removes a corrupt pair outside of a state transition.
func (m *Manager) wipeStorage() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store.Delete(TokenKey)
	m.store.Delete(ProfileKey)
	m.cookies.ClearAuthCookie()
}

// broadcast invokes subscribers outside the lock so they can read State().
func (m *Manager) broadcast(ev Event) {
	m.mu.Lock()
	subs := make([]func(Event), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

func parseProfile(raw string) (Profile, bool) {
	var p Profile
	if raw == "" || json.Unmarshal([]byte(raw), &p) != nil || p.ID == "" {
		return Profile{}, false
	}
	return p, true
}

// userMessage maps an operation error to the message shown to the user.
func userMessage(err error) string {
	if errors.Is(err, ErrUnauthorized) {
		return "Credenciales inválidas"
	}
	var me interface{ Message() string }
	if errors.As(err, &me) {
		return me.Message()
	}
	return "Error de conexión con el servidor"
}
