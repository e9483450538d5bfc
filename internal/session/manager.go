package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"codequiz/internal/api"
	"codequiz/internal/state"
	"codequiz/internal/telemetry"
)

type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

var (
	ErrAnonymous   = errors.New("not signed in")
	ErrLoginFailed = errors.New("login failed")
)

const LoginFailedMessage = "Login failed. Please try again."

// Status is what the UI shows about the session.
type Status struct {
	State  State
	Notice string
}

type Manager struct {
	store    state.TokenStore
	backend  Backend
	workflow Workflow
	logger   *telemetry.Logger

	mu        sync.Mutex
	state     State
	notice    string
	listeners []func(Status)
}

func NewManager(store state.TokenStore, backend Backend, logger *telemetry.Logger) *Manager {
	return &Manager{store: store, backend: backend, logger: logger}
}

func (m *Manager) SetWorkflow(w Workflow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workflow = w
}

// Subscribe registers fn to receive every status change.
func (m *Manager) Subscribe(fn func(Status)) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{State: m.state, Notice: m.notice}
}

// Token returns the credential for an authenticated call. Calls made while
// anonymous, or after a 401 cleared the store, are rejected here.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	st := m.state
	m.mu.Unlock()
	if st != Authenticated {
		return "", ErrAnonymous
	}
	token, ok, err := m.store.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	if !ok {
		return "", ErrAnonymous
	}
	return token, nil
}

// Restore validates a stored credential at start-up. Failures are logged and
// leave the session anonymous; the caller sees only the resulting state.
func (m *Manager) Restore(ctx context.Context) State {
	stored, ok, err := m.store.Token(ctx)
	if err != nil {
		m.logger.Error("session.restore.read_failed", map[string]any{"error": err.Error()})
		return m.Status().State
	}
	if !ok {
		m.logger.Info("session.restore.empty", nil)
		return Anonymous
	}
	res, err := m.backend.Refresh(ctx, stored)
	if err == nil && strings.TrimSpace(res.AccessToken) == "" {
		err = errors.New("refresh response carried no access token")
	}
	if err == nil {
		err = m.store.SetToken(ctx, res.AccessToken)
	}
	if err != nil {
		m.logger.Info("session.restore.rejected", map[string]any{"error": err.Error()})
		if clearErr := m.store.ClearToken(ctx); clearErr != nil {
			m.logger.Error("session.restore.clear_failed", map[string]any{"error": clearErr.Error()})
		}
		m.transition(Anonymous, "")
		return Anonymous
	}
	m.logger.Info("session.restore.ok", nil)
	m.transition(Authenticated, "")
	m.loadHistory(ctx)
	return m.Status().State
}

// Login exchanges an identity-provider credential for a session token.
func (m *Manager) Login(ctx context.Context, credential string) error {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return fmt.Errorf("%w: empty identity credential", ErrLoginFailed)
	}
	res, err := m.backend.Login(ctx, credential)
	if err == nil && strings.TrimSpace(res.SessionToken) == "" {
		err = errors.New("login response carried no session token")
	}
	if err == nil {
		err = m.store.SetToken(ctx, res.SessionToken)
	}
	if err != nil {
		m.logger.Error("session.login.failed", map[string]any{"error": err.Error(), "status": api.StatusOf(err)})
		if clearErr := m.store.ClearToken(ctx); clearErr != nil {
			m.logger.Error("session.login.clear_failed", map[string]any{"error": clearErr.Error()})
		}
		m.transition(Anonymous, LoginFailedMessage)
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	m.logger.Info("session.login.ok", nil)
	m.transition(Authenticated, "")
	m.loadHistory(ctx)
	return nil
}

// Logout drops the credential and all in-memory question state. No request
// is sent.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.store.ClearToken(ctx)
	if err != nil {
		m.logger.Error("session.logout.clear_failed", map[string]any{"error": err.Error()})
	}
	m.resetWorkflow()
	m.transition(Anonymous, "")
	m.logger.Info("session.logout", nil)
	return err
}

// Expire handles a 401 seen by any call. The API client has already cleared
// the stored credential.
func (m *Manager) Expire(ctx context.Context) {
	if m.Status().State == Anonymous {
		return
	}
	if _, ok, _ := m.store.Token(ctx); ok {
		_ = m.store.ClearToken(ctx)
	}
	m.resetWorkflow()
	m.transition(Anonymous, api.SessionExpiredMessage)
	m.logger.Info("session.expired", nil)
}

func (m *Manager) loadHistory(ctx context.Context) {
	m.mu.Lock()
	w := m.workflow
	m.mu.Unlock()
	if w == nil {
		return
	}
	if err := w.RefreshHistory(ctx); err != nil {
		m.logger.Error("session.history_failed", map[string]any{"error": err.Error()})
		if api.IsUnauthenticated(err) {
			m.Expire(ctx)
			return
		}
		m.setNotice("Could not load solved questions: " + api.UserMessage(err))
	}
}

func (m *Manager) resetWorkflow() {
	m.mu.Lock()
	w := m.workflow
	m.mu.Unlock()
	if w != nil {
		w.Reset()
	}
}

func (m *Manager) setNotice(notice string) {
	m.mu.Lock()
	m.notice = notice
	st := Status{State: m.state, Notice: notice}
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(st)
	}
}

func (m *Manager) transition(to State, notice string) {
	m.mu.Lock()
	m.state = to
	m.notice = notice
	st := Status{State: to, Notice: notice}
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(st)
	}
}
