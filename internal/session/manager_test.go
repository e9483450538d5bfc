package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"codequiz/internal/api"
	"codequiz/internal/state"
)

type fakeBackend struct {
	loginRes   api.LoginResponse
	loginErr   error
	refreshRes api.RefreshResponse
	refreshErr error
	logins     []string
	refreshes  []string
}

func (f *fakeBackend) Login(_ context.Context, credential string) (api.LoginResponse, error) {
	f.logins = append(f.logins, credential)
	return f.loginRes, f.loginErr
}

func (f *fakeBackend) Refresh(_ context.Context, token string) (api.RefreshResponse, error) {
	f.refreshes = append(f.refreshes, token)
	return f.refreshRes, f.refreshErr
}

type fakeWorkflow struct {
	mu         sync.Mutex
	refreshes  int
	resets     int
	refreshErr error
	onRefresh  func(ctx context.Context) error
}

func (f *fakeWorkflow) RefreshHistory(ctx context.Context) error {
	f.mu.Lock()
	f.refreshes++
	hook := f.onRefresh
	f.mu.Unlock()
	if hook != nil {
		return hook(ctx)
	}
	return f.refreshErr
}

func (f *fakeWorkflow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
}

func TestRestoreWithEmptyStoreMakesNoCall(t *testing.T) {
	be := &fakeBackend{}
	m := NewManager(state.NewMemory(), be, nil)
	if got := m.Restore(context.Background()); got != Anonymous {
		t.Fatalf("expected anonymous, got %v", got)
	}
	if len(be.refreshes) != 0 {
		t.Fatalf("expected no refresh call, got %d", len(be.refreshes))
	}
}

func TestRestoreRotatesTokenAndLoadsHistory(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemory()
	_ = store.SetToken(ctx, "old")
	be := &fakeBackend{refreshRes: api.RefreshResponse{AccessToken: "new"}}
	wf := &fakeWorkflow{}
	m := NewManager(store, be, nil)
	m.SetWorkflow(wf)

	if got := m.Restore(ctx); got != Authenticated {
		t.Fatalf("expected authenticated, got %v", got)
	}
	if be.refreshes[0] != "old" {
		t.Fatalf("expected refresh with stored token, got %v", be.refreshes)
	}
	if tok, _ := m.Token(ctx); tok != "new" {
		t.Fatalf("expected rotated token, got %q", tok)
	}
	if wf.refreshes != 1 {
		t.Fatalf("expected history fetch after restore, got %d", wf.refreshes)
	}
}

func TestRestoreFailureClearsStoreSilently(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemory()
	_ = store.SetToken(ctx, "old")
	be := &fakeBackend{refreshErr: &api.Error{Kind: api.KindTransport, Endpoint: "refresh", Message: "request failed"}}
	m := NewManager(store, be, nil)

	if got := m.Restore(ctx); got != Anonymous {
		t.Fatalf("expected anonymous, got %v", got)
	}
	if _, ok, _ := store.Token(ctx); ok {
		t.Fatalf("expected stored token cleared")
	}
	if st := m.Status(); st.Notice != "" {
		t.Fatalf("restore failure must not surface a notice, got %q", st.Notice)
	}
}

func TestLoginStoresSessionToken(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemory()
	be := &fakeBackend{loginRes: api.LoginResponse{SessionToken: "tok1"}}
	wf := &fakeWorkflow{}
	m := NewManager(store, be, nil)
	m.SetWorkflow(wf)

	var seen []Status
	m.Subscribe(func(s Status) { seen = append(seen, s) })

	if err := m.Login(ctx, "abc"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if tok, _, _ := store.Token(ctx); tok != "tok1" {
		t.Fatalf("expected tok1 stored, got %q", tok)
	}
	if be.logins[0] != "abc" {
		t.Fatalf("expected identity credential forwarded, got %v", be.logins)
	}
	if len(seen) == 0 || seen[0].State != Authenticated {
		t.Fatalf("expected authenticated transition, got %#v", seen)
	}
	if wf.refreshes != 1 {
		t.Fatalf("expected history fetch after login")
	}
}

func TestLoginMissingTokenStaysAnonymous(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemory()
	_ = store.SetToken(ctx, "stale")
	m := NewManager(store, &fakeBackend{}, nil)

	err := m.Login(ctx, "abc")
	if !errors.Is(err, ErrLoginFailed) {
		t.Fatalf("expected login failure, got %v", err)
	}
	if _, ok, _ := store.Token(ctx); ok {
		t.Fatalf("expected store cleared after failed login")
	}
	st := m.Status()
	if st.State != Anonymous || st.Notice != LoginFailedMessage {
		t.Fatalf("unexpected status %#v", st)
	}
}

func TestHistoryFailureKeepsSessionAuthenticated(t *testing.T) {
	ctx := context.Background()
	wf := &fakeWorkflow{refreshErr: &api.Error{Kind: api.KindAPI, Status: 500, Message: "db down"}}
	m := NewManager(state.NewMemory(), &fakeBackend{loginRes: api.LoginResponse{SessionToken: "tok1"}}, nil)
	m.SetWorkflow(wf)

	if err := m.Login(ctx, "abc"); err != nil {
		t.Fatalf("login: %v", err)
	}
	st := m.Status()
	if st.State != Authenticated {
		t.Fatalf("expected authenticated despite history failure")
	}
	if st.Notice == "" {
		t.Fatalf("expected history failure notice")
	}
}

func TestLogoutResetsWorkflowWithoutNetwork(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemory()
	be := &fakeBackend{loginRes: api.LoginResponse{SessionToken: "tok1"}}
	wf := &fakeWorkflow{}
	m := NewManager(store, be, nil)
	m.SetWorkflow(wf)
	_ = m.Login(ctx, "abc")

	if err := m.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if wf.resets != 1 {
		t.Fatalf("expected workflow reset")
	}
	if _, err := m.Token(ctx); !errors.Is(err, ErrAnonymous) {
		t.Fatalf("expected anonymous token error, got %v", err)
	}
	if len(be.logins) != 1 || len(be.refreshes) != 0 {
		t.Fatalf("logout must not call the backend")
	}
}

func TestExpireShowsSessionExpiredNotice(t *testing.T) {
	ctx := context.Background()
	wf := &fakeWorkflow{}
	m := NewManager(state.NewMemory(), &fakeBackend{loginRes: api.LoginResponse{SessionToken: "tok1"}}, nil)
	m.SetWorkflow(wf)
	_ = m.Login(ctx, "abc")

	m.Expire(ctx)
	st := m.Status()
	if st.State != Anonymous || st.Notice != api.SessionExpiredMessage {
		t.Fatalf("unexpected status %#v", st)
	}
	if wf.resets != 1 {
		t.Fatalf("expected workflow reset on expiry")
	}
}

func TestLoginThenHistoryUsesSessionBearer(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login":
			_, _ = w.Write([]byte(`{"session_token":"tok1"}`))
		case "/api/solved_questions":
			auth = r.Header.Get("Authorization")
			_, _ = w.Write([]byte(`[]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	store := state.NewMemory()
	client := api.New(api.Options{BaseURL: srv.URL}, store)
	m := NewManager(store, client, nil)
	wf := &fakeWorkflow{}
	wf.onRefresh = func(ctx context.Context) error {
		tok, err := m.Token(ctx)
		if err != nil {
			return err
		}
		_, err = client.SolvedQuestions(ctx, tok)
		return err
	}
	m.SetWorkflow(wf)

	if err := m.Login(context.Background(), "abc"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if tok, _, _ := store.Token(context.Background()); tok != "tok1" {
		t.Fatalf("expected tok1 in store, got %q", tok)
	}
	if auth != "Bearer tok1" {
		t.Fatalf("expected history call with Bearer tok1, got %q", auth)
	}
}

func TestUnauthorizedHistoryExpiresSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/refresh" {
			_, _ = w.Write([]byte(`{"access_token":"tok2"}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid token"}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	store := state.NewMemory()
	_ = store.SetToken(ctx, "tok1")
	client := api.New(api.Options{BaseURL: srv.URL}, store)
	m := NewManager(store, client, nil)
	wf := &fakeWorkflow{}
	wf.onRefresh = func(ctx context.Context) error {
		tok, err := m.Token(ctx)
		if err != nil {
			return err
		}
		_, err = client.SolvedQuestions(ctx, tok)
		return err
	}
	m.SetWorkflow(wf)

	if got := m.Restore(ctx); got != Anonymous {
		t.Fatalf("expected session expired by 401, got %v", got)
	}
	if _, ok, _ := store.Token(ctx); ok {
		t.Fatalf("expected credential cleared")
	}
	if _, err := m.Token(ctx); !errors.Is(err, ErrAnonymous) {
		t.Fatalf("expected later calls rejected client-side, got %v", err)
	}
}
