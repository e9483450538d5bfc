package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func TestStaticProvider(t *testing.T) {
	tok, err := StaticProvider{Token: "abc"}.Credential(context.Background(), nil)
	if err != nil || tok != "abc" {
		t.Fatalf("unexpected %q %v", tok, err)
	}
	if _, err := (StaticProvider{}).Credential(context.Background(), nil); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected missing credential error, got %v", err)
	}
}

func TestCallbackHandlerRejectsWrongState(t *testing.T) {
	out := make(chan callbackResult, 1)
	rec := httptest.NewRecorder()
	callbackHandler("s1", out).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=other&code=x", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(out) != 0 {
		t.Fatalf("mismatched state must not complete sign-in")
	}
}

func TestCallbackHandlerReportsDenial(t *testing.T) {
	out := make(chan callbackResult, 1)
	rec := httptest.NewRecorder()
	callbackHandler("s1", out).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s1&error=access_denied", nil))
	res := <-out
	if res.err == nil || !strings.Contains(res.err.Error(), "access_denied") {
		t.Fatalf("expected denial error, got %#v", res)
	}
}

func TestCallbackHandlerAcceptsOnce(t *testing.T) {
	out := make(chan callbackResult, 1)
	h := callbackHandler("s1", out)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s1&code=c1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s1&code=c2", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected second callback rejected, got %d", rec.Code)
	}
	if res := <-out; res.code != "c1" {
		t.Fatalf("expected first code, got %q", res.code)
	}
}

func TestGoogleProviderReturnsIDToken(t *testing.T) {
	var gotVerifier, gotCode string
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotVerifier = r.Form.Get("code_verifier")
		gotCode = r.Form.Get("code")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600,"id_token":"google-id-token"}`))
	}))
	defer tokenSrv.Close()

	g := NewGoogleProvider("client", "secret")
	g.Endpoint = oauth2.Endpoint{AuthURL: "https://accounts.example/auth", TokenURL: tokenSrv.URL, AuthStyle: oauth2.AuthStyleInParams}

	var challenge string
	prompt := func(raw string) {
		u, err := url.Parse(raw)
		if err != nil {
			t.Errorf("parse auth url: %v", err)
			return
		}
		q := u.Query()
		challenge = q.Get("code_challenge")
		resp, err := http.Get(q.Get("redirect_uri") + "?code=authcode&state=" + url.QueryEscape(q.Get("state")))
		if err != nil {
			t.Errorf("callback: %v", err)
			return
		}
		_ = resp.Body.Close()
	}

	tok, err := g.Credential(context.Background(), prompt)
	if err != nil {
		t.Fatalf("credential: %v", err)
	}
	if tok != "google-id-token" {
		t.Fatalf("expected id token, got %q", tok)
	}
	if gotCode != "authcode" || gotVerifier == "" || challenge == "" {
		t.Fatalf("expected PKCE exchange, code=%q verifier=%q challenge=%q", gotCode, gotVerifier, challenge)
	}
}

func TestGoogleProviderRequiresClientID(t *testing.T) {
	if _, err := NewGoogleProvider("", "").Credential(context.Background(), nil); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected not configured, got %v", err)
	}
}

func TestGoogleProviderHonoursContext(t *testing.T) {
	g := NewGoogleProvider("client", "")
	ctx, cancel := context.WithCancel(context.Background())
	_, err := g.Credential(ctx, func(string) { cancel() })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
