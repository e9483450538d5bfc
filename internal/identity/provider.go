package identity

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var (
	ErrNoCredential  = errors.New("identity provider returned no credential")
	ErrNotConfigured = errors.New("google sign-in is not configured")
)

// Provider obtains the identity credential that the quiz backend exchanges
// for a session token. prompt receives the URL the user must open, if any.
type Provider interface {
	Credential(ctx context.Context, prompt func(url string)) (string, error)
}

// StaticProvider hands out a fixed credential.
type StaticProvider struct {
	Token string
}

func (s StaticProvider) Credential(context.Context, func(string)) (string, error) {
	if s.Token == "" {
		return "", ErrNoCredential
	}
	return s.Token, nil
}

// GoogleProvider runs the installed-app authorization code flow with PKCE
// against a loopback redirect and returns the Google ID token.
type GoogleProvider struct {
	ClientID     string
	ClientSecret string
	Endpoint     oauth2.Endpoint
	// ListenAddr defaults to 127.0.0.1:0.
	ListenAddr string
	Timeout    time.Duration
}

func NewGoogleProvider(clientID, clientSecret string) *GoogleProvider {
	return &GoogleProvider{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Timeout:      5 * time.Minute,
	}
}

type callbackResult struct {
	code string
	err  error
}

func (g *GoogleProvider) Credential(ctx context.Context, prompt func(url string)) (string, error) {
	if g.ClientID == "" {
		return "", ErrNotConfigured
	}
	addr := g.ListenAddr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listen for sign-in callback: %w", err)
	}

	cfg := &oauth2.Config{
		ClientID:     g.ClientID,
		ClientSecret: g.ClientSecret,
		Endpoint:     g.Endpoint,
		RedirectURL:  "http://" + ln.Addr().String() + "/callback",
		Scopes:       []string{"openid", "email", "profile"},
	}
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.Handle("/callback", callbackHandler(state, results))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
	if prompt != nil {
		prompt(authURL)
	}

	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	var res callbackResult
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for sign-in: %w", ctx.Err())
	case res = <-results:
	}
	if res.err != nil {
		return "", res.err
	}

	tok, err := cfg.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", fmt.Errorf("exchange authorization code: %w", err)
	}
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return "", ErrNoCredential
	}
	return idToken, nil
}

// callbackHandler accepts exactly one redirect carrying the expected state.
func callbackHandler(state string, out chan<- callbackResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		case q.Get("error") != "":
			res.err = fmt.Errorf("sign-in denied: %s", q.Get("error"))
		case q.Get("code") == "":
			res.err = errors.New("sign-in callback carried no code")
		default:
			res.code = q.Get("code")
		}
		select {
		case out <- res:
		default:
			http.Error(w, "sign-in already completed", http.StatusConflict)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if res.err != nil {
			_, _ = w.Write([]byte("Sign-in failed. You can close this tab.\n"))
			return
		}
		_, _ = w.Write([]byte("Signed in. You can return to the terminal.\n"))
	})
}
