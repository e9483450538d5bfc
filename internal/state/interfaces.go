package state

import "context"

// TokenStore holds the single session credential.
type TokenStore interface {
	SetToken(ctx context.Context, token string) error
	Token(ctx context.Context) (string, bool, error)
	ClearToken(ctx context.Context) error
}

// TokenKey is the app_settings key the credential lives under.
const TokenKey = "ocaml_quiz_token"
