package session

import (
	"context"

	"codequiz/internal/api"
)

type Backend interface {
	Login(ctx context.Context, credential string) (api.LoginResponse, error)
	Refresh(ctx context.Context, token string) (api.RefreshResponse, error)
}

// Workflow is the part of the question workflow the session drives on
// sign-in and sign-out.
type Workflow interface {
	RefreshHistory(ctx context.Context) error
	Reset()
}
