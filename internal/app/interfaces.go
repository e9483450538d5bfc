package app

import "codequiz/internal/state"

// Store is the token store together with its lifecycle.
type Store interface {
	state.TokenStore
	Close() error
}
