package api

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindTransport Kind = iota + 1
	KindUnauthenticated
	KindAPI
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindAPI:
		return "api"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is; every *Error matches exactly one of them.
var (
	ErrTransport       = errors.New("transport error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrAPI             = errors.New("api error")
)

const (
	SessionExpiredMessage = "Session expired. Please login again."
	TransportMessage      = "Could not reach the quiz server. Check your connection and try again."
	fallbackAPIMessage    = "API call failed"
)

type Error struct {
	Kind      Kind
	Endpoint  string
	Status    int
	Message   string
	RequestID string
	Err       error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindAPI:
		return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.Status, e.Message)
	case KindUnauthenticated:
		return fmt.Sprintf("%s: %s", e.Endpoint, SessionExpiredMessage)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Endpoint, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrUnauthenticated:
		return e.Kind == KindUnauthenticated
	case ErrAPI:
		return e.Kind == KindAPI
	}
	return false
}

// UserMessage converts err into the text shown in the status bar.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case KindUnauthenticated:
			return SessionExpiredMessage
		case KindAPI:
			if apiErr.Message != "" {
				return apiErr.Message
			}
			return fallbackAPIMessage
		default:
			return TransportMessage
		}
	}
	return err.Error()
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
