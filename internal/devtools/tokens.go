package devtools

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var errBadToken = errors.New("invalid or expired token")

type sessionClaims struct {
	jwt.RegisteredClaims
}

type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func (t tokenIssuer) issue(subject string) (string, string, error) {
	now := t.now()
	id := uuid.NewString()
	claims := sessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   subject,
		ID:        id,
		Issuer:    "codequiz-mock",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, id, nil
}

func (t tokenIssuer) parse(raw string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil || !tok.Valid {
		return nil, errBadToken
	}
	return claims, nil
}
