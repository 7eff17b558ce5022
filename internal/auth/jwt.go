// Package auth verifies credential tokens issued by the external identity
// service. Only verification lives here; issuance is not this process's job.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dkeye/beacon/internal/domain"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Verifier resolves a credential token to a user identity.
type Verifier interface {
	Verify(token string) (domain.UserID, error)
}

type claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(token string) (domain.UserID, error) {
	if token == "" {
		return "", ErrMissingToken
	}

	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || c.UserID == "" || len(c.UserID) > domain.MaxUserIDLen {
		return "", ErrInvalidToken
	}
	return domain.UserID(c.UserID), nil
}
