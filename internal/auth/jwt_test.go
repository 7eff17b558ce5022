package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, c claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestVerifyValidToken(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	tok := signToken(t, testSecret, claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	uid, err := v.Verify(tok)
	require.NoError(t, err)
	require.EqualValues(t, "user-1", uid)
}

func TestVerifyMissingToken(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	_, err := v.Verify("")
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	tok := signToken(t, "other-secret", claims{UserID: "user-1"})
	_, err := v.Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyExpiredToken(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	tok := signToken(t, testSecret, claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	_, err := v.Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMissingUserIDClaim(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	tok := signToken(t, testSecret, claims{})
	_, err := v.Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsUnsignedAlg(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims{UserID: "user-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	_, err := v.Verify("not.a.jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}
