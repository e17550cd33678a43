package testhelpers

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/dstroumpakos/escape-app-sub001/internal/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// Keys holds a throwaway RSA pair for signing test tokens.
type Keys struct {
	T       *testing.T
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

func NewKeys(t *testing.T) *Keys {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return &Keys{T: t, Private: priv, Public: &priv.PublicKey}
}

// Token signs a valid 15 minute token for subject with role.
func (k *Keys) Token(subject, role string) string {
	signed, _, err := middleware.SignToken(k.Private, subject, role, 15*time.Minute)
	require.NoError(k.T, err, "Failed to sign test JWT")
	return signed
}

// CustomToken signs arbitrary claims, e.g. an expired token or a foreign issuer.
func (k *Keys) CustomToken(claims jwt.MapClaims) string {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(k.Private)
	require.NoError(k.T, err, "Failed to sign custom test JWT")
	return signed
}
