package thalex

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestMakeAuthToken(t *testing.T) {
	key := generateKey(t)
	now := time.Unix(1700000000, 500_000_000)

	signed, err := MakeAuthToken("K123", key, now)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(signed, claims, func(tok *jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"RS512"}), jwt.WithoutClaimsValidation())
	require.NoError(t, err)

	assert.True(t, token.Valid)
	assert.Equal(t, "K123", token.Header["kid"])
	assert.Equal(t, "RS512", token.Header["alg"])
	assert.InDelta(t, 1700000000.5, claims["iat"], 1e-3)
	assert.Len(t, claims, 1)
}

func TestMakeAuthTokenErrors(t *testing.T) {
	_, err := MakeAuthToken("", generateKey(t), time.Now())
	assert.Error(t, err)

	_, err = MakeAuthToken("K1", nil, time.Now())
	assert.Error(t, err)
}

func TestParsePrivateKey(t *testing.T) {
	key := generateKey(t)

	pkcs8, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	testCases := []struct {
		name    string
		pem     []byte
		wantErr bool
	}{
		{
			name: "PKCS1",
			pem:  pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}),
		},
		{
			name: "PKCS8",
			pem:  pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8}),
		},
		{
			name:    "not PEM",
			pem:     []byte("not a key"),
			wantErr: true,
		},
		{
			name:    "garbage block",
			pem:     pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte{1, 2, 3}}),
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := ParsePrivateKey(tc.pem)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, key.Equal(parsed))
		})
	}
}

func TestLoadPrivateKey(t *testing.T) {
	key := generateKey(t)
	path := filepath.Join(t.TempDir(), "private.pem")
	data := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := LoadPrivateKey(path)
	require.NoError(t, err)
	assert.True(t, key.Equal(loaded))

	_, err = LoadPrivateKey(filepath.Join(t.TempDir(), "missing.pem"))
	assert.Error(t, err)
}
