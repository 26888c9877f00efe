package identity_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/rollcall/internal/infrastructure/identity"
)

const (
	testKeyID    = "test-key-id"
	testClientID = "ios-client.apps.googleusercontent.com"
)

func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func jwksResponse(t *testing.T, key *rsa.PrivateKey) []byte {
	t.Helper()
	pub := &key.PublicKey
	data, err := json.Marshal(map[string]any{
		"keys": []map[string]any{
			{
				"kty": "RSA",
				"alg": "RS256",
				"use": "sig",
				"kid": testKeyID,
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			},
		},
	})
	require.NoError(t, err)
	return data
}

func setupJWKSServer(t *testing.T, key *rsa.PrivateKey) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(jwksResponse(t, key))
	}))
	t.Cleanup(server.Close)
	return server
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID

	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func googleClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":            "https://accounts.google.com",
		"sub":            "1100220033",
		"aud":            testClientID,
		"exp":            now.Add(time.Hour).Unix(),
		"iat":            now.Unix(),
		"email":          "Jane@Example.com",
		"email_verified": true,
	}
}

func newVerifier(t *testing.T, server *httptest.Server) *identity.GoogleVerifier {
	t.Helper()

	v, err := identity.NewGoogleVerifier(identity.GoogleVerifierConfig{
		JWKSURL:   server.URL,
		ClientIDs: []string{"web-client.apps.googleusercontent.com", testClientID},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = v.Close() })
	return v
}

func TestNewGoogleVerifier_RequiresClientIDs(t *testing.T) {
	_, err := identity.NewGoogleVerifier(identity.GoogleVerifierConfig{JWKSURL: "http://localhost"})

	require.ErrorIs(t, err, identity.ErrInvalidAudience)
}

func TestGoogleVerifier_Verify(t *testing.T) {
	key := generateTestKey(t)
	server := setupJWKSServer(t, key)
	verifier := newVerifier(t, server)

	t.Run("valid token", func(t *testing.T) {
		id, err := verifier.Verify(context.Background(), signToken(t, key, googleClaims()))

		require.NoError(t, err)
		assert.Equal(t, "1100220033", id.Subject)
		assert.Equal(t, "Jane@Example.com", id.Email)
	})

	t.Run("bare issuer spelling", func(t *testing.T) {
		claims := googleClaims()
		claims["iss"] = "accounts.google.com"

		_, err := verifier.Verify(context.Background(), signToken(t, key, claims))

		require.NoError(t, err)
	})

	t.Run("audience list containing a client", func(t *testing.T) {
		claims := googleClaims()
		claims["aud"] = []any{"someone-else", testClientID}

		_, err := verifier.Verify(context.Background(), signToken(t, key, claims))

		require.NoError(t, err)
	})

	failures := []struct {
		name    string
		mutate  func(jwt.MapClaims)
		wantErr error
	}{
		{"expired", func(c jwt.MapClaims) {
			c["exp"] = time.Now().Add(-time.Hour).Unix()
			c["iat"] = time.Now().Add(-2 * time.Hour).Unix()
		}, identity.ErrTokenExpired},
		{"foreign issuer", func(c jwt.MapClaims) { c["iss"] = "https://evil.example.com" }, identity.ErrInvalidIssuer},
		{"foreign audience", func(c jwt.MapClaims) { c["aud"] = "other-app" }, identity.ErrInvalidAudience},
		{"unverified email", func(c jwt.MapClaims) { c["email_verified"] = false }, identity.ErrEmailNotVerified},
		{"missing email", func(c jwt.MapClaims) { delete(c, "email") }, identity.ErrMissingClaim},
		{"missing subject", func(c jwt.MapClaims) { delete(c, "sub") }, identity.ErrMissingClaim},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			claims := googleClaims()
			tt.mutate(claims)

			_, err := verifier.Verify(context.Background(), signToken(t, key, claims))

			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("string email_verified", func(t *testing.T) {
		claims := googleClaims()
		claims["email_verified"] = "true"

		_, err := verifier.Verify(context.Background(), signToken(t, key, claims))

		require.NoError(t, err)
	})

	t.Run("signed by unknown key", func(t *testing.T) {
		other := generateTestKey(t)

		_, err := verifier.Verify(context.Background(), signToken(t, other, googleClaims()))

		require.ErrorIs(t, err, identity.ErrInvalidToken)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := verifier.Verify(context.Background(), "not-a-jwt")

		require.ErrorIs(t, err, identity.ErrInvalidToken)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := verifier.Verify(context.Background(), "")

		require.ErrorIs(t, err, identity.ErrInvalidToken)
	})
}

func TestTrustedEmailVerifier(t *testing.T) {
	id, err := identity.TrustedEmailVerifier{}.Verify(context.Background(), "  jane@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", id.Email)

	_, err = identity.TrustedEmailVerifier{}.Verify(context.Background(), " ")
	require.ErrorIs(t, err, identity.ErrInvalidToken)
}
