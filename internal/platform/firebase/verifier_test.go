package firebase

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProject = "vibe-academy"

type keyServer struct {
	srv   *httptest.Server
	key   *rsa.PrivateKey
	kid   string
	fetch int32
}

func newKeyServer(t *testing.T) *keyServer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	ks := &keyServer{key: key, kid: "kid-1"}
	ks.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&ks.fetch, 1)
		_ = json.NewEncoder(w).Encode(jwkSet{Keys: []jwk{{
			Kty: "RSA",
			Kid: ks.kid,
			Alg: "RS256",
			N:   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}})
	}))
	t.Cleanup(ks.srv.Close)
	return ks
}

func (ks *keyServer) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = ks.kid
	s, err := tok.SignedString(ks.key)
	require.NoError(t, err)
	return s
}

func validClaims(now time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":            "https://securetoken.google.com/" + testProject,
		"aud":            testProject,
		"sub":            "fb-uid-1",
		"iat":            now.Add(-time.Minute).Unix(),
		"exp":            now.Add(time.Hour).Unix(),
		"auth_time":      now.Add(-time.Minute).Unix(),
		"email":          "ana@example.com",
		"email_verified": true,
		"name":           "Ana",
		"picture":        "https://example.com/ana.png",
	}
}

func newTestVerifier(t *testing.T, ks *keyServer) Verifier {
	t.Helper()
	v, err := NewVerifier(ks.srv.Client(), Config{ProjectID: testProject, JWKSURL: ks.srv.URL})
	require.NoError(t, err)
	return v
}

func TestVerifyAcceptsValidToken(t *testing.T) {
	ks := newKeyServer(t)
	v := newTestVerifier(t, ks)

	id, err := v.Verify(context.Background(), ks.sign(t, validClaims(time.Now())))
	require.NoError(t, err)
	assert.Equal(t, "fb-uid-1", id.UID)
	assert.Equal(t, "ana@example.com", id.Email)
	assert.True(t, id.EmailVerified)
	assert.Equal(t, "Ana", id.Name)
	assert.Equal(t, "https://example.com/ana.png", id.Picture)

	_, err = v.Verify(context.Background(), ks.sign(t, validClaims(time.Now())))
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ks.fetch), "keys should be cached")
}

func TestVerifyRejectsBadClaims(t *testing.T) {
	ks := newKeyServer(t)
	v := newTestVerifier(t, ks)
	now := time.Now()

	cases := map[string]func(jwt.MapClaims){
		"wrong audience": func(c jwt.MapClaims) { c["aud"] = "other-project" },
		"wrong issuer":   func(c jwt.MapClaims) { c["iss"] = "https://accounts.google.com" },
		"expired":        func(c jwt.MapClaims) { c["exp"] = now.Add(-time.Hour).Unix() },
		"missing exp":    func(c jwt.MapClaims) { delete(c, "exp") },
		"empty subject":  func(c jwt.MapClaims) { c["sub"] = "" },
		"future auth":    func(c jwt.MapClaims) { c["auth_time"] = now.Add(time.Hour).Unix() },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := validClaims(now)
			mutate(c)
			_, err := v.Verify(context.Background(), ks.sign(t, c))
			assert.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
		})
	}
}

func TestVerifyRejectsForeignSignatureAndGarbage(t *testing.T) {
	ks := newKeyServer(t)
	v := newTestVerifier(t, ks)

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims(time.Now()))
	tok.Header["kid"] = ks.kid
	forged, err := tok.SignedString(other)
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewVerifierRequiresProject(t *testing.T) {
	_, err := NewVerifier(nil, Config{})
	assert.Error(t, err)
}
