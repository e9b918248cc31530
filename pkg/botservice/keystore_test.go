package botservice

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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// jwksAuthority is a fake OpenID authority serving a discovery document
// and a JWKS over httptest.
type jwksAuthority struct {
	server        *httptest.Server
	key           *rsa.PrivateKey
	kid           string
	endorsements  []string
	signingAlgs   []string
	extraKeys     []map[string]interface{}
	discoveryHits int
}

func newJWKSAuthority(t *testing.T) *jwksAuthority {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	a := &jwksAuthority{
		key:         key,
		kid:         "key-1",
		signingAlgs: []string{"RS256"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		a.discoveryHits++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jwks_uri":                              a.server.URL + "/keys",
			"id_token_signing_alg_values_supported": a.signingAlgs,
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		entry := map[string]interface{}{
			"kid": a.kid,
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}
		if len(a.endorsements) > 0 {
			entry["endorsements"] = a.endorsements
		}
		keys := append([]map[string]interface{}{entry}, a.extraKeys...)
		json.NewEncoder(w).Encode(map[string]interface{}{"keys": keys})
	})

	a.server = httptest.NewServer(mux)
	t.Cleanup(a.server.Close)
	return a
}

func (a *jwksAuthority) discoveryURL() string {
	return a.server.URL + "/.well-known/openid-configuration"
}

func newTestKeyStore(t *testing.T, a *jwksAuthority) *KeyStore {
	t.Helper()
	store, err := NewKeyStore(a.server.Client(), a.discoveryURL(), a.discoveryURL(), "")
	require.NoError(t, err)
	return store
}

func TestKeyStoreResolvesKey(t *testing.T) {
	a := newJWKSAuthority(t)
	store := newTestKeyStore(t, a)

	key, err := store.SigningKey(context.Background(), ProductionDomain, "key-1", "webchat")
	require.NoError(t, err)
	require.Equal(t, "key-1", key.KeyID)
	require.Equal(t, []string{"RS256"}, key.SigningAlgs)
	require.Equal(t, 0, a.key.PublicKey.N.Cmp(key.Key.N))
}

func TestKeyStoreUnknownKid(t *testing.T) {
	a := newJWKSAuthority(t)
	store := newTestKeyStore(t, a)

	_, err := store.SigningKey(context.Background(), ProductionDomain, "nope", "webchat")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestKeyStoreKeyWithoutMaterial(t *testing.T) {
	a := newJWKSAuthority(t)
	a.extraKeys = []map[string]interface{}{{"kid": "hollow"}}
	store := newTestKeyStore(t, a)

	_, err := store.SigningKey(context.Background(), ProductionDomain, "hollow", "webchat")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestKeyStoreEndorsements(t *testing.T) {
	a := newJWKSAuthority(t)
	a.endorsements = []string{"facebook"}
	store := newTestKeyStore(t, a)
	ctx := context.Background()

	// Endorsed channel passes.
	_, err := store.SigningKey(ctx, ProductionDomain, "key-1", "facebook")
	require.NoError(t, err)

	// Any other channel must not authenticate with this key.
	_, err = store.SigningKey(ctx, ProductionDomain, "key-1", "whatsapp")
	require.ErrorIs(t, err, ErrKeyNotFound)

	// The emulator bypasses endorsement checks entirely.
	_, err = store.SigningKey(ctx, EmulatorDomain, "key-1", ChannelEmulator)
	require.NoError(t, err)
}

func TestKeyStoreCachesForFiveDays(t *testing.T) {
	a := newJWKSAuthority(t)
	store := newTestKeyStore(t, a)

	now := time.Now()
	store.now = func() time.Time { return now }

	ctx := context.Background()
	_, err := store.SigningKey(ctx, ProductionDomain, "key-1", "webchat")
	require.NoError(t, err)
	_, err = store.SigningKey(ctx, ProductionDomain, "key-1", "webchat")
	require.NoError(t, err)
	require.Equal(t, 1, a.discoveryHits)

	now = now.Add(4 * 24 * time.Hour)
	_, err = store.SigningKey(ctx, ProductionDomain, "key-1", "webchat")
	require.NoError(t, err)
	require.Equal(t, 1, a.discoveryHits)

	now = now.Add(2 * 24 * time.Hour)
	_, err = store.SigningKey(ctx, ProductionDomain, "key-1", "webchat")
	require.NoError(t, err)
	require.Equal(t, 2, a.discoveryHits)
}

func TestKeyStoreInvalidate(t *testing.T) {
	a := newJWKSAuthority(t)
	store := newTestKeyStore(t, a)
	ctx := context.Background()

	_, err := store.SigningKey(ctx, ProductionDomain, "key-1", "webchat")
	require.NoError(t, err)
	store.Invalidate(ProductionDomain)
	_, err = store.SigningKey(ctx, ProductionDomain, "key-1", "webchat")
	require.NoError(t, err)
	require.Equal(t, 2, a.discoveryHits)
}

func TestKeyStoreDiscoveryFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	store, err := NewKeyStore(server.Client(), server.URL, server.URL, "")
	require.NoError(t, err)

	_, err = store.SigningKey(context.Background(), ProductionDomain, "key-1", "webchat")
	var provider *AuthProviderError
	require.True(t, errors.As(err, &provider), "error = %T, want *AuthProviderError", err)
}

func TestNewKeyStoreRejectsBadOverride(t *testing.T) {
	_, err := NewKeyStore(nil, "http://unused", "http://unused", "not a pem block")
	require.Error(t, err)
}

func TestRSAKeyFromModExp(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	n := base64.RawURLEncoding.EncodeToString(key.N.Bytes())
	e := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes())

	pub, err := rsaKeyFromModExp(n, e)
	require.NoError(t, err)
	require.Equal(t, 0, key.N.Cmp(pub.N))
	require.Equal(t, key.E, pub.E)

	_, err = rsaKeyFromModExp("!!!", e)
	require.Error(t, err)
	_, err = rsaKeyFromModExp(n, base64.RawURLEncoding.EncodeToString([]byte{1}))
	require.Error(t, err)
}
