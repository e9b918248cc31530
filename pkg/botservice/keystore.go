package botservice

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TrustDomain selects which OpenID authority validates inbound tokens.
type TrustDomain int

const (
	ProductionDomain TrustDomain = iota
	EmulatorDomain
)

func (d TrustDomain) String() string {
	if d == EmulatorDomain {
		return "emulator"
	}
	return "production"
}

// DomainForChannel maps a channel id to its trust domain. Only the
// emulator channel uses the emulator authority.
func DomainForChannel(channelID string) TrustDomain {
	if channelID == ChannelEmulator {
		return EmulatorDomain
	}
	return ProductionDomain
}

// keyCacheMaxAge marks a discovery/JWKS cache entry stale after five
// days; a stale entry is refetched before use, never served.
const keyCacheMaxAge = 5 * 24 * time.Hour

type openIDDocument struct {
	JWKSURI     string   `json:"jwks_uri"`
	SigningAlgs []string `json:"id_token_signing_alg_values_supported"`
}

type jwksDocument struct {
	Keys []jsonWebKey `json:"keys"`
}

type jsonWebKey struct {
	Kid          string   `json:"kid"`
	N            string   `json:"n"`
	E            string   `json:"e"`
	Endorsements []string `json:"endorsements,omitempty"`
}

// SigningKey is a resolved channel-issued verification key together
// with the algorithms the issuing authority signs with.
type SigningKey struct {
	KeyID       string
	Key         *rsa.PublicKey
	SigningAlgs []string
}

type keyCacheEntry struct {
	keys        []jsonWebKey
	signingAlgs []string
	fetchedAt   time.Time
}

func (e *keyCacheEntry) fresh(now time.Time) bool {
	return e != nil && now.Sub(e.fetchedAt) < keyCacheMaxAge
}

// KeyStore fetches and caches the OpenID discovery metadata and JWKS of
// both trust domains. Cache entries are replaced as whole units;
// concurrent refreshes converge on the last writer.
type KeyStore struct {
	client   *http.Client
	urls     map[TrustDomain]string
	override *rsa.PublicKey

	mu    sync.RWMutex
	cache map[TrustDomain]*keyCacheEntry

	now func() time.Time
}

// NewKeyStore builds a key store for the two discovery URLs. overridePEM
// is an optional PEM public key that replaces JWKS key construction
// (test doubles only).
func NewKeyStore(client *http.Client, openIDURL, emulatorOpenIDURL, overridePEM string) (*KeyStore, error) {
	if client == nil {
		client = http.DefaultClient
	}

	var override *rsa.PublicKey
	if overridePEM != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(overridePEM))
		if err != nil {
			return nil, fmt.Errorf("invalid override public key: %w", err)
		}
		override = key
	}

	return &KeyStore{
		client: client,
		urls: map[TrustDomain]string{
			ProductionDomain: openIDURL,
			EmulatorDomain:   emulatorOpenIDURL,
		},
		override: override,
		cache:    make(map[TrustDomain]*keyCacheEntry),
		now:      time.Now,
	}, nil
}

// SigningKey resolves the key identified by kid within the given trust
// domain, enforcing channel endorsements. ErrKeyNotFound means the key
// set is valid but does not hold a usable key; *AuthProviderError means
// the key set could not be obtained.
func (s *KeyStore) SigningKey(ctx context.Context, domain TrustDomain, kid, channelID string) (*SigningKey, error) {
	entry, err := s.entry(ctx, domain)
	if err != nil {
		return nil, err
	}

	var key *jsonWebKey
	for i := range entry.keys {
		if entry.keys[i].Kid == kid {
			key = &entry.keys[i]
			break
		}
	}

	if key == nil || key.N == "" || key.E == "" {
		return nil, ErrKeyNotFound
	}

	// A key endorsed for specific channels must not authenticate a
	// webhook claiming to be a different channel. The emulator domain
	// bypasses endorsements entirely.
	if channelID != ChannelEmulator && len(key.Endorsements) != 0 && !slices.Contains(key.Endorsements, channelID) {
		return nil, ErrKeyNotFound
	}

	pub := s.override
	if pub == nil {
		pub, err = rsaKeyFromModExp(key.N, key.E)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", kid, err)
		}
	}

	return &SigningKey{
		KeyID:       kid,
		Key:         pub,
		SigningAlgs: entry.signingAlgs,
	}, nil
}

// Invalidate drops the cache entry for domain.
func (s *KeyStore) Invalidate(domain TrustDomain) {
	s.mu.Lock()
	delete(s.cache, domain)
	s.mu.Unlock()
}

func (s *KeyStore) entry(ctx context.Context, domain TrustDomain) (*keyCacheEntry, error) {
	s.mu.RLock()
	entry := s.cache[domain]
	s.mu.RUnlock()

	if entry.fresh(s.now()) {
		return entry, nil
	}

	entry, err := s.refresh(ctx, domain)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[domain] = entry
	s.mu.Unlock()

	return entry, nil
}

func (s *KeyStore) refresh(ctx context.Context, domain TrustDomain) (*keyCacheEntry, error) {
	var doc openIDDocument
	if err := s.getJSON(ctx, s.urls[domain], &doc); err != nil {
		return nil, authProviderError("discovery", err)
	}
	if doc.JWKSURI == "" {
		return nil, authProviderError("discovery", fmt.Errorf("document at %s has no jwks_uri", s.urls[domain]))
	}

	var jwks jwksDocument
	if err := s.getJSON(ctx, doc.JWKSURI, &jwks); err != nil {
		return nil, authProviderError("jwks", err)
	}

	return &keyCacheEntry{
		keys:        jwks.Keys,
		signingAlgs: doc.SigningAlgs,
		fetchedAt:   s.now(),
	}, nil
}

func (s *KeyStore) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("GET %s: status=%d body=%s", url, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode: %w", url, err)
	}
	return nil
}

// rsaKeyFromModExp builds an RSA public key from base64url modulus and
// exponent as published in a JWKS document.
func rsaKeyFromModExp(n, e string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(n, "="))
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(e, "="))
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}

	eBig := new(big.Int).SetBytes(eBytes)
	if !eBig.IsInt64() || eBig.Int64() <= 1 {
		return nil, fmt.Errorf("invalid exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(eBig.Int64()),
	}, nil
}
