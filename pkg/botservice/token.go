package botservice

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/zhaopengme/botbridge/pkg/config"
)

// tokenExpiryWindow is subtracted from the token lifetime so a token is
// never presented close to its expiry.
const tokenExpiryWindow = 2 * time.Minute

// TokenCache acquires the outbound connector token via the OAuth2
// client-credentials grant and reuses it until the expiry window opens.
// One cache exists per adapter instance; there are no per-conversation
// tokens.
type TokenCache struct {
	grant  clientcredentials.Config
	client *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	now func() time.Time
}

func NewTokenCache(cfg config.BotServiceConfig) *TokenCache {
	grant := clientcredentials.Config{
		ClientID:     cfg.AppID,
		ClientSecret: cfg.AppSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       []string{cfg.Scope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	if cfg.GrantType != "" {
		// clientcredentials posts grant_type=client_credentials unless
		// overridden through the endpoint params.
		grant.EndpointParams = url.Values{"grant_type": {cfg.GrantType}}
	}
	return &TokenCache{
		grant: grant,
		now:   time.Now,
	}
}

// Token returns the cached bearer token, fetching a fresh one when the
// cache is empty or inside the expiry window. A fetch failure leaves the
// cache untouched so the next call retries.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiresAt) {
		return c.token, nil
	}

	if c.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.client)
	}

	tok, err := c.grant.Token(ctx)
	if err != nil {
		return "", authProviderError("token", err)
	}

	c.token = tok.AccessToken
	if tok.Expiry.IsZero() {
		// The endpoint did not report expires_in; treat the token as
		// immediately stale so every call refreshes.
		c.expiresAt = c.now()
	} else {
		c.expiresAt = tok.Expiry.Add(-tokenExpiryWindow)
	}

	return c.token, nil
}

// Invalidate drops the cached token. The next Token call fetches anew.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiresAt = time.Time{}
}

// SetHTTPClient routes token endpoint calls through client instead of
// the default transport.
func (c *TokenCache) SetHTTPClient(client *http.Client) {
	c.client = client
}
