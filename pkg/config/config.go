// BotBridge - Bot Framework channel connector
// License: MIT

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

const (
	// Well-known OpenID discovery documents for the two trust domains.
	DefaultOpenIDURL         = "https://login.botframework.com/v1/.well-known/openidconfiguration"
	DefaultEmulatorOpenIDURL = "https://login.microsoftonline.com/botframework.com/v2.0/.well-known/openid-configuration"

	DefaultTokenURL  = "https://login.microsoftonline.com/botframework.com/oauth2/v2.0/token"
	DefaultGrantType = "client_credentials"
	DefaultScope     = "https://api.botframework.com/.default"
)

type Config struct {
	Logging  LoggingConfig  `json:"logging"`
	Channels ChannelsConfig `json:"channels"`
}

type LoggingConfig struct {
	Level  string `json:"level" env:"BOTBRIDGE_LOG_LEVEL"`
	Format string `json:"format" env:"BOTBRIDGE_LOG_FORMAT"`
}

type ChannelsConfig struct {
	BotService BotServiceConfig `json:"botservice" envPrefix:"BOTBRIDGE_"`
}

// BotServiceConfig configures the Bot Framework connector channel.
type BotServiceConfig struct {
	Enabled   bool   `json:"enabled" env:"ENABLED"`
	AppID     string `json:"app_id" env:"APP_ID"`
	AppSecret string `json:"app_secret" env:"APP_SECRET"`

	GrantType string `json:"grant_type,omitempty" env:"GRANT_TYPE"`
	Scope     string `json:"scope,omitempty" env:"SCOPE"`
	TokenURL  string `json:"token_url,omitempty" env:"TOKEN_URL"`

	OpenIDURL         string `json:"open_id_url,omitempty" env:"OPENID_URL"`
	EmulatorOpenIDURL string `json:"emulator_open_id_url,omitempty" env:"EMULATOR_OPENID_URL"`

	// WelcomeAction is dispatched when the bot itself is added to a
	// conversation. Empty disables welcome events.
	WelcomeAction string `json:"welcome_action,omitempty" env:"WELCOME_ACTION"`

	// KeepHTML disables tag stripping on inbound message text.
	KeepHTML bool `json:"keep_html,omitempty" env:"KEEP_HTML"`

	// NoSuggestedActions lists channel ids whose transport cannot render
	// suggested actions; quick replies become postback cards there.
	NoSuggestedActions []string `json:"no_suggested_actions,omitempty" env:"NO_SUGGESTED_ACTIONS"`

	// AllowInsecureEmulator skips webhook authentication for activities
	// whose channel id is "emulator". Test and staging only.
	AllowInsecureEmulator bool `json:"allow_insecure_emulator,omitempty" env:"ALLOW_INSECURE_EMULATOR"`

	// OverridePublicKey replaces JWKS key construction with a fixed PEM
	// public key. Test doubles only.
	OverridePublicKey string `json:"override_public_key,omitempty" env:"OVERRIDE_PUBLIC_KEY"`

	WebhookHost string `json:"webhook_host,omitempty" env:"WEBHOOK_HOST"`
	WebhookPort int    `json:"webhook_port,omitempty" env:"WEBHOOK_PORT"`
	WebhookPath string `json:"webhook_path,omitempty" env:"WEBHOOK_PATH"`

	AllowFrom []string `json:"allow_from,omitempty" env:"ALLOW_FROM"`
}

// ApplyDefaults fills the production endpoint set and grant parameters
// for fields the operator left empty.
func (c *BotServiceConfig) ApplyDefaults() {
	if c.GrantType == "" {
		c.GrantType = DefaultGrantType
	}
	if c.Scope == "" {
		c.Scope = DefaultScope
	}
	if c.TokenURL == "" {
		c.TokenURL = DefaultTokenURL
	}
	if c.OpenIDURL == "" {
		c.OpenIDURL = DefaultOpenIDURL
	}
	if c.EmulatorOpenIDURL == "" {
		c.EmulatorOpenIDURL = DefaultEmulatorOpenIDURL
	}
	if c.WebhookPort == 0 {
		c.WebhookPort = 8080
	}
	if c.WebhookPath == "" {
		c.WebhookPath = "/webhook/botservice"
	}
}

func (c *BotServiceConfig) Validate() error {
	if c.AppID == "" {
		return fmt.Errorf("botservice app_id is required")
	}
	if c.AppSecret == "" {
		return fmt.Errorf("botservice app_secret is required")
	}
	return nil
}

// Load reads the JSON config file at path, applies environment variable
// overrides and fills defaults. A missing file is not an error; env-only
// configuration is supported.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to env
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	cfg.Channels.BotService.ApplyDefaults()
	return cfg, nil
}
