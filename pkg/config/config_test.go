package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	cfg := BotServiceConfig{AppID: "a", AppSecret: "s"}
	cfg.ApplyDefaults()

	if cfg.TokenURL != DefaultTokenURL {
		t.Errorf("TokenURL = %q", cfg.TokenURL)
	}
	if cfg.OpenIDURL != DefaultOpenIDURL {
		t.Errorf("OpenIDURL = %q", cfg.OpenIDURL)
	}
	if cfg.EmulatorOpenIDURL != DefaultEmulatorOpenIDURL {
		t.Errorf("EmulatorOpenIDURL = %q", cfg.EmulatorOpenIDURL)
	}
	if cfg.GrantType != "client_credentials" {
		t.Errorf("GrantType = %q", cfg.GrantType)
	}
	if cfg.Scope != DefaultScope {
		t.Errorf("Scope = %q", cfg.Scope)
	}
	if cfg.WebhookPort != 8080 || cfg.WebhookPath != "/webhook/botservice" {
		t.Errorf("webhook defaults = %d %q", cfg.WebhookPort, cfg.WebhookPath)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := BotServiceConfig{
		AppID:     "a",
		AppSecret: "s",
		TokenURL:  "https://custom.example.com/token",
	}
	cfg.ApplyDefaults()

	if cfg.TokenURL != "https://custom.example.com/token" {
		t.Errorf("TokenURL overwritten: %q", cfg.TokenURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     BotServiceConfig
		wantErr bool
	}{
		{"complete", BotServiceConfig{AppID: "a", AppSecret: "s"}, false},
		{"missing app id", BotServiceConfig{AppSecret: "s"}, true},
		{"missing secret", BotServiceConfig{AppID: "a"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{
		"logging": {"level": "debug"},
		"channels": {
			"botservice": {
				"enabled": true,
				"app_id": "file-app",
				"app_secret": "file-secret",
				"no_suggested_actions": ["webchat"]
			}
		}
	}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	bs := cfg.Channels.BotService
	if !bs.Enabled || bs.AppID != "file-app" || bs.AppSecret != "file-secret" {
		t.Errorf("botservice = %+v", bs)
	}
	if len(bs.NoSuggestedActions) != 1 || bs.NoSuggestedActions[0] != "webchat" {
		t.Errorf("NoSuggestedActions = %v", bs.NoSuggestedActions)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	if bs.TokenURL != DefaultTokenURL {
		t.Errorf("defaults not applied after load: %q", bs.TokenURL)
	}
}

func TestLoadMissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("BOTBRIDGE_APP_ID", "env-app")
	t.Setenv("BOTBRIDGE_APP_SECRET", "env-secret")
	t.Setenv("BOTBRIDGE_ENABLED", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	bs := cfg.Channels.BotService
	if bs.AppID != "env-app" || bs.AppSecret != "env-secret" || !bs.Enabled {
		t.Errorf("botservice = %+v", bs)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{"channels": {"botservice": {"app_id": "file-app", "app_secret": "s"}}}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("BOTBRIDGE_APP_ID", "env-wins")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Channels.BotService.AppID != "env-wins" {
		t.Errorf("AppID = %q, env must override the file", cfg.Channels.BotService.AppID)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want parse failure")
	}
}
