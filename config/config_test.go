package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cityzenmag/socialhub/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want 10s", cfg.RequestTimeout)
	}
	if cfg.Server.Addr != ":8090" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Redis.TTL != 60*time.Second {
		t.Errorf("Redis.TTL = %v", cfg.Redis.TTL)
	}
	if cfg.Facebook.Version != "v18.0" {
		t.Errorf("Facebook.Version = %q", cfg.Facebook.Version)
	}
	if cfg.Twitter.RateLimits.RequestsPerHour != 300 {
		t.Errorf("Twitter requests_per_hour = %d", cfg.Twitter.RateLimits.RequestsPerHour)
	}
	if len(cfg.EnabledPlatforms()) != 0 {
		t.Errorf("no platform should be enabled by default: %v", cfg.EnabledPlatforms())
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
request_timeout: 5s
server:
  addr: ":9000"
twitter:
  enabled: true
  bearer_token: tok
  username: cityzenmag
  rate_limits:
    requests_per_hour: 50
youtube:
  enabled: true
  api_key: key
  channel_id: UCx
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Twitter.RateLimits.RequestsPerHour != 50 {
		t.Errorf("twitter rate limit = %d", cfg.Twitter.RateLimits.RequestsPerHour)
	}
	// Untouched defaults survive.
	if cfg.Facebook.RateLimits.RequestsPerHour != 200 {
		t.Errorf("facebook default rate limit = %d", cfg.Facebook.RateLimits.RequestsPerHour)
	}

	got := cfg.EnabledPlatforms()
	if len(got) != 2 || got[0] != model.PlatformTwitter || got[1] != model.PlatformYouTube {
		t.Errorf("EnabledPlatforms = %v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("missing explicit config file should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"empty config", func(c *Config) {}, false},
		{"twitter without token", func(c *Config) {
			c.Twitter.Enabled = true
		}, true},
		{"twitter complete", func(c *Config) {
			c.Twitter.Enabled = true
			c.Twitter.BearerToken = "tok"
		}, false},
		{"youtube without key", func(c *Config) {
			c.YouTube.Enabled = true
			c.YouTube.ChannelID = "UCx"
		}, true},
		{"youtube without channel", func(c *Config) {
			c.YouTube.Enabled = true
			c.YouTube.APIKey = "key"
		}, true},
		{"facebook without page", func(c *Config) {
			c.Facebook.Enabled = true
			c.Facebook.AccessToken = "tok"
		}, true},
		{"negative timeout", func(c *Config) {
			c.RequestTimeout = -time.Second
		}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var cfg Config
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("want error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
