// Package config loads the engine configuration from a YAML file,
// environment variables and an optional .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/cityzenmag/socialhub/model"
)

// RateLimits bounds outbound request volume for one platform.
type RateLimits struct {
	RequestsPerHour int `mapstructure:"requests_per_hour"`
	RequestsPerDay  int `mapstructure:"requests_per_day"`
}

// TwitterConfig holds the Twitter/X credentials.
type TwitterConfig struct {
	Enabled     bool       `mapstructure:"enabled"`
	APIKey      string     `mapstructure:"api_key"`
	APISecret   string     `mapstructure:"api_secret"`
	BearerToken string     `mapstructure:"bearer_token"`
	AccessToken string     `mapstructure:"access_token"`
	Username    string     `mapstructure:"username"`
	RateLimits  RateLimits `mapstructure:"rate_limits"`
}

// YouTubeConfig holds the YouTube Data API credentials.
type YouTubeConfig struct {
	Enabled    bool       `mapstructure:"enabled"`
	APIKey     string     `mapstructure:"api_key"`
	ChannelID  string     `mapstructure:"channel_id"`
	RateLimits RateLimits `mapstructure:"rate_limits"`
}

// FacebookConfig holds the Facebook Graph API credentials.
type FacebookConfig struct {
	Enabled     bool       `mapstructure:"enabled"`
	AppID       string     `mapstructure:"app_id"`
	AppSecret   string     `mapstructure:"app_secret"`
	AccessToken string     `mapstructure:"access_token"`
	PageID      string     `mapstructure:"page_id"`
	Version     string     `mapstructure:"version"`
	RateLimits  RateLimits `mapstructure:"rate_limits"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// RedisConfig holds the optional post-cache settings.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// DaprConfig holds the optional distributed sync-status store settings.
type DaprConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	StoreName string `mapstructure:"store_name"`
}

// Config is the full engine configuration. Disabled platforms simply get
// no adapter; no placeholder adapters are instantiated.
type Config struct {
	RequestTimeout time.Duration  `mapstructure:"request_timeout"`
	Server         ServerConfig   `mapstructure:"server"`
	Redis          RedisConfig    `mapstructure:"redis"`
	Dapr           DaprConfig     `mapstructure:"dapr"`
	Twitter        TwitterConfig  `mapstructure:"twitter"`
	YouTube        YouTubeConfig  `mapstructure:"youtube"`
	Facebook       FacebookConfig `mapstructure:"facebook"`
}

// Load reads configuration from path (optional), the environment
// (SOCIALHUB_ prefix) and a .env file when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded .env file")
	}

	v := viper.New()
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("server.addr", ":8090")
	v.SetDefault("redis.ttl", "60s")
	v.SetDefault("dapr.store_name", "statestore")
	v.SetDefault("facebook.version", "v18.0")
	v.SetDefault("twitter.rate_limits.requests_per_hour", 300)
	v.SetDefault("youtube.rate_limits.requests_per_hour", 100)
	v.SetDefault("facebook.rate_limits.requests_per_hour", 200)

	v.SetEnvPrefix("SOCIALHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every enabled platform carries the credentials its
// adapter needs.
func (c *Config) Validate() error {
	if c.Twitter.Enabled && c.Twitter.BearerToken == "" {
		return fmt.Errorf("twitter is enabled but bearer_token is empty")
	}
	if c.YouTube.Enabled {
		if c.YouTube.APIKey == "" {
			return fmt.Errorf("youtube is enabled but api_key is empty")
		}
		if c.YouTube.ChannelID == "" {
			return fmt.Errorf("youtube is enabled but channel_id is empty")
		}
	}
	if c.Facebook.Enabled {
		if c.Facebook.AccessToken == "" {
			return fmt.Errorf("facebook is enabled but access_token is empty")
		}
		if c.Facebook.PageID == "" {
			return fmt.Errorf("facebook is enabled but page_id is empty")
		}
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	return nil
}

// EnabledPlatforms lists the platforms switched on in this configuration.
func (c *Config) EnabledPlatforms() []model.Platform {
	var out []model.Platform
	if c.Twitter.Enabled {
		out = append(out, model.PlatformTwitter)
	}
	if c.YouTube.Enabled {
		out = append(out, model.PlatformYouTube)
	}
	if c.Facebook.Enabled {
		out = append(out, model.PlatformFacebook)
	}
	return out
}
