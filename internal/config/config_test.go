package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	t.Setenv("MONGODB_DATABASE", "panel_test")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("JWT_SECRET", "testsecret123456789012345678901234")
	t.Setenv("DISCORD_REDIRECT_URI", "http://localhost:5173/callback")
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MongoDB.URI == "" || cfg.Redis.Host == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	if cfg.Redis.Port != "6379" {
		t.Fatalf("redis port default = %q", cfg.Redis.Port)
	}
	if cfg.JWT.TTL != 7*24*time.Hour {
		t.Fatalf("jwt ttl = %v, want 7 days", cfg.JWT.TTL)
	}
	if cfg.Discord.APIEndpoint != DefaultAPIEndpoint {
		t.Fatalf("api endpoint = %q", cfg.Discord.APIEndpoint)
	}
	if len(cfg.Discord.Scopes) != 3 || cfg.Discord.Scopes[2] != "guilds" {
		t.Fatalf("scopes = %v", cfg.Discord.Scopes)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://b.example" {
		t.Fatalf("cors origins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.RateLimit.Max != 100 || cfg.RateLimit.Window != 15*time.Minute {
		t.Fatalf("rate limit = %+v", cfg.RateLimit)
	}
	if cfg.Server.APIPrefix != "/api" {
		t.Fatalf("api prefix = %q", cfg.Server.APIPrefix)
	}
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	t.Setenv("JWT_SECRET", "x")
	if _, err := LoadConfig(); !errors.Is(err, ErrMissingMongoURI) {
		t.Fatalf("expected ErrMissingMongoURI, got %v", err)
	}

	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "")
	if _, err := LoadConfig(); !errors.Is(err, ErrMissingJWTSecret) {
		t.Fatalf("expected ErrMissingJWTSecret, got %v", err)
	}
}

func TestLoadClientConfig(t *testing.T) {
	t.Setenv("PANEL_API_URL", "http://panel.local/api/")
	cfg := LoadClientConfig()
	if cfg.APIURL != "http://panel.local/api" {
		t.Fatalf("api url = %q", cfg.APIURL)
	}
	if cfg.ClientID != DefaultClientID {
		t.Fatalf("client id = %q", cfg.ClientID)
	}
}
