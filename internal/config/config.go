package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Discord   DiscordConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	APIPrefix    string
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// DiscordConfig describes the OAuth2 application and the bot account.
type DiscordConfig struct {
	BotToken     string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	APIEndpoint  string
	AuthorizeURL string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// RateLimitConfig: Window/Max drive the Redis fixed window, RPS/Burst the in-memory bucket.
type RateLimitConfig struct {
	Enabled  bool
	UseRedis bool
	Window   time.Duration
	Max      int
	RPS      float64
	Burst    int
}

// ClientConfig is what panelctl needs to talk to the API.
type ClientConfig struct {
	APIURL      string
	RedirectURI string
	ClientID    string
	TokenFile   string
}

const (
	DefaultAPIEndpoint  = "https://discord.com/api/v10"
	DefaultAuthorizeURL = "https://discord.com/api/oauth2/authorize"
	DefaultClientID     = "1201613667561639947"
)

var (
	ErrMissingMongoURI  = errors.New("MONGODB_URI is required")
	ErrMissingJWTSecret = errors.New("JWT_SECRET is required")
)

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "3001")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("CORS_ORIGINS", "https://panel-slayerbot.vercel.app,http://localhost:5173")
	v.SetDefault("MONGODB_DATABASE", "slayerbot")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("DISCORD_CLIENT_ID", DefaultClientID)
	v.SetDefault("DISCORD_SCOPES", "identify email guilds")
	v.SetDefault("DISCORD_API_ENDPOINT", DefaultAPIEndpoint)
	v.SetDefault("DISCORD_AUTHORIZE_URL", DefaultAuthorizeURL)
	v.SetDefault("JWT_TTL_HOURS", 7*24)
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_USE_REDIS", true)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 15*60)
	v.SetDefault("RATE_LIMIT_MAX", 100)

	window := time.Duration(v.GetInt("RATE_LIMIT_WINDOW_SECONDS")) * time.Second
	max := v.GetInt("RATE_LIMIT_MAX")

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			APIPrefix:    v.GetString("API_PREFIX"),
			CORSOrigins:  splitList(v.GetString("CORS_ORIGINS"), ","),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Discord: DiscordConfig{
			BotToken:     v.GetString("DISCORD_BOT_TOKEN"),
			ClientID:     v.GetString("DISCORD_CLIENT_ID"),
			ClientSecret: v.GetString("DISCORD_CLIENT_SECRET"),
			RedirectURI:  v.GetString("DISCORD_REDIRECT_URI"),
			Scopes:       strings.Fields(v.GetString("DISCORD_SCOPES")),
			APIEndpoint:  strings.TrimRight(v.GetString("DISCORD_API_ENDPOINT"), "/"),
			AuthorizeURL: v.GetString("DISCORD_AUTHORIZE_URL"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			TTL:    time.Duration(v.GetInt("JWT_TTL_HOURS")) * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Enabled:  v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis: v.GetBool("RATE_LIMIT_USE_REDIS"),
			Window:   window,
			Max:      max,
			RPS:      float64(max) / window.Seconds(),
			Burst:    max,
		},
	}

	if cfg.MongoDB.URI == "" {
		return nil, ErrMissingMongoURI
	}
	if cfg.JWT.Secret == "" {
		return nil, ErrMissingJWTSecret
	}
	return cfg, nil
}

// LoadClientConfig loads panelctl settings from the environment.
func LoadClientConfig() *ClientConfig {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PANEL_API_URL", "http://localhost:3001/api")
	v.SetDefault("PANEL_REDIRECT_URI", "https://panel-slayerbot.vercel.app/callback")
	v.SetDefault("DISCORD_CLIENT_ID", DefaultClientID)
	v.SetDefault("PANEL_TOKEN_FILE", "")

	return &ClientConfig{
		APIURL:      strings.TrimRight(v.GetString("PANEL_API_URL"), "/"),
		RedirectURI: v.GetString("PANEL_REDIRECT_URI"),
		ClientID:    v.GetString("DISCORD_CLIENT_ID"),
		TokenFile:   v.GetString("PANEL_TOKEN_FILE"),
	}
}

func splitList(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
