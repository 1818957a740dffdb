package config

import (
	"fmt"
	"os"
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
	WorkOS    WorkOSConfig
	JWT       JWTConfig
	Keywords  KeywordsConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
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

// WorkOSConfig carries the identity-provider API credentials.
type WorkOSConfig struct {
	BaseURL    string
	APIKey     string
	ClientID   string
	AuthKitURL string
	Timeout    time.Duration
}

type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

// KeywordsConfig holds credentials for the downstream KeywordsAI CRM.
type KeywordsConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// AuthConfig carries authorization settings. AdminIDs is the set of user ids
// allowed to call admin routes (ADMIN_USER_IDS, comma-separated).
type AuthConfig struct {
	AdminIDs []string
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8000")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "echo")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("WORKOS_BASE_URL", "https://api.workos.com")
	viper.SetDefault("WORKOS_AUTHKIT_URL", "https://authkit.i.inc")
	viper.SetDefault("WORKOS_TIMEOUT", 10)
	viper.SetDefault("KEYWORDS_BASE_URL", "https://api.keywordsai.co")
	viper.SetDefault("KEYWORDS_TIMEOUT", 15)
	// Tokens are long-lived: 5 weeks, expressed in minutes.
	viper.SetDefault("JWT_ACCESS_TOKEN_TTL", 5*7*24*60)
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		WorkOS: WorkOSConfig{
			BaseURL:    viper.GetString("WORKOS_BASE_URL"),
			APIKey:     os.Getenv("WORKOS_API_KEY"),
			ClientID:   viper.GetString("WORKOS_CLIENT_ID"),
			AuthKitURL: viper.GetString("WORKOS_AUTHKIT_URL"),
			Timeout:    time.Duration(viper.GetInt("WORKOS_TIMEOUT")) * time.Second,
		},
		JWT: JWTConfig{
			Secret:         os.Getenv("JWT_SECRET"),
			AccessTokenTTL: time.Duration(viper.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
		},
		Keywords: KeywordsConfig{
			BaseURL: viper.GetString("KEYWORDS_BASE_URL"),
			APIKey:  os.Getenv("KEYWORDS_API_KEY"),
			Timeout: time.Duration(viper.GetInt("KEYWORDS_TIMEOUT")) * time.Second,
		},
		Auth: AuthConfig{
			AdminIDs: splitIDs(viper.GetString("ADMIN_USER_IDS")),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// splitIDs parses a comma-separated id list, dropping empty entries.
func splitIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
