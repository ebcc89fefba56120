package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Config holds all configuration for the Argus service
type Config struct {
	Server struct {
		Host           string   `mapstructure:"host"`
		Port           int      `mapstructure:"port"`
		AllowedOrigins []string `mapstructure:"allowed_origins"`
		RateLimit      struct {
			RequestsPerSecond int `mapstructure:"requests_per_second"`
			Burst             int `mapstructure:"burst"`
		} `mapstructure:"rate_limit"`
	} `mapstructure:"server"`

	MongoDB struct {
		URI         string `mapstructure:"uri"`
		Database    string `mapstructure:"database"`
		Enabled     bool   `mapstructure:"enabled"`
		MaxPoolSize uint64 `mapstructure:"max_pool_size"`
	} `mapstructure:"mongodb"`

	Auth struct {
		JWTSecret string `mapstructure:"jwt_secret"`
		// AllowSystemFallback attributes unauthenticated mutations to the
		// system identity instead of rejecting them
		AllowSystemFallback bool `mapstructure:"allow_system_fallback"`
		// AnalyzeSecret is the shared secret for the analyze webhook.
		// AnalyzeSecretHash holds its bcrypt hash after loading.
		AnalyzeSecret     string `mapstructure:"analyze_secret"`
		AnalyzeSecretHash string
		BcryptCost        int `mapstructure:"bcrypt_cost"`
	} `mapstructure:"auth"`

	AI struct {
		APIKey    string        `mapstructure:"api_key"`
		BaseURL   string        `mapstructure:"base_url"`
		Models    []string      `mapstructure:"models"`
		Referer   string        `mapstructure:"referer"`
		Title     string        `mapstructure:"title"`
		Timeout   time.Duration `mapstructure:"timeout"`
		CacheSize int           `mapstructure:"cache_size"`
	} `mapstructure:"ai"`

	MITRE struct {
		// TechniquesFile points at a YAML technique table. Empty means the
		// built-in seed is used.
		TechniquesFile string `mapstructure:"techniques_file"`
	} `mapstructure:"mitre"`

	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"*"})
	viper.SetDefault("server.rate_limit.requests_per_second", 50)
	viper.SetDefault("server.rate_limit.burst", 100)

	viper.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongodb.database", "argus")
	viper.SetDefault("mongodb.enabled", true)
	viper.SetDefault("mongodb.max_pool_size", 10)

	viper.SetDefault("auth.jwt_secret", "")
	viper.SetDefault("auth.allow_system_fallback", false)
	viper.SetDefault("auth.analyze_secret", "")
	viper.SetDefault("auth.bcrypt_cost", bcrypt.DefaultCost)

	viper.SetDefault("ai.api_key", "")
	viper.SetDefault("ai.base_url", "https://openrouter.ai/api/v1")
	viper.SetDefault("ai.models", []string{
		"anthropic/claude-3.5-sonnet",
		"anthropic/claude-3-haiku",
		"mistralai/mixtral-8x7b-instruct",
	})
	viper.SetDefault("ai.referer", "https://threatintel.app")
	viper.SetDefault("ai.title", "ThreatIntel AI Analysis")
	viper.SetDefault("ai.timeout", 60*time.Second)
	viper.SetDefault("ai.cache_size", 256)

	viper.SetDefault("mitre.techniques_file", "")

	viper.SetDefault("logging.level", "info")
}

// loadFromEnv sets up environment variable loading
func loadFromEnv() {
	viper.SetEnvPrefix("ARGUS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.BindEnv("ai.api_key", "ARGUS_AI_API_KEY", "OPENROUTER_API_KEY")
	_ = viper.BindEnv("auth.jwt_secret", "ARGUS_AUTH_JWT_SECRET")
	_ = viper.BindEnv("auth.analyze_secret", "ARGUS_AUTH_ANALYZE_SECRET")
}

// validateAndHash validates secrets and hashes the analyze shared secret
func validateAndHash(config *Config) error {
	if config.Auth.JWTSecret != "" && len(config.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters (256 bits) for security")
	}

	if config.Auth.AnalyzeSecret != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(config.Auth.AnalyzeSecret), config.Auth.BcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash analyze secret: %w", err)
		}
		config.Auth.AnalyzeSecretHash = string(hashed)
		config.Auth.AnalyzeSecret = "" // clear plain secret
	}

	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	return nil
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()
	loadFromEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, will use defaults and env vars
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validateAndHash(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
