package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers accepted in STORE_DRIVER.
const (
	StoreDriverFirestore = "firestore"
	StoreDriverMemory    = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`

	StoreDriver                      string `mapstructure:"STORE_DRIVER"`
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebaseAPIKey                   string `mapstructure:"FIREBASE_API_KEY"` // Identity Toolkit key used for password sign-in
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`

	EncryptionKey string `mapstructure:"ENCRYPTION_KEY"` // Base64 encoded, 32 bytes once decoded
	ClientURL     string `mapstructure:"CLIENT_URL"`     // Comma separated list of allowed origins

	RedisAddress  string `mapstructure:"REDIS_ADDRESS"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	RabbitMQURL   string `mapstructure:"RABBITMQ_URL"`
	RabbitMQQueue string `mapstructure:"RABBITMQ_QUEUE"`

	SessionTTL                time.Duration `mapstructure:"SESSION_TTL"`
	SessionIdleTimeout        time.Duration `mapstructure:"SESSION_IDLE_TIMEOUT"`
	ConnectivityProbeInterval time.Duration `mapstructure:"CONNECTIVITY_PROBE_INTERVAL"`

	JobsEnabled          bool   `mapstructure:"JOBS_ENABLED"`
	MonthlyResetSchedule string `mapstructure:"MONTHLY_RESET_SCHEDULE"`
	RenewalSchedule      string `mapstructure:"RENEWAL_SCHEDULE"`
}

var envKeys = []string{
	"PORT",
	"GIN_MODE",
	"STORE_DRIVER",
	"FIREBASE_PROJECT_ID",
	"FIREBASE_API_KEY",
	"GOOGLE_APPLICATION_CREDENTIALS",
	"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"ENCRYPTION_KEY",
	"CLIENT_URL",
	"REDIS_ADDRESS",
	"REDIS_PASSWORD",
	"REDIS_DB",
	"RABBITMQ_URL",
	"RABBITMQ_QUEUE",
	"SESSION_TTL",
	"SESSION_IDLE_TIMEOUT",
	"CONNECTIVITY_PROBE_INTERVAL",
	"JOBS_ENABLED",
	"MONTHLY_RESET_SCHEDULE",
	"RENEWAL_SCHEDULE",
}

// LoadConfig loads configuration from environment variables using Viper.
// Outside release mode a local .env file is read first; variables already
// present in the environment win over the file.
func LoadConfig() (*Config, error) {
	if os.Getenv("GIN_MODE") != "release" {
		_ = godotenv.Load()
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("STORE_DRIVER", StoreDriverFirestore)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RABBITMQ_QUEUE", "quillpost.events")
	v.SetDefault("SESSION_TTL", 30*24*time.Hour)
	v.SetDefault("SESSION_IDLE_TIMEOUT", 2*time.Hour)
	v.SetDefault("CONNECTIVITY_PROBE_INTERVAL", 30*time.Second)
	v.SetDefault("JOBS_ENABLED", true)
	// Both schedules are evaluated in UTC.
	v.SetDefault("MONTHLY_RESET_SCHEDULE", "0 0 1 * *")
	v.SetDefault("RENEWAL_SCHEDULE", "0 0 * * *")

	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields for the selected store driver.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverFirestore:
		if c.FirebaseProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID is required")
		}
		if c.FirebaseAPIKey == "" {
			return errors.New("FIREBASE_API_KEY is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverFirestore, StoreDriverMemory, c.StoreDriver)
	}

	if c.EncryptionKey == "" {
		return errors.New("ENCRYPTION_KEY is required")
	}
	if _, err := c.EncryptionKeyBytes(); err != nil {
		return err
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	return nil
}

// EncryptionKeyBytes decodes ENCRYPTION_KEY into the raw AES-256 key.
func (c *Config) EncryptionKeyBytes() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("ENCRYPTION_KEY is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// AllowedOrigins splits CLIENT_URL into the CORS origin list.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ClientURL, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
