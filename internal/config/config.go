package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backend names accepted in STORE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	BackendFile     = "file"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Store    StoreConfig
	Session  SessionConfig
	Referral ReferralConfig
	Email    EmailConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string // CORS allowed origins for cookie auth
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig configures the Redis connection. When Enabled is false the
// service falls back to in-process session and rate-limit stores, which only
// suits single-replica deployments.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// StoreConfig selects and parameterizes the account store backend.
type StoreConfig struct {
	Backend   string // postgres, memory or file
	UsersFile string // file backend only
	CodesFile string // file backend only
}

type SessionConfig struct {
	TTL        time.Duration
	CookieName string
}

// ReferralConfig carries the signup/referral business knobs. The bonus and
// activation-code policy varied across deployments, so none of it is
// hardcoded.
type ReferralConfig struct {
	BonusAmount       int64
	MinPasswordLength int
	BcryptCost        int
}

type EmailConfig struct {
	Enabled      bool
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	FrontendURL  string
}

// Load reads configuration from environment variables
// Call godotenv.Load() before this if using .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "dev"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "referrals"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Store: StoreConfig{
			Backend:   getEnv("STORE_BACKEND", BackendPostgres),
			UsersFile: getEnv("USERS_FILE", "data/users.json"),
			CodesFile: getEnv("CODES_FILE", "data/activation_codes.json"),
		},
		Session: SessionConfig{
			TTL:        getDurationEnv("SESSION_TTL", 24*60*60),
			CookieName: getEnv("SESSION_COOKIE_NAME", "session_id"),
		},
		Referral: ReferralConfig{
			BonusAmount:       int64(getIntEnv("REFERRAL_BONUS", 1000)),
			MinPasswordLength: getIntEnv("MIN_PASSWORD_LENGTH", 6),
			BcryptCost:        getIntEnv("BCRYPT_COST", 10),
		},
		Email: EmailConfig{
			Enabled:      getEnv("SMTP_HOST", "") != "",
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPassword: getEnv("SMTP_PASS", ""),
			FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
	}

	switch cfg.Store.Backend {
	case BackendPostgres, BackendMemory, BackendFile:
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be one of postgres, memory, file; got %q", cfg.Store.Backend)
	}

	if cfg.Referral.BonusAmount < 0 {
		return nil, fmt.Errorf("REFERRAL_BONUS must not be negative, got %d", cfg.Referral.BonusAmount)
	}
	if cfg.Referral.BcryptCost < 4 || cfg.Referral.BcryptCost > 31 {
		return nil, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", cfg.Referral.BcryptCost)
	}

	return cfg, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolValue
}

func getDurationEnv(key string, defaultSeconds int) time.Duration {
	return time.Duration(getIntEnv(key, defaultSeconds)) * time.Second
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Split by comma and trim whitespace
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
