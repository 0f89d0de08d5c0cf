package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shelfmark/catalogue/pkg/jwtx"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	MailDriverLog    = "log"
	MailDriverSMTP   = "smtp"
	MailDriverResend = "resend"
)

type Config struct {
	JWTSecret            string        // Required: HS256 signing secret, at least 32 bytes
	Issuer               string        // Optional: issuer claim for tokens (default: catalogue-auth)
	Audience             string        // Optional: audience claim for access tokens (default: catalogue)
	AccessTokenTTL       time.Duration // Optional: access token lifetime (default: 48h)
	VerificationTokenTTL time.Duration // Optional: email verification link lifetime (default: 1h)
	VerificationLeeway   time.Duration // Optional: JWT expiry tolerance on verification links (default: 24h)
	OTPTTL               time.Duration // Optional: password reset code lifetime (default: 15m)
	ReaperInterval       time.Duration // Optional: expiry sweep interval (default: 60s)
	AppURL               string        // Optional: public base URL used in email links (default: http://localhost:8080)

	DatabaseDriver string // Optional: sqlite or postgres (default: sqlite)
	DatabaseFile   string // Optional: path to SQLite database file (default: ./auth.db)
	DatabaseURL    string // Required for postgres: connection string
	PepperFile     string // Optional: path to file containing pepper for password hashing (default: ./pepper)

	MailDriver        string  // Optional: log, smtp or resend (default: log)
	MailFrom          string  // Required for smtp and resend: sender address
	ResendAPIKey      string  // Required for resend
	SMTPHost          string  // Required for smtp
	SMTPPort          int     // Optional: SMTP port (default: 587)
	SMTPUsername      string  // Optional: SMTP auth user
	SMTPPassword      string  // Optional: SMTP auth password
	MailRatePerSecond float64 // Optional: outbound mail rate, 0 disables throttling (default: 2)
	MailBurst         int     // Optional: outbound mail burst (default: 5)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

// LoadConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over it.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		JWTSecret:            os.Getenv("AUTH_JWT_SECRET"),
		Issuer:               getEnvOrDefault("AUTH_JWT_ISSUER", "catalogue-auth"),
		Audience:             getEnvOrDefault("AUTH_JWT_AUDIENCE", "catalogue"),
		AccessTokenTTL:       getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		VerificationTokenTTL: getEnvDurationOrDefault("AUTH_VERIFICATION_TOKEN_TTL", time.Hour),
		VerificationLeeway:   getEnvDurationOrDefault("AUTH_VERIFICATION_LEEWAY", 24*time.Hour),
		OTPTTL:               getEnvDurationOrDefault("AUTH_OTP_TTL", 15*time.Minute),
		ReaperInterval:       getEnvDurationOrDefault("AUTH_REAPER_INTERVAL", time.Minute),
		AppURL:               getEnvOrDefault("AUTH_APP_URL", "http://localhost:8080"),

		DatabaseDriver: strings.ToLower(getEnvOrDefault("AUTH_DATABASE_DRIVER", DriverSQLite)),
		DatabaseFile:   getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		DatabaseURL:    os.Getenv("AUTH_DATABASE_URL"),
		PepperFile:     getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		MailDriver:        strings.ToLower(getEnvOrDefault("MAIL_DRIVER", MailDriverLog)),
		MailFrom:          os.Getenv("MAIL_FROM"),
		ResendAPIKey:      os.Getenv("RESEND_API_KEY"),
		SMTPHost:          os.Getenv("SMTP_HOST"),
		SMTPPort:          getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername:      os.Getenv("SMTP_USERNAME"),
		SMTPPassword:      os.Getenv("SMTP_PASSWORD"),
		MailRatePerSecond: getEnvFloatOrDefault("MAIL_RATE_PER_SECOND", 2),
		MailBurst:         getEnvIntOrDefault("MAIL_BURST", 5),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	switch {
	case c.JWTSecret == "":
		return errors.New("AUTH_JWT_SECRET is required")
	case len(c.JWTSecret) < jwtx.MinSecretLength:
		return fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes", jwtx.MinSecretLength)
	}

	ttls := map[string]time.Duration{
		"AUTH_ACCESS_TOKEN_TTL":       c.AccessTokenTTL,
		"AUTH_VERIFICATION_TOKEN_TTL": c.VerificationTokenTTL,
		"AUTH_OTP_TTL":                c.OTPTTL,
		"AUTH_REAPER_INTERVAL":        c.ReaperInterval,
	}
	for key, d := range ttls {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	if c.VerificationLeeway < 0 {
		return errors.New("AUTH_VERIFICATION_LEEWAY must not be negative")
	}

	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			return errors.New("AUTH_DATABASE_FILE is required for sqlite")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("AUTH_DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("unknown AUTH_DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	switch c.MailDriver {
	case MailDriverLog:
	case MailDriverSMTP:
		if c.SMTPHost == "" || c.MailFrom == "" {
			return errors.New("SMTP_HOST and MAIL_FROM are required for the smtp mail driver")
		}
	case MailDriverResend:
		if c.ResendAPIKey == "" || c.MailFrom == "" {
			return errors.New("RESEND_API_KEY and MAIL_FROM are required for the resend mail driver")
		}
	default:
		return fmt.Errorf("unknown MAIL_DRIVER %q", c.MailDriver)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d out of range", c.Port)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
