package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks for the YAML file when no path is given.
const DefaultPath = "config/config.yml"

// Duration is a time.Duration that decodes from "15m"-style strings in both
// YAML and environment variables.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.EnvDecode(node.Value)
}

// EnvDecode implements envconfig.Decoder
func (d *Duration) EnvDecode(val string) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", val, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

type AppConfig struct {
	Port      int    `yaml:"port" env:"PORT, overwrite"`
	GinMode   string `yaml:"gin_mode" env:"GIN_MODE, overwrite"`
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL, overwrite"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT, overwrite"`
	BaseURL   string `yaml:"base_url" env:"BASE_URL, overwrite"`
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver" env:"DB_DRIVER, overwrite"`
	DSN          string `yaml:"dsn" env:"DB_DSN, overwrite"`
	MaxOpenConns int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS, overwrite"`
	LogQueries   bool   `yaml:"log_queries" env:"DB_LOG_QUERIES, overwrite"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR, overwrite"`
	Password string `yaml:"password" env:"REDIS_PASSWORD, overwrite"`
	DB       int    `yaml:"db" env:"REDIS_DB, overwrite"`
}

// JWTConfig keeps TTLs as raw strings; the token codec parses them and falls
// back to safe defaults on malformed values.
type JWTConfig struct {
	AccessSecret  string `yaml:"access_secret" env:"JWT_ACCESS_SECRET, overwrite"`
	RefreshSecret string `yaml:"refresh_secret" env:"JWT_REFRESH_SECRET, overwrite"`
	Issuer        string `yaml:"issuer" env:"JWT_ISSUER, overwrite"`
	AccessTTL     string `yaml:"access_ttl" env:"JWT_ACCESS_TTL, overwrite"`
	RefreshTTL    string `yaml:"refresh_ttl" env:"JWT_REFRESH_TTL, overwrite"`
}

type AuthConfig struct {
	DefaultRole     string   `yaml:"default_role" env:"AUTH_DEFAULT_ROLE, overwrite"`
	HashCost        int      `yaml:"hash_cost" env:"AUTH_HASH_COST, overwrite"`
	HashTimeout     Duration `yaml:"hash_timeout" env:"AUTH_HASH_TIMEOUT, overwrite"`
	VerificationTTL Duration `yaml:"verification_ttl" env:"AUTH_VERIFICATION_TTL, overwrite"`
	ResetTTL        Duration `yaml:"reset_ttl" env:"AUTH_RESET_TTL, overwrite"`
	ResendWindow    Duration `yaml:"resend_window" env:"AUTH_RESEND_WINDOW, overwrite"`
	ResendMax       int      `yaml:"resend_max" env:"AUTH_RESEND_MAX, overwrite"`
	ResetWindow     Duration `yaml:"reset_window" env:"AUTH_RESET_WINDOW, overwrite"`
	ResetMax        int      `yaml:"reset_max" env:"AUTH_RESET_MAX, overwrite"`
	TokenRetention  Duration `yaml:"token_retention" env:"AUTH_TOKEN_RETENTION, overwrite"`
	CleanupInterval Duration `yaml:"cleanup_interval" env:"AUTH_CLEANUP_INTERVAL, overwrite"`
}

type MFAConfig struct {
	Issuer        string   `yaml:"issuer" env:"MFA_ISSUER, overwrite"`
	EnrollmentTTL Duration `yaml:"enrollment_ttl" env:"MFA_ENROLLMENT_TTL, overwrite"`
	ChallengeTTL  Duration `yaml:"challenge_ttl" env:"MFA_CHALLENGE_TTL, overwrite"`
	MaxAttempts   int      `yaml:"max_attempts" env:"MFA_MAX_ATTEMPTS, overwrite"`
	// EncryptionKey is a 64 character hex string (32 bytes)
	EncryptionKey string `yaml:"encryption_key" env:"MFA_ENCRYPTION_KEY, overwrite"`
}

type SMTPConfig struct {
	Host     string `yaml:"host" env:"SMTP_HOST, overwrite"`
	Port     int    `yaml:"port" env:"SMTP_PORT, overwrite"`
	User     string `yaml:"user" env:"SMTP_USER, overwrite"`
	Password string `yaml:"password" env:"SMTP_PASSWORD, overwrite"`
	From     string `yaml:"from" env:"SMTP_FROM, overwrite"`
}

type NATSConfig struct {
	URL          string `yaml:"url" env:"NATS_URL, overwrite"`
	EmailSubject string `yaml:"email_subject" env:"NATS_EMAIL_SUBJECT, overwrite"`
	AuditPrefix  string `yaml:"audit_prefix" env:"NATS_AUDIT_PREFIX, overwrite"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid" env:"TWILIO_ACCOUNT_SID, overwrite"`
	AuthToken  string `yaml:"auth_token" env:"TWILIO_AUTH_TOKEN, overwrite"`
	FromNumber string `yaml:"from_number" env:"TWILIO_FROM_NUMBER, overwrite"`
}

type NotificationsConfig struct {
	// Mode selects email delivery: "log", "smtp" or "nats"
	Mode            string       `yaml:"mode" env:"NOTIFY_MODE, overwrite"`
	DispatchTimeout Duration     `yaml:"dispatch_timeout" env:"NOTIFY_DISPATCH_TIMEOUT, overwrite"`
	SMTP            SMTPConfig   `yaml:"smtp"`
	NATS            NATSConfig   `yaml:"nats"`
	Twilio          TwilioConfig `yaml:"twilio"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT, overwrite"`
	ServiceName  string `yaml:"service_name" env:"OTEL_SERVICE_NAME, overwrite"`
}

type Config struct {
	App           AppConfig           `yaml:"app"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	JWT           JWTConfig           `yaml:"jwt"`
	Auth          AuthConfig          `yaml:"auth"`
	MFA           MFAConfig           `yaml:"mfa"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`
}

// Default returns the configuration used when neither file nor environment
// provide a value.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Port:      8080,
			GinMode:   "release",
			LogLevel:  "info",
			LogFormat: "json",
			BaseURL:   "http://localhost:8080",
		},
		Database: DatabaseConfig{
			Driver:       "postgres",
			MaxOpenConns: 20,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		JWT: JWTConfig{
			Issuer:     "gemstone-identity",
			AccessTTL:  "15m",
			RefreshTTL: "7d",
		},
		Auth: AuthConfig{
			DefaultRole:     "customer",
			HashCost:        12,
			HashTimeout:     Duration(5 * time.Second),
			VerificationTTL: Duration(24 * time.Hour),
			ResetTTL:        Duration(time.Hour),
			ResendWindow:    Duration(30 * time.Minute),
			ResendMax:       3,
			ResetWindow:     Duration(30 * time.Minute),
			ResetMax:        3,
			TokenRetention:  Duration(7 * 24 * time.Hour),
			CleanupInterval: Duration(time.Hour),
		},
		MFA: MFAConfig{
			Issuer:        "Gemstone Marketplace",
			EnrollmentTTL: Duration(10 * time.Minute),
			ChallengeTTL:  Duration(5 * time.Minute),
			MaxAttempts:   5,
		},
		Notifications: NotificationsConfig{
			Mode:            "log",
			DispatchTimeout: Duration(10 * time.Second),
			SMTP:            SMTPConfig{Port: 587},
			NATS: NATSConfig{
				EmailSubject: "notifications.email",
				AuditPrefix:  "identity.audit",
			},
		},
		Telemetry: TelemetryConfig{ServiceName: "identityd"},
	}
}

// Load reads the YAML file at path (DefaultPath when empty), then applies
// IDENTITY_-prefixed environment overrides. A missing file is not an error.
func Load(ctx context.Context, path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	if err := loadConfigFile(path, cfg); err != nil {
		return nil, err
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: envconfig.PrefixLookuper("IDENTITY_", envconfig.OsLookuper()),
	}); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	bytes, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	if err := yaml.Unmarshal(bytes, cfg); err != nil {
		return fmt.Errorf("could not parse config yaml: %w", err)
	}
	return nil
}

// Validate rejects configurations the service cannot run safely with.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}
	if len(c.JWT.AccessSecret) < 32 {
		errs = append(errs, errors.New("jwt.access_secret must be at least 32 characters"))
	}
	if len(c.JWT.RefreshSecret) < 32 {
		errs = append(errs, errors.New("jwt.refresh_secret must be at least 32 characters"))
	}
	if c.JWT.AccessSecret != "" && c.JWT.AccessSecret == c.JWT.RefreshSecret {
		errs = append(errs, errors.New("jwt access and refresh secrets must differ"))
	}
	if len(c.MFA.EncryptionKey) != 64 {
		errs = append(errs, errors.New("mfa.encryption_key must be 64 hex characters"))
	}
	if c.Auth.DefaultRole == "" {
		errs = append(errs, errors.New("auth.default_role is required"))
	}
	switch c.Notifications.Mode {
	case "log":
	case "smtp":
		if c.Notifications.SMTP.Host == "" {
			errs = append(errs, errors.New("notifications.smtp.host is required in smtp mode"))
		}
	case "nats":
		if c.Notifications.NATS.URL == "" {
			errs = append(errs, errors.New("notifications.nats.url is required in nats mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("notifications.mode %q is not supported", c.Notifications.Mode))
	}

	return errors.Join(errs...)
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}
