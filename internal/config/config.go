package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Port     string `yaml:"port"`
	DBDriver string `yaml:"db_driver"`
	DBConn   string `yaml:"db_conn"`
	LogLevel string `yaml:"log_level"`

	JWTSecret string `yaml:"jwt_secret"`

	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     string `yaml:"smtp_port"`
	SMTPUsername string `yaml:"smtp_username"`
	SMTPPassword string `yaml:"smtp_password"`
	SenderEmail  string `yaml:"sender_email"`

	// ReminderEmail receives the due-payment summary; empty disables reminders.
	ReminderEmail    string `yaml:"reminder_email"`
	ReminderSchedule string `yaml:"reminder_schedule"`

	// DecemberGrace lets a December payment satisfy the next January entry in
	// the heuristic status tier.
	DecemberGrace       bool `yaml:"heuristic_december_grace"`
	BillerHorizonMonths int  `yaml:"biller_horizon_months"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Port:                "8080",
		DBDriver:            "postgres",
		DBConn:              "host=localhost port=5436 user=test password=test dbname=bills sslmode=disable",
		LogLevel:            "INFO",
		JWTSecret:           "secret",
		SMTPPort:            "587",
		ReminderSchedule:    "0 8 * * *",
		DecemberGrace:       false,
		BillerHorizonMonths: 12,
	}
}

// NewConfig loads configuration from an optional YAML file named by
// CONFIG_FILE, then from environment variables, which take precedence.
func NewConfig() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.DBConn = getEnv("DB_CONN", cfg.DBConn)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.SMTPHost = getEnv("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPPort = getEnv("SMTP_PORT", cfg.SMTPPort)
	cfg.SMTPUsername = getEnv("SMTP_USERNAME", cfg.SMTPUsername)
	cfg.SMTPPassword = getEnv("SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.SenderEmail = getEnv("SENDER_EMAIL", cfg.SenderEmail)
	cfg.ReminderEmail = getEnv("REMINDER_EMAIL", cfg.ReminderEmail)
	cfg.ReminderSchedule = getEnv("REMINDER_SCHEDULE", cfg.ReminderSchedule)

	var err error
	if cfg.DecemberGrace, err = getEnvBool("HEURISTIC_DECEMBER_GRACE", cfg.DecemberGrace); err != nil {
		return nil, err
	}
	if cfg.BillerHorizonMonths, err = getEnvInt("BILLER_HORIZON_MONTHS", cfg.BillerHorizonMonths); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and value ranges.
func (c *Config) Validate() error {
	switch strings.ToLower(c.DBDriver) {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	if c.DBConn == "" {
		return fmt.Errorf("DB_CONN is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.BillerHorizonMonths <= 0 {
		return fmt.Errorf("BILLER_HORIZON_MONTHS must be positive, got %d", c.BillerHorizonMonths)
	}
	if _, err := cron.ParseStandard(c.ReminderSchedule); err != nil {
		return fmt.Errorf("REMINDER_SCHEDULE is not a valid cron spec: %w", err)
	}
	return nil
}

// RemindersEnabled reports whether SMTP and a recipient are configured.
func (c *Config) RemindersEnabled() bool {
	return c.SMTPHost != "" && c.SenderEmail != "" && c.ReminderEmail != ""
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, value)
	}
	return b, nil
}

func getEnvInt(key string, defaultVal int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return n, nil
}
