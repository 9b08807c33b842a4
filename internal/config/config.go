package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	MongoURI                string `mapstructure:"MONGODB_URI"`
	MongoDatabase           string `mapstructure:"MONGODB_DATABASE"`
	PatientCollection       string `mapstructure:"PATIENT_COLLECTION"`
	LegacyPatientCollection string `mapstructure:"LEGACY_PATIENT_COLLECTION"`

	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	DBMaxOpenConns int    `mapstructure:"DB_MAX_OPEN_CONNS"`

	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`

	JWTSecret   string   `mapstructure:"JWT_SECRET"`
	JWTIssuer   string   `mapstructure:"JWT_ISSUER"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`
	WriteLimit  int      `mapstructure:"WRITE_RATE_LIMIT"`

	ClinicTimezone      string        `mapstructure:"CLINIC_TIMEZONE"`
	ClassifyWorkers     int           `mapstructure:"CLASSIFY_WORKERS"`
	ActionSweepInterval time.Duration `mapstructure:"ACTION_SWEEP_INTERVAL"`
	DailyReportAt       string        `mapstructure:"DAILY_REPORT_AT"`

	MailHost         string   `mapstructure:"MAIL_HOST"`
	MailPort         int      `mapstructure:"MAIL_PORT"`
	MailUser         string   `mapstructure:"MAIL_USER"`
	MailPass         string   `mapstructure:"MAIL_PASS"`
	MailFrom         string   `mapstructure:"MAIL_FROM"`
	ReportRecipients []string `mapstructure:"REPORT_RECIPIENTS"`

	WhatsAppAccessToken string `mapstructure:"WHATSAPP_ACCESS_TOKEN"`
	WhatsAppPhoneID     string `mapstructure:"WHATSAPP_PHONE_ID"`
	WhatsAppTemplate    string `mapstructure:"WHATSAPP_TEMPLATE"`
	WhatsAppRecipient   string `mapstructure:"WHATSAPP_RECIPIENT"`

	location *time.Location
}

var defaults = map[string]interface{}{
	"PORT":                      "8080",
	"ENV":                       "development",
	"MONGODB_DATABASE":          "clinic",
	"PATIENT_COLLECTION":        "patients_v2",
	"LEGACY_PATIENT_COLLECTION": "patients",
	"DB_MAX_OPEN_CONNS":         10,
	"CORS_ORIGINS":              "http://localhost:3000",
	"WRITE_RATE_LIMIT":          120,
	"CLINIC_TIMEZONE":           "Asia/Seoul",
	"CLASSIFY_WORKERS":          8,
	"ACTION_SWEEP_INTERVAL":     "15m",
	"DAILY_REPORT_AT":           "07:00",
	"MAIL_PORT":                 587,
	"WHATSAPP_TEMPLATE":         "counselor_action",
}

var envKeys = []string{
	"MONGODB_URI", "DATABASE_URL", "RABBITMQ_URL", "JWT_SECRET", "JWT_ISSUER",
	"MAIL_HOST", "MAIL_USER", "MAIL_PASS", "MAIL_FROM", "REPORT_RECIPIENTS",
	"WHATSAPP_ACCESS_TOKEN", "WHATSAPP_PHONE_ID", "WHATSAPP_RECIPIENT",
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
		v.BindEnv(key)
	}
	for _, key := range envKeys {
		v.BindEnv(key)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.ReportRecipients = splitList(v.GetString("REPORT_RECIPIENTS"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings every command needs and resolves the clinic
// timezone.
func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGODB_URI is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	loc, err := time.LoadLocation(c.ClinicTimezone)
	if err != nil {
		return fmt.Errorf("invalid CLINIC_TIMEZONE %q: %w", c.ClinicTimezone, err)
	}
	c.location = loc

	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if _, err := time.Parse("15:04", c.DailyReportAt); err != nil {
		return fmt.Errorf("invalid DAILY_REPORT_AT %q: expected HH:MM", c.DailyReportAt)
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location is the clinic timezone; calendar dates are evaluated in it.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func (c *Config) MailEnabled() bool {
	return c.MailHost != "" && len(c.ReportRecipients) > 0
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
