package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // receipts are dated in the store's zone on hosts without zoneinfo

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Upstream  UpstreamConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Profile   ProfileConfig
	Billing   BillingConfig
	Printer   PrinterConfig
	PDF       PDFConfig
	Email     EmailConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Session   SessionConfig
}

type AppConfig struct {
	Name     string
	Env      string
	Port     string
	LogLevel string
}

// UpstreamConfig points at the pharmacy REST API
type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

// StoreConfig selects where idempotency keys and the session token live
type StoreConfig struct {
	Driver string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
}

// ProfileConfig is the fallback receipt header used when /settings is unavailable
type ProfileConfig struct {
	Name     string
	Subtitle string
	Phone    string
	Address  string
	GSTIN    string
}

type BillingConfig struct {
	Locale      string
	Currency    string
	PhoneRegion string
	SearchQuiet time.Duration
	WalkInName  string
	SessionTTL  time.Duration
	Timezone    string
}

// MinPrinterWidth is the narrowest paper, in characters, a receipt fits on
const MinPrinterWidth = 24

type PrinterConfig struct {
	Type    string
	USBPath string
	Address string
	Width   int
}

// PDFConfig enables receipt PDFs through a headless Chromium
type PDFConfig struct {
	Enabled    bool
	ChromeBin  string
	ControlURL string
	Timeout    time.Duration
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

type SessionConfig struct {
	TokenName string
}

func setDefaults() {
	viper.SetDefault("APP_NAME", "billdesk")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_LOG_LEVEL", "info")
	viper.SetDefault("UPSTREAM_BASE_URL", "http://localhost:4000/api")
	viper.SetDefault("UPSTREAM_TIMEOUT_SECONDS", 15)
	viper.SetDefault("UPSTREAM_RPS", 20)
	viper.SetDefault("UPSTREAM_BURST", 40)
	viper.SetDefault("STORE_DRIVER", "memory")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "billdesk")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "Asia/Kolkata")
	viper.SetDefault("STORE_NAME", "Thangam Medicals")
	viper.SetDefault("STORE_SUBTITLE", "Pharmacy & General Stores")
	viper.SetDefault("STORE_PHONE", "")
	viper.SetDefault("STORE_ADDRESS", "")
	viper.SetDefault("STORE_GSTIN", "")
	viper.SetDefault("BILLING_LOCALE", "en-IN")
	viper.SetDefault("BILLING_CURRENCY", "INR")
	viper.SetDefault("BILLING_PHONE_REGION", "IN")
	viper.SetDefault("BILLING_SEARCH_QUIET_MS", 300)
	viper.SetDefault("BILLING_WALKIN_NAME", "Walk-in Customer")
	viper.SetDefault("BILLING_SESSION_TTL_MINUTES", 720)
	viper.SetDefault("BILLING_TIMEZONE", "Asia/Kolkata")
	viper.SetDefault("PDF_ENABLED", false)
	viper.SetDefault("PDF_CHROME_BIN", "")
	viper.SetDefault("PDF_CONTROL_URL", "")
	viper.SetDefault("PDF_TIMEOUT_SECONDS", 30)
	viper.SetDefault("PRINTER_TYPE", "none")
	viper.SetDefault("PRINTER_USB_PATH", "/dev/usb/lp0")
	viper.SetDefault("PRINTER_ADDRESS", "")
	viper.SetDefault("PRINTER_WIDTH", 32)
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_FROM_NAME", "Thangam Medicals")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	viper.SetDefault("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS")
	viper.SetDefault("CORS_ALLOWED_HEADERS", "Origin,Content-Type,Accept,Authorization,Idempotency-Key,X-Request-ID")
	viper.SetDefault("RATE_LIMIT_REQUESTS", 300)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("SESSION_TOKEN_NAME", "pharmacy-api")
}

// Load reads .env (when present) and the process environment
func Load() (*Config, error) {
	// a missing .env is normal in production
	_ = godotenv.Load()

	viper.AutomaticEnv()
	setDefaults()

	cfg := &Config{
		App: AppConfig{
			Name:     viper.GetString("APP_NAME"),
			Env:      viper.GetString("APP_ENV"),
			Port:     viper.GetString("APP_PORT"),
			LogLevel: viper.GetString("APP_LOG_LEVEL"),
		},
		Upstream: UpstreamConfig{
			BaseURL: viper.GetString("UPSTREAM_BASE_URL"),
			Timeout: time.Duration(viper.GetInt("UPSTREAM_TIMEOUT_SECONDS")) * time.Second,
			RPS:     viper.GetFloat64("UPSTREAM_RPS"),
			Burst:   viper.GetInt("UPSTREAM_BURST"),
		},
		Store: StoreConfig{
			Driver: viper.GetString("STORE_DRIVER"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
		},
		Profile: ProfileConfig{
			Name:     viper.GetString("STORE_NAME"),
			Subtitle: viper.GetString("STORE_SUBTITLE"),
			Phone:    viper.GetString("STORE_PHONE"),
			Address:  viper.GetString("STORE_ADDRESS"),
			GSTIN:    viper.GetString("STORE_GSTIN"),
		},
		Billing: BillingConfig{
			Locale:      viper.GetString("BILLING_LOCALE"),
			Currency:    viper.GetString("BILLING_CURRENCY"),
			PhoneRegion: viper.GetString("BILLING_PHONE_REGION"),
			SearchQuiet: time.Duration(viper.GetInt("BILLING_SEARCH_QUIET_MS")) * time.Millisecond,
			WalkInName:  viper.GetString("BILLING_WALKIN_NAME"),
			SessionTTL:  time.Duration(viper.GetInt("BILLING_SESSION_TTL_MINUTES")) * time.Minute,
			Timezone:    viper.GetString("BILLING_TIMEZONE"),
		},
		Printer: PrinterConfig{
			Type:    viper.GetString("PRINTER_TYPE"),
			USBPath: viper.GetString("PRINTER_USB_PATH"),
			Address: viper.GetString("PRINTER_ADDRESS"),
			Width:   viper.GetInt("PRINTER_WIDTH"),
		},
		PDF: PDFConfig{
			Enabled:    viper.GetBool("PDF_ENABLED"),
			ChromeBin:  viper.GetString("PDF_CHROME_BIN"),
			ControlURL: viper.GetString("PDF_CONTROL_URL"),
			Timeout:    time.Duration(viper.GetInt("PDF_TIMEOUT_SECONDS")) * time.Second,
		},
		Email: EmailConfig{
			SMTPHost:     viper.GetString("SMTP_HOST"),
			SMTPPort:     viper.GetInt("SMTP_PORT"),
			SMTPUsername: viper.GetString("SMTP_USERNAME"),
			SMTPPassword: viper.GetString("SMTP_PASSWORD"),
			FromName:     viper.GetString("SMTP_FROM_NAME"),
			FromEmail:    viper.GetString("SMTP_FROM_EMAIL"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
			AllowedMethods: splitList(viper.GetString("CORS_ALLOWED_METHODS")),
			AllowedHeaders: splitList(viper.GetString("CORS_ALLOWED_HEADERS")),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		Session: SessionConfig{
			TokenName: viper.GetString("SESSION_TOKEN_NAME"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the desk cannot start with
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("config: UPSTREAM_BASE_URL is required")
	}
	switch c.Store.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: STORE_DRIVER must be postgres or memory, got %q", c.Store.Driver)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("config: UPSTREAM_TIMEOUT_SECONDS must be positive")
	}
	if _, err := time.LoadLocation(c.Billing.Timezone); err != nil {
		return fmt.Errorf("config: BILLING_TIMEZONE: %w", err)
	}
	if c.Printer.Width < MinPrinterWidth {
		return fmt.Errorf("config: PRINTER_WIDTH must be at least %d characters, got %d", MinPrinterWidth, c.Printer.Width)
	}
	if c.Billing.SearchQuiet < 0 {
		return fmt.Errorf("config: BILLING_SEARCH_QUIET_MS must not be negative")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
