package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultSessionSecret = "change-me-in-production"

type Config struct {
	// App
	Environment  string   `mapstructure:"ENVIRONMENT"`
	Port         string   `mapstructure:"PORT"`
	LogLevel     string   `mapstructure:"LOG_LEVEL"`
	BaseURL      string   `mapstructure:"BASE_URL"`
	SiteName     string   `mapstructure:"SITE_NAME"`
	TimeZone     string   `mapstructure:"TIME_ZONE"`
	AllowedHosts []string `mapstructure:"ALLOWED_HOSTS"`

	// Database
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Session
	SessionSecret string `mapstructure:"SESSION_SECRET"`

	// Files
	StaticDir     string `mapstructure:"STATIC_DIR"`
	MediaDir      string `mapstructure:"MEDIA_DIR"`
	MaxUploadMB   int64  `mapstructure:"MAX_UPLOAD_MB"`
	CloudinaryURL string `mapstructure:"CLOUDINARY_URL"`

	// Google OAuth
	GoogleClientID     string   `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string   `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string   `mapstructure:"GOOGLE_REDIRECT_URL"`
	AdminEmails        []string `mapstructure:"ADMIN_EMAILS"`

	// Mail
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`
	StaffEmail   string `mapstructure:"STAFF_EMAIL"`

	// Discord
	DiscordBotToken  string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordChannelID string `mapstructure:"DISCORD_CHANNEL_ID"`

	Location *time.Location `mapstructure:"-"`
}

var envKeys = []string{
	"ENVIRONMENT", "PORT", "LOG_LEVEL", "BASE_URL", "SITE_NAME", "TIME_ZONE", "ALLOWED_HOSTS",
	"DATABASE_URL",
	"STATIC_DIR", "MEDIA_DIR", "MAX_UPLOAD_MB", "CLOUDINARY_URL",
	"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_REDIRECT_URL", "ADMIN_EMAILS",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASSWORD", "MAIL_FROM", "STAFF_EMAIL",
	"DISCORD_BOT_TOKEN", "DISCORD_CHANNEL_ID",
}

// Load reads the configuration from the environment. A .env file should be
// loaded by the caller beforehand.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("SITE_NAME", "Lesezirkel Osnabrück e.V.")
	v.SetDefault("TIME_ZONE", "Europe/Berlin")
	v.SetDefault("ALLOWED_HOSTS", []string{})
	v.SetDefault("DATABASE_URL", "sqlite://lesezirkel.db")
	v.SetDefault("SESSION_SECRET", defaultSessionSecret)
	v.SetDefault("STATIC_DIR", "static")
	v.SetDefault("MEDIA_DIR", "media")
	v.SetDefault("MAX_UPLOAD_MB", 10)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("ADMIN_EMAILS", []string{})

	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	// SECRET_KEY is accepted for deployments migrated from the old site
	if err := v.BindEnv("SESSION_SECRET", "SESSION_SECRET", "SECRET_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind SESSION_SECRET: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.AdminEmails = cleanList(cfg.AdminEmails, true)
	cfg.AllowedHosts = cleanList(cfg.AllowedHosts, true)

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE %q: %w", cfg.TimeZone, err)
	}
	cfg.Location = loc

	if cfg.MaxUploadMB <= 0 {
		return nil, errors.New("MAX_UPLOAD_MB must be positive")
	}
	if cfg.IsProduction() && cfg.SessionSecret == defaultSessionSecret {
		return nil, errors.New("SESSION_SECRET must be set in production")
	}

	return &cfg, nil
}

// cleanList trims the entries of a comma separated env list and drops
// empty ones.
func cleanList(items []string, lower bool) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if lower {
				part = strings.ToLower(part)
			}
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsAdminEmail reports whether email is whitelisted for Google sign-in.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, adminEmail := range c.AdminEmails {
		if email == adminEmail {
			return true
		}
	}
	return false
}

// HostAllowed reports whether requests for host should be served. An empty
// list or "*" allows every host.
func (c *Config) HostAllowed(host string) bool {
	if len(c.AllowedHosts) == 0 {
		return true
	}
	host = strings.ToLower(host)
	if i := strings.LastIndex(host, ":"); i != -1 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}
	for _, allowed := range c.AllowedHosts {
		switch {
		case allowed == "*", allowed == host:
			return true
		case strings.HasPrefix(allowed, ".") && (strings.HasSuffix(host, allowed) || host == allowed[1:]):
			return true
		}
	}
	return false
}

func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// MailEnabled reports whether SMTP delivery is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.MailFrom != ""
}

func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
