package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"chatsaas_backend/internal/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host        string   `yaml:"host"`
		Port        int      `yaml:"port"`
		Env         string   `yaml:"env"`
		SiteURL     string   `yaml:"site_url"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		QueueSize    int    `yaml:"queue_size"`
	} `yaml:"email"`

	JWT struct {
		Secret     string `yaml:"secret"`
		TTLHours   int    `yaml:"ttl_hours"`
		CookieName string `yaml:"cookie_name"`
	} `yaml:"jwt"`

	Session struct {
		CookieName string `yaml:"cookie_name"`
		TTLDays    int    `yaml:"ttl_days"`
	} `yaml:"session"`

	OAuth struct {
		Google struct {
			ClientID     string `yaml:"client_id"`
			ClientSecret string `yaml:"client_secret"`
			RedirectURL  string `yaml:"redirect_url"`
		} `yaml:"google"`
	} `yaml:"oauth"`

	Payment struct {
		WebhookSecret string `yaml:"webhook_secret"`
	} `yaml:"payment"`

	Chat struct {
		DefaultWebhookURL string  `yaml:"default_webhook_url"`
		RelayTimeoutSec   int     `yaml:"relay_timeout_sec"`
		HistoryLimit      int     `yaml:"history_limit"`
		ApologyMessage    string  `yaml:"apology_message"`
		RatePerMinute     float64 `yaml:"rate_per_minute"`
		RateBurst         int     `yaml:"rate_burst"`
	} `yaml:"chat"`

	Storage struct {
		Type      string `yaml:"type"`      // local, s3, cloudflare_r2
		BasePath  string `yaml:"base_path"` // For local storage
		BaseURL   string `yaml:"base_url"`
		Bucket    string `yaml:"bucket"`
		Region    string `yaml:"region"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Endpoint  string `yaml:"endpoint"` // For R2 or custom S3
	} `yaml:"storage"`

	Downloads struct {
		AllowPublic bool  `yaml:"allow_public"`
		MaxSize     int64 `yaml:"max_size"`
	} `yaml:"downloads"`

	Admin struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"admin"`
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.TTLHours) * time.Hour
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLDays) * 24 * time.Hour
}

func (c *Config) RelayTimeout() time.Duration {
	return time.Duration(c.Chat.RelayTimeoutSec) * time.Second
}

// Default возвращает конфиг со значениями по умолчанию
func Default() *Config {
	var cfg Config

	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8080
	cfg.Server.Env = "development"
	cfg.Server.SiteURL = "http://localhost:3000"
	cfg.Server.CORSOrigins = []string{"http://localhost:3000"}

	cfg.Email.SMTPPort = 587
	cfg.Email.FromName = "ChatSaaS"
	cfg.Email.QueueSize = 100

	cfg.JWT.TTLHours = 24
	cfg.JWT.CookieName = "auth-token"

	cfg.Session.CookieName = "session-token"
	cfg.Session.TTLDays = 30

	cfg.Chat.RelayTimeoutSec = 30
	cfg.Chat.HistoryLimit = 10
	cfg.Chat.ApologyMessage = "Sorry, the assistant is temporarily unavailable. Please send your message again in a moment."
	cfg.Chat.RatePerMinute = 20
	cfg.Chat.RateBurst = 5

	cfg.Storage.Type = "local"
	cfg.Storage.BasePath = "./uploads"
	cfg.Storage.BaseURL = "/files"

	cfg.Downloads.AllowPublic = true
	cfg.Downloads.MaxSize = 100 * 1024 * 1024 // 100MB

	cfg.Admin.Name = "Administrator"

	return &cfg
}

// Load собирает конфигурацию: .env -> config.yaml -> переменные окружения
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Failed to load .env", "error", err)
	}

	cfg := Default()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	if err := loadYAML(configPath, cfg); err != nil {
		return nil, err
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("Config file not found, using defaults and environment", "path", path)
			return nil
		}
		return fmt.Errorf("failed to open config file at %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse config file at %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Database.DSN, "DATABASE_URL")
	setString(&cfg.Server.Env, "SERVER_ENV")
	setInt(&cfg.Server.Port, "SERVER_PORT")
	setString(&cfg.Server.SiteURL, "SITE_URL")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = strings.Split(v, ",")
	}

	setString(&cfg.JWT.Secret, "JWT_SECRET")

	setString(&cfg.Email.SMTPHost, "SMTP_HOST")
	setInt(&cfg.Email.SMTPPort, "SMTP_PORT")
	setString(&cfg.Email.SMTPUsername, "SMTP_USER")
	setString(&cfg.Email.SMTPPassword, "SMTP_PASSWORD")
	setString(&cfg.Email.FromEmail, "SMTP_FROM")

	setString(&cfg.OAuth.Google.ClientID, "GOOGLE_CLIENT_ID")
	setString(&cfg.OAuth.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&cfg.OAuth.Google.RedirectURL, "GOOGLE_REDIRECT_URL")

	setString(&cfg.Payment.WebhookSecret, "PAYMENT_WEBHOOK_SECRET")
	setString(&cfg.Chat.DefaultWebhookURL, "DEFAULT_WEBHOOK_URL")

	setString(&cfg.Storage.Type, "STORAGE_TYPE")
	setString(&cfg.Storage.BasePath, "STORAGE_BASE_PATH")
	setString(&cfg.Storage.Bucket, "STORAGE_BUCKET")
	setString(&cfg.Storage.Region, "STORAGE_REGION")
	setString(&cfg.Storage.AccessKey, "STORAGE_ACCESS_KEY")
	setString(&cfg.Storage.SecretKey, "STORAGE_SECRET_KEY")
	setString(&cfg.Storage.Endpoint, "STORAGE_ENDPOINT")

	if v := os.Getenv("DOWNLOADS_ALLOW_PUBLIC"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Downloads.AllowPublic = b
		}
	}

	setString(&cfg.Admin.Email, "FIRST_ADMIN_EMAIL")
	setString(&cfg.Admin.Password, "FIRST_ADMIN_PASSWORD")
}

func (c *Config) validate() error {
	if c.Database.DSN == "" {
		return errors.New("database url is required (DATABASE_URL)")
	}
	if c.JWT.Secret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET is required in production")
		}
		logger.Warn("JWT_SECRET is empty, using insecure development secret")
		c.JWT.Secret = "dev-secret-change-me"
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
