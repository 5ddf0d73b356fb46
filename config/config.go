package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	App       AppConfig       `yaml:"app"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Minio     MinioConfig     `yaml:"minio"`
	SendGrid  SendGridConfig  `yaml:"sendgrid"`
	OAuth     OAuthConfig     `yaml:"oauth"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	PDF       PDFConfig       `yaml:"pdf"`
	Contracts ContractsConfig `yaml:"contracts"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Users     []User          `yaml:"users"`
}

type ServerConfig struct {
	Port            int      `yaml:"port"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	RateLimitPerSec int      `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
}

type AppConfig struct {
	// BaseURL is used to build links in outgoing emails.
	BaseURL string `yaml:"base_url"`
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver"` // postgres, sqlite
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type MinioConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	Region     string `yaml:"region"`
	ExpireDays int    `yaml:"expire_days"`
}

// Enabled reports whether a PDF archive bucket is configured.
func (m MinioConfig) Enabled() bool {
	return m.Endpoint != "" && m.Bucket != ""
}

type SendGridConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

type OAuthConfig struct {
	ClientID       string   `yaml:"client_id"`
	ClientSecret   string   `yaml:"client_secret"`
	AuthURL        string   `yaml:"auth_url"`
	TokenURL       string   `yaml:"token_url"`
	UserInfoURL    string   `yaml:"user_info_url"`
	RedirectURL    string   `yaml:"redirect_url"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	AdminOpenIDs   []string `yaml:"admin_open_ids"`
	DefaultRole    string   `yaml:"default_role"`
}

// IsAdmin reports whether openID is listed in admin_open_ids.
func (o OAuthConfig) IsAdmin(openID string) bool {
	for _, id := range o.AdminOpenIDs {
		if id == openID {
			return true
		}
	}
	return false
}

// Timeout is the end-to-end deadline of an OAuth callback.
func (o OAuthConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
	SessionDays      int    `yaml:"session_days"`
	CookieName       string `yaml:"cookie_name"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PDFConfig struct {
	Brand      string `yaml:"brand"`
	Tagline    string `yaml:"tagline"`
	Disclaimer string `yaml:"disclaimer"`
}

type ContractsConfig struct {
	// ExecutionPolicy is all_parties or any_party.
	ExecutionPolicy  string `yaml:"execution_policy"`
	ShareExpiresDays int    `yaml:"share_expires_days"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// User is a static account, typically an administrator.
type User struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	UserID       string `yaml:"user_id"`
	Role         string `yaml:"role"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	override(&c.Database.DSN, "DATABASE_DSN")
	override(&c.Auth.JWTSecret, "JWT_SECRET")
	override(&c.SendGrid.APIKey, "SENDGRID_API_KEY")
	override(&c.OAuth.ClientSecret, "OAUTH_CLIENT_SECRET")
	override(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimitPerSec == 0 {
		c.Server.RateLimitPerSec = 10
	}
	if c.Server.RateLimitBurst == 0 {
		c.Server.RateLimitBurst = 20
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "ologywood.db"
	}
	if c.Minio.ExpireDays == 0 {
		c.Minio.ExpireDays = 7
	}
	if c.Minio.Region == "" {
		c.Minio.Region = "us-east-1"
	}
	if c.SendGrid.TimeoutSeconds == 0 {
		c.SendGrid.TimeoutSeconds = 30
	}
	if c.SendGrid.MaxRetries == 0 {
		c.SendGrid.MaxRetries = 4
	}
	if c.SendGrid.FromEmail == "" {
		c.SendGrid.FromEmail = "noreply@ologywood.com"
	}
	if c.OAuth.TimeoutSeconds == 0 {
		c.OAuth.TimeoutSeconds = 30
	}
	if c.OAuth.DefaultRole == "" {
		c.OAuth.DefaultRole = "user"
	}
	if c.Auth.TokenExpireHours == 0 {
		c.Auth.TokenExpireHours = 24
	}
	if c.Auth.SessionDays == 0 {
		c.Auth.SessionDays = 365
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "app_session_id"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.PDF.Brand == "" {
		c.PDF.Brand = "OLOGYWOOD"
	}
	if c.PDF.Tagline == "" {
		c.PDF.Tagline = "Artist Booking Platform"
	}
	if c.PDF.Disclaimer == "" {
		c.PDF.Disclaimer = "This is a legally binding contract. Please review carefully before signing."
	}
	if c.Contracts.ExecutionPolicy == "" {
		c.Contracts.ExecutionPolicy = "all_parties"
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "ologywood-contracts"
	}
	if c.Tracing.SampleRatio <= 0 || c.Tracing.SampleRatio > 1 {
		c.Tracing.SampleRatio = 1
	}
}

// FindUser finds a static account by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
