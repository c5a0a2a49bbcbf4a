package config

import (
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"

	RateLimitFixedWindow = "fixed_window"
	RateLimitTokenBucket = "token_bucket"
)

type Config struct {
	Server    Server
	Log       Log
	Database  Database
	Auth      Auth
	Upload    Upload
	S3        S3
	RateLimit RateLimit
	Admin     Admin
}

type Server struct {
	Port        string
	GinMode     string
	CORSOrigins []string
	// TrustedProxies lists the proxy CIDRs allowed to set X-Forwarded-For.
	// Empty means the socket peer is always the client address.
	TrustedProxies []string
}

type Log struct {
	Level  string
	Pretty bool
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Auth holds the token signing material. Rotating Secret invalidates every
// token issued before the restart.
type Auth struct {
	Secret   string
	TokenTTL time.Duration
}

type Upload struct {
	Dir      string
	MaxBytes int64
	Driver   string
}

type S3 struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type RateLimit struct {
	Strategy string
	Requests int
	Window   time.Duration
}

// Admin describes an optional bootstrap administrator created at startup.
type Admin struct {
	Username string
	Email    string
	Password string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8000")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", "5432")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("JWT_TTL", "30m")
	v.SetDefault("UPLOAD_DIR", "uploads/pdfs")
	v.SetDefault("UPLOAD_MAX_BYTES", 10<<20)
	v.SetDefault("STORAGE_DRIVER", StorageLocal)
	v.SetDefault("S3_BUCKET", "papers")
	v.SetDefault("RATE_LIMIT_STRATEGY", RateLimitFixedWindow)
	v.SetDefault("RATE_LIMIT_REQUESTS", 5)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
}

func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	var config Config

	config.Server.Port = v.GetString("SERVER_PORT")
	config.Server.GinMode = v.GetString("GIN_MODE")
	config.Server.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	config.Server.TrustedProxies = splitList(v.GetString("TRUSTED_PROXIES"))
	config.Log.Level = v.GetString("LOG_LEVEL")
	config.Log.Pretty = v.GetBool("LOG_PRETTY")

	config.Database.Host = v.GetString("DATABASE_HOST")
	config.Database.Port = v.GetString("DATABASE_PORT")
	config.Database.User = v.GetString("DATABASE_USER")
	config.Database.Password = v.GetString("DATABASE_PASSWORD")
	config.Database.Name = v.GetString("DATABASE_NAME")
	config.Database.SSLMode = v.GetString("DATABASE_SSLMODE")

	config.Auth.Secret = v.GetString("JWT_SECRET")
	config.Auth.TokenTTL = v.GetDuration("JWT_TTL")

	config.Upload.Dir = v.GetString("UPLOAD_DIR")
	config.Upload.MaxBytes = v.GetInt64("UPLOAD_MAX_BYTES")
	config.Upload.Driver = strings.ToLower(v.GetString("STORAGE_DRIVER"))

	config.S3.Endpoint = v.GetString("S3_ENDPOINT")
	config.S3.AccessKey = v.GetString("S3_ACCESS_KEY")
	config.S3.SecretKey = v.GetString("S3_SECRET_KEY")
	config.S3.Bucket = v.GetString("S3_BUCKET")
	config.S3.UseSSL = v.GetBool("S3_USE_SSL")

	config.RateLimit.Strategy = strings.ToLower(v.GetString("RATE_LIMIT_STRATEGY"))
	config.RateLimit.Requests = v.GetInt("RATE_LIMIT_REQUESTS")
	config.RateLimit.Window = v.GetDuration("RATE_LIMIT_WINDOW")

	config.Admin.Username = v.GetString("ADMIN_USERNAME")
	config.Admin.Email = v.GetString("ADMIN_EMAIL")
	config.Admin.Password = v.GetString("ADMIN_PASSWORD")

	if err := config.Validate(); err != nil {
		return nil, err
	}

	log.Info().Interface("config", config.Redacted()).Msg("Config loaded")
	return &config, nil
}

func (c Config) Validate() error {
	if c.Auth.Secret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		return errors.New("GIN_MODE must be one of debug, release, test")
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES must be positive")
	}
	switch c.Upload.Driver {
	case StorageLocal:
		if c.Upload.Dir == "" {
			return errors.New("UPLOAD_DIR must be set for the local storage driver")
		}
	case StorageS3:
		if c.S3.Endpoint == "" || c.S3.Bucket == "" {
			return errors.New("S3_ENDPOINT and S3_BUCKET must be set for the s3 storage driver")
		}
	default:
		return errors.New("STORAGE_DRIVER must be one of local, s3")
	}
	switch c.RateLimit.Strategy {
	case RateLimitFixedWindow, RateLimitTokenBucket:
	default:
		return errors.New("RATE_LIMIT_STRATEGY must be one of fixed_window, token_bucket")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	const mask = "***"
	if c.Database.Password != "" {
		c.Database.Password = mask
	}
	if c.Auth.Secret != "" {
		c.Auth.Secret = mask
	}
	if c.S3.SecretKey != "" {
		c.S3.SecretKey = mask
	}
	if c.Admin.Password != "" {
		c.Admin.Password = mask
	}
	return c
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
