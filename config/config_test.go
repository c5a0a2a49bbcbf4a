package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newTestViper(values map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := load(newTestViper(map[string]any{"JWT_SECRET": "s3cret"}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.TokenTTL != 30*time.Minute {
		t.Fatalf("expected 30m ttl, got %s", cfg.Auth.TokenTTL)
	}
	if cfg.Upload.MaxBytes != 10<<20 {
		t.Fatalf("expected 10 MiB ceiling, got %d", cfg.Upload.MaxBytes)
	}
	if cfg.RateLimit.Requests != 5 || cfg.RateLimit.Window != time.Minute {
		t.Fatalf("unexpected rate limit defaults: %+v", cfg.RateLimit)
	}
	if cfg.Upload.Driver != StorageLocal {
		t.Fatalf("expected local driver, got %q", cfg.Upload.Driver)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins %v", cfg.Server.CORSOrigins)
	}
	if len(cfg.Server.TrustedProxies) != 0 {
		t.Fatalf("no proxy should be trusted by default, got %v", cfg.Server.TrustedProxies)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]map[string]any{
		"missing secret":   {},
		"unknown driver":   {"JWT_SECRET": "x", "STORAGE_DRIVER": "ftp"},
		"s3 without host":  {"JWT_SECRET": "x", "STORAGE_DRIVER": "s3"},
		"unknown strategy": {"JWT_SECRET": "x", "RATE_LIMIT_STRATEGY": "leaky"},
		"zero requests":    {"JWT_SECRET": "x", "RATE_LIMIT_REQUESTS": 0},
		"unknown gin mode": {"JWT_SECRET": "x", "GIN_MODE": "verbose"},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := load(newTestViper(values)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestRedactedMasksSecrets(t *testing.T) {
	cfg := Config{
		Database: Database{Password: "pw"},
		Auth:     Auth{Secret: "jwt"},
		S3:       S3{SecretKey: "key"},
		Admin:    Admin{Password: "admin"},
	}
	r := cfg.Redacted()
	if r.Database.Password == "pw" || r.Auth.Secret == "jwt" || r.S3.SecretKey == "key" || r.Admin.Password == "admin" {
		t.Fatalf("secrets leaked: %+v", r)
	}
	if cfg.Auth.Secret != "jwt" {
		t.Fatalf("receiver config must not be modified")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a, ,b ,")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected split %v", got)
	}
}
