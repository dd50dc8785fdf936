package config

import (
	"testing"
	"time"
)

func TestFromViper_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	cfg, err := FromViper(NewViper())
	if err != nil {
		t.Fatalf("FromViper() = %v, want nil", err)
	}
	if cfg.AccessTTL != 30*time.Minute {
		t.Errorf("AccessTTL = %s, want 30m", cfg.AccessTTL)
	}
	if cfg.DBDriver != "mysql" {
		t.Errorf("DBDriver = %q, want mysql", cfg.DBDriver)
	}
	if cfg.SeedAdmin.Username != "admin" {
		t.Errorf("SeedAdmin.Username = %q", cfg.SeedAdmin.Username)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if !cfg.Cache.Methods["GET"] || cfg.Cache.TTL != 30*time.Second {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.RateLimit.TTL < 5*cfg.RateLimit.RefillInterval {
		t.Errorf("RateLimit.TTL %s below floor", cfg.RateLimit.TTL)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
}

func TestFromViper_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "5")
	t.Setenv("CORS_ORIGINS", "https://ngo.example, https://admin.ngo.example")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("RATE_LIMIT_BURST", "10")

	cfg, err := FromViper(NewViper())
	if err != nil {
		t.Fatalf("FromViper() = %v, want nil", err)
	}
	if cfg.DBDriver != "sqlite3" || cfg.AccessTTL != 5*time.Minute {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://admin.ngo.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.Redis.Addr != "cache:6380" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if cfg.RateLimit.Capacity != 10 {
		t.Errorf("RateLimit.Capacity = %d", cfg.RateLimit.Capacity)
	}
}

func TestFromViper_Invalid(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := FromViper(NewViper()); err == nil {
		t.Error("missing JWT_SECRET should fail")
	}
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DB_DRIVER", "oracle")
	if _, err := FromViper(NewViper()); err == nil {
		t.Error("unknown DB_DRIVER should fail")
	}
}
