package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "3000" {
		t.Errorf("Port = %q, want %q", cfg.Port, "3000")
	}
	if cfg.DB.Driver != DriverMySQL {
		t.Errorf("Driver = %q, want %q", cfg.DB.Driver, DriverMySQL)
	}
	if cfg.DB.Port != "3306" {
		t.Errorf("DB.Port = %q, want %q", cfg.DB.Port, "3306")
	}
	if cfg.DB.Name != "crudtcc" {
		t.Errorf("DB.Name = %q, want %q", cfg.DB.Name, "crudtcc")
	}
	if cfg.DB.MaxOpenConns != 10 {
		t.Errorf("MaxOpenConns = %d, want 10", cfg.DB.MaxOpenConns)
	}
	if cfg.QueryTimeout != 5*time.Second {
		t.Errorf("QueryTimeout = %v, want 5s", cfg.QueryTimeout)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v, want [*]", cfg.CORSOrigins)
	}
	if cfg.Broker.Enabled {
		t.Error("Broker should be disabled by default")
	}
}

func TestLoad_PostgresDefaultPort(t *testing.T) {
	t.Setenv("DB_DRIVER", "POSTGRES")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DB.Driver != DriverPostgres {
		t.Errorf("Driver = %q, want %q", cfg.DB.Driver, DriverPostgres)
	}
	if cfg.DB.Port != "5432" {
		t.Errorf("DB.Port = %q, want %q", cfg.DB.Port, "5432")
	}
}

func TestLoad_SQLiteAlias(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "/tmp/x.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DB.Driver != DriverSQLite {
		t.Errorf("Driver = %q, want %q", cfg.DB.Driver, DriverSQLite)
	}
	if cfg.DB.Path != "/tmp/x.db" {
		t.Errorf("Path = %q", cfg.DB.Path)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "DB_DRIVER", "oracle"},
		{"zero pool", "DB_MAX_OPEN_CONNS", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() with %s=%s should fail", tt.key, tt.val)
			}
		})
	}
}

func TestLoad_IdleClampedToOpen(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "4")
	t.Setenv("DB_MAX_IDLE_CONNS", "20")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DB.MaxIdleConns != 4 {
		t.Errorf("MaxIdleConns = %d, want 4", cfg.DB.MaxIdleConns)
	}
}

func TestLoadCacheConfig_Methods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head,,")

	cfg := LoadCacheConfig()
	if !cfg.Methods["GET"] || !cfg.Methods["HEAD"] {
		t.Errorf("Methods = %v, want GET and HEAD", cfg.Methods)
	}
	if len(cfg.Methods) != 2 {
		t.Errorf("len(Methods) = %d, want 2", len(cfg.Methods))
	}
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 {
		t.Errorf("Capacity = %d, want 1", cfg.Capacity)
	}
	if cfg.TTL != 10*time.Second {
		t.Errorf("TTL = %v, want 10s", cfg.TTL)
	}
}

func TestLoadRedisConfig_HostPort(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_TLS", "1")

	cfg := LoadRedisConfig()
	if cfg.Addr != "cache:6380" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, "cache:6380")
	}
	if !cfg.TLS {
		t.Error("TLS should be enabled")
	}
}

func TestNewRedisClient_Disabled(t *testing.T) {
	if c := NewRedisClient(RedisConfig{Enabled: false}); c != nil {
		t.Error("NewRedisClient should return nil when disabled")
	}
}

func TestLoad_QueryTimeoutZeroDisables(t *testing.T) {
	t.Setenv("QUERY_TIMEOUT", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.QueryTimeout != 0 {
		t.Errorf("QueryTimeout = %v, want 0", cfg.QueryTimeout)
	}

	t.Setenv("QUERY_TIMEOUT", "-3s")
	if cfg, _ = Load(); cfg.QueryTimeout != 0 {
		t.Errorf("negative QueryTimeout = %v, want 0", cfg.QueryTimeout)
	}
}
