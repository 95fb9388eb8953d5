package config

import (
	"log/slog"
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestAppConfig_Defaults(t *testing.T) {
	t.Setenv("NODE_ENV", "")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Fatalf("unexpected base URL %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.API.Timeout)
	}
	if cfg.HTTP.Addr != "127.0.0.1:3000" {
		t.Fatalf("unexpected addr %q", cfg.HTTP.Addr)
	}
	if cfg.Nav != (NavConfig{LoginPath: "/login", HomePath: "/home", SignupPath: "/signup"}) {
		t.Fatalf("unexpected nav config %#v", cfg.Nav)
	}
	if cfg.Storage.Driver != StorageSQLite || cfg.Storage.SQLitePath != "adify-console.db" {
		t.Fatalf("unexpected storage config %#v", cfg.Storage)
	}
	if err := cfg.Storage.Validate(); err != nil {
		t.Fatalf("default storage should validate: %v", err)
	}
	if cfg.Observability.Metrics.IsEnabled() {
		t.Fatal("metrics should be disabled by default")
	}
	if cfg.IsDev {
		t.Fatal("expected production mode by default")
	}
}

func TestAppConfig_ParseEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", " https://API.adify.example/v1/ ")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("API_ME_PATH", "/users/me")
	t.Setenv("HTTP_ADDR", ":8081")
	t.Setenv("NAV_HOME_PATH", "dashboard/")
	t.Setenv("STORAGE_DRIVER", "Redis")
	t.Setenv("STORAGE_REDIS_PREFIX", "console:")
	t.Setenv("REDIS_USE_SENTINEL", "true")
	t.Setenv("REDIS_SENTINEL_NODES", "s1:26379,s2:26379")
	t.Setenv("LOG_LEVEL", "WARN")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.API.BaseURL != "https://API.adify.example/v1" {
		t.Fatalf("base URL not trimmed: %q", cfg.API.BaseURL)
	}
	if got := cfg.API.Origin(); got != "https://api.adify.example" {
		t.Fatalf("unexpected origin %q", got)
	}
	if cfg.API.Timeout != 3*time.Second || cfg.API.MePath != "/users/me" || cfg.API.LoginPath != "/auth/login" {
		t.Fatalf("unexpected api config %#v", cfg.API)
	}
	if cfg.HTTP.Addr != ":8081" {
		t.Fatalf("unexpected addr %q", cfg.HTTP.Addr)
	}
	if cfg.Nav.HomePath != "/dashboard" {
		t.Fatalf("home path not rooted: %q", cfg.Nav.HomePath)
	}
	if cfg.Storage.Driver != StorageRedis || cfg.Storage.RedisPrefix != "console:" {
		t.Fatalf("unexpected storage %#v", cfg.Storage)
	}
	if !cfg.Redis.UseSentinel || !reflect.DeepEqual(cfg.Redis.SentinelNodes, []string{"s1:26379", "s2:26379"}) {
		t.Fatalf("unexpected redis config %#v", cfg.Redis)
	}
	if cfg.SlogLevel() != slog.LevelWarn {
		t.Fatalf("unexpected level %v", cfg.SlogLevel())
	}
}

func TestAppConfig_DevModeFromNodeEnv(t *testing.T) {
	t.Setenv("NODE_ENV", "development")
	cfg := AppConfig{LogLevel: "error"}
	cfg.Sanitize()

	if !cfg.IsDev {
		t.Fatal("expected dev mode from NODE_ENV")
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("dev mode should log at debug, got %v", cfg.SlogLevel())
	}
}

func TestAPIConfig_Sanitize(t *testing.T) {
	cfg := APIConfig{BaseURL: "http://x/", Timeout: -1}
	cfg.Sanitize()
	if cfg.Timeout != 10*time.Second {
		t.Fatalf("expected default timeout, got %v", cfg.Timeout)
	}

	cfg = APIConfig{BaseURL: "http://x", Timeout: time.Hour}
	cfg.Sanitize()
	if cfg.Timeout != 2*time.Minute {
		t.Fatalf("expected clamped timeout, got %v", cfg.Timeout)
	}

	if (&APIConfig{BaseURL: "not a url"}).Origin() != "" {
		t.Fatal("expected empty origin for an unparseable base URL")
	}
}

func TestNavConfig_Sanitize(t *testing.T) {
	tests := []struct {
		in   NavConfig
		want NavConfig
	}{
		{NavConfig{}, NavConfig{LoginPath: "/login", HomePath: "/home", SignupPath: "/signup"}},
		{NavConfig{LoginPath: "//evil.example", HomePath: "/app/", SignupPath: "join"},
			NavConfig{LoginPath: "/login", HomePath: "/app", SignupPath: "/join"}},
	}
	for _, tt := range tests {
		got := tt.in
		got.Sanitize()
		if got != tt.want {
			t.Errorf("Sanitize(%#v) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestStorageConfig_Validate(t *testing.T) {
	cfg := StorageConfig{Driver: " MEMCACHED "}
	cfg.Sanitize()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unknown driver to be rejected")
	}

	cfg = StorageConfig{}
	cfg.Sanitize()
	if cfg.Driver != StorageSQLite {
		t.Fatalf("expected sqlite default, got %q", cfg.Driver)
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
	if cfg.Prefix != defaultObservabilityName {
		t.Fatalf("expected default prefix, got %q", cfg.Prefix)
	}
}
