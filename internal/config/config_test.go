package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("upstream:\n  service_key: abc\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := Config{
		HTTP: HTTPConfig{Port: 8080, ReadTimeoutSec: 10, WriteTimeoutSec: 60, ShutdownSec: 10},
		Upstream: UpstreamConfig{
			BaseURL:    "http://apis.data.go.kr/1471000/",
			ServiceKey: "abc",
			UserAgent:  "medimatch/1.0",
			TimeoutSec: 30,
			NumOfRows:  10,
		},
		Retry:   RetryConfig{MaxAttempts: 3, InitialBackoffMS: 500, MaxBackoffMS: 10000, Multiplier: 2},
		Cache:   CacheConfig{TTLSec: 86400},
		Logging: LoggingConfig{Level: "info"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}

	if cfg.Cache.TTL() != 24*time.Hour {
		t.Errorf("Cache.TTL() = %v, want 24h", cfg.Cache.TTL())
	}
	if cfg.Upstream.Timeout() != 30*time.Second {
		t.Errorf("Upstream.Timeout() = %v", cfg.Upstream.Timeout())
	}
	if cfg.HTTP.Addr() != ":8080" {
		t.Errorf("HTTP.Addr() = %q", cfg.HTTP.Addr())
	}
	if cfg.RedisEnabled() {
		t.Error("Redis should be disabled without an address")
	}
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("MEDIMATCH_TEST_KEY", "from-env")
	t.Setenv("MEDIMATCH_TEST_EMPTY", "")

	doc := `
upstream:
  service_key: ${MEDIMATCH_TEST_KEY}
redis:
  addr: ${MEDIMATCH_TEST_EMPTY:-localhost:6379}
logging:
  level: ${MEDIMATCH_TEST_UNSET:-debug}
`
	cfg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Upstream.ServiceKey != "from-env" {
		t.Errorf("ServiceKey = %q", cfg.Upstream.ServiceKey)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Config{Upstream: UpstreamConfig{ServiceKey: "abc"}}
		cfg.ApplyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing service key", mutate: func(c *Config) { c.Upstream.ServiceKey = " " }, wantErr: "service_key"},
		{name: "port out of range", mutate: func(c *Config) { c.HTTP.Port = 70000 }, wantErr: "http.port"},
		{name: "relative base url", mutate: func(c *Config) { c.Upstream.BaseURL = "apis.data.go.kr" }, wantErr: "base_url"},
		{name: "negative rows", mutate: func(c *Config) { c.Upstream.NumOfRows = -1 }, wantErr: "num_of_rows"},
		{name: "negative daily limit", mutate: func(c *Config) { c.Upstream.DailyLimit = -1 }, wantErr: "daily_limit"},
		{name: "unknown log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	doc := "http:\n  port: 9090\nupstream:\n  service_key: k\n  daily_limit: 1000\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.HTTP.Port != 9090 || cfg.Upstream.DailyLimit != 1000 {
		t.Errorf("unexpected config: %+v", cfg)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFile() of a missing file should fail")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	t.Setenv("MEDIMATCH_SERVICE_KEY", "local-key")

	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local) error = %v", err)
	}
	if cfg.Upstream.ServiceKey != "local-key" {
		t.Errorf("ServiceKey = %q", cfg.Upstream.ServiceKey)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("GetEnv() = %q, want local", got)
	}

	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("GetEnv() = %q, want prod", got)
	}
}
