package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

// validConfig returns a Config that passes validation.
func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		Store:   StoreConfig{Backend: BackendFile, Path: "./data", CartKey: "lego_cart_v1", MaxConns: 4},
		Catalog: CatalogConfig{FetchTimeout: time.Second, Locale: "en"},
		Upload:  UploadConfig{MaxFileSize: 1, MaxConcurrent: 1, MaxWaitTime: time.Second, Timeout: time.Minute},
		Rate:    RateLimitConfig{Enabled: true, RequestsPerMinute: 100, Burst: 10},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Store.Backend != BackendFile {
		t.Errorf("Store.Backend = %q, want %q", cfg.Store.Backend, BackendFile)
	}
	if cfg.Store.CartKey != "lego_cart_v1" {
		t.Errorf("Store.CartKey = %q, want %q", cfg.Store.CartKey, "lego_cart_v1")
	}
	if cfg.Catalog.Locale != "en" {
		t.Errorf("Catalog.Locale = %q, want %q", cfg.Catalog.Locale, "en")
	}
	if cfg.Upload.MaxFileSize != 20971520 {
		t.Errorf("Upload.MaxFileSize = %d, want %d", cfg.Upload.MaxFileSize, 20971520)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("UPLOAD_MAX_CONCURRENT", "10")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Upload.MaxConcurrent != 10 {
		t.Errorf("Upload.MaxConcurrent = %d, want %d", cfg.Upload.MaxConcurrent, 10)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Store.Backend != BackendMemory {
		t.Errorf("Store.Backend = %q, want %q", cfg.Store.Backend, BackendMemory)
	}
	if cfg.Rate.Enabled {
		t.Error("Rate.Enabled = true, want false")
	}
}

func TestLoad_StoreURLFallback(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		env     map[string]string
		want    string
	}{
		{"redis uses REDIS_URL", "redis", map[string]string{"REDIS_URL": "redis://cache:6379/0"}, "redis://cache:6379/0"},
		{"postgres uses DATABASE_URL", "postgres", map[string]string{"DATABASE_URL": "postgres://db/shop"}, "postgres://db/shop"},
		{"STORE_URL wins", "redis", map[string]string{"STORE_URL": "redis://primary", "REDIS_URL": "redis://other"}, "redis://primary"},
		{"file ignores DATABASE_URL", "file", map[string]string{"DATABASE_URL": "postgres://db/shop"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STORE_BACKEND", tt.backend)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Store.URL != tt.want {
				t.Errorf("Store.URL = %q, want %q", cfg.Store.URL, tt.want)
			}
		})
	}
}

func TestLoad_RedisWithoutURL(t *testing.T) {
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("STORE_URL", "")
	t.Setenv("REDIS_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for redis backend without URL")
	}
	if !strings.Contains(err.Error(), "STORE_URL") {
		t.Errorf("error should mention STORE_URL: %v", err)
	}
}

func TestLoad_Duration(t *testing.T) {
	t.Setenv("SERVER_READ_TIMEOUT", "45s")
	t.Setenv("UPLOAD_MAX_WAIT_TIME", "1m30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Upload.MaxWaitTime != 90*time.Second {
		t.Errorf("Upload.MaxWaitTime = %v, want %v", cfg.Upload.MaxWaitTime, 90*time.Second)
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Errorf("Load() error = %v, want mention of SERVER_PORT", err)
	}
}

func TestLoadStruct_TagsAndSlices(t *testing.T) {
	var target struct {
		Hosts    []string `env:"TEST_HOSTS"`
		Name     string   `env:"TEST_NAME" envAlt:"TEST_NAME_ALT"`
		Required string   `env:"TEST_REQUIRED" required:"true"`
	}
	t.Setenv("TEST_HOSTS", "a.example, b.example ,,c.example")
	t.Setenv("TEST_NAME_ALT", "fallback")
	t.Setenv("TEST_REQUIRED", "yes")

	if err := loadStruct(reflect.ValueOf(&target).Elem()); err != nil {
		t.Fatalf("loadStruct() error = %v", err)
	}
	if want := []string{"a.example", "b.example", "c.example"}; !reflect.DeepEqual(target.Hosts, want) {
		t.Errorf("Hosts = %v, want %v", target.Hosts, want)
	}
	if target.Name != "fallback" {
		t.Errorf("Name = %q, want %q", target.Name, "fallback")
	}

	t.Setenv("TEST_REQUIRED", "")
	if err := loadStruct(reflect.ValueOf(&target).Elem()); err == nil {
		t.Error("loadStruct() expected error for missing required value")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"invalid port", func(c *Config) { c.Server.Port = 99999 }, "SERVER_PORT"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "mongo" }, "STORE_BACKEND"},
		{"file without path", func(c *Config) { c.Store.Path = "" }, "STORE_PATH"},
		{"postgres without url", func(c *Config) { c.Store.Backend = BackendPostgres }, "STORE_URL"},
		{"empty cart key", func(c *Config) { c.Store.CartKey = "" }, "STORE_CART_KEY"},
		{"bad locale", func(c *Config) { c.Catalog.Locale = "no such locale!" }, "CATALOG_LOCALE"},
		{"bad proxy", func(c *Config) { c.Security.TrustedProxies = []string{"10.0.0.0/8", "not-an-ip"} }, "TRUSTED_PROXIES"},
		{"zero burst", func(c *Config) { c.Rate.Burst = 0 }, "RATE_LIMIT_BURST"},
		{"burst ignored when disabled", func(c *Config) { c.Rate.Enabled = false; c.Rate.Burst = 0 }, ""},
		{"invalid log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error mentioning %s", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error should mention %s: %v", tt.wantErr, err)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		if got := cfg.Addr(); got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfigString_MasksURL(t *testing.T) {
	cfg := validConfig()
	cfg.Store.URL = "redis://:secretpassword@cache:6379/0"

	cfg.Security.CatalogKeys = []string{"topsecretkey"}

	str := cfg.String()
	if strings.Contains(str, "topsecretkey") {
		t.Error("String() should not print catalog keys")
	}
	if strings.Contains(str, "secretpassword") {
		t.Error("String() should mask the store URL")
	}
	if !strings.Contains(str, "MASKED") {
		t.Error("String() should contain MASKED placeholder")
	}
}
