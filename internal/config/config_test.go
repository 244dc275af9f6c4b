package config

import (
	"slices"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "SERVER_URL", "SESSION_BACKEND", "CORS_ORIGINS", "TAB_ROUTES", "SAVE_DELAY", "SCROLL_THRESHOLD", "PDF_FALLBACK_PDFTOTEXT"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8091" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8091")
	}
	if cfg.ServerURL != "http://localhost:5000" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.SessionBackend != SessionFile {
		t.Errorf("SessionBackend = %q, want %q", cfg.SessionBackend, SessionFile)
	}
	if !slices.Equal(cfg.CORSOrigins, []string{"*"}) {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if len(cfg.TabRoutes) != 4 {
		t.Errorf("TabRoutes = %v, want 4 routes", cfg.TabRoutes)
	}
	if cfg.SaveDelay != 500*time.Millisecond {
		t.Errorf("SaveDelay = %v, want 500ms", cfg.SaveDelay)
	}
	if cfg.ScrollThreshold != 150 {
		t.Errorf("ScrollThreshold = %v, want 150", cfg.ScrollThreshold)
	}
	if cfg.PDFTextFallback {
		t.Error("PDFTextFallback = true, want false by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_URL", "https://api.example.com/")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("SESSION_BACKEND", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SAVE_DELAY", "-1s")
	t.Setenv("HTTP_TIMEOUT", "not-a-duration")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "true")

	cfg := Load()
	if cfg.ServerURL != "https://api.example.com" {
		t.Errorf("ServerURL = %q, want trailing slash trimmed", cfg.ServerURL)
	}
	if !slices.Equal(cfg.CORSOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.SessionBackend != SessionRedis || cfg.RedisDB != 3 {
		t.Errorf("session = %q db %d", cfg.SessionBackend, cfg.RedisDB)
	}
	if cfg.SaveDelay != 0 {
		t.Errorf("SaveDelay = %v, want 0", cfg.SaveDelay)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v, want fallback 30s", cfg.HTTPTimeout)
	}
	if !cfg.PDFTextFallback {
		t.Error("PDFTextFallback = false, want true")
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		ServerURL:      "http://localhost:5000",
		SessionBackend: SessionMemory,
		LoginRoute:     "/pages/index/index",
		TabRoutes:      []string{"/pages/index/index"},
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"bad url", func(c *Config) { c.ServerURL = "localhost:5000" }, true},
		{"unknown backend", func(c *Config) { c.SessionBackend = "etcd" }, true},
		{"file without path", func(c *Config) { c.SessionBackend = SessionFile }, true},
		{"relative login route", func(c *Config) { c.LoginRoute = "pages/index" }, true},
		{"no tabs", func(c *Config) { c.TabRoutes = nil }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
