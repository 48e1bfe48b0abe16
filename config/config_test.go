package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trendgate.yaml")
	yaml := `
issuer: https://issuer.example.com/
data_dir: /var/lib/trendgate
audiences:
  - https://api.example.com/
required_scopes:
  - trends:read
log_level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Issuer != "https://issuer.example.com/" {
		t.Errorf("Issuer = %q", cfg.Issuer)
	}
	if cfg.ListenAddr != ":8788" {
		t.Errorf("ListenAddr default = %q", cfg.ListenAddr)
	}
	if cfg.DefaultLimit != 25 || cfg.MaxLimit != 200 {
		t.Errorf("limits = %d/%d", cfg.DefaultLimit, cfg.MaxLimit)
	}
	if len(cfg.RequiredScopes) != 1 || cfg.RequiredScopes[0] != "trends:read" {
		t.Errorf("RequiredScopes = %v", cfg.RequiredScopes)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TRENDGATE_ISSUER", "https://env-issuer.example.com")
	t.Setenv("TRENDGATE_DATA_DIR", "/tmp/data")
	t.Setenv("TRENDGATE_AUDIENCES", "https://a.example.com/, https://b.example.com/")
	t.Setenv("TRENDGATE_LISTEN_ADDR", ":9000")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Issuer != "https://env-issuer.example.com" {
		t.Errorf("Issuer = %q", cfg.Issuer)
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if len(cfg.Audiences) != 2 || cfg.Audiences[1] != "https://b.example.com/" {
		t.Errorf("Audiences = %v, want comma split and trimmed", cfg.Audiences)
	}
}

func TestLoad_Validation(t *testing.T) {
	t.Run("missing issuer", func(t *testing.T) {
		t.Setenv("TRENDGATE_DATA_DIR", "/tmp/data")
		if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "issuer") {
			t.Errorf("err = %v, want issuer requirement", err)
		}
	})

	t.Run("missing data dir", func(t *testing.T) {
		t.Setenv("TRENDGATE_ISSUER", "https://issuer.example.com/")
		if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "data_dir") {
			t.Errorf("err = %v, want data_dir requirement", err)
		}
	})

	t.Run("bad limits", func(t *testing.T) {
		t.Setenv("TRENDGATE_ISSUER", "https://issuer.example.com/")
		t.Setenv("TRENDGATE_DATA_DIR", "/tmp/data")
		t.Setenv("TRENDGATE_MAX_LIMIT", "10")
		if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "max_limit") {
			t.Errorf("err = %v, want limit ordering check", err)
		}
	})
}

func TestJWKSURL(t *testing.T) {
	tests := []struct {
		issuer string
		want   string
	}{
		{"https://issuer.example.com", "https://issuer.example.com/.well-known/jwks.json"},
		{"https://issuer.example.com/", "https://issuer.example.com/.well-known/jwks.json"},
		{"https://issuer.example.com/tenant/", "https://issuer.example.com/tenant/.well-known/jwks.json"},
	}
	for _, tc := range tests {
		cfg := Config{Issuer: tc.issuer}
		if got := cfg.JWKSURL(); got != tc.want {
			t.Errorf("JWKSURL(%q) = %q, want %q", tc.issuer, got, tc.want)
		}
	}
}
