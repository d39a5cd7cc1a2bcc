package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: "gateway"
  environment: "development"
  port: 8080
upstream:
  base_url: "https://api.example.com/1"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Upstream.Timeout() != 15*time.Second {
		t.Errorf("timeout default: %v", cfg.Upstream.Timeout())
	}
	if cfg.Cache.Size != 4096 {
		t.Errorf("cache size default: %d", cfg.Cache.Size)
	}
	if cfg.Refresh.Cron != "*/5 * * * *" {
		t.Errorf("refresh cron default: %q", cfg.Refresh.Cron)
	}
	if cfg.Proxy.MaxRequestsPerMinute != 120 {
		t.Errorf("proxy limit default: %d", cfg.Proxy.MaxRequestsPerMinute)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
app:
  name: "gateway"
  environment: "development"
  port: 8080
upstream:
  base_url: "https://api.example.com/1"
`)

	t.Setenv("UPSTREAM_BASE_URL", "https://staging.example.com/1")
	t.Setenv("REFRESH_BEARER_TOKEN", "refresh-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Upstream.BaseURL != "https://staging.example.com/1" {
		t.Errorf("base URL not overridden: %q", cfg.Upstream.BaseURL)
	}
	if cfg.Refresh.FallbackToken != "refresh-secret" {
		t.Errorf("fallback token not loaded: %q", cfg.Refresh.FallbackToken)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{
			"missing name",
			"app:\n  port: 8080\nupstream:\n  base_url: \"https://api.example.com\"\n",
		},
		{
			"missing port",
			"app:\n  name: \"gateway\"\nupstream:\n  base_url: \"https://api.example.com\"\n",
		},
		{
			"missing upstream",
			"app:\n  name: \"gateway\"\n  port: 8080\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.body)
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
