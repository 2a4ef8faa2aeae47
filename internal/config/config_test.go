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
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DOACOES_API_URL", "")
	t.Setenv("DOACOES_REQUEST_TIMEOUT", "")
	t.Setenv("DOACOES_COOKIE_SECURE", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
addr: ":9090"
apiURL: "http://api.internal:5000/api"
requestTimeout: 3s
visitorTTL: 30m
`)
	t.Setenv("DOACOES_API_URL", "https://doacoes.example.org/api")
	t.Setenv("DOACOES_REQUEST_TIMEOUT", "15")
	t.Setenv("DOACOES_COOKIE_SECURE", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.VisitorTTL != 30*time.Minute {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.APIURL != "https://doacoes.example.org/api" {
		t.Errorf("env API URL not applied: %q", cfg.APIURL)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Errorf("expected 15s timeout, got %v", cfg.RequestTimeout)
	}
	if !cfg.CookieSecure {
		t.Error("expected secure cookies")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("DOACOES_API_URL", "")
	t.Setenv("DOACOES_COOKIE_SECURE", "")
	t.Setenv("DOACOES_REQUEST_TIMEOUT", "")

	tests := map[string]string{
		"relative url": `apiURL: "/api"`,
		"zero timeout": `requestTimeout: 0s`,
		"bad level":    `logLevel: loud`,
		"bad yaml":     `addr: [`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Error("expected error")
			}
		})
	}

	t.Setenv("DOACOES_REQUEST_TIMEOUT", "soon")
	if _, err := Load(""); err == nil {
		t.Error("expected error for bad timeout env")
	}
}
