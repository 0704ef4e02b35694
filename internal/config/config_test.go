package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestBaseURL(t *testing.T) {
	tests := []struct {
		name   string
		apiURL string
		origin string
		want   string
	}{
		{"default", DefaultAPIURL, DefaultOrigin, "http://localhost:8080/api"},
		{"trailing slash", "/api/", "http://example.com/", "http://example.com/api"},
		{"absolute", "https://tasks.example.com/v1/", DefaultOrigin, "https://tasks.example.com/v1"},
		{"relative without slash", "api", "http://example.com", "http://example.com/api"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Settings: Settings{APIURL: tt.apiURL, Origin: tt.origin}}
			got, err := cfg.BaseURL()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestBaseURL_BadOrigin(t *testing.T) {
	cfg := &Config{Settings: Settings{APIURL: "/api", Origin: "localhost"}}
	if _, err := cfg.BaseURL(); err == nil {
		t.Error("expected error for origin without scheme")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Dir != dir {
		t.Errorf("expected dir %q, got %q", dir, cfg.Dir)
	}
	if cfg.APIURL != DefaultAPIURL || cfg.Origin != DefaultOrigin || cfg.Timeout != DefaultTimeout {
		t.Errorf("unexpected defaults: %+v", cfg.Settings)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	settings := "api_url: http://file.example.com/api\ntimeout: 2s\nlog_level: debug\n"
	if err := os.WriteFile(filepath.Join(dir, SettingsFile), []byte(settings), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TASKMGR_TIMEOUT", "3s")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIURL != "http://file.example.com/api" {
		t.Errorf("expected api url from file, got %q", cfg.APIURL)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("expected env timeout to win, got %s", cfg.Timeout)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level from file, got %q", cfg.LogLevel)
	}
	if cfg.Origin != DefaultOrigin {
		t.Errorf("expected default origin, got %q", cfg.Origin)
	}
}

func TestLoad_InvalidTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("TASKMGR_TIMEOUT", "0s")

	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected error for zero timeout")
	}
}

func TestBearerToken_None(t *testing.T) {
	cfg, _ := New(t.TempDir())

	token, err := cfg.BearerToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != nil {
		t.Errorf("expected no token, got %+v", token)
	}
}

func TestBearerToken_SavedAndSettings(t *testing.T) {
	cfg, _ := New(filepath.Join(t.TempDir(), "nested"))

	if err := cfg.SaveToken(&oauth2.Token{AccessToken: "saved", TokenType: "Bearer"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(cfg.TokenPath())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600, got %o", info.Mode().Perm())
	}

	token, err := cfg.BearerToken()
	if err != nil || token == nil || token.AccessToken != "saved" {
		t.Fatalf("expected saved token, got %+v, %v", token, err)
	}

	cfg.Token = "from-env"
	token, err = cfg.BearerToken()
	if err != nil || token.AccessToken != "from-env" {
		t.Errorf("expected settings token to win, got %+v, %v", token, err)
	}
}

func TestBearerToken_Invalid(t *testing.T) {
	cfg, _ := New(t.TempDir())

	for _, body := range []string{"not json", `{"token_type":"Bearer"}`} {
		if err := os.WriteFile(cfg.TokenPath(), []byte(body), 0600); err != nil {
			t.Fatal(err)
		}
		_, err := cfg.BearerToken()
		if !errors.Is(err, ErrTokenFile) {
			t.Errorf("%q: expected ErrTokenFile, got %v", body, err)
		}
	}
}

func TestRemoveToken(t *testing.T) {
	cfg, _ := New(t.TempDir())
	if cfg.HasToken() {
		t.Fatal("expected no token initially")
	}
	if err := cfg.SaveToken(&oauth2.Token{AccessToken: "x"}); err != nil {
		t.Fatal(err)
	}
	if !cfg.HasToken() {
		t.Fatal("expected token after save")
	}
	if err := cfg.RemoveToken(); err != nil {
		t.Fatal(err)
	}
	if cfg.HasToken() {
		t.Error("expected token to be removed")
	}
}

// clearEnv unsets every TASKMGR_ variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"TASKMGR_API_URL", "TASKMGR_ORIGIN", "TASKMGR_TIMEOUT", "TASKMGR_TOKEN", "TASKMGR_LOG_LEVEL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}
