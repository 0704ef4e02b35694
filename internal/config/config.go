// Package config handles the configuration directory, settings and stored token.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/oauth2"
)

const (
	// AppName is the application directory name.
	AppName = "taskmgr"

	// SettingsFile is the optional settings filename inside the config dir.
	SettingsFile = "config.yaml"

	// TokenFile is the stored bearer token filename.
	TokenFile = "token.json"

	// EnvFile is the optional dotenv file read from the working directory.
	EnvFile = ".env"

	// DefaultAPIURL is the API base path.
	DefaultAPIURL = "/api"

	// DefaultOrigin is the origin a relative API URL is resolved against.
	DefaultOrigin = "http://localhost:8080"

	// DefaultTimeout bounds each API call.
	DefaultTimeout = 5 * time.Second
)

// ErrTokenFile reports a token file that exists but cannot be used.
var ErrTokenFile = errors.New("invalid " + TokenFile)

// Settings are the user-tunable values. Each can come from config.yaml,
// the environment (or .env), and some from flags, in increasing precedence.
type Settings struct {
	APIURL   string        `mapstructure:"api_url" env:"TASKMGR_API_URL"`
	Origin   string        `mapstructure:"origin" env:"TASKMGR_ORIGIN"`
	Timeout  time.Duration `mapstructure:"timeout" env:"TASKMGR_TIMEOUT"`
	Token    string        `mapstructure:"token" env:"TASKMGR_TOKEN"`
	LogLevel string        `mapstructure:"log_level" env:"TASKMGR_LOG_LEVEL"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	Settings
}

// New creates a Config with default settings and the default or specified
// config directory. If configDir is empty, uses XDG_CONFIG_HOME/taskmgr or
// $HOME/.config/taskmgr.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{
		Dir: dir,
		Settings: Settings{
			APIURL:   DefaultAPIURL,
			Origin:   DefaultOrigin,
			Timeout:  DefaultTimeout,
			LogLevel: "warn",
		},
	}, nil
}

// Load creates a Config and applies config.yaml, .env and the environment
// on top of the defaults.
func Load(configDir string) (*Config, error) {
	cfg, err := New(configDir)
	if err != nil {
		return nil, err
	}

	if err := loadFile(cfg.SettingsPath(), &cfg.Settings); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", SettingsFile, err)
	}

	// godotenv never overrides variables that are already set
	if err := godotenv.Load(EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", EnvFile, err)
	}

	if err := cleanenv.ReadEnv(&cfg.Settings); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("invalid timeout: %s", cfg.Timeout)
	}
	return cfg, nil
}

func loadFile(path string, s *Settings) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(s)
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// BaseURL returns the absolute API base URL without a trailing slash.
// A relative APIURL is resolved against Origin.
func (c *Config) BaseURL() (string, error) {
	api, err := url.Parse(strings.TrimSpace(c.APIURL))
	if err != nil {
		return "", fmt.Errorf("invalid api url %q: %w", c.APIURL, err)
	}
	if api.IsAbs() {
		if api.Host == "" {
			return "", fmt.Errorf("invalid api url %q: missing host", c.APIURL)
		}
		return strings.TrimRight(api.String(), "/"), nil
	}

	origin, err := url.Parse(strings.TrimSpace(c.Origin))
	if err != nil {
		return "", fmt.Errorf("invalid origin %q: %w", c.Origin, err)
	}
	if !origin.IsAbs() || origin.Host == "" {
		return "", fmt.Errorf("invalid origin %q: must be an absolute URL", c.Origin)
	}
	return strings.TrimRight(origin.ResolveReference(api).String(), "/"), nil
}

// SettingsPath returns the path to the optional settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// TokenPath returns the path to the stored token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}

// SaveToken writes a bearer token to the token file with mode 0600.
func (c *Config) SaveToken(token *oauth2.Token) error {
	if err := c.EnsureDir(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.TokenPath(), data, 0600)
}

// BearerToken returns the token to authenticate with, or nil if none is
// configured. A token from settings wins over the token file.
func (c *Config) BearerToken() (*oauth2.Token, error) {
	if c.Token != "" {
		return &oauth2.Token{AccessToken: c.Token, TokenType: "Bearer"}, nil
	}

	data, err := os.ReadFile(c.TokenPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenFile, err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenFile, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrTokenFile)
	}
	return &token, nil
}
