package devserver

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the devserver configuration, read from the environment.
type Config struct {
	Addr            string        `env:"TASKMGR_DEVSERVER_ADDR" env-default:":8080"`
	Prefix          string        `env:"TASKMGR_DEVSERVER_PREFIX" env-default:"/api"`
	LogLevel        string        `env:"TASKMGR_LOG_LEVEL" env-default:"info"`
	ReadTimeout     time.Duration `env:"TASKMGR_DEVSERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `env:"TASKMGR_DEVSERVER_WRITE_TIMEOUT" env-default:"10s"`
	ShutdownTimeout time.Duration `env:"TASKMGR_DEVSERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	return cfg, nil
}
