// internal/config/config.go
//
// Process configuration, read from the environment (and an optional .env file).

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is shared by every desktools command.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Port     string `env:"PORT" envDefault:"5175"`
	DBPath   string `env:"DB_PATH" envDefault:"./data/desktools.db"`

	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string `env:"COOKIE_NAME" envDefault:"desktools_token"`
	ClientOrigin   string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	AppEnv         string `env:"APP_ENV" envDefault:"development"`
	DailySalt      string `env:"DAILY_SALT" envDefault:"local_dev_salt"`

	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"10"`

	WeatherBaseURL string        `env:"WEATHER_BASE_URL" envDefault:"https://wttr.in"`
	WeatherTimeout time.Duration `env:"WEATHER_TIMEOUT" envDefault:"10s"`
	ReportDir      string        `env:"REPORT_DIR" envDefault:"."`
}

// Production reports whether cookies should be issued Secure/SameSite=None.
func (c Config) Production() bool { return c.AppEnv == "production" }

// Load reads .env (if present) and parses the environment into a Config.
func Load() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
