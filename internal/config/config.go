package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Config holds the settings of the contacts service. They are taken from the system's
// environment variables, optionally preloaded from a .env file.
type Config struct {
	Port int `env:"PORT" envDefault:"8080"`

	DBHost            string        `env:"DBHOST" envDefault:"localhost:3306"`
	DBUser            string        `env:"DBUSER" envDefault:"root"`
	DBPassword        string        `env:"DBPWD"`
	DBName            string        `env:"DBNAME" envDefault:"test"`
	DBMaxOpen         int           `env:"DB_MAX_OPEN" envDefault:"25"`
	DBMaxIdle         int           `env:"DB_MAX_IDLE" envDefault:"25"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`

	GinLogging string `env:"GIN_LOGGING" envDefault:"on"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"LOG_FORMAT" envDefault:"json"`
	LogOutput  string `env:"LOG_OUTPUT" envDefault:"stdout"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"0"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`

	BirthdayWindowDays int           `env:"BIRTHDAY_WINDOW_DAYS" envDefault:"7"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Load reads the .env file in the working directory, if there is one, and parses the
// environment into a Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env file: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values that env cannot check on its own.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.BirthdayWindowDays < 0 {
		return fmt.Errorf("invalid BIRTHDAY_WINDOW_DAYS %d", c.BirthdayWindowDays)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst <= 0 {
		return fmt.Errorf("invalid RATE_LIMIT_BURST %d", c.RateLimitBurst)
	}
	return nil
}

// DSN returns the data source name for the MySQL driver.
func (c Config) DSN() string {
	dsn := mysql.NewConfig()
	dsn.User = c.DBUser
	dsn.Passwd = c.DBPassword
	dsn.Net = "tcp"
	dsn.Addr = c.DBHost
	dsn.DBName = c.DBName
	dsn.ParseTime = true
	return dsn.FormatDSN()
}

// AccessLog reports whether HTTP request logging is turned on.
func (c Config) AccessLog() bool {
	return !strings.EqualFold(c.GinLogging, "off")
}
