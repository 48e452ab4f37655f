// Package config содержит логику чтения конфигурации веб-клиента столовых и утилиты comedorctl.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Хранилища сессий сервера.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

const (
	defaultRunAddress     = "localhost:8080"
	defaultAPIURL         = "http://localhost:3000"
	defaultRedisAddress   = "localhost:6379"
	defaultRequestTimeout = 10 * time.Second
	defaultSessionTTL     = 30 * 24 * time.Hour
)

// Config содержит параметры конфигурации сервера comedor.
type Config struct {
	RunAddress     string        `env:"RUN_ADDRESS"`
	APIURL         string        `env:"API_URL"`
	SessionStore   string        `env:"SESSION_STORE"`
	DatabaseURI    string        `env:"DATABASE_URI"`
	RedisAddress   string        `env:"REDIS_ADDRESS"`
	SessionSecret  string        `env:"SESSION_SECRET"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
	SessionTTL     time.Duration `env:"SESSION_TTL"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
// Нулевой REQUEST_TIMEOUT отключает ограничение времени запроса к бэкенду.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envCfg := *cfg

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.APIURL, "b", defaultAPIURL, "cafeteria backend base URL")
	flag.StringVar(&cfg.SessionStore, "s", StoreMemory, "session store: memory, postgres or redis")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI for postgres session store")
	flag.StringVar(&cfg.RedisAddress, "r", defaultRedisAddress, "redis address for redis session store")
	flag.StringVar(&cfg.SessionSecret, "k", "", "session cookie signing key")
	flag.DurationVar(&cfg.RequestTimeout, "t", defaultRequestTimeout, "backend request timeout, 0 disables it")
	flag.DurationVar(&cfg.SessionTTL, "l", defaultSessionTTL, "idle session lifetime")

	flag.Parse()

	if envCfg.RunAddress != "" {
		cfg.RunAddress = envCfg.RunAddress
	}
	if envCfg.APIURL != "" {
		cfg.APIURL = envCfg.APIURL
	}
	if envCfg.SessionStore != "" {
		cfg.SessionStore = envCfg.SessionStore
	}
	if envCfg.DatabaseURI != "" {
		cfg.DatabaseURI = envCfg.DatabaseURI
	}
	if envCfg.RedisAddress != "" {
		cfg.RedisAddress = envCfg.RedisAddress
	}
	if envCfg.SessionSecret != "" {
		cfg.SessionSecret = envCfg.SessionSecret
	}
	if timeoutFromEnv() {
		cfg.RequestTimeout = envCfg.RequestTimeout
	}
	if envCfg.SessionTTL != 0 {
		cfg.SessionTTL = envCfg.SessionTTL
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.RequestTimeout < 0 {
		cfg.RequestTimeout = 0
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// timeoutFromEnv сообщает, задан ли REQUEST_TIMEOUT: нулевое значение из окружения допустимо.
func timeoutFromEnv() bool {
	v, ok := os.LookupEnv("REQUEST_TIMEOUT")
	return ok && v != ""
}

func (c *Config) validate() error {
	switch c.SessionStore {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if c.DatabaseURI == "" {
			return fmt.Errorf("session store %q requires DATABASE_URI", c.SessionStore)
		}
	default:
		return fmt.Errorf("unknown session store %q", c.SessionStore)
	}
	return nil
}

// ClientConfig содержит параметры утилиты comedorctl.
// Флаги командной строки разбирает cobra, здесь только окружение и значения по умолчанию.
type ClientConfig struct {
	APIURL         string        `env:"API_URL"`
	Home           string        `env:"COMEDOR_HOME"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// ParseClient считывает конфигурацию comedorctl из переменных окружения.
func ParseClient() (*ClientConfig, error) {
	cfg := &ClientConfig{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if !timeoutFromEnv() {
		cfg.RequestTimeout = defaultRequestTimeout
	} else if cfg.RequestTimeout < 0 {
		cfg.RequestTimeout = 0
	}
	if cfg.Home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.Home = filepath.Join(home, ".comedor")
	}

	return cfg, nil
}
