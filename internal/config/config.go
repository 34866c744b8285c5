package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

type Config struct {
	LogLevel          string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort          string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	HTTP              HTTP      `yaml:"http"`
	Storage           Storage   `yaml:"storage"`
	Redis             Redis     `yaml:"redis"`
	SQLiteStoragePath string    `yaml:"sqlite-storage-path" env:"SQLITE_STORAGE_PATH" env-default:"./data/sessions.db"`
	Session           Session   `yaml:"session"`
	Retention         Retention `yaml:"retention"`
}

type HTTP struct {
	MaxBodyBytes int64 `yaml:"max-body-bytes" env:"HTTP_MAX_BODY_BYTES" env-default:"1048576"`
}

type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"redis"`
}

type Redis struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Session struct {
	MaxDocumentBytes int `yaml:"max-document-bytes" env:"SESSION_MAX_DOCUMENT_BYTES" env-default:"262144"`
	CodeAttempts     int `yaml:"code-attempts" env:"SESSION_CODE_ATTEMPTS" env-default:"16"`
	CASRetries       int `yaml:"cas-retries" env:"SESSION_CAS_RETRIES" env-default:"8"`
}

// Retention - TTLs of the session sweeper. cleanenv treats zero as unset, so a negative TTL
// keeps that class forever and a negative interval disables the background sweep in serve.
type Retention struct {
	TerminalTTL   time.Duration `yaml:"terminal-ttl" env:"RETENTION_TERMINAL_TTL" env-default:"1h"`
	WaitingTTL    time.Duration `yaml:"waiting-ttl" env:"RETENTION_WAITING_TTL" env-default:"30m"`
	IdleTTL       time.Duration `yaml:"idle-ttl" env:"RETENTION_IDLE_TTL" env-default:"24h"`
	SweepInterval time.Duration `yaml:"sweep-interval" env:"RETENTION_SWEEP_INTERVAL" env-default:"5m"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) validate() error {
	switch that.Storage.Driver {
	case DriverRedis, DriverSQLite:
	default:
		return fmt.Errorf("unknown storage driver %q", that.Storage.Driver)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
