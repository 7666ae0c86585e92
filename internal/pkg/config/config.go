package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	AcInfinityCfg AcInfinityConfig `envPrefix:"ACINFINITY_"`
	MqttCfg       MqttConfig       `envPrefix:"MQTT_"`

	DatabaseURL      string `env:"DATABASE_URL,required,notEmpty"`
	MigrationsFolder string `env:"MIGRATIONS_FOLDER" envDefault:"migrations"`
	HTTPAddr         string `env:"HTTP_ADDR" envDefault:"0.0.0.0:8000"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"INFO"`
	// AllowedOrigins limits browser access to the API and websocket; empty
	// allows any origin.
	AllowedOrigins []string `env:"HTTP_ALLOWED_ORIGINS" envSeparator:","`
	// RepublishCron schedules a full discovery republish, in robfig/cron
	// syntax.
	RepublishCron string `env:"REPUBLISH_CRON" envDefault:"CRON_TZ=UTC 0 3 * * *"`
	// EntryID selects the config entry to run; empty picks the only stored
	// entry or bootstraps one from the account credentials.
	EntryID string `env:"ENTRY_ID"`
}

type AcInfinityConfig struct {
	Host         string `env:"HOST" envDefault:"http://www.acinfinityserver.com"`
	Email        string `env:"EMAIL"`
	Password     string `env:"PASSWORD"`
	PollInterval int    `env:"POLL_INTERVAL" envDefault:"10"`
}

type MqttConfig struct {
	Host     string `env:"HOST,required,notEmpty"`
	Username string `env:"USER"`
	Password string `env:"PASS"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.AcInfinityCfg.PollInterval < model.MinPollingInterval {
		return fmt.Errorf("%w: poll interval must be at least %d seconds", ErrInvalidConfig, model.MinPollingInterval)
	}
	if (c.AcInfinityCfg.Email == "") != (c.AcInfinityCfg.Password == "") {
		return fmt.Errorf("%w: account email and password must be set together", ErrInvalidConfig)
	}
	return nil
}
