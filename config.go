package queue

import (
	"fmt"
	"net"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config holds the connection settings forwarded to the queue service.
type Config struct {
	Host      string `env:"QUEUE_REDIS_HOST" envDefault:"127.0.0.1" validate:"required"`
	Port      int    `env:"QUEUE_REDIS_PORT" envDefault:"6379" validate:"min=1,max=65535"`
	DB        int    `env:"QUEUE_REDIS_DB" envDefault:"0" validate:"min=0"`
	Password  string `env:"QUEUE_REDIS_PASSWORD"`
	Namespace string `env:"QUEUE_NAMESPACE" envDefault:"rsmq" validate:"required"`
	Realtime  bool   `env:"QUEUE_REALTIME" envDefault:"false"`
}

func DefaultConfig() Config {
	return Config{
		Host:      "127.0.0.1",
		Port:      6379,
		DB:        0,
		Namespace: "rsmq",
	}
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("queue: invalid config: %w", err)
	}
	return nil
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
