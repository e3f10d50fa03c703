package config

import (
	"context"
	"net"
	"path/filepath"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/ragmemory/pkg/log"
)

type AppConfig struct {
	Host    string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port    int    `env:"APP_PORT" envDefault:"8000"`
	DataDir string `env:"DATA_DIR" envDefault:"./data"`
	LogDir  string `env:"LOG_DIR" envDefault:"./logs"`
	Debug   bool   `env:"DEBUG" envDefault:"false"`

	// Background work
	WorkerCount     int           `env:"WORKER_COUNT" envDefault:"4"`
	WorkerQueueSize int           `env:"WORKER_QUEUE_SIZE" envDefault:"256"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetAddress() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c AppConfig) GetUsersPath() string {
	return filepath.Join(c.DataDir, "users")
}

func (c AppConfig) GetVectorsPath() string {
	return filepath.Join(c.DataDir, "vectors")
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.DataDir, "ragmem.db")
}

func (c AppConfig) GetConversationLogPath() string {
	return filepath.Join(c.LogDir, "conversations")
}
